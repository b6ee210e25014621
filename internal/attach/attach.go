// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach turns image files into inline data URIs for chat messages.
package attach

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/chatbot-tui/internal/util"
)

// DefaultMaxBytes is the largest file accepted when no limit is configured.
const DefaultMaxBytes int64 = 5 << 20

// sniffLen is how much of the file content type detection looks at.
const sniffLen = 512

var (
	// ErrUnsupportedType is returned for anything that is not image/*.
	ErrUnsupportedType = errors.New("unsupported attachment type")
	// ErrTooLarge is returned when the file exceeds the size limit.
	ErrTooLarge = errors.New("attachment too large")
	// ErrNotFile is returned for directories and other non-regular files.
	ErrNotFile = errors.New("attachment is not a regular file")
	// ErrEmpty is returned for zero-length files.
	ErrEmpty = errors.New("attachment is empty")
)

// Attachment is a decoded image ready to embed in a message.
type Attachment struct {
	Name    string
	MIME    string
	Size    int64
	DataURI string
}

// Caption is the message text shown alongside the image.
func (a Attachment) Caption() string {
	return "📷 " + a.Name
}

// Chip is a short label such as "[image/png · 12.3 KB]".
func (a Attachment) Chip() string {
	return fmt.Sprintf("[%s · %s]", a.MIME, util.FormatBytes(a.Size))
}

// Ingest reads the image at path. maxBytes <= 0 means DefaultMaxBytes.
func Ingest(ctx context.Context, path string, maxBytes int64) (Attachment, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	path = CleanPath(path)
	if path == "" {
		return Attachment{}, fmt.Errorf("attachment path is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	// Stat the open handle so size and type describe the file actually read
	info, err := f.Stat()
	if err != nil {
		return Attachment{}, fmt.Errorf("cannot access attachment: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Attachment{}, fmt.Errorf("%w: %s", ErrNotFile, path)
	}
	if info.Size() == 0 {
		return Attachment{}, fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	if info.Size() > maxBytes {
		return Attachment{}, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge,
			util.FormatBytes(info.Size()), util.FormatBytes(maxBytes))
	}

	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return Attachment{}, fmt.Errorf("%w: file grew while reading", ErrTooLarge)
	}

	mediaType := DetectType(path, data)
	if !IsImage(mediaType) {
		return Attachment{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}

	return Attachment{
		Name:    filepath.Base(path),
		MIME:    mediaType,
		Size:    int64(len(data)),
		DataURI: DataURI(mediaType, data),
	}, nil
}

// DetectType returns the media type for a file, from its extension first and
// from its leading bytes when the extension is unknown. Parameters such as
// charset are stripped.
func DetectType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return baseType(t)
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return baseType(http.DetectContentType(head))
}

// IsImage reports whether mediaType is image/*.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}

// DataURI encodes data as a base64 data URI.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its media type and payload.
func ParseDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}
	mediaType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid data URI payload: %w", err)
	}
	return mediaType, data, nil
}

// Reason turns an Ingest error into a short lower-case explanation.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return "only image files can be attached"
	case errors.Is(err, ErrTooLarge):
		return "that image is too large"
	case errors.Is(err, ErrNotFile):
		return "that path is not a file"
	case errors.Is(err, ErrEmpty):
		return "that file is empty"
	case errors.Is(err, os.ErrNotExist):
		return "file not found"
	default:
		return "could not attach: " + err.Error()
	}
}

// ChipFor describes a stored data URI without decoding it for display.
func ChipFor(uri string) string {
	mediaType, data, err := ParseDataURI(uri)
	if err != nil {
		return "[image]"
	}
	return Attachment{MIME: mediaType, Size: int64(len(data))}.Chip()
}

// CleanPath trims whitespace and surrounding quotes left by terminal
// drag-and-drop, and expands a leading ~.
func CleanPath(path string) string {
	path = strings.TrimSpace(path)
	if len(path) >= 2 {
		if (path[0] == '"' && path[len(path)-1] == '"') || (path[0] == '\'' && path[len(path)-1] == '\'') {
			path = path[1 : len(path)-1]
		}
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func baseType(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(strings.ToLower(t))
}
