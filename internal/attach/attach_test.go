// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestIngest_Image(t *testing.T) {
	path := writeFile(t, "cat.png", pngHeader)

	a, err := Ingest(context.Background(), path, 0)
	require.NoError(t, err)

	assert.Equal(t, "cat.png", a.Name)
	assert.Equal(t, "image/png", a.MIME)
	assert.Equal(t, int64(len(pngHeader)), a.Size)
	assert.True(t, strings.HasPrefix(a.DataURI, "data:image/png;base64,"))
	assert.Equal(t, "📷 cat.png", a.Caption())

	mt, data, err := ParseDataURI(a.DataURI)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
	assert.True(t, bytes.Equal(pngHeader, data))
}

func TestIngest_SniffsUnknownExtension(t *testing.T) {
	path := writeFile(t, "snapshot", pngHeader)

	a, err := Ingest(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", a.MIME)
}

func TestIngest_RejectsText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("just some notes"))

	_, err := Ingest(context.Background(), path, 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Contains(t, err.Error(), "text/plain")
}

func TestIngest_RejectsSniffedText(t *testing.T) {
	path := writeFile(t, "README", []byte("plain words without an extension"))

	_, err := Ingest(context.Background(), path, 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestIngest_TooLarge(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	path := writeFile(t, "big.png", data)

	_, err := Ingest(context.Background(), path, 32)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestIngest_Failures(t *testing.T) {
	dir := t.TempDir()

	_, err := Ingest(context.Background(), filepath.Join(dir, "missing.png"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Ingest(context.Background(), dir, 0)
	assert.ErrorIs(t, err, ErrNotFile)

	empty := writeFile(t, "empty.png", nil)
	_, err = Ingest(context.Background(), empty, 0)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Ingest(context.Background(), "   ", 0)
	assert.Error(t, err)
}

func TestIngest_Cancelled(t *testing.T) {
	path := writeFile(t, "cat.png", pngHeader)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Ingest(ctx, path, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		path string
		data []byte
		want string
	}{
		{"png extension", "a.PNG", nil, "image/png"},
		{"jpeg extension", "a.jpg", nil, "image/jpeg"},
		{"gif sniffed", "a", []byte("GIF89a......"), "image/gif"},
		{"text charset stripped", "a.txt", nil, "text/plain"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectType(tc.path, tc.data))
		})
	}
}

func TestCleanPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/a b.png", CleanPath(`  "/tmp/a b.png" `))
	assert.Equal(t, "/tmp/x.png", CleanPath("'/tmp/x.png'"))
	assert.Equal(t, filepath.Join(home, "pics", "x.png"), CleanPath("~/pics/x.png"))
}

func TestParseDataURI_Invalid(t *testing.T) {
	for _, uri := range []string{"", "image/png;base64,AAAA", "data:image/png;base64", "data:image/png,AAAA", "data:image/png;base64,!!"} {
		_, _, err := ParseDataURI(uri)
		assert.Error(t, err, uri)
	}
}

func TestChip(t *testing.T) {
	a := Attachment{MIME: "image/png", Size: 2048}
	assert.Equal(t, "[image/png · 2 KB]", a.Chip())
}

func TestChipFor(t *testing.T) {
	uri := DataURI("image/gif", make([]byte, 10))
	assert.Equal(t, "[image/gif · 10 B]", ChipFor(uri))
	assert.Equal(t, "[image]", ChipFor("not a uri"))
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("notes.txt: %w", ErrUnsupportedType), "only image files can be attached"},
		{ErrTooLarge, "that image is too large"},
		{&os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}, "file not found"},
		{errors.New("boom"), "could not attach: boom"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Reason(tc.err))
	}
}
