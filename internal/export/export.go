// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the chat transcript to Markdown, HTML or JSON.
package export

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

// Generator is stamped into exported documents.
const Generator = "chatbot-tui"

var (
	// ErrEmptyTranscript is returned when there is nothing to export.
	ErrEmptyTranscript = errors.New("no messages to export")

	// ErrUnknownFormat is returned by ParseFormat for unsupported names.
	ErrUnknownFormat = errors.New("unknown export format")
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of the conversation ready to be exported.
type Transcript struct {
	Title    string
	BotName  string
	Prefs    model.Preferences
	Messages []model.Message
	Exported time.Time
}

// NewTranscript builds a transcript titled after the bot.
func NewTranscript(msgs []model.Message, botName string, prefs model.Preferences, now time.Time) *Transcript {
	if strings.TrimSpace(botName) == "" {
		botName = model.SenderBot.DisplayName()
	}
	return &Transcript{
		Title:    "Chat with " + botName,
		BotName:  botName,
		Prefs:    prefs,
		Messages: msgs,
		Exported: now,
	}
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// senderLabel returns the heading for msg, using the configured bot name.
func (t *Transcript) senderLabel(msg *model.Message) string {
	if msg.IsBot() {
		return t.BotName
	}
	return msg.Sender.DisplayName()
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(t *Transcript) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatMarkdown, FormatHTML, FormatJSON}

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// New returns the exporter for f.
func New(f Format, opts *Options) (Exporter, error) {
	switch f {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatHTML:
		return NewHTMLExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds the front matter and header block.
	IncludeMetadata bool

	// IncludeTimestamps includes per-message clock times.
	IncludeTimestamps bool

	// IncludeImages embeds attachment data URIs instead of a short chip.
	IncludeImages bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		IncludeImages:     true,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// WriteFile exports t into dir under a generated name and returns the path.
//
// The whole document is built in memory before it is written. Transcripts
// carrying many large images produce equally large files.
func WriteFile(t *Transcript, exporter Exporter, dir string) (string, error) {
	content, err := exporter.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, Filename(t, exporter))
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Filename returns the generated file name for t.
func Filename(t *Transcript, exporter Exporter) string {
	return fmt.Sprintf("chat_%s_%s%s",
		sanitizeFilename(t.Title),
		t.Exported.Format("20060102_150405"),
		exporter.FileExtension(),
	)
}

// Open opens a file in the default application for the OS.
func Open(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "chat"
	}
	return string(result)
}

// exportedStamp formats the export time for footers.
func exportedStamp(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM")
}
