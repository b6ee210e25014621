// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON.
// Messages keep the stored layout, so the output can be fed back into
// chatHistory. Options are ignored.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonTranscript struct {
	Title     string          `json:"title"`
	Bot       string          `json:"bot"`
	Theme     model.Theme     `json:"theme"`
	DarkMode  bool            `json:"darkMode"`
	Exported  time.Time       `json:"exported"`
	Generator string          `json:"generator"`
	Messages  []model.Message `json:"messages"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	return json.MarshalIndent(jsonTranscript{
		Title:     t.Title,
		Bot:       t.BotName,
		Theme:     t.Prefs.Theme,
		DarkMode:  t.Prefs.DarkMode,
		Exported:  t.Exported,
		Generator: Generator,
		Messages:  t.Messages,
	}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
