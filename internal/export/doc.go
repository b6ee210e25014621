// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the chat transcript to shareable documents.
//
// # Key Types
//
//   - Transcript: messages plus the bot name and preferences at export time
//   - Exporter: one implementation per Format
//   - Options: metadata, timestamp and image toggles
//
// # Supported Formats
//
//   - Markdown: YAML front matter, one heading per message
//   - HTML: standalone page in the chosen colour theme, code highlighted
//   - JSON: messages in the stored chatHistory layout
//
// # Usage
//
//	t := export.NewTranscript(msgs, "ChatBot", prefs, time.Now())
//	exp, err := export.New(export.FormatHTML, export.DefaultOptions())
//	path, err := export.WriteFile(t, exp, ".")
package export
