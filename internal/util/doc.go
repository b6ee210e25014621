// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the chatbot packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth, StringWidth: Display-width aware helpers
//   - WrapText: Word wrap by display width
//
// Formatting:
//   - FormatBytes: Human-readable sizes
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	lines := util.WrapText(msg.Text, 40)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
