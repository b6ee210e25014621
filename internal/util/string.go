// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the chatbot packages.
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: Width-aware helpers. Emoji and CJK take two terminal columns, so
// layout math uses display width rather than byte or rune counts.

// TruncateRunes truncates a string to a maximum number of runes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to a maximum display width, appending
// "..." when there is room for it.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// StringWidth returns the display width of a string.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// WrapText wraps text to the given display width. Words longer than the
// width are broken; existing newlines are kept.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var line strings.Builder
		lineWidth := 0
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					// a single rune wider than the line
					head = string([]rune(word)[:1])
				}
				if lineWidth > 0 {
					lines = append(lines, line.String())
					line.Reset()
					lineWidth = 0
				}
				lines = append(lines, head)
				word = word[len(head):]
			}
			if word == "" {
				continue
			}

			w := runewidth.StringWidth(word)
			switch {
			case lineWidth == 0:
				line.WriteString(word)
				lineWidth = w
			case lineWidth+1+w <= width:
				line.WriteByte(' ')
				line.WriteString(word)
				lineWidth += 1 + w
			default:
				lines = append(lines, line.String())
				line.Reset()
				line.WriteString(word)
				lineWidth = w
			}
		}
		if lineWidth > 0 {
			lines = append(lines, line.String())
		}
	}
	return lines
}
