// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders bot replies that carry markdown, caching one
// glamour renderer per (width, dark) pair.
type markdownRenderer struct {
	mu        sync.Mutex
	renderers map[mdKey]*glamour.TermRenderer
}

type mdKey struct {
	width int
	dark  bool
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{renderers: make(map[mdKey]*glamour.TermRenderer)}
}

// looksLikeMarkdown reports whether text uses the markdown the bot emits.
func looksLikeMarkdown(text string) bool {
	return strings.Contains(text, "\n") ||
		strings.Contains(text, "**") ||
		strings.Contains(text, "`")
}

// Render returns text rendered for width, or ok=false when text should be
// shown as plain wrapped text.
func (r *markdownRenderer) Render(text string, width int, dark bool) (string, bool) {
	if r == nil || width < 10 || !looksLikeMarkdown(text) {
		return "", false
	}

	tr, err := r.renderer(width, dark)
	if err != nil {
		return "", false
	}
	out, err := tr.Render(text)
	if err != nil {
		return "", false
	}
	return strings.Trim(out, "\n"), true
}

func (r *markdownRenderer) renderer(width int, dark bool) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := mdKey{width: width, dark: dark}
	if tr, ok := r.renderers[k]; ok {
		return tr, nil
	}

	style := "light"
	if dark {
		style = "dark"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.renderers[k] = tr
	return tr, nil
}
