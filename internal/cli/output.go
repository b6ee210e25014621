// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/model"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownOnce     sync.Once
	markdownRenderer *glamour.TermRenderer
)

// renderMarkdown renders bot markdown such as the /help text for terminal
// display. Returns the original content when w is not a terminal or
// rendering fails.
func renderMarkdown(w io.Writer, content string) string {
	if !isTerminalWriter(w) {
		return content
	}
	markdownOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrapWidth(w)),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return content
	}
	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// writeJSON writes v as indented JSON, highlighted when w is a terminal.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	text := string(data)
	if isTerminalWriter(w) && ColorsEnabled() {
		text = highlightJSON(text)
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

// highlightJSON applies terminal syntax highlighting, falling back to the
// plain text.
func highlightJSON(src string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return src
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}

// =============================================================================
// MESSAGES
// =============================================================================

// formatMessage renders one message as a transcript line:
//
//	[03:09 PM] 🤖 ChatBot: Hello!  👍 1
func formatMessage(w io.Writer, msg model.Message, botName string, prefs model.Preferences) string {
	name := msg.Sender.DisplayName()
	if msg.IsBot() {
		name = botName
	}

	text := msg.Text
	if msg.IsBot() {
		text = renderMarkdown(w, text)
	}
	if strings.Contains(text, "\n") {
		text = "\n" + text
	}

	var b strings.Builder
	b.WriteString(DimStyle.Render("[" + msg.Time + "]"))
	b.WriteString(" " + msg.Sender.Avatar() + " ")
	b.WriteString(senderStyle(msg.Sender, prefs).Render(name + ":"))
	b.WriteString(" " + text)
	if msg.HasImage() {
		b.WriteString(" " + DimStyle.Render(attach.ChipFor(msg.Image)))
	}
	if msg.HasReactions() {
		b.WriteString("  " + msg.ReactionSummary())
	}
	return b.String()
}

// formatBotLine renders a reply as it arrives.
func formatBotLine(w io.Writer, botName, text string, prefs model.Preferences) string {
	text = renderMarkdown(w, text)
	if strings.Contains(text, "\n") {
		text = "\n" + text
	}
	return model.SenderBot.Avatar() + " " + senderStyle(model.SenderBot, prefs).Render(botName+":") + " " + text
}
