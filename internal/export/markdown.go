// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown with YAML front matter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontMatter is marshalled with yaml so titles can never break out of it.
type frontMatter struct {
	Title     string `yaml:"title"`
	Bot       string `yaml:"bot"`
	Theme     string `yaml:"theme"`
	DarkMode  bool   `yaml:"dark_mode"`
	Messages  int    `yaml:"messages"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		fm, err := yaml.Marshal(frontMatter{
			Title:     t.Title,
			Bot:       t.BotName,
			Theme:     string(t.Prefs.Theme),
			DarkMode:  t.Prefs.DarkMode,
			Messages:  len(t.Messages),
			Exported:  t.Exported.Format(time.RFC3339),
			Generator: Generator,
		})
		if err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(t.Title)))

	for i := range t.Messages {
		msg := &t.Messages[i]
		e.writeMessage(&sb, t, msg)
		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from %s on %s*\n", Generator, exportedStamp(t.Exported)))

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeMessage(sb *strings.Builder, t *Transcript, msg *model.Message) {
	label := msg.Sender.Avatar() + " " + escapeMarkdown(t.senderLabel(msg))
	if e.options.IncludeTimestamps && msg.Time != "" {
		sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, msg.Time))
	} else {
		sb.WriteString(fmt.Sprintf("### %s\n\n", label))
	}

	if text := strings.TrimSpace(msg.Text); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if msg.HasImage() {
		sb.WriteString(e.formatImage(msg))
		sb.WriteString("\n\n")
	}

	if msg.HasReactions() {
		sb.WriteString("> " + msg.ReactionSummary() + "\n\n")
	}
}

// formatImage embeds the data URI, or a chip when images are left out or
// the stored value is not an image.
func (e *MarkdownExporter) formatImage(msg *model.Message) string {
	mediaType, _, err := attach.ParseDataURI(msg.Image)
	if !e.options.IncludeImages || err != nil || !attach.IsImage(mediaType) {
		return "`" + attach.ChipFor(msg.Image) + "`"
	}
	alt := strings.NewReplacer("[", "", "]", "").Replace(msg.Text)
	return fmt.Sprintf("![%s](%s)", alt, msg.Image)
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	return strings.NewReplacer(
		"#", `\#`,
		"*", `\*`,
		"_", `\_`,
		"[", `\[`,
		"]", `\]`,
		"\n", " ",
	).Replace(s)
}
