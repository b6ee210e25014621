// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

var (
	codeFence  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCode = regexp.MustCompile("`([^`\n]+)`")
	boldText   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page styled with
// the chosen colour theme.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(t.Title)))
	sb.WriteString(fmt.Sprintf("    <meta name=\"generator\" content=\"%s\">\n", Generator))
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", t.Exported.Format(time.RFC3339)))
	sb.WriteString(e.css(t.Prefs.Theme))
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s\">\n", bodyClass(t.Prefs.DarkMode)))

	sb.WriteString("    <div class=\"container\">\n")
	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(t))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range t.Messages {
		sb.WriteString(e.renderMessage(t, &t.Messages[i]))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>%s</strong> on %s</p>\n",
		Generator, exportedStamp(t.Exported)))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")

	sb.WriteString(themeScript)
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func bodyClass(dark bool) string {
	if dark {
		return "dark-theme"
	}
	return "light-theme"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(t *Transcript) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(t.Title)))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Theme:</strong> %s</span>\n",
		html.EscapeString(t.Prefs.Theme.DisplayName())))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(t.Messages)))
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle dark mode\">Dark mode</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

func (e *HTMLExporter) renderMessage(t *Transcript, msg *model.Message) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\" id=\"msg-%s\">\n",
		html.EscapeString(string(msg.Sender)), html.EscapeString(msg.ID)))

	sb.WriteString("                <div class=\"message-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s %s</span>\n",
		msg.Sender.Avatar(), html.EscapeString(t.senderLabel(msg))))
	if e.options.IncludeTimestamps && msg.Time != "" {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", html.EscapeString(msg.Time)))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.formatContent(msg.Text, t.Prefs.DarkMode))
	if msg.HasImage() {
		sb.WriteString(e.formatImage(msg))
	}
	sb.WriteString("                </div>\n")

	if msg.HasReactions() {
		sb.WriteString("                <div class=\"reactions\">")
		for _, r := range msg.Reactions {
			sb.WriteString(fmt.Sprintf("<span class=\"reaction\">%s %d</span>", html.EscapeString(r.Emoji), r.Count))
		}
		sb.WriteString("</div>\n")
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

// formatImage renders an inline image. Anything that is not an image data
// URI becomes a chip so the page never loads a foreign src.
func (e *HTMLExporter) formatImage(msg *model.Message) string {
	mediaType, _, err := attach.ParseDataURI(msg.Image)
	if !e.options.IncludeImages || err != nil || !attach.IsImage(mediaType) {
		return fmt.Sprintf("<span class=\"image-chip\">%s</span>\n", html.EscapeString(attach.ChipFor(msg.Image)))
	}
	return fmt.Sprintf("<img class=\"attachment\" src=\"%s\" alt=\"%s\">\n",
		html.EscapeString(msg.Image), html.EscapeString(msg.Text))
}

// =============================================================================
// CONTENT FORMATTING
// =============================================================================

// formatContent renders reply text. Fenced code is highlighted, the prose
// between fences gets inline code, bold and paragraphs.
func (e *HTMLExporter) formatContent(content string, dark bool) string {
	var sb strings.Builder
	last := 0
	for _, loc := range codeFence.FindAllStringSubmatchIndex(content, -1) {
		sb.WriteString(formatProse(content[last:loc[0]]))
		sb.WriteString(highlightCode(content[loc[2]:loc[3]], content[loc[4]:loc[5]], dark))
		last = loc[1]
	}
	sb.WriteString(formatProse(content[last:]))
	return sb.String()
}

func formatProse(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	text = html.EscapeString(text)
	text = inlineCode.ReplaceAllString(text, "<code class=\"inline-code\">$1</code>")
	text = boldText.ReplaceAllString(text, "<strong>$1</strong>")

	var sb strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sb.WriteString("<p>" + strings.ReplaceAll(para, "\n", "<br>\n") + "</p>\n")
	}
	return sb.String()
}

// highlightCode renders a fenced block with chroma, falling back to an
// escaped <pre> when tokenising fails.
func highlightCode(lang, code string, dark bool) string {
	code = strings.TrimRight(code, "\n")

	label := ""
	if lang != "" {
		label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
	}

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "github"
	if dark {
		styleName = "monokai"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	plain := fmt.Sprintf("<div class=\"code-block\">%s<pre><code>%s</code></pre></div>\n", label, html.EscapeString(code))

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plain
	}
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(false)).Format(&buf, style, iterator); err != nil {
		return plain
	}
	return fmt.Sprintf("<div class=\"code-block\">%s%s</div>\n", label, buf.String())
}

// =============================================================================
// EMBEDDED CSS AND SCRIPT
// =============================================================================

// css returns the stylesheet with the theme accent filled in for both modes.
func (e *HTMLExporter) css(theme model.Theme) string {
	acc := styles.AccentFor(theme)
	return fmt.Sprintf(`    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #111827;
            --bg-secondary: #1F2937;
            --text-primary: #F9FAFB;
            --text-muted: #9CA3AF;
            --border-color: #374151;
            --bot-bg: #374151;
            --accent: %[1]s;
            --accent-soft: %[2]s;
            --on-accent: %[3]s;
        }

        .light-theme {
            --bg-primary: #F3F4F6;
            --bg-secondary: #FFFFFF;
            --text-primary: #111827;
            --text-muted: #6B7280;
            --border-color: #E5E7EB;
            --bot-bg: #F3F4F6;
            --accent: %[4]s;
            --accent-soft: %[5]s;
            --on-accent: %[6]s;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 760px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 16px;
            overflow: hidden;
        }

        .header { padding: 24px; background: var(--accent-soft); }
        .header h1 { font-size: 24px; margin-bottom: 8px; }
        .metadata { display: flex; gap: 16px; font-size: 14px; color: var(--text-muted); align-items: center; }
        .theme-toggle { margin-left: auto; padding: 4px 12px; border-radius: 8px; border: 1px solid var(--border-color); cursor: pointer; }

        .conversation { padding: 24px; display: flex; flex-direction: column; gap: 16px; }
        .message { max-width: 75%%; padding: 12px 16px; border-radius: 16px; }
        .user-message { align-self: flex-end; background: var(--accent); color: var(--on-accent); }
        .bot-message { align-self: flex-start; background: var(--bot-bg); }
        .message-header { display: flex; gap: 8px; font-size: 12px; opacity: 0.8; margin-bottom: 4px; }
        .message-content p + p { margin-top: 8px; }
        .inline-code { font-family: var(--font-mono); padding: 1px 4px; border-radius: 4px; background: rgba(0, 0, 0, 0.15); }
        .code-block { margin: 8px 0; border-radius: 8px; overflow: auto; }
        .code-block pre { padding: 12px; font-family: var(--font-mono); font-size: 13px; }
        .code-lang { font-size: 11px; padding: 2px 12px; color: var(--text-muted); }
        .attachment { display: block; max-width: 100%%; margin-top: 8px; border-radius: 8px; }
        .image-chip { font-family: var(--font-mono); font-size: 12px; }
        .reactions { display: flex; gap: 6px; margin-top: 6px; }
        .reaction { font-size: 12px; padding: 0 6px; border-radius: 10px; background: var(--bg-secondary); color: var(--text-primary); }

        .footer { padding: 16px; text-align: center; font-size: 12px; color: var(--text-muted); }
    </style>
`, acc.Primary.Dark, acc.Soft.Dark, acc.OnPrimary.Dark, acc.Primary.Light, acc.Soft.Light, acc.OnPrimary.Light)
}

const themeScript = `    <script>
        function toggleTheme() {
            const body = document.body;
            const dark = body.classList.contains('dark-theme');
            body.classList.remove('dark-theme', 'light-theme');
            body.classList.add(dark ? 'light-theme' : 'dark-theme');
            localStorage.setItem('darkMode', String(!dark));
        }

        document.addEventListener('DOMContentLoaded', function() {
            const saved = localStorage.getItem('darkMode');
            if (saved !== null) {
                document.body.classList.remove('dark-theme', 'light-theme');
                document.body.classList.add(saved === 'true' ? 'dark-theme' : 'light-theme');
            }
        });
    </script>
`
