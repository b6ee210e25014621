// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/session"
	"github.com/jeranaias/chatbot-tui/internal/util"
)

// maxCompletions is how many completion rows the popup shows.
const maxCompletions = 5

// =============================================================================
// LAYOUT
// =============================================================================

// render assembles the full screen.
func (m Model) render() string {
	parts := []string{m.renderHeader(), m.viewport.View()}
	if overlay := m.renderOverlay(); overlay != "" {
		parts = append(parts, overlay)
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// updateViewport resizes the viewport around the fixed chrome and refreshes
// the conversation content.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	chrome := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderStatusBar())
	if overlay := m.renderOverlay(); overlay != "" {
		chrome += lipgloss.Height(overlay)
	}

	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chrome, 1)

	content, _ := m.renderConversation()
	m.viewport.SetContent(content)
}

// scrollToSelected keeps the message picked for a reaction on screen.
func (m *Model) scrollToSelected() {
	_, starts := m.renderConversation()
	if m.reactIdx < 0 || m.reactIdx >= len(starts) {
		return
	}
	line := starts[m.reactIdx]
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 3)
	}
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	t := m.theme
	status := t.HeaderOnline.Render("● Online")
	if m.sess.Typing() {
		status = t.HeaderTyping.Render("typing...")
	}
	left := t.HeaderAvatar.Render(model.SenderBot.Avatar()) +
		t.HeaderTitle.Render(m.sess.BotName()) +
		t.HeaderTitle.Render("  ") +
		status
	return t.Header.Width(m.width).Render(left)
}

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation renders every message and returns the starting line
// of each one.
func (m Model) renderConversation() (string, []int) {
	msgs := m.sess.Messages()
	if len(msgs) == 0 && !m.sess.Typing() {
		return m.renderEmpty(), nil
	}

	var b strings.Builder
	starts := make([]int, 0, len(msgs))
	line := 0
	for i, msg := range msgs {
		block := m.renderMessage(msg, m.mode == ModeReact && i == m.reactIdx)
		starts = append(starts, line)
		b.WriteString(block)
		b.WriteString("\n\n")
		line += lipgloss.Height(block) + 1
	}
	if m.sess.Typing() {
		b.WriteString(m.renderTyping())
	}
	return strings.TrimRight(b.String(), "\n"), starts
}

func (m Model) renderMessage(msg model.Message, selected bool) string {
	t := m.theme
	width := t.BubbleWidth()
	inner := max(width-2, 8)

	style := t.BotBubble
	align := lipgloss.Left
	if msg.IsUser() {
		style = t.UserBubble
		align = lipgloss.Right
	}

	body := m.messageBody(msg, inner)
	bubble := style.Render(body)

	meta := msg.Sender.Avatar() + " " + t.Timestamp.Render(msg.Time)
	if msg.HasReactions() {
		meta += "  " + t.Reactions.Render(msg.ReactionSummary())
	}

	block := lipgloss.JoinVertical(align, bubble, meta)
	if selected {
		block = t.Selected.Render(block)
	}
	return lipgloss.PlaceHorizontal(m.width, align, block)
}

func (m Model) messageBody(msg model.Message, width int) string {
	var text string
	if msg.IsBot() {
		if out, ok := m.md.Render(msg.Text, width, m.theme.Dark); ok {
			text = out
		}
	}
	if text == "" {
		text = strings.Join(util.WrapText(msg.Text, width), "\n")
	}

	if msg.HasImage() {
		text = lipgloss.JoinVertical(lipgloss.Left, text, m.theme.ImageChip.Render(attach.ChipFor(msg.Image)))
	}
	return text
}

func (m Model) renderTyping() string {
	bubble := m.theme.BotBubble.Render(m.spinner.View())
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, bubble)
}

func (m Model) renderEmpty() string {
	t := m.theme
	block := lipgloss.JoinVertical(lipgloss.Center,
		t.EmptyIcon.Render("💬"),
		t.EmptyText.Render("No messages yet"),
		t.EmptySubtext.Render("Start a conversation!"),
	)
	h := max(m.viewport.Height, lipgloss.Height(block))
	return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, block)
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) renderOverlay() string {
	switch m.mode {
	case ModeAttach:
		return m.renderAttachPrompt()
	case ModeThemePicker:
		return m.renderThemePicker()
	case ModeReact:
		return m.renderReactionBar()
	}
	if m.completions.Visible && len(m.completions.Completions) > 0 {
		return m.renderCompletions()
	}
	return ""
}

func (m Model) renderAttachPrompt() string {
	t := m.theme
	hint := t.ShortcutDesc.Render(fmt.Sprintf("images up to %s · enter attach · esc cancel",
		util.FormatBytes(m.sess.Config().MaxAttachmentBytes)))
	return t.PickerBox.Render(lipgloss.JoinVertical(lipgloss.Left,
		t.PickerTitle.Render("Attach an image"),
		m.pathInput.View(),
		hint,
	))
}

func (m Model) renderThemePicker() string {
	t := m.theme
	rows := []string{t.PickerTitle.Render("Choose a theme")}
	for i, name := range model.Themes {
		label := t.Swatch(name) + " " + name.DisplayName()
		if i == m.pickerIdx {
			rows = append(rows, t.PickerItemSelected.Render("▸ "+label))
		} else {
			rows = append(rows, t.PickerItem.Render("  "+label))
		}
	}
	rows = append(rows, t.ShortcutDesc.Render("↑/↓ move · enter choose · esc cancel"))
	return t.PickerBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderReactionBar() string {
	t := m.theme
	var b strings.Builder
	for i, emoji := range session.ReactionEmojis {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(t.ShortcutKey.Render(fmt.Sprint(i + 1)))
		b.WriteString(" " + emoji)
	}
	return t.PickerBox.Render(lipgloss.JoinVertical(lipgloss.Left,
		t.PickerTitle.Render("React to message"),
		b.String(),
		t.ShortcutDesc.Render("↑/↓ select message · esc done"),
	))
}

func (m Model) renderCompletions() string {
	t := m.theme
	comps := m.completions.Completions
	start := 0
	if m.completions.Selected >= maxCompletions {
		start = m.completions.Selected - maxCompletions + 1
	}
	end := min(start+maxCompletions, len(comps))

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		c := comps[i]
		label := t.CompletionItem.Render(c.Display)
		if i == m.completions.Selected {
			label = t.CompletionSelected.Render(c.Display)
		}
		if c.Description != "" {
			label += "  " + t.CompletionDesc.Render(c.Description)
		}
		rows = append(rows, label)
	}
	return t.CompletionPopup.Render(strings.Join(rows, "\n"))
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	t := m.theme
	if m.notice != "" {
		style := t.Notice
		if m.noticeError {
			style = t.NoticeError
		}
		return t.StatusBar.Width(m.width).Render(style.Render(util.TruncateWidth(m.notice, max(m.width-2, 1))))
	}

	var parts []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		parts = append(parts, t.ShortcutKey.Render(h.Key)+" "+t.ShortcutDesc.Render(h.Desc))
	}
	return t.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}
