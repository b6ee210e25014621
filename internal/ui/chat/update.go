// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/session"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
	"github.com/jeranaias/chatbot-tui/internal/util"
)

// noticeTTL is how long a status notice stays visible.
const noticeTTL = 4 * time.Second

// maxInputLines caps how tall the input grows with Alt+Enter.
const maxInputLines = 3

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.theme.SetSize(m.width, m.height)

	inputWidth := m.width - 4
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.SetWidth(inputWidth)
	m.pathInput.Width = inputWidth - len(m.pathInput.Prompt)

	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeAttach:
		return m.handleAttachKey(msg)
	case ModeReact:
		return m.handleReactKey(msg)
	case ModeThemePicker:
		return m.handleThemeKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Complete):
		return m.handleTab()

	case key.Matches(msg, m.keyMap.Attach):
		m.mode = ModeAttach
		m.completions.Clear()
		m.input.Blur()
		m.pathInput.Reset()
		cmd := m.pathInput.Focus()
		m.updateViewport()
		return m, cmd

	case key.Matches(msg, m.keyMap.React):
		n := m.sess.Len()
		if n == 0 {
			return m, m.showNotice("Nothing to react to yet", false)
		}
		m.mode = ModeReact
		m.reactIdx = n - 1
		m.completions.Clear()
		m.input.Blur()
		m.updateViewport()
		m.scrollToSelected()
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleDark):
		on, err := m.sess.ToggleDarkMode()
		m.applyPreferences(m.sess.Preferences())
		if err != nil {
			return m, m.showNotice(err.Error(), true)
		}
		if on {
			return m, m.showNotice("Dark mode on", false)
		}
		return m, m.showNotice("Dark mode off", false)

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Cancel):
		if m.completions.Visible {
			m.completions.Clear()
			m.updateViewport()
		}
		return m, nil
	}

	if m.completions.Visible {
		switch msg.Type {
		case tea.KeyUp:
			m.completions.Prev()
			return m, nil
		case tea.KeyDown:
			m.completions.Next()
			return m, nil
		}
	}

	return m.forwardToInput(msg)
}

// submit sends the input to the session.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.sess.Typing() {
		return m, m.showNotice(m.sess.BotName()+" is typing...", false)
	}
	out, err := m.sess.Submit(m.input.Value())
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return m, nil
	case errors.Is(err, session.ErrReplyPending):
		return m, m.showNotice(m.sess.BotName()+" is typing...", false)
	case err != nil:
		return m, m.showNotice(err.Error(), true)
	}

	m.input.Reset()
	m.input.SetHeight(1)
	m.completions.Clear()

	cmds := []tea.Cmd{scheduleCmd(out.Pending), m.spinner.Tick}

	switch out.Action {
	case session.ActionOpenThemePicker:
		m.openThemePicker()
	case session.ActionThemeChanged:
		m.applyPreferences(m.sess.Preferences())
	}

	cmds = append(cmds, m.syncInputFocus())
	m.updateViewport()
	m.viewport.GotoBottom()
	cmds = append(cmds, m.flushErrors())

	m.logger.Debug("submitted",
		zap.Bool("command", out.IsCommand()),
		zap.Duration("delay", out.Pending.Delay))
	return m, tea.Batch(cmds...)
}

// handleTab completes slash commands, cycling on repeated presses.
func (m Model) handleTab() (tea.Model, tea.Cmd) {
	if !m.input.Focused() {
		return m, nil
	}
	if !m.completions.Visible {
		comps := m.completer.Complete(m.input.Value())
		if len(comps) == 0 {
			return m, nil
		}
		m.completions.Update(comps)
	} else if m.input.Value() == m.completions.Accept() {
		m.completions.Next()
	}

	if accepted := m.completions.Accept(); accepted != "" {
		m.input.SetValue(accepted)
		m.input.CursorEnd()
	}
	if len(m.completions.Completions) == 1 {
		m.completions.Clear()
	}
	m.updateViewport()
	return m, nil
}

// forwardToInput passes msg to the focused input and refreshes completions.
func (m Model) forwardToInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.mode == ModeAttach {
		m.pathInput, cmd = m.pathInput.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	lines := min(max(m.input.LineCount(), 1), maxInputLines)
	if lines != m.input.Height() {
		m.input.SetHeight(lines)
		m.updateViewport()
	}

	if _, isKey := msg.(tea.KeyMsg); isKey && m.input.Value() != before {
		m.refreshCompletions()
	}
	return m, cmd
}

// refreshCompletions shows matching commands while a slash command is typed.
func (m *Model) refreshCompletions() {
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.Contains(value, "\n") {
		if m.completions.Visible {
			m.completions.Clear()
			m.updateViewport()
		}
		return
	}
	m.completions.Update(m.completer.Complete(value))
	m.updateViewport()
}

// =============================================================================
// OVERLAY KEYS
// =============================================================================

func (m Model) handleAttachKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		return m.closeOverlay()

	case key.Matches(msg, m.keyMap.Submit):
		path := strings.TrimSpace(m.pathInput.Value())
		next, _ := m.closeOverlay()
		if path == "" {
			return next, textarea.Blink
		}
		nm := next.(Model)
		return nm, tea.Batch(attachCmd(nm.sess, path), nm.showNotice("Attaching "+util.TruncateWidth(path, 40)+"...", false))
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) handleReactKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	msgs := m.sess.Messages()
	if len(msgs) == 0 {
		return m.closeOverlay()
	}

	switch {
	case key.Matches(msg, m.keyMap.Cancel), key.Matches(msg, m.keyMap.Submit):
		return m.closeOverlay()
	case key.Matches(msg, m.keyMap.Up):
		if m.reactIdx > 0 {
			m.reactIdx--
		}
	case key.Matches(msg, m.keyMap.Down):
		if m.reactIdx < len(msgs)-1 {
			m.reactIdx++
		}
	default:
		i, ok := reactionKeys[msg.String()]
		if !ok {
			return m, nil
		}
		idx := min(m.reactIdx, len(msgs)-1)
		if err := m.sess.React(msgs[idx].ID, session.ReactionEmojis[i]); err != nil {
			next, _ := m.closeOverlay()
			nm := next.(Model)
			return nm, nm.showNotice(err.Error(), true)
		}
		return m.closeOverlay()
	}

	m.updateViewport()
	m.scrollToSelected()
	return m, nil
}

func (m *Model) openThemePicker() {
	m.mode = ModeThemePicker
	m.pickerIdx = 0
	current := m.sess.Preferences().Theme
	for i, t := range model.Themes {
		if t == current {
			m.pickerIdx = i
		}
	}
	m.input.Blur()
}

func (m Model) handleThemeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		m.applyPreferences(m.sess.Preferences())
		return m.closeOverlay()

	case key.Matches(msg, m.keyMap.Submit):
		chosen := model.Themes[m.pickerIdx]
		err := m.sess.SetTheme(chosen)
		m.applyPreferences(m.sess.Preferences())
		next, _ := m.closeOverlay()
		nm := next.(Model)
		if err != nil {
			return nm, nm.showNotice(err.Error(), true)
		}
		return nm, nm.showNotice("Theme changed to "+chosen.DisplayName(), false)

	case key.Matches(msg, m.keyMap.Up):
		if m.pickerIdx > 0 {
			m.pickerIdx--
		}
	case key.Matches(msg, m.keyMap.Down):
		if m.pickerIdx < len(model.Themes)-1 {
			m.pickerIdx++
		}
	default:
		return m, nil
	}

	// live preview
	m.theme = styles.NewTheme(model.Themes[m.pickerIdx], m.sess.Preferences().DarkMode)
	m.theme.SetSize(m.width, m.height)
	m.updateViewport()
	return m, nil
}

func (m Model) closeOverlay() (tea.Model, tea.Cmd) {
	m.mode = ModeInput
	m.pathInput.Blur()
	cmd := m.syncInputFocus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, cmd
}

// syncInputFocus keeps the chat input blurred while a reply is pending and
// focused otherwise. Overlays own focus while open.
func (m *Model) syncInputFocus() tea.Cmd {
	if m.mode != ModeInput {
		return nil
	}
	if m.sess.Typing() {
		m.input.Blur()
		return nil
	}
	if m.input.Focused() {
		return nil
	}
	return m.input.Focus()
}

// =============================================================================
// TIMERS AND RESULTS
// =============================================================================

func (m Model) handleReplyDue(msg ReplyDueMsg) (tea.Model, tea.Cmd) {
	var ok bool
	if msg.Pending.Kind == session.KindAttachmentAck {
		_, ok = m.sess.DeliverAttachmentAck(msg.Pending)
	} else {
		_, ok = m.sess.Deliver(msg.Pending)
	}
	if !ok {
		return m, m.syncInputFocus()
	}
	focus := m.syncInputFocus()
	m.updateViewport()
	if m.mode != ModeReact {
		m.viewport.GotoBottom()
	}
	return m, tea.Batch(focus, m.flushErrors())
}

func (m Model) handleAttachDone(msg AttachDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.showNotice(capitalize(attach.Reason(msg.Err)), true)
	}
	m.notice = ""
	focus := m.syncInputFocus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(scheduleCmd(msg.Outcome.Pending), focus, m.flushErrors())
}

// =============================================================================
// NOTICES
// =============================================================================

// showNotice sets the status-bar notice and schedules its expiry.
func (m *Model) showNotice(text string, isError bool) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	m.noticeError = isError
	return expireNoticeCmd(m.noticeSeq, noticeTTL)
}

// setNotice is showNotice for handlers returning (tea.Model, tea.Cmd).
func (m Model) setNotice(text string, isError bool) (tea.Model, tea.Cmd) {
	cmd := m.showNotice(text, isError)
	return m, cmd
}

// flushErrors surfaces persistence errors reported by the session.
func (m *Model) flushErrors() tea.Cmd {
	errs := m.errs.drain()
	if len(errs) == 0 {
		return nil
	}
	last := errs[len(errs)-1]
	m.logger.Warn("persistence failed", zap.Error(last), zap.Int("count", len(errs)))
	return m.showNotice("Could not save chat: "+last.Error(), true)
}

// capitalize upper-cases the first letter of a notice.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
