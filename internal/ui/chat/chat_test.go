// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/session"
	"github.com/jeranaias/chatbot-tui/internal/storage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// newTestModel returns a sized model over an in-memory session with no
// typing delay.
func newTestModel(t *testing.T) (Model, *session.Session) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := session.DefaultConfig()
	cfg.TypingMin = 0
	cfg.TypingMax = 0
	cfg.AttachmentReplyDelay = 0

	sess := session.New(storage.NewAdapter(storage.NewMemoryKV(), logger), cfg,
		session.WithLogger(logger),
		session.WithRand(rand.New(rand.NewPCG(1, 2))),
		session.WithClock(func() time.Time { return time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC) }),
	)
	sess.Start()
	t.Cleanup(func() { sess.Close() })

	m := New(sess, Options{Logger: logger})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, sess
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// dueMessages runs cmd and returns the reply timers it fires within a short
// window. Slow ticks such as notice expiry are abandoned.
func dueMessages(cmd tea.Cmd) []ReplyDueMsg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(300 * time.Millisecond):
		return nil
	}

	switch msg := msg.(type) {
	case ReplyDueMsg:
		return []ReplyDueMsg{msg}
	case tea.BatchMsg:
		var out []ReplyDueMsg
		for _, c := range msg {
			out = append(out, dueMessages(c)...)
		}
		return out
	}
	return nil
}

// =============================================================================
// RENDERING
// =============================================================================

func TestView_LoadingUntilSized(t *testing.T) {
	_, sess := newTestModel(t)
	m := New(sess, Options{})
	assert.Equal(t, "Loading...", m.View())
}

func TestView_ShowsGreetingAndHeader(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "ChatBot")
	assert.Contains(t, view, "Online")
	assert.Contains(t, view, "Hello! How can I help you?")
}

// =============================================================================
// CHAT FLOW
// =============================================================================

func TestSubmit_ReplyDeliveredOnTimer(t *testing.T) {
	m, sess := newTestModel(t)

	m = typeText(t, m, "hello there")
	assert.Equal(t, "hello there", m.InputValue())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Empty(t, m.InputValue())
	assert.Equal(t, 2, sess.Len())
	assert.True(t, sess.Typing())
	assert.Contains(t, m.View(), "typing...")

	due := dueMessages(cmd)
	require.Len(t, due, 1)
	m = update(t, m, due[0])
	assert.Equal(t, 3, sess.Len())
	assert.False(t, sess.Typing())

	last := sess.Messages()[2]
	assert.Equal(t, model.SenderBot, last.Sender)
}

func TestSubmit_BlockedWhileTyping(t *testing.T) {
	m, sess := newTestModel(t)
	m = typeText(t, m, "one")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = typeText(t, m, "two")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 2, sess.Len())
	assert.Empty(t, m.InputValue(), "input ignores keys while a reply is pending")
	assert.Contains(t, m.Notice(), "typing")
}

func TestInput_BlurredUntilReplyArrives(t *testing.T) {
	m, _ := newTestModel(t)
	require.True(t, m.input.Focused())

	m = typeText(t, m, "hello")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.False(t, m.input.Focused())

	m = typeText(t, m, "more")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Empty(t, m.InputValue())

	due := dueMessages(cmd)
	require.Len(t, due, 1)
	m = update(t, m, due[0])
	assert.True(t, m.input.Focused())

	m = typeText(t, m, "more")
	assert.Equal(t, "more", m.InputValue())
}

func TestInput_OverlayCloseKeepsBlurWhilePending(t *testing.T) {
	m, _ := newTestModel(t)
	m = typeText(t, m, "/theme")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.Equal(t, ModeThemePicker, m.Mode())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeInput, m.Mode())
	assert.False(t, m.input.Focused(), "the /theme confirmation is still pending")

	due := dueMessages(cmd)
	require.Len(t, due, 1)
	m = update(t, m, due[0])
	assert.True(t, m.input.Focused())
}

func TestReplyDue_StaleAfterClear(t *testing.T) {
	m, sess := newTestModel(t)
	m = typeText(t, m, "hi")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	stale := dueMessages(cmd)
	require.Len(t, stale, 1)

	_, err := sess.Submit("/clear")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Len())

	m = update(t, m, stale[0])
	assert.Equal(t, 0, sess.Len(), "reply scheduled before /clear is dropped")
	assert.Contains(t, m.View(), "typing...", "the clear confirmation is still pending")
	assert.False(t, m.input.Focused())
}

// =============================================================================
// COMMANDS AND COMPLETION
// =============================================================================

func TestTab_CompletesCommand(t *testing.T) {
	m, _ := newTestModel(t)
	m = typeText(t, m, "/th")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/theme", m.InputValue())
}

func TestThemePicker_ChoosesTheme(t *testing.T) {
	m, sess := newTestModel(t)
	m = typeText(t, m, "/theme")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeThemePicker, m.Mode())
	assert.Contains(t, m.View(), "Choose a theme")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, model.Themes[1], m.Theme().Name, "cursor previews the theme")
	assert.Equal(t, model.DefaultTheme, sess.Preferences().Theme)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeInput, m.Mode())
	assert.Equal(t, model.Themes[1], sess.Preferences().Theme)
	assert.Contains(t, m.Notice(), model.Themes[1].DisplayName())
}

func TestThemePicker_EscRestores(t *testing.T) {
	m, sess := newTestModel(t)
	m = typeText(t, m, "/theme")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, ModeInput, m.Mode())
	assert.Equal(t, model.DefaultTheme, sess.Preferences().Theme)
	assert.Equal(t, model.DefaultTheme, m.Theme().Name)
}

func TestToggleDarkMode(t *testing.T) {
	m, sess := newTestModel(t)
	before := sess.Preferences().DarkMode

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, !before, sess.Preferences().DarkMode)
	assert.Equal(t, !before, m.Theme().Dark)
}

// =============================================================================
// REACTIONS
// =============================================================================

func TestReact_AddsToSelectedMessage(t *testing.T) {
	m, sess := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, ModeReact, m.Mode())
	assert.Contains(t, m.View(), "React to message")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("6")})
	assert.Equal(t, ModeInput, m.Mode())

	greeting := sess.Messages()[0]
	assert.Equal(t, 1, greeting.ReactionCount("🔥"))
}

func TestReact_NothingToReactTo(t *testing.T) {
	m, sess := newTestModel(t)
	require.NoError(t, sess.Reset())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Equal(t, ModeInput, m.Mode())
	assert.NotEmpty(t, m.Notice())
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func TestAttach_PromptAndCancel(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	require.Equal(t, ModeAttach, m.Mode())
	assert.Contains(t, m.View(), "Attach an image")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeInput, m.Mode())
}

func TestAttach_ImageAppendsAndAcks(t *testing.T) {
	m, sess := newTestModel(t)
	path := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0600))

	msg := attachCmd(sess, path)()
	done, ok := msg.(AttachDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)

	next, cmd := m.Update(done)
	m = next.(Model)
	assert.Equal(t, 2, sess.Len())
	assert.Contains(t, m.View(), "[image/png")

	due := dueMessages(cmd)
	require.Len(t, due, 1)
	m = update(t, m, due[0])
	assert.Equal(t, session.AttachmentAckReply, sess.Messages()[2].Text)
}

func TestAttach_ErrorsBecomeNotices(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{attach.ErrUnsupportedType, "Only image files"},
		{attach.ErrTooLarge, "too large"},
		{os.ErrNotExist, "not found"},
		{errors.New("boom"), "boom"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			m, sess := newTestModel(t)
			m = update(t, m, AttachDoneMsg{Err: tc.err})
			assert.Contains(t, m.Notice(), tc.want)
			assert.Equal(t, 1, sess.Len())
		})
	}
}

// =============================================================================
// NOTICES
// =============================================================================

func TestNotice_ExpiresOnlyForCurrentSeq(t *testing.T) {
	m, _ := newTestModel(t)
	m = update(t, m, AttachDoneMsg{Err: attach.ErrEmpty})
	m = update(t, m, AttachDoneMsg{Err: attach.ErrNotFile})

	m = update(t, m, noticeExpiredMsg{seq: m.noticeSeq - 1})
	assert.NotEmpty(t, m.Notice())
	m = update(t, m, noticeExpiredMsg{seq: m.noticeSeq})
	assert.Empty(t, m.Notice())
}

func TestConfigReloaded_RenamesBot(t *testing.T) {
	m, sess := newTestModel(t)
	cfg := sess.Config()
	cfg.BotName = "Pixel"
	m = update(t, m, ConfigReloadedMsg{Config: cfg})
	assert.Equal(t, "Pixel", sess.BotName())
	assert.True(t, strings.Contains(m.View(), "Pixel"))
}

func TestMarkdown_PlainTextSkipped(t *testing.T) {
	r := newMarkdownRenderer()
	_, ok := r.Render("just words", 60, true)
	assert.False(t, ok)

	out, ok := r.Render("**bold** and `code`", 60, true)
	assert.True(t, ok)
	assert.Contains(t, out, "bold")
}
