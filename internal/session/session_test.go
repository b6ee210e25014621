// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/commands"
	"github.com/jeranaias/chatbot-tui/internal/config"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/responder"
	"github.com/jeranaias/chatbot-tui/internal/storage"
	"github.com/jeranaias/chatbot-tui/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// newTestSession starts a session over kv with a fixed clock and seed.
func newTestSession(t *testing.T, kv storage.KV, opts ...Option) *Session {
	t.Helper()
	logger := zaptest.NewLogger(t)
	base := []Option{
		WithClock(clock),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithLogger(logger),
	}
	s := New(storage.NewAdapter(kv, logger), DefaultConfig(), append(base, opts...)...)
	s.Start()
	return s
}

// failingKV reads like an empty store and refuses every write.
type failingKV struct{}

var errDiskFull = errors.New("disk full")

func (failingKV) Get(string) (string, error) { return "", storage.ErrNotFound }
func (failingKV) Set(string, string) error   { return errDiskFull }
func (failingKV) Delete(string) error        { return errDiskFull }
func (failingKV) Close() error               { return nil }

// =============================================================================
// START
// =============================================================================

func TestStart_SeedsGreetingAndDefaults(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, DefaultGreeting, msgs[0].Text)
	assert.Equal(t, model.SenderBot, msgs[0].Sender)
	assert.Equal(t, model.DefaultPreferences(), s.Preferences())
	assert.False(t, s.Typing())
}

func TestStart_RestoresStoredState(t *testing.T) {
	kv := storage.NewMemoryKV()
	first := newTestSession(t, kv)
	out, err := first.Submit("hello there")
	require.NoError(t, err)
	_, ok := first.Deliver(out.Pending)
	require.True(t, ok)
	require.NoError(t, first.SetTheme(model.ThemeBlue))
	require.NoError(t, first.SetDarkMode(true))
	want := first.Messages()

	second := newTestSession(t, kv)
	assert.Equal(t, want, second.Messages())
	assert.Equal(t, model.Preferences{Theme: model.ThemeBlue, DarkMode: true}, second.Preferences())
}

func TestStart_OnlyOnce(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	s.Start()
	assert.Equal(t, 1, s.Len())
}

func TestStart_MalformedHistoryFallsBack(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(storage.KeyHistory, "{not json"))
	require.NoError(t, kv.Set(storage.KeyTheme, "teal"))

	s := newTestSession(t, kv)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, DefaultGreeting, s.Messages()[0].Text)
	assert.Equal(t, model.DefaultTheme, s.Preferences().Theme)
}

// =============================================================================
// SUBMIT AND DELIVER
// =============================================================================

func TestSubmit_ChatGrowsByOneThenReply(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())

	for _, text := range []string{"hello there", "what's the weather", "random musings", "/unknown command", "/?"} {
		before := s.Len()
		out, err := s.Submit(text)
		require.NoError(t, err, text)
		assert.Equal(t, before+1, s.Len(), text)
		require.NotNil(t, out.UserMessage)
		assert.Equal(t, text, out.UserMessage.Text)
		assert.False(t, out.IsCommand())
		assert.True(t, s.Typing())

		msg, ok := s.Deliver(out.Pending)
		require.True(t, ok, text)
		assert.Equal(t, before+2, s.Len(), text)
		assert.Equal(t, out.Pending.Reply, msg.Text)
		assert.True(t, msg.IsBot())
		assert.False(t, s.Typing())
	}
}

func TestSubmit_GreetingReply(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	out, err := s.Submit("hello there")
	require.NoError(t, err)
	assert.Equal(t, responder.New().Reply("hello there"), out.Pending.Reply)
	assert.Equal(t, responder.RuleGreeting, out.Pending.Rule)
}

func TestSubmit_EmptyInput(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(text)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Equal(t, 1, s.Len())
}

func TestSubmit_BlockedWhilePending(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	_, err := s.Submit("hi")
	require.NoError(t, err)

	_, err = s.Submit("are you there?")
	assert.ErrorIs(t, err, ErrReplyPending)
	_, err = s.Submit("/help")
	assert.ErrorIs(t, err, ErrReplyPending)
	assert.Equal(t, 2, s.Len())
}

func TestSubmit_TypingDelayInRange(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	cfg := s.Config()
	for i := 0; i < 50; i++ {
		out, err := s.Submit("tell me something")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, out.Pending.Delay, cfg.TypingMin)
		assert.Less(t, out.Pending.Delay, cfg.TypingMax)
		s.Deliver(out.Pending)
	}
}

func TestDeliver_OnlyOnce(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	out, err := s.Submit("thanks!")
	require.NoError(t, err)

	_, ok := s.Deliver(out.Pending)
	require.True(t, ok)
	_, ok = s.Deliver(out.Pending)
	assert.False(t, ok)
	assert.Equal(t, 3, s.Len())
}

func TestDeliver_ZeroTokenIgnored(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	_, ok := s.Deliver(Pending{})
	assert.False(t, ok)
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestCommand_Help(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	out, err := s.Submit("/HELP")
	require.NoError(t, err)

	assert.Equal(t, commands.KindHelp, out.Command)
	assert.Nil(t, out.UserMessage)
	assert.Equal(t, 1, s.Len(), "commands do not append the command text")
	assert.Equal(t, s.Registry().HelpText(), out.Pending.Reply)

	_, ok := s.Deliver(out.Pending)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestCommand_ClearEmptiesAndErases(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv)
	out, err := s.Submit("hello")
	require.NoError(t, err)
	s.Deliver(out.Pending)
	_, err = kv.Get(storage.KeyHistory)
	require.NoError(t, err)

	out, err = s.Submit("/clear")
	require.NoError(t, err)
	assert.Equal(t, ActionCleared, out.Action)
	assert.Equal(t, 0, s.Len())
	_, err = kv.Get(storage.KeyHistory)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	msg, ok := s.Deliver(out.Pending)
	require.True(t, ok)
	assert.Equal(t, commands.ClearReply, msg.Text)
	assert.Equal(t, 1, s.Len())
}

func TestCommand_ClearDropsEarlierTokens(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	chat, err := s.Submit("hello")
	require.NoError(t, err)

	clr, err := s.Submit("/clear")
	require.NoError(t, err, "/clear is accepted while a reply is pending")

	_, ok := s.Deliver(chat.Pending)
	assert.False(t, ok, "reply issued before /clear must be dropped")
	assert.Equal(t, 0, s.Len())

	_, ok = s.Deliver(clr.Pending)
	assert.True(t, ok)
}

func TestCommand_ThemePicker(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	out, err := s.Submit("/theme")
	require.NoError(t, err)
	assert.Equal(t, ActionOpenThemePicker, out.Action)
	assert.Equal(t, commands.ThemePickerReply, out.Pending.Reply)
	assert.Equal(t, model.DefaultTheme, s.Preferences().Theme)
}

func TestCommand_ThemeWithArgument(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv)

	out, err := s.Submit("/theme Green")
	require.NoError(t, err)
	assert.Equal(t, ActionThemeChanged, out.Action)
	assert.Equal(t, model.ThemeGreen, out.Theme)
	assert.Equal(t, commands.ThemeChangedReply(model.ThemeGreen), out.Pending.Reply)

	stored, err := kv.Get(storage.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "green", stored)
	s.Deliver(out.Pending)

	out, err = s.Submit("/theme teal")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, out.Action)
	assert.Contains(t, out.Pending.Reply, "teal")
	assert.Equal(t, model.ThemeGreen, s.Preferences().Theme)
}

// =============================================================================
// REACTIONS AND PREFERENCES
// =============================================================================

func TestReact_Aggregates(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	id := s.Messages()[0].ID

	require.NoError(t, s.React(id, "🔥"))
	require.NoError(t, s.React(id, "🔥"))
	require.NoError(t, s.React(id, "👍"))

	msg, ok := s.Message(id)
	require.True(t, ok)
	assert.Equal(t, []model.Reaction{{Emoji: "🔥", Count: 2}, {Emoji: "👍", Count: 1}}, msg.Reactions)
}

func TestReact_Errors(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	assert.ErrorIs(t, s.React("nope", "🔥"), ErrUnknownMessage)
	assert.ErrorIs(t, s.React(s.Messages()[0].ID, "  "), ErrEmptyReaction)
}

func TestPreferences_ThemeAndDarkMode(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newTestSession(t, kv)

	assert.ErrorIs(t, s.SetTheme("teal"), model.ErrUnknownTheme)
	require.NoError(t, s.SetTheme(model.ThemePink))

	on, err := s.ToggleDarkMode()
	require.NoError(t, err)
	assert.True(t, on)

	dark, err := kv.Get(storage.KeyDarkMode)
	require.NoError(t, err)
	assert.Equal(t, "true", dark)
	assert.Equal(t, model.Preferences{Theme: model.ThemePink, DarkMode: true}, s.Preferences())
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestAttach_ImageThenAck(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	path := writeFile(t, "cat.png", []byte("\x89PNG\r\n\x1a\nrest-of-image"))

	out, err := s.Attach(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, out.UserMessage)
	assert.Equal(t, "📷 cat.png", out.UserMessage.Text)
	assert.True(t, out.UserMessage.HasImage())
	assert.Equal(t, KindAttachmentAck, out.Pending.Kind)
	assert.Equal(t, time.Second, out.Pending.Delay)
	assert.False(t, s.Typing(), "attachments do not block input")

	_, ok := s.Deliver(Pending{Gen: out.Pending.Gen, Seq: out.Pending.Seq, Kind: KindReply})
	assert.False(t, ok, "kind must match the issued token")

	msg, ok := s.DeliverAttachmentAck(out.Pending)
	require.True(t, ok)
	assert.Equal(t, AttachmentAckReply, msg.Text)
	assert.Equal(t, 3, s.Len())
}

func TestAttach_RejectsNonImage(t *testing.T) {
	m := telemetry.NewMetrics()
	s := newTestSession(t, storage.NewMemoryKV(), WithMetrics(m))
	path := writeFile(t, "notes.txt", []byte("hello"))

	_, err := s.Attach(context.Background(), path)
	assert.ErrorIs(t, err, attach.ErrUnsupportedType)
	assert.Equal(t, 1, s.Len())
	count, err := testutil.GatherAndCount(m.Registry(), "chatbot_attachments_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAttach_AckDroppedAfterReset(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	path := writeFile(t, "cat.gif", []byte("GIF89a-data"))

	out, err := s.Attach(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Reset())

	_, ok := s.DeliverAttachmentAck(out.Pending)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

// =============================================================================
// PERSISTENCE ERRORS
// =============================================================================

func TestPersistErrors_ReportedStateKept(t *testing.T) {
	s := newTestSession(t, failingKV{})

	var (
		mu   sync.Mutex
		errs []error
	)
	s.SetErrorHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})

	out, err := s.Submit("hello")
	require.NoError(t, err)
	_, ok := s.Deliver(out.Pending)
	require.True(t, ok)
	assert.Equal(t, 3, s.Len())

	mu.Lock()
	require.Len(t, errs, 2)
	var pe *PersistError
	assert.True(t, errors.As(errs[0], &pe))
	assert.ErrorIs(t, errs[0], errDiskFull)
	mu.Unlock()

	err = s.SetTheme(model.ThemeBlue)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, model.ThemeBlue, s.Preferences().Theme)
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Chat.BotName = "Sprocket"
	cfg.Chat.TypingMin = config.Duration(10 * time.Millisecond)
	cfg.Chat.TypingMax = config.Duration(20 * time.Millisecond)
	cfg.UI.Theme = "orange"

	c := ConfigFrom(cfg, true)
	assert.Equal(t, "Sprocket", c.BotName)
	assert.Equal(t, 10*time.Millisecond, c.TypingMin)
	assert.Equal(t, 20*time.Millisecond, c.TypingMax)
	assert.Equal(t, model.Preferences{Theme: model.ThemeOrange, DarkMode: true}, c.DefaultPreferences)
}

func TestUpdateConfig_BotName(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	cfg := s.Config()
	cfg.BotName = "Sprocket"
	s.UpdateConfig(cfg)

	out, err := s.Submit("what's your name?")
	require.NoError(t, err)
	assert.Contains(t, out.Pending.Reply, "Sprocket")
	assert.Equal(t, "Sprocket", s.BotName())
}

func TestClose_InvalidatesTokens(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	out, err := s.Submit("hello")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := s.Deliver(out.Pending)
	assert.False(t, ok)
}

func TestSession_ConcurrentDeliverAndRead(t *testing.T) {
	s := newTestSession(t, storage.NewMemoryKV())
	out, err := s.Submit("hello")
	require.NoError(t, err)

	var wg sync.WaitGroup
	delivered := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := s.Deliver(out.Pending)
			delivered <- ok
			_ = s.Messages()
		}()
	}
	wg.Wait()
	close(delivered)

	count := 0
	for ok := range delivered {
		if ok {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 3, s.Len())
}
