// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/commands"
	"github.com/jeranaias/chatbot-tui/internal/config"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/responder"
	"github.com/jeranaias/chatbot-tui/internal/storage"
	"github.com/jeranaias/chatbot-tui/internal/telemetry"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only input.
	ErrEmptyInput = errors.New("empty input")
	// ErrReplyPending is returned while a bot reply is scheduled.
	ErrReplyPending = errors.New("reply pending")
	// ErrUnknownMessage is returned when reacting to a missing message.
	ErrUnknownMessage = errors.New("unknown message")
	// ErrEmptyReaction is returned for a blank emoji.
	ErrEmptyReaction = errors.New("empty reaction")
)

// AttachmentAckReply acknowledges an accepted image.
const AttachmentAckReply = "Nice image! 📸 Thanks for sharing."

// DefaultGreeting seeds a conversation with no stored history.
const DefaultGreeting = "Hello! How can I help you?"

// ReactionEmojis are the quick reactions offered by the front ends.
var ReactionEmojis = []string{"👍", "❤️", "😂", "😮", "😢", "🔥"}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the session timing and defaults.
type Config struct {
	// BotName is used by the name rule and shown by front ends
	BotName string

	// Greeting seeds an empty store
	Greeting string

	// TypingMin and TypingMax bound the reply delay; the delay is uniform in [min, max)
	TypingMin time.Duration
	TypingMax time.Duration

	// AttachmentReplyDelay is the fixed delay before an image is acknowledged
	AttachmentReplyDelay time.Duration

	// MaxAttachmentBytes limits image size
	MaxAttachmentBytes int64

	// DefaultPreferences apply until the user changes them
	DefaultPreferences model.Preferences
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		BotName:              responder.DefaultBotName,
		Greeting:             DefaultGreeting,
		TypingMin:            time.Second,
		TypingMax:            3 * time.Second,
		AttachmentReplyDelay: time.Second,
		MaxAttachmentBytes:   attach.DefaultMaxBytes,
		DefaultPreferences:   model.DefaultPreferences(),
	}
}

// ConfigFrom builds a session Config from the loaded application config.
// darkDefault is the resolved dark-mode default, since "auto" depends on the
// terminal.
func ConfigFrom(cfg *config.Config, darkDefault bool) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if cfg.Chat.BotName != "" {
		c.BotName = cfg.Chat.BotName
	}
	if cfg.Chat.Greeting != "" {
		c.Greeting = cfg.Chat.Greeting
	}
	c.TypingMin = cfg.Chat.TypingMin.Std()
	c.TypingMax = cfg.Chat.TypingMax.Std()
	c.AttachmentReplyDelay = cfg.Chat.AttachmentReplyDelay.Std()
	if cfg.Chat.MaxAttachmentBytes > 0 {
		c.MaxAttachmentBytes = cfg.Chat.MaxAttachmentBytes
	}
	if t, err := model.ParseTheme(cfg.UI.Theme); err == nil {
		c.DefaultPreferences.Theme = t
	}
	c.DefaultPreferences.DarkMode = darkDefault
	return c
}

// =============================================================================
// TOKENS AND OUTCOMES
// =============================================================================

// Kind distinguishes scheduled replies.
type Kind int

const (
	// KindReply is the answer to a chat message or command
	KindReply Kind = iota + 1
	// KindAttachmentAck acknowledges an image
	KindAttachmentAck
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindReply:
		return "reply"
	case KindAttachmentAck:
		return "attachment_ack"
	default:
		return "unknown"
	}
}

// Pending is a bot reply scheduled for later delivery. The zero value is not
// a valid token.
type Pending struct {
	Gen   uint64
	Seq   uint64
	Kind  Kind
	Delay time.Duration
	Reply string
	Rule  string
}

// Valid reports whether p was issued by a Session.
func (p Pending) Valid() bool {
	return p.Seq != 0
}

// Action tells the front end about a side effect it should present.
type Action int

const (
	ActionNone Action = iota
	// ActionOpenThemePicker asks the front end to show the theme chooser
	ActionOpenThemePicker
	// ActionThemeChanged reports that /theme <name> applied a theme
	ActionThemeChanged
	// ActionCleared reports that the conversation was emptied
	ActionCleared
)

// Outcome describes the effect of Submit or Attach.
type Outcome struct {
	// UserMessage is the appended user message; nil for commands
	UserMessage *model.Message

	// Command is the dispatched command kind, or zero for chat text
	Command commands.Kind

	Action Action

	// Theme is set for ActionThemeChanged
	Theme model.Theme

	// Pending is the reply to deliver after Pending.Delay
	Pending Pending
}

// IsCommand reports whether the submission was a slash command.
func (o Outcome) IsCommand() bool {
	return o.Command != 0
}

// PersistError reports a failed write. In-memory state is already updated.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the chat state shared by a front end and its timers.
type Session struct {
	mu sync.Mutex

	cfg     Config
	store   *storage.Adapter
	engine  *responder.Engine
	reg     *commands.Registry
	parser  *commands.Parser
	conv    *model.Conversation
	prefs   model.Preferences
	started bool
	closed  bool

	// Generation and token tracking
	gen     uint64
	seq     uint64
	pending *Pending
	acks    map[uint64]struct{}

	now     func() time.Time
	rng     *rand.Rand
	logger  *zap.Logger
	metrics *telemetry.Metrics
	engOpts []responder.Option

	blockedLog rate.Sometimes

	// Callbacks
	onError func(error)
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for timestamps and the time rules.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand sets the random source for delays and fallback replies.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the counters to update.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithEngineOptions passes extra options to the response engine.
func WithEngineOptions(opts ...responder.Option) Option {
	return func(s *Session) {
		s.engOpts = append(s.engOpts, opts...)
	}
}

// WithRegistry replaces the command registry.
func WithRegistry(reg *commands.Registry) Option {
	return func(s *Session) {
		if reg != nil {
			s.reg = reg
		}
	}
}

// New creates a session over store. Call Start before use.
func New(store *storage.Adapter, cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:        normalizeConfig(cfg),
		store:      store,
		reg:        commands.NewRegistry(),
		conv:       model.NewConversation(),
		acks:       make(map[uint64]struct{}),
		now:        time.Now,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:     zap.NewNop(),
		blockedLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("session")
	s.prefs = s.cfg.DefaultPreferences
	s.parser = commands.NewParser(s.reg)
	s.engine = s.newEngine()
	return s
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.BotName) == "" {
		cfg.BotName = def.BotName
	}
	if strings.TrimSpace(cfg.Greeting) == "" {
		cfg.Greeting = def.Greeting
	}
	if cfg.TypingMin < 0 {
		cfg.TypingMin = 0
	}
	if cfg.TypingMax < cfg.TypingMin {
		cfg.TypingMax = cfg.TypingMin
	}
	if cfg.AttachmentReplyDelay < 0 {
		cfg.AttachmentReplyDelay = 0
	}
	if cfg.MaxAttachmentBytes <= 0 {
		cfg.MaxAttachmentBytes = def.MaxAttachmentBytes
	}
	if !cfg.DefaultPreferences.Theme.Valid() {
		cfg.DefaultPreferences.Theme = model.DefaultTheme
	}
	return cfg
}

func (s *Session) newEngine() *responder.Engine {
	opts := []responder.Option{
		responder.WithClock(s.now),
		responder.WithRand(s.rng),
		responder.WithBotName(s.cfg.BotName),
	}
	return responder.New(append(opts, s.engOpts...)...)
}

// Start loads the stored conversation and preferences, seeding the greeting
// when no history exists. Only the first call has an effect.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	if msgs, ok := s.store.Load(); ok {
		s.conv.Load(msgs)
		s.logger.Debug("conversation restored", zap.Int("messages", len(msgs)))
	} else {
		s.conv.Append(model.NewBotMessage(s.cfg.Greeting, s.now()))
	}

	if prefs, ok := s.store.LoadPreferencesOver(s.cfg.DefaultPreferences); ok {
		s.prefs = prefs
	}
}

// Close releases the persistence adapter. Outstanding tokens become stale.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.gen++
	s.clearTokens()
	return s.store.Close()
}

// SetErrorHandler sets the function called with persistence errors from
// Submit, Deliver and Attach. It runs outside the session lock.
func (s *Session) SetErrorHandler(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// UpdateConfig applies a reloaded configuration. Preferences already chosen
// by the user are kept.
func (s *Session) UpdateConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = normalizeConfig(cfg)
	s.engine = s.newEngine()
	s.logger.Info("configuration reloaded",
		zap.String("bot_name", s.cfg.BotName),
		zap.Duration("typing_min", s.cfg.TypingMin),
		zap.Duration("typing_max", s.cfg.TypingMax))
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Messages returns a copy of the conversation.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Snapshot()
}

// Message returns a copy of the message with id.
func (s *Session) Message(id string) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Get(id)
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Len()
}

// Preferences returns the current preferences.
func (s *Session) Preferences() model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Typing reports whether a bot reply is scheduled.
func (s *Session) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// BotName returns the configured bot name.
func (s *Session) BotName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.BotName
}

// Config returns the active configuration.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Registry returns the command registry, for completion and help.
func (s *Session) Registry() *commands.Registry {
	return s.reg
}

// =============================================================================
// INPUT
// =============================================================================

// Submit handles one line of user input. Chat text appends a user message
// and schedules the engine's reply; recognised commands apply their effect
// and schedule a confirmation. /clear is accepted while a reply is pending
// and cancels it; everything else returns ErrReplyPending.
func (s *Session) Submit(text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{}, ErrEmptyInput
	}

	s.mu.Lock()
	res := s.parser.Parse(text)
	if s.pending != nil && !(res.Matched() && res.Command.Kind == commands.KindClear) {
		s.mu.Unlock()
		s.blockedLog.Do(func() {
			s.logger.Debug("input rejected while reply pending")
		})
		return Outcome{}, ErrReplyPending
	}

	var (
		out     Outcome
		saveErr error
	)
	if res.Matched() {
		out, saveErr = s.dispatch(res)
	} else {
		out, saveErr = s.chat(text)
	}
	s.metrics.SetPending(s.pending != nil)
	handler := s.onError
	s.mu.Unlock()

	s.report(handler, saveErr)
	return out, nil
}

// chat appends the user message and schedules the reply. Caller holds mu.
func (s *Session) chat(text string) (Outcome, error) {
	msg := model.NewUserMessage(text, s.now())
	s.conv.Append(msg)
	s.metrics.MessageAppended(model.SenderUser)
	saveErr := s.save()

	reply := s.engine.Respond(text)
	s.metrics.ReplyComputed(reply.Rule)
	s.logger.Debug("reply scheduled", zap.String("rule", reply.Rule))

	out := Outcome{
		UserMessage: msg.Clone(),
		Pending:     s.schedule(KindReply, s.typingDelay(), reply.Text, reply.Rule),
	}
	return out, saveErr
}

// dispatch applies a recognised command. Caller holds mu.
func (s *Session) dispatch(res commands.ParseResult) (Outcome, error) {
	cmd := res.Command
	s.metrics.CommandDispatched(cmd.Name)
	s.logger.Debug("command dispatched", zap.String("command", cmd.Name))

	out := Outcome{Command: cmd.Kind}
	var (
		reply   string
		saveErr error
	)

	switch cmd.Kind {
	case commands.KindHelp:
		reply = s.reg.HelpText()

	case commands.KindClear:
		saveErr = s.reset()
		out.Action = ActionCleared
		reply = commands.ClearReply

	case commands.KindTheme:
		arg := res.Arg(0)
		if arg == "" {
			out.Action = ActionOpenThemePicker
			reply = commands.ThemePickerReply
			break
		}
		t, err := model.ParseTheme(arg)
		if err != nil {
			reply = unknownThemeReply(arg)
			break
		}
		s.prefs.Theme = t
		saveErr = s.savePreferences()
		out.Action = ActionThemeChanged
		out.Theme = t
		reply = commands.ThemeChangedReply(t)
	}

	out.Pending = s.schedule(KindReply, s.typingDelay(), reply, "command:"+cmd.Kind.String())
	return out, saveErr
}

func unknownThemeReply(name string) string {
	keys := make([]string, len(model.Themes))
	for i, t := range model.Themes {
		keys[i] = string(t)
	}
	return fmt.Sprintf("I don't know the theme %q. Try one of: %s.", name, strings.Join(keys, ", "))
}

// =============================================================================
// DELIVERY
// =============================================================================

// Deliver appends the bot message for p if p is still current. Stale or
// already delivered tokens return false and change nothing.
func (s *Session) Deliver(p Pending) (model.Message, bool) {
	s.mu.Lock()
	if !s.current(p) {
		s.mu.Unlock()
		s.metrics.StaleDelivery()
		s.logger.Debug("stale reply dropped",
			zap.Uint64("gen", p.Gen), zap.Stringer("kind", p.Kind))
		return model.Message{}, false
	}

	switch p.Kind {
	case KindReply:
		s.pending = nil
	case KindAttachmentAck:
		delete(s.acks, p.Seq)
	}

	msg := model.NewBotMessage(p.Reply, s.now())
	s.conv.Append(msg)
	s.metrics.MessageAppended(model.SenderBot)
	s.metrics.SetPending(s.pending != nil)
	saveErr := s.save()
	handler := s.onError
	out := *msg.Clone()
	s.mu.Unlock()

	s.report(handler, saveErr)
	return out, true
}

// DeliverAttachmentAck delivers an attachment acknowledgement token.
func (s *Session) DeliverAttachmentAck(p Pending) (model.Message, bool) {
	if p.Kind != KindAttachmentAck {
		return model.Message{}, false
	}
	return s.Deliver(p)
}

// Cancel drops the pending reply without delivering it.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.metrics.SetPending(false)
}

// current reports whether p may still be delivered. Caller holds mu.
func (s *Session) current(p Pending) bool {
	if s.closed || !p.Valid() || p.Gen != s.gen {
		return false
	}
	switch p.Kind {
	case KindReply:
		return s.pending != nil && s.pending.Seq == p.Seq
	case KindAttachmentAck:
		_, ok := s.acks[p.Seq]
		return ok
	default:
		return false
	}
}

// schedule issues a token. Caller holds mu.
func (s *Session) schedule(kind Kind, delay time.Duration, reply, rule string) Pending {
	s.seq++
	p := Pending{
		Gen:   s.gen,
		Seq:   s.seq,
		Kind:  kind,
		Delay: delay,
		Reply: reply,
		Rule:  rule,
	}
	switch kind {
	case KindReply:
		held := p
		s.pending = &held
	case KindAttachmentAck:
		s.acks[p.Seq] = struct{}{}
	}
	return p
}

// typingDelay picks a delay uniform in [TypingMin, TypingMax). Caller holds mu.
func (s *Session) typingDelay() time.Duration {
	span := s.cfg.TypingMax - s.cfg.TypingMin
	if span <= 0 {
		return s.cfg.TypingMin
	}
	return s.cfg.TypingMin + time.Duration(s.rng.Int64N(int64(span)))
}

func (s *Session) clearTokens() {
	s.pending = nil
	clear(s.acks)
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Reset empties the conversation and the stored history without scheduling
// a confirmation. Outstanding tokens become stale.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.reset()
	s.metrics.SetPending(false)
	return err
}

// reset clears state and bumps the generation. Caller holds mu.
func (s *Session) reset() error {
	s.conv.Clear()
	s.gen++
	s.clearTokens()
	s.logger.Info("conversation cleared", zap.Uint64("gen", s.gen))
	if err := s.store.ClearHistory(); err != nil {
		s.metrics.StorageError()
		return &PersistError{Op: "clear", Err: err}
	}
	return nil
}

// React adds emoji to the message with id.
func (s *Session) React(id, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return ErrEmptyReaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.conv.AddReaction(id, emoji) {
		return fmt.Errorf("%w: %s", ErrUnknownMessage, id)
	}
	s.metrics.ReactionAdded()
	return s.save()
}

// Attach ingests the image at path, appends it as a user message and
// schedules the acknowledgement. Rejected files create no message. Attach
// is allowed while a reply is pending.
func (s *Session) Attach(ctx context.Context, path string) (Outcome, error) {
	s.mu.Lock()
	maxBytes := s.cfg.MaxAttachmentBytes
	s.mu.Unlock()

	a, err := attach.Ingest(ctx, path, maxBytes)
	if err != nil {
		s.metrics.AttachmentResult(attachResult(err))
		s.logger.Info("attachment rejected", zap.String("path", path), zap.Error(err))
		return Outcome{}, err
	}

	s.mu.Lock()
	msg := model.NewImageMessage(a.Caption(), a.DataURI, s.now())
	s.conv.Append(msg)
	s.metrics.AttachmentResult(telemetry.AttachAccepted)
	s.metrics.MessageAppended(model.SenderUser)
	saveErr := s.save()
	out := Outcome{
		UserMessage: msg.Clone(),
		Pending:     s.schedule(KindAttachmentAck, s.cfg.AttachmentReplyDelay, AttachmentAckReply, "attachment"),
	}
	handler := s.onError
	s.mu.Unlock()

	s.logger.Debug("attachment accepted",
		zap.String("name", a.Name), zap.String("mime", a.MIME), zap.Int64("size", a.Size))
	s.report(handler, saveErr)
	return out, nil
}

func attachResult(err error) string {
	switch {
	case errors.Is(err, attach.ErrUnsupportedType):
		return telemetry.AttachUnsupported
	case errors.Is(err, attach.ErrTooLarge):
		return telemetry.AttachTooLarge
	default:
		return telemetry.AttachFailed
	}
}

// SetTheme changes and saves the theme.
func (s *Session) SetTheme(t model.Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownTheme, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Theme = t
	return s.savePreferences()
}

// SetDarkMode changes and saves dark mode.
func (s *Session) SetDarkMode(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.DarkMode = on
	return s.savePreferences()
}

// ToggleDarkMode flips dark mode and returns the new value.
func (s *Session) ToggleDarkMode() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.DarkMode = !s.prefs.DarkMode
	return s.prefs.DarkMode, s.savePreferences()
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// save writes the conversation. Caller holds mu.
func (s *Session) save() error {
	if err := s.store.Save(s.conv.Snapshot()); err != nil {
		s.metrics.StorageError()
		s.logger.Warn("failed to save conversation", zap.Error(err))
		return &PersistError{Op: "conversation", Err: err}
	}
	return nil
}

// savePreferences writes the preferences. Caller holds mu.
func (s *Session) savePreferences() error {
	if err := s.store.SavePreferences(s.prefs); err != nil {
		s.metrics.StorageError()
		s.logger.Warn("failed to save preferences", zap.Error(err))
		return &PersistError{Op: "preferences", Err: err}
	}
	return nil
}

func (s *Session) report(handler func(error), err error) {
	if err != nil && handler != nil {
		handler(err)
	}
}
