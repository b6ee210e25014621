// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/commands"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/session"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODE
// =============================================================================

// Mode is the overlay currently receiving keys.
type Mode int

const (
	ModeInput       Mode = iota // Typing a message
	ModeAttach                  // Typing an image path
	ModeReact                   // Selecting a message to react to
	ModeThemePicker             // Choosing a theme
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeAttach:
		return "attach"
	case ModeReact:
		return "react"
	case ModeThemePicker:
		return "theme"
	default:
		return "unknown"
	}
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat model.
type Options struct {
	Logger *zap.Logger
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	sess   *session.Session
	logger *zap.Logger

	// Styling
	theme *styles.Theme
	md    *markdownRenderer

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	viewport  viewport.Model
	input     textarea.Model
	pathInput textinput.Model
	spinner   spinner.Model
	keyMap    KeyMap

	// Overlay state
	mode      Mode
	reactIdx  int // index into the conversation while in ModeReact
	pickerIdx int // index into model.Themes while in ModeThemePicker

	// Tab completion
	completer   *commands.Completer
	completions *commands.CompletionState

	// Transient notice in the status bar
	notice      string
	noticeError bool
	noticeSeq   int

	// Persistence errors reported by the session
	errs *errorSink
}

// New creates a chat model over a started session.
func New(sess *session.Session, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ta := textarea.New()
	ta.Prompt = "> "
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 4096
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.Focus()

	pi := textinput.New()
	pi.Prompt = "Image path: "
	pi.Placeholder = "~/Pictures/cat.png"
	pi.CharLimit = 1024

	theme := styles.ForPreferences(sess.Preferences())

	sp := spinner.New(
		spinner.WithSpinner(styles.TypingSpinner),
		spinner.WithStyle(theme.Spinner),
	)

	errs := &errorSink{}
	sess.SetErrorHandler(errs.add)

	return Model{
		sess:        sess,
		logger:      logger.Named("tui"),
		theme:       theme,
		md:          newMarkdownRenderer(),
		viewport:    viewport.New(80, 20),
		input:       ta,
		pathInput:   pi,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
		mode:        ModeInput,
		completer:   commands.NewCompleter(sess.Registry()),
		completions: commands.NewCompletionState(),
		errs:        errs,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyDueMsg:
		return m.handleReplyDue(msg)

	case AttachDoneMsg:
		return m.handleAttachDone(msg)

	case ConfigReloadedMsg:
		m.sess.UpdateConfig(msg.Config)
		m.updateViewport()
		return m.setNotice("Configuration reloaded", false)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sess.Typing() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateViewport()
		return m, cmd
	}

	return m.forwardToInput(msg)
}

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.render()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Mode returns the active overlay.
func (m Model) Mode() Mode {
	return m.mode
}

// Theme returns the active theme.
func (m Model) Theme() *styles.Theme {
	return m.theme
}

// Notice returns the transient status notice, if any.
func (m Model) Notice() string {
	return m.notice
}

// InputValue returns the text being typed.
func (m Model) InputValue() string {
	return m.input.Value()
}

// applyPreferences rebuilds the theme after a theme or dark-mode change.
func (m *Model) applyPreferences(p model.Preferences) {
	m.theme = styles.ForPreferences(p)
	m.theme.SetSize(m.width, m.height)
	m.spinner.Style = m.theme.Spinner
	m.updateViewport()
}

// =============================================================================
// ERROR SINK
// =============================================================================

// errorSink collects errors the session reports from inside its calls.
type errorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *errorSink) add(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *errorSink) drain() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.errs
	s.errs = nil
	return out
}
