// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/session"
)

// replHistoryFile holds the REPL's input history inside the data directory.
const replHistoryFile = "repl_history"

func newChatCommand(app *App) *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat line by line in the terminal",
		Long: `Starts a line-mode chat with input history.

Besides /help, /clear and /theme, the prompt understands:
  /attach PATH          attach an image
  /react EMOJI [N]      react to message N (default: the last one)
  /history              list the conversation with message numbers
  /dark                 toggle dark mode
  /quit                 leave (Ctrl+D also works)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			stopMetrics := app.startMetrics()
			defer stopMetrics()

			in := newLineInput(app.historyPath(), app.logger)
			defer in.Close()

			r := NewREPL(sess, in, cmd.OutOrStdout(), app.logger)
			r.NoWait = noWait
			return r.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "reply immediately instead of simulating typing")
	return cmd
}

// historyPath returns where REPL input history is kept, or "" for
// ephemeral runs.
func (a *App) historyPath() string {
	if a.flags.ephemeral || a.cfg.Storage.Dir == "" {
		return ""
	}
	return filepath.Join(a.cfg.Storage.Dir, replHistoryFile)
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader is the line editor the REPL reads from.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// lineInput is a liner.State with history persisted to a file.
type lineInput struct {
	*liner.State
	historyFile string
	logger      *zap.Logger
}

func newLineInput(historyFile string, logger *zap.Logger) *lineInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	in := &lineInput{State: line, historyFile: historyFile, logger: logger}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			if _, err := line.ReadHistory(f); err != nil {
				logger.Debug("input history unreadable", zap.Error(err))
			}
			f.Close()
		}
	}
	return in
}

// Close saves history and restores the terminal.
func (in *lineInput) Close() error {
	if in.historyFile != "" {
		f, err := os.OpenFile(in.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err == nil {
			if _, err := in.WriteHistory(f); err != nil {
				in.logger.Debug("input history not saved", zap.Error(err))
			}
			f.Close()
		}
	}
	return in.State.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is a line-mode front end over a Session.
type REPL struct {
	sess   *session.Session
	in     LineReader
	out    io.Writer
	logger *zap.Logger

	// NoWait delivers replies immediately
	NoWait bool

	mu   sync.Mutex // serializes writes to out
	acks sync.WaitGroup
}

// NewREPL creates a REPL reading from in and writing to out.
func NewREPL(sess *session.Session, in LineReader, out io.Writer, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{sess: sess, in: in, out: out, logger: logger.Named("repl")}
}

// Run reads lines until EOF, Ctrl+C or /quit. Pending attachment
// acknowledgements are delivered before it returns.
func (r *REPL) Run(ctx context.Context) error {
	ackCtx, cancelAcks := context.WithCancel(ctx)
	defer func() {
		cancelAcks()
		r.acks.Wait()
	}()

	r.printWelcome()
	for {
		input, err := r.in.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				r.println("")
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)

		quit, err := r.handle(ctx, ackCtx, input)
		if err != nil {
			if isCanceled(err) {
				return nil
			}
			r.println(ErrorStyle.Render("Error:") + " " + err.Error())
		}
		if quit {
			return nil
		}
	}
}

// handle processes one line and reports whether the REPL should exit.
func (r *REPL) handle(ctx, ackCtx context.Context, input string) (bool, error) {
	name, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "/quit", "/exit":
		return true, nil
	case "/attach":
		return false, r.attach(ackCtx, rest)
	case "/react":
		return false, r.react(rest)
	case "/history":
		r.printHistory()
		return false, nil
	case "/dark":
		on, err := r.sess.ToggleDarkMode()
		if err != nil {
			return false, err
		}
		r.println(SuccessStyle.Render(fmt.Sprintf("Dark mode %s", onOff(on))))
		return false, nil
	}
	return false, r.submit(ctx, input)
}

func (r *REPL) submit(ctx context.Context, input string) error {
	out, err := r.sess.Submit(input)
	switch {
	case errors.Is(err, session.ErrEmptyInput):
		return nil
	case err != nil:
		return err
	}

	if out.Action == session.ActionCleared {
		r.println(DimStyle.Render("(history cleared)"))
	}

	if err := r.awaitReply(ctx, out.Pending); err != nil {
		return err
	}

	switch out.Action {
	case session.ActionOpenThemePicker:
		return r.pickTheme()
	case session.ActionThemeChanged:
		r.logger.Debug("theme changed", zap.String("theme", string(out.Theme)))
	}
	return nil
}

// awaitReply shows the typing line, waits and prints the reply.
func (r *REPL) awaitReply(ctx context.Context, p session.Pending) error {
	if !p.Valid() {
		return nil
	}
	if !r.NoWait && p.Delay > 0 {
		r.println(TypingStyle.Render(r.sess.BotName() + " is typing..."))
	}
	text, ok, err := deliver(ctx, r.sess, p, r.NoWait)
	if err != nil {
		r.sess.Cancel()
		return err
	}
	if ok {
		r.println(formatBotLine(r.out, r.sess.BotName(), text, r.sess.Preferences()))
	}
	return nil
}

// pickTheme prompts for a theme by number or key.
func (r *REPL) pickTheme() error {
	current := r.sess.Preferences().Theme
	for i, t := range model.Themes {
		marker := "  "
		if t == current {
			marker = "▸ "
		}
		r.println(fmt.Sprintf("%s%d) %s", marker, i+1, t.DisplayName()))
	}

	answer, err := r.in.Prompt("theme> ")
	if err != nil {
		return nil
	}
	choice, ok := parseThemeChoice(answer)
	if !ok {
		if strings.TrimSpace(answer) != "" {
			r.println(WarningStyle.Render("Unknown theme " + strconv.Quote(strings.TrimSpace(answer))))
		}
		return nil
	}
	if err := r.sess.SetTheme(choice); err != nil {
		return err
	}
	r.println(SuccessStyle.Render("Theme changed to " + choice.DisplayName()))
	return nil
}

// parseThemeChoice accepts a 1-based picker number or a theme key.
func parseThemeChoice(s string) (model.Theme, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(model.Themes) {
			return model.Themes[n-1], true
		}
		return "", false
	}
	t, err := model.ParseTheme(s)
	return t, err == nil
}

func (r *REPL) attach(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("usage: /attach PATH")
	}
	out, err := r.sess.Attach(ctx, path)
	if err != nil {
		r.println(WarningStyle.Render(attach.Reason(err)))
		return nil
	}
	if out.UserMessage != nil {
		r.println(formatMessage(r.out, *out.UserMessage, r.sess.BotName(), r.sess.Preferences()))
	}

	// acknowledged in the background so typing can continue
	r.acks.Add(1)
	go func() {
		defer r.acks.Done()
		text, ok, err := deliver(ctx, r.sess, out.Pending, r.NoWait)
		if err != nil || !ok {
			return
		}
		r.println(formatBotLine(r.out, r.sess.BotName(), text, r.sess.Preferences()))
	}()
	return nil
}

func (r *REPL) react(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return errors.New("usage: /react EMOJI [N]")
	}
	msgs := r.sess.Messages()
	if len(msgs) == 0 {
		return errors.New("nothing to react to yet")
	}

	idx := len(msgs) - 1
	if len(fields) == 2 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(msgs) {
			return fmt.Errorf("no message %q", fields[1])
		}
		idx = n - 1
	}

	emoji := resolveEmoji(fields[0])
	if err := r.sess.React(msgs[idx].ID, emoji); err != nil {
		return err
	}
	msg, _ := r.sess.Message(msgs[idx].ID)
	r.println(DimStyle.Render(fmt.Sprintf("#%d ", idx+1)) + msg.ReactionSummary())
	return nil
}

// resolveEmoji maps the quick-reaction numbers 1-6 to their emoji.
func resolveEmoji(s string) string {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(session.ReactionEmojis) {
		return session.ReactionEmojis[n-1]
	}
	return s
}

func (r *REPL) printWelcome() {
	r.println(TitleStyle.Render(model.SenderBot.Avatar() + " " + r.sess.BotName()))
	r.println(DimStyle.Render("Type /help for commands, /quit to leave."))
	r.println(RenderSeparator(40))
	r.printHistory()
}

func (r *REPL) printHistory() {
	prefs := r.sess.Preferences()
	for i, msg := range r.sess.Messages() {
		r.println(DimStyle.Render(fmt.Sprintf("%3d ", i+1)) + formatMessage(r.out, msg, r.sess.BotName(), prefs))
	}
}

func (r *REPL) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
