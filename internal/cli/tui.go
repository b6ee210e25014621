// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/config"
	"github.com/jeranaias/chatbot-tui/internal/session"
	"github.com/jeranaias/chatbot-tui/internal/ui/chat"
)

// runTUI starts the full-screen chat.
func (a *App) runTUI(cmd *cobra.Command) error {
	sess, err := a.openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	stopMetrics := a.startMetrics()
	defer stopMetrics()

	var opts []tea.ProgramOption
	if a.cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithContext(cmd.Context()))

	m := chat.New(sess, chat.Options{Logger: a.logger})
	p := tea.NewProgram(m, opts...)

	if w := a.watchConfig(func(cfg *config.Config) {
		p.Send(chat.ConfigReloadedMsg{Config: session.ConfigFrom(cfg, sess.Preferences().DarkMode)})
	}); w != nil {
		defer w.Close()
	}

	a.logger.Info("starting chat", zap.String("bot", sess.BotName()))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}

// watchConfig reloads the config directory on change. It returns nil when
// the directory cannot be watched; the chat works without live reload.
func (a *App) watchConfig(onChange func(*config.Config)) *config.Watcher {
	dir, err := a.configDir()
	if err != nil {
		return nil
	}
	w, err := config.NewWatcher(dir, config.DefaultDebounce)
	if err != nil {
		a.logger.Warn("config watcher unavailable", zap.Error(err))
		return nil
	}
	w.OnChange = func(cfg *config.Config) {
		a.logger.Info("config changed", zap.String("dir", dir))
		onChange(cfg)
	}
	w.OnError = func(err error) {
		a.logger.Warn("config reload failed", zap.Error(err))
	}
	if err := w.Watch(); err != nil {
		a.logger.Debug("config directory not watched", zap.String("dir", dir), zap.Error(err))
		w.Close()
		return nil
	}
	return w
}
