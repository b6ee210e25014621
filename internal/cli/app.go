// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/config"
	"github.com/jeranaias/chatbot-tui/internal/logging"
	"github.com/jeranaias/chatbot-tui/internal/session"
	"github.com/jeranaias/chatbot-tui/internal/storage"
	"github.com/jeranaias/chatbot-tui/internal/telemetry"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dataDir    string
	backend    string
	verbose    bool
	ephemeral  bool
}

// App carries the state built once per invocation by the root command.
type App struct {
	build   BuildInfo
	flags   globalFlags
	cfg     *config.Config
	logger  *zap.Logger
	metrics *telemetry.Metrics

	// interactive is set by commands that own the terminal
	interactive bool
}

// NewRootCommand builds the chatbot command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	app := &App{build: build, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "chatbot",
		Short: "A friendly terminal chat widget",
		Long: `chatbot is a small chat companion for the terminal.

It answers greetings and questions about the time, the date and itself,
remembers the conversation between runs, and lets you react to messages,
attach images and pick a colour theme.

Run without arguments to start the full-screen chat.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTUI(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&app.flags.configPath, "config", "c", "", "config file (default ~/.chatbot/config.toml)")
	pf.StringVar(&app.flags.dataDir, "data-dir", "", "directory for chat history and preferences")
	pf.StringVar(&app.flags.backend, "backend", "", "storage backend: file, sqlite, pebble or memory")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&app.flags.ephemeral, "ephemeral", false, "keep everything in memory for this run")

	root.AddCommand(
		newChatCommand(app),
		newSendCommand(app),
		newHistoryCommand(app),
		newReactCommand(app),
		newAttachCommand(app),
		newClearCommand(app),
		newExportCommand(app),
		newPrefsCommand(app),
		newConfigCommand(app),
		newVersionCommand(app),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *App) setup(cmd *cobra.Command) error {
	a.interactive = cmd.Parent() == nil || cmd.Name() == "chat"

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.flags.dataDir != "" {
		cfg.Storage.Dir = a.flags.dataDir
		cfg.Logging.File = filepath.Join(a.flags.dataDir, "chatbot.log")
	}
	if a.flags.backend != "" {
		b, err := storage.ParseBackend(a.flags.backend)
		if err != nil {
			return err
		}
		cfg.Storage.Backend = string(b)
	}
	if a.flags.ephemeral {
		cfg.Storage.Backend = string(storage.BackendMemory)
	}
	a.cfg = cfg
	config.SetGlobal(cfg)

	opts := logging.Options{
		Level:   cfg.Logging.Level,
		Verbose: a.flags.verbose,
		File:    cfg.Logging.File,
	}
	if a.flags.ephemeral {
		// nothing touches disk; verbose one-shot commands log to stderr
		opts.File = ""
		opts.Stderr = a.flags.verbose && !a.interactive
	}
	logger, err := logging.New(opts)
	if err != nil {
		return err
	}
	a.logger = logger.Named("cli")
	a.metrics = telemetry.NewMetrics()

	a.logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("dir", cfg.Storage.Dir))
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	if a.flags.configPath != "" {
		return config.LoadFromPath(a.flags.configPath)
	}
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil {
		// defaults are still usable
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", WarningStyle.Render("Warning:"), err)
	}
	return cfg, nil
}

// configDir is the directory watched for config changes.
func (a *App) configDir() (string, error) {
	if a.flags.configPath != "" {
		return filepath.Dir(a.flags.configPath), nil
	}
	return config.ConfigDir()
}

// darkDefault resolves ui.dark_mode. Only interactive commands query the
// terminal for "auto".
func (a *App) darkDefault() bool {
	if a.cfg.UI.DarkMode == config.DarkModeAuto && !a.interactive {
		return true
	}
	return styles.ResolveDarkMode(a.cfg.UI.DarkMode)
}

// openSession opens the configured store and starts a session over it.
func (a *App) openSession() (*session.Session, error) {
	backend := storage.Backend(a.cfg.Storage.Backend)
	if backend != storage.BackendMemory {
		if err := os.MkdirAll(a.cfg.Storage.Dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	kv, err := storage.Open(backend, a.cfg.Storage.Dir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", backend, err)
	}

	sess := session.New(
		storage.NewAdapter(kv, a.logger),
		session.ConfigFrom(a.cfg, a.darkDefault()),
		session.WithLogger(a.logger),
		session.WithMetrics(a.metrics),
	)
	sess.Start()
	return sess, nil
}

// openStore opens the configured store without starting a session.
func (a *App) openStore() (*storage.Adapter, error) {
	backend := storage.Backend(a.cfg.Storage.Backend)
	kv, err := storage.Open(backend, a.cfg.Storage.Dir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", backend, err)
	}
	return storage.NewAdapter(kv, a.logger), nil
}

// startMetrics serves /metrics when metrics.addr is set. The returned stop
// function is always safe to call.
func (a *App) startMetrics() func() {
	if a.cfg.Metrics.Addr == "" {
		return func() {}
	}
	srv := telemetry.NewServer(a.cfg.Metrics.Addr, a.metrics, a.logger)
	if _, err := srv.Listen(); err != nil {
		a.logger.Warn("metrics endpoint disabled", zap.Error(err))
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics shutdown", zap.Error(err))
		}
	}
}

// await waits out a pending reply's delay, or returns early when skip is set.
func await(ctx context.Context, p session.Pending, skip bool) error {
	if !p.Valid() || skip || p.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver waits for p and hands it back to the session.
func deliver(ctx context.Context, sess *session.Session, p session.Pending, skip bool) (string, bool, error) {
	if !p.Valid() {
		return "", false, nil
	}
	if err := await(ctx, p, skip); err != nil {
		return "", false, err
	}
	var ok bool
	var text string
	if p.Kind == session.KindAttachmentAck {
		msg, delivered := sess.DeliverAttachmentAck(p)
		text, ok = msg.Text, delivered
	} else {
		msg, delivered := sess.Deliver(p)
		text, ok = msg.Text, delivered
	}
	return text, ok, nil
}

// isCanceled reports whether err came from Ctrl+C.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
