// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbot-tui/internal/attach"
	"github.com/jeranaias/chatbot-tui/internal/commands"
	"github.com/jeranaias/chatbot-tui/internal/config"
	"github.com/jeranaias/chatbot-tui/internal/model"
	"github.com/jeranaias/chatbot-tui/internal/session"
	"github.com/jeranaias/chatbot-tui/internal/ui/styles"
)

// =============================================================================
// SEND
// =============================================================================

func newSendCommand(app *App) *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:   "send TEXT...",
		Short: "Send one message and print the reply",
		Example: `  chatbot send hello there
  chatbot send "what time is it?"
  chatbot send /theme blue`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			out, err := sess.Submit(strings.Join(args, " "))
			if err != nil {
				return err
			}
			text, ok, err := deliver(cmd.Context(), sess, out.Pending, noWait)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if ok {
				fmt.Fprintln(w, formatBotLine(w, sess.BotName(), text, sess.Preferences()))
			}
			if out.Action == session.ActionOpenThemePicker {
				fmt.Fprintln(w, DimStyle.Render("Pick one with: chatbot prefs --theme "+themeKeys()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "reply immediately instead of simulating typing")
	return cmd
}

// =============================================================================
// HISTORY
// =============================================================================

func newHistoryCommand(app *App) *cobra.Command {
	var asJSON bool
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			msgs, _ := store.Load()
			if limit > 0 && len(msgs) > limit {
				msgs = msgs[len(msgs)-limit:]
			}

			w := cmd.OutOrStdout()
			if asJSON {
				if msgs == nil {
					msgs = []model.Message{}
				}
				return writeJSON(w, msgs)
			}
			if len(msgs) == 0 {
				fmt.Fprintln(w, DimStyle.Render("No messages yet"))
				return nil
			}
			prefs, _ := store.LoadPreferences()
			for _, msg := range msgs {
				fmt.Fprintln(w, DimStyle.Render(msg.ID)+" "+formatMessage(w, msg, app.cfg.Chat.BotName, prefs))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw stored messages as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "only the last N messages")
	return cmd
}

// =============================================================================
// REACT
// =============================================================================

func newReactCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "react MESSAGE-ID EMOJI",
		Short: "Add an emoji reaction to a stored message",
		Long: `Adds a reaction to the message with the given ID (see "chatbot history").
EMOJI may be any emoji or 1-6 for ` + strings.Join(session.ReactionEmojis, " ") + `.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			id := args[0]
			if err := sess.React(id, resolveEmoji(args[1])); err != nil {
				if errors.Is(err, session.ErrUnknownMessage) {
					return fmt.Errorf("no message with ID %q", id)
				}
				return err
			}
			msg, _ := sess.Message(id)
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Reacted:")+" "+msg.ReactionSummary())
			return nil
		},
	}
}

// =============================================================================
// ATTACH
// =============================================================================

func newAttachCommand(app *App) *cobra.Command {
	var noWait bool
	cmd := &cobra.Command{
		Use:   "attach PATH",
		Short: "Attach an image to the conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			out, err := sess.Attach(cmd.Context(), args[0])
			if err != nil {
				return errors.New(attach.Reason(err))
			}
			w := cmd.OutOrStdout()
			if out.UserMessage != nil {
				fmt.Fprintln(w, formatMessage(w, *out.UserMessage, sess.BotName(), sess.Preferences()))
			}
			text, ok, err := deliver(cmd.Context(), sess, out.Pending, noWait)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(w, formatBotLine(w, sess.BotName(), text, sess.Preferences()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "acknowledge immediately")
	return cmd
}

// =============================================================================
// CLEAR
// =============================================================================

func newClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Erase the stored chat history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ClearHistory(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render(commands.ClearReply))
			return nil
		},
	}
}

// =============================================================================
// PREFS
// =============================================================================

func newPrefsCommand(app *App) *cobra.Command {
	var theme, dark string
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the theme and dark mode",
		Example: `  chatbot prefs
  chatbot prefs --theme green
  chatbot prefs --dark on`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			if theme != "" {
				t, err := model.ParseTheme(theme)
				if err != nil {
					return fmt.Errorf("%w (choose %s)", err, themeKeys())
				}
				if err := sess.SetTheme(t); err != nil {
					return err
				}
			}
			if dark != "" {
				on, err := parseOnOff(dark)
				if err != nil {
					return err
				}
				if err := sess.SetDarkMode(on); err != nil {
					return err
				}
			}

			p := sess.Preferences()
			th := styles.ForPreferences(p)
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, RenderLabel("Theme")+th.Swatch(p.Theme)+" "+p.Theme.DisplayName()+DimStyle.Render(" ("+string(p.Theme)+")"))
			fmt.Fprintln(w, RenderLabel("Dark mode")+onOff(p.DarkMode))
			return nil
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "theme: "+themeKeys())
	cmd.Flags().StringVar(&dark, "dark", "", "dark mode: on or off")
	return cmd
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func themeKeys() string {
	keys := make([]string, len(model.Themes))
	for i, t := range model.Themes {
		keys[i] = string(t)
	}
	return strings.Join(keys, "|")
}

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, key := range config.GetAllKeys() {
				v, err := app.cfg.Get(key)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%s = %v\n", key, v)
			}
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote")+" "+path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}

// configFilePath is --config, the existing config file, or the default
// TOML location.
func (a *App) configFilePath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	if path := config.FindConfigFile(dir); path != "" {
		return path, nil
	}
	return config.ConfigPathTOML()
}

// =============================================================================
// VERSION
// =============================================================================

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, TitleStyle.Render("chatbot "+app.build.Version))
			fmt.Fprintln(w, RenderLabel("Commit")+app.build.GitCommit)
			fmt.Fprintln(w, RenderLabel("Built")+app.build.BuildDate)
		},
	}
}
