// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/export"
	"github.com/jeranaias/chatbot-tui/internal/session"
)

type exportFlags struct {
	format       string
	output       string
	dir          string
	title        string
	noTimestamps bool
	noImages     bool
	noMetadata   bool
	open         bool
}

func newExportCommand(app *App) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the conversation to Markdown, HTML or JSON",
		Long: `Export writes the stored conversation to a document.

With neither --output nor --dir the document goes to stdout. --dir picks a
file name from the title and the current time.`,
		Example: `  chatbot export > chat.md
  chatbot export --format html --dir ~/Documents --open
  chatbot export -f json -o chat.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runExport(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", string(export.FormatMarkdown), "markdown, html or json")
	fl.StringVarP(&f.output, "output", "o", "", "write to this file (- for stdout)")
	fl.StringVar(&f.dir, "dir", "", "write a generated file name into this directory")
	fl.StringVar(&f.title, "title", "", "document title")
	fl.BoolVar(&f.noTimestamps, "no-timestamps", false, "leave out message times")
	fl.BoolVar(&f.noImages, "no-images", false, "show attachments as chips instead of embedding them")
	fl.BoolVar(&f.noMetadata, "no-metadata", false, "leave out the front matter and header")
	fl.BoolVar(&f.open, "open", false, "open the written file")
	cmd.MarkFlagsMutuallyExclusive("output", "dir")
	return cmd
}

func (a *App) runExport(cmd *cobra.Command, f exportFlags) error {
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return fmt.Errorf("%w (choose markdown, html or json)", err)
	}
	exporter, err := export.New(format, &export.Options{
		IncludeMetadata:   !f.noMetadata,
		IncludeTimestamps: !f.noTimestamps,
		IncludeImages:     !f.noImages,
	})
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	msgs, _ := store.Load()
	prefs, _ := store.LoadPreferencesOver(session.ConfigFrom(a.cfg, a.darkDefault()).DefaultPreferences)
	t := export.NewTranscript(msgs, a.cfg.Chat.BotName, prefs, time.Now())
	if f.title != "" {
		t.Title = f.title
	}

	var path string
	switch {
	case f.dir != "":
		path, err = export.WriteFile(t, exporter, f.dir)
	case f.output != "" && f.output != "-":
		path, err = writeExport(t, exporter, f.output)
	default:
		var content []byte
		if content, err = exporter.Export(t); err == nil {
			_, err = cmd.OutOrStdout().Write(content)
		}
	}
	if errors.Is(err, export.ErrEmptyTranscript) {
		return errors.New("nothing to export yet")
	}
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	a.logger.Debug("Exported conversation",
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("messages", len(msgs)),
	)
	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Exported "+fmt.Sprint(len(msgs))+" messages to "+path))
	if f.open {
		if err := export.Open(path); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("Could not open file: "+err.Error()))
		}
	}
	return nil
}

// writeExport writes to an explicit path, adding the format's extension
// when the path has none.
func writeExport(t *export.Transcript, exporter export.Exporter, path string) (string, error) {
	if filepath.Ext(path) == "" {
		path += exporter.FileExtension()
	}
	content, err := exporter.Export(t)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}
