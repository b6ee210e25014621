// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat.
package commands

import (
	"sort"
	"strings"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Kind identifies the built-in behaviour of a command.
type Kind int

const (
	KindHelp Kind = iota + 1
	KindClear
	KindTheme
)

// String returns the command kind name.
func (k Kind) String() string {
	switch k {
	case KindHelp:
		return "help"
	case KindClear:
		return "clear"
	case KindTheme:
		return "theme"
	default:
		return "unknown"
	}
}

// Command represents a slash command.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names. The built-ins have none.
	Aliases []string

	Kind Kind

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/theme [name]")
	Usage string

	// Values lists accepted argument values for completion
	Values []string

	// Hidden commands don't appear in help
	Hidden bool
}

// Confirmation replies for commands that change state.
const (
	ClearReply       = "Chat history cleared! 🧹"
	ThemePickerReply = "Choose a theme from the picker! 🎨"
)

// ThemeChangedReply is sent when /theme names a theme directly.
func ThemeChangedReply(t model.Theme) string {
	return "Theme changed to " + t.DisplayName() + "! 🎨"
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands. Names are stored lower-cased.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[strings.ToLower(cmd.Name)] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[strings.ToLower(alias)] = cmd
	}
}

// Get retrieves a command by name or alias, ignoring case.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// HelpText renders the markdown help shown for /help.
func (r *Registry) HelpText() string {
	var b strings.Builder
	b.WriteString("**Available commands**\n\n")
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		b.WriteString("- `" + cmd.Usage + "`: " + cmd.Description + "\n")
	}
	b.WriteString("\nAsk me the time, the date or my name, or just say hello! 👋")
	return b.String()
}

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Kind:        KindHelp,
		Description: "Show available commands",
		Usage:       "/help",
	})
	r.Register(&Command{
		Name:        "/clear",
		Kind:        KindClear,
		Description: "Clear the chat history",
		Usage:       "/clear",
	})

	themes := make([]string, len(model.Themes))
	for i, t := range model.Themes {
		themes[i] = string(t)
	}
	r.Register(&Command{
		Name:        "/theme",
		Kind:        KindTheme,
		Description: "Choose a colour theme",
		Usage:       "/theme [" + strings.Join(themes, "|") + "]",
		Values:      themes,
	})
}
