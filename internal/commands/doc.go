// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat.
//
// This package recognizes slash commands in submitted text and offers
// completion for them. Recognition is a case-insensitive exact match of the
// first token against the registry; anything else, including unknown
// slash-prefixed text, is ordinary chat input.
//
// # Key Types
//
//   - Registry: Command registry with the built-in commands
//   - ParseResult: Parsed command with name and arguments
//   - Completer: Tab completion for command names and theme arguments
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /clear: Clear the chat history
//   - /theme: Choose a colour theme
//
// # Usage
//
//	result := commands.NewParser(registry).Parse(input)
//	if result.Matched() {
//	    switch result.Command.Kind { ... }
//	}
//
// Get completions:
//
//	completions := completer.Complete("/th")
//	// Returns ["/theme"]
package commands
