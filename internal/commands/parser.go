// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat.
package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is one submission split into a command and its arguments.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the registered command, nil when the name is unknown
	Command *Command

	// Name is the command word as typed, e.g. "/THEME"
	Name string

	Args []string
}

// Matched reports whether the input named a registered command. Unmatched
// slash input is sent as ordinary chat text.
func (r ParseResult) Matched() bool {
	return r.IsCommand && r.Command != nil
}

// Arg returns the i-th argument or "".
func (r ParseResult) Arg(i int) string {
	if i < 0 || i >= len(r.Args) {
		return ""
	}
	return r.Args[i]
}

// =============================================================================
// PARSER
// =============================================================================

// Parser resolves submissions against a Registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse splits input into a command and arguments. Input that does not
// start with / comes back with IsCommand=false.
func (p *Parser) Parse(input string) ParseResult {
	if !IsCommand(input) {
		return ParseResult{}
	}

	res := ParseResult{IsCommand: true}
	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return res
	}
	res.Name = parts[0]
	if len(parts) > 1 {
		res.Args = parts[1:]
	}
	res.Command = p.registry.Get(res.Name)
	return res
}

// IsCommand reports whether input is slash command syntax.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// splitCommandLine splits a command line on whitespace. Single or double
// quotes group words, and a backslash inside quotes escapes a quote or
// another backslash.
func splitCommandLine(input string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		pending bool
	)

	flush := func() {
		if pending {
			tokens = append(tokens, current.String())
			current.Reset()
			pending = false
		}
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0 && r == '\\' && i+1 < len(runes) && strings.ContainsRune(`"'\`, runes[i+1]):
			i++
			current.WriteRune(runes[i])
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			pending = true
		case quote == 0 && unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()
	return tokens
}
