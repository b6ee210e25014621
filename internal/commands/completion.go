// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the chat.
package commands

import (
	"sort"
	"strings"
)

// =============================================================================
// COMPLETION TYPES
// =============================================================================

// Completion is one candidate for the text being typed.
type Completion struct {
	Value       string
	Display     string
	Description string
	Score       int
}

// Completer provides tab completion for commands and their arguments.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{
		registry: registry,
	}
}

// Complete returns completions for input. Non-command input has none.
func (c *Completer) Complete(input string) []Completion {
	input = strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return c.completeCommands("")
	}

	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		return c.completeCommands(parts[0])
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil || len(cmd.Values) == 0 {
		return nil
	}

	argIndex := len(parts) - 2
	if strings.HasSuffix(input, " ") {
		argIndex++
	}
	if argIndex != 0 {
		return nil
	}

	partial := ""
	if !strings.HasSuffix(input, " ") && len(parts) > 1 {
		partial = parts[len(parts)-1]
	}

	var out []Completion
	for _, comp := range completeFromList(cmd.Values, partial) {
		comp.Value = cmd.Name + " " + comp.Value
		out = append(out, comp)
	}
	return out
}

// Values returns only the completion values.
func (c *Completer) Values(input string) []string {
	comps := c.Complete(input)
	out := make([]string, len(comps))
	for i, comp := range comps {
		out[i] = comp.Value
	}
	return out
}

// completeCommands returns completions for command names.
func (c *Completer) completeCommands(partial string) []Completion {
	var completions []Completion

	partial = strings.ToLower(partial)

	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}

		if strings.HasPrefix(strings.ToLower(cmd.Name), partial) {
			completions = append(completions, Completion{
				Value:       cmd.Name,
				Display:     cmd.Name,
				Description: cmd.Description,
				Score:       calculateScore(cmd.Name, partial),
			})
		}
	}

	sortCompletions(completions)

	return completions
}

func completeFromList(values []string, partial string) []Completion {
	var completions []Completion
	partial = strings.ToLower(partial)
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), partial) {
			completions = append(completions, Completion{
				Value:   v,
				Display: v,
				Score:   calculateScore(v, partial),
			})
		}
	}
	sortCompletions(completions)
	return completions
}

// calculateScore calculates a match score for completion ranking.
// Higher score = better match.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100

	if value == partial {
		return score + 100
	}

	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}

	score -= len(value) / 2

	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// CompletionState holds the state for navigating completions.
type CompletionState struct {
	Completions []Completion

	// Selected index (-1 for none)
	Selected int

	Visible bool
}

// NewCompletionState creates a new completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{
		Selected: -1,
	}
}

// Update replaces the completions and selects the first one.
func (cs *CompletionState) Update(completions []Completion) {
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next moves to the next completion.
func (cs *CompletionState) Next() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected = (cs.Selected + 1) % len(cs.Completions)
}

// Prev moves to the previous completion.
func (cs *CompletionState) Prev() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected--
	if cs.Selected < 0 {
		cs.Selected = len(cs.Completions) - 1
	}
}

// Accept returns the selected completion value, or empty if none.
func (cs *CompletionState) Accept() string {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		if len(cs.Completions) > 0 {
			return cs.Completions[0].Value
		}
		return ""
	}
	return cs.Completions[cs.Selected].Value
}

// Clear clears the completion state.
func (cs *CompletionState) Clear() {
	cs.Completions = nil
	cs.Selected = -1
	cs.Visible = false
}
