// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat log and preferences.
package model

import (
	"errors"
	"strings"
)

// ErrUnknownTheme is returned when a theme key is not one of Themes.
var ErrUnknownTheme = errors.New("unknown theme")

// Theme is one of the fixed colour theme keys.
type Theme string

const (
	ThemePurple Theme = "purple"
	ThemeBlue   Theme = "blue"
	ThemeGreen  Theme = "green"
	ThemeOrange Theme = "orange"
	ThemePink   Theme = "pink"
)

// DefaultTheme is used when no theme has been chosen.
const DefaultTheme = ThemePurple

// Themes lists every theme key in picker order.
var Themes = []Theme{ThemePurple, ThemeBlue, ThemeGreen, ThemeOrange, ThemePink}

// ParseTheme validates a theme key. Matching ignores case and surrounding
// whitespace.
func ParseTheme(s string) (Theme, error) {
	key := Theme(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Themes {
		if t == key {
			return t, nil
		}
	}
	return "", ErrUnknownTheme
}

// Valid reports whether t is exactly one of the known theme keys.
func (t Theme) Valid() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// DisplayName returns the capitalised theme name.
func (t Theme) DisplayName() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Preferences are the user's cosmetic settings.
type Preferences struct {
	Theme    Theme `json:"theme"`
	DarkMode bool  `json:"darkMode"`
}

// DefaultPreferences returns the preferences used on first start.
func DefaultPreferences() Preferences {
	return Preferences{Theme: DefaultTheme}
}
