// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

// Colors are Light/Dark pairs. The user picks dark mode explicitly, so a
// Theme resolves each pair once instead of letting lipgloss guess.

// =============================================================================
// THEME ACCENTS
// =============================================================================

// Accent is the colour set that changes with the chosen theme.
type Accent struct {
	// Primary fills user bubbles and highlights
	Primary lipgloss.AdaptiveColor
	// Soft tints the header and selections
	Soft lipgloss.AdaptiveColor
	// OnPrimary is text drawn on Primary
	OnPrimary lipgloss.AdaptiveColor
}

var accents = map[model.Theme]Accent{
	model.ThemePurple: {
		Primary:   lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#8B5CF6"},
		Soft:      lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#4C1D95"},
		OnPrimary: lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#F5F3FF"},
	},
	model.ThemeBlue: {
		Primary:   lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"},
		Soft:      lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A8A"},
		OnPrimary: lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#EFF6FF"},
	},
	model.ThemeGreen: {
		Primary:   lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"},
		Soft:      lipgloss.AdaptiveColor{Light: "#D1FAE5", Dark: "#064E3B"},
		OnPrimary: lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#ECFDF5"},
	},
	model.ThemeOrange: {
		Primary:   lipgloss.AdaptiveColor{Light: "#EA580C", Dark: "#F97316"},
		Soft:      lipgloss.AdaptiveColor{Light: "#FFEDD5", Dark: "#7C2D12"},
		OnPrimary: lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFF7ED"},
	},
	model.ThemePink: {
		Primary:   lipgloss.AdaptiveColor{Light: "#DB2777", Dark: "#EC4899"},
		Soft:      lipgloss.AdaptiveColor{Light: "#FCE7F3", Dark: "#831843"},
		OnPrimary: lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FDF2F8"},
	},
}

// AccentFor returns the accent for t, falling back to the default theme.
func AccentFor(t model.Theme) Accent {
	if a, ok := accents[t]; ok {
		return a
	}
	return accents[model.DefaultTheme]
}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Headers and footers
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// BotBubbleBg - Neutral background for bot messages
var BotBubbleBg = lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#313244"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Timestamps, hints
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// Emerald - Online indicator
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Amber - Notices
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// resolve picks the half of c matching dark.
func resolve(c lipgloss.AdaptiveColor, dark bool) lipgloss.Color {
	if dark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

// =============================================================================
// ACCESSIBILITY: Shapes alongside colour
// =============================================================================

// StatusIndicators are ASCII markers so status never relies on colour alone.
var StatusIndicators = struct {
	Error string
	Info  string
}{
	Error: "[X]",
	Info:  "[i]",
}

// RenderError renders an error line with a shape marker.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderInfo renders an info line with a shape marker.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}
