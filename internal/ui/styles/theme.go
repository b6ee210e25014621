// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chatbot TUI.
package styles

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

// TypingSpinner is the three-dot animation shown while the bot is typing.
var TypingSpinner = spinner.Spinner{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    time.Second / 6,
}

// Theme holds all the styled components for one theme and mode.
type Theme struct {
	Name         model.Theme
	Dark         bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header       lipgloss.Style
	HeaderAvatar lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderOnline lipgloss.Style
	HeaderTyping lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserBubble   lipgloss.Style
	BotBubble    lipgloss.Style
	Selected     lipgloss.Style
	Avatar       lipgloss.Style
	Timestamp    lipgloss.Style
	Reactions    lipgloss.Style
	ImageChip    lipgloss.Style
	EmptyIcon    lipgloss.Style
	EmptyText    lipgloss.Style
	EmptySubtext lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style
	Spinner          lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Notice       lipgloss.Style
	NoticeError  lipgloss.Style

	// ==========================================================================
	// PICKER AND COMPLETION STYLES
	// ==========================================================================

	PickerBox          lipgloss.Style
	PickerTitle        lipgloss.Style
	PickerItem         lipgloss.Style
	PickerItemSelected lipgloss.Style
	CompletionPopup    lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionDesc     lipgloss.Style
}

// NewTheme creates a theme for name in dark or light mode.
func NewTheme(name model.Theme, dark bool) *Theme {
	if !name.Valid() {
		name = model.DefaultTheme
	}
	t := &Theme{
		Name:         name,
		Dark:         dark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// ForPreferences creates the theme described by p.
func ForPreferences(p model.Preferences) *Theme {
	return NewTheme(p.Theme, p.DarkMode)
}

// DetectDarkBackground reports whether the terminal background is dark.
func DetectDarkBackground() bool {
	return termenv.HasDarkBackground()
}

// ResolveDarkMode maps a dark_mode setting ("auto", "on", "off") to a bool,
// asking the terminal for "auto".
func ResolveDarkMode(setting string) bool {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "on", "true", "dark":
		return true
	case "off", "false", "light":
		return false
	default:
		return DetectDarkBackground()
	}
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	acc := AccentFor(t.Name)
	c := func(ac lipgloss.AdaptiveColor) lipgloss.Color { return resolve(ac, t.Dark) }

	primary := c(acc.Primary)
	soft := c(acc.Soft)

	// Header
	t.Header = lipgloss.NewStyle().
		Background(primary).
		Foreground(c(acc.OnPrimary)).
		Padding(0, 1)

	t.HeaderAvatar = lipgloss.NewStyle().
		Background(primary).
		PaddingRight(1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Background(primary).
		Foreground(c(acc.OnPrimary))

	t.HeaderOnline = lipgloss.NewStyle().
		Background(primary).
		Foreground(c(acc.OnPrimary)).
		Faint(true)

	t.HeaderTyping = lipgloss.NewStyle().
		Background(primary).
		Foreground(c(acc.OnPrimary)).
		Italic(true)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(c(acc.OnPrimary)).
		Background(primary).
		Padding(0, 1)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(c(TextPrimary)).
		Background(c(BotBubbleBg)).
		Padding(0, 1)

	t.Selected = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(primary)

	t.Avatar = lipgloss.NewStyle()

	t.Timestamp = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Italic(true)

	t.Reactions = lipgloss.NewStyle().
		Foreground(c(TextSecondary))

	t.ImageChip = lipgloss.NewStyle().
		Foreground(primary).
		Background(soft).
		Padding(0, 1)

	t.EmptyIcon = lipgloss.NewStyle().
		Align(lipgloss.Center)

	t.EmptyText = lipgloss.NewStyle().
		Bold(true).
		Foreground(c(TextSecondary)).
		Align(lipgloss.Center)

	t.EmptySubtext = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Align(lipgloss.Center)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(c(Overlay)).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(primary).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(c(TextPrimary))

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(c(TextMuted)).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(primary)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(c(TextSecondary)).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(primary).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(c(TextMuted))

	t.Notice = lipgloss.NewStyle().
		Foreground(c(Amber))

	t.NoticeError = lipgloss.NewStyle().
		Foreground(c(Rose)).
		Bold(true)

	// Pickers
	t.PickerBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 2)

	t.PickerTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(primary).
		MarginBottom(1)

	t.PickerItem = lipgloss.NewStyle().
		Foreground(c(TextPrimary)).
		PaddingLeft(2)

	t.PickerItemSelected = lipgloss.NewStyle().
		Foreground(c(acc.OnPrimary)).
		Background(primary).
		Bold(true).
		PaddingLeft(2)

	t.CompletionPopup = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(c(Overlay)).
		Padding(0, 1)

	t.CompletionItem = lipgloss.NewStyle().
		Foreground(c(TextPrimary))

	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(c(acc.OnPrimary)).
		Background(primary)

	t.CompletionDesc = lipgloss.NewStyle().
		Foreground(c(TextMuted))
}

// Swatch renders a small colour sample of theme name.
func (t *Theme) Swatch(name model.Theme) string {
	return lipgloss.NewStyle().
		Background(resolve(AccentFor(name).Primary, t.Dark)).
		Render("  ")
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the widest a message bubble may be.
func (t *Theme) BubbleWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return max(t.Width-6, 10)
	case LayoutMedium:
		return t.Width * 3 / 4
	default:
		return min(t.Width*2/3, 80)
	}
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
