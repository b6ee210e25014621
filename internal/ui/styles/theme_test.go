// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

func TestNewTheme_AllCombinations(t *testing.T) {
	for _, name := range model.Themes {
		for _, dark := range []bool{false, true} {
			th := NewTheme(name, dark)
			if th.Name != name || th.Dark != dark {
				t.Errorf("NewTheme(%s, %v) = %s/%v", name, dark, th.Name, th.Dark)
			}
			if th.UserBubble.Render("hi") == "" {
				t.Errorf("NewTheme(%s, %v) renders empty bubble", name, dark)
			}
		}
	}
}

func TestNewTheme_InvalidFallsBack(t *testing.T) {
	th := NewTheme("teal", false)
	if th.Name != model.DefaultTheme {
		t.Errorf("NewTheme(teal).Name = %s, want %s", th.Name, model.DefaultTheme)
	}
}

func TestAccentFor_Distinct(t *testing.T) {
	seen := make(map[string]model.Theme)
	for _, name := range model.Themes {
		p := AccentFor(name).Primary.Light
		if other, dup := seen[p]; dup {
			t.Errorf("themes %s and %s share primary %s", name, other, p)
		}
		seen[p] = name
	}
	if AccentFor("nope") != AccentFor(model.DefaultTheme) {
		t.Error("AccentFor(unknown) should fall back to the default theme")
	}
}

func TestResolve(t *testing.T) {
	c := AccentFor(model.ThemeBlue).Primary
	if got := resolve(c, true); string(got) != c.Dark {
		t.Errorf("resolve(dark) = %s, want %s", got, c.Dark)
	}
	if got := resolve(c, false); string(got) != c.Light {
		t.Errorf("resolve(light) = %s, want %s", got, c.Light)
	}
}

func TestResolveDarkMode_Explicit(t *testing.T) {
	tests := map[string]bool{
		"on":    true,
		"ON":    true,
		"dark":  true,
		"off":   false,
		"light": false,
	}
	for in, want := range tests {
		if got := ResolveDarkMode(in); got != want {
			t.Errorf("ResolveDarkMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBubbleWidth(t *testing.T) {
	th := NewTheme(model.ThemePurple, false)
	tests := []struct {
		width int
		want  int
	}{
		{40, 34},
		{80, 60},
		{200, 80},
	}
	for _, tc := range tests {
		th.SetSize(tc.width, 24)
		if got := th.BubbleWidth(); got != tc.want {
			t.Errorf("BubbleWidth() at %d cols = %d, want %d", tc.width, got, tc.want)
		}
	}
}
