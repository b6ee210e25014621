// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is used when the writer is not a terminal
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width output is wrapped to
	MinTerminalWidth = 40

	// MaxWrapWidth caps wrapping on very wide terminals
	MaxWrapWidth = 100
)

// terminalFd returns the descriptor behind w when w is a terminal. Buffers
// used by tests never are.
func terminalFd(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func isTerminalWriter(w io.Writer) bool {
	_, ok := terminalFd(w)
	return ok
}

// wrapWidth returns the width to wrap output for w, clamped to
// [MinTerminalWidth, MaxWrapWidth].
func wrapWidth(w io.Writer) int {
	fd, ok := terminalFd(w)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return max(MinTerminalWidth, min(width, MaxWrapWidth))
}

var (
	colorsOnce sync.Once
	colorsOn   bool
)

// ColorsEnabled reports whether stdout should be coloured. NO_COLOR wins
// over FORCE_COLOR; see https://no-color.org/.
func ColorsEnabled() bool {
	colorsOnce.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			colorsOn = false
		case os.Getenv("FORCE_COLOR") != "":
			colorsOn = true
		default:
			colorsOn = isTerminalWriter(os.Stdout)
		}
	})
	return colorsOn
}

// colorProfile is the termenv profile lipgloss renders with.
func colorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
