// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatbot-tui/internal/session"
)

// =============================================================================
// TIMER MESSAGES
// =============================================================================

// ReplyDueMsg fires when a scheduled reply should be delivered.
type ReplyDueMsg struct {
	Pending session.Pending
}

// noticeExpiredMsg clears a transient notice if it is still the current one.
type noticeExpiredMsg struct {
	seq int
}

// =============================================================================
// ATTACHMENT MESSAGES
// =============================================================================

// AttachDoneMsg carries the result of ingesting an image.
type AttachDoneMsg struct {
	Outcome session.Outcome
	Err     error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a reloaded session config from the file watcher.
type ConfigReloadedMsg struct {
	Config session.Config
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// scheduleCmd delivers p after its delay.
func scheduleCmd(p session.Pending) tea.Cmd {
	if !p.Valid() {
		return nil
	}
	return tea.Tick(p.Delay, func(time.Time) tea.Msg {
		return ReplyDueMsg{Pending: p}
	})
}

// attachCmd ingests path off the update loop.
func attachCmd(sess *session.Session, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		out, err := sess.Attach(ctx, path)
		return AttachDoneMsg{Outcome: out, Err: err}
	}
}

// expireNoticeCmd clears notice seq after d.
func expireNoticeCmd(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
