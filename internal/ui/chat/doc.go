// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat interface.

The Model renders a session.Session: a header with the bot's status, a
scrolling viewport of message bubbles, and an input area. All chat state
lives in the Session; the Model only schedules timers and draws.

# Key Components

## Model (model.go)

Holds the UI components (viewport, textarea, path prompt, spinner), the
current overlay mode and the resolved Theme.

## Update Loop (update.go)

Keyboard handling, reply timers and attachment ingestion. A submitted
message returns a session.Pending token; the Model wraps it in a tea.Tick
and hands it back to Session.Deliver when the tick fires. Tokens made stale
by /clear are dropped by the Session.

## View Rendering (view.go, markdown.go)

Header, right-aligned user bubbles and left-aligned bot bubbles with
timestamps, reactions and image chips. Markdown bot replies such as the
/help text are rendered with glamour.

# Keys

	Enter       send
	Alt+Enter   newline
	Tab         complete a slash command
	Ctrl+O      attach an image
	Ctrl+R      react to a message (1-6 pick an emoji)
	Ctrl+T      toggle dark mode
	PgUp/PgDn   scroll
	Ctrl+C      quit

# Usage

	m := chat.New(sess, chat.Options{Logger: logger})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
