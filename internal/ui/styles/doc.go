// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chatbot TUI.

# Themes

Five accent themes (purple, blue, green, orange, pink) each come in a light
and a dark variant. The user's Preferences pick both, so a Theme is rebuilt
whenever either changes:

	theme := styles.ForPreferences(prefs)
	bubble := theme.UserBubble.Render(text)

# Dark Mode

The dark_mode setting "auto" asks the terminal through termenv; "on" and
"off" force a mode. Toggling in the TUI overrides the setting and is saved.

# Layout

SetSize records the terminal size; BubbleWidth and GetLayoutMode derive
responsive widths from it.
*/
package styles
