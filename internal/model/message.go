// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat log and preferences.
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ClockLayout is the 2-digit hour/minute layout used for message times.
const ClockLayout = "03:04 PM"

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "ChatBot"
	default:
		return string(s)
	}
}

// Avatar returns the emoji shown next to the sender's bubbles.
func (s Sender) Avatar() string {
	if s == SenderUser {
		return "👤"
	}
	return "🤖"
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Reaction is an emoji annotation on a message.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Message represents a single turn in the conversation.
type Message struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
	Time   string `json:"time"`

	Reactions []Reaction `json:"reactions,omitempty"`

	// Image holds a data URI for attachments.
	Image string `json:"image,omitempty"`
}

// NewMessage creates a message stamped with the clock time of now.
func NewMessage(sender Sender, text string, now time.Time) *Message {
	return &Message{
		ID:     NewID(),
		Text:   text,
		Sender: sender,
		Time:   FormatClock(now),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string, now time.Time) *Message {
	return NewMessage(SenderUser, text, now)
}

// NewBotMessage creates a new bot message.
func NewBotMessage(text string, now time.Time) *Message {
	return NewMessage(SenderBot, text, now)
}

// NewImageMessage creates a user message carrying an image data URI.
func NewImageMessage(caption, dataURI string, now time.Time) *Message {
	msg := NewUserMessage(caption, now)
	msg.Image = dataURI
	return msg
}

// FormatClock renders t in the message clock layout.
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsUser returns true if this is a user message.
func (m *Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsBot returns true if this is a bot message.
func (m *Message) IsBot() bool {
	return m.Sender == SenderBot
}

// HasImage reports whether the message carries an attachment.
func (m *Message) HasImage() bool {
	return m.Image != ""
}

// HasReactions reports whether the message has any reactions.
func (m *Message) HasReactions() bool {
	return len(m.Reactions) > 0
}

// React adds one to the count for emoji, creating the entry if needed.
func (m *Message) React(emoji string) {
	for i := range m.Reactions {
		if m.Reactions[i].Emoji == emoji {
			m.Reactions[i].Count++
			return
		}
	}
	m.Reactions = append(m.Reactions, Reaction{Emoji: emoji, Count: 1})
}

// ReactionCount returns the count for emoji, or 0.
func (m *Message) ReactionCount(emoji string) int {
	for _, r := range m.Reactions {
		if r.Emoji == emoji {
			return r.Count
		}
	}
	return 0
}

// ReactionSummary renders reactions as "🔥 2  👍 1".
func (m *Message) ReactionSummary() string {
	if len(m.Reactions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		parts = append(parts, r.Emoji+" "+strconv.Itoa(r.Count))
	}
	return strings.Join(parts, "  ")
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	c := *m
	if m.Reactions != nil {
		c.Reactions = make([]Reaction, len(m.Reactions))
		copy(c.Reactions, m.Reactions)
	}
	return &c
}
