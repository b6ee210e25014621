// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat log and preferences.
package model

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered, in-memory chat log.
//
// Messages are only ever appended; reactions mutate a message in place and
// Clear empties the log. Identifiers handed out or loaded during the lifetime
// of a Conversation are remembered so they are never reused, even after Clear.
//
// Conversation is not safe for concurrent use; the session guards it.
type Conversation struct {
	messages []*Message
	used     map[string]struct{}
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		messages: make([]*Message, 0),
		used:     make(map[string]struct{}),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds msg to the end of the log and returns its id. A missing or
// previously used id is replaced with a fresh one.
func (c *Conversation) Append(msg *Message) string {
	if msg.ID == "" || c.isUsed(msg.ID) {
		msg.ID = c.freshID()
	}
	c.used[msg.ID] = struct{}{}
	c.messages = append(c.messages, msg)
	return msg.ID
}

// Clear removes all messages.
func (c *Conversation) Clear() {
	c.messages = make([]*Message, 0)
}

// AddReaction increments the emoji's count on the message with id, adding
// the reaction if it is new. It returns false when no such message exists.
func (c *Conversation) AddReaction(id, emoji string) bool {
	if emoji == "" {
		return false
	}
	msg := c.get(id)
	if msg == nil {
		return false
	}
	msg.React(emoji)
	return true
}

// Get returns a copy of the message with id.
func (c *Conversation) Get(id string) (Message, bool) {
	msg := c.get(id)
	if msg == nil {
		return Message{}, false
	}
	return *msg.Clone(), true
}

// Last returns a copy of the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return *c.messages[len(c.messages)-1].Clone(), true
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// IsEmpty returns true if the log has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Snapshot returns a deep copy of the log in order.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	for i, msg := range c.messages {
		out[i] = *msg.Clone()
	}
	return out
}

// Load replaces the log with a deep copy of snapshot. Duplicate or empty ids
// within the snapshot are reassigned so ids stay unique.
func (c *Conversation) Load(snapshot []Message) {
	c.messages = make([]*Message, 0, len(snapshot))
	seen := make(map[string]struct{}, len(snapshot))
	for i := range snapshot {
		msg := snapshot[i].Clone()
		if _, dup := seen[msg.ID]; dup || msg.ID == "" {
			msg.ID = c.freshID()
		}
		seen[msg.ID] = struct{}{}
		c.used[msg.ID] = struct{}{}
		c.messages = append(c.messages, msg)
	}
}

// Clone returns an independent copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := NewConversation()
	for id := range c.used {
		clone.used[id] = struct{}{}
	}
	for _, msg := range c.messages {
		clone.messages = append(clone.messages, msg.Clone())
	}
	return clone
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Conversation) get(id string) *Message {
	for _, msg := range c.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

func (c *Conversation) isUsed(id string) bool {
	_, ok := c.used[id]
	return ok
}

func (c *Conversation) freshID() string {
	for {
		id := NewID()
		if !c.isUsed(id) {
			return id
		}
	}
}
