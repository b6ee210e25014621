// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat log and preferences.
//
// This package defines the core domain types shared by the session, storage
// and presentation layers.
//
// # Key Types
//
//   - Conversation: Ordered, append-only message log with reaction updates
//   - Message: Single chat turn with sender, clock time, reactions and image
//   - Reaction: Emoji annotation with an aggregated count
//   - Preferences: Theme key and dark mode flag
//
// # Usage
//
// Create a conversation and react to a message:
//
//	conv := model.NewConversation()
//	id := conv.Append(model.NewBotMessage("Hello! How can I help you?", time.Now()))
//	conv.AddReaction(id, "🔥")
//
// Round-trip through a snapshot:
//
//	snap := conv.Snapshot()
//	restored := model.NewConversation()
//	restored.Load(snap)
package model
