// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for the chatbot.
//
// State lives in a small string key-value store under three keys:
// chatHistory (JSON array of messages), chatTheme (theme key) and darkMode
// ("true" or "false"). The Adapter owns the encoding rules: an empty
// conversation never overwrites stored history, and malformed values read
// back as absent.
//
// # Key Types
//
//   - KV: String key-value backend (file, sqlite, pebble, memory)
//   - Adapter: Conversation and preference persistence over a KV
//   - Backend: Backend selector used by configuration
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, dataDir, logger)
//	adapter := storage.NewAdapter(kv, logger)
//	defer adapter.Close()
//
//	msgs, ok := adapter.Load()
//	prefs, _ := adapter.LoadPreferences()
//
// # Storage Location
//
// The file backend writes ~/.chatbot/chat.json atomically. The sqlite
// backend uses ~/.chatbot/chat.db and the pebble backend ~/.chatbot/pebble/.
package storage
