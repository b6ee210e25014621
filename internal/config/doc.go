// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// the chatbot.
//
// # Key Types
//
//   - Config: Root configuration with chat, storage, ui, logging and metrics
//   - Duration: time.Duration that reads "1.5s" in every format
//   - Watcher: fsnotify-based live reload
//   - ValidationError: Field-level validation failure
//
// # Precedence
//
// Built-in defaults, then the first of config.toml, config.yaml, config.yml
// and config.json in ~/.chatbot (or $CHATBOT_HOME), then CHATBOT_* variables
// (a .env file is loaded first without overriding the real environment),
// then command-line flags.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    // cfg still holds usable defaults
//	}
//	fmt.Println(cfg.Chat.TypingMax)
//
//	w, _ := config.NewWatcher(dir, 0)
//	w.OnChange = func(c *config.Config) { ... }
//	w.Watch()
//	defer w.Close()
package config
