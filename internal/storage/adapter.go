// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

// Persisted keys.
const (
	KeyHistory  = "chatHistory"
	KeyTheme    = "chatTheme"
	KeyDarkMode = "darkMode"
)

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter persists the conversation and preferences through a KV.
//
// Reads never fail: a missing, unreadable or malformed value is reported as
// absent and logged. Writes return wrapped errors so callers can log them.
type Adapter struct {
	kv     KV
	logger *zap.Logger
}

// NewAdapter wraps kv. A nil logger discards output.
func NewAdapter(kv KV, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{kv: kv, logger: logger.Named("storage")}
}

// Save stores the whole conversation. An empty conversation is skipped so it
// can never clobber history that is already stored.
func (a *Adapter) Save(msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := a.kv.Set(KeyHistory, string(data)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Load returns the stored conversation, or false when none is usable.
func (a *Adapter) Load() ([]model.Message, bool) {
	raw, ok := a.get(KeyHistory)
	if !ok {
		return nil, false
	}
	var msgs []model.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		a.logger.Warn("ignoring malformed history", zap.Error(err))
		return nil, false
	}
	if err := validateHistory(msgs); err != nil {
		a.logger.Warn("ignoring malformed history", zap.Error(err))
		return nil, false
	}
	if len(msgs) == 0 {
		return nil, false
	}
	return msgs, true
}

// ClearHistory removes the stored conversation.
func (a *Adapter) ClearHistory() error {
	if err := a.kv.Delete(KeyHistory); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// SavePreferences stores both preference keys. If the dark mode write
// fails the theme key is put back, so the pair is never half updated.
func (a *Adapter) SavePreferences(p model.Preferences) error {
	if _, err := model.ParseTheme(string(p.Theme)); err != nil {
		return fmt.Errorf("failed to save preferences: %w: %q", err, p.Theme)
	}
	prevTheme, prevErr := a.kv.Get(KeyTheme)
	if prevErr != nil && !errors.Is(prevErr, ErrNotFound) {
		return fmt.Errorf("failed to save theme: %w", prevErr)
	}

	if err := a.kv.Set(KeyTheme, string(p.Theme)); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	if err := a.kv.Set(KeyDarkMode, formatBool(p.DarkMode)); err != nil {
		var rbErr error
		if prevErr != nil {
			rbErr = a.kv.Delete(KeyTheme)
		} else {
			rbErr = a.kv.Set(KeyTheme, prevTheme)
		}
		if rbErr != nil {
			a.logger.Error("failed to restore theme", zap.Error(rbErr))
		}
		return fmt.Errorf("failed to save dark mode: %w", err)
	}
	return nil
}

// LoadPreferences returns stored preferences merged over the defaults. The
// boolean is false when neither key held a usable value.
func (a *Adapter) LoadPreferences() (model.Preferences, bool) {
	return a.LoadPreferencesOver(model.DefaultPreferences())
}

// LoadPreferencesOver is LoadPreferences with caller-supplied defaults.
func (a *Adapter) LoadPreferencesOver(prefs model.Preferences) (model.Preferences, bool) {
	found := false

	if raw, ok := a.get(KeyTheme); ok {
		// stored theme keys are exact; no case folding
		if t := model.Theme(raw); t.Valid() {
			prefs.Theme = t
			found = true
		} else {
			a.logger.Warn("ignoring malformed theme", zap.String("value", raw))
		}
	}

	if raw, ok := a.get(KeyDarkMode); ok {
		if dark, err := parseBool(raw); err == nil {
			prefs.DarkMode = dark
			found = true
		} else {
			a.logger.Warn("ignoring malformed dark mode", zap.String("value", raw))
		}
	}

	return prefs, found
}

// Close releases the underlying store.
func (a *Adapter) Close() error {
	return a.kv.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

func (a *Adapter) get(key string) (string, bool) {
	raw, err := a.kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", false
	}
	if err != nil {
		a.logger.Warn("failed to read key", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return raw, true
}

var errMalformed = errors.New("malformed message")

func validateHistory(msgs []model.Message) error {
	for i, m := range msgs {
		if !m.Sender.Valid() {
			return fmt.Errorf("%w at %d: sender %q", errMalformed, i, m.Sender)
		}
		seen := make(map[string]struct{}, len(m.Reactions))
		for _, r := range m.Reactions {
			if r.Emoji == "" || r.Count < 1 {
				return fmt.Errorf("%w at %d: reaction %+v", errMalformed, i, r)
			}
			if _, dup := seen[r.Emoji]; dup {
				return fmt.Errorf("%w at %d: duplicate reaction %q", errMalformed, i, r.Emoji)
			}
			seen[r.Emoji] = struct{}{}
		}
	}
	return nil
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// parseBool accepts only the two literals written by formatBool.
func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
