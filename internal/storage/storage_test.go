// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC)

// openBackends opens one store per backend in a fresh directory.
func openBackends(t *testing.T) map[Backend]KV {
	t.Helper()
	out := make(map[Backend]KV, len(Backends))
	for _, b := range Backends {
		kv, err := Open(b, t.TempDir(), zaptest.NewLogger(t))
		require.NoError(t, err, "open %s", b)
		t.Cleanup(func() { kv.Close() })
		out[b] = kv
	}
	return out
}

func sampleHistory() []model.Message {
	conv := model.NewConversation()
	conv.Append(model.NewBotMessage("Hello! How can I help you?", fixedNow))
	id := conv.Append(model.NewUserMessage("hello there", fixedNow))
	conv.Append(model.NewImageMessage("📷 cat.png", "data:image/png;base64,iVBORw0KGgo=", fixedNow))
	conv.AddReaction(id, "🔥")
	conv.AddReaction(id, "🔥")
	return conv.Snapshot()
}

// =============================================================================
// KV TESTS
// =============================================================================

func TestKV_Contract(t *testing.T) {
	for backend, kv := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			_, err := kv.Get("missing")
			assert.True(t, errors.Is(err, ErrNotFound), "Get(missing) err = %v", err)

			require.NoError(t, kv.Set("k", "v1"))
			require.NoError(t, kv.Set("k", "v2"))
			got, err := kv.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "v2", got)

			require.NoError(t, kv.Set("emoji", "🔥 ✓"))
			got, err = kv.Get("emoji")
			require.NoError(t, err)
			assert.Equal(t, "🔥 ✓", got)

			require.NoError(t, kv.Delete("k"))
			require.NoError(t, kv.Delete("k"), "deleting an absent key is a no-op")
			_, err = kv.Get("k")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestKV_PersistsAcrossReopen(t *testing.T) {
	for _, backend := range []Backend{BackendFile, BackendSQLite, BackendPebble} {
		t.Run(string(backend), func(t *testing.T) {
			dir := t.TempDir()
			kv, err := Open(backend, dir, zaptest.NewLogger(t))
			require.NoError(t, err)
			require.NoError(t, kv.Set(KeyTheme, "blue"))
			require.NoError(t, kv.Close())

			kv, err = Open(backend, dir, zaptest.NewLogger(t))
			require.NoError(t, err)
			defer kv.Close()
			got, err := kv.Get(KeyTheme)
			require.NoError(t, err)
			assert.Equal(t, "blue", got)
		})
	}
}

func TestFileKV_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileStoreName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	kv, err := OpenFileKV(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = kv.Get(KeyHistory)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, kv.Set(KeyTheme, "green"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"chatTheme": "green"`)
}

func TestFileKV_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	kv, err := OpenFileKV(filepath.Join(dir, FileStoreName), nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, kv.Set("k", "v"))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemoryKV_Closed(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Close())
	assert.ErrorIs(t, kv.Set("k", "v"), ErrClosed)
	_, err := kv.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, b)

	_, err = ParseBackend("redis")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Open("redis", t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

// =============================================================================
// ADAPTER TESTS
// =============================================================================

func TestAdapter_SaveLoadRoundTrip(t *testing.T) {
	for backend, kv := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			a := NewAdapter(kv, zaptest.NewLogger(t))
			want := sampleHistory()
			require.NoError(t, a.Save(want))

			got, ok := a.Load()
			require.True(t, ok)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdapter_SaveEmptyKeepsHistory(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), zaptest.NewLogger(t))
	want := sampleHistory()
	require.NoError(t, a.Save(want))
	require.NoError(t, a.Save(nil))
	require.NoError(t, a.Save([]model.Message{}))

	got, ok := a.Load()
	require.True(t, ok)
	assert.Len(t, got, len(want))
}

func TestAdapter_ClearHistory(t *testing.T) {
	for backend, kv := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			a := NewAdapter(kv, zaptest.NewLogger(t))
			require.NoError(t, a.Save(sampleHistory()))
			require.NoError(t, a.ClearHistory())
			_, ok := a.Load()
			assert.False(t, ok)
			require.NoError(t, a.ClearHistory())
		})
	}
}

func TestAdapter_MalformedHistoryIsAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not_json", "{{{"},
		{"object", `{"id":"1"}`},
		{"empty_array", `[]`},
		{"bad_sender", `[{"id":"1","text":"x","sender":"alien","time":"01:00 PM"}]`},
		{"zero_count", `[{"id":"1","text":"x","sender":"bot","time":"01:00 PM","reactions":[{"emoji":"👍","count":0}]}]`},
		{"dup_reaction", `[{"id":"1","text":"x","sender":"bot","time":"01:00 PM","reactions":[{"emoji":"👍","count":1},{"emoji":"👍","count":2}]}]`},
	}

	for backend, kv := range openBackends(t) {
		for _, tc := range tests {
			t.Run(string(backend)+"/"+tc.name, func(t *testing.T) {
				require.NoError(t, kv.Set(KeyHistory, tc.raw))
				a := NewAdapter(kv, zaptest.NewLogger(t))
				msgs, ok := a.Load()
				assert.False(t, ok)
				assert.Nil(t, msgs)
			})
		}
	}
}

func TestAdapter_Preferences(t *testing.T) {
	for backend, kv := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			a := NewAdapter(kv, zaptest.NewLogger(t))

			prefs, ok := a.LoadPreferences()
			assert.False(t, ok)
			assert.Equal(t, model.DefaultPreferences(), prefs)

			want := model.Preferences{Theme: model.ThemeOrange, DarkMode: true}
			require.NoError(t, a.SavePreferences(want))
			got, ok := a.LoadPreferences()
			assert.True(t, ok)
			assert.Equal(t, want, got)

			raw, err := kv.Get(KeyDarkMode)
			require.NoError(t, err)
			assert.Equal(t, "true", raw)
		})
	}
}

func TestAdapter_SavePreferencesRejectsUnknownTheme(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), nil)
	err := a.SavePreferences(model.Preferences{Theme: "teal"})
	assert.ErrorIs(t, err, model.ErrUnknownTheme)
}

// failKV fails every Set of one key.
type failKV struct {
	KV
	key string
}

func (f failKV) Set(key, value string) error {
	if key == f.key {
		return errors.New("disk full")
	}
	return f.KV.Set(key, value)
}

func TestAdapter_SavePreferencesRollsBackTheme(t *testing.T) {
	t.Run("restores_previous", func(t *testing.T) {
		mem := NewMemoryKV()
		require.NoError(t, mem.Set(KeyTheme, string(model.ThemePink)))
		require.NoError(t, mem.Set(KeyDarkMode, "false"))
		a := NewAdapter(failKV{KV: mem, key: KeyDarkMode}, zaptest.NewLogger(t))

		err := a.SavePreferences(model.Preferences{Theme: model.ThemeOrange, DarkMode: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dark mode")

		got, ok := a.LoadPreferences()
		assert.True(t, ok)
		assert.Equal(t, model.Preferences{Theme: model.ThemePink}, got)
	})

	t.Run("removes_new_key", func(t *testing.T) {
		mem := NewMemoryKV()
		a := NewAdapter(failKV{KV: mem, key: KeyDarkMode}, zaptest.NewLogger(t))

		require.Error(t, a.SavePreferences(model.Preferences{Theme: model.ThemeOrange, DarkMode: true}))
		_, err := mem.Get(KeyTheme)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAdapter_MalformedPreferences(t *testing.T) {
	tests := []struct {
		name      string
		theme     string
		dark      string
		want      model.Preferences
		wantFound bool
	}{
		{"bad_theme_good_dark", "teal", "true", model.Preferences{Theme: model.DefaultTheme, DarkMode: true}, true},
		{"good_theme_bad_dark", "pink", "yes", model.Preferences{Theme: model.ThemePink}, true},
		{"uppercase_theme", "BLUE", "false", model.Preferences{Theme: model.DefaultTheme}, true},
		{"both_bad", "", "1", model.DefaultPreferences(), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(KeyTheme, tc.theme))
			require.NoError(t, kv.Set(KeyDarkMode, tc.dark))
			got, found := NewAdapter(kv, zaptest.NewLogger(t)).LoadPreferences()
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantFound, found)
		})
	}
}

func TestAdapter_LoadPreferencesOver(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyTheme, "green"))
	a := NewAdapter(kv, zaptest.NewLogger(t))

	got, found := a.LoadPreferencesOver(model.Preferences{Theme: model.ThemeOrange, DarkMode: true})
	assert.True(t, found)
	assert.Equal(t, model.Preferences{Theme: model.ThemeGreen, DarkMode: true}, got)
}
