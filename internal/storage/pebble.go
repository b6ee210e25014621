// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleKV stores keys in a Pebble LSM directory with synced writes.
type PebbleKV struct {
	db *pebble.DB
}

// OpenPebbleKV opens (or creates) the pebble directory at path.
func OpenPebbleKV(path string) (*PebbleKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store: %w", err)
	}
	return &PebbleKV{db: db}, nil
}

// Get implements KV.
func (p *PebbleKV) Get(key string) (string, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", key, err)
	}
	defer closer.Close()
	// copy value before the closer releases it
	return string(v), nil
}

// Set implements KV.
func (p *PebbleKV) Set(key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (p *PebbleKV) Delete(key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close implements KV.
func (p *PebbleKV) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
