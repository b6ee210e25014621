// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbot-tui/internal/util"
)

// FileKV stores all keys in one JSON object file. Every write rewrites the
// file atomically, so a crash leaves either the old or the new contents.
type FileKV struct {
	mu     sync.Mutex
	path   string
	data   map[string]string
	closed bool
}

// OpenFileKV loads path, creating an empty store when the file is missing.
// An unreadable or corrupt file is treated as empty and logged.
func OpenFileKV(path string, logger *zap.Logger) (*FileKV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	kv := &FileKV{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return kv, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	if len(raw) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(raw, &kv.data); err != nil {
		logger.Warn("store file is corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		kv.data = make(map[string]string)
	}
	return kv, nil
}

// Path returns the backing file path.
func (f *FileKV) Path() string {
	return f.path
}

// Get implements KV.
func (f *FileKV) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", ErrClosed
	}
	v, ok := f.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements KV.
func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

// Delete implements KV.
func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flush(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

// Close implements KV.
func (f *FileKV) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *FileKV) flush() error {
	data, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(f.path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}
