// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for the chatbot.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// KV INTERFACE
// =============================================================================

// KV is a process-local string key-value store.
type KV interface {
	// Get returns ErrNotFound when key is absent.
	Get(key string) (string, error)
	Set(key, value string) error
	// Delete is a no-op for absent keys.
	Delete(key string) error
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendPebble Backend = "pebble"
	BackendMemory Backend = "memory"
)

// Backends lists every supported backend.
var Backends = []Backend{BackendFile, BackendSQLite, BackendPebble, BackendMemory}

// ParseBackend validates a backend name.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// File names inside the data directory.
const (
	FileStoreName   = "chat.json"
	SQLiteStoreName = "chat.db"
	PebbleStoreName = "pebble"
)

// Open opens the backend rooted at dir.
func Open(backend Backend, dir string, logger *zap.Logger) (KV, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch backend {
	case BackendFile, "":
		return OpenFileKV(filepath.Join(dir, FileStoreName), logger)
	case BackendSQLite:
		return OpenSQLiteKV(filepath.Join(dir, SQLiteStoreName))
	case BackendPebble:
		return OpenPebbleKV(filepath.Join(dir, PebbleStoreName))
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned by KV.Get for absent keys.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StoreError{Message: "key not found"}

// ErrClosed is returned after Close.
var ErrClosed = &StoreError{Message: "store closed"}

// ErrUnknownBackend is returned for unsupported backend names.
var ErrUnknownBackend = &StoreError{Message: "unknown storage backend"}

// StoreError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
