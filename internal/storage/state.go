// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/nabi-tui/internal/util"
)

// =============================================================================
// APP STATE
// =============================================================================

// AppState is the small cross-session client state: which session is
// active, the locale preference, and a stable device identifier used
// for guest-mode attribution (uploads and sessions before sign-in).
type AppState struct {
	ActiveSessionID string    `json:"active_session_id,omitempty"`
	Locale          string    `json:"locale,omitempty"`
	DeviceID        string    `json:"device_id"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StateStore persists AppState as a single JSON file.
type StateStore struct {
	path string
}

// NewStateStore creates a store at ~/.nabi/state.json.
func NewStateStore() (*StateStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(homeDir, ".nabi")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &StateStore{path: filepath.Join(dir, "state.json")}, nil
}

// NewStateStoreWithPath creates a store at a custom path.
func NewStateStoreWithPath(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the persisted state. A missing or corrupted file yields a
// fresh state with a new device ID rather than an error: client state
// is always recoverable.
func (s *StateStore) Load() *AppState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return newAppState()
	}

	var st AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return newAppState()
	}
	if st.DeviceID == "" {
		st.DeviceID = uuid.NewString()
	}
	return &st
}

// Save persists the state.
func (s *StateStore) Save(st *AppState) error {
	st.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	return util.AtomicWriteFile(s.path, data, 0644)
}

// newAppState builds the first-run defaults.
func newAppState() *AppState {
	return &AppState{
		DeviceID: uuid.NewString(),
		Locale:   "",
	}
}
