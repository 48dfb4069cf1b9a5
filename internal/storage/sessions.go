// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeranaias/nabi-tui/internal/model"
	"github.com/jeranaias/nabi-tui/internal/util"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// SessionStore persists chat sessions as one JSON file each.
type SessionStore struct {
	// BaseDir is the directory for stored sessions.
	// Default: ~/.nabi/sessions/
	BaseDir string

	// MaxSessions limits stored sessions (0 = unlimited). The oldest
	// by update time are removed when the limit is exceeded.
	MaxSessions int
}

// NewSessionStore creates a store under the user's app directory.
func NewSessionStore() (*SessionStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewSessionStoreWithDir(filepath.Join(homeDir, ".nabi", "sessions"))
}

// NewSessionStoreWithDir creates a store with a custom directory.
func NewSessionStoreWithDir(baseDir string) (*SessionStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &SessionStore{
		BaseDir:     baseDir,
		MaxSessions: 100,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a session.
func (s *SessionStore) Save(sess *model.Session) error {
	if err := validID(sess.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(s.filePath(sess.ID), data, 0644); err != nil {
		return err
	}

	if s.MaxSessions > 0 {
		s.enforceLimit()
	}
	return nil
}

// enforceLimit removes the oldest sessions if over limit.
func (s *SessionStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxSessions {
		return
	}

	// List is most recent first; everything past the limit goes.
	for _, meta := range metas[s.MaxSessions:] {
		s.Delete(meta.ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a session by ID.
func (s *SessionStore) Load(id string) (*model.Session, error) {
	if err := validID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// LoadAll returns every stored session, most recently updated first.
// Corrupted files are skipped so one bad write cannot take the whole
// history down.
func (s *SessionStore) LoadAll() ([]*model.Session, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []*model.Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns metadata for all stored sessions (most recent first).
func (s *SessionStore) List() ([]model.SessionMeta, error) {
	sessions, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	metas := make([]model.SessionMeta, 0, len(sessions))
	for _, sess := range sessions {
		metas = append(metas, sess.Meta())
	}
	return metas, nil
}

// Search finds sessions whose title or message content contains the
// query (case-insensitive).
func (s *SessionStore) Search(query string) ([]model.SessionMeta, error) {
	if query == "" {
		return s.List()
	}

	query = strings.ToLower(query)
	sessions, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	var results []model.SessionMeta
	for _, sess := range sessions {
		if strings.Contains(strings.ToLower(sess.Title), query) {
			results = append(results, sess.Meta())
			continue
		}
		for _, msg := range sess.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, sess.Meta())
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a stored session by ID.
func (s *SessionStore) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Clear removes all stored sessions.
func (s *SessionStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// filePath returns the file path for a session ID.
func (s *SessionStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// validID rejects IDs that could escape the base directory.
// SECURITY: Session IDs become filenames; path metacharacters are
// never legal in them.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return ErrSessionNotFound
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrSessionNotFound is returned when a session doesn't exist.
// Use errors.Is(err, ErrSessionNotFound) to check for this error.
var ErrSessionNotFound = &StoreError{Message: "session not found"}

// StoreError represents a storage-related error.
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
