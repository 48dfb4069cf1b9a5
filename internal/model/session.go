// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// MaxMessages caps the message history kept per session. When exceeded,
// the oldest exchanges are pruned to bound memory and file size.
const MaxMessages = 1000

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session holds one conversation thread with the backend.
type Session struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages in order of creation.
	Messages []*Message `json:"messages"`

	// LocalOnly is true until the backend has acknowledged the session.
	// The first successful send (or an explicit create) clears it; the
	// session works fully client-side either way.
	LocalOnly bool `json:"local_only"`

	// Streaming is set while an exchange is in flight. A session
	// accepts at most one live stream; persisted as false because a
	// reloaded session can have no stream attached.
	Streaming bool `json:"-"`
}

// NewSession creates an empty local session with a generated ID.
//
// The ID shape (sess_ + 24 hex chars) satisfies the backend's
// session-id rule: 16-256 characters of [A-Za-z0-9_-].
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        generateSessionID(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
		LocalOnly: true,
	}
}

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	bytes := make([]byte, 12)
	rand.Read(bytes)
	return "sess_" + hex.EncodeToString(bytes)
}

// =============================================================================
// EXCHANGE LIFECYCLE
// =============================================================================

// BeginExchange appends the user message and the assistant placeholder
// as one step and marks the session streaming. Returns both messages.
// The caller (the session store) guards the single-stream rule.
func (s *Session) BeginExchange(input string) (user, placeholder *Message) {
	user = NewUserMessage(input)
	placeholder = NewPlaceholder()
	s.Messages = append(s.Messages, user, placeholder)
	s.Streaming = true
	s.touch()
	s.updateTitle()
	s.prune()
	return user, placeholder
}

// AppendText routes streamed text into the trailing placeholder.
func (s *Session) AppendText(text string) {
	if last := s.LastMessage(); last != nil && last.Pending {
		last.AppendText(text)
		s.touch()
	}
}

// SetAgent records the agent label on the trailing placeholder.
func (s *Session) SetAgent(agent string) {
	if last := s.LastMessage(); last != nil && last.Pending {
		last.Agent = agent
	}
}

// FinalizeExchange completes the trailing placeholder and clears the
// streaming flag.
func (s *Session) FinalizeExchange() {
	if last := s.LastMessage(); last != nil && last.Pending {
		last.Finalize()
	}
	s.Streaming = false
	s.touch()
}

// AbortExchange ends the stream keeping whatever text already arrived.
// A placeholder with no content yet is removed entirely; the user
// message stays so the input can be resent.
func (s *Session) AbortExchange() {
	if last := s.LastMessage(); last != nil && last.Pending && last.Content == "" {
		s.Messages = s.Messages[:len(s.Messages)-1]
		s.Streaming = false
		s.touch()
		return
	}
	s.FinalizeExchange()
}

// FailExchange replaces the trailing placeholder's content with the
// given explanation and clears the streaming flag.
func (s *Session) FailExchange(explanation string) {
	if last := s.LastMessage(); last != nil && last.Pending {
		last.ReplaceContent(explanation)
	}
	s.Streaming = false
	s.touch()
}

// DropLastExchange removes the trailing user/assistant pair and
// returns the user's original text for resubmission. A trailing user
// message with no reply (an aborted exchange) is dropped alone.
// Returns false when the session ends in neither shape.
func (s *Session) DropLastExchange() (string, bool) {
	n := len(s.Messages)
	if n == 0 {
		return "", false
	}
	if last := s.Messages[n-1]; last.Role == RoleUser {
		input := last.Content
		s.Messages = s.Messages[:n-1]
		s.Streaming = false
		s.touch()
		return input, true
	}
	if n < 2 {
		return "", false
	}
	last, prev := s.Messages[n-1], s.Messages[n-2]
	if last.Role != RoleAssistant || prev.Role != RoleUser {
		return "", false
	}
	input := prev.Content
	s.Messages = s.Messages[:n-2]
	s.Streaming = false
	s.touch()
	return input, true
}

// =============================================================================
// ACCESSORS
// =============================================================================

// LastMessage returns the most recent message, or nil if empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// MessageCount returns the number of messages.
func (s *Session) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty reports whether the session holds no messages.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// DisplayTitle returns the session title or a fallback for the UI to
// localize.
func (s *Session) DisplayTitle() string {
	return s.Title
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle derives a title from the first user message once.
func (s *Session) updateTitle() {
	if s.Title != "" {
		return
	}
	for _, msg := range s.Messages {
		if msg.Role == RoleUser {
			s.Title = msg.Preview(50)
			return
		}
	}
}

// SetTitle sets the title explicitly.
func (s *Session) SetTitle(title string) {
	s.Title = title
	s.touch()
}

// =============================================================================
// METADATA
// =============================================================================

// SessionMeta is the lightweight listing form of a session.
type SessionMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LocalOnly    bool      `json:"local_only"`
}

// Meta returns listing metadata for the session.
func (s *Session) Meta() SessionMeta {
	return SessionMeta{
		ID:           s.ID,
		Title:        s.Title,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		LocalOnly:    s.LocalOnly,
	}
}

// Clone returns a deep copy safe to hand to subscribers.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		LocalOnly: s.LocalOnly,
		Streaming: s.Streaming,
		Messages:  make([]*Message, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return clone
}

// =============================================================================
// INTERNAL
// =============================================================================

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// prune drops the oldest messages beyond MaxMessages, keeping complete
// exchanges (an even boundary) so a user message never loses its reply.
func (s *Session) prune() {
	if len(s.Messages) <= MaxMessages {
		return
	}
	drop := len(s.Messages) - MaxMessages
	if drop%2 != 0 {
		drop++
	}
	s.Messages = append([]*Message(nil), s.Messages[drop:]...)
}
