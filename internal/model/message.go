// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// TOOL RESULT TYPE
// =============================================================================

// ToolResult records one tool invocation reported by the backend for an
// assistant message (RAG lookups, web search, memory operations).
type ToolResult struct {
	Tool    string `json:"tool"`
	Input   string `json:"input,omitempty"`
	Output  string `json:"output,omitempty"`
	Success bool   `json:"success"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a session.
//
// Only the trailing assistant message of a session may be mutated, and
// only while Pending is true; every earlier message is append-only.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content
	Content string `json:"content"`

	// Agent that produced the message (assistant messages only).
	Agent string `json:"agent,omitempty"`

	// Tool invocations reported with the final response.
	ToolResults []ToolResult `json:"tool_results,omitempty"`

	// Failed marks an assistant message whose content is an error
	// explanation rather than a reply. The UI styles these distinctly.
	Failed bool `json:"failed,omitempty"`

	// Pending marks the assistant placeholder that is still being
	// streamed into. Not persisted; a message reloaded from disk is
	// final by definition.
	Pending bool `json:"-"`

	// PERFORMANCE: strings.Builder avoids quadratic allocations while
	// tokens stream in; merged into Content on Finalize.
	streamBuf strings.Builder
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewPlaceholder creates the pending assistant message appended
// alongside a user message when an exchange begins.
func NewPlaceholder() *Message {
	return &Message{
		ID:        generateMessageID(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
		Pending:   true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendText appends streamed text to a pending message. Text arriving
// after finalization is dropped.
func (m *Message) AppendText(text string) {
	if m.Pending {
		m.streamBuf.WriteString(text)
	}
}

// Finalize merges streamed content and marks the message complete.
func (m *Message) Finalize() {
	if !m.Pending {
		return
	}
	m.Content = m.streamBuf.String()
	m.streamBuf.Reset()
	m.Pending = false
}

// ReplaceContent discards any streamed content and finalizes the
// message with text. Used to substitute a localized error explanation
// for a failed exchange.
func (m *Message) ReplaceContent(text string) {
	m.streamBuf.Reset()
	m.Content = text
	m.Failed = true
	m.Pending = false
}

// DisplayContent returns the text to render: streamed content while
// pending, final content afterwards.
func (m *Message) DisplayContent() string {
	if m.Pending {
		return m.streamBuf.String()
	}
	return m.Content
}

// IsEmpty reports whether the message has no content at all. An empty
// pending message renders as a typing indicator, not a bubble.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamBuf.Len() == 0
}

// Preview returns a rune-safe truncated preview of the content.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Clone returns a copy safe to hand to subscribers. The stream buffer
// is flattened into Content so the copy is self-contained.
func (m *Message) Clone() *Message {
	c := &Message{
		ID:        m.ID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		Content:   m.DisplayContent(),
		Agent:     m.Agent,
		Failed:    m.Failed,
		Pending:   m.Pending,
	}
	if len(m.ToolResults) > 0 {
		c.ToolResults = append([]ToolResult(nil), m.ToolResults...)
	}
	return c
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
