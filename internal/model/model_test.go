// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.Role != RoleUser {
		t.Errorf("expected user role, got %s", msg.Role)
	}
	if msg.Content != "hello" {
		t.Errorf("expected content 'hello', got %q", msg.Content)
	}
	if msg.Pending {
		t.Error("user messages are final on creation")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("unexpected ID shape: %s", msg.ID)
	}
}

func TestPlaceholderStreaming(t *testing.T) {
	msg := NewPlaceholder()

	if !msg.Pending {
		t.Fatal("placeholder must start pending")
	}
	if !msg.IsEmpty() {
		t.Error("placeholder must start empty")
	}

	msg.AppendText("안녕")
	msg.AppendText("하세요")

	if msg.DisplayContent() != "안녕하세요" {
		t.Errorf("streamed content mismatch: %q", msg.DisplayContent())
	}
	// Content only merges on finalize.
	if msg.Content != "" {
		t.Errorf("Content should be empty before finalize, got %q", msg.Content)
	}

	msg.Finalize()

	if msg.Pending {
		t.Error("finalized message still pending")
	}
	if msg.Content != "안녕하세요" {
		t.Errorf("finalized content mismatch: %q", msg.Content)
	}

	// Text after finalization is dropped.
	msg.AppendText("!")
	if msg.Content != "안녕하세요" {
		t.Errorf("append after finalize mutated content: %q", msg.Content)
	}
}

func TestReplaceContent(t *testing.T) {
	msg := NewPlaceholder()
	msg.AppendText("partial answ")
	msg.ReplaceContent("네트워크 오류가 발생했습니다")

	if msg.Pending {
		t.Error("replaced message still pending")
	}
	if !msg.Failed {
		t.Error("replaced message not marked failed")
	}
	if msg.Content != "네트워크 오류가 발생했습니다" {
		t.Errorf("replacement missing, got %q", msg.Content)
	}
	if strings.Contains(msg.Content, "partial") {
		t.Error("partial content leaked through replacement")
	}
}

func TestMessagePreviewRuneSafe(t *testing.T) {
	msg := NewUserMessage("오늘 회의에서 결정된 내용을 정리해줘")
	preview := msg.Preview(10)

	if len([]rune(preview)) > 10 {
		t.Errorf("preview too long: %q (%d runes)", preview, len([]rune(preview)))
	}
	// Must be valid UTF-8 (rune slicing guarantees it; assert no
	// replacement char crept in).
	if strings.ContainsRune(preview, '�') {
		t.Errorf("preview corrupted: %q", preview)
	}
}

func TestMessageJSONOmitsStreamState(t *testing.T) {
	msg := NewPlaceholder()
	msg.AppendText("in flight")

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "in flight") {
		t.Error("unflushed stream buffer must not serialize")
	}
	if strings.Contains(string(data), "Pending") || strings.Contains(string(data), "pending") {
		t.Error("pending flag must not serialize")
	}
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestNewSessionID(t *testing.T) {
	sess := NewSession()

	if !strings.HasPrefix(sess.ID, "sess_") {
		t.Errorf("unexpected ID prefix: %s", sess.ID)
	}
	// 16-256 chars of [A-Za-z0-9_-] is the backend's session-id rule.
	if len(sess.ID) < 16 || len(sess.ID) > 256 {
		t.Errorf("ID length %d outside backend bounds", len(sess.ID))
	}
	for _, r := range sess.ID {
		ok := r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			t.Errorf("ID contains invalid rune %q", r)
		}
	}
	if !sess.LocalOnly {
		t.Error("new sessions start local-only")
	}
}

func TestBeginExchangeAtomicPair(t *testing.T) {
	sess := NewSession()
	user, placeholder := sess.BeginExchange("질문입니다")

	if sess.MessageCount() != 2 {
		t.Fatalf("expected 2 messages, got %d", sess.MessageCount())
	}
	if sess.Messages[0] != user || sess.Messages[1] != placeholder {
		t.Error("exchange pair not appended in order")
	}
	if !sess.Streaming {
		t.Error("session should be streaming after BeginExchange")
	}
	if !placeholder.Pending {
		t.Error("placeholder should be pending")
	}
}

func TestOnlyTrailingMessageMutates(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("first")
	sess.AppendText("answer one")
	sess.FinalizeExchange()

	first := sess.Messages[1].Content

	sess.BeginExchange("second")
	sess.AppendText("answer two")

	if sess.Messages[1].Content != first {
		t.Error("earlier message mutated during later stream")
	}
	if sess.Messages[3].DisplayContent() != "answer two" {
		t.Errorf("trailing message missing streamed text: %q", sess.Messages[3].DisplayContent())
	}
}

func TestSetAgentTargetsPlaceholder(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("hi")
	sess.SetAgent("rag")

	if sess.LastMessage().Agent != "rag" {
		t.Errorf("agent not set on placeholder: %q", sess.LastMessage().Agent)
	}

	sess.FinalizeExchange()
	sess.SetAgent("chat")
	if sess.LastMessage().Agent != "rag" {
		t.Error("agent mutated after finalization")
	}
}

func TestFailExchangeReplacesPartial(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("hi")
	sess.AppendText("partial tok")
	sess.FailExchange("요청 시간이 초과되었습니다")

	last := sess.LastMessage()
	if last.Pending {
		t.Error("failed exchange left placeholder pending")
	}
	if !last.Failed {
		t.Error("placeholder not marked failed")
	}
	if last.Content != "요청 시간이 초과되었습니다" {
		t.Errorf("explanation missing: %q", last.Content)
	}
	if sess.Streaming {
		t.Error("streaming flag not cleared on failure")
	}
}

func TestAbortExchangeKeepsPartial(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("hi")
	sess.AppendText("partial tok")
	sess.AbortExchange()

	last := sess.LastMessage()
	if last.Pending {
		t.Error("aborted exchange left placeholder pending")
	}
	if last.Content != "partial tok" {
		t.Errorf("partial text lost: %q", last.Content)
	}
	if sess.Streaming {
		t.Error("streaming flag not cleared on abort")
	}
}

func TestAbortExchangeDropsEmptyPlaceholder(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("hi")
	sess.AbortExchange()

	if sess.MessageCount() != 1 {
		t.Fatalf("want only the user message, got %d messages", sess.MessageCount())
	}
	if sess.LastMessage().Role != RoleUser {
		t.Errorf("remaining role = %q, want user", sess.LastMessage().Role)
	}
	if sess.Streaming {
		t.Error("streaming flag not cleared on abort")
	}

	// The lone user message can still be retried.
	input, ok := sess.DropLastExchange()
	if !ok || input != "hi" {
		t.Errorf("retry after abort = (%q, %v), want the original input", input, ok)
	}
}

func TestDropLastExchange(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("retry me")
	sess.AppendText("bad answer")
	sess.FinalizeExchange()

	input, ok := sess.DropLastExchange()
	if !ok {
		t.Fatal("expected a droppable exchange")
	}
	if input != "retry me" {
		t.Errorf("expected original input back, got %q", input)
	}
	if sess.MessageCount() != 0 {
		t.Errorf("expected empty session, got %d messages", sess.MessageCount())
	}

	// Nothing left to drop.
	if _, ok := sess.DropLastExchange(); ok {
		t.Error("drop on empty session should fail")
	}
}

func TestTitleFromFirstUserMessage(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("오늘 날씨 어때?")

	if sess.Title != "오늘 날씨 어때?" {
		t.Errorf("title not derived: %q", sess.Title)
	}

	sess.FinalizeExchange()
	sess.BeginExchange("다른 질문")
	if sess.Title != "오늘 날씨 어때?" {
		t.Error("title should not change after first derivation")
	}
}

func TestPruneKeepsExchangePairs(t *testing.T) {
	sess := NewSession()
	for i := 0; i < MaxMessages/2+10; i++ {
		sess.BeginExchange("q")
		sess.AppendText("a")
		sess.FinalizeExchange()
	}

	if len(sess.Messages) > MaxMessages {
		t.Errorf("prune failed: %d messages", len(sess.Messages))
	}
	if sess.Messages[0].Role != RoleUser {
		t.Error("prune split an exchange pair")
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	sess := NewSession()
	sess.BeginExchange("original")

	clone := sess.Clone()
	clone.Messages[0].Content = "mutated"

	if sess.Messages[0].Content != "original" {
		t.Error("clone shares message memory with original")
	}
}

// =============================================================================
// AGENT REGISTRY TESTS
// =============================================================================

func TestAgentBadge(t *testing.T) {
	tests := []struct {
		name  string
		agent string
		want  string
	}{
		{"chat", "chat", "CHAT"},
		{"rag", "rag", "DOCS"},
		{"web search", "web_search", "WEB"},
		{"supervisor", "supervisor", "SUP"},
		{"unknown short", "zz", "ZZ"},
		{"unknown long", "translator", "TRAN"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgentBadge(tt.agent); got != tt.want {
				t.Errorf("AgentBadge(%q) = %q, want %q", tt.agent, got, tt.want)
			}
		})
	}
}

func TestKnownAgent(t *testing.T) {
	if !KnownAgent("rag") {
		t.Error("rag should be known")
	}
	if KnownAgent("made_up") {
		t.Error("made_up should not be known")
	}
}
