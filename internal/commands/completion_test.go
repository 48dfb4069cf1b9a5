// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestCompleterComplete tests basic completion functionality
func TestCompleterComplete(t *testing.T) {
	completer := NewCompleter(NewRegistry())

	tests := []struct {
		name        string
		input       string
		cursorPos   int
		wantMinimum int    // minimum expected completions
		wantPrefix  string // expected prefix of first completion
	}{
		{
			name:        "empty input",
			input:       "/",
			cursorPos:   1,
			wantMinimum: 10, // the full built-in set
			wantPrefix:  "/",
		},
		{
			name:        "partial command",
			input:       "/l",
			cursorPos:   2,
			wantMinimum: 3, // /locale, /login, /logout at least
			wantPrefix:  "/l",
		},
		{
			name:        "unique prefix",
			input:       "/up",
			cursorPos:   3,
			wantMinimum: 1, // /upload (plus the /up alias)
			wantPrefix:  "/up",
		},
		{
			name:        "locale enum values",
			input:       "/locale ",
			cursorPos:   8,
			wantMinimum: 2, // ko and en
		},
		{
			name:        "no match",
			input:       "/xyz",
			cursorPos:   4,
			wantMinimum: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completions := completer.Complete(tt.input, tt.cursorPos)
			if len(completions) < tt.wantMinimum {
				t.Errorf("Complete() got %d completions, want at least %d", len(completions), tt.wantMinimum)
			}
			if tt.wantPrefix != "" && len(completions) > 0 {
				if !strings.HasPrefix(completions[0].Value, tt.wantPrefix) {
					t.Errorf("First completion %q doesn't start with %q", completions[0].Value, tt.wantPrefix)
				}
			}
		})
	}
}

// TestCompleterPlainTextNoCompletion verifies chat text never completes.
func TestCompleterPlainTextNoCompletion(t *testing.T) {
	completer := NewCompleter(NewRegistry())

	for _, input := range []string{"안녕하세요", "hello world", "@mention", ""} {
		if got := completer.Complete(input, len(input)); len(got) != 0 {
			t.Errorf("Complete(%q) = %d completions, want 0", input, len(got))
		}
	}
}

// TestCompleterEnumCompletion tests enum argument completion.
func TestCompleterEnumCompletion(t *testing.T) {
	completer := NewCompleter(NewRegistry())

	completions := completer.Complete("/locale k", 9)
	if len(completions) != 1 || completions[0].Value != "ko" {
		t.Errorf("Complete(/locale k) = %#v, want [ko]", completions)
	}

	completions = completer.Complete("/export m", 9)
	found := map[string]bool{}
	for _, c := range completions {
		found[c.Value] = true
	}
	if !found["md"] || !found["markdown"] {
		t.Errorf("Complete(/export m) = %#v, want md and markdown", completions)
	}
}

// TestCompleterSessionCompletion tests saved-chat completion via the
// SessionsFn callback.
func TestCompleterSessionCompletion(t *testing.T) {
	completer := NewCompleter(NewRegistry())
	completer.SessionsFn = func() []SessionInfo {
		return []SessionInfo{
			{ID: "sess_abc123", Title: "김치찌개 레시피", UpdatedAt: "2026-08-25 10:00", MsgCount: 4},
			{ID: "sess_def456", Title: "Travel plans", UpdatedAt: "2026-08-24 09:00", MsgCount: 2},
		}
	}

	// Prefix of an ID
	completions := completer.Complete("/sessions sess_a", 16)
	if len(completions) != 1 || completions[0].Value != "sess_abc123" {
		t.Fatalf("ID prefix completion = %#v", completions)
	}
	if !strings.Contains(completions[0].Display, "김치찌개") {
		t.Errorf("display should include the title: %q", completions[0].Display)
	}

	// Substring of a title
	completions = completer.Complete("/delete travel", 14)
	if len(completions) != 1 || completions[0].Value != "sess_def456" {
		t.Fatalf("title match completion = %#v", completions)
	}

	// All sessions offered after a bare command
	completions = completer.Complete("/sessions ", 10)
	if len(completions) != 2 {
		t.Errorf("bare completion = %d entries, want 2", len(completions))
	}
}

// TestCompleterFileCompletion tests file path completion for /upload.
func TestCompleterFileCompletion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"report.pdf", "readme.md", ".hidden"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	completer := NewCompleter(NewRegistry())

	completions := completer.Complete("/upload "+dir+string(os.PathSeparator)+"re", len("/upload "+dir+string(os.PathSeparator)+"re"))
	found := map[string]bool{}
	for _, c := range completions {
		found[filepath.Base(c.Value)] = true
	}
	if !found["report.pdf"] || !found["readme.md"] {
		t.Errorf("file completion missing entries: %#v", completions)
	}
	if found[".hidden"] {
		t.Error("hidden files should not complete without a dot prefix")
	}
}

// TestCompleterCustomFilesFn tests the FilesFn override.
func TestCompleterCustomFilesFn(t *testing.T) {
	completer := NewCompleter(NewRegistry())
	completer.FilesFn = func(prefix string) []string {
		return []string{"notes/meeting.txt", "notes/plan.md"}
	}

	completions := completer.Complete("/upload notes", 13)
	if len(completions) != 2 {
		t.Fatalf("got %d completions, want 2", len(completions))
	}
}

// TestCompleterAliasRanking verifies aliases rank below primary names
// of comparable length.
func TestCompleterAliasRanking(t *testing.T) {
	completer := NewCompleter(NewRegistry())

	// /e matches the /export command and the /exit alias; the alias
	// penalty keeps the primary name first.
	completions := completer.Complete("/e", 2)
	if len(completions) < 2 {
		t.Fatalf("got %d completions for /e, want at least 2", len(completions))
	}
	if completions[0].Value != "/export" {
		t.Errorf("first completion = %q, want /export before the /exit alias", completions[0].Value)
	}
}

// =============================================================================
// COMPLETION STATE TESTS
// =============================================================================

func TestCompletionStateNavigation(t *testing.T) {
	cs := NewCompletionState()

	completions := []Completion{
		{Value: "/new"},
		{Value: "/sessions"},
		{Value: "/status"},
	}
	cs.Update("/s", completions)

	if !cs.Visible {
		t.Error("state should be visible with completions")
	}
	if cs.Selected != 0 {
		t.Errorf("initial selection = %d, want 0", cs.Selected)
	}

	cs.Next()
	if cs.Accept() != "/sessions" {
		t.Errorf("after Next, Accept() = %q", cs.Accept())
	}

	cs.Next()
	cs.Next() // wraps around
	if cs.Accept() != "/new" {
		t.Errorf("after wrap, Accept() = %q", cs.Accept())
	}

	cs.Prev() // wraps backward
	if cs.Accept() != "/status" {
		t.Errorf("after Prev wrap, Accept() = %q", cs.Accept())
	}

	sel := cs.GetSelected()
	if sel == nil || sel.Value != "/status" {
		t.Errorf("GetSelected() = %#v", sel)
	}

	cs.Clear()
	if cs.Visible || len(cs.Completions) != 0 || cs.Selected != -1 {
		t.Error("Clear() should reset the state")
	}
}

func TestCompletionStateEmpty(t *testing.T) {
	cs := NewCompletionState()

	cs.Update("/x", nil)
	if cs.Visible {
		t.Error("state should not be visible without completions")
	}
	if cs.Accept() != "" {
		t.Errorf("Accept() on empty = %q, want empty", cs.Accept())
	}

	// Navigation on empty state must not panic
	cs.Next()
	cs.Prev()
	if cs.GetSelected() != nil {
		t.Error("GetSelected() on empty should be nil")
	}
}
