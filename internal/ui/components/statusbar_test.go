// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the nabi TUI.
package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/nabi-tui/internal/ui/styles"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusStreaming, "Streaming..."},
		{StatusLoading, "Loading..."},
		{StatusError, "Error"},
		{StatusIdle, "Idle"},
		{Status(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	// Icons must be distinct so states are tellable apart without color
	seen := make(map[string]Status)
	for _, status := range []Status{StatusReady, StatusStreaming, StatusLoading, StatusError, StatusIdle} {
		icon := status.Icon()
		if icon == "" {
			t.Errorf("Status(%d).Icon() is empty", status)
		}
		if prev, ok := seen[icon]; ok {
			t.Errorf("Status(%d) and Status(%d) share icon %q", prev, status, icon)
		}
		seen[icon] = status
	}

	if StatusReady.Icon() != styles.StatusIndicators.Success {
		t.Error("Ready icon should be the success indicator")
	}
	if StatusError.Icon() != styles.StatusIndicators.Error {
		t.Error("Error icon should be the error indicator")
	}
}

func TestNewStatusBar(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())

	if sb == nil {
		t.Fatal("NewStatusBar returned nil")
	}
	if sb.Width != 80 {
		t.Errorf("Default width = %d, want 80", sb.Width)
	}
	if sb.Locale != "ko" {
		t.Errorf("Default locale = %q, want ko", sb.Locale)
	}
	if sb.Connected {
		t.Error("New status bar should start disconnected")
	}
	if sb.Status != StatusReady {
		t.Errorf("Default status = %v, want StatusReady", sb.Status)
	}
	if !sb.ShowShortcuts {
		t.Error("Shortcuts should be shown by default")
	}
}

func TestStatusBarSetters(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())

	sb.SetWidth(120)
	if sb.Width != 120 {
		t.Errorf("SetWidth: got %d", sb.Width)
	}

	sb.SetConnection(true, "연결됨")
	if !sb.Connected || sb.ConnectionLabel != "연결됨" {
		t.Error("SetConnection did not record state and label")
	}

	sb.SetAccount("mina@example.com")
	if sb.Account != "mina@example.com" {
		t.Errorf("SetAccount: got %q", sb.Account)
	}

	sb.SetSession("점심 메뉴 추천", 12)
	if sb.SessionTitle != "점심 메뉴 추천" || sb.MessageCount != 12 {
		t.Error("SetSession did not record title and count")
	}

	sb.SetQueuedUploads(3)
	if sb.QueuedUploads != 3 {
		t.Errorf("SetQueuedUploads: got %d", sb.QueuedUploads)
	}

	sb.SetLocale("en")
	if sb.Locale != "en" {
		t.Errorf("SetLocale: got %q", sb.Locale)
	}

	sb.SetStatus(StatusStreaming, "응답 수신 중...")
	if sb.Status != StatusStreaming || sb.StatusText != "응답 수신 중..." {
		t.Error("SetStatus did not record status and text")
	}
}

func TestStatusBarStatusText(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())

	sb.SetStatus(StatusLoading, "")
	if sb.statusText() != "Loading..." {
		t.Errorf("Empty text should fall back to English, got %q", sb.statusText())
	}

	sb.SetStatus(StatusLoading, "불러오는 중...")
	if sb.statusText() != "불러오는 중..." {
		t.Errorf("Localized text should win, got %q", sb.statusText())
	}
}

func TestStatusBarViewNarrow(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())
	sb.SetWidth(40)

	view := sb.View()
	if !strings.Contains(view, "[OFF|KO]") {
		t.Errorf("Narrow disconnected view should show [OFF|KO]: %q", view)
	}

	sb.SetConnection(true, "")
	sb.SetQueuedUploads(2)
	view = sb.View()
	if !strings.Contains(view, "[C|KO]") {
		t.Errorf("Narrow connected view should show [C|KO]: %q", view)
	}
	if !strings.Contains(view, "up:2") {
		t.Errorf("Narrow view should show the upload queue: %q", view)
	}
}

func TestStatusBarViewMedium(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())
	sb.SetWidth(80)
	sb.SetConnection(true, "")
	sb.SetAccount("mina@example.com")
	sb.SetSession("a very long session title that overflows", 4)

	view := sb.View()
	if !strings.Contains(view, "connected") {
		t.Error("Medium view should show the connection label")
	}
	if !strings.Contains(view, "mina@example.com") {
		t.Error("Medium view should show the account")
	}
	if !strings.Contains(view, "...") {
		t.Error("Medium view should truncate long titles")
	}
	if strings.Contains(view, "overflows") {
		t.Error("Truncated title should not keep its tail")
	}
	if !strings.Contains(view, "Ready") {
		t.Error("Medium view should show the status text")
	}
}

func TestStatusBarViewMediumLocalized(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())
	sb.SetWidth(80)
	sb.SetConnection(true, "연결됨")
	sb.SetStatus(StatusStreaming, "응답 수신 중...")

	view := sb.View()
	if !strings.Contains(view, "연결됨") {
		t.Error("Medium view should use the localized connection label")
	}
	if !strings.Contains(view, "응답 수신 중...") {
		t.Error("Medium view should use the localized status text")
	}
}

func TestStatusBarViewWide(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())
	sb.SetWidth(120)
	sb.SetConnection(true, "")
	sb.SetSession("recipe ideas", 5)

	view := sb.View()
	if !strings.Contains(view, "KO") {
		t.Error("Wide view should show the locale code")
	}
	if !strings.Contains(view, "(5 msg)") {
		t.Error("Wide view should show the message count")
	}
	if !strings.Contains(view, "^S") || !strings.Contains(view, "sessions") {
		t.Error("Wide view should show keyboard shortcuts")
	}

	sb.ShowShortcuts = false
	view = sb.View()
	if strings.Contains(view, "^S") {
		t.Error("Shortcuts should be hidden when disabled")
	}
}

func TestStatusBarLayoutSwitch(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())
	sb.SetConnection(true, "")

	sb.SetWidth(59)
	if !strings.Contains(sb.View(), "[C|KO]") {
		t.Error("Width 59 should use the narrow layout")
	}

	sb.SetWidth(60)
	view := sb.View()
	if strings.Contains(view, "[C|KO]") {
		t.Error("Width 60 should leave the narrow layout")
	}
	if !strings.Contains(view, "connected") {
		t.Error("Width 60 should use the medium layout")
	}
}
