// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the Korean/English string catalog for the
// nabi client.
package i18n

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ko", "ko"},
		{"ko-KR", "ko"},
		{"ko_KR", "ko"},
		{"en", "en"},
		{"en-US", "en"},
		{"en_US.UTF-8", "en"},
		{"", "ko"},
		{"fr", "ko"}, // unsupported falls to default
		{"!!bad!!", "ko"},
	}

	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLookupKorean(t *testing.T) {
	loc := New("ko")

	msg := loc.T("error.timeout")
	if !strings.Contains(msg, "시간이 초과") {
		t.Errorf("unexpected ko timeout message: %q", msg)
	}
}

func TestLookupEnglish(t *testing.T) {
	loc := New("en")

	msg := loc.T("error.timeout")
	if !strings.Contains(msg, "timed out") {
		t.Errorf("unexpected en timeout message: %q", msg)
	}
}

func TestSubstitution(t *testing.T) {
	loc := New("ko")

	msg := loc.T("memory.remembered", "회의 내용")
	if msg != "기억했어요: 회의 내용" {
		t.Errorf("substitution failed: %q", msg)
	}

	msg = loc.T("validate.message_too_long", 2000)
	if !strings.Contains(msg, "2000") {
		t.Errorf("numeric substitution failed: %q", msg)
	}
}

func TestMissingKeyFallsBackToKey(t *testing.T) {
	loc := New("ko")
	if got := loc.T("no.such.key"); got != "no.such.key" {
		t.Errorf("missing key should echo, got %q", got)
	}
}

func TestSetLocaleNotifiesSubscribers(t *testing.T) {
	loc := New("ko")

	var notified []string
	loc.Subscribe(func(code string) {
		notified = append(notified, code)
	})

	loc.SetLocale("en")
	loc.SetLocale("en") // no-op, no second notification
	loc.SetLocale("ko-KR")

	if len(notified) != 2 || notified[0] != "en" || notified[1] != "ko" {
		t.Errorf("unexpected notifications: %v", notified)
	}
}

func TestAllKeysPresentInBothLocales(t *testing.T) {
	New("ko") // force bundle load

	ko, en := bundles["ko"], bundles["en"]
	for key := range ko {
		if _, ok := en[key]; !ok {
			t.Errorf("key %q missing from en catalog", key)
		}
	}
	for key := range en {
		if _, ok := ko[key]; !ok {
			t.Errorf("key %q missing from ko catalog", key)
		}
	}
}

func TestAvailable(t *testing.T) {
	codes := Available()
	if len(codes) != 2 || codes[0] != "en" || codes[1] != "ko" {
		t.Errorf("unexpected locale set: %v", codes)
	}
}
