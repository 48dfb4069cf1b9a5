// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
//
// This file defines the Bubble Tea messages that drive the view. State
// changes arrive exclusively as messages: session store notifications,
// stream lifecycle reports from the runner goroutine, auth and upload
// events, and the internal ticks that pace rendering.
package chat

import (
	"time"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/session"
)

// =============================================================================
// SERVICE EVENTS
// =============================================================================

// StoreEventMsg wraps a session store notification. The program wiring
// forwards every store event here, so the view re-reads store state
// instead of tracking message content itself.
type StoreEventMsg struct {
	Event session.Event
}

// AuthEventMsg wraps an auth manager notification: sign-in, sign-out,
// token refresh, session expiry.
type AuthEventMsg struct {
	Event auth.Event
}

// UploadEventMsg wraps a document pipeline notification: queued,
// uploaded, duplicate, rejected, failed.
type UploadEventMsg struct {
	Event docstore.Event
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// StreamFinishedMsg reports the end of a stream. Err is nil on normal
// completion and on user abort; a failed stream carries the classified
// error the store has already explained in the transcript.
type StreamFinishedMsg struct {
	SessionID string
	Err       *api.ChatError
	Aborted   bool
}

// BatchTickMsg drives periodic batcher drains while a stream is active.
type BatchTickMsg struct {
	Time time.Time
}

// =============================================================================
// VIEW INTERNALS
// =============================================================================

// ScrollSettledMsg fires after the manual-scroll settle window. Seq
// guards against stale timers: only the most recent scroll's settle
// re-enables auto-follow.
type ScrollSettledMsg struct {
	Seq int
}

// HealthCheckMsg carries the result of a backend health probe.
type HealthCheckMsg struct {
	Healthy bool
}

// HealthTickMsg schedules the next periodic health probe.
type HealthTickMsg struct {
	Time time.Time
}

// LoginResultMsg carries the outcome of a sign-in attempt from the
// login overlay.
type LoginResultMsg struct {
	User *auth.User
	Err  error
}

// ExportResultMsg carries the outcome of a transcript export.
type ExportResultMsg struct {
	Path string
	Err  error
}
