// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
//
// This file implements token batching for smooth streaming. The backend
// can deliver dozens of small SSE tokens per second; appending each one
// to the session store would trigger a full re-render per token and
// visibly flicker. The batcher accumulates tokens off the UI goroutine
// and the update loop drains it on a fixed tick, so render frequency
// stays bounded no matter how fast tokens arrive.
package chat

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BATCH PARAMETERS
// =============================================================================

const (
	// TickInterval is how often a drain loop should poll Flush. The
	// check is a mutex grab and two comparisons, so a fine interval is
	// cheap and keeps worst-case token latency low. Exported because
	// the one-shot CLI paces its stdout drain with the same clock.
	TickInterval = 16 * time.Millisecond

	// defaultFlushInterval is the minimum time between drains. Text
	// reaches the screen at most ~20 times per second, which reads as
	// continuous without burning CPU on redraws.
	defaultFlushInterval = 50 * time.Millisecond

	// defaultMaxChars releases a batch early once this much text has
	// accumulated, so a fast backend does not build up a long buffer
	// between ticks.
	defaultMaxChars = 100
)

// =============================================================================
// STREAM BATCHER
// =============================================================================

// StreamBatcher accumulates streamed tokens and releases them in
// batches. Write is called from the stream goroutine, Flush from the
// update loop; all methods are safe for concurrent use. Token order is
// preserved: text drains in exactly the order it was written.
type StreamBatcher struct {
	mu            sync.Mutex
	buf           strings.Builder
	chars         int // UNICODE: rune count, so Hangul tokens measure the same as ASCII
	lastFlush     time.Time
	flushInterval time.Duration
	maxChars      int
}

// NewStreamBatcher creates a batcher with the default pacing.
func NewStreamBatcher() *StreamBatcher {
	return NewStreamBatcherWithConfig(defaultFlushInterval, defaultMaxChars)
}

// NewStreamBatcherWithConfig creates a batcher with explicit pacing.
// Used by tests to exercise the thresholds without real-time waits.
func NewStreamBatcherWithConfig(flushInterval time.Duration, maxChars int) *StreamBatcher {
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &StreamBatcher{
		lastFlush:     time.Now(),
		flushInterval: flushInterval,
		maxChars:      maxChars,
	}
}

// Write appends a token to the buffer.
func (b *StreamBatcher) Write(token string) {
	if token == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(token)
	b.chars += utf8.RuneCountInString(token)
}

// Flush returns the buffered text when a flush is due: enough time has
// passed since the last drain, or the buffer has grown past the size
// threshold. Returns ("", false) otherwise.
func (b *StreamBatcher) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.shouldFlushLocked() {
		return "", false
	}
	return b.drainLocked()
}

// ForceFlush returns whatever is buffered regardless of thresholds.
// The stream-finished handler uses this so the tail of a response is
// never lost to pacing.
func (b *StreamBatcher) ForceFlush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drainLocked()
}

// ShouldFlush reports whether a Flush call would release content.
func (b *StreamBatcher) ShouldFlush() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shouldFlushLocked()
}

// shouldFlushLocked holds the flush policy. Caller must hold mu.
func (b *StreamBatcher) shouldFlushLocked() bool {
	if b.chars == 0 {
		return false
	}
	if b.chars > b.maxChars {
		return true
	}
	return time.Since(b.lastFlush) >= b.flushInterval
}

// drainLocked empties the buffer. Caller must hold mu.
func (b *StreamBatcher) drainLocked() (string, bool) {
	if b.buf.Len() == 0 {
		return "", false
	}
	content := b.buf.String()
	b.buf.Reset()
	b.chars = 0
	b.lastFlush = time.Now()
	return content, true
}

// Reset discards buffered content and restarts the flush clock. Called
// when a new stream begins or a stream is aborted.
func (b *StreamBatcher) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
	b.chars = 0
	b.lastFlush = time.Now()
}

// Pending returns the number of buffered characters.
func (b *StreamBatcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chars
}

// Config returns the active pacing parameters.
func (b *StreamBatcher) Config() (flushInterval time.Duration, maxChars int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushInterval, b.maxChars
}

// =============================================================================
// TICK COMMAND
// =============================================================================

// batchTickCmd schedules the next batcher check. The handler re-issues
// it while a stream is active, forming the drain loop.
func batchTickCmd() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return BatchTickMsg{Time: t}
	})
}
