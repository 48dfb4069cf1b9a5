// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
package chat

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// RENDER CACHE
// =============================================================================

// renderCache detects whether the transcript render actually changed
// since the last viewport update. Store events fire for session-level
// changes (title, sync state) that leave the visible transcript
// byte-identical; comparing a content hash skips the SetContent and its
// re-wrap in those cases.
type renderCache struct {
	lastHash [sha256.Size]byte
	primed   bool
}

func newRenderCache() *renderCache {
	return &renderCache{}
}

// changed records the content and reports whether it differs from the
// previous render. The first call always reports a change.
func (rc *renderCache) changed(content string) bool {
	h := sha256.Sum256([]byte(content))
	if rc.primed && h == rc.lastHash {
		return false
	}
	rc.lastHash = h
	rc.primed = true
	return true
}

// invalidate forces the next changed call to report true.
func (rc *renderCache) invalidate() {
	rc.primed = false
}

// =============================================================================
// SMALL HELPERS
// =============================================================================

// contextWithTimeout is a shorthand for background-context commands.
func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// clampInt bounds n to [lo, hi].
func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// firstLine returns text up to the first newline.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// truncateRunes clips s to at most max runes, appending an ellipsis
// when something was cut. Rune-safe so Hangul never splits mid-glyph.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}

// shortPath reduces a path to its final element for toast display.
func shortPath(path string) string {
	return filepath.Base(path)
}
