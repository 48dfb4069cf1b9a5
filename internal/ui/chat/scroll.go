// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
//
// This file implements scroll anchoring. The viewport follows streamed
// content only while the reader sits near the bottom; scrolling up
// detaches the anchor so the reader can study earlier messages while
// tokens keep arriving. A short settle timer after the last scroll key
// decides whether to re-attach, so one wheel notch past the threshold
// does not yank the view back down mid-gesture.
package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// ANCHOR PARAMETERS
// =============================================================================

const (
	// anchorSlack is how many lines above the true bottom still count
	// as "at the bottom". Streamed markdown re-wraps as it grows, so an
	// exact comparison would detach on almost every flush.
	anchorSlack = 3

	// scrollSettle is how long after the last scroll input the anchor
	// decision is made. While the timer runs, streaming never moves the
	// viewport.
	scrollSettle = 150 * time.Millisecond
)

// =============================================================================
// SCROLL ANCHOR
// =============================================================================

// scrollAnchor tracks whether the viewport should follow new content.
// All methods run on the update loop; no locking needed.
type scrollAnchor struct {
	attached bool // follow new content when not settling
	settling bool // reader scrolled recently, decision pending
	seq      int  // invalidates settle timers from older gestures
}

func newScrollAnchor() scrollAnchor {
	return scrollAnchor{attached: true}
}

// follow reports whether streamed content may move the viewport.
func (a *scrollAnchor) follow() bool {
	return a.attached && !a.settling
}

// scrolled records a manual scroll input and returns the settle command
// for this gesture. Callers invoke it after applying the key to the
// viewport.
func (a *scrollAnchor) scrolled() tea.Cmd {
	a.settling = true
	a.seq++
	seq := a.seq
	return tea.Tick(scrollSettle, func(time.Time) tea.Msg {
		return ScrollSettledMsg{Seq: seq}
	})
}

// settled resolves a settle timer. Stale timers (an older gesture's
// seq) are ignored; the latest one latches the anchor according to
// where the reader ended up.
func (a *scrollAnchor) settled(seq int, nearBottom bool) {
	if seq != a.seq {
		return
	}
	a.settling = false
	a.attached = nearBottom
}

// jumpBottom force-attaches, used by the End key and by submit: sending
// a message always brings the reader back to the newest content.
func (a *scrollAnchor) jumpBottom() {
	a.attached = true
	a.settling = false
	a.seq++ // cancel any outstanding settle decision
}

// jumpTop force-detaches, used by the Home key.
func (a *scrollAnchor) jumpTop() {
	a.attached = false
	a.settling = false
	a.seq++
}

// =============================================================================
// VIEWPORT GEOMETRY
// =============================================================================

// nearBottom reports whether the viewport bottom edge is within
// anchorSlack lines of the content end.
func (m *Model) nearBottom() bool {
	total := m.viewport.TotalLineCount()
	visibleBottom := m.viewport.YOffset + m.viewport.Height
	return total-visibleBottom <= anchorSlack
}
