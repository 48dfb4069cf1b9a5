// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
//
// This file guards the active stream's cancel function. The function is
// set on the update goroutine when a stream starts and invoked from key
// handling (Ctrl+C) while the stream goroutine is still running, so
// access must be synchronized.
package chat

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL MANAGEMENT
// =============================================================================

// cancelManager holds the cancel function for the in-flight stream.
// Must live behind a pointer in the Model: Bubble Tea copies the model
// on every Update, and a copied mutex is a corrupted mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores the cancel function for a newly started stream.
func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.cancelFunc = fn
}

// cancel aborts the in-flight stream, if any. Safe to call repeatedly.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// clear releases the stored function, cancelling first so the stream
// context can never leak.
func (cm *cancelManager) clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}

// active reports whether a cancelable stream is registered.
func (cm *cancelManager) active() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.cancelFunc != nil
}
