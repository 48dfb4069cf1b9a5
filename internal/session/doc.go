// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns chat session state for the nabi client.
//
// The Store is the single mutation point for sessions and messages.
// The TUI and CLI call its methods and observe changes through
// Subscribe; nothing else writes session state. Every operation is
// local-first: files under ~/.nabi/sessions/ are the source of truth,
// and backend sync (session create on first send, memory clear on
// delete) runs in the background, best-effort, without ever blocking
// or reverting a local change.
//
// # Key Types
//
//   - Store: session container with CRUD, exchange lifecycle, and sync
//   - Event: change notification delivered to subscribers
//
// # Usage
//
// Build a store over its dependencies and hydrate it:
//
//	store := session.NewStore(files, state, client, loc)
//	store.Load()
//
// Run an exchange:
//
//	sess, err := store.BeginExchange("안녕하세요")
//	// stream tokens...
//	store.AppendToken(sess.ID, chunk)
//	store.FinalizeExchange(sess.ID)
//
// # Persistence
//
// Structural changes (create, delete, exchange start and end) persist
// immediately with atomic writes. Streamed token appends mark the
// session dirty and persist on a short interval, with Flush covering
// shutdown.
package session
