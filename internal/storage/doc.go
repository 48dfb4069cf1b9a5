// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for nabi.
//
// Sessions are stored one JSON file each; the small cross-session app
// state (active session, locale, device id) lives in a single state
// file. All writes are atomic so a crash never leaves a torn file.
//
// # Key Types
//
//   - SessionStore: per-session JSON persistence with listing and search
//   - StateStore: the app state file
//   - AppState: active session, locale preference, device identifier
//
// # Usage
//
// Create a store and save a session:
//
//	store, err := storage.NewSessionStore()
//	err = store.Save(session)
//
// List and load sessions:
//
//	metas, err := store.List()
//	sess, err := store.Load(metas[0].ID)
//
// # Storage Location
//
// Sessions are stored in ~/.nabi/sessions/ as JSON files; the app
// state is ~/.nabi/state.json.
package storage
