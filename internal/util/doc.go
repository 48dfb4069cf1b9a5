// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the nabi client.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file replacement (temp + fsync + rename)
//   - WriteJSONFile: marshal and atomically persist a JSON document
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth / StringWidth: terminal-column aware measurement
//
// Width-aware helpers use github.com/mattn/go-runewidth so Hangul and
// other double-width text measures correctly in the terminal.
//
// # Usage
//
//	// Persist state without risking a torn file on crash
//	err := util.WriteJSONFile(path, state, 0600)
//
//	// Fit a session title into a list column
//	cell := util.TruncateWidth(title, 28)
package util
