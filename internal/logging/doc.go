// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the rotating file logger for the nabi client.
//
// A TUI owns the terminal, so nothing here ever writes to stdout or
// stderr: all output goes to a JSON log file under ~/.nabi/logs with
// size-based rotation. One-shot CLI commands share the same sink.
//
// # Key Types
//
//   - Logger: leveled, module-tagged logger backed by zap
//
// # Security
//
// Access tokens, passwords, and message bodies are never logged; call
// sites log operation names, error kinds, and status codes only.
package logging
