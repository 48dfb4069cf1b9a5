// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-interactive surface of nabi: argument
// parsing and the one-shot commands that run without the full terminal
// UI.
//
// # Key Types
//
//   - Command: enumeration of everything nabi can be asked to do
//   - Args: parsed global flags plus the remainder for the command
//   - App: the shared service graph (config, auth, backend client,
//     session store) that command handlers operate on
//
// # Usage
//
// Parse and dispatch:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    err = cli.HandleAsk(args)
//	case cli.CmdTUI:
//	    // caller starts the Bubble Tea program
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: one question, streamed answer, exit
//   - chat: line-based REPL for terminals without TUI support
//   - login / logout: Supabase credential management
//   - sessions: list, show, delete saved chats
//   - docs: list, upload, delete, sync knowledge-base documents
//   - locale: get or set the interface language
//   - export: write a chat transcript to Markdown or JSON
//   - doctor: diagnose backend, auth, and configuration health
//
// Every command supports --json for scripting.
package cli
