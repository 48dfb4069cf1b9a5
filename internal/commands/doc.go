// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
//
// This package handles parsing and executing slash commands in the chat
// interface, providing autocomplete and command registration. Handlers
// return bubbletea commands whose messages the app interprets; where a
// handler can act on the session store or document index directly, it
// does, and reports the outcome in the message.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Context: Dependency container handed to every handler
//   - Invocation: A command line split into name and arguments
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /new: Start a new chat
//   - /sessions: List or switch chats
//   - /delete: Delete a chat
//   - /retry: Resend the last message after a failure
//   - /docs, /upload: Knowledge-base documents
//   - /locale: Switch interface language
//   - /login, /logout: Account
//   - /export, /status, /help, /quit
//
// # Usage
//
// Parse and execute a command:
//
//	if inv, ok := ParseLine(input); ok {
//	    if cmd, err := registry.Resolve(inv); err == nil {
//	        return cmd.Handler(ctx, inv.Args)
//	    }
//	}
//
// Get completions:
//
//	completions := completer.Complete("/up", 3)
//	// Returns /upload
package commands
