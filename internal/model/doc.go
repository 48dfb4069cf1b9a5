// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// This package defines the core domain types shared by the session
// store, the streaming pipeline, local persistence, and the UI.
//
// # Key Types
//
//   - Session: one conversation thread with ordered message history
//   - Message: single message with role, content, agent label, tool results
//   - AgentInfo: backend agent description from the agents endpoint
//   - Role: message role enumeration (user, assistant)
//
// # Invariant
//
// Exactly the trailing message of a session may be mutated, and only
// while it is the pending assistant placeholder of an in-flight
// exchange. Everything earlier is append-only.
//
// # Usage
//
// Begin an exchange (user message + assistant placeholder, atomically):
//
//	sess := model.NewSession()
//	user, placeholder := sess.BeginExchange("안녕하세요")
//
// Stream text into the placeholder and finalize:
//
//	sess.AppendText("Hello")
//	sess.FinalizeExchange()
package model
