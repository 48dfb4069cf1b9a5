// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package memory detects conversational memory commands in user input.
//
// The backend agent keeps long-term memory per user. Rather than a slash
// command, memory operations are phrased naturally in Korean and detected
// before the message is sent, so the client can show the matching status
// line while the agent handles the actual storage.
//
// # Key Types
//
//   - Kind: which memory operation a message requests
//   - Command: a detected operation plus its payload text
//
// # Usage
//
//	cmd := memory.Parse("기억해: 다음 주 화요일 회의")
//	if cmd.Kind == memory.Remember {
//	    // cmd.Content == "다음 주 화요일 회의"
//	}
//
// Detection is deliberately conservative: prefixes must match exactly and
// unknown phrasing falls through to Kind None, leaving the message to be
// sent as ordinary chat.
package memory
