// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the client for the nabi agent backend.
//
// The backend is a REST service with one streaming endpoint: chat
// completion over server-sent events. This package provides the typed
// request/response layer, an incremental SSE parser, transport error
// classification, and bearer-token injection with automatic refresh.
//
// # Key Types
//
//   - Client: HTTP client for all backend operations
//   - StreamHandler: callback set invoked as stream events arrive
//   - Parser: incremental SSE decoder (bytes in, events out)
//   - ChatError: classified transport error with a retryable flag
//   - TokenSource: supplies and refreshes the bearer token
//
// # Usage
//
//	client := api.NewClient("http://localhost:8000").
//	    WithTokenSource(authManager)
//
//	err := client.StreamChat(ctx, api.ChatRequest{
//	    Message:   "안녕하세요",
//	    SessionID: sess.ID,
//	}, api.StreamHandler{
//	    OnToken: func(text string) { batcher.Add(text) },
//	    OnDone:  func() { batcher.Close() },
//	})
//
// Streams are cancelled through the context. Cancellation is not an
// error: no OnError call is made and token delivery simply stops.
package api
