// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat implements the conversation view of the nabi TUI.

The view renders the active session's transcript in a viewport with a
single-line prompt underneath and the status bar at the bottom. It owns
no conversation state: messages live in the session store, and the view
re-reads them whenever a store event arrives. User actions flow the
other way, as store operations and backend requests.

# Streaming

Submitting a message appends the user/placeholder pair through the
store, then a command goroutine consumes the SSE response:

  - tokens land in the StreamBatcher (batcher.go), written from the
    stream goroutine
  - a 16ms tick (BatchTickMsg) drains the batcher into the store on the
    update loop, which keeps render frequency bounded no matter how
    fast the backend emits
  - the goroutine's final message (StreamFinishedMsg) finalizes or
    fails the exchange

Ctrl+C cancels the stream context; an abort keeps the partial reply and
is not an error.

# Scrolling

The viewport follows new content only while the reader is near the
bottom. Scrolling up detaches the anchor; a short settle timer after
the last scroll key decides whether to re-attach (scroll.go).

# Overlays and commands

Overlays (help, saved chats, documents, sign-in) capture the keyboard
while open (overlays.go). Slash commands are parsed and dispatched
through internal/commands; their result messages are handled in
commands.go. Tab completion for commands lives in completion.go.
*/
package chat
