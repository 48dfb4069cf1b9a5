// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
//
// This file runs the streaming exchange. The command goroutine blocks
// inside the SSE client for the whole response; its callbacks write
// into the store and the batcher, and the goroutine's single return
// message reports how the stream ended. The update loop drains the
// batcher on a timer while the goroutine runs.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/ui/components"
)

// =============================================================================
// STREAM START
// =============================================================================

// beginStream moves the view into the streaming state and returns the
// commands that drive it: the blocking stream goroutine, the batcher
// drain tick, and the spinner for the typing indicator. The exchange
// must already exist in the store (BeginExchange succeeded).
func (m *Model) beginStream(sessionID, text string) tea.Cmd {
	m.state = StateStreaming
	m.streamID = sessionID
	m.batcher.Reset()
	m.anchor.jumpBottom()
	m.statusBar.SetStatus(components.StatusStreaming, m.T("ui.receiving"))
	m.refreshTranscript(true)

	return tea.Batch(
		m.streamCmd(sessionID, text),
		batchTickCmd(),
		m.spinner.Tick,
	)
}

// streamCmd builds the goroutine that consumes the SSE response.
//
// Callback wiring:
//   - metadata confirms the backend session id for a local-only chat
//   - tokens go to the batcher, never straight to the store, so render
//     pacing stays bounded
//   - the agent label is applied to the pending placeholder directly
//
// The returned StreamFinishedMsg is the only channel back into the
// update loop; the goroutine never touches the model.
func (m *Model) streamCmd(sessionID, text string) tea.Cmd {
	// Capture everything the goroutine needs; m must not escape.
	store := m.svc.Store
	client := m.svc.Client
	batcher := m.batcher
	log := m.log

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	return func() tea.Msg {
		defer cancel()

		var streamErr *api.ChatError
		handler := api.StreamHandler{
			OnSessionID: func(serverID string) {
				store.ConfirmBackendSession(sessionID, serverID)
			},
			OnToken: func(token string) {
				batcher.Write(token)
			},
			OnAgent: func(agent string) {
				store.SetAgent(sessionID, agent)
			},
			OnError: func(ce *api.ChatError) {
				streamErr = ce
			},
		}

		err := client.StreamChat(ctx, api.ChatRequest{
			Message:   text,
			SessionID: sessionID,
		}, handler)

		// Caller cancellation is an abort, not a failure. The idle
		// watchdog cancels a nested context instead, so it still
		// surfaces through OnError as a timeout.
		if ctx.Err() != nil && streamErr == nil {
			return StreamFinishedMsg{SessionID: sessionID, Aborted: true}
		}
		if streamErr == nil && err != nil {
			streamErr = api.ClassifyErr(err)
		}
		if streamErr != nil {
			log.Warn("stream failed",
				logging.String("kind", streamErr.Kind.String()),
				logging.Int("status", streamErr.Status))
		}
		return StreamFinishedMsg{SessionID: sessionID, Err: streamErr}
	}
}

// =============================================================================
// STREAM LIFECYCLE HANDLERS
// =============================================================================

// handleBatchTick drains due batcher content into the store and
// re-arms the tick. The tick loop dies with the stream; a stray tick
// after completion is a no-op.
func (m Model) handleBatchTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if text, ok := m.batcher.Flush(); ok {
		m.svc.Store.AppendToken(m.streamID, text)
	}
	return m, batchTickCmd()
}

// handleStreamFinished closes out the exchange. The tail of the
// response is force-flushed first so pacing never loses text, then the
// store finalizes, fails, or aborts the placeholder.
func (m Model) handleStreamFinished(msg StreamFinishedMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.streamID {
		// A stream for a chat the user already left. The batcher belongs
		// to the current stream by now, but the old exchange is still
		// open in the store; close it out under its own id.
		switch {
		case msg.Aborted:
			m.svc.Store.AbortExchange(msg.SessionID)
		case msg.Err != nil:
			m.svc.Store.FailExchange(msg.SessionID, msg.Err)
		default:
			m.svc.Store.FinalizeExchange(msg.SessionID)
		}
		return m, nil
	}

	if text, ok := m.batcher.ForceFlush(); ok {
		m.svc.Store.AppendToken(m.streamID, text)
	}

	switch {
	case msg.Aborted:
		m.svc.Store.AbortExchange(m.streamID)
		m.toasts.AddStatus(m.T("ui.stopped"))
	case msg.Err != nil:
		m.svc.Store.FailExchange(m.streamID, msg.Err)
		m.toasts.AddError(m.T(msg.Err.MessageKey()) + " " + m.T("error.retry_hint"))
	default:
		m.svc.Store.FinalizeExchange(m.streamID)
	}

	m.state = StateReady
	m.streamID = ""
	m.cancelMgr.clear()
	m.statusBar.SetStatus(components.StatusReady, m.T("ui.ready"))
	m.input.Focus()
	m.refreshTranscript(true)
	return m, tea.Batch(textinput.Blink, components.ToastTickCmd())
}

// stopStream aborts the in-flight stream from the keyboard. The
// cancelled goroutine still delivers StreamFinishedMsg with Aborted
// set, which performs the actual cleanup; nothing else happens here so
// the two paths cannot race.
func (m *Model) stopStream() {
	if m.state != StateStreaming {
		return
	}
	m.cancelMgr.cancel()
}
