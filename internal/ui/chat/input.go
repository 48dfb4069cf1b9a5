// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file handles the keyboard. The prompt keeps focus whenever no
// overlay is open; submission walks the full checklist (slash command,
// validation, memory-command feedback, exchange start) before anything
// leaves the client.
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/commands"
	"github.com/jeranaias/nabi-tui/internal/memory"
	"github.com/jeranaias/nabi-tui/internal/session"
	"github.com/jeranaias/nabi-tui/internal/ui/components"
	"github.com/jeranaias/nabi-tui/internal/validate"
)

// =============================================================================
// KEY DISPATCH
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Emergency exit works from any state, any overlay.
	if key.Matches(msg, m.keyMap.EmergencyQuit) {
		return m, tea.Quit
	}

	// The first key after startup dismisses the welcome screen.
	if m.showWelcome && m.overlay == overlayNone {
		m.showWelcome = false
		m.rendered.invalidate()
		m.refreshTranscript(true)
	}

	// An open overlay owns the keyboard.
	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}

	// The completion popup intercepts its navigation keys.
	if m.showCompletions {
		if handled, model, cmd := m.handleCompletionKey(msg); handled {
			return model, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keyMap.Stop):
		if m.state == StateStreaming {
			m.stopStream()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keyMap.Complete):
		return m.startCompletion()

	case key.Matches(msg, m.keyMap.NewChat):
		return m, m.dispatchCommand("/new")

	case key.Matches(msg, m.keyMap.Sessions):
		return m, m.dispatchCommand("/sessions")

	case key.Matches(msg, m.keyMap.Documents):
		return m, m.dispatchCommand("/docs")

	case key.Matches(msg, m.keyMap.Help):
		m.openOverlay(overlayHelp)
		return m, nil

	case key.Matches(msg, m.keyMap.Up),
		key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp),
		key.Matches(msg, m.keyMap.PageDown),
		key.Matches(msg, m.keyMap.Home),
		key.Matches(msg, m.keyMap.End):
		return m.handleScrollKey(msg)

	case key.Matches(msg, m.keyMap.Close):
		m.dismissCompletions()
		return m, nil
	}

	// Everything else types into the prompt.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshCompletions()
	return m, cmd
}

// =============================================================================
// SCROLLING
// =============================================================================

// handleScrollKey applies a navigation key to the viewport and then
// reconciles the anchor: Home and End latch directly, everything else
// starts a settle window.
func (m Model) handleScrollKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Home):
		m.viewport.GotoTop()
		m.anchor.jumpTop()
		return m, nil
	case key.Matches(msg, m.keyMap.End):
		m.viewport.GotoBottom()
		m.anchor.jumpBottom()
		return m, nil
	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
	}
	return m, m.anchor.scrolled()
}

// handleScrollSettled resolves the pending anchor decision once the
// reader stops scrolling.
func (m Model) handleScrollSettled(msg ScrollSettledMsg) (tea.Model, tea.Cmd) {
	m.anchor.settled(msg.Seq, m.nearBottom())
	return m, nil
}

// =============================================================================
// SUBMISSION
// =============================================================================

// submitInput runs the submission checklist on the prompt content.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		return m, nil
	}

	// Slash commands bypass validation; they never reach the backend
	// as chat text.
	if commands.IsCommand(raw) {
		m.input.SetValue("")
		m.dismissCompletions()
		return m, m.dispatchCommand(raw)
	}

	res := validate.Message(raw)
	if !res.Valid {
		m.toasts.AddWarning(m.T(res.Issue.MessageKey, res.Issue.Args...))
		return m, components.ToastTickCmd()
	}

	var cmds []tea.Cmd
	for _, w := range res.Warnings {
		m.toasts.AddWarning(m.T(w.MessageKey, w.Args...))
		cmds = append(cmds, components.ToastTickCmd())
	}

	// Memory commands get immediate local feedback; the raw text is
	// still sent unchanged, the backend interpretation is what counts.
	if mc := memory.Parse(raw); mc.Kind != memory.None {
		m.toasts.AddStatus(m.memoryFeedback(mc))
		cmds = append(cmds, components.ToastTickCmd())
	}

	return m.startExchange(raw, cmds)
}

// startExchange opens the exchange in the store and kicks off the
// stream. Shared by submit and retry.
func (m Model) startExchange(text string, cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	store := m.svc.Store
	if store.Active() == nil {
		store.Create()
	}

	sess, err := store.BeginExchange(text)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrStreamActive):
			m.toasts.AddWarning(m.T("command.stream_active"))
		default:
			m.toasts.AddError(err.Error())
		}
		cmds = append(cmds, components.ToastTickCmd())
		return m, tea.Batch(cmds...)
	}

	m.input.SetValue("")
	m.dismissCompletions()
	m.showWelcome = false
	cmds = append(cmds, m.beginStream(sess.ID, text))
	return m, tea.Batch(cmds...)
}

// memoryFeedback localizes the advisory toast for a detected memory
// command. Remember and forget interpolate the payload; the others are
// fixed phrases.
func (m *Model) memoryFeedback(mc memory.Command) string {
	switch mc.Kind {
	case memory.Remember, memory.Forget:
		return m.T(mc.StatusKey(), truncateRunes(mc.Content, 40))
	default:
		return m.T(mc.StatusKey())
	}
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// dispatchCommand parses a slash command line and runs its handler.
// Unknown names and argument errors surface as toast-backed errors.
func (m *Model) dispatchCommand(line string) tea.Cmd {
	inv, ok := commands.ParseLine(line)
	if !ok {
		return nil
	}

	cmd, err := m.svc.Registry.Resolve(inv)
	if err != nil {
		var argErr *commands.ArgError
		if errors.As(err, &argErr) {
			errText := argErr.Error()
			usage := argErr.Usage
			return func() tea.Msg {
				return commands.ErrorMsg{Title: errText, Tip: usage}
			}
		}
		title := m.T("command.unavailable")
		return func() tea.Msg {
			return commands.ErrorMsg{Title: title, Tip: "/help"}
		}
	}
	return cmd.Handler(m.svc.Commands, inv.Args)
}

// =============================================================================
// FOCUS
// =============================================================================

// focusPrompt restores prompt focus and the blink, used after overlay
// close and stream end paths that route through messages.
func (m *Model) focusPrompt() tea.Cmd {
	m.input.Focus()
	return textinput.Blink
}
