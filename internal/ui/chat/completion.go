// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file drives tab completion for slash commands. The popup opens
// on Tab, cycles on repeated Tab, live-filters while typing, and never
// steals Enter: the accepted value is already in the prompt, so Enter
// always means submit.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// TAB COMPLETION
// =============================================================================

// startCompletion handles Tab with the popup hidden: compute matches
// for the current prompt and apply the best one.
func (m Model) startCompletion() (tea.Model, tea.Cmd) {
	input := m.input.Value()
	matches := m.completer.Complete(input, m.input.Position())
	if len(matches) == 0 {
		return m, nil
	}

	m.completions.Update(input, matches)
	m.applyCompletion()

	// A single match needs no popup.
	if len(matches) == 1 {
		m.dismissCompletions()
	} else {
		m.showCompletions = true
		m.syncPopup()
	}
	return m, textinput.Blink
}

// handleCompletionKey intercepts navigation while the popup is open.
// Returns handled=false for keys the popup does not own, letting them
// fall through to the normal dispatch (Enter submits as usual).
func (m Model) handleCompletionKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Complete), key.Matches(msg, m.keyMap.Down):
		m.completions.Next()
		m.applyCompletion()
		m.syncPopup()
		return true, m, textinput.Blink

	case msg.String() == "shift+tab", key.Matches(msg, m.keyMap.Up):
		m.completions.Prev()
		m.applyCompletion()
		m.syncPopup()
		return true, m, textinput.Blink

	case key.Matches(msg, m.keyMap.Close):
		m.dismissCompletions()
		return true, m, nil
	}
	return false, m, nil
}

// applyCompletion writes the selected value into the prompt, replacing
// the token under completion. Command names replace the whole line up
// to the first space; arguments replace the trailing token.
func (m *Model) applyCompletion() {
	selected := m.completions.GetSelected()
	if selected == nil {
		return
	}

	base := m.completions.OriginalInput
	value := selected.Value

	var line string
	if idx := strings.LastIndex(base, " "); idx >= 0 {
		line = base[:idx+1] + value
	} else {
		line = value
		// Leave the cursor ready for the first argument.
		if cmd := m.completer.GetCommand(value); cmd != nil && len(cmd.Args) > 0 {
			line += " "
		}
	}

	m.input.SetValue(line)
	m.input.CursorEnd()
}

// refreshCompletions re-filters an open popup as the prompt changes.
func (m *Model) refreshCompletions() {
	if !m.showCompletions {
		return
	}

	input := m.input.Value()
	matches := m.completer.Complete(input, m.input.Position())
	if len(matches) == 0 {
		m.dismissCompletions()
		return
	}
	m.completions.Update(input, matches)
	m.syncPopup()
}

// dismissCompletions hides the popup and forgets its state.
func (m *Model) dismissCompletions() {
	m.showCompletions = false
	m.completions.Clear()
	m.popup.Clear()
}

// syncPopup mirrors the completion state into the popup component.
func (m *Model) syncPopup() {
	m.popup.SetCompletions(m.completions.Completions)
	m.popup.SetSelected(m.completions.Selected)
}
