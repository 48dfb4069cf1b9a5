// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
//
// This file defines the keyboard bindings. The input field keeps focus
// at all times, so every binding uses a control key, a function key, or
// a key the input does not consume; bare letters always type.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the keyboard bindings for the chat view.
type KeyMap struct {
	Submit        key.Binding
	Stop          key.Binding
	EmergencyQuit key.Binding
	NewChat       key.Binding
	Sessions      key.Binding
	Documents     key.Binding
	Help          key.Binding
	Complete      key.Binding
	Close         key.Binding
	Up            key.Binding
	Down          key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Home          key.Binding
	End           key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send message"),
		),
		Stop: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "stop response / quit"),
		),
		EmergencyQuit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("C-q", "quit"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "new chat"),
		),
		Sessions: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "saved chats"),
		),
		Documents: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "documents"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "complete command"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close overlay"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("Up", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("Down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "go to bottom"),
		),
	}
}

// ShortHelp returns the bindings shown in compact help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Stop, k.Sessions, k.Help}
}

// FullHelp returns the bindings grouped for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Stop, k.NewChat, k.Complete},
		{k.Sessions, k.Documents, k.Help, k.Close},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Home, k.End, k.EmergencyQuit},
	}
}

// =============================================================================
// HELP ROWS
// =============================================================================

// HelpRow is one key/description pair for the help overlay. The
// description field carries already-localized text supplied by the
// caller.
type HelpRow struct {
	Key  string
	Desc string
}

// helpRows flattens the key map into display rows, in presentation
// order. Descriptions come from the bindings' English help text; the
// overlay may substitute localized text keyed by position.
func (k KeyMap) helpRows() []HelpRow {
	bindings := []key.Binding{
		k.Submit, k.Stop, k.NewChat, k.Sessions, k.Documents,
		k.Complete, k.Close, k.Help,
		k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End,
		k.EmergencyQuit,
	}
	rows := make([]HelpRow, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		rows = append(rows, HelpRow{Key: h.Key, Desc: h.Desc})
	}
	return rows
}
