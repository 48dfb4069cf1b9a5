// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CLI output styles. ANSI-256 codes rather than the TUI theme: these
// lines land in scrollback and logs, so they stay legible on both
// light and dark terminals and degrade to plain text when color is
// off.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))
)

func init() {
	// Pin the profile once so every style in this package respects
	// NO_COLOR and piped output.
	lipgloss.SetColorProfile(GetColorProfile())
}

// renderSeparator returns a horizontal rule sized to the terminal.
func renderSeparator() string {
	w := GetTerminalWidth()
	if w > DefaultTerminalWidth {
		w = DefaultTerminalWidth
	}
	return separatorStyle.Render(strings.Repeat("─", w))
}

// renderLabel formats a "label: value" detail line.
func renderLabel(label, value string) string {
	return labelStyle.Render(label) + " " + valueStyle.Render(value)
}
