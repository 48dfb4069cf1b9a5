// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file renders the chat screen. The layout is three fixed bands:
// the transcript viewport, the input area, and the status bar. Overlay
// panels replace the screen; the completion popup and toasts merge into
// the base render line by line.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nabi-tui/internal/ui/components"
)

// =============================================================================
// SCREEN
// =============================================================================

func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// An open overlay owns the whole screen.
	if m.overlay != overlayNone {
		return m.renderOverlayPanel()
	}

	input := m.renderInput()
	status := m.statusBar.View()
	messages := m.viewport.View()

	// The viewport is sized in handleResize; force the height here when
	// a stray resize ordering would otherwise shift the input area.
	available := m.height - lipgloss.Height(input) - lipgloss.Height(status)
	if available < 1 {
		available = 1
	}
	if lipgloss.Height(messages) != available {
		messages = lipgloss.NewStyle().
			Height(available).
			MaxHeight(available).
			Width(m.width).
			Render(messages)
	}

	base := lipgloss.JoinVertical(
		lipgloss.Left,
		messages,
		input,
		status,
	)

	if m.showCompletions && m.popup.HasCompletions() {
		base = m.overlayAboveInput(base, m.popup.View())
	}

	if m.toasts.HasToasts() {
		stack := components.RenderToastStack(m.toasts.GetToasts(), m.width, m.height)
		base = m.overlayToasts(base, stack)
	}

	return base
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput draws the three-line input band: separator, prompt, and
// the hint/counter line. Height is pinned so typing never shifts the
// transcript.
func (m Model) renderInput() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	sepColor := m.theme.InputPrompt.GetForeground()
	if m.state == StateStreaming {
		sepColor = m.theme.StatusStreaming.GetForeground()
	}
	separator := lipgloss.NewStyle().
		Foreground(sepColor).
		Render(strings.Repeat("─", width))

	promptLine := lipgloss.NewStyle().
		Width(width).
		MaxHeight(1).
		Render("  " + m.input.View())

	hintLine := m.renderInputHints(width)

	area := lipgloss.JoinVertical(lipgloss.Left, separator, promptLine, hintLine)
	return lipgloss.NewStyle().
		Height(inputAreaHeight).
		MaxHeight(inputAreaHeight).
		Width(width).
		Render(area)
}

// renderInputHints draws the shortcut hints left and the character
// counter right on one line.
func (m Model) renderInputHints(width int) string {
	var hints []string
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		hints = append(hints,
			m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	left := "  " + strings.Join(hints, m.theme.ShortcutDesc.Render(" · "))

	count := len([]rune(m.input.Value()))
	limit := m.input.CharLimit
	counter := fmt.Sprintf("%d/%d", count, limit)
	switch {
	case limit > 0 && count >= limit:
		counter = m.theme.CharCountDanger.Render(counter)
	case limit > 0 && count*10 >= limit*9:
		counter = m.theme.CharCountWarning.Render(counter)
	default:
		counter = m.theme.CharCount.Render(counter)
	}

	pad := width - lipgloss.Width(left) - lipgloss.Width(counter) - 2
	if pad < 1 {
		return lipgloss.NewStyle().Width(width).MaxHeight(1).Render(left)
	}
	return left + strings.Repeat(" ", pad) + counter + "  "
}

// =============================================================================
// OVERLAY PANELS
// =============================================================================

// renderOverlayPanel renders the open overlay centered on a cleared
// screen.
func (m Model) renderOverlayPanel() string {
	var content string
	switch m.overlay {
	case overlayHelp:
		content = m.renderHelpPanel()
	case overlaySessions:
		content = m.renderSessionsPanel()
	case overlayDocuments:
		content = m.renderDocumentsPanel()
	case overlayLogin:
		content = m.renderLoginPanel()
	default:
		return ""
	}

	panel := m.theme.OverlayBox.Render(content)
	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		panel,
	)
}

// panelWidth bounds overlay content to the terminal.
func (m Model) panelWidth() int {
	return clampInt(m.width-8, 30, 64)
}

func (m Model) renderHelpPanel() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render(m.T("ui.help_title")))
	sb.WriteString("\n\n")

	for _, row := range m.keyMap.helpRows() {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			m.theme.ShortcutKey.Render(fmt.Sprintf("%-10s", row.Key)),
			m.theme.ShortcutDesc.Render(row.Desc)))
	}
	sb.WriteString("\n")

	if m.svc.Registry != nil {
		for _, cmd := range m.svc.Registry.All() {
			sb.WriteString(fmt.Sprintf("  %s  %s\n",
				m.theme.ListID.Render(fmt.Sprintf("%-12s", cmd.Name)),
				m.theme.ListMeta.Render(cmd.Description)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.theme.ListMeta.Render(m.T("ui.overlay_hint")))
	return lipgloss.NewStyle().Width(m.panelWidth()).Render(sb.String())
}

// pickerRows is the most list items an overlay shows at once; the
// window slides to keep the cursor visible.
const pickerRows = 10

func (m Model) renderSessionsPanel() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render(m.T("ui.sessions_title")))
	sb.WriteString("\n")

	filter := m.sessions.filter
	if filter == "" {
		sb.WriteString(m.theme.ListMeta.Render("/ " + m.T("ui.sessions_filter")))
	} else {
		sb.WriteString(m.theme.ListPrimary.Render("/ " + filter))
	}
	sb.WriteString("\n\n")

	visible := m.sessions.visible()
	if len(visible) == 0 {
		sb.WriteString(m.theme.ListMeta.Render(m.T("ui.sessions_empty")))
		sb.WriteString("\n")
	} else {
		start := pickerWindow(m.sessions.cursor, len(visible))
		for i := start; i < len(visible) && i < start+pickerRows; i++ {
			it := visible[i]
			title := it.Title
			if title == "" {
				title = m.T("session.untitled")
			}
			meta := fmt.Sprintf("%s · %d", it.UpdatedAt, it.MsgCount)
			if it.LocalOnly {
				meta += " · " + m.T("ui.offline_marker")
			}
			line := truncateRunes(title, 32) + "  " + m.theme.ListMeta.Render(meta)
			if i == m.sessions.cursor {
				sb.WriteString(m.theme.ListItemSelected.Render("> " + line))
			} else {
				sb.WriteString(m.theme.ListItem.Render("  " + line))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.ListMeta.Render(m.T("ui.overlay_hint")))
	return lipgloss.NewStyle().Width(m.panelWidth()).Render(sb.String())
}

func (m Model) renderDocumentsPanel() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render(m.T("ui.docs_title")))
	sb.WriteString("\n\n")

	if len(m.docs.items) == 0 {
		sb.WriteString(m.theme.ListMeta.Render(m.T("ui.docs_empty")))
		sb.WriteString("\n")
	} else {
		start := pickerWindow(m.docs.cursor, len(m.docs.items))
		for i := start; i < len(m.docs.items) && i < start+pickerRows; i++ {
			doc := m.docs.items[i]
			meta := fmt.Sprintf("%s · %d", humanSize(doc.SizeBytes), doc.ChunksCreated)
			if doc.Status != "" && doc.Status != "completed" {
				meta += " · " + doc.Status
			}
			line := truncateRunes(doc.Filename, 30) + "  " + m.theme.ListMeta.Render(meta)
			if i == m.docs.cursor {
				sb.WriteString(m.theme.ListItemSelected.Render("> " + line))
			} else {
				sb.WriteString(m.theme.ListItem.Render("  " + line))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.ListMeta.Render(m.T("ui.docs_hint")))
	return lipgloss.NewStyle().Width(m.panelWidth()).Render(sb.String())
}

func (m Model) renderLoginPanel() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render(m.T("ui.login_title")))
	sb.WriteString("\n\n")

	sb.WriteString(m.theme.ListMeta.Render(m.T("ui.login_email")))
	sb.WriteString("\n")
	sb.WriteString("  " + m.login.email.View())
	sb.WriteString("\n\n")

	sb.WriteString(m.theme.ListMeta.Render(m.T("ui.login_password")))
	sb.WriteString("\n")
	sb.WriteString("  " + m.login.password.View())
	sb.WriteString("\n\n")

	switch {
	case m.login.pending:
		sb.WriteString(m.theme.Spinner.Render(m.spinner.View()) + " " +
			m.theme.ListMeta.Render(m.T("ui.login_pending")))
	case m.login.errText != "":
		sb.WriteString(m.theme.ErrorMessage.Render(m.login.errText))
	default:
		sb.WriteString(m.theme.ListMeta.Render(m.T("ui.login_hint")))
	}

	return lipgloss.NewStyle().Width(clampInt(m.width-8, 30, 48)).Render(sb.String())
}

// pickerWindow returns the first visible index so the cursor stays in
// the window.
func pickerWindow(cursor, total int) int {
	if total <= pickerRows || cursor < pickerRows {
		return 0
	}
	start := cursor - pickerRows + 1
	if start > total-pickerRows {
		start = total - pickerRows
	}
	return start
}

// humanSize formats a byte count for list display.
func humanSize(n int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1fMB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1fKB", float64(n)/kb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// =============================================================================
// LINE OVERLAYS
// =============================================================================

// overlayAboveInput merges the completion popup into the base render,
// bottom-aligned to the top edge of the input area.
func (m Model) overlayAboveInput(base, popup string) string {
	popupLines := strings.Split(popup, "\n")
	startRow := m.height - inputAreaHeight - statusBarHeight - len(popupLines)
	if startRow < 0 {
		startRow = 0
	}

	baseLines := strings.Split(base, "\n")
	for i, pl := range popupLines {
		row := startRow + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		baseLines[row] = "  " + pl
	}
	return strings.Join(baseLines, "\n")
}

// overlayToasts merges the toast stack into the top-right corner of
// the base render without disturbing the rows beneath.
func (m Model) overlayToasts(base, stack string) string {
	stackLines := strings.Split(stack, "\n")
	baseLines := strings.Split(base, "\n")

	for i, tl := range stackLines {
		if i >= len(baseLines) || lipgloss.Width(tl) == 0 {
			continue
		}
		tw := lipgloss.Width(tl)
		cut := m.width - tw - 1
		if cut < 0 {
			cut = 0
		}
		left := truncateToWidth(baseLines[i], cut)
		if pad := cut - lipgloss.Width(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		baseLines[i] = left + tl
	}
	return strings.Join(baseLines, "\n")
}

// truncateToWidth cuts a rendered line to a visible width. Styled
// sequences have zero width, so this walks runes rather than bytes.
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	current := 0
	var out strings.Builder
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if current+rw > width {
			break
		}
		out.WriteRune(r)
		current += rw
	}
	return out.String()
}
