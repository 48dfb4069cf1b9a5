// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the nabi TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/nabi-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom status bar
// =============================================================================

// Status represents the current application status
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusLoading
	StatusError
	StatusIdle
)

// String returns the fallback display string for the status.
// Callers normally supply localized text via SetStatus.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	case StatusIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success // Checkmark for ready
	case StatusStreaming:
		return "~"
	case StatusLoading:
		return styles.StatusIndicators.Pending // Empty circle for loading
	case StatusError:
		return styles.StatusIndicators.Error // X mark for error
	case StatusIdle:
		return "-"
	default:
		return "?"
	}
}

// StatusBar represents the bottom status bar
type StatusBar struct {
	Connected       bool   // Whether the backend is reachable
	ConnectionLabel string // Localized connection text ("connected"/"offline")
	Account         string // Signed-in email or localized guest label
	SessionTitle    string // Current session title
	MessageCount    int    // Messages in the current session
	QueuedUploads   int    // Documents waiting in the upload queue
	Locale          string // Active locale code ("ko", "en")
	Status          Status // Current status
	StatusText      string // Localized status text (falls back to Status.String)
	Width           int    // Available width
	ShowShortcuts   bool   // Show keyboard shortcuts
	theme           *styles.Theme
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Connected:     false,
		Locale:        "ko",
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the current status with localized display text.
// Pass an empty text to fall back to the English default.
func (s *StatusBar) SetStatus(status Status, text string) {
	s.Status = status
	s.StatusText = text
}

// SetConnection updates the backend connection state.
func (s *StatusBar) SetConnection(connected bool, label string) {
	s.Connected = connected
	s.ConnectionLabel = label
}

// SetAccount updates the signed-in account display.
func (s *StatusBar) SetAccount(account string) {
	s.Account = account
}

// SetSession updates the current session title and message count.
func (s *StatusBar) SetSession(title string, messages int) {
	s.SessionTitle = title
	s.MessageCount = messages
}

// SetQueuedUploads updates the pending document upload count.
func (s *StatusBar) SetQueuedUploads(n int) {
	s.QueuedUploads = n
}

// SetLocale updates the displayed locale code.
func (s *StatusBar) SetLocale(locale string) {
	s.Locale = locale
}

// statusText returns the localized status text or the English fallback.
func (s *StatusBar) statusText() string {
	if s.StatusText != "" {
		return s.StatusText
	}
	return s.Status.String()
}

// View renders the status bar
func (s *StatusBar) View() string {
	// Choose layout based on width
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow renders a compact status bar for narrow terminals
// Format: [C|KO] uploads status
func (s *StatusBar) viewNarrow() string {
	parts := []string{}

	// Connection indicator (single character)
	connStyle := s.getConnectionStyle()
	if s.Connected {
		parts = append(parts, connStyle.Render("C"))
	} else {
		parts = append(parts, connStyle.Render("OFF"))
	}

	// Locale code
	localeStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Bold(true)
	parts = append(parts, localeStyle.Render(strings.ToUpper(s.Locale)))

	// Combine state section
	stateSection := "[" + strings.Join(parts, "|") + "]"

	// Pending uploads
	uploadSection := ""
	if s.QueuedUploads > 0 {
		uploadStyle := lipgloss.NewStyle().Foreground(styles.Amber)
		uploadSection = uploadStyle.Render("up:" + toStr(s.QueuedUploads))
	}

	// Status icon
	statusStyle := s.getStatusStyle()
	statusText := statusStyle.Render(s.Status.Icon())

	separator := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" ")

	result := stateSection + separator
	if uploadSection != "" {
		result += uploadSection + separator
	}
	result += statusText

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Width(s.Width).
		Render(result)
}

// viewMedium renders a medium-width status bar
// Format: connection | account | session | status
func (s *StatusBar) viewMedium() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	parts := []string{}

	// Connection state
	connStyle := s.getConnectionStyle()
	parts = append(parts, connStyle.Render(s.connectionLabel()))

	// Account
	if s.Account != "" {
		accountStyle := lipgloss.NewStyle().Foreground(styles.Cyan)
		parts = append(parts, accountStyle.Render(s.Account))
	}

	// Session title (truncated)
	// UNICODE: truncate by terminal cells so Hangul titles keep their width budget
	if s.SessionTitle != "" {
		title := runewidth.Truncate(s.SessionTitle, 20, "...")
		titleStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		parts = append(parts, titleStyle.Render(title))
	}

	// Pending uploads
	if s.QueuedUploads > 0 {
		uploadStyle := lipgloss.NewStyle().Foreground(styles.Amber)
		parts = append(parts, uploadStyle.Render("up:"+toStr(s.QueuedUploads)))
	}

	// Status
	statusStyle := s.getStatusStyle()
	parts = append(parts, statusStyle.Render(s.statusText()))

	result := strings.Join(parts, separator)

	// Apply background
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// viewWide renders a full-featured status bar for wide terminals
// Format: connection | account | locale ... session (N msgs) ... status shortcuts
func (s *StatusBar) viewWide() string {
	// Left section: connection, account, locale
	leftParts := []string{}

	connStyle := s.getConnectionStyle()
	leftParts = append(leftParts, connStyle.Render(s.connectionLabel()))

	if s.Account != "" {
		accountStyle := lipgloss.NewStyle().Foreground(styles.Cyan)
		leftParts = append(leftParts, accountStyle.Render(s.Account))
	}

	localeStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary).Bold(true)
	leftParts = append(leftParts, localeStyle.Render(strings.ToUpper(s.Locale)))

	if s.QueuedUploads > 0 {
		uploadStyle := lipgloss.NewStyle().Foreground(styles.Amber)
		leftParts = append(leftParts, uploadStyle.Render("up:"+toStr(s.QueuedUploads)))
	}

	leftSep := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
	leftSection := strings.Join(leftParts, leftSep)

	// Center section: session title and message count
	centerSection := ""
	if s.SessionTitle != "" {
		// UNICODE: truncate by terminal cells so Hangul titles keep their width budget
		title := runewidth.Truncate(s.SessionTitle, 32, "...")
		titleStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		countStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
		centerSection = titleStyle.Render(title) + " " +
			countStyle.Render("("+fmtNumber(s.MessageCount)+" msg)")
	}

	// Right section: status and shortcuts
	rightParts := []string{}

	statusStyle := s.getStatusStyle()
	rightParts = append(rightParts, statusStyle.Render(s.statusText()))

	if s.ShowShortcuts {
		rightParts = append(rightParts, s.renderShortcuts())
	}

	rightSection := strings.Join(rightParts, " ")

	// Calculate spacing
	leftWidth := lipgloss.Width(leftSection)
	centerWidth := lipgloss.Width(centerSection)
	rightWidth := lipgloss.Width(rightSection)
	totalContent := leftWidth + centerWidth + rightWidth

	// Add spacing between sections
	spacing := s.Width - totalContent - 4 // Account for padding
	if spacing < 4 {
		spacing = 4
	}

	leftSpace := strings.Repeat(" ", spacing/2)
	rightSpace := strings.Repeat(" ", spacing-spacing/2)

	result := leftSection + leftSpace + centerSection + rightSpace + rightSection

	// Apply styled border for wide view
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(styles.Overlay).
		Background(styles.SurfaceDim).
		Foreground(styles.TextSecondary).
		Padding(0, 1).
		Width(s.Width).
		Render(result)
}

// ==========================================================================
// HELPER RENDER METHODS
// ==========================================================================

// connectionLabel returns the localized connection text or an English fallback.
func (s *StatusBar) connectionLabel() string {
	if s.ConnectionLabel != "" {
		return s.ConnectionLabel
	}
	if s.Connected {
		return "connected"
	}
	return "offline"
}

// getConnectionStyle returns the style for the connection state
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users
func (s *StatusBar) getConnectionStyle() lipgloss.Style {
	if s.Connected {
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Bold(true)
}

// getStatusStyle returns the style for the current status
// ACCESSIBILITY: Uses high contrast colors with bold for colorblind users
func (s *StatusBar) getStatusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
	case StatusStreaming:
		return lipgloss.NewStyle().Foreground(styles.InfoHighContrast).Bold(true)
	case StatusLoading:
		return lipgloss.NewStyle().Foreground(styles.WarningHighContrast).Bold(true)
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
	case StatusIdle:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}

// renderShortcuts renders keyboard shortcut hints
func (s *StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted)

	shortcuts := []string{
		keyStyle.Render("^S") + descStyle.Render("sessions"),
		keyStyle.Render("^D") + descStyle.Render("docs"),
		keyStyle.Render("^C") + descStyle.Render("stop"),
	}

	return strings.Join(shortcuts, " ")
}
