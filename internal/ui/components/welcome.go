// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the nabi TUI.
package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/nabi-tui/internal/ui/styles"
)

// =============================================================================
// WELCOME SCREEN MODEL
// =============================================================================

// Welcome is the welcome screen shown before the first message is sent.
type Welcome struct {
	// Display info
	version  string
	account  string // signed-in email, empty when anonymous
	locale   string // display name of the active language
	server   string // backend host the client talks to
	docCount int

	// Localized labels with English fallbacks, set by the caller.
	Tagline      string
	AccountLabel string
	GuestLabel   string
	LocaleLabel  string
	ServerLabel  string
	DocsLabel    string
	PressKeyText string

	// Dimensions
	width  int
	height int

	// Theme
	theme *styles.Theme
}

// NewWelcome creates a new welcome screen.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{
		version:      "dev",
		locale:       "한국어 (ko)",
		AccountLabel: "Account:",
		GuestLabel:   "not signed in",
		LocaleLabel:  "Language:",
		ServerLabel:  "Server:",
		DocsLabel:    "Documents:",
		PressKeyText: "Press any key to start chatting...",
		theme:        theme,
	}
}

// SetVersion sets the version string.
func (w *Welcome) SetVersion(version string) {
	w.version = version
}

// SetAccount sets the signed-in account email. Empty means anonymous.
func (w *Welcome) SetAccount(email string) {
	w.account = email
}

// SetLocale sets the display name of the active language.
func (w *Welcome) SetLocale(display string) {
	w.locale = display
}

// SetServer sets the backend host label.
func (w *Welcome) SetServer(host string) {
	w.server = host
}

// SetDocCount sets the number of indexed documents.
func (w *Welcome) SetDocCount(n int) {
	w.docCount = n
}

// SetSize updates the dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the welcome screen.
func (w Welcome) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (w Welcome) Update(msg tea.Msg) (Welcome, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
	}
	return w, nil
}

// View renders the welcome screen.
// Responsive: adapts to terminal size, minimum 80x24 supported.
func (w Welcome) View() string {
	width := w.width
	if width == 0 {
		width = 80
	}
	height := w.height
	if height == 0 {
		height = 24
	}

	theme := w.theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	// Calculate box width - responsive to terminal width
	boxWidth := 62
	if width < 70 {
		boxWidth = width - 8
	}
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	// Adjust padding for narrow terminals
	horizontalPadding := 4
	verticalPadding := 1
	if width < 70 {
		horizontalPadding = 2
	}

	// Box overhead: 2 (border top/bottom) + 2*verticalPadding
	boxOverhead := 2 + 2*verticalPadding

	// Available lines for content inside the box
	availableContentLines := height - boxOverhead

	// Build the content based on available space.
	// Logo: 5 lines, tagline: 1, info: 3-4 lines, key hints: 3,
	// press key: 1, plus the section spacing.
	var content string
	var contentLines int

	switch {
	case availableContentLines >= 20:
		// Full layout with double newlines and key hints
		content = w.renderLogo(theme)
		content += "\n\n" + w.renderVersion(theme)
		content += "\n\n" + w.renderAccountInfo(theme)
		content += "\n\n" + w.renderKeyHints(theme)
		content += "\n\n" + w.renderPressKey(theme)
		contentLines = 5 + 2 + 1 + 2 + 4 + 2 + 3 + 2 + 1
	case availableContentLines >= 14:
		// Compact: single newlines between sections, no key hints
		content = w.renderLogo(theme)
		content += "\n" + w.renderVersion(theme)
		content += "\n" + w.renderAccountInfo(theme)
		content += "\n" + w.renderPressKey(theme)
		contentLines = 5 + 1 + 1 + 1 + 4 + 1 + 1
	case availableContentLines >= 10:
		// Very compact: use compact logo, minimal spacing
		content = w.renderLogoCompact(theme)
		content += "\n" + w.renderVersion(theme)
		content += "\n" + w.renderAccountInfo(theme)
		content += "\n" + w.renderPressKey(theme)
		contentLines = 3 + 1 + 1 + 1 + 4 + 1 + 1
	default:
		// Ultra compact: minimal content
		content = w.renderLogoCompact(theme)
		content += "\n" + w.renderAccountInfoCompact(theme)
		content += "\n" + w.renderPressKey(theme)
		contentLines = 3 + 1 + 1 + 1 + 1
	}

	// If still too tight, remove vertical padding
	if contentLines+boxOverhead > height {
		verticalPadding = 0
		boxOverhead = 2
	}

	box := theme.WelcomeBox.
		Padding(verticalPadding, horizontalPadding).
		Width(boxWidth).
		Render(content)

	boxHeight := lipgloss.Height(box)

	// Align to top when the box is taller than the terminal, so the
	// logo is never cut off.
	if boxHeight >= height {
		return lipgloss.Place(
			width, height,
			lipgloss.Center, lipgloss.Top,
			box,
		)
	}

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// renderLogo renders the ASCII art logo (5 lines).
// Responsive: uses the compact logo for narrow terminals.
func (w Welcome) renderLogo(theme *styles.Theme) string {
	// Full ASCII art is ~22 chars wide, needs ~30 with box padding
	if w.width >= 44 || w.width == 0 {
		logo := `             _     _
 _ __   __ _| |__ (_)
| '_ \ / _` + "`" + ` | '_ \| |
| | | | (_| | |_) | |
|_| |_|\__,_|_.__/|_|`
		return theme.WelcomeLogo.Render(logo)
	}

	return w.renderLogoCompact(theme)
}

// renderLogoCompact renders a compact text-based logo (3 lines).
func (w Welcome) renderLogoCompact(theme *styles.Theme) string {
	if w.width >= 36 || w.width == 0 {
		return theme.WelcomeLogo.Render(`+--------------------+
|        nabi        |
+--------------------+`)
	}

	// Simple text logo for very narrow terminals - 1 line
	return theme.WelcomeLogo.Render("nabi")
}

// renderVersion renders the version subtitle.
func (w Welcome) renderVersion(theme *styles.Theme) string {
	tagline := w.Tagline
	if tagline == "" {
		tagline = "AI assistant"
	}
	return theme.WelcomeVersion.Render(tagline + " v" + w.version)
}

// renderAccountInfo renders account, language, server, and document
// info (4 lines).
func (w Welcome) renderAccountInfo(theme *styles.Theme) string {
	labelStyle := theme.WelcomeInfo.Width(12)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	account := valueStyle.Render(w.account)
	if w.account == "" {
		account = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render(w.GuestLabel)
	}

	server := w.server
	if server == "" {
		server = "-"
	}

	lines := []string{
		labelStyle.Render(w.AccountLabel) + account,
		labelStyle.Render(w.LocaleLabel) + valueStyle.Render(w.locale),
		labelStyle.Render(w.ServerLabel) + valueStyle.Render(server),
		labelStyle.Render(w.DocsLabel) + valueStyle.Render(toStr(w.docCount)),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderAccountInfoCompact renders a single-line account summary.
func (w Welcome) renderAccountInfoCompact(theme *styles.Theme) string {
	valueStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)

	account := w.account
	if account == "" {
		account = w.GuestLabel
	}

	return valueStyle.Render(account) + theme.WelcomeInfo.Render(" | "+w.locale)
}

// renderKeyHints renders the starter key bindings (3 lines).
func (w Welcome) renderKeyHints(theme *styles.Theme) string {
	keyStyle := theme.WelcomeKey.Width(10)
	descStyle := theme.WelcomeInfo

	lines := []string{
		keyStyle.Render("Enter") + descStyle.Render("Send a message"),
		keyStyle.Render("/help") + descStyle.Render("List commands"),
		keyStyle.Render("Ctrl+S") + descStyle.Render("Saved chats"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderPressKey renders the "press any key" prompt.
func (w Welcome) renderPressKey(theme *styles.Theme) string {
	return theme.WelcomePressKey.Render(w.PressKeyText)
}

// =============================================================================
// KEYBOARD SHORTCUT HELP
// =============================================================================

// KeyboardShortcuts returns a formatted list of keyboard shortcuts.
func KeyboardShortcuts() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary)

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send message"},
		{"Ctrl+C", "Stop response / quit"},
		{"Ctrl+S", "Saved chats"},
		{"Ctrl+D", "Documents"},
		{"Ctrl+L", "New chat"},
		{"Tab", "Complete command"},
		{"Esc", "Dismiss overlay"},
		{"PgUp/PgDn", "Scroll messages"},
	}

	lines := make([]string, len(shortcuts))
	for i, s := range shortcuts {
		lines[i] = keyStyle.Render(s.key) + descStyle.Render(s.desc)
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true)

	return titleStyle.Render("Keyboard Shortcuts") + "\n" +
		lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// =============================================================================
// WELCOME OVERLAY
// =============================================================================

// WelcomeOverlay creates a centered welcome overlay for use over other content.
func WelcomeOverlay(width, height int, version string) string {
	w := NewWelcome(styles.NewTheme())
	w.SetVersion(version)
	w.SetSize(width, height)

	overlay := lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(w.View())

	return overlay
}
