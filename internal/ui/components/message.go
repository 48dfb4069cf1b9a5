// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the nabi TUI.
package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/nabi-tui/internal/model"
	"github.com/jeranaias/nabi-tui/internal/ui/styles"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer wraps a glamour terminal renderer, rebuilding it only
// when the wrap width changes.
type MarkdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownRenderer creates a markdown renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render renders markdown content wrapped at the given width.
// Falls back to the raw content if rendering fails.
func (m *MarkdownRenderer) Render(content string, width int) string {
	if width < 20 {
		width = 20
	}

	if m.renderer == nil || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		m.renderer = r
		m.width = width
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}

	// Glamour pads with leading/trailing newlines; the bubble adds its own.
	return strings.Trim(out, "\n")
}

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble represents a styled message bubble
type MessageBubble struct {
	Message        *model.Message
	Width          int
	ShowTimestamp  bool
	Markdown       bool   // Render final assistant content as markdown
	UserLabel      string // Localized role label for user messages
	AssistantLabel string // Localized role label for assistant messages
	TypingLabel    string // Localized typing indicator text
	SpinnerFrame   string // Current spinner frame for the typing indicator
	markdown       *MarkdownRenderer
	theme          *styles.Theme
}

// NewMessageBubble creates a new MessageBubble
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	if msg == nil {
		msg = &model.Message{Role: model.RoleAssistant}
	}
	return &MessageBubble{
		Message:        msg,
		Width:          80,
		ShowTimestamp:  true,
		UserLabel:      "you",
		AssistantLabel: "assistant",
		theme:          theme,
	}
}

// SetWidth sets the bubble width
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUserBubble()
	case model.RoleAssistant:
		return b.renderAssistantBubble()
	default:
		return b.renderGenericBubble()
	}
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned feel
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.DisplayContent()
	if content == "" {
		content = "..."
	}

	// Word wrap the content
	maxContentWidth := b.Width - 12 // Account for margins and padding
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	// Calculate actual content width (for the bubble)
	contentWidth := minInt(lipgloss.Width(wrappedContent)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		Width(contentWidth)

	bubble := bubbleStyle.Render(wrappedContent)

	// Role indicator - subtle, not bold
	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	roleIndicator := roleStyle.Render(b.UserLabel)

	// Timestamp (dimmed)
	timestamp := ""
	if b.ShowTimestamp {
		timestamp = b.renderTimestamp()
	}

	// Build the header (role + timestamp)
	headerParts := []string{roleIndicator}
	if timestamp != "" {
		headerParts = append(headerParts, timestamp)
	}
	header := strings.Join(headerParts, " ")

	// Right-align the bubble with left margin
	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}

	marginStyle := lipgloss.NewStyle().MarginLeft(leftMargin)

	// Assemble: header above, bubble below (right-aligned)
	headerLine := marginStyle.Render(header)
	bubbleLine := marginStyle.Render(bubble)

	return lipgloss.JoinVertical(lipgloss.Right, headerLine, bubbleLine)
}

// ==========================================================================
// ASSISTANT BUBBLE - Purple tones, left-aligned
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	msg := b.Message

	// An empty pending message renders as the typing indicator, not a bubble.
	if msg.Pending && msg.IsEmpty() {
		return b.renderTypingIndicator()
	}

	content := msg.DisplayContent()

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	var rendered string
	switch {
	case msg.Pending:
		// Streaming: plain text with a cursor. Markdown is applied once the
		// message finalizes; partial markup renders unstably mid-stream.
		rendered = wordWrap(content, maxContentWidth) + b.renderStreamingCursor()
	case msg.Failed:
		// Error explanations are plain localized text.
		rendered = wordWrap(content, maxContentWidth)
	case b.Markdown:
		if b.markdown == nil {
			b.markdown = NewMarkdownRenderer()
		}
		rendered = b.markdown.Render(content, maxContentWidth)
	default:
		// Plain-text mode still gets highlighted code blocks.
		rendered = ParseCodeBlocks(wordWrap(content, maxContentWidth), maxContentWidth)
	}

	if rendered == "" {
		rendered = "..."
	}

	contentWidth := minInt(lipgloss.Width(rendered)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		Width(contentWidth).
		MarginRight(4)

	if msg.Failed {
		bubbleStyle = lipgloss.NewStyle().
			Foreground(styles.FailedBubbleFg).
			Background(styles.FailedBubbleBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.FailedBubbleBorder).
			Padding(0, 2).
			Width(contentWidth).
			MarginRight(4)
	}

	bubble := bubbleStyle.Render(rendered)

	// Role indicator with optional agent tag
	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	roleIndicator := roleStyle.Render(b.AssistantLabel)

	if msg.Agent != "" {
		agentStyle := lipgloss.NewStyle().
			Foreground(styles.Purple).
			Italic(true)
		roleIndicator += roleStyle.Render(" / ") + agentStyle.Render(msg.Agent)
	}

	if msg.Failed {
		errStyle := lipgloss.NewStyle().
			Foreground(styles.ErrorHighContrast).
			Bold(true)
		roleIndicator += " " + errStyle.Render(styles.StatusIndicators.Error)
	}

	// Timestamp
	timestamp := ""
	if b.ShowTimestamp {
		timestamp = b.renderTimestamp()
	}

	headerParts := []string{roleIndicator}
	if timestamp != "" {
		headerParts = append(headerParts, timestamp)
	}
	header := strings.Join(headerParts, " ")

	// Tool invocation chips (final messages only)
	toolLine := ""
	if !msg.Pending && len(msg.ToolResults) > 0 {
		toolLine = b.renderToolResults()
	}

	result := lipgloss.JoinVertical(lipgloss.Left, header, bubble)
	if toolLine != "" {
		result = lipgloss.JoinVertical(lipgloss.Left, result, toolLine)
	}

	return result
}

// renderTypingIndicator renders the spinner shown while the assistant has
// produced no tokens yet.
func (b *MessageBubble) renderTypingIndicator() string {
	label := b.TypingLabel
	if label == "" {
		label = "Typing..."
	}

	spinnerStyle := lipgloss.NewStyle().Foreground(styles.Purple)
	textStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true)

	frame := b.SpinnerFrame
	if frame == "" {
		frame = "..."
	}

	return spinnerStyle.Render(frame) + " " + textStyle.Render(label)
}

// renderToolResults renders one compact line per tool invocation.
// ACCESSIBILITY: Shape indicators distinguish success from failure
// independent of color.
func (b *MessageBubble) renderToolResults() string {
	var lines []string

	for _, tr := range b.Message.ToolResults {
		var iconStyle lipgloss.Style
		var icon string

		if tr.Success {
			iconStyle = lipgloss.NewStyle().Foreground(styles.SuccessHighContrast).Bold(true)
			icon = styles.StatusIndicators.Success
		} else {
			iconStyle = lipgloss.NewStyle().Foreground(styles.ErrorHighContrast).Bold(true)
			icon = styles.StatusIndicators.Error
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.TextSecondary)
		line := "  " + iconStyle.Render(icon) + " " + nameStyle.Render(tr.Tool)

		// Failed tools show a short reason when the backend provided one
		if !tr.Success && tr.Output != "" {
			detailStyle := lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
			line += " " + detailStyle.Render(runewidth.Truncate(tr.Output, 40, "..."))
		}

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// ==========================================================================
// GENERIC BUBBLE - Fallback for unknown roles
// ==========================================================================

func (b *MessageBubble) renderGenericBubble() string {
	content := b.Message.DisplayContent()
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 10
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	if maxContentWidth > b.Width-2 {
		maxContentWidth = b.Width - 2
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 2)

	return bubbleStyle.Render(wrappedContent)
}

// ==========================================================================
// HELPER METHODS
// ==========================================================================

// renderTimestamp renders a dimmed timestamp
func (b *MessageBubble) renderTimestamp() string {
	timestampStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	ts := b.Message.CreatedAt
	if ts.IsZero() {
		return ""
	}

	// Format: "12:34 PM" or "Jan 5, 12:34 PM"
	now := time.Now()
	var formatted string

	if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
		// Same day - just show time
		formatted = formatTime(ts)
	} else {
		// Different day - show date and time
		formatted = formatDate(ts) + ", " + formatTime(ts)
	}

	return timestampStyle.Render(formatted)
}

// renderStreamingCursor renders the streaming cursor animation
func (b *MessageBubble) renderStreamingCursor() string {
	cursorStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Blink(true)

	return cursorStyle.Render("_")
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// wordWrap wraps text to fit within the specified width.
// UNICODE: widths are terminal cells, not runes, so Hangul (2 cells per
// syllable) wraps at the right column.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]
		currentWidth := runewidth.StringWidth(currentLine)

		for _, word := range words[1:] {
			w := runewidth.StringWidth(word)
			if currentWidth+1+w <= width {
				currentLine += " " + word
				currentWidth += 1 + w
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
				currentWidth = w
			}
		}

		result.WriteString(currentLine)
	}

	return result.String()
}

// minInt returns the minimum of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// formatTime formats a time as "3:04 PM"
func formatTime(t time.Time) string {
	hour := t.Hour()
	minute := t.Minute()
	ampm := "AM"

	if hour >= 12 {
		ampm = "PM"
		if hour > 12 {
			hour -= 12
		}
	}
	if hour == 0 {
		hour = 12
	}

	minuteStr := strconv.Itoa(minute)
	if minute < 10 {
		minuteStr = "0" + minuteStr
	}

	return strconv.Itoa(hour) + ":" + minuteStr + " " + ampm
}

// formatDate formats a date as "Jan 5"
func formatDate(t time.Time) string {
	months := []string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}

	month := months[t.Month()-1]
	day := t.Day()

	return month + " " + strconv.Itoa(day)
}

// =============================================================================
// MESSAGE LIST COMPONENT - For rendering multiple messages
// =============================================================================

// MessageList represents a list of message bubbles
type MessageList struct {
	Messages       []*model.Message
	Width          int
	ShowTimestamps bool
	Markdown       bool   // Render final assistant content as markdown
	UserLabel      string // Localized role label for user messages
	AssistantLabel string // Localized role label for assistant messages
	TypingLabel    string // Localized typing indicator text
	SpinnerFrame   string // Current spinner frame for the typing indicator
	EmptyText      string // Localized empty-session hint
	markdown       *MarkdownRenderer
	theme          *styles.Theme
}

// NewMessageList creates a new MessageList
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Messages:       []*model.Message{},
		Width:          80,
		ShowTimestamps: true,
		Markdown:       true,
		UserLabel:      "you",
		AssistantLabel: "assistant",
		markdown:       NewMarkdownRenderer(),
		theme:          theme,
	}
}

// SetMessages sets the messages to display
func (ml *MessageList) SetMessages(messages []*model.Message) {
	ml.Messages = messages
}

// SetWidth sets the list width
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// View renders all messages
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		// Empty state
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(2, 0)

		text := ml.EmptyText
		if text == "" {
			text = "No messages yet. Start a conversation!"
		}
		return emptyStyle.Render(text)
	}

	var bubbles []string

	for _, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.theme)
		bubble.SetWidth(ml.Width)
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.Markdown = ml.Markdown
		bubble.UserLabel = ml.UserLabel
		bubble.AssistantLabel = ml.AssistantLabel
		bubble.TypingLabel = ml.TypingLabel
		bubble.SpinnerFrame = ml.SpinnerFrame
		bubble.markdown = ml.markdown

		bubbles = append(bubbles, bubble.View())
	}

	// Add spacing between messages
	separator := "\n"

	return strings.Join(bubbles, separator)
}
