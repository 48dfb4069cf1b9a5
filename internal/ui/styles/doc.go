// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the nabi TUI.

This package defines the color palette and the lipgloss style set used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant messages and selections
  - Cyan - Brand color for info, commands, and user highlights
  - Emerald - Success states and the connected-backend indicator
  - Amber - Warnings and the offline mode indicator
  - Rose - Errors, failed replies, and critical warnings

## Semantic Colors

Message bubbles, tool results, and UI elements use semantic color tokens:

	UserBubbleBg      - Background for user messages
	AssistantBubbleBg - Background for assistant messages
	FailedBubbleBg    - Background for failed assistant replies
	SystemBubbleBg    - Background for system notices

## Surface Colors

Layered surface system for depth:

	Surface    - Main background
	SurfaceDim - Subtle backgrounds (headers, status bars)
	Overlay    - Borders, separators, popup frames

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct provides runtime color adaptation:

	theme := styles.NewTheme()
	if theme.IsDark {
		// Dark terminal detected
	}
	if theme.HasTrueColor {
		// Terminal supports 16M colors
	}

# Status Indicators

ASCII indicators for various states, readable without color:

	StatusIndicators.Success   - [OK]
	StatusIndicators.Error     - [X]
	StatusIndicators.Warning   - [!]
	StatusIndicators.Info      - [i]

# Usage Example

	import "github.com/jeranaias/nabi-tui/internal/ui/styles"

	// Use adaptive colors
	headerStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.TextPrimary)

	// Use the theme styles
	theme := styles.NewTheme()
	bubble := theme.UserBubble.Render("안녕하세요")
*/
package styles
