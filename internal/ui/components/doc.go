// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the nabi TUI application.

This package contains a collection of styled, interactive components built on
top of the Bubble Tea and Lip Gloss libraries. Each component is designed to
be visually polished and consistent with the nabi design language.

# Core Components

## Conversation Components

MessageBubble (message.go) - Styled chat bubbles for user and assistant messages,
including the typing indicator, streaming cursor, agent tags, and tool chips.
MessageList (message.go) - Renders a full conversation with a shared Markdown renderer.
CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma.

## Input Components

CompletionPopup (completion.go) - Tab completion popup for slash commands.
Fuzzy matching helpers (fuzzy.go) - Scored matching for filtering saved chats.

## Display Components

StatusBar (statusbar.go) - Bottom status bar with connection, account, session,
upload queue, and locale segments.
Welcome (welcome.go) - First-run welcome screen.

## Feedback Components

Toast (toast.go) - Transient notifications with auto-dismiss and retry hints.
ToastManager (toast.go) - Stacks and expires active toasts.

# Key Types

## Theme Integration

All components accept a *styles.Theme for consistent styling:

	theme := styles.NewTheme()
	bar := components.NewStatusBar(theme)
	bar.SetWidth(80)
	bar.SetConnection(true, "연결됨")
	view := bar.View()

## Localization

Components never resolve message keys themselves. Callers inject already
localized strings (labels, status text, empty-state hints), so the package
stays usable without a localizer wired in. All width math runs on terminal
cells rather than runes, keeping Hangul layouts aligned.

## Bubble Tea Integration

Stateful components implement the Bubble Tea Model interface:

	type Component interface {
		Init() tea.Cmd
		Update(tea.Msg) (Component, tea.Cmd)
		View() string
	}

# Helper Functions

The package includes shared helper functions in helpers.go:
  - toStr() - Integer to string conversion without fmt
  - fmtNumber() - Thousand-separated number formatting
*/
package components
