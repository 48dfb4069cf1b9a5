// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import "strings"

// Kind identifies the memory operation a message requests.
type Kind int

const (
	// None means the message is ordinary chat.
	None Kind = iota
	// Remember stores the payload as a long-term memory.
	Remember
	// Recall searches stored memories for the payload.
	Recall
	// Forget removes memories matching the payload.
	Forget
	// Summarize condenses the current conversation.
	Summarize
)

// String returns the wire name used by the backend memory agent.
func (k Kind) String() string {
	switch k {
	case Remember:
		return "remember"
	case Recall:
		return "recall"
	case Forget:
		return "forget"
	case Summarize:
		return "summarize"
	default:
		return "none"
	}
}

// Command is a detected memory operation and its payload.
type Command struct {
	Kind    Kind
	Content string
}

// Trigger phrases. Prefix triggers include the colon so that the payload
// boundary is unambiguous; containment triggers match anywhere because
// Korean sentence order puts the verb last.
const (
	triggerRemember    = "기억해:"
	triggerRememberAlt = "기억해줘:"
	triggerRecall      = "알고 있니?"
	triggerForget      = "잊어줘:"
	triggerSummarize   = "요약해줘"
)

// Parse inspects a chat message for a memory command. Messages that match
// no trigger return a Command with Kind None. Matching is checked in
// priority order: remember, recall, forget, summarize.
func Parse(text string) Command {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Command{Kind: None}
	}

	if rest, ok := strings.CutPrefix(trimmed, triggerRemember); ok {
		return Command{Kind: Remember, Content: strings.TrimSpace(rest)}
	}
	if rest, ok := strings.CutPrefix(trimmed, triggerRememberAlt); ok {
		return Command{Kind: Remember, Content: strings.TrimSpace(rest)}
	}

	if strings.Contains(trimmed, triggerRecall) {
		// The query, when present, follows the question phrase.
		_, after, _ := strings.Cut(trimmed, triggerRecall)
		return Command{Kind: Recall, Content: strings.TrimSpace(after)}
	}

	if rest, ok := strings.CutPrefix(trimmed, triggerForget); ok {
		return Command{Kind: Forget, Content: strings.TrimSpace(rest)}
	}

	if strings.Contains(trimmed, triggerSummarize) {
		return Command{Kind: Summarize}
	}

	return Command{Kind: None}
}

// IsCommand reports whether text is any memory command.
func IsCommand(text string) bool {
	return Parse(text).Kind != None
}

// StatusKey returns the i18n catalog key for the transient status line
// shown while the backend processes the command.
func (c Command) StatusKey() string {
	switch c.Kind {
	case Remember:
		return "memory.remembered"
	case Recall:
		return "memory.recalling"
	case Forget:
		return "memory.forgotten"
	case Summarize:
		return "memory.summarizing"
	default:
		return ""
	}
}
