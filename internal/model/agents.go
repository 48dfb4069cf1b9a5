// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
package model

import "strings"

// =============================================================================
// AGENT INFO TYPE
// =============================================================================

// AgentInfo describes one backend agent as reported by the agents
// endpoint. The backend's list is authoritative; the registry below
// only supplies display affordances for the well-known set.
type AgentInfo struct {
	// Name is the agent identifier used in stream events
	Name string `json:"name"`

	// Description is a short human-readable summary
	Description string `json:"description"`

	// Tools lists the tool names the agent may invoke
	Tools []string `json:"tools,omitempty"`
}

// =============================================================================
// AGENT REGISTRY
// =============================================================================

// agentBadges maps well-known agent names to the short badge shown in
// the status bar and next to assistant messages.
var agentBadges = map[string]string{
	"supervisor": "SUP",
	"chat":       "CHAT",
	"code":       "CODE",
	"web_search": "WEB",
	"rag":        "DOCS",
}

// AgentBadge returns a short display badge for an agent name.
// Unknown agents fall back to an uppercased prefix of the name.
func AgentBadge(name string) string {
	if badge, ok := agentBadges[name]; ok {
		return badge
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	upper := strings.ToUpper(name)
	runes := []rune(upper)
	if len(runes) > 4 {
		return string(runes[:4])
	}
	return upper
}

// KnownAgent reports whether the agent name is part of the well-known
// backend set. Used only to decide badge styling, never to filter.
func KnownAgent(name string) bool {
	_, ok := agentBadges[name]
	return ok
}
