// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "strings"

// validCommands lists every command word suggestions draw from.
// Aliases stay out so a typo maps to the canonical spelling.
var validCommands = []string{
	"ask",
	"chat",
	"login",
	"logout",
	"sessions",
	"docs",
	"locale",
	"export",
	"doctor",
	"version",
	"help",
}

// SuggestCommand returns the closest command to an unrecognized word,
// or "" when nothing is plausibly close. The edit-distance budget
// scales with input length so short words do not match everything.
func SuggestCommand(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	input = strings.TrimLeft(input, "-")
	if len(input) < 2 {
		return ""
	}

	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	best := ""
	bestDistance := maxDistance + 1
	for _, cmd := range validCommands {
		d := levenshteinDistance(input, cmd)
		if d < bestDistance {
			best = cmd
			bestDistance = d
		}
	}
	if bestDistance > maxDistance {
		return ""
	}
	return best
}

// levenshteinDistance computes edit distance with the two-row dynamic
// programming form, O(len(b)) space.
func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
