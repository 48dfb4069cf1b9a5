// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist.
package validate

import (
	"regexp"
	"strings"
)

// Message limits, mirroring the backend contract.
const (
	MaxMessageLength       = 2000
	MinMessageLength       = 1
	MaxConsecutiveSpaces   = 10
	MaxConsecutiveNewlines = 5
)

// criticalPatterns block submission outright. These match the
// backend's injection filter; sending them would only earn a 400.
var criticalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{.*?\}`),                     // template injection
	regexp.MustCompile(`(?i)<script`),                   // script tag
	regexp.MustCompile(`__import__\s*\(`),               // import injection
	regexp.MustCompile(`eval\s*\(`),                     // eval injection
	regexp.MustCompile(`exec\s*\(`),                     // exec injection
	regexp.MustCompile(`base64\.decode`),                // decode attempt
	regexp.MustCompile(`pickle\.loads`),                 // pickle injection
	regexp.MustCompile(`subprocess\.|os\.system|os\.popen`), // command injection
	regexp.MustCompile(`<\?php`),                        // PHP
	regexp.MustCompile(`<%.*?%>`),                       // JSP/ASP
}

// advisoryPatterns warn but never block: normal prose occasionally
// trips them, and the backend makes the final call anyway.
var advisoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(.+\)\*\*`),     // nested quantifiers
	regexp.MustCompile(`\[.+\]\{.*\}\+`), // ambiguous quantifier combos
	regexp.MustCompile(`.+\*\{.*\}`),     // star with brace quantifiers
}

// MessageResult reports whether a chat message may be submitted.
type MessageResult struct {
	Valid    bool
	Issue    *Issue  // the blocking finding, nil when Valid
	Warnings []Issue // advisory findings, submission still allowed
}

// Message validates chat input before dispatch. Length violations and
// critical patterns block; everything else is advisory.
func Message(content string) MessageResult {
	if strings.TrimSpace(content) == "" {
		return blocked(CodeMessageEmpty, "validate.message_empty")
	}
	if strings.ContainsRune(content, '\x00') {
		return blocked(CodeMessageBlocked, "validate.message_blocked")
	}
	if len([]rune(content)) > MaxMessageLength {
		return blocked(CodeMessageTooLong, "validate.message_too_long", MaxMessageLength)
	}
	for _, p := range criticalPatterns {
		if p.MatchString(content) {
			return blocked(CodeMessageBlocked, "validate.message_blocked")
		}
	}

	var warnings []Issue
	if strings.Contains(content, strings.Repeat(" ", MaxConsecutiveSpaces+1)) ||
		strings.Contains(content, strings.Repeat("\n", MaxConsecutiveNewlines+1)) {
		warnings = append(warnings, Issue{
			Code:       CodeMessageWhitespace,
			Severity:   SeverityWarning,
			MessageKey: "validate.message_whitespace",
		})
	}
	for _, p := range advisoryPatterns {
		if p.MatchString(content) {
			warnings = append(warnings, Issue{
				Code:       CodeMessageBlocked,
				Severity:   SeverityWarning,
				MessageKey: "validate.message_blocked",
			})
			break
		}
	}

	return MessageResult{Valid: true, Warnings: warnings}
}

func blocked(code, key string, args ...any) MessageResult {
	return MessageResult{
		Valid: false,
		Issue: &Issue{Code: code, Severity: SeverityError, MessageKey: key, Args: args},
	}
}

// TruncateMessage clips content to the maximum submittable length,
// rune-safe.
func TruncateMessage(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxMessageLength {
		return content
	}
	return string(runes[:MaxMessageLength])
}
