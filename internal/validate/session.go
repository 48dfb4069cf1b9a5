// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist.
package validate

import "regexp"

// Session ID bounds, mirroring the backend contract.
const (
	SessionIDMinLength = 16
	SessionIDMaxLength = 256
)

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SessionID reports whether id satisfies the backend's session-id
// rule: 16-256 characters of [A-Za-z0-9_-]. The charset alone rules
// out traversal sequences and null bytes.
func SessionID(id string) bool {
	if len(id) < SessionIDMinLength || len(id) > SessionIDMaxLength {
		return false
	}
	return sessionIDPattern.MatchString(id)
}
