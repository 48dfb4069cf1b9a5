// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist.
package validate

import (
	"net/url"
	"strings"
)

// allowedSchemes is the protocol allow-list for links rendered in
// assistant messages. Everything else - javascript:, data:, vbscript:,
// file: - is treated as hostile.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// URLProtocol reports whether raw carries an allowed scheme. Relative
// URLs, empty input, and anything unparseable are rejected: links in
// untrusted markdown must be absolute and explicitly safe.
func URLProtocol(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return allowedSchemes[strings.ToLower(u.Scheme)]
}
