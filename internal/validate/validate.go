// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist.
package validate

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. MessageKey addresses the i18n
// catalog; Args feed its format verbs.
type Issue struct {
	Code       string
	Severity   Severity
	MessageKey string
	Args       []any
}

// Finding codes.
const (
	CodeFileEmpty           = "FILE_EMPTY"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeInvalidFilename     = "INVALID_FILENAME"
	CodeSuspiciousExtension = "SUSPICIOUS_EXTENSION"
	CodeUnsupportedType     = "UNSUPPORTED_TYPE"
	CodeMagicMismatch       = "MAGIC_MISMATCH"

	CodeMessageEmpty      = "MESSAGE_EMPTY"
	CodeMessageTooLong    = "MESSAGE_TOO_LONG"
	CodeMessageBlocked    = "MESSAGE_BLOCKED"
	CodeMessageWhitespace = "MESSAGE_WHITESPACE"
)
