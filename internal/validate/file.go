// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist.
package validate

import (
	"bytes"
	"strings"
)

// File size bounds, mirroring the backend contract.
const (
	MaxFileSizeBytes = 10 * 1024 * 1024
	MinFileSizeBytes = 1
)

// allowedTypes maps permitted extensions to their magic-byte
// signatures. Text formats have no signature and skip the check.
var allowedTypes = map[string][][]byte{
	"pdf":  {[]byte("%PDF-")},
	"docx": {{0x50, 0x4B, 0x03, 0x04}}, // ZIP container
	"txt":  nil,
	"md":   nil,
	"csv":  nil,
	"json": {[]byte("{"), []byte("[")},
}

// dangerousExtensions never upload, whatever the content claims.
var dangerousExtensions = map[string]bool{
	"exe": true, "bat": true, "cmd": true, "sh": true, "msi": true,
	"scr": true, "com": true, "pif": true, "vbs": true, "js": true,
	"jar": true, "app": true, "deb": true, "rpm": true, "dmg": true,
	"apk": true,
}

// FileResult reports the upload pre-flight verdict. Valid is false
// only for error-severity findings; warnings ride along.
type FileResult struct {
	Valid      bool
	Code       string
	Severity   Severity
	MessageKey string
	Args       []any
	Warnings   []Issue
}

// File validates an upload candidate. Checks run cheapest-first and
// stop at the first blocking finding; the magic-byte sniff is advisory
// only (downgraded because several valid producers write loose
// headers).
func File(filename string, content []byte) FileResult {
	if len(content) < MinFileSizeBytes {
		return fileError(CodeFileEmpty, "validate.file_empty")
	}
	if len(content) > MaxFileSizeBytes {
		return fileError(CodeFileTooLarge, "validate.file_too_large", MaxFileSizeBytes/(1024*1024))
	}

	// SECURITY: reject traversal sequences before the name reaches
	// any filesystem or backend path handling
	if strings.Contains(filename, "..") ||
		strings.ContainsAny(filename, `/\`) ||
		strings.ContainsRune(filename, '\x00') {
		return fileError(CodeInvalidFilename, "validate.file_bad_name")
	}

	ext := extensionOf(filename)
	if ext == "" {
		return fileError(CodeUnsupportedType, "validate.file_unsupported", "?")
	}
	if dangerousExtensions[ext] {
		return fileError(CodeSuspiciousExtension, "validate.file_suspicious_ext")
	}
	sigs, ok := allowedTypes[ext]
	if !ok {
		return fileError(CodeUnsupportedType, "validate.file_unsupported", "."+ext)
	}

	result := FileResult{Valid: true}
	if len(sigs) > 0 && !matchesMagic(content, sigs, ext) {
		result.Warnings = append(result.Warnings, Issue{
			Code:       CodeMagicMismatch,
			Severity:   SeverityWarning,
			MessageKey: "validate.file_magic_mismatch",
		})
	}
	return result
}

func fileError(code, key string, args ...any) FileResult {
	return FileResult{
		Valid:      false,
		Code:       code,
		Severity:   SeverityError,
		MessageKey: key,
		Args:       args,
	}
}

// extensionOf returns the lowercased extension without the dot, or ""
// when the name has none.
func extensionOf(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

// matchesMagic checks content against the known signatures for ext.
// docx is a ZIP container, so its signature check additionally looks
// for the office content-types entry near the start.
func matchesMagic(content []byte, sigs [][]byte, ext string) bool {
	for _, sig := range sigs {
		if bytes.HasPrefix(content, sig) {
			if ext != "docx" {
				return true
			}
			head := content
			if len(head) > 1000 {
				head = head[:1000]
			}
			if bytes.Contains(head, []byte("[Content_Types].xml")) {
				return true
			}
		}
	}
	// JSON tolerates leading whitespace before { or [.
	if ext == "json" {
		trimmed := bytes.TrimLeft(content, " \t\r\n")
		for _, sig := range sigs {
			if bytes.HasPrefix(trimmed, sig) {
				return true
			}
		}
	}
	return false
}

// AllowedExtensions lists the uploadable types for display.
func AllowedExtensions() []string {
	return []string{"csv", "docx", "json", "md", "pdf", "txt"}
}
