// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist.
package validate

import (
	"bytes"
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageLength(t *testing.T) {
	if r := Message(strings.Repeat("a", MaxMessageLength)); !r.Valid {
		t.Error("message at the limit should pass")
	}
	r := Message(strings.Repeat("a", MaxMessageLength+1))
	if r.Valid {
		t.Error("message over the limit should block")
	}
	if r.Issue == nil || r.Issue.Code != CodeMessageTooLong {
		t.Errorf("expected MESSAGE_TOO_LONG, got %+v", r.Issue)
	}
}

func TestMessageLengthCountsRunes(t *testing.T) {
	// 2000 Hangul syllables are 6000 bytes but exactly at the limit.
	if r := Message(strings.Repeat("가", MaxMessageLength)); !r.Valid {
		t.Error("rune count, not byte count, decides the limit")
	}
}

func TestMessageEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		r := Message(in)
		if r.Valid {
			t.Errorf("blank input %q should block", in)
		}
		if r.Issue.Code != CodeMessageEmpty {
			t.Errorf("expected MESSAGE_EMPTY for %q, got %s", in, r.Issue.Code)
		}
	}
}

func TestMessageCriticalPatternsBlock(t *testing.T) {
	blockedInputs := []string{
		"try ${jndi:ldap://x} now",
		"<script>alert(1)</script>",
		"<SCRIPT src=x>",
		"eval (payload)",
		"exec(rm)",
		"__import__ ('os')",
		"os.system('ls')",
		"<?php echo 1;",
		"<% out.print(1) %>",
		"null\x00byte",
	}
	for _, in := range blockedInputs {
		r := Message(in)
		if r.Valid {
			t.Errorf("input %q should block", in)
		}
	}
}

func TestMessageWhitespaceIsAdvisory(t *testing.T) {
	r := Message("a" + strings.Repeat(" ", MaxConsecutiveSpaces+1) + "b")
	if !r.Valid {
		t.Fatal("whitespace excess should warn, not block")
	}
	if len(r.Warnings) == 0 || r.Warnings[0].Code != CodeMessageWhitespace {
		t.Errorf("expected whitespace warning, got %+v", r.Warnings)
	}

	r = Message("a" + strings.Repeat("\n", MaxConsecutiveNewlines+1) + "b")
	if !r.Valid || len(r.Warnings) == 0 {
		t.Error("newline excess should warn, not block")
	}
}

func TestMessageNormalKorean(t *testing.T) {
	r := Message("기억해: 다음 주 화요일에 회의가 있어")
	if !r.Valid || len(r.Warnings) != 0 {
		t.Errorf("plain Korean input should pass cleanly: %+v", r)
	}
}

func TestTruncateMessage(t *testing.T) {
	long := strings.Repeat("나", MaxMessageLength+50)
	out := TruncateMessage(long)
	if len([]rune(out)) != MaxMessageLength {
		t.Errorf("expected %d runes, got %d", MaxMessageLength, len([]rune(out)))
	}
}

// =============================================================================
// FILE TESTS
// =============================================================================

func TestFileSizeBounds(t *testing.T) {
	r := File("doc.pdf", nil)
	if r.Valid || r.Code != CodeFileEmpty {
		t.Errorf("empty file: got %+v", r)
	}

	big := make([]byte, MaxFileSizeBytes+1)
	r = File("doc.txt", big)
	if r.Valid {
		t.Error("oversized file must be invalid")
	}
	if r.Code != CodeFileTooLarge || r.Severity != SeverityError {
		t.Errorf("expected FILE_TOO_LARGE error, got %+v", r)
	}

	exact := make([]byte, MaxFileSizeBytes)
	if r = File("doc.txt", exact); !r.Valid {
		t.Error("file exactly at the limit should pass")
	}
}

func TestFilenameTraversal(t *testing.T) {
	for _, name := range []string{"../etc/passwd.txt", "a/b.txt", `a\b.txt`, "evil\x00.txt"} {
		r := File(name, []byte("content"))
		if r.Valid {
			t.Errorf("filename %q should be invalid", name)
		}
		if r.Code != CodeInvalidFilename {
			t.Errorf("filename %q: expected INVALID_FILENAME, got %s", name, r.Code)
		}
	}
}

func TestDangerousExtension(t *testing.T) {
	for _, name := range []string{"setup.exe", "run.bat", "script.sh", "payload.js", "tool.jar"} {
		r := File(name, []byte("content"))
		if r.Valid {
			t.Errorf("%q should be invalid", name)
		}
		if r.Code != CodeSuspiciousExtension {
			t.Errorf("%q: expected SUSPICIOUS_EXTENSION, got %s", name, r.Code)
		}
	}
}

func TestUnsupportedExtension(t *testing.T) {
	r := File("image.png", []byte{0x89, 0x50, 0x4E, 0x47})
	if r.Valid || r.Code != CodeUnsupportedType {
		t.Errorf("png: got %+v", r)
	}
	if r = File("noext", []byte("x")); r.Valid || r.Code != CodeUnsupportedType {
		t.Errorf("extensionless: got %+v", r)
	}
}

func TestMagicByteMismatchIsWarning(t *testing.T) {
	// Claims PDF, is not a PDF.
	r := File("report.pdf", []byte("plain text content"))
	if !r.Valid {
		t.Fatal("magic mismatch must not invalidate the file")
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Code != CodeMagicMismatch {
		t.Errorf("expected MAGIC_MISMATCH warning, got %+v", r.Warnings)
	}
}

func TestMagicBytePositives(t *testing.T) {
	pdf := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{0x20}, 64)...)
	if r := File("doc.pdf", pdf); !r.Valid || len(r.Warnings) != 0 {
		t.Errorf("valid pdf flagged: %+v", r)
	}

	docx := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("......[Content_Types].xml......")...)
	if r := File("doc.docx", docx); !r.Valid || len(r.Warnings) != 0 {
		t.Errorf("valid docx flagged: %+v", r)
	}

	if r := File("data.json", []byte(`  {"k":1}`)); !r.Valid || len(r.Warnings) != 0 {
		t.Errorf("valid json flagged: %+v", r)
	}
	if r := File("data.json", []byte(`[1,2]`)); !r.Valid || len(r.Warnings) != 0 {
		t.Errorf("valid json array flagged: %+v", r)
	}

	// docx signature without the office marker warns.
	zipOnly := append([]byte{0x50, 0x4B, 0x03, 0x04}, bytes.Repeat([]byte{0}, 100)...)
	if r := File("doc.docx", zipOnly); len(r.Warnings) != 1 {
		t.Errorf("plain zip as docx should warn: %+v", r)
	}
}

func TestTextTypesSkipMagicCheck(t *testing.T) {
	for _, name := range []string{"notes.txt", "readme.md", "rows.csv"} {
		if r := File(name, []byte("any bytes at all")); !r.Valid || len(r.Warnings) != 0 {
			t.Errorf("%q: %+v", name, r)
		}
	}
}

func TestExtensionCaseInsensitive(t *testing.T) {
	if r := File("REPORT.PDF", []byte("%PDF-1.4")); !r.Valid {
		t.Errorf("uppercase extension rejected: %+v", r)
	}
	if r := File("SETUP.EXE", []byte("MZ")); r.Code != CodeSuspiciousExtension {
		t.Errorf("uppercase exe not caught: %+v", r)
	}
}

// =============================================================================
// URL PROTOCOL TESTS
// =============================================================================

func TestURLProtocol(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path?q=1",
		"mailto:user@example.com",
		"tel:+82-10-1234-5678",
		"HTTPS://EXAMPLE.COM",
	}
	for _, u := range valid {
		if !URLProtocol(u) {
			t.Errorf("%q should be allowed", u)
		}
	}

	invalid := []string{
		"javascript:alert(1)",
		"data:text/html;base64,PGh0bWw+",
		"vbscript:msgbox(1)",
		"file:///etc/passwd",
		"",
		"   ",
		"://missing-scheme",
		"relative/path",
		"ftp://example.com",
	}
	for _, u := range invalid {
		if URLProtocol(u) {
			t.Errorf("%q should be rejected", u)
		}
	}
}

// =============================================================================
// SESSION ID TESTS
// =============================================================================

func TestSessionID(t *testing.T) {
	valid := []string{
		"sess_0123456789abcdef",
		strings.Repeat("a", 16),
		strings.Repeat("Z", 256),
		"abc-def_123456789",
	}
	for _, id := range valid {
		if !SessionID(id) {
			t.Errorf("%q should be valid", id)
		}
	}

	invalid := []string{
		"short",
		strings.Repeat("a", 15),
		strings.Repeat("a", 257),
		"../../../etc/passwd_",
		"has space 0123456789",
		"null\x00byte0123456789",
		"한글세션아이디_12345678",
	}
	for _, id := range invalid {
		if SessionID(id) {
			t.Errorf("%q should be invalid", id)
		}
	}
}

// =============================================================================
// METADATA TESTS
// =============================================================================

func TestSanitizeMetadataStripsNullBytes(t *testing.T) {
	out := SanitizeMetadata(map[string]any{"data": "test\x00value"})
	if out["data"] != "testvalue" {
		t.Errorf("null byte survived: %q", out["data"])
	}
}

func TestSanitizeMetadataTruncatesStrings(t *testing.T) {
	out := SanitizeMetadata(map[string]any{"v": strings.Repeat("x", 2000)})
	if len(out["v"].(string)) != MaxMetadataStringLength {
		t.Errorf("string not truncated: %d", len(out["v"].(string)))
	}
}

func TestSanitizeMetadataDropsLongKeys(t *testing.T) {
	out := SanitizeMetadata(map[string]any{
		strings.Repeat("k", MaxMetadataKeyLength+1): "v",
		"ok": "v",
	})
	if len(out) != 1 || out["ok"] != "v" {
		t.Errorf("long key handling wrong: %v", out)
	}
}

func TestSanitizeMetadataCapsDepth(t *testing.T) {
	deep := map[string]any{}
	cursor := deep
	for i := 0; i < MaxMetadataDepth+5; i++ {
		next := map[string]any{}
		cursor["n"] = next
		cursor = next
	}
	cursor["leaf"] = "value"

	out := SanitizeMetadata(deep)
	depth := 0
	for m := out; ; depth++ {
		next, ok := m["n"].(map[string]any)
		if !ok {
			break
		}
		m = next
	}
	if depth > MaxMetadataDepth {
		t.Errorf("nesting depth %d exceeds cap", depth)
	}
}

func TestSanitizeMetadataNil(t *testing.T) {
	out := SanitizeMetadata(nil)
	if out == nil || len(out) != 0 {
		t.Errorf("nil input should produce empty map, got %v", out)
	}
}

func TestMetadataJSONSize(t *testing.T) {
	if !MetadataJSONSize(map[string]any{"k": "v"}) {
		t.Error("small metadata should pass")
	}
	huge := map[string]any{}
	for i := 0; i < 200; i++ {
		huge[strings.Repeat("k", 50)+string(rune('a'+i%26))+string(rune('a'+i/26))] = strings.Repeat("v", 900)
	}
	if MetadataJSONSize(huge) {
		t.Error("oversized metadata should fail")
	}
}
