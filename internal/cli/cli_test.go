// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/memory"
	"github.com/jeranaias/nabi-tui/internal/session"
)

// =============================================================================
// PARSE
// =============================================================================

func TestParseArgsDefaults(t *testing.T) {
	cmd, args := ParseArgs(nil)
	if cmd != CmdTUI {
		t.Fatalf("no args = %v, want CmdTUI", cmd)
	}
	if args.JSON || args.Quiet || args.Plain {
		t.Error("flags must default to false")
	}
}

func TestParseArgsPlainFlipsDefault(t *testing.T) {
	cmd, args := ParseArgs([]string{"--plain"})
	if cmd != CmdChat {
		t.Fatalf("--plain = %v, want CmdChat", cmd)
	}
	if !args.Plain {
		t.Error("Plain flag not recorded")
	}
}

func TestParseArgsCommands(t *testing.T) {
	cases := []struct {
		argv []string
		want Command
	}{
		{[]string{"ask", "hello"}, CmdAsk},
		{[]string{"chat"}, CmdChat},
		{[]string{"repl"}, CmdChat},
		{[]string{"login"}, CmdLogin},
		{[]string{"signin"}, CmdLogin},
		{[]string{"logout"}, CmdLogout},
		{[]string{"sessions", "list"}, CmdSessions},
		{[]string{"session", "list"}, CmdSessions},
		{[]string{"docs", "upload", "a.pdf"}, CmdDocs},
		{[]string{"documents"}, CmdDocs},
		{[]string{"locale", "set", "en"}, CmdLocale},
		{[]string{"lang", "get"}, CmdLocale},
		{[]string{"export", "sess_1"}, CmdExport},
		{[]string{"doctor"}, CmdDoctor},
		{[]string{"version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"--version"}, CmdVersion},
		{[]string{"-h"}, CmdHelp},
	}
	for _, tc := range cases {
		cmd, _ := ParseArgs(tc.argv)
		if cmd != tc.want {
			t.Errorf("ParseArgs(%v) = %v, want %v", tc.argv, cmd, tc.want)
		}
	}
}

func TestParseArgsRestPreserved(t *testing.T) {
	cmd, args := ParseArgs([]string{"--json", "sessions", "delete", "sess_1", "--confirm"})
	if cmd != CmdSessions {
		t.Fatalf("cmd = %v, want CmdSessions", cmd)
	}
	if !args.JSON {
		t.Error("global --json lost")
	}
	want := []string{"delete", "sess_1", "--confirm"}
	if len(args.Rest) != len(want) {
		t.Fatalf("Rest = %v, want %v", args.Rest, want)
	}
	for i := range want {
		if args.Rest[i] != want[i] {
			t.Errorf("Rest[%d] = %q, want %q", i, args.Rest[i], want[i])
		}
	}
}

func TestParseArgsUnknownCommand(t *testing.T) {
	cmd, args := ParseArgs([]string{"sesions", "list"})
	if cmd != CmdHelp {
		t.Fatalf("unknown command = %v, want CmdHelp", cmd)
	}
	if args.Unknown != "sesions" {
		t.Errorf("Unknown = %q, want %q", args.Unknown, "sesions")
	}
}

func TestParseArgsUnknownFlag(t *testing.T) {
	cmd, args := ParseArgs([]string{"--frobnicate"})
	if cmd != CmdHelp {
		t.Fatalf("unknown flag = %v, want CmdHelp", cmd)
	}
	if args.Unknown != "--frobnicate" {
		t.Errorf("Unknown = %q", args.Unknown)
	}
}

func TestParseArgsKoreanQuery(t *testing.T) {
	cmd, args := ParseArgs([]string{"ask", "서울", "날씨", "어때?"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v, want CmdAsk", cmd)
	}
	got := NewArgParser(args.Rest).JoinFrom(0)
	if got != "서울 날씨 어때?" {
		t.Errorf("query = %q", got)
	}
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParserFlagForms(t *testing.T) {
	p := NewArgParser([]string{"upload", "notes.pdf", "--session", "sess_1", "--format=json"})
	if p.Subcommand() != "upload" {
		t.Errorf("subcommand = %q", p.Subcommand())
	}
	if p.Positional(1) != "notes.pdf" {
		t.Errorf("positional = %q", p.Positional(1))
	}
	if p.Flag("session") != "sess_1" {
		t.Errorf("--session value = %q", p.Flag("session"))
	}
	if p.Flag("format") != "json" {
		t.Errorf("--format= value = %q", p.Flag("format"))
	}
}

func TestArgParserBoolFlagsDoNotEatValues(t *testing.T) {
	p := NewArgParser([]string{"delete", "--confirm", "sess_1"})
	if !p.BoolFlag("confirm") {
		t.Error("--confirm not parsed as bool")
	}
	if p.Positional(1) != "sess_1" {
		t.Errorf("positional after bool flag = %q, want sess_1", p.Positional(1))
	}
}

func TestArgParserExplicitBool(t *testing.T) {
	p := NewArgParser([]string{"--metadata=false"})
	if p.BoolFlag("metadata") {
		t.Error("--metadata=false must read as false")
	}
	if !p.HasFlag("metadata") {
		t.Error("flag presence lost")
	}
}

func TestArgParserJoinFrom(t *testing.T) {
	p := NewArgParser([]string{"오늘", "뭐", "먹지?"})
	if got := p.JoinFrom(0); got != "오늘 뭐 먹지?" {
		t.Errorf("JoinFrom = %q", got)
	}
	if got := p.JoinFrom(5); got != "" {
		t.Errorf("out of range JoinFrom = %q", got)
	}
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

func TestSuggestCommand(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"sesions", "sessions"},
		{"sessoins", "sessions"},
		{"asks", "ask"},
		{"aks", ""}, // 3 letters only get a budget of 1 edit
		{"dcos", "docs"},
		{"doctro", "doctor"},
		{"exprot", "export"},
		{"lgoin", "login"},
		{"xyzzy", ""},
		{"a", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SuggestCommand(tc.input); got != tc.want {
			t.Errorf("SuggestCommand(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"ask", "ask", 0},
		{"ask", "", 3},
		{"kitten", "sitting", 3},
		{"docs", "dcos", 2},
		{"export", "exprot", 2},
	}
	for _, tc := range cases {
		if got := levenshteinDistance(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("anything"), ExitGeneralError},
		{NewValidationError("x", "y", "z", ""), ExitUsageError},
		{NewNotFoundError("session", "sess_1"), ExitNotFound},
		{&api.ChatError{Kind: api.KindNetwork}, ExitNetworkError},
		{&api.ChatError{Kind: api.KindTimeout}, ExitTimeout},
		{&api.ChatError{Kind: api.KindRateLimit}, ExitRateLimited},
		{&api.ChatError{Kind: api.KindServer}, ExitGeneralError},
		{api.ErrNotConfigured, ExitConfigError},
		{auth.ErrNotSignedIn, ExitAuthError},
		{auth.ErrInvalidCredentials, ExitAuthError},
		{session.ErrNotFound, ExitNotFound},
		{os.ErrNotExist, ExitNotFound},
	}
	for _, tc := range cases {
		if got := GetExitCode(tc.err); got != tc.want {
			t.Errorf("GetExitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestGetExitCodeUnwrapsCommandError(t *testing.T) {
	err := NewCommandError("ask", "stream", &api.ChatError{Kind: api.KindRateLimit})
	if got := GetExitCode(err); got != ExitRateLimited {
		t.Errorf("wrapped ChatError = %d, want %d", got, ExitRateLimited)
	}
}

// =============================================================================
// JSON ENVELOPE
// =============================================================================

func TestJSONResponseShape(t *testing.T) {
	r := NewJSONResponse("sessions", []string{"a"})
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["success"] != true {
		t.Error("success envelope must set success=true")
	}
	if decoded["command"] != "sessions" {
		t.Errorf("command = %v", decoded["command"])
	}
	if _, ok := decoded["error"]; ok {
		t.Error("success envelope must omit error")
	}
}

func TestJSONErrorResponseShape(t *testing.T) {
	r := NewJSONErrorResponse("docs", errors.New("boom"))
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["success"] != false {
		t.Error("error envelope must set success=false")
	}
	if decoded["error"] != "boom" {
		t.Errorf("error = %v", decoded["error"])
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func TestShortID(t *testing.T) {
	if got := shortID("sess_a1b2c3d4e5"); got != "sess_a1b" {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("short input changed: %q", got)
	}
}

func TestTruncateTextHangulWidth(t *testing.T) {
	// Hangul syllables are two display cells each.
	got := truncateText("안녕하세요 반갑습니다", 10)
	if got == "안녕하세요 반갑습니다" {
		t.Fatal("expected truncation")
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("no ellipsis: %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.n); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	if got := formatRelativeTime(now.Add(-30 * time.Second)); got != "just now" {
		t.Errorf("recent = %q", got)
	}
	if got := formatRelativeTime(now.Add(-3 * time.Hour)); got != "3h ago" {
		t.Errorf("hours = %q", got)
	}
	if got := formatRelativeTime(time.Time{}); got != "-" {
		t.Errorf("zero time = %q", got)
	}
}

// =============================================================================
// INPUT ASSEMBLY
// =============================================================================

func TestCombineWithContext(t *testing.T) {
	if got := combineWithContext("질문", ""); got != "질문" {
		t.Errorf("no piped input: %q", got)
	}
	if got := combineWithContext("", "본문"); got != "본문" {
		t.Errorf("piped only: %q", got)
	}
	combined := combineWithContext("요약해줘", "본문 내용")
	if !strings.Contains(combined, "요약해줘") || !strings.Contains(combined, "본문 내용") {
		t.Errorf("combined lost content: %q", combined)
	}
}

func TestMemoryStatusLocalizes(t *testing.T) {
	loc := i18n.New("en")
	cmd := memory.Parse("기억해: 내 생일은 3월 5일")
	if cmd.Kind != memory.Remember {
		t.Fatalf("kind = %v", cmd.Kind)
	}
	got := memoryStatus(loc, cmd)
	if !strings.Contains(got, "내 생일은 3월 5일") {
		t.Errorf("payload missing from status: %q", got)
	}
}

func TestCommandString(t *testing.T) {
	if CmdAsk.String() != "ask" || CmdDoctor.String() != "doctor" {
		t.Error("command words drifted from the CLI surface")
	}
	if CmdTUI.String() != "tui" {
		t.Errorf("CmdTUI = %q", CmdTUI.String())
	}
}
