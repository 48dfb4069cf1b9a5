// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import "testing"

func TestParseRemember(t *testing.T) {
	cmd := Parse("기억해: 회의 내용")
	if cmd.Kind != Remember {
		t.Fatalf("kind = %v, want Remember", cmd.Kind)
	}
	if cmd.Content != "회의 내용" {
		t.Errorf("content = %q, want %q", cmd.Content, "회의 내용")
	}
}

func TestParseRememberAlt(t *testing.T) {
	cmd := Parse("기억해줘: 내 생일은 3월 5일")
	if cmd.Kind != Remember || cmd.Content != "내 생일은 3월 5일" {
		t.Errorf("got %+v", cmd)
	}
}

func TestParseRememberEmptyPayload(t *testing.T) {
	cmd := Parse("기억해:   ")
	if cmd.Kind != Remember || cmd.Content != "" {
		t.Errorf("got %+v", cmd)
	}
}

func TestParseRecall(t *testing.T) {
	// Verb-final phrasing: the phrase may sit mid-sentence.
	cmd := Parse("너 알고 있니? 내 생일")
	if cmd.Kind != Recall {
		t.Fatalf("kind = %v, want Recall", cmd.Kind)
	}
	if cmd.Content != "내 생일" {
		t.Errorf("query = %q, want %q", cmd.Content, "내 생일")
	}
}

func TestParseRecallNoTrailingQuery(t *testing.T) {
	cmd := Parse("내 생일 알고 있니?")
	if cmd.Kind != Recall || cmd.Content != "" {
		t.Errorf("got %+v", cmd)
	}
}

func TestParseForget(t *testing.T) {
	cmd := Parse("잊어줘: 어제 한 말")
	if cmd.Kind != Forget || cmd.Content != "어제 한 말" {
		t.Errorf("got %+v", cmd)
	}
}

func TestParseSummarize(t *testing.T) {
	for _, in := range []string{"요약해줘", "지금까지 대화 요약해줘"} {
		cmd := Parse(in)
		if cmd.Kind != Summarize {
			t.Errorf("%q: kind = %v, want Summarize", in, cmd.Kind)
		}
		if cmd.Content != "" {
			t.Errorf("%q: summarize carries no payload, got %q", in, cmd.Content)
		}
	}
}

func TestParsePriority(t *testing.T) {
	// A remember prefix wins even when the body mentions other triggers.
	cmd := Parse("기억해: 요약해줘라는 말은 요약 명령이다")
	if cmd.Kind != Remember {
		t.Errorf("kind = %v, want Remember", cmd.Kind)
	}
}

func TestParseNone(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"안녕하세요",
		"오늘 날씨 어때?",
		"기억해 줘",    // no colon
		"기억 해: 내용", // broken prefix
		"remember: this",
	} {
		if cmd := Parse(in); cmd.Kind != None {
			t.Errorf("%q: kind = %v, want None", in, cmd.Kind)
		}
	}
}

func TestParseLeadingWhitespace(t *testing.T) {
	cmd := Parse("  기억해: 공백 앞뒤  ")
	if cmd.Kind != Remember || cmd.Content != "공백 앞뒤" {
		t.Errorf("got %+v", cmd)
	}
}

func TestIsCommand(t *testing.T) {
	if !IsCommand("잊어줘: 전부") {
		t.Error("forget should be a command")
	}
	if IsCommand("평범한 질문입니다") {
		t.Error("plain chat is not a command")
	}
}

func TestKindString(t *testing.T) {
	pairs := map[Kind]string{
		None: "none", Remember: "remember", Recall: "recall",
		Forget: "forget", Summarize: "summarize",
	}
	for k, want := range pairs {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestStatusKey(t *testing.T) {
	if key := (Command{Kind: Recall}).StatusKey(); key != "memory.recalling" {
		t.Errorf("got %q", key)
	}
	if key := (Command{Kind: None}).StatusKey(); key != "" {
		t.Errorf("none should map to empty key, got %q", key)
	}
}
