// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
package chat

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// STREAM BATCHER TESTS
// =============================================================================

func TestNewStreamBatcher(t *testing.T) {
	b := NewStreamBatcher()

	if b == nil {
		t.Fatal("NewStreamBatcher returned nil")
	}

	interval, maxChars := b.Config()
	if interval != 50*time.Millisecond {
		t.Errorf("Expected default flush interval 50ms, got %v", interval)
	}
	if maxChars != 100 {
		t.Errorf("Expected default max chars 100, got %d", maxChars)
	}
}

func TestStreamBatcherWrite(t *testing.T) {
	b := NewStreamBatcher()

	b.Write("안녕")
	b.Write("하세요")
	b.Write("!")

	// Pending counts runes, not bytes.
	if pending := b.Pending(); pending != 6 {
		t.Errorf("Expected 6 pending characters, got %d", pending)
	}
}

func TestStreamBatcherFlushBySize(t *testing.T) {
	// Size threshold 5, long interval so only size can trigger.
	b := NewStreamBatcherWithConfig(time.Hour, 5)

	b.Write("abc")

	if _, hasContent := b.Flush(); hasContent {
		t.Error("Should not flush below the size threshold")
	}

	b.Write("def")

	content, hasContent := b.Flush()
	if !hasContent {
		t.Error("Should flush once the buffer exceeds the size threshold")
	}
	if content != "abcdef" {
		t.Errorf("Expected flushed content 'abcdef', got '%s'", content)
	}

	if pending := b.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending characters after flush, got %d", pending)
	}
}

func TestStreamBatcherFlushByTime(t *testing.T) {
	// Large size threshold so only elapsed time can trigger.
	b := NewStreamBatcherWithConfig(20*time.Millisecond, 10000)

	b.Write("가")

	if _, hasContent := b.Flush(); hasContent {
		t.Error("Should not flush immediately")
	}

	time.Sleep(25 * time.Millisecond)

	content, hasContent := b.Flush()
	if !hasContent {
		t.Error("Should flush after the interval elapses")
	}
	if content != "가" {
		t.Errorf("Expected flushed content '가', got '%s'", content)
	}
}

func TestStreamBatcherEmptyNeverFlushes(t *testing.T) {
	b := NewStreamBatcherWithConfig(time.Nanosecond, 1)

	time.Sleep(time.Millisecond)

	if b.ShouldFlush() {
		t.Error("An empty batcher should never report a due flush")
	}
	if _, hasContent := b.Flush(); hasContent {
		t.Error("An empty batcher should never release content")
	}
}

func TestStreamBatcherForceFlush(t *testing.T) {
	b := NewStreamBatcher()

	b.Write("마지막")

	content, hasContent := b.ForceFlush()
	if !hasContent {
		t.Error("ForceFlush should return buffered content")
	}
	if content != "마지막" {
		t.Errorf("Expected '마지막', got '%s'", content)
	}

	if pending := b.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending after force flush, got %d", pending)
	}

	if _, hasContent := b.ForceFlush(); hasContent {
		t.Error("Second ForceFlush should find nothing")
	}
}

func TestStreamBatcherReset(t *testing.T) {
	b := NewStreamBatcher()

	b.Write("abc")
	b.Reset()

	if pending := b.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending after reset, got %d", pending)
	}
	if _, hasContent := b.ForceFlush(); hasContent {
		t.Error("Reset should discard buffered content")
	}
}

func TestStreamBatcherOrderPreserved(t *testing.T) {
	b := NewStreamBatcherWithConfig(time.Hour, 8)

	tokens := []string{"점심", " 메뉴", " 추천", "해", " 드릴게요", "."}
	var drained strings.Builder

	for _, tok := range tokens {
		b.Write(tok)
		if content, hasContent := b.Flush(); hasContent {
			drained.WriteString(content)
		}
	}
	if content, hasContent := b.ForceFlush(); hasContent {
		drained.WriteString(content)
	}

	expected := "점심 메뉴 추천해 드릴게요."
	if drained.String() != expected {
		t.Errorf("Expected '%s', got '%s'", expected, drained.String())
	}
}

func TestStreamBatcherConcurrency(t *testing.T) {
	b := NewStreamBatcher()

	// Writer simulates the stream goroutine, reader the update loop.
	done := make(chan bool)
	go func() {
		for i := 0; i < 200; i++ {
			b.Write("x")
		}
		done <- true
	}()
	go func() {
		for i := 0; i < 50; i++ {
			b.Flush()
			time.Sleep(time.Millisecond)
		}
		done <- true
	}()

	<-done
	<-done

	// Everything written must eventually drain, in one piece or many.
	total := 0
	if content, hasContent := b.ForceFlush(); hasContent {
		total = len(content)
	}
	if total > 200 {
		t.Errorf("Drained more than was written: %d", total)
	}
}

func TestStreamBatcherTickDrainLoop(t *testing.T) {
	// Simulates the update loop: tokens arrive in bursts, the tick
	// handler drains on a fixed cadence, and the final force flush
	// catches the tail.
	b := NewStreamBatcherWithConfig(5*time.Millisecond, 20)

	reply := "나비가 문서를 찾아봤어요. 오늘 날씨는 맑고 기온은 24도입니다."
	var rebuilt strings.Builder

	for _, r := range reply {
		b.Write(string(r))
		if content, hasContent := b.Flush(); hasContent {
			rebuilt.WriteString(content)
		}
	}
	if content, hasContent := b.ForceFlush(); hasContent {
		rebuilt.WriteString(content)
	}

	if rebuilt.String() != reply {
		t.Errorf("Reassembled reply differs:\nwant %q\ngot  %q", reply, rebuilt.String())
	}
}
