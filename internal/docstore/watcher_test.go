// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// startWatcher wires a watcher over a fresh temp dir with a shortened
// stability window and returns the enqueue channel.
func startWatcher(t *testing.T, stability time.Duration) (string, <-chan string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "drop")
	enqueued := make(chan string, 16)
	w, err := NewWatcher(dir, func(path string) { enqueued <- path })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.WithStability(stability)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return dir, enqueued
}

func waitForPath(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("enqueued %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("file %q never enqueued", want)
	}
}

func TestWatcherQueuesStableFile(t *testing.T) {
	dir, enqueued := startWatcher(t, 200*time.Millisecond)

	path := filepath.Join(dir, "dropped.txt")
	if err := os.WriteFile(path, []byte("dropped content"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitForPath(t, enqueued, path)

	// One drop, one enqueue.
	select {
	case extra := <-enqueued:
		t.Errorf("unexpected second enqueue: %q", extra)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherWaitsForWriteQuiet(t *testing.T) {
	dir, enqueued := startWatcher(t, 600*time.Millisecond)

	path := filepath.Join(dir, "slow-copy.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Simulate a copy in progress: writes every 100ms.
	for i := 0; i < 4; i++ {
		if _, err := f.WriteString("chunk\n"); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := f.Sync(); err != nil {
			t.Fatalf("sync: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	// Still being written: must not be enqueued yet.
	select {
	case got := <-enqueued:
		t.Fatalf("file enqueued mid-write: %q", got)
	default:
	}
	f.Close()

	// After the writes stop, the stability window elapses and the
	// complete file is queued.
	waitForPath(t, enqueued, path)
}

func TestWatcherIgnoresHiddenAndTempFiles(t *testing.T) {
	dir, enqueued := startWatcher(t, 150*time.Millisecond)

	for _, name := range []string{".hidden", "draft.tmp", "download.part", "backup~"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	real := filepath.Join(dir, "document.txt")
	if err := os.WriteFile(real, []byte("real content"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitForPath(t, enqueued, real)
	select {
	case got := <-enqueued:
		t.Errorf("ignored file enqueued: %q", got)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherPicksUpPreexistingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "drop")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	preexisting := filepath.Join(dir, "already-there.txt")
	if err := os.WriteFile(preexisting, []byte("waiting"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	enqueued := make(chan string, 16)
	w, err := NewWatcher(dir, func(path string) { enqueued <- path })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.WithStability(150 * time.Millisecond)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close()

	waitForPath(t, enqueued, preexisting)
}

func TestWatcherRemovalCancelsPending(t *testing.T) {
	dir, enqueued := startWatcher(t, 400*time.Millisecond)

	path := filepath.Join(dir, "ephemeral.txt")
	if err := os.WriteFile(path, []byte("gone soon"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case got := <-enqueued:
		t.Errorf("removed file enqueued: %q", got)
	case <-time.After(time.Second):
	}
}
