// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/nabi-tui/internal/api"
)

// newTestUploader wires an uploader to a fake backend with no pacing.
func newTestUploader(t *testing.T, handler http.HandlerFunc) (*Uploader, *Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := newTestStore(t)
	up := NewUploader(store, api.NewClient(srv.URL)).WithRateLimit(rate.Inf, 1)
	return up, store
}

// writeDropFile creates an upload candidate on disk.
func writeDropFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func uploadResponse(t *testing.T, w http.ResponseWriter, id, filename string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document_id":    id,
		"filename":       filename,
		"file_type":      "txt",
		"chunks_created": 3,
		"total_tokens":   450,
		"upload_time":    "2025-06-01T12:00:00",
		"status":         "indexed",
		"message":        "ok",
	})
}

func TestUploadHappyPath(t *testing.T) {
	var gotMeta map[string]any
	var gotFile string
	up, store := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/documents/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file part: %v", err)
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		gotFile = string(content)
		if header.Filename != "meeting-notes.txt" {
			t.Errorf("filename = %q", header.Filename)
		}
		if err := json.Unmarshal([]byte(r.FormValue("metadata")), &gotMeta); err != nil {
			t.Fatalf("metadata field: %v", err)
		}
		uploadResponse(t, w, "doc-42", header.Filename)
	})
	up.WithDeviceID("device-7").WithSessionSource(func() string { return "sess_abc" })

	path := writeDropFile(t, "meeting-notes.txt", "오늘 회의 내용 정리")
	ev := up.Upload(context.Background(), path)

	if ev.Kind != EventUploaded {
		t.Fatalf("kind = %d, want EventUploaded (err=%v)", ev.Kind, ev.Err)
	}
	if ev.Doc == nil || ev.Doc.ID != "doc-42" {
		t.Fatalf("doc = %+v", ev.Doc)
	}
	if gotFile != "오늘 회의 내용 정리" {
		t.Errorf("uploaded content = %q", gotFile)
	}

	sum := sha256.Sum256([]byte("오늘 회의 내용 정리"))
	wantHash := hex.EncodeToString(sum[:])
	if gotMeta["sha256"] != wantHash {
		t.Errorf("metadata sha256 = %v, want %v", gotMeta["sha256"], wantHash)
	}
	if gotMeta["original_name"] != "meeting-notes.txt" {
		t.Errorf("metadata original_name = %v", gotMeta["original_name"])
	}
	if gotMeta["device_id"] != "device-7" {
		t.Errorf("metadata device_id = %v", gotMeta["device_id"])
	}
	if gotMeta["session_id"] != "sess_abc" {
		t.Errorf("metadata session_id = %v", gotMeta["session_id"])
	}

	// The upload landed in the cache with its hash.
	cached, err := store.FindByHash(wantHash)
	if err != nil {
		t.Fatalf("uploaded doc not cached: %v", err)
	}
	if cached.ID != "doc-42" || cached.SizeBytes != int64(len("오늘 회의 내용 정리")) {
		t.Errorf("cached = %+v", cached)
	}
}

func TestUploadRejectedByValidation(t *testing.T) {
	var requests atomic.Int32
	up, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		uploadResponse(t, w, "doc-never", "x")
	})

	path := writeDropFile(t, "installer.exe", "MZ fake binary")
	ev := up.Upload(context.Background(), path)

	if ev.Kind != EventRejected {
		t.Fatalf("kind = %d, want EventRejected", ev.Kind)
	}
	if ev.MessageKey == "" {
		t.Error("rejection carries no message key")
	}
	if requests.Load() != 0 {
		t.Error("rejected file reached the backend")
	}
}

func TestUploadDuplicateSkipped(t *testing.T) {
	var requests atomic.Int32
	up, store := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		uploadResponse(t, w, "doc-never", "x")
	})

	content := "duplicate payload"
	sum := sha256.Sum256([]byte(content))
	existing := sampleDoc("doc-orig", hex.EncodeToString(sum[:]))
	if err := store.Put(existing); err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := writeDropFile(t, "copy.txt", content)
	ev := up.Upload(context.Background(), path)

	if ev.Kind != EventDuplicate {
		t.Fatalf("kind = %d, want EventDuplicate", ev.Kind)
	}
	if ev.Doc == nil || ev.Doc.ID != "doc-orig" {
		t.Errorf("duplicate event doc = %+v, want existing record", ev.Doc)
	}
	if requests.Load() != 0 {
		t.Error("duplicate reached the backend")
	}
}

func TestUploadTransportFailure(t *testing.T) {
	up, store := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"index unavailable"}`, http.StatusServiceUnavailable)
	})

	path := writeDropFile(t, "notes.txt", "some text")
	ev := up.Upload(context.Background(), path)

	if ev.Kind != EventFailed {
		t.Fatalf("kind = %d, want EventFailed", ev.Kind)
	}
	if ev.Err == nil {
		t.Error("failure event carries no error")
	}
	if n, _ := store.Count(); n != 0 {
		t.Errorf("failed upload cached %d documents", n)
	}
}

func TestUploadMissingFile(t *testing.T) {
	up, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend reached for unreadable file")
	})

	ev := up.Upload(context.Background(), filepath.Join(t.TempDir(), "vanished.txt"))
	if ev.Kind != EventFailed {
		t.Fatalf("kind = %d, want EventFailed", ev.Kind)
	}
}

func TestUploaderQueueWorker(t *testing.T) {
	up, _ := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		uploadResponse(t, w, "doc-queued", "queued.txt")
	})

	events := make(chan Event, 16)
	up.Subscribe(func(ev Event) { events <- ev })
	up.Start()
	defer up.Close()

	path := writeDropFile(t, "queued.txt", "queued content")
	up.Enqueue(path)

	wantKinds := []EventKind{EventQueued, EventUploaded}
	for _, want := range wantKinds {
		select {
		case ev := <-events:
			if ev.Kind != want {
				t.Fatalf("kind = %d, want %d (err=%v)", ev.Kind, want, ev.Err)
			}
			if ev.Path != path {
				t.Errorf("path = %q, want %q", ev.Path, path)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for event kind %d", want)
		}
	}
}
