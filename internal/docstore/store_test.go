// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jeranaias/nabi-tui/internal/api"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDoc(id, hash string) *Document {
	return &Document{
		ID:            id,
		Filename:      "report.pdf",
		FileType:      "pdf",
		SHA256:        hash,
		SizeBytes:     2048,
		ChunksCreated: 4,
		TotalTokens:   900,
		UploadedAt:    "2025-06-01T12:00:00",
		Status:        "indexed",
	}
}

func TestStoreOpenInitializes(t *testing.T) {
	store := newTestStore(t)
	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("fresh cache holds %d documents", n)
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	doc := sampleDoc("doc-1", "abc123")

	if err := store.Put(doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get("doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *got != *doc {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, doc)
	}

	if _, err := store.Get("doc-missing"); err != ErrDocumentNotFound {
		t.Errorf("missing get = %v, want ErrDocumentNotFound", err)
	}
}

func TestStorePutUpserts(t *testing.T) {
	store := newTestStore(t)
	doc := sampleDoc("doc-1", "abc123")
	if err := store.Put(doc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	doc.Status = "reindexed"
	doc.ChunksCreated = 9
	if err := store.Put(doc); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	n, _ := store.Count()
	if n != 1 {
		t.Errorf("count = %d after upsert, want 1", n)
	}
	got, err := store.Get("doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != "reindexed" || got.ChunksCreated != 9 {
		t.Errorf("upsert did not replace: %+v", got)
	}
}

func TestStoreFindByHash(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(sampleDoc("doc-1", "deadbeef")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.FindByHash("deadbeef")
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if got.ID != "doc-1" {
		t.Errorf("found %q, want doc-1", got.ID)
	}

	if _, err := store.FindByHash("0000"); err != ErrDocumentNotFound {
		t.Errorf("unknown hash = %v, want ErrDocumentNotFound", err)
	}
	// Rows discovered via Sync have empty hashes; an empty probe must
	// never match them.
	if _, err := store.FindByHash(""); err != ErrDocumentNotFound {
		t.Errorf("empty hash = %v, want ErrDocumentNotFound", err)
	}
}

func TestStoreListOrder(t *testing.T) {
	store := newTestStore(t)

	older := sampleDoc("doc-old", "h1")
	older.UploadedAt = "2025-05-01T08:00:00"
	newer := sampleDoc("doc-new", "h2")
	newer.UploadedAt = "2025-06-15T08:00:00"
	for _, doc := range []*Document{older, newer} {
		if err := store.Put(doc); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	docs, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}
	if docs[0].ID != "doc-new" || docs[1].ID != "doc-old" {
		t.Errorf("order = [%s, %s], want newest first", docs[0].ID, docs[1].ID)
	}
}

func TestStoreDelete(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(sampleDoc("doc-1", "h")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := store.Delete("doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete("doc-1"); err != ErrDocumentNotFound {
		t.Errorf("second delete = %v, want ErrDocumentNotFound", err)
	}
}

func TestStoreReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Put(sampleDoc("doc-1", "h")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get("doc-1"); err != nil {
		t.Errorf("document lost across reopen: %v", err)
	}
}

// =============================================================================
// SYNC
// =============================================================================

func TestStoreSyncReconciles(t *testing.T) {
	store := newTestStore(t)

	// Locally uploaded doc the backend still has: the hash must survive.
	kept := sampleDoc("doc-kept", "keephash")
	// Stale local doc the backend no longer reports.
	stale := sampleDoc("doc-stale", "stalehash")
	for _, doc := range []*Document{kept, stale} {
		if err := store.Put(doc); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/documents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"documents": []map[string]any{
				{"id": "doc-kept", "filename": "report.pdf", "file_type": "pdf", "chunk_count": 6, "total_tokens": 1200, "upload_time": "2025-06-02T09:00:00"},
				{"id": "doc-remote", "filename": "notes.md", "file_type": "md", "chunk_count": 2, "total_tokens": 300, "upload_time": "2025-06-03T10:00:00"},
			},
		})
	}))
	defer srv.Close()

	updated, removed, err := store.Sync(context.Background(), api.NewClient(srv.URL))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := store.Get("doc-stale"); err != ErrDocumentNotFound {
		t.Error("stale document survived sync")
	}
	remote, err := store.Get("doc-remote")
	if err != nil {
		t.Fatalf("remote doc missing: %v", err)
	}
	if remote.SHA256 != "" {
		t.Errorf("sync-discovered doc has hash %q, want empty", remote.SHA256)
	}

	// Backend metadata refreshed, local hash preserved.
	keptAfter, err := store.Get("doc-kept")
	if err != nil {
		t.Fatalf("kept doc missing: %v", err)
	}
	if keptAfter.ChunksCreated != 6 {
		t.Errorf("chunks = %d, want refreshed 6", keptAfter.ChunksCreated)
	}
	if keptAfter.SHA256 != "keephash" {
		t.Errorf("local hash lost in sync: %q", keptAfter.SHA256)
	}
}

func TestStoreSyncBackendFailure(t *testing.T) {
	store := newTestStore(t)
	if err := store.Put(sampleDoc("doc-1", "h")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, _, err := store.Sync(context.Background(), api.NewClient(srv.URL)); err == nil {
		t.Fatal("Sync succeeded against failing backend")
	}
	// Cache untouched on failure.
	if _, err := store.Get("doc-1"); err != nil {
		t.Errorf("failed sync mutated cache: %v", err)
	}
}
