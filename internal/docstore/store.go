// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/nabi-tui/internal/api"
)

// Errors returned by the document cache.
var (
	ErrDocumentNotFound = errors.New("document not found")
)

// Document is the locally cached record of an indexed document. SHA256
// and SizeBytes are populated only for uploads made from this machine;
// rows learned through Sync carry backend metadata alone.
type Document struct {
	ID            string
	Filename      string
	FileType      string
	SHA256        string
	SizeBytes     int64
	ChunksCreated int
	TotalTokens   int
	UploadedAt    string
	Status        string
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed cache of uploaded document metadata. It
// gives the client an offline document listing and content-hash dedupe
// without a backend round trip.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns ~/.nabi/documents.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".nabi", "documents.db")
	}
	return filepath.Join(home, ".nabi", "documents.db")
}

// Open opens (creating if needed) the document cache at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document cache: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent upload and sync activity.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(initMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CRUD
// =============================================================================

// Put inserts or replaces a document record.
func (s *Store) Put(doc *Document) error {
	_, err := s.db.Exec(`
		INSERT INTO documents (id, filename, file_type, sha256, size_bytes, chunks_created, total_tokens, uploaded_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			file_type = excluded.file_type,
			sha256 = excluded.sha256,
			size_bytes = excluded.size_bytes,
			chunks_created = excluded.chunks_created,
			total_tokens = excluded.total_tokens,
			uploaded_at = excluded.uploaded_at,
			status = excluded.status
	`, doc.ID, doc.Filename, doc.FileType, doc.SHA256, doc.SizeBytes,
		doc.ChunksCreated, doc.TotalTokens, doc.UploadedAt, doc.Status)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

// Get returns one document by backend id.
func (s *Store) Get(id string) (*Document, error) {
	row := s.db.QueryRow(`
		SELECT id, filename, file_type, sha256, size_bytes, chunks_created, total_tokens, uploaded_at, status
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// FindByHash returns the document whose content hash matches, for
// dedupe before an upload. Returns ErrDocumentNotFound when no upload
// from this machine carried the hash.
func (s *Store) FindByHash(sha256 string) (*Document, error) {
	if sha256 == "" {
		return nil, ErrDocumentNotFound
	}
	row := s.db.QueryRow(`
		SELECT id, filename, file_type, sha256, size_bytes, chunks_created, total_tokens, uploaded_at, status
		FROM documents WHERE sha256 = ? LIMIT 1
	`, sha256)
	return scanDocument(row)
}

// List returns all cached documents, most recent upload first.
func (s *Store) List() ([]Document, error) {
	rows, err := s.db.Query(`
		SELECT id, filename, file_type, sha256, size_bytes, chunks_created, total_tokens, uploaded_at, status
		FROM documents ORDER BY uploaded_at DESC, filename ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.SHA256,
			&doc.SizeBytes, &doc.ChunksCreated, &doc.TotalTokens, &doc.UploadedAt, &doc.Status); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document from the local cache.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// Count returns the number of cached documents.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Filename, &doc.FileType, &doc.SHA256,
		&doc.SizeBytes, &doc.ChunksCreated, &doc.TotalTokens, &doc.UploadedAt, &doc.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return &doc, nil
}

// =============================================================================
// SYNC
// =============================================================================

// Sync reconciles the cache with the backend's document listing: rows
// the backend reports are upserted (keeping locally known hashes), rows
// it no longer reports are dropped. Returns how many records were
// added or updated and how many were removed.
func (s *Store) Sync(ctx context.Context, client *api.Client) (updated, removed int, err error) {
	remote, err := client.ListDocuments(ctx)
	if err != nil {
		return 0, 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin sync: %w", err)
	}
	defer tx.Rollback()

	seen := make(map[string]bool, len(remote))
	for _, info := range remote {
		seen[info.ID] = true
		res, err := tx.Exec(`
			INSERT INTO documents (id, filename, file_type, chunks_created, total_tokens, uploaded_at, status)
			VALUES (?, ?, ?, ?, ?, ?, 'indexed')
			ON CONFLICT(id) DO UPDATE SET
				filename = excluded.filename,
				file_type = excluded.file_type,
				chunks_created = excluded.chunks_created,
				total_tokens = excluded.total_tokens,
				uploaded_at = excluded.uploaded_at
		`, info.ID, info.Filename, info.FileType, info.ChunkCount, info.TotalTokens, info.UploadTime)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert document: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}

	// Drop records the backend no longer knows.
	rows, err := tx.Query(`SELECT id FROM documents`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to scan cache: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("failed to scan cache: %w", err)
		}
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to scan cache: %w", err)
	}

	for _, id := range stale {
		if _, err := tx.Exec(`DELETE FROM documents WHERE id = ?`, id); err != nil {
			return 0, 0, fmt.Errorf("failed to prune document: %w", err)
		}
		removed++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit sync: %w", err)
	}
	return updated, removed, nil
}
