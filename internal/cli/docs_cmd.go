// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/nabi-tui/internal/docstore"
)

// docsTimeout bounds each backend document call.
const docsTimeout = 60 * time.Second

// HandleDocs manages the knowledge-base documents.
//
// Command: nabi docs <subcommand>
// Subcommands:
//
//	list            show the cached document listing (default)
//	upload <file>   validate, dedupe, and upload a document
//	delete <id>     remove a document from the index and the cache
//	sync            reconcile the local cache with the backend
//
// Examples:
//
//	nabi docs upload 회의록.pdf
//	nabi docs list --json
//	nabi docs delete 3f2a90 --confirm
func HandleDocs(args Args) error {
	parser := NewArgParser(args.Rest)

	switch parser.Subcommand() {
	case "", "list", "ls":
		return docsList(args)
	case "upload", "add":
		return docsUpload(parser.Positional(1), args)
	case "delete", "rm":
		return docsDelete(parser.Positional(1), parser.BoolFlag("confirm"), args)
	case "sync":
		return docsSync(args)
	default:
		return NewValidationError("subcommand", parser.Subcommand(),
			"expected list, upload, delete, or sync", "nabi docs list")
	}
}

// =============================================================================
// LIST
// =============================================================================

// docsList prints the local cache, which works offline. `docs sync`
// first when the listing looks stale.
func docsList(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	store, err := app.Documents()
	if err != nil {
		return err
	}
	docs, err := store.List()
	if err != nil {
		return NewCommandError("docs", "list", err)
	}

	if args.JSON {
		out := make([]DocData, 0, len(docs))
		for _, d := range docs {
			out = append(out, DocData{
				ID:         d.ID,
				Filename:   d.Filename,
				FileType:   d.FileType,
				Chunks:     d.ChunksCreated,
				SizeBytes:  d.SizeBytes,
				UploadedAt: d.UploadedAt,
			})
		}
		return OutputJSON("docs", out)
	}

	if len(docs) == 0 {
		fmt.Println(dimStyle.Render(app.Loc.T("ui.docs_empty")))
		return nil
	}

	fmt.Println(titleStyle.Render(app.Loc.T("ui.docs_title")))
	for _, d := range docs {
		size := "-"
		if d.SizeBytes > 0 {
			size = formatBytes(d.SizeBytes)
		}
		fmt.Println("  " +
			padText(shortID(d.ID), 10) +
			padText(d.Filename, 36) +
			padText(d.FileType, 6) +
			padText(fmt.Sprintf("%d chunks", d.ChunksCreated), 12) +
			dimStyle.Render(size))
	}
	return nil
}

// =============================================================================
// UPLOAD
// =============================================================================

func docsUpload(path string, args Args) error {
	if path == "" {
		return NewValidationError("file", "", "missing file path", "nabi docs upload notes.pdf")
	}
	if _, err := os.Stat(path); err != nil {
		return NewNotFoundError("file", path)
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	uploader, err := app.Uploader()
	if err != nil {
		return err
	}

	if !args.Quiet && !args.JSON {
		fmt.Fprintln(os.Stderr, dimStyle.Render(app.Loc.T("docs.queued", path)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), docsTimeout)
	defer cancel()
	ev := uploader.Upload(ctx, path)

	switch ev.Kind {
	case docstore.EventUploaded:
		if args.JSON {
			return OutputJSON("docs", DocData{
				ID:         ev.Doc.ID,
				Filename:   ev.Doc.Filename,
				FileType:   ev.Doc.FileType,
				Chunks:     ev.Doc.ChunksCreated,
				SizeBytes:  ev.Doc.SizeBytes,
				UploadedAt: ev.Doc.UploadedAt,
			})
		}
		fmt.Println(successStyle.Render(app.Loc.T("docs.uploaded", ev.Doc.Filename, ev.Doc.ChunksCreated)))
		return nil

	case docstore.EventDuplicate:
		if args.JSON {
			return OutputJSON("docs", map[string]string{"duplicate_of": ev.Doc.ID})
		}
		fmt.Println(warningStyle.Render(ev.Filename + " already uploaded as " + shortID(ev.Doc.ID)))
		return nil

	case docstore.EventRejected:
		return NewValidationError("file", ev.Filename, app.Loc.T(ev.MessageKey, ev.Args...), "")

	default:
		return NewCommandError("docs", "upload", ev.Err)
	}
}

// =============================================================================
// DELETE
// =============================================================================

// docsDelete mirrors the TUI's order: backend first so the index stays
// authoritative, cache second.
func docsDelete(id string, confirm bool, args Args) error {
	if id == "" {
		return NewValidationError("document", "", "missing document id", "nabi docs delete 3f2a90 --confirm")
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	store, err := app.Documents()
	if err != nil {
		return err
	}

	doc, err := resolveDocument(store, id)
	if err != nil {
		return err
	}

	if err := RequireConfirmation(confirm, fmt.Sprintf("Delete document %q", doc.Filename), args.JSON); err != nil {
		return err
	}

	if app.Client.IsConfigured() {
		ctx, cancel := context.WithTimeout(context.Background(), docsTimeout)
		err := app.Client.DeleteDocument(ctx, doc.ID)
		cancel()
		if err != nil {
			return NewCommandError("docs", "delete", err)
		}
	}
	if err := store.Delete(doc.ID); err != nil {
		return NewCommandError("docs", "delete cache entry", err)
	}

	if args.JSON {
		return OutputJSON("docs", map[string]string{"deleted": doc.ID})
	}
	if !args.Quiet {
		fmt.Println(successStyle.Render(app.Loc.T("docs.deleted")))
	}
	return nil
}

// resolveDocument loads a cached document by ID or unique prefix.
func resolveDocument(store *docstore.Store, id string) (*docstore.Document, error) {
	if doc, err := store.Get(id); err == nil {
		return doc, nil
	}

	docs, err := store.List()
	if err != nil {
		return nil, NewCommandError("docs", "list", err)
	}
	var matched *docstore.Document
	for i := range docs {
		d := &docs[i]
		if len(id) >= 4 && len(d.ID) > len(id) && d.ID[:len(id)] == id {
			if matched != nil {
				return nil, NewValidationError("document", id, "prefix matches multiple documents", "nabi docs list")
			}
			matched = d
		}
	}
	if matched == nil {
		return nil, NewNotFoundError("document", id)
	}
	return matched, nil
}

// =============================================================================
// SYNC
// =============================================================================

func docsSync(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	store, err := app.Documents()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), docsTimeout)
	defer cancel()

	updated, removed, err := store.Sync(ctx, app.Client)
	if err != nil {
		return NewCommandError("docs", "sync", err)
	}
	total, _ := store.Count()

	if args.JSON {
		return OutputJSON("docs", SyncData{Updated: updated, Removed: removed, Total: total})
	}
	if !args.Quiet {
		fmt.Println(successStyle.Render(app.Loc.T("docs.synced")))
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d updated · %d removed · %d total", updated, removed, total)))
	}
	return nil
}
