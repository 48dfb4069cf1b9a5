// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docstore maintains the local document index for the nabi
// client.
//
// Uploaded document metadata is cached in SQLite at
// ~/.nabi/documents.db, which serves the offline /docs listing and
// content-hash dedupe: a file whose sha256 matches a prior upload is
// skipped instead of re-indexed. Sync reconciles the cache with the
// backend's document listing.
//
// # Key Types
//
//   - Store: the SQLite metadata cache
//   - Uploader: validation, dedupe, and rate-limited multipart upload
//   - Watcher: drop-folder monitor that queues stable files
//
// # Usage
//
//	store, err := docstore.Open(docstore.DefaultPath())
//	up := docstore.NewUploader(store, client).WithDeviceID(deviceID)
//	up.Start()
//	defer up.Close()
//
//	watcher, err := docstore.NewWatcher(cfg.Documents.WatchDir, up.Enqueue)
//	watcher.Start()
//
// A file dropped into the watch directory is uploaded once it has been
// quiet for two seconds and passes the client-side upload checklist.
// Progress surfaces through Uploader.Subscribe as queued / uploaded /
// duplicate / rejected / failed events.
package docstore
