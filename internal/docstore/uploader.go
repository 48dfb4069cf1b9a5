// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/validate"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies an upload pipeline outcome.
type EventKind int

const (
	// EventQueued fires when a file enters the upload queue.
	EventQueued EventKind = iota

	// EventUploaded fires after a successful upload and cache store.
	EventUploaded

	// EventDuplicate fires when the content hash matches an earlier
	// upload; the file is skipped and Doc carries the existing record.
	EventDuplicate

	// EventRejected fires when client-side validation blocks the file.
	// MessageKey and Args localize the reason.
	EventRejected

	// EventFailed fires on read or transport errors.
	EventFailed
)

// Event reports progress for one file through the upload pipeline.
type Event struct {
	Kind       EventKind
	Path       string
	Filename   string
	Doc        *Document
	MessageKey string
	Args       []any
	Err        error
}

// ErrQueueFull indicates the upload queue rejected a file.
var ErrQueueFull = errors.New("upload queue full")

// =============================================================================
// UPLOADER
// =============================================================================

// defaultUploadRate spaces queued uploads out; the burst admits the
// pair of files a user typically drops together.
var defaultUploadRate = rate.Every(10 * time.Second)

// Uploader pushes files to the backend's document index: validation,
// content-hash dedupe against the local cache, rate-limited multipart
// upload, and cache update. Files arrive either through the queue
// (drop-folder watcher) or the synchronous Upload call (the /upload
// command).
type Uploader struct {
	store   *Store
	client  *api.Client
	limiter *rate.Limiter
	queue   chan string
	log     *logging.Logger

	deviceID  string
	sessionID func() string

	mu          sync.Mutex
	subscribers []func(Event)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUploader creates an uploader over the cache and backend client.
func NewUploader(store *Store, client *api.Client) *Uploader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Uploader{
		store:   store,
		client:  client,
		limiter: rate.NewLimiter(defaultUploadRate, 2),
		queue:   make(chan string, 64),
		log:     logging.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// WithLogger attaches a logger.
func (u *Uploader) WithLogger(log *logging.Logger) *Uploader {
	u.log = log
	return u
}

// WithRateLimit overrides the upload pacing.
func (u *Uploader) WithRateLimit(limit rate.Limit, burst int) *Uploader {
	u.limiter = rate.NewLimiter(limit, burst)
	return u
}

// WithDeviceID sets the device identifier attached to upload metadata.
func (u *Uploader) WithDeviceID(id string) *Uploader {
	u.deviceID = id
	return u
}

// WithSessionSource sets the supplier of the active session id, so
// uploads can be attributed to the conversation they support.
func (u *Uploader) WithSessionSource(fn func() string) *Uploader {
	u.sessionID = fn
	return u
}

// Subscribe registers a callback for upload events. Callbacks may run
// on the worker goroutine.
func (u *Uploader) Subscribe(fn func(Event)) {
	u.mu.Lock()
	u.subscribers = append(u.subscribers, fn)
	u.mu.Unlock()
}

func (u *Uploader) notify(ev Event) {
	u.mu.Lock()
	subs := make([]func(Event), len(u.subscribers))
	copy(subs, u.subscribers)
	u.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Start launches the queue worker.
func (u *Uploader) Start() {
	u.wg.Add(1)
	go u.work()
}

// Close stops the worker and waits for the in-flight upload to finish.
func (u *Uploader) Close() {
	u.cancel()
	u.wg.Wait()
}

// Enqueue adds a file to the upload queue. A full queue drops the file
// with a failure event rather than blocking the caller.
func (u *Uploader) Enqueue(path string) {
	select {
	case u.queue <- path:
		u.notify(Event{Kind: EventQueued, Path: path, Filename: filepath.Base(path)})
	default:
		u.log.Warn("upload queue full, dropping file", logging.String("path", path))
		u.notify(Event{Kind: EventFailed, Path: path, Filename: filepath.Base(path), Err: ErrQueueFull})
	}
}

// Upload pushes one file synchronously, outside the queue, and returns
// its terminal event. Used by the explicit upload command.
func (u *Uploader) Upload(ctx context.Context, path string) Event {
	ev := u.uploadOne(ctx, path)
	u.notify(ev)
	return ev
}

func (u *Uploader) work() {
	defer u.wg.Done()
	for {
		select {
		case <-u.ctx.Done():
			return
		case path := <-u.queue:
			ev := u.uploadOne(u.ctx, path)
			u.notify(ev)
		}
	}
}

// uploadOne runs the full pipeline for one file and returns its
// terminal event: read, validate, dedupe, rate-limit, upload, cache.
func (u *Uploader) uploadOne(ctx context.Context, path string) Event {
	name := filepath.Base(path)

	content, err := os.ReadFile(path)
	if err != nil {
		u.log.Warn("failed to read upload candidate", logging.String("path", path), logging.Err(err))
		return Event{Kind: EventFailed, Path: path, Filename: name, Err: err}
	}

	if res := validate.File(name, content); !res.Valid {
		u.log.Info("upload rejected by validation",
			logging.String("file", name), logging.String("code", res.Code))
		return Event{Kind: EventRejected, Path: path, Filename: name,
			MessageKey: res.MessageKey, Args: res.Args}
	}

	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	if existing, err := u.store.FindByHash(digest); err == nil {
		u.log.Debug("skipping duplicate upload",
			logging.String("file", name), logging.String("document", existing.ID))
		return Event{Kind: EventDuplicate, Path: path, Filename: name, Doc: existing}
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return Event{Kind: EventFailed, Path: path, Filename: name, Err: err}
	}

	metadata := map[string]any{
		"original_name": name,
		"size_bytes":    len(content),
		"sha256":        digest,
	}
	if u.deviceID != "" {
		metadata["device_id"] = u.deviceID
	}
	if u.sessionID != nil {
		if id := u.sessionID(); id != "" {
			metadata["session_id"] = id
		}
	}

	resp, err := u.client.UploadDocument(ctx, name, content, metadata)
	if err != nil {
		u.log.Warn("upload failed", logging.String("file", name), logging.Err(err))
		return Event{Kind: EventFailed, Path: path, Filename: name, Err: err}
	}

	doc := &Document{
		ID:            resp.DocumentID,
		Filename:      resp.Filename,
		FileType:      resp.FileType,
		SHA256:        digest,
		SizeBytes:     int64(len(content)),
		ChunksCreated: resp.ChunksCreated,
		TotalTokens:   resp.TotalTokens,
		UploadedAt:    resp.UploadTime,
		Status:        resp.Status,
	}
	if doc.Filename == "" {
		doc.Filename = name
	}
	if err := u.store.Put(doc); err != nil {
		u.log.Warn("failed to cache uploaded document", logging.Err(err))
	}

	u.log.Info("document uploaded",
		logging.String("file", name),
		logging.String("document", doc.ID),
		logging.Int("chunks", doc.ChunksCreated))
	return Event{Kind: EventUploaded, Path: path, Filename: name, Doc: doc}
}
