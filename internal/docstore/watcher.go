// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/nabi-tui/internal/logging"
)

// defaultStability is how long a file must go without writes before it
// is considered fully dropped and safe to upload.
const defaultStability = 2 * time.Second

// stabilityTick is the pending-scan interval.
const stabilityTick = 100 * time.Millisecond

// Watcher monitors a drop folder and queues stable files for upload.
// Only regular, non-hidden files directly in the folder are
// considered; a file qualifies once no write has touched it for the
// stability window, so a copy still in progress is never uploaded
// half-written.
type Watcher struct {
	dir       string
	stability time.Duration
	enqueue   func(path string)
	fsw       *fsnotify.Watcher
	log       *logging.Logger

	mu      sync.Mutex
	pending map[string]time.Time // path -> last write

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher over dir. The directory is created if
// missing. Each stable file's path is handed to enqueue.
func NewWatcher(dir string, enqueue func(path string)) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:       dir,
		stability: defaultStability,
		enqueue:   enqueue,
		fsw:       fsw,
		log:       logging.NewNop(),
		pending:   make(map[string]time.Time),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// WithStability overrides the write-quiet window.
func (w *Watcher) WithStability(d time.Duration) *Watcher {
	w.stability = d
	return w
}

// WithLogger attaches a logger.
func (w *Watcher) WithLogger(log *logging.Logger) *Watcher {
	w.log = log
	return w
}

// Start begins watching. Files already sitting in the folder are
// picked up as if just dropped.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}

	// Pre-existing files ride the same stability window.
	entries, err := os.ReadDir(w.dir)
	if err == nil {
		now := time.Now()
		w.mu.Lock()
		for _, entry := range entries {
			if entry.IsDir() || hiddenName(entry.Name()) {
				continue
			}
			w.pending[filepath.Join(w.dir, entry.Name())] = now
		}
		w.mu.Unlock()
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()

	w.log.Info("watching drop folder", logging.String("dir", w.dir))
	return nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if hiddenName(name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
					continue
				}
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()

			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.mu.Lock()
				delete(w.pending, event.Name)
				w.mu.Unlock()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("drop folder watch error", logging.Err(err))
		}
	}
}

func (w *Watcher) processPending() {
	defer w.wg.Done()
	ticker := time.NewTicker(stabilityTick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			var ready []string

			w.mu.Lock()
			for path, lastWrite := range w.pending {
				if now.Sub(lastWrite) >= w.stability {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range ready {
				if info, err := os.Stat(path); err != nil || info.IsDir() {
					continue
				}
				w.log.Debug("drop folder file stable", logging.String("path", path))
				w.enqueue(path)
			}
		}
	}
}

// hiddenName reports dotfiles and editor temp files, which are never
// upload candidates.
func hiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".tmp") || strings.HasSuffix(name, ".part") ||
		strings.HasSuffix(name, ".crdownload")
}
