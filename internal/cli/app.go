// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/config"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/session"
	"github.com/jeranaias/nabi-tui/internal/storage"
)

// =============================================================================
// SERVICE GRAPH
// =============================================================================

// App is the service graph the one-shot commands run against: the same
// config, stores, auth manager, and backend client the TUI wires up,
// minus the Bubble Tea program.
type App struct {
	Config *config.Config
	Log    *logging.Logger
	Loc    *i18n.Localizer
	State  *storage.StateStore
	Files  *storage.SessionStore
	Auth   *auth.Manager
	Client *api.Client
	Store  *session.Store

	docs *docstore.Store
}

// OpenApp builds the service graph for a CLI invocation. Session
// metadata is loaded eagerly; the document cache is opened lazily via
// Documents because most commands never touch it.
func OpenApp(args Args) (*App, error) {
	cfg := config.Global()

	logOpts := logging.Options{
		Path:       logging.DefaultPath(),
		Level:      cfg.Logging.Level,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}
	if args.Verbose {
		logOpts.Level = "debug"
	}
	log := logging.New(logOpts)
	logging.SetGlobal(log)

	files, err := storage.NewSessionStore()
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}
	state, err := storage.NewStateStore()
	if err != nil {
		return nil, fmt.Errorf("open app state: %w", err)
	}

	// Locale preference: saved state wins over config so `nabi locale
	// set` sticks without editing config.toml.
	pref := state.Load().Locale
	if pref == "" {
		pref = cfg.Locale.Default
	}
	loc := i18n.New(pref)

	appDir, err := config.AppDir()
	if err != nil {
		return nil, err
	}
	keystore, err := auth.OpenKeystore(appDir)
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	supa := auth.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	authMgr := auth.NewManager(supa, keystore).WithLogger(log)
	authMgr.Load()

	client := api.NewClient(cfg.Backend.BaseURL).
		WithTokenSource(authMgr).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second).
		WithIdleTimeout(time.Duration(cfg.Backend.StreamIdleTimeoutSecs) * time.Second).
		WithRateLimit(cfg.Backend.RatePerSec, 10).
		WithLogger(log)

	store := session.NewStore(files, state, client, loc).WithLogger(log)
	store.Load()

	return &App{
		Config: cfg,
		Log:    log,
		Loc:    loc,
		State:  state,
		Files:  files,
		Auth:   authMgr,
		Client: client,
		Store:  store,
	}, nil
}

// Documents opens the local document cache on first use.
func (a *App) Documents() (*docstore.Store, error) {
	if a.docs != nil {
		return a.docs, nil
	}
	docs, err := docstore.Open(docstore.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("open document cache: %w", err)
	}
	a.docs = docs
	return docs, nil
}

// Uploader builds a synchronous uploader over the document cache.
func (a *App) Uploader() (*docstore.Uploader, error) {
	docs, err := a.Documents()
	if err != nil {
		return nil, err
	}
	return docstore.NewUploader(docs, a.Client).
		WithLogger(a.Log).
		WithDeviceID(a.Store.DeviceID()).
		WithSessionSource(a.Store.ActiveID), nil
}

// Close flushes dirty sessions and releases the document cache. Safe
// to call once, typically deferred right after OpenApp.
func (a *App) Close() {
	a.Store.Flush()
	if a.docs != nil {
		_ = a.docs.Close()
		a.docs = nil
	}
	_ = a.Log.Sync()
}
