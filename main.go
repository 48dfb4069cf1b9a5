// nabi - AI companion chat for your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/cli"
	"github.com/jeranaias/nabi-tui/internal/commands"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/session"
	"github.com/jeranaias/nabi-tui/internal/ui/chat"
	"github.com/jeranaias/nabi-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with the cli package so usage text, the
	// version command, and the doctor report all agree.
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdLogin:
		err = cli.HandleLogin(args)
	case cli.CmdLogout:
		err = cli.HandleLogout(args)
	case cli.CmdSessions:
		err = cli.HandleSessions(args)
	case cli.CmdDocs:
		err = cli.HandleDocs(args)
	case cli.CmdLocale:
		err = cli.HandleLocale(args)
	case cli.CmdExport:
		err = cli.HandleExport(args)
	case cli.CmdDoctor:
		err = cli.HandleDoctor(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		err = cli.HandleHelp(args)
	default:
		err = runTUI(args)
	}

	if err != nil {
		cli.DisplayError(cmd.String(), err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

// =============================================================================
// TUI
// =============================================================================

// runTUI builds the service graph, wires the document pipeline, and
// runs the full-screen chat until the user quits.
func runTUI(args cli.Args) error {
	app, err := cli.OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	// Document pipeline. A broken local cache degrades the UI (no /docs
	// listing, no uploads) but never keeps the chat from opening.
	var (
		docs     *docstore.Store
		uploader *docstore.Uploader
	)
	if docs, err = app.Documents(); err != nil {
		app.Log.Warn("document cache unavailable", logging.Err(err))
		docs = nil
	} else {
		uploader = docstore.NewUploader(docs, app.Client).
			WithLogger(app.Log).
			WithDeviceID(app.Store.DeviceID()).
			WithSessionSource(app.Store.ActiveID)
		uploader.Start()
		defer uploader.Close()
	}

	// Drop-folder watcher, only when configured and the pipeline is up.
	cfg := app.Config
	if uploader != nil && cfg.Documents.AutoUpload && cfg.Documents.WatchDir != "" {
		watcher, werr := docstore.NewWatcher(cfg.Documents.WatchDir, uploader.Enqueue)
		if werr != nil {
			app.Log.Warn("drop-folder watcher unavailable",
				logging.String("dir", cfg.Documents.WatchDir),
				logging.Err(werr))
		} else {
			watcher.WithLogger(app.Log)
			if werr := watcher.Start(); werr != nil {
				app.Log.Warn("drop-folder watch failed", logging.Err(werr))
				_ = watcher.Close()
			} else {
				defer watcher.Close()
			}
		}
	}

	registry := commands.NewRegistry()
	cmdCtx := commands.NewContext(cfg, app.Store, app.Auth, app.Loc).
		WithClient(app.Client).
		WithDocuments(docs, uploader)

	theme := styles.NewTheme()
	m := chat.New(theme, chat.Services{
		Config:    cfg,
		Store:     app.Store,
		Client:    app.Client,
		Auth:      app.Auth,
		Documents: docs,
		Uploader:  uploader,
		Localizer: app.Loc,
		Registry:  registry,
		Commands:  cmdCtx,
		Logger:    app.Log,
		Version:   Version,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Service events reach the update loop as program messages. The
	// callbacks run on service goroutines; Send is the only safe way in.
	app.Store.Subscribe(func(ev session.Event) {
		p.Send(chat.StoreEventMsg{Event: ev})
	})
	app.Auth.Subscribe(func(ev auth.Event) {
		p.Send(chat.AuthEventMsg{Event: ev})
	})
	if uploader != nil {
		uploader.Subscribe(func(ev docstore.Event) {
			p.Send(chat.UploadEventMsg{Event: ev})
		})
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
