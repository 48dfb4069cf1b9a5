// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/nabi-tui/internal/model"
)

// HandleSessions manages saved chats.
//
// Command: nabi sessions <subcommand>
// Subcommands:
//
//	list            show saved chats, newest first (default)
//	show <id>       print a chat transcript
//	delete <id>     delete a chat locally and clear its backend memory
//
// Examples:
//
//	nabi sessions list
//	nabi sessions show sess_a1b2
//	nabi sessions delete sess_a1b2 --confirm
func HandleSessions(args Args) error {
	parser := NewArgParser(args.Rest)

	switch parser.Subcommand() {
	case "", "list", "ls":
		return sessionsList(args)
	case "show":
		return sessionsShow(parser.Positional(1), args)
	case "delete", "rm":
		return sessionsDelete(parser.Positional(1), parser.BoolFlag("confirm"), args)
	default:
		return NewValidationError("subcommand", parser.Subcommand(),
			"expected list, show, or delete", "nabi sessions list")
	}
}

// =============================================================================
// LIST
// =============================================================================

func sessionsList(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if args.JSON {
		metas := app.Store.List()
		active := app.Store.ActiveID()
		out := make([]SessionData, 0, len(metas))
		for _, m := range metas {
			out = append(out, SessionData{
				ID:        m.ID,
				Title:     sessionTitle(app, m.Title),
				Messages:  m.MessageCount,
				UpdatedAt: m.UpdatedAt.UTC().Format(time.RFC3339),
				LocalOnly: m.LocalOnly,
				Active:    m.ID == active,
			})
		}
		return OutputJSON("sessions", out)
	}

	printSessionTable(app)
	return nil
}

// printSessionTable renders the saved-chat listing. Shared with the
// REPL's /sessions command.
func printSessionTable(app *App) {
	metas := app.Store.List()
	if len(metas) == 0 {
		fmt.Println(dimStyle.Render(app.Loc.T("ui.sessions_empty")))
		return
	}

	active := app.Store.ActiveID()
	fmt.Println(titleStyle.Render(app.Loc.T("ui.sessions_title")))
	for _, m := range metas {
		marker := "  "
		if m.ID == active {
			marker = successStyle.Render("* ")
		}
		line := marker +
			padText(shortID(m.ID), 10) +
			padText(sessionTitle(app, m.Title), 32) +
			padText(fmt.Sprintf("%d msg", m.MessageCount), 9) +
			dimStyle.Render(formatRelativeTime(m.UpdatedAt))
		if m.LocalOnly {
			line += " " + warningStyle.Render(app.Loc.T("ui.offline_marker"))
		}
		fmt.Println(line)
	}
}

// sessionTitle substitutes the localized placeholder for untitled
// chats.
func sessionTitle(app *App, title string) string {
	if title == "" {
		return app.Loc.T("session.untitled")
	}
	return title
}

// =============================================================================
// SHOW
// =============================================================================

func sessionsShow(id string, args Args) error {
	if id == "" {
		return NewValidationError("session", "", "missing session id", "nabi sessions show sess_a1b2")
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	sess, err := resolveSession(app, id)
	if err != nil {
		return err
	}

	if args.JSON {
		return OutputJSON("sessions", sess)
	}

	fmt.Println(titleStyle.Render(sessionTitle(app, sess.DisplayTitle())))
	fmt.Println(dimStyle.Render(sess.ID + " · " + sess.UpdatedAt.Format("2006-01-02 15:04")))
	fmt.Println(renderSeparator())
	for _, msg := range sess.Messages {
		label := app.Loc.T("ui.assistant")
		style := agentStyle
		if msg.Role == model.RoleUser {
			label = app.Loc.T("ui.you")
			style = titleStyle
		}
		fmt.Println(style.Render(label + ":"))
		fmt.Println(msg.Content)
		fmt.Println()
	}
	return nil
}

// resolveSession loads a session by ID, accepting the shortened prefix
// the list view shows.
func resolveSession(app *App, id string) (*model.Session, error) {
	if sess, err := app.Store.Get(id); err == nil {
		return sess, nil
	}

	// Prefix match against the listing, unique matches only.
	var matched string
	for _, m := range app.Store.List() {
		if len(id) >= 4 && len(m.ID) > len(id) && m.ID[:len(id)] == id {
			if matched != "" {
				return nil, NewValidationError("session", id, "prefix matches multiple chats", "nabi sessions list")
			}
			matched = m.ID
		}
	}
	if matched == "" {
		return nil, NewNotFoundError("session", id)
	}
	return app.Store.Get(matched)
}

// =============================================================================
// DELETE
// =============================================================================

func sessionsDelete(id string, confirm bool, args Args) error {
	if id == "" {
		return NewValidationError("session", "", "missing session id", "nabi sessions delete sess_a1b2 --confirm")
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	sess, err := resolveSession(app, id)
	if err != nil {
		return err
	}

	title := sessionTitle(app, sess.DisplayTitle())
	if err := RequireConfirmation(confirm,
		fmt.Sprintf("Delete %q (%d messages)", title, sess.MessageCount()), args.JSON); err != nil {
		return err
	}

	if err := app.Store.Delete(sess.ID); err != nil {
		return NewCommandError("sessions", "delete", err)
	}

	if args.JSON {
		return OutputJSON("sessions", map[string]string{"deleted": sess.ID})
	}
	if !args.Quiet {
		fmt.Fprintln(os.Stderr, successStyle.Render(app.Loc.T("session.deleted")))
	}
	return nil
}
