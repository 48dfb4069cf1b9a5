// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/session"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are sent by command handlers to update the application state.

// ShowHelpMsg triggers the help display.
type ShowHelpMsg struct {
	Topic string // Optional command name or category
}

// ErrorMsg displays an error with an optional recovery tip.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// SystemMessageMsg shows an informational line in the chat view.
type SystemMessageMsg struct {
	Content string
}

// SessionCreatedMsg reports a freshly created chat.
type SessionCreatedMsg struct {
	ID string
}

// SessionSelectedMsg reports a switch to another saved chat.
type SessionSelectedMsg struct {
	ID string
}

// SessionDeletedMsg reports a deleted chat and the one promoted in its
// place (empty when no chats remain).
type SessionDeletedMsg struct {
	ID       string
	Promoted string
	Error    error
}

// SessionInfo is a display-ready summary of a saved chat.
type SessionInfo struct {
	ID        string
	Title     string
	UpdatedAt string
	MsgCount  int
	LocalOnly bool
}

// SessionListMsg carries the saved-chat list.
type SessionListMsg struct {
	Sessions []SessionInfo
	Error    error
}

// RetryRequestedMsg carries the re-submitted user input. The app is
// expected to start a new exchange with it.
type RetryRequestedMsg struct {
	Input string
}

// DocumentListMsg carries the uploaded-document list. Notice names
// an optional message key the view toasts alongside the refresh, for
// flows (delete, sync) whose outcome the list alone does not show.
type DocumentListMsg struct {
	Documents []docstore.Document
	Notice    string
	Error     error
}

// UploadQueuedMsg reports a file handed to the upload queue.
type UploadQueuedMsg struct {
	Path string
}

// LocaleChangedMsg reports an interface-language switch.
type LocaleChangedMsg struct {
	Locale string
}

// LoginRequestMsg asks the app to open the sign-in overlay, optionally
// pre-filled with an email address.
type LoginRequestMsg struct {
	Email string
}

// LoggedOutMsg reports a completed sign-out.
type LoggedOutMsg struct{}

// ExportConversationMsg asks the app to export the current chat.
type ExportConversationMsg struct {
	Format string // "markdown" or "json"
	Path   string // Optional destination; empty means default
}

// =============================================================================
// NAVIGATION HANDLERS
// =============================================================================

// HandleHelp shows help for commands.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}
	return func() tea.Msg {
		return ShowHelpMsg{Topic: topic}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// =============================================================================
// CONVERSATION HANDLERS
// =============================================================================

// HandleNew starts a new chat and makes it active.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Sessions == nil {
		return missingServiceCmd(ctx)
	}
	store := ctx.Sessions
	return func() tea.Msg {
		sess := store.Create()
		return SessionCreatedMsg{ID: sess.ID}
	}
}

// HandleSessions lists saved chats, or switches to one when an ID is
// given.
func HandleSessions(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Sessions == nil {
		return missingServiceCmd(ctx)
	}
	store := ctx.Sessions

	if len(args) > 0 {
		id := args[0]
		return func() tea.Msg {
			if err := store.Select(id); err != nil {
				return ErrorMsg{
					Title: ctx.T("command.session_not_found", id),
					Tip:   ctx.T("command.sessions_tip"),
				}
			}
			return SessionSelectedMsg{ID: id}
		}
	}

	return func() tea.Msg {
		metas := store.List()
		sessions := make([]SessionInfo, len(metas))
		for i, m := range metas {
			sessions[i] = SessionInfo{
				ID:        m.ID,
				Title:     m.Title,
				UpdatedAt: m.UpdatedAt.Format("2006-01-02 15:04"),
				MsgCount:  m.MessageCount,
				LocalOnly: m.LocalOnly,
			}
		}
		return SessionListMsg{Sessions: sessions}
	}
}

// HandleDelete deletes a chat. Without an argument it deletes the
// active one; the store promotes the most recent remaining chat.
func HandleDelete(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Sessions == nil {
		return missingServiceCmd(ctx)
	}
	store := ctx.Sessions

	target := ""
	if len(args) > 0 {
		target = args[0]
	}

	return func() tea.Msg {
		id := target
		if id == "" {
			id = store.ActiveID()
		}
		if id == "" {
			return ErrorMsg{
				Title: ctx.T("command.no_active_session"),
				Tip:   ctx.T("command.new_tip"),
			}
		}
		if err := store.Delete(id); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return ErrorMsg{
					Title: ctx.T("command.session_not_found", id),
					Tip:   ctx.T("command.sessions_tip"),
				}
			}
			return SessionDeletedMsg{ID: id, Error: err}
		}
		return SessionDeletedMsg{ID: id, Promoted: store.ActiveID()}
	}
}

// HandleRetry drops the last failed exchange and hands its input back
// to the app for re-submission.
func HandleRetry(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Sessions == nil {
		return missingServiceCmd(ctx)
	}
	store := ctx.Sessions
	return func() tea.Msg {
		input, err := store.RetryLast()
		if err != nil {
			switch {
			case errors.Is(err, session.ErrStreamActive):
				return ErrorMsg{Title: ctx.T("command.stream_active")}
			case errors.Is(err, session.ErrNoActiveSession):
				return ErrorMsg{
					Title: ctx.T("command.no_active_session"),
					Tip:   ctx.T("command.new_tip"),
				}
			default:
				return ErrorMsg{Title: ctx.T("command.nothing_to_retry")}
			}
		}
		return RetryRequestedMsg{Input: input}
	}
}

// HandleExport exports the current chat.
func HandleExport(ctx *Context, args []string) tea.Cmd {
	format := "markdown"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
		if format == "md" {
			format = "markdown"
		}
	}

	switch format {
	case "markdown", "json":
	default:
		return func() tea.Msg {
			return ErrorMsg{
				Title: ctx.T("command.invalid_format", format),
				Tip:   "/export [md|json] [path]",
			}
		}
	}

	path := ""
	if len(args) > 1 {
		path = expandHome(args[1])
	}

	return func() tea.Msg {
		return ExportConversationMsg{Format: format, Path: path}
	}
}

// =============================================================================
// DOCUMENT HANDLERS
// =============================================================================

// HandleDocs lists the uploaded documents known to the local index.
func HandleDocs(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Documents == nil {
		return missingServiceCmd(ctx)
	}
	store := ctx.Documents
	return func() tea.Msg {
		docs, err := store.List()
		if err != nil {
			return DocumentListMsg{Error: err}
		}
		return DocumentListMsg{Documents: docs}
	}
}

// HandleUpload queues a file for upload to the knowledge base.
// Validation and duplicate detection happen in the upload worker; the
// handler only checks that the path points at a readable file.
func HandleUpload(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Uploader == nil {
		return missingServiceCmd(ctx)
	}
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{
				Title: ctx.T("command.file_required"),
				Tip:   "/upload <file>",
			}
		}
	}

	uploader := ctx.Uploader
	path := expandHome(args[0])

	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return ErrorMsg{Title: ctx.T("command.file_missing", path)}
		}
		uploader.Enqueue(path)
		return UploadQueuedMsg{Path: path}
	}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// HandleLogin opens the sign-in flow unless already signed in.
func HandleLogin(ctx *Context, args []string) tea.Cmd {
	email := ""
	if len(args) > 0 {
		email = args[0]
	}
	return func() tea.Msg {
		if ctx != nil && ctx.Auth != nil && ctx.Auth.IsSignedIn() {
			if u := ctx.Auth.CurrentUser(); u != nil {
				return SystemMessageMsg{Content: ctx.T("command.already_signed_in", u.Email)}
			}
		}
		return LoginRequestMsg{Email: email}
	}
}

// HandleLogout signs out and clears the stored session.
func HandleLogout(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		if ctx == nil || ctx.Auth == nil || !ctx.Auth.IsSignedIn() {
			return SystemMessageMsg{Content: ctx.T("command.not_signed_in")}
		}
		reqCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ctx.Auth.SignOut(reqCtx)
		return LoggedOutMsg{}
	}
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// HandleLocale shows or changes the interface language. Changes are
// persisted through the session store's state file.
func HandleLocale(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			cur := i18n.Resolve("")
			if ctx != nil && ctx.Localizer != nil {
				cur = ctx.Localizer.Locale()
			}
			return SystemMessageMsg{Content: ctx.T("command.locale_current", cur)}
		}
	}

	pref := strings.ToLower(args[0])
	return func() tea.Msg {
		supported := false
		for _, loc := range i18n.Available() {
			if pref == loc {
				supported = true
				break
			}
		}
		if !supported {
			return ErrorMsg{
				Title: ctx.T("command.locale_invalid", pref, strings.Join(i18n.Available(), ", ")),
			}
		}
		if ctx != nil && ctx.Localizer != nil {
			ctx.Localizer.SetLocale(pref)
		}
		if ctx != nil && ctx.Sessions != nil {
			ctx.Sessions.SetLocale(pref)
		}
		return LocaleChangedMsg{Locale: pref}
	}
}

// HandleStatus assembles a status report from whatever services are
// wired. The backend check is a live request with its own timeout.
func HandleStatus(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		var sb strings.Builder

		// Backend
		sb.WriteString(statusLabel(ctx, "command.status_backend"))
		if ctx != nil && ctx.Client != nil && ctx.Client.IsConfigured() {
			reqCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			health, err := ctx.Client.Health(reqCtx)
			cancel()
			if err != nil {
				sb.WriteString(ctx.T("ui.offline"))
			} else {
				sb.WriteString(ctx.T("ui.connected"))
				if health.LLMModel != "" {
					sb.WriteString(" (" + health.LLMProvider + "/" + health.LLMModel + ")")
				}
			}
		} else {
			sb.WriteString(ctx.T("ui.offline"))
		}
		sb.WriteString("\n")

		// Account
		sb.WriteString(statusLabel(ctx, "command.status_account"))
		if ctx != nil && ctx.Auth != nil && ctx.Auth.IsSignedIn() {
			if u := ctx.Auth.CurrentUser(); u != nil {
				sb.WriteString(u.Email)
			}
		} else {
			sb.WriteString(ctx.T("auth.guest"))
		}
		sb.WriteString("\n")

		// Active chat
		if ctx != nil && ctx.Sessions != nil {
			sb.WriteString(statusLabel(ctx, "command.status_session"))
			if sess := ctx.Sessions.Active(); sess != nil {
				title := sess.DisplayTitle()
				if title == "" {
					title = ctx.T("session.untitled")
				}
				sb.WriteString(title)
			} else {
				sb.WriteString("-")
			}
			sb.WriteString("\n")
		}

		// Documents
		if ctx != nil && ctx.Documents != nil {
			if n, err := ctx.Documents.Count(); err == nil {
				sb.WriteString(statusLabel(ctx, "command.status_documents"))
				sb.WriteString(ctx.T("command.status_documents_count", n))
				sb.WriteString("\n")
			}
		}

		// Language
		if ctx != nil && ctx.Localizer != nil {
			sb.WriteString(statusLabel(ctx, "command.status_locale"))
			sb.WriteString(ctx.Localizer.Locale())
			sb.WriteString("\n")
		}

		return SystemMessageMsg{Content: strings.TrimRight(sb.String(), "\n")}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// missingServiceCmd reports a command whose backing service was never
// wired. This indicates a wiring bug, not a user mistake.
func missingServiceCmd(ctx *Context) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Title: ctx.T("command.unavailable")}
	}
}

func statusLabel(ctx *Context, key string) string {
	return ctx.T(key) + ": "
}

// expandHome resolves a leading ~/ against the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
