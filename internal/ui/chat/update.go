// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file is the message dispatch. Every state change flows through
// Update: terminal events, stream lifecycle reports, service events
// forwarded from the store/auth/uploader subscriptions, and command
// results. Handlers live next to the state they touch; Update only
// routes.
package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/commands"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/session"
	"github.com/jeranaias/nabi-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	// ------------------------------------------------------------------
	// Terminal
	// ------------------------------------------------------------------
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	// ------------------------------------------------------------------
	// Stream lifecycle
	// ------------------------------------------------------------------
	case BatchTickMsg:
		return m.handleBatchTick()

	case StreamFinishedMsg:
		return m.handleStreamFinished(msg)

	case spinner.TickMsg:
		// The spinner animates the typing indicator; it only ticks
		// while a response is pending.
		if m.state != StateStreaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshTranscript(false)
		return m, cmd

	case ScrollSettledMsg:
		return m.handleScrollSettled(msg)

	// ------------------------------------------------------------------
	// Service events
	// ------------------------------------------------------------------
	case StoreEventMsg:
		return m.handleStoreEvent(msg.Event)

	case AuthEventMsg:
		return m.handleAuthEvent(msg.Event)

	case UploadEventMsg:
		return m.handleUploadEvent(msg.Event)

	// ------------------------------------------------------------------
	// Connectivity
	// ------------------------------------------------------------------
	case HealthCheckMsg:
		m.connected = msg.Healthy
		m.statusBar.SetConnection(m.connected, m.connectionLabel())
		return m, healthTickCmd()

	case HealthTickMsg:
		return m, m.healthCheckCmd()

	// ------------------------------------------------------------------
	// Overlay results
	// ------------------------------------------------------------------
	case LoginResultMsg:
		return m.handleLoginResult(msg)

	case ExportResultMsg:
		if msg.Err != nil {
			m.toasts.AddError(m.T("ui.export_failed", msg.Err.Error()))
		} else {
			m.toasts.AddSuccess(m.T("ui.export_done", msg.Path))
		}
		return m, components.ToastTickCmd()

	// ------------------------------------------------------------------
	// Toasts
	// ------------------------------------------------------------------
	case components.ToastTickMsg:
		m.toasts.TickToasts()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		return m, nil

	case components.ToastDismissMsg:
		m.toasts.RemoveToast(msg.ID)
		return m, nil

	// ------------------------------------------------------------------
	// Command results
	// ------------------------------------------------------------------
	case commands.ShowHelpMsg:
		m.openOverlay(overlayHelp)
		return m, nil

	case commands.ErrorMsg:
		return m.handleErrorMsg(msg)

	case commands.SystemMessageMsg:
		m.toasts.AddStatus(msg.Content)
		return m, components.ToastTickCmd()

	case commands.SessionCreatedMsg:
		return m.handleSessionCreated(msg)

	case commands.SessionSelectedMsg:
		return m.handleSessionSelected(msg)

	case commands.SessionDeletedMsg:
		return m.handleSessionDeleted(msg)

	case commands.SessionListMsg:
		return m.handleSessionList(msg)

	case commands.RetryRequestedMsg:
		// The store has already dropped the failed exchange and handed
		// the original input back.
		return m.startExchange(msg.Input, nil)

	case commands.DocumentListMsg:
		return m.handleDocumentList(msg)

	case commands.UploadQueuedMsg:
		m.toasts.AddStatus(m.T("docs.queued", shortPath(msg.Path)))
		return m, components.ToastTickCmd()

	case commands.LocaleChangedMsg:
		m.applyLocale()
		m.rendered.invalidate()
		m.refreshTranscript(true)
		m.toasts.AddSuccess(m.T("ui.locale_changed", msg.Locale))
		return m, components.ToastTickCmd()

	case commands.LoginRequestMsg:
		m.openLogin(msg.Email)
		return m, textinput.Blink

	case commands.LoggedOutMsg:
		// The auth event carries the user-facing feedback.
		return m, nil

	case commands.ExportConversationMsg:
		return m, m.exportCmd(msg.Format, msg.Path)
	}

	// Anything else (cursor blink and friends) belongs to whichever
	// input currently has focus.
	return m.updateFocusedInput(msg)
}

// updateFocusedInput forwards component-internal messages to the input
// that currently owns the keyboard.
func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.overlay == overlayLogin {
		if m.login.focused == 0 {
			m.login.email, cmd = m.login.email.Update(msg)
		} else {
			m.login.password, cmd = m.login.password.Update(msg)
		}
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SERVICE EVENT HANDLERS
// =============================================================================

// handleStoreEvent reacts to session store notifications. Message
// changes re-render only when they concern the visible session.
func (m Model) handleStoreEvent(ev session.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case session.EventMessagesChanged:
		if ev.SessionID == "" || ev.SessionID == m.svc.Store.ActiveID() {
			m.refreshTranscript(false)
		}
		return m, nil

	case session.EventSessionsChanged:
		m.syncSessionStatus(m.svc.Store.Active())
		m.refreshTranscript(false)
		return m, nil

	case session.EventSyncFailed:
		m.log.Warn("background sync failed",
			logging.String("session_id", ev.SessionID),
			logging.Err(ev.Err))
		m.toasts.AddWarning(m.T("session.sync_failed"))
		return m, components.ToastTickCmd()
	}
	return m, nil
}

// handleAuthEvent reacts to auth manager notifications. Sign-in state
// drives the status bar account segment and the welcome screen.
func (m Model) handleAuthEvent(ev auth.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case auth.EventSignedIn:
		email := ""
		if ev.User != nil {
			email = ev.User.Email
		}
		m.statusBar.SetAccount(email)
		m.welcome.SetAccount(email)
		m.toasts.AddSuccess(m.T("auth.signed_in", email))
		return m, components.ToastTickCmd()

	case auth.EventSignedOut:
		m.statusBar.SetAccount("")
		m.welcome.SetAccount("")
		m.toasts.AddStatus(m.T("auth.signed_out"))
		return m, components.ToastTickCmd()

	case auth.EventSessionExpired:
		m.statusBar.SetAccount("")
		m.toasts.AddWarning(m.T("auth.session_expired"))
		m.openLogin(lastKnownEmail(ev.User))
		return m, tea.Batch(components.ToastTickCmd(), textinput.Blink)

	case auth.EventRefreshed:
		// Silent; the token source already has the new token.
		return m, nil
	}
	return m, nil
}

// handleUploadEvent reacts to document pipeline notifications. The
// queue counter feeds the status bar; terminal events toast.
func (m Model) handleUploadEvent(ev docstore.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case docstore.EventQueued:
		m.queuedUploads++
		m.statusBar.SetQueuedUploads(m.queuedUploads)
		return m, nil

	case docstore.EventUploaded:
		m.decrementQueue()
		name, chunks := ev.Filename, 0
		if ev.Doc != nil {
			name, chunks = ev.Doc.Filename, ev.Doc.ChunksCreated
		}
		m.toasts.AddSuccess(m.T("docs.uploaded", name, chunks))
		m.refreshDocCount()
		return m, components.ToastTickCmd()

	case docstore.EventDuplicate:
		m.decrementQueue()
		m.toasts.AddStatus(m.T(ev.MessageKey, ev.Args...))
		return m, components.ToastTickCmd()

	case docstore.EventRejected:
		m.decrementQueue()
		m.toasts.AddWarning(m.T(ev.MessageKey, ev.Args...))
		return m, components.ToastTickCmd()

	case docstore.EventFailed:
		m.decrementQueue()
		m.log.Warn("document upload failed",
			logging.String("file", ev.Filename),
			logging.Err(ev.Err))
		m.toasts.AddError(m.T("docs.upload_failed", ev.Filename))
		return m, components.ToastTickCmd()
	}
	return m, nil
}

func (m *Model) decrementQueue() {
	if m.queuedUploads > 0 {
		m.queuedUploads--
	}
	m.statusBar.SetQueuedUploads(m.queuedUploads)
}

// refreshDocCount updates the welcome screen document counter after
// the index changes.
func (m *Model) refreshDocCount() {
	if m.svc.Documents == nil {
		return
	}
	if n, err := m.svc.Documents.Count(); err == nil {
		m.welcome.SetDocCount(n)
	}
}

// =============================================================================
// COMMAND RESULT HANDLERS
// =============================================================================

// handleErrorMsg surfaces a command error as a toast. The tip rides
// along on its own line when present.
func (m Model) handleErrorMsg(msg commands.ErrorMsg) (tea.Model, tea.Cmd) {
	text := msg.Title
	if msg.Message != "" {
		text += "\n" + msg.Message
	}
	if msg.Tip != "" {
		text += "\n" + msg.Tip
	}
	m.toasts.AddError(text)
	return m, components.ToastTickCmd()
}

func (m Model) handleSessionCreated(msg commands.SessionCreatedMsg) (tea.Model, tea.Cmd) {
	m.closeOverlay()
	m.showWelcome = false
	m.anchor.jumpBottom()
	m.refreshTranscript(true)
	m.toasts.AddStatus(m.T("session.new"))
	return m, tea.Batch(components.ToastTickCmd(), textinput.Blink)
}

func (m Model) handleSessionSelected(msg commands.SessionSelectedMsg) (tea.Model, tea.Cmd) {
	m.closeOverlay()
	m.showWelcome = false
	m.anchor.jumpBottom()
	m.rendered.invalidate()
	m.refreshTranscript(true)
	m.viewport.GotoBottom()
	return m, textinput.Blink
}

func (m Model) handleSessionDeleted(msg commands.SessionDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError(msg.Error.Error())
		return m, components.ToastTickCmd()
	}

	m.toasts.AddStatus(m.T("session.deleted"))
	m.rendered.invalidate()
	m.refreshTranscript(true)

	cmds := []tea.Cmd{components.ToastTickCmd()}
	// With the picker open, re-list so the deleted row disappears.
	if m.overlay == overlaySessions {
		cmds = append(cmds, m.dispatchCommand("/sessions"))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSessionList(msg commands.SessionListMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError(msg.Error.Error())
		return m, components.ToastTickCmd()
	}
	refresh := m.overlay == overlaySessions
	m.sessions.items = msg.Sessions
	if !refresh {
		m.sessions.cursor = 0
		m.sessions.filter = ""
		m.openOverlay(overlaySessions)
	}
	m.sessions.clampCursor()
	return m, nil
}

func (m Model) handleDocumentList(msg commands.DocumentListMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError(msg.Error.Error())
		return m, components.ToastTickCmd()
	}
	refresh := m.overlay == overlayDocuments
	m.docs.items = msg.Documents
	if !refresh {
		m.docs.cursor = 0
		m.openOverlay(overlayDocuments)
	}
	m.docs.clampCursor()
	if msg.Notice != "" {
		m.toasts.AddStatus(m.T(msg.Notice))
		return m, components.ToastTickCmd()
	}
	return m, nil
}

// handleLoginResult closes the loop on a sign-in attempt. Success
// feedback arrives separately through the auth event.
func (m Model) handleLoginResult(msg LoginResultMsg) (tea.Model, tea.Cmd) {
	m.login.pending = false
	if msg.Err != nil {
		m.login.errText = m.T("ui.login_failed", loginErrText(m, msg.Err))
		m.login.password.SetValue("")
		return m, nil
	}
	m.closeOverlay()
	return m, textinput.Blink
}

// loginErrText maps auth errors onto localized phrases; anything
// unclassified falls back to the raw error.
func loginErrText(m Model, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, auth.ErrInvalidCredentials):
		return m.T("auth.invalid_credentials")
	case errors.Is(err, auth.ErrInvalidEmail):
		return m.T("auth.invalid_email")
	default:
		return err.Error()
	}
}

func lastKnownEmail(u *auth.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}
