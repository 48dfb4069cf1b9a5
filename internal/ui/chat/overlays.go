// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
//
// This file holds the modal overlays: help, saved chats, uploaded
// documents, and the sign-in form. An open overlay captures the
// keyboard; the transcript keeps streaming underneath it.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/commands"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/ui/components"
)

// =============================================================================
// OVERLAY KINDS
// =============================================================================

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayHelp
	overlaySessions
	overlayDocuments
	overlayLogin
)

// =============================================================================
// SESSION PICKER
// =============================================================================

// sessionPicker is the saved-chats overlay state. Items come from a
// SessionListMsg; the filter narrows them by fuzzy title match.
type sessionPicker struct {
	items  []commands.SessionInfo
	cursor int
	filter string
}

// visible returns the items passing the filter, preserving order.
func (p *sessionPicker) visible() []commands.SessionInfo {
	if p.filter == "" {
		return p.items
	}
	out := make([]commands.SessionInfo, 0, len(p.items))
	for _, it := range p.items {
		if components.FuzzyMatches(p.filter, it.Title) || components.FuzzyMatches(p.filter, it.ID) {
			out = append(out, it)
		}
	}
	return out
}

func (p *sessionPicker) clampCursor() {
	n := len(p.visible())
	if n == 0 {
		p.cursor = 0
		return
	}
	if p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// selected returns the item under the cursor, or nil.
func (p *sessionPicker) selected() *commands.SessionInfo {
	vis := p.visible()
	if p.cursor < 0 || p.cursor >= len(vis) {
		return nil
	}
	return &vis[p.cursor]
}

// =============================================================================
// DOCUMENT PICKER
// =============================================================================

// documentPicker is the uploaded-documents overlay state.
type documentPicker struct {
	items  []docstore.Document
	cursor int
}

func (p *documentPicker) clampCursor() {
	if len(p.items) == 0 {
		p.cursor = 0
		return
	}
	if p.cursor >= len(p.items) {
		p.cursor = len(p.items) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *documentPicker) selected() *docstore.Document {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return nil
	}
	return &p.items[p.cursor]
}

// =============================================================================
// LOGIN FORM
// =============================================================================

// loginForm is the sign-in overlay state. The password input renders
// masked; neither value is ever logged.
type loginForm struct {
	email    textinput.Model
	password textinput.Model
	focused  int // 0 email, 1 password
	pending  bool
	errText  string
}

func newLoginForm(loc *i18n.Localizer) loginForm {
	email := textinput.New()
	email.Prompt = ""
	email.CharLimit = 254
	if loc != nil {
		email.Placeholder = loc.T("ui.login_email")
	}

	password := textinput.New()
	password.Prompt = ""
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	if loc != nil {
		password.Placeholder = loc.T("ui.login_password")
	}

	return loginForm{email: email, password: password}
}

// reset clears the form for a fresh overlay open, optionally seeding
// the email field (the /login <email> form).
func (f *loginForm) reset(email string) {
	f.email.SetValue(email)
	f.password.SetValue("")
	f.errText = ""
	f.pending = false
	if email == "" {
		f.focused = 0
		f.email.Focus()
		f.password.Blur()
	} else {
		f.focused = 1
		f.email.Blur()
		f.password.Focus()
	}
}

// cycleFocus moves between the two fields.
func (f *loginForm) cycleFocus() {
	if f.focused == 0 {
		f.focused = 1
		f.email.Blur()
		f.password.Focus()
	} else {
		f.focused = 0
		f.password.Blur()
		f.email.Focus()
	}
}

// =============================================================================
// OVERLAY OPEN / CLOSE
// =============================================================================

// openOverlay switches the capture target and blurs the prompt.
func (m *Model) openOverlay(kind overlayKind) {
	m.overlay = kind
	m.input.Blur()
	m.dismissCompletions()
}

// closeOverlay returns the keyboard to the prompt.
func (m *Model) closeOverlay() {
	m.overlay = overlayNone
	m.input.Focus()
}

// openLogin opens the sign-in form, pre-filled when the command gave
// an email.
func (m *Model) openLogin(email string) {
	m.login.reset(email)
	m.openOverlay(overlayLogin)
}

// =============================================================================
// OVERLAY KEY HANDLING
// =============================================================================

// handleOverlayKey routes a key press to the open overlay. Returns the
// updated model and any command. Esc always closes.
func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayHelp:
		return m.handleHelpKey(msg)
	case overlaySessions:
		return m.handleSessionsKey(msg)
	case overlayDocuments:
		return m.handleDocumentsKey(msg)
	case overlayLogin:
		return m.handleLoginKey(msg)
	}
	return m, nil
}

func (m Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q", "f1":
		m.closeOverlay()
	}
	return m, nil
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeOverlay()
		return m, nil
	case "up", "ctrl+p":
		m.sessions.cursor--
		m.sessions.clampCursor()
		return m, nil
	case "down", "ctrl+n":
		m.sessions.cursor++
		m.sessions.clampCursor()
		return m, nil
	case "enter":
		if it := m.sessions.selected(); it != nil {
			id := it.ID
			m.closeOverlay()
			return m, m.selectSessionCmd(id)
		}
		m.closeOverlay()
		return m, nil
	case "d", "delete":
		if it := m.sessions.selected(); it != nil {
			return m, m.deleteSessionCmd(it.ID)
		}
		return m, nil
	case "backspace":
		if m.sessions.filter != "" {
			runes := []rune(m.sessions.filter)
			m.sessions.filter = string(runes[:len(runes)-1])
			m.sessions.clampCursor()
		}
		return m, nil
	}
	// Printable input narrows the list. "d" is taken by delete, which
	// titles rarely need as a filter start anyway.
	if msg.Type == tea.KeyRunes {
		m.sessions.filter += string(msg.Runes)
		m.sessions.cursor = 0
	}
	return m, nil
}

func (m Model) handleDocumentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.closeOverlay()
		return m, nil
	case "up", "ctrl+p":
		m.docs.cursor--
		m.docs.clampCursor()
		return m, nil
	case "down", "ctrl+n":
		m.docs.cursor++
		m.docs.clampCursor()
		return m, nil
	case "d", "delete":
		if it := m.docs.selected(); it != nil {
			return m, m.deleteDocumentCmd(it.ID)
		}
		return m, nil
	case "r":
		return m, m.syncDocumentsCmd()
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.pending {
		// Only escape works while the request is out.
		if msg.String() == "esc" {
			m.closeOverlay()
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.closeOverlay()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.login.cycleFocus()
		return m, nil
	case "enter":
		if m.login.focused == 0 {
			m.login.cycleFocus()
			return m, nil
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	if m.login.focused == 0 {
		m.login.email, cmd = m.login.email.Update(msg)
	} else {
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// OVERLAY COMMANDS
// =============================================================================

// selectSessionCmd switches the active chat through the store.
func (m *Model) selectSessionCmd(id string) tea.Cmd {
	store := m.svc.Store
	return func() tea.Msg {
		if err := store.Select(id); err != nil {
			return commands.ErrorMsg{Title: m.T("command.session_not_found", id)}
		}
		return commands.SessionSelectedMsg{ID: id}
	}
}

// deleteSessionCmd removes a chat and re-lists for the open picker.
func (m *Model) deleteSessionCmd(id string) tea.Cmd {
	store := m.svc.Store
	return func() tea.Msg {
		if err := store.Delete(id); err != nil {
			return commands.SessionDeletedMsg{ID: id, Error: err}
		}
		return commands.SessionDeletedMsg{ID: id, Promoted: store.ActiveID()}
	}
}

// deleteDocumentCmd removes a document from the backend index and the
// local cache, then refreshes the picker. Backend failure keeps the
// local row so the next sync can reconcile.
func (m *Model) deleteDocumentCmd(id string) tea.Cmd {
	client := m.svc.Client
	store := m.svc.Documents
	return func() tea.Msg {
		if client != nil && client.IsConfigured() {
			ctx, cancel := contextWithTimeout(10 * time.Second)
			err := client.DeleteDocument(ctx, id)
			cancel()
			if err != nil {
				return commands.DocumentListMsg{Error: err}
			}
		}
		if store != nil {
			if err := store.Delete(id); err != nil {
				return commands.DocumentListMsg{Error: err}
			}
			docs, err := store.List()
			if err != nil {
				return commands.DocumentListMsg{Error: err}
			}
			return commands.DocumentListMsg{Documents: docs, Notice: "docs.deleted"}
		}
		return commands.DocumentListMsg{}
	}
}

// syncDocumentsCmd reconciles the local cache against the backend list
// and refreshes the picker.
func (m *Model) syncDocumentsCmd() tea.Cmd {
	client := m.svc.Client
	store := m.svc.Documents
	return func() tea.Msg {
		if store == nil {
			return commands.DocumentListMsg{}
		}
		if client != nil && client.IsConfigured() {
			ctx, cancel := contextWithTimeout(30 * time.Second)
			_, _, err := store.Sync(ctx, client)
			cancel()
			if err != nil {
				return commands.DocumentListMsg{Error: err}
			}
		}
		docs, err := store.List()
		if err != nil {
			return commands.DocumentListMsg{Error: err}
		}
		return commands.DocumentListMsg{Documents: docs, Notice: "docs.synced"}
	}
}

// submitLogin validates the form and fires the sign-in request.
func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	email := m.login.email.Value()
	password := m.login.password.Value()
	if email == "" || password == "" {
		return m, nil
	}

	m.login.pending = true
	m.login.errText = ""

	mgr := m.svc.Auth
	return m, func() tea.Msg {
		if mgr == nil {
			return LoginResultMsg{Err: auth.ErrNotSignedIn}
		}
		ctx, cancel := contextWithTimeout(15 * time.Second)
		defer cancel()
		user, err := mgr.SignIn(ctx, email, password)
		return LoginResultMsg{User: user, Err: err}
	}
}
