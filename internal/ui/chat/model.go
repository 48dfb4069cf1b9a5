// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the nabi TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/commands"
	"github.com/jeranaias/nabi-tui/internal/config"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/model"
	"github.com/jeranaias/nabi-tui/internal/session"
	"github.com/jeranaias/nabi-tui/internal/ui/components"
	"github.com/jeranaias/nabi-tui/internal/ui/styles"
	"github.com/jeranaias/nabi-tui/internal/validate"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the view's streaming phase. Errors do not get a state of
// their own: a failed stream lands back in StateReady with the
// explanation in the transcript and a toast on screen.
type State int

const (
	StateReady     State = iota // prompt focused, waiting for input
	StateStreaming              // reply in flight
)

// healthInterval paces the background backend probe that drives the
// connected/offline indicator.
const healthInterval = 30 * time.Second

// =============================================================================
// SERVICES
// =============================================================================

// Services bundles everything the view depends on. All fields are
// constructed in main and shared with the CLI paths; the view never
// creates its own service objects.
type Services struct {
	Config    *config.Config
	Store     *session.Store
	Client    *api.Client
	Auth      *auth.Manager
	Documents *docstore.Store
	Uploader  *docstore.Uploader
	Localizer *i18n.Localizer
	Registry  *commands.Registry
	Commands  *commands.Context
	Logger    *logging.Logger
	Version   string
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Wired services
	svc Services
	log *logging.Logger

	// UI components
	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	transcript *components.MessageList
	statusBar  *components.StatusBar
	welcome    components.Welcome
	toasts     *components.ToastManager
	popup      *components.CompletionPopup

	// Key bindings
	keyMap KeyMap

	// Streaming
	batcher   *StreamBatcher
	cancelMgr *cancelManager // pointer: Bubble Tea copies the model, a copied mutex is corrupt
	streamID  string         // local session owning the in-flight stream

	// Render dedupe for viewport content
	rendered *renderCache

	// Tab completion
	completer       *commands.Completer
	completions     *commands.CompletionState
	showCompletions bool

	// Scroll anchoring
	anchor scrollAnchor

	// Overlays
	overlay  overlayKind
	sessions sessionPicker
	docs     documentPicker
	login    loginForm

	// Chrome
	connected     bool
	showWelcome   bool
	queuedUploads int
}

// New creates the chat view over already-constructed services.
func New(theme *styles.Theme, svc Services) Model {
	loc := svc.Localizer

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = validate.MaxMessageLength
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	// ASCII frames so the typing indicator survives dumb terminals.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	list := components.NewMessageList(theme)
	list.Markdown = svc.Config == nil || svc.Config.UI.Markdown

	bar := components.NewStatusBar(theme)

	wel := components.NewWelcome(theme)
	wel.SetVersion(svc.Version)
	if svc.Client != nil && svc.Client.IsConfigured() {
		wel.SetServer(svc.Client.BaseURL())
	}
	if svc.Auth != nil && svc.Auth.IsSignedIn() {
		if u := svc.Auth.CurrentUser(); u != nil {
			wel.SetAccount(u.Email)
			bar.SetAccount(u.Email)
		}
	}
	if svc.Documents != nil {
		if n, err := svc.Documents.Count(); err == nil {
			wel.SetDocCount(n)
		}
	}

	log := svc.Logger
	if log == nil {
		log = logging.NewNop()
	}

	m := Model{
		state:       StateReady,
		theme:       theme,
		svc:         svc,
		log:         log.Named("chat"),
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		transcript:  list,
		statusBar:   bar,
		welcome:     wel,
		toasts:      components.NewToastManager(),
		popup:       components.NewCompletionPopup(theme),
		keyMap:      DefaultKeyMap(),
		batcher:     NewStreamBatcher(),
		cancelMgr:   newCancelManager(),
		rendered:    newRenderCache(),
		completer:   commands.NewCompleter(svc.Registry),
		completions: commands.NewCompletionState(),
		anchor:      newScrollAnchor(),
		overlay:     overlayNone,
		login:       newLoginForm(loc),
		showWelcome: true,
	}
	m.applyLocale()
	return m
}

// T resolves a catalog key through the wired localizer.
func (m *Model) T(key string, args ...any) string {
	if m.svc.Localizer == nil {
		return key
	}
	return m.svc.Localizer.T(key, args...)
}

// applyLocale re-labels the static chrome. Called once on construction
// and again whenever the interface language changes.
func (m *Model) applyLocale() {
	m.input.Placeholder = m.T("ui.input_placeholder")
	m.transcript.UserLabel = m.T("ui.you")
	m.transcript.AssistantLabel = m.T("ui.assistant")
	m.transcript.TypingLabel = m.T("ui.typing")
	m.transcript.EmptyText = m.T("ui.empty_chat")
	if m.svc.Localizer != nil {
		m.statusBar.SetLocale(m.svc.Localizer.Locale())
		m.welcome.SetLocale(m.svc.Localizer.Locale())
	}
	if m.state == StateStreaming {
		m.statusBar.SetStatus(components.StatusStreaming, m.T("ui.receiving"))
	} else {
		m.statusBar.SetStatus(components.StatusReady, m.T("ui.ready"))
	}
	m.statusBar.SetConnection(m.connected, m.connectionLabel())
}

func (m *Model) connectionLabel() string {
	if m.connected {
		return m.T("ui.connected")
	}
	return m.T("ui.offline")
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink, the spinner, and the first health probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.healthCheckCmd(),
	)
}

// View renders the chat view.
func (m Model) View() string {
	return m.renderChat()
}

// =============================================================================
// RESIZE
// =============================================================================

// Conservative height estimates for the fixed chrome. renderChat
// measures the real heights with lipgloss.Height and pads on mismatch,
// so these only need to be large enough that the viewport never
// overflows the terminal.
const (
	inputAreaHeight = 3 // separator + prompt line + hint line
	statusBarHeight = 1
)

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	viewportHeight := m.height - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	viewportWidth := m.width
	if viewportWidth < 1 {
		viewportWidth = 1
	}
	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight

	// The prompt line carries Padding(0,1) plus the two-character "> "
	// prompt; keep the input narrow enough that the cursor never wraps.
	inputWidth := m.width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	if m.theme != nil {
		m.theme.SetSize(m.width, m.height)
	}
	m.statusBar.SetWidth(m.width)
	m.transcript.SetWidth(viewportWidth)
	m.welcome.SetSize(m.width, viewportHeight)
	m.popup.SetWidth(clampInt(m.width-4, 20, 60))

	m.refreshTranscript(true)

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

// =============================================================================
// TRANSCRIPT REFRESH
// =============================================================================

// refreshTranscript re-renders the active session into the viewport.
// force bypasses the content-hash dedupe (resize, locale switch).
// While the reader is anchored the viewport follows new content;
// detached readers keep their scroll position.
func (m *Model) refreshTranscript(force bool) {
	sess := m.svc.Store.Active()

	var content string
	if (sess == nil || sess.IsEmpty()) && m.showWelcome {
		content = m.welcome.View()
	} else {
		m.showWelcome = false
		content = m.transcriptView(sess)
	}

	if !force && !m.rendered.changed(content) {
		return
	}
	m.viewport.SetContent(content)

	if m.anchor.follow() {
		m.viewport.GotoBottom()
	}
	m.syncSessionStatus(sess)
}

// transcriptView renders the message list with the current spinner
// frame so the typing indicator animates between refreshes.
func (m *Model) transcriptView(sess *model.Session) string {
	if sess == nil {
		m.transcript.SetMessages(nil)
	} else {
		m.transcript.SetMessages(sess.Messages)
	}
	m.transcript.SpinnerFrame = m.spinner.View()
	return m.transcript.View()
}

// syncSessionStatus mirrors the active session into the status bar.
func (m *Model) syncSessionStatus(sess *model.Session) {
	if sess == nil {
		m.statusBar.SetSession("", 0)
		return
	}
	title := sess.DisplayTitle()
	if title == "" {
		title = m.T("session.untitled")
	}
	m.statusBar.SetSession(title, sess.MessageCount())
}

// =============================================================================
// HEALTH PROBE
// =============================================================================

// healthCheckCmd probes the backend off the update loop. The result
// only moves the indicator; a dead backend never blocks typing.
func (m *Model) healthCheckCmd() tea.Cmd {
	client := m.svc.Client
	return func() tea.Msg {
		if client == nil || !client.IsConfigured() {
			return HealthCheckMsg{Healthy: false}
		}
		ctx, cancel := contextWithTimeout(5 * time.Second)
		defer cancel()
		_, err := client.Health(ctx)
		return HealthCheckMsg{Healthy: err == nil}
	}
}

// healthTickCmd schedules the next periodic probe.
func healthTickCmd() tea.Cmd {
	return tea.Tick(healthInterval, func(t time.Time) tea.Msg {
		return HealthTickMsg{Time: t}
	})
}

// =============================================================================
// ACCESSORS
// =============================================================================

// GetState returns the current streaming phase.
func (m *Model) GetState() State {
	return m.state
}

// IsStreaming reports whether a reply is in flight.
func (m *Model) IsStreaming() bool {
	return m.state == StateStreaming
}
