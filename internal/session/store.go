// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/model"
	"github.com/jeranaias/nabi-tui/internal/storage"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies a store change delivered to subscribers.
type EventKind int

const (
	// EventSessionsChanged fires when the session set or the active
	// session changes: create, select, delete, backend adoption.
	EventSessionsChanged EventKind = iota

	// EventMessagesChanged fires when message content of a session
	// changes: exchange start, streamed text, agent label, completion,
	// failure, retry.
	EventMessagesChanged

	// EventSyncFailed fires when a best-effort backend sync (session
	// create or delete) fails. Local state is never reverted.
	EventSyncFailed
)

// Event describes a store change.
type Event struct {
	Kind      EventKind
	SessionID string
	Err       error
}

// Error variables for store operations.
var (
	// ErrStreamActive rejects a second send while a stream is running.
	ErrStreamActive = errors.New("a stream is already active for this session")

	// ErrNoActiveSession indicates an operation that needs an active
	// session when none is selected.
	ErrNoActiveSession = errors.New("no active session")

	// ErrNotFound indicates an unknown session id.
	ErrNotFound = errors.New("session not found")

	// ErrNoExchange indicates there is no completed user/assistant
	// pair to retry.
	ErrNoExchange = errors.New("no exchange to retry")
)

// =============================================================================
// STORE
// =============================================================================

// autosaveInterval bounds how much streamed text an unclean exit can
// lose. Structural changes always persist immediately; token appends
// mark the session dirty and ride this interval.
const autosaveInterval = 2 * time.Second

// syncTimeout bounds background backend sync calls.
const syncTimeout = 10 * time.Second

// Store owns all sessions and messages. It is the single mutation
// point: the UI and CLI call its methods and observe changes through
// Subscribe. Persistence is local-first; backend sync is best-effort
// and never blocks or reverts a local operation.
//
// Methods are safe for concurrent use. Returned sessions are live
// references owned by the store; read them from the event loop that
// drives mutations.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	activeID string
	dirty    map[string]bool
	lastSave time.Time

	// streamAlias maps a pre-rename session id to the adopted backend
	// id for the duration of a stream, so in-flight token and finalize
	// calls keyed by the old id keep landing after adoption.
	streamAlias map[string]string

	files    *storage.SessionStore
	state    *storage.StateStore
	appState *storage.AppState
	client   *api.Client
	loc      *i18n.Localizer
	log      *logging.Logger
	now      func() time.Time

	subscribers []func(Event)
}

// NewStore creates a session store over its dependencies. The client
// may be nil or unconfigured; every backend interaction degrades to
// local-only operation.
func NewStore(files *storage.SessionStore, state *storage.StateStore, client *api.Client, loc *i18n.Localizer) *Store {
	return &Store{
		sessions:    make(map[string]*model.Session),
		dirty:       make(map[string]bool),
		streamAlias: make(map[string]string),
		files:       files,
		state:       state,
		client:      client,
		loc:         loc,
		log:         logging.NewNop(),
		now:         time.Now,
	}
}

// WithLogger attaches a logger.
func (s *Store) WithLogger(log *logging.Logger) *Store {
	s.log = log
	return s
}

// WithClock replaces the store's clock.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Subscribe registers a callback for store events. Callbacks run
// outside the store lock and may call back into the store.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	subs := make([]func(Event), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// =============================================================================
// HYDRATION
// =============================================================================

// Load restores sessions and app state from disk. Storage problems
// degrade to an empty store rather than failing startup.
func (s *Store) Load() {
	sessions, err := s.files.LoadAll()
	if err != nil {
		s.log.Warn("failed to load stored sessions", logging.Err(err))
	}

	s.mu.Lock()
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	s.appState = s.state.Load()
	if _, ok := s.sessions[s.appState.ActiveSessionID]; ok {
		s.activeID = s.appState.ActiveSessionID
	} else if len(sessions) > 0 {
		// LoadAll is most recently updated first.
		s.activeID = sessions[0].ID
	}
	s.mu.Unlock()

	if len(sessions) > 0 {
		s.log.Info("sessions restored",
			logging.Int("count", len(sessions)),
			logging.String("active", s.ActiveID()))
	}
}

// DeviceID returns the stable per-install identifier.
func (s *Store) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appState == nil {
		s.appState = s.state.Load()
	}
	return s.appState.DeviceID
}

// =============================================================================
// SESSION CRUD
// =============================================================================

// Create starts a new local session and makes it active.
func (s *Store) Create() *model.Session {
	s.mu.Lock()
	sess := model.NewSession()
	s.sessions[sess.ID] = sess
	s.activeID = sess.ID
	s.persistSessionLocked(sess)
	s.persistStateLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventSessionsChanged, SessionID: sess.ID})
	return sess
}

// Select makes an existing session active.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.activeID = id
	s.persistStateLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventSessionsChanged, SessionID: id})
	return nil
}

// Active returns the active session, or nil when none is selected.
func (s *Store) Active() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[s.activeID]
}

// ActiveID returns the active session id, or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Get returns a session by id.
func (s *Store) Get(id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// List returns session metadata, most recently updated first.
func (s *Store) List() []model.SessionMeta {
	s.mu.Lock()
	metas := make([]model.SessionMeta, 0, len(s.sessions))
	for _, sess := range s.sessions {
		metas = append(metas, sess.Meta())
	}
	s.mu.Unlock()

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas
}

// Delete removes a session. If it was active, the most recently
// updated remaining session is promoted (or none). The backend copy is
// cleared best-effort in the background.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.dirty, id)
	s.dropAliasesLocked(id)
	if err := s.files.Delete(id); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		s.log.Warn("failed to delete session file", logging.String("session", id), logging.Err(err))
	}

	if s.activeID == id {
		s.activeID = s.mostRecentLocked()
	}
	s.persistStateLocked()
	wasSynced := !sess.LocalOnly
	s.mu.Unlock()

	s.notify(Event{Kind: EventSessionsChanged, SessionID: id})

	if wasSynced && s.client != nil && s.client.IsConfigured() {
		go s.syncDelete(id)
	}
	return nil
}

// mostRecentLocked returns the most recently updated session id, or "".
func (s *Store) mostRecentLocked() string {
	best := ""
	var bestTime time.Time
	for id, sess := range s.sessions {
		if best == "" || sess.UpdatedAt.After(bestTime) {
			best = id
			bestTime = sess.UpdatedAt
		}
	}
	return best
}

// =============================================================================
// EXCHANGE LIFECYCLE
// =============================================================================

// BeginExchange appends the user message and an assistant placeholder
// to the active session as one step and marks it streaming. The first
// send in a locally created session also kicks off a background
// backend create that never blocks the exchange.
func (s *Store) BeginExchange(input string) (*model.Session, error) {
	s.mu.Lock()
	sess := s.sessions[s.activeID]
	if sess == nil {
		s.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	if sess.Streaming {
		s.mu.Unlock()
		return nil, ErrStreamActive
	}
	sess.BeginExchange(input)
	s.persistSessionLocked(sess)
	wasLocal := sess.LocalOnly
	id := sess.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessagesChanged, SessionID: id})

	if wasLocal && s.client != nil && s.client.IsConfigured() {
		go s.syncCreate(id)
	}
	return sess, nil
}

// resolveLocked returns the session for id, following the stream
// alias when the backend renamed it mid-stream. Callers hold mu.
func (s *Store) resolveLocked(id string) *model.Session {
	if sess := s.sessions[id]; sess != nil {
		return sess
	}
	if adopted, ok := s.streamAlias[id]; ok {
		return s.sessions[adopted]
	}
	return nil
}

// dropAliasesLocked forgets aliases involving id once its stream is
// over. Callers hold mu.
func (s *Store) dropAliasesLocked(id string) {
	for from, to := range s.streamAlias {
		if from == id || to == id {
			delete(s.streamAlias, from)
		}
	}
}

// AppendToken routes streamed text into the trailing placeholder of
// the streaming session. Persistence rides the autosave interval.
func (s *Store) AppendToken(id, text string) {
	s.mu.Lock()
	sess := s.resolveLocked(id)
	if sess == nil || !sess.Streaming {
		s.mu.Unlock()
		return
	}
	sess.AppendText(text)
	s.dirty[sess.ID] = true
	if s.now().Sub(s.lastSave) >= autosaveInterval {
		s.persistSessionLocked(sess)
	}
	id = sess.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessagesChanged, SessionID: id})
}

// SetAgent records the responding agent on the trailing placeholder.
func (s *Store) SetAgent(id, agent string) {
	s.mu.Lock()
	sess := s.resolveLocked(id)
	if sess == nil || !sess.Streaming {
		s.mu.Unlock()
		return
	}
	sess.SetAgent(agent)
	id = sess.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessagesChanged, SessionID: id})
}

// FinalizeExchange completes the in-flight exchange.
func (s *Store) FinalizeExchange(id string) {
	s.mu.Lock()
	sess := s.resolveLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.FinalizeExchange()
	s.persistSessionLocked(sess)
	s.dropAliasesLocked(sess.ID)
	id = sess.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessagesChanged, SessionID: id})
}

// FailExchange replaces the partial assistant content with a localized
// explanation of the classified error and ends the stream.
func (s *Store) FailExchange(id string, cerr *api.ChatError) {
	s.mu.Lock()
	sess := s.resolveLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.FailExchange(s.explain(cerr))
	s.persistSessionLocked(sess)
	s.dropAliasesLocked(sess.ID)
	id = sess.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessagesChanged, SessionID: id})
}

// explain localizes a classified error for display in place of the
// assistant reply.
func (s *Store) explain(cerr *api.ChatError) string {
	if cerr == nil {
		cerr = &api.ChatError{Kind: api.KindUnknown}
	}
	if s.loc != nil {
		return s.loc.T(cerr.Kind.MessageKey())
	}
	if cerr.Message != "" {
		return cerr.Message
	}
	return cerr.Kind.String()
}

// RetryLast discards the last user/assistant pair of the active
// session and returns the original input for resubmission.
func (s *Store) RetryLast() (string, error) {
	s.mu.Lock()
	sess := s.sessions[s.activeID]
	if sess == nil {
		s.mu.Unlock()
		return "", ErrNoActiveSession
	}
	if sess.Streaming {
		s.mu.Unlock()
		return "", ErrStreamActive
	}
	input, ok := sess.DropLastExchange()
	if !ok {
		s.mu.Unlock()
		return "", ErrNoExchange
	}
	s.persistSessionLocked(sess)
	id := sess.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessagesChanged, SessionID: id})
	return input, nil
}

// AbortExchange ends the stream without touching committed content.
// Already-streamed text stays; a placeholder that never received a
// token is dropped so no empty bubble lingers in history.
func (s *Store) AbortExchange(id string) {
	s.mu.Lock()
	sess := s.resolveLocked(id)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.AbortExchange()
	s.persistSessionLocked(sess)
	s.dropAliasesLocked(sess.ID)
	id = sess.ID
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessagesChanged, SessionID: id})
}

// IsStreaming reports whether the active session has a live stream.
func (s *Store) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[s.activeID]
	return sess != nil && sess.Streaming
}

// =============================================================================
// BACKEND SYNC
// =============================================================================

// ConfirmBackendSession records that the backend acknowledged a
// session, adopting the server's id when it differs from the local
// one. Called from the create sync and from stream metadata events.
func (s *Store) ConfirmBackendSession(localID, serverID string) {
	s.mu.Lock()
	sess := s.sessions[localID]
	if sess == nil {
		s.mu.Unlock()
		return
	}
	sess.LocalOnly = false

	renamed := false
	if serverID != "" && serverID != localID {
		delete(s.sessions, localID)
		delete(s.dirty, localID)
		if err := s.files.Delete(localID); err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
			s.log.Warn("failed to remove renamed session file", logging.Err(err))
		}
		sess.ID = serverID
		s.sessions[serverID] = sess
		if s.activeID == localID {
			s.activeID = serverID
		}
		if sess.Streaming {
			// The live stream still keys its calls by the old id.
			s.streamAlias[localID] = serverID
		}
		renamed = true
	}
	s.persistSessionLocked(sess)
	if renamed {
		s.persistStateLocked()
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventSessionsChanged, SessionID: sess.ID})
}

// syncCreate registers a local session with the backend.
func (s *Store) syncCreate(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	info, err := s.client.CreateSession(ctx, id)
	if err != nil {
		s.log.Warn("backend session create failed",
			logging.String("session", id), logging.Err(err))
		s.notify(Event{Kind: EventSyncFailed, SessionID: id, Err: err})
		return
	}
	s.ConfirmBackendSession(id, info.SessionID)
}

// syncDelete clears a deleted session's backend memory.
func (s *Store) syncDelete(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := s.client.ClearSession(ctx, id); err != nil {
		s.log.Warn("backend session delete failed",
			logging.String("session", id), logging.Err(err))
		s.notify(Event{Kind: EventSyncFailed, SessionID: id, Err: err})
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persistSessionLocked writes one session file. Callers hold mu.
func (s *Store) persistSessionLocked(sess *model.Session) {
	if err := s.files.Save(sess); err != nil {
		s.log.Warn("failed to persist session",
			logging.String("session", sess.ID), logging.Err(err))
		return
	}
	delete(s.dirty, sess.ID)
	s.lastSave = s.now()
}

// persistStateLocked writes the app state file. Callers hold mu.
func (s *Store) persistStateLocked() {
	if s.appState == nil {
		s.appState = s.state.Load()
	}
	s.appState.ActiveSessionID = s.activeID
	if err := s.state.Save(s.appState); err != nil {
		s.log.Warn("failed to persist app state", logging.Err(err))
	}
}

// Flush writes every dirty session. Call on shutdown.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.dirty {
		if sess := s.sessions[id]; sess != nil {
			s.persistSessionLocked(sess)
		}
	}
}

// SetLocale records the locale preference in the app state.
func (s *Store) SetLocale(locale string) {
	s.mu.Lock()
	if s.appState == nil {
		s.appState = s.state.Load()
	}
	s.appState.Locale = locale
	if err := s.state.Save(s.appState); err != nil {
		s.log.Warn("failed to persist app state", logging.Err(err))
	}
	s.mu.Unlock()
}

// Locale returns the persisted locale preference, or "".
func (s *Store) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appState == nil {
		s.appState = s.state.Load()
	}
	return s.appState.Locale
}
