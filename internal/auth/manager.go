// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/nabi-tui/internal/logging"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies an auth state transition.
type EventKind int

const (
	// EventSignedIn fires after a successful sign-in or sign-up.
	EventSignedIn EventKind = iota

	// EventSignedOut fires after an explicit sign-out.
	EventSignedOut

	// EventSessionExpired fires when a refresh fails and the stored
	// session is discarded. The user must sign in again.
	EventSessionExpired

	// EventRefreshed fires after a successful token refresh.
	EventRefreshed
)

// Event describes an auth state change delivered to subscribers.
type Event struct {
	Kind EventKind
	User *User
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the auth session lifecycle: sign-in, persistence via the
// keystore, proactive refresh, and expiry notification. It satisfies
// api.TokenSource so the API client can pull tokens on demand.
//
// All methods are safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	refreshMu   sync.Mutex
	client      *SupabaseClient
	keystore    *Keystore
	session     *Session
	subscribers []func(Event)
	log         *logging.Logger
}

// NewManager creates an auth manager. The keystore may be nil, in which
// case sessions live only in memory.
func NewManager(client *SupabaseClient, keystore *Keystore) *Manager {
	return &Manager{
		client:   client,
		keystore: keystore,
		log:      logging.NewNop(),
	}
}

// WithLogger attaches a logger.
func (m *Manager) WithLogger(log *logging.Logger) *Manager {
	m.log = log
	return m
}

// Subscribe registers a callback for auth events. Callbacks run outside
// the manager lock, so they may call back into the manager.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.mu.Unlock()
}

// notify delivers an event to all subscribers. Callers must not hold mu.
func (m *Manager) notify(ev Event) {
	m.mu.RLock()
	subs := make([]func(Event), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Load restores a persisted session from the keystore. A missing or
// unreadable session is not an error: the app starts as guest.
func (m *Manager) Load() {
	if m.keystore == nil {
		return
	}
	sess, err := m.keystore.LoadSession()
	if err != nil {
		if !errors.Is(err, ErrNoStoredSession) {
			m.log.Warn("stored session unreadable, starting as guest", logging.Err(err))
			_ = m.keystore.DeleteSession()
		}
		return
	}
	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()
	m.log.Info("session restored", logging.String("user", sess.User.Email))
}

// SignIn authenticates with email and password and persists the session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*User, error) {
	sess, err := m.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.install(sess)
	m.notify(Event{Kind: EventSignedIn, User: &sess.User})
	return &sess.User, nil
}

// SignUp registers a new account. Depending on project settings the
// returned session may be empty until the email is confirmed; a session
// with an access token is installed like a sign-in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*User, error) {
	sess, err := m.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if sess.AccessToken != "" {
		m.install(sess)
		m.notify(Event{Kind: EventSignedIn, User: &sess.User})
	}
	return &sess.User, nil
}

// SignOut revokes the session server-side (best effort) and clears
// local state. Local state is cleared even if revocation fails.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if sess != nil {
		if err := m.client.SignOut(ctx, sess.AccessToken); err != nil {
			m.log.Debug("server-side sign-out failed", logging.Err(err))
		}
	}
	m.clear()
	m.notify(Event{Kind: EventSignedOut})
}

// install stores a session in memory and the keystore.
func (m *Manager) install(sess *Session) {
	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()
	if m.keystore != nil {
		if err := m.keystore.SaveSession(sess); err != nil {
			m.log.Warn("failed to persist session", logging.Err(err))
		}
	}
}

// clear drops the in-memory session and the persisted copy.
func (m *Manager) clear() {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	if m.keystore != nil {
		_ = m.keystore.DeleteSession()
	}
}

// =============================================================================
// STATE QUERIES
// =============================================================================

// IsSignedIn reports whether a session is present.
func (m *Manager) IsSignedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil
}

// CurrentUser returns the signed-in user, or nil for guests.
func (m *Manager) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil
	}
	u := m.session.User
	return &u
}

// =============================================================================
// TOKEN SOURCE
// =============================================================================

// Token returns a valid access token, refreshing proactively when the
// current one is within a minute of expiry. Guests get an empty token:
// the API client then falls back to anonymous access.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if sess == nil {
		return "", nil
	}
	if !TokenExpired(sess.AccessToken) {
		return sess.AccessToken, nil
	}
	return m.Refresh(ctx)
}

// Refresh forces a token refresh, even when the current token still
// looks valid locally (the server may have rejected it). A refresh that
// fails because the refresh token itself is expired or revoked clears
// the session and notifies subscribers.
//
// RELIABILITY: Supabase rotates refresh tokens on every use, so two
// concurrent refreshes would invalidate each other. refreshMu makes
// refresh single-flight: a caller that waited while another refreshed
// detects the rotation and returns the fresh token without a request.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()
	if sess == nil {
		return "", ErrNotSignedIn
	}
	stale := sess.AccessToken

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.RLock()
	sess = m.session
	m.mu.RUnlock()
	if sess == nil {
		return "", ErrNotSignedIn
	}
	if sess.AccessToken != stale && !TokenExpired(sess.AccessToken) {
		return sess.AccessToken, nil
	}

	fresh, err := m.client.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			m.log.Info("refresh token rejected, clearing session")
			m.clear()
			m.notify(Event{Kind: EventSessionExpired})
		}
		return "", err
	}

	m.install(fresh)
	m.notify(Event{Kind: EventRefreshed, User: &fresh.User})
	m.log.Debug("access token refreshed")
	return fresh.AccessToken, nil
}
