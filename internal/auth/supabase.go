// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jeranaias/nabi-tui/internal/logging"
)

// Configuration constants for the GoTrue API.
const (
	// authTimeout bounds every auth request.
	authTimeout = 30 * time.Second

	// maxAuthResponse caps auth response bodies.
	// SECURITY: Response size limit prevents memory exhaustion.
	maxAuthResponse = 1 * 1024 * 1024
)

// Error variables for common auth failures.
var (
	// ErrInvalidCredentials indicates a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionExpired indicates the refresh token is no longer valid
	// and a full sign-in is required.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotSignedIn indicates an operation that needs a session was
	// called in guest mode.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrInvalidEmail indicates an address that failed local format
	// validation. The server was not contacted.
	ErrInvalidEmail = errors.New("invalid email address")
)

var emailValidator = validator.New()

// validEmail checks the address format locally before a network call.
func validEmail(email string) bool {
	return emailValidator.Var(email, "required,email") == nil
}

// AuthError is a failure reported by the GoTrue API.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("auth error (HTTP %d): %s", e.Status, e.Message)
}

// User identifies a Supabase account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session is a GoTrue token pair plus its owner. ExpiresAt is a Unix
// timestamp; the authoritative expiry lives inside the JWT itself and
// is what the expiry check reads.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// SupabaseClient performs raw GoTrue REST calls. It holds no session
// state; Manager layers that on top.
type SupabaseClient struct {
	url        string
	anonKey    string
	httpClient *http.Client
	log        *logging.Logger
}

// NewSupabaseClient creates a client for the given project URL and
// publishable anon key.
func NewSupabaseClient(url, anonKey string) *SupabaseClient {
	return &SupabaseClient{
		url:        strings.TrimSuffix(url, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: authTimeout},
		log:        logging.NewNop(),
	}
}

// WithHTTPClient replaces the HTTP client. Intended for tests.
func (c *SupabaseClient) WithHTTPClient(hc *http.Client) *SupabaseClient {
	c.httpClient = hc
	return c
}

// WithLogger routes auth logging to the given logger.
func (c *SupabaseClient) WithLogger(log *logging.Logger) *SupabaseClient {
	c.log = log
	return c
}

// IsConfigured reports whether both the URL and the anon key are set.
func (c *SupabaseClient) IsConfigured() bool {
	return c.url != "" && c.anonKey != ""
}

// =============================================================================
// TOKEN OPERATIONS
// =============================================================================

// SignIn exchanges an email/password pair for a session.
func (c *SupabaseClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	body := map[string]string{"email": email, "password": password}
	var sess Session
	err := c.post(ctx, "/auth/v1/token?grant_type=password", "", body, &sess)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) && (ae.Status == http.StatusBadRequest || ae.Status == http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, ae.Message)
		}
		return nil, err
	}
	c.log.Info("signed in", logging.String("user", sess.User.ID))
	return &sess, nil
}

// SignUp registers a new account. When the project requires email
// confirmation the returned session has no access token yet; callers
// should treat that as "registered but not signed in".
func (c *SupabaseClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	body := map[string]string{"email": email, "password": password}
	var sess Session
	if err := c.post(ctx, "/auth/v1/signup", "", body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// RefreshSession exchanges a refresh token for a new token pair. A
// rejected refresh token means the server-side session is gone.
func (c *SupabaseClient) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var sess Session
	err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body, &sess)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) && (ae.Status == http.StatusBadRequest || ae.Status == http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %s", ErrSessionExpired, ae.Message)
		}
		return nil, err
	}
	return &sess, nil
}

// SignOut revokes the session server-side. A failed revocation is not
// fatal; the caller discards local tokens regardless.
func (c *SupabaseClient) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

// CurrentUser fetches the account behind an access token.
func (c *SupabaseClient) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	var user User
	if err := c.send(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// newRequest builds a GoTrue request. The apikey header always carries
// the anon key; Authorization carries the user token when one exists,
// otherwise the anon key, matching supabase-js.
func (c *SupabaseClient) newRequest(ctx context.Context, method, path, accessToken string, body io.Reader) (*http.Request, error) {
	if !c.IsConfigured() {
		return nil, errors.New("supabase not configured")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *SupabaseClient) post(ctx context.Context, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, accessToken, reader)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *SupabaseClient) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponse))
	if err != nil {
		return fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAuthError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse auth response: %w", err)
	}
	return nil
}

// parseAuthError handles the three error shapes GoTrue has shipped:
// {"error","error_description"}, {"code","msg"}, and {"message"}.
func parseAuthError(status int, data []byte) error {
	var body struct {
		Error            string          `json:"error"`
		ErrorCode        string          `json:"error_code"`
		ErrorDescription string          `json:"error_description"`
		Code             json.RawMessage `json:"code"`
		Msg              string          `json:"msg"`
		Message          string          `json:"message"`
	}
	ae := &AuthError{Status: status}
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.ErrorDescription != "":
			ae.Code, ae.Message = body.Error, body.ErrorDescription
		case body.Msg != "":
			ae.Code, ae.Message = body.ErrorCode, body.Msg
		case body.Message != "":
			ae.Message = body.Message
		case body.Error != "":
			ae.Message = body.Error
		}
	}
	if ae.Message == "" {
		ae.Message = strings.TrimSpace(string(data))
	}
	return ae
}
