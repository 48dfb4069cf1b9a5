// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for the GoTrue REST client:
// - Header contract (apikey + Authorization)
// - Credential and refresh error mapping
// - Error body shapes across GoTrue versions
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const testAnonKey = "anon-key-12345"

// fakeGoTrue records requests and serves canned responses per path.
type fakeGoTrue struct {
	t        *testing.T
	requests []*http.Request
	bodies   []map[string]any
	handler  http.HandlerFunc
}

func newFakeGoTrue(t *testing.T, handler http.HandlerFunc) (*fakeGoTrue, *SupabaseClient) {
	f := &fakeGoTrue{t: t, handler: handler}
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, NewSupabaseClient(server.URL, testAnonKey)
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests = append(f.requests, r)
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	f.bodies = append(f.bodies, body)
	f.handler(w, r)
}

func writeSession(w http.ResponseWriter, accessToken string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Session{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: "refresh-1",
		User:         User{ID: "user-1", Email: "user@example.com"},
	})
}

// =============================================================================
// SIGN-IN TESTS
// =============================================================================

// TestSupabase_SignIn tests the password grant request and headers.
func TestSupabase_SignIn(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "access-1")
	})

	sess, err := client.SignIn(context.Background(), "user@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "access-1", sess.AccessToken)
	require.Equal(t, "user@example.com", sess.User.Email)

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/auth/v1/token", req.URL.Path)
	require.Equal(t, "password", req.URL.Query().Get("grant_type"))
	require.Equal(t, testAnonKey, req.Header.Get("apikey"))
	require.Equal(t, "Bearer "+testAnonKey, req.Header.Get("Authorization"),
		"Anonymous requests carry the anon key as bearer token")
	require.Equal(t, "user@example.com", fake.bodies[0]["email"])
	require.Equal(t, "hunter22", fake.bodies[0]["password"])
}

// TestSupabase_SignInRejected tests 400/401 mapping to ErrInvalidCredentials.
func TestSupabase_SignInRejected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		_, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
		})
		_, err := client.SignIn(context.Background(), "user@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials, "HTTP %d should map to invalid credentials", status)
	}
}

// TestSupabase_SignInBadEmail tests that a malformed address never
// reaches the network.
func TestSupabase_SignInBadEmail(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be contacted")
	})

	for _, email := range []string{"", "not-an-email", "missing@tld", "spaces in@example.com"} {
		_, err := client.SignIn(context.Background(), email, "password")
		require.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}
	require.Empty(t, fake.requests)
}

// TestSupabase_SignUp tests account registration.
func TestSupabase_SignUp(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "access-new")
	})

	sess, err := client.SignUp(context.Background(), "new@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "access-new", sess.AccessToken)
	require.Equal(t, "/auth/v1/signup", fake.requests[0].URL.Path)
}

// =============================================================================
// REFRESH AND SIGN-OUT TESTS
// =============================================================================

// TestSupabase_Refresh tests the refresh_token grant.
func TestSupabase_Refresh(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "access-2")
	})

	sess, err := client.RefreshSession(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Equal(t, "access-2", sess.AccessToken)

	req := fake.requests[0]
	require.Equal(t, "/auth/v1/token", req.URL.Path)
	require.Equal(t, "refresh_token", req.URL.Query().Get("grant_type"))
	require.Equal(t, "refresh-1", fake.bodies[0]["refresh_token"])
}

// TestSupabase_RefreshRejected tests that a dead refresh token maps to
// ErrSessionExpired.
func TestSupabase_RefreshRejected(t *testing.T) {
	_, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
	})

	_, err := client.RefreshSession(context.Background(), "stale")
	require.ErrorIs(t, err, ErrSessionExpired)
}

// TestSupabase_SignOut tests that logout carries the user token.
func TestSupabase_SignOut(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.SignOut(context.Background(), "access-1"))
	req := fake.requests[0]
	require.Equal(t, "/auth/v1/logout", req.URL.Path)
	require.Equal(t, "Bearer access-1", req.Header.Get("Authorization"))
	require.Equal(t, testAnonKey, req.Header.Get("apikey"))
}

// TestSupabase_CurrentUser tests the user lookup.
func TestSupabase_CurrentUser(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(User{ID: "user-1", Email: "user@example.com"})
	})

	user, err := client.CurrentUser(context.Background(), "access-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)

	req := fake.requests[0]
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/auth/v1/user", req.URL.Path)
	require.Equal(t, "Bearer access-1", req.Header.Get("Authorization"))
}

// TestSupabase_NotConfigured tests that an empty URL fails fast.
func TestSupabase_NotConfigured(t *testing.T) {
	client := NewSupabaseClient("", "")
	require.False(t, client.IsConfigured())
	_, err := client.SignIn(context.Background(), "user@example.com", "pw")
	require.Error(t, err)
}

// =============================================================================
// ERROR BODY TESTS
// =============================================================================

// TestSupabase_ErrorShapes tests the error body formats GoTrue has
// shipped over its lifetime.
func TestSupabase_ErrorShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"oauth style", `{"error":"invalid_grant","error_description":"bad creds"}`, "bad creds"},
		{"msg style", `{"code":400,"msg":"Signups not allowed"}`, "Signups not allowed"},
		{"error_code style", `{"code":"over_request_rate_limit","message":"Too many requests"}`, "Too many requests"},
		{"message style", `{"message":"something broke"}`, "something broke"},
		{"unparseable", `<html>gateway error</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseAuthError(http.StatusTeapot, []byte(tt.body))
			var ae *AuthError
			require.True(t, errors.As(err, &ae))
			require.Equal(t, http.StatusTeapot, ae.Status)
			if tt.message != "" {
				require.Contains(t, ae.Message, tt.message)
			}
			require.NotEmpty(t, ae.Error())
		})
	}
}
