// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for MFA enrollment and verification:
// - Local TOTP code validation
// - Factor enroll/challenge/verify round trip
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

// =============================================================================
// LOCAL VALIDATION TESTS
// =============================================================================

// TestVerifyCode tests local TOTP validation against the shared secret.
func TestVerifyCode(t *testing.T) {
	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	require.NoError(t, err)

	require.True(t, VerifyCode(testTOTPSecret, code))
	require.False(t, VerifyCode(testTOTPSecret, "000000"))
	require.False(t, VerifyCode(testTOTPSecret, "not-digits"))
	require.False(t, VerifyCode(testTOTPSecret, ""))
}

// =============================================================================
// ENROLLMENT FLOW TESTS
// =============================================================================

// TestMFA_EnrollChallenge tests the factor enroll and challenge calls.
func TestMFA_EnrollChallenge(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/factors":
			_ = json.NewEncoder(w).Encode(Factor{
				ID:           "factor-1",
				FriendlyName: "nabi",
				FactorType:   "totp",
				Status:       "unverified",
				TOTP: TOTPEnrollment{
					Secret: testTOTPSecret,
					URI:    "otpauth://totp/nabi:user@example.com?secret=" + testTOTPSecret,
				},
			})
		case "/auth/v1/factors/factor-1/challenge":
			_ = json.NewEncoder(w).Encode(Challenge{ID: "challenge-1", ExpiresAt: time.Now().Add(5 * time.Minute).Unix()})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	})

	factor, err := client.EnrollTOTP(context.Background(), "access-1", "nabi")
	require.NoError(t, err)
	require.Equal(t, "factor-1", factor.ID)
	require.Equal(t, testTOTPSecret, factor.TOTP.Secret)
	require.Equal(t, "Bearer access-1", fake.requests[0].Header.Get("Authorization"))
	require.Equal(t, "totp", fake.bodies[0]["factor_type"])

	ch, err := client.ChallengeFactor(context.Background(), "access-1", factor.ID)
	require.NoError(t, err)
	require.Equal(t, "challenge-1", ch.ID)
}

// TestMFA_ConfirmEnrollment tests the full confirm flow: local check,
// challenge, verify, and session upgrade.
func TestMFA_ConfirmEnrollment(t *testing.T) {
	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	require.NoError(t, err)

	upgraded := liveToken(t)
	m, _ := testManager(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/factors/factor-1/challenge":
			_ = json.NewEncoder(w).Encode(Challenge{ID: "challenge-1"})
		case "/auth/v1/factors/factor-1/verify":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			require.Equal(t, "challenge-1", body["challenge_id"])
			require.Equal(t, code, body["code"])
			_ = json.NewEncoder(w).Encode(Session{
				AccessToken:  upgraded,
				RefreshToken: "refresh-2",
				User:         User{ID: "user-1"},
			})
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	})

	m.install(&Session{AccessToken: liveToken(t), RefreshToken: "refresh-1", User: User{ID: "user-1"}})

	factor := &Factor{ID: "factor-1", TOTP: TOTPEnrollment{Secret: testTOTPSecret}}
	require.NoError(t, m.ConfirmTOTPEnrollment(context.Background(), factor, code))

	token, err := m.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, upgraded, token, "Upgraded session should replace the original")
}

// TestMFA_ConfirmBadCode tests that a locally invalid code never
// reaches the server.
func TestMFA_ConfirmBadCode(t *testing.T) {
	m, _ := testManager(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid code must be rejected before any request")
	})
	m.install(&Session{AccessToken: liveToken(t), User: User{ID: "user-1"}})

	factor := &Factor{ID: "factor-1", TOTP: TOTPEnrollment{Secret: testTOTPSecret}}
	err := m.ConfirmTOTPEnrollment(context.Background(), factor, "000000")
	require.ErrorIs(t, err, ErrInvalidTOTPCode)
}

// TestMFA_ConfirmGuest tests that enrollment requires a session.
func TestMFA_ConfirmGuest(t *testing.T) {
	m, _ := testManager(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("guest enrollment must not touch the network")
	})
	err := m.ConfirmTOTPEnrollment(context.Background(), &Factor{ID: "factor-1"}, "123456")
	require.ErrorIs(t, err, ErrNotSignedIn)
}

// TestMFA_Unenroll tests factor removal.
func TestMFA_Unenroll(t *testing.T) {
	fake, client := newFakeGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.UnenrollFactor(context.Background(), "access-1", "factor-1"))
	req := fake.requests[0]
	require.Equal(t, http.MethodDelete, req.Method)
	require.Equal(t, "/auth/v1/factors/factor-1", req.URL.Path)
}
