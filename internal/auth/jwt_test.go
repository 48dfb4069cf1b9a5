// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for local JWT expiry checks:
// - Leeway handling around the exp claim
// - Missing and malformed tokens
// - Claim extraction
package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// signTestToken mints an HS256 token with the given claims. The
// signature key is irrelevant: expiry checks never verify it.
func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// =============================================================================
// EXPIRY TESTS
// =============================================================================

// TestTokenExpired_Past tests that a token past its exp is expired.
func TestTokenExpired_Past(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	require.True(t, TokenExpired(token))
}

// TestTokenExpired_WithinLeeway tests that a token expiring in under a
// minute is treated as already expired.
func TestTokenExpired_WithinLeeway(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(30 * time.Second).Unix(),
	})
	require.True(t, TokenExpired(token), "Token inside the one-minute leeway should count as expired")
}

// TestTokenExpired_Valid tests that a token with comfortable life left
// is not expired.
func TestTokenExpired_Valid(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(2 * time.Minute).Unix(),
	})
	require.False(t, TokenExpired(token))
}

// TestTokenExpired_NoClaim tests that a token without exp is expired.
func TestTokenExpired_NoClaim(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{"sub": "user-1"})
	require.True(t, TokenExpired(token), "Missing exp claim must fail closed")
}

// TestTokenExpired_Malformed tests that unparseable tokens are expired.
func TestTokenExpired_Malformed(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b", "a.b.c.d", "!!!.###.$$$"} {
		require.True(t, TokenExpired(token), "Malformed token %q must fail closed", token)
	}
}

// =============================================================================
// CLAIM EXTRACTION TESTS
// =============================================================================

// TestTokenExpiry_Roundtrip tests that the exp claim is read back.
func TestTokenExpiry_Roundtrip(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	token := signTestToken(t, jwt.MapClaims{"exp": exp.Unix()})

	got, ok := TokenExpiry(token)
	require.True(t, ok)
	require.True(t, got.Equal(exp), "Expiry mismatch: got %v, want %v", got, exp)
}

// TestTokenExpiry_Missing tests that a missing claim reports not-ok.
func TestTokenExpiry_Missing(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{"sub": "user-1"})
	_, ok := TokenExpiry(token)
	require.False(t, ok)
}

// TestTokenSubject tests sub claim extraction.
func TestTokenSubject(t *testing.T) {
	token := signTestToken(t, jwt.MapClaims{
		"sub": "8f14e45f-ceea-4e17-8b4a-55a153c0ba1e",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.Equal(t, "8f14e45f-ceea-4e17-8b4a-55a153c0ba1e", TokenSubject(token))
	require.Equal(t, "", TokenSubject("garbage"))
}
