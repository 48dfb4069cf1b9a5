// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryLeeway is how far ahead of the exp claim a token is already
// treated as expired. Refreshing a minute early avoids sending a token
// that lapses while the request is in flight.
const expiryLeeway = time.Minute

// TokenExpired reports whether a JWT access token is expired or will
// expire within the leeway window. The signature is NOT verified: the
// backend is the verifier, this check only decides when to refresh.
// Tokens that cannot be parsed or lack an exp claim count as expired,
// which forces a refresh rather than a doomed request.
func TokenExpired(token string) bool {
	expiry, ok := tokenExpiry(token)
	if !ok {
		return true
	}
	return time.Now().Add(expiryLeeway).After(expiry)
}

// TokenExpiry returns the exp claim as a time. The second return is
// false when the token is unparseable or carries no expiry.
func TokenExpiry(token string) (time.Time, bool) {
	return tokenExpiry(token)
}

func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenSubject extracts the sub claim, the Supabase user ID. Returns ""
// for tokens without one.
func TokenSubject(token string) string {
	if token == "" {
		return ""
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
