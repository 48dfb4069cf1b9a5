// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pquerna/otp/totp"
)

// =============================================================================
// TYPES
// =============================================================================

// Factor is an enrolled MFA factor.
type Factor struct {
	ID           string `json:"id"`
	FriendlyName string `json:"friendly_name"`
	FactorType   string `json:"factor_type"`
	Status       string `json:"status"`

	// TOTP carries enrollment material. Only present in the enroll
	// response; the secret is never returned again.
	TOTP TOTPEnrollment `json:"totp"`
}

// TOTPEnrollment is the shared-secret material returned at enroll time.
type TOTPEnrollment struct {
	QRCode string `json:"qr_code"`
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

// Challenge is a pending MFA verification window.
type Challenge struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

// ErrInvalidTOTPCode indicates a code that failed local validation
// against the shared secret. The server was not contacted.
var ErrInvalidTOTPCode = errors.New("invalid verification code")

// =============================================================================
// FACTOR ENDPOINTS
// =============================================================================

// EnrollTOTP registers a new TOTP factor for the signed-in user. The
// returned factor is unverified until a challenge is completed; the
// response carries the secret and otpauth URI for the authenticator app.
func (c *SupabaseClient) EnrollTOTP(ctx context.Context, accessToken, friendlyName string) (*Factor, error) {
	body := map[string]string{
		"factor_type":   "totp",
		"friendly_name": friendlyName,
	}
	var factor Factor
	if err := c.post(ctx, "/auth/v1/factors", accessToken, body, &factor); err != nil {
		return nil, fmt.Errorf("failed to enroll factor: %w", err)
	}
	return &factor, nil
}

// ChallengeFactor opens a verification window for a factor.
func (c *SupabaseClient) ChallengeFactor(ctx context.Context, accessToken, factorID string) (*Challenge, error) {
	var ch Challenge
	path := "/auth/v1/factors/" + factorID + "/challenge"
	if err := c.post(ctx, path, accessToken, struct{}{}, &ch); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return &ch, nil
}

// VerifyFactor submits a code against an open challenge. On success
// GoTrue issues an upgraded session, which the caller should install
// in place of the current one.
func (c *SupabaseClient) VerifyFactor(ctx context.Context, accessToken, factorID, challengeID, code string) (*Session, error) {
	body := map[string]string{
		"challenge_id": challengeID,
		"code":         code,
	}
	var sess Session
	path := "/auth/v1/factors/" + factorID + "/verify"
	if err := c.post(ctx, path, accessToken, body, &sess); err != nil {
		return nil, fmt.Errorf("verification failed: %w", err)
	}
	return &sess, nil
}

// UnenrollFactor removes a factor from the account.
func (c *SupabaseClient) UnenrollFactor(ctx context.Context, accessToken, factorID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/auth/v1/factors/"+factorID, accessToken, nil)
	if err != nil {
		return err
	}
	return c.send(req, nil)
}

// =============================================================================
// LOCAL VALIDATION
// =============================================================================

// VerifyCode checks a TOTP code against the shared secret locally.
// Used during enrollment, where the secret is still in hand: a mistyped
// code or skewed clock fails here instead of consuming a server
// challenge.
func VerifyCode(secret, code string) bool {
	return totp.Validate(code, secret)
}

// =============================================================================
// MANAGER GLUE
// =============================================================================

// ConfirmTOTPEnrollment verifies a freshly enrolled factor end to end:
// local code check, challenge, verify, and install of the upgraded
// session.
func (m *Manager) ConfirmTOTPEnrollment(ctx context.Context, factor *Factor, code string) error {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()
	if sess == nil {
		return ErrNotSignedIn
	}
	if factor.TOTP.Secret != "" && !VerifyCode(factor.TOTP.Secret, code) {
		return ErrInvalidTOTPCode
	}

	ch, err := m.client.ChallengeFactor(ctx, sess.AccessToken, factor.ID)
	if err != nil {
		return err
	}
	upgraded, err := m.client.VerifyFactor(ctx, sess.AccessToken, factor.ID, ch.ID, code)
	if err != nil {
		return err
	}
	m.install(upgraded)
	m.notify(Event{Kind: EventRefreshed, User: &upgraded.User})
	return nil
}
