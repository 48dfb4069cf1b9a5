// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages identity against a Supabase GoTrue instance.
//
// The backend trusts Supabase-issued JWTs, so the client's job is
// narrow: obtain tokens, keep them fresh, persist them encrypted
// between runs, and hand the current access token to the API layer.
// Signed-out operation is legitimate; every call degrades to guest
// mode when no session exists.
//
// # Key Types
//
//   - SupabaseClient: raw GoTrue REST operations
//   - Manager: session lifecycle, refresh, persistence, subscriptions
//   - Keystore: encrypted at-rest storage for the session
//
// # Usage
//
//	ks, _ := auth.OpenKeystore(appDir)
//	mgr := auth.NewManager(auth.NewSupabaseClient(url, anonKey), ks)
//	mgr.Load()
//
//	// Manager satisfies the API layer's TokenSource.
//	client := api.NewClient(backendURL).WithTokenSource(mgr)
//
// Token expiry is checked locally with a one-minute leeway so a token
// about to lapse mid-request is refreshed up front instead of burning
// a round trip on a guaranteed 401.
package auth
