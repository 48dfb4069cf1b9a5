// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for encrypted session persistence:
// - Round-trip through the keystore
// - Tamper detection via the GCM tag
// - Key material lifecycle on disk
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSession() *Session {
	return &Session{
		AccessToken:  "header.payload.signature",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    1893456000,
		RefreshToken: "refresh-abc123",
		User: User{
			ID:    "8f14e45f-ceea-4e17-8b4a-55a153c0ba1e",
			Email: "user@example.com",
		},
	}
}

// =============================================================================
// ROUND-TRIP TESTS
// =============================================================================

// TestKeystore_RoundTrip tests save, load, and delete of a session.
func TestKeystore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)

	require.False(t, ks.HasSession())
	_, err = ks.LoadSession()
	require.ErrorIs(t, err, ErrNoStoredSession)

	want := testSession()
	require.NoError(t, ks.SaveSession(want))
	require.True(t, ks.HasSession())

	got, err := ks.LoadSession()
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.NoError(t, ks.DeleteSession())
	require.False(t, ks.HasSession())
	require.NoError(t, ks.DeleteSession(), "Deleting a missing session should be a no-op")
}

// TestKeystore_PersistsAcrossOpens tests that a second open with the
// same directory decrypts what the first one wrote.
func TestKeystore_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	ks1, err := OpenKeystore(dir)
	require.NoError(t, err)
	require.NoError(t, ks1.SaveSession(testSession()))

	ks2, err := OpenKeystore(dir)
	require.NoError(t, err)
	got, err := ks2.LoadSession()
	require.NoError(t, err)
	require.Equal(t, testSession(), got)
}

// TestKeystore_CiphertextOnDisk tests that no token material is stored
// in the clear.
func TestKeystore_CiphertextOnDisk(t *testing.T) {
	dir := t.TempDir()
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)
	require.NoError(t, ks.SaveSession(testSession()))

	raw, err := os.ReadFile(filepath.Join(dir, sessionFile))
	require.NoError(t, err)
	content := string(raw)
	require.True(t, strings.HasPrefix(content, encryptedPrefix))
	require.NotContains(t, content, "refresh-abc123")
	require.NotContains(t, content, "user@example.com")
}

// TestKeystore_FilePermissions tests owner-only modes on key material.
func TestKeystore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)
	require.NoError(t, ks.SaveSession(testSession()))

	for _, name := range []string{secretFile, saltFile, sessionFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm(), "%s must be owner-only", name)
	}
}

// =============================================================================
// TAMPER TESTS
// =============================================================================

// TestKeystore_TamperedCiphertext tests that a modified session file
// fails authentication rather than decrypting to garbage.
func TestKeystore_TamperedCiphertext(t *testing.T) {
	dir := t.TempDir()
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)
	require.NoError(t, ks.SaveSession(testSession()))

	path := filepath.Join(dir, sessionFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip one ciphertext byte under the encoding so the file is still
	// well-formed base64 but the GCM tag no longer matches.
	blob, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(string(raw), encryptedPrefix))
	require.NoError(t, err)
	blob[len(blob)/2] ^= 0xFF
	tampered := encryptedPrefix + base64.StdEncoding.EncodeToString(blob)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0600))

	_, err = ks.LoadSession()
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

// TestKeystore_ReplacedKeyMaterial tests that swapping the device
// secret makes the stored session unreadable.
func TestKeystore_ReplacedKeyMaterial(t *testing.T) {
	dir := t.TempDir()
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)
	require.NoError(t, ks.SaveSession(testSession()))

	fresh := make([]byte, keySize)
	_, err = rand.Read(fresh)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, secretFile), fresh, 0600))

	ks2, err := OpenKeystore(dir)
	require.NoError(t, err)
	_, err = ks2.LoadSession()
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

// TestKeystore_GarbageFile tests unrecognizable session file contents.
func TestKeystore_GarbageFile(t *testing.T) {
	dir := t.TempDir()
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, sessionFile)

	require.NoError(t, os.WriteFile(path, []byte("plaintext session"), 0600))
	_, err = ks.LoadSession()
	require.ErrorIs(t, err, ErrInvalidCiphertext)

	require.NoError(t, os.WriteFile(path, []byte(encryptedPrefix+"@@not-base64@@"), 0600))
	_, err = ks.LoadSession()
	require.ErrorIs(t, err, ErrInvalidCiphertext)

	require.NoError(t, os.WriteFile(path, []byte(encryptedPrefix+base64.StdEncoding.EncodeToString([]byte("tiny"))), 0600))
	_, err = ks.LoadSession()
	require.ErrorIs(t, err, ErrInvalidCiphertext, "Blob shorter than a nonce must be rejected")
}

// TestKeystore_NonceUniqueness tests that repeated saves of the same
// session produce different ciphertexts.
func TestKeystore_NonceUniqueness(t *testing.T) {
	dir := t.TempDir()
	ks, err := OpenKeystore(dir)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		require.NoError(t, ks.SaveSession(testSession()))
		raw, err := os.ReadFile(filepath.Join(dir, sessionFile))
		require.NoError(t, err)
		require.False(t, seen[string(raw)], "Ciphertext repeated on save %d", i)
		seen[string(raw)] = true
	}
}
