// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/nabi-tui/internal/util"
)

// SECURITY: Tokens never touch disk in plaintext. The session file is
// AES-256-GCM under a key derived from a per-install device secret.

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// encryptedPrefix marks an encrypted value: ENC:base64(nonce|ciphertext|tag)
	encryptedPrefix = "ENC:"

	// nonceSize is the AES-GCM nonce length (96 bits).
	nonceSize = 12

	// keySize is the AES-256 key length.
	keySize = 32

	// saltSize is the KDF salt length.
	saltSize = 32

	// kdfIterations follows the OWASP 2023 floor for PBKDF2-SHA-256.
	kdfIterations = 600000

	secretFile  = "device.secret"
	saltFile    = "device.salt"
	sessionFile = "session.enc"
)

// Error variables for keystore failures.
var (
	// ErrNoStoredSession indicates no session file exists.
	ErrNoStoredSession = errors.New("no stored session")

	// ErrDecryptionFailed indicates the ciphertext failed authentication:
	// wrong key material or a tampered file.
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")

	// ErrInvalidCiphertext indicates the stored format is unrecognizable.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
)

// zeroBytes clears sensitive material.
// SECURITY: Zero key material to prevent memory disclosure via crash dumps.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// KEYSTORE
// =============================================================================

// Keystore encrypts the persisted auth session at rest. First use
// generates a random device secret and salt under the app directory;
// the encryption key is derived from them with PBKDF2-SHA-256.
type Keystore struct {
	dir    string
	cipher cipher.AEAD
}

// OpenKeystore opens (or initializes) the keystore in dir, typically
// ~/.nabi. Key files are created with owner-only permissions.
func OpenKeystore(dir string) (*Keystore, error) {
	secret, err := loadOrCreate(filepath.Join(dir, secretFile), keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to load device secret: %w", err)
	}
	defer zeroBytes(secret)

	salt, err := loadOrCreate(filepath.Join(dir, saltFile), saltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load salt: %w", err)
	}

	key := pbkdf2.Key([]byte(hex.EncodeToString(secret)), salt, kdfIterations, keySize, sha256.New)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Keystore{dir: dir, cipher: gcm}, nil
}

// loadOrCreate reads a key-material file, generating it on first use.
func loadOrCreate(path string, size int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != size {
			return nil, fmt.Errorf("%s: unexpected length %d", filepath.Base(path), len(data))
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, data); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	// RELIABILITY: Atomic write with fsync prevents a torn key file.
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return nil, err
	}
	return data, nil
}

// =============================================================================
// SESSION PERSISTENCE
// =============================================================================

// SaveSession encrypts and stores a session.
func (k *Keystore) SaveSession(sess *Session) error {
	plaintext, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	defer zeroBytes(plaintext)

	ciphertext, err := k.encrypt(plaintext)
	if err != nil {
		return err
	}
	out := encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	return util.AtomicWriteFile(k.sessionPath(), []byte(out), 0600)
}

// LoadSession decrypts the stored session. ErrNoStoredSession means a
// clean guest start; ErrDecryptionFailed means the file was tampered
// with or the key files were replaced, and the session is unusable.
func (k *Keystore) LoadSession() (*Session, error) {
	data, err := os.ReadFile(k.sessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoStoredSession
		}
		return nil, err
	}

	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, encryptedPrefix) {
		return nil, ErrInvalidCiphertext
	}
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(content, encryptedPrefix))
	if err != nil {
		return nil, ErrInvalidCiphertext
	}

	plaintext, err := k.decrypt(ciphertext)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(plaintext)

	var sess Session
	if err := json.Unmarshal(plaintext, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes the stored session, if any.
func (k *Keystore) DeleteSession() error {
	err := os.Remove(k.sessionPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HasSession reports whether a session file exists.
func (k *Keystore) HasSession() bool {
	_, err := os.Stat(k.sessionPath())
	return err == nil
}

func (k *Keystore) sessionPath() string {
	return filepath.Join(k.dir, sessionFile)
}

// =============================================================================
// CIPHER OPERATIONS
// =============================================================================

// encrypt seals plaintext as nonce || ciphertext || tag.
func (k *Keystore) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return k.cipher.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens nonce || ciphertext || tag.
func (k *Keystore) decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidCiphertext
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := k.cipher.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
