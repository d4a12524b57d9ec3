// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/warrant-foundation/warrant/lib/secret"
)

// KeySize is the required symmetric key size: a 256-bit DEK.
const KeySize = chacha20poly1305.KeySize

// blobVersion is the version byte prepended to every encrypted
// payload. Included as additional authenticated data, so tampering
// with it causes authentication failure.
const blobVersion byte = 0x01

// Overhead is the total byte overhead per encrypted payload:
// 1 (version) + 12 (ChaCha20-Poly1305 nonce) + 16 (Poly1305 tag).
const Overhead = 1 + chacha20poly1305.NonceSize + chacha20poly1305.Overhead

// ErrTagMismatch is returned when authenticated decryption fails.
// Treated identically to "access denied": the caller must not learn
// whether the key was wrong or the ciphertext was altered, and no
// partial plaintext is ever surfaced.
var ErrTagMismatch = errors.New("payload: authentication tag mismatch")

// Encrypt seals plaintext under a 256-bit DEK and returns the
// encrypted payload in the standard format:
//
//	[Version: 1 byte (0x01)] [Nonce: 12 bytes (random)] [Ciphertext+Tag: N+16 bytes]
//
// The second return value is the SHA-256 digest of the plaintext,
// which the caller records to the audit chain (the plaintext itself
// never is).
//
// The key is borrowed and NOT closed. It must be exactly KeySize bytes.
func Encrypt(plaintext []byte, key *secret.Buffer) ([]byte, [sha256.Size]byte, error) {
	var digest [sha256.Size]byte

	aead, err := newAEAD(key)
	if err != nil {
		return nil, digest, err
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, digest, fmt.Errorf("payload: generating nonce: %w", err)
	}

	output := make([]byte, 1+chacha20poly1305.NonceSize, len(plaintext)+Overhead)
	output[0] = blobVersion
	copy(output[1:], nonce)

	output = aead.Seal(output, nonce, plaintext, output[:1])
	return output, sha256.Sum256(plaintext), nil
}

// Decrypt opens an encrypted payload produced by Encrypt. Returns the
// plaintext and its SHA-256 digest for audit recording.
//
// Returns ErrTagMismatch when the AEAD rejects the ciphertext (wrong
// key, corruption, tampering) or the framing is malformed — the cases
// are deliberately indistinguishable.
//
// The key is borrowed and NOT closed.
func Decrypt(encrypted []byte, key *secret.Buffer) ([]byte, [sha256.Size]byte, error) {
	var digest [sha256.Size]byte

	if len(encrypted) < Overhead {
		return nil, digest, ErrTagMismatch
	}
	if encrypted[0] != blobVersion {
		return nil, digest, ErrTagMismatch
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, digest, err
	}

	nonce := encrypted[1 : 1+chacha20poly1305.NonceSize]
	ciphertext := encrypted[1+chacha20poly1305.NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, encrypted[:1])
	if err != nil {
		return nil, digest, ErrTagMismatch
	}

	return plaintext, sha256.Sum256(plaintext), nil
}

func newAEAD(key *secret.Buffer) (cipher.AEAD, error) {
	keyBytes := key.Bytes()
	if len(keyBytes) != KeySize {
		return nil, fmt.Errorf("payload: key must be %d bytes, got %d", KeySize, len(keyBytes))
	}
	aead, err := chacha20poly1305.New(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("payload: creating ChaCha20-Poly1305 cipher: %w", err)
	}
	return aead, nil
}
