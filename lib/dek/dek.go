// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package dek

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/warrant-foundation/warrant/lib/secret"
)

// KeySize is the size in bytes of every symmetric key in the system:
// the data-encryption key (DEK) inside a wrapped key, and the
// key-encryption key derived during wrap and unwrap.
const KeySize = 32

// hkdfInfoWrap is the "info" parameter to HKDF-SHA256 for the wrap
// key derivation, providing domain separation from any other use of
// the same shared secret. Changing it invalidates all outstanding
// wrapped keys.
var hkdfInfoWrap = []byte("warrant.dek.wrap.v1")

// ErrAuthenticationFailed is the single unwrap error condition: the
// AEAD rejected the ciphertext. Wrong private key, corrupted
// ciphertext, and deliberate tampering are indistinguishable by
// design — there is no partial success.
var ErrAuthenticationFailed = errors.New("dek: authentication failed")

// WrappedKey is a DEK confidentiality-protected so that only the
// holder of the recipient's X25519 private key can recover it. This is
// the wire shape embedded in a capability grant; byte fields travel as
// base64 in JSON.
type WrappedKey struct {
	// Ciphertext is the DEK encrypted under the derived wrap key,
	// with the 16-byte Poly1305 tag appended.
	Ciphertext []byte `json:"ciphertext"`

	// EphemeralPublicKey is the sender's one-time X25519 public key
	// for the Diffie-Hellman agreement.
	EphemeralPublicKey []byte `json:"ephemeralPublicKey"`

	// Nonce is the 12-byte ChaCha20-Poly1305 nonce.
	Nonce []byte `json:"nonce"`
}

// Wrap encrypts a 32-byte DEK to a recipient's X25519 public key. It
// generates an ephemeral keypair, performs X25519 between the
// ephemeral private key and the recipient public key, derives the wrap
// key with HKDF-SHA256 (binding both public keys into the derivation),
// and seals the DEK with ChaCha20-Poly1305 under a random nonce.
//
// Wrap is the issuer's side of the exchange; the agent only unwraps.
// It lives here so that tests and grant tooling share one
// implementation.
func Wrap(plainDEK []byte, recipientPublic []byte) (*WrappedKey, error) {
	if len(plainDEK) != KeySize {
		return nil, fmt.Errorf("dek: DEK must be %d bytes, got %d", KeySize, len(plainDEK))
	}
	if len(recipientPublic) != curve25519.PointSize {
		return nil, fmt.Errorf("dek: recipient public key must be %d bytes, got %d", curve25519.PointSize, len(recipientPublic))
	}

	ephemeralPrivate := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rand.Reader, ephemeralPrivate); err != nil {
		return nil, fmt.Errorf("dek: generating ephemeral key: %w", err)
	}
	defer secret.Zero(ephemeralPrivate)

	ephemeralPublic, err := curve25519.X25519(ephemeralPrivate, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("dek: deriving ephemeral public key: %w", err)
	}

	wrapKey, err := deriveWrapKey(ephemeralPrivate, recipientPublic, ephemeralPublic, recipientPublic)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(wrapKey)

	aead, err := chacha20poly1305.New(wrapKey)
	if err != nil {
		return nil, fmt.Errorf("dek: creating ChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("dek: generating nonce: %w", err)
	}

	return &WrappedKey{
		Ciphertext:         aead.Seal(nil, nonce, plainDEK, nil),
		EphemeralPublicKey: ephemeralPublic,
		Nonce:              nonce,
	}, nil
}

// Unwrap recovers the DEK from a wrapped key using the agent's X25519
// private key. The recovered key is returned in a guarded buffer
// (mlock'd, dump-excluded, zeroed on Close); the caller must Close it
// as soon as the enclosing operation completes.
//
// The agent private key is borrowed and NOT closed.
//
// Any failure of the authenticated decryption — wrong key, corrupted
// ciphertext, tampering — returns ErrAuthenticationFailed.
func Unwrap(wrapped *WrappedKey, agentPrivate *secret.Buffer) (*secret.Buffer, error) {
	if len(wrapped.EphemeralPublicKey) != curve25519.PointSize {
		return nil, fmt.Errorf("%w: ephemeral public key is %d bytes, want %d",
			ErrAuthenticationFailed, len(wrapped.EphemeralPublicKey), curve25519.PointSize)
	}
	if len(wrapped.Nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: nonce is %d bytes, want %d",
			ErrAuthenticationFailed, len(wrapped.Nonce), chacha20poly1305.NonceSize)
	}

	privateBytes := agentPrivate.Bytes()
	if len(privateBytes) != curve25519.ScalarSize {
		return nil, fmt.Errorf("dek: agent private key is %d bytes, want %d", len(privateBytes), curve25519.ScalarSize)
	}

	agentPublic, err := curve25519.X25519(privateBytes, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("dek: deriving agent public key: %w", err)
	}

	wrapKey, err := deriveWrapKey(privateBytes, wrapped.EphemeralPublicKey, wrapped.EphemeralPublicKey, agentPublic)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(wrapKey)

	aead, err := chacha20poly1305.New(wrapKey)
	if err != nil {
		return nil, fmt.Errorf("dek: creating ChaCha20-Poly1305 cipher: %w", err)
	}

	plainDEK, err := aead.Open(nil, wrapped.Nonce, wrapped.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	if len(plainDEK) != KeySize {
		secret.Zero(plainDEK)
		return nil, fmt.Errorf("%w: unwrapped key is %d bytes, want %d", ErrAuthenticationFailed, len(plainDEK), KeySize)
	}

	// NewFromBytes copies into mmap-backed memory and zeros plainDEK.
	return secret.NewFromBytes(plainDEK)
}

// deriveWrapKey performs the X25519 agreement and HKDF-SHA256
// expansion shared by Wrap and Unwrap. The HKDF info binds the
// ephemeral and recipient public keys so the wrap key is specific to
// this exchange. The salt is nil: the X25519 shared secret is already
// uniformly distributed after HKDF extract per RFC 5869.
func deriveWrapKey(scalar, point, ephemeralPublic, recipientPublic []byte) ([]byte, error) {
	shared, err := curve25519.X25519(scalar, point)
	if err != nil {
		return nil, fmt.Errorf("dek: X25519 agreement: %w", err)
	}
	defer secret.Zero(shared)

	info := make([]byte, 0, len(hkdfInfoWrap)+len(ephemeralPublic)+len(recipientPublic))
	info = append(info, hkdfInfoWrap...)
	info = append(info, ephemeralPublic...)
	info = append(info, recipientPublic...)

	reader := hkdf.New(sha256.New, shared, nil, info)
	wrapKey := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, wrapKey); err != nil {
		secret.Zero(wrapKey)
		return nil, fmt.Errorf("dek: HKDF key derivation failed: %w", err)
	}
	return wrapKey, nil
}
