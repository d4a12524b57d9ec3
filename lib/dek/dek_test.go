// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package dek

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"golang.org/x/crypto/curve25519"

	"github.com/warrant-foundation/warrant/lib/secret"
)

// testKeypair generates an X25519 keypair with the private half in a
// guarded buffer, mirroring how the keystore hands keys to Unwrap.
func testKeypair(t *testing.T) (*secret.Buffer, []byte) {
	t.Helper()

	private := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(private); err != nil {
		t.Fatalf("generating private key: %v", err)
	}
	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		t.Fatalf("deriving public key: %v", err)
	}

	buffer, err := secret.NewFromBytes(private)
	if err != nil {
		t.Fatalf("protecting private key: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })

	return buffer, public
}

func testDEK(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generating DEK: %v", err)
	}
	return key
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	private, public := testKeypair(t)
	plainDEK := testDEK(t)
	original := bytes.Clone(plainDEK)

	wrapped, err := Wrap(plainDEK, public)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	recovered, err := Unwrap(wrapped, private)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	defer recovered.Close()

	if !recovered.Equal(original) {
		t.Error("unwrapped DEK differs from original")
	}
}

func TestUnwrap_WrongPrivateKey(t *testing.T) {
	_, public := testKeypair(t)
	otherPrivate, _ := testKeypair(t)

	wrapped, err := Wrap(testDEK(t), public)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	_, err = Unwrap(wrapped, otherPrivate)
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Unwrap with wrong key: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestUnwrap_CorruptedCiphertext(t *testing.T) {
	private, public := testKeypair(t)

	wrapped, err := Wrap(testDEK(t), public)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	wrapped.Ciphertext[0] ^= 0xFF

	_, err = Unwrap(wrapped, private)
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Unwrap of corrupted ciphertext: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestUnwrap_TamperedEphemeralKey(t *testing.T) {
	private, public := testKeypair(t)
	_, otherPublic := testKeypair(t)

	wrapped, err := Wrap(testDEK(t), public)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	wrapped.EphemeralPublicKey = otherPublic

	_, err = Unwrap(wrapped, private)
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Unwrap with swapped ephemeral key: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestUnwrap_MalformedFields(t *testing.T) {
	private, public := testKeypair(t)

	wrapped, err := Wrap(testDEK(t), public)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}

	short := *wrapped
	short.Nonce = short.Nonce[:8]
	if _, err := Unwrap(&short, private); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Unwrap with short nonce: got %v, want ErrAuthenticationFailed", err)
	}

	badKey := *wrapped
	badKey.EphemeralPublicKey = badKey.EphemeralPublicKey[:16]
	if _, err := Unwrap(&badKey, private); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("Unwrap with short ephemeral key: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestWrap_RejectsBadSizes(t *testing.T) {
	_, public := testKeypair(t)

	if _, err := Wrap(make([]byte, 16), public); err == nil {
		t.Error("Wrap accepted a 16-byte DEK")
	}
	if _, err := Wrap(testDEK(t), public[:16]); err == nil {
		t.Error("Wrap accepted a 16-byte recipient key")
	}
}
