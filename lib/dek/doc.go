// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package dek wraps and unwraps per-grant data-encryption keys.
//
// A DEK is a one-time 256-bit symmetric key that directly encrypts
// user payload data. The grant issuer wraps it to the agent's X25519
// public key ([Wrap]); the agent recovers it with its private key
// ([Unwrap]). The construction is an authenticated public-key
// encryption: X25519 agreement between an ephemeral sender key and the
// recipient key, HKDF-SHA256 expansion with both public keys bound
// into the derivation, then ChaCha20-Poly1305 over the DEK itself.
//
// The unwrapped DEK exists in plaintext only inside a [secret.Buffer]
// whose lifetime is scoped to one request; callers must Close it
// immediately after use. Unwrap has a single failure mode,
// [ErrAuthenticationFailed] — wrong key, corruption, and tampering are
// deliberately indistinguishable.
package dek
