// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package payload provides authenticated encryption of user data under
// an unwrapped DEK, plus the compression framing applied before
// encryption (ciphertext is incompressible, so compression must come
// first).
//
// The cipher is ChaCha20-Poly1305 with a 96-bit random nonce prepended
// and a 128-bit tag appended; a version byte covers the framing as
// additional authenticated data. [Decrypt] has a single failure mode,
// [ErrTagMismatch], treated identically to "access denied" — no
// partial plaintext ever escapes.
//
// Both [Encrypt] and [Decrypt] return the SHA-256 digest of the
// plaintext so the caller can record it to the audit chain; the
// plaintext itself is never logged. A user can later recompute the
// digest over their own data to verify, out of band, what was
// processed.
package payload
