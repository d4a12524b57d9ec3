// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package keystore generates, persists, and retrieves the agent's
// X25519 key-exchange keypair — the identity that capability grants
// are issued to.
//
// The keypair is created lazily on first use ([Store.GetOrCreate]),
// persists across restarts as a JSON record
// {publicKey, privateKey, createdAt, algorithm} with owner-only
// permissions, and is destroyed only by explicit operator action
// ([Store.Delete]). With a configured passphrase the record is
// age-encrypted at rest (scrypt recipient).
//
// Corruption is fatal by design: a keypair file that exists but cannot
// be decoded returns [ErrCorrupt] rather than silently regenerating,
// because a regenerated keypair would invalidate every outstanding
// grant issued to the old public key. The operator must intervene.
//
// The private half lives in a [secret.Buffer] (mlock'd, dump-excluded,
// zeroed on Close) and appears in no log line or diagnostic output.
package keystore
