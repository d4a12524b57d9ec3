// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive material:
// the agent's private key, unwrapped data-encryption keys, and keystore
// passphrases.
//
// Buffer allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory is
// outside the Go heap, the garbage collector never copies or relocates
// it, so zeroing on Close actually destroys the secret.
//
// Key exports:
//
//   - [New] / [NewFromBytes] -- allocate a guarded buffer
//   - [Buffer.Bytes] / [Buffer.String] -- access the secret
//   - [Buffer.Close] -- zero and release
//   - [Zero] -- zero an ordinary heap slice in place
//   - [ReadFromPath] -- load a secret from a file or stdin
//
// This package has no warrant-internal dependencies.
package secret
