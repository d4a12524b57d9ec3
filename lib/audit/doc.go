// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit builds the hash-chained record of every privileged
// operation a session performs. Each entry's hash covers its content
// plus the previous entry's hash, so removing, reordering, or editing
// any historical entry breaks verification at or after that point.
//
// The trail records what happened, never what the data was: entries
// carry action categories, reason codes, and SHA-256 digests only.
// Export produces the self-contained document users keep in their own
// vault; VerifyEntries is the pure chain-walk an independent verifier
// reproduces from that document alone.
package audit
