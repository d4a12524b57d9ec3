// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/warrant-foundation/warrant/lib/clock"
)

// GenesisHash is the prevHash of the first entry in every chain:
// 64 zero hex digits.
var GenesisHash = strings.Repeat("0", 64)

// Chain is an append-only, hash-linked log of privileged operations.
// Altering any historical entry changes its hash and breaks every
// subsequent prevHash linkage, making the chain tamper-evident.
//
// One chain belongs to one session. A mutex guards Append so the
// owning session may log from multiple goroutines, but separate
// sessions must never share a chain — that is the session layer's
// contract, not this type's.
type Chain struct {
	mu        sync.Mutex
	sessionID string
	startedAt time.Time
	clock     clock.Clock
	entries   []Entry
}

// NewChain starts a fresh chain for a session. The session identifier
// must be unique per session; the chain stamps entries with the given
// clock.
func NewChain(sessionID string, clk clock.Clock) *Chain {
	if clk == nil {
		clk = clock.Real()
	}
	return &Chain{
		sessionID: sessionID,
		startedAt: clk.Now(),
		clock:     clk,
	}
}

// SessionID returns the owning session's identifier.
func (c *Chain) SessionID() string { return c.sessionID }

// StartedAt returns when the chain was created.
func (c *Chain) StartedAt() time.Time { return c.startedAt }

// Len returns the number of entries.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Append records an operation: it links the candidate entry to the
// current tail, computes its hash over the canonical serialization,
// and pushes the completed entry. Returns the completed entry.
//
// Details must contain only categorical metadata and digests — never
// raw user data. That invariant is enforced by convention at every
// call site.
func (c *Chain) Append(action Action, details map[string]string) (Entry, error) {
	return c.append(action, details, nil, 0)
}

// AppendWithHashes is Append for data operations that record plaintext
// digests and a measured duration. A zero duration is omitted from the
// entry.
func (c *Chain) AppendWithHashes(action Action, details map[string]string, hashes Hashes, duration time.Duration) (Entry, error) {
	return c.append(action, details, &hashes, duration)
}

func (c *Chain) append(action Action, details map[string]string, hashes *Hashes, duration time.Duration) (Entry, error) {
	if !action.Valid() {
		return Entry{}, fmt.Errorf("audit: unknown action %q", action)
	}
	if hashes != nil && *hashes == (Hashes{}) {
		hashes = nil
	}

	id, err := newEntryID()
	if err != nil {
		return Entry{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prevHash := GenesisHash
	if len(c.entries) > 0 {
		prevHash = c.entries[len(c.entries)-1].Hash
	}

	entry := Entry{
		ID:         id,
		Timestamp:  c.clock.Now().UnixMilli(),
		Action:     action,
		Details:    details,
		Hashes:     hashes,
		DurationMS: duration.Milliseconds(),
		PrevHash:   prevHash,
	}

	entry.Hash, err = EntryHash(entry)
	if err != nil {
		return Entry{}, err
	}

	c.entries = append(c.entries, entry)
	return entry, nil
}

// Entries returns a copy of the chain's entries in append order.
func (c *Chain) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// VerificationResult reports the outcome of a chain walk.
type VerificationResult struct {
	// Valid is true when every entry's prevHash and hash check out.
	Valid bool

	// BrokenAt is the index of the first entry that fails either
	// check, or -1 when the chain is valid.
	BrokenAt int
}

// Verify walks the chain from index 0, recomputing each entry's
// expected prevHash and hash, and reports the first index at which
// either check fails.
func (c *Chain) Verify() VerificationResult {
	return VerifyEntries(c.Entries())
}

// VerifyEntries is the chain-walk shared by Chain.Verify and export
// verification. It is a pure function so independent verifiers can
// call it over entries deserialized from an export document.
func VerifyEntries(entries []Entry) VerificationResult {
	expectedPrev := GenesisHash
	for index, entry := range entries {
		if entry.PrevHash != expectedPrev {
			return VerificationResult{Valid: false, BrokenAt: index}
		}
		recomputed, err := EntryHash(entry)
		if err != nil || recomputed != entry.Hash {
			return VerificationResult{Valid: false, BrokenAt: index}
		}
		expectedPrev = entry.Hash
	}
	return VerificationResult{Valid: true, BrokenAt: -1}
}
