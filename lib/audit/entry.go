// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Action is the category of a privileged operation recorded in the
// audit trail. The set is closed: downstream verifiers reject unknown
// actions.
type Action string

const (
	ActionTokenReceived      Action = "token_received"
	ActionTokenValidated     Action = "token_validated"
	ActionTokenRejected      Action = "token_rejected"
	ActionDEKUnwrapped       Action = "dek_unwrapped"
	ActionDataFetched        Action = "data_fetched"
	ActionDataDecrypted      Action = "data_decrypted"
	ActionInferenceStarted   Action = "inference_started"
	ActionInferenceCompleted Action = "inference_completed"
	ActionOutputEncrypted    Action = "output_encrypted"
	ActionOutputStored       Action = "output_stored"
	ActionError              Action = "error"
)

// Valid reports whether the action is a member of the closed set.
func (a Action) Valid() bool {
	switch a {
	case ActionTokenReceived, ActionTokenValidated, ActionTokenRejected,
		ActionDEKUnwrapped, ActionDataFetched, ActionDataDecrypted,
		ActionInferenceStarted, ActionInferenceCompleted,
		ActionOutputEncrypted, ActionOutputStored, ActionError:
		return true
	}
	return false
}

// Hashes carries SHA-256 hex digests of data an operation touched.
// Only digests appear in the audit trail — never the data itself.
type Hashes struct {
	// Input is the digest of the data consumed (e.g., decrypted
	// plaintext).
	Input string `json:"input,omitempty"`

	// Output is the digest of the data produced (e.g., encrypted
	// result plaintext).
	Output string `json:"output,omitempty"`
}

// Entry is one record in the hash-chained audit log. Entries are
// appended, never edited or removed. All fields are structs and
// string-keyed maps (no any values) so that json.Marshal produces
// deterministic bytes for hashing: struct fields in declared order,
// map keys sorted.
//
// Declared field order is the canonicalization contract shared with
// independent verifiers — do not reorder.
type Entry struct {
	// ID is a unique entry identifier (hex string).
	ID string `json:"id"`

	// Timestamp is Unix milliseconds when the entry was appended.
	Timestamp int64 `json:"timestamp"`

	// Action categorizes the operation.
	Action Action `json:"action"`

	// Details holds categorical metadata: reason codes, counts,
	// locators. Never raw user data — callers must pre-hash.
	Details map[string]string `json:"details,omitempty"`

	// Hashes carries plaintext digests for data operations.
	Hashes *Hashes `json:"hashes,omitempty"`

	// DurationMS is how long the operation took, when measured.
	DurationMS int64 `json:"durationMs,omitempty"`

	// PrevHash is the hash of the preceding entry, or GenesisHash
	// for the first entry in a chain.
	PrevHash string `json:"prevHash"`

	// Hash is the SHA-256 hex digest of this entry's canonical
	// serialization excluding this field.
	Hash string `json:"hash"`
}

// hashableEntry mirrors Entry without the Hash field. Hashing
// serializes this shape, so an entry's hash can never cover itself.
type hashableEntry struct {
	ID         string            `json:"id"`
	Timestamp  int64             `json:"timestamp"`
	Action     Action            `json:"action"`
	Details    map[string]string `json:"details,omitempty"`
	Hashes     *Hashes           `json:"hashes,omitempty"`
	DurationMS int64             `json:"durationMs,omitempty"`
	PrevHash   string            `json:"prevHash"`
}

// EntryHash computes the SHA-256 hex digest of an entry's canonical
// JSON serialization, excluding the Hash field. This is the function
// independent verifiers must reproduce bit for bit.
func EntryHash(entry Entry) (string, error) {
	canonical, err := json.Marshal(hashableEntry{
		ID:         entry.ID,
		Timestamp:  entry.Timestamp,
		Action:     entry.Action,
		Details:    entry.Details,
		Hashes:     entry.Hashes,
		DurationMS: entry.DurationMS,
		PrevHash:   entry.PrevHash,
	})
	if err != nil {
		return "", fmt.Errorf("audit: serializing entry for hashing: %w", err)
	}
	digest := sha256.Sum256(canonical)
	return hex.EncodeToString(digest[:]), nil
}

// newEntryID returns a random 16-hex-character entry identifier.
func newEntryID() (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("audit: generating entry ID: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
