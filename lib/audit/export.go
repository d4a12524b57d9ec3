// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"encoding/json"
	"fmt"
)

// Export is the self-contained audit document a session hands to the
// user for storage in their own vault. Field names and the hash
// chaining algorithm are the interoperability contract consumed by
// independent verifiers — they must not change.
type Export struct {
	// SessionID identifies the session that produced the chain.
	SessionID string `json:"sessionId"`

	// StartedAt and CompletedAt are Unix milliseconds bounding the
	// session.
	StartedAt   int64 `json:"startedAt"`
	CompletedAt int64 `json:"completedAt"`

	// Entries is the full chain in append order.
	Entries []Entry `json:"entries"`

	// DataHash is the SHA-256 hex digest of the input plaintext the
	// session processed, when known. The user recomputes it over
	// their original data to confirm what was accessed.
	DataHash string `json:"dataHash,omitempty"`

	// ResultHash is the digest of the output plaintext, when the
	// session produced one.
	ResultHash string `json:"resultHash,omitempty"`
}

// ExportMeta carries the session-level digests included in an export.
type ExportMeta struct {
	DataHash   string
	ResultHash string
}

// Export wraps the chain's entries plus session metadata into a
// shareable document. The chain remains usable afterwards; exporting
// does not seal it.
func (c *Chain) Export(meta ExportMeta) *Export {
	return &Export{
		SessionID:   c.sessionID,
		StartedAt:   c.startedAt.UnixMilli(),
		CompletedAt: c.clock.Now().UnixMilli(),
		Entries:     c.Entries(),
		DataHash:    meta.DataHash,
		ResultHash:  meta.ResultHash,
	}
}

// Marshal serializes the export document as JSON.
func (e *Export) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("audit: serializing export document: %w", err)
	}
	return data, nil
}

// ParseExport deserializes an export document.
func ParseExport(data []byte) (*Export, error) {
	var doc Export
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("audit: parsing export document: %w", err)
	}
	return &doc, nil
}

// Verify re-runs the full chain verification over the document's
// entries. Any party holding the export can call this without access
// to the agent, its keys, or its storage.
func (e *Export) Verify() VerificationResult {
	return VerifyEntries(e.Entries)
}
