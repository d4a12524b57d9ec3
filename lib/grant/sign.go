// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package grant

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/warrant-foundation/warrant/lib/dek"
	"github.com/warrant-foundation/warrant/lib/scope"
)

// AlgorithmEd25519 is the only supported signature algorithm.
const AlgorithmEd25519 = "ed25519"

// signablePayload is the explicit subset of grant fields covered by
// the issuer signature. The signature fields are not members, so
// signing and verification never mutate a grant or strip fields from
// a serialized copy — the signed bytes are the canonical JSON of this
// struct, nothing else.
//
// Field order here is the canonicalization contract: encoding/json
// emits struct fields in declared order, so this declaration must
// match the issuer's signing implementation field for field.
type signablePayload struct {
	ID              string         `json:"id"`
	Issuer          string         `json:"issuer"`
	Subject         string         `json:"subject"`
	IssuedAt        int64          `json:"issuedAt"`
	ExpiresAt       int64          `json:"expiresAt"`
	Scopes          []scope.Scope  `json:"scopes"`
	ResourceLocator string         `json:"resourceLocator"`
	WrappedKey      dek.WrappedKey `json:"wrappedKey"`
}

// SignableBytes returns the canonical serialization a signature
// covers.
func SignableBytes(g *Grant) ([]byte, error) {
	payload := signablePayload{
		ID:              g.ID,
		Issuer:          g.Issuer,
		Subject:         g.Subject,
		IssuedAt:        g.IssuedAt,
		ExpiresAt:       g.ExpiresAt,
		Scopes:          g.Scopes,
		ResourceLocator: g.ResourceLocator,
		WrappedKey:      g.WrappedKey,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("grant: serializing signable payload: %w", err)
	}
	return data, nil
}

// Sign computes the issuer's Ed25519 signature over the signable
// subset and sets the signature fields. This is the issuer's side of
// the contract; the agent only verifies. It lives here so tests and
// grant tooling share one canonical serialization with the verifier.
func Sign(g *Grant, issuerPrivate ed25519.PrivateKey) error {
	signable, err := SignableBytes(g)
	if err != nil {
		return err
	}
	g.Signature = ed25519.Sign(issuerPrivate, signable)
	g.SignatureAlgorithm = AlgorithmEd25519
	return nil
}

// verifySignature checks the grant's signature against the issuer's
// public key. Returns false for an unknown algorithm, a wrong-sized
// signature, or a failed verification.
func verifySignature(g *Grant, issuerPublic ed25519.PublicKey) bool {
	if g.SignatureAlgorithm != AlgorithmEd25519 {
		return false
	}
	if len(g.Signature) != ed25519.SignatureSize {
		return false
	}
	signable, err := SignableBytes(g)
	if err != nil {
		return false
	}
	return ed25519.Verify(issuerPublic, signable, g.Signature)
}
