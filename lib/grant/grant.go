// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package grant

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/warrant-foundation/warrant/lib/dek"
	"github.com/warrant-foundation/warrant/lib/scope"
)

// ErrMalformed is returned by Parse when the wire bytes cannot be
// decoded into a complete, well-typed grant: bad encoding, missing
// required field, wrong field type, trailing data. A malformed grant
// never reaches validation holding partially-filled fields.
var ErrMalformed = errors.New("grant: malformed")

// Grant is a capability grant as received from the network: a signed,
// scoped, time-bound authorization for this agent to access specific
// data paths. Grants are immutable after Parse — validation produces a
// verdict, never an edit.
type Grant struct {
	// ID is an opaque unique identifier assigned by the issuer.
	ID string `json:"id"`

	// Issuer is the identity of the granting authority, typically a
	// decentralized identifier ("did:..."). The validator resolves it
	// to an Ed25519 public key for the signature check.
	Issuer string `json:"issuer"`

	// Subject is the base64-encoded X25519 public key of the agent
	// the grant was issued to. A grant whose subject is not this
	// agent's public key is rejected outright.
	Subject string `json:"subject"`

	// IssuedAt and ExpiresAt are Unix timestamps in seconds. A grant
	// is valid strictly before ExpiresAt.
	IssuedAt  int64 `json:"issuedAt"`
	ExpiresAt int64 `json:"expiresAt"`

	// Scopes is the ordered list of (path pattern, permissions)
	// pairs the grant authorizes. Order is meaningful: the first
	// matching scope decides an access check.
	Scopes []scope.Scope `json:"scopes"`

	// ResourceLocator points at the ciphertext in the object store
	// ("blake3:<hex>").
	ResourceLocator string `json:"resourceLocator"`

	// WrappedKey is the per-grant data-encryption key, wrapped so
	// only the subject's private key can recover it.
	WrappedKey dek.WrappedKey `json:"wrappedKey"`

	// Signature is the issuer's Ed25519 signature over the canonical
	// serialization of the signable subset (every field above;
	// neither signature field is ever part of the signed bytes).
	// Optional: see ValidateOptions.RequireSignature.
	Signature []byte `json:"signature,omitempty"`

	// SignatureAlgorithm names the signature scheme. "ed25519" is
	// the only supported value.
	SignatureAlgorithm string `json:"signatureAlgorithm,omitempty"`
}

// SubjectForPublicKey returns the subject string for an agent X25519
// public key, as the issuer encodes it.
func SubjectForPublicKey(publicKey []byte) string {
	return base64.StdEncoding.EncodeToString(publicKey)
}

// Parse deserializes a wire-format capability grant. It performs no
// trust decisions — it only produces a typed value or fails with
// ErrMalformed. Unknown fields and trailing data are rejected: a grant
// is an exact contract, not a loosely validated bag of fields.
func Parse(wireBytes []byte) (*Grant, error) {
	decoder := json.NewDecoder(bytes.NewReader(wireBytes))
	decoder.DisallowUnknownFields()

	var parsed Grant
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after grant", ErrMalformed)
	}

	if err := checkRequired(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// checkRequired enforces presence of every required field so that no
// partially-filled grant escapes the parser.
func checkRequired(g *Grant) error {
	switch {
	case g.ID == "":
		return fmt.Errorf("%w: missing id", ErrMalformed)
	case g.Issuer == "":
		return fmt.Errorf("%w: missing issuer", ErrMalformed)
	case g.Subject == "":
		return fmt.Errorf("%w: missing subject", ErrMalformed)
	case g.ExpiresAt == 0:
		return fmt.Errorf("%w: missing expiresAt", ErrMalformed)
	case len(g.Scopes) == 0:
		return fmt.Errorf("%w: missing scopes", ErrMalformed)
	case g.ResourceLocator == "":
		return fmt.Errorf("%w: missing resourceLocator", ErrMalformed)
	case len(g.WrappedKey.Ciphertext) == 0:
		return fmt.Errorf("%w: missing wrappedKey.ciphertext", ErrMalformed)
	case len(g.WrappedKey.EphemeralPublicKey) == 0:
		return fmt.Errorf("%w: missing wrappedKey.ephemeralPublicKey", ErrMalformed)
	case len(g.WrappedKey.Nonce) == 0:
		return fmt.Errorf("%w: missing wrappedKey.nonce", ErrMalformed)
	}

	if _, err := base64.StdEncoding.DecodeString(g.Subject); err != nil {
		return fmt.Errorf("%w: subject is not base64: %v", ErrMalformed, err)
	}
	if len(g.Signature) == 0 && g.SignatureAlgorithm != "" {
		return fmt.Errorf("%w: signatureAlgorithm present without signature", ErrMalformed)
	}
	return nil
}
