// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package grant

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"
)

// Rejection sentinels, one per RejectionReason. The validator's caller
// maps these to token_rejected audit entries.
var (
	ErrWrongSubject = errors.New("grant: subject is not this agent")
	ErrExpired      = errors.New("grant: expired")
	ErrBadSignature = errors.New("grant: bad signature")
	ErrScopeDenied  = errors.New("grant: scope denied")
)

// RejectionReason is the categorical reason a grant failed validation,
// recorded verbatim in the audit trail.
type RejectionReason string

const (
	RejectionWrongSubject RejectionReason = "wrong_subject"
	RejectionExpired      RejectionReason = "expired"
	RejectionBadSignature RejectionReason = "bad_signature"
	RejectionScopeDenied  RejectionReason = "scope_denied"
)

// ReasonForError maps a validation error to its RejectionReason.
// Returns "" for errors that are not rejections (including parse
// failures, which are a different taxonomy).
func ReasonForError(err error) RejectionReason {
	switch {
	case errors.Is(err, ErrWrongSubject):
		return RejectionWrongSubject
	case errors.Is(err, ErrExpired):
		return RejectionExpired
	case errors.Is(err, ErrBadSignature):
		return RejectionBadSignature
	case errors.Is(err, ErrScopeDenied):
		return RejectionScopeDenied
	default:
		return ""
	}
}

// IssuerKeyResolver supplies the issuer public key for a signature
// check, looked up by the grant's issuer identity string. Implemented
// by the issuer registry; the authority itself is an external
// collaborator.
type IssuerKeyResolver interface {
	IssuerKey(identity string) (ed25519.PublicKey, error)
}

// ValidateOptions configures grant validation.
type ValidateOptions struct {
	// RequireSignature rejects unsigned grants with ErrBadSignature.
	// Defaults to true in the configuration layer; disabling it is an
	// explicit, auditable weaker-trust path. Unsigned acceptance is
	// flagged on the returned Valid value, never silent.
	RequireSignature bool

	// IssuerKeys resolves issuer identities to Ed25519 public keys.
	// Required whenever a signature is present or required.
	IssuerKeys IssuerKeyResolver
}

// Valid is the verdict for a grant that passed every check. It wraps
// the grant rather than copying it: grants are immutable after parse.
type Valid struct {
	// Grant is the validated grant.
	Grant *Grant

	// Unsigned is true when the grant carried no signature and
	// RequireSignature was disabled. Callers must surface this in
	// the audit trail.
	Unsigned bool
}

// Validate checks a parsed grant against this agent's identity and the
// current time. It is a pure function of its arguments: no side
// effects, no clock reads, no audit writes — the caller owns emitting
// token_validated or token_rejected entries.
//
// Checks run in a fixed order and the first failure is what gets
// reported: subject binding, expiry, signature, scope well-formedness.
func Validate(g *Grant, now time.Time, agentPublicKey []byte, options ValidateOptions) (*Valid, error) {
	if g.Subject != SubjectForPublicKey(agentPublicKey) {
		return nil, ErrWrongSubject
	}

	if now.Unix() >= g.ExpiresAt {
		return nil, ErrExpired
	}

	unsigned := len(g.Signature) == 0
	if unsigned {
		if options.RequireSignature {
			return nil, fmt.Errorf("%w: grant is unsigned and signatures are required", ErrBadSignature)
		}
	} else {
		if options.IssuerKeys == nil {
			return nil, fmt.Errorf("%w: no issuer key resolver configured", ErrBadSignature)
		}
		issuerPublic, err := options.IssuerKeys.IssuerKey(g.Issuer)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving issuer %q: %v", ErrBadSignature, g.Issuer, err)
		}
		if !verifySignature(g, issuerPublic) {
			return nil, fmt.Errorf("%w: issuer %q signature verification failed", ErrBadSignature, g.Issuer)
		}
	}

	for _, s := range g.Scopes {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScopeDenied, err)
		}
	}

	return &Valid{Grant: g, Unsigned: unsigned}, nil
}
