// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/warrant-foundation/warrant/lib/audit"
	"github.com/warrant-foundation/warrant/lib/clock"
	"github.com/warrant-foundation/warrant/lib/dek"
	"github.com/warrant-foundation/warrant/lib/grant"
	"github.com/warrant-foundation/warrant/lib/keystore"
	"github.com/warrant-foundation/warrant/lib/objectstore"
	"github.com/warrant-foundation/warrant/lib/payload"
	"github.com/warrant-foundation/warrant/lib/secret"
)

// Sequencing errors. Session operations build on each other; calling
// one before its prerequisite is a programming error, not a request
// failure, and produces no audit entry.
var (
	ErrNoGrant      = errors.New("session: no grant received")
	ErrNotValidated = errors.New("session: grant not validated")
	ErrNoDataKey    = errors.New("session: data key not unwrapped")
	ErrNoCiphertext = errors.New("session: no data fetched")
)

// Config wires a session's collaborators. Agent and Objects are
// required.
type Config struct {
	// Agent is the loaded agent keypair: the subject identity grants
	// are checked against and the private half DEK unwrapping uses.
	Agent *keystore.Keypair

	// Objects is the ciphertext store named by grant resource
	// locators.
	Objects objectstore.Store

	// Issuers resolves grant issuer identities to verification keys.
	// Required unless RequireSignature is disabled and only unsigned
	// grants are expected.
	Issuers grant.IssuerKeyResolver

	// RequireSignature rejects unsigned grants. Leave it on; turning
	// it off is the explicit weaker-trust path and marks every
	// token_validated entry it produces.
	RequireSignature bool

	// Compression is applied to output plaintext before encryption.
	Compression payload.CompressionTag

	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to discard.
	Logger *slog.Logger
}

// Session is the per-request context for one grant: it owns the audit
// chain and walks the grant through parse, validation, key unwrap,
// fetch, decrypt, and output. Every operation appends exactly one
// chain entry, on failure as well as success, before returning.
//
// A Session serves one request on one goroutine. Concurrent requests
// get concurrent Sessions; chains are never shared.
type Session struct {
	config Config
	chain  *audit.Chain
	logger *slog.Logger

	grant   *grant.Grant
	verdict *grant.Valid
	dataKey *secret.Buffer

	ciphertext []byte
	dataHash   string
	resultHash string
}

// New creates a session with a fresh audit chain.
func New(config Config) (*Session, error) {
	if config.Agent == nil {
		return nil, fmt.Errorf("session: Agent is required")
	}
	if config.Objects == nil {
		return nil, fmt.Errorf("session: Objects is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	sessionID, err := newSessionID()
	if err != nil {
		return nil, err
	}
	return &Session{
		config: config,
		chain:  audit.NewChain(sessionID, config.Clock),
		logger: config.Logger.With("session", sessionID),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.chain.SessionID() }

// Chain exposes the session's audit chain.
func (s *Session) Chain() *audit.Chain { return s.chain }

// Close releases the unwrapped data key, if any. Idempotent.
func (s *Session) Close() error {
	if s.dataKey != nil {
		return s.dataKey.Close()
	}
	return nil
}

// Receive parses a wire-format grant. A malformed grant is rejected
// before any data access with an error entry; a parsed grant is
// recorded as token_received.
func (s *Session) Receive(wireBytes []byte) (*grant.Grant, error) {
	parsed, err := grant.Parse(wireBytes)
	if err != nil {
		s.fail("parse", err, nil)
		return nil, err
	}

	s.grant = parsed
	s.appendEntry(audit.ActionTokenReceived, map[string]string{
		"grantId": parsed.ID,
		"issuer":  parsed.Issuer,
		"locator": parsed.ResourceLocator,
	})
	return parsed, nil
}

// Validate checks the received grant against the session clock and
// the agent identity. Rejections are recorded as token_rejected with
// their reason; acceptance as token_validated.
func (s *Session) Validate() (*grant.Valid, error) {
	if s.grant == nil {
		return nil, ErrNoGrant
	}

	verdict, err := grant.Validate(s.grant, s.config.Clock.Now(), s.config.Agent.Public, grant.ValidateOptions{
		RequireSignature: s.config.RequireSignature,
		IssuerKeys:       s.config.Issuers,
	})
	if err != nil {
		reason := grant.ReasonForError(err)
		if reason == "" {
			s.fail("validate", err, nil)
			return nil, err
		}
		s.appendEntry(audit.ActionTokenRejected, map[string]string{
			"grantId": s.grant.ID,
			"reason":  string(reason),
		})
		s.logger.Warn("grant rejected", "grantId", s.grant.ID, "reason", string(reason))
		return nil, err
	}

	details := map[string]string{
		"grantId": s.grant.ID,
		"issuer":  s.grant.Issuer,
	}
	if verdict.Unsigned {
		details["unsigned"] = "true"
	}
	s.verdict = verdict
	s.appendEntry(audit.ActionTokenValidated, details)
	return verdict, nil
}

// UnwrapKey recovers the grant's data-encryption key with the agent
// private key. Authentication failure is a security event: recorded,
// surfaced, never retried with the same material.
func (s *Session) UnwrapKey() error {
	if s.verdict == nil {
		return ErrNotValidated
	}
	if s.dataKey != nil {
		return nil
	}

	key, err := dek.Unwrap(&s.grant.WrappedKey, s.config.Agent.Private)
	if err != nil {
		s.fail("dek_unwrap", err, nil)
		s.logger.Warn("data key unwrap failed", "grantId", s.grant.ID)
		return err
	}

	s.dataKey = key
	s.appendEntry(audit.ActionDEKUnwrapped, map[string]string{"grantId": s.grant.ID})
	return nil
}
