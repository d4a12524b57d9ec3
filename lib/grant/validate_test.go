// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package grant

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/warrant-foundation/warrant/lib/scope"
)

// staticResolver resolves issuer identities from a fixed map, standing
// in for the external signer authority.
type staticResolver map[string]ed25519.PublicKey

func (r staticResolver) IssuerKey(identity string) (ed25519.PublicKey, error) {
	key, ok := r[identity]
	if !ok {
		return nil, errors.New("unknown issuer")
	}
	return key, nil
}

func testIssuerKey(t *testing.T) (staticResolver, ed25519.PrivateKey) {
	t.Helper()
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating issuer key: %v", err)
	}
	return staticResolver{testIssuer: public}, private
}

func TestValidate_SignedGrant(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	resolver, issuerPrivate := testIssuerKey(t)

	g := testGrant(t, agentPublic, 1000, 5000)
	if err := Sign(g, issuerPrivate); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	valid, err := Validate(g, time.Unix(3000, 0), agentPublic, ValidateOptions{
		RequireSignature: true,
		IssuerKeys:       resolver,
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid.Unsigned {
		t.Error("signed grant reported as unsigned")
	}
	if valid.Grant != g {
		t.Error("verdict does not wrap the validated grant")
	}
}

func TestValidate_WrongSubject(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	_, otherPublic := testAgentKey(t)
	resolver, issuerPrivate := testIssuerKey(t)

	// Expired AND wrong subject: subject check runs first and is what
	// gets reported.
	g := testGrant(t, otherPublic, 1000, 2000)
	if err := Sign(g, issuerPrivate); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, err := Validate(g, time.Unix(9000, 0), agentPublic, ValidateOptions{
		RequireSignature: true,
		IssuerKeys:       resolver,
	})
	if !errors.Is(err, ErrWrongSubject) {
		t.Errorf("Validate: got %v, want ErrWrongSubject", err)
	}
	if ReasonForError(err) != RejectionWrongSubject {
		t.Errorf("ReasonForError = %q, want wrong_subject", ReasonForError(err))
	}
}

func TestValidate_Expired(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	resolver, issuerPrivate := testIssuerKey(t)

	issued := int64(1_700_000_000)
	g := testGrant(t, agentPublic, issued, issued+3600)
	if err := Sign(g, issuerPrivate); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	options := ValidateOptions{RequireSignature: true, IssuerKeys: resolver}

	// Halfway through the lifetime: accepted.
	if _, err := Validate(g, time.Unix(issued+1800, 0), agentPublic, options); err != nil {
		t.Errorf("Validate at T+1800: %v, want success", err)
	}

	// One second past expiry: rejected.
	_, err := Validate(g, time.Unix(issued+3601, 0), agentPublic, options)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Validate at T+3601: got %v, want ErrExpired", err)
	}

	// Exactly at expiry: already invalid (valid strictly before).
	if _, err := Validate(g, time.Unix(issued+3600, 0), agentPublic, options); !errors.Is(err, ErrExpired) {
		t.Errorf("Validate at T+3600: got %v, want ErrExpired", err)
	}
}

func TestValidate_TamperedGrant(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	resolver, issuerPrivate := testIssuerKey(t)

	g := testGrant(t, agentPublic, 1000, 5000)
	if err := Sign(g, issuerPrivate); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	// Widen the scope after signing.
	g.Scopes = append(g.Scopes, scope.Scope{Path: "finance/*", Permissions: []scope.Permission{scope.Write}})

	_, err := Validate(g, time.Unix(3000, 0), agentPublic, ValidateOptions{
		RequireSignature: true,
		IssuerKeys:       resolver,
	})
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("Validate of tampered grant: got %v, want ErrBadSignature", err)
	}
}

func TestValidate_UnknownIssuer(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	_, issuerPrivate := testIssuerKey(t)

	g := testGrant(t, agentPublic, 1000, 5000)
	g.Issuer = "did:example:nobody"
	if err := Sign(g, issuerPrivate); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, err := Validate(g, time.Unix(3000, 0), agentPublic, ValidateOptions{
		RequireSignature: true,
		IssuerKeys:       staticResolver{},
	})
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("Validate with unknown issuer: got %v, want ErrBadSignature", err)
	}
}

func TestValidate_UnsignedGrant(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	resolver, _ := testIssuerKey(t)

	g := testGrant(t, agentPublic, 1000, 5000)

	// Signatures required (the default posture): rejected.
	_, err := Validate(g, time.Unix(3000, 0), agentPublic, ValidateOptions{
		RequireSignature: true,
		IssuerKeys:       resolver,
	})
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("unsigned grant with signatures required: got %v, want ErrBadSignature", err)
	}

	// Explicitly weakened: accepted but flagged.
	valid, err := Validate(g, time.Unix(3000, 0), agentPublic, ValidateOptions{
		RequireSignature: false,
		IssuerKeys:       resolver,
	})
	if err != nil {
		t.Fatalf("unsigned grant with signatures optional: %v", err)
	}
	if !valid.Unsigned {
		t.Error("unsigned acceptance not flagged on the verdict")
	}
}

func TestValidate_MalformedScope(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	resolver, issuerPrivate := testIssuerKey(t)

	g := testGrant(t, agentPublic, 1000, 5000)
	g.Scopes = []scope.Scope{{Path: "health/metrics", Permissions: []scope.Permission{"admin"}}}
	if err := Sign(g, issuerPrivate); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, err := Validate(g, time.Unix(3000, 0), agentPublic, ValidateOptions{
		RequireSignature: true,
		IssuerKeys:       resolver,
	})
	if !errors.Is(err, ErrScopeDenied) {
		t.Errorf("Validate with bad permission: got %v, want ErrScopeDenied", err)
	}
}

func TestValidate_WrongAlgorithm(t *testing.T) {
	_, agentPublic := testAgentKey(t)
	resolver, issuerPrivate := testIssuerKey(t)

	g := testGrant(t, agentPublic, 1000, 5000)
	if err := Sign(g, issuerPrivate); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	g.SignatureAlgorithm = "rsa-pss"

	_, err := Validate(g, time.Unix(3000, 0), agentPublic, ValidateOptions{
		RequireSignature: true,
		IssuerKeys:       resolver,
	})
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("Validate with unsupported algorithm: got %v, want ErrBadSignature", err)
	}
}
