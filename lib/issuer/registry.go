// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package issuer maintains the registry of trusted grant issuers.
// Registries are authored on disk as JSONC files (JSON extended with
// comments and trailing commas) mapping issuer identities to Ed25519
// verification keys, and resolve keys for grant signature checks.
package issuer

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// ErrUnknownIssuer is returned when a grant names an issuer the
// registry does not trust. Validation maps it to an invalid-signature
// rejection: a signature from an unknown party proves nothing.
var ErrUnknownIssuer = errors.New("issuer: unknown issuer")

// registryFile is the on-disk shape of a registry.
type registryFile struct {
	Issuers []registryEntry `json:"issuers"`
}

type registryEntry struct {
	// Identity is the issuer string grants carry, typically a
	// domain name.
	Identity string `json:"identity"`

	// PublicKey is the issuer's Ed25519 verification key,
	// base64-encoded.
	PublicKey string `json:"publicKey"`
}

// Registry resolves issuer identities to their Ed25519 verification
// keys. Immutable after load; reloading means building a new
// Registry.
type Registry struct {
	keys map[string]ed25519.PublicKey
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals and checks the registry. Every entry must have an
// identity and a well-formed Ed25519 key; duplicate identities are
// rejected rather than letting one entry shadow another.
func Parse(data []byte) (*Registry, error) {
	stripped := jsonc.ToJSON(data)

	var file registryFile
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, fmt.Errorf("issuer: parsing registry: %w", err)
	}

	keys := make(map[string]ed25519.PublicKey, len(file.Issuers))
	for index, entry := range file.Issuers {
		if entry.Identity == "" {
			return nil, fmt.Errorf("issuer: entry %d: missing identity", index)
		}
		if _, exists := keys[entry.Identity]; exists {
			return nil, fmt.Errorf("issuer: duplicate entry for %q", entry.Identity)
		}
		key, err := base64.StdEncoding.DecodeString(entry.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("issuer: entry for %q: decoding public key: %w", entry.Identity, err)
		}
		if len(key) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("issuer: entry for %q: public key is %d bytes, want %d",
				entry.Identity, len(key), ed25519.PublicKeySize)
		}
		keys[entry.Identity] = ed25519.PublicKey(key)
	}

	return &Registry{keys: keys}, nil
}

// ReadFile loads a JSONC registry file from disk.
func ReadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("issuer: reading %s: %w", path, err)
	}
	registry, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("issuer: %s: %w", path, err)
	}
	return registry, nil
}

// Static builds a registry from an in-memory identity-to-key map.
// Used by tests and by embedders that manage trust elsewhere.
func Static(keys map[string]ed25519.PublicKey) *Registry {
	copied := make(map[string]ed25519.PublicKey, len(keys))
	for identity, key := range keys {
		copied[identity] = key
	}
	return &Registry{keys: copied}
}

// IssuerKey returns the verification key for identity, or
// ErrUnknownIssuer. Satisfies grant.IssuerKeyResolver.
func (r *Registry) IssuerKey(identity string) (ed25519.PublicKey, error) {
	key, ok := r.keys[identity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIssuer, identity)
	}
	return key, nil
}

// Len reports the number of trusted issuers.
func (r *Registry) Len() int { return len(r.keys) }
