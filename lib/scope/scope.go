// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package scope

import (
	"fmt"
	"strings"
)

// Permission is a single access mode on a data path.
type Permission string

const (
	// Read allows fetching and decrypting data under a path.
	Read Permission = "read"

	// Write allows encrypting and storing data under a path.
	Write Permission = "write"
)

// Valid reports whether the permission is one of the known modes.
func (p Permission) Valid() bool {
	return p == Read || p == Write
}

// Scope restricts what an agent may do: a path pattern plus the
// permission set granted on it. A pattern is either an exact data path
// ("health/metrics") or a prefix wildcard ("health/*") where the
// portion before the "*" must end in "/".
type Scope struct {
	// Path is the data path pattern.
	Path string `json:"path"`

	// Permissions is the ordered set of permissions granted on Path.
	Permissions []Permission `json:"permissions"`
}

// Validate checks well-formedness: a non-empty path and only known
// permissions. It makes no access decision.
func (s Scope) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("scope: empty path")
	}
	if len(s.Permissions) == 0 {
		return fmt.Errorf("scope: path %q has no permissions", s.Path)
	}
	for _, permission := range s.Permissions {
		if !permission.Valid() {
			return fmt.Errorf("scope: path %q has unknown permission %q", s.Path, permission)
		}
	}
	return nil
}

// allows reports whether the scope's permission set contains the
// requested permission.
func (s Scope) allows(permission Permission) bool {
	for _, granted := range s.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}

// MatchPath reports whether a concrete data path matches a scope
// pattern. Matching is case-sensitive:
//
//	"health/metrics"  matches only "health/metrics"
//	"health/*"        matches "health/steps" and "health/a/b",
//	                  but not "health" (the prefix is a "/"-bounded
//	                  ancestor, not a bare substring)
//
// A pattern whose "*" is not preceded by "/" never matches: "health*"
// would be a substring pattern, which the grant model does not allow.
func MatchPath(pattern, path string) bool {
	if !strings.HasSuffix(pattern, "*") {
		return pattern == path
	}

	prefix := pattern[:len(pattern)-1]
	if !strings.HasSuffix(prefix, "/") {
		return false
	}
	return strings.HasPrefix(path, prefix)
}

// Match walks the scope list in order and reports whether the
// requested (path, permission) pair is granted. The first scope whose
// pattern matches the path decides the outcome: granted if its
// permission set contains the requested permission, denied otherwise.
// An empty scope list denies everything.
func Match(scopes []Scope, path string, permission Permission) bool {
	for _, s := range scopes {
		if MatchPath(s.Path, path) {
			return s.allows(permission)
		}
	}
	return false
}
