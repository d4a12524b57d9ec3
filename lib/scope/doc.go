// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package scope models the (path pattern, permission set) pairs that
// restrict what a capability grant authorizes, and implements the path
// matching used at the data-access boundary.
//
// Matching semantics: a pattern is an exact path or a prefix ending in
// "*" whose stem ends in "/". "health/*" matches "health/steps" but
// not "health" — the wildcard denotes descendants, never the bare
// parent. The first scope whose pattern matches the requested path
// decides the outcome; scope order in the grant is meaningful.
//
// The validator checks scope well-formedness ([Scope.Validate]); the
// session checks access ([Match]) before touching the object store.
package scope
