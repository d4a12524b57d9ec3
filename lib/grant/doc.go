// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package grant parses and validates capability grants: signed,
// scoped, time-bound authorizations for an agent to access specific
// encrypted data paths.
//
// The package draws a hard line between parsing and trust. [Parse]
// turns wire bytes into a typed [Grant] or fails with [ErrMalformed] —
// unknown fields, missing fields, and trailing data are all malformed;
// no partially-filled grant escapes. [Validate] is a pure function of
// grant, time, and agent identity that checks subject binding, expiry,
// the issuer's Ed25519 signature, and scope well-formedness, in that
// order, reporting the first failure.
//
// Signatures cover the canonical JSON of an explicit signable subset
// struct that simply does not contain the signature fields — there is
// no strip-fields-then-reserialize step anywhere.
//
// Unsigned grants are accepted only when ValidateOptions explicitly
// disables RequireSignature, and even then the verdict carries
// Unsigned so the audit trail records the weaker trust path.
package grant
