// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides warrant's standard CBOR encoding configuration.
//
// Warrant uses two serialization formats with a clear boundary:
//
//   - JSON for external contracts: the capability grant wire format,
//     the persisted keypair record, and the audit export document.
//     These are the formats independent verifiers and grant issuers
//     consume; their field names and canonicalization are fixed.
//   - CBOR for internal persistence: audit entry rows in the SQLite
//     store and any on-disk state that is warrant's alone.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every warrant package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes.
package codec
