// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package session drives one grant through its lifecycle: receive,
// validate, unwrap the data key, fetch and decrypt the payload,
// record the inference hand-off, encrypt and store the output, and
// export the audit chain that proves the whole sequence.
//
// Each Session owns a fresh chain and serves one request. There is no
// shared log: concurrent requests run concurrent sessions whose
// chains never interleave. Every operation — success or failure —
// appends exactly one audit entry before it returns.
package session
