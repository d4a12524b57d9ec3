// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// warrant-agent runs one capability grant through the full access
// pipeline: parse, validate, unwrap the data key, fetch and decrypt
// the payload from the object store, and record the inference
// hand-off. It persists the session's audit chain to the configured
// SQLite store and writes the audit export document for the user.
//
// The export is produced even when the grant is rejected — the chain
// of a refused request is evidence the refusal happened.
//
//	warrant-agent --grant grant.json --data-path health/metrics --export audit.json
package main
