// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// warrant-verify independently re-verifies an audit export document.
// It shares no state with the agent that produced the export: it
// re-walks the hash chain from the genesis value, recomputing every
// entry hash from the canonical serialization, and optionally checks
// the export's dataHash against a local copy of the original data.
//
// Exit status: 0 valid, 1 verification failed, 2 usage or read error.
//
//	warrant-verify audit.json
//	warrant-verify --data health-metrics.json audit.json
package main
