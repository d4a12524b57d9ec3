// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides warrant's standard SQLite connection
// pool. The audit store uses it for durable, append-only entry
// storage.
//
// It wraps zombiezen.com/go/sqlite with production defaults: WAL
// journal mode (readers never block the writer), NORMAL synchronous
// (transactions survive process crashes without fsync-per-commit
// overhead), and a busy timeout to handle write contention gracefully.
//
// The pool is intentionally thin: it applies standard pragmas and
// exposes the underlying zombiezen types directly. Callers write SQL
// with sqlitex.Execute and manage their own transactions — there is no
// query-builder abstraction fighting SQLite's strengths.
package sqlitepool
