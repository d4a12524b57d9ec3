// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for warrant packages.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need unique
// grant IDs or session IDs.
//
// This package has no warrant-internal dependencies.
package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer.
//
//	grantID := testutil.UniqueID("grant")   // "grant-1", "grant-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
