// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock time behind an interface so that
// grant expiry, audit timestamps, and session metadata are testable
// without real sleeps.
//
// [Real] returns a Clock backed by the time package. [Fake] returns a
// deterministic clock that only moves when the test advances it.
//
// This package has no warrant-internal dependencies.
package clock
