// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectstore provides content-addressed storage for
// encrypted payloads. Objects are named by the BLAKE3 keyed digest of
// their bytes, so a locator from a capability grant both finds the
// ciphertext and proves it was not swapped: Get refuses to return
// bytes that do not hash to the locator.
//
// The store only ever sees ciphertext. Encryption and decryption
// happen in lib/payload, above this layer.
package objectstore
