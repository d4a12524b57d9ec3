// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrBadLocator is returned when a locator string does not have the
// blake3:<64 hex> shape.
var ErrBadLocator = errors.New("objectstore: malformed locator")

// locatorScheme prefixes every locator. Only content-addressed BLAKE3
// locators are supported; a scheme field keeps the format open for
// relocation without ambiguity.
const locatorScheme = "blake3"

// objectDomainKey is the BLAKE3 keyed-hash domain for stored objects.
// A fixed constant — changing it invalidates every existing locator.
// The bytes are the ASCII domain name, zero-padded to 32.
var objectDomainKey = [32]byte{
	'w', 'a', 'r', 'r', 'a', 'n', 't', '.', 'o', 'b', 'j', 'e', 'c', 't', 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Locator names a stored object by the BLAKE3 digest of its bytes,
// formatted as "blake3:<64 hex chars>". The bytes a locator names are
// ciphertext; locators are safe to log and to record in audit
// entries.
type Locator string

// LocatorFor computes the content-addressed locator for data.
func LocatorFor(data []byte) Locator {
	hasher, err := blake3.NewKeyed(objectDomainKey[:])
	if err != nil {
		// NewKeyed fails only on a key of the wrong length.
		panic(fmt.Sprintf("objectstore: keyed hasher: %v", err))
	}
	hasher.Write(data)
	return Locator(locatorScheme + ":" + hex.EncodeToString(hasher.Sum(nil)))
}

// Digest returns the hex digest portion of the locator.
func (l Locator) Digest() (string, error) {
	scheme, digest, found := strings.Cut(string(l), ":")
	if !found || scheme != locatorScheme || len(digest) != 64 {
		return "", fmt.Errorf("%w: %q", ErrBadLocator, string(l))
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadLocator, string(l))
	}
	return digest, nil
}

// Validate checks the locator shape without touching storage.
func (l Locator) Validate() error {
	_, err := l.Digest()
	return err
}
