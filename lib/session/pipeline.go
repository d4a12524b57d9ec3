// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/warrant-foundation/warrant/lib/audit"
	"github.com/warrant-foundation/warrant/lib/grant"
	"github.com/warrant-foundation/warrant/lib/objectstore"
	"github.com/warrant-foundation/warrant/lib/payload"
	"github.com/warrant-foundation/warrant/lib/scope"
)

// Fetch retrieves the grant's ciphertext from the object store. This
// is the data-access boundary: the requested data path must be
// covered by a read scope before any bytes move. The store does not
// retry; transient failures propagate to the caller.
func (s *Session) Fetch(ctx context.Context, dataPath string) error {
	if s.verdict == nil {
		return ErrNotValidated
	}

	if !scope.Match(s.grant.Scopes, dataPath, scope.Read) {
		err := fmt.Errorf("%w: no read scope covers %q", grant.ErrScopeDenied, dataPath)
		s.fail("fetch", err, map[string]string{"reason": string(grant.RejectionScopeDenied), "path": dataPath})
		return err
	}

	start := s.config.Clock.Now()
	ciphertext, err := s.config.Objects.Get(ctx, objectstore.Locator(s.grant.ResourceLocator))
	if err != nil {
		s.fail("fetch", err, map[string]string{"locator": s.grant.ResourceLocator})
		return err
	}

	s.ciphertext = ciphertext
	s.appendTimed(audit.ActionDataFetched, map[string]string{
		"locator":   s.grant.ResourceLocator,
		"path":      dataPath,
		"sizeBytes": strconv.Itoa(len(ciphertext)),
	}, audit.Hashes{}, s.config.Clock.Now().Sub(start))
	return nil
}

// Decrypt recovers the plaintext from the fetched ciphertext using
// the unwrapped data key, undoing compression framing. The audit
// entry carries the SHA-256 digest of the plaintext, never the
// plaintext, so the user can confirm out of band which data was
// accessed. A tag mismatch is access denied: recorded and surfaced
// with no partial output.
func (s *Session) Decrypt() ([]byte, error) {
	if s.dataKey == nil {
		return nil, ErrNoDataKey
	}
	if s.ciphertext == nil {
		return nil, ErrNoCiphertext
	}

	start := s.config.Clock.Now()
	frame, _, err := payload.Decrypt(s.ciphertext, s.dataKey)
	if err != nil {
		s.fail("decrypt", err, nil)
		s.logger.Warn("payload decrypt failed", "grantId", s.grant.ID)
		return nil, err
	}
	plaintext, err := payload.Decompress(frame)
	if err != nil {
		s.fail("decrypt", err, nil)
		return nil, err
	}

	digest := sha256.Sum256(plaintext)
	s.dataHash = hex.EncodeToString(digest[:])
	s.appendTimed(audit.ActionDataDecrypted, map[string]string{
		"sizeBytes": strconv.Itoa(len(plaintext)),
	}, audit.Hashes{Input: s.dataHash}, s.config.Clock.Now().Sub(start))
	return plaintext, nil
}

// RecordInferenceStarted marks the hand-off of decrypted data to the
// external inference step. The details map carries categorical
// metadata only (model name, prompt template id) — never content.
func (s *Session) RecordInferenceStarted(details map[string]string) error {
	if s.verdict == nil {
		return ErrNotValidated
	}
	s.appendEntry(audit.ActionInferenceStarted, details)
	return nil
}

// RecordInferenceCompleted marks the inference step's return.
func (s *Session) RecordInferenceCompleted(details map[string]string, duration time.Duration) error {
	if s.verdict == nil {
		return ErrNotValidated
	}
	s.appendTimed(audit.ActionInferenceCompleted, details, audit.Hashes{}, duration)
	return nil
}

// EncryptOutput compresses and encrypts a result under the grant's
// data key. The audit entry carries the result plaintext digest; the
// same digest lands in the export document as resultHash.
func (s *Session) EncryptOutput(result []byte) ([]byte, error) {
	if s.dataKey == nil {
		return nil, ErrNoDataKey
	}

	start := s.config.Clock.Now()
	frame, err := payload.Compress(result, s.config.Compression)
	if err != nil {
		s.fail("encrypt_output", err, nil)
		return nil, err
	}
	encrypted, _, err := payload.Encrypt(frame, s.dataKey)
	if err != nil {
		s.fail("encrypt_output", err, nil)
		return nil, err
	}

	digest := sha256.Sum256(result)
	s.resultHash = hex.EncodeToString(digest[:])
	s.appendTimed(audit.ActionOutputEncrypted, map[string]string{
		"sizeBytes": strconv.Itoa(len(result)),
	}, audit.Hashes{Output: s.resultHash}, s.config.Clock.Now().Sub(start))
	return encrypted, nil
}

// StoreOutput writes encrypted output back to the object store,
// gated on a write scope for the output path.
func (s *Session) StoreOutput(ctx context.Context, outputPath string, encrypted []byte) (objectstore.Locator, error) {
	if s.verdict == nil {
		return "", ErrNotValidated
	}

	if !scope.Match(s.grant.Scopes, outputPath, scope.Write) {
		err := fmt.Errorf("%w: no write scope covers %q", grant.ErrScopeDenied, outputPath)
		s.fail("store_output", err, map[string]string{"reason": string(grant.RejectionScopeDenied), "path": outputPath})
		return "", err
	}

	locator, err := s.config.Objects.Put(ctx, encrypted)
	if err != nil {
		s.fail("store_output", err, map[string]string{"path": outputPath})
		return "", err
	}

	s.appendEntry(audit.ActionOutputStored, map[string]string{
		"locator": string(locator),
		"path":    outputPath,
	})
	return locator, nil
}

// Export produces the audit document for the session, including the
// data and result digests recorded by Decrypt and EncryptOutput.
func (s *Session) Export() *audit.Export {
	return s.chain.Export(audit.ExportMeta{
		DataHash:   s.dataHash,
		ResultHash: s.resultHash,
	})
}

// Persist writes the session's entries to a durable audit store.
// Call once, when the session's work is done.
func (s *Session) Persist(ctx context.Context, store *audit.Store) error {
	for index, entry := range s.chain.Entries() {
		if err := store.Append(ctx, s.ID(), index, entry); err != nil {
			return err
		}
	}
	return nil
}
