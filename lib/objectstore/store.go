// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when no object exists for the
// locator.
var ErrNotFound = errors.New("objectstore: object not found")

// ErrDigestMismatch is returned by Get when the stored bytes no
// longer hash to the locator that names them. The object is corrupt
// or has been tampered with; callers must treat the read as failed.
var ErrDigestMismatch = errors.New("objectstore: content does not match locator")

// Store is content-addressed object storage. Put derives the locator
// from the bytes; Get verifies the bytes against the locator before
// returning them, so a successful Get is also an integrity check.
type Store interface {
	Get(ctx context.Context, locator Locator) ([]byte, error)
	Put(ctx context.Context, data []byte) (Locator, error)
}

// Directory names within the store root.
const (
	objectsDir = "objects"
	tmpDir     = "tmp"
)

// FS is a filesystem-backed Store. Objects live under
// root/objects/<first 2 hex>/<digest>; writes go through root/tmp and
// are renamed into place, so a crash never leaves a partial object at
// its final path.
//
// FS is safe for concurrent use: content addressing makes writes of
// the same object idempotent, and rename is atomic within the root.
type FS struct {
	root   string
	logger *slog.Logger
}

// NewFS creates a filesystem store rooted at dir, creating the
// directory structure if needed.
func NewFS(dir string, logger *slog.Logger) (*FS, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, sub := range []string{dir, filepath.Join(dir, objectsDir), filepath.Join(dir, tmpDir)} {
		if err := os.MkdirAll(sub, 0o700); err != nil {
			return nil, fmt.Errorf("objectstore: creating %s: %w", sub, err)
		}
	}
	return &FS{root: dir, logger: logger}, nil
}

// Put writes data and returns its content-addressed locator. Storing
// bytes that already exist is a no-op returning the same locator.
func (s *FS) Put(ctx context.Context, data []byte) (Locator, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	locator := LocatorFor(data)
	digest, err := locator.Digest()
	if err != nil {
		return "", err
	}

	final := s.objectPath(digest)
	if _, err := os.Stat(final); err == nil {
		return locator, nil
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "put-*")
	if err != nil {
		return "", fmt.Errorf("objectstore: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("objectstore: writing object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("objectstore: closing temp file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(final), 0o700); err != nil {
		return "", fmt.Errorf("objectstore: creating shard directory: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		return "", fmt.Errorf("objectstore: placing object: %w", err)
	}

	s.logger.Debug("object stored", "locator", string(locator), "size", len(data))
	return locator, nil
}

// Get reads the object named by locator and verifies its digest. On
// mismatch it returns ErrDigestMismatch and no data.
func (s *FS) Get(ctx context.Context, locator Locator) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	digest, err := locator.Digest()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.objectPath(digest))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, string(locator))
		}
		return nil, fmt.Errorf("objectstore: reading object: %w", err)
	}

	if LocatorFor(data) != locator {
		return nil, fmt.Errorf("%w: %s", ErrDigestMismatch, string(locator))
	}
	return data, nil
}

// objectPath shards objects by the first two hex digits to keep
// directory sizes bounded.
func (s *FS) objectPath(digest string) string {
	return filepath.Join(s.root, objectsDir, digest[:2], digest)
}
