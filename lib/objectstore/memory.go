// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store for tests and ephemeral sessions. It
// performs the same digest verification as FS on Get.
type Memory struct {
	mu      sync.RWMutex
	objects map[Locator][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[Locator][]byte)}
}

func (m *Memory) Put(ctx context.Context, data []byte) (Locator, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	locator := LocatorFor(data)

	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	m.objects[locator] = stored
	m.mu.Unlock()
	return locator, nil
}

func (m *Memory) Get(ctx context.Context, locator Locator) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := locator.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	stored, ok := m.objects[locator]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, string(locator))
	}

	data := make([]byte, len(stored))
	copy(data, stored)
	if LocatorFor(data) != locator {
		return nil, fmt.Errorf("%w: %s", ErrDigestMismatch, string(locator))
	}
	return data, nil
}

// Corrupt replaces the stored bytes for locator without rehashing.
// Test hook for exercising digest verification.
func (m *Memory) Corrupt(locator Locator, data []byte) {
	m.mu.Lock()
	m.objects[locator] = data
	m.mu.Unlock()
}
