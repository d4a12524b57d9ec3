// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/warrant-foundation/warrant/lib/clock"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "audit.db"), nil)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := t.Context()
	store := testStore(t)

	clk := clock.Fake(time.Unix(1770000000, 0))
	chain := NewChain("session-store", clk)
	for _, action := range []Action{ActionTokenReceived, ActionTokenValidated, ActionDEKUnwrapped} {
		entry, err := chain.Append(action, map[string]string{"grantId": "g-1"})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := store.Append(ctx, chain.SessionID(), chain.Len()-1, entry); err != nil {
			t.Fatalf("store.Append: %v", err)
		}
		clk.Advance(time.Millisecond)
	}

	loaded, err := store.LoadSession(ctx, "session-store")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d entries, want 3", len(loaded))
	}
	for i, entry := range chain.Entries() {
		if loaded[i].Hash != entry.Hash {
			t.Errorf("entry %d hash changed across storage", i)
		}
		if loaded[i].Details["grantId"] != "g-1" {
			t.Errorf("entry %d details lost: %+v", i, loaded[i].Details)
		}
	}

	// The chain contract must hold over reloaded entries, not just
	// in-memory ones.
	if result := VerifyEntries(loaded); !result.Valid {
		t.Errorf("reloaded chain failed verification at %d", result.BrokenAt)
	}
}

func TestStoreRejectsDuplicatePosition(t *testing.T) {
	ctx := t.Context()
	store := testStore(t)

	chain := NewChain("session-dup", clock.Fake(time.Unix(1770000000, 0)))
	entry, err := chain.Append(ActionTokenReceived, nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := store.Append(ctx, "session-dup", 0, entry); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := store.Append(ctx, "session-dup", 0, entry); err == nil {
		t.Error("overwriting a stored position succeeded; want error")
	}
}

func TestStoreUnknownSessionIsEmpty(t *testing.T) {
	store := testStore(t)

	loaded, err := store.LoadSession(t.Context(), "never-seen")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("unknown session returned %d entries", len(loaded))
	}
}

func TestStoreSessions(t *testing.T) {
	ctx := t.Context()
	store := testStore(t)

	for _, sessionID := range []string{"session-a", "session-b"} {
		chain := NewChain(sessionID, clock.Fake(time.Unix(1770000000, 0)))
		entry, err := chain.Append(ActionTokenReceived, nil)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := store.Append(ctx, sessionID, 0, entry); err != nil {
			t.Fatalf("store.Append: %v", err)
		}
	}

	sessions, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "session-a" || sessions[1] != "session-b" {
		t.Errorf("sessions = %v", sessions)
	}
}
