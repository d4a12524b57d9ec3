// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/warrant-foundation/warrant/lib/clock"
)

func testChain(t *testing.T) (*Chain, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	return NewChain("session-1", clk), clk
}

func TestChainFirstEntryLinksToGenesis(t *testing.T) {
	chain, _ := testChain(t)

	entry, err := chain.Append(ActionTokenReceived, map[string]string{"grantId": "g-1"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if entry.PrevHash != GenesisHash {
		t.Errorf("first entry prevHash = %q, want genesis %q", entry.PrevHash, GenesisHash)
	}
	if len(entry.Hash) != 64 {
		t.Errorf("hash length = %d, want 64 hex digits", len(entry.Hash))
	}
	if entry.ID == "" {
		t.Error("entry ID is empty")
	}
}

func TestChainEntriesLink(t *testing.T) {
	chain, clk := testChain(t)

	first, err := chain.Append(ActionTokenReceived, nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	clk.Advance(250 * time.Millisecond)
	second, err := chain.Append(ActionTokenValidated, map[string]string{"issuer": "vault.example"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if second.PrevHash != first.Hash {
		t.Errorf("second prevHash = %q, want first hash %q", second.PrevHash, first.Hash)
	}
	if second.Timestamp != first.Timestamp+250 {
		t.Errorf("timestamp = %d, want %d", second.Timestamp, first.Timestamp+250)
	}
}

func TestChainRejectsUnknownAction(t *testing.T) {
	chain, _ := testChain(t)

	if _, err := chain.Append(Action("made_up"), nil); err == nil {
		t.Fatal("Append accepted an unknown action")
	}
	if chain.Len() != 0 {
		t.Errorf("chain length = %d after rejected append, want 0", chain.Len())
	}
}

func TestChainVerifyIntact(t *testing.T) {
	chain, clk := testChain(t)

	actions := []Action{
		ActionTokenReceived, ActionTokenValidated, ActionDEKUnwrapped,
		ActionDataFetched, ActionDataDecrypted, ActionInferenceStarted,
		ActionInferenceCompleted, ActionOutputEncrypted, ActionOutputStored,
	}
	for _, action := range actions {
		if _, err := chain.Append(action, nil); err != nil {
			t.Fatalf("Append %s: %v", action, err)
		}
		clk.Advance(time.Millisecond)
	}

	result := chain.Verify()
	if !result.Valid {
		t.Fatalf("intact chain failed verification at index %d", result.BrokenAt)
	}
	if result.BrokenAt != -1 {
		t.Errorf("BrokenAt = %d for valid chain, want -1", result.BrokenAt)
	}
}

func TestChainVerifyDetectsTamperedDetails(t *testing.T) {
	chain, clk := testChain(t)
	for i := 0; i < 5; i++ {
		if _, err := chain.Append(ActionDataFetched, map[string]string{"locator": "blake3:abc"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
		clk.Advance(time.Millisecond)
	}

	// Tampering with any historical entry must surface at or after
	// that entry's index. Details maps are shared with the chain, so
	// tamper with a per-iteration copy.
	for tampered := 0; tampered < 5; tampered++ {
		entries := chain.Entries()
		entries[tampered].Details = map[string]string{"locator": "blake3:abd"}

		result := VerifyEntries(entries)
		if result.Valid {
			t.Fatalf("tampering entry %d went undetected", tampered)
		}
		if result.BrokenAt < tampered {
			t.Errorf("tampered entry %d reported at index %d", tampered, result.BrokenAt)
		}
	}
}

func TestChainVerifyDetectsRemovedEntry(t *testing.T) {
	chain, clk := testChain(t)
	for i := 0; i < 4; i++ {
		if _, err := chain.Append(ActionInferenceStarted, nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
		clk.Advance(time.Millisecond)
	}

	entries := chain.Entries()
	truncated := append(entries[:1:1], entries[2:]...)

	result := VerifyEntries(truncated)
	if result.Valid {
		t.Fatal("removing a middle entry went undetected")
	}
	if result.BrokenAt != 1 {
		t.Errorf("break reported at index %d, want 1", result.BrokenAt)
	}
}

func TestChainVerifyDetectsReorderedEntries(t *testing.T) {
	chain, clk := testChain(t)
	for i := 0; i < 3; i++ {
		if _, err := chain.Append(ActionTokenReceived, nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
		clk.Advance(time.Millisecond)
	}

	entries := chain.Entries()
	entries[1], entries[2] = entries[2], entries[1]

	if result := VerifyEntries(entries); result.Valid {
		t.Fatal("reordering entries went undetected")
	}
}

func TestChainVerifyDetectsForgedHash(t *testing.T) {
	chain, _ := testChain(t)
	if _, err := chain.Append(ActionTokenReceived, nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries := chain.Entries()
	entries[0].Hash = strings.Repeat("f", 64)

	result := VerifyEntries(entries)
	if result.Valid || result.BrokenAt != 0 {
		t.Fatalf("forged hash: got %+v, want break at 0", result)
	}
}

func TestVerifyEmptyChain(t *testing.T) {
	result := VerifyEntries(nil)
	if !result.Valid || result.BrokenAt != -1 {
		t.Errorf("empty chain: got %+v, want valid", result)
	}
}

func TestAppendWithHashes(t *testing.T) {
	chain, _ := testChain(t)

	hashes := Hashes{Input: strings.Repeat("a", 64)}
	entry, err := chain.AppendWithHashes(ActionDataDecrypted, nil, hashes, 42*time.Millisecond)
	if err != nil {
		t.Fatalf("AppendWithHashes: %v", err)
	}
	if entry.Hashes == nil || entry.Hashes.Input != hashes.Input {
		t.Errorf("entry hashes = %+v, want input %s", entry.Hashes, hashes.Input)
	}
	if entry.DurationMS != 42 {
		t.Errorf("durationMs = %d, want 42", entry.DurationMS)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	chain, _ := testChain(t)
	if _, err := chain.Append(ActionTokenReceived, nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries := chain.Entries()
	entries[0].Hash = "clobbered"

	if result := chain.Verify(); !result.Valid {
		t.Error("mutating the Entries slice affected the chain")
	}
}

func TestEntryHashDeterministic(t *testing.T) {
	entry := Entry{
		ID:        "0011223344556677",
		Timestamp: 1770000000000,
		Action:    ActionTokenValidated,
		Details:   map[string]string{"b": "2", "a": "1"},
		PrevHash:  GenesisHash,
	}

	first, err := EntryHash(entry)
	if err != nil {
		t.Fatalf("EntryHash: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := EntryHash(entry)
		if err != nil {
			t.Fatalf("EntryHash: %v", err)
		}
		if again != first {
			t.Fatalf("hash not stable across calls: %s vs %s", first, again)
		}
	}
}
