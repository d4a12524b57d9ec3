// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/warrant-foundation/warrant/lib/clock"
)

func TestExportRoundTrip(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	chain := NewChain("session-export", clk)

	if _, err := chain.Append(ActionTokenReceived, map[string]string{"grantId": "g-7"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	clk.Advance(time.Second)
	if _, err := chain.AppendWithHashes(ActionDataDecrypted, nil, Hashes{Input: strings.Repeat("a", 64)}, 5*time.Millisecond); err != nil {
		t.Fatalf("AppendWithHashes: %v", err)
	}
	clk.Advance(time.Second)

	export := chain.Export(ExportMeta{
		DataHash:   strings.Repeat("a", 64),
		ResultHash: strings.Repeat("b", 64),
	})
	data, err := export.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	parsed, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if parsed.SessionID != "session-export" {
		t.Errorf("sessionId = %q", parsed.SessionID)
	}
	if parsed.CompletedAt != parsed.StartedAt+2000 {
		t.Errorf("completedAt = %d, want startedAt+2000 = %d", parsed.CompletedAt, parsed.StartedAt+2000)
	}
	if len(parsed.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(parsed.Entries))
	}
	if parsed.DataHash != export.DataHash || parsed.ResultHash != export.ResultHash {
		t.Error("session digests did not survive the round trip")
	}

	if result := parsed.Verify(); !result.Valid {
		t.Errorf("parsed export failed verification at %d", result.BrokenAt)
	}
}

func TestExportFieldNames(t *testing.T) {
	clk := clock.Fake(time.Unix(1770000000, 0))
	chain := NewChain("session-wire", clk)
	if _, err := chain.Append(ActionTokenReceived, nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	data, err := chain.Export(ExportMeta{DataHash: strings.Repeat("c", 64)}).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"sessionId", "startedAt", "completedAt", "entries", "dataHash"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("export document missing %q", key)
		}
	}
	if _, ok := doc["resultHash"]; ok {
		t.Error("empty resultHash serialized; want omitted")
	}

	var entry map[string]json.RawMessage
	raw, _ := json.Marshal(chain.Entries()[0])
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	for _, key := range []string{"id", "timestamp", "action", "prevHash", "hash"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("entry missing %q", key)
		}
	}
}

func TestExportVerifyDetectsTampering(t *testing.T) {
	clk := clock.Fake(time.Unix(1770000000, 0))
	chain := NewChain("session-tamper", clk)
	for i := 0; i < 3; i++ {
		if _, err := chain.Append(ActionOutputStored, map[string]string{"locator": "blake3:aaa"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
		clk.Advance(time.Millisecond)
	}

	data, err := chain.Export(ExportMeta{}).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	tampered := strings.Replace(string(data), "blake3:aaa", "blake3:bbb", 1)

	parsed, err := ParseExport([]byte(tampered))
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	result := parsed.Verify()
	if result.Valid {
		t.Fatal("tampered export passed verification")
	}
	if result.BrokenAt != 0 {
		t.Errorf("break at %d, want 0", result.BrokenAt)
	}
}

func TestParseExportRejectsMalformed(t *testing.T) {
	if _, err := ParseExport([]byte("{not json")); err == nil {
		t.Error("malformed document accepted")
	}
}
