// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/warrant-foundation/warrant/lib/audit"
)

// appendEntry records one chain entry. Append can only fail on an
// unknown action or an entropy failure; both are process-level
// problems, logged rather than propagated so they cannot mask the
// operation's own result.
func (s *Session) appendEntry(action audit.Action, details map[string]string) {
	if _, err := s.chain.Append(action, details); err != nil {
		s.logger.Error("audit append failed", "action", string(action), "error", err)
	}
}

func (s *Session) appendTimed(action audit.Action, details map[string]string, hashes audit.Hashes, duration time.Duration) {
	if _, err := s.chain.AppendWithHashes(action, details, hashes, duration); err != nil {
		s.logger.Error("audit append failed", "action", string(action), "error", err)
	}
}

// fail records an operation failure as exactly one error entry. The
// stage identifies where in the pipeline the failure happened; the
// error text carries no key material or plaintext — lower layers
// guarantee that.
func (s *Session) fail(stage string, failure error, extra map[string]string) {
	details := map[string]string{
		"stage": stage,
		"error": failure.Error(),
	}
	for key, value := range extra {
		details[key] = value
	}
	s.appendEntry(audit.ActionError, details)
}

// newSessionID returns a random 32-hex-character session identifier.
func newSessionID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session: generating session ID: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
