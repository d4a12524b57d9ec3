// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/warrant-foundation/warrant/lib/codec"
	"github.com/warrant-foundation/warrant/lib/sqlitepool"
)

// storeSchema holds one chain entry per row, keyed by session and
// position. Entries are CBOR blobs: the hash contract is defined over
// canonical JSON, so the storage encoding is free to be compact.
const storeSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    session_id TEXT    NOT NULL,
    idx        INTEGER NOT NULL,
    entry      BLOB    NOT NULL,
    PRIMARY KEY (session_id, idx)
) WITHOUT ROWID;
`

// Store persists audit chains durably so exports survive process
// restarts. It is append-only by construction: there is no update or
// delete statement anywhere in this file.
type Store struct {
	pool *sqlitepool.Pool
}

// OpenStore opens (creating if necessary) the audit database at path.
// The caller must Close the store when done.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, storeSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("audit: opening store: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Append persists one chain entry at its position in the session.
// Appending the same (session, index) twice is an error — chains never
// rewrite history.
func (s *Store) Append(ctx context.Context, sessionID string, index int, entry Entry) error {
	blob, err := codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: encoding entry for storage: %w", err)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO audit_entries (session_id, idx, entry) VALUES (?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{sessionID, index, blob}})
	if err != nil {
		return fmt.Errorf("audit: persisting entry %d of session %s: %w", index, sessionID, err)
	}
	return nil
}

// LoadSession returns a session's entries in chain order. An unknown
// session returns an empty slice, not an error.
func (s *Store) LoadSession(ctx context.Context, sessionID string) ([]Entry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var entries []Entry
	err = sqlitex.Execute(conn,
		`SELECT entry FROM audit_entries WHERE session_id = ? ORDER BY idx`,
		&sqlitex.ExecOptions{
			Args: []any{sessionID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				blob := make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, blob)

				var entry Entry
				if err := codec.Unmarshal(blob, &entry); err != nil {
					return fmt.Errorf("decoding stored entry: %w", err)
				}
				entries = append(entries, entry)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("audit: loading session %s: %w", sessionID, err)
	}
	return entries, nil
}

// Sessions lists the session identifiers present in the store, most
// recently created last (by first-entry insertion order).
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var sessions []string
	err = sqlitex.Execute(conn,
		`SELECT DISTINCT session_id FROM audit_entries ORDER BY session_id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				sessions = append(sessions, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("audit: listing sessions: %w", err)
	}
	return sessions, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
