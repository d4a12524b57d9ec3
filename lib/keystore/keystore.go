// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/curve25519"

	"github.com/warrant-foundation/warrant/lib/clock"
	"github.com/warrant-foundation/warrant/lib/secret"
)

// Algorithm is the key-exchange algorithm recorded in the persisted
// keypair file. X25519 is the only supported value.
const Algorithm = "x25519"

// ErrCorrupt is returned when persisted key material exists but cannot
// be decoded. This is fatal and operator-visible: silently regenerating
// would invalidate every outstanding grant issued to the old public
// key. The process must not proceed with a degraded identity.
var ErrCorrupt = errors.New("keystore: persisted keypair is corrupt")

// Keypair is the agent's X25519 key-exchange keypair. The private half
// lives in a guarded buffer and never leaves process memory except
// through Store.Save. The caller must Close the keypair when the
// process shuts down.
type Keypair struct {
	// Public is the 32-byte X25519 public key. Safe to publish; it
	// is the subject identity grants are issued to.
	Public []byte

	// Private is the 32-byte X25519 scalar in mmap-backed memory.
	Private *secret.Buffer

	// CreatedAt records when the keypair was generated.
	CreatedAt time.Time
}

// Close releases the private key memory. Idempotent.
func (k *Keypair) Close() error {
	if k.Private != nil {
		return k.Private.Close()
	}
	return nil
}

// record is the on-disk keypair file: a structured JSON document with
// base64 key material. When a passphrase is configured the whole
// record is additionally age-encrypted at rest.
type record struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	CreatedAt  string `json:"createdAt"`
	Algorithm  string `json:"algorithm"`
}

// Store persists the agent keypair at a fixed path with owner-only
// permissions. The file must never appear in diagnostic output; Store
// logs only the path and public key.
type Store struct {
	path       string
	passphrase *secret.Buffer
	clock      clock.Clock
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPassphrase enables age encryption of the keypair file at rest.
// The passphrase buffer is borrowed for the Store's lifetime and NOT
// closed by it.
func WithPassphrase(passphrase *secret.Buffer) Option {
	return func(s *Store) { s.passphrase = passphrase }
}

// WithClock overrides the wall clock used for CreatedAt stamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store for the keypair file at path.
func New(path string, options ...Option) *Store {
	store := &Store{
		path:   path,
		clock:  clock.Real(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(store)
	}
	return store
}

// GetOrCreate loads the persisted keypair, generating and persisting a
// new one if none exists yet. The bool result reports whether a new
// keypair was created.
//
// A file that exists but cannot be decoded returns ErrCorrupt — never
// a fresh keypair.
func (s *Store) GetOrCreate() (*Keypair, bool, error) {
	keypair, err := s.load()
	if err == nil {
		return keypair, false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	keypair, err = generate(s.clock.Now())
	if err != nil {
		return nil, false, err
	}
	if err := s.Save(keypair); err != nil {
		keypair.Close()
		return nil, false, err
	}

	s.logger.Info("generated new agent keypair",
		"path", s.path,
		"publicKey", base64.StdEncoding.EncodeToString(keypair.Public))
	return keypair, true, nil
}

// Save persists the keypair with owner-only read/write permission,
// age-encrypting the record first when a passphrase is configured.
func (s *Store) Save(keypair *Keypair) error {
	plain, err := json.Marshal(record{
		PublicKey:  base64.StdEncoding.EncodeToString(keypair.Public),
		PrivateKey: base64.StdEncoding.EncodeToString(keypair.Private.Bytes()),
		CreatedAt:  keypair.CreatedAt.UTC().Format(time.RFC3339),
		Algorithm:  Algorithm,
	})
	if err != nil {
		return fmt.Errorf("keystore: encoding keypair record: %w", err)
	}
	defer secret.Zero(plain)

	contents := plain
	if s.passphrase != nil {
		sealed, err := sealRecord(plain, s.passphrase)
		if err != nil {
			return err
		}
		contents = sealed
	}

	if err := os.WriteFile(s.path, contents, 0600); err != nil {
		return fmt.Errorf("keystore: writing keypair file: %w", err)
	}
	return nil
}

// Delete removes the persisted keypair. Returns true if a file was
// removed, false if none existed. This is the only path that destroys
// the agent identity, and it is explicit operator action.
func (s *Store) Delete() (bool, error) {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("keystore: deleting keypair file: %w", err)
	}
	s.logger.Info("deleted agent keypair", "path", s.path)
	return true, nil
}

// load reads and decodes the persisted keypair. Returns os.ErrNotExist
// (wrapped) when no file exists, ErrCorrupt for anything undecodable.
func (s *Store) load() (*Keypair, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("keystore: reading keypair file: %w", err)
	}
	defer secret.Zero(contents)

	plain := contents
	if s.passphrase != nil {
		opened, err := openRecord(contents, s.passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		defer secret.Zero(opened)
		plain = opened
	}

	var decoded record
	if err := json.Unmarshal(plain, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if decoded.Algorithm != Algorithm {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrCorrupt, decoded.Algorithm)
	}

	publicKey, err := base64.StdEncoding.DecodeString(decoded.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: public key is not base64: %v", ErrCorrupt, err)
	}
	privateKey, err := base64.StdEncoding.DecodeString(decoded.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not base64: %v", ErrCorrupt, err)
	}
	if len(publicKey) != curve25519.PointSize || len(privateKey) != curve25519.ScalarSize {
		secret.Zero(privateKey)
		return nil, fmt.Errorf("%w: key material has wrong size", ErrCorrupt)
	}

	createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
	if err != nil {
		secret.Zero(privateKey)
		return nil, fmt.Errorf("%w: bad createdAt: %v", ErrCorrupt, err)
	}

	// NewFromBytes copies into mmap-backed memory and zeros privateKey.
	private, err := secret.NewFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("keystore: protecting private key: %w", err)
	}

	return &Keypair{
		Public:    publicKey,
		Private:   private,
		CreatedAt: createdAt,
	}, nil
}

// generate creates a fresh X25519 keypair from the system CSPRNG.
func generate(now time.Time) (*Keypair, error) {
	privateKey := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(privateKey); err != nil {
		return nil, fmt.Errorf("keystore: generating private key: %w", err)
	}

	publicKey, err := curve25519.X25519(privateKey, curve25519.Basepoint)
	if err != nil {
		secret.Zero(privateKey)
		return nil, fmt.Errorf("keystore: deriving public key: %w", err)
	}

	private, err := secret.NewFromBytes(privateKey)
	if err != nil {
		return nil, fmt.Errorf("keystore: protecting private key: %w", err)
	}

	return &Keypair{
		Public:    publicKey,
		Private:   private,
		CreatedAt: now,
	}, nil
}
