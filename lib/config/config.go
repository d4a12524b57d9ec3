// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for warrant
// components.
//
// Configuration is loaded from a single YAML file specified by:
//   - WARRANT_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file is
// the single source of truth; environment variables do not override
// values. The only expansion performed is ${HOME} and similar path
// variables for portability.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/warrant-foundation/warrant/lib/payload"
)

// Config is the master configuration for a warrant agent.
type Config struct {
	// Keystore configures the agent keypair file.
	Keystore KeystoreConfig `yaml:"keystore"`

	// Objects configures the ciphertext object store.
	Objects ObjectsConfig `yaml:"objects"`

	// Audit configures durable audit chain storage.
	Audit AuditConfig `yaml:"audit"`

	// Issuers configures the trusted issuer registry.
	Issuers IssuersConfig `yaml:"issuers"`

	// Session configures grant validation and payload handling.
	Session SessionConfig `yaml:"session"`
}

// KeystoreConfig configures the agent keypair file.
type KeystoreConfig struct {
	// Path is the keypair file location.
	// Default: ${HOME}/.warrant/agent-key.json
	Path string `yaml:"path"`

	// PassphraseFile, when set, points at a file whose first line is
	// the passphrase for at-rest encryption of the keypair record.
	// Empty means the record is stored as plain 0600 JSON.
	PassphraseFile string `yaml:"passphrase_file"`
}

// ObjectsConfig configures the ciphertext object store.
type ObjectsConfig struct {
	// Path is the store's root directory.
	// Default: ${HOME}/.warrant/objects
	Path string `yaml:"path"`
}

// AuditConfig configures durable audit chain storage.
type AuditConfig struct {
	// Database is the SQLite file for persisted chains.
	// Default: ${HOME}/.warrant/audit.db
	Database string `yaml:"database"`
}

// IssuersConfig configures the trusted issuer registry.
type IssuersConfig struct {
	// Registry is the JSONC file mapping issuer identities to
	// Ed25519 public keys.
	// Default: ${HOME}/.warrant/issuers.jsonc
	Registry string `yaml:"registry"`
}

// SessionConfig configures grant validation and payload handling.
type SessionConfig struct {
	// RequireSignature rejects unsigned grants. Default: true.
	// Disabling it is the explicit weaker-trust path; unsigned
	// acceptance is flagged in every audit entry it produces.
	RequireSignature bool `yaml:"require_signature"`

	// Compression is the algorithm applied to output plaintext
	// before encryption: none, lz4, or zstd. Default: zstd.
	Compression string `yaml:"compression"`
}

// Default returns the configuration defaults. Load merges the file on
// top, so absent keys keep these values — including the
// require_signature: true safety default.
func Default() *Config {
	return &Config{
		Keystore: KeystoreConfig{Path: "${HOME}/.warrant/agent-key.json"},
		Objects:  ObjectsConfig{Path: "${HOME}/.warrant/objects"},
		Audit:    AuditConfig{Database: "${HOME}/.warrant/audit.db"},
		Issuers:  IssuersConfig{Registry: "${HOME}/.warrant/issuers.jsonc"},
		Session: SessionConfig{
			RequireSignature: true,
			Compression:      "zstd",
		},
	}
}

// Load loads configuration from the WARRANT_CONFIG environment
// variable. There are no fallbacks: if WARRANT_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	path := os.Getenv("WARRANT_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("WARRANT_CONFIG environment variable not set; " +
			"set it to the path of your warrant.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults and validating the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for coherence.
func (c *Config) Validate() error {
	if c.Keystore.Path == "" {
		return fmt.Errorf("keystore.path must not be empty")
	}
	if c.Objects.Path == "" {
		return fmt.Errorf("objects.path must not be empty")
	}
	if c.Audit.Database == "" {
		return fmt.Errorf("audit.database must not be empty")
	}
	if _, err := payload.ParseCompressionTag(c.Session.Compression); err != nil {
		return fmt.Errorf("session.compression: %w", err)
	}
	return nil
}

// CompressionTag returns the parsed session compression algorithm.
// Call after Validate.
func (c *Config) CompressionTag() payload.CompressionTag {
	tag, err := payload.ParseCompressionTag(c.Session.Compression)
	if err != nil {
		// Validate runs before any caller gets here.
		panic(err)
	}
	return tag
}

// variablePattern matches ${NAME} references in path values.
var variablePattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)

// expandVariables expands ${HOME} and similar references in all path
// fields. Unset variables expand to the empty string, which Validate
// then rejects for required paths.
func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Keystore.Path,
		&c.Keystore.PassphraseFile,
		&c.Objects.Path,
		&c.Audit.Database,
		&c.Issuers.Registry,
	} {
		*field = expand(*field)
	}
}

func expand(value string) string {
	expanded := variablePattern.ReplaceAllStringFunc(value, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
	if expanded == "" {
		return ""
	}
	return filepath.Clean(expanded)
}
