// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/warrant-foundation/warrant/lib/audit"
	"github.com/warrant-foundation/warrant/lib/config"
	"github.com/warrant-foundation/warrant/lib/issuer"
	"github.com/warrant-foundation/warrant/lib/keystore"
	"github.com/warrant-foundation/warrant/lib/objectstore"
	"github.com/warrant-foundation/warrant/lib/secret"
	"github.com/warrant-foundation/warrant/lib/session"
	"github.com/warrant-foundation/warrant/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var grantPath string
	var dataPath string
	var exportPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("warrant-agent", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to warrant.yaml (default: WARRANT_CONFIG)")
	flagSet.StringVar(&grantPath, "grant", "", "path to the capability grant JSON file")
	flagSet.StringVar(&dataPath, "data-path", "", "data path the grant is exercised against")
	flagSet.StringVar(&exportPath, "export", "-", "where to write the audit export JSON (- for stdout)")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("warrant-agent %s\n", version.Info())
		return nil
	}
	if grantPath == "" || dataPath == "" {
		return fmt.Errorf("--grant and --data-path are required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	options, err := keystoreOptions(cfg, logger)
	if err != nil {
		return err
	}
	store := keystore.New(cfg.Keystore.Path, options...)
	agent, created, err := store.GetOrCreate()
	if err != nil {
		return fmt.Errorf("loading agent keypair: %w", err)
	}
	defer agent.Close()
	if created {
		logger.Info("generated new agent keypair", "path", cfg.Keystore.Path)
	}

	issuers, err := issuer.ReadFile(cfg.Issuers.Registry)
	if err != nil {
		return err
	}
	objects, err := objectstore.NewFS(cfg.Objects.Path, logger)
	if err != nil {
		return err
	}
	auditStore, err := audit.OpenStore(cfg.Audit.Database, logger)
	if err != nil {
		return err
	}
	defer auditStore.Close()

	wireBytes, err := os.ReadFile(grantPath)
	if err != nil {
		return fmt.Errorf("reading grant: %w", err)
	}

	s, err := session.New(session.Config{
		Agent:            agent,
		Objects:          objects,
		Issuers:          issuers,
		RequireSignature: cfg.Session.RequireSignature,
		Compression:      cfg.CompressionTag(),
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	// Run the pipeline through decrypt. The inference step is an
	// external collaborator; this binary records the hand-off
	// boundaries around a placeholder.
	pipelineErr := runPipeline(ctx, s, wireBytes, dataPath)

	// The chain and its export are the product even when the request
	// was rejected: rejections are evidence too.
	if err := s.Persist(ctx, auditStore); err != nil {
		return fmt.Errorf("persisting audit chain: %w", err)
	}
	if err := writeExport(s, exportPath); err != nil {
		return err
	}
	return pipelineErr
}

func runPipeline(ctx context.Context, s *session.Session, wireBytes []byte, dataPath string) error {
	if _, err := s.Receive(wireBytes); err != nil {
		return err
	}
	if _, err := s.Validate(); err != nil {
		return err
	}
	if err := s.UnwrapKey(); err != nil {
		return err
	}
	if err := s.Fetch(ctx, dataPath); err != nil {
		return err
	}
	plaintext, err := s.Decrypt()
	if err != nil {
		return err
	}
	defer secret.Zero(plaintext)

	start := time.Now()
	if err := s.RecordInferenceStarted(map[string]string{"bytes": fmt.Sprint(len(plaintext))}); err != nil {
		return err
	}
	return s.RecordInferenceCompleted(nil, time.Since(start))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func keystoreOptions(cfg *config.Config, logger *slog.Logger) ([]keystore.Option, error) {
	options := []keystore.Option{keystore.WithLogger(logger)}
	if cfg.Keystore.PassphraseFile != "" {
		passphrase, err := secret.ReadFromPath(cfg.Keystore.PassphraseFile)
		if err != nil {
			return nil, fmt.Errorf("reading keystore passphrase: %w", err)
		}
		options = append(options, keystore.WithPassphrase(passphrase))
	}
	return options, nil
}

func writeExport(s *session.Session, path string) error {
	data, err := s.Export().Marshal()
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
