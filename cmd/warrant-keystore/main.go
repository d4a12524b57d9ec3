// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/warrant-foundation/warrant/lib/config"
	"github.com/warrant-foundation/warrant/lib/keystore"
	"github.com/warrant-foundation/warrant/lib/secret"
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
	var keyPath string
	var passphraseFile string
	var encrypt bool
	var showVersion bool

	flagSet := pflag.NewFlagSet("warrant-keystore", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to warrant.yaml (default: WARRANT_CONFIG)")
	flagSet.StringVar(&keyPath, "key", "", "keypair file path (overrides config)")
	flagSet.StringVar(&passphraseFile, "passphrase-file", "", "read the passphrase from this file instead of prompting")
	flagSet.BoolVar(&encrypt, "encrypt", false, "encrypt the keypair record at rest (prompts for a passphrase)")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("warrant-keystore %s\n", version.Info())
		return nil
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("usage: warrant-keystore [flags] init|show|delete")
	}

	path, err := resolveKeyPath(configPath, keyPath)
	if err != nil {
		return err
	}

	options := []keystore.Option{keystore.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))}
	if encrypt || passphraseFile != "" {
		passphrase, err := readPassphrase(passphraseFile)
		if err != nil {
			return err
		}
		defer passphrase.Close()
		options = append(options, keystore.WithPassphrase(passphrase))
	}
	store := keystore.New(path, options...)

	switch command := flagSet.Arg(0); command {
	case "init":
		return initKeypair(store, path)
	case "show":
		return showKeypair(store)
	case "delete":
		return deleteKeypair(store, path)
	default:
		return fmt.Errorf("unknown command %q (want init, show, or delete)", command)
	}
}

func resolveKeyPath(configPath, keyPath string) (string, error) {
	if keyPath != "" {
		return keyPath, nil
	}
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", err
	}
	return cfg.Keystore.Path, nil
}

// readPassphrase reads from the given file, or prompts on the
// terminal with echo disabled.
func readPassphrase(path string) (*secret.Buffer, error) {
	if path != "" {
		return secret.ReadFromPath(path)
	}

	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return nil, fmt.Errorf("no terminal available for passphrase prompt (use --passphrase-file)")
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	passphraseBytes, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}

	buffer, err := secret.NewFromBytes(passphraseBytes)
	if err != nil {
		secret.Zero(passphraseBytes)
		return nil, err
	}
	return buffer, nil
}

func initKeypair(store *keystore.Store, path string) error {
	keypair, created, err := store.GetOrCreate()
	if err != nil {
		return err
	}
	defer keypair.Close()

	if created {
		fmt.Printf("created keypair at %s\n", path)
	} else {
		fmt.Printf("keypair already exists at %s\n", path)
	}
	fmt.Printf("public key: %s\n", base64.StdEncoding.EncodeToString(keypair.Public))
	return nil
}

// showKeypair prints the public half only. The private key never
// leaves the keystore through this tool.
func showKeypair(store *keystore.Store) error {
	keypair, created, err := store.GetOrCreate()
	if err != nil {
		return err
	}
	defer keypair.Close()
	if created {
		// GetOrCreate generated one; show is read-only in intent,
		// so tell the operator what happened.
		fmt.Fprintln(os.Stderr, "note: no keypair existed; a new one was generated")
	}

	fmt.Printf("public key: %s\n", base64.StdEncoding.EncodeToString(keypair.Public))
	fmt.Printf("created at: %s\n", keypair.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

func deleteKeypair(store *keystore.Store, path string) error {
	removed, err := store.Delete()
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("no keypair at %s\n", path)
		return nil
	}
	fmt.Printf("deleted keypair at %s\n", path)
	return nil
}
