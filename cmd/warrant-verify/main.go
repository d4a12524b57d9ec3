// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/warrant-foundation/warrant/lib/audit"
	"github.com/warrant-foundation/warrant/lib/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	var dataPath string
	var showVersion bool

	flagSet := pflag.NewFlagSet("warrant-verify", pflag.ContinueOnError)
	flagSet.StringVar(&dataPath, "data", "", "optional path to the original plaintext; its SHA-256 is checked against the export's dataHash")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if showVersion {
		fmt.Printf("warrant-verify %s\n", version.Info())
		return 0
	}
	if flagSet.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: warrant-verify [--data original.bin] <export.json>")
		return 2
	}

	document, err := readInput(flagSet.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	export, err := audit.ParseExport(document)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	result := export.Verify()
	if !result.Valid {
		fmt.Fprintf(os.Stderr, "INVALID: chain broken at entry %d of %d\n", result.BrokenAt, len(export.Entries))
		return 1
	}

	if dataPath != "" {
		if err := checkDataHash(export, dataPath); err != nil {
			fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
			return 1
		}
	}

	fmt.Printf("valid: session %s, %d entries\n", export.SessionID, len(export.Entries))
	return 0
}

// readInput reads the export document from a path, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// checkDataHash recomputes the SHA-256 of the user's original data
// and compares it to the dataHash the session recorded. A match
// proves the session decrypted exactly the data the user holds.
func checkDataHash(export *audit.Export, dataPath string) error {
	if export.DataHash == "" {
		return fmt.Errorf("export carries no dataHash to compare against")
	}
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(data)
	if hexDigest := hex.EncodeToString(digest[:]); hexDigest != export.DataHash {
		return fmt.Errorf("dataHash mismatch: export %s, file %s", export.DataHash, hexDigest)
	}
	return nil
}
