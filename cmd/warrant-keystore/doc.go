// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

// warrant-keystore manages the agent keypair on disk: init generates
// (or confirms) the keypair, show prints the public half and creation
// time, delete removes it. Deletion is the only way a keypair ever
// disappears; the agent never regenerates over an existing file.
//
// With --encrypt, the keypair record is encrypted at rest with a
// passphrase read from the terminal (echo off) or --passphrase-file.
//
//	warrant-keystore --key ~/.warrant/agent-key.json init
//	warrant-keystore --key ~/.warrant/agent-key.json --encrypt init
//	warrant-keystore --key ~/.warrant/agent-key.json show
package main
