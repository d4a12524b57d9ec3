// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/warrant-foundation/warrant/lib/secret"
)

// sealRecord encrypts a keypair record with an age scrypt recipient
// derived from the passphrase. The passphrase is borrowed and NOT
// closed.
func sealRecord(plain []byte, passphrase *secret.Buffer) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("keystore: creating scrypt recipient: %w", err)
	}

	var sealed bytes.Buffer
	writer, err := age.Encrypt(&sealed, recipient)
	if err != nil {
		return nil, fmt.Errorf("keystore: creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plain); err != nil {
		return nil, fmt.Errorf("keystore: encrypting keypair record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("keystore: finalizing keypair encryption: %w", err)
	}

	return sealed.Bytes(), nil
}

// openRecord decrypts an age-encrypted keypair record. The caller owns
// zeroing the returned plaintext.
func openRecord(sealed []byte, passphrase *secret.Buffer) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase.String())
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(sealed), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting keypair record: %w", err)
	}

	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted keypair record: %w", err)
	}
	return plain, nil
}
