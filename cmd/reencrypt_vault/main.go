// One-off: re-encrypt an exported vault record under a new password and a fresh salt.
// The phrase is re-derived and checked against the stored address first. Output: new record JSON.
// Usage: go run ./cmd/reencrypt_vault record.json > new.json
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlexZinkM/seedvault/internal/config"
	"github.com/AlexZinkM/seedvault/internal/crypto"
	"github.com/AlexZinkM/seedvault/internal/wallet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 2 {
		return fmt.Errorf("usage: reencrypt_vault <record.json>")
	}
	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		return err
	}
	record, err := crypto.ParseRecord(raw)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	vault, err := crypto.NewVault(cfg.VaultIterations, crypto.RandomSalt{})
	if err != nil {
		return err
	}

	old, err := config.PromptForPassword("Current password: ")
	if err != nil {
		return err
	}
	defer clear(old)

	w, err := wallet.ImportEncrypted(vault, record, old)
	if err != nil {
		return fmt.Errorf("decrypt failed: %w", err)
	}
	defer w.Lock()

	password, err := config.PromptForNewPassword()
	if err != nil {
		return err
	}
	defer clear(password)

	updated, err := w.ExportEncrypted(context.Background(), vault, password)
	if err != nil {
		return err
	}
	out, err := crypto.MarshalRecord(updated)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "re-encrypted %s\n", w.Address())
	_, err = os.Stdout.Write(out)
	return err
}
