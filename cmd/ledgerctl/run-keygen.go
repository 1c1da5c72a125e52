package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli"

	"tallyman/internal/ledger/integrity"
)

func privateKeyPath(dir, party string) string {
	return filepath.Join(dir, party+"_private_key.pem")
}

func publicKeyPath(dir, party string) string {
	return filepath.Join(dir, party+"_public_key.pem")
}

func runKeygen(c *cli.Context) error {
	dir := c.String("dir")
	party := c.String("party")
	if party == "" || filepath.Base(party) != party {
		return fmt.Errorf("invalid party name %q", party)
	}

	key, err := integrity.GenerateKey(c.Int("bits"))
	if err != nil {
		return err
	}
	private, err := integrity.EncodePrivateKey(key)
	if err != nil {
		return err
	}
	public, err := integrity.EncodePublicKey(&key.PublicKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	privateFile := privateKeyPath(dir, party)
	if err := os.WriteFile(privateFile, private, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	publicFile := publicKeyPath(dir, party)
	if err := os.WriteFile(publicFile, public, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	return printJSON(c.App.Writer, struct {
		Party      string `json:"party"`
		PrivateKey string `json:"private_key_file"`
		PublicKey  string `json:"public_key_file"`
	}{
		Party:      party,
		PrivateKey: privateFile,
		PublicKey:  publicFile,
	})
}
