package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"tallyman/internal/ledger/integrity"
)

var errSignatureInvalid = errors.New("signature is not valid")

func runVerify(c *cli.Context) error {
	draft, err := transferFromFlags(c)
	if err != nil {
		return err
	}
	pub, err := os.ReadFile(c.String("pub"))
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}

	valid := integrity.VerifySignature(string(pub), integrity.CanonicalDraft(draft), c.String("signature"))
	if err := printJSON(c.App.Writer, struct {
		Message string `json:"message"`
		Valid   bool   `json:"valid"`
	}{
		Message: string(integrity.CanonicalDraft(draft)),
		Valid:   valid,
	}); err != nil {
		return err
	}
	if !valid {
		return errSignatureInvalid
	}
	return nil
}
