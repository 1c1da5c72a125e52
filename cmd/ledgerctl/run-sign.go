package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"tallyman/internal/ledger/integrity"
	"tallyman/internal/ledger/models"
)

// transferFromFlags reads the signable fields. The amount is canonicalized
// the same way the ledger stores it, so the printed message is the one the
// server verifies.
func transferFromFlags(c *cli.Context) (models.Draft, error) {
	amount, err := models.ParseAmount(c.String("amount"))
	if err != nil {
		return models.Draft{}, err
	}
	return models.Draft{
		Sender:    c.String("sender"),
		Recipient: c.String("recipient"),
		Amount:    amount,
		Timestamp: c.String("timestamp"),
	}, nil
}

func runSign(c *cli.Context) error {
	draft, err := transferFromFlags(c)
	if err != nil {
		return err
	}
	if draft.Timestamp == "" {
		draft.Timestamp = time.Now().UTC().Format(models.TimestampLayout)
	}

	keyFile := c.String("key")
	if keyFile == "" {
		keyFile = privateKeyPath(c.String("dir"), draft.Sender)
	}
	pemBytes, err := os.ReadFile(keyFile)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}
	key, err := integrity.DecodePrivateKey(pemBytes)
	if err != nil {
		return err
	}

	signature, err := integrity.Sign(key, integrity.CanonicalDraft(draft))
	if err != nil {
		return err
	}

	return printJSON(c.App.Writer, models.AppendTransactionRequest{
		Sender:    draft.Sender,
		Recipient: draft.Recipient,
		Amount:    draft.Amount,
		Timestamp: draft.Timestamp,
		Signature: signature,
	})
}
