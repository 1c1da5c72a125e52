package main

import (
	"fmt"

	"github.com/urfave/cli"

	"tallyman/internal/ledger/integrity"
)

func runCanonical(c *cli.Context) error {
	draft, err := transferFromFlags(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\n", integrity.CanonicalDraft(draft))
	return err
}

func runFingerprint(c *cli.Context) error {
	draft, err := transferFromFlags(c)
	if err != nil {
		return err
	}
	canonical := integrity.CanonicalDraft(draft)
	return printJSON(c.App.Writer, struct {
		Message     string `json:"message"`
		Predecessor string `json:"predecessor"`
		Fingerprint string `json:"fingerprint"`
	}{
		Message:     string(canonical),
		Predecessor: c.String("prev"),
		Fingerprint: integrity.Fingerprint(canonical, c.String("prev")),
	})
}
