package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %s\n", err)
		os.Exit(1)
	}
}

// transferFlags name the fields of the signable message.
func transferFlags(timestampRequired bool) []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:     "sender, s",
			Usage:    "*sending party `NAME`",
			Required: true,
		},
		cli.StringFlag{
			Name:     "recipient, r",
			Usage:    "*receiving party `NAME`",
			Required: true,
		},
		cli.StringFlag{
			Name:     "amount, a",
			Usage:    "*transfer `AMOUNT` as a JSON number",
			Required: true,
		},
		cli.StringFlag{
			Name:     "timestamp, t",
			Usage:    "transaction `TIMESTAMP`",
			Required: timestampRequired,
		},
	}
}

func newApp(w, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "ledgerctl"
	app.Usage = "key management and offline signing for the tallyman ledger"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Commands = []cli.Command{
		{
			Name:      "keygen",
			Usage:     "generate an RSA key pair for a party",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir, d",
					Value: "keys",
					Usage: " output `DIRECTORY`",
				},
				cli.StringFlag{
					Name:     "party, p",
					Usage:    "*party `NAME`",
					Required: true,
				},
				cli.IntFlag{
					Name:  "bits, b",
					Value: 2048,
					Usage: " key size in `BITS`",
				},
			},
			Action: runKeygen,
		},
		{
			Name:      "sign",
			Usage:     "sign a transfer and print the request body to POST",
			ArgsUsage: "\n   (* = required, + = select one)",
			Flags: append(transferFlags(false),
				cli.StringFlag{
					Name:  "key, k",
					Usage: "+private key `FILE`",
				},
				cli.StringFlag{
					Name:  "dir, d",
					Value: "keys",
					Usage: "+key `DIRECTORY`, the sender's generated key is used",
				},
			),
			Action: runSign,
		},
		{
			Name:      "verify",
			Usage:     "check a signature against a public key",
			ArgsUsage: "\n   (* = required)",
			Flags: append(transferFlags(true),
				cli.StringFlag{
					Name:     "pub",
					Usage:    "*public key `FILE`",
					Required: true,
				},
				cli.StringFlag{
					Name:     "signature",
					Usage:    "*base64 `SIGNATURE`",
					Required: true,
				},
			),
			Action: runVerify,
		},
		{
			Name:      "canonical",
			Usage:     "print the message a signature covers",
			ArgsUsage: "\n   (* = required)",
			Flags:     transferFlags(true),
			Action:    runCanonical,
		},
		{
			Name:      "fingerprint",
			Usage:     "compute the chained fingerprint of a transfer",
			ArgsUsage: "\n   (* = required)",
			Flags: append(transferFlags(true),
				cli.StringFlag{
					Name:  "prev",
					Value: "0",
					Usage: " predecessor `FINGERPRINT`, 0 for the first record",
				},
			),
			Action: runFingerprint,
		},
	}
	return app
}

func printJSON(w io.Writer, message any) error {
	b, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
