// replica - deep clone CLI for JSON documents
//
// Usage:
//
//	replica clone [options] [file]        Clone a document and print it as JSON
//	replica verify [options] [file]       Clone and check the copy is equal and disjoint
//	replica fingerprint [options] [file]  Print the SHA-256 fingerprint of a document
//	replica canon [options] [file]        Print the canonical text of a document
//	replica version                       Print version info
//
// If no file is given, or the file is "-", reads from stdin.
//
// Defaults come from the environment (REPLICA_CLONE_MAX_DEPTH,
// REPLICA_CLONE_CYCLE_POLICY, REPLICA_CLONE_EXTENDED_JSON,
// REPLICA_CLONE_PRETTY); flags override them.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/rudderlabs/rudder-go-kit/config"
	"github.com/rudderlabs/rudder-go-kit/logger"
	obskit "github.com/rudderlabs/rudder-observability-kit/go/labels"
)

const libVersion = "0.1.0"

func main() {
	conf := config.New(config.WithEnvPrefix("REPLICA"))
	log := logger.NewLogger().Child("replica")

	if err := newApp(conf, log, os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.Errorn("command failed", obskit.Error(err))
		fmt.Fprintln(os.Stderr, "replica:", err)
		os.Exit(1)
	}
}

func newApp(conf *config.Config, log logger.Logger, in io.Reader, out io.Writer) *cli.App {
	r := &runner{conf: conf, log: log}

	return &cli.App{
		Name:        "replica",
		Usage:       "deep clone JSON documents",
		Version:     libVersion,
		HideVersion: true,
		Reader:      in,
		Writer:      out,
		ErrWriter:   out,
		Commands: []*cli.Command{
			{
				Name:      "clone",
				Usage:     "clone a document and print it as JSON",
				ArgsUsage: "[file]",
				Action:    r.Clone,
				Flags:     append(documentFlags(), guardFlags()...),
			},
			{
				Name:      "verify",
				Usage:     "clone a document and check the copy is equal and shares no mutable node",
				ArgsUsage: "[file]",
				Action:    r.Verify,
				Flags:     append(documentFlags(), guardFlags()...),
			},
			{
				Name:      "fingerprint",
				Usage:     "print the SHA-256 fingerprint of a document",
				ArgsUsage: "[file]",
				Action:    r.Fingerprint,
				Flags:     documentFlags(),
			},
			{
				Name:      "canon",
				Usage:     "print the canonical text of a document",
				ArgsUsage: "[file]",
				Action:    r.Canon,
				Flags:     documentFlags(),
			},
			{
				Name:  "version",
				Usage: "print version info",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintf(c.App.Writer, "replica %s\n", libVersion)
					return err
				},
			},
		},
	}
}

func documentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "path",
			Usage: "select a sub-document before processing (gjson syntax)",
		},
		&cli.BoolFlag{
			Name:  "extended",
			Usage: `read and write dates as {"$date": ...} markers`,
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "indent JSON output",
		},
	}
}

func guardFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "max-depth",
			Usage: "fail when containers nest deeper than this (0 = unlimited)",
		},
		&cli.StringFlag{
			Name:  "cycles",
			Usage: "cycle policy: recurse, error or share",
		},
	}
}
