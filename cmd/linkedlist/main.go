// Command linkedlist operates a sorted-set sign-up and its commitment and
// reward folds against a ledger gateway.
//
// Usage:
//
//	linkedlist [global flags] <command> <subcommand> [flags]
//
// The data directory holds the configuration file, the encrypted operator
// seed, the script manifest and the reference-script registry.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/config"
)

const (
	envDataDir  = "LINKEDLIST_DATADIR"
	envPassword = "LINKEDLIST_PASSWORD"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Results go to out and logs to errOut.
func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "linkedlist",
		Usage:     "operate a sorted-set sign-up and its folds",
		Writer:    out,
		ErrWriter: errOut,
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			configCommand(),
			walletCommand(),
			deployCommand(),
			setCommand(),
			commitCommand(),
			holderCommand(),
			rewardCommand(),
			devnetCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "datadir",
			Usage:   "operator data directory",
			Value:   config.DefaultDataDir(),
			EnvVars: []string{envDataDir},
		},
		&cli.StringFlag{
			Name:  "network",
			Usage: "override the configured network (mainnet, preprod or preview)",
		},
		&cli.StringFlag{
			Name:  "rpc",
			Usage: "gateway JSON-RPC URL",
		},
		&cli.StringFlag{
			Name:  "rpc-user",
			Usage: "gateway basic-auth user",
		},
		&cli.StringFlag{
			Name:  "rpc-pass",
			Usage: "gateway basic-auth password",
		},
		&cli.StringFlag{
			Name:  "discover",
			Usage: "find the gateway through _linkedlist._tcp SRV records of this domain",
		},
		&cli.BoolFlag{
			Name:  "dnssec",
			Usage: "require DNSSEC-authenticated SRV answers",
		},
		&cli.StringFlag{
			Name:  "dns-upstream",
			Usage: "validating resolver used with --dnssec",
			Value: "8.8.8.8:53",
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "key file password",
			EnvVars: []string{envPassword},
		},
		&cli.UintFlag{
			Name:  "account",
			Usage: "wallet account of the operator key",
		},
		&cli.UintFlag{
			Name:  "index",
			Usage: "payment key index within the account",
		},
		&cli.Int64Flag{
			Name:  "now",
			Usage: "build as of this POSIX time in ms instead of the gateway clock",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "override the configured log level",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "build and print transactions without submitting them",
		},
	}
}
