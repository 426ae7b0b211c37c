package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "manage the data directory configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "write a default configuration file",
				Action: configInit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "variant", Usage: "discovery or liquidity", Value: "discovery"},
					&cli.TimestampFlag{Name: "deadline", Usage: "sign-up deadline", Layout: time.RFC3339},
					&cli.StringFlag{Name: "penalty-address", Usage: "recipient of early-removal penalties"},
					&cli.StringFlag{Name: "treasury-address", Usage: "recipient of reward dust"},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
			},
			{
				Name:   "show",
				Usage:  "print the effective configuration",
				Action: configShow,
			},
		},
	}
}

func configInit(c *cli.Context) error {
	dataDir := c.String("datadir")
	path := config.ConfigPath(dataDir)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s exists; pass --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	if v := c.String("network"); v != "" {
		cfg.Network = v
	}
	cfg.RPCURL = c.String("rpc")
	cfg.Variant = c.String("variant")
	if t := c.Timestamp("deadline"); t != nil {
		cfg.Deadline = t.UTC().Format(time.RFC3339)
	}
	cfg.PenaltyAddress = c.String("penalty-address")
	cfg.TreasuryAddress = c.String("treasury-address")
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}

func configShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "datadir          %s\n", cfg.DataDir)
	fmt.Fprintf(w, "network          %s\n", cfg.Network)
	fmt.Fprintf(w, "rpc              %s\n", cfg.RPCURL)
	fmt.Fprintf(w, "scripts          %s\n", cfg.ManifestPath())
	fmt.Fprintf(w, "variant          %s\n", cfg.Variant)
	fmt.Fprintf(w, "deadline         %s\n", cfg.Deadline)
	fmt.Fprintf(w, "nodeminada       %d\n", cfg.NodeMinADA)
	fmt.Fprintf(w, "mincommitment    %d\n", cfg.MinCommitment)
	fmt.Fprintf(w, "foldingfee       %d\n", cfg.FoldingFee)
	fmt.Fprintf(w, "minutxo          %d\n", cfg.MinUTXO)
	fmt.Fprintf(w, "penaltywindow    %s\n", cfg.PenaltyWindow)
	fmt.Fprintf(w, "mintwindow       %s\n", cfg.MintWindow)
	fmt.Fprintf(w, "batchsize        %d\n", cfg.BatchSize)
	fmt.Fprintf(w, "penaltyaddress   %s\n", cfg.PenaltyAddress)
	fmt.Fprintf(w, "treasuryaddress  %s\n", cfg.TreasuryAddress)
	return nil
}
