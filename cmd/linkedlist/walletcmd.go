package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/wallet"
)

func walletCommand() *cli.Command {
	return &cli.Command{
		Name:  "wallet",
		Usage: "manage the operator key",
		Subcommands: []*cli.Command{
			{
				Name:   "new",
				Usage:  "create the encrypted key file from a new or imported mnemonic",
				Action: walletNew,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "words", Usage: "mnemonic length, 12 or 24", Value: 24},
					&cli.StringFlag{Name: "mnemonic", Usage: "import this mnemonic instead of generating one"},
					&cli.StringFlag{Name: "passphrase", Usage: "optional BIP39 passphrase"},
				},
			},
			{
				Name:   "address",
				Usage:  "print the operator address",
				Action: walletAddress,
			},
			{
				Name:   "balance",
				Usage:  "list the operator's outputs",
				Action: walletBalance,
			},
		},
	}
}

func walletNew(c *cli.Context) error {
	if c.String("password") == "" {
		return errors.New("a key file password is required (--password or " + envPassword + ")")
	}
	mnemonic := c.String("mnemonic")
	generated := mnemonic == ""
	if generated {
		bits := wallet.Mnemonic24Words
		if c.Int("words") == 12 {
			bits = wallet.Mnemonic12Words
		}
		var err error
		if mnemonic, err = wallet.GenerateMnemonic(bits); err != nil {
			return err
		}
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, c.String("passphrase"))
	if err != nil {
		return err
	}
	path := wallet.KeyFilePath(c.String("datadir"))
	if err := wallet.CreateKeyFile(path, seed, c.String("password")); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	if generated {
		fmt.Fprintf(c.App.Writer, "mnemonic: %s\n", mnemonic)
	}
	return nil
}

func walletAddress(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	net, err := scripts.ParseNetwork(cfg.Network)
	if err != nil {
		return err
	}
	key, err := operatorKey(c, cfg.DataDir, net)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, key.Address)
	return nil
}

func walletBalance(c *cli.Context) error {
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	utxos, err := s.env.Provider.UtxosAt(c.Context, s.key.Address)
	if err != nil {
		return err
	}
	total := ledger.Assets{}
	for _, u := range utxos {
		total = total.Add(u.Assets)
		fmt.Fprintf(s.out, "%s  %d\n", u.OutRef, u.Assets.Lovelace())
	}
	fmt.Fprintf(s.out, "total\n")
	for _, u := range total.Units() {
		fmt.Fprintf(s.out, "  %s  %d\n", u, total.Amount(u))
	}
	return nil
}
