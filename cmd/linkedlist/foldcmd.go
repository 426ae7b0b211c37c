package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/fold"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/setnode"
	"github.com/bitfsorg/linkedlist-go/tx"
)

var errRunDryRun = errors.New("a fold run waits for each step and cannot run with --dry-run")

func stepFlags(withMode bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "batch", Usage: "nodes per step; defaults to the configured batch size"},
		&cli.StringSliceFlag{Name: "node", Usage: "fold exactly these node outputs (hash#index, repeatable)"},
	}
	if withMode {
		flags = append(flags, &cli.StringFlag{Name: "mode", Usage: "reference or consume", Value: "reference"})
	}
	return flags
}

func commitCommand() *cli.Command {
	return &cli.Command{
		Name:  "commit",
		Usage: "commitment fold",
		Subcommands: []*cli.Command{
			{Name: "init", Usage: "create the commitment accumulator", Action: commitInit},
			{Name: "step", Usage: "fold one batch", Action: foldStep(fold.CommitStep), Flags: stepFlags(true)},
			{Name: "run", Usage: "fold batches until the walk completes", Action: foldRun(fold.CommitStep), Flags: stepFlags(true)},
			{Name: "reclaim", Usage: "burn a complete accumulator and recover its value", Action: commitReclaim},
			{Name: "status", Usage: "print the accumulator", Action: commitStatus},
		},
	}
}

func holderCommand() *cli.Command {
	return &cli.Command{
		Name:  "holder",
		Usage: "reward token escrow",
		Subcommands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "lock the reward supply at the token holder",
				Action: holderInit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "unit", Usage: "project token unit (policy hex ++ name hex)", Required: true},
					&cli.Int64Flag{Name: "amount", Usage: "tokens to lock", Required: true},
				},
			},
			{Name: "status", Usage: "print the token holder", Action: holderStatus},
		},
	}
}

func rewardCommand() *cli.Command {
	return &cli.Command{
		Name:  "reward",
		Usage: "reward fold",
		Subcommands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "consume the complete commitment accumulator and the token holder",
				Action: rewardInit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "unit", Usage: "project token unit; read from the holder when empty"},
				},
			},
			{Name: "step", Usage: "pay one batch", Action: foldStep(fold.RewardStep), Flags: stepFlags(false)},
			{Name: "run", Usage: "pay batches until the walk completes", Action: foldRun(fold.RewardStep), Flags: stepFlags(false)},
			{Name: "reclaim", Usage: "burn a complete accumulator and send the dust to the treasury", Action: rewardReclaim},
			{Name: "status", Usage: "print the accumulator", Action: rewardStatus},
		},
	}
}

// stepRequest reads the step flags.
func stepRequest(c *cli.Context, s *session) (fold.StepRequest, error) {
	req := fold.StepRequest{Caller: s.caller(), BatchSize: c.Int("batch")}
	if c.IsSet("mode") {
		mode, err := fold.ParseMode(c.String("mode"))
		if err != nil {
			return req, err
		}
		req.Mode = mode
	}
	raw := c.StringSlice("node")
	if len(raw) == 0 {
		return req, nil
	}
	refs := make([]ledger.OutRef, len(raw))
	for i, r := range raw {
		ref, err := ledger.ParseOutRef(r)
		if err != nil {
			return req, err
		}
		refs[i] = ref
	}
	utxos, err := s.env.Provider.UtxosByOutRef(c.Context, refs)
	if err != nil {
		return req, err
	}
	if len(utxos) != len(refs) {
		return req, fmt.Errorf("%w: %d of %d node outputs found", fold.ErrNodeMissing, len(utxos), len(refs))
	}
	req.Nodes, err = setnode.ParseNodes(utxos, s.env.Scripts.Hash(scripts.NodePolicy))
	return req, err
}

func foldStep(step fold.StepFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := open(c, true)
		if err != nil {
			return err
		}
		defer s.Close()

		req, err := stepRequest(c, s)
		if err != nil {
			return err
		}
		built, err := step(c.Context, s.env, req)
		if err != nil {
			return err
		}
		_, err = s.submit(c, built)
		return err
	}
}

func foldRun(step fold.StepFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.Bool("dry-run") {
			return errRunDryRun
		}
		if len(c.StringSlice("node")) > 0 {
			return errors.New("--node applies to a single step")
		}
		s, err := open(c, true)
		if err != nil {
			return err
		}
		defer s.Close()

		req, err := stepRequest(c, s)
		if err != nil {
			return err
		}
		size := req.BatchSize
		if size == 0 {
			size = s.env.Params.BatchSize
		}
		hashes, err := fold.Run(c.Context, s.env, step, req, size, s.signer(c))
		fmt.Fprintf(s.out, "%d steps\n", len(hashes))
		return err
	}
}

// single runs one operation that needs only the caller.
func single(c *cli.Context, build func(s *session) (*tx.Tx, error)) error {
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	built, err := build(s)
	if err != nil {
		return err
	}
	_, err = s.submit(c, built)
	return err
}

func commitInit(c *cli.Context) error {
	return single(c, func(s *session) (*tx.Tx, error) {
		return fold.CommitInit(c.Context, s.env, fold.InitRequest{Caller: s.caller()})
	})
}

func commitReclaim(c *cli.Context) error {
	return single(c, func(s *session) (*tx.Tx, error) {
		return fold.CommitReclaim(c.Context, s.env, fold.ReclaimRequest{Caller: s.caller()})
	})
}

func holderInit(c *cli.Context) error {
	unit, err := ledger.ParseUnit(c.String("unit"))
	if err != nil {
		return err
	}
	return single(c, func(s *session) (*tx.Tx, error) {
		return fold.HolderInit(c.Context, s.env, fold.HolderInitRequest{
			Caller:      s.caller(),
			ProjectUnit: unit,
			Amount:      c.Int64("amount"),
		})
	})
}

func rewardInit(c *cli.Context) error {
	var unit ledger.Unit
	if raw := c.String("unit"); raw != "" {
		var err error
		if unit, err = ledger.ParseUnit(raw); err != nil {
			return err
		}
	}
	return single(c, func(s *session) (*tx.Tx, error) {
		return fold.RewardInit(c.Context, s.env, fold.RewardInitRequest{Caller: s.caller(), ProjectUnit: unit})
	})
}

func rewardReclaim(c *cli.Context) error {
	return single(c, func(s *session) (*tx.Tx, error) {
		return fold.RewardReclaim(c.Context, s.env, fold.ReclaimRequest{Caller: s.caller()})
	})
}

func commitStatus(c *cli.Context) error {
	s, err := open(c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	acc, err := fold.FetchCommit(c.Context, s.env)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "accumulator  %s\n", acc.UTXO.OutRef)
	fmt.Fprintf(s.out, "position     %s\n", acc.Datum.CurrNode)
	fmt.Fprintf(s.out, "committed    %d\n", acc.Datum.Committed)
	fmt.Fprintf(s.out, "owner        %s\n", acc.Datum.Owner)
	fmt.Fprintf(s.out, "complete     %t\n", acc.Datum.Complete())
	return nil
}

func holderStatus(c *cli.Context) error {
	s, err := open(c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	h, err := fold.FetchHolder(c.Context, s.env)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "holder  %s\n", h.UTXO.OutRef)
	fmt.Fprintf(s.out, "supply  %d\n", h.Datum.TotalTokens)
	fmt.Fprintf(s.out, "value   %s\n", h.UTXO.Assets)
	return nil
}

func rewardStatus(c *cli.Context) error {
	s, err := open(c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	acc, err := fold.FetchReward(c.Context, s.env)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "accumulator  %s\n", acc.UTXO.OutRef)
	fmt.Fprintf(s.out, "position     %s\n", acc.Datum.CurrNode)
	fmt.Fprintf(s.out, "supply       %d\n", acc.Datum.TotalProjectTokens)
	fmt.Fprintf(s.out, "committed    %d\n", acc.Datum.TotalCommitted)
	fmt.Fprintf(s.out, "remaining    %s\n", acc.UTXO.Assets)
	fmt.Fprintf(s.out, "complete     %t\n", acc.Datum.Complete())
	return nil
}
