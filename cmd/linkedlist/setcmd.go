package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/setnode"
)

func setCommand() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "sign-up set operations",
		Subcommands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "create the head node by spending a seed output",
				Action: setInit,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "seed", Usage: "seed output as hash#index; defaults to the operator's first output"},
				},
			},
			{
				Name:   "deinit",
				Usage:  "remove the head of an empty set",
				Action: setDeinit,
			},
			{
				Name:   "insert",
				Usage:  "sign up with a commitment",
				Action: setInsert,
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "amount", Usage: "commitment in lovelace", Required: true},
				},
			},
			{
				Name:   "remove",
				Usage:  "withdraw from the set",
				Action: setRemove,
			},
			{
				Name:   "modify",
				Usage:  "change the operator's commitment",
				Action: setModify,
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "delta", Usage: "lovelace to add (negative to withdraw)", Required: true},
				},
			},
			{
				Name:   "list",
				Usage:  "print the set in chain order",
				Action: setList,
			},
			{
				Name:   "phase",
				Usage:  "print the removal phase and the penalty it implies",
				Action: setPhase,
			},
		},
	}
}

func setInit(c *cli.Context) error {
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	var seed ledger.OutRef
	if raw := c.String("seed"); raw != "" {
		if seed, err = ledger.ParseOutRef(raw); err != nil {
			return err
		}
	} else {
		utxos, err := s.env.Provider.UtxosAt(c.Context, s.key.Address)
		if err != nil {
			return err
		}
		if len(utxos) == 0 {
			return fmt.Errorf("no outputs at %s to use as seed", s.key.Address)
		}
		seed = utxos[0].OutRef
	}

	built, err := setnode.Init(c.Context, s.env, setnode.InitRequest{Caller: s.caller(), Seed: seed})
	if err != nil {
		return err
	}
	_, err = s.submit(c, built)
	return err
}

func setDeinit(c *cli.Context) error {
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	built, err := setnode.DeInit(c.Context, s.env, setnode.DeInitRequest{Caller: s.caller()})
	if err != nil {
		return err
	}
	_, err = s.submit(c, built)
	return err
}

func setInsert(c *cli.Context) error {
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	built, err := setnode.Insert(c.Context, s.env, setnode.InsertRequest{Caller: s.caller(), Commitment: c.Int64("amount")})
	if err != nil {
		return err
	}
	_, err = s.submit(c, built)
	return err
}

func setRemove(c *cli.Context) error {
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	built, err := setnode.Remove(c.Context, s.env, setnode.RemoveRequest{Caller: s.caller()})
	if err != nil {
		return err
	}
	_, err = s.submit(c, built)
	return err
}

func setModify(c *cli.Context) error {
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	built, err := setnode.ModifyCommitment(c.Context, s.env, setnode.ModifyRequest{Caller: s.caller(), Delta: c.Int64("delta")})
	if err != nil {
		return err
	}
	_, err = s.submit(c, built)
	return err
}

func setList(c *cli.Context) error {
	s, err := open(c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	chain, err := setnode.FetchChain(c.Context, s.env)
	if err != nil {
		return err
	}
	nodes, err := chain.Walk()
	if err != nil {
		return err
	}
	var total int64
	for _, n := range nodes {
		commitment := s.env.Params.NodeCommitment(n.Datum, n.Lovelace())
		if !n.Key().IsAbsent() {
			total += commitment
		}
		fmt.Fprintf(s.out, "%s  %s  %d\n", n.UTXO.OutRef, n.Datum, commitment)
	}
	fmt.Fprintf(s.out, "%d nodes, %d committed\n", len(nodes)-1, total)
	return nil
}

func setPhase(c *cli.Context) error {
	s, err := open(c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	now := s.now
	if now == 0 {
		t, err := s.env.Provider.Now(c.Context)
		if err != nil {
			return err
		}
		now = ledger.Millis(t)
	}
	p := s.env.Params
	phase := setnode.PhaseAt(now, p)
	fmt.Fprintf(s.out, "phase     %s\n", phase)
	fmt.Fprintf(s.out, "penalty   from %s\n", time.UnixMilli(p.PenaltyStartMillis()).UTC().Format(time.RFC3339))
	fmt.Fprintf(s.out, "deadline  %s\n", time.UnixMilli(p.DeadlineMillis()).UTC().Format(time.RFC3339))
	if phase == setnode.InPenalty {
		fmt.Fprintf(s.out, "minimum penalty %d\n", setnode.Penalty(0, p))
	}
	return nil
}
