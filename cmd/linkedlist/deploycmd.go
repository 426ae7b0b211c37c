package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/deploy"
	"github.com/bitfsorg/linkedlist-go/scripts"
)

func deployCommand() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "publish protocol scripts as reference outputs",
		Subcommands: []*cli.Command{
			{
				Name:   "all",
				Usage:  "publish every script not already live and record it in the registry",
				Action: deployAll,
			},
			{
				Name:   "role",
				Usage:  "publish one script",
				Action: deployRole,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role", Usage: "script role, e.g. node_validator", Required: true},
				},
			},
			{
				Name:   "refs",
				Usage:  "list the registry",
				Action: deployRefs,
			},
		},
	}
}

func deployAll(c *cli.Context) error {
	if c.Bool("dry-run") {
		return fmt.Errorf("deploy all submits sequentially and cannot run with --dry-run")
	}
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	published, err := deploy.DeployAll(c.Context, s.env, s.caller(), s.refs, s.signer(c))
	for _, rr := range published {
		fmt.Fprintf(s.out, "%-24s %s\n", rr.Role, rr.Ref.OutRef)
	}
	return err
}

func deployRole(c *cli.Context) error {
	role, err := scripts.ParseRole(c.String("role"))
	if err != nil {
		return err
	}
	s, err := open(c, true)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := deploy.Deploy(c.Context, s.env, deploy.Request{
		Caller: s.caller(),
		Name:   string(role),
		Script: s.env.Scripts.Script(role),
	})
	if err != nil {
		return err
	}
	if _, err := s.submit(c, res.Tx); err != nil {
		return err
	}
	if s.dryRun {
		return nil
	}
	if err := s.refs.Put(role, scripts.Ref{OutRef: res.OutRef, ScriptHash: s.env.Scripts.Hash(role)}); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%-24s %s (marker %s)\n", role, res.OutRef, res.Unit)
	return nil
}

func deployRefs(c *cli.Context) error {
	s, err := open(c, false)
	if err != nil {
		return err
	}
	defer s.Close()

	refs, err := s.refs.List()
	if err != nil {
		return err
	}
	for _, rr := range refs {
		fmt.Fprintf(s.out, "%-24s %s %s\n", rr.Role, rr.Ref.OutRef, rr.Ref.ScriptHash)
	}
	return nil
}
