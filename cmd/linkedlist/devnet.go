package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/logging"
	"github.com/bitfsorg/linkedlist-go/network"
)

func devnetCommand() *cli.Command {
	return &cli.Command{
		Name:   "devnet",
		Usage:  "serve an in-memory ledger over the gateway JSON-RPC interface",
		Action: devnet,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "listen address", Value: "127.0.0.1:8090"},
			&cli.StringSliceFlag{Name: "fund", Usage: "genesis output as address=lovelace (repeatable)"},
			&cli.TimestampFlag{Name: "start", Usage: "initial ledger time; defaults to the wall clock", Layout: time.RFC3339},
			&cli.StringFlag{Name: "slots", Usage: "slot configuration", Value: "preview"},
		},
	}
}

// genesis parses address=lovelace.
func genesis(raw string) (ledger.Address, int64, error) {
	addr, amount, ok := strings.Cut(raw, "=")
	if !ok {
		return ledger.Address{}, 0, fmt.Errorf("fund %q: want address=lovelace", raw)
	}
	a, err := ledger.ParseAddress(strings.TrimSpace(addr))
	if err != nil {
		return ledger.Address{}, 0, fmt.Errorf("fund %q: %w", raw, err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
	if err != nil || n <= 0 {
		return ledger.Address{}, 0, fmt.Errorf("fund %q: invalid amount", raw)
	}
	return a, n, nil
}

func devnet(c *cli.Context) error {
	slots, ok := ledger.SlotConfigs[c.String("slots")]
	if !ok {
		return fmt.Errorf("unknown slot configuration %q", c.String("slots"))
	}
	log := logging.NewConsole("devnet", c.String("log-level"), c.App.ErrWriter)

	start := time.Now()
	if t := c.Timestamp("start"); t != nil {
		start = *t
	}
	emu := ledger.NewEmulator(slots, start)
	for _, raw := range c.StringSlice("fund") {
		addr, amount, err := genesis(raw)
		if err != nil {
			return err
		}
		u := emu.Fund(addr, ledger.NewAssets(amount))
		log.Info().Str("address", addr.String()).Int64("lovelace", amount).Str("ref", u.OutRef.String()).Msg("funded")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The ledger clock follows the wall clock from start.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				emu.Advance(now.Sub(last))
				last = now
			}
		}
	}()

	srv := &http.Server{
		Addr:              c.String("listen"),
		Handler:           network.NewGateway(emu, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("listen", srv.Addr).Msg("devnet gateway up")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
