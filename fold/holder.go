package fold

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// HolderInitRequest escrows Amount of ProjectUnit from the caller's wallet.
type HolderInitRequest struct {
	protocol.Caller
	ProjectUnit ledger.Unit
	Amount      int64
}

// HolderInit locks the reward supply at the token holder address with the
// holder marker.
func HolderInit(ctx context.Context, env *protocol.Env, req HolderInitRequest) (*tx.Tx, error) {
	const op = "holder init"
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%s: %w: %d", op, ErrInvalidAmount, req.Amount)
	}
	if _, ok := req.ProjectUnit.Policy(); !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownProjectUnit, req.ProjectUnit)
	}
	switch _, err := FetchHolder(ctx, env); {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyInitialized)
	case !errors.Is(err, ErrHolderNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	marker := env.Scripts.TokenHolderUnit()
	out, err := env.Params.Fees.PadMinLovelace(ledger.Output{
		Address: env.Scripts.Address(scripts.TokenHolderValidator),
		Assets:  ledger.NewAssets(0).With(req.ProjectUnit, req.Amount).With(marker, 1),
		Datum:   datum.TokenHolderDatum{TotalTokens: req.Amount}.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b := env.Use(tx.NewBuilder(), scripts.TokenHolderPolicy).
		Mint(env.Scripts.Hash(scripts.TokenHolderPolicy), ledger.Assets{marker: 1}, tx.Static(datum.Mint.Data())).
		PayOutput(out)

	return env.Complete(ctx, b, req.Caller, op)
}
