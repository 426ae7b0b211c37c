package fold

import (
	"context"
	"errors"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// StepFunc builds one fold step; CommitStep and RewardStep qualify.
type StepFunc func(ctx context.Context, env *protocol.Env, req StepRequest) (*tx.Tx, error)

// Signer signs and submits a built step.
type Signer func(ctx context.Context, built *tx.Tx) (ledger.TxHash, error)

// KeySigner returns a Signer that signs with keys and submits through the
// environment's provider.
func KeySigner(env *protocol.Env, keys ...*ec.PrivateKey) Signer {
	return func(ctx context.Context, built *tx.Tx) (ledger.TxHash, error) {
		return built.Submit(ctx, env.Provider, keys...)
	}
}

// Run repeats step in batches of size until the walk reaches the tail,
// re-reading the accumulator and the chain before every step. It returns
// the hashes of the submitted steps, including those submitted before a
// failure.
func Run(ctx context.Context, env *protocol.Env, step StepFunc, req StepRequest, size int, sign Signer) ([]ledger.TxHash, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: batch size %d", ErrEmptyBatch, size)
	}
	req.Nodes = nil
	req.BatchSize = size

	var hashes []ledger.TxHash
	for {
		if err := ctx.Err(); err != nil {
			return hashes, err
		}
		built, err := step(ctx, env, req)
		if errors.Is(err, ErrFoldComplete) {
			return hashes, nil
		}
		if err != nil {
			return hashes, err
		}
		h, err := sign(ctx, built)
		if err != nil {
			return hashes, fmt.Errorf("submit step %d: %w", len(hashes)+1, err)
		}
		env.Log.Info().Str("tx", h.String()).Int("step", len(hashes)+1).Msg("fold step submitted")
		hashes = append(hashes, h)
	}
}
