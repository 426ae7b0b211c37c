package fold

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/setnode"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// Mode selects how a commitment fold step treats the nodes it folds.
type Mode int

const (
	// ModeReference reads nodes as reference inputs, leaving them live for
	// the reward fold.
	ModeReference Mode = iota

	// ModeConsume spends nodes, burns their markers and moves their lovelace
	// into the accumulator.
	ModeConsume
)

func (m Mode) String() string {
	if m == ModeConsume {
		return "consume"
	}
	return "reference"
}

// ParseMode parses "reference" or "consume".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "reference":
		return ModeReference, nil
	case "consume":
		return ModeConsume, nil
	default:
		return 0, fmt.Errorf("%w: fold mode %q", protocol.ErrInvalidParams, s)
	}
}

// InitRequest creates an accumulator owned by the caller.
type InitRequest struct {
	protocol.Caller
}

// CommitInit mints the commitment fold marker and starts the walk at the
// head. Only allowed after the deadline.
func CommitInit(ctx context.Context, env *protocol.Env, req InitRequest) (*tx.Tx, error) {
	const op = "commit init"
	ownerHash, err := req.KeyHash()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	iv, err := afterDeadline(ctx, env, req.Caller)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch _, err := FetchCommit(ctx, env); {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyInitialized)
	case !errors.Is(err, ErrAccumulatorNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	head, err := setnode.FetchHead(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := datum.CommitFoldDatum{CurrNode: head.Datum, Owner: req.Address}
	marker := env.Scripts.CommitFoldUnit()
	out, err := env.Params.Fees.PadMinLovelace(ledger.Output{
		Address: env.Scripts.Address(scripts.CommitFoldValidator),
		Assets:  ledger.NewAssets(0).With(marker, 1),
		Datum:   d.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b := env.Use(tx.NewBuilder(), scripts.CommitFoldPolicy).
		ReadFrom(head.UTXO).
		Mint(env.Scripts.Hash(scripts.CommitFoldPolicy), ledger.Assets{marker: 1}, tx.Static(datum.Mint.Data())).
		PayOutput(out).
		AddSigner(ownerHash)
	iv.Apply(b)

	return env.Complete(ctx, b, req.Caller, op)
}

// StepRequest advances a fold by one batch.
type StepRequest struct {
	protocol.Caller

	// Nodes is the run to fold. When empty the next BatchSize nodes of the
	// walk are queried.
	Nodes []setnode.Node

	// BatchSize overrides Params.BatchSize when Nodes is empty.
	BatchSize int

	// Mode applies to the commitment fold only.
	Mode Mode

	// ProjectUnit names the reward token. When empty it is read from the
	// reward accumulator's value.
	ProjectUnit ledger.Unit
}

// batch returns the run to fold after cur.
func (r StepRequest) batch(ctx context.Context, env *protocol.Env, cur datum.SetNode) ([]setnode.Node, error) {
	nodes := r.Nodes
	if len(nodes) == 0 {
		live, err := setnode.Fetch(ctx, env)
		if err != nil {
			return nil, err
		}
		size := r.BatchSize
		if size == 0 {
			size = env.Params.BatchSize
		}
		batches, err := Plan(live, cur, size)
		if err != nil {
			return nil, err
		}
		if len(batches) == 0 {
			return nil, ErrEmptyBatch
		}
		nodes = batches[0]
	}
	return Contiguous(nodes, cur)
}

// CommitStep folds the next run of nodes into the commitment accumulator.
func CommitStep(ctx context.Context, env *protocol.Env, req StepRequest) (*tx.Tx, error) {
	const op = "commit step"
	iv, err := afterDeadline(ctx, env, req.Caller)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	acc, err := FetchCommit(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if acc.Datum.Complete() {
		return nil, fmt.Errorf("%s: %w", op, ErrFoldComplete)
	}
	run, err := req.batch(ctx, env, acc.Datum.CurrNode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := acc.Datum
	next.CurrNode = advance(acc.Datum.CurrNode, run)
	value := acc.UTXO.Assets.Clone()
	for _, n := range run {
		next.Committed += env.Params.NodeCommitment(n.Datum, n.Lovelace())
	}
	env.Log.Debug().
		Str("mode", req.Mode.String()).
		Int("nodes", len(run)).
		Str("from", run[0].Key().String()).
		Int64("committed", next.Committed).
		Msg("commit step")

	utxos := make([]ledger.UTXO, len(run))
	for i, n := range run {
		utxos[i] = n.UTXO
	}
	position := tx.Index.RefInput
	b := env.Use(tx.NewBuilder(), scripts.CommitFoldValidator)

	switch req.Mode {
	case ModeConsume:
		position = tx.Index.Input
		burn := ledger.Assets{}
		for _, n := range run {
			burn[env.Scripts.NodeUnit(n.Key())] = -1
			value = value.Add(ledger.NewAssets(n.Lovelace()))
		}
		env.Use(b, scripts.NodeValidator, scripts.NodePolicy).
			CollectFrom(utxos, tx.Static(datum.CommitFoldAct.Data())).
			Mint(env.Scripts.Hash(scripts.NodePolicy), burn,
				tx.Static(datum.NodeCollect{Key: run[0].Key()}.Data()))
	default:
		b.ReadFrom(utxos...)
	}

	redeemer := func(ix tx.Index) (plutus.Data, error) {
		idxs := make([]int, len(run))
		for i, n := range run {
			if idxs[i] = position(ix, n.UTXO.OutRef); idxs[i] < 0 {
				return nil, fmt.Errorf("%w: node %s not in transaction", tx.ErrBuildFailure, n.UTXO.OutRef)
			}
		}
		return datum.FoldNodes{NodeIdxs: idxs}.Data(), nil
	}
	// The datum grows as committed does, and the wallet funds the difference.
	out, err := env.Params.Fees.PadMinLovelace(ledger.Output{Address: acc.UTXO.Address, Assets: value, Datum: next.Bytes()})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.CollectFrom([]ledger.UTXO{acc.UTXO}, redeemer).
		PayOutput(out)
	iv.Apply(b)

	return env.Complete(ctx, b, req.Caller, op)
}

// ReclaimRequest closes a complete accumulator. The caller must own it.
type ReclaimRequest struct {
	protocol.Caller
}

// CommitReclaim spends a complete commitment accumulator, burns its marker
// and returns its value to the owner.
func CommitReclaim(ctx context.Context, env *protocol.Env, req ReclaimRequest) (*tx.Tx, error) {
	const op = "commit reclaim"
	acc, err := FetchCommit(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !acc.Datum.Complete() {
		return nil, fmt.Errorf("%s: %w: at %s", op, ErrFoldIncomplete, acc.Datum.CurrNode.Next)
	}
	ownerHash, err := owner(req.Caller, acc.Datum.Owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b := env.Use(tx.NewBuilder(), scripts.CommitFoldValidator, scripts.CommitFoldPolicy).
		CollectFrom([]ledger.UTXO{acc.UTXO}, tx.Static(datum.Reclaim{}.Data())).
		Mint(env.Scripts.Hash(scripts.CommitFoldPolicy), ledger.Assets{env.Scripts.CommitFoldUnit(): -1},
			tx.Static(datum.Burn.Data())).
		AddSigner(ownerHash)

	return env.Complete(ctx, b, req.Caller, op)
}

func afterDeadline(ctx context.Context, env *protocol.Env, c protocol.Caller) (protocol.Interval, error) {
	now, err := env.Now(ctx, c)
	if err != nil {
		return protocol.Interval{}, err
	}
	return env.Params.AfterDeadline(now)
}
