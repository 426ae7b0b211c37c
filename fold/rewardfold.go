package fold

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/reward"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/setnode"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// RewardInitRequest starts the reward fold. The caller must own the
// complete commitment accumulator.
type RewardInitRequest struct {
	protocol.Caller

	// ProjectUnit names the reward token. When empty it is read from the
	// holder's value.
	ProjectUnit ledger.Unit
}

// RewardInit consumes the token holder and the complete commitment
// accumulator, burning both markers, and mints the reward accumulator
// holding the whole reward supply.
func RewardInit(ctx context.Context, env *protocol.Env, req RewardInitRequest) (*tx.Tx, error) {
	const op = "reward init"
	iv, err := afterDeadline(ctx, env, req.Caller)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch _, err := FetchReward(ctx, env); {
	case err == nil:
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyInitialized)
	case !errors.Is(err, ErrAccumulatorNotFound):
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	commit, err := FetchCommit(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !commit.Datum.Complete() {
		return nil, fmt.Errorf("%s: %w: at %s", op, ErrFoldIncomplete, commit.Datum.CurrNode.Next)
	}
	ownerHash, err := owner(req.Caller, commit.Datum.Owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if commit.Datum.Committed <= 0 {
		return nil, fmt.Errorf("%s: %w", op, reward.ErrZeroTotalCommitted)
	}
	holder, err := FetchHolder(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	unit := req.ProjectUnit
	if unit == "" {
		if unit, err = projectUnit(holder.UTXO.Assets, env.Scripts.TokenHolderUnit()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	tokens := holder.UTXO.Assets.Amount(unit)
	if tokens != holder.Datum.TotalTokens {
		return nil, fmt.Errorf("%s: %w: holds %d %s, datum says %d", op, ErrHolderMismatch,
			tokens, unit, holder.Datum.TotalTokens)
	}
	head, err := setnode.FetchHead(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := datum.RewardFoldDatum{
		CurrNode:           head.Datum,
		TotalProjectTokens: tokens,
		TotalCommitted:     commit.Datum.Committed,
		Owner:              req.Address,
	}
	marker := env.Scripts.RewardFoldUnit()
	out, err := env.Params.Fees.PadMinLovelace(ledger.Output{
		Address: env.Scripts.Address(scripts.RewardFoldValidator),
		Assets:  ledger.NewAssets(0).With(unit, tokens).With(marker, 1),
		Datum:   d.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	env.Log.Debug().
		Str("unit", string(unit)).
		Int64("tokens", tokens).
		Int64("committed", d.TotalCommitted).
		Msg("reward init")

	b := env.Use(tx.NewBuilder(),
		scripts.CommitFoldValidator, scripts.CommitFoldPolicy,
		scripts.TokenHolderValidator, scripts.TokenHolderPolicy,
		scripts.RewardFoldPolicy).
		CollectFrom([]ledger.UTXO{commit.UTXO}, tx.Static(datum.Reclaim{}.Data())).
		CollectFrom([]ledger.UTXO{holder.UTXO}, tx.Static(datum.HolderSpend{}.Data())).
		ReadFrom(head.UTXO).
		Mint(env.Scripts.Hash(scripts.CommitFoldPolicy), ledger.Assets{env.Scripts.CommitFoldUnit(): -1},
			tx.Static(datum.Burn.Data())).
		Mint(env.Scripts.Hash(scripts.TokenHolderPolicy), ledger.Assets{env.Scripts.TokenHolderUnit(): -1},
			tx.Static(datum.Burn.Data())).
		Mint(env.Scripts.Hash(scripts.RewardFoldPolicy), ledger.Assets{marker: 1}, tx.Static(datum.Mint.Data())).
		PayOutput(out).
		AddSigner(ownerHash)
	iv.Apply(b)

	return env.Complete(ctx, b, req.Caller, op)
}

// RewardStep pays the next run of nodes their share of the reward supply.
// The accumulator is re-created as output 0; each node follows in chain
// order with its datum and marker unchanged, FoldingFee lovelace moved to
// the accumulator and its owed tokens added.
func RewardStep(ctx context.Context, env *protocol.Env, req StepRequest) (*tx.Tx, error) {
	const op = "reward step"
	p := env.Params
	iv, err := afterDeadline(ctx, env, req.Caller)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	acc, err := FetchReward(ctx, env)
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

	entries := make([]reward.Entry, len(run))
	for i, n := range run {
		c := p.NodeCommitment(n.Datum, n.Lovelace())
		if c < 0 {
			return nil, fmt.Errorf("%s: %w: node %s holds %d", op, reward.ErrNegativeCommitment, n.Key(), n.Lovelace())
		}
		entries[i] = reward.Entry{Key: n.Key(), Commitment: c}
	}
	plan, err := reward.Distribute(entries, acc.Datum.TotalProjectTokens, acc.Datum.TotalCommitted)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unit := req.ProjectUnit
	if unit == "" && plan.Distributed > 0 {
		if unit, err = projectUnit(acc.UTXO.Assets, env.Scripts.RewardFoldUnit()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	fees := p.FoldingFee * int64(len(run))
	value := acc.UTXO.Assets.Add(ledger.NewAssets(fees).With(unit, -plan.Distributed))
	if value.Amount(unit) < 0 {
		return nil, fmt.Errorf("%s: %w: accumulator holds %d, owes %d", op, reward.ErrOvercommitted,
			acc.UTXO.Assets.Amount(unit), plan.Distributed)
	}
	next := acc.Datum
	next.CurrNode = advance(acc.Datum.CurrNode, run)
	env.Log.Debug().
		Int("nodes", len(run)).
		Str("from", run[0].Key().String()).
		Int64("distributed", plan.Distributed).
		Msg("reward step")

	utxos := make([]ledger.UTXO, len(run))
	for i, n := range run {
		utxos[i] = n.UTXO
	}
	out, err := p.Fees.PadMinLovelace(ledger.Output{Address: acc.UTXO.Address, Assets: value, Datum: next.Bytes()})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b := env.Use(tx.NewBuilder(), scripts.RewardFoldValidator, scripts.NodeValidator).
		PayOutput(out)

	outIdxs := make([]int, len(run))
	for i, n := range run {
		paid := n.UTXO.Assets.Add(ledger.NewAssets(-p.FoldingFee))
		if owed := plan.Shares[i].Owed; owed > 0 {
			paid = paid.Add(ledger.Assets{unit: owed})
		}
		nodeOut, err := p.Fees.PadMinLovelace(ledger.Output{Address: n.UTXO.Address, Assets: paid, Datum: n.UTXO.Datum})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		outIdxs[i] = b.OutputCount()
		b.PayOutput(nodeOut)
	}

	redeemer := func(ix tx.Index) (plutus.Data, error) {
		idxs := make([]int, len(run))
		for i, n := range run {
			if idxs[i] = ix.Input(n.UTXO.OutRef); idxs[i] < 0 {
				return nil, fmt.Errorf("%w: node %s not in transaction", tx.ErrBuildFailure, n.UTXO.OutRef)
			}
		}
		return datum.RewardsFoldNodes{NodeIdxs: idxs, NodeOutIdxs: outIdxs}.Data(), nil
	}
	b.CollectFrom([]ledger.UTXO{acc.UTXO}, redeemer).
		CollectFrom(utxos, tx.Static(datum.RewardFoldAct.Data()))
	iv.Apply(b)

	return env.Complete(ctx, b, req.Caller, op)
}

// RewardReclaim spends a complete reward accumulator, burns its marker and
// sends the folding fees and token dust to the treasury.
func RewardReclaim(ctx context.Context, env *protocol.Env, req ReclaimRequest) (*tx.Tx, error) {
	const op = "reward reclaim"
	treasury := env.Params.TreasuryAddress
	if treasury.IsZero() {
		return nil, fmt.Errorf("%s: %w: treasury address", op, protocol.ErrInvalidParams)
	}
	acc, err := FetchReward(ctx, env)
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
	marker := env.Scripts.RewardFoldUnit()

	b := env.Use(tx.NewBuilder(), scripts.RewardFoldValidator, scripts.RewardFoldPolicy).
		CollectFrom([]ledger.UTXO{acc.UTXO}, tx.Static(datum.RewardsReclaim{}.Data())).
		Mint(env.Scripts.Hash(scripts.RewardFoldPolicy), ledger.Assets{marker: -1}, tx.Static(datum.Burn.Data())).
		PayTo(treasury, acc.UTXO.Assets.Sub(ledger.Assets{marker: 1})).
		AddSigner(ownerHash)

	return env.Complete(ctx, b, req.Caller, op)
}
