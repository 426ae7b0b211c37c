package setnode

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

// InitRequest starts a new set by spending Seed.
type InitRequest struct {
	protocol.Caller
	Seed ledger.OutRef
}

// Init spends the seed, mints the origin marker and creates the head node.
func Init(ctx context.Context, env *protocol.Env, req InitRequest) (*tx.Tx, error) {
	found, err := env.Provider.UtxosByOutRef(ctx, []ledger.OutRef{req.Seed})
	if err != nil {
		return nil, fmt.Errorf("init: query seed: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("init: %w: %s", ErrSeedNotFound, req.Seed)
	}
	switch _, err := FetchHead(ctx, env); {
	case err == nil:
		return nil, fmt.Errorf("init: %w", ErrAlreadyInitialized)
	case !errors.Is(err, ErrHeadNotFound):
		return nil, fmt.Errorf("init: %w", err)
	}

	head := datum.SetNode{Variant: env.Params.Variant}
	origin := env.Scripts.OriginUnit()

	b := env.Use(tx.NewBuilder(), scripts.NodePolicy).
		CollectPubKey(found[0]).
		Mint(env.Scripts.Hash(scripts.NodePolicy), ledger.Assets{origin: 1}, tx.Static(datum.NodeInit{}.Data())).
		PayToContract(env.Scripts.Address(scripts.NodeValidator), head.Bytes(),
			ledger.NewAssets(env.Params.NodeMinADA).With(origin, 1))

	return env.Complete(ctx, b, req.Caller, "init")
}

// DeInitRequest removes the head of an empty set.
type DeInitRequest struct {
	protocol.Caller
}

// DeInit spends the head of an empty set and burns the origin marker. The
// head's value goes to the caller.
func DeInit(ctx context.Context, env *protocol.Env, req DeInitRequest) (*tx.Tx, error) {
	head, err := FetchHead(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("deinit: %w", err)
	}
	if !head.Datum.IsTail() {
		return nil, fmt.Errorf("deinit: %w: head points at %s", ErrSetNotEmpty, head.Datum.Next)
	}

	b := env.Use(tx.NewBuilder(), scripts.NodeValidator, scripts.NodePolicy).
		CollectFrom([]ledger.UTXO{head.UTXO}, tx.Static(datum.LinkedListAct.Data())).
		Mint(env.Scripts.Hash(scripts.NodePolicy), ledger.Assets{env.Scripts.OriginUnit(): -1},
			tx.Static(datum.NodeDeInit{}.Data()))

	return env.Complete(ctx, b, req.Caller, "deinit")
}

// InsertRequest adds the caller's key with a commitment in lovelace above
// the node floor.
type InsertRequest struct {
	protocol.Caller
	Commitment int64
}

// Insert splits the node covering the caller's key and mints the key's
// marker. Only allowed before the deadline.
func Insert(ctx context.Context, env *protocol.Env, req InsertRequest) (*tx.Tx, error) {
	p := env.Params
	userHash, err := req.KeyHash()
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	key := datum.KeyFromHash(userHash)
	if req.Commitment < p.MinCommitment {
		return nil, fmt.Errorf("insert: %w: %d < %d", ErrBelowMinCommitment, req.Commitment, p.MinCommitment)
	}
	now, err := env.Now(ctx, req.Caller)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	iv, err := p.BeforeDeadline(now)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	chain, err := FetchChain(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	if _, ok := chain.Owner(key); ok {
		return nil, fmt.Errorf("insert: %w: %s", ErrKeyExists, key)
	}
	covering, ok := chain.Covering(key)
	if !ok {
		return nil, fmt.Errorf("insert: %w: %s", ErrNoCoveringNode, key)
	}
	env.Log.Debug().Str("key", key.String()).Str("covering", covering.Datum.String()).Msg("insert")

	split := covering.Datum
	split.Next = key
	node := datum.SetNode{Key: key, Next: covering.Datum.Next, Variant: p.Variant}
	if p.Variant == datum.Liquidity {
		node.Commitment = req.Commitment
	}
	unit := env.Scripts.NodeUnit(key)
	addr := env.Scripts.Address(scripts.NodeValidator)

	b := env.Use(tx.NewBuilder(), scripts.NodeValidator, scripts.NodePolicy).
		CollectFrom([]ledger.UTXO{covering.UTXO}, tx.Static(datum.LinkedListAct.Data())).
		Mint(env.Scripts.Hash(scripts.NodePolicy), ledger.Assets{unit: 1},
			tx.Static(datum.NodeInsert{Key: key, Covering: covering.Datum}.Data())).
		PayToContract(addr, split.Bytes(), covering.UTXO.Assets).
		PayToContract(addr, node.Bytes(), ledger.NewAssets(p.NodeMinADA+req.Commitment).With(unit, 1)).
		AddSigner(userHash)
	iv.Apply(b)

	return env.Complete(ctx, b, req.Caller, "insert")
}

// RemoveRequest removes the caller's node.
type RemoveRequest struct {
	protocol.Caller
}

// Remove merges the caller's node into its predecessor and burns its
// marker. The node's value is refunded to the caller, less the penalty when
// removing inside the penalty window.
func Remove(ctx context.Context, env *protocol.Env, req RemoveRequest) (*tx.Tx, error) {
	p := env.Params
	userHash, err := req.KeyHash()
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}
	key := datum.KeyFromHash(userHash)
	now, err := env.Now(ctx, req.Caller)
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}
	if p.Deadline.IsZero() {
		return nil, fmt.Errorf("remove: %w: no deadline configured", protocol.ErrInvalidParams)
	}
	phase := PhaseAt(now, p)
	iv, err := phase.Interval(now, p)
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}

	chain, err := FetchChain(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}
	target, ok := chain.Owner(key)
	if !ok {
		return nil, fmt.Errorf("remove: %w: %s", ErrNodeNotFound, key)
	}
	pred, ok := chain.Predecessor(key)
	if !ok {
		return nil, fmt.Errorf("remove: %w: %s", ErrNoPredecessor, key)
	}

	merged := pred.Datum
	merged.Next = target.Datum.Next
	unit := env.Scripts.NodeUnit(key)

	b := env.Use(tx.NewBuilder(), scripts.NodeValidator, scripts.NodePolicy).
		CollectFrom([]ledger.UTXO{pred.UTXO, target.UTXO}, tx.Static(datum.LinkedListAct.Data())).
		Mint(env.Scripts.Hash(scripts.NodePolicy), ledger.Assets{unit: -1},
			tx.Static(datum.NodeRemove{Key: key, Covering: merged}.Data())).
		PayToContract(env.Scripts.Address(scripts.NodeValidator), merged.Bytes(), pred.UTXO.Assets).
		AddSigner(userHash)
	iv.Apply(b)

	if phase == InPenalty {
		if p.PenaltyAddress.IsZero() {
			return nil, fmt.Errorf("remove: %w: no penalty address configured", protocol.ErrInvalidParams)
		}
		penalty := Penalty(p.NodeCommitment(target.Datum, target.Lovelace()), p)
		b.PayTo(p.PenaltyAddress, ledger.NewAssets(penalty))
	}
	env.Log.Debug().Str("key", key.String()).Stringer("phase", phase).Msg("remove")

	return env.Complete(ctx, b, req.Caller, "remove")
}

// ModifyRequest changes the caller's commitment by Delta lovelace.
type ModifyRequest struct {
	protocol.Caller
	Delta int64
}

// ModifyCommitment re-emits the caller's node with Delta more (or less)
// lovelace, keeping its place in the chain. Only allowed before the
// deadline; the commitment may not drop below the minimum.
func ModifyCommitment(ctx context.Context, env *protocol.Env, req ModifyRequest) (*tx.Tx, error) {
	p := env.Params
	if req.Delta == 0 {
		return nil, fmt.Errorf("modify: %w: zero delta", protocol.ErrInvalidParams)
	}
	userHash, err := req.KeyHash()
	if err != nil {
		return nil, fmt.Errorf("modify: %w", err)
	}
	key := datum.KeyFromHash(userHash)
	now, err := env.Now(ctx, req.Caller)
	if err != nil {
		return nil, fmt.Errorf("modify: %w", err)
	}
	iv, err := p.BeforeDeadline(now)
	if err != nil {
		return nil, fmt.Errorf("modify: %w", err)
	}

	chain, err := FetchChain(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("modify: %w", err)
	}
	target, ok := chain.Owner(key)
	if !ok {
		return nil, fmt.Errorf("modify: %w: %s", ErrNodeNotFound, key)
	}
	commitment := p.NodeCommitment(target.Datum, target.Lovelace()) + req.Delta
	if commitment < p.MinCommitment {
		return nil, fmt.Errorf("modify: %w: %d < %d", ErrBelowMinCommitment, commitment, p.MinCommitment)
	}

	updated := target.Datum
	if p.Variant == datum.Liquidity {
		updated.Commitment = commitment
	}
	value := target.UTXO.Assets.Add(ledger.NewAssets(req.Delta))

	b := env.Use(tx.NewBuilder(), scripts.NodeValidator).
		CollectFrom([]ledger.UTXO{target.UTXO}, tx.Static(datum.ModifyCommitment.Data())).
		PayToContract(env.Scripts.Address(scripts.NodeValidator), updated.Bytes(), value).
		AddSigner(userHash)
	iv.Apply(b)

	return env.Complete(ctx, b, req.Caller, "modify")
}
