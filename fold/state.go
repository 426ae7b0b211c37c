// Package fold builds the aggregation transactions run after the deadline:
// the commitment fold that totals every node's contribution, the token
// holder that escrows the reward supply, and the reward fold that pays each
// node its proportional share.
package fold

import (
	"context"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
)

// CommitAcc is the live commitment accumulator.
type CommitAcc struct {
	UTXO  ledger.UTXO
	Datum datum.CommitFoldDatum
}

// RewardAcc is the live reward accumulator.
type RewardAcc struct {
	UTXO  ledger.UTXO
	Datum datum.RewardFoldDatum
}

// Holder is the live token holder.
type Holder struct {
	UTXO  ledger.UTXO
	Datum datum.TokenHolderDatum
}

// marked returns the single output holding unit. missing is returned when
// there is none.
func marked(ctx context.Context, env *protocol.Env, unit ledger.Unit, missing error) (ledger.UTXO, error) {
	utxos, err := env.Provider.UtxosByUnit(ctx, unit)
	if err != nil {
		return ledger.UTXO{}, fmt.Errorf("query %s: %w", unit, err)
	}
	switch len(utxos) {
	case 0:
		return ledger.UTXO{}, missing
	case 1:
		return utxos[0], nil
	default:
		return ledger.UTXO{}, fmt.Errorf("%w: %d outputs hold %s", ErrDuplicateAccumulator, len(utxos), unit)
	}
}

// FetchCommit returns the commitment accumulator.
func FetchCommit(ctx context.Context, env *protocol.Env) (CommitAcc, error) {
	u, err := marked(ctx, env, env.Scripts.CommitFoldUnit(), ErrAccumulatorNotFound)
	if err != nil {
		return CommitAcc{}, err
	}
	d, err := datum.CommitFoldFromOutput(u.Output)
	if err != nil {
		return CommitAcc{}, fmt.Errorf("%w: commit fold %s: %w", protocol.ErrMissingDatum, u.OutRef, err)
	}
	return CommitAcc{UTXO: u, Datum: d}, nil
}

// FetchReward returns the reward accumulator.
func FetchReward(ctx context.Context, env *protocol.Env) (RewardAcc, error) {
	u, err := marked(ctx, env, env.Scripts.RewardFoldUnit(), ErrAccumulatorNotFound)
	if err != nil {
		return RewardAcc{}, err
	}
	d, err := datum.RewardFoldFromOutput(u.Output)
	if err != nil {
		return RewardAcc{}, fmt.Errorf("%w: reward fold %s: %w", protocol.ErrMissingDatum, u.OutRef, err)
	}
	return RewardAcc{UTXO: u, Datum: d}, nil
}

// FetchHolder returns the token holder.
func FetchHolder(ctx context.Context, env *protocol.Env) (Holder, error) {
	u, err := marked(ctx, env, env.Scripts.TokenHolderUnit(), ErrHolderNotFound)
	if err != nil {
		return Holder{}, err
	}
	d, err := datum.TokenHolderFromOutput(u.Output)
	if err != nil {
		return Holder{}, fmt.Errorf("%w: token holder %s: %w", protocol.ErrMissingDatum, u.OutRef, err)
	}
	return Holder{UTXO: u, Datum: d}, nil
}

// projectUnit returns the one unit of v that is neither lovelace nor marker.
func projectUnit(v ledger.Assets, marker ledger.Unit) (ledger.Unit, error) {
	var found []ledger.Unit
	for _, u := range v.Units() {
		if u != ledger.Lovelace && u != marker {
			found = append(found, u)
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("%w: %d candidate units", ErrUnknownProjectUnit, len(found))
	}
	return found[0], nil
}

// owner checks that c is the accumulator owner and returns its key hash.
func owner(c protocol.Caller, owner ledger.Address) (ledger.Hash28, error) {
	if !c.Address.Equal(owner) {
		return ledger.Hash28{}, fmt.Errorf("%w: %s", ErrNotOwner, c.Address)
	}
	return c.KeyHash()
}
