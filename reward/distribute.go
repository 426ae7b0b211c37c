// Package reward computes each node's share of the project token supply in
// proportion to its committed value.
package reward

import (
	"fmt"
	"math/big"

	"github.com/bitfsorg/linkedlist-go/datum"
)

// Owed returns floor(commitment * totalTokens / totalCommitted). The product
// is computed without overflow.
func Owed(commitment, totalTokens, totalCommitted int64) (int64, error) {
	switch {
	case totalCommitted <= 0:
		return 0, ErrZeroTotalCommitted
	case commitment < 0:
		return 0, fmt.Errorf("%w: %d", ErrNegativeCommitment, commitment)
	case commitment > totalCommitted:
		return 0, fmt.Errorf("%w: %d > %d", ErrOvercommitted, commitment, totalCommitted)
	case totalTokens < 0:
		return 0, ErrNegativeSupply
	}
	n := new(big.Int).Mul(big.NewInt(commitment), big.NewInt(totalTokens))
	n.Quo(n, big.NewInt(totalCommitted))
	// n <= totalTokens, so it fits.
	return n.Int64(), nil
}

// Entry is one node's commitment.
type Entry struct {
	Key        datum.NodeKey
	Commitment int64
}

// Share is one node's payout.
type Share struct {
	Key        datum.NodeKey
	Commitment int64
	Owed       int64
}

// Plan is a distribution over a run of nodes.
type Plan struct {
	Shares      []Share
	Committed   int64 // sum of commitments
	Distributed int64 // sum of owed
}

// Dust returns the floor-division remainder of the plan: what an exact
// proportional split would have paid minus what is paid. For a plan over
// every node it is totalTokens - Distributed, and it never exceeds one
// token per node.
func (p Plan) Dust(totalTokens, totalCommitted int64) (int64, error) {
	exact, err := Owed(p.Committed, totalTokens, totalCommitted)
	if err != nil {
		return 0, err
	}
	if p.Committed == totalCommitted {
		exact = totalTokens
	}
	return exact - p.Distributed, nil
}

// Distribute computes the payout of each entry. Unlike an even split, no
// entry receives the remainder; it stays with the reward accumulator.
func Distribute(entries []Entry, totalTokens, totalCommitted int64) (Plan, error) {
	plan := Plan{Shares: make([]Share, len(entries))}
	for i, e := range entries {
		owed, err := Owed(e.Commitment, totalTokens, totalCommitted)
		if err != nil {
			return Plan{}, fmt.Errorf("node %s: %w", e.Key, err)
		}
		plan.Shares[i] = Share{Key: e.Key, Commitment: e.Commitment, Owed: owed}
		plan.Committed += e.Commitment
		plan.Distributed += owed
	}
	if plan.Committed > totalCommitted {
		return Plan{}, fmt.Errorf("%w: %d > %d", ErrOvercommitted, plan.Committed, totalCommitted)
	}
	return plan, nil
}
