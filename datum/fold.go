package datum

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
)

// CommitFoldDatum is the commitment accumulator state.
type CommitFoldDatum struct {
	CurrNode  SetNode
	Committed int64
	Owner     ledger.Address
}

// Complete reports whether the walk has reached the tail.
func (d CommitFoldDatum) Complete() bool { return d.CurrNode.Next.IsAbsent() }

// Data encodes Constr 0 [currNode, committed, owner].
func (d CommitFoldDatum) Data() plutus.Data {
	return plutus.NewConstr(0, d.CurrNode.Data(), plutus.NewInt(d.Committed), AddressData(d.Owner))
}

// Bytes returns the datum CBOR.
func (d CommitFoldDatum) Bytes() []byte { return plutus.MustMarshal(d.Data()) }

// DecodeCommitFold decodes a commitment accumulator datum.
func DecodeCommitFold(d plutus.Data, network ledger.Network) (CommitFoldDatum, error) {
	c, err := plutus.AsConstr(d, 0, 3)
	if err != nil {
		return CommitFoldDatum{}, fmt.Errorf("%w: commit fold: %w", ErrMalformed, err)
	}
	node, err := DecodeSetNode(c.Fields[0])
	if err != nil {
		return CommitFoldDatum{}, err
	}
	committed, err := plutus.AsInt64(c.Fields[1])
	if err != nil {
		return CommitFoldDatum{}, fmt.Errorf("%w: committed: %w", ErrMalformed, err)
	}
	owner, err := DecodeAddress(c.Fields[2], network)
	if err != nil {
		return CommitFoldDatum{}, err
	}
	return CommitFoldDatum{CurrNode: node, Committed: committed, Owner: owner}, nil
}

// CommitFoldFromOutput decodes the inline datum of an accumulator output.
func CommitFoldFromOutput(o ledger.Output) (CommitFoldDatum, error) {
	d, err := inline(o)
	if err != nil {
		return CommitFoldDatum{}, err
	}
	return DecodeCommitFold(d, o.Address.Network)
}

// RewardFoldDatum is the reward accumulator state. The totals are fixed at
// init.
type RewardFoldDatum struct {
	CurrNode           SetNode
	TotalProjectTokens int64
	TotalCommitted     int64
	Owner              ledger.Address
}

// Complete reports whether the walk has reached the tail.
func (d RewardFoldDatum) Complete() bool { return d.CurrNode.Next.IsAbsent() }

// Data encodes Constr 0 [currNode, totalProjectTokens, totalCommitted, owner].
func (d RewardFoldDatum) Data() plutus.Data {
	return plutus.NewConstr(0,
		d.CurrNode.Data(),
		plutus.NewInt(d.TotalProjectTokens),
		plutus.NewInt(d.TotalCommitted),
		AddressData(d.Owner),
	)
}

// Bytes returns the datum CBOR.
func (d RewardFoldDatum) Bytes() []byte { return plutus.MustMarshal(d.Data()) }

// DecodeRewardFold decodes a reward accumulator datum.
func DecodeRewardFold(d plutus.Data, network ledger.Network) (RewardFoldDatum, error) {
	c, err := plutus.AsConstr(d, 0, 4)
	if err != nil {
		return RewardFoldDatum{}, fmt.Errorf("%w: reward fold: %w", ErrMalformed, err)
	}
	node, err := DecodeSetNode(c.Fields[0])
	if err != nil {
		return RewardFoldDatum{}, err
	}
	tokens, err := plutus.AsInt64(c.Fields[1])
	if err != nil {
		return RewardFoldDatum{}, fmt.Errorf("%w: total project tokens: %w", ErrMalformed, err)
	}
	committed, err := plutus.AsInt64(c.Fields[2])
	if err != nil {
		return RewardFoldDatum{}, fmt.Errorf("%w: total committed: %w", ErrMalformed, err)
	}
	owner, err := DecodeAddress(c.Fields[3], network)
	if err != nil {
		return RewardFoldDatum{}, err
	}
	return RewardFoldDatum{CurrNode: node, TotalProjectTokens: tokens, TotalCommitted: committed, Owner: owner}, nil
}

// RewardFoldFromOutput decodes the inline datum of a reward accumulator output.
func RewardFoldFromOutput(o ledger.Output) (RewardFoldDatum, error) {
	d, err := inline(o)
	if err != nil {
		return RewardFoldDatum{}, err
	}
	return DecodeRewardFold(d, o.Address.Network)
}

// TokenHolderDatum records the escrowed reward supply.
type TokenHolderDatum struct {
	TotalTokens int64
}

// Data encodes Constr 0 [totalTokens].
func (d TokenHolderDatum) Data() plutus.Data {
	return plutus.NewConstr(0, plutus.NewInt(d.TotalTokens))
}

// Bytes returns the datum CBOR.
func (d TokenHolderDatum) Bytes() []byte { return plutus.MustMarshal(d.Data()) }

// TokenHolderFromOutput decodes the inline datum of a token holder output.
func TokenHolderFromOutput(o ledger.Output) (TokenHolderDatum, error) {
	d, err := inline(o)
	if err != nil {
		return TokenHolderDatum{}, err
	}
	c, err := plutus.AsConstr(d, 0, 1)
	if err != nil {
		return TokenHolderDatum{}, fmt.Errorf("%w: token holder: %w", ErrMalformed, err)
	}
	n, err := plutus.AsInt64(c.Fields[0])
	if err != nil {
		return TokenHolderDatum{}, fmt.Errorf("%w: total tokens: %w", ErrMalformed, err)
	}
	return TokenHolderDatum{TotalTokens: n}, nil
}
