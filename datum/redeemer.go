package datum

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/plutus"
)

// Redeemer is any protocol redeemer.
type Redeemer interface {
	Data() plutus.Data
}

// NodeAction is the node minting policy redeemer:
// Init | DeInit | Insert | Remove | Collect.
type NodeAction interface {
	Redeemer
	nodeAction()
}

// NodeInit mints the origin marker.
type NodeInit struct{}

// NodeDeInit burns the origin marker of an empty set.
type NodeDeInit struct{}

// NodeInsert mints the marker of Key, splitting Covering.
type NodeInsert struct {
	Key      NodeKey
	Covering SetNode
}

// NodeRemove burns the marker of Key, merging it into Covering.
type NodeRemove struct {
	Key      NodeKey
	Covering SetNode
}

// NodeCollect burns the marker of a node consumed by the commitment fold.
type NodeCollect struct {
	Key NodeKey
}

func (NodeInit) nodeAction()    {}
func (NodeDeInit) nodeAction()  {}
func (NodeInsert) nodeAction()  {}
func (NodeRemove) nodeAction()  {}
func (NodeCollect) nodeAction() {}

func (NodeInit) Data() plutus.Data   { return plutus.NewConstr(0) }
func (NodeDeInit) Data() plutus.Data { return plutus.NewConstr(1) }

func (a NodeInsert) Data() plutus.Data {
	return plutus.NewConstr(2, plutus.Bytes(a.Key), a.Covering.Data())
}

func (a NodeRemove) Data() plutus.Data {
	return plutus.NewConstr(3, plutus.Bytes(a.Key), a.Covering.Data())
}

func (a NodeCollect) Data() plutus.Data {
	return plutus.NewConstr(4, plutus.Bytes(a.Key))
}

// DecodeNodeAction decodes a node policy redeemer.
func DecodeNodeAction(d plutus.Data) (NodeAction, error) {
	c, err := plutus.AsAnyConstr(d)
	if err != nil {
		return nil, fmt.Errorf("%w: node action: %w", ErrMalformed, err)
	}
	keyAndNode := func() (NodeKey, SetNode, error) {
		if len(c.Fields) != 2 {
			return nil, SetNode{}, fmt.Errorf("%w: node action %d has %d fields", ErrMalformed, c.Index, len(c.Fields))
		}
		k, err := plutus.AsBytes(c.Fields[0])
		if err != nil {
			return nil, SetNode{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		n, err := DecodeSetNode(c.Fields[1])
		return NodeKey(k), n, err
	}

	switch c.Index {
	case 0:
		return NodeInit{}, nil
	case 1:
		return NodeDeInit{}, nil
	case 2:
		k, n, err := keyAndNode()
		if err != nil {
			return nil, err
		}
		return NodeInsert{Key: k, Covering: n}, nil
	case 3:
		k, n, err := keyAndNode()
		if err != nil {
			return nil, err
		}
		return NodeRemove{Key: k, Covering: n}, nil
	case 4:
		if len(c.Fields) != 1 {
			return nil, fmt.Errorf("%w: collect has %d fields", ErrMalformed, len(c.Fields))
		}
		k, err := plutus.AsBytes(c.Fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return NodeCollect{Key: NodeKey(k)}, nil
	default:
		return nil, fmt.Errorf("%w: node action %d", ErrUnknownConstructor, c.Index)
	}
}

// NodeSpend is the node validator redeemer.
type NodeSpend uint64

const (
	LinkedListAct NodeSpend = iota
	ModifyCommitment
	RewardFoldAct
	CommitFoldAct
)

func (s NodeSpend) Data() plutus.Data { return plutus.NewConstr(uint64(s)) }

// DecodeNodeSpend decodes a node validator redeemer.
func DecodeNodeSpend(d plutus.Data) (NodeSpend, error) {
	c, err := plutus.AsAnyConstr(d)
	if err != nil {
		return 0, fmt.Errorf("%w: node spend: %w", ErrMalformed, err)
	}
	if c.Index > uint64(CommitFoldAct) || len(c.Fields) != 0 {
		return 0, fmt.Errorf("%w: node spend %d", ErrUnknownConstructor, c.Index)
	}
	return NodeSpend(c.Index), nil
}

// CommitFoldAction is the commitment fold validator redeemer:
// FoldNodes | Reclaim.
type CommitFoldAction interface {
	Redeemer
	commitFoldAction()
}

// FoldNodes advances the accumulator over the nodes at NodeIdxs.
type FoldNodes struct {
	NodeIdxs []int
}

// Reclaim consumes a complete accumulator.
type Reclaim struct{}

func (FoldNodes) commitFoldAction() {}
func (Reclaim) commitFoldAction()   {}

func (a FoldNodes) Data() plutus.Data { return plutus.NewConstr(0, plutus.IntList(a.NodeIdxs)) }
func (Reclaim) Data() plutus.Data     { return plutus.NewConstr(1) }

// DecodeCommitFoldAction decodes a commitment fold redeemer.
func DecodeCommitFoldAction(d plutus.Data) (CommitFoldAction, error) {
	c, err := plutus.AsAnyConstr(d)
	if err != nil {
		return nil, fmt.Errorf("%w: commit fold action: %w", ErrMalformed, err)
	}
	switch {
	case c.Index == 0 && len(c.Fields) == 1:
		idxs, err := plutus.AsIntList(c.Fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: node indexes: %w", ErrMalformed, err)
		}
		return FoldNodes{NodeIdxs: idxs}, nil
	case c.Index == 1 && len(c.Fields) == 0:
		return Reclaim{}, nil
	default:
		return nil, fmt.Errorf("%w: commit fold action %d", ErrUnknownConstructor, c.Index)
	}
}

// RewardFoldAction is the reward fold validator redeemer:
// RewardsFoldNodes | RewardsReclaim.
type RewardFoldAction interface {
	Redeemer
	rewardFoldAction()
}

// RewardsFoldNodes pays the nodes at input positions NodeIdxs into the
// outputs at NodeOutIdxs.
type RewardsFoldNodes struct {
	NodeIdxs    []int
	NodeOutIdxs []int
}

// RewardsReclaim consumes a complete reward accumulator.
type RewardsReclaim struct{}

func (RewardsFoldNodes) rewardFoldAction() {}
func (RewardsReclaim) rewardFoldAction()   {}

func (a RewardsFoldNodes) Data() plutus.Data {
	return plutus.NewConstr(0, plutus.IntList(a.NodeIdxs), plutus.IntList(a.NodeOutIdxs))
}

func (RewardsReclaim) Data() plutus.Data { return plutus.NewConstr(1) }

// DecodeRewardFoldAction decodes a reward fold redeemer.
func DecodeRewardFoldAction(d plutus.Data) (RewardFoldAction, error) {
	c, err := plutus.AsAnyConstr(d)
	if err != nil {
		return nil, fmt.Errorf("%w: reward fold action: %w", ErrMalformed, err)
	}
	switch {
	case c.Index == 0 && len(c.Fields) == 2:
		in, err := plutus.AsIntList(c.Fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: node indexes: %w", ErrMalformed, err)
		}
		out, err := plutus.AsIntList(c.Fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: node output indexes: %w", ErrMalformed, err)
		}
		return RewardsFoldNodes{NodeIdxs: in, NodeOutIdxs: out}, nil
	case c.Index == 1 && len(c.Fields) == 0:
		return RewardsReclaim{}, nil
	default:
		return nil, fmt.Errorf("%w: reward fold action %d", ErrUnknownConstructor, c.Index)
	}
}

// MintAct is the redeemer of the fold, reward fold and holder policies.
type MintAct uint64

const (
	Mint MintAct = iota
	Burn
)

func (m MintAct) Data() plutus.Data { return plutus.NewConstr(uint64(m)) }

// HolderSpend is the token holder validator redeemer.
type HolderSpend struct{}

func (HolderSpend) Data() plutus.Data { return plutus.NewConstr(0) }
