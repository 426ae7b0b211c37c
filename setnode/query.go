package setnode

import (
	"context"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/scripts"
)

// Fetch queries the node address and returns the live nodes in ledger
// order. Nodes of the wrong variant are rejected.
func Fetch(ctx context.Context, env *protocol.Env) ([]Node, error) {
	utxos, err := env.Provider.UtxosAt(ctx, env.Scripts.Address(scripts.NodeValidator))
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	nodes, err := ParseNodes(utxos, env.Scripts.Hash(scripts.NodePolicy))
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Datum.Variant != env.Params.Variant {
			return nil, fmt.Errorf("%w: node %s is %s", ErrVariantMismatch, n.UTXO.OutRef, n.Datum.Variant)
		}
	}
	env.Log.Debug().Int("nodes", len(nodes)).Msg("fetched set")
	return nodes, nil
}

// FetchChain fetches the live nodes and indexes them.
func FetchChain(ctx context.Context, env *protocol.Env) (*Chain, error) {
	nodes, err := Fetch(ctx, env)
	if err != nil {
		return nil, err
	}
	return NewChain(nodes)
}

// FetchHead returns the origin node, located by its marker.
func FetchHead(ctx context.Context, env *protocol.Env) (Node, error) {
	utxos, err := env.Provider.UtxosByUnit(ctx, env.Scripts.OriginUnit())
	if err != nil {
		return Node{}, fmt.Errorf("query head: %w", err)
	}
	nodes, err := ParseNodes(utxos, env.Scripts.Hash(scripts.NodePolicy))
	if err != nil {
		return Node{}, err
	}
	switch len(nodes) {
	case 0:
		return Node{}, ErrHeadNotFound
	case 1:
		return nodes[0], nil
	default:
		return Node{}, fmt.Errorf("%w: %d origin markers", ErrDuplicateKey, len(nodes))
	}
}
