// Package setnode builds the transactions that maintain the sorted on-chain
// set: init, insert, remove, modify commitment and de-init.
package setnode

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
)

// Node is a live node output and its decoded datum.
type Node struct {
	UTXO  ledger.UTXO
	Datum datum.SetNode
}

// Key returns the node's key; the head's key is absent.
func (n Node) Key() datum.NodeKey { return n.Datum.Key }

// Lovelace returns the lovelace the node holds.
func (n Node) Lovelace() int64 { return n.UTXO.Assets.Lovelace() }

// ParseNodes decodes the outputs carrying a marker of policy. Outputs
// without one are not nodes and are skipped. A marker that does not name
// the datum key is an invariant violation.
func ParseNodes(utxos []ledger.UTXO, policy ledger.Hash28) ([]Node, error) {
	var nodes []Node
	for _, u := range utxos {
		units := u.Assets.OfPolicy(policy)
		if len(units) == 0 {
			continue
		}
		d, err := datum.NodeFromOutput(u.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: node %s: %w", protocol.ErrMissingDatum, u.OutRef, err)
		}
		if len(units) != 1 || u.Assets.Amount(units[0]) != 1 {
			return nil, fmt.Errorf("%w: node %s holds %d markers", ErrMarkerMismatch, u.OutRef, len(units))
		}
		_, name, err := units[0].Split()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarkerMismatch, err)
		}
		if k, ok := datum.KeyFromTokenName(name); !ok || !k.Equal(d.Key) {
			return nil, fmt.Errorf("%w: node %s key %s", ErrMarkerMismatch, u.OutRef, d.Key)
		}
		nodes = append(nodes, Node{UTXO: u, Datum: d})
	}
	return nodes, nil
}

// SortByKey orders nodes by key, head first.
func SortByKey(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return bytes.Compare(nodes[i].Key(), nodes[j].Key()) < 0
	})
}

// Chain is an arena of live nodes indexed by key. Lookups scan in the order
// the nodes were supplied and return the first match.
type Chain struct {
	nodes []Node
	byKey map[string]int
}

// NewChain indexes nodes. Duplicate keys are an invariant violation.
func NewChain(nodes []Node) (*Chain, error) {
	c := &Chain{nodes: nodes, byKey: make(map[string]int, len(nodes))}
	for i, n := range nodes {
		k := string(n.Key())
		if _, dup := c.byKey[k]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, n.Key())
		}
		c.byKey[k] = i
	}
	return c, nil
}

// Len returns the number of live nodes, head included.
func (c *Chain) Len() int { return len(c.nodes) }

// Nodes returns the nodes in scan order.
func (c *Chain) Nodes() []Node { return c.nodes }

// Get returns the node with key k; the absent key gives the head.
func (c *Chain) Get(k datum.NodeKey) (Node, bool) {
	i, ok := c.byKey[string(k)]
	if !ok {
		return Node{}, false
	}
	return c.nodes[i], true
}

// Head returns the origin node.
func (c *Chain) Head() (Node, bool) { return c.Get(nil) }

// Covering returns the first node bracketing k.
func (c *Chain) Covering(k datum.NodeKey) (Node, bool) {
	for _, n := range c.nodes {
		if datum.Covers(n.Datum, k) {
			return n, true
		}
	}
	return Node{}, false
}

// Owner returns the first node whose key is k.
func (c *Chain) Owner(k datum.NodeKey) (Node, bool) {
	if k.IsAbsent() {
		return Node{}, false
	}
	for _, n := range c.nodes {
		if n.Key().Equal(k) {
			return n, true
		}
	}
	return Node{}, false
}

// Predecessor returns the first node whose next is k.
func (c *Chain) Predecessor(k datum.NodeKey) (Node, bool) {
	if k.IsAbsent() {
		return Node{}, false
	}
	for _, n := range c.nodes {
		if n.Datum.Next.Equal(k) {
			return n, true
		}
	}
	return Node{}, false
}

// Walk follows next pointers from the head and returns the nodes in chain
// order. It fails unless every node is visited exactly once, keys strictly
// increase and the walk ends at a tail.
func (c *Chain) Walk() ([]Node, error) {
	cur, ok := c.Head()
	if !ok {
		return nil, ErrHeadNotFound
	}
	out := make([]Node, 0, len(c.nodes))
	seen := make(map[string]bool, len(c.nodes))
	for {
		if seen[string(cur.Key())] {
			return nil, fmt.Errorf("%w: cycle at %s", ErrBrokenChain, cur.Key())
		}
		seen[string(cur.Key())] = true
		out = append(out, cur)
		if cur.Datum.IsTail() {
			break
		}
		next, ok := c.Get(cur.Datum.Next)
		if !ok {
			return nil, fmt.Errorf("%w: %s points at missing %s", ErrBrokenChain, cur.Key(), cur.Datum.Next)
		}
		if !cur.Key().IsAbsent() && !datum.Less(cur.Key(), next.Key()) {
			return nil, fmt.Errorf("%w: %s is not below %s", ErrBrokenChain, cur.Key(), next.Key())
		}
		cur = next
	}
	if len(out) != len(c.nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes reachable", ErrBrokenChain, len(out), len(c.nodes))
	}
	return out, nil
}
