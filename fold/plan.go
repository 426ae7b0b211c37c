package fold

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/setnode"
)

// Plan returns the nodes still to fold after cur, in chain order, split
// into batches of at most size nodes.
func Plan(nodes []setnode.Node, cur datum.SetNode, size int) ([][]setnode.Node, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: batch size %d", ErrEmptyBatch, size)
	}
	sorted := append([]setnode.Node(nil), nodes...)
	setnode.SortByKey(sorted)
	chain, err := setnode.NewChain(sorted)
	if err != nil {
		return nil, err
	}

	var walk []setnode.Node
	for next := cur.Next; !next.IsAbsent(); {
		n, ok := chain.Get(next)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeMissing, next)
		}
		if len(walk) > chain.Len() {
			return nil, fmt.Errorf("%w: cycle at %s", setnode.ErrBrokenChain, next)
		}
		walk = append(walk, n)
		next = n.Datum.Next
	}

	var batches [][]setnode.Node
	for len(walk) > 0 {
		k := min(size, len(walk))
		batches = append(batches, walk[:k])
		walk = walk[k:]
	}
	return batches, nil
}

// Contiguous sorts nodes by key and checks that they are the run of the
// chain starting at cur.Next.
func Contiguous(nodes []setnode.Node, cur datum.SetNode) ([]setnode.Node, error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyBatch
	}
	sorted := append([]setnode.Node(nil), nodes...)
	setnode.SortByKey(sorted)
	if !sorted[0].Key().Equal(cur.Next) {
		return nil, fmt.Errorf("%w: run starts at %s, accumulator expects %s", ErrNotContiguous, sorted[0].Key(), cur.Next)
	}
	for i := 1; i < len(sorted); i++ {
		if !sorted[i-1].Datum.Next.Equal(sorted[i].Key()) {
			return nil, fmt.Errorf("%w: %s points at %s, not %s", ErrNotContiguous,
				sorted[i-1].Key(), sorted[i-1].Datum.Next, sorted[i].Key())
		}
	}
	return sorted, nil
}

// advance returns cur moved past the last node of a contiguous run.
func advance(cur datum.SetNode, run []setnode.Node) datum.SetNode {
	cur.Next = run[len(run)-1].Datum.Next
	return cur
}
