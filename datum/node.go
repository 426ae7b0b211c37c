package datum

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
)

// Variant selects the node datum layout.
type Variant int

const (
	// Discovery nodes carry key and next; the commitment is the locked value.
	Discovery Variant = iota
	// Liquidity nodes also record the commitment in the datum.
	Liquidity
)

// String returns the variant name used in configuration.
func (v Variant) String() string {
	if v == Liquidity {
		return "liquidity"
	}
	return "discovery"
}

// ParseVariant parses "discovery" or "liquidity".
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", "discovery":
		return Discovery, nil
	case "liquidity":
		return Liquidity, nil
	default:
		return Discovery, fmt.Errorf("%w: unknown node variant %q", ErrMalformed, s)
	}
}

// SetNode is one node of the sorted set.
type SetNode struct {
	Key        NodeKey
	Next       NodeKey
	Commitment int64 // liquidity variant only
	Variant    Variant
}

// IsHead reports whether the node is the origin node.
func (n SetNode) IsHead() bool { return n.Key.IsAbsent() }

// IsTail reports whether the node is the last node of the chain.
func (n SetNode) IsTail() bool { return n.Next.IsAbsent() }

// Data encodes Constr 0 [key, next] or Constr 0 [key, next, commitment].
func (n SetNode) Data() plutus.Data {
	fields := []plutus.Data{n.Key.Data(), n.Next.Data()}
	if n.Variant == Liquidity {
		fields = append(fields, plutus.NewInt(n.Commitment))
	}
	return plutus.NewConstr(0, fields...)
}

// Bytes returns the datum CBOR.
func (n SetNode) Bytes() []byte { return plutus.MustMarshal(n.Data()) }

func (n SetNode) String() string {
	if n.Variant == Liquidity {
		return fmt.Sprintf("{%s -> %s, %d}", n.Key, n.Next, n.Commitment)
	}
	return fmt.Sprintf("{%s -> %s}", n.Key, n.Next)
}

// DecodeSetNode decodes either node layout; the variant follows the arity.
func DecodeSetNode(d plutus.Data) (SetNode, error) {
	c, err := plutus.AsConstr(d, 0, -1)
	if err != nil {
		return SetNode{}, fmt.Errorf("%w: set node: %w", ErrMalformed, err)
	}
	if len(c.Fields) != 2 && len(c.Fields) != 3 {
		return SetNode{}, fmt.Errorf("%w: set node has %d fields", ErrMalformed, len(c.Fields))
	}
	key, err := DecodeKey(c.Fields[0])
	if err != nil {
		return SetNode{}, err
	}
	next, err := DecodeKey(c.Fields[1])
	if err != nil {
		return SetNode{}, err
	}
	n := SetNode{Key: key, Next: next}
	if len(c.Fields) == 3 {
		n.Variant = Liquidity
		if n.Commitment, err = plutus.AsInt64(c.Fields[2]); err != nil {
			return SetNode{}, fmt.Errorf("%w: commitment: %w", ErrMalformed, err)
		}
	}
	return n, nil
}

// NodeFromOutput decodes the inline datum of a node output.
func NodeFromOutput(o ledger.Output) (SetNode, error) {
	d, err := inline(o)
	if err != nil {
		return SetNode{}, err
	}
	return DecodeSetNode(d)
}

func inline(o ledger.Output) (plutus.Data, error) {
	if len(o.Datum) == 0 {
		return nil, ErrMissing
	}
	d, err := plutus.Unmarshal(o.Datum)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return d, nil
}
