// Package plutus implements the structured-value model used for datums and
// redeemers, together with its CBOR wire format.
package plutus

import (
	"bytes"
	"fmt"
	"math/big"
)

// Data is one structured value: a constructor application, an integer, a byte
// string, a list or an association map.
type Data interface {
	isData()
}

// Constr is a tagged constructor with positional fields.
type Constr struct {
	Index  uint64
	Fields []Data
}

// Int is an arbitrary precision integer.
type Int struct {
	v *big.Int
}

// Bytes is a byte string.
type Bytes []byte

// List is an ordered sequence of values.
type List []Data

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   Data
	Value Data
}

// Map is an association list. Entry order is preserved on the wire.
type Map []Pair

func (Constr) isData() {}
func (Int) isData()    {}
func (Bytes) isData()  {}
func (List) isData()   {}
func (Map) isData()    {}

// NewConstr builds a constructor value.
func NewConstr(index uint64, fields ...Data) Constr {
	if fields == nil {
		fields = []Data{}
	}
	return Constr{Index: index, Fields: fields}
}

// NewInt builds an integer value from an int64.
func NewInt(n int64) Int {
	return Int{v: big.NewInt(n)}
}

// NewBigInt builds an integer value from a big.Int. The argument is copied.
func NewBigInt(n *big.Int) Int {
	if n == nil {
		return Int{v: new(big.Int)}
	}
	return Int{v: new(big.Int).Set(n)}
}

// Big returns a copy of the integer.
func (i Int) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

// Int64 returns the integer as an int64 and whether it fit.
func (i Int) Int64() (int64, bool) {
	if i.v == nil {
		return 0, true
	}
	if !i.v.IsInt64() {
		return 0, false
	}
	return i.v.Int64(), true
}

// AsConstr asserts that d is a constructor with the given index and number of
// fields.
func AsConstr(d Data, index uint64, arity int) (Constr, error) {
	c, ok := d.(Constr)
	if !ok {
		return Constr{}, fmt.Errorf("%w: expected constructor %d, got %T", ErrUnexpectedShape, index, d)
	}
	if c.Index != index {
		return Constr{}, fmt.Errorf("%w: expected constructor %d, got %d", ErrUnexpectedShape, index, c.Index)
	}
	if arity >= 0 && len(c.Fields) != arity {
		return Constr{}, fmt.Errorf("%w: constructor %d has %d fields, want %d",
			ErrUnexpectedShape, index, len(c.Fields), arity)
	}
	return c, nil
}

// AsAnyConstr asserts that d is a constructor and returns it.
func AsAnyConstr(d Data) (Constr, error) {
	c, ok := d.(Constr)
	if !ok {
		return Constr{}, fmt.Errorf("%w: expected constructor, got %T", ErrUnexpectedShape, d)
	}
	return c, nil
}

// AsInt64 asserts that d is an integer that fits in an int64.
func AsInt64(d Data) (int64, error) {
	i, ok := d.(Int)
	if !ok {
		return 0, fmt.Errorf("%w: expected integer, got %T", ErrUnexpectedShape, d)
	}
	n, fits := i.Int64()
	if !fits {
		return 0, fmt.Errorf("%w: integer %s overflows int64", ErrUnexpectedShape, i.v)
	}
	return n, nil
}

// AsBytes asserts that d is a byte string.
func AsBytes(d Data) ([]byte, error) {
	b, ok := d.(Bytes)
	if !ok {
		return nil, fmt.Errorf("%w: expected bytes, got %T", ErrUnexpectedShape, d)
	}
	return []byte(b), nil
}

// AsList asserts that d is a list.
func AsList(d Data) (List, error) {
	l, ok := d.(List)
	if !ok {
		return nil, fmt.Errorf("%w: expected list, got %T", ErrUnexpectedShape, d)
	}
	return l, nil
}

// IntList builds a list of integers.
func IntList(ns []int) List {
	l := make(List, len(ns))
	for i, n := range ns {
		l[i] = NewInt(int64(n))
	}
	return l
}

// AsIntList asserts that d is a list of small integers.
func AsIntList(d Data) ([]int, error) {
	l, err := AsList(d)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(l))
	for i, item := range l {
		n, err := AsInt64(item)
		if err != nil {
			return nil, fmt.Errorf("list item %d: %w", i, err)
		}
		out[i] = int(n)
	}
	return out, nil
}

// Equal reports whether a and b encode to the same bytes.
func Equal(a, b Data) bool {
	ab, errA := Marshal(a)
	bb, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
