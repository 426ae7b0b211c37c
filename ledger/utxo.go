package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// OutRef points at one transaction output.
type OutRef struct {
	TxHash TxHash
	Index  uint32
}

// String returns "txhash#index".
func (o OutRef) String() string {
	return fmt.Sprintf("%s#%d", o.TxHash, o.Index)
}

// ParseOutRef parses "txhash#index".
func ParseOutRef(s string) (OutRef, error) {
	hashPart, idxPart, ok := strings.Cut(strings.TrimSpace(s), "#")
	if !ok {
		return OutRef{}, fmt.Errorf("%w: %q", ErrInvalidOutRef, s)
	}
	h, err := ParseTxHash(hashPart)
	if err != nil {
		return OutRef{}, fmt.Errorf("%w: %w", ErrInvalidOutRef, err)
	}
	idx, err := strconv.ParseUint(idxPart, 10, 32)
	if err != nil {
		return OutRef{}, fmt.Errorf("%w: index %q", ErrInvalidOutRef, idxPart)
	}
	return OutRef{TxHash: h, Index: uint32(idx)}, nil
}

// CompareOutRefs orders references by transaction hash bytes, then index.
// This is the order in which the ledger presents inputs to scripts.
func CompareOutRefs(a, b OutRef) int {
	if c := bytes.Compare(a.TxHash[:], b.TxHash[:]); c != 0 {
		return c
	}
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	default:
		return 0
	}
}

// SortOutRefs sorts refs in ledger order.
func SortOutRefs(refs []OutRef) {
	sort.Slice(refs, func(i, j int) bool { return CompareOutRefs(refs[i], refs[j]) < 0 })
}

// Output is a transaction output before it has been assigned an OutRef.
type Output struct {
	Address   Address
	Assets    Assets
	Datum     []byte  // inline datum CBOR, nil for none
	ScriptRef *Script // reference script, nil for none
}

// UTXO is an unspent output together with its reference.
type UTXO struct {
	OutRef
	Output
}

// SortUTXOs sorts utxos in ledger order.
func SortUTXOs(utxos []UTXO) {
	sort.Slice(utxos, func(i, j int) bool { return CompareOutRefs(utxos[i].OutRef, utxos[j].OutRef) < 0 })
}

// HasUnit reports whether the output holds a positive quantity of unit.
func (o Output) HasUnit(unit Unit) bool {
	return o.Assets[unit] > 0
}
