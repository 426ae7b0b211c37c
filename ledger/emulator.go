package ledger

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/fxamacker/cbor/v2"
)

// Emulator is an in-memory ledger implementing Provider. It enforces the
// ledger rules an off-chain builder can get wrong: spent or unknown inputs,
// validity intervals, value conservation, key witnesses, script availability
// and redeemer indexing. Plutus scripts are not evaluated; native scripts are.
//
// Emulator is safe for concurrent use.
type Emulator struct {
	mu    sync.Mutex
	slots SlotConfig
	now   int64
	utxos map[OutRef]Output
	seq   uint64
}

// NewEmulator returns an empty ledger whose clock reads now.
func NewEmulator(slots SlotConfig, now time.Time) *Emulator {
	return &Emulator{
		slots: slots,
		now:   Millis(now),
		utxos: make(map[OutRef]Output),
	}
}

// Fund creates a genesis output holding assets at addr and returns it.
func (e *Emulator) Fund(addr Address, assets Assets) UTXO {
	return e.AddOutput(Output{Address: addr, Assets: assets.Clone()})
}

// AddOutput creates a genesis output and returns it.
func (e *Emulator) AddOutput(out Output) UTXO {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	h := Blake2b256([]byte(fmt.Sprintf("genesis/%d", e.seq)))
	u := UTXO{OutRef: OutRef{TxHash: h}, Output: out}
	e.utxos[u.OutRef] = out
	return u
}

// SetTime moves the clock to t.
func (e *Emulator) SetTime(t time.Time) {
	e.mu.Lock()
	e.now = Millis(t)
	e.mu.Unlock()
}

// Advance moves the clock forward by d.
func (e *Emulator) Advance(d time.Duration) {
	e.mu.Lock()
	e.now += d.Milliseconds()
	e.mu.Unlock()
}

// Now returns the emulator clock.
func (e *Emulator) Now(_ context.Context) (time.Time, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.UnixMilli(e.now), nil
}

// UtxosAt returns the outputs at addr in ledger order.
func (e *Emulator) UtxosAt(_ context.Context, addr Address) ([]UTXO, error) {
	return e.filter(func(o Output) bool { return o.Address.Equal(addr) }), nil
}

// UtxosByUnit returns the outputs holding unit in ledger order.
func (e *Emulator) UtxosByUnit(_ context.Context, unit Unit) ([]UTXO, error) {
	return e.filter(func(o Output) bool { return o.HasUnit(unit) }), nil
}

// UtxosByOutRef returns the unspent outputs among refs.
func (e *Emulator) UtxosByOutRef(_ context.Context, refs []OutRef) ([]UTXO, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []UTXO
	for _, r := range refs {
		if o, ok := e.utxos[r]; ok {
			out = append(out, UTXO{OutRef: r, Output: o})
		}
	}
	return out, nil
}

// Submit validates tx against the current UTXO set and clock and applies it.
func (e *Emulator) Submit(_ context.Context, raw []byte) (TxHash, error) {
	tx, hash, err := DecodeTx(raw)
	if err != nil {
		return TxHash{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(tx, hash); err != nil {
		return TxHash{}, err
	}
	for _, in := range tx.Body.Inputs {
		delete(e.utxos, in)
	}
	for i, o := range tx.Body.Outputs {
		e.utxos[OutRef{TxHash: hash, Index: uint32(i)}] = o
	}
	return hash, nil
}

func (e *Emulator) filter(keep func(Output) bool) []UTXO {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []UTXO
	for ref, o := range e.utxos {
		if keep(o) {
			out = append(out, UTXO{OutRef: ref, Output: o})
		}
	}
	SortUTXOs(out)
	return out
}

func (e *Emulator) resolve(refs []OutRef, what string) ([]UTXO, error) {
	out := make([]UTXO, 0, len(refs))
	seen := make(map[OutRef]bool, len(refs))
	for _, r := range refs {
		if seen[r] {
			return nil, fmt.Errorf("%w: duplicate %s %s", ErrInvalidTx, what, r)
		}
		seen[r] = true
		o, ok := e.utxos[r]
		if !ok {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownInput, what, r)
		}
		out = append(out, UTXO{OutRef: r, Output: o})
	}
	return out, nil
}

func (e *Emulator) validate(tx *Tx, hash TxHash) error {
	body := tx.Body
	if len(body.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrInvalidTx)
	}

	slot := e.slots.Slot(e.now)
	if body.ValidityStart != nil && slot < *body.ValidityStart {
		return fmt.Errorf("%w: slot %d before start %d", ErrOutsideValidity, slot, *body.ValidityStart)
	}
	if body.TTL != nil && slot >= *body.TTL {
		return fmt.Errorf("%w: slot %d at or after ttl %d", ErrOutsideValidity, slot, *body.TTL)
	}

	inputs, err := e.resolve(body.Inputs, "input")
	if err != nil {
		return err
	}
	refInputs, err := e.resolve(body.ReferenceInputs, "reference input")
	if err != nil {
		return err
	}
	collateral, err := e.resolve(body.Collateral, "collateral")
	if err != nil {
		return err
	}

	signed, err := verifyWitnesses(tx.Witnesses.VKeys, hash)
	if err != nil {
		return err
	}

	available := map[Hash28]Script{}
	for _, s := range tx.Witnesses.Scripts {
		available[s.Hash()] = s
	}
	for _, u := range append(append([]UTXO(nil), inputs...), refInputs...) {
		if u.ScriptRef != nil {
			available[u.ScriptRef.Hash()] = *u.ScriptRef
		}
	}

	redeemers := map[RedeemerTag]map[uint32]bool{RedeemerSpend: {}, RedeemerMint: {}}
	for _, r := range tx.Witnesses.Redeemers {
		redeemers[r.Tag][r.Index] = true
	}

	runsPlutus := false
	check := func(h Hash28, tag RedeemerTag, idx int, what string) error {
		s, ok := available[h]
		if !ok {
			return fmt.Errorf("%w: %s %s", ErrMissingScript, what, h)
		}
		if s.Version == NativeScriptVersion {
			ok, err := evalNative(s.Bytes, signed, body.ValidityStart, body.TTL)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidTx, what, err)
			}
			if !ok {
				return fmt.Errorf("%w: native script %s not satisfied", ErrMissingSignature, h)
			}
			return nil
		}
		runsPlutus = true
		if !redeemers[tag][uint32(idx)] {
			return fmt.Errorf("%w: %s at index %d", ErrMissingRedeemer, what, idx)
		}
		return nil
	}

	sorted := append([]UTXO(nil), inputs...)
	SortUTXOs(sorted)
	for i, u := range sorted {
		switch u.Address.Payment.Type {
		case ScriptCredential:
			if err := check(u.Address.Payment.Hash, RedeemerSpend, i, "spend "+u.OutRef.String()); err != nil {
				return err
			}
		default:
			if !signed[u.Address.Payment.Hash] {
				return fmt.Errorf("%w: input %s", ErrMissingSignature, u.OutRef)
			}
		}
	}

	for j, policy := range MintPolicies(body.Mint) {
		if err := check(policy, RedeemerMint, j, "mint "+policy.String()); err != nil {
			return err
		}
	}

	if runsPlutus {
		if len(collateral) == 0 {
			return ErrMissingCollateral
		}
		for _, c := range collateral {
			if !signed[c.Address.Payment.Hash] {
				return fmt.Errorf("%w: collateral %s", ErrMissingSignature, c.OutRef)
			}
		}
	}

	for _, s := range body.RequiredSigners {
		if !signed[s] {
			return fmt.Errorf("%w: %s", ErrMissingSignature, s)
		}
	}

	in := Assets{}
	for _, u := range inputs {
		in = in.Add(u.Assets)
	}
	in = in.Add(body.Mint)
	out := NewAssets(body.Fee)
	for _, o := range body.Outputs {
		if len(o.Assets.Negative()) > 0 {
			return fmt.Errorf("%w: output holds %s", ErrNegativeValue, o.Assets)
		}
		out = out.Add(o.Assets)
	}
	if !in.Equal(out) {
		return fmt.Errorf("%w: consumed %s, produced %s", ErrValueNotConserved, in, out)
	}
	return nil
}

// MintPolicies returns the distinct policies of a mint value in the order the
// ledger assigns mint redeemer indexes.
func MintPolicies(mint Assets) []Hash28 {
	seen := map[Hash28]bool{}
	var out []Hash28
	for _, u := range mint.Units() {
		if p, ok := u.Policy(); ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func verifyWitnesses(vkeys []VKeyWitness, hash TxHash) (map[Hash28]bool, error) {
	signed := map[Hash28]bool{}
	for i, w := range vkeys {
		pub, err := ec.PublicKeyFromBytes(w.PubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: witness %d: %w", ErrMissingSignature, i, err)
		}
		sig, err := ec.ParseDERSignature(w.Signature)
		if err != nil {
			return nil, fmt.Errorf("%w: witness %d: %w", ErrMissingSignature, i, err)
		}
		if !sig.Verify(hash[:], pub) {
			return nil, fmt.Errorf("%w: witness %d does not verify", ErrMissingSignature, i)
		}
		signed[KeyHash(w.PubKey)] = true
	}
	return signed, nil
}

func evalNative(raw []byte, signed map[Hash28]bool, start, ttl *uint64) (bool, error) {
	var node []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &node); err != nil || len(node) != 2 {
		return false, fmt.Errorf("malformed native script")
	}
	var kind int
	if err := cbor.Unmarshal(node[0], &kind); err != nil {
		return false, err
	}

	switch kind {
	case nativePubKey:
		var kh []byte
		if err := cbor.Unmarshal(node[1], &kh); err != nil {
			return false, err
		}
		h, err := Hash28FromBytes(kh)
		if err != nil {
			return false, err
		}
		return signed[h], nil
	case nativeAll, nativeAny:
		var subs []cbor.RawMessage
		if err := cbor.Unmarshal(node[1], &subs); err != nil {
			return false, err
		}
		for _, sub := range subs {
			ok, err := evalNative(sub, signed, start, ttl)
			if err != nil {
				return false, err
			}
			if kind == nativeAny && ok {
				return true, nil
			}
			if kind == nativeAll && !ok {
				return false, nil
			}
		}
		return kind == nativeAll, nil
	case nativeInvalidBefore, nativeInvalidHereafter:
		var slot uint64
		if err := cbor.Unmarshal(node[1], &slot); err != nil {
			return false, err
		}
		if kind == nativeInvalidBefore {
			return start != nil && *start >= slot, nil
		}
		return ttl != nil && *ttl <= slot, nil
	default:
		return false, fmt.Errorf("unsupported native script kind %d", kind)
	}
}
