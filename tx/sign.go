package tx

import (
	"context"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/ledger"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Sign adds a vkey witness over the body hash for each key. Keys that already
// signed are skipped, so Sign may be called once per party.
func (t *Tx) Sign(keys ...*ec.PrivateKey) error {
	if t == nil || t.Raw == nil {
		return fmt.Errorf("%w: transaction", ErrNilParam)
	}
	for i, key := range keys {
		if key == nil {
			return fmt.Errorf("%w: key[%d]", ErrNilParam, i)
		}
		pub := key.PubKey().Compressed()
		if t.signedBy(ledger.KeyHash(pub)) {
			continue
		}
		sig, err := key.Sign(t.Hash[:])
		if err != nil {
			return fmt.Errorf("%w: key[%d]: %w", ErrSigningFailed, i, err)
		}
		t.Raw.Witnesses.VKeys = append(t.Raw.Witnesses.VKeys, ledger.VKeyWitness{
			PubKey:    pub,
			Signature: sig.Serialize(),
		})
	}
	return nil
}

func (t *Tx) signedBy(h ledger.Hash28) bool {
	for _, w := range t.Raw.Witnesses.VKeys {
		if ledger.KeyHash(w.PubKey) == h {
			return true
		}
	}
	return false
}

// Missing returns the required signers that have not signed yet.
func (t *Tx) Missing() []ledger.Hash28 {
	var out []ledger.Hash28
	for _, h := range t.Signers {
		if !t.signedBy(h) {
			out = append(out, h)
		}
	}
	return out
}

// Bytes encodes the transaction with its current witnesses.
func (t *Tx) Bytes() ([]byte, error) {
	if t == nil || t.Raw == nil {
		return nil, fmt.Errorf("%w: transaction", ErrNilParam)
	}
	return t.Raw.Bytes()
}

// Submit signs with keys and submits through p.
func (t *Tx) Submit(ctx context.Context, p ledger.Provider, keys ...*ec.PrivateKey) (ledger.TxHash, error) {
	if err := t.Sign(keys...); err != nil {
		return ledger.TxHash{}, err
	}
	if missing := t.Missing(); len(missing) > 0 {
		return ledger.TxHash{}, fmt.Errorf("%w: %d signatures missing, first %s", ErrSigningFailed, len(missing), missing[0])
	}
	raw, err := t.Bytes()
	if err != nil {
		return ledger.TxHash{}, err
	}
	return p.Submit(ctx, raw)
}
