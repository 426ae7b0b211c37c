package tx

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
)

// Index exposes the canonical positions of a transaction's inputs and
// reference inputs. Validators see inputs sorted by (tx hash, output index),
// so batched redeemers must be computed from this order.
type Index struct {
	Inputs    []ledger.OutRef
	RefInputs []ledger.OutRef
}

// Input returns the position of ref among the sorted inputs, or -1.
func (ix Index) Input(ref ledger.OutRef) int { return position(ix.Inputs, ref) }

// RefInput returns the position of ref among the sorted reference inputs, or -1.
func (ix Index) RefInput(ref ledger.OutRef) int { return position(ix.RefInputs, ref) }

func position(refs []ledger.OutRef, ref ledger.OutRef) int {
	for i, r := range refs {
		if r == ref {
			return i
		}
	}
	return -1
}

// RedeemerFunc computes a redeemer once the final input set is known.
type RedeemerFunc func(ix Index) (plutus.Data, error)

// Static returns a RedeemerFunc that ignores the index.
func Static(d plutus.Data) RedeemerFunc {
	return func(Index) (plutus.Data, error) { return d, nil }
}

type input struct {
	utxo     ledger.UTXO
	redeemer RedeemerFunc // nil for key-locked inputs
}

type mint struct {
	assets   ledger.Assets
	redeemer RedeemerFunc // nil for native policies
}

// Builder composes a transaction. Methods record the first error, which
// Complete returns.
type Builder struct {
	inputs    []input
	refInputs []ledger.UTXO
	outputs   []ledger.Output
	mints     map[ledger.Hash28]*mint
	scripts   map[ledger.Hash28]ledger.Script
	signers   []ledger.Hash28
	validFrom *int64
	validTo   *int64
	err       error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		mints:   make(map[ledger.Hash28]*mint),
		scripts: make(map[ledger.Hash28]ledger.Script),
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) hasInput(ref ledger.OutRef) bool {
	for _, in := range b.inputs {
		if in.utxo.OutRef == ref {
			return true
		}
	}
	return false
}

// CollectFrom spends script-locked utxos with redeemer.
func (b *Builder) CollectFrom(utxos []ledger.UTXO, redeemer RedeemerFunc) *Builder {
	if redeemer == nil {
		return b.fail(fmt.Errorf("%w: collect from %d script outputs", ErrMissingRedeemer, len(utxos)))
	}
	for _, u := range utxos {
		if b.hasInput(u.OutRef) {
			continue
		}
		b.inputs = append(b.inputs, input{utxo: u, redeemer: redeemer})
	}
	return b
}

// CollectPubKey spends key-locked utxos.
func (b *Builder) CollectPubKey(utxos ...ledger.UTXO) *Builder {
	for _, u := range utxos {
		if u.Address.Payment.Type != ledger.KeyCredential {
			return b.fail(fmt.Errorf("%w: %s is script-locked", ErrMissingRedeemer, u.OutRef))
		}
		if b.hasInput(u.OutRef) {
			continue
		}
		b.inputs = append(b.inputs, input{utxo: u})
	}
	return b
}

// ReadFrom adds utxos as reference inputs.
func (b *Builder) ReadFrom(utxos ...ledger.UTXO) *Builder {
	for _, u := range utxos {
		if position(refsOf(b.refInputs), u.OutRef) >= 0 {
			continue
		}
		b.refInputs = append(b.refInputs, u)
	}
	return b
}

// UseRefScripts reads published reference scripts instead of attaching them.
func (b *Builder) UseRefScripts(utxos ...ledger.UTXO) *Builder {
	for _, u := range utxos {
		if u.ScriptRef == nil {
			return b.fail(fmt.Errorf("%w: %s carries no reference script", ErrMissingScript, u.OutRef))
		}
	}
	return b.ReadFrom(utxos...)
}

// Attach adds scripts to the witness set.
func (b *Builder) Attach(scripts ...ledger.Script) *Builder {
	for _, s := range scripts {
		if s.IsZero() {
			return b.fail(fmt.Errorf("%w: empty script", ErrNilParam))
		}
		b.scripts[s.Hash()] = s
	}
	return b
}

// PayTo adds a plain output.
func (b *Builder) PayTo(addr ledger.Address, assets ledger.Assets) *Builder {
	b.outputs = append(b.outputs, ledger.Output{Address: addr, Assets: assets.Clone()})
	return b
}

// PayToContract adds an output carrying an inline datum.
func (b *Builder) PayToContract(addr ledger.Address, datum []byte, assets ledger.Assets) *Builder {
	if len(datum) == 0 {
		return b.fail(fmt.Errorf("%w: inline datum for %s", ErrNilParam, addr))
	}
	b.outputs = append(b.outputs, ledger.Output{Address: addr, Assets: assets.Clone(), Datum: datum})
	return b
}

// PayOutput adds a fully specified output.
func (b *Builder) PayOutput(o ledger.Output) *Builder {
	o.Assets = o.Assets.Clone()
	b.outputs = append(b.outputs, o)
	return b
}

// OutputCount returns the number of outputs added so far; the next output
// will be at this position.
func (b *Builder) OutputCount() int { return len(b.outputs) }

// Mint mints (positive) or burns (negative) assets under policy. The redeemer
// is nil for native policies.
func (b *Builder) Mint(policy ledger.Hash28, assets ledger.Assets, redeemer RedeemerFunc) *Builder {
	for u := range assets {
		p, ok := u.Policy()
		if !ok || p != policy {
			return b.fail(fmt.Errorf("%w: unit %s is not under policy %s", ErrInvalidMint, u, policy))
		}
	}
	m, ok := b.mints[policy]
	if !ok {
		m = &mint{assets: ledger.Assets{}}
		b.mints[policy] = m
	}
	m.assets = m.assets.Add(assets)
	if m.redeemer == nil {
		m.redeemer = redeemer
	}
	return b
}

// ValidFrom sets the lower validity bound in POSIX ms.
func (b *Builder) ValidFrom(ms int64) *Builder {
	b.validFrom = &ms
	return b
}

// ValidTo sets the upper validity bound in POSIX ms.
func (b *Builder) ValidTo(ms int64) *Builder {
	b.validTo = &ms
	return b
}

// AddSigner requires a signature from key hash h.
func (b *Builder) AddSigner(h ledger.Hash28) *Builder {
	for _, s := range b.signers {
		if s == h {
			return b
		}
	}
	b.signers = append(b.signers, h)
	return b
}

func refsOf(utxos []ledger.UTXO) []ledger.OutRef {
	out := make([]ledger.OutRef, len(utxos))
	for i, u := range utxos {
		out[i] = u.OutRef
	}
	return out
}
