package tx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
)

const maxBalanceIterations = 32

// Sizes of a vkey witness used for fee estimation before signing.
const (
	estPubKeyLen    = 33
	estSignatureLen = 72
)

// Options configure Complete.
type Options struct {
	// ChangeAddress receives change and is where wallet outputs are queried.
	ChangeAddress ledger.Address

	// Wallet overrides the provider query for spendable wallet outputs.
	Wallet []ledger.UTXO

	Fees  FeeParams
	Slots ledger.SlotConfig

	// Collateral is the minimum lovelace of the collateral output. Zero
	// means DefaultCollateral.
	Collateral int64
}

// Tx is a balanced transaction ready for signing.
type Tx struct {
	Raw   *ledger.Tx
	Hash  ledger.TxHash
	Fee   int64
	Index Index

	// Signers are the key hashes whose witnesses the ledger will require.
	Signers []ledger.Hash28
}

// Complete selects wallet outputs, computes redeemers against the canonical
// input order, balances the value equation, adds change and collateral, and
// returns the unsigned transaction. The result depends only on the builder,
// the wallet snapshot and opts.
//
// ErrWalletEmpty is returned as is; every other failure wraps ErrBuildFailure.
func (b *Builder) Complete(ctx context.Context, p ledger.Provider, opts Options) (*Tx, error) {
	t, err := b.complete(ctx, p, opts)
	if err != nil {
		if errors.Is(err, ErrWalletEmpty) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrBuildFailure, err)
	}
	return t, nil
}

func (b *Builder) complete(ctx context.Context, p ledger.Provider, opts Options) (*Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	if opts.ChangeAddress.IsZero() {
		return nil, fmt.Errorf("%w: change address", ErrNilParam)
	}
	if len(b.inputs) == 0 && len(b.outputs) == 0 && len(b.mints) == 0 {
		return nil, fmt.Errorf("%w: nothing to build", ErrNilParam)
	}

	wallet := opts.Wallet
	if wallet == nil {
		if p == nil {
			return nil, fmt.Errorf("%w: provider", ErrNilParam)
		}
		var err error
		if wallet, err = p.UtxosAt(ctx, opts.ChangeAddress); err != nil {
			return nil, fmt.Errorf("query wallet: %w", err)
		}
	}
	wallet = b.spendable(wallet)
	if len(wallet) == 0 {
		return nil, ErrWalletEmpty
	}

	available := b.availableScripts()

	totalMint := ledger.Assets{}
	for _, m := range b.mints {
		totalMint = totalMint.Add(m.assets)
	}
	policies := ledger.MintPolicies(totalMint)

	runsPlutus := false
	for _, in := range b.inputs {
		switch {
		case in.utxo.Address.Payment.Type == ledger.KeyCredential && in.redeemer != nil:
			return nil, fmt.Errorf("redeemer given for key-locked input %s", in.utxo.OutRef)
		case in.utxo.Address.Payment.Type == ledger.ScriptCredential:
			s, ok := available[in.utxo.Address.Payment.Hash]
			if !ok {
				return nil, fmt.Errorf("%w: validator %s for %s", ErrMissingScript, in.utxo.Address.Payment.Hash, in.utxo.OutRef)
			}
			runsPlutus = runsPlutus || s.Version != ledger.NativeScriptVersion
		}
	}
	for _, policy := range policies {
		s, ok := available[policy]
		if !ok {
			return nil, fmt.Errorf("%w: policy %s", ErrMissingScript, policy)
		}
		if s.Version != ledger.NativeScriptVersion {
			if b.mints[policy].redeemer == nil {
				return nil, fmt.Errorf("%w: policy %s", ErrMissingRedeemer, policy)
			}
			runsPlutus = true
		}
	}

	for i, o := range b.outputs {
		floor, err := opts.Fees.MinLovelace(o)
		if err != nil {
			return nil, err
		}
		if o.Assets.Lovelace() < floor {
			return nil, fmt.Errorf("%w: output %d holds %d, needs %d", ErrBelowMinimum, i, o.Assets.Lovelace(), floor)
		}
	}

	var collateral []ledger.UTXO
	if runsPlutus {
		c, ok := pickCollateral(wallet, opts.Collateral)
		if !ok {
			return nil, ErrNoCollateral
		}
		collateral = []ledger.UTXO{c}
	}

	var start, ttl *uint64
	if b.validFrom != nil {
		s := opts.Slots.Slot(*b.validFrom)
		start = &s
	}
	if b.validTo != nil {
		s := opts.Slots.Slot(*b.validTo)
		ttl = &s
	}

	explicitIn := ledger.Assets{}
	for _, in := range b.inputs {
		explicitIn = explicitIn.Add(in.utxo.Assets)
	}
	produced := ledger.Assets{}
	for _, o := range b.outputs {
		produced = produced.Add(o.Assets)
	}

	var selected []ledger.UTXO
	next := 0
	fee := opts.Fees.MinFeeB

	for iter := 0; iter < maxBalanceIterations; iter++ {
		consumed := explicitIn.Add(totalMint)
		for _, u := range selected {
			consumed = consumed.Add(u.Assets)
		}
		balance := consumed.Sub(produced).Sub(ledger.NewAssets(fee))

		if deficit := balance.Negative(); len(deficit) > 0 {
			if next >= len(wallet) {
				return nil, fmt.Errorf("%w: short %s", ErrInsufficientFunds, deficit)
			}
			selected = append(selected, wallet[next])
			next++
			continue
		}

		outputs := append([]ledger.Output(nil), b.outputs...)
		paid := fee
		if !balance.IsZero() {
			change := ledger.Output{Address: opts.ChangeAddress, Assets: balance}
			floor, err := opts.Fees.MinLovelace(change)
			if err != nil {
				return nil, err
			}
			switch {
			case balance.Lovelace() >= floor:
				outputs = append(outputs, change)
			case len(balance.Units()) == 1 && balance.Lovelace() > 0:
				// Lovelace-only change below the minimum is left to the fee.
				paid += balance.Lovelace()
			default:
				if next >= len(wallet) {
					return nil, fmt.Errorf("%w: change %s below minimum %d", ErrInsufficientFunds, balance, floor)
				}
				selected = append(selected, wallet[next])
				next++
				continue
			}
		}

		inputs := append([]input(nil), b.inputs...)
		for _, u := range selected {
			inputs = append(inputs, input{utxo: u})
		}

		built, ix, err := b.assemble(inputs, outputs, totalMint, policies, available, collateral, start, ttl, paid, opts.Fees)
		if err != nil {
			return nil, err
		}
		signers := requiredSigners(inputs, collateral, b.signers)

		size, err := estimateSize(built, len(signers))
		if err != nil {
			return nil, err
		}
		needed := opts.Fees.EstimateFee(size, len(built.Witnesses.Redeemers))
		if needed <= paid {
			hash, err := built.Body.Hash()
			if err != nil {
				return nil, err
			}
			return &Tx{Raw: built, Hash: hash, Fee: paid, Index: ix, Signers: signers}, nil
		}
		fee = needed
	}
	return nil, ErrNotConverged
}

func (b *Builder) assemble(
	inputs []input,
	outputs []ledger.Output,
	totalMint ledger.Assets,
	policies []ledger.Hash28,
	available map[ledger.Hash28]ledger.Script,
	collateral []ledger.UTXO,
	start, ttl *uint64,
	fee int64,
	fees FeeParams,
) (*ledger.Tx, Index, error) {
	sort.Slice(inputs, func(i, j int) bool {
		return ledger.CompareOutRefs(inputs[i].utxo.OutRef, inputs[j].utxo.OutRef) < 0
	})
	ix := Index{RefInputs: refsOf(b.refInputs)}
	ledger.SortOutRefs(ix.RefInputs)
	for _, in := range inputs {
		ix.Inputs = append(ix.Inputs, in.utxo.OutRef)
	}

	var redeemers []ledger.Redeemer
	for i, in := range inputs {
		if in.redeemer == nil {
			continue
		}
		r, err := buildRedeemer(ledger.RedeemerSpend, i, in.redeemer, ix, fees)
		if err != nil {
			return nil, Index{}, fmt.Errorf("spend %s: %w", in.utxo.OutRef, err)
		}
		redeemers = append(redeemers, r)
	}
	for j, policy := range policies {
		if available[policy].Version == ledger.NativeScriptVersion {
			continue
		}
		r, err := buildRedeemer(ledger.RedeemerMint, j, b.mints[policy].redeemer, ix, fees)
		if err != nil {
			return nil, Index{}, fmt.Errorf("mint %s: %w", policy, err)
		}
		redeemers = append(redeemers, r)
	}

	body := ledger.TxBody{
		Inputs:          ix.Inputs,
		Outputs:         outputs,
		Fee:             fee,
		ValidityStart:   start,
		TTL:             ttl,
		Mint:            totalMint.Clone().Compact(),
		Collateral:      refsOf(collateral),
		RequiredSigners: append([]ledger.Hash28(nil), b.signers...),
		ReferenceInputs: ix.RefInputs,
	}
	if len(body.Mint) == 0 {
		body.Mint = nil
	}

	var scripts []ledger.Script
	for _, s := range b.scripts {
		scripts = append(scripts, s)
	}
	sort.Slice(scripts, func(i, j int) bool {
		hi, hj := scripts[i].Hash(), scripts[j].Hash()
		return bytes.Compare(hi[:], hj[:]) < 0
	})

	return &ledger.Tx{Body: body, Witnesses: ledger.Witnesses{Scripts: scripts, Redeemers: redeemers}}, ix, nil
}

func buildRedeemer(tag ledger.RedeemerTag, idx int, fn RedeemerFunc, ix Index, fees FeeParams) (ledger.Redeemer, error) {
	d, err := fn(ix)
	if err != nil {
		return ledger.Redeemer{}, err
	}
	raw, err := plutus.Marshal(d)
	if err != nil {
		return ledger.Redeemer{}, err
	}
	return ledger.Redeemer{Tag: tag, Index: uint32(idx), Data: raw, ExUnits: fees.ExUnits}, nil
}

// spendable drops outputs already used by the builder and outputs that are
// not plain key-locked value.
func (b *Builder) spendable(wallet []ledger.UTXO) []ledger.UTXO {
	refs := refsOf(b.refInputs)
	var out []ledger.UTXO
	for _, u := range wallet {
		if u.Address.Payment.Type != ledger.KeyCredential || u.ScriptRef != nil || len(u.Datum) > 0 {
			continue
		}
		if b.hasInput(u.OutRef) || position(refs, u.OutRef) >= 0 {
			continue
		}
		out = append(out, u)
	}
	// Largest lovelace first; ties broken by ledger order.
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].Assets.Lovelace(), out[j].Assets.Lovelace()
		if li != lj {
			return li > lj
		}
		return ledger.CompareOutRefs(out[i].OutRef, out[j].OutRef) < 0
	})
	return out
}

func (b *Builder) availableScripts() map[ledger.Hash28]ledger.Script {
	available := make(map[ledger.Hash28]ledger.Script, len(b.scripts))
	for h, s := range b.scripts {
		available[h] = s
	}
	for _, u := range b.refInputs {
		if u.ScriptRef != nil {
			available[u.ScriptRef.Hash()] = *u.ScriptRef
		}
	}
	for _, in := range b.inputs {
		if in.utxo.ScriptRef != nil {
			available[in.utxo.ScriptRef.Hash()] = *in.utxo.ScriptRef
		}
	}
	return available
}

func pickCollateral(wallet []ledger.UTXO, minimum int64) (ledger.UTXO, bool) {
	if minimum <= 0 {
		minimum = DefaultCollateral
	}
	for _, u := range wallet {
		if len(u.Assets.Units()) == 1 && u.Assets.Lovelace() >= minimum {
			return u, true
		}
	}
	return ledger.UTXO{}, false
}

func requiredSigners(inputs []input, collateral []ledger.UTXO, extra []ledger.Hash28) []ledger.Hash28 {
	seen := map[ledger.Hash28]bool{}
	var out []ledger.Hash28
	add := func(h ledger.Hash28) {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, in := range inputs {
		if h, ok := in.utxo.Address.PaymentKeyHash(); ok {
			add(h)
		}
	}
	for _, c := range collateral {
		if h, ok := c.Address.PaymentKeyHash(); ok {
			add(h)
		}
	}
	for _, h := range extra {
		add(h)
	}
	return out
}

func estimateSize(t *ledger.Tx, witnesses int) (int, error) {
	probe := *t
	probe.Witnesses.VKeys = make([]ledger.VKeyWitness, witnesses)
	for i := range probe.Witnesses.VKeys {
		probe.Witnesses.VKeys[i] = ledger.VKeyWitness{
			PubKey:    make([]byte, estPubKeyLen),
			Signature: make([]byte, estSignatureLen),
		}
	}
	raw, err := probe.Bytes()
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}
