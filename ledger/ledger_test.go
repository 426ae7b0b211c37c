package ledger

import (
	"context"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSlots = SlotConfigs["preview"]

type testKey struct {
	priv *ec.PrivateKey
	pub  []byte
	addr Address
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey().Compressed()
	return testKey{priv: priv, pub: pub, addr: EnterpriseAddress(Testnet, KeyCred(KeyHash(pub)))}
}

func (k testKey) sign(t *testing.T, tx *Tx) {
	t.Helper()
	h, err := tx.Body.Hash()
	require.NoError(t, err)
	sig, err := k.priv.Sign(h[:])
	require.NoError(t, err)
	tx.Witnesses.VKeys = append(tx.Witnesses.VKeys, VKeyWitness{PubKey: k.pub, Signature: sig.Serialize()})
}

func testPolicy(b byte) Hash28 {
	var h Hash28
	for i := range h {
		h[i] = b
	}
	return h
}

// --- Addresses ---

func TestAddress_RoundTrip(t *testing.T) {
	pay := testPolicy(0x11)
	stake := testPolicy(0x22)

	tests := []struct {
		name string
		addr Address
		hrp  string
	}{
		{"enterprise key testnet", EnterpriseAddress(Testnet, KeyCred(pay)), "addr_test1"},
		{"enterprise script mainnet", EnterpriseAddress(Mainnet, ScriptCred(pay)), "addr1"},
		{"base key/key", BaseAddress(Testnet, KeyCred(pay), KeyCred(stake)), "addr_test1"},
		{"base script/script", BaseAddress(Mainnet, ScriptCred(pay), ScriptCred(stake)), "addr1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.addr.String()
			assert.Contains(t, s, tt.hrp)

			back, err := ParseAddress(s)
			require.NoError(t, err)
			assert.True(t, tt.addr.Equal(back))
			assert.Equal(t, tt.addr.Payment, back.Payment)
		})
	}
}

func TestAddress_Invalid(t *testing.T) {
	_, err := ParseAddress("not-an-address")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = AddressFromBytes([]byte{0x60, 0x01})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = AddressFromBytes(nil)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

// --- Assets ---

func TestAssets_Arithmetic(t *testing.T) {
	unit := NewUnit(testPolicy(0xaa), []byte("FSN"))
	a := NewAssets(5).With(unit, 1)
	b := NewAssets(2)

	sum := a.Add(b)
	assert.Equal(t, int64(7), sum.Lovelace())
	assert.Equal(t, int64(1), sum.Amount(unit))

	diff := b.Sub(a)
	assert.Equal(t, Assets{Lovelace: 3, unit: 1}, diff.Negative())
	assert.True(t, a.Covers(b))
	assert.False(t, b.Covers(a))
	assert.Equal(t, []Unit{Lovelace, unit}, a.Units())
	assert.Equal(t, []Unit{unit}, a.OfPolicy(testPolicy(0xaa)))
	assert.True(t, a.Sub(a).IsZero())
}

func TestUnit_Parse(t *testing.T) {
	unit := NewUnit(testPolicy(0xab), []byte{0x01})
	back, err := ParseUnit(string(unit))
	require.NoError(t, err)
	assert.Equal(t, unit, back)

	policy, name, err := back.Split()
	require.NoError(t, err)
	assert.Equal(t, testPolicy(0xab), policy)
	assert.Equal(t, []byte{0x01}, name)

	_, err = ParseUnit("abc")
	assert.ErrorIs(t, err, ErrInvalidUnit)

	l, err := ParseUnit("LOVELACE")
	require.NoError(t, err)
	assert.Equal(t, Lovelace, l)
}

// --- OutRefs ---

func TestOutRef_ParseAndOrder(t *testing.T) {
	a := OutRef{TxHash: TxHash{0x01}, Index: 5}
	b := OutRef{TxHash: TxHash{0x01}, Index: 10}
	c := OutRef{TxHash: TxHash{0x02}, Index: 0}

	back, err := ParseOutRef(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, back)

	refs := []OutRef{c, b, a}
	SortOutRefs(refs)
	assert.Equal(t, []OutRef{a, b, c}, refs)

	_, err = ParseOutRef("deadbeef")
	assert.ErrorIs(t, err, ErrInvalidOutRef)
}

// --- Time ---

func TestSlotConfig(t *testing.T) {
	cfg := SlotConfig{ZeroTime: 1000, ZeroSlot: 10, SlotLength: 1000}
	assert.Equal(t, uint64(10), cfg.Slot(500))
	assert.Equal(t, uint64(12), cfg.Slot(3500))
	assert.Equal(t, int64(3000), cfg.Time(12))
}

// --- Tx wire format ---

func TestTx_RoundTrip(t *testing.T) {
	unit := NewUnit(testPolicy(0xaa), []byte("FSN"))
	start, ttl := uint64(10), uint64(20)
	script := Script{Version: PlutusV2, Bytes: []byte{0x44, 0x01, 0x02, 0x03, 0x04}}

	tx := &Tx{
		Body: TxBody{
			Inputs: []OutRef{{TxHash: TxHash{0x09}, Index: 1}},
			Outputs: []Output{
				{Address: EnterpriseAddress(Testnet, ScriptCred(testPolicy(0x01))), Assets: NewAssets(2_000_000).With(unit, 1), Datum: []byte{0xd8, 0x79, 0x80}},
				{Address: EnterpriseAddress(Testnet, KeyCred(testPolicy(0x02))), Assets: NewAssets(1_000_000), ScriptRef: &script},
			},
			Fee:             200_000,
			ValidityStart:   &start,
			TTL:             &ttl,
			Mint:            Assets{unit: -1},
			RequiredSigners: []Hash28{testPolicy(0x02)},
			ReferenceInputs: []OutRef{{TxHash: TxHash{0x08}}},
		},
		Witnesses: Witnesses{
			Scripts:   []Script{script},
			Redeemers: []Redeemer{{Tag: RedeemerMint, Index: 0, Data: []byte{0xd8, 0x7a, 0x80}, ExUnits: ExUnits{Mem: 1, Steps: 2}}},
		},
	}

	raw, err := tx.Bytes()
	require.NoError(t, err)

	back, hash, err := DecodeTx(raw)
	require.NoError(t, err)

	want, err := tx.Body.Hash()
	require.NoError(t, err)
	assert.Equal(t, want, hash)

	assert.Equal(t, tx.Body.Inputs, back.Body.Inputs)
	assert.Equal(t, tx.Body.Fee, back.Body.Fee)
	assert.Equal(t, start, *back.Body.ValidityStart)
	assert.Equal(t, ttl, *back.Body.TTL)
	assert.True(t, tx.Body.Mint.Equal(back.Body.Mint))
	require.Len(t, back.Body.Outputs, 2)
	assert.True(t, tx.Body.Outputs[0].Assets.Equal(back.Body.Outputs[0].Assets))
	assert.Equal(t, tx.Body.Outputs[0].Datum, back.Body.Outputs[0].Datum)
	require.NotNil(t, back.Body.Outputs[1].ScriptRef)
	assert.Equal(t, script.Hash(), back.Body.Outputs[1].ScriptRef.Hash())
	require.Len(t, back.Witnesses.Redeemers, 1)
	assert.Equal(t, ExUnits{Mem: 1, Steps: 2}, back.Witnesses.Redeemers[0].ExUnits)
}

func TestTx_BytesDeterministic(t *testing.T) {
	u1 := NewUnit(testPolicy(0x01), []byte("a"))
	u2 := NewUnit(testPolicy(0x02), []byte("b"))
	body := TxBody{
		Inputs:  []OutRef{{TxHash: TxHash{0x01}}},
		Outputs: []Output{{Address: EnterpriseAddress(Testnet, KeyCred(testPolicy(0x03))), Assets: NewAssets(5).With(u2, 1).With(u1, 2)}},
		Fee:     1,
	}
	a, err := body.Bytes()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b, err := body.Bytes()
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

// --- Emulator ---

func TestEmulator_Transfer(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(testSlots.ZeroTime).Add(time.Hour)
	emu := NewEmulator(testSlots, now)

	alice := newTestKey(t)
	bob := newTestKey(t)
	funding := emu.Fund(alice.addr, NewAssets(10_000_000))

	tx := &Tx{Body: TxBody{
		Inputs: []OutRef{funding.OutRef},
		Outputs: []Output{
			{Address: bob.addr, Assets: NewAssets(3_000_000)},
			{Address: alice.addr, Assets: NewAssets(6_800_000)},
		},
		Fee: 200_000,
	}}

	t.Run("unsigned is rejected", func(t *testing.T) {
		raw, err := tx.Bytes()
		require.NoError(t, err)
		_, err = emu.Submit(ctx, raw)
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	alice.sign(t, tx)
	raw, err := tx.Bytes()
	require.NoError(t, err)

	hash, err := emu.Submit(ctx, raw)
	require.NoError(t, err)

	got, err := emu.UtxosAt(ctx, bob.addr)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, OutRef{TxHash: hash, Index: 0}, got[0].OutRef)

	t.Run("double spend is rejected", func(t *testing.T) {
		_, err := emu.Submit(ctx, raw)
		assert.ErrorIs(t, err, ErrUnknownInput)
	})
}

func TestEmulator_Rules(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(testSlots.ZeroTime).Add(time.Hour)
	slot := testSlots.Slot(Millis(now))

	tests := []struct {
		name    string
		mutate  func(b *TxBody)
		wantErr error
	}{
		{"value not conserved", func(b *TxBody) { b.Fee = 1 }, ErrValueNotConserved},
		{"ttl passed", func(b *TxBody) { ttl := slot; b.TTL = &ttl }, ErrOutsideValidity},
		{"not yet valid", func(b *TxBody) { s := slot + 10; b.ValidityStart = &s }, ErrOutsideValidity},
		{"unknown reference input", func(b *TxBody) { b.ReferenceInputs = []OutRef{{Index: 9}} }, ErrUnknownInput},
		{"unsigned required signer", func(b *TxBody) { b.RequiredSigners = []Hash28{testPolicy(0x07)} }, ErrMissingSignature},
		{"mint without script", func(b *TxBody) {
			u := NewUnit(testPolicy(0x05), []byte("x"))
			b.Mint = Assets{u: 1}
			b.Outputs[0].Assets = b.Outputs[0].Assets.With(u, 1)
		}, ErrMissingScript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emu := NewEmulator(testSlots, now)
			alice := newTestKey(t)
			funding := emu.Fund(alice.addr, NewAssets(5_000_000))

			tx := &Tx{Body: TxBody{
				Inputs:  []OutRef{funding.OutRef},
				Outputs: []Output{{Address: alice.addr, Assets: NewAssets(4_800_000)}},
				Fee:     200_000,
			}}
			tt.mutate(&tx.Body)
			alice.sign(t, tx)

			raw, err := tx.Bytes()
			require.NoError(t, err)
			_, err = emu.Submit(ctx, raw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEmulator_NativeMint(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(testSlots.ZeroTime).Add(time.Hour)
	slot := testSlots.Slot(Millis(now))
	emu := NewEmulator(testSlots, now)

	alice := newTestKey(t)
	funding := emu.Fund(alice.addr, NewAssets(5_000_000))

	policy, err := NativeAll(NativePubKey(KeyHash(alice.pub)), NativeBefore(slot+100)).Script()
	require.NoError(t, err)
	unit := NewUnit(policy.Hash(), []byte("ref"))

	build := func(ttl uint64) *Tx {
		tx := &Tx{
			Body: TxBody{
				Inputs:  []OutRef{funding.OutRef},
				Outputs: []Output{{Address: alice.addr, Assets: NewAssets(4_800_000).With(unit, 1)}},
				Fee:     200_000,
				Mint:    Assets{unit: 1},
				TTL:     &ttl,
			},
			Witnesses: Witnesses{Scripts: []Script{policy}},
		}
		alice.sign(t, tx)
		return tx
	}

	raw, err := build(slot + 200).Bytes()
	require.NoError(t, err)
	_, err = emu.Submit(ctx, raw)
	assert.ErrorIs(t, err, ErrMissingSignature, "ttl beyond the policy expiry")

	raw, err = build(slot + 50).Bytes()
	require.NoError(t, err)
	_, err = emu.Submit(ctx, raw)
	require.NoError(t, err)

	held, err := emu.UtxosByUnit(ctx, unit)
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestEmulator_PlutusNeedsRedeemerAndCollateral(t *testing.T) {
	ctx := context.Background()
	now := time.UnixMilli(testSlots.ZeroTime).Add(time.Hour)
	emu := NewEmulator(testSlots, now)

	alice := newTestKey(t)
	validator := Script{Version: PlutusV2, Bytes: []byte{0x43, 0x01, 0x02, 0x03}}
	locked := emu.Fund(validator.Address(Testnet), NewAssets(3_000_000))
	coll := emu.Fund(alice.addr, NewAssets(5_000_000))

	base := func() *Tx {
		return &Tx{
			Body: TxBody{
				Inputs:  []OutRef{locked.OutRef},
				Outputs: []Output{{Address: alice.addr, Assets: NewAssets(2_800_000)}},
				Fee:     200_000,
			},
			Witnesses: Witnesses{Scripts: []Script{validator}},
		}
	}

	tx := base()
	alice.sign(t, tx)
	raw, err := tx.Bytes()
	require.NoError(t, err)
	_, err = emu.Submit(ctx, raw)
	assert.ErrorIs(t, err, ErrMissingRedeemer)

	tx = base()
	tx.Witnesses.Redeemers = []Redeemer{{Tag: RedeemerSpend, Index: 0, Data: []byte{0xd8, 0x79, 0x80}}}
	alice.sign(t, tx)
	raw, err = tx.Bytes()
	require.NoError(t, err)
	_, err = emu.Submit(ctx, raw)
	assert.ErrorIs(t, err, ErrMissingCollateral)

	tx = base()
	tx.Body.Collateral = []OutRef{coll.OutRef}
	tx.Witnesses.Redeemers = []Redeemer{{Tag: RedeemerSpend, Index: 0, Data: []byte{0xd8, 0x79, 0x80}}}
	alice.sign(t, tx)
	raw, err = tx.Bytes()
	require.NoError(t, err)
	_, err = emu.Submit(ctx, raw)
	require.NoError(t, err)
}
