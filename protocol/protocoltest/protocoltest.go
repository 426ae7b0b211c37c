// Package protocoltest provides an emulated ledger, script set and wallets
// for exercising protocol operations in tests.
package protocoltest

import (
	"context"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// Slots is the slot configuration of the emulated ledger.
var Slots = ledger.SlotConfigs["preview"]

// Start is the emulator's initial clock.
var Start = time.UnixMilli(Slots.ZeroTime).Add(90 * 24 * time.Hour)

// DeadlineOffset is the distance from Start to the protocol deadline.
const DeadlineOffset = 7 * 24 * time.Hour

// Wallet is a key and its enterprise address.
type Wallet struct {
	Key     *ec.PrivateKey
	Hash    ledger.Hash28
	Address ledger.Address
}

// NewWallet creates a fresh key.
func NewWallet(t testing.TB) Wallet {
	t.Helper()
	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	h := ledger.KeyHash(key.PubKey().Compressed())
	return Wallet{Key: key, Hash: h, Address: ledger.EnterpriseAddress(ledger.Testnet, ledger.KeyCred(h))}
}

// Caller returns the wallet as an operation caller using the provider clock.
func (w Wallet) Caller() protocol.Caller {
	return protocol.Caller{Address: w.Address}
}

// Scripts returns a complete set of distinct placeholder PlutusV2 scripts.
func Scripts(t testing.TB) *scripts.Set {
	t.Helper()
	m := make(map[scripts.Role]ledger.Script, len(scripts.Roles))
	for i, r := range scripts.Roles {
		m[r] = ledger.Script{
			Version: ledger.PlutusV2,
			Bytes:   []byte{0x4a, 0x01, 0x00, 0x00, 0x32, 0x22, 0x25, 0x33, 0x00, 0x20, byte(i)},
		}
	}
	s, err := scripts.NewSet(ledger.Testnet, m)
	require.NoError(t, err)
	return s
}

// Fixture is an emulated ledger with an environment bound to it.
type Fixture struct {
	Emulator *ledger.Emulator
	Env      *protocol.Env
	Penalty  Wallet
	Treasury Wallet
}

// New creates a fixture whose deadline is DeadlineOffset after Start.
func New(t testing.TB) *Fixture {
	t.Helper()
	emu := ledger.NewEmulator(Slots, Start)
	penalty, treasury := NewWallet(t), NewWallet(t)

	params := protocol.DefaultParams()
	params.Slots = Slots
	params.Deadline = Start.Add(DeadlineOffset)
	params.PenaltyAddress = penalty.Address
	params.TreasuryAddress = treasury.Address

	env := &protocol.Env{
		Provider: emu,
		Scripts:  Scripts(t),
		Params:   params,
		Log:      zerolog.Nop(),
	}
	require.NoError(t, env.Validate())
	return &Fixture{Emulator: emu, Env: env, Penalty: penalty, Treasury: treasury}
}

// Fund creates a wallet holding lovelace.
func (f *Fixture) Fund(t testing.TB, lovelace int64) Wallet {
	t.Helper()
	w := NewWallet(t)
	f.Emulator.Fund(w.Address, ledger.NewAssets(lovelace))
	return w
}

// Submit signs and applies built.
func (f *Fixture) Submit(t testing.TB, built *tx.Tx, keys ...*ec.PrivateKey) ledger.TxHash {
	t.Helper()
	h, err := built.Submit(context.Background(), f.Emulator, keys...)
	require.NoError(t, err)
	return h
}

// Balance sums the value held at addr.
func (f *Fixture) Balance(t testing.TB, addr ledger.Address) ledger.Assets {
	t.Helper()
	utxos, err := f.Emulator.UtxosAt(context.Background(), addr)
	require.NoError(t, err)
	total := ledger.Assets{}
	for _, u := range utxos {
		total = total.Add(u.Assets)
	}
	return total
}

// At moves the clock to offset from the deadline.
func (f *Fixture) At(offset time.Duration) {
	f.Emulator.SetTime(f.Env.Params.Deadline.Add(offset))
}
