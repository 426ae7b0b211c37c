package wallet

import (
	"context"
	"encoding/hex"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/tx"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testWallet(t *testing.T, network ledger.Network) *Wallet {
	t.Helper()
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	w, err := NewWallet(seed, network)
	require.NoError(t, err)
	return w
}

// --- Mnemonic tests ---

func TestGenerateMnemonic(t *testing.T) {
	for bits, words := range map[int]int{Mnemonic12Words: 12, Mnemonic24Words: 24} {
		m, err := GenerateMnemonic(bits)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(m), words)
		assert.True(t, ValidateMnemonic(m))
	}

	m1, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)
	m2, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)
	assert.NotEqual(t, m1, m2)

	for _, bits := range []int{0, 64, 192, 512} {
		_, err := GenerateMnemonic(bits)
		assert.ErrorIs(t, err, ErrInvalidEntropy, bits)
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 12-word", testMnemonic, true},
		{"bad checksum", strings.Replace(testMnemonic, "about", "abandon", 1), false},
		{"invalid words", "foo bar baz qux quux corge grault garply waldo fred plugh xyzzy", false},
		{"empty", "", false},
		{"partial", "abandon abandon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateMnemonic(tt.mnemonic))
		})
	}
}

// --- Seed tests ---

func TestSeedFromMnemonic_Vector(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	require.NoError(t, err)
	assert.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(seed))

	plain, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.NotEqual(t, seed, plain, "passphrase participates")

	_, err = SeedFromMnemonic("not a mnemonic", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestEncryptDecryptSeed(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	enc, err := EncryptSeed(seed, "hunter2")
	require.NoError(t, err)
	assert.Len(t, enc, SaltLen+NonceLen+len(seed)+ChecksumLen+16)

	got, err := DecryptSeed(enc, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	again, err := EncryptSeed(seed, "hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, enc, again, "fresh salt and nonce")

	_, err = DecryptSeed(enc, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = DecryptSeed(enc[:SaltLen+NonceLen+ChecksumLen-1], "hunter2")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	tampered := append([]byte(nil), enc...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = DecryptSeed(tampered, "hunter2")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = EncryptSeed(nil, "hunter2")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

// --- Derivation tests ---

func TestDerive(t *testing.T) {
	w := testWallet(t, ledger.Testnet)

	k, err := w.PaymentKey(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "m/1852'/1815'/0'/0/0", k.Path)
	assert.Equal(t, ledger.KeyHash(k.Private.PubKey().Compressed()), k.Hash)
	h, ok := k.Address.PaymentKeyHash()
	require.True(t, ok)
	assert.Equal(t, k.Hash, h)
	assert.True(t, k.Caller().Address.Equal(k.Address))

	same, err := testWallet(t, ledger.Testnet).PaymentKey(0, 0)
	require.NoError(t, err)
	assert.Equal(t, k.Hash, same.Hash, "deterministic")

	seen := map[ledger.Hash28]string{k.Hash: k.Path}
	for _, derive := range []func() (*Key, error){
		func() (*Key, error) { return w.PaymentKey(0, 1) },
		func() (*Key, error) { return w.PaymentKey(1, 0) },
		func() (*Key, error) { return w.OwnerKey(0, 0) },
	} {
		other, err := derive()
		require.NoError(t, err)
		_, dup := seen[other.Hash]
		assert.False(t, dup, other.Path)
		seen[other.Hash] = other.Path
	}

	owner, err := w.OwnerKey(3, 7)
	require.NoError(t, err)
	assert.Equal(t, "m/1852'/1815'/3'/2/7", owner.Path)

	_, err = w.PaymentKey(Hardened, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = w.OwnerKey(0, Hardened)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = NewWallet(nil, ledger.Testnet)
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDerive_Network(t *testing.T) {
	test, err := testWallet(t, ledger.Testnet).PaymentKey(0, 0)
	require.NoError(t, err)
	main, err := testWallet(t, ledger.Mainnet).PaymentKey(0, 0)
	require.NoError(t, err)

	assert.Equal(t, test.Hash, main.Hash, "the key does not depend on the network")
	assert.Equal(t, ledger.Mainnet, main.Address.Network)
	assert.NotEqual(t, test.Address.String(), main.Address.String())
}

func TestKey_SignsTransactions(t *testing.T) {
	ctx := context.Background()
	slots := ledger.SlotConfigs["preview"]
	emu := ledger.NewEmulator(slots, time.UnixMilli(slots.ZeroTime).Add(time.Hour))

	w := testWallet(t, ledger.Testnet)
	from, err := w.PaymentKey(0, 0)
	require.NoError(t, err)
	to, err := w.PaymentKey(0, 1)
	require.NoError(t, err)
	emu.Fund(from.Address, ledger.NewAssets(10_000_000))

	built, err := tx.NewBuilder().
		PayTo(to.Address, ledger.NewAssets(3_000_000)).
		Complete(ctx, emu, tx.Options{ChangeAddress: from.Address, Fees: tx.DefaultFeeParams(), Slots: slots})
	require.NoError(t, err)
	_, err = built.Submit(ctx, emu, from.Private)
	require.NoError(t, err)

	got, err := emu.UtxosAt(ctx, to.Address)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3_000_000), got[0].Assets.Lovelace())
}

// --- Key file tests ---

func TestKeyFile(t *testing.T) {
	dir := t.TempDir()
	path := KeyFilePath(filepath.Join(dir, "operator"))
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	_, err = Open(path, "pw", ledger.Testnet)
	assert.ErrorIs(t, err, ErrKeyFileNotFound)

	require.NoError(t, CreateKeyFile(path, seed, "pw"))
	assert.ErrorIs(t, CreateKeyFile(path, seed, "pw"), ErrKeyFileExists)

	w, err := Open(path, "pw", ledger.Testnet)
	require.NoError(t, err)
	k, err := w.PaymentKey(0, 0)
	require.NoError(t, err)
	want, err := testWallet(t, ledger.Testnet).PaymentKey(0, 0)
	require.NoError(t, err)
	assert.Equal(t, want.Hash, k.Hash)

	_, err = Open(path, "other", ledger.Testnet)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestTryLock(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no cross-process lock on windows")
	}
	path := LockPath(t.TempDir())

	l, err := TryLock(path)
	require.NoError(t, err)
	_, err = TryLock(path)
	assert.Error(t, err, "held")

	l.Release()
	l2, err := TryLock(path)
	require.NoError(t, err)
	l2.Release()
}
