package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
)

const (
	// Purpose and coin type of the derivation path.
	Purpose  = 1852
	CoinType = 1815

	// Roles under an account.
	PaymentRole = 0
	OwnerRole   = 2

	// Hardened is the BIP32 hardened offset.
	Hardened = 0x80000000
)

// Wallet derives operator keys from a BIP39 seed.
type Wallet struct {
	master  *bip32.ExtendedKey
	network ledger.Network
}

// Key is a derived signing key with its enterprise address.
type Key struct {
	Private *ec.PrivateKey
	Hash    ledger.Hash28
	Address ledger.Address
	Path    string
}

// Caller returns the key as an operation caller using the provider clock.
func (k *Key) Caller() protocol.Caller {
	return protocol.Caller{Address: k.Address}
}

// NewWallet creates a Wallet whose addresses are on network.
func NewWallet(seed []byte, network ledger.Network) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	params := &chaincfg.TestNet
	if network == ledger.Mainnet {
		params = &chaincfg.MainNet
	}
	master, err := bip32.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{master: master, network: network}, nil
}

// Network returns the network addresses are built for.
func (w *Wallet) Network() ledger.Network { return w.network }

// PaymentKey derives m/1852'/1815'/account'/0/index.
func (w *Wallet) PaymentKey(account, index uint32) (*Key, error) {
	return w.derive(account, PaymentRole, index)
}

// OwnerKey derives m/1852'/1815'/account'/2/index.
func (w *Wallet) OwnerKey(account, index uint32) (*Key, error) {
	return w.derive(account, OwnerRole, index)
}

func (w *Wallet) derive(account, role, index uint32) (*Key, error) {
	if account >= Hardened || index >= Hardened {
		return nil, ErrIndexOutOfRange
	}

	path := []uint32{Purpose + Hardened, CoinType + Hardened, account + Hardened, role, index}
	current := w.master
	for depth, child := range path {
		next, err := current.Child(child)
		if err != nil {
			return nil, fmt.Errorf("%w: depth %d: %w", ErrDerivationFailed, depth, err)
		}
		current = next
	}

	priv, err := current.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract EC private key: %w", ErrDerivationFailed, err)
	}
	h := ledger.KeyHash(priv.PubKey().Compressed())
	return &Key{
		Private: priv,
		Hash:    h,
		Address: ledger.EnterpriseAddress(w.network, ledger.KeyCred(h)),
		Path:    fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", Purpose, CoinType, account, role, index),
	}, nil
}
