package ledger

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Network is the network id carried in the address header.
type Network byte

const (
	// Testnet covers the preview and preprod test networks.
	Testnet Network = 0
	// Mainnet is the production network.
	Mainnet Network = 1
)

// CredentialType distinguishes key credentials from script credentials.
type CredentialType byte

const (
	// KeyCredential is locked by a verification key hash.
	KeyCredential CredentialType = 0
	// ScriptCredential is locked by a script hash.
	ScriptCredential CredentialType = 1
)

// Credential is a payment or staking credential.
type Credential struct {
	Type CredentialType
	Hash Hash28
}

// KeyCred builds a key credential.
func KeyCred(h Hash28) Credential { return Credential{Type: KeyCredential, Hash: h} }

// ScriptCred builds a script credential.
func ScriptCred(h Hash28) Credential { return Credential{Type: ScriptCredential, Hash: h} }

// Address is a shelley address: a payment credential and an optional stake
// credential. Pointer and bootstrap addresses are not supported.
type Address struct {
	Network Network
	Payment Credential
	Stake   *Credential
}

// Address header types (upper nibble of the first byte).
const (
	hdrBaseKeyKey       = 0x0
	hdrBaseScriptKey    = 0x1
	hdrBaseKeyScript    = 0x2
	hdrBaseScriptScript = 0x3
	hdrEnterpriseKey    = 0x6
	hdrEnterpriseScript = 0x7

	hrpMainnet = "addr"
	hrpTestnet = "addr_test"
)

// EnterpriseAddress builds an address without a stake part.
func EnterpriseAddress(network Network, payment Credential) Address {
	return Address{Network: network, Payment: payment}
}

// BaseAddress builds an address with a stake credential.
func BaseAddress(network Network, payment, stake Credential) Address {
	return Address{Network: network, Payment: payment, Stake: &stake}
}

// Bytes returns the binary address.
func (a Address) Bytes() []byte {
	var hdr byte
	switch {
	case a.Stake == nil && a.Payment.Type == KeyCredential:
		hdr = hdrEnterpriseKey
	case a.Stake == nil:
		hdr = hdrEnterpriseScript
	case a.Payment.Type == KeyCredential && a.Stake.Type == KeyCredential:
		hdr = hdrBaseKeyKey
	case a.Payment.Type == ScriptCredential && a.Stake.Type == KeyCredential:
		hdr = hdrBaseScriptKey
	case a.Payment.Type == KeyCredential:
		hdr = hdrBaseKeyScript
	default:
		hdr = hdrBaseScriptScript
	}

	out := make([]byte, 0, 1+2*Hash28Len)
	out = append(out, hdr<<4|byte(a.Network&0x0f))
	out = append(out, a.Payment.Hash[:]...)
	if a.Stake != nil {
		out = append(out, a.Stake.Hash[:]...)
	}
	return out
}

// String returns the bech32 form of the address.
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.Bytes(), 8, 5, true)
	if err != nil {
		return ""
	}
	s, err := bech32.Encode(a.hrp(), conv)
	if err != nil {
		return ""
	}
	return s
}

func (a Address) hrp() string {
	if a.Network == Mainnet {
		return hrpMainnet
	}
	return hrpTestnet
}

// Equal compares two addresses by their binary form.
func (a Address) Equal(b Address) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool {
	return a.Payment.Hash.IsZero() && a.Stake == nil
}

// PaymentKeyHash returns the payment key hash, or false for script addresses.
func (a Address) PaymentKeyHash() (Hash28, bool) {
	if a.Payment.Type != KeyCredential {
		return Hash28{}, false
	}
	return a.Payment.Hash, true
}

// ParseAddress decodes a bech32 shelley address.
func ParseAddress(s string) (Address, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if hrp != hrpMainnet && hrp != hrpTestnet {
		return Address{}, fmt.Errorf("%w: unexpected prefix %q", ErrInvalidAddress, hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	addr, err := AddressFromBytes(raw)
	if err != nil {
		return Address{}, err
	}
	if addr.hrp() != hrp {
		return Address{}, fmt.Errorf("%w: prefix %q does not match network %d", ErrInvalidAddress, hrp, addr.Network)
	}
	return addr, nil
}

// AddressFromBytes decodes a binary shelley address.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) == 0 {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	hdr := b[0] >> 4
	network := Network(b[0] & 0x0f)
	body := b[1:]

	cred := func(t CredentialType, raw []byte) Credential {
		var h Hash28
		copy(h[:], raw)
		return Credential{Type: t, Hash: h}
	}

	switch hdr {
	case hdrEnterpriseKey, hdrEnterpriseScript:
		if len(body) != Hash28Len {
			return Address{}, fmt.Errorf("%w: enterprise address length %d", ErrInvalidAddress, len(b))
		}
		pt := KeyCredential
		if hdr == hdrEnterpriseScript {
			pt = ScriptCredential
		}
		return Address{Network: network, Payment: cred(pt, body)}, nil
	case hdrBaseKeyKey, hdrBaseScriptKey, hdrBaseKeyScript, hdrBaseScriptScript:
		if len(body) != 2*Hash28Len {
			return Address{}, fmt.Errorf("%w: base address length %d", ErrInvalidAddress, len(b))
		}
		pt, st := KeyCredential, KeyCredential
		if hdr == hdrBaseScriptKey || hdr == hdrBaseScriptScript {
			pt = ScriptCredential
		}
		if hdr == hdrBaseKeyScript || hdr == hdrBaseScriptScript {
			st = ScriptCredential
		}
		stake := cred(st, body[Hash28Len:])
		return Address{Network: network, Payment: cred(pt, body[:Hash28Len]), Stake: &stake}, nil
	default:
		return Address{}, fmt.Errorf("%w: unsupported header type %d", ErrInvalidAddress, hdr)
	}
}
