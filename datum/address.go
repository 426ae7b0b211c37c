package datum

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
)

func credentialData(c ledger.Credential) plutus.Data {
	idx := uint64(0)
	if c.Type == ledger.ScriptCredential {
		idx = 1
	}
	return plutus.NewConstr(idx, plutus.Bytes(c.Hash.Bytes()))
}

func decodeCredential(d plutus.Data) (ledger.Credential, error) {
	c, err := plutus.AsAnyConstr(d)
	if err != nil {
		return ledger.Credential{}, err
	}
	if c.Index > 1 || len(c.Fields) != 1 {
		return ledger.Credential{}, fmt.Errorf("%w: credential %d/%d", ErrUnknownConstructor, c.Index, len(c.Fields))
	}
	b, err := plutus.AsBytes(c.Fields[0])
	if err != nil {
		return ledger.Credential{}, err
	}
	h, err := ledger.Hash28FromBytes(b)
	if err != nil {
		return ledger.Credential{}, err
	}
	t := ledger.KeyCredential
	if c.Index == 1 {
		t = ledger.ScriptCredential
	}
	return ledger.Credential{Type: t, Hash: h}, nil
}

// AddressData converts a ledger address to its on-chain form:
// Constr 0 [credential, Maybe (StakingHash credential)].
func AddressData(a ledger.Address) plutus.Data {
	stake := plutus.Data(plutus.NewConstr(1))
	if a.Stake != nil {
		stake = plutus.NewConstr(0, plutus.NewConstr(0, credentialData(*a.Stake)))
	}
	return plutus.NewConstr(0, credentialData(a.Payment), stake)
}

// DecodeAddress converts an on-chain address back to a ledger address on
// network. Pointer stake credentials are rejected.
func DecodeAddress(d plutus.Data, network ledger.Network) (ledger.Address, error) {
	c, err := plutus.AsConstr(d, 0, 2)
	if err != nil {
		return ledger.Address{}, fmt.Errorf("%w: address: %w", ErrMalformed, err)
	}
	pay, err := decodeCredential(c.Fields[0])
	if err != nil {
		return ledger.Address{}, fmt.Errorf("%w: payment credential: %w", ErrMalformed, err)
	}
	addr := ledger.Address{Network: network, Payment: pay}

	maybe, err := plutus.AsAnyConstr(c.Fields[1])
	if err != nil {
		return ledger.Address{}, fmt.Errorf("%w: stake part: %w", ErrMalformed, err)
	}
	switch {
	case maybe.Index == 1 && len(maybe.Fields) == 0:
		return addr, nil
	case maybe.Index == 0 && len(maybe.Fields) == 1:
		sc, err := plutus.AsAnyConstr(maybe.Fields[0])
		if err != nil {
			return ledger.Address{}, fmt.Errorf("%w: staking credential: %w", ErrMalformed, err)
		}
		if sc.Index == 1 {
			return ledger.Address{}, fmt.Errorf("%w: stake pointer", ErrUnsupportedAddress)
		}
		if sc.Index != 0 || len(sc.Fields) != 1 {
			return ledger.Address{}, fmt.Errorf("%w: staking credential %d", ErrUnknownConstructor, sc.Index)
		}
		stake, err := decodeCredential(sc.Fields[0])
		if err != nil {
			return ledger.Address{}, fmt.Errorf("%w: stake credential: %w", ErrMalformed, err)
		}
		addr.Stake = &stake
		return addr, nil
	default:
		return ledger.Address{}, fmt.Errorf("%w: maybe %d", ErrUnknownConstructor, maybe.Index)
	}
}
