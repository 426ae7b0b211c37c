package ledger

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ScriptVersion is the script language tag used as the hash prefix.
type ScriptVersion byte

const (
	NativeScriptVersion ScriptVersion = 0
	PlutusV1            ScriptVersion = 1
	PlutusV2            ScriptVersion = 2
	PlutusV3            ScriptVersion = 3
)

// Script is a compiled script. For Plutus scripts Bytes is the flat-encoded
// program wrapped in a CBOR byte string; for native scripts it is the native
// script CBOR.
type Script struct {
	Version ScriptVersion
	Bytes   []byte
}

// Hash returns the script hash, which is also the policy id for minting
// scripts.
func (s Script) Hash() Hash28 {
	return Blake2b224([]byte{byte(s.Version)}, s.Bytes)
}

// Address returns the enterprise script address on network.
func (s Script) Address(network Network) Address {
	return EnterpriseAddress(network, ScriptCred(s.Hash()))
}

// IsZero reports whether no script bytes are set.
func (s Script) IsZero() bool { return len(s.Bytes) == 0 }

// Native script constructors.
const (
	nativePubKey           = 0
	nativeAll              = 1
	nativeAny              = 2
	nativeInvalidBefore    = 4
	nativeInvalidHereafter = 5
)

// NativeScript is a multi-signature / timelock script.
type NativeScript struct {
	kind    int
	keyHash Hash28
	slot    uint64
	scripts []NativeScript
}

// NativePubKey requires a signature from keyHash.
func NativePubKey(keyHash Hash28) NativeScript {
	return NativeScript{kind: nativePubKey, keyHash: keyHash}
}

// NativeAll requires every sub-script.
func NativeAll(scripts ...NativeScript) NativeScript {
	return NativeScript{kind: nativeAll, scripts: scripts}
}

// NativeAny requires at least one sub-script.
func NativeAny(scripts ...NativeScript) NativeScript {
	return NativeScript{kind: nativeAny, scripts: scripts}
}

// NativeAfter requires the validity interval to start at or after slot.
func NativeAfter(slot uint64) NativeScript {
	return NativeScript{kind: nativeInvalidBefore, slot: slot}
}

// NativeBefore requires the validity interval to end at or before slot.
func NativeBefore(slot uint64) NativeScript {
	return NativeScript{kind: nativeInvalidHereafter, slot: slot}
}

func (n NativeScript) wire() []interface{} {
	switch n.kind {
	case nativePubKey:
		return []interface{}{n.kind, n.keyHash[:]}
	case nativeAll, nativeAny:
		subs := make([]interface{}, len(n.scripts))
		for i, s := range n.scripts {
			subs[i] = s.wire()
		}
		return []interface{}{n.kind, subs}
	default:
		return []interface{}{n.kind, n.slot}
	}
}

// Script encodes the native script.
func (n NativeScript) Script() (Script, error) {
	b, err := cbor.Marshal(n.wire())
	if err != nil {
		return Script{}, fmt.Errorf("ledger: encode native script: %w", err)
	}
	return Script{Version: NativeScriptVersion, Bytes: b}, nil
}
