package datum

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/plutus"
)

// NodeKey identifies a participant. The empty key is absent: the head's key
// and the tail's next.
type NodeKey []byte

// KeyLen is the length of a participant key (a payment key hash).
const KeyLen = ledger.Hash28Len

// KeyFromHash returns the node key for a payment key hash.
func KeyFromHash(h ledger.Hash28) NodeKey { return NodeKey(h.Bytes()) }

// ParseKey canonicalises a hex key. The empty string is the absent key.
func ParseKey(s string) (NodeKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return NodeKey(b), nil
}

// IsAbsent reports whether k is the absent key.
func (k NodeKey) IsAbsent() bool { return len(k) == 0 }

// Equal compares keys bytewise; two absent keys are equal.
func (k NodeKey) Equal(o NodeKey) bool { return bytes.Equal(k, o) }

// String returns hex, or "-" for the absent key.
func (k NodeKey) String() string {
	if k.IsAbsent() {
		return "-"
	}
	return hex.EncodeToString(k)
}

// Data encodes the key as Key [bytes] or Empty.
func (k NodeKey) Data() plutus.Data {
	if k.IsAbsent() {
		return plutus.NewConstr(1)
	}
	return plutus.NewConstr(0, plutus.Bytes(k))
}

// DecodeKey decodes Key [bytes] / Empty.
func DecodeKey(d plutus.Data) (NodeKey, error) {
	c, err := plutus.AsAnyConstr(d)
	if err != nil {
		return nil, fmt.Errorf("%w: node key: %w", ErrMalformed, err)
	}
	switch c.Index {
	case 0:
		if len(c.Fields) != 1 {
			return nil, fmt.Errorf("%w: node key has %d fields", ErrMalformed, len(c.Fields))
		}
		b, err := plutus.AsBytes(c.Fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: node key: %w", ErrMalformed, err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("%w: present key is empty", ErrInvalidKey)
		}
		return NodeKey(b), nil
	case 1:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: node key %d", ErrUnknownConstructor, c.Index)
	}
}

// Less orders keys bytewise. It is only meaningful for present keys; callers
// handle the absent bounds explicitly.
func Less(a, b NodeKey) bool { return bytes.Compare(a, b) < 0 }

// Covers reports whether node brackets k: the absent key is -inf on the left
// and +inf on the right.
func Covers(node SetNode, k NodeKey) bool {
	return (node.Key.IsAbsent() || Less(node.Key, k)) &&
		(node.Next.IsAbsent() || Less(k, node.Next))
}
