package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hash28Len is the size of key hashes, script hashes and policy ids.
const Hash28Len = 28

// Hash28 is a 224-bit blake2b digest.
type Hash28 [Hash28Len]byte

// TxHash is the 256-bit blake2b digest of a transaction body.
type TxHash [32]byte

// String returns lowercase hex.
func (h Hash28) String() string { return hex.EncodeToString(h[:]) }

// Bytes returns a copy of the hash bytes.
func (h Hash28) Bytes() []byte { return append([]byte(nil), h[:]...) }

// IsZero reports whether every byte is zero.
func (h Hash28) IsZero() bool { return h == Hash28{} }

// String returns lowercase hex.
func (h TxHash) String() string { return hex.EncodeToString(h[:]) }

// Hash28FromBytes copies b into a Hash28.
func Hash28FromBytes(b []byte) (Hash28, error) {
	var h Hash28
	if len(b) != Hash28Len {
		return h, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidHash, Hash28Len, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ParseHash28 parses a hex string, accepting either case.
func ParseHash28(s string) (Hash28, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Hash28{}, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return Hash28FromBytes(b)
}

// TxHashFromBytes copies b into a TxHash.
func TxHashFromBytes(b []byte) (TxHash, error) {
	var h TxHash
	if len(b) != len(h) {
		return h, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidHash, len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// ParseTxHash parses a hex transaction hash.
func ParseTxHash(s string) (TxHash, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return TxHash{}, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return TxHashFromBytes(b)
}

// Blake2b224 hashes the concatenation of parts.
func Blake2b224(parts ...[]byte) Hash28 {
	h, err := blake2b.New(Hash28Len, nil)
	if err != nil {
		// Only fails for sizes outside 1..64 or oversized keys.
		panic(err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash28
	copy(out[:], h.Sum(nil))
	return out
}

// Blake2b256 hashes data.
func Blake2b256(data []byte) TxHash {
	return TxHash(blake2b.Sum256(data))
}

// KeyHash returns the payment key hash of a serialized public key.
func KeyHash(pubKey []byte) Hash28 {
	return Blake2b224(pubKey)
}
