package ledger

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Unit identifies an asset: "lovelace" or hex(policy id) ++ hex(asset name).
type Unit string

// Lovelace is the unit of the native currency.
const Lovelace Unit = "lovelace"

// MaxAssetNameLen is the longest permitted asset name.
const MaxAssetNameLen = 32

// NewUnit builds the unit for a policy and asset name.
func NewUnit(policy Hash28, name []byte) Unit {
	return Unit(policy.String() + hex.EncodeToString(name))
}

// ParseUnit canonicalises a unit string (lowercase hex) and validates it.
func ParseUnit(s string) (Unit, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == string(Lovelace) {
		return Lovelace, nil
	}
	u := Unit(s)
	if _, _, err := u.Split(); err != nil {
		return "", err
	}
	return u, nil
}

// Split returns the policy id and asset name of a non-lovelace unit.
func (u Unit) Split() (Hash28, []byte, error) {
	if u == Lovelace {
		return Hash28{}, nil, fmt.Errorf("%w: lovelace has no policy", ErrInvalidUnit)
	}
	s := string(u)
	if len(s) < 2*Hash28Len || len(s)%2 != 0 {
		return Hash28{}, nil, fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	policy, err := ParseHash28(s[:2*Hash28Len])
	if err != nil {
		return Hash28{}, nil, fmt.Errorf("%w: %q: %w", ErrInvalidUnit, s, err)
	}
	name, err := hex.DecodeString(s[2*Hash28Len:])
	if err != nil {
		return Hash28{}, nil, fmt.Errorf("%w: %q: %w", ErrInvalidUnit, s, err)
	}
	if len(name) > MaxAssetNameLen {
		return Hash28{}, nil, fmt.Errorf("%w: asset name longer than %d bytes", ErrInvalidUnit, MaxAssetNameLen)
	}
	return policy, name, nil
}

// Policy returns the policy id part of the unit, or false for lovelace.
func (u Unit) Policy() (Hash28, bool) {
	p, _, err := u.Split()
	return p, err == nil
}

// Assets is a multi-asset value. Quantities may be negative while computing
// balances and mint maps; outputs only ever hold positive quantities.
type Assets map[Unit]int64

// NewAssets returns a value holding only lovelace.
func NewAssets(lovelace int64) Assets {
	return Assets{Lovelace: lovelace}
}

// With returns a copy of a with qty of unit added.
func (a Assets) With(unit Unit, qty int64) Assets {
	out := a.Clone()
	out[unit] += qty
	return out.Compact()
}

// Lovelace returns the lovelace quantity.
func (a Assets) Lovelace() int64 { return a[Lovelace] }

// Amount returns the quantity of unit.
func (a Assets) Amount(unit Unit) int64 { return a[unit] }

// Clone returns a copy.
func (a Assets) Clone() Assets {
	out := make(Assets, len(a))
	for u, q := range a {
		out[u] = q
	}
	return out
}

// Add returns a + b.
func (a Assets) Add(b Assets) Assets {
	out := a.Clone()
	for u, q := range b {
		out[u] += q
	}
	return out.Compact()
}

// Sub returns a - b.
func (a Assets) Sub(b Assets) Assets {
	out := a.Clone()
	for u, q := range b {
		out[u] -= q
	}
	return out.Compact()
}

// Compact drops zero quantities in place and returns a.
func (a Assets) Compact() Assets {
	for u, q := range a {
		if q == 0 {
			delete(a, u)
		}
	}
	return a
}

// IsZero reports whether every quantity is zero.
func (a Assets) IsZero() bool {
	for _, q := range a {
		if q != 0 {
			return false
		}
	}
	return true
}

// Covers reports whether a holds at least b of every unit.
func (a Assets) Covers(b Assets) bool {
	for u, q := range b {
		if a[u] < q {
			return false
		}
	}
	return true
}

// Positive returns only the units with a positive quantity.
func (a Assets) Positive() Assets {
	out := Assets{}
	for u, q := range a {
		if q > 0 {
			out[u] = q
		}
	}
	return out
}

// Negative returns the absolute quantities of the units below zero.
func (a Assets) Negative() Assets {
	out := Assets{}
	for u, q := range a {
		if q < 0 {
			out[u] = -q
		}
	}
	return out
}

// Equal reports whether a and b hold the same quantities.
func (a Assets) Equal(b Assets) bool {
	return a.Sub(b).IsZero()
}

// Units returns the non-zero units in sorted order, lovelace first.
func (a Assets) Units() []Unit {
	units := make([]Unit, 0, len(a))
	for u, q := range a {
		if q != 0 {
			units = append(units, u)
		}
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i] == Lovelace {
			return units[j] != Lovelace
		}
		if units[j] == Lovelace {
			return false
		}
		return units[i] < units[j]
	})
	return units
}

// OfPolicy returns the units of a held under policy.
func (a Assets) OfPolicy(policy Hash28) []Unit {
	var out []Unit
	for _, u := range a.Units() {
		if p, ok := u.Policy(); ok && p == policy {
			out = append(out, u)
		}
	}
	return out
}

// String renders the value deterministically, e.g. "lovelace:2000000 ab..cd:1".
func (a Assets) String() string {
	parts := make([]string, 0, len(a))
	for _, u := range a.Units() {
		parts = append(parts, fmt.Sprintf("%s:%d", u, a[u]))
	}
	return strings.Join(parts, " ")
}
