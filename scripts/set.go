// Package scripts holds the compiled validator and minting-policy artifacts
// of the protocol, keyed by role, and the registry of their published
// reference outputs.
package scripts

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
)

// Role names one script of the protocol.
type Role string

const (
	NodeValidator        Role = "node_validator"
	NodePolicy           Role = "node_policy"
	CommitFoldValidator  Role = "commit_fold_validator"
	CommitFoldPolicy     Role = "commit_fold_policy"
	RewardFoldValidator  Role = "reward_fold_validator"
	RewardFoldPolicy     Role = "reward_fold_policy"
	TokenHolderValidator Role = "token_holder_validator"
	TokenHolderPolicy    Role = "token_holder_policy"
	AlwaysFails          Role = "always_fails"
)

// Roles lists every role in a fixed order.
var Roles = []Role{
	NodeValidator, NodePolicy,
	CommitFoldValidator, CommitFoldPolicy,
	RewardFoldValidator, RewardFoldPolicy,
	TokenHolderValidator, TokenHolderPolicy,
	AlwaysFails,
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Set is the protocol's script set on one network. Scripts are opaque,
// already parameterised artifacts.
type Set struct {
	Network ledger.Network
	scripts map[Role]ledger.Script
}

// NewSet builds a set from role-keyed scripts. Every role in Roles must be
// present.
func NewSet(network ledger.Network, scripts map[Role]ledger.Script) (*Set, error) {
	s := &Set{Network: network, scripts: make(map[Role]ledger.Script, len(scripts))}
	for role, script := range scripts {
		if _, err := ParseRole(string(role)); err != nil {
			return nil, err
		}
		if script.IsZero() {
			return nil, fmt.Errorf("%w: %s is empty", ErrMissingRole, role)
		}
		s.scripts[role] = script
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports the first role without a script.
func (s *Set) Validate() error {
	for _, r := range Roles {
		if _, ok := s.scripts[r]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRole, r)
		}
	}
	return nil
}

// Has reports whether role has a script.
func (s *Set) Has(role Role) bool {
	_, ok := s.scripts[role]
	return ok
}

// Script returns the script for role. Sets from NewSet hold every role; it
// panics only on a zero Set.
func (s *Set) Script(role Role) ledger.Script {
	sc, ok := s.scripts[role]
	if !ok {
		panic(fmt.Sprintf("scripts: no script for role %s", role))
	}
	return sc
}

// Hash returns the script hash of role, which is the policy id for policies.
func (s *Set) Hash(role Role) ledger.Hash28 { return s.Script(role).Hash() }

// Address returns the enterprise address locked by role's validator.
func (s *Set) Address(role Role) ledger.Address { return s.Script(role).Address(s.Network) }

// NodeUnit returns the marker unit of the node with key k; the absent key
// gives the origin marker.
func (s *Set) NodeUnit(k datum.NodeKey) ledger.Unit {
	return ledger.NewUnit(s.Hash(NodePolicy), datum.NodeTokenName(k))
}

// OriginUnit returns the head node's marker unit.
func (s *Set) OriginUnit() ledger.Unit { return s.NodeUnit(nil) }

// CommitFoldUnit returns the commitment accumulator marker unit.
func (s *Set) CommitFoldUnit() ledger.Unit {
	return ledger.NewUnit(s.Hash(CommitFoldPolicy), []byte(datum.CommitFoldTokenName))
}

// RewardFoldUnit returns the reward accumulator marker unit.
func (s *Set) RewardFoldUnit() ledger.Unit {
	return ledger.NewUnit(s.Hash(RewardFoldPolicy), []byte(datum.RewardFoldTokenName))
}

// TokenHolderUnit returns the token holder marker unit.
func (s *Set) TokenHolderUnit() ledger.Unit {
	return ledger.NewUnit(s.Hash(TokenHolderPolicy), []byte(datum.TokenHolderTokenName))
}
