package reward

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/protocol"
)

var (
	// ErrZeroTotalCommitted indicates the reward fold recorded no committed value.
	ErrZeroTotalCommitted = fmt.Errorf("%w: %w", protocol.ErrInvariantViolation,
		errors.New("reward: zero total committed"))

	// ErrNegativeCommitment indicates a node holds less than its floor.
	ErrNegativeCommitment = fmt.Errorf("%w: %w", protocol.ErrInvariantViolation,
		errors.New("reward: negative node commitment"))

	// ErrOvercommitted indicates node commitments exceed the recorded total.
	ErrOvercommitted = fmt.Errorf("%w: %w", protocol.ErrInvariantViolation,
		errors.New("reward: commitments exceed total committed"))

	// ErrNegativeSupply indicates a negative reward supply.
	ErrNegativeSupply = fmt.Errorf("%w: %w", protocol.ErrInvalidParams,
		errors.New("reward: negative token supply"))
)
