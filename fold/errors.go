package fold

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/protocol"
)

func kind(k error, msg string) error {
	return fmt.Errorf("%w: %w", k, errors.New("fold: "+msg))
}

var (
	// ErrAccumulatorNotFound indicates no output carries the fold marker.
	ErrAccumulatorNotFound = kind(protocol.ErrMissingInput, "accumulator not found")

	// ErrHolderNotFound indicates no output carries the token holder marker.
	ErrHolderNotFound = kind(protocol.ErrMissingInput, "token holder not found")

	// ErrNodeMissing indicates a node the walk needs is not live.
	ErrNodeMissing = kind(protocol.ErrMissingInput, "node missing from walk")

	// ErrNotContiguous indicates the supplied nodes do not continue the walk.
	ErrNotContiguous = kind(protocol.ErrInvariantViolation, "nodes do not continue the walk")

	// ErrDuplicateAccumulator indicates more than one output carries a marker.
	ErrDuplicateAccumulator = kind(protocol.ErrInvariantViolation, "duplicate accumulator")

	// ErrAlreadyInitialized indicates the accumulator or holder already exists.
	ErrAlreadyInitialized = kind(protocol.ErrInvariantViolation, "already initialized")

	// ErrHolderMismatch indicates the holder value disagrees with its datum.
	ErrHolderMismatch = kind(protocol.ErrInvariantViolation, "token holder value mismatch")

	// ErrFoldComplete indicates the walk already reached the tail.
	ErrFoldComplete = kind(protocol.ErrInvalidParams, "fold complete")

	// ErrFoldIncomplete indicates the walk has not reached the tail.
	ErrFoldIncomplete = kind(protocol.ErrInvalidParams, "fold incomplete")

	// ErrNotOwner indicates the caller does not own the accumulator.
	ErrNotOwner = kind(protocol.ErrInvalidParams, "caller does not own accumulator")

	// ErrEmptyBatch indicates a step with no nodes or a non-positive batch size.
	ErrEmptyBatch = kind(protocol.ErrInvalidParams, "empty batch")

	// ErrInvalidAmount indicates a non-positive token amount.
	ErrInvalidAmount = kind(protocol.ErrInvalidParams, "invalid token amount")

	// ErrUnknownProjectUnit indicates the project token cannot be determined.
	ErrUnknownProjectUnit = kind(protocol.ErrInvalidParams, "project unit unknown")
)
