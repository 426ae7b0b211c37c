package protocol

import (
	"errors"

	"github.com/bitfsorg/linkedlist-go/tx"
)

// Error kinds. Every operation error wraps exactly one of them, so callers
// can classify failures with errors.Is or KindOf.
var (
	// ErrMissingInput indicates an expected seed, head, node or accumulator
	// output was not found. Re-query and retry.
	ErrMissingInput = errors.New("protocol: missing input")

	// ErrMissingDatum indicates an output was found but its datum is absent
	// or does not decode. The output is corrupt or foreign.
	ErrMissingDatum = errors.New("protocol: missing or malformed datum")

	// ErrInvariantViolation indicates the on-chain state breaks a protocol
	// invariant, such as a key with no covering node.
	ErrInvariantViolation = errors.New("protocol: invariant violation")

	// ErrWalletEmpty indicates the caller has no spendable output to pay fees.
	ErrWalletEmpty = tx.ErrWalletEmpty

	// ErrBuildFailure indicates transaction assembly rejected the composed
	// transaction. It wraps the underlying cause.
	ErrBuildFailure = tx.ErrBuildFailure

	// ErrInvalidParams indicates a request or parameter set is unusable.
	ErrInvalidParams = errors.New("protocol: invalid parameters")

	// ErrOutsideWindow indicates the operation is not allowed at the current
	// time relative to the deadline.
	ErrOutsideWindow = errors.New("protocol: outside time window")
)

var kinds = []error{
	ErrMissingInput,
	ErrMissingDatum,
	ErrInvariantViolation,
	ErrWalletEmpty,
	ErrBuildFailure,
	ErrInvalidParams,
	ErrOutsideWindow,
}

// KindOf returns the kind err belongs to, or nil if it carries none.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
