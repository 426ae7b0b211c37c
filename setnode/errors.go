package setnode

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/protocol"
)

func kind(k error, msg string) error {
	return fmt.Errorf("%w: %w", k, errors.New("setnode: "+msg))
}

var (
	// ErrSeedNotFound indicates the init seed output is spent or unknown.
	ErrSeedNotFound = kind(protocol.ErrMissingInput, "seed output not found")

	// ErrHeadNotFound indicates no output carries the origin marker.
	ErrHeadNotFound = kind(protocol.ErrMissingInput, "head node not found")

	// ErrNodeNotFound indicates no live node has the requested key.
	ErrNodeNotFound = kind(protocol.ErrMissingInput, "node not found")

	// ErrNoPredecessor indicates no live node points at the requested key.
	ErrNoPredecessor = kind(protocol.ErrMissingInput, "predecessor not found")

	// ErrNoCoveringNode indicates no live node brackets the key.
	ErrNoCoveringNode = kind(protocol.ErrInvariantViolation, "no covering node")

	// ErrDuplicateKey indicates two live nodes share a key.
	ErrDuplicateKey = kind(protocol.ErrInvariantViolation, "duplicate node key")

	// ErrBrokenChain indicates the nodes do not form one sorted chain.
	ErrBrokenChain = kind(protocol.ErrInvariantViolation, "broken chain")

	// ErrMarkerMismatch indicates a node's marker does not name its key.
	ErrMarkerMismatch = kind(protocol.ErrInvariantViolation, "marker does not match key")

	// ErrVariantMismatch indicates a node datum of the other variant.
	ErrVariantMismatch = kind(protocol.ErrInvariantViolation, "node variant mismatch")

	// ErrAlreadyInitialized indicates the origin marker already exists.
	ErrAlreadyInitialized = kind(protocol.ErrInvariantViolation, "set already initialized")

	// ErrSetNotEmpty indicates the head still points at a node.
	ErrSetNotEmpty = kind(protocol.ErrInvariantViolation, "set not empty")

	// ErrKeyExists indicates the caller already has a node.
	ErrKeyExists = kind(protocol.ErrInvalidParams, "key already in set")

	// ErrBelowMinCommitment indicates a commitment under the protocol minimum.
	ErrBelowMinCommitment = kind(protocol.ErrInvalidParams, "commitment below minimum")
)
