package deploy

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/protocol"
)

var (
	// ErrNotDeployed indicates a registered reference output is spent or unknown.
	ErrNotDeployed = fmt.Errorf("%w: %w", protocol.ErrMissingInput, errors.New("deploy: reference output not found"))

	// ErrScriptMismatch indicates a reference output carries a different script.
	ErrScriptMismatch = fmt.Errorf("%w: %w", protocol.ErrInvariantViolation, errors.New("deploy: reference script mismatch"))

	// ErrInvalidName indicates an empty or over-long marker name.
	ErrInvalidName = fmt.Errorf("%w: %w", protocol.ErrInvalidParams, errors.New("deploy: invalid marker name"))
)
