package scripts

import "errors"

var (
	// ErrUnknownRole indicates a role name outside the protocol's script set.
	ErrUnknownRole = errors.New("scripts: unknown role")

	// ErrMissingRole indicates the set has no script for a role.
	ErrMissingRole = errors.New("scripts: missing script for role")

	// ErrInvalidManifest indicates the manifest could not be parsed.
	ErrInvalidManifest = errors.New("scripts: invalid manifest")

	// ErrNotFound indicates no reference output is registered for a role.
	ErrNotFound = errors.New("scripts: reference not found")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("scripts: required parameter is nil")
)
