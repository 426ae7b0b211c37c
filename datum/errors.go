package datum

import "errors"

var (
	// ErrMalformed indicates a structured value does not match the expected
	// protocol form.
	ErrMalformed = errors.New("datum: malformed structured value")

	// ErrUnknownConstructor indicates a sum type tag outside the closed set.
	ErrUnknownConstructor = errors.New("datum: unknown constructor")

	// ErrInvalidKey indicates a node key that is not a valid participant key.
	ErrInvalidKey = errors.New("datum: invalid node key")

	// ErrMissing indicates an output carries no inline datum.
	ErrMissing = errors.New("datum: missing inline datum")

	// ErrUnsupportedAddress indicates an on-chain address form with no ledger
	// equivalent, such as a pointer stake credential.
	ErrUnsupportedAddress = errors.New("datum: unsupported address form")
)
