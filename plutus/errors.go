package plutus

import "errors"

var (
	// ErrEmptyInput indicates there were no bytes to decode.
	ErrEmptyInput = errors.New("plutus: empty input")

	// ErrUnsupportedItem indicates a CBOR item that has no structured-value meaning.
	ErrUnsupportedItem = errors.New("plutus: unsupported CBOR item")

	// ErrUnexpectedShape indicates a value did not have the expected constructor,
	// arity or primitive type.
	ErrUnexpectedShape = errors.New("plutus: unexpected data shape")

	// ErrNilData indicates a nil Data value was encoded.
	ErrNilData = errors.New("plutus: nil data")
)
