package ledger

import "errors"

var (
	// ErrInvalidHash indicates a hash has the wrong length or is not hex.
	ErrInvalidHash = errors.New("ledger: invalid hash")

	// ErrInvalidAddress indicates an address could not be parsed.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrInvalidUnit indicates a unit string is malformed.
	ErrInvalidUnit = errors.New("ledger: invalid unit")

	// ErrInvalidOutRef indicates an output reference string is malformed.
	ErrInvalidOutRef = errors.New("ledger: invalid output reference")

	// ErrInvalidTx indicates transaction bytes could not be decoded.
	ErrInvalidTx = errors.New("ledger: invalid transaction")

	// ErrNegativeValue indicates an output carries a negative quantity.
	ErrNegativeValue = errors.New("ledger: negative value")

	// ErrUnknownInput indicates a transaction spends or reads an output that is
	// not in the UTXO set (already spent or never created).
	ErrUnknownInput = errors.New("ledger: unknown or spent input")

	// ErrOutsideValidity indicates the current slot is outside the
	// transaction's validity interval.
	ErrOutsideValidity = errors.New("ledger: outside validity interval")

	// ErrValueNotConserved indicates inputs plus mint differ from outputs plus fee.
	ErrValueNotConserved = errors.New("ledger: value not conserved")

	// ErrMissingSignature indicates a required signer has no valid witness.
	ErrMissingSignature = errors.New("ledger: missing required signature")

	// ErrMissingScript indicates a script-locked input or minted policy has no
	// script in the witness set or among the reference inputs.
	ErrMissingScript = errors.New("ledger: missing script")

	// ErrMissingRedeemer indicates a script execution has no redeemer at its
	// expected index.
	ErrMissingRedeemer = errors.New("ledger: missing redeemer")

	// ErrMissingCollateral indicates scripts run but no collateral was given.
	ErrMissingCollateral = errors.New("ledger: missing collateral")
)
