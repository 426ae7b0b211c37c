package tx

import "errors"

var (
	// ErrWalletEmpty indicates the wallet has no spendable output to pay fees.
	ErrWalletEmpty = errors.New("tx: wallet empty")

	// ErrBuildFailure indicates the composed transaction could not be assembled.
	// It always wraps a more specific cause.
	ErrBuildFailure = errors.New("tx: build failure")

	// ErrInsufficientFunds indicates inputs plus wallet outputs cannot cover the
	// outputs and fee.
	ErrInsufficientFunds = errors.New("tx: insufficient funds")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrMissingScript indicates a script input or mint has no script available.
	ErrMissingScript = errors.New("tx: missing script")

	// ErrMissingRedeemer indicates a script input was collected without a redeemer.
	ErrMissingRedeemer = errors.New("tx: missing redeemer")

	// ErrNoCollateral indicates no pure-lovelace wallet output can serve as collateral.
	ErrNoCollateral = errors.New("tx: no collateral available")

	// ErrBelowMinimum indicates an output holds less lovelace than the ledger minimum.
	ErrBelowMinimum = errors.New("tx: output below minimum lovelace")

	// ErrInvalidMint indicates a mint value names units outside its policy.
	ErrInvalidMint = errors.New("tx: invalid mint")

	// ErrNotConverged indicates fee balancing did not reach a fixed point.
	ErrNotConverged = errors.New("tx: fee did not converge")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")
)
