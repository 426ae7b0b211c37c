package ledger

import (
	"context"
	"time"
)

// Provider is the ledger-access collaborator. Every read is a snapshot that
// may already be stale; callers re-query before each build and treat a failed
// Submit as a signal to refresh and retry.
type Provider interface {
	// UtxosAt returns the unspent outputs locked at addr.
	UtxosAt(ctx context.Context, addr Address) ([]UTXO, error)

	// UtxosByUnit returns the unspent outputs holding a positive quantity of unit.
	UtxosByUnit(ctx context.Context, unit Unit) ([]UTXO, error)

	// UtxosByOutRef returns the unspent outputs among refs. Spent or unknown
	// references are omitted.
	UtxosByOutRef(ctx context.Context, refs []OutRef) ([]UTXO, error)

	// Submit sends a signed transaction and returns its hash.
	Submit(ctx context.Context, tx []byte) (TxHash, error)

	// Now returns the ledger's notion of the current time.
	Now(ctx context.Context) (time.Time, error)
}
