package network

import (
	"context"
	"time"

	"github.com/bitfsorg/linkedlist-go/ledger"
)

// MockProvider is a ledger.Provider test double. Each method calls its
// function field, which must be set before the method is used.
type MockProvider struct {
	UtxosAtFn       func(ctx context.Context, addr ledger.Address) ([]ledger.UTXO, error)
	UtxosByUnitFn   func(ctx context.Context, unit ledger.Unit) ([]ledger.UTXO, error)
	UtxosByOutRefFn func(ctx context.Context, refs []ledger.OutRef) ([]ledger.UTXO, error)
	SubmitFn        func(ctx context.Context, tx []byte) (ledger.TxHash, error)
	NowFn           func(ctx context.Context) (time.Time, error)
}

var _ ledger.Provider = (*MockProvider)(nil)

func (m *MockProvider) UtxosAt(ctx context.Context, addr ledger.Address) ([]ledger.UTXO, error) {
	return m.UtxosAtFn(ctx, addr)
}
func (m *MockProvider) UtxosByUnit(ctx context.Context, unit ledger.Unit) ([]ledger.UTXO, error) {
	return m.UtxosByUnitFn(ctx, unit)
}
func (m *MockProvider) UtxosByOutRef(ctx context.Context, refs []ledger.OutRef) ([]ledger.UTXO, error) {
	return m.UtxosByOutRefFn(ctx, refs)
}
func (m *MockProvider) Submit(ctx context.Context, tx []byte) (ledger.TxHash, error) {
	return m.SubmitFn(ctx, tx)
}
func (m *MockProvider) Now(ctx context.Context) (time.Time, error) {
	return m.NowFn(ctx)
}
