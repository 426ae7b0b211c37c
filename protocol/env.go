// Package protocol holds what the set, fold and deploy operations share: the
// protocol parameters, the environment an operation runs in, error kinds and
// validity-interval helpers.
package protocol

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// Env is everything an operation needs besides its request.
type Env struct {
	Provider ledger.Provider
	Scripts  *scripts.Set

	// RefScripts are published reference outputs by role. Roles without one
	// have their script attached to the transaction.
	RefScripts map[scripts.Role]ledger.UTXO

	Params Params
	Log    zerolog.Logger
}

// Validate checks that the environment is complete.
func (e *Env) Validate() error {
	if e == nil || e.Provider == nil {
		return fmt.Errorf("%w: provider", ErrInvalidParams)
	}
	if e.Scripts == nil {
		return fmt.Errorf("%w: scripts", ErrInvalidParams)
	}
	if err := e.Scripts.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return e.Params.Validate()
}

// Caller identifies who runs an operation and when.
type Caller struct {
	// Address pays fees, receives change and, for key addresses, signs.
	Address ledger.Address

	// CurrentTime overrides the provider clock, in POSIX ms. Zero means
	// ask the provider.
	CurrentTime int64
}

// KeyHash returns the caller's payment key hash.
func (c Caller) KeyHash() (ledger.Hash28, error) {
	h, ok := c.Address.PaymentKeyHash()
	if !ok {
		return ledger.Hash28{}, fmt.Errorf("%w: caller address %s is not key-locked", ErrInvalidParams, c.Address)
	}
	return h, nil
}

// NodeKey returns the set key the caller owns.
func (c Caller) NodeKey() (datum.NodeKey, error) {
	h, err := c.KeyHash()
	if err != nil {
		return nil, err
	}
	return datum.KeyFromHash(h), nil
}

// Now returns the caller's time, falling back to the provider clock.
func (e *Env) Now(ctx context.Context, c Caller) (int64, error) {
	if c.CurrentTime > 0 {
		return c.CurrentTime, nil
	}
	t, err := e.Provider.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("query time: %w", err)
	}
	return ledger.Millis(t), nil
}

// Use makes the scripts of roles available to b, by reference when
// published and attached otherwise.
func (e *Env) Use(b *tx.Builder, roles ...scripts.Role) *tx.Builder {
	for _, r := range roles {
		if u, ok := e.RefScripts[r]; ok {
			b.UseRefScripts(u)
			continue
		}
		b.Attach(e.Scripts.Script(r))
	}
	return b
}

// Complete balances b with the caller's wallet.
func (e *Env) Complete(ctx context.Context, b *tx.Builder, c Caller, op string) (*tx.Tx, error) {
	built, err := b.Complete(ctx, e.Provider, tx.Options{
		ChangeAddress: c.Address,
		Fees:          e.Params.Fees,
		Slots:         e.Params.Slots,
	})
	if err != nil {
		e.Log.Debug().Err(err).Str("op", op).Msg("build failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.Log.Info().
		Str("op", op).
		Str("tx", built.Hash.String()).
		Int64("fee", built.Fee).
		Int("inputs", len(built.Index.Inputs)).
		Msg("transaction built")
	return built, nil
}

// IsNode reports whether o carries a node-policy marker.
func (e *Env) IsNode(o ledger.Output) bool {
	return len(o.Assets.OfPolicy(e.Scripts.Hash(scripts.NodePolicy))) > 0
}
