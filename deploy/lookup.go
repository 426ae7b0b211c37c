package deploy

import (
	"context"
	"fmt"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/scripts"
)

// Lookup resolves every reference output recorded in store and checks that
// each still carries its role's script.
func Lookup(ctx context.Context, env *protocol.Env, store scripts.RefStore) (map[scripts.Role]ledger.UTXO, error) {
	refs, err := store.List()
	if err != nil {
		return nil, err
	}
	out := make(map[scripts.Role]ledger.UTXO, len(refs))
	for _, rr := range refs {
		u, err := resolve(ctx, env, rr.Role, rr.Ref)
		if err != nil {
			return nil, err
		}
		out[rr.Role] = u
	}
	return out, nil
}

// LookupUnit returns the reference output holding the deployment marker unit.
func LookupUnit(ctx context.Context, p ledger.Provider, unit ledger.Unit) (ledger.UTXO, error) {
	utxos, err := p.UtxosByUnit(ctx, unit)
	if err != nil {
		return ledger.UTXO{}, fmt.Errorf("query %s: %w", unit, err)
	}
	for _, u := range utxos {
		if u.ScriptRef != nil {
			return u, nil
		}
	}
	return ledger.UTXO{}, fmt.Errorf("%w: %s", ErrNotDeployed, unit)
}

// Use resolves the registered reference outputs and makes env read scripts
// from them.
func Use(ctx context.Context, env *protocol.Env, store scripts.RefStore) error {
	refs, err := Lookup(ctx, env, store)
	if err != nil {
		return err
	}
	env.RefScripts = refs
	return nil
}

func resolve(ctx context.Context, env *protocol.Env, role scripts.Role, ref scripts.Ref) (ledger.UTXO, error) {
	found, err := env.Provider.UtxosByOutRef(ctx, []ledger.OutRef{ref.OutRef})
	if err != nil {
		return ledger.UTXO{}, fmt.Errorf("query %s: %w", ref.OutRef, err)
	}
	if len(found) == 0 || found[0].ScriptRef == nil {
		return ledger.UTXO{}, fmt.Errorf("%w: %s at %s", ErrNotDeployed, role, ref.OutRef)
	}
	got := found[0].ScriptRef.Hash()
	if got != ref.ScriptHash || (env.Scripts.Has(role) && got != env.Scripts.Hash(role)) {
		return ledger.UTXO{}, fmt.Errorf("%w: %s at %s holds %s", ErrScriptMismatch, role, ref.OutRef, got)
	}
	return found[0], nil
}
