// Package deploy publishes protocol scripts as reference outputs so that
// batched transactions can read them instead of carrying their bytes.
//
// Each reference output sits at the always-fails address, which nothing can
// spend, and holds a marker minted under a one-off native policy that only
// the deployer can satisfy and only until a short expiry.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/tx"
)

// Request publishes Script under the marker Name.
type Request struct {
	protocol.Caller
	Name   string
	Script ledger.Script
}

// Result describes a built deployment.
type Result struct {
	Tx *tx.Tx

	// Policy is the native policy the marker was minted under.
	Policy ledger.Script
	Unit   ledger.Unit

	// OutRef is where the reference output will be once Tx is applied.
	OutRef ledger.OutRef
}

// MarkerPolicy returns the policy all[sig(keyHash), before(slot of expiry)].
func MarkerPolicy(keyHash ledger.Hash28, slots ledger.SlotConfig, expiry time.Time) (ledger.Script, error) {
	return ledger.NativeAll(
		ledger.NativePubKey(keyHash),
		ledger.NativeBefore(slots.Slot(ledger.Millis(expiry))),
	).Script()
}

// Deploy builds the transaction publishing req.Script.
func Deploy(ctx context.Context, env *protocol.Env, req Request) (Result, error) {
	const op = "deploy"
	if req.Name == "" || len(req.Name) > ledger.MaxAssetNameLen {
		return Result{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidName, req.Name)
	}
	if req.Script.IsZero() {
		return Result{}, fmt.Errorf("%s: %w: empty script", op, protocol.ErrInvalidParams)
	}
	keyHash, err := req.KeyHash()
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	now, err := env.Now(ctx, req.Caller)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	expiry := time.UnixMilli(now).Add(env.Params.MintWindow)
	policy, err := MarkerPolicy(keyHash, env.Params.Slots, expiry)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	unit := ledger.NewUnit(policy.Hash(), []byte(req.Name))

	script := req.Script
	out, err := env.Params.Fees.PadMinLovelace(ledger.Output{
		Address:   env.Scripts.Address(scripts.AlwaysFails),
		Assets:    ledger.NewAssets(0).With(unit, 1),
		ScriptRef: &script,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	b := tx.NewBuilder().
		Attach(policy).
		Mint(policy.Hash(), ledger.Assets{unit: 1}, nil).
		PayOutput(out).
		ValidFrom(now).
		ValidTo(ledger.Millis(expiry)).
		AddSigner(keyHash)
	built, err := env.Complete(ctx, b, req.Caller, op)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Tx:     built,
		Policy: policy,
		Unit:   unit,
		OutRef: ledger.OutRef{TxHash: built.Hash, Index: 0},
	}, nil
}

// Submitter signs and submits a built deployment.
type Submitter func(ctx context.Context, built *tx.Tx) (ledger.TxHash, error)

// DeployAll publishes every protocol script not already live in store and
// records each reference output there. Deployments are submitted one at a
// time since each spends the previous one's change.
func DeployAll(ctx context.Context, env *protocol.Env, caller protocol.Caller, store scripts.RefStore, submit Submitter) ([]scripts.RoleRef, error) {
	var published []scripts.RoleRef
	for _, role := range scripts.Roles {
		if role == scripts.AlwaysFails {
			continue
		}
		if ref, err := store.Get(role); err == nil {
			if _, err := resolve(ctx, env, role, ref); err == nil {
				env.Log.Debug().Str("role", string(role)).Str("ref", ref.OutRef.String()).Msg("already deployed")
				continue
			}
		}

		res, err := Deploy(ctx, env, Request{Caller: caller, Name: string(role), Script: env.Scripts.Script(role)})
		if err != nil {
			return published, fmt.Errorf("%s: %w", role, err)
		}
		if _, err := submit(ctx, res.Tx); err != nil {
			return published, fmt.Errorf("%s: submit: %w", role, err)
		}
		ref := scripts.Ref{OutRef: res.OutRef, ScriptHash: env.Scripts.Hash(role)}
		if err := store.Put(role, ref); err != nil {
			return published, fmt.Errorf("%s: record: %w", role, err)
		}
		env.Log.Info().Str("role", string(role)).Str("ref", ref.OutRef.String()).Msg("script deployed")
		published = append(published, scripts.RoleRef{Role: role, Ref: ref})
	}
	return published, nil
}
