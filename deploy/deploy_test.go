package deploy

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol"
	"github.com/bitfsorg/linkedlist-go/protocol/protocoltest"
	"github.com/bitfsorg/linkedlist-go/scripts"
	"github.com/bitfsorg/linkedlist-go/setnode"
	"github.com/bitfsorg/linkedlist-go/tx"
)

func submitter(f *protocoltest.Fixture, w protocoltest.Wallet) Submitter {
	return func(ctx context.Context, built *tx.Tx) (ledger.TxHash, error) {
		return built.Submit(ctx, f.Emulator, w.Key)
	}
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()
	f := protocoltest.New(t)
	w := f.Fund(t, 50_000_000)
	script := f.Env.Scripts.Script(scripts.NodeValidator)

	res, err := Deploy(ctx, f.Env, Request{Caller: w.Caller(), Name: "node", Script: script})
	require.NoError(t, err)
	assert.Contains(t, res.Tx.Signers, w.Hash)
	f.Submit(t, res.Tx, w.Key)

	u, err := LookupUnit(ctx, f.Emulator, res.Unit)
	require.NoError(t, err)
	assert.Equal(t, res.OutRef, u.OutRef)
	require.NotNil(t, u.ScriptRef)
	assert.Equal(t, script.Hash(), u.ScriptRef.Hash())
	assert.True(t, u.Address.Equal(f.Env.Scripts.Address(scripts.AlwaysFails)))
	floor, err := f.Env.Params.Fees.MinLovelace(u.Output)
	require.NoError(t, err)
	assert.Equal(t, floor, u.Assets.Lovelace(), "padded to the minimum")

	_, err = LookupUnit(ctx, f.Emulator, ledger.NewUnit(res.Policy.Hash(), []byte("other")))
	assert.ErrorIs(t, err, ErrNotDeployed)
	assert.ErrorIs(t, err, protocol.ErrMissingInput)
}

func TestDeploy_PolicyExpires(t *testing.T) {
	ctx := context.Background()
	f := protocoltest.New(t)
	w := f.Fund(t, 50_000_000)

	res, err := Deploy(ctx, f.Env, Request{Caller: w.Caller(), Name: "late", Script: f.Env.Scripts.Script(scripts.NodePolicy)})
	require.NoError(t, err)

	f.Emulator.Advance(f.Env.Params.MintWindow + time.Minute)
	_, err = res.Tx.Submit(ctx, f.Emulator, w.Key)
	assert.ErrorIs(t, err, ledger.ErrOutsideValidity)
}

func TestDeploy_Errors(t *testing.T) {
	ctx := context.Background()
	f := protocoltest.New(t)
	w := f.Fund(t, 50_000_000)
	script := f.Env.Scripts.Script(scripts.NodeValidator)

	_, err := Deploy(ctx, f.Env, Request{Caller: w.Caller(), Script: script})
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = Deploy(ctx, f.Env, Request{Caller: w.Caller(), Name: string(make([]byte, 33)), Script: script})
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = Deploy(ctx, f.Env, Request{Caller: w.Caller(), Name: "x"})
	assert.ErrorIs(t, err, protocol.ErrInvalidParams)

	script = f.Env.Scripts.Script(scripts.AlwaysFails)
	_, err = Deploy(ctx, f.Env, Request{Caller: protocol.Caller{Address: script.Address(ledger.Testnet)}, Name: "x", Script: script})
	assert.ErrorIs(t, err, protocol.ErrInvalidParams, "script caller cannot sign")
}

func TestDeployAll_RegistryAndUse(t *testing.T) {
	ctx := context.Background()
	f := protocoltest.New(t)
	w := f.Fund(t, 200_000_000)
	store, err := scripts.OpenBoltRefStore(filepath.Join(t.TempDir(), "refs.db"))
	require.NoError(t, err)
	defer store.Close()

	published, err := DeployAll(ctx, f.Env, w.Caller(), store, submitter(f, w))
	require.NoError(t, err)
	assert.Len(t, published, len(scripts.Roles)-1)

	again, err := DeployAll(ctx, f.Env, w.Caller(), store, submitter(f, w))
	require.NoError(t, err)
	assert.Empty(t, again, "live references are not republished")

	require.NoError(t, Use(ctx, f.Env, store))
	assert.Len(t, f.Env.RefScripts, len(scripts.Roles)-1)
	for role, u := range f.Env.RefScripts {
		assert.Equal(t, f.Env.Scripts.Hash(role), u.ScriptRef.Hash(), role)
	}

	// Operations now read scripts by reference.
	op := f.Fund(t, 50_000_000)
	f.Emulator.Fund(op.Address, ledger.NewAssets(20_000_000))
	utxos, err := f.Emulator.UtxosAt(ctx, op.Address)
	require.NoError(t, err)
	built, err := setnode.Init(ctx, f.Env, setnode.InitRequest{Caller: op.Caller(), Seed: utxos[0].OutRef})
	require.NoError(t, err)
	assert.Empty(t, built.Raw.Witnesses.Scripts)
	assert.Contains(t, built.Index.RefInputs, f.Env.RefScripts[scripts.NodePolicy].OutRef)
	f.Submit(t, built, op.Key)

	head, err := setnode.FetchHead(ctx, f.Env)
	require.NoError(t, err)
	assert.Equal(t, datum.SetNode{Variant: f.Env.Params.Variant}, head.Datum)
}

func TestLookup_Mismatch(t *testing.T) {
	ctx := context.Background()
	f := protocoltest.New(t)
	w := f.Fund(t, 50_000_000)
	store := scripts.NewMemRefStore()

	res, err := Deploy(ctx, f.Env, Request{Caller: w.Caller(), Name: "node", Script: f.Env.Scripts.Script(scripts.NodeValidator)})
	require.NoError(t, err)
	f.Submit(t, res.Tx, w.Key)

	require.NoError(t, store.Put(scripts.NodePolicy, scripts.Ref{OutRef: res.OutRef, ScriptHash: f.Env.Scripts.Hash(scripts.NodePolicy)}))
	_, err = Lookup(ctx, f.Env, store)
	assert.ErrorIs(t, err, ErrScriptMismatch)

	require.NoError(t, store.Put(scripts.NodePolicy, scripts.Ref{OutRef: ledger.OutRef{Index: 3}}))
	_, err = Lookup(ctx, f.Env, store)
	assert.ErrorIs(t, err, ErrNotDeployed)
}
