package network

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/linkedlist-go/datum"
	"github.com/bitfsorg/linkedlist-go/ledger"
	"github.com/bitfsorg/linkedlist-go/protocol/protocoltest"
	"github.com/bitfsorg/linkedlist-go/setnode"
)

func serve(t *testing.T, backend ledger.Provider) *Provider {
	t.Helper()
	server := httptest.NewServer(NewGateway(backend, zerolog.Nop()))
	t.Cleanup(server.Close)
	return NewProvider(RPCConfig{URL: server.URL})
}

func TestUTXORoundTrip(t *testing.T) {
	w := protocoltest.NewWallet(t)
	script := ledger.Script{Version: ledger.PlutusV2, Bytes: []byte{0x41, 0x01}}
	unit := ledger.NewUnit(script.Hash(), []byte("FSN"))
	u := ledger.UTXO{
		OutRef: ledger.OutRef{TxHash: ledger.Blake2b256([]byte("tx")), Index: 3},
		Output: ledger.Output{
			Address:   w.Address,
			Assets:    ledger.NewAssets(2_000_000).With(unit, 1),
			Datum:     []byte{0xd8, 0x79, 0x80},
			ScriptRef: &script,
		},
	}
	back, err := DecodeUTXO(EncodeUTXO(u))
	require.NoError(t, err)
	assert.Equal(t, u, back)

	bad := EncodeUTXO(u)
	bad.Value["lovelace"] = -1
	_, err = DecodeUTXO(bad)
	assert.Error(t, err)
}

func TestProvider_AgainstEmulator(t *testing.T) {
	ctx := context.Background()
	f := protocoltest.New(t)
	p := serve(t, f.Emulator)
	f.Env.Provider = p

	now, err := p.Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocoltest.Start.UnixMilli(), now.UnixMilli())

	op := f.Fund(t, 50_000_000)
	f.Emulator.Fund(op.Address, ledger.NewAssets(20_000_000))
	utxos, err := p.UtxosAt(ctx, op.Address)
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	built, err := setnode.Init(ctx, f.Env, setnode.InitRequest{Caller: op.Caller(), Seed: utxos[0].OutRef})
	require.NoError(t, err)
	h, err := built.Submit(ctx, p, op.Key)
	require.NoError(t, err)
	assert.Equal(t, built.Hash, h)

	head, err := setnode.FetchHead(ctx, f.Env)
	require.NoError(t, err)
	assert.Equal(t, datum.SetNode{}, head.Datum)

	got, err := p.UtxosByOutRef(ctx, []ledger.OutRef{utxos[0].OutRef, head.UTXO.OutRef})
	require.NoError(t, err)
	require.Len(t, got, 1, "the seed is spent")
	assert.Equal(t, head.UTXO, got[0])

	_, err = built.Submit(ctx, p, op.Key)
	assert.ErrorIs(t, err, ErrSubmitRejected, "double spend")

	none, err := p.UtxosByOutRef(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGateway_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend down")
	p := serve(t, &MockProvider{
		UtxosByUnitFn: func(context.Context, ledger.Unit) ([]ledger.UTXO, error) { return nil, boom },
		NowFn:         func(context.Context) (time.Time, error) { return time.Time{}, boom },
		SubmitFn:      func(context.Context, []byte) (ledger.TxHash, error) { return ledger.TxHash{}, boom },
	})

	_, err := p.UtxosByUnit(ctx, ledger.NewUnit(ledger.Hash28{1}, []byte("x")))
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeInternal, rpcErr.Code)
	assert.Contains(t, rpcErr.Message, "backend down")

	_, err = p.Now(ctx)
	require.ErrorAs(t, err, &rpcErr)

	err = p.rpc.Call(ctx, "utxos_at", []interface{}{"not-an-address"}, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)

	err = p.rpc.Call(ctx, "bogus", nil, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, CodeMethodNotFound, rpcErr.Code)

	_, err = p.Submit(ctx, []byte{0x00})
	assert.ErrorIs(t, err, ErrSubmitRejected)
}
