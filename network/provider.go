// Package network connects the protocol to a ledger gateway: a JSON-RPC
// implementation of ledger.Provider, layered connection settings and SRV
// discovery of gateway endpoints.
package network

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bitfsorg/linkedlist-go/ledger"
)

// Gateway methods.
const (
	MethodUtxosAt       = "utxos_at"
	MethodUtxosByUnit   = "utxos_by_unit"
	MethodUtxosByOutRef = "utxos_by_outref"
	MethodSubmitTx      = "submit_tx"
	MethodNow           = "now"
)

// Provider is a ledger.Provider backed by a gateway's JSON-RPC interface.
type Provider struct {
	rpc *RPCClient
}

var _ ledger.Provider = (*Provider)(nil)

// NewProvider creates a Provider for cfg.
func NewProvider(cfg RPCConfig) *Provider {
	return &Provider{rpc: NewRPCClient(cfg)}
}

// UTXOJSON is the gateway's output form. Datum and script bytes are hex.
type UTXOJSON struct {
	TxHash    string           `json:"tx_hash"`
	Index     uint32           `json:"index"`
	Address   string           `json:"address"`
	Value     map[string]int64 `json:"value"`
	Datum     string           `json:"datum,omitempty"`
	ScriptRef *ScriptJSON      `json:"script_ref,omitempty"`
}

// ScriptJSON is a reference script in gateway form.
type ScriptJSON struct {
	Version uint8  `json:"version"`
	Bytes   string `json:"bytes"`
}

// EncodeUTXO converts u to gateway form.
func EncodeUTXO(u ledger.UTXO) UTXOJSON {
	out := UTXOJSON{
		TxHash:  u.TxHash.String(),
		Index:   u.Index,
		Address: u.Address.String(),
		Value:   make(map[string]int64, len(u.Assets)),
	}
	for unit, q := range u.Assets {
		out.Value[string(unit)] = q
	}
	if len(u.Datum) > 0 {
		out.Datum = hex.EncodeToString(u.Datum)
	}
	if u.ScriptRef != nil {
		out.ScriptRef = &ScriptJSON{Version: uint8(u.ScriptRef.Version), Bytes: hex.EncodeToString(u.ScriptRef.Bytes)}
	}
	return out
}

// DecodeUTXO converts a gateway output.
func DecodeUTXO(j UTXOJSON) (ledger.UTXO, error) {
	h, err := ledger.ParseTxHash(j.TxHash)
	if err != nil {
		return ledger.UTXO{}, err
	}
	addr, err := ledger.ParseAddress(j.Address)
	if err != nil {
		return ledger.UTXO{}, err
	}
	assets := ledger.Assets{}
	for s, q := range j.Value {
		unit, err := ledger.ParseUnit(s)
		if err != nil {
			return ledger.UTXO{}, err
		}
		if q < 0 {
			return ledger.UTXO{}, fmt.Errorf("negative quantity %d of %s", q, s)
		}
		assets[unit] = q
	}
	u := ledger.UTXO{
		OutRef: ledger.OutRef{TxHash: h, Index: j.Index},
		Output: ledger.Output{Address: addr, Assets: assets.Compact()},
	}
	if j.Datum != "" {
		if u.Datum, err = hex.DecodeString(j.Datum); err != nil {
			return ledger.UTXO{}, fmt.Errorf("datum: %w", err)
		}
	}
	if j.ScriptRef != nil {
		b, err := hex.DecodeString(j.ScriptRef.Bytes)
		if err != nil {
			return ledger.UTXO{}, fmt.Errorf("script ref: %w", err)
		}
		u.ScriptRef = &ledger.Script{Version: ledger.ScriptVersion(j.ScriptRef.Version), Bytes: b}
	}
	return u, nil
}

func (p *Provider) utxos(ctx context.Context, method string, param interface{}) ([]ledger.UTXO, error) {
	var raw []UTXOJSON
	if err := p.rpc.Call(ctx, method, []interface{}{param}, &raw); err != nil {
		return nil, err
	}
	out := make([]ledger.UTXO, 0, len(raw))
	for i, j := range raw {
		u, err := DecodeUTXO(j)
		if err != nil {
			return nil, fmt.Errorf("%w: %s output %d: %w", ErrInvalidResponse, method, i, err)
		}
		out = append(out, u)
	}
	ledger.SortUTXOs(out)
	return out, nil
}

// UtxosAt implements ledger.Provider.
func (p *Provider) UtxosAt(ctx context.Context, addr ledger.Address) ([]ledger.UTXO, error) {
	return p.utxos(ctx, MethodUtxosAt, addr.String())
}

// UtxosByUnit implements ledger.Provider.
func (p *Provider) UtxosByUnit(ctx context.Context, unit ledger.Unit) ([]ledger.UTXO, error) {
	return p.utxos(ctx, MethodUtxosByUnit, string(unit))
}

// UtxosByOutRef implements ledger.Provider.
func (p *Provider) UtxosByOutRef(ctx context.Context, refs []ledger.OutRef) ([]ledger.UTXO, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ss := make([]string, len(refs))
	for i, r := range refs {
		ss[i] = r.String()
	}
	return p.utxos(ctx, MethodUtxosByOutRef, ss)
}

// Submit implements ledger.Provider. Gateway rejections wrap ErrSubmitRejected.
func (p *Provider) Submit(ctx context.Context, tx []byte) (ledger.TxHash, error) {
	var hash string
	err := p.rpc.Call(ctx, MethodSubmitTx, []interface{}{hex.EncodeToString(tx)}, &hash)
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return ledger.TxHash{}, fmt.Errorf("%w: %w", ErrSubmitRejected, err)
	}
	if err != nil {
		return ledger.TxHash{}, err
	}
	h, err := ledger.ParseTxHash(hash)
	if err != nil {
		return ledger.TxHash{}, fmt.Errorf("%w: tx hash: %w", ErrInvalidResponse, err)
	}
	return h, nil
}

// Now implements ledger.Provider using the gateway's tip time in POSIX ms.
func (p *Provider) Now(ctx context.Context) (time.Time, error) {
	var ms int64
	if err := p.rpc.Call(ctx, MethodNow, nil, &ms); err != nil {
		return time.Time{}, err
	}
	if ms <= 0 {
		return time.Time{}, fmt.Errorf("%w: time %d", ErrInvalidResponse, ms)
	}
	return time.UnixMilli(ms), nil
}
