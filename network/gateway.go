package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/linkedlist-go/ledger"
)

// Gateway error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeRejected       = -32000
)

// Gateway serves the JSON-RPC methods Provider calls from any
// ledger.Provider, typically an Emulator acting as a local devnet.
type Gateway struct {
	backend ledger.Provider
	log     zerolog.Logger
}

// NewGateway creates a Gateway over backend.
func NewGateway(backend ledger.Provider, log zerolog.Logger) *Gateway {
	return &Gateway{backend: backend, log: log}
}

type gatewayRequest struct {
	ID     int64             `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req gatewayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.reply(w, 0, nil, &RPCError{Code: CodeParseError, Message: err.Error()})
		return
	}
	result, rpcErr := g.dispatch(r.Context(), req)
	if rpcErr != nil {
		g.log.Debug().Str("method", req.Method).Int("code", rpcErr.Code).Msg(rpcErr.Message)
	}
	g.reply(w, req.ID, result, rpcErr)
}

func (g *Gateway) reply(w http.ResponseWriter, id int64, result interface{}, rpcErr *RPCError) {
	resp := struct {
		JSONRPC string      `json:"jsonrpc"`
		ID      int64       `json:"id"`
		Result  interface{} `json:"result,omitempty"`
		Error   *RPCError   `json:"error,omitempty"`
	}{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.log.Warn().Err(err).Msg("write response")
	}
}

func (g *Gateway) dispatch(ctx context.Context, req gatewayRequest) (interface{}, *RPCError) {
	param := func(v interface{}) *RPCError {
		if len(req.Params) != 1 {
			return &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("%s takes one parameter", req.Method)}
		}
		if err := json.Unmarshal(req.Params[0], v); err != nil {
			return &RPCError{Code: CodeInvalidParams, Message: err.Error()}
		}
		return nil
	}
	invalid := func(err error) *RPCError { return &RPCError{Code: CodeInvalidParams, Message: err.Error()} }
	internal := func(err error) *RPCError { return &RPCError{Code: CodeInternal, Message: err.Error()} }

	switch req.Method {
	case MethodUtxosAt:
		var s string
		if e := param(&s); e != nil {
			return nil, e
		}
		addr, err := ledger.ParseAddress(s)
		if err != nil {
			return nil, invalid(err)
		}
		utxos, err := g.backend.UtxosAt(ctx, addr)
		if err != nil {
			return nil, internal(err)
		}
		return encodeAll(utxos), nil

	case MethodUtxosByUnit:
		var s string
		if e := param(&s); e != nil {
			return nil, e
		}
		unit, err := ledger.ParseUnit(s)
		if err != nil {
			return nil, invalid(err)
		}
		utxos, err := g.backend.UtxosByUnit(ctx, unit)
		if err != nil {
			return nil, internal(err)
		}
		return encodeAll(utxos), nil

	case MethodUtxosByOutRef:
		var ss []string
		if e := param(&ss); e != nil {
			return nil, e
		}
		refs := make([]ledger.OutRef, len(ss))
		for i, s := range ss {
			ref, err := ledger.ParseOutRef(s)
			if err != nil {
				return nil, invalid(err)
			}
			refs[i] = ref
		}
		utxos, err := g.backend.UtxosByOutRef(ctx, refs)
		if err != nil {
			return nil, internal(err)
		}
		return encodeAll(utxos), nil

	case MethodSubmitTx:
		var s string
		if e := param(&s); e != nil {
			return nil, e
		}
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, invalid(err)
		}
		h, err := g.backend.Submit(ctx, raw)
		if err != nil {
			return nil, &RPCError{Code: CodeRejected, Message: err.Error()}
		}
		g.log.Info().Str("tx", h.String()).Msg("transaction applied")
		return h.String(), nil

	case MethodNow:
		now, err := g.backend.Now(ctx)
		if err != nil {
			return nil, internal(err)
		}
		return ledger.Millis(now), nil

	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "unknown method " + req.Method}
	}
}

func encodeAll(utxos []ledger.UTXO) []UTXOJSON {
	out := make([]UTXOJSON, len(utxos))
	for i, u := range utxos {
		out[i] = EncodeUTXO(u)
	}
	return out
}
