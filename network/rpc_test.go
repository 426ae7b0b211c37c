package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCClientCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "testuser", user)
		assert.Equal(t, "testpass", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "now", req.Method)
		assert.Equal(t, "2.0", req.JSONRPC)

		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`100`)})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL, User: "testuser", Password: "testpass"})
	var ms int64
	require.NoError(t, client.Call(context.Background(), "now", nil, &ms))
	assert.Equal(t, int64(100), ms)
}

func TestRPCClientRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(rpcResponse{Error: &RPCError{Code: -32000, Message: "input already spent"}})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	err := client.Call(context.Background(), "submit_tx", []interface{}{"00"}, nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.Code)
	assert.Contains(t, err.Error(), "already spent")
}

func TestRPCClientConnectionError(t *testing.T) {
	client := NewRPCClient(RPCConfig{URL: "http://localhost:1"})
	var result int
	err := client.Call(context.Background(), "now", nil, &result)
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestRPCClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "now", nil, nil)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Contains(t, err.Error(), "502")
}

func TestRPCClientInvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "garbage"},
		{"id mismatch", `{"id":99,"result":1}`},
		{"wrong result type", `{"id":1,"result":"text"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			var n int64
			err := NewRPCClient(RPCConfig{URL: server.URL}).Call(context.Background(), "now", nil, &n)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestRPCClientContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var result int
	require.Error(t, client.Call(ctx, "now", nil, &result))
}

func TestRPCClientSequentialIDs(t *testing.T) {
	var ids []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		ids = append(ids, req.ID)
		json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`0`)})
	}))
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	for i := 0; i < 3; i++ {
		var n int
		client.Call(context.Background(), "now", nil, &n)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}
