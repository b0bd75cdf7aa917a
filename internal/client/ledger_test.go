package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexZinkM/seedvault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "SVXed84ec26922290622a14c"

func ledgerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/address/"+addr+"/balance", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]any{"address": addr, "balance": 1500})
	})
	mux.HandleFunc("/address/"+addr+"/utxos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"utxos": []model.UTXO{{TxID: "a", Amount: 1000, Height: 1}, {TxID: "b", Amount: 500, Height: 2}}})
	})
	mux.HandleFunc("/fee", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"fee": 10})
	})
	mux.HandleFunc("/tx", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var stx model.SignedTransaction
		require.NoError(t, json.NewDecoder(r.Body).Decode(&stx))
		if stx.Tx.Amount == 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(model.ErrorResponse{Error: "zero amount"})
			return
		}
		json.NewEncoder(w).Encode(model.BroadcastReceipt{Status: "pending", Accepted: true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLedgerClient(t *testing.T) {
	ctx := context.Background()
	c := NewLedgerClient(ledgerServer(t).URL + "/")

	bal, err := c.GetBalance(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), bal)

	utxos, err := c.GetUTXOs(ctx, addr)
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	assert.Equal(t, uint64(500), utxos[1].Amount)

	fee, err := c.GetFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), fee)

	receipt, err := c.Broadcast(ctx, &model.SignedTransaction{TxID: "abc", Tx: model.Transaction{Amount: 5}})
	require.NoError(t, err)
	assert.Equal(t, "abc", receipt.TxID)
	assert.True(t, receipt.Accepted)
}

func TestLedgerClientErrors(t *testing.T) {
	ctx := context.Background()
	c := NewLedgerClient(ledgerServer(t).URL)

	_, err := c.Broadcast(ctx, &model.SignedTransaction{TxID: "abc"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "zero amount", apiErr.Message)

	_, err = c.GetBalance(ctx, "SVXunknown")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
