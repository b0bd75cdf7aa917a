package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexZinkM/seedvault/internal/model"
)

// LedgerClient is a client for the remote ledger HTTP API
type LedgerClient struct {
	baseURL string
	client  *http.Client
}

// NewLedgerClient creates a new ledger client for baseURL
func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// APIError is a non-2xx ledger response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger responded %d: %s", e.Status, e.Message)
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

type utxoResponse struct {
	UTXOs []model.UTXO `json:"utxos"`
}

type feeResponse struct {
	Fee uint64 `json:"fee"`
}

// GetBalance gets the balance of address in base units
func (c *LedgerClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var resp balanceResponse
	if err := c.do(ctx, http.MethodGet, "/address/"+url.PathEscape(address)+"/balance", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return resp.Balance, nil
}

// GetUTXOs lists the unspent outputs of address
func (c *LedgerClient) GetUTXOs(ctx context.Context, address string) ([]model.UTXO, error) {
	var resp utxoResponse
	if err := c.do(ctx, http.MethodGet, "/address/"+url.PathEscape(address)+"/utxos", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get utxos: %w", err)
	}
	return resp.UTXOs, nil
}

// GetFee gets the current flat network fee in base units
func (c *LedgerClient) GetFee(ctx context.Context) (uint64, error) {
	var resp feeResponse
	if err := c.do(ctx, http.MethodGet, "/fee", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to get fee: %w", err)
	}
	return resp.Fee, nil
}

// Broadcast submits a signed transaction
func (c *LedgerClient) Broadcast(ctx context.Context, tx *model.SignedTransaction) (*model.BroadcastReceipt, error) {
	var receipt model.BroadcastReceipt
	if err := c.do(ctx, http.MethodPost, "/tx", tx, &receipt); err != nil {
		return nil, fmt.Errorf("failed to broadcast: %w", err)
	}
	if receipt.TxID == "" {
		receipt.TxID = tx.TxID
	}
	return &receipt, nil
}

func (c *LedgerClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e model.ErrorResponse
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(msg, &e) == nil && e.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: e.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
