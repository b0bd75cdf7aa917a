package handler

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AlexZinkM/seedvault/internal/account"
	"github.com/AlexZinkM/seedvault/internal/auth"
	"github.com/AlexZinkM/seedvault/internal/crypto"
	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/store"
	"github.com/AlexZinkM/seedvault/manager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	fixturePhrase  = "abandon ability able about above absent absorb abstract absurd abuse access accident"
	fixtureAddress = "SVXed84ec26922290622a14c"
	account1       = "SVX96ec54abcbd535d10bfae"
)

type stubLedger struct{}

func (stubLedger) GetBalance(context.Context, string) (uint64, error) { return 250_000_000, nil }

func (stubLedger) GetUTXOs(context.Context, string) ([]model.UTXO, error) {
	return []model.UTXO{{TxID: "a", Amount: 250_000_000, Height: 1}}, nil
}

func (stubLedger) GetFee(context.Context) (uint64, error) { return 1000, nil }

func (stubLedger) Broadcast(_ context.Context, tx *model.SignedTransaction) (*model.BroadcastReceipt, error) {
	return &model.BroadcastReceipt{TxID: tx.TxID, Status: "pending", Accepted: true}, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	kv := store.NewMemory()
	salt := crypto.NewInstallationSalt(kv)
	vault, err := crypto.NewVault(crypto.MinIterations, salt)
	require.NoError(t, err)

	m, err := manager.New(manager.Deps{
		Store:    kv,
		Vault:    vault,
		Salt:     salt,
		Registry: account.NewRegistry(kv, account.SchemeHKDF, zap.NewNop()),
		Guard: auth.NewGuard(kv, auth.Options{
			MaxAttempts:     2,
			LockoutDuration: time.Hour,
			SessionTTL:      time.Minute,
		}, nil),
		Ledger:      stubLedger{},
		PayCooldown: time.Hour,
	})
	require.NoError(t, err)

	h := NewWalletHandler(m, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet/create", h.Create)
	mux.HandleFunc("/wallet/restore", h.Restore)
	mux.HandleFunc("/wallet/unlock", h.Unlock)
	mux.HandleFunc("/wallet/lock", h.Lock)
	mux.HandleFunc("/session/touch", h.Touch)
	mux.HandleFunc("/accounts", h.Accounts)
	mux.HandleFunc("/accounts/create", h.CreateAccount)
	mux.HandleFunc("/accounts/rename", h.Rename)
	mux.HandleFunc("/accounts/delete", h.Delete)
	mux.HandleFunc("/accounts/qr", h.QR)
	mux.HandleFunc("/accounts/balance", h.Balance)
	mux.HandleFunc("/sign", h.Sign)
	mux.HandleFunc("/verify", h.Verify)
	mux.HandleFunc("/pay", h.Pay)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func restoreAndUnlock(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	var gen model.GenerateResponse
	resp := call(t, srv, http.MethodPost, "/wallet/restore", "",
		model.RestoreWalletRequest{Phrase: fixturePhrase, Password: "pw"}, &gen)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, fixtureAddress, gen.Address)

	var s model.SessionResponse
	resp = call(t, srv, http.MethodPost, "/wallet/unlock", "", model.UnlockRequest{Password: "pw"}, &s)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, s.Token)
	return s.Token
}

func TestCreateReturnsPhraseOnce(t *testing.T) {
	srv := newServer(t)

	var gen model.GenerateResponse
	resp := call(t, srv, http.MethodPost, "/wallet/create", "", model.CreateWalletRequest{Password: "pw"}, &gen)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, gen.Success)
	assert.Len(t, bytes.Fields([]byte(gen.Phrase)), 12)

	var e model.ErrorResponse
	resp = call(t, srv, http.MethodPost, "/wallet/create", "", model.CreateWalletRequest{Password: "pw"}, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "WALLET_EXISTS", e.Code)
}

func TestRestoreRejectsBadPhrase(t *testing.T) {
	srv := newServer(t)

	var e model.ErrorResponse
	resp := call(t, srv, http.MethodPost, "/wallet/restore", "",
		model.RestoreWalletRequest{Phrase: "abandon abandon", Password: "pw"}, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_MNEMONIC", e.Code)
}

func TestUnlockLockoutSetsRetryAfter(t *testing.T) {
	srv := newServer(t)
	restoreAndUnlock(t, srv)

	for i := 0; i < 2; i++ {
		resp := call(t, srv, http.MethodPost, "/wallet/unlock", "", model.UnlockRequest{Password: "bad"}, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	var e model.ErrorResponse
	resp := call(t, srv, http.MethodPost, "/wallet/unlock", "", model.UnlockRequest{Password: "pw"}, &e)
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.Equal(t, "ACCOUNT_LOCKED_OUT", e.Code)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestSignAndVerify(t *testing.T) {
	srv := newServer(t)
	token := restoreAndUnlock(t, srv)
	payload := hex.EncodeToString([]byte("hello"))

	resp := call(t, srv, http.MethodPost, "/sign", "", model.SignRequest{Payload: payload}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/sign", token, model.SignRequest{Payload: "zz"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var sig model.SignResponse
	resp = call(t, srv, http.MethodPost, "/sign", token, model.SignRequest{Payload: payload}, &sig)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, sig.Signature, 128)

	var v model.VerifyResponse
	call(t, srv, http.MethodPost, "/verify", "",
		model.VerifyRequest{Payload: payload, Signature: sig.Signature, PublicKey: sig.PublicKey}, &v)
	assert.True(t, v.Valid)

	call(t, srv, http.MethodPost, "/verify", "",
		model.VerifyRequest{Payload: payload, Signature: sig.Signature, PublicKey: "04zz"}, &v)
	assert.False(t, v.Valid)

	resp = call(t, srv, http.MethodPost, "/wallet/lock", token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, srv, http.MethodPost, "/sign", token, model.SignRequest{Payload: payload}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAccountsFlow(t *testing.T) {
	srv := newServer(t)
	token := restoreAndUnlock(t, srv)

	var acc model.Account
	resp := call(t, srv, http.MethodPost, "/accounts/create", token,
		model.CreateAccountRequest{Password: "pw", Name: "Savings"}, &acc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, account1, acc.Address)

	var list model.AccountsResponse
	resp = call(t, srv, http.MethodPost, "/accounts/rename", "",
		model.AccountRequest{Index: 1, Name: "Rainy day"}, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Accounts, 2)
	assert.Equal(t, "Rainy day", list.Accounts[1].Name)

	var e model.ErrorResponse
	resp = call(t, srv, http.MethodPost, "/accounts/delete", "", model.DeleteAccountRequest{Index: 1, Password: "pw"}, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/accounts/delete", token, model.DeleteAccountRequest{Index: 1, Password: "bad"}, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "DECRYPTION_FAILED", e.Code)

	var derived model.SessionResponse
	resp = call(t, srv, http.MethodPost, "/wallet/unlock", "", model.UnlockRequest{Index: 1, Password: "pw"}, &derived)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, srv, http.MethodPost, "/accounts/delete", derived.Token, model.DeleteAccountRequest{Index: 1, Password: "pw"}, &e)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "MASTER_REQUIRED", e.Code)

	resp = call(t, srv, http.MethodPost, "/accounts/delete", token, model.DeleteAccountRequest{Index: 0, Password: "pw"}, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "MASTER_UNDELETABLE", e.Code)

	resp = call(t, srv, http.MethodPost, "/accounts/delete", token, model.DeleteAccountRequest{Index: 1, Password: "pw"}, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list.Accounts, 1)

	resp = call(t, srv, http.MethodPost, "/accounts/delete", token, model.DeleteAccountRequest{Index: 0, Password: "pw"}, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "LAST_ACCOUNT_UNDELETABLE", e.Code)

	resp = call(t, srv, http.MethodGet, "/accounts", "", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, list.Active)

	resp = call(t, srv, http.MethodPost, "/accounts", "", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestQRAndBalance(t *testing.T) {
	srv := newServer(t)
	restoreAndUnlock(t, srv)

	var qr model.QRResponse
	resp := call(t, srv, http.MethodGet, "/accounts/qr?index=0", "", nil, &qr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fixtureAddress, qr.Address)
	assert.NotEmpty(t, qr.QR)

	resp = call(t, srv, http.MethodGet, "/accounts/qr?index=x", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var bal model.BalanceResponse
	resp = call(t, srv, http.MethodPost, "/accounts/balance", "", model.BalanceRequest{}, &bal)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2.50000000", bal.Balance)
	assert.Equal(t, uint64(250_000_000), bal.BaseUnits)
}

func TestPay(t *testing.T) {
	srv := newServer(t)
	token := restoreAndUnlock(t, srv)

	resp := call(t, srv, http.MethodPost, "/pay", token, model.PayRequest{ToAddress: "nope", Amount: "1"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/pay", token, model.PayRequest{ToAddress: account1, Amount: "1.123456789"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var pay model.PayResponse
	resp = call(t, srv, http.MethodPost, "/pay", token, model.PayRequest{ToAddress: account1, Amount: "1.5"}, &pay)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, pay.TxID, 64)
	assert.Equal(t, "pending", pay.Status)

	resp = call(t, srv, http.MethodPost, "/pay", token, model.PayRequest{ToAddress: account1, Amount: "0.1"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(model.ErrNoWallet))
	assert.Equal(t, http.StatusForbidden, statusFor(model.ErrMasterRequired))
	assert.Equal(t, http.StatusConflict, statusFor(model.ErrMasterUndeletable))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(model.ErrMalformedRecord))
	assert.Equal(t, http.StatusLocked, statusFor(&model.LockedOutError{Remaining: time.Minute}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
