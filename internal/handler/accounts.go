package handler

import (
	"net/http"
	"strconv"

	"github.com/AlexZinkM/seedvault/internal/common"
	"github.com/AlexZinkM/seedvault/internal/model"
)

// Accounts handles GET /accounts
// @Summary      List accounts
// @Description  Lists the public account metadata and the active position. No password is needed.
// @Tags         accounts
// @Produce      json
// @Success      200  {object}  model.AccountsResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /accounts [get]
func (h *WalletHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	h.writeAccounts(w, r)
}

func (h *WalletHandler) writeAccounts(w http.ResponseWriter, r *http.Request) {
	active, accounts, err := h.m.Accounts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AccountsResponse{Active: active, Accounts: accounts})
}

// CreateAccount handles POST /accounts/create
// @Summary      Create account
// @Description  Derives the next account from the master phrase. Needs a master account session and its password.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        X-Session-Token  header    string                      true  "Session token"
// @Param        request          body      model.CreateAccountRequest  true  "Password, name and icon"
// @Success      200              {object}  model.Account
// @Failure      403              {object}  model.ErrorResponse
// @Failure      409              {object}  model.ErrorResponse
// @Router       /accounts/create [post]
func (h *WalletHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	t, ok := token(w, r)
	if !ok {
		return
	}
	var req model.CreateAccountRequest
	if !decode(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	acc, err := h.m.CreateAccount(r.Context(), t, password, req.Name, req.IconType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

// Switch handles POST /accounts/switch
// @Summary      Switch active account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      model.AccountRequest  true  "Account position"
// @Success      200      {object}  model.AccountsResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /accounts/switch [post]
func (h *WalletHandler) Switch(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(req model.AccountRequest) error {
		return h.m.SwitchActive(r.Context(), req.Index)
	})
}

// Rename handles POST /accounts/rename
// @Summary      Rename account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      model.AccountRequest  true  "Account position and name"
// @Success      200      {object}  model.AccountsResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /accounts/rename [post]
func (h *WalletHandler) Rename(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(req model.AccountRequest) error {
		return h.m.Rename(r.Context(), req.Index, req.Name)
	})
}

// Icon handles POST /accounts/icon
// @Summary      Change account icon
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      model.AccountRequest  true  "Account position and icon type"
// @Success      200      {object}  model.AccountsResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /accounts/icon [post]
func (h *WalletHandler) Icon(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(req model.AccountRequest) error {
		return h.m.SetIcon(r.Context(), req.Index, req.IconType)
	})
}

// Delete handles POST /accounts/delete
// @Summary      Delete account
// @Description  Removes the account, its vault record and its sessions. Needs a master account session and the master password. The master and the last account cannot be deleted.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        X-Session-Token  header    string                      true  "Session token"
// @Param        request          body      model.DeleteAccountRequest  true  "Account position and master password"
// @Success      200              {object}  model.AccountsResponse
// @Failure      401              {object}  model.ErrorResponse
// @Failure      403              {object}  model.ErrorResponse
// @Failure      409              {object}  model.ErrorResponse
// @Router       /accounts/delete [post]
func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	t, ok := token(w, r)
	if !ok {
		return
	}
	var req model.DeleteAccountRequest
	if !decode(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	if _, err := h.m.DeleteAccount(r.Context(), t, req.Index, password); err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeAccounts(w, r)
}

// mutate runs a metadata change and answers with the updated list.
func (h *WalletHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(model.AccountRequest) error) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req model.AccountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := fn(req); err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeAccounts(w, r)
}

// QR handles GET /accounts/qr
// @Summary      Address QR code
// @Description  Returns a base64 PNG QR code of the account address
// @Tags         accounts
// @Produce      json
// @Param        index  query     int  false  "Account position"
// @Success      200    {object}  model.QRResponse
// @Failure      404    {object}  model.ErrorResponse
// @Router       /accounts/qr [get]
func (h *WalletHandler) QR(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	pos := 0
	if s := r.URL.Query().Get("index"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		pos = n
	}
	addr, qr, err := h.m.AddressQR(r.Context(), pos)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.QRResponse{Address: addr, QR: qr})
}

// Balance handles POST /accounts/balance
// @Summary      Refresh balance
// @Description  Fetches the balance from the ledger and caches it on the account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request  body      model.BalanceRequest  true  "Account position"
// @Success      200      {object}  model.BalanceResponse
// @Router       /accounts/balance [post]
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req model.BalanceRequest
	if !decode(w, r, &req) {
		return
	}
	acc, err := h.m.RefreshBalance(r.Context(), req.Index)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.BalanceResponse{
		Address:   acc.Address,
		Balance:   common.FormatAmount(acc.CachedBalance),
		BaseUnits: acc.CachedBalance,
	})
}
