package handler

import (
	"net/http"
	"time"

	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/manager"

	"go.uber.org/zap"
)

// WalletHandler serves the local wallet API over a Manager
type WalletHandler struct {
	m   *manager.Manager
	log *zap.Logger
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(m *manager.Manager, log *zap.Logger) *WalletHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WalletHandler{m: m, log: log}
}

func sessionResponse(s model.Session) model.SessionResponse {
	return model.SessionResponse{
		Token:     s.Token,
		AccountID: s.AccountID,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// Create handles POST /wallet/create
// @Summary      Create wallet
// @Description  Generates a new recovery phrase and stores it as the master account. The phrase is returned only once.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateWalletRequest  true  "Password and account name"
// @Success      200      {object}  model.GenerateResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /wallet/create [post]
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req model.CreateWalletRequest
	if !decode(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password) // Always clear password from memory

	acc, phrase, err := h.m.CreateWallet(r.Context(), password, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer phrase.Wipe()

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet generated successfully. Write down the phrase, it will not be shown again",
		Address: acc.Address,
		Phrase:  phrase.String(),
	})
}

// Restore handles POST /wallet/restore
// @Summary      Restore wallet
// @Description  Restores the master account from a 12-word recovery phrase
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.RestoreWalletRequest  true  "Phrase, password and account name"
// @Success      200      {object}  model.GenerateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /wallet/restore [post]
func (h *WalletHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req model.RestoreWalletRequest
	if !decode(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	acc, err := h.m.RestoreWallet(r.Context(), req.Phrase, password, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet restored successfully",
		Address: acc.Address,
	})
}

// Unlock handles POST /wallet/unlock
// @Summary      Unlock account
// @Description  Decrypts the account record and starts a session. Repeated wrong passwords lock the account out.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.UnlockRequest  true  "Account position and password"
// @Success      200      {object}  model.SessionResponse
// @Failure      401      {object}  model.ErrorResponse
// @Failure      423      {object}  model.ErrorResponse
// @Router       /wallet/unlock [post]
func (h *WalletHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req model.UnlockRequest
	if !decode(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer clear(password)

	s, err := h.m.Unlock(r.Context(), req.Index, password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

// Lock handles POST /wallet/lock
// @Summary      Lock account
// @Description  Wipes the unlocked wallet of the session and ends all its sessions
// @Tags         wallet
// @Produce      json
// @Param        X-Session-Token  header  string  true  "Session token"
// @Success      200  {object}  map[string]string
// @Router       /wallet/lock [post]
func (h *WalletHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	t, ok := token(w, r)
	if !ok {
		return
	}
	if err := h.m.LockSession(t); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "locked"})
}

// Touch handles POST /session/touch
// @Summary      Extend session
// @Description  Extends the session for user activity, up to its maximum lifetime
// @Tags         wallet
// @Produce      json
// @Param        X-Session-Token  header  string  true  "Session token"
// @Success      200  {object}  model.SessionResponse
// @Failure      401  {object}  model.ErrorResponse
// @Router       /session/touch [post]
func (h *WalletHandler) Touch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	t, ok := token(w, r)
	if !ok {
		return
	}
	s, err := h.m.Touch(t)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}
