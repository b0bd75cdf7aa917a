package handler

import (
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/AlexZinkM/seedvault/internal/common"
	"github.com/AlexZinkM/seedvault/internal/keys"
	"github.com/AlexZinkM/seedvault/internal/model"

	"go.uber.org/zap"
)

// Sign handles POST /sign
// @Summary      Sign payload
// @Description  Signs a hex encoded payload with the wallet of the session
// @Tags         signing
// @Accept       json
// @Produce      json
// @Param        X-Session-Token  header    string             true  "Session token"
// @Param        request          body      model.SignRequest  true  "Hex payload"
// @Success      200              {object}  model.SignResponse
// @Failure      401              {object}  model.ErrorResponse
// @Router       /sign [post]
func (h *WalletHandler) Sign(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	t, ok := token(w, r)
	if !ok {
		return
	}
	var req model.SignRequest
	if !decode(w, r, &req) {
		return
	}
	payload, err := hex.DecodeString(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("payload must be hex: %w", err))
		return
	}

	sig, pub, err := h.m.Sign(r.Context(), t, payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SignResponse{Signature: sig, PublicKey: pub})
}

// Verify handles POST /verify
// @Summary      Verify signature
// @Description  Checks a signature against a payload and public key. Malformed input is reported as invalid.
// @Tags         signing
// @Accept       json
// @Produce      json
// @Param        request  body      model.VerifyRequest  true  "Hex payload, signature and public key"
// @Success      200      {object}  model.VerifyResponse
// @Router       /verify [post]
func (h *WalletHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req model.VerifyRequest
	if !decode(w, r, &req) {
		return
	}
	payload, err := hex.DecodeString(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("payload must be hex: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, model.VerifyResponse{
		Valid: h.m.Verify(payload, req.Signature, req.PublicKey),
	})
}

// Pay handles POST /pay
// @Summary      Send payment
// @Description  Builds, signs and broadcasts a transfer from the wallet of the session. Amount is a decimal string.
// @Tags         signing
// @Accept       json
// @Produce      json
// @Param        X-Session-Token  header    string            true  "Session token"
// @Param        request          body      model.PayRequest  true  "Payment data"
// @Success      200              {object}  model.PayResponse
// @Failure      400              {object}  model.ErrorResponse
// @Failure      429              {object}  model.ErrorResponse
// @Router       /pay [post]
func (h *WalletHandler) Pay(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	t, ok := token(w, r)
	if !ok {
		return
	}
	var req model.PayRequest
	if !decode(w, r, &req) {
		return
	}
	if !keys.IsAddress(req.ToAddress) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid recipient address %q", req.ToAddress))
		return
	}
	amount, err := common.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	receipt, err := h.m.Pay(r.Context(), t, req.ToAddress, amount)
	if err != nil {
		h.log.Warn("pay failed", zap.Error(err))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.PayResponse{TxID: receipt.TxID, Status: receipt.Status})
}
