package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/seedvault/internal/model"
)

// SessionHeader carries the session token returned by unlock.
const SessionHeader = "X-Session-Token"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: model.ErrorCode(err)})
}

// writeDomainError maps err to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	var locked *model.LockedOutError
	if errors.As(err, &locked) {
		secs := int(math.Ceil(locked.Remaining.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeError(w, statusFor(err), err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidMnemonic),
		errors.Is(err, model.ErrMalformedPublicKey),
		errors.Is(err, model.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrWalletLocked),
		errors.Is(err, model.ErrSessionExpired),
		errors.Is(err, model.ErrDecryptionFailed):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrMasterRequired):
		return http.StatusForbidden
	case errors.Is(err, model.ErrAccountNotFound),
		errors.Is(err, model.ErrNoWallet):
		return http.StatusNotFound
	case errors.Is(err, model.ErrWalletExists),
		errors.Is(err, model.ErrDuplicateAddress),
		errors.Is(err, model.ErrLastAccountUndeletable),
		errors.Is(err, model.ErrMasterUndeletable):
		return http.StatusConflict
	case errors.Is(err, model.ErrMalformedRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrAccountLockedOut):
		return http.StatusLocked
	case errors.Is(err, model.ErrCooldown):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed. Should be "+method, http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func token(w http.ResponseWriter, r *http.Request) (string, bool) {
	t := r.Header.Get(SessionHeader)
	if t == "" {
		writeDomainError(w, model.ErrSessionExpired)
		return "", false
	}
	return t, true
}
