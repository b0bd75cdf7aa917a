package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Sentinel errors shared by every layer. Match them with errors.Is.
var (
	ErrInvalidMnemonic        = errors.New("invalid mnemonic")
	ErrInvalidScalar          = errors.New("invalid private scalar")
	ErrWalletLocked           = errors.New("wallet is locked")
	ErrDecryptionFailed       = errors.New("decryption failed")
	ErrMalformedRecord        = errors.New("malformed vault record")
	ErrMalformedPublicKey     = errors.New("malformed public key")
	ErrDuplicateAddress       = errors.New("duplicate address")
	ErrAccountNotFound        = errors.New("account not found")
	ErrLastAccountUndeletable = errors.New("last account cannot be deleted")
	ErrAccountLockedOut       = errors.New("account locked out")
	ErrNoWallet               = errors.New("no wallet configured")
	ErrWalletExists           = errors.New("wallet already exists")
	ErrSessionExpired         = errors.New("session expired")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrCooldown               = errors.New("cooldown active")
	ErrMasterRequired         = errors.New("master account session required")
	ErrMasterUndeletable      = errors.New("master account cannot be deleted")
)

// InvalidMnemonicError describes why a recovery phrase was rejected.
// Word is empty when the word count is wrong.
type InvalidMnemonicError struct {
	Word  string
	Count int
}

func (e *InvalidMnemonicError) Error() string {
	if e.Word != "" {
		return fmt.Sprintf("invalid mnemonic: unknown word %q", e.Word)
	}
	return fmt.Sprintf("invalid mnemonic: expected 12 words, got %d", e.Count)
}

func (e *InvalidMnemonicError) Is(target error) bool {
	return target == ErrInvalidMnemonic
}

// LockedOutError is returned while an account is inside its lockout window.
type LockedOutError struct {
	AccountID string
	Remaining time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("account %s locked out, try again in %v", e.AccountID, e.Remaining.Round(time.Second))
}

func (e *LockedOutError) Is(target error) bool {
	return target == ErrAccountLockedOut
}

// ErrorCode maps an error to the stable code used in ErrorResponse.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMnemonic):
		return "INVALID_MNEMONIC"
	case errors.Is(err, ErrInvalidScalar):
		return "INVALID_SCALAR"
	case errors.Is(err, ErrWalletLocked):
		return "WALLET_LOCKED"
	case errors.Is(err, ErrDecryptionFailed):
		return "DECRYPTION_FAILED"
	case errors.Is(err, ErrMalformedRecord):
		return "MALFORMED_RECORD"
	case errors.Is(err, ErrMalformedPublicKey):
		return "MALFORMED_PUBLIC_KEY"
	case errors.Is(err, ErrDuplicateAddress):
		return "DUPLICATE_ADDRESS"
	case errors.Is(err, ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ErrLastAccountUndeletable):
		return "LAST_ACCOUNT_UNDELETABLE"
	case errors.Is(err, ErrAccountLockedOut):
		return "ACCOUNT_LOCKED_OUT"
	case errors.Is(err, ErrNoWallet):
		return "NO_WALLET"
	case errors.Is(err, ErrWalletExists):
		return "WALLET_EXISTS"
	case errors.Is(err, ErrSessionExpired):
		return "SESSION_EXPIRED"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrCooldown):
		return "COOLDOWN"
	case errors.Is(err, ErrMasterRequired):
		return "MASTER_REQUIRED"
	case errors.Is(err, ErrMasterUndeletable):
		return "MASTER_UNDELETABLE"
	default:
		return "INTERNAL"
	}
}
