package model

import "time"

// Account is public, non-secret metadata for one derived wallet.
type Account struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	IconType        string    `json:"iconType"`
	DerivationIndex uint32    `json:"index"`
	Address         string    `json:"address"`
	PublicKey       string    `json:"publicKey"`
	CachedBalance   uint64    `json:"cachedBalance"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateAccountRequest represents request for POST /accounts/create
type CreateAccountRequest struct {
	Password string `json:"password"`
	Name     string `json:"name"`
	IconType string `json:"iconType"`
}

// AccountRequest addresses an account by its list position. Name and
// IconType are used by rename and icon updates respectively.
type AccountRequest struct {
	Index    int    `json:"index"`
	Name     string `json:"name,omitempty"`
	IconType string `json:"iconType,omitempty"`
}

// DeleteAccountRequest represents request for POST /accounts/delete.
// Password is the master password.
type DeleteAccountRequest struct {
	Index    int    `json:"index"`
	Password string `json:"password"`
}

// AccountsResponse represents response for GET /accounts
type AccountsResponse struct {
	Active   int       `json:"active"`
	Accounts []Account `json:"accounts"`
}

// QRResponse carries a base64 PNG QR code of an address.
type QRResponse struct {
	Address string `json:"address"`
	QR      string `json:"QR"`
}
