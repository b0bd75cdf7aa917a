package model

// CreateWalletRequest represents request for POST /wallet/create
type CreateWalletRequest struct {
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RestoreWalletRequest represents request for POST /wallet/restore
type RestoreWalletRequest struct {
	Phrase   string `json:"phrase"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// GenerateResponse represents response for POST /wallet/create and /wallet/restore.
// Phrase is only populated on create and must be shown to the user once.
type GenerateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Address string `json:"address,omitempty"`
	Phrase  string `json:"phrase,omitempty"`
}
