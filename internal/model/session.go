package model

// UnlockRequest represents request for POST /wallet/unlock
type UnlockRequest struct {
	Index    int    `json:"index"`
	Password string `json:"password"`
}

// SessionResponse is returned by unlock and session touch.
type SessionResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
	ExpiresAt string `json:"expiresAt"`
}

// SignRequest represents request for POST /sign. Payload is hex encoded.
type SignRequest struct {
	Payload string `json:"payload"`
}

// SignResponse represents response for POST /sign
type SignResponse struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// VerifyRequest represents request for POST /verify
type VerifyRequest struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
}

// VerifyResponse represents response for POST /verify
type VerifyResponse struct {
	Valid bool `json:"valid"`
}
