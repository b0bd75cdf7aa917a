package model

// VaultVersion is the format tag written into every VaultRecord.
const VaultVersion = "1.0"

// VaultRecord is the encrypted-at-rest container for wallet secrets.
// All byte fields are hex encoded on the wire.
type VaultRecord struct {
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Version    string `json:"version"`
}

// WalletData is the secret payload sealed inside a VaultRecord.
// Derived fields are informational only and are re-derived on import.
type WalletData struct {
	Phrase          string `json:"phrase"`
	Address         string `json:"address"`
	PublicKey       string `json:"publicKey"`
	CreatedAt       string `json:"createdAt"`
	DerivationIndex uint32 `json:"derivationIndex,omitempty"`
	Scheme          string `json:"scheme,omitempty"`
}
