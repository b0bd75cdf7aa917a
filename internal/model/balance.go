package model

// BalanceRequest represents request for POST /accounts/balance
type BalanceRequest struct {
	Index int `json:"index"`
}

// BalanceResponse represents response for POST /accounts/balance
type BalanceResponse struct {
	Address   string `json:"address"`
	Balance   string `json:"balance"`
	BaseUnits uint64 `json:"baseUnits"`
}
