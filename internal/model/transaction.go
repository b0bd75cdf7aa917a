package model

// TransactionVersion is the format version of Transaction payloads.
const TransactionVersion = 1

// UTXO is an unspent output reported by the ledger for an address.
type UTXO struct {
	TxID   string `json:"txId"`
	Vout   uint32 `json:"vout"`
	Amount uint64 `json:"amount"`
	Height int64  `json:"height"`
}

// Transaction is the unsigned transfer payload. Amounts are in base units.
type Transaction struct {
	Version   int    `json:"version"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	Fee       uint64 `json:"fee"`
	Change    uint64 `json:"change"`
	Inputs    []UTXO `json:"inputs"`
	Timestamp int64  `json:"timestamp"`
}

// SignedTransaction is what the ledger broadcast endpoint accepts.
type SignedTransaction struct {
	Tx        Transaction `json:"tx"`
	TxID      string      `json:"txId"`
	Signature string      `json:"signature"`
	PublicKey string      `json:"publicKey"`
}

// BroadcastReceipt is returned by the ledger after a broadcast.
type BroadcastReceipt struct {
	TxID     string `json:"txId"`
	Status   string `json:"status"`
	Accepted bool   `json:"accepted"`
}
