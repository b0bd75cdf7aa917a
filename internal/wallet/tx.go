package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/AlexZinkM/seedvault/internal/keys"
	"github.com/AlexZinkM/seedvault/internal/model"
)

// BuildTransaction selects inputs from utxos, oldest first, until amount+fee
// is covered. Any excess is returned to from as change.
func BuildTransaction(from, to string, amount, fee uint64, utxos []model.UTXO) (*model.Transaction, error) {
	if !keys.IsAddress(from) {
		return nil, fmt.Errorf("invalid sender address %q", from)
	}
	if !keys.IsAddress(to) {
		return nil, fmt.Errorf("invalid recipient address %q", to)
	}
	if amount == 0 {
		return nil, errors.New("amount must be greater than zero")
	}
	need := amount + fee
	if need < amount {
		return nil, errors.New("amount overflow")
	}

	sorted := append([]model.UTXO(nil), utxos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Height != sorted[j].Height {
			return sorted[i].Height < sorted[j].Height
		}
		if sorted[i].TxID != sorted[j].TxID {
			return sorted[i].TxID < sorted[j].TxID
		}
		return sorted[i].Vout < sorted[j].Vout
	})

	var (
		inputs []model.UTXO
		total  uint64
	)
	for _, u := range sorted {
		if total >= need {
			break
		}
		inputs = append(inputs, u)
		total += u.Amount
	}
	if total < need {
		return nil, fmt.Errorf("%w: need %d, have %d", model.ErrInsufficientFunds, need, total)
	}

	return &model.Transaction{
		Version:   model.TransactionVersion,
		From:      from,
		To:        to,
		Amount:    amount,
		Fee:       fee,
		Change:    total - need,
		Inputs:    inputs,
		Timestamp: time.Now().Unix(),
	}, nil
}

// CanonicalBytes is the signed encoding of tx.
func CanonicalBytes(tx *model.Transaction) ([]byte, error) {
	b, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}
	return b, nil
}

// TxID is the hex SHA-256 of the canonical encoding.
func TxID(tx *model.Transaction) (string, error) {
	b, err := CanonicalBytes(tx)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// SignTransaction signs tx with the wallet key. tx.From must be this
// wallet's address.
func (w *Wallet) SignTransaction(tx *model.Transaction) (*model.SignedTransaction, error) {
	if tx.From != w.address {
		return nil, fmt.Errorf("transaction sender %s is not wallet %s", tx.From, w.address)
	}
	b, err := CanonicalBytes(tx)
	if err != nil {
		return nil, err
	}
	sig, err := w.Sign(b)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(b)
	return &model.SignedTransaction{
		Tx:        *tx,
		TxID:      hex.EncodeToString(sum[:]),
		Signature: sig,
		PublicKey: w.PublicKeyHex(),
	}, nil
}

// VerifyTransaction checks the signature, the txid and that the public key
// belongs to the sender address.
func VerifyTransaction(stx *model.SignedTransaction) bool {
	pub, err := hex.DecodeString(stx.PublicKey)
	if err != nil || keys.DeriveAddress(pub) != stx.Tx.From {
		return false
	}
	id, err := TxID(&stx.Tx)
	if err != nil || id != stx.TxID {
		return false
	}
	b, err := CanonicalBytes(&stx.Tx)
	if err != nil {
		return false
	}
	return Verify(b, stx.Signature, stx.PublicKey)
}
