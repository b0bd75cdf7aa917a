package wallet

import (
	"testing"

	"github.com/AlexZinkM/seedvault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipient = "SVX96ec54abcbd535d10bfae"

func utxos() []model.UTXO {
	return []model.UTXO{
		{TxID: "c", Vout: 0, Amount: 500, Height: 30},
		{TxID: "a", Vout: 1, Amount: 300, Height: 10},
		{TxID: "b", Vout: 0, Amount: 400, Height: 20},
	}
}

func TestBuildTransactionOldestFirst(t *testing.T) {
	tx, err := BuildTransaction(fixtureAddress, recipient, 600, 10, utxos())
	require.NoError(t, err)

	require.Len(t, tx.Inputs, 2)
	assert.Equal(t, "a", tx.Inputs[0].TxID)
	assert.Equal(t, "b", tx.Inputs[1].TxID)
	assert.Equal(t, uint64(90), tx.Change)
	assert.Equal(t, model.TransactionVersion, tx.Version)
}

func TestBuildTransactionExact(t *testing.T) {
	tx, err := BuildTransaction(fixtureAddress, recipient, 290, 10, utxos())
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	assert.Zero(t, tx.Change)
}

func TestBuildTransactionInsufficient(t *testing.T) {
	_, err := BuildTransaction(fixtureAddress, recipient, 1200, 1, utxos())
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	_, err = BuildTransaction(fixtureAddress, recipient, 1, 0, nil)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
}

func TestBuildTransactionValidation(t *testing.T) {
	_, err := BuildTransaction("bogus", recipient, 1, 0, utxos())
	assert.Error(t, err)
	_, err = BuildTransaction(fixtureAddress, "bogus", 1, 0, utxos())
	assert.Error(t, err)
	_, err = BuildTransaction(fixtureAddress, recipient, 0, 0, utxos())
	assert.Error(t, err)
	_, err = BuildTransaction(fixtureAddress, recipient, ^uint64(0), 1, utxos())
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)

	tx, err := BuildTransaction(w.Address(), recipient, 100, 1, utxos())
	require.NoError(t, err)

	stx, err := w.SignTransaction(tx)
	require.NoError(t, err)

	id, err := TxID(tx)
	require.NoError(t, err)
	assert.Equal(t, id, stx.TxID)
	assert.Equal(t, w.PublicKeyHex(), stx.PublicKey)
	assert.True(t, VerifyTransaction(stx))

	stx.Tx.Amount++
	assert.False(t, VerifyTransaction(stx))
}

func TestSignTransactionWrongSender(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)

	tx, err := BuildTransaction(recipient, fixtureAddress, 100, 1, utxos())
	require.NoError(t, err)

	_, err = w.SignTransaction(tx)
	assert.Error(t, err)
}

func TestSignTransactionLocked(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)
	tx, err := BuildTransaction(w.Address(), recipient, 100, 1, utxos())
	require.NoError(t, err)

	w.Lock()
	_, err = w.SignTransaction(tx)
	assert.ErrorIs(t, err, model.ErrWalletLocked)
}
