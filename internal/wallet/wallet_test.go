package wallet

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/AlexZinkM/seedvault/internal/crypto"
	"github.com/AlexZinkM/seedvault/internal/model"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixturePhrase  = "abandon ability able about above absent absorb abstract absurd abuse access accident"
	fixtureAddress = "SVXed84ec26922290622a14c"
)

func testVault(t *testing.T) *crypto.Vault {
	t.Helper()
	v, err := crypto.NewVault(crypto.MinIterations, nil)
	require.NoError(t, err)
	return v
}

func TestRestoreDeterministic(t *testing.T) {
	a, err := Restore(fixturePhrase)
	require.NoError(t, err)
	b, err := Restore(strings.ToUpper(fixturePhrase))
	require.NoError(t, err)

	assert.Equal(t, fixtureAddress, a.Address())
	assert.Equal(t, a.Address(), b.Address())
	assert.Equal(t, a.PublicKeyHex(), b.PublicKeyHex())
	assert.False(t, a.Locked())
}

func TestRestoreInvalid(t *testing.T) {
	_, err := Restore("abandon ability")
	assert.ErrorIs(t, err, model.ErrInvalidMnemonic)
}

func TestCreate(t *testing.T) {
	w, err := Create()
	require.NoError(t, err)

	p, err := w.Phrase()
	require.NoError(t, err)

	again, err := Restore(p.String())
	require.NoError(t, err)
	assert.Equal(t, w.Address(), again.Address())
}

func TestSignVerify(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)

	msg := []byte("hello ledger")
	sig, err := w.Sign(msg)
	require.NoError(t, err)
	assert.Len(t, sig, 2*SignatureSize)

	again, err := w.Sign(msg)
	require.NoError(t, err)
	assert.Equal(t, sig, again, "signatures are deterministic")

	assert.True(t, Verify(msg, sig, w.PublicKeyHex()))
	assert.False(t, Verify([]byte("other"), sig, w.PublicKeyHex()))

	other, err := Create()
	require.NoError(t, err)
	assert.False(t, Verify(msg, sig, other.PublicKeyHex()))
}

func TestSignatureLowS(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)

	for i := 0; i < 16; i++ {
		sig, err := w.sign([]byte{byte(i)})
		require.NoError(t, err)

		var s btcec.ModNScalar
		s.SetByteSlice(sig[32:])
		assert.False(t, s.IsOverHalfOrder())
	}
}

func TestVerifyMalformedReturnsFalse(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)
	msg := []byte("x")
	sig, err := w.Sign(msg)
	require.NoError(t, err)
	pub := w.PublicKeyHex()

	assert.False(t, Verify(msg, "zz", pub))
	assert.False(t, Verify(msg, sig[:10], pub))
	assert.False(t, Verify(msg, strings.Repeat("0", 128), pub))
	assert.False(t, Verify(msg, strings.Repeat("f", 128), pub))
	assert.False(t, Verify(msg, sig, "abcd"))
	assert.False(t, Verify(msg, sig, strings.Repeat("01", 64)))
	assert.False(t, Verify(msg, sig, "not hex at all"))
}

func TestLock(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)
	addr := w.Address()

	w.Lock()
	w.Lock()
	assert.True(t, w.Locked())

	_, err = w.Sign([]byte("x"))
	assert.ErrorIs(t, err, model.ErrWalletLocked)

	_, err = w.Phrase()
	assert.ErrorIs(t, err, model.ErrWalletLocked)
	assert.Nil(t, w.phrase)
	assert.Nil(t, w.pair.Scalar)

	_, err = w.ExportEncrypted(context.Background(), testVault(t), []byte("pw"))
	assert.ErrorIs(t, err, model.ErrWalletLocked)

	assert.Equal(t, addr, w.Address())
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)

	w, err := Restore(fixturePhrase)
	require.NoError(t, err)
	w.Index = 3
	w.Scheme = "hkdf"

	rec, err := w.ExportEncrypted(ctx, v, []byte("pw"))
	require.NoError(t, err)

	got, err := ImportEncrypted(v, rec, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, fixtureAddress, got.Address())
	assert.Equal(t, uint32(3), got.Index)
	assert.Equal(t, "hkdf", got.Scheme)
	assert.Equal(t, w.CreatedAt().Unix(), got.CreatedAt().Unix())

	_, err = ImportEncrypted(v, rec, []byte("wrong"))
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)

	rec.Version = "0.9"
	_, err = ImportEncrypted(v, rec, []byte("pw"))
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
}

func TestImportRejectsMismatchedAddress(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)

	rec, err := v.Encrypt(ctx, model.WalletData{
		Phrase:    fixturePhrase,
		Address:   "SVX000000000000000000000",
		CreatedAt: "2026-01-01T00:00:00Z",
	}, []byte("pw"))
	require.NoError(t, err)

	_, err = ImportEncrypted(v, rec, []byte("pw"))
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
}

func TestImportRejectsMismatchedPublicKey(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)

	other, err := Create()
	require.NoError(t, err)

	for _, pub := range []string{other.PublicKeyHex(), "zz", strings.Repeat("01", 64)} {
		rec, err := v.Encrypt(ctx, model.WalletData{
			Phrase:    fixturePhrase,
			Address:   fixtureAddress,
			PublicKey: pub,
			CreatedAt: "2026-01-01T00:00:00Z",
		}, []byte("pw"))
		require.NoError(t, err)

		_, err = ImportEncrypted(v, rec, []byte("pw"))
		assert.ErrorIs(t, err, model.ErrMalformedRecord)
	}
}

func TestImportRejectsBadPhrase(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)

	rec, err := v.Encrypt(ctx, model.WalletData{
		Phrase:    "only three words",
		CreatedAt: "2026-01-01T00:00:00Z",
	}, []byte("pw"))
	require.NoError(t, err)

	_, err = ImportEncrypted(v, rec, []byte("pw"))
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
	assert.NotErrorIs(t, err, model.ErrDecryptionFailed)
	assert.Contains(t, err.Error(), "stored phrase")
}

func TestImportRejectsBadCreatedAt(t *testing.T) {
	ctx := context.Background()
	v := testVault(t)

	for _, createdAt := range []string{"", "yesterday", "2026-01-01"} {
		rec, err := v.Encrypt(ctx, model.WalletData{
			Phrase:    fixturePhrase,
			Address:   fixtureAddress,
			CreatedAt: createdAt,
		}, []byte("pw"))
		require.NoError(t, err)

		_, err = ImportEncrypted(v, rec, []byte("pw"))
		assert.ErrorIs(t, err, model.ErrMalformedRecord, "createdAt %q", createdAt)
	}
}

func TestSignMatchesBtcecVerify(t *testing.T) {
	w, err := Restore(fixturePhrase)
	require.NoError(t, err)

	raw, err := w.sign([]byte("payload"))
	require.NoError(t, err)

	pubBytes, err := hex.DecodeString(w.PublicKeyHex())
	require.NoError(t, err)
	pub, err := btcec.ParsePubKey(append([]byte{0x04}, pubBytes...))
	require.NoError(t, err)

	var scalar [32]byte
	w.pair.Scalar.FillBytes(scalar[:])
	_, derived := btcec.PrivKeyFromBytes(scalar[:])
	assert.True(t, pub.IsEqual(derived))
	assert.Len(t, raw, SignatureSize)
}
