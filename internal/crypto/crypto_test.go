package crypto

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/AlexZinkM/seedvault/internal/model"
	"github.com/AlexZinkM/seedvault/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T, salts SaltSource) *Vault {
	t.Helper()
	v, err := NewVault(MinIterations, salts)
	require.NoError(t, err)
	return v
}

func sampleData() model.WalletData {
	return model.WalletData{
		Phrase:    "abandon ability able about above absent absorb abstract absurd abuse access accident",
		Address:   "SVXed84ec26922290622a14c",
		PublicKey: "00",
		CreatedAt: "2026-01-02T03:04:05Z",
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, nil)

	rec, err := v.Encrypt(ctx, sampleData(), []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, model.VaultVersion, rec.Version)
	assert.Len(t, rec.Salt, 2*saltLen)
	assert.Len(t, rec.IV, 2*nonceLen)

	var got model.WalletData
	require.NoError(t, v.Decrypt(rec, []byte("correct horse"), &got))
	assert.Equal(t, sampleData(), got)
}

func TestDecryptWrongPassword(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, nil)

	rec, err := v.Encrypt(ctx, sampleData(), []byte("pw-one"))
	require.NoError(t, err)

	var got model.WalletData
	err = v.Decrypt(rec, []byte("pw-two"), &got)
	assert.ErrorIs(t, err, model.ErrDecryptionFailed)
	assert.NotErrorIs(t, err, model.ErrMalformedRecord)
}

func TestDecryptTamperedIsUndifferentiated(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, nil)

	rec, err := v.Encrypt(ctx, sampleData(), []byte("pw"))
	require.NoError(t, err)

	ct, err := hex.DecodeString(rec.Ciphertext)
	require.NoError(t, err)
	ct[0] ^= 0x01
	rec.Ciphertext = hex.EncodeToString(ct)

	_, err = v.DecryptBytes(rec, []byte("pw"))
	assert.Equal(t, model.ErrDecryptionFailed, err)
}

func TestFreshIVPerEncryption(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	v := newTestVault(t, NewInstallationSalt(kv))

	seen := make(map[string]bool)
	var salt string
	for i := 0; i < 5; i++ {
		rec, err := v.EncryptBytes(ctx, []byte("same"), []byte("pw"))
		require.NoError(t, err)
		assert.False(t, seen[rec.IV], "iv reused")
		seen[rec.IV] = true

		if salt == "" {
			salt = rec.Salt
		}
		assert.Equal(t, salt, rec.Salt, "installation salt must be shared")
	}
}

func TestInstallationSaltPersists(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	a, err := NewInstallationSalt(kv).Salt(ctx)
	require.NoError(t, err)
	b, err := NewInstallationSalt(kv).Salt(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.NoError(t, kv.Put(ctx, SaltKey, []byte("nothex")))
	_, err = NewInstallationSalt(kv).Salt(ctx)
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestParseRecord(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, nil)
	rec, err := v.Encrypt(ctx, sampleData(), []byte("pw"))
	require.NoError(t, err)

	raw, err := MarshalRecord(rec)
	require.NoError(t, err)

	parsed, err := ParseRecord(append([]byte{0xEF, 0xBB, 0xBF}, raw...))
	require.NoError(t, err)
	assert.Equal(t, rec, parsed)

	cases := map[string]string{
		"not json":    `{`,
		"bad version": `{"salt":"` + rec.Salt + `","iv":"` + rec.IV + `","ciphertext":"` + rec.Ciphertext + `","version":"9"}`,
		"short salt":  `{"salt":"00","iv":"` + rec.IV + `","ciphertext":"` + rec.Ciphertext + `","version":"1.0"}`,
		"bad iv":      `{"salt":"` + rec.Salt + `","iv":"zz","ciphertext":"` + rec.Ciphertext + `","version":"1.0"}`,
		"short ct":    `{"salt":"` + rec.Salt + `","iv":"` + rec.IV + `","ciphertext":"00","version":"1.0"}`,
	}
	for name, in := range cases {
		_, err := ParseRecord([]byte(in))
		assert.ErrorIs(t, err, model.ErrMalformedRecord, name)
		assert.NotErrorIs(t, err, model.ErrDecryptionFailed, name)
	}
}

func TestDecryptMalformedIsStructural(t *testing.T) {
	v := newTestVault(t, nil)
	err := v.Decrypt(&model.VaultRecord{Version: model.VaultVersion}, []byte("pw"), &model.WalletData{})
	assert.ErrorIs(t, err, model.ErrMalformedRecord)

	err = v.Decrypt(nil, []byte("pw"), &model.WalletData{})
	assert.ErrorIs(t, err, model.ErrMalformedRecord)
}

func TestNewVaultIterationFloor(t *testing.T) {
	_, err := NewVault(1000, nil)
	assert.Error(t, err)

	v, err := NewVault(0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, v.iterations)
}
