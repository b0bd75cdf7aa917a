// Package wallet holds an unlocked keypair in memory and performs the
// operations that need the private scalar.
package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/AlexZinkM/seedvault/internal/crypto"
	"github.com/AlexZinkM/seedvault/internal/keys"
	"github.com/AlexZinkM/seedvault/internal/model"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// SignatureSize is the length of an encoded r||s signature.
const SignatureSize = 64

// Wallet is a derived keypair plus the phrase it came from. After Lock the
// phrase and scalar are gone and only public data remains.
//
// A Wallet is not safe for concurrent use.
type Wallet struct {
	phrase    keys.Phrase
	pair      keys.KeyPair
	publicKey []byte
	address   string
	createdAt time.Time
	locked    bool

	// Derivation metadata carried into the encrypted payload.
	Index  uint32
	Scheme string
}

// Create generates a fresh phrase and returns an unlocked wallet.
func Create() (*Wallet, error) {
	p, err := keys.GeneratePhrase()
	if err != nil {
		return nil, err
	}
	return fromPhrase(p, time.Now().UTC())
}

// Restore validates text and derives its wallet.
func Restore(text string) (*Wallet, error) {
	p, err := keys.ValidatePhrase(text)
	if err != nil {
		return nil, err
	}
	return fromPhrase(p, time.Now().UTC())
}

// FromPhrase derives a wallet from an already validated phrase.
func FromPhrase(p keys.Phrase) (*Wallet, error) {
	return fromPhrase(append(keys.Phrase(nil), p...), time.Now().UTC())
}

func fromPhrase(p keys.Phrase, createdAt time.Time) (*Wallet, error) {
	pair, err := keys.DeriveKeyPair(p)
	if err != nil {
		return nil, err
	}
	pub := pair.PublicKeyBytes()
	return &Wallet{
		phrase:    p,
		pair:      pair,
		publicKey: pub,
		address:   keys.DeriveAddress(pub),
		createdAt: createdAt,
	}, nil
}

// Address returns the wallet address. It survives Lock.
func (w *Wallet) Address() string { return w.address }

// PublicKeyHex returns the 128-character hex public key. It survives Lock.
func (w *Wallet) PublicKeyHex() string { return hex.EncodeToString(w.publicKey) }

// CreatedAt returns when the wallet was first created.
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }

// Locked reports whether the secret material has been discarded.
func (w *Wallet) Locked() bool { return w.locked }

// Phrase returns a copy of the recovery phrase.
func (w *Wallet) Phrase() (keys.Phrase, error) {
	if w.locked {
		return nil, model.ErrWalletLocked
	}
	return append(keys.Phrase(nil), w.phrase...), nil
}

// Lock wipes the phrase and private scalar. It is idempotent.
func (w *Wallet) Lock() {
	w.phrase.Wipe()
	w.phrase = nil
	w.pair.Wipe()
	w.locked = true
}

// Sign returns the hex r||s ECDSA signature over SHA-256(payload).
// Nonces are deterministic (RFC 6979) and s is low-normalised.
func (w *Wallet) Sign(payload []byte) (string, error) {
	sig, err := w.sign(payload)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

func (w *Wallet) sign(payload []byte) ([]byte, error) {
	if w.locked || w.pair.Scalar == nil {
		return nil, model.ErrWalletLocked
	}

	var raw [32]byte
	w.pair.Scalar.FillBytes(raw[:])
	defer clear(raw[:])

	priv, _ := btcec.PrivKeyFromBytes(raw[:])
	defer priv.Zero()

	hash := sha256.Sum256(payload)
	sig := ecdsa.Sign(priv, hash[:])

	r, s := sig.R(), sig.S()
	rb, sb := r.Bytes(), s.Bytes()
	out := make([]byte, 0, SignatureSize)
	out = append(out, rb[:]...)
	return append(out, sb[:]...), nil
}

// Verify checks a hex r||s signature over SHA-256(payload) against a hex
// X||Y public key. Malformed input yields false.
func Verify(payload []byte, signatureHex, publicKeyHex string) bool {
	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil || len(sigBytes) != SignatureSize {
		return false
	}
	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pubBytes) != keys.PublicKeySize {
		return false
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sigBytes[:32]); overflow || r.IsZero() {
		return false
	}
	if overflow := s.SetByteSlice(sigBytes[32:]); overflow || s.IsZero() {
		return false
	}

	pub, err := btcec.ParsePubKey(append([]byte{0x04}, pubBytes...))
	if err != nil {
		return false
	}

	hash := sha256.Sum256(payload)
	return ecdsa.NewSignature(&r, &s).Verify(hash[:], pub)
}

// ExportEncrypted seals the wallet payload with vault.
// password must be []byte for security (caller should zero it after use)
func (w *Wallet) ExportEncrypted(ctx context.Context, vault *crypto.Vault, password []byte) (*model.VaultRecord, error) {
	if w.locked {
		return nil, model.ErrWalletLocked
	}
	data := model.WalletData{
		Phrase:          w.phrase.String(),
		Address:         w.address,
		PublicKey:       w.PublicKeyHex(),
		CreatedAt:       w.createdAt.Format(time.RFC3339),
		DerivationIndex: w.Index,
		Scheme:          w.Scheme,
	}
	record, err := vault.Encrypt(ctx, data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt wallet: %w", err)
	}
	return record, nil
}

// ImportEncrypted opens record and re-derives the wallet from the recovered
// phrase. The stored address and public key are only checked against the
// derivation, never trusted.
// password must be []byte for security (caller should zero it after use)
func ImportEncrypted(vault *crypto.Vault, record *model.VaultRecord, password []byte) (*Wallet, error) {
	var data model.WalletData
	if err := vault.Decrypt(record, password, &data); err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339, data.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: createdAt: %v", model.ErrMalformedRecord, err)
	}

	p, err := keys.ValidatePhrase(data.Phrase)
	if err != nil {
		return nil, fmt.Errorf("%w: stored phrase: %v", model.ErrMalformedRecord, err)
	}

	w, err := fromPhrase(p, createdAt)
	if err != nil {
		return nil, err
	}
	if data.Address != "" && data.Address != w.address {
		w.Lock()
		return nil, fmt.Errorf("%w: stored address %s does not match phrase", model.ErrMalformedRecord, data.Address)
	}
	if data.PublicKey != "" {
		pub, err := keys.DecodePublicKeyHex(data.PublicKey)
		if err != nil || !pub.Equal(w.pair.Public) {
			w.Lock()
			return nil, fmt.Errorf("%w: stored public key does not match phrase", model.ErrMalformedRecord)
		}
	}
	w.Index = data.DerivationIndex
	w.Scheme = data.Scheme
	return w, nil
}
