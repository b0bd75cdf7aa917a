package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/AlexZinkM/seedvault/internal/model"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2-SHA256 parameters for the vault key.
	//
	// DefaultIterations follows current OWASP guidance for PBKDF2-HMAC-SHA256.
	// MinIterations is the floor accepted from configuration.
	DefaultIterations = 210_000
	MinIterations     = 100_000
	keyLen            = 32
	saltLen           = 16
	nonceLen          = 12
)

// Vault seals JSON-serializable payloads under a password-derived key.
// A Vault holds no secret state and is safe for concurrent use.
type Vault struct {
	iterations int
	salts      SaltSource
}

// NewVault returns a Vault. A nil salts source draws a fresh random salt
// for every record.
func NewVault(iterations int, salts SaltSource) (*Vault, error) {
	if iterations == 0 {
		iterations = DefaultIterations
	}
	if iterations < MinIterations {
		return nil, fmt.Errorf("vault iterations %d below minimum %d", iterations, MinIterations)
	}
	if salts == nil {
		salts = RandomSalt{}
	}
	return &Vault{iterations: iterations, salts: salts}, nil
}

// Encrypt serializes payload to JSON and seals it with AES-256-GCM.
// password must be []byte for security (caller should zero it after use)
func (v *Vault) Encrypt(ctx context.Context, payload any, password []byte) (*model.VaultRecord, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	return v.EncryptBytes(ctx, plaintext, password)
}

// EncryptBytes seals raw plaintext. Every call uses a fresh random IV.
func (v *Vault) EncryptBytes(ctx context.Context, plaintext, password []byte) (*model.VaultRecord, error) {
	salt, err := v.salts.Salt(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain salt: %w", err)
	}
	if len(salt) != saltLen {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", saltLen, len(salt))
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := v.newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	return &model.VaultRecord{
		Salt:       hex.EncodeToString(salt),
		IV:         hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
		Version:    model.VaultVersion,
	}, nil
}

// newGCM derives the record key and wraps it in an AES-GCM AEAD.
func (v *Vault) newGCM(password, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(password, salt, v.iterations, keyLen, sha256.New)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// MarshalRecord returns the JSON wire form of a record.
func MarshalRecord(r *model.VaultRecord) ([]byte, error) {
	return json.Marshal(r)
}
