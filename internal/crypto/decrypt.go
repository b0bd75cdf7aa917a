package crypto

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/AlexZinkM/seedvault/internal/model"
)

// Decrypt opens record and unmarshals the payload into out.
// Wrong password and tampered ciphertext both yield ErrDecryptionFailed;
// structural problems yield ErrMalformedRecord.
// password must be []byte for security (caller should zero it after use)
func (v *Vault) Decrypt(record *model.VaultRecord, password []byte, out any) error {
	plaintext, err := v.DecryptBytes(record, password)
	if err != nil {
		return err
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: payload: %v", model.ErrMalformedRecord, err)
	}
	return nil
}

// DecryptBytes opens record and returns the raw plaintext.
func (v *Vault) DecryptBytes(record *model.VaultRecord, password []byte) ([]byte, error) {
	salt, nonce, ciphertext, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}

	aesGCM, err := v.newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, model.ErrDecryptionFailed
	}
	return plaintext, nil
}

// ParseRecord decodes the JSON wire form and validates its structure.
func ParseRecord(data []byte) (*model.VaultRecord, error) {
	// Skip UTF-8 BOM if present
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	var r model.VaultRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedRecord, err)
	}
	if _, _, _, err := decodeRecord(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func decodeRecord(r *model.VaultRecord) (salt, nonce, ciphertext []byte, err error) {
	if r == nil {
		return nil, nil, nil, fmt.Errorf("%w: nil record", model.ErrMalformedRecord)
	}
	if r.Version != model.VaultVersion {
		return nil, nil, nil, fmt.Errorf("%w: unsupported version %q", model.ErrMalformedRecord, r.Version)
	}

	if salt, err = hex.DecodeString(r.Salt); err != nil || len(salt) != saltLen {
		return nil, nil, nil, fmt.Errorf("%w: bad salt", model.ErrMalformedRecord)
	}
	if nonce, err = hex.DecodeString(r.IV); err != nil || len(nonce) != nonceLen {
		return nil, nil, nil, fmt.Errorf("%w: bad iv", model.ErrMalformedRecord)
	}
	// GCM output is at least one 16-byte tag.
	if ciphertext, err = hex.DecodeString(r.Ciphertext); err != nil || len(ciphertext) < 16 {
		return nil, nil, nil, fmt.Errorf("%w: bad ciphertext", model.ErrMalformedRecord)
	}
	return salt, nonce, ciphertext, nil
}
