package crypto

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/AlexZinkM/seedvault/internal/store"
)

// SaltKey is the store key of the per-installation salt.
const SaltKey = "vault:salt"

// SaltSource supplies the KDF salt for a new record.
type SaltSource interface {
	Salt(ctx context.Context) ([]byte, error)
}

// RandomSalt draws a fresh salt for every record.
type RandomSalt struct{}

func (RandomSalt) Salt(context.Context) ([]byte, error) {
	return newSalt()
}

// InstallationSalt shares one persisted salt across all records of a
// device profile. The salt is created on first use.
type InstallationSalt struct {
	kv store.KV

	mu   sync.Mutex
	salt []byte
}

// NewInstallationSalt returns a SaltSource backed by kv.
func NewInstallationSalt(kv store.KV) *InstallationSalt {
	return &InstallationSalt{kv: kv}
}

func (s *InstallationSalt) Salt(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.salt != nil {
		return append([]byte(nil), s.salt...), nil
	}

	raw, err := s.kv.Get(ctx, SaltKey)
	switch {
	case err == nil:
		salt, derr := hex.DecodeString(string(raw))
		if derr != nil || len(salt) != saltLen {
			return nil, fmt.Errorf("%w: stored installation salt", store.ErrCorrupt)
		}
		s.salt = salt
	case errors.Is(err, store.ErrNotFound):
		salt, err := newSalt()
		if err != nil {
			return nil, err
		}
		if err := s.kv.Put(ctx, SaltKey, []byte(hex.EncodeToString(salt))); err != nil {
			return nil, fmt.Errorf("failed to persist salt: %w", err)
		}
		s.salt = salt
	default:
		return nil, err
	}
	return append([]byte(nil), s.salt...), nil
}

// Reset forgets the cached salt so the next call reloads it from the store.
func (s *InstallationSalt) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.salt = nil
}

func newSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
