// Package account keeps the public account list and derives per-account
// wallets from the master phrase.
package account

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/AlexZinkM/seedvault/internal/keys"
	"github.com/AlexZinkM/seedvault/internal/wallet"
	"github.com/AlexZinkM/seedvault/internal/wordlist"

	"golang.org/x/crypto/hkdf"
)

// Scheme selects how account N's phrase is derived from the master phrase.
type Scheme string

const (
	// SchemeHKDF expands the master seed with HKDF-SHA256 using the index
	// as context. Every word depends on the whole master phrase.
	SchemeHKDF Scheme = "hkdf"
	// SchemeLegacy shifts only the last word by the index. It matches the
	// reference backend and has a much smaller keyspace across accounts.
	SchemeLegacy Scheme = "legacy"

	hkdfSalt = "seedvault-account-v1"
)

// ParseScheme accepts "hkdf", "legacy" or "" (hkdf).
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", SchemeHKDF:
		return SchemeHKDF, nil
	case SchemeLegacy:
		return SchemeLegacy, nil
	default:
		return "", fmt.Errorf("unknown derivation scheme %q", s)
	}
}

// DeriveAccountPhrase returns the phrase of account index. Index 0 is the
// master phrase itself under both schemes.
func DeriveAccountPhrase(master keys.Phrase, index uint32, scheme Scheme) (keys.Phrase, error) {
	if len(master) != keys.PhraseLength {
		return nil, fmt.Errorf("master phrase must have %d words", keys.PhraseLength)
	}
	out := append(keys.Phrase(nil), master...)
	if index == 0 {
		return out, nil
	}

	switch scheme {
	case SchemeLegacy:
		last := len(out) - 1
		i, ok := wordlist.Index(out[last])
		if !ok {
			return nil, fmt.Errorf("master word %q not in wordlist", out[last])
		}
		out[last] = wordlist.Word(i + int(index%wordlist.Size))
		return out, nil
	case SchemeHKDF, "":
		seed := keys.DeriveSeed(master)
		defer clear(seed)

		okm := make([]byte, 2*keys.PhraseLength)
		defer clear(okm)
		r := hkdf.New(sha256.New, seed, []byte(hkdfSalt), []byte("account:"+strconv.FormatUint(uint64(index), 10)))
		if _, err := io.ReadFull(r, okm); err != nil {
			return nil, fmt.Errorf("failed to expand account key: %w", err)
		}
		for i := range out {
			n := binary.BigEndian.Uint16(okm[2*i:])
			out[i] = wordlist.Word(int(n & (wordlist.Size - 1)))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown derivation scheme %q", scheme)
	}
}

// DeriveAccountWallet derives the unlocked wallet of account index.
func DeriveAccountWallet(master keys.Phrase, index uint32, scheme Scheme) (*wallet.Wallet, error) {
	p, err := DeriveAccountPhrase(master, index, scheme)
	if err != nil {
		return nil, err
	}
	w, err := wallet.FromPhrase(p)
	p.Wipe()
	if err != nil {
		return nil, err
	}
	w.Index = index
	w.Scheme = string(scheme)
	return w, nil
}
