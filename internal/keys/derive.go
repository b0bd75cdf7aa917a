package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/AlexZinkM/seedvault/internal/curve"
	"github.com/AlexZinkM/seedvault/internal/model"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Seed KDF parameters. These are a compatibility contract with the
	// backend implementation and must never change.
	SeedSalt       = "seedvault-mnemonic-v1"
	SeedIterations = 2048
	SeedSize       = 32

	// AddressPrefix is prepended to the first AddressHexLength hex
	// characters of SHA-256(X||Y).
	AddressPrefix    = "SVX"
	AddressHexLength = 21
	AddressLength    = len(AddressPrefix) + AddressHexLength

	coordSize = 32
	// PublicKeySize is the length of an encoded public key (X||Y).
	PublicKeySize = 2 * coordSize
)

// Curve returns the curve all wallet keys live on.
func Curve() *curve.Curve {
	return curve.Secp256k1()
}

// KeyPair is a private scalar and its public point.
type KeyPair struct {
	Scalar *big.Int
	Public curve.Point
}

// DeriveSeed runs PBKDF2-HMAC-SHA256 over the canonical phrase string.
func DeriveSeed(p Phrase) []byte {
	return pbkdf2.Key([]byte(p.String()), []byte(SeedSalt), SeedIterations, SeedSize, sha256.New)
}

// SeedToScalar interprets seed as a big-endian unsigned integer.
func SeedToScalar(seed []byte) *big.Int {
	return new(big.Int).SetBytes(seed)
}

// DerivePublicKey returns scalar*G. A scalar that reduces to zero fails with
// ErrInvalidScalar.
func DerivePublicKey(scalar *big.Int) (curve.Point, error) {
	pt, err := Curve().ScalarBaseMult(scalar)
	if err != nil {
		if errors.Is(err, curve.ErrZeroScalar) {
			return curve.Point{}, fmt.Errorf("%w: %v", model.ErrInvalidScalar, err)
		}
		return curve.Point{}, err
	}
	return pt, nil
}

// EncodePublicKey returns X||Y, each 32 bytes big-endian, left-zero-padded.
func EncodePublicKey(p curve.Point) []byte {
	out := make([]byte, PublicKeySize)
	p.X.FillBytes(out[:coordSize])
	p.Y.FillBytes(out[coordSize:])
	return out
}

// DecodePublicKey parses X||Y and checks the point lies on the curve.
func DecodePublicKey(b []byte) (curve.Point, error) {
	if len(b) != PublicKeySize {
		return curve.Point{}, fmt.Errorf("%w: expected %d bytes, got %d", model.ErrMalformedPublicKey, PublicKeySize, len(b))
	}
	p := curve.Point{
		X: new(big.Int).SetBytes(b[:coordSize]),
		Y: new(big.Int).SetBytes(b[coordSize:]),
	}
	if p.IsInfinity() || !Curve().IsOnCurve(p) {
		return curve.Point{}, fmt.Errorf("%w: point not on curve", model.ErrMalformedPublicKey)
	}
	return p, nil
}

// DecodePublicKeyHex is DecodePublicKey for the 128-character hex form.
func DecodePublicKeyHex(s string) (curve.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return curve.Point{}, fmt.Errorf("%w: %v", model.ErrMalformedPublicKey, err)
	}
	return DecodePublicKey(b)
}

// DeriveAddress hashes the 64 raw public key bytes and formats the address.
func DeriveAddress(pub []byte) string {
	sum := sha256.Sum256(pub)
	return AddressPrefix + hex.EncodeToString(sum[:])[:AddressHexLength]
}

// IsAddress reports whether s has the address text format.
func IsAddress(s string) bool {
	if len(s) != AddressLength || !strings.HasPrefix(s, AddressPrefix) {
		return false
	}
	for _, r := range s[len(AddressPrefix):] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// DeriveKeyPair runs the full phrase -> seed -> scalar -> point chain. The
// returned scalar is reduced into [1, n-1].
func DeriveKeyPair(p Phrase) (KeyPair, error) {
	seed := DeriveSeed(p)
	defer clear(seed)

	scalar := curve.Mod(SeedToScalar(seed), Curve().N)
	pub, err := DerivePublicKey(scalar)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Scalar: scalar, Public: pub}, nil
}

// PublicKeyBytes returns the encoded public key.
func (k KeyPair) PublicKeyBytes() []byte {
	return EncodePublicKey(k.Public)
}

// PublicKeyHex returns the 128-character hex public key.
func (k KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.PublicKeyBytes())
}

// Address returns the address of the public key.
func (k KeyPair) Address() string {
	return DeriveAddress(k.PublicKeyBytes())
}

// Wipe zeroes the private scalar.
func (k *KeyPair) Wipe() {
	if k.Scalar != nil {
		clear(k.Scalar.Bits())
		k.Scalar.SetInt64(0)
		k.Scalar = nil
	}
}
