package curve

import (
	"math/big"
	"sync"
)

var (
	secp256k1Once sync.Once
	secp256k1     *Curve

	p256Once sync.Once
	p256     *Curve
)

// Secp256k1 returns the parameters of the SEC 2 curve secp256k1.
func Secp256k1() *Curve {
	secp256k1Once.Do(func() {
		secp256k1 = &Curve{
			Name:    "secp256k1",
			P:       mustHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F"),
			A:       big.NewInt(0),
			B:       big.NewInt(7),
			N:       mustHex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141"),
			BitSize: 256,
			G: Point{
				X: mustHex("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798"),
				Y: mustHex("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8"),
			},
		}
	})
	return secp256k1
}

// P256 returns the parameters of NIST P-256 (secp256r1).
func P256() *Curve {
	p256Once.Do(func() {
		p := mustHex("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFF")
		p256 = &Curve{
			Name:    "P-256",
			P:       p,
			A:       new(big.Int).Sub(p, big.NewInt(3)),
			B:       mustHex("5AC635D8AA3A93E7B3EBBD55769886BC651D06B0CC53B0F63BCE3C3E27D2604B"),
			N:       mustHex("FFFFFFFF00000000FFFFFFFFFFFFFFFFBCE6FAADA7179E84F3B9CAC2FC632551"),
			BitSize: 256,
			G: Point{
				X: mustHex("6B17D1F2E12C4247F8BCE6E563A440F277037D812DEB33A0F4A13945D898C296"),
				Y: mustHex("4FE342E2FE1A7F9B8EE7EB4A7C0F9E162BCE33576B315ECECBB6406837BF51F5"),
			},
		}
	})
	return p256
}

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("curve: bad constant " + s)
	}
	return n
}
