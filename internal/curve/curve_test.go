package curve

import (
	"crypto/elliptic"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModNonNegative(t *testing.T) {
	m := big.NewInt(7)
	assert.Equal(t, int64(4), Mod(big.NewInt(-3), m).Int64())
	assert.Equal(t, int64(0), Mod(big.NewInt(-14), m).Int64())
	assert.Equal(t, int64(3), Mod(big.NewInt(10), m).Int64())
}

func TestModInverse(t *testing.T) {
	inv, err := ModInverse(big.NewInt(3), big.NewInt(11))
	require.NoError(t, err)
	assert.Equal(t, int64(4), inv.Int64())

	inv, err = ModInverse(big.NewInt(-3), big.NewInt(11))
	require.NoError(t, err)
	assert.Equal(t, int64(7), inv.Int64())

	_, err = ModInverse(big.NewInt(6), big.NewInt(9))
	assert.ErrorIs(t, err, ErrNotInvertible)

	_, err = ModInverse(big.NewInt(0), big.NewInt(9))
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestModInverseMatchesBigInt(t *testing.T) {
	c := Secp256k1()
	a := mustHex("123456789ABCDEF0FEDCBA987654321")
	got, err := ModInverse(a, c.P)
	require.NoError(t, err)
	want := new(big.Int).ModInverse(a, c.P)
	assert.Equal(t, 0, got.Cmp(want))
}

func TestBasePointsOnCurve(t *testing.T) {
	for _, c := range []*Curve{Secp256k1(), P256()} {
		assert.True(t, c.IsOnCurve(c.G), c.Name)
		assert.False(t, c.IsOnCurve(Point{X: big.NewInt(1), Y: big.NewInt(1)}), c.Name)
	}
}

func TestInfinityIsIdentity(t *testing.T) {
	c := Secp256k1()
	inf := Infinity()

	assert.True(t, c.Add(inf, c.G).Equal(c.G))
	assert.True(t, c.Add(c.G, inf).Equal(c.G))
	assert.True(t, c.Double(inf).IsInfinity())
	assert.True(t, c.Add(c.G, negG(c)).IsInfinity())
}

func TestDoubleEqualsAdd(t *testing.T) {
	c := Secp256k1()
	assert.True(t, c.Double(c.G).Equal(c.Add(c.G, c.G)))

	three, err := c.Multiply(big.NewInt(3), c.G)
	require.NoError(t, err)
	assert.True(t, three.Equal(c.Add(c.Double(c.G), c.G)))
	assert.True(t, c.IsOnCurve(three))
}

func TestMultiplyRejectsZeroScalar(t *testing.T) {
	c := Secp256k1()
	_, err := c.Multiply(big.NewInt(0), c.G)
	assert.ErrorIs(t, err, ErrZeroScalar)

	_, err = c.Multiply(new(big.Int).Set(c.N), c.G)
	assert.ErrorIs(t, err, ErrZeroScalar)

	_, err = c.Multiply(nil, c.G)
	assert.ErrorIs(t, err, ErrZeroScalar)
}

func TestMultiplyReducesScalar(t *testing.T) {
	c := Secp256k1()
	k := big.NewInt(5)
	a, err := c.Multiply(k, c.G)
	require.NoError(t, err)
	b, err := c.Multiply(new(big.Int).Add(k, c.N), c.G)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestMultiplyOrderMinusOne(t *testing.T) {
	c := Secp256k1()
	p, err := c.Multiply(new(big.Int).Sub(c.N, big.NewInt(1)), c.G)
	require.NoError(t, err)
	assert.True(t, p.Equal(negG(c)))
}

func negG(c *Curve) Point {
	return Point{X: new(big.Int).Set(c.G.X), Y: new(big.Int).Sub(c.P, c.G.Y)}
}

func TestSecp256k1MatchesBtcec(t *testing.T) {
	c := Secp256k1()
	scalars := []string{
		"01",
		"f4f56ca5d8636a207d9f303625f8724bf52e4bbaeaecac66f7e30d6c854abafd",
		"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364140",
		"3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29",
	}
	for _, s := range scalars {
		k := mustHex(s)
		got, err := c.ScalarBaseMult(k)
		require.NoError(t, err)

		buf := make([]byte, 32)
		k.FillBytes(buf)
		_, pub := btcec.PrivKeyFromBytes(buf)
		assert.Equal(t, 0, got.X.Cmp(pub.X()), s)
		assert.Equal(t, 0, got.Y.Cmp(pub.Y()), s)
	}
}

func TestP256MatchesStdlib(t *testing.T) {
	c := P256()
	k := mustHex("c9afa9d845ba75166b5c215767b1d6934e50c3db36e89b127b8a622b120f6721")
	got, err := c.ScalarBaseMult(k)
	require.NoError(t, err)

	x, y := elliptic.P256().ScalarBaseMult(k.Bytes())
	assert.Equal(t, 0, got.X.Cmp(x))
	assert.Equal(t, 0, got.Y.Cmp(y))
}
