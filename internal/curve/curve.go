// Package curve implements arbitrary-precision modular arithmetic and affine
// point operations over short-Weierstrass prime curves y^2 = x^3 + ax + b.
package curve

import (
	"errors"
	"math/big"
)

var (
	// ErrNotInvertible is returned by ModInverse when gcd(a, m) != 1.
	ErrNotInvertible = errors.New("value has no modular inverse")
	// ErrZeroScalar is returned by Multiply when the scalar reduces to zero mod n.
	ErrZeroScalar = errors.New("scalar reduces to zero")
)

var (
	zero  = big.NewInt(0)
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
)

// Point is an affine point. The point at infinity is the sentinel (0, 0),
// which lies on no curve in this package because b != 0.
type Point struct {
	X *big.Int
	Y *big.Int
}

// Infinity returns the additive identity.
func Infinity() Point {
	return Point{X: new(big.Int), Y: new(big.Int)}
}

// IsInfinity reports whether p is the point at infinity.
func (p Point) IsInfinity() bool {
	return (p.X == nil || p.X.Sign() == 0) && (p.Y == nil || p.Y.Sign() == 0)
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	if p.IsInfinity() || q.IsInfinity() {
		return p.IsInfinity() && q.IsInfinity()
	}
	return p.X.Cmp(q.X) == 0 && p.Y.Cmp(q.Y) == 0
}

// Curve holds the domain parameters of a named prime curve.
type Curve struct {
	Name string
	P    *big.Int // field modulus
	A    *big.Int
	B    *big.Int
	N    *big.Int // group order
	G    Point    // base point
	// BitSize is the byte-aligned coordinate size in bits.
	BitSize int
}

// Mod returns a mod m in the range [0, m).
func Mod(a, m *big.Int) *big.Int {
	r := new(big.Int).Rem(a, m)
	if r.Sign() < 0 {
		r.Add(r, new(big.Int).Abs(m))
	}
	return r
}

// ModInverse returns x such that a*x = 1 (mod m), using the extended
// Euclidean algorithm.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, ErrNotInvertible
	}
	oldR, r := Mod(a, m), new(big.Int).Set(m)
	oldS, s := big.NewInt(1), big.NewInt(0)
	q, tmp := new(big.Int), new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		tmp.Mul(q, r)
		oldR, r = r, new(big.Int).Sub(oldR, tmp)

		tmp.Mul(q, s)
		oldS, s = s, new(big.Int).Sub(oldS, tmp)
	}
	if oldR.Cmp(one) != 0 {
		return nil, ErrNotInvertible
	}
	return Mod(oldS, m), nil
}

// IsOnCurve reports whether p satisfies the curve equation. The point at
// infinity is considered on the curve.
func (c *Curve) IsOnCurve(p Point) bool {
	if p.IsInfinity() {
		return true
	}
	if p.X.Sign() < 0 || p.X.Cmp(c.P) >= 0 || p.Y.Sign() < 0 || p.Y.Cmp(c.P) >= 0 {
		return false
	}
	lhs := new(big.Int).Mul(p.Y, p.Y)
	lhs = Mod(lhs, c.P)

	rhs := new(big.Int).Exp(p.X, three, c.P)
	ax := new(big.Int).Mul(c.A, p.X)
	rhs.Add(rhs, ax)
	rhs.Add(rhs, c.B)
	rhs = Mod(rhs, c.P)

	return lhs.Cmp(rhs) == 0
}

// Add returns p + q.
func (c *Curve) Add(p, q Point) Point {
	if p.IsInfinity() {
		return copyPoint(q)
	}
	if q.IsInfinity() {
		return copyPoint(p)
	}
	if p.X.Cmp(q.X) == 0 {
		sumY := Mod(new(big.Int).Add(p.Y, q.Y), c.P)
		if sumY.Sign() == 0 {
			return Infinity()
		}
		return c.Double(p)
	}

	num := new(big.Int).Sub(q.Y, p.Y)
	den := new(big.Int).Sub(q.X, p.X)
	return c.chord(p, q, num, den)
}

// Double returns 2p.
func (c *Curve) Double(p Point) Point {
	if p.IsInfinity() || p.Y.Sign() == 0 {
		return Infinity()
	}
	num := new(big.Int).Mul(p.X, p.X)
	num.Mul(num, three)
	num.Add(num, c.A)
	den := new(big.Int).Mul(two, p.Y)
	return c.chord(p, p, num, den)
}

// chord finishes an addition given the slope num/den through p and q.
func (c *Curve) chord(p, q Point, num, den *big.Int) Point {
	inv, err := ModInverse(den, c.P)
	if err != nil {
		// den is a non-zero residue of a prime modulus here.
		panic("curve: slope denominator not invertible: " + err.Error())
	}
	lambda := Mod(new(big.Int).Mul(num, inv), c.P)

	x := new(big.Int).Mul(lambda, lambda)
	x.Sub(x, p.X)
	x.Sub(x, q.X)
	x = Mod(x, c.P)

	y := new(big.Int).Sub(p.X, x)
	y.Mul(y, lambda)
	y.Sub(y, p.Y)
	y = Mod(y, c.P)

	return Point{X: x, Y: y}
}

// Multiply returns k*p using left-to-right double-and-add. The scalar is
// reduced mod n first; a reduced scalar of zero is rejected.
func (c *Curve) Multiply(k *big.Int, p Point) (Point, error) {
	if k == nil {
		return Point{}, ErrZeroScalar
	}
	scalar := Mod(k, c.N)
	if scalar.Cmp(zero) == 0 {
		return Point{}, ErrZeroScalar
	}

	result := Infinity()
	for i := scalar.BitLen() - 1; i >= 0; i-- {
		result = c.Double(result)
		if scalar.Bit(i) == 1 {
			result = c.Add(result, p)
		}
	}
	return result, nil
}

// ScalarBaseMult returns k*G.
func (c *Curve) ScalarBaseMult(k *big.Int) (Point, error) {
	return c.Multiply(k, c.G)
}

func copyPoint(p Point) Point {
	if p.IsInfinity() {
		return Infinity()
	}
	return Point{X: new(big.Int).Set(p.X), Y: new(big.Int).Set(p.Y)}
}
