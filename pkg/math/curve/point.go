package curve

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Point is an element of the group.
type Point struct {
	p secp256k1.JacobianPoint
}

// NewIdentityPoint returns the point at infinity.
func NewIdentityPoint() *Point {
	return &Point{}
}

// NewBasePoint returns the group generator G.
func NewBasePoint() *Point {
	var v Point
	v.p.X.Set(&baseX)
	v.p.Y.Set(&baseY)
	v.p.Z.SetInt(1)
	return &v
}

// Set sets v = u, and returns v.
func (v *Point) Set(u *Point) *Point {
	v.p.Set(&u.p)
	return v
}

// Add sets v = p + q, and returns v.
func (v *Point) Add(p, q *Point) *Point {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.p, &q.p, &r)
	v.p.Set(&r)
	return v
}

// Subtract sets v = p - q, and returns v.
func (v *Point) Subtract(p, q *Point) *Point {
	var qNeg Point
	qNeg.Negate(q)
	return v.Add(p, &qNeg)
}

// Negate sets v = -p, and returns v.
func (v *Point) Negate(p *Point) *Point {
	v.Set(p)
	v.p.Y.Negate(1)
	v.p.Y.Normalize()
	return v
}

// ScalarBaseMult sets v = x * G, and returns v.
func (v *Point) ScalarBaseMult(x *Scalar) *Point {
	secp256k1.ScalarBaseMultNonConst(&x.s, &v.p)
	return v
}

// ScalarMult sets v = x * q, and returns v.
func (v *Point) ScalarMult(x *Scalar, q *Point) *Point {
	secp256k1.ScalarMultNonConst(&x.s, &q.p, &v.p)
	return v
}

// IsIdentity returns true if v is the point at infinity.
func (v *Point) IsIdentity() bool {
	return (v.p.X.IsZero() && v.p.Y.IsZero()) || v.p.Z.IsZero()
}

// Equal returns true if v and u represent the same group element.
func (v *Point) Equal(u *Point) bool {
	if v.IsIdentity() || u.IsIdentity() {
		return v.IsIdentity() && u.IsIdentity()
	}
	v.toAffine()
	u.toAffine()
	return v.p.X.Equals(&u.p.X) && v.p.Y.Equals(&u.p.Y)
}

// MarshalBinary returns the 33 byte compressed encoding of v.
// The identity is encoded as 33 zero bytes.
func (v *Point) MarshalBinary() ([]byte, error) {
	buf := make([]byte, PointBytes)
	if v.IsIdentity() {
		return buf, nil
	}
	v.toAffine()
	buf[0] = 0x02
	if v.p.Y.IsOdd() {
		buf[0] = 0x03
	}
	v.p.X.PutBytesUnchecked(buf[1:])
	return buf, nil
}

// UnmarshalBinary sets v from its compressed encoding.
func (v *Point) UnmarshalBinary(data []byte) error {
	if len(data) != PointBytes {
		return fmt.Errorf("curve: invalid point length: %d", len(data))
	}
	if data[0] == 0 {
		for _, b := range data[1:] {
			if b != 0 {
				return fmt.Errorf("curve: invalid point prefix: %#x", data[0])
			}
		}
		v.p = secp256k1.JacobianPoint{}
		return nil
	}
	if data[0] != 0x02 && data[0] != 0x03 {
		return fmt.Errorf("curve: invalid point prefix: %#x", data[0])
	}
	var x, y secp256k1.FieldVal
	if overflow := x.SetByteSlice(data[1:]); overflow {
		return fmt.Errorf("curve: point x coordinate not reduced")
	}
	if !secp256k1.DecompressY(&x, data[0] == 0x03, &y) {
		return fmt.Errorf("curve: point not on curve")
	}
	y.Normalize()
	v.p.X.Set(&x)
	v.p.Y.Set(&y)
	v.p.Z.SetInt(1)
	return nil
}

func (v *Point) toAffine() *Point {
	if !v.p.Z.IsOne() {
		v.p.ToAffine()
	}
	return v
}
