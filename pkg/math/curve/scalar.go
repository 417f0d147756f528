package curve

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Scalar is an integer modulo the group order.
type Scalar struct {
	s secp256k1.ModNScalar
}

// NewScalar returns a new zero Scalar.
func NewScalar() *Scalar {
	return &Scalar{}
}

// NewScalarRandom samples a uniform non-zero Scalar from rand.
func NewScalarRandom(rand io.Reader) (*Scalar, error) {
	var buf [ScalarBytes]byte
	var s Scalar
	for {
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return nil, fmt.Errorf("curve: sampling scalar: %w", err)
		}
		if overflow := s.s.SetBytes(&buf); overflow != 0 {
			continue
		}
		if !s.s.IsZero() {
			return &s, nil
		}
	}
}

// Set sets s = x, and returns s.
func (s *Scalar) Set(x *Scalar) *Scalar {
	s.s.Set(&x.s)
	return s
}

// SetUInt32 sets s = i, and returns s.
func (s *Scalar) SetUInt32(i uint32) *Scalar {
	s.s.SetInt(i)
	return s
}

// SetNat sets s = n mod q, and returns s.
func (s *Scalar) SetNat(n *saferith.Nat) *Scalar {
	reduced := new(saferith.Nat).Mod(n, q)
	buf := make([]byte, ScalarBytes)
	s.s.SetByteSlice(reduced.FillBytes(buf))
	return s
}

// Add sets s = x + y mod q, and returns s.
func (s *Scalar) Add(x, y *Scalar) *Scalar {
	s.s.Set(&x.s)
	s.s.Add(&y.s)
	return s
}

// Subtract sets s = x - y mod q, and returns s.
func (s *Scalar) Subtract(x, y *Scalar) *Scalar {
	var yNeg secp256k1.ModNScalar
	yNeg.Set(&y.s)
	yNeg.Negate()
	s.s.Set(&x.s)
	s.s.Add(&yNeg)
	return s
}

// Negate sets s = -x mod q, and returns s.
func (s *Scalar) Negate(x *Scalar) *Scalar {
	s.s.Set(&x.s)
	s.s.Negate()
	return s
}

// Multiply sets s = x * y mod q, and returns s.
func (s *Scalar) Multiply(x, y *Scalar) *Scalar {
	s.s.Set(&x.s)
	s.s.Mul(&y.s)
	return s
}

// Invert sets s to the inverse of a nonzero scalar x, and returns s.
func (s *Scalar) Invert(x *Scalar) *Scalar {
	s.s.Set(&x.s)
	s.s.InverseNonConst()
	return s
}

// Equal returns true if s and t are equal.
func (s *Scalar) Equal(t *Scalar) bool {
	return s.s.Equals(&t.s)
}

// IsZero returns true if s is zero.
func (s *Scalar) IsZero() bool {
	return s.s.IsZero()
}

// ActOnBase returns s * G, where G is the group generator.
func (s *Scalar) ActOnBase() *Point {
	var p Point
	return p.ScalarBaseMult(s)
}

// Act returns s * q.
func (s *Scalar) Act(v *Point) *Point {
	var p Point
	return p.ScalarMult(s, v)
}

// MarshalBinary returns the canonical 32 byte big-endian encoding of s.
func (s *Scalar) MarshalBinary() ([]byte, error) {
	buf := s.s.Bytes()
	return buf[:], nil
}

// UnmarshalBinary sets s from its canonical encoding.
func (s *Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != ScalarBytes {
		return fmt.Errorf("curve: invalid scalar length: %d", len(data))
	}
	var buf [ScalarBytes]byte
	copy(buf[:], data)
	if overflow := s.s.SetBytes(&buf); overflow != 0 {
		return fmt.Errorf("curve: scalar not reduced mod group order")
	}
	return nil
}
