// Package curve provides the prime-order group used for matchkey
// encryption, backed by the secp256k1 implementation from decred.
package curve

import (
	"encoding/hex"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ScalarBytes is the length of a marshalled Scalar.
const ScalarBytes = 32

// PointBytes is the length of a marshalled Point (compressed form).
const PointBytes = 33

var (
	q     *saferith.Modulus
	baseX secp256k1.FieldVal
	baseY secp256k1.FieldVal
)

// Order returns the order of the group as a modulus.
func Order() *saferith.Modulus {
	return q
}

// FromHash converts a hash digest to a Scalar.
//
// Following [SECG], the digest is truncated to the bit length of the group
// order before reduction, with excess bits shifted out. This mirrors what
// OpenSSL and crypto/ecdsa do.
func FromHash(h []byte) *Scalar {
	orderBits := q.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(h) > orderBytes {
		h = h[:orderBytes]
	}
	n := new(saferith.Nat).SetBytes(h)
	excess := len(h)*8 - orderBits
	if excess > 0 {
		n.Rsh(n, uint(excess), -1)
	}
	return NewScalar().SetNat(n)
}

func init() {
	gx, _ := hex.DecodeString("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	gy, _ := hex.DecodeString("483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8")
	baseX.SetByteSlice(gx)
	baseY.SetByteSlice(gy)

	order, _ := hex.DecodeString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	q = saferith.ModulusFromBytes(order)
}
