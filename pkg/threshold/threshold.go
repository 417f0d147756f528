// Package threshold implements an ElGamal-style cipher over a prime-order
// group, with decryption split across several key holders.
//
// Each holder applies its partial decryption independently; the order in
// which holders apply theirs does not matter, and the plaintext point is
// recovered once every holder has contributed.
package threshold

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/attributelabs/private-attribution/pkg/math/curve"
)

// PublicKey is the encryption key corresponding to the combined shares of
// all holders.
type PublicKey = *curve.Point

// DecryptionKey is one holder's key material. It is the full key only when
// it was never split, or when it aggregates every holder's share.
type DecryptionKey struct {
	x *curve.Scalar
}

// NewDecryptionKey samples a fresh key from rand.
func NewDecryptionKey(rand io.Reader) (*DecryptionKey, error) {
	x, err := curve.NewScalarRandom(rand)
	if err != nil {
		return nil, fmt.Errorf("threshold: generating key: %w", err)
	}
	return &DecryptionKey{x: x}, nil
}

// PublicKey returns x⋅G.
func (dk *DecryptionKey) PublicKey() PublicKey {
	return dk.x.ActOnBase()
}

// Split decomposes the key into n additive shares, one per holder.
// The original key is the aggregate of all of them.
func (dk *DecryptionKey) Split(n int, rand io.Reader) ([]*DecryptionKey, error) {
	if n < 2 {
		return nil, fmt.Errorf("threshold: cannot split key into %d shares", n)
	}
	shares := make([]*DecryptionKey, n)
	last := curve.NewScalar().Set(dk.x)
	for i := 0; i < n-1; i++ {
		r, err := curve.NewScalarRandom(rand)
		if err != nil {
			return nil, fmt.Errorf("threshold: splitting key: %w", err)
		}
		shares[i] = &DecryptionKey{x: r}
		last.Subtract(last, r)
	}
	shares[n-1] = &DecryptionKey{x: last}
	return shares, nil
}

// CombineKeys aggregates key shares back into a single key.
func CombineKeys(shares ...*DecryptionKey) *DecryptionKey {
	x := curve.NewScalar()
	for _, s := range shares {
		x.Add(x, s.x)
	}
	return &DecryptionKey{x: x}
}

// Ciphertext is an encryption of a group element.
type Ciphertext struct {
	// L = nonce⋅G
	L *curve.Point
	// M = message + nonce⋅public
	M *curve.Point
}

// Encrypt encrypts the message point under public, using rand for the nonce.
func Encrypt(public PublicKey, message *curve.Point, rand io.Reader) (*Ciphertext, error) {
	nonce, err := curve.NewScalarRandom(rand)
	if err != nil {
		return nil, fmt.Errorf("threshold: sampling nonce: %w", err)
	}
	L := nonce.ActOnBase()
	M := curve.NewIdentityPoint().Add(message, nonce.Act(public))
	return &Ciphertext{L: L, M: M}, nil
}

// ThresholdDecrypt applies this holder's partial decryption, producing a
// ciphertext that still requires the remaining holders' contributions.
// It is a pure function: ct is not modified, and applying several holders'
// partial decryptions commutes.
func (dk *DecryptionKey) ThresholdDecrypt(ct *Ciphertext) *Ciphertext {
	M := curve.NewIdentityPoint().Subtract(ct.M, dk.x.Act(ct.L))
	return &Ciphertext{
		L: curve.NewIdentityPoint().Set(ct.L),
		M: M,
	}
}

// Decrypt recovers the message point. The receiver must hold the complete
// (or fully aggregated) key, otherwise the result is a garbled element.
func (dk *DecryptionKey) Decrypt(ct *Ciphertext) *curve.Point {
	return dk.ThresholdDecrypt(ct).M
}

// Valid returns false for nil or degenerate ciphertexts.
func (ct *Ciphertext) Valid() bool {
	if ct == nil || ct.L == nil || ct.L.IsIdentity() || ct.M == nil {
		return false
	}
	return true
}

// MarshalBinary encodes the ciphertext as L ∥ M.
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	l, err := ct.L.MarshalBinary()
	if err != nil {
		return nil, err
	}
	m, err := ct.M.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(l, m...), nil
}

// MarshalCBOR encodes the ciphertext as a CBOR byte string, so it embeds
// naturally in wire payloads.
func (ct *Ciphertext) MarshalCBOR() ([]byte, error) {
	data, err := ct.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(data)
}

// UnmarshalCBOR decodes a ciphertext from a CBOR byte string.
func (ct *Ciphertext) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return err
	}
	return ct.UnmarshalBinary(raw)
}

// UnmarshalBinary decodes a ciphertext encoded as L ∥ M.
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {
	if len(data) != 2*curve.PointBytes {
		return fmt.Errorf("threshold: invalid ciphertext length: %d", len(data))
	}
	L := curve.NewIdentityPoint()
	if err := L.UnmarshalBinary(data[:curve.PointBytes]); err != nil {
		return fmt.Errorf("threshold: decoding L: %w", err)
	}
	M := curve.NewIdentityPoint()
	if err := M.UnmarshalBinary(data[curve.PointBytes:]); err != nil {
		return fmt.Errorf("threshold: decoding M: %w", err)
	}
	ct.L, ct.M = L, M
	return nil
}
