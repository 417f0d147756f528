// Package share implements additive secret sharing of unsigned integers.
//
// A value is split into NumShares parts such that their sum modulo 2⁶⁴
// reconstructs it. No strict subset of the shares reveals anything about
// the value.
package share

import (
	"fmt"
	"io"

	"github.com/attributelabs/private-attribution/internal/randgen"
)

// NumShares is the number of helper parties a value is split across.
const NumShares = 3

// Unsigned constrains the integer types that can be secret shared.
type Unsigned interface {
	~uint32 | ~uint64
}

// SecretShare holds one share per helper party.
type SecretShare []uint64

// Split decomposes value into NumShares additive shares using rng.
// Splitting is deterministic given the state of rng.
func Split[T Unsigned](value T, rng io.Reader) (SecretShare, error) {
	shares := make(SecretShare, NumShares)
	last := uint64(value)
	for i := 0; i < NumShares-1; i++ {
		r, err := randgen.Uint64(rng)
		if err != nil {
			return nil, fmt.Errorf("share: splitting value: %w", err)
		}
		shares[i] = r
		last -= r
	}
	shares[NumShares-1] = last
	return shares, nil
}

// Combine reconstructs the value from a complete share set.
//
// It returns a CombineError if the share set has the wrong cardinality, and
// a TypeConversionError if the reconstructed value does not fit in T.
func Combine[T Unsigned](shares SecretShare) (T, error) {
	if len(shares) != NumShares {
		return 0, &CombineError{Got: len(shares)}
	}
	var sum uint64
	for _, s := range shares {
		sum += s
	}
	value := T(sum)
	if uint64(value) != sum {
		return 0, &TypeConversionError{Value: sum, Target: fmt.Sprintf("%T", value)}
	}
	return value, nil
}
