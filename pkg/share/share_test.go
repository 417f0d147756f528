package share

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attributelabs/private-attribution/internal/randgen"
)

func TestSplitCombineRoundTrip(t *testing.T) {
	rng := randgen.NewSeeded(1)
	for _, v := range []uint64{0, 1, 42, math.MaxUint32, math.MaxUint64} {
		shares, err := Split(v, rng)
		require.NoError(t, err)
		require.Len(t, shares, NumShares)

		got, err := Combine[uint64](shares)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	for _, v := range []uint32{0, 7, math.MaxUint32} {
		shares, err := Split(v, rng)
		require.NoError(t, err)

		got, err := Combine[uint32](shares)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestSplitIsDeterministicGivenRNGState(t *testing.T) {
	a, err := Split(uint64(1234), randgen.NewSeeded(7))
	require.NoError(t, err)
	b, err := Split(uint64(1234), randgen.NewSeeded(7))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSharesDoNotLeakValue(t *testing.T) {
	// Two splits of the same value under different RNG states must produce
	// different share vectors: the value lives only in the full set.
	a, err := Split(uint64(99), randgen.NewSeeded(1))
	require.NoError(t, err)
	b, err := Split(uint64(99), randgen.NewSeeded(2))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	// And no strict subset of one split matches the other's.
	assert.NotEqual(t, a[:NumShares-1], b[:NumShares-1])
}

func TestCombineWrongCardinality(t *testing.T) {
	_, err := Combine[uint64](SecretShare{1, 2})
	var combineErr *CombineError
	require.ErrorAs(t, err, &combineErr)
	assert.Equal(t, 2, combineErr.Got)

	_, err = Combine[uint64](nil)
	require.ErrorAs(t, err, &combineErr)
}

func TestCombineOverflowsNarrowType(t *testing.T) {
	// The shares sum to 2³² + 5, which fits a uint64 but not a uint32.
	shares := SecretShare{1 << 32, 2, 3}

	v64, err := Combine[uint64](shares)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<32+5), v64)

	_, err = Combine[uint32](shares)
	var convErr *TypeConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, uint64(1<<32+5), convErr.Value)
}
