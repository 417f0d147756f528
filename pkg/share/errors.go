package share

import "fmt"

// CombineError indicates a malformed share set.
type CombineError struct {
	Got int
}

func (e *CombineError) Error() string {
	return fmt.Sprintf("share: combine: expected %d shares, got %d", NumShares, e.Got)
}

// TypeConversionError indicates that a reconstructed value exceeds the
// width of its target type.
type TypeConversionError struct {
	Value  uint64
	Target string
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("share: combined value %d does not fit in %s", e.Value, e.Target)
}
