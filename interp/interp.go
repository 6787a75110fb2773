// Package interp locates the reference samples bracketing a query value in a
// monotonic sequence, and interpolates between them.  The acquisition code
// uses it to align frames against a reference tilt array when estimating
// image drift.
package interp

import (
	"errors"
	"sort"
)

// ErrNonMonotonic is generated when a sequence is neither non-decreasing nor
// non-increasing.  A bracketing pair is meaningless for such a sequence.
var ErrNonMonotonic = errors.New("interp: sequence is not monotonic")

func nonIncreasing(seq []float64) bool {
	for i := 1; i < len(seq); i++ {
		if seq[i] > seq[i-1] {
			return false
		}
	}
	return true
}

// FindBounds returns the pair of indices (lower, upper) of the elements of
// seq which bracket value.  The insertion point is rightmost-biased: a value
// equal to one or more elements lands after them.
//
// A value beyond either end of the sequence is not an error; the caller must
// check for it.  lower == -1 means value precedes every element, and
// upper == len(seq) means value follows every element.
func FindBounds(seq []float64, value float64) (lower, upper int, err error) {
	n := len(seq)
	if sort.Float64sAreSorted(seq) {
		i := sort.Search(n, func(i int) bool { return seq[i] > value })
		return i - 1, i, nil
	}
	if !nonIncreasing(seq) {
		return 0, 0, ErrNonMonotonic
	}
	// search the reversed sequence, then mirror the insertion point back
	j := sort.Search(n, func(i int) bool { return seq[n-1-i] > value })
	upper = n - j
	return upper - 1, upper, nil
}

// Lerp linearly interpolates between (x0, y0) and (x1, y1) at x.  Coincident
// abscissae return y0.
func Lerp(x0, y0, x1, y1, x float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}
