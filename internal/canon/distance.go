package canon

import (
	"fmt"
	"math"
)

// Log2Dist returns how far |v| sits from the nearest power of two, measured
// in log2 space. Zero maps to zero.
func Log2Dist(v float64) float64 {
	v = math.Abs(v)
	if v == 0 {
		return 0
	}

	l := math.Log2(v)

	return math.Abs(l - math.Round(l))
}

// DataDists compares two input sequences of equal length. It returns the
// summed absolute difference of the elements and the summed [Log2Dist] of
// every element of both sequences.
func DataDists(a, b []float64) (diff, log2 float64, err error) {
	if len(a) != len(b) {
		return 0, 0, fmt.Errorf("%w: %v (len %d) vs %v (len %d)", ErrLengthMismatch, a, len(a), b, len(b))
	}

	for i := range a {
		diff += math.Abs(a[i] - b[i])
		log2 += Log2Dist(a[i]) + Log2Dist(b[i])
	}

	return diff, log2, nil
}
