package canon

import (
	"math"
	"strconv"
	"strings"
)

// Digits is the number of decimal digits a float64 survives a round trip
// through text with (DBL_DIG). Deferred results are bucketed at this precision.
const Digits = 15

const (
	literalDigits      = 6
	significantDigits  = 7
	matchTolerance     = 1e-6
	roundTripTolerance = 1e-7
)

var (
	machineEpsilon = math.Nextafter(1, 2) - 1

	// DefaultNormEpsilon is the minimum distance from the nearest integer a
	// result needs before it is worth a high precision assertion.
	DefaultNormEpsilon = math.Pow(machineEpsilon, 0.25)

	sqrtEpsilon = math.Sqrt(machineEpsilon)
)

// Round rounds v to n decimal places. Rounding operates on the exact binary
// value and breaks ties to even, so Round(2.675, 2) is 2.67.
func Round(v float64, n int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', n, 64), 64)
	if err != nil {
		return v
	}

	return r
}

// RoundSignificant rounds v to n significant decimal digits.
func RoundSignificant(v float64, n int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', n, 64), 64)
	if err != nil {
		return v
	}

	return r
}

// IsNegativeZero reports whether v is zero with the sign bit set.
func IsNegativeZero(v float64) bool {
	return v == 0 && math.Signbit(v)
}

// FormatFloat returns the shortest literal that parses back to v, spelled
// the way Python's repr spells floats: integral values keep a ".0", and
// exponent notation is used below 1e-4 and from 1e16 up.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}

		return "0.0"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)

	_, expPart, _ := strings.Cut(sci, "e")

	exp, err := strconv.Atoi(expPart)
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
