package canon_test

import (
	"errors"
	"math"
	"testing"

	"github.com/calvinalkan/canon/internal/canon"
)

const floatSlack = 1e-12

func TestLog2Dist(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{1, 0},
		{0.5, 0},
		{-4, 0},
		{3, 2 - math.Log2(3)},
		{1.5, 1 - math.Log2(1.5)},
		{0.75, -math.Log2(0.75)},
	} {
		got := canon.Log2Dist(tt.in)
		if math.Abs(got-tt.want) > floatSlack {
			t.Errorf("Log2Dist(%v)=%v, want=%v", tt.in, got, tt.want)
		}
	}
}

func TestDataDists(t *testing.T) {
	t.Parallel()

	diff, log2, err := canon.DataDists([]float64{0.5, 3}, []float64{-1, 3})
	if err != nil {
		t.Fatalf("DataDists: %v", err)
	}

	if got, want := diff, 1.5; math.Abs(got-want) > floatSlack {
		t.Errorf("diff=%v, want=%v", got, want)
	}

	if got, want := log2, 2*(2-math.Log2(3)); math.Abs(got-want) > floatSlack {
		t.Errorf("log2=%v, want=%v", got, want)
	}
}

func TestDataDistsEmpty(t *testing.T) {
	t.Parallel()

	diff, log2, err := canon.DataDists(nil, []float64{})
	if err != nil {
		t.Fatalf("DataDists: %v", err)
	}

	if diff != 0 || log2 != 0 {
		t.Errorf("diff=%v log2=%v, want zeros", diff, log2)
	}
}

func TestDataDistsLengthMismatch(t *testing.T) {
	t.Parallel()

	_, _, err := canon.DataDists([]float64{1}, []float64{1, 2})
	if !errors.Is(err, canon.ErrLengthMismatch) {
		t.Fatalf("err=%v, want ErrLengthMismatch", err)
	}

	if !canon.IsFatal(err) {
		t.Error("length mismatch should be fatal")
	}
}
