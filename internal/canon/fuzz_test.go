package canon_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/testutil"
)

// Results the fuzzer draws from. Deferred values come in sign twins.
var fuzzValues = []float64{
	0, 1, -1, 0.5, -0.5,
	0.333333314, -0.333333314,
	0.123456789, -0.123456789,
	0.7615941559557649, -0.7615941559557649,
	0.1234567891234,
	12.3456789,
	2.0000001,
	math.NaN(),
	math.Inf(1),
	math.Copysign(0, -1),
}

var fuzzInputs = []float64{-2, -1, -0.5, 0, 0.5, 1, 2, 3}

type fuzzOp struct {
	flush bool
	label string
	value float64
	input float64
}

func decodeFuzzOps(data []byte) []fuzzOp {
	s := testutil.NewByteStream(data)

	const maximumSteps = 200

	var ops []fuzzOp

	for step := 0; step < maximumSteps && s.HasMore(); step++ {
		if s.NextInt(8) == 0 {
			ops = append(ops, fuzzOp{flush: true})

			continue
		}

		ops = append(ops, fuzzOp{
			label: "f(" + strconv.Itoa(s.NextInt(24)) + ")",
			value: testutil.Pick(s, fuzzValues),
			input: testutil.Pick(s, fuzzInputs),
		})
	}

	return append(ops, fuzzOp{flush: true})
}

// replay runs ops against a fresh accumulator and returns every emitted line
// as text. It fails the test on any error.
func replay(t *testing.T, ops []fuzzOp, check func(op fuzzOp, lines []canon.Line)) []string {
	t.Helper()

	acc := canon.New(canon.DefaultOptions())

	var out []string

	for _, op := range ops {
		var (
			lines []canon.Line
			err   error
		)

		if op.flush {
			lines, err = acc.Flush()
		} else {
			lines, err = acc.Accept(op.label, op.value, []float64{op.input})
		}

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if check != nil {
			check(op, lines)
		}

		for _, l := range lines {
			out = append(out, l.String())
		}
	}

	if acc.Pending() != 0 {
		t.Fatalf("Pending=%d after final flush", acc.Pending())
	}

	lines, err := acc.Flush()
	if err != nil || len(lines) != 0 {
		t.Fatalf("second flush returned %v, %v; want nothing", lines, err)
	}

	return out
}

// FuzzAccumulator_Invariants drives Accept and Flush with generated records
// and checks the properties every run must keep.
func FuzzAccumulator_Invariants(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte("accept"))
	f.Add([]byte{1, 1, 5, 2, 2, 6, 2, 0})
	f.Add([]byte{1, 3, 9, 4, 1, 4, 10, 4, 1, 5, 9, 4, 0})
	f.Add(make([]byte, 64))

	f.Fuzz(func(t *testing.T, data []byte) {
		ops := decodeFuzzOps(data)

		first := map[string]float64{}
		seen := map[string]bool{}

		check := func(op fuzzOp, lines []canon.Line) {
			if !op.flush {
				repeated := seen[op.label]
				seen[op.label] = true

				if repeated {
					if len(lines) != 0 {
						t.Fatalf("repeated label %s emitted %v", op.label, lines)
					}

					return
				}

				first[op.label] = op.value

				if len(lines) > 1 {
					t.Fatalf("accept %s emitted %d lines, want at most 1", op.label, len(lines))
				}
			}

			for _, l := range lines {
				for _, label := range []string{l.Label, l.Other} {
					if !l.IsAssertion() || label == "" {
						continue
					}

					v, ok := first[label]
					if !ok {
						t.Fatalf("assertion %q names unseen label %s", l, label)
					}

					if canon.IsNegativeZero(v) || math.IsNaN(v) {
						t.Fatalf("assertion %q covers skipped result %v", l, v)
					}
				}
			}
		}

		got := replay(t, ops, check)
		again := replay(t, ops, nil)

		if diff := cmp.Diff(got, again); diff != "" {
			t.Fatalf("replay not deterministic (-first +second):\n%s", diff)
		}
	})
}
