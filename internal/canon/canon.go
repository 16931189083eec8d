// Package canon reduces sampled floating point results to a minimal set of
// equality assertions.
//
// Results are pushed one at a time with [Accumulator.Accept]. Results that are
// exact at six decimals are asserted immediately. Everything else that is
// worth asserting is bucketed three ways (absolute rounded value, signed
// rounded value, exact value) until [Accumulator.Flush] drains the buckets in
// that order. A bucket of two records becomes a label-to-label assertion, which
// is how sign symmetries such as f(-x) == -f(x) are captured. Buckets of three
// or more identical results are settled by ranking every pair of records by
// how their inputs relate (see [DataDists]).
//
// An Accumulator is not safe for concurrent use.
package canon

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Record is one sampled call.
type Record struct {
	Label  string
	Value  float64
	Inputs []float64
}

// Options configures an [Accumulator].
type Options struct {
	// LabelPrefix is prepended to every accepted label, e.g. "activations.".
	LabelPrefix string

	// NormEpsilon is the minimum distance from the nearest integer a deferred
	// result needs. Zero means [DefaultNormEpsilon].
	NormEpsilon float64

	// DedupeLiterals suppresses an immediate literal assertion when an earlier
	// record of the same batch had the same value and the same inputs.
	DedupeLiterals bool

	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		NormEpsilon:    DefaultNormEpsilon,
		DedupeLiterals: true,
	}
}

// Accumulator collects records for one batch at a time. Seen labels persist
// across batches; everything else is cleared by [Accumulator.Flush].
type Accumulator struct {
	opts Options
	log  *slog.Logger

	seen     map[string]struct{}
	literals map[string]string

	abs    index
	signed index
	exact  index
}

// New returns an empty Accumulator.
func New(opts Options) *Accumulator {
	if opts.NormEpsilon <= 0 {
		opts.NormEpsilon = DefaultNormEpsilon
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Accumulator{
		opts:     opts,
		log:      logger,
		seen:     make(map[string]struct{}),
		literals: make(map[string]string),
		abs:      newIndex(),
		signed:   newIndex(),
		exact:    newIndex(),
	}
}

// Accept ingests one sampled call. It returns the lines that are emitted
// immediately (a low precision literal or a skip diagnostic); deferred
// records produce no lines until the next Flush.
//
// A label is only ever processed once. Later calls with the same label are
// ignored, whatever their value.
//
// The only error is [ErrRoundTripViolation], which is fatal.
func (a *Accumulator) Accept(label string, value float64, inputs []float64) ([]Line, error) {
	if _, ok := a.seen[label]; ok {
		return nil, nil
	}

	a.seen[label] = struct{}{}

	rec := Record{
		Label:  a.opts.LabelPrefix + label,
		Value:  value,
		Inputs: slices.Clone(inputs),
	}

	// The sign of a zero result is not something the functions promise.
	if IsNegativeZero(value) {
		return []Line{Commentf("Skipping %s with result %s", rec.Label, FormatFloat(value))}, nil
	}

	if Round(value, literalDigits) == value {
		return a.literal(rec), nil
	}

	if !a.eligible(value) {
		return []Line{Commentf("Skipping %s with result %s", rec.Label, FormatFloat(value))}, nil
	}

	saved := Round(value, Digits)
	if diff := math.Abs(value - saved); diff >= roundTripTolerance {
		return nil, fmt.Errorf("%w: result %s vs saved %s (diff %g, digits %d)",
			ErrRoundTripViolation, FormatFloat(value), FormatFloat(saved), diff, Digits)
	}

	a.abs.add(math.Abs(saved), rec)
	a.signed.add(saved, rec)
	a.exact.add(value, rec)

	a.log.Debug("deferred result", "label", rec.Label, "value", value, "key", saved)

	return nil, nil
}

// Pending returns the number of records waiting for the next Flush.
func (a *Accumulator) Pending() int {
	return a.exact.len()
}

func (a *Accumulator) literal(rec Record) []Line {
	if a.opts.DedupeLiterals {
		key := literalKey(rec.Value, rec.Inputs)
		if first, ok := a.literals[key]; ok {
			return []Line{Commentf("Skipping %s with result %s (same inputs as %s)",
				rec.Label, FormatFloat(rec.Value), first)}
		}

		a.literals[key] = rec.Label
	}

	return []Line{{Kind: KindLiteral, Label: rec.Label, Value: rec.Value}}
}

// eligible reports whether value can be asserted safely at high precision:
// it must be close to its 7 significant digit rounding, and clearly away from
// both the nearest integer and its 2 decimal rounding.
func (a *Accumulator) eligible(value float64) bool {
	return math.Abs(value-RoundSignificant(value, significantDigits)) < matchTolerance &&
		math.Abs(value-Round(value, 0)) > a.opts.NormEpsilon &&
		math.Abs(value-Round(value, 2)) > sqrtEpsilon
}

func literalKey(value float64, inputs []float64) string {
	var b strings.Builder

	b.WriteString(strconv.FormatUint(math.Float64bits(value), 16))

	for _, in := range inputs {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(math.Float64bits(in), 16))
	}

	return b.String()
}

// index maps a rounding key to the records bucketed under it, in insertion
// order.
type index struct {
	groups map[float64][]Record
	n      int
}

func newIndex() index {
	return index{groups: make(map[float64][]Record)}
}

func (ix *index) add(key float64, rec Record) {
	ix.groups[key] = append(ix.groups[key], rec)
	ix.n++
}

func (ix *index) len() int {
	return ix.n
}

// keys returns the bucket keys in ascending order.
func (ix *index) keys() []float64 {
	keys := make([]float64, 0, len(ix.groups))
	for k := range ix.groups {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

func (ix *index) reset() {
	clear(ix.groups)
	ix.n = 0
}
