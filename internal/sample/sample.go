// Package sample drives catalog functions over a fixed grid of inputs and
// feeds every call to a [Collector].
package sample

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/catalog"
)

var ErrUnknownInitType = errors.New("unknown init type")

// Collector receives sampled calls. [canon.Accumulator] implements it.
type Collector interface {
	Accept(label string, value float64, inputs []float64) ([]canon.Line, error)
	Flush() ([]canon.Line, error)
}

// gridSize is the number of values tried per parameter. Must be odd so the
// list has a middle.
const gridSize = 5

var (
	densePoints  = []float64{-1, -0.75, -0.5, -0.25, 0, 0.25, 0.5, 0.75, 1}
	normalPoints = []float64{-1, -0.5, 0, 0.5, 1}
	sparsePoints = []float64{-1, 0, 1}
)

// Report summarizes a run.
type Report struct {
	Sampled int      // functions sampled
	Calls   int      // calls passed to the collector
	Skipped []string // functions skipped for their parameter count
}

// Sampler walks functions and hands every call to a Collector. Lines the
// collector returns are passed to emit in order.
type Sampler struct {
	c    Collector
	emit func([]canon.Line)
	log  *slog.Logger

	report Report
}

// New returns a Sampler. A nil logger discards.
func New(c Collector, emit func([]canon.Line), logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Sampler{c: c, emit: emit, log: logger}
}

// Run samples fns in order. Functions with more than two parameters are
// skipped with a comment line. Any collector error is fatal and ends the run.
func Run(ctx context.Context, fns []catalog.Function, c Collector, emit func([]canon.Line)) error {
	_, err := New(c, emit, nil).Run(ctx, fns)
	return err
}

// Run samples fns in order, checking ctx between functions.
func (s *Sampler) Run(ctx context.Context, fns []catalog.Function) (Report, error) {
	for _, fn := range fns {
		if err := ctx.Err(); err != nil {
			return s.report, err
		}

		err := s.Function(fn)
		if errors.Is(err, canon.ErrUnsupportedParameterArity) {
			s.log.Warn("skipping function", "function", fn.Name, "error", err)
			s.report.Skipped = append(s.report.Skipped, fn.Name)
			s.emit([]canon.Line{canon.Commentf("Cannot currently handle 3+ evolved parameters (function %s)", fn.Name)})

			continue
		}

		if err != nil {
			return s.report, fmt.Errorf("sampling %s: %w", fn.Name, err)
		}

		s.report.Sampled++
	}

	return s.report, nil
}

// Function samples a single function, flushing the collector after each
// pass.
func (s *Sampler) Function(fn catalog.Function) error {
	s.log.Debug("sampling function", "function", fn.Name, "params", len(fn.Params))

	switch len(fn.Params) {
	case 0:
		for _, x := range densePoints {
			if err := s.call(fn, x); err != nil {
				return err
			}
		}

		return s.flush()
	case 1:
		return s.oneParam(fn)
	case 2:
		if err := s.twoParams(fn, false); err != nil {
			return err
		}

		return s.twoParams(fn, true)
	default:
		return fmt.Errorf("%w: %s has %d", canon.ErrUnsupportedParameterArity, fn.Name, len(fn.Params))
	}
}

func (s *Sampler) oneParam(fn catalog.Function) error {
	values := paramValues(fn.Params[0])
	middle := median(values)

	for _, a := range values {
		points := normalPoints
		if a == middle {
			points = densePoints
		}

		for _, x := range points {
			if err := s.call(fn, x, a); err != nil {
				return err
			}
		}
	}

	return s.flush()
}

// twoParams runs one pass over a two parameter function. The outer loop
// walks the first parameter of the pass; swapped passes walk the declared
// second parameter first. Calls and labels always use declared order.
func (s *Sampler) twoParams(fn catalog.Function, swapped bool) error {
	outer, inner := fn.Params[0], fn.Params[1]
	if swapped {
		outer, inner = inner, outer
	}

	outerValues := paramValues(outer)

	important, err := importantValues(outer, outerValues)
	if err != nil {
		return fmt.Errorf("%s: %w", fn.Name, err)
	}

	innerValues := paramValues(inner)

	innerImportant, err := importantPositions(inner)
	if err != nil {
		return fmt.Errorf("%s: %w", fn.Name, err)
	}

	for _, a := range outerValues {
		outerHit := slices.Contains(important, a)

		for j, b := range innerValues {
			var points []float64

			switch innerHit := innerImportant[j]; {
			case outerHit && innerHit:
				points = normalPoints
			case outerHit || innerHit:
				points = sparsePoints
			default:
				continue
			}

			first, second := a, b
			if swapped {
				first, second = b, a
			}

			for _, x := range points {
				if err := s.call(fn, x, first, second); err != nil {
					return err
				}
			}
		}
	}

	return s.flush()
}

func (s *Sampler) call(fn catalog.Function, x float64, params ...float64) error {
	var label strings.Builder

	label.WriteString(fn.Name)
	label.WriteString("_activation(")
	label.WriteString(canon.FormatFloat(x))

	for _, p := range params {
		label.WriteByte(',')
		label.WriteString(canon.FormatFloat(p))
	}

	label.WriteByte(')')

	inputs := append([]float64{x}, params...)

	lines, err := s.c.Accept(label.String(), fn.Call(x, params...), inputs)
	if err != nil {
		return err
	}

	s.report.Calls++
	s.emit(lines)

	return nil
}

func (s *Sampler) flush() error {
	lines, err := s.c.Flush()
	if err != nil {
		return err
	}

	s.emit(lines)

	return nil
}

// paramValues spreads gridSize values from p.Max down to p.Min, rounded to
// three decimals.
func paramValues(p catalog.Param) []float64 {
	values := make([]float64, gridSize)
	step := (p.Min - p.Max) / (gridSize - 1)

	for i := range values {
		values[i] = canon.Round(p.Max+float64(i)*step, 3)
	}

	values[gridSize-1] = canon.Round(p.Min, 3)

	return values
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// importantValues picks the outer values that get denser sampling: the
// bounds and the middle for uniform parameters, the middle and its two
// nearest neighbours for gaussian ones.
func importantValues(p catalog.Param, values []float64) ([]float64, error) {
	middle := median(values)

	switch normalizeInitType(p.InitType) {
	case catalog.InitUniform:
		return []float64{p.Min, middle, p.Max}, nil
	case catalog.InitGaussian:
		byDistance := slices.Clone(values)
		slices.SortStableFunc(byDistance, func(a, b float64) int {
			da, db := math.Abs(a-middle), math.Abs(b-middle)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			default:
				return 0
			}
		})

		return []float64{middle, byDistance[1], byDistance[2]}, nil
	default:
		return nil, fmt.Errorf("%w %q for parameter %s", ErrUnknownInitType, p.InitType, p.Name)
	}
}

// importantPositions marks the inner list positions that get sampled even
// when the outer value is not important.
func importantPositions(p catalog.Param) ([gridSize]bool, error) {
	switch normalizeInitType(p.InitType) {
	case catalog.InitUniform:
		return [gridSize]bool{true, false, true, false, true}, nil
	case catalog.InitGaussian:
		return [gridSize]bool{false, true, true, true, false}, nil
	default:
		return [gridSize]bool{}, fmt.Errorf("%w %q for parameter %s", ErrUnknownInitType, p.InitType, p.Name)
	}
}

func normalizeInitType(t catalog.InitType) catalog.InitType {
	switch strings.ToLower(string(t)) {
	case "", "uniform":
		return catalog.InitUniform
	case "gaussian", "normal":
		return catalog.InitGaussian
	default:
		return t
	}
}
