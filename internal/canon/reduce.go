package canon

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Flush drains the batch and returns its assertion lines. Buckets are swept
// in three phases: absolute rounded value, signed rounded value, exact value.
// Each phase skips what an earlier one already asserted.
//
// Flush always clears the batch, including when it returns an error. Errors
// ([ErrInconsistentGroup], [ErrLengthMismatch]) are fatal; the returned lines
// are nil in that case.
func (a *Accumulator) Flush() ([]Line, error) {
	defer a.reset()

	pending := a.Pending()

	r := reducer{
		signed: keySet{},
		abs:    keySet{},
		exact:  keySet{},
	}

	if err := r.absPhase(&a.abs); err != nil {
		return nil, err
	}

	if err := r.signedPhase(&a.signed); err != nil {
		return nil, err
	}

	if err := r.exactPhase(&a.exact); err != nil {
		return nil, err
	}

	a.log.Debug("flushed batch", "records", pending, "lines", len(r.out))

	return r.out, nil
}

func (a *Accumulator) reset() {
	a.abs.reset()
	a.signed.reset()
	a.exact.reset()
	clear(a.literals)
}

type keySet map[float64]struct{}

func (s keySet) add(k float64) { s[k] = struct{}{} }

func (s keySet) has(k float64) bool {
	_, ok := s[k]
	return ok
}

// reducer holds the spoken-for sets of one Flush. signed and abs hold
// rounded keys, exact holds raw values.
type reducer struct {
	signed keySet
	abs    keySet
	exact  keySet
	out    []Line
}

func (r *reducer) emit(l ...Line) {
	r.out = append(r.out, l...)
}

func (r *reducer) absPhase(ix *index) error {
	for _, key := range ix.keys() {
		group := ix.groups[key]

		switch len(group) {
		case 1:
			rec := group[0]
			r.emit(Line{Kind: KindApprox, Label: rec.Label, Value: rec.Value})
			r.signed.add(Round(rec.Value, Digits))
			r.exact.add(rec.Value)
			r.abs.add(key)
		case 2:
			first, second := group[0], group[1]
			r.signed.add(Round(first.Value, Digits))
			r.signed.add(Round(second.Value, Digits))
			r.exact.add(first.Value)
			r.exact.add(second.Value)
			r.abs.add(key)

			switch {
			case math.Abs(first.Value-second.Value) < matchTolerance:
				r.emit(Line{Kind: KindEqual, Label: first.Label, Other: second.Label})
			case math.Abs(first.Value+second.Value) < matchTolerance:
				r.emit(Line{Kind: KindNegated, Label: first.Label, Other: second.Label})
			default:
				return fmt.Errorf("%w: %s result abs(%s) != %s result abs(%s)", ErrInconsistentGroup,
					first.Label, FormatFloat(first.Value), second.Label, FormatFloat(second.Value))
			}
		}
	}

	return nil
}

func (r *reducer) signedPhase(ix *index) error {
	for _, key := range ix.keys() {
		if r.signed.has(key) {
			continue
		}

		group := ix.groups[key]

		switch len(group) {
		case 1:
			rec := group[0]
			if !r.abs.has(math.Abs(key)) {
				r.emit(Line{Kind: KindApprox, Label: rec.Label, Value: rec.Value})
				r.exact.add(rec.Value)
				r.abs.add(math.Abs(key))
			}
		case 2:
			first, second := group[0], group[1]
			if math.Abs(first.Value-second.Value) >= matchTolerance {
				return fmt.Errorf("%w: %s result %s != %s result %s", ErrInconsistentGroup,
					first.Label, FormatFloat(first.Value), second.Label, FormatFloat(second.Value))
			}

			r.emit(Line{Kind: KindEqual, Label: first.Label, Other: second.Label})
			r.exact.add(first.Value)
			r.exact.add(second.Value)
			r.abs.add(math.Abs(key))
		}
	}

	return nil
}

func (r *reducer) exactPhase(ix *index) error {
	for _, key := range ix.keys() {
		if r.exact.has(key) {
			continue
		}

		group := ix.groups[key]
		rounded := Round(key, Digits)
		absRounded := Round(math.Abs(key), Digits)

		switch len(group) {
		case 1:
			if r.signed.has(rounded) || r.abs.has(absRounded) {
				continue
			}

			r.emit(Line{Kind: KindApprox, Label: group[0].Label, Value: key})
		case 2:
			r.emit(Line{Kind: KindEqual, Label: group[0].Label, Other: group[1].Label})
		default:
			lines, err := chooseAmong(group, key)
			if err != nil {
				return err
			}

			r.emit(lines...)
		}

		r.signed.add(rounded)
		r.abs.add(absRounded)
	}

	return nil
}

// candidate is a pair of records from an ambiguous group, with the input
// distances that rank it.
type candidate struct {
	first, second Record
	diff          float64
	log2          float64
}

// compareCandidates orders by ascending log2 misalignment, then by
// descending raw input difference. Sorted stably, pairs equal on both keys
// keep their enumeration order, which makes the order total.
func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(a.log2, b.log2); c != 0 {
		return c
	}

	return cmp.Compare(b.diff, a.diff)
}

// rankCandidates enumerates every pair (i < j) of group in insertion order
// and sorts them best first.
func rankCandidates(group []Record) ([]candidate, error) {
	cands := make([]candidate, 0, len(group)*(len(group)-1)/2)

	for i := range group {
		for j := i + 1; j < len(group); j++ {
			diff, log2, err := DataDists(group[i].Inputs, group[j].Inputs)
			if err != nil {
				return nil, fmt.Errorf("ranking %s and %s: %w", group[i].Label, group[j].Label, err)
			}

			cands = append(cands, candidate{first: group[i], second: group[j], diff: diff, log2: log2})
		}
	}

	slices.SortStableFunc(cands, compareCandidates)

	return cands, nil
}

// chooseAmong settles a group of three or more records sharing one exact
// value with a single assertion for the best ranked pair.
func chooseAmong(group []Record, value float64) ([]Line, error) {
	cands, err := rankCandidates(group)
	if err != nil {
		return nil, err
	}

	best := cands[0]

	return []Line{
		Commentf("Choosing among %d possibilities for result %s", len(group), FormatFloat(value)),
		{Kind: KindEqual, Label: best.first.Label, Other: best.second.Label},
		Commentf("Discarded %d candidate pairs", len(cands)-1),
	}, nil
}
