// Package render formats canon lines as source text for a test suite.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/calvinalkan/canon/internal/canon"
)

// Style selects the output syntax.
type Style string

// Supported styles.
const (
	// StyleAssert is the canonical "ASSERT a == b" form.
	StyleAssert Style = "assert"
	// StylePython emits pytest style asserts with assert_almost_equal.
	StylePython Style = "python"
	// StyleGo emits testify assertions.
	StyleGo Style = "go"
)

// ErrUnknownStyle is returned by [ParseStyle] for names it does not know.
var ErrUnknownStyle = errors.New("unknown style")

// goDelta is the tolerance written into InDelta assertions.
const goDelta = "1e-6"

// Styles lists the style names in help order.
func Styles() []string {
	return []string{string(StyleAssert), string(StylePython), string(StyleGo)}
}

// ParseStyle validates a style name. Empty means [StyleAssert].
func ParseStyle(name string) (Style, error) {
	switch s := Style(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return StyleAssert, nil
	case StyleAssert, StylePython, StyleGo:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownStyle, name, strings.Join(Styles(), ", "))
	}
}

// Line renders one line. Unknown styles fall back to the canonical form.
func Line(style Style, l canon.Line) string {
	switch style {
	case StylePython:
		return python(l)
	case StyleGo:
		return golang(l)
	default:
		return l.String()
	}
}

// Lines renders every line.
func Lines(style Style, lines []canon.Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Line(style, l)
	}

	return out
}

// Write renders lines to w, one per row.
func Write(w io.Writer, style Style, lines []canon.Line) error {
	for _, l := range lines {
		if _, err := io.WriteString(w, Line(style, l)+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func python(l canon.Line) string {
	switch l.Kind {
	case canon.KindLiteral:
		return fmt.Sprintf("assert %s == %s", l.Label, canon.FormatFloat(l.Value))
	case canon.KindApprox:
		return fmt.Sprintf("assert_almost_equal(%s,%s)", l.Label, canon.FormatFloat(l.Value))
	case canon.KindEqual:
		return fmt.Sprintf("assert_almost_equal(%s,%s)", l.Label, l.Other)
	case canon.KindNegated:
		return fmt.Sprintf("assert_almost_equal(%s,-1*%s)", l.Label, l.Other)
	default:
		return "# " + l.Text
	}
}

func golang(l canon.Line) string {
	switch l.Kind {
	case canon.KindLiteral:
		return fmt.Sprintf("assert.Equal(t, %s, %s)", goFloat(l.Value), l.Label)
	case canon.KindApprox:
		return fmt.Sprintf("assert.InDelta(t, %s, %s, %s)", goFloat(l.Value), l.Label, goDelta)
	case canon.KindEqual:
		return fmt.Sprintf("assert.InDelta(t, %s, %s, %s)", l.Other, l.Label, goDelta)
	case canon.KindNegated:
		return fmt.Sprintf("assert.InDelta(t, -1*%s, %s, %s)", l.Other, l.Label, goDelta)
	default:
		return "// " + l.Text
	}
}

func goFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "math.NaN()"
	case math.IsInf(v, 1):
		return "math.Inf(1)"
	case math.IsInf(v, -1):
		return "math.Inf(-1)"
	default:
		return canon.FormatFloat(v)
	}
}
