package render_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/render"
)

var allKinds = []canon.Line{
	{Kind: canon.KindLiteral, Label: "f(0.5)", Value: 0.5},
	{Kind: canon.KindApprox, Label: "g(0.5)", Value: 0.333333314},
	{Kind: canon.KindEqual, Label: "a", Other: "b"},
	{Kind: canon.KindNegated, Label: "odd(0.5)", Other: "odd(-0.5)"},
	{Kind: canon.KindComment, Text: "Skipping h with result -0.0"},
}

func TestLines(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		style render.Style
		want  []string
	}{
		{
			style: render.StyleAssert,
			want: []string{
				"ASSERT f(0.5) == 0.5",
				"ASSERT g(0.5) == 0.333333314",
				"ASSERT a == b",
				"ASSERT odd(0.5) == -1 * odd(-0.5)",
				"# Skipping h with result -0.0",
			},
		},
		{
			style: render.StylePython,
			want: []string{
				"assert f(0.5) == 0.5",
				"assert_almost_equal(g(0.5),0.333333314)",
				"assert_almost_equal(a,b)",
				"assert_almost_equal(odd(0.5),-1*odd(-0.5))",
				"# Skipping h with result -0.0",
			},
		},
		{
			style: render.StyleGo,
			want: []string{
				"assert.Equal(t, 0.5, f(0.5))",
				"assert.InDelta(t, 0.333333314, g(0.5), 1e-6)",
				"assert.InDelta(t, b, a, 1e-6)",
				"assert.InDelta(t, -1*odd(-0.5), odd(0.5), 1e-6)",
				"// Skipping h with result -0.0",
			},
		},
	} {
		t.Run(string(tt.style), func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, render.Lines(tt.style, allKinds)); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGoStyleNonFinite(t *testing.T) {
	t.Parallel()

	got := render.Lines(render.StyleGo, []canon.Line{
		{Kind: canon.KindLiteral, Label: "x", Value: math.Inf(1)},
		{Kind: canon.KindLiteral, Label: "y", Value: math.Inf(-1)},
	})

	want := []string{"assert.Equal(t, math.Inf(1), x)", "assert.Equal(t, math.Inf(-1), y)"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := render.Write(&buf, render.StyleAssert, allKinds[:2])
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got, want := buf.String(), "ASSERT f(0.5) == 0.5\nASSERT g(0.5) == 0.333333314\n"; got != want {
		t.Errorf("output=%q, want=%q", got, want)
	}
}

func TestParseStyle(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		want render.Style
	}{
		{"", render.StyleAssert},
		{"assert", render.StyleAssert},
		{"Python", render.StylePython},
		{" go ", render.StyleGo},
	} {
		got, err := render.ParseStyle(tt.in)
		if err != nil {
			t.Errorf("ParseStyle(%q): %v", tt.in, err)

			continue
		}

		if got != tt.want {
			t.Errorf("ParseStyle(%q)=%q, want=%q", tt.in, got, tt.want)
		}
	}

	_, err := render.ParseStyle("rust")
	if !errors.Is(err, render.ErrUnknownStyle) {
		t.Errorf("err=%v, want ErrUnknownStyle", err)
	}
}
