package canon

import "fmt"

// Kind classifies an output [Line].
type Kind int

// Line kinds.
const (
	// KindComment is a diagnostic. It is never consumed as an assertion.
	KindComment Kind = iota
	// KindLiteral asserts a label equals a low precision literal exactly.
	KindLiteral
	// KindApprox asserts a label equals a high precision literal within tolerance.
	KindApprox
	// KindEqual asserts two labels are equal.
	KindEqual
	// KindNegated asserts Label == -1 * Other.
	KindNegated
)

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindLiteral:
		return "literal"
	case KindApprox:
		return "approx"
	case KindEqual:
		return "equal"
	case KindNegated:
		return "negated"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Line is one emitted output line.
type Line struct {
	Kind  Kind
	Label string
	Other string  // second label for KindEqual and KindNegated
	Value float64 // literal for KindLiteral and KindApprox
	Text  string  // comment text for KindComment
}

// IsAssertion reports whether l asserts something.
func (l Line) IsAssertion() bool {
	return l.Kind != KindComment
}

// String renders l in the canonical form:
//
//	ASSERT <label> == <literal>
//	ASSERT <label1> == <label2>
//	ASSERT <label1> == -1 * <label2>
//	# <comment>
func (l Line) String() string {
	switch l.Kind {
	case KindLiteral, KindApprox:
		return fmt.Sprintf("ASSERT %s == %s", l.Label, FormatFloat(l.Value))
	case KindEqual:
		return fmt.Sprintf("ASSERT %s == %s", l.Label, l.Other)
	case KindNegated:
		return fmt.Sprintf("ASSERT %s == -1 * %s", l.Label, l.Other)
	default:
		return "# " + l.Text
	}
}

// Commentf returns a diagnostic line.
func Commentf(format string, a ...any) Line {
	return Line{Kind: KindComment, Text: fmt.Sprintf(format, a...)}
}
