package canon

import "errors"

// Fatal errors. Any of these aborts the whole run; output produced before
// the error must be discarded.
var (
	ErrRoundTripViolation = errors.New("result does not round-trip at bucket precision")
	ErrInconsistentGroup  = errors.New("inconsistent rounding group")
	ErrLengthMismatch     = errors.New("input length mismatch")
)

// ErrUnsupportedParameterArity is returned by drivers for functions with more
// varying parameters than they can sample. It is recoverable: skip the
// function and continue the batch.
var ErrUnsupportedParameterArity = errors.New("unsupported parameter arity")

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrRoundTripViolation) ||
		errors.Is(err, ErrInconsistentGroup) ||
		errors.Is(err, ErrLengthMismatch)
}
