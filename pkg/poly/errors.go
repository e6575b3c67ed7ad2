package poly

import "errors"

// Sentinel errors returned by the polynomial algebra. Callers match them with errors.Is;
// operations that add context wrap them with fmt.Errorf("...: %w", err).
var (
	// ErrArity is returned when operands disagree on their variable or equation counts.
	ErrArity = errors.New("poly: variable count mismatch")

	// ErrDegree is returned for a truncation degree outside 1..MaxDegree.
	ErrDegree = errors.New("poly: invalid truncation degree")

	// ErrVariable is returned when a variable or equation index is out of range.
	ErrVariable = errors.New("poly: index out of range")

	// ErrSeriesDomain is returned when a power series cannot be expanded around the
	// polynomial's constant term (zero, or negative with a fractional exponent).
	ErrSeriesDomain = errors.New("poly: series undefined for constant term")

	// ErrDegenerateLerp is returned when both interpolation parameters are equal.
	ErrDegenerateLerp = errors.New("poly: interpolation parameters coincide")
)
