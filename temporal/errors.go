package temporal

import "github.com/pkg/errors"

var (
	// ErrNotImplemented marks a recognized feature this package does not
	// provide, such as locales or non-NaT ambiguity policies.
	ErrNotImplemented = errors.New("temporal: not implemented")

	// ErrNotSupported is returned for timezone-aware literals in binary
	// operations and timezone-bearing strings.
	ErrNotSupported = errors.New("temporal: not supported")

	// ErrInvalidInput is returned for malformed arguments.
	ErrInvalidInput = errors.New("temporal: invalid input")

	// ErrTypeIncompatible is returned for casts and operations between
	// incompatible temporal kinds.
	ErrTypeIncompatible = errors.New("temporal: incompatible types")

	// ErrUnsupportedOperand is returned when no dispatch rule matches an
	// operator and operand combination.
	ErrUnsupportedOperand = errors.New("temporal: unsupported operand")

	// ErrAmbiguousInference is returned when a datetime format cannot be
	// inferred from a sample.
	ErrAmbiguousInference = errors.New("temporal: unable to infer datetime format")

	// ErrOverflow is returned when ticks leave the int64 range.
	ErrOverflow = errors.New("temporal: overflow")
)
