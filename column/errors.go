package column

import "github.com/pkg/errors"

// Sentinel errors returned by column construction and kernels.
var (
	// ErrInvalidInput is returned for malformed construction arguments such as
	// a buffer whose size is not a multiple of the element width.
	ErrInvalidInput = errors.New("column: invalid input")

	// ErrTypeMismatch is returned when a kernel receives operands of a type
	// family it cannot process.
	ErrTypeMismatch = errors.New("column: type mismatch")

	// ErrLengthMismatch is returned when two column operands differ in length.
	ErrLengthMismatch = errors.New("column: length mismatch")

	// ErrOutOfBounds is returned by gathers that do not nullify out-of-range
	// indices.
	ErrOutOfBounds = errors.New("column: index out of bounds")

	// ErrOverflow is returned when integer arithmetic leaves the int64 range.
	ErrOverflow = errors.New("column: integer overflow")
)
