package plan

import "github.com/pkg/errors"

var (
	// ErrNotImplemented reports a node that cannot run on multiple
	// partitions while the fallback mode is raise.
	ErrNotImplemented = errors.New("not implemented for multiple partitions")
	// ErrInvalidPlan reports a malformed arena.
	ErrInvalidPlan = errors.New("invalid plan")
)
