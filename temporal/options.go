package temporal

import "sync/atomic"

// Options are process-wide behaviour switches.
type Options struct {
	// PandasCompatible fills null boolean results, keeps a literal "Z" during
	// format inference, and narrows string conversion to the finest
	// populated component.
	PandasCompatible bool
}

var current atomic.Pointer[Options]

func init() { current.Store(&Options{}) }

// SetOptions replaces the process-wide options and returns the previous ones.
func SetOptions(o Options) Options {
	return *current.Swap(&o)
}

// CurrentOptions returns the process-wide options.
func CurrentOptions() Options { return *current.Load() }
