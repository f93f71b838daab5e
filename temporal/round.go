package temporal

import (
	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/logger"
	"github.com/pkg/errors"
)

// deprecatedFrequencies maps old pandas aliases to their current names.
var deprecatedFrequencies = map[string]string{
	"H": "h",
	"N": "ns",
	"T": "min",
	"L": "ms",
	"U": "us",
	"S": "s",
}

var frequencyNanos = map[string]int64{
	"D":   86_400_000_000_000,
	"h":   3_600_000_000_000,
	"min": 60_000_000_000,
	"s":   1_000_000_000,
	"ms":  1_000_000,
	"us":  1_000,
	"ns":  1,
}

type rounding int

const (
	roundFloor rounding = iota
	roundCeil
	roundHalfEven
)

// frequencyTicks resolves freq to a tick count at u. Frequencies finer
// than u resolve to 1.
func frequencyTicks(freq string, u Unit) (int64, error) {
	if repl, ok := deprecatedFrequencies[freq]; ok {
		logger.Warn("deprecated rounding frequency", "freq", freq, "use", repl)
		freq = repl
	}
	ns, ok := frequencyNanos[freq]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidInput, "invalid resolution %q", freq)
	}
	perTick := 1_000_000_000 / u.TicksPerSecond()
	if ns <= perTick {
		return 1, nil
	}
	return ns / perTick, nil
}

func roundTicks(v, f int64, mode rounding) (int64, bool) {
	q, r := column.FloorDiv(v, f), column.FloorMod(v, f)
	switch mode {
	case roundCeil:
		if r != 0 {
			q++
		}
	case roundHalfEven:
		if 2*r > f || (2*r == f && q%2 != 0) {
			q++
		}
	}
	return column.MulChecked(q, f)
}

func (c *DatetimeColumn) round(freq string, mode rounding) (*DatetimeColumn, error) {
	f, err := frequencyTicks(freq, c.unit)
	if err != nil {
		return nil, err
	}
	n := c.Len()
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		if !c.data.IsValid(i) {
			continue
		}
		v, ok := roundTicks(c.data.Int64(i), f, mode)
		if !ok {
			return nil, errors.Wrapf(ErrOverflow, "rounding row %d to %s", i, freq)
		}
		out[i] = v
	}
	data, err := column.FromInt64s(c.data.DataType(), out, c.data.Validity())
	if err != nil {
		return nil, err
	}
	return &DatetimeColumn{data: data, unit: c.unit, tz: c.tz}, nil
}

// Floor rounds every instant down to a multiple of freq, one of D, h, min,
// s, ms, us, ns. The deprecated aliases H, T, S, L, U and N are accepted
// with a warning.
func (c *DatetimeColumn) Floor(freq string) (*DatetimeColumn, error) {
	return c.round(freq, roundFloor)
}

// Ceil rounds every instant up to a multiple of freq.
func (c *DatetimeColumn) Ceil(freq string) (*DatetimeColumn, error) {
	return c.round(freq, roundCeil)
}

// Round rounds every instant to the nearest multiple of freq, ties to even.
func (c *DatetimeColumn) Round(freq string) (*DatetimeColumn, error) {
	return c.round(freq, roundHalfEven)
}

func (c *TimedeltaColumn) Floor(string) (*TimedeltaColumn, error) {
	return nil, errors.Wrap(ErrNotImplemented, "floor")
}

func (c *TimedeltaColumn) Ceil(string) (*TimedeltaColumn, error) {
	return nil, errors.Wrap(ErrNotImplemented, "ceil")
}

func (c *TimedeltaColumn) Round(string) (*TimedeltaColumn, error) {
	return nil, errors.Wrap(ErrNotImplemented, "round")
}
