package temporal

import (
	"strings"
	"time"

	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// Datetime64 is an instant literal: Value ticks of Unit since the Unix
// epoch. Unit is one of W, D, h, m, s, ms, us, ns.
type Datetime64 struct {
	Value int64
	Unit  string
	NaT   bool
}

// Timedelta64 is a duration literal of Value ticks of Unit.
type Timedelta64 struct {
	Value int64
	Unit  string
	NaT   bool
}

// NaT is the missing instant literal at nanosecond resolution.
var NaT = Datetime64{Unit: "ns", NaT: true}

var literalNanos = map[string]int64{
	"W":  7 * 86_400_000_000_000,
	"D":  86_400_000_000_000,
	"h":  3_600_000_000_000,
	"m":  60_000_000_000,
	"s":  1_000_000_000,
	"ms": 1_000_000,
	"us": 1_000,
	"ns": 1,
}

// normalizeLiteralUnit re-expresses a literal at one of the column units.
// Coarse literals become nanoseconds, or the column's unit when missing.
func normalizeLiteralUnit(value int64, unit string, nat bool, colUnit Unit) (int64, Unit, error) {
	if u, err := ParseUnit(unit); err == nil {
		return value, u, nil
	}
	per, ok := literalNanos[unit]
	if !ok {
		return 0, 0, errors.Wrapf(ErrInvalidInput, "unknown literal unit %q", unit)
	}
	if nat {
		return 0, colUnit, nil
	}
	v, ok := column.MulChecked(value, per)
	if !ok {
		return 0, 0, errors.Wrapf(ErrOverflow, "%d%s in nanoseconds", value, unit)
	}
	return v, Nanosecond, nil
}

func (d Datetime64) scalar(colUnit Unit) (column.Scalar, error) {
	v, u, err := normalizeLiteralUnit(d.Value, d.Unit, d.NaT, colUnit)
	if err != nil {
		return column.Scalar{}, err
	}
	if d.NaT {
		return column.NullScalar(DatetimeType(u)), nil
	}
	return column.IntScalar(DatetimeType(u), v), nil
}

func (d Timedelta64) scalar(colUnit Unit) (column.Scalar, error) {
	v, u, err := normalizeLiteralUnit(d.Value, d.Unit, d.NaT, colUnit)
	if err != nil {
		return column.Scalar{}, err
	}
	if d.NaT {
		return column.NullScalar(DurationType(u)), nil
	}
	return column.IntScalar(DurationType(u), v), nil
}

// instantScalar converts a UTC time.Time to the finest unit that holds it.
func instantScalar(t time.Time) (column.Scalar, error) {
	if t.Location() != time.UTC {
		return column.Scalar{}, errors.Wrapf(ErrNotSupported, "binary operations with timezone aware operands (%s)", t.Location())
	}
	sec := t.Unix()
	if ns, ok := column.MulChecked(sec, 1_000_000_000); ok {
		if v, ok := column.AddChecked(ns, int64(t.Nanosecond())); ok {
			return column.IntScalar(DatetimeType(Nanosecond), v), nil
		}
	}
	us, ok := column.MulChecked(sec, 1_000_000)
	if !ok {
		return column.Scalar{}, errors.Wrapf(ErrOverflow, "instant %s", t)
	}
	return column.IntScalar(DatetimeType(Microsecond), us+int64(t.Nanosecond()/1000)), nil
}

func isNaTString(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nat", "":
		return true
	}
	return false
}

// literalScalar converts a Go literal into a typed scalar. colUnit is used
// for missing literals at non-column units.
func literalScalar(v any, colUnit Unit) (column.Scalar, error) {
	switch x := v.(type) {
	case column.Scalar:
		return x, nil
	case Datetime64:
		return x.scalar(colUnit)
	case Timedelta64:
		return x.scalar(colUnit)
	case time.Time:
		return instantScalar(x)
	case time.Duration:
		return column.IntScalar(DurationType(Nanosecond), int64(x)), nil
	case string:
		if isNaTString(x) {
			return column.NullScalar(DatetimeType(colUnit)), nil
		}
		ticks, err := ParseTimestamp(x)
		if err != nil {
			return column.Scalar{}, err
		}
		return column.IntScalar(DatetimeType(Nanosecond), ticks), nil
	case int:
		return column.IntScalar(column.Int64, int64(x)), nil
	case int32:
		return column.IntScalar(column.Int32, int64(x)), nil
	case int64:
		return column.IntScalar(column.Int64, x), nil
	case float64:
		return column.FloatScalar(x), nil
	case float32:
		return column.FloatScalar(float64(x)), nil
	case bool:
		return column.BoolScalar(x), nil
	}
	return column.Scalar{}, errors.Wrapf(ErrUnsupportedOperand, "literal of type %T", v)
}

// LiteralScalar converts a literal into a typed scalar. Strings are parsed as
// naive timestamps and missing temporal literals take nanosecond resolution.
func LiteralScalar(v any) (column.Scalar, error) { return literalScalar(v, Nanosecond) }
