package temporal

import (
	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// Unit is the tick resolution of a temporal column. Units are ordered from
// coarse to fine.
type Unit int

const (
	Second Unit = iota + 1
	Millisecond
	Microsecond
	Nanosecond
)

var unitNames = [...]string{Second: "s", Millisecond: "ms", Microsecond: "us", Nanosecond: "ns"}

// ticksPerSecond indexed by Unit.
var ticksPerSecond = [...]int64{Second: 1, Millisecond: 1_000, Microsecond: 1_000_000, Nanosecond: 1_000_000_000}

func (u Unit) String() string {
	if u < Second || u > Nanosecond {
		return "invalid"
	}
	return unitNames[u]
}

// Valid reports whether u is one of the four column resolutions.
func (u Unit) Valid() bool { return u >= Second && u <= Nanosecond }

// TicksPerSecond returns how many ticks of u make one second.
func (u Unit) TicksPerSecond() int64 { return ticksPerSecond[u] }

// ParseUnit parses "s", "ms", "us" or "ns".
func ParseUnit(s string) (Unit, error) {
	for u := Second; u <= Nanosecond; u++ {
		if unitNames[u] == s {
			return u, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidInput, "unknown time unit %q", s)
}

// ResolveBinopResolution returns the finer of two units.
func ResolveBinopResolution(a, b Unit) Unit {
	if a > b {
		return a
	}
	return b
}

// DatetimeType returns the column type holding instants at u.
func DatetimeType(u Unit) column.DataType {
	return column.DataType(column.FamilyDatetime | uint32(u))
}

// DurationType returns the column type holding durations at u.
func DurationType(u Unit) column.DataType {
	return column.DataType(column.FamilyDuration | uint32(u))
}

// UnitOf extracts the resolution of a datetime or duration column type.
func UnitOf(t column.DataType) (Unit, error) {
	if !t.IsTemporal() {
		return 0, errors.Wrapf(ErrTypeIncompatible, "%s is not a temporal type", t)
	}
	u := Unit(uint32(t) & 0xFFFF)
	if !u.Valid() {
		return 0, errors.Wrapf(ErrInvalidInput, "%s has no valid unit", t)
	}
	return u, nil
}

// factor returns the multiplier from ticks at coarse to ticks at fine.
func factor(coarse, fine Unit) int64 {
	return ticksPerSecond[fine] / ticksPerSecond[coarse]
}

// rescale converts integer ticks of c from unit from to unit to, tagging the
// result with dtype. Going finer is overflow-checked; going coarser floors.
func rescale(c column.Operand, from, to Unit, dtype column.DataType) (column.Operand, error) {
	switch {
	case from == to:
		return retag(c, dtype)
	case to > from:
		return binaryOperand(c, column.IntScalar(column.Int64, factor(from, to)), column.OpMul, dtype)
	default:
		return binaryOperand(c, column.IntScalar(column.Int64, factor(to, from)), column.OpFloorDiv, dtype)
	}
}

func retag(o column.Operand, dtype column.DataType) (column.Operand, error) {
	switch v := o.(type) {
	case *column.Column:
		if v.DataType() == dtype {
			return v, nil
		}
		return v.Reinterpret(dtype)
	case column.Scalar:
		v.Type = dtype
		return v, nil
	}
	return nil, errors.Wrapf(ErrInvalidInput, "unknown operand %T", o)
}

// binaryOperand is column.Binary extended to scalar-with-scalar evaluation.
func binaryOperand(lhs, rhs column.Operand, op column.BinaryOp, out column.DataType) (column.Operand, error) {
	if s, ok := lhs.(column.Scalar); ok {
		if _, both := rhs.(column.Scalar); both {
			one, err := column.Binary(column.Full(s, 1), rhs, op, out)
			if err != nil {
				return nil, err
			}
			return one.Scalar(0), nil
		}
	}
	return column.Binary(lhs, rhs, op, out)
}
