package column

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

var intRanges = map[DataType][2]int64{
	Int8:   {math.MinInt8, math.MaxInt8},
	Int16:  {math.MinInt16, math.MaxInt16},
	Int32:  {math.MinInt32, math.MaxInt32},
	UInt8:  {0, math.MaxUint8},
	UInt16: {0, math.MaxUint16},
	UInt32: {0, math.MaxUint32},
	UInt64: {0, math.MaxInt64},
}

// Cast converts c to another type. Integer-backed types convert value for
// value, so a datetime cast to Int64 yields its raw ticks. Floats truncate
// toward zero when cast to integers and NaN becomes null. Values outside a
// narrow integer type's range return ErrOverflow.
func Cast(c *Column, to DataType) (*Column, error) {
	if to == Invalid {
		return nil, errors.Wrap(ErrInvalidInput, "cast to invalid type")
	}
	if c.dtype == to {
		return c.Copy(), nil
	}
	out := alloc(to, c.length)
	for i := 0; i < c.length; i++ {
		if !c.IsValid(i) {
			out.setNull(i)
			continue
		}
		s, err := castScalar(c.Scalar(i), to)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out.set(i, s)
	}
	return out, nil
}

func castScalar(s Scalar, to DataType) (Scalar, error) {
	if to.IsString() {
		return StringScalar(s.String()), nil
	}
	if s.Type.IsString() {
		return parseScalar(s.Str, to)
	}
	switch to.storage() {
	case storageFloat:
		return Scalar{Type: to, Valid: true, Float: asFloat(s)}, nil
	case storageBool:
		return Scalar{Type: to, Valid: true, Bool: asFloat(s) != 0}, nil
	}
	var v int64
	if s.Type.storage() == storageFloat {
		f := s.Float
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return NullScalar(to), nil
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return Scalar{}, errors.Wrapf(ErrOverflow, "%g does not fit in %s", f, to)
		}
		v = int64(f)
	} else {
		v = asInt(s)
	}
	if r, ok := intRanges[to]; ok && (v < r[0] || v > r[1]) {
		return Scalar{}, errors.Wrapf(ErrOverflow, "%d does not fit in %s", v, to)
	}
	return IntScalar(to, v), nil
}

func parseScalar(str string, to DataType) (Scalar, error) {
	switch to.storage() {
	case storageFloat:
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return Scalar{}, errors.Wrapf(ErrInvalidInput, "parse %q as %s", str, to)
		}
		return Scalar{Type: to, Valid: true, Float: f}, nil
	case storageBool:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return Scalar{}, errors.Wrapf(ErrInvalidInput, "parse %q as %s", str, to)
		}
		return Scalar{Type: to, Valid: true, Bool: b}, nil
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return Scalar{}, errors.Wrapf(ErrInvalidInput, "parse %q as %s", str, to)
	}
	return castScalar(IntScalar(Int64, v), to)
}
