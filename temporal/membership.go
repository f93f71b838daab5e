package temporal

import (
	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// alignLiteral converts v to a scalar of dtype (a datetime or duration type
// at unit u), flooring finer literals to u. ok is false when v is of
// another kind.
func alignLiteral(v any, dtype column.DataType, u Unit) (s column.Scalar, ok bool, err error) {
	if v == nil {
		return column.NullScalar(dtype), true, nil
	}
	s, err = literalScalar(v, u)
	if err != nil {
		return column.Scalar{}, false, err
	}
	if s.Type.IsDatetime() != dtype.IsDatetime() || s.Type.IsDuration() != dtype.IsDuration() {
		return column.Scalar{}, false, nil
	}
	su, err := UnitOf(s.Type)
	if err != nil {
		return column.Scalar{}, false, err
	}
	if !s.Valid {
		return column.NullScalar(dtype), true, nil
	}
	res, err := rescale(s, su, u, dtype)
	if err != nil {
		return column.Scalar{}, false, kernelErr(err)
	}
	return res.(column.Scalar), true, nil
}

func literalColumn(values []any, dtype column.DataType, u Unit) (*column.Column, error) {
	ticks := make([]int64, 0, len(values))
	for _, v := range values {
		s, ok, err := alignLiteral(v, dtype, u)
		if err != nil {
			return nil, err
		}
		if ok && s.Valid {
			ticks = append(ticks, s.Int)
		}
	}
	return column.FromInt64s(dtype, ticks, nil)
}

func contains(data *column.Column, u Unit, v any) (bool, error) {
	s, ok, err := alignLiteral(v, data.DataType(), u)
	if err != nil || !ok || !s.Valid {
		return false, err
	}
	for i := 0; i < data.Len(); i++ {
		if data.IsValid(i) && data.Int64(i) == s.Int {
			return true, nil
		}
	}
	return false, nil
}

func indicesOf(data *column.Column, u Unit, v any) (*column.Column, error) {
	s, ok, err := alignLiteral(v, data.DataType(), u)
	if err != nil {
		return nil, err
	}
	var idx []int64
	if ok && s.Valid {
		for i := 0; i < data.Len(); i++ {
			if data.IsValid(i) && data.Int64(i) == s.Int {
				idx = append(idx, int64(i))
			}
		}
	}
	return column.FromInt64s(column.Int64, idx, nil)
}

func isIn(data *column.Column, u Unit, values []any) (*column.Column, error) {
	set, err := literalColumn(values, data.DataType(), u)
	if err != nil {
		return nil, err
	}
	return column.IsIn(data, set)
}

func fillNull(data *column.Column, u Unit, v any) (*column.Column, error) {
	switch x := v.(type) {
	case Temporal:
		if x.DataType().Family() != data.DataType().Family() {
			return nil, errors.Wrapf(ErrTypeIncompatible, "fill %s with %s", data.DataType(), x.DataType())
		}
		other, err := rescale(x.Column(), x.Unit(), u, data.DataType())
		if err != nil {
			return nil, kernelErr(err)
		}
		return column.CopyIfElse(data, other, data.NotNull())
	}
	s, ok, err := alignLiteral(v, data.DataType(), u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrTypeIncompatible, "fill %s with %T", data.DataType(), v)
	}
	return column.FillNull(data, s)
}

// Contains reports whether the literal v occurs in the column. Missing
// literals are never contained.
func (c *DatetimeColumn) Contains(v any) (bool, error) { return contains(c.data, c.unit, v) }

// IsIn marks rows equal to any of values. Values of another kind never match.
func (c *DatetimeColumn) IsIn(values []any) (*column.Column, error) {
	return isIn(c.data, c.unit, values)
}

// IndicesOf returns the row positions holding v.
func (c *DatetimeColumn) IndicesOf(v any) (*column.Column, error) { return indicesOf(c.data, c.unit, v) }

// IsUnique reports whether the valid rows are pairwise distinct.
func (c *DatetimeColumn) IsUnique() bool { return column.Unique(c.data) }

// FillNull replaces missing rows with a literal or with the matching rows of
// another instant column, aligned to c's unit.
func (c *DatetimeColumn) FillNull(v any) (*DatetimeColumn, error) {
	if o, ok := v.(*DatetimeColumn); ok && o.tz != c.tz {
		return nil, errors.Wrapf(ErrTypeIncompatible, "fill zone %q with zone %q", c.tz, o.tz)
	}
	res, err := fillNull(c.data, c.unit, v)
	if err != nil {
		return nil, err
	}
	return &DatetimeColumn{data: res, unit: c.unit, tz: c.tz}, nil
}

func (c *TimedeltaColumn) Contains(v any) (bool, error) { return contains(c.data, c.unit, v) }

func (c *TimedeltaColumn) IsIn(values []any) (*column.Column, error) {
	return isIn(c.data, c.unit, values)
}

func (c *TimedeltaColumn) IndicesOf(v any) (*column.Column, error) { return indicesOf(c.data, c.unit, v) }

func (c *TimedeltaColumn) IsUnique() bool { return column.Unique(c.data) }

func (c *TimedeltaColumn) FillNull(v any) (*TimedeltaColumn, error) {
	res, err := fillNull(c.data, c.unit, v)
	if err != nil {
		return nil, err
	}
	return mustTimedelta(res), nil
}
