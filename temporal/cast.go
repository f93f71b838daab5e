package temporal

import (
	"math"

	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// canRescale reports whether every valid tick of c survives a change from
// unit from to unit to. Coarser targets always fit.
func canRescale(c *column.Column, from, to Unit) bool {
	if to <= from || c.NullCount() == c.Len() {
		return true
	}
	f := factor(from, to)
	lo, hi := column.Min(c), column.Max(c)
	return hi.Int <= math.MaxInt64/f && lo.Int >= math.MinInt64/f
}

func canCastSafely(c *column.Column, from Unit, to column.DataType) bool {
	self := c.DataType()
	switch {
	case to == column.Int64, to.IsString():
		return true
	case self.IsDatetime() && to.IsDatetime(), self.IsDuration() && to.IsDuration():
		u, err := UnitOf(to)
		return err == nil && canRescale(c, from, u)
	}
	return false
}

// CanCastSafely reports whether casting to to keeps every value: Int64 and
// string targets always do, datetime and duration targets of the same kind
// do when the observed range fits at the target unit, anything else does not.
func (c *DatetimeColumn) CanCastSafely(to column.DataType) bool {
	return canCastSafely(c.data, c.unit, to)
}

// CanCastSafely is the duration counterpart of DatetimeColumn.CanCastSafely.
func (c *TimedeltaColumn) CanCastSafely(to column.DataType) bool {
	return canCastSafely(c.data, c.unit, to)
}

func castTemporal(c *column.Column, from Unit, to column.DataType, asStrings func() (*column.Column, error)) (*column.Column, error) {
	self := c.DataType()
	switch {
	case to == self:
		return c.Copy(), nil
	case to.IsString():
		return asStrings()
	case self.IsDatetime() && to.IsDuration(), self.IsDuration() && to.IsDatetime():
		return nil, errors.Wrapf(ErrTypeIncompatible, "cannot cast %s to %s", self, to)
	case to.IsTemporal():
		u, err := UnitOf(to)
		if err != nil {
			return nil, err
		}
		if !canRescale(c, from, u) {
			return nil, errors.Wrapf(ErrOverflow, "values of %s do not fit in %s", self, to)
		}
		res, err := rescale(c, from, u, to)
		if err != nil {
			return nil, kernelErr(err)
		}
		return res.(*column.Column), nil
	case to.IsNumeric():
		res, err := column.Cast(c, to)
		if err != nil {
			return nil, kernelErr(err)
		}
		return res, nil
	}
	return nil, errors.Wrapf(ErrTypeIncompatible, "cannot cast %s to %s", self, to)
}

// Cast converts the column to to. Finer datetime units fail with ErrOverflow
// when CanCastSafely would be false; coarser units floor. Numeric targets
// receive raw UTC ticks and string targets the AsStrings rendering. Casting
// to a duration type is rejected. The result is a plain column; aware
// columns keep their zone only through AsUnit.
func (c *DatetimeColumn) Cast(to column.DataType) (*column.Column, error) {
	return castTemporal(c.data, c.unit, to, c.AsStrings)
}

// AsUnit casts to another unit and retags the result with tz. Changing the
// timezone this way is rejected: naive columns must go through TzLocalize
// and aware ones through TzConvert.
func (c *DatetimeColumn) AsUnit(u Unit, tz string) (*DatetimeColumn, error) {
	if tz != c.tz {
		if c.IsAware() {
			return nil, errors.Wrapf(ErrTypeIncompatible, "cannot cast %s to zone %q; use TzConvert", c.tz, tz)
		}
		return nil, errors.Wrapf(ErrTypeIncompatible, "cannot cast tz-naive values to zone %q; use TzLocalize", tz)
	}
	if !u.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unit %d", u)
	}
	res, err := c.Cast(DatetimeType(u))
	if err != nil {
		return nil, err
	}
	return &DatetimeColumn{data: res, unit: u, tz: tz}, nil
}

// Cast converts durations to to; instant targets are rejected.
func (c *TimedeltaColumn) Cast(to column.DataType) (*column.Column, error) {
	return castTemporal(c.data, c.unit, to, c.AsStrings)
}

// AsUnit casts to another duration unit.
func (c *TimedeltaColumn) AsUnit(u Unit) (*TimedeltaColumn, error) {
	if !u.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unit %d", u)
	}
	res, err := c.Cast(DurationType(u))
	if err != nil {
		return nil, err
	}
	return mustTimedelta(res), nil
}
