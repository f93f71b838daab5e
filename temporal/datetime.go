// Package temporal implements datetime and timedelta columns: instants and
// durations stored as int64 ticks at one of four resolutions, with binary
// operators, field extraction, formatting, timezone handling, safe-cast
// analysis and reductions.
//
// Instants are always stored as UTC ticks. A timezone is metadata: an aware
// column and its naive UTC counterpart share the same buffer.
package temporal

import (
	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/tzdata"
	"github.com/pkg/errors"
)

// DatetimeColumn is a column of instants. A non-empty Timezone makes the
// column timezone-aware.
type DatetimeColumn struct {
	data *column.Column
	unit Unit
	tz   string
}

// NewDatetimeColumn wraps a datetime-typed column. When tz is non-empty the
// zone must be known to the zone database.
func NewDatetimeColumn(data *column.Column, tz string) (*DatetimeColumn, error) {
	if data == nil || !data.DataType().IsDatetime() {
		return nil, errors.Wrapf(ErrInvalidInput, "datetime column requires a datetime dtype")
	}
	u, err := UnitOf(data.DataType())
	if err != nil {
		return nil, err
	}
	if tz != "" {
		if _, err := tzdata.Load(tz); err != nil {
			return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
		}
	}
	return &DatetimeColumn{data: data, unit: u, tz: tz}, nil
}

// Datetimes builds a naive column from raw ticks at u. valid may be nil.
func Datetimes(u Unit, ticks []int64, valid []bool) (*DatetimeColumn, error) {
	if !u.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unit %d", u)
	}
	data, err := column.FromInt64s(DatetimeType(u), ticks, valid)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	return &DatetimeColumn{data: data, unit: u}, nil
}

func mustDatetime(c *column.Column, tz string) *DatetimeColumn {
	u, _ := UnitOf(c.DataType())
	return &DatetimeColumn{data: c, unit: u, tz: tz}
}

// Column returns the underlying UTC ticks column.
func (c *DatetimeColumn) Column() *column.Column { return c.data }

// Unit returns the tick resolution.
func (c *DatetimeColumn) Unit() Unit { return c.unit }

// Timezone returns the zone name, or "" for naive columns.
func (c *DatetimeColumn) Timezone() string { return c.tz }

// IsAware reports whether the column carries a timezone.
func (c *DatetimeColumn) IsAware() bool { return c.tz != "" }

// Len returns the number of rows.
func (c *DatetimeColumn) Len() int { return c.data.Len() }

// DataType returns the column type.
func (c *DatetimeColumn) DataType() column.DataType { return c.data.DataType() }

// Copy returns a deep copy that keeps the timezone.
func (c *DatetimeColumn) Copy() *DatetimeColumn {
	return &DatetimeColumn{data: c.data.Copy(), unit: c.unit, tz: c.tz}
}

// WithTimezone returns a view of the same ticks tagged with tz.
func (c *DatetimeColumn) WithTimezone(tz string) (*DatetimeColumn, error) {
	return NewDatetimeColumn(c.data, tz)
}

// Ticks returns the raw value at i and whether it is present.
func (c *DatetimeColumn) Ticks(i int) (int64, bool) {
	if !c.data.IsValid(i) {
		return 0, false
	}
	return c.data.Int64(i), true
}

// asInt64 reinterprets the ticks as an Int64 column sharing storage.
func (c *DatetimeColumn) asInt64() *column.Column {
	v, _ := c.data.Reinterpret(column.Int64)
	return v
}

func (c *DatetimeColumn) String() string {
	if c.tz != "" {
		return c.data.GoString() + "[" + c.tz + "]"
	}
	return c.data.GoString()
}

// TimedeltaColumn is a column of durations.
type TimedeltaColumn struct {
	data *column.Column
	unit Unit
}

// NewTimedeltaColumn wraps a duration-typed column.
func NewTimedeltaColumn(data *column.Column) (*TimedeltaColumn, error) {
	if data == nil || !data.DataType().IsDuration() {
		return nil, errors.Wrapf(ErrInvalidInput, "timedelta column requires a duration dtype")
	}
	u, err := UnitOf(data.DataType())
	if err != nil {
		return nil, err
	}
	return &TimedeltaColumn{data: data, unit: u}, nil
}

// Timedeltas builds a duration column from raw ticks at u.
func Timedeltas(u Unit, ticks []int64, valid []bool) (*TimedeltaColumn, error) {
	if !u.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "unit %d", u)
	}
	data, err := column.FromInt64s(DurationType(u), ticks, valid)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	return &TimedeltaColumn{data: data, unit: u}, nil
}

func mustTimedelta(c *column.Column) *TimedeltaColumn {
	u, _ := UnitOf(c.DataType())
	return &TimedeltaColumn{data: c, unit: u}
}

func (c *TimedeltaColumn) Column() *column.Column    { return c.data }
func (c *TimedeltaColumn) Unit() Unit                { return c.unit }
func (c *TimedeltaColumn) Len() int                  { return c.data.Len() }
func (c *TimedeltaColumn) DataType() column.DataType { return c.data.DataType() }
func (c *TimedeltaColumn) String() string            { return c.data.GoString() }

func (c *TimedeltaColumn) asInt64() *column.Column {
	v, _ := c.data.Reinterpret(column.Int64)
	return v
}

// Temporal is implemented by *DatetimeColumn and *TimedeltaColumn.
type Temporal interface {
	Column() *column.Column
	Unit() Unit
	Len() int
	DataType() column.DataType
	BinaryOp(other any, op column.BinaryOp) (*column.Column, error)
}

// FromColumn wraps a datetime or duration column in its temporal type.
// tz applies to datetime columns only.
func FromColumn(c *column.Column, tz string) (Temporal, error) {
	switch {
	case c.DataType().IsDatetime():
		return NewDatetimeColumn(c, tz)
	case c.DataType().IsDuration():
		if tz != "" {
			return nil, errors.Wrapf(ErrTypeIncompatible, "durations cannot carry timezone %q", tz)
		}
		return NewTimedeltaColumn(c)
	}
	return nil, errors.Wrapf(ErrTypeIncompatible, "%s is not a temporal type", c.DataType())
}
