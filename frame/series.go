package frame

import (
	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/temporal"
	"github.com/pkg/errors"
)

// Series is a named column. Timezone is set only for aware datetime columns.
type Series struct {
	Name     string
	Data     *column.Column
	Timezone string
}

// NewSeries validates that tz is only attached to a datetime column.
func NewSeries(name string, data *column.Column, tz string) (*Series, error) {
	if data == nil {
		return nil, errors.Errorf("series %q has no data", name)
	}
	if tz != "" {
		if _, err := temporal.NewDatetimeColumn(data, tz); err != nil {
			return nil, errors.Wrapf(err, "series %q", name)
		}
	}
	return &Series{Name: name, Data: data, Timezone: tz}, nil
}

// FromTemporal wraps a temporal column, keeping its timezone.
func FromTemporal(name string, t temporal.Temporal) *Series {
	s := &Series{Name: name, Data: t.Column()}
	if dt, ok := t.(*temporal.DatetimeColumn); ok {
		s.Timezone = dt.Timezone()
	}
	return s
}

// Len returns the number of rows.
func (s *Series) Len() int { return s.Data.Len() }

// DataType returns the physical type of the series.
func (s *Series) DataType() column.DataType { return s.Data.DataType() }

// IsTemporal reports whether the series holds datetimes or durations.
func (s *Series) IsTemporal() bool { return s.Data.DataType().IsTemporal() }

// Temporal views the series as a temporal column.
func (s *Series) Temporal() (temporal.Temporal, error) {
	return temporal.FromColumn(s.Data, s.Timezone)
}

func (s *Series) datetime() (*temporal.DatetimeColumn, error) {
	if !s.Data.DataType().IsDatetime() {
		return nil, errors.Wrapf(temporal.ErrTypeIncompatible, "column %q is %s, not a datetime", s.Name, s.Data.DataType())
	}
	return temporal.NewDatetimeColumn(s.Data, s.Timezone)
}

func (s *Series) renamed(name string) *Series {
	return &Series{Name: name, Data: s.Data, Timezone: s.Timezone}
}

func (s *Series) with(data *column.Column) *Series {
	return &Series{Name: s.Name, Data: data, Timezone: s.Timezone}
}

// Strings renders every row for display. Temporal rows use their ISO form in
// local wall-clock time.
func (s *Series) Strings() ([]string, error) {
	data := s.Data
	if s.IsTemporal() {
		t, err := s.Temporal()
		if err != nil {
			return nil, err
		}
		switch v := t.(type) {
		case *temporal.DatetimeColumn:
			data, err = v.AsStrings()
		case *temporal.TimedeltaColumn:
			data, err = v.AsStrings()
		}
		if err != nil {
			return nil, err
		}
	}
	out := make([]string, data.Len())
	for i := range out {
		out[i] = data.String(i)
	}
	return out, nil
}

// typeLabel is the short type name shown in frame headers.
func (s *Series) typeLabel() string {
	t := s.Data.DataType()
	switch {
	case t.IsDatetime():
		u, _ := temporal.UnitOf(t)
		if s.Timezone != "" {
			return "datetime[" + u.String() + ", " + s.Timezone + "]"
		}
		return "datetime[" + u.String() + "]"
	case t.IsDuration():
		u, _ := temporal.UnitOf(t)
		return "duration[" + u.String() + "]"
	}
	if label, ok := shortTypes[t]; ok {
		return label
	}
	return t.String()
}

var shortTypes = map[column.DataType]string{
	column.Int8:    "i8",
	column.Int16:   "i16",
	column.Int32:   "i32",
	column.Int64:   "i64",
	column.UInt8:   "u8",
	column.UInt16:  "u16",
	column.UInt32:  "u32",
	column.UInt64:  "u64",
	column.Float32: "f32",
	column.Float64: "f64",
	column.String:  "str",
	column.Boolean: "bool",
}
