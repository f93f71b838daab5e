package temporal

import (
	"time"

	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// Field names a calendar or clock component of an instant.
type Field int

const (
	FieldYear Field = iota
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
	FieldSecond
	FieldMillisecond
	FieldMicrosecond
	FieldNanosecond
	// FieldWeekday is ISO numbering, Monday = 1 through Sunday = 7.
	FieldWeekday
	FieldDayOfYear
	FieldQuarter
	FieldDaysInMonth
)

var fieldNames = [...]string{
	"year", "month", "day", "hour", "minute", "second", "millisecond",
	"microsecond", "nanosecond", "weekday", "day_of_year", "quarter", "days_in_month",
}

func (f Field) String() string { return fieldNames[f] }

// ParseField maps a field name to its Field.
func ParseField(s string) (Field, error) {
	for i, n := range fieldNames {
		if n == s {
			return Field(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidInput, "unknown datetime field %q", s)
}

// civil converts ticks at u to a UTC wall-clock time.
func civil(ticks int64, u Unit) time.Time {
	tps := u.TicksPerSecond()
	sec := column.FloorDiv(ticks, tps)
	rem := column.FloorMod(ticks, tps)
	return time.Unix(sec, rem*(1_000_000_000/tps)).UTC()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func fieldValue(t time.Time, f Field) int64 {
	switch f {
	case FieldYear:
		return int64(t.Year())
	case FieldMonth:
		return int64(t.Month())
	case FieldDay:
		return int64(t.Day())
	case FieldHour:
		return int64(t.Hour())
	case FieldMinute:
		return int64(t.Minute())
	case FieldSecond:
		return int64(t.Second())
	case FieldMillisecond:
		return int64(t.Nanosecond() / 1_000_000)
	case FieldMicrosecond:
		return int64(t.Nanosecond() / 1_000 % 1_000)
	case FieldNanosecond:
		return int64(t.Nanosecond() % 1_000)
	case FieldWeekday:
		wd := int64(t.Weekday())
		if wd == 0 {
			return 7
		}
		return wd
	case FieldDayOfYear:
		return int64(t.YearDay())
	case FieldQuarter:
		return int64((t.Month()-1)/3 + 1)
	case FieldDaysInMonth:
		return int64(daysIn(t.Year(), t.Month()))
	}
	return 0
}

// mapLocal applies fn to the local wall-clock time of every valid row.
func (c *DatetimeColumn) mapLocal(dtype column.DataType, fn func(time.Time) column.Scalar) (*column.Column, error) {
	local, err := c.localTicks()
	if err != nil {
		return nil, err
	}
	n := local.Len()
	out := make([]column.Scalar, n)
	for i := 0; i < n; i++ {
		if !local.IsValid(i) {
			out[i] = column.NullScalar(dtype)
			continue
		}
		out[i] = fn(civil(local.Int64(i), c.unit))
	}
	return fromScalars(dtype, out), nil
}

// fromScalars assembles a column of dtype from per-row scalars.
func fromScalars(dtype column.DataType, vals []column.Scalar) *column.Column {
	mask := make([]bool, len(vals))
	for i, s := range vals {
		mask[i] = s.Valid
	}
	var res *column.Column
	switch {
	case dtype.IsBoolean():
		b := make([]bool, len(vals))
		for i, s := range vals {
			b[i] = s.Bool
		}
		res, _ = column.FromBools(b, mask)
	case dtype.IsString():
		s := make([]string, len(vals))
		for i, v := range vals {
			s[i] = v.Str
		}
		res, _ = column.FromStrings(s, mask)
	case dtype.IsFloat():
		f := make([]float64, len(vals))
		for i, v := range vals {
			f[i] = v.Float
		}
		res, _ = column.FromFloat64s(f, mask)
	default:
		v := make([]int64, len(vals))
		for i, s := range vals {
			v[i] = s.Int
		}
		res, _ = column.FromInt64s(dtype, v, mask)
	}
	return res
}

// Field extracts f from every row as an Int16 column. Aware columns report
// local wall-clock fields.
func (c *DatetimeColumn) Field(f Field) (*column.Column, error) {
	if f < FieldYear || f > FieldDaysInMonth {
		return nil, errors.Wrapf(ErrInvalidInput, "field %d", f)
	}
	return c.mapLocal(column.Int16, func(t time.Time) column.Scalar {
		return column.IntScalar(column.Int16, fieldValue(t, f))
	})
}

func (c *DatetimeColumn) Year() (*column.Column, error)        { return c.Field(FieldYear) }
func (c *DatetimeColumn) Month() (*column.Column, error)       { return c.Field(FieldMonth) }
func (c *DatetimeColumn) Day() (*column.Column, error)         { return c.Field(FieldDay) }
func (c *DatetimeColumn) Hour() (*column.Column, error)        { return c.Field(FieldHour) }
func (c *DatetimeColumn) Minute() (*column.Column, error)      { return c.Field(FieldMinute) }
func (c *DatetimeColumn) Second() (*column.Column, error)      { return c.Field(FieldSecond) }
func (c *DatetimeColumn) Millisecond() (*column.Column, error) { return c.Field(FieldMillisecond) }
func (c *DatetimeColumn) Microsecond() (*column.Column, error) { return c.Field(FieldMicrosecond) }
func (c *DatetimeColumn) Nanosecond() (*column.Column, error)  { return c.Field(FieldNanosecond) }
func (c *DatetimeColumn) DayOfYear() (*column.Column, error)   { return c.Field(FieldDayOfYear) }
func (c *DatetimeColumn) Quarter() (*column.Column, error)     { return c.Field(FieldQuarter) }
func (c *DatetimeColumn) DaysInMonth() (*column.Column, error) { return c.Field(FieldDaysInMonth) }

// Weekday returns Monday = 0 through Sunday = 6.
func (c *DatetimeColumn) Weekday() (*column.Column, error) {
	wd, err := c.Field(FieldWeekday)
	if err != nil {
		return nil, err
	}
	return column.Binary(wd, column.IntScalar(column.Int16, 1), column.OpSub, column.Int16)
}

// IsLeapYear reports whether each row falls in a leap year.
func (c *DatetimeColumn) IsLeapYear() (*column.Column, error) {
	return c.mapLocal(column.Boolean, func(t time.Time) column.Scalar {
		return column.BoolScalar(isLeap(t.Year()))
	})
}

// LastDayOfMonth returns midnight of the last day of each row's month, as a
// naive column at c's unit. Rows whose month ends past the unit's range are
// null.
func (c *DatetimeColumn) LastDayOfMonth() (*DatetimeColumn, error) {
	dtype := DatetimeType(c.unit)
	tps := c.unit.TicksPerSecond()
	res, err := c.mapLocal(dtype, func(t time.Time) column.Scalar {
		last := time.Date(t.Year(), t.Month(), daysIn(t.Year(), t.Month()), 0, 0, 0, 0, time.UTC)
		ticks, ok := column.MulChecked(last.Unix(), tps)
		if !ok {
			return column.NullScalar(dtype)
		}
		return column.IntScalar(dtype, ticks)
	})
	if err != nil {
		return nil, err
	}
	return mustDatetime(res, ""), nil
}

func eqScalar(c *column.Column, v int64) (*column.Column, error) {
	return column.Binary(c, column.IntScalar(c.DataType(), v), column.OpEq, column.Boolean)
}

func fillFalse(c *column.Column, err error) (*column.Column, error) {
	if err != nil {
		return nil, err
	}
	return column.FillNull(c, column.BoolScalar(false))
}

// IsMonthStart reports day == 1; null rows are false.
func (c *DatetimeColumn) IsMonthStart() (*column.Column, error) {
	day, err := c.Day()
	if err != nil {
		return nil, err
	}
	return fillFalse(eqScalar(day, 1))
}

// IsMonthEnd compares each day with the day of its month's last date.
func (c *DatetimeColumn) IsMonthEnd() (*column.Column, error) {
	day, err := c.Day()
	if err != nil {
		return nil, err
	}
	last, err := c.LastDayOfMonth()
	if err != nil {
		return nil, err
	}
	lastDay, err := last.Day()
	if err != nil {
		return nil, err
	}
	return fillFalse(column.Binary(day, lastDay, column.OpEq, column.Boolean))
}

func (c *DatetimeColumn) monthIn(months ...int64) (*column.Column, error) {
	month, err := c.Month()
	if err != nil {
		return nil, err
	}
	set, err := column.FromInt64s(column.Int16, months, nil)
	if err != nil {
		return nil, err
	}
	return column.IsIn(month, set)
}

// IsQuarterStart is IsMonthStart restricted to January, April, July, October.
func (c *DatetimeColumn) IsQuarterStart() (*column.Column, error) {
	start, err := c.IsMonthStart()
	if err != nil {
		return nil, err
	}
	first, err := c.monthIn(1, 4, 7, 10)
	if err != nil {
		return nil, err
	}
	return fillFalse(column.Binary(start, first, column.OpAnd, column.Boolean))
}

// IsQuarterEnd is IsMonthEnd restricted to March, June, September, December.
func (c *DatetimeColumn) IsQuarterEnd() (*column.Column, error) {
	end, err := c.IsMonthEnd()
	if err != nil {
		return nil, err
	}
	last, err := c.monthIn(3, 6, 9, 12)
	if err != nil {
		return nil, err
	}
	return fillFalse(column.Binary(end, last, column.OpAnd, column.Boolean))
}

// IsYearStart reports day-of-year == 1.
func (c *DatetimeColumn) IsYearStart() (*column.Column, error) {
	doy, err := c.DayOfYear()
	if err != nil {
		return nil, err
	}
	return fillFalse(eqScalar(doy, 1))
}

// IsYearEnd picks day 366 for leap years and day 365 otherwise.
func (c *DatetimeColumn) IsYearEnd() (*column.Column, error) {
	doy, err := c.DayOfYear()
	if err != nil {
		return nil, err
	}
	leapDates, err := c.IsLeapYear()
	if err != nil {
		return nil, err
	}
	leap, err := eqScalar(doy, 366)
	if err != nil {
		return nil, err
	}
	nonLeap, err := eqScalar(doy, 365)
	if err != nil {
		return nil, err
	}
	return fillFalse(column.CopyIfElse(leap, nonLeap, leapDates))
}

var (
	dayNames   = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	monthNames = []string{"", "January", "February", "March", "April", "May", "June", "July",
		"August", "September", "October", "November", "December"}
)

// DayNames returns the English weekday name of each row. Locales other than
// the default are not implemented.
func (c *DatetimeColumn) DayNames(locale string) (*column.Column, error) {
	return c.fieldNames(c.Weekday, dayNames, locale)
}

// MonthNames returns the English month name of each row.
func (c *DatetimeColumn) MonthNames(locale string) (*column.Column, error) {
	return c.fieldNames(c.Month, monthNames, locale)
}

func (c *DatetimeColumn) fieldNames(field func() (*column.Column, error), labels []string, locale string) (*column.Column, error) {
	if locale != "" {
		return nil, errors.Wrapf(ErrNotImplemented, "setting a locale (%q)", locale)
	}
	names, err := column.FromStrings(labels, nil)
	if err != nil {
		return nil, err
	}
	indices, err := field()
	if err != nil {
		return nil, err
	}
	if indices.HasNulls() {
		if indices, err = column.FillNull(indices, column.IntScalar(indices.DataType(), int64(len(labels)))); err != nil {
			return nil, err
		}
	}
	return column.Take(names, indices, true)
}

// Isocalendar returns the ISO year, week and weekday of each row as UInt32
// columns keyed "year", "week" and "day".
func (c *DatetimeColumn) Isocalendar() (map[string]*column.Column, error) {
	out := make(map[string]*column.Column, 3)
	for _, f := range []struct{ name, directive string }{
		{"year", "%G"}, {"week", "%V"}, {"day", "%u"},
	} {
		s, err := c.Strftime(f.directive)
		if err != nil {
			return nil, err
		}
		if out[f.name], err = column.Cast(s, column.UInt32); err != nil {
			return nil, err
		}
	}
	return out, nil
}
