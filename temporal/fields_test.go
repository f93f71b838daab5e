package temporal

import (
	"testing"

	"github.com/miretskiy/firn/column"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	// 2024-02-29T13:45:30.123456789, missing, 2023-12-31T00:00:00
	c := dts(t, Nanosecond, []int64{1709214330123456789, 0, 1703980800000000000}, []bool{true, false, true})

	for _, tc := range []struct {
		field Field
		want  string
	}{
		{FieldYear, "[2024, null, 2023]"},
		{FieldMonth, "[2, null, 12]"},
		{FieldDay, "[29, null, 31]"},
		{FieldHour, "[13, null, 0]"},
		{FieldMinute, "[45, null, 0]"},
		{FieldSecond, "[30, null, 0]"},
		{FieldMillisecond, "[123, null, 0]"},
		{FieldMicrosecond, "[456, null, 0]"},
		{FieldNanosecond, "[789, null, 0]"},
		{FieldDayOfYear, "[60, null, 365]"},
		{FieldQuarter, "[1, null, 4]"},
		{FieldDaysInMonth, "[29, null, 31]"},
	} {
		t.Run(tc.field.String(), func(t *testing.T) {
			got, err := c.Field(tc.field)
			require.NoError(t, err)
			require.Equal(t, "Column<int16>"+tc.want, got.GoString())
		})
	}

	t.Run("weekday", func(t *testing.T) {
		wd, err := c.Weekday()
		require.NoError(t, err)
		require.Equal(t, "Column<int16>[3, null, 6]", wd.GoString())
	})

	t.Run("calendar predicates", func(t *testing.T) {
		for name, tc := range map[string]struct {
			fn   func() (*column.Column, error)
			want string
		}{
			"leap":          {c.IsLeapYear, "[true, null, false]"},
			"month start":   {c.IsMonthStart, "[false, false, false]"},
			"month end":     {c.IsMonthEnd, "[true, false, true]"},
			"quarter start": {c.IsQuarterStart, "[false, false, false]"},
			"quarter end":   {c.IsQuarterEnd, "[false, false, true]"},
			"year start":    {c.IsYearStart, "[false, false, false]"},
			"year end":      {c.IsYearEnd, "[false, false, true]"},
		} {
			got, err := tc.fn()
			require.NoError(t, err, name)
			require.Equal(t, "Column<bool>"+tc.want, got.GoString(), name)
		}
	})

	t.Run("last day of month", func(t *testing.T) {
		last, err := c.LastDayOfMonth()
		require.NoError(t, err)
		require.Equal(t, "Column<datetime64[ns]>[1709164800000000000, null, 1703980800000000000]", last.Column().GoString())
	})

	t.Run("february end", func(t *testing.T) {
		// 2023-02-28 closes February; 2024-02-28 does not.
		feb := dts(t, Second, []int64{1677542400, 1709078400}, nil)
		end, err := feb.IsMonthEnd()
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, false]", end.GoString())
	})

	t.Run("last day past the nanosecond range", func(t *testing.T) {
		// 2262-04-05 is representable, 2262-04-30 is not.
		late := dts(t, Nanosecond, []int64{9222768000 * 1_000_000_000}, nil)
		last, err := late.LastDayOfMonth()
		require.NoError(t, err)
		require.Equal(t, "Column<datetime64[ns]>[null]", last.Column().GoString())
	})

	t.Run("names", func(t *testing.T) {
		days, err := c.DayNames("")
		require.NoError(t, err)
		require.Equal(t, "Column<str>[Thursday, null, Sunday]", days.GoString())

		months, err := c.MonthNames("")
		require.NoError(t, err)
		require.Equal(t, "Column<str>[February, null, December]", months.GoString())

		_, err = c.DayNames("fr_FR")
		require.ErrorIs(t, err, ErrNotImplemented)
	})

	t.Run("isocalendar", func(t *testing.T) {
		iso, err := c.Isocalendar()
		require.NoError(t, err)
		require.Equal(t, "Column<uint32>[2024, null, 2023]", iso["year"].GoString())
		require.Equal(t, "Column<uint32>[9, null, 52]", iso["week"].GoString())
		require.Equal(t, "Column<uint32>[4, null, 7]", iso["day"].GoString())
	})

	t.Run("aware columns use local time", func(t *testing.T) {
		// 2024-03-10 06:30 and 07:30 UTC straddle the New York spring-forward.
		utc := dts(t, Second, []int64{1710052200, 1710055800}, nil)
		ny, err := utc.WithTimezone("America/New_York")
		require.NoError(t, err)
		hours, err := ny.Hour()
		require.NoError(t, err)
		require.Equal(t, "Column<int16>[1, 3]", hours.GoString())

		hours, err = utc.Hour()
		require.NoError(t, err)
		require.Equal(t, "Column<int16>[6, 7]", hours.GoString())
	})

	t.Run("pre-epoch", func(t *testing.T) {
		// one millisecond before 1970-01-01
		old := dts(t, Millisecond, []int64{-1}, nil)
		ms, err := old.Millisecond()
		require.NoError(t, err)
		require.Equal(t, "Column<int16>[999]", ms.GoString())
		y, err := old.Year()
		require.NoError(t, err)
		require.Equal(t, "Column<int16>[1969]", y.GoString())
	})

	t.Run("parse field", func(t *testing.T) {
		f, err := ParseField("day_of_year")
		require.NoError(t, err)
		require.Equal(t, FieldDayOfYear, f)
		_, err = ParseField("fortnight")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
