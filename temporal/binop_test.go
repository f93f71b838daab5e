package temporal

import (
	"testing"
	"time"

	"github.com/miretskiy/firn/column"
	"github.com/stretchr/testify/require"
)

func dts(t *testing.T, u Unit, ticks []int64, valid []bool) *DatetimeColumn {
	t.Helper()
	c, err := Datetimes(u, ticks, valid)
	require.NoError(t, err)
	return c
}

func tds(t *testing.T, u Unit, ticks []int64, valid []bool) *TimedeltaColumn {
	t.Helper()
	c, err := Timedeltas(u, ticks, valid)
	require.NoError(t, err)
	return c
}

func pandasMode(t *testing.T) {
	t.Helper()
	prev := SetOptions(Options{PandasCompatible: true})
	t.Cleanup(func() { SetOptions(prev) })
}

func TestUnits(t *testing.T) {
	require.Equal(t, Millisecond, ResolveBinopResolution(Second, Millisecond))
	require.Equal(t, Millisecond, ResolveBinopResolution(Millisecond, Second))
	require.Equal(t, Nanosecond, ResolveBinopResolution(Nanosecond, Nanosecond))

	u, err := ParseUnit("us")
	require.NoError(t, err)
	require.Equal(t, Microsecond, u)
	_, err = ParseUnit("D")
	require.ErrorIs(t, err, ErrInvalidInput)

	u, err = UnitOf(column.DurationMillis)
	require.NoError(t, err)
	require.Equal(t, Millisecond, u)
	_, err = UnitOf(column.Int64)
	require.ErrorIs(t, err, ErrTypeIncompatible)

	require.Equal(t, column.DatetimeNanos, DatetimeType(Nanosecond))
	require.Equal(t, column.DurationSeconds, DurationType(Second))
}

func TestDatetimeBinaryOp(t *testing.T) {
	// 2024-01-01T00:00:00 and a missing row.
	a := dts(t, Second, []int64{1704067200, 0}, []bool{true, false})

	t.Run("instant minus coarser literal", func(t *testing.T) {
		res, err := a.Sub(Datetime64{Value: 1672531200000, Unit: "ms"})
		require.NoError(t, err)
		td, ok := res.(*TimedeltaColumn)
		require.True(t, ok)
		require.Equal(t, Millisecond, td.Unit())
		require.Equal(t, "Column<timedelta64[ms]>[31536000000, null]", td.Column().GoString())
	})

	t.Run("difference round trip", func(t *testing.T) {
		i1 := dts(t, Millisecond, []int64{1704067200123, -5, 0}, []bool{true, true, false})
		i2 := dts(t, Second, []int64{1700000000, 3, 7}, nil)
		diff, err := i1.Sub(i2)
		require.NoError(t, err)
		back, err := i2.Add(diff)
		require.NoError(t, err)
		require.Equal(t, Millisecond, back.Unit())
		require.Equal(t, i1.Column().GoString(), back.Column().GoString())
	})

	t.Run("instant plus duration", func(t *testing.T) {
		d := dts(t, Second, []int64{0, 10}, nil)
		res, err := d.Add(tds(t, Millisecond, []int64{1500, 0}, []bool{true, false}))
		require.NoError(t, err)
		require.Equal(t, "Column<datetime64[ms]>[1500, null]", res.Column().GoString())
	})

	t.Run("duration plus instant commutes", func(t *testing.T) {
		d := dts(t, Second, []int64{1, 2}, nil)
		td := tds(t, Millisecond, []int64{5, 6}, nil)
		lhs, err := td.BinaryOp(d, column.OpAdd)
		require.NoError(t, err)
		rhs, err := d.BinaryOp(td, column.OpAdd)
		require.NoError(t, err)
		require.True(t, column.Equal(lhs, rhs))
		require.Equal(t, "Column<datetime64[ms]>[1005, 2006]", lhs.GoString())
	})

	t.Run("duration minus instant is rejected", func(t *testing.T) {
		td := tds(t, Second, []int64{1, 2}, nil)
		_, err := td.BinaryOp(a, column.OpSub)
		require.ErrorIs(t, err, ErrTypeIncompatible)
		_, err = a.BinaryOp(td, column.OpRSub)
		require.ErrorIs(t, err, ErrTypeIncompatible)
	})

	t.Run("instant minus duration", func(t *testing.T) {
		res, err := a.Sub(time.Duration(1500) * time.Millisecond)
		require.NoError(t, err)
		dt, ok := res.(*DatetimeColumn)
		require.True(t, ok)
		require.Equal(t, "Column<datetime64[ns]>[1704067198500000000, null]", dt.Column().GoString())
	})

	t.Run("comparison", func(t *testing.T) {
		b := dts(t, Millisecond, []int64{1704067200000, 5}, nil)
		res, err := a.BinaryOp(b, column.OpGe)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, null]", res.GoString())

		res, err = a.BinaryOp("2023-06-01", column.OpGt)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, null]", res.GoString())
	})

	t.Run("equality against another kind", func(t *testing.T) {
		nums, err := column.FromInt64s(column.Int64, []int64{1704067200, 3}, nil)
		require.NoError(t, err)
		res, err := a.BinaryOp(nums, column.OpEq)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[false, null]", res.GoString())

		res, err = a.BinaryOp(nums, column.OpNe)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, null]", res.GoString())

		_, err = a.BinaryOp(int64(3), column.OpEq)
		require.ErrorIs(t, err, ErrUnsupportedOperand)
	})

	t.Run("pandas mode fills nulls", func(t *testing.T) {
		pandasMode(t)
		b := dts(t, Second, []int64{1704067200, 1}, nil)
		res, err := a.BinaryOp(b, column.OpEq)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, false]", res.GoString())
		res, err = a.BinaryOp(b, column.OpNe)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[false, true]", res.GoString())
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := a.BinaryOp(int64(2), column.OpMul)
		require.ErrorIs(t, err, ErrUnsupportedOperand)
		_, err = a.BinaryOp(a, column.OpRTrueDiv)
		require.ErrorIs(t, err, ErrUnsupportedOperand)
		_, err = a.BinaryOp(struct{}{}, column.OpAdd)
		require.ErrorIs(t, err, ErrUnsupportedOperand)
	})

	t.Run("aware literals", func(t *testing.T) {
		loc, err := time.LoadLocation("Europe/Paris")
		require.NoError(t, err)
		_, err = a.BinaryOp(time.Date(2024, 1, 1, 0, 0, 0, 0, loc), column.OpLt)
		require.ErrorIs(t, err, ErrNotSupported)
		_, err = a.BinaryOp("2024-01-01T00:00:00+01:00", column.OpLt)
		require.ErrorIs(t, err, ErrNotSupported)

		res, err := a.BinaryOp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), column.OpEq)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, null]", res.GoString())
	})

	t.Run("zones must agree", func(t *testing.T) {
		ny, err := a.WithTimezone("America/New_York")
		require.NoError(t, err)
		paris, err := a.WithTimezone("Europe/Paris")
		require.NoError(t, err)
		_, err = ny.BinaryOp(paris, column.OpSub)
		require.ErrorIs(t, err, ErrTypeIncompatible)

		res, err := ny.Add(Timedelta64{Value: 1, Unit: "h"})
		require.NoError(t, err)
		require.Equal(t, "America/New_York", res.Timezone())
		require.Equal(t, "Column<datetime64[ns]>[1704070800000000000, null]", res.Column().GoString())
	})

	t.Run("missing literals", func(t *testing.T) {
		res, err := a.Sub(Datetime64{Unit: "D", NaT: true})
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[s]>[null, null]", res.Column().GoString())

		res, err = a.Sub(nil)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[s]>[null, null]", res.Column().GoString())

		_, err = a.Sub(Datetime64{Value: 1, Unit: "fortnight"})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("overflow", func(t *testing.T) {
		big := dts(t, Second, []int64{1 << 40}, nil)
		_, err := big.Add(Timedelta64{Value: 1, Unit: "ns"})
		require.ErrorIs(t, err, ErrOverflow)
	})
}

func TestTimedeltaBinaryOp(t *testing.T) {
	t.Run("duration with duration", func(t *testing.T) {
		s := tds(t, Second, []int64{3, 7, 0}, []bool{true, true, false})
		ms := tds(t, Millisecond, []int64{1500, 2000, 1}, nil)

		ratio, err := s.BinaryOp(ms, column.OpTrueDiv)
		require.NoError(t, err)
		require.Equal(t, "Column<float64>[2, 3.5, null]", ratio.GoString())

		count, err := s.BinaryOp(ms, column.OpFloorDiv)
		require.NoError(t, err)
		require.Equal(t, "Column<int64>[2, 3, null]", count.GoString())

		rem, err := s.BinaryOp(ms, column.OpMod)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[ms]>[0, 1000, null]", rem.GoString())

		sum, err := s.BinaryOp(ms, column.OpAdd)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[ms]>[4500, 9000, null]", sum.GoString())

		lt, err := s.BinaryOp(ms, column.OpLt)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[false, false, null]", lt.GoString())
	})

	t.Run("duration with numbers", func(t *testing.T) {
		ns := tds(t, Nanosecond, []int64{7, -7}, nil)

		res, err := ns.BinaryOp(int64(2), column.OpFloorDiv)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[ns]>[3, -4]", res.GoString())

		res, err = ns.BinaryOp(3, column.OpRMul)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[ns]>[21, -21]", res.GoString())

		res, err = ns.BinaryOp(int64(3), column.OpMod)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[ns]>[1, 2]", res.GoString())

		res, err = ns.BinaryOp(2.0, column.OpTrueDiv)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[ns]>[3, -3]", res.GoString())

		_, err = ns.BinaryOp(int64(2), column.OpRTrueDiv)
		require.ErrorIs(t, err, ErrUnsupportedOperand)
		_, err = ns.BinaryOp(int64(2), column.OpAdd)
		require.ErrorIs(t, err, ErrUnsupportedOperand)
		_, err = ns.BinaryOp("1 day", column.OpAdd)
		require.ErrorIs(t, err, ErrUnsupportedOperand)
	})

	t.Run("duration literals", func(t *testing.T) {
		ms := tds(t, Millisecond, []int64{1000}, nil)
		res, err := ms.BinaryOp(time.Second, column.OpEq)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true]", res.GoString())

		res, err = ms.BinaryOp(Timedelta64{Value: 1, Unit: "m"}, column.OpAdd)
		require.NoError(t, err)
		require.Equal(t, "Column<timedelta64[ns]>[61000000000]", res.GoString())
	})
}
