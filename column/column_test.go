package column

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ints(t *testing.T, dtype DataType, values []int64, valid []bool) *Column {
	t.Helper()
	c, err := FromInt64s(dtype, values, valid)
	require.NoError(t, err)
	return c
}

func bools(t *testing.T, values ...bool) *Column {
	t.Helper()
	c, err := FromBools(values, nil)
	require.NoError(t, err)
	return c
}

func TestDataType(t *testing.T) {
	testCases := []struct {
		name     string
		dataType DataType
		expected uint32
		str      string
	}{
		{"Int64", Int64, 0x0000_0004, "int64"},
		{"Float64", Float64, 0x0001_0002, "float64"},
		{"String", String, 0x0002_0001, "str"},
		{"DatetimeMillis", DatetimeMillis, 0x0003_0002, "datetime64[ms]"},
		{"Boolean", Boolean, 0x0004_0001, "bool"},
		{"DurationNanos", DurationNanos, 0x0005_0004, "timedelta64[ns]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, uint32(tc.dataType))
			require.Equal(t, tc.str, tc.dataType.String())
		})
	}

	require.True(t, DatetimeSeconds.IsTemporal())
	require.True(t, DurationMicros.IsTemporal())
	require.False(t, Int64.IsTemporal())
	require.False(t, Invalid.IsInteger())
	require.Equal(t, 8, DatetimeNanos.ItemSize())
}

func TestConstruction(t *testing.T) {
	t.Run("ValidityLengthMismatch", func(t *testing.T) {
		_, err := FromInt64s(Int64, []int64{1, 2}, []bool{true})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("WrongStorage", func(t *testing.T) {
		_, err := FromInt64s(Float64, []int64{1}, nil)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("AllValidMaskDropped", func(t *testing.T) {
		c := ints(t, Int64, []int64{1, 2}, []bool{true, true})
		require.Nil(t, c.Validity())
		require.False(t, c.HasNulls())
	})

	t.Run("Nulls", func(t *testing.T) {
		c := Nulls(DatetimeSeconds, 3)
		require.Equal(t, 3, c.NullCount())
		require.Equal(t, "Column<datetime64[s]>[null, null, null]", c.GoString())
	})
}

func TestReinterpretSharesStorage(t *testing.T) {
	c := ints(t, DatetimeSeconds, []int64{10, 20}, nil)
	v, err := c.Reinterpret(Int64)
	require.NoError(t, err)
	require.Equal(t, Int64, v.DataType())
	require.Same(t, &c.Int64Values()[0], &v.Int64Values()[0])

	_, err = c.Reinterpret(Float64)
	require.ErrorIs(t, err, ErrTypeMismatch)

	cp := c.Copy()
	require.NotSame(t, &c.Int64Values()[0], &cp.Int64Values()[0])
	require.True(t, Equal(c, cp))
}

func TestSlice(t *testing.T) {
	c := ints(t, Int64, []int64{1, 2, 3, 4}, []bool{true, false, true, true})
	s, err := c.Slice(2, 2)
	require.NoError(t, err)
	require.Equal(t, []any{int64(3), int64(4)}, []any{s.Value(0), s.Value(1)})
	require.False(t, s.HasNulls())
	require.Same(t, &c.Int64Values()[2], &s.Int64Values()[0])

	_, err = c.Slice(3, 2)
	require.ErrorIs(t, err, ErrOutOfBounds)

	t.Run("UnalignedBitmaps", func(t *testing.T) {
		vals := make([]bool, 11)
		valid := make([]bool, 11)
		for i := range vals {
			vals[i] = i%3 == 0
			valid[i] = i != 9
		}
		b, err := FromBools(vals, valid)
		require.NoError(t, err)
		view, err := b.Slice(7, 4)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[false, false, null, false]", view.GoString())
		require.Equal(t, 1, view.NullCount())

		inv, err := Not(view)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, true, null, true]", inv.GoString())
		require.True(t, Equal(view, view.Copy()))
		require.Equal(t, []bool{true, true, false, true}, view.Validity())
	})
}
