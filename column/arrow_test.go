package column

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

func TestArrowInterop(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	t.Run("TimestampRoundTrip", func(t *testing.T) {
		c := ints(t, DatetimeMillis, []int64{1000, 0, -5}, []bool{true, false, true})
		arr, err := ToArrow(c, mem, "Europe/Paris")
		require.NoError(t, err)
		defer arr.Release()

		ts, ok := arr.DataType().(*arrow.TimestampType)
		require.True(t, ok)
		require.Equal(t, arrow.Millisecond, ts.Unit)
		require.Equal(t, "Europe/Paris", ts.TimeZone)
		require.Equal(t, 1, arr.NullN())
		require.Equal(t, arrow.Timestamp(-5), arr.(*array.Timestamp).Value(2))

		back, tz, err := FromArrow(arr)
		require.NoError(t, err)
		require.Equal(t, "Europe/Paris", tz)
		require.True(t, Equal(c, back))
	})

	t.Run("DurationAndStrings", func(t *testing.T) {
		for _, c := range []*Column{
			ints(t, DurationMicros, []int64{1, 2}, nil),
			must(FromStrings([]string{"a", "b"}, []bool{true, false})),
			must(FromFloat64s([]float64{1.5, 2.5}, nil)),
			must(FromBools([]bool{true, false}, nil)),
		} {
			arr, err := ToArrow(c, mem, "")
			require.NoError(t, err)
			back, _, err := FromArrow(arr)
			arr.Release()
			require.NoError(t, err)
			require.True(t, Equal(c, back), c.GoString())
		}
	})

	t.Run("SliceSharesBuffers", func(t *testing.T) {
		c := ints(t, Int64, []int64{1, 2, 3, 4}, []bool{true, false, true, true})
		s, err := c.Slice(1, 3)
		require.NoError(t, err)
		arr, err := ToArrow(s, mem, "")
		require.NoError(t, err)
		defer arr.Release()
		require.Equal(t, 1, arr.NullN())
		require.True(t, arr.IsNull(0))
		vals := arr.(*array.Int64).Int64Values()
		require.Equal(t, []int64{2, 3, 4}, vals)
		require.Same(t, &c.Int64Values()[1], &vals[0])

		flags := must(FromBools([]bool{true, false, false, true, true}, []bool{true, true, false, true, true}))
		tail, err := flags.Slice(2, 3)
		require.NoError(t, err)
		barr, err := ToArrow(tail, mem, "")
		require.NoError(t, err)
		defer barr.Release()
		require.Equal(t, "[(null) true true]", barr.String())
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		_, _, err := FromArrowType(arrow.FixedWidthTypes.Date32)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})
}

func must(c *Column, err error) *Column {
	if err != nil {
		panic(err)
	}
	return c
}

func TestFromBuffer(t *testing.T) {
	values := []int64{100, 200, 300, 400}
	data := memory.NewBufferBytes(arrow.Int64Traits.CastToBytes(values))

	t.Run("WithValidityAndOffset", func(t *testing.T) {
		bitmap := make([]byte, 1)
		bitutil.SetBit(bitmap, 1)
		bitutil.SetBit(bitmap, 3)
		c, err := FromBuffer(DatetimeNanos, data, memory.NewBufferBytes(bitmap), 3, 1)
		require.NoError(t, err)
		require.Equal(t, "Column<datetime64[ns]>[200, null, 400]", c.GoString())
	})

	t.Run("MisalignedBuffer", func(t *testing.T) {
		_, err := FromBuffer(Int64, memory.NewBufferBytes(make([]byte, 12)), nil, 1, 0)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("TooShort", func(t *testing.T) {
		_, err := FromBuffer(Int64, data, nil, 4, 1)
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("NarrowType", func(t *testing.T) {
		_, err := FromBuffer(Int32, data, nil, 1, 0)
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}
