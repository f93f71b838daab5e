package temporal

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

func TestArrow(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	t.Run("aware datetimes keep their zone", func(t *testing.T) {
		naive, err := Datetimes(Millisecond, []int64{1704067200000, 0, 1704153600500}, []bool{true, false, true})
		require.NoError(t, err)
		berlin, err := naive.TzLocalize("Europe/Berlin", PolicyNaT, PolicyNaT)
		require.NoError(t, err)

		arr, err := berlin.ToArrow(mem)
		require.NoError(t, err)
		defer arr.Release()
		ts, ok := arr.DataType().(*arrow.TimestampType)
		require.True(t, ok)
		require.Equal(t, "Europe/Berlin", ts.TimeZone)
		require.Equal(t, arrow.Millisecond, ts.Unit)
		require.Equal(t, 1, arr.NullN())

		back, err := FromArrow(arr)
		require.NoError(t, err)
		dt, ok := back.(*DatetimeColumn)
		require.True(t, ok)
		require.Equal(t, "Europe/Berlin", dt.Timezone())
		require.Equal(t, berlin.Column().GoString(), dt.Column().GoString())
	})

	t.Run("retagged view", func(t *testing.T) {
		c, err := dts(t, Microsecond, []int64{1, 0}, []bool{true, false}).WithTimezone("Asia/Kolkata")
		require.NoError(t, err)
		arr, err := c.ToArrow(mem)
		require.NoError(t, err)
		defer arr.Release()
		require.Equal(t, arrow.Microsecond, arr.DataType().(*arrow.TimestampType).Unit)

		back, err := FromArrow(arr)
		require.NoError(t, err)
		require.Equal(t, c.String(), back.(*DatetimeColumn).String())
	})

	t.Run("durations", func(t *testing.T) {
		td, err := Timedeltas(Second, []int64{60, -5}, nil)
		require.NoError(t, err)
		arr, err := td.ToArrow(mem)
		require.NoError(t, err)
		defer arr.Release()
		require.Equal(t, arrow.Second, arr.DataType().(*arrow.DurationType).Unit)

		back, err := FromArrow(arr)
		require.NoError(t, err)
		require.IsType(t, &TimedeltaColumn{}, back)
		require.Equal(t, td.String(), back.(*TimedeltaColumn).String())
	})
}
