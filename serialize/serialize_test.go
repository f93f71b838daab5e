package serialize

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/temporal"
	"github.com/stretchr/testify/require"
)

func partition(t *testing.T) *frame.DataFrame {
	t.Helper()
	id, err := column.FromInt64s(column.Int64, []int64{1, 2, 3}, nil)
	require.NoError(t, err)
	ts, err := temporal.Datetimes(temporal.Millisecond, []int64{1704067200000, 0, 1704153600123}, []bool{true, false, true})
	require.NoError(t, err)
	local, err := ts.TzLocalize("Europe/Berlin", temporal.PolicyNaT, temporal.PolicyNaT)
	require.NoError(t, err)
	took, err := temporal.Timedeltas(temporal.Nanosecond, []int64{1, -1, 0}, nil)
	require.NoError(t, err)
	name, err := column.FromStrings([]string{"a", "", "c"}, []bool{true, false, true})
	require.NoError(t, err)
	df, err := frame.New(
		&frame.Series{Name: "id", Data: id},
		frame.FromTemporal("ts", local),
		frame.FromTemporal("took", took),
		&frame.Series{Name: "name", Data: name},
	)
	require.NoError(t, err)
	return df
}

func TestArrowStreamRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)
	codec := NewArrowStream(mem)

	df := partition(t)
	b, err := codec.Encode(df)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	back, err := codec.Decode(b)
	require.NoError(t, err)
	require.Equal(t, df.String(), back.String())

	ts, err := back.Column("ts")
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", ts.Timezone)
	require.Equal(t, "Column<datetime64[ms]>[1704063600000, null, 1704150000123]", ts.Data.GoString())
}

func TestArrowStreamErrors(t *testing.T) {
	codec := NewArrowStream(nil)

	_, err := codec.Encode(partition(t).Select("id"))
	require.ErrorContains(t, err, "collected")

	_, err = codec.Decode([]byte("not arrow"))
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup(ArrowStreamType)
	require.ErrorIs(t, err, ErrNotRegistered)

	r.Register(NewArrowStream(nil))
	c, err := r.Lookup(ArrowStreamType)
	require.NoError(t, err)
	require.Equal(t, ArrowStreamType, c.Name())
	require.Equal(t, []string{ArrowStreamType}, r.Names())
}
