package frame

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// ToRecord exports a materialized frame as an arrow record. Aware datetime
// columns carry their zone in the timestamp type. The caller releases the
// record.
func (df *DataFrame) ToRecord(mem memory.Allocator) (arrow.Record, error) {
	if df.Pending() {
		return nil, errors.New("frame must be collected before export")
	}
	fields := make([]arrow.Field, len(df.series))
	cols := make([]arrow.Array, len(df.series))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i, s := range df.series {
		arr, err := column.ToArrow(s.Data, mem, s.Timezone)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", s.Name)
		}
		cols[i] = arr
		fields[i] = arrow.Field{Name: s.Name, Type: arr.DataType(), Nullable: true}
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), cols, int64(df.height)), nil
}

// FromRecord copies an arrow record into a materialized frame.
func FromRecord(rec arrow.Record) (*DataFrame, error) {
	series := make([]*Series, rec.NumCols())
	for i, arr := range rec.Columns() {
		data, tz, err := column.FromArrow(arr)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", rec.ColumnName(i))
		}
		series[i] = &Series{Name: rec.ColumnName(i), Data: data, Timezone: tz}
	}
	df, err := New(series...)
	if err != nil {
		return nil, err
	}
	df.height = int(rec.NumRows())
	return df, nil
}
