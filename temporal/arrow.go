package temporal

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// ToArrow exports the column as an arrow timestamp array. Aware columns
// carry their zone in the arrow type.
func (c *DatetimeColumn) ToArrow(mem memory.Allocator) (arrow.Array, error) {
	return column.ToArrow(c.data, mem, c.tz)
}

// ToArrow exports the column as an arrow duration array.
func (c *TimedeltaColumn) ToArrow(mem memory.Allocator) (arrow.Array, error) {
	return column.ToArrow(c.data, mem, "")
}

// FromArrow imports an arrow timestamp or duration array.
func FromArrow(arr arrow.Array) (Temporal, error) {
	data, tz, err := column.FromArrow(arr)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidInput, "%v", err)
	}
	return FromColumn(data, tz)
}
