package frame

import (
	"cmp"
	"slices"

	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

// SortField represents a column to sort by with direction and nulls ordering
type SortField struct {
	Column        string
	Direction     SortDirection
	NullsOrdering NullsOrdering
}

// SortDirection represents the sort order for a column
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// NullsOrdering represents how null values should be ordered
type NullsOrdering int

const (
	NullsLast NullsOrdering = iota
	NullsFirst
)

// Asc creates a SortField for ascending order with nulls last (default)
func Asc(column string) SortField {
	return SortField{Column: column, Direction: Ascending, NullsOrdering: NullsLast}
}

// Desc creates a SortField for descending order with nulls last (default)
func Desc(column string) SortField {
	return SortField{Column: column, Direction: Descending, NullsOrdering: NullsLast}
}

// AscNullsFirst creates a SortField for ascending order with nulls first
func AscNullsFirst(column string) SortField {
	return SortField{Column: column, Direction: Ascending, NullsOrdering: NullsFirst}
}

// DescNullsFirst creates a SortField for descending order with nulls first
func DescNullsFirst(column string) SortField {
	return SortField{Column: column, Direction: Descending, NullsOrdering: NullsFirst}
}

// String returns a string representation of the sort direction
func (d SortDirection) String() string {
	switch d {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	default:
		return "UNKNOWN"
	}
}

// String returns a string representation of the sort field
func (sf SortField) String() string {
	return sf.Column + " " + sf.Direction.String()
}

// Sort sorts the DataFrame by the specified columns in ascending order.
func (df *DataFrame) Sort(columns ...string) *DataFrame {
	if len(columns) == 0 {
		return df.appendErrOp("Sort() requires at least one column")
	}
	fields := make([]SortField, len(columns))
	for i, col := range columns {
		fields[i] = Asc(col)
	}
	return df.SortBy(fields...)
}

// SortBy sorts the DataFrame by the specified sort fields. The sort is
// stable. Instants compare by their UTC ticks.
func (df *DataFrame) SortBy(fields ...SortField) *DataFrame {
	if len(fields) == 0 {
		return df.appendErrOp("SortBy() requires at least one sort field")
	}
	return df.with(Operation{opcode: OpSort, args: fields})
}

func compareRows(c *column.Column, i, j int) int {
	t := c.DataType()
	switch {
	case t.IsFloat():
		return cmp.Compare(c.Float64(i), c.Float64(j))
	case t.IsString():
		return cmp.Compare(c.Str(i), c.Str(j))
	case t.IsBoolean():
		switch a, b := c.Bool(i), c.Bool(j); {
		case a == b:
			return 0
		case b:
			return -1
		}
		return 1
	}
	return cmp.Compare(c.Int64(i), c.Int64(j))
}

// sortIndices returns the row permutation that orders df by fields.
func sortIndices(df *DataFrame, fields []SortField) ([]int64, error) {
	keys := make([]*column.Column, len(fields))
	for k, f := range fields {
		s, err := df.Column(f.Column)
		if err != nil {
			return nil, &Error{Code: CodeColumnNotFound, Message: err.Error(), cause: err}
		}
		keys[k] = s.Data
	}
	idx := make([]int64, df.height)
	for i := range idx {
		idx[i] = int64(i)
	}
	slices.SortStableFunc(idx, func(a, b int64) int {
		for k, f := range fields {
			c := keys[k]
			av, bv := c.IsValid(int(a)), c.IsValid(int(b))
			switch {
			case !av && !bv:
				continue
			case !av || !bv:
				// Nulls are placed independently of the direction.
				if (f.NullsOrdering == NullsFirst) == !av {
					return -1
				}
				return 1
			}
			r := compareRows(c, int(a), int(b))
			if f.Direction == Descending {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return 0
	})
	return idx, nil
}

func sortFrame(df *DataFrame, fields []SortField) (*DataFrame, error) {
	idx, err := sortIndices(df, fields)
	if err != nil {
		return nil, err
	}
	return take(df, idx, false)
}

// take gathers every column at idx. With nullify set, negative indices
// produce null rows.
func take(df *DataFrame, idx []int64, nullify bool) (*DataFrame, error) {
	indices, err := column.FromInt64s(column.Int64, idx, nil)
	if err != nil {
		return nil, err
	}
	out := &DataFrame{series: make([]*Series, len(df.series)), height: len(idx)}
	for i, s := range df.series {
		data, err := column.Take(s.Data, indices, nullify)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", s.Name)
		}
		out.series[i] = s.with(data)
	}
	return out, nil
}
