package plan

import (
	"github.com/miretskiy/firn/frame"
	"github.com/pkg/errors"
)

func exprArgs(exprs []Expr) []any {
	args := make([]any, len(exprs))
	for i, e := range exprs {
		args[i] = e()
	}
	return args
}

func stringArgs(names []string) []any {
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = name
	}
	return args
}

func (n *DataFrameScan) evaluate([]*frame.DataFrame) (*frame.DataFrame, error) {
	return n.scan(0, n.Frame.Height())
}

// scan reads length rows starting at offset.
func (n *DataFrameScan) scan(offset, length int) (*frame.DataFrame, error) {
	df := n.Frame
	if offset > 0 || length < df.Height() {
		df = df.Slice(offset, length)
	}
	if len(n.Columns) > 0 {
		df = df.Select(stringArgs(n.Columns)...)
	}
	return df.Collect()
}

func (n *Projection) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0].Select(stringArgs(n.Columns)...).Collect()
}

func (n *Filter) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0].Filter(n.Predicate()).Collect()
}

func (n *HStack) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0].WithColumns(exprArgs(n.Columns)...).Collect()
}

func (n *Cache) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0], nil
}

func (n *Select) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0].Select(exprArgs(n.Exprs)...).Collect()
}

func (n *Union) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	df := frame.Concat(in...)
	if n.Slice != nil {
		df = df.Slice(n.Slice.Offset, n.Slice.Length)
	}
	return df.Collect()
}

func (n *Sort) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0].SortBy(n.By...).Collect()
}

func (n *Join) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0].Join(in[1], n.Spec).Collect()
}

func (n *Repartition) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return Concat(in)
}

func (n *Slice) evaluate(in []*frame.DataFrame) (*frame.DataFrame, error) {
	return in[0].Slice(n.Offset, n.Length).Collect()
}

// Concat stacks partitions into one frame.
func Concat(parts []*frame.DataFrame) (*frame.DataFrame, error) {
	if len(parts) == 0 {
		return nil, errors.New("concat of zero partitions")
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return frame.Concat(parts...).Collect()
}
