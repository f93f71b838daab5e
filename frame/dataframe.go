package frame

import (
	"fmt"

	"github.com/pkg/errors"
)

// Operation represents a single DataFrame operation with opcode and args
type Operation struct {
	opcode uint32
	args   any
	err    error // Error associated with this operation (if any)
}

// errOp creates an Operation that represents an error
func errOp(message string) Operation {
	return Operation{opcode: OpError, err: errors.New(message)}
}

// errOpf creates an Operation with formatted error message
func errOpf(format string, args ...any) Operation {
	return Operation{opcode: OpError, err: errors.Errorf(format, args...)}
}

// Error codes reported by Collect.
const (
	CodeInvalidOperation = 1
	CodeColumnNotFound   = 2
	CodeShapeMismatch    = 3
	CodeOperation        = 4
)

// Error represents a failed operation. Frame is the index of the failing
// operation in the frame's operation stream.
type Error struct {
	Code    int
	Message string
	Frame   int
	cause   error
}

func (e *Error) Error() string {
	if e.Frame > 0 {
		return fmt.Sprintf("frame error %d at operation %d: %s", e.Code, e.Frame, e.Message)
	}
	return fmt.Sprintf("frame error %d: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying column or temporal error.
func (e *Error) Unwrap() error { return e.cause }

// DataFrame is an ordered set of equal-length named series plus a list of
// pending operations. Builder methods never modify the receiver: each returns
// a new frame sharing the receiver's series, so a materialized frame may be
// used concurrently as the input of several pipelines.
type DataFrame struct {
	series     []*Series
	height     int
	operations []Operation
}

// New materializes a DataFrame from series of equal length and unique names.
func New(series ...*Series) (*DataFrame, error) {
	df := &DataFrame{series: series}
	seen := make(map[string]struct{}, len(series))
	for i, s := range series {
		if s == nil || s.Data == nil {
			return nil, errors.Errorf("series %d is empty", i)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, errors.Errorf("duplicate column name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if i == 0 {
			df.height = s.Len()
		} else if s.Len() != df.height {
			return nil, errors.Errorf("column %q has %d rows, expected %d", s.Name, s.Len(), df.height)
		}
	}
	return df, nil
}

// Height returns the number of rows of a materialized frame.
func (df *DataFrame) Height() int { return df.height }

// Width returns the number of columns of a materialized frame.
func (df *DataFrame) Width() int { return len(df.series) }

// Names returns the column names in order.
func (df *DataFrame) Names() []string {
	names := make([]string, len(df.series))
	for i, s := range df.series {
		names[i] = s.Name
	}
	return names
}

// Series returns the columns in order.
func (df *DataFrame) Series() []*Series { return df.series }

// Column returns the series called name.
func (df *DataFrame) Column(name string) (*Series, error) {
	for _, s := range df.series {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, errors.Errorf("column %q not found", name)
}

// Pending reports whether the frame has operations that Collect would run.
func (df *DataFrame) Pending() bool { return len(df.operations) > 0 }

func (df *DataFrame) with(ops ...Operation) *DataFrame {
	next := make([]Operation, 0, len(df.operations)+len(ops))
	next = append(next, df.operations...)
	next = append(next, ops...)
	return &DataFrame{series: df.series, height: df.height, operations: next}
}

// appendErrOp appends an error operation, reported by Collect.
func (df *DataFrame) appendErrOp(message string) *DataFrame {
	return df.with(errOp(message))
}

func (df *DataFrame) appendErrOpf(format string, args ...any) *DataFrame {
	return df.with(errOpf(format, args...))
}

// withExprs moves every expression's operations into the stream followed by
// the consuming frame operation.
func (df *DataFrame) withExprs(exprs []*ExprNode, consumer Operation) *DataFrame {
	var ops []Operation
	for _, expr := range exprs {
		if expr.consumed() {
			ops = append(ops, errOp("expression already consumed"))
			continue
		}
		for op := range expr.consumeOps() {
			ops = append(ops, op)
		}
	}
	return df.with(append(ops, consumer)...)
}

// toExprNodes converts column names and expressions into ExprNodes.
func toExprNodes(args ...any) []*ExprNode {
	exprs := make([]*ExprNode, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			exprs[i] = Col(v)
		case *ExprNode:
			exprs[i] = v
		default:
			exprs[i] = &ExprNode{
				ops: single(errOpf("unsupported argument type: %T (expected string or *ExprNode)", arg)),
			}
		}
	}
	return exprs
}

// Select replaces the columns with the given expressions or column names.
// Length-1 results (aggregations, literals) are broadcast to the longest
// result. Example: df.Select("id", Col("ts").DtYear().Alias("year"))
func (df *DataFrame) Select(args ...any) *DataFrame {
	if len(args) == 0 {
		return df.appendErrOp("Select() requires at least one expression")
	}
	return df.withExprs(toExprNodes(args...), Operation{opcode: OpSelect})
}

// WithColumns adds computed columns, replacing existing columns of the same
// name in place.
func (df *DataFrame) WithColumns(args ...any) *DataFrame {
	if len(args) == 0 {
		return df.appendErrOp("WithColumns() requires at least one expression")
	}
	return df.withExprs(toExprNodes(args...), Operation{opcode: OpWithColumns})
}

// Filter keeps rows where the boolean expression is true. Null drops the row.
// Example: df.Filter(Col("ts").Gt(Lit("2024-01-01")))
func (df *DataFrame) Filter(expr *ExprNode) *DataFrame {
	if expr == nil {
		return df.appendErrOp("Filter() requires exactly one expression")
	}
	return df.withExprs([]*ExprNode{expr}, Operation{opcode: OpFilter})
}

// Count returns a frame with a single "count" row holding the height.
func (df *DataFrame) Count() *DataFrame {
	return df.with(Operation{opcode: OpCount})
}

type sliceArgs struct{ offset, length int }

// Slice keeps length rows starting at offset. Both are clamped to the frame.
func (df *DataFrame) Slice(offset, length int) *DataFrame {
	if offset < 0 || length < 0 {
		return df.appendErrOpf("Slice(%d, %d) requires non-negative bounds", offset, length)
	}
	return df.with(Operation{opcode: OpSlice, args: sliceArgs{offset, length}})
}

// Limit limits the DataFrame to the first n rows
func (df *DataFrame) Limit(n int) *DataFrame {
	if n <= 0 {
		return df.appendErrOp("Limit() requires n > 0")
	}
	return df.Slice(0, n)
}

// Concat stacks materialized frames vertically. Column names, types and
// timezones must agree.
func Concat(frames ...*DataFrame) *DataFrame {
	if len(frames) == 0 {
		return (&DataFrame{}).appendErrOp("Concat() requires at least one frame")
	}
	return (&DataFrame{}).with(Operation{opcode: OpConcat, args: frames})
}

// Collect runs the pending operations and returns the materialized result.
// The receiver is left unchanged.
func (df *DataFrame) Collect() (*DataFrame, error) {
	if len(df.operations) == 0 {
		return df, nil
	}
	// Builder errors are reported before any operation runs.
	for i, op := range df.operations {
		if op.err != nil {
			return nil, &Error{Code: CodeInvalidOperation, Message: op.err.Error(), Frame: i, cause: op.err}
		}
	}
	m := &machine{cur: &DataFrame{series: df.series, height: df.height}}
	for i, op := range df.operations {
		if err := m.step(op); err != nil {
			var fe *Error
			if errors.As(err, &fe) {
				fe.Frame = i
				return nil, fe
			}
			return nil, &Error{Code: CodeOperation, Message: err.Error(), Frame: i, cause: err}
		}
	}
	if len(m.stack) > 0 {
		return nil, &Error{
			Code:    CodeInvalidOperation,
			Message: fmt.Sprintf("%d expressions were never consumed", len(m.stack)),
			Frame:   len(df.operations) - 1,
		}
	}
	return m.cur, nil
}

// String implements fmt.Stringer for DataFrame display
func (df *DataFrame) String() string {
	if len(df.operations) > 0 {
		return fmt.Sprintf("DataFrame{lazy: %d ops}", len(df.operations))
	}
	return render(df)
}
