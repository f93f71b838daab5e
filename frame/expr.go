package frame

import (
	"iter"

	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/temporal"
)

// ExprNode contains a lazy sequence of operations to build an expression
type ExprNode struct {
	ops iter.Seq[Operation] // nothing is allocated until consumed
}

func combine(iterators ...iter.Seq[Operation]) iter.Seq[Operation] {
	return func(yield func(Operation) bool) {
		for _, it := range iterators {
			if it == nil {
				continue
			}
			for op := range it {
				if !yield(op) {
					return
				}
			}
		}
	}
}

// single creates an iterator that yields a single operation
func single(op Operation) iter.Seq[Operation] {
	return func(yield func(Operation) bool) {
		yield(op)
	}
}

// consumed returns true if the expression has been moved into a frame.
func (e *ExprNode) consumed() bool {
	return e.ops == nil
}

// consumeOps returns the operations and clears them (move semantics)
func (e *ExprNode) consumeOps() iter.Seq[Operation] {
	ops := e.ops
	e.ops = nil
	return ops
}

// countOps returns the number of operations in the expression (for testing)
func (e *ExprNode) countOps() int {
	if e.ops == nil {
		return 0
	}
	count := 0
	for range e.ops {
		count++
	}
	return count
}

// Col references a column of the frame by name.
func Col(name string) *ExprNode {
	return &ExprNode{ops: single(Operation{opcode: OpExprColumn, args: name})}
}

// Lit creates a literal. Besides Go numbers, strings and booleans, any
// temporal literal accepted by the temporal package may be used
// (time.Time, time.Duration, temporal.Datetime64, temporal.Timedelta64).
func Lit(value any) *ExprNode {
	switch value.(type) {
	case nil, int, int32, int64, float32, float64, string, bool, column.Scalar:
	default:
		if !isTemporalLiteral(value) {
			return &ExprNode{ops: single(errOpf("unsupported literal type: %T", value))}
		}
	}
	return &ExprNode{ops: single(Operation{opcode: OpExprLiteral, args: value})}
}

func binOp(left, right *ExprNode, opcode uint32) *ExprNode {
	left.ops = combine(
		left.ops,
		right.consumeOps(),
		single(Operation{opcode: opcode}))
	return left
}

func (left *ExprNode) Gt(right *ExprNode) *ExprNode { return binOp(left, right, OpExprGt) }
func (left *ExprNode) Lt(right *ExprNode) *ExprNode { return binOp(left, right, OpExprLt) }
func (left *ExprNode) Ge(right *ExprNode) *ExprNode { return binOp(left, right, OpExprGe) }
func (left *ExprNode) Le(right *ExprNode) *ExprNode { return binOp(left, right, OpExprLe) }
func (left *ExprNode) Eq(right *ExprNode) *ExprNode { return binOp(left, right, OpExprEq) }
func (left *ExprNode) Ne(right *ExprNode) *ExprNode { return binOp(left, right, OpExprNe) }

// Arithmetic operations
func (left *ExprNode) Add(right *ExprNode) *ExprNode { return binOp(left, right, OpExprAdd) }
func (left *ExprNode) Sub(right *ExprNode) *ExprNode { return binOp(left, right, OpExprSub) }
func (left *ExprNode) Mul(right *ExprNode) *ExprNode { return binOp(left, right, OpExprMul) }
func (left *ExprNode) Div(right *ExprNode) *ExprNode { return binOp(left, right, OpExprDiv) }

// FloorDiv divides and rounds toward negative infinity.
func (left *ExprNode) FloorDiv(right *ExprNode) *ExprNode {
	return binOp(left, right, OpExprFloorDiv)
}

// Mod takes the remainder with the sign of the divisor.
func (left *ExprNode) Mod(right *ExprNode) *ExprNode { return binOp(left, right, OpExprMod) }

// Boolean operations
func (left *ExprNode) And(right *ExprNode) *ExprNode { return binOp(left, right, OpExprAnd) }
func (left *ExprNode) Or(right *ExprNode) *ExprNode  { return binOp(left, right, OpExprOr) }

func (expr *ExprNode) Not() *ExprNode {
	return expr.unaryOp(OpExprNot, nil)
}

// Sum applies sum aggregation to the expression
func (expr *ExprNode) Sum() *ExprNode { return expr.unaryOp(OpExprSum, nil) }

// Mean applies mean aggregation to the expression
func (expr *ExprNode) Mean() *ExprNode { return expr.unaryOp(OpExprMean, nil) }

// Min applies min aggregation to the expression
func (expr *ExprNode) Min() *ExprNode { return expr.unaryOp(OpExprMin, nil) }

// Max applies max aggregation to the expression
func (expr *ExprNode) Max() *ExprNode { return expr.unaryOp(OpExprMax, nil) }

// Median applies median aggregation to the expression
func (expr *ExprNode) Median() *ExprNode { return expr.unaryOp(OpExprMedian, nil) }

// First gets the first value of the expression
func (expr *ExprNode) First() *ExprNode { return expr.unaryOp(OpExprFirst, nil) }

// Last gets the last value of the expression
func (expr *ExprNode) Last() *ExprNode { return expr.unaryOp(OpExprLast, nil) }

// NUnique counts distinct non-null values.
func (expr *ExprNode) NUnique() *ExprNode { return expr.unaryOp(OpExprNUnique, nil) }

// Count counts non-null values (excludes nulls)
func (expr *ExprNode) Count() *ExprNode { return expr.unaryOp(OpExprCount, nil) }

// CountWithNulls counts all values including nulls
func (expr *ExprNode) CountWithNulls() *ExprNode { return expr.unaryOp(OpExprCountNulls, nil) }

// IsNull checks if values are null
func (expr *ExprNode) IsNull() *ExprNode { return expr.unaryOp(OpExprIsNull, nil) }

// IsNotNull checks if values are not null
func (expr *ExprNode) IsNotNull() *ExprNode { return expr.unaryOp(OpExprIsNotNull, nil) }

func (expr *ExprNode) unaryOp(opcode uint32, args any) *ExprNode {
	return &ExprNode{ops: combine(expr.ops, single(Operation{opcode: opcode, args: args}))}
}

func (expr *ExprNode) withErr(op Operation) *ExprNode {
	return &ExprNode{ops: combine(expr.ops, single(op))}
}

// Std applies standard deviation aggregation to the expression
// ddof=0: population std (default), ddof=1: sample std (unbiased)
// Usage: Col("age").Std() or Col("age").Std(0) or Col("age").Std(1)
func (expr *ExprNode) Std(ddof ...uint8) *ExprNode {
	if len(ddof) > 1 {
		return expr.withErr(errOp("Std() accepts at most one ddof parameter"))
	}
	value := uint8(0)
	if len(ddof) == 1 {
		value = ddof[0]
		if value != 0 && value != 1 {
			return expr.withErr(errOp("ddof must be 0 (population) or 1 (sample)"))
		}
	}
	return expr.unaryOp(OpExprStd, int(value))
}

// Alias adds an alias to the expression for naming computed columns
func (expr *ExprNode) Alias(name string) *ExprNode {
	return expr.unaryOp(OpExprAlias, name)
}

// Cast converts the expression to dtype. Temporal columns follow the
// temporal package's safe-cast rules.
func (expr *ExprNode) Cast(dtype column.DataType) *ExprNode {
	return expr.unaryOp(OpExprCast, dtype)
}

// FillNull replaces missing values with a literal.
func (expr *ExprNode) FillNull(value any) *ExprNode {
	return expr.unaryOp(OpExprFillNull, value)
}

// Temporal operations

// DtField extracts a calendar or clock component from a datetime column.
func (expr *ExprNode) DtField(f temporal.Field) *ExprNode {
	return expr.unaryOp(OpExprDtField, f)
}

func (expr *ExprNode) DtYear() *ExprNode    { return expr.DtField(temporal.FieldYear) }
func (expr *ExprNode) DtMonth() *ExprNode   { return expr.DtField(temporal.FieldMonth) }
func (expr *ExprNode) DtDay() *ExprNode     { return expr.DtField(temporal.FieldDay) }
func (expr *ExprNode) DtHour() *ExprNode    { return expr.DtField(temporal.FieldHour) }
func (expr *ExprNode) DtWeekday() *ExprNode { return expr.DtField(temporal.FieldWeekday) }

// DtStrftime renders a datetime or duration column with a strftime format.
func (expr *ExprNode) DtStrftime(format string) *ExprNode {
	return expr.unaryOp(OpExprDtStrftime, format)
}

type localizeArgs struct {
	zone                   string
	ambiguous, nonexistent temporal.Policy
}

// DtTzLocalize attaches zone to naive wall-clock times. Ambiguous and
// nonexistent wall times become null.
func (expr *ExprNode) DtTzLocalize(zone string) *ExprNode {
	return expr.unaryOp(OpExprDtTzLocalize, localizeArgs{zone: zone})
}

// DtTzLocalizeWith is DtTzLocalize with explicit policies.
func (expr *ExprNode) DtTzLocalizeWith(zone string, ambiguous, nonexistent temporal.Policy) *ExprNode {
	return expr.unaryOp(OpExprDtTzLocalize, localizeArgs{zone, ambiguous, nonexistent})
}

// DtTzConvert re-tags an aware column with another zone.
func (expr *ExprNode) DtTzConvert(zone string) *ExprNode {
	return expr.unaryOp(OpExprDtTzConvert, zone)
}

// DtFloor rounds datetimes down to a frequency such as "h" or "15min".
func (expr *ExprNode) DtFloor(freq string) *ExprNode { return expr.unaryOp(OpExprDtFloor, freq) }

// DtCeil rounds datetimes up to a frequency.
func (expr *ExprNode) DtCeil(freq string) *ExprNode { return expr.unaryOp(OpExprDtCeil, freq) }

// DtRound rounds datetimes to the nearest frequency multiple, ties to even.
func (expr *ExprNode) DtRound(freq string) *ExprNode { return expr.unaryOp(OpExprDtRound, freq) }

// DtTotalSeconds converts durations to fractional seconds.
func (expr *ExprNode) DtTotalSeconds() *ExprNode {
	return expr.unaryOp(OpExprDtTotalSeconds, nil)
}

// DtIsIn tests membership of each temporal value among literals.
func (expr *ExprNode) DtIsIn(values ...any) *ExprNode {
	return expr.unaryOp(OpExprDtIsIn, values)
}

type parseArgs struct {
	format string
	unit   temporal.Unit
}

// StrToDatetime parses a string column. An empty format is inferred from the
// first non-null row.
func (expr *ExprNode) StrToDatetime(format string, unit temporal.Unit) *ExprNode {
	if !unit.Valid() {
		return expr.withErr(errOpf("StrToDatetime: invalid unit %d", unit))
	}
	return expr.unaryOp(OpExprStrToDatetime, parseArgs{format, unit})
}
