package column

import (
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/pkg/errors"
)

type domain int

const (
	domainInt domain = iota
	domainFloat
	domainBool
	domainString
)

// Binary applies op element-wise to lhs and rhs and returns a column of type
// out. At least one operand must be a column; a Scalar operand is broadcast.
// A result element is null when either input is null, except for the
// null-aware equality operators. Integer arithmetic is overflow-checked.
func Binary(lhs, rhs Operand, op BinaryOp, out DataType) (*Column, error) {
	if fwd, reflected := op.Reflected(); reflected {
		lhs, rhs, op = rhs, lhs, fwd
	}
	l, r := newView(lhs), newView(rhs)
	n, err := broadcastLen(l, r)
	if err != nil {
		return nil, err
	}
	dom, err := domainOf(l.dtype(), r.dtype(), op, out)
	if err != nil {
		return nil, err
	}
	res := alloc(out, n)
	for i := 0; i < n; i++ {
		s, err := applyScalar(dom, op, l.at(i), r.at(i), out)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		res.set(i, s)
	}
	return res, nil
}

func broadcastLen(l, r view) (int, error) {
	ln, rn := l.length(), r.length()
	switch {
	case ln < 0 && rn < 0:
		return 0, errors.Wrap(ErrInvalidInput, "binary operation needs at least one column operand")
	case ln < 0:
		return rn, nil
	case rn < 0:
		return ln, nil
	case ln != rn:
		return 0, errors.Wrapf(ErrLengthMismatch, "%d vs %d rows", ln, rn)
	}
	return ln, nil
}

// domainOf picks the arithmetic domain. True division of two integer-backed
// operands into an integer-backed output stays exact and truncates.
func domainOf(a, b DataType, op BinaryOp, out DataType) (domain, error) {
	switch {
	case op == OpAnd || op == OpOr:
		if !a.IsBoolean() || !b.IsBoolean() {
			return 0, errors.Wrapf(ErrTypeMismatch, "%s requires boolean operands, got %s and %s", op, a, b)
		}
		return domainBool, nil
	case a.IsString() || b.IsString():
		if !a.IsString() || !b.IsString() || !op.IsComparison() {
			return 0, errors.Wrapf(ErrTypeMismatch, "unsupported operator %s between %s and %s", op, a, b)
		}
		return domainString, nil
	case a.IsFloat() || b.IsFloat() || (op == OpTrueDiv && out.storage() != storageInt):
		return domainFloat, nil
	}
	return domainInt, nil
}

func applyScalar(dom domain, op BinaryOp, a, b Scalar, out DataType) (Scalar, error) {
	if op == OpNullEquals || op == OpNullNotEquals {
		var eq bool
		switch {
		case !a.Valid && !b.Valid:
			eq = true
		case !a.Valid || !b.Valid:
			eq = false
		default:
			cmp, err := applyScalar(dom, OpEq, a, b, Boolean)
			if err != nil {
				return Scalar{}, err
			}
			eq = cmp.Bool
		}
		return BoolScalar(eq == (op == OpNullEquals)), nil
	}
	if !a.Valid || !b.Valid {
		return NullScalar(out), nil
	}
	switch dom {
	case domainBool:
		if op == OpAnd {
			return BoolScalar(a.Bool && b.Bool), nil
		}
		return BoolScalar(a.Bool || b.Bool), nil
	case domainString:
		return BoolScalar(compare(op, strings.Compare(a.Str, b.Str))), nil
	case domainFloat:
		return applyFloat(op, asFloat(a), asFloat(b), out)
	}
	return applyInt(op, asInt(a), asInt(b), out)
}

func applyInt(op BinaryOp, x, y int64, out DataType) (Scalar, error) {
	if op.IsComparison() {
		switch {
		case x < y:
			return BoolScalar(compare(op, -1)), nil
		case x > y:
			return BoolScalar(compare(op, 1)), nil
		}
		return BoolScalar(compare(op, 0)), nil
	}
	var v int64
	var ok = true
	switch op {
	case OpAdd:
		v, ok = AddChecked(x, y)
	case OpSub:
		v, ok = SubChecked(x, y)
	case OpMul:
		v, ok = MulChecked(x, y)
	case OpTrueDiv:
		if y == 0 {
			return NullScalar(out), nil
		}
		if x == math.MinInt64 && y == -1 {
			ok = false
			break
		}
		v = x / y
	case OpFloorDiv:
		if y == 0 {
			return NullScalar(out), nil
		}
		if x == math.MinInt64 && y == -1 {
			ok = false
			break
		}
		v = FloorDiv(x, y)
	case OpMod:
		if y == 0 {
			return NullScalar(out), nil
		}
		v = FloorMod(x, y)
	default:
		return Scalar{}, errors.Wrapf(ErrTypeMismatch, "operator %s is not defined for integers", op)
	}
	if !ok {
		return Scalar{}, errors.Wrapf(ErrOverflow, "%d %s %d", x, op, y)
	}
	return fromInt(v, out), nil
}

func applyFloat(op BinaryOp, x, y float64, out DataType) (Scalar, error) {
	if op.IsComparison() {
		switch {
		case math.IsNaN(x) || math.IsNaN(y):
			return BoolScalar(op == OpNe), nil
		case x < y:
			return BoolScalar(compare(op, -1)), nil
		case x > y:
			return BoolScalar(compare(op, 1)), nil
		}
		return BoolScalar(compare(op, 0)), nil
	}
	var v float64
	switch op {
	case OpAdd:
		v = x + y
	case OpSub:
		v = x - y
	case OpMul:
		v = x * y
	case OpTrueDiv:
		v = x / y
	case OpFloorDiv:
		v = math.Floor(x / y)
	case OpMod:
		v = math.Mod(x, y)
		if v != 0 && (v < 0) != (y < 0) {
			v += y
		}
	default:
		return Scalar{}, errors.Wrapf(ErrTypeMismatch, "operator %s is not defined for floats", op)
	}
	return fromFloat(v, out)
}

func compare(op BinaryOp, cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

func asInt(s Scalar) int64 {
	switch s.Type.storage() {
	case storageFloat:
		return int64(s.Float)
	case storageBool:
		if s.Bool {
			return 1
		}
		return 0
	}
	return s.Int
}

func asFloat(s Scalar) float64 {
	switch s.Type.storage() {
	case storageFloat:
		return s.Float
	case storageBool:
		if s.Bool {
			return 1
		}
		return 0
	}
	return float64(s.Int)
}

func fromInt(v int64, out DataType) Scalar {
	switch out.storage() {
	case storageFloat:
		return Scalar{Type: out, Valid: true, Float: float64(v)}
	case storageBool:
		return Scalar{Type: out, Valid: true, Bool: v != 0}
	}
	return IntScalar(out, v)
}

func fromFloat(v float64, out DataType) (Scalar, error) {
	switch out.storage() {
	case storageFloat:
		return Scalar{Type: out, Valid: true, Float: v}, nil
	case storageBool:
		return Scalar{Type: out, Valid: true, Bool: v != 0}, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullScalar(out), nil
	}
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return Scalar{}, errors.Wrapf(ErrOverflow, "%g does not fit in int64", v)
	}
	return IntScalar(out, int64(v)), nil
}

// AddChecked returns a+b and whether the sum fits in int64.
func AddChecked(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// SubChecked returns a-b and whether the difference fits in int64.
func SubChecked(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}
	return a - b, true
}

// MulChecked returns a*b and whether the product fits in int64.
func MulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod returns the remainder carrying the sign of the divisor.
func FloorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// Not inverts a Boolean column, keeping nulls.
func Not(c *Column) (*Column, error) {
	if !c.dtype.IsBoolean() {
		return nil, errors.Wrapf(ErrTypeMismatch, "not requires a boolean column, got %s", c.dtype)
	}
	out := alloc(Boolean, c.length)
	bitutil.InvertBitmap(c.data.Bytes(), c.offset, c.length, out.data.Bytes(), 0)
	out.validity = c.validityCopy()
	return out, nil
}
