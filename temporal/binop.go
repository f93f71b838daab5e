package temporal

import (
	"github.com/miretskiy/firn/column"
	"github.com/pkg/errors"
)

type kind int

const (
	kindDatetime kind = iota
	kindDuration
	kindNumeric
	kindOther
)

// operand is a binary-operation argument normalized to a column or scalar.
type operand struct {
	kind     kind
	unit     Unit
	val      column.Operand
	isColumn bool
	tz       string
}

func typeOf(o column.Operand) column.DataType {
	switch v := o.(type) {
	case *column.Column:
		return v.DataType()
	case column.Scalar:
		return v.Type
	}
	return column.Invalid
}

func kindOf(t column.DataType) kind {
	switch {
	case t.IsDatetime():
		return kindDatetime
	case t.IsDuration():
		return kindDuration
	case t.IsNumeric():
		return kindNumeric
	}
	return kindOther
}

// normalizeOperand turns other into an operand. A nil other is a missing
// value of the receiver's own type.
func normalizeOperand(other any, self column.DataType, selfUnit Unit) (operand, error) {
	var o operand
	switch x := other.(type) {
	case nil:
		o.val = column.NullScalar(self)
	case *DatetimeColumn:
		o.val, o.tz, o.isColumn = x.data, x.tz, true
	case *TimedeltaColumn:
		o.val, o.isColumn = x.data, true
	case *column.Column:
		o.val, o.isColumn = x, true
	default:
		s, err := literalScalar(other, selfUnit)
		if err != nil {
			return operand{}, err
		}
		o.val = s
	}
	t := typeOf(o.val)
	o.kind = kindOf(t)
	if o.kind == kindDatetime || o.kind == kindDuration {
		u, err := UnitOf(t)
		if err != nil {
			return operand{}, err
		}
		o.unit = u
	}
	return o, nil
}

func unsupported(op column.BinaryOp, self column.DataType, o operand) error {
	return errors.Wrapf(ErrUnsupportedOperand, "%s %s %s", self, op, typeOf(o.val))
}

// BinaryOp applies op with c on the left, or on the right for reflected
// operators. other may be a temporal or plain column, a column.Scalar, nil,
// or a literal (string, time.Time, time.Duration, Datetime64, Timedelta64,
// Go numbers). The result's type encodes its kind and unit.
func (c *DatetimeColumn) BinaryOp(other any, op column.BinaryOp) (*column.Column, error) {
	fwd, reflect := op.Reflected()
	self := c.data.DataType()
	o, err := normalizeOperand(other, self, c.unit)
	if err != nil {
		return nil, err
	}
	if o.kind == kindDatetime && o.tz != "" && c.tz != "" && o.tz != c.tz {
		return nil, errors.Wrapf(ErrTypeIncompatible, "operands in zones %s and %s", c.tz, o.tz)
	}
	resolved := ResolveBinopResolution(c.unit, o.unit)

	var out column.DataType
	switch {
	case reflect && fwd != column.OpAdd && fwd != column.OpSub:
		return nil, unsupported(op, self, o)
	case fwd.IsEquality() && o.kind != kindDatetime:
		if o.isColumn {
			return allBoolsWithNulls(c.data, o.val.(*column.Column), fwd == column.OpNe || fwd == column.OpNullNotEquals)
		}
		return nil, unsupported(op, self, o)
	case fwd.IsComparison() && o.kind == kindDatetime:
		out = column.Boolean
	case fwd == column.OpAdd && o.kind == kindDuration:
		out = DatetimeType(resolved)
	case fwd == column.OpSub && o.kind == kindDatetime:
		out = DurationType(resolved)
	case fwd == column.OpSub && o.kind == kindDuration && !reflect:
		out = DatetimeType(resolved)
	case fwd == column.OpSub && o.kind == kindDuration:
		return nil, errors.Wrapf(ErrTypeIncompatible, "cannot subtract %s from %s", self, typeOf(o.val))
	default:
		return nil, unsupported(op, self, o)
	}
	return evaluate(c.data, c.unit, o, fwd, reflect, out, true)
}

// Add returns c + other as an instant column that keeps c's timezone.
func (c *DatetimeColumn) Add(other any) (*DatetimeColumn, error) {
	res, err := c.BinaryOp(other, column.OpAdd)
	if err != nil {
		return nil, err
	}
	return mustDatetime(res, c.tz), nil
}

// Sub returns c - other: a *TimedeltaColumn for instant operands, a
// *DatetimeColumn keeping c's timezone for duration operands.
func (c *DatetimeColumn) Sub(other any) (Temporal, error) {
	res, err := c.BinaryOp(other, column.OpSub)
	if err != nil {
		return nil, err
	}
	if res.DataType().IsDuration() {
		return mustTimedelta(res), nil
	}
	return mustDatetime(res, c.tz), nil
}

// BinaryOp applies op to a duration column. Duration operands are unified
// to the finer unit; numeric operands keep c's unit. Instants may be added
// on either side and may have c subtracted from them.
func (c *TimedeltaColumn) BinaryOp(other any, op column.BinaryOp) (*column.Column, error) {
	fwd, reflect := op.Reflected()
	self := c.data.DataType()
	if _, ok := other.(string); ok {
		return nil, errors.Wrapf(ErrUnsupportedOperand, "%s %s string", self, op)
	}
	o, err := normalizeOperand(other, self, c.unit)
	if err != nil {
		return nil, err
	}
	resolved := ResolveBinopResolution(c.unit, o.unit)

	out := column.Invalid
	scale := true
	switch o.kind {
	case kindDuration:
		switch fwd {
		case column.OpEq, column.OpNe, column.OpLt, column.OpLe, column.OpGt, column.OpGe,
			column.OpNullEquals, column.OpNullNotEquals:
			out = column.Boolean
		case column.OpMod, column.OpAdd, column.OpSub:
			out = DurationType(resolved)
		case column.OpTrueDiv:
			out = column.Float64
		case column.OpFloorDiv:
			out = column.Int64
		}
	case kindNumeric:
		switch {
		case fwd == column.OpMul, !reflect && (fwd == column.OpMod || fwd == column.OpTrueDiv || fwd == column.OpFloorDiv):
			out, scale = self, false
		case fwd.IsEquality() && o.isColumn:
			return allBoolsWithNulls(c.data, o.val.(*column.Column), fwd == column.OpNe || fwd == column.OpNullNotEquals)
		}
	case kindDatetime:
		switch {
		case fwd == column.OpAdd:
			out = DatetimeType(resolved)
		case fwd == column.OpSub && reflect:
			out = DatetimeType(resolved)
		case fwd == column.OpSub:
			return nil, errors.Wrapf(ErrTypeIncompatible, "cannot subtract %s from %s", typeOf(o.val), self)
		}
	}
	if out == column.Invalid {
		return nil, unsupported(op, self, o)
	}
	return evaluate(c.data, c.unit, o, fwd, reflect, out, scale)
}

// evaluate runs the kernel after aligning temporal operands to out's unit
// (or the resolved unit for non-temporal outputs).
func evaluate(self *column.Column, selfUnit Unit, o operand, op column.BinaryOp, reflect bool, out column.DataType, scale bool) (*column.Column, error) {
	var lhs, rhs column.Operand = self, o.val
	if scale && (o.kind == kindDatetime || o.kind == kindDuration) {
		u := ResolveBinopResolution(selfUnit, o.unit)
		var err error
		if lhs, err = rescale(self, selfUnit, u, sameFamily(self.DataType(), u)); err != nil {
			return nil, kernelErr(err)
		}
		if rhs, err = rescale(o.val, o.unit, u, sameFamily(typeOf(o.val), u)); err != nil {
			return nil, kernelErr(err)
		}
	}
	if reflect {
		lhs, rhs = rhs, lhs
	}
	res, err := column.Binary(lhs, rhs, op, out)
	if err != nil {
		return nil, kernelErr(err)
	}
	if out == column.Boolean && CurrentOptions().PandasCompatible {
		return column.FillNull(res, column.BoolScalar(op == column.OpNe))
	}
	return res, nil
}

func sameFamily(t column.DataType, u Unit) column.DataType {
	if t.IsDatetime() {
		return DatetimeType(u)
	}
	return DurationType(u)
}

// allBoolsWithNulls answers ==/!= against a column of another kind: every
// row is fill, null where either side is null (filled in pandas mode).
func allBoolsWithNulls(self, other *column.Column, fill bool) (*column.Column, error) {
	if self.Len() != other.Len() {
		return nil, errors.Wrapf(ErrInvalidInput, "length mismatch %d vs %d", self.Len(), other.Len())
	}
	vals := make([]bool, self.Len())
	valid := make([]bool, self.Len())
	for i := range vals {
		vals[i] = fill
		valid[i] = self.IsValid(i) && other.IsValid(i)
	}
	res, err := column.FromBools(vals, valid)
	if err != nil {
		return nil, err
	}
	if CurrentOptions().PandasCompatible {
		return column.FillNull(res, column.BoolScalar(fill))
	}
	return res, nil
}

// kernelErr maps column kernel failures onto this package's sentinels.
func kernelErr(err error) error {
	switch {
	case errors.Is(err, column.ErrOverflow):
		return errors.Wrap(ErrOverflow, err.Error())
	case errors.Is(err, column.ErrTypeMismatch):
		return errors.Wrap(ErrUnsupportedOperand, err.Error())
	case errors.Is(err, column.ErrLengthMismatch):
		return errors.Wrap(ErrInvalidInput, err.Error())
	}
	return err
}
