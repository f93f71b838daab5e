package frame

import (
	"fmt"
	"time"

	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/temporal"
	"github.com/pkg/errors"
)

// value is an expression stack entry: a series or a not yet typed literal.
type value struct {
	series *Series
	lit    any
}

func (v value) name() string {
	if v.series == nil {
		return "literal"
	}
	return v.series.Name
}

// machine executes a frame's operation stream.
type machine struct {
	cur   *DataFrame
	stack []value
}

func isTemporalLiteral(v any) bool {
	switch v.(type) {
	case time.Time, time.Duration, temporal.Datetime64, temporal.Timedelta64:
		return true
	}
	return false
}

func shapeErrorf(format string, args ...any) error {
	return &Error{Code: CodeShapeMismatch, Message: fmt.Sprintf(format, args...)}
}

func (m *machine) pop() (value, error) {
	if len(m.stack) == 0 {
		return value{}, &Error{Code: CodeInvalidOperation, Message: "expression stack is empty"}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *machine) drain() []value {
	vals := m.stack
	m.stack = nil
	return vals
}

func (m *machine) step(op Operation) error {
	if bop, ok := binaryOps[op.opcode]; ok {
		r, err := m.pop()
		if err != nil {
			return err
		}
		l, err := m.pop()
		if err != nil {
			return err
		}
		s, err := binary(l, r, bop)
		if err != nil {
			return err
		}
		m.stack = append(m.stack, value{series: s})
		return nil
	}

	switch op.opcode {
	case OpExprColumn:
		s, err := m.cur.Column(op.args.(string))
		if err != nil {
			return &Error{Code: CodeColumnNotFound, Message: err.Error(), cause: err}
		}
		m.stack = append(m.stack, value{series: s})
		return nil
	case OpExprLiteral:
		m.stack = append(m.stack, value{lit: op.args})
		return nil
	case OpSelect:
		return m.selectColumns()
	case OpWithColumns:
		return m.withColumns()
	case OpFilter:
		return m.filter()
	case OpCount:
		cnt, _ := column.FromInt64s(column.Int64, []int64{int64(m.cur.height)}, nil)
		m.cur = &DataFrame{series: []*Series{{Name: "count", Data: cnt}}, height: 1}
		return nil
	case OpSlice:
		args := op.args.(sliceArgs)
		out, err := slice(m.cur, args.offset, args.length)
		if err != nil {
			return err
		}
		m.cur = out
		return nil
	case OpSort:
		out, err := sortFrame(m.cur, op.args.([]SortField))
		if err != nil {
			return err
		}
		m.cur = out
		return nil
	case OpJoin:
		args := op.args.(joinArgs)
		out, err := join(m.cur, args.other, args.spec)
		if err != nil {
			return err
		}
		m.cur = out
		return nil
	case OpConcat:
		out, err := concat(op.args.([]*DataFrame))
		if err != nil {
			return err
		}
		m.cur = out
		return nil
	}

	v, err := m.pop()
	if err != nil {
		return err
	}
	s, err := materialize(v)
	if err != nil {
		return err
	}
	out, err := unary(s, op)
	if err != nil {
		return err
	}
	m.stack = append(m.stack, value{series: out})
	return nil
}

// literalScalar types a literal on its own. Strings stay strings here; they
// are parsed as timestamps only when combined with a temporal column.
func literalScalar(lit any, like column.DataType) (column.Scalar, error) {
	switch x := lit.(type) {
	case nil:
		return column.NullScalar(like), nil
	case column.Scalar:
		return x, nil
	case string:
		return column.StringScalar(x), nil
	case int:
		return column.IntScalar(column.Int64, int64(x)), nil
	case int32:
		return column.IntScalar(column.Int64, int64(x)), nil
	case int64:
		return column.IntScalar(column.Int64, x), nil
	case float32:
		return column.FloatScalar(float64(x)), nil
	case float64:
		return column.FloatScalar(x), nil
	case bool:
		return column.BoolScalar(x), nil
	}
	return temporal.LiteralScalar(lit)
}

func materialize(v value) (*Series, error) {
	if v.series != nil {
		return v.series, nil
	}
	if v.lit == nil {
		return nil, errors.New("untyped null literal")
	}
	sc, err := literalScalar(v.lit, column.Invalid)
	if err != nil {
		return nil, err
	}
	return &Series{Name: "literal", Data: column.Full(sc, 1)}, nil
}

// temporalArg is the right-hand argument handed to a temporal BinaryOp.
func temporalArg(v value) (any, error) {
	switch {
	case v.series == nil:
		return v.lit, nil
	case v.series.IsTemporal():
		return v.series.Temporal()
	}
	return v.series.Data, nil
}

// swapped returns the operator that gives the same result with the operands
// exchanged.
func swapped(op column.BinaryOp) (column.BinaryOp, bool) {
	switch op {
	case column.OpAdd, column.OpSub, column.OpMul, column.OpTrueDiv, column.OpFloorDiv, column.OpMod:
		return op.Reflect(), true
	case column.OpGt:
		return column.OpLt, true
	case column.OpLt:
		return column.OpGt, true
	case column.OpGe:
		return column.OpLe, true
	case column.OpLe:
		return column.OpGe, true
	case column.OpEq, column.OpNe:
		return op, true
	}
	return op, false
}

func resultType(a, b column.DataType, op column.BinaryOp) column.DataType {
	switch {
	case op.IsComparison(), op == column.OpAnd, op == column.OpOr:
		return column.Boolean
	case op == column.OpTrueDiv, a.IsFloat(), b.IsFloat():
		return column.Float64
	}
	return column.Int64
}

func binary(l, r value, op column.BinaryOp) (*Series, error) {
	var self, other value
	switch {
	case l.series == nil && r.series == nil:
		return nil, errors.Errorf("%s between two literals", op)
	case l.series != nil && l.series.IsTemporal():
		self, other = l, r
	case r.series != nil && r.series.IsTemporal():
		flipped, ok := swapped(op)
		if !ok {
			return nil, errors.Wrapf(temporal.ErrUnsupportedOperand, "%s with a %s right operand", op, r.series.DataType())
		}
		self, other, op = r, l, flipped
	default:
		return plainBinary(l, r, op)
	}

	t, err := self.series.Temporal()
	if err != nil {
		return nil, err
	}
	arg, err := temporalArg(other)
	if err != nil {
		return nil, err
	}
	out, err := t.BinaryOp(arg, op)
	if err != nil {
		return nil, err
	}
	res := &Series{Name: l.name(), Data: out}
	if l.series == nil {
		res.Name = r.name()
	}
	if out.DataType().IsDatetime() {
		for _, v := range []value{l, r} {
			if v.series != nil && v.series.DataType().IsDatetime() {
				res.Timezone = v.series.Timezone
				break
			}
		}
	}
	return res, nil
}

func plainBinary(l, r value, op column.BinaryOp) (*Series, error) {
	operand := func(v, peer value) (column.Operand, column.DataType, error) {
		if v.series != nil {
			return v.series.Data, v.series.DataType(), nil
		}
		sc, err := literalScalar(v.lit, peer.series.DataType())
		return sc, sc.Type, err
	}
	lo, lt, err := operand(l, r)
	if err != nil {
		return nil, err
	}
	ro, rt, err := operand(r, l)
	if err != nil {
		return nil, err
	}
	out, err := column.Binary(lo, ro, op, resultType(lt, rt, op))
	if err != nil {
		return nil, err
	}
	name := l.name()
	if l.series == nil {
		name = r.name()
	}
	return &Series{Name: name, Data: out}, nil
}

func unary(s *Series, op Operation) (*Series, error) {
	switch op.opcode {
	case OpExprAlias:
		return s.renamed(op.args.(string)), nil
	case OpExprIsNull:
		return &Series{Name: s.Name, Data: s.Data.IsNull()}, nil
	case OpExprIsNotNull:
		return &Series{Name: s.Name, Data: s.Data.NotNull()}, nil
	case OpExprNot:
		out, err := column.Not(s.Data)
		if err != nil {
			return nil, err
		}
		return s.with(out), nil
	case OpExprCast:
		return cast(s, op.args.(column.DataType))
	case OpExprFillNull:
		return fillNull(s, op.args)
	case OpExprSum, OpExprMean, OpExprMin, OpExprMax, OpExprStd, OpExprMedian,
		OpExprFirst, OpExprLast, OpExprNUnique, OpExprCount, OpExprCountNulls:
		sc, err := aggregate(s, op)
		if err != nil {
			return nil, err
		}
		res := &Series{Name: s.Name, Data: column.Full(sc, 1)}
		if sc.Type.IsDatetime() {
			res.Timezone = s.Timezone
		}
		return res, nil
	case OpExprStrToDatetime:
		args := op.args.(parseArgs)
		dt, err := temporal.ParseDatetimes(s.Data, args.format, args.unit)
		if err != nil {
			return nil, err
		}
		return FromTemporal(s.Name, dt), nil
	}
	return temporalUnary(s, op)
}

func cast(s *Series, to column.DataType) (*Series, error) {
	if !s.IsTemporal() {
		out, err := column.Cast(s.Data, to)
		if err != nil {
			return nil, err
		}
		return &Series{Name: s.Name, Data: out}, nil
	}
	t, err := s.Temporal()
	if err != nil {
		return nil, err
	}
	var out *column.Column
	switch v := t.(type) {
	case *temporal.DatetimeColumn:
		out, err = v.Cast(to)
	case *temporal.TimedeltaColumn:
		out, err = v.Cast(to)
	}
	if err != nil {
		return nil, err
	}
	res := &Series{Name: s.Name, Data: out}
	if to.IsDatetime() {
		res.Timezone = s.Timezone
	}
	return res, nil
}

func fillNull(s *Series, v any) (*Series, error) {
	if !s.IsTemporal() {
		sc, err := literalScalar(v, s.DataType())
		if err != nil {
			return nil, err
		}
		out, err := column.FillNull(s.Data, sc)
		if err != nil {
			return nil, err
		}
		return s.with(out), nil
	}
	t, err := s.Temporal()
	if err != nil {
		return nil, err
	}
	if other, ok := v.(*Series); ok {
		if v, err = other.Temporal(); err != nil {
			return nil, err
		}
	}
	switch c := t.(type) {
	case *temporal.DatetimeColumn:
		filled, err := c.FillNull(v)
		if err != nil {
			return nil, err
		}
		return FromTemporal(s.Name, filled), nil
	case *temporal.TimedeltaColumn:
		filled, err := c.FillNull(v)
		if err != nil {
			return nil, err
		}
		return FromTemporal(s.Name, filled), nil
	}
	return nil, errors.Errorf("fill_null on %s", s.DataType())
}

type temporalReducer interface {
	Mean() (column.Scalar, error)
	Median() (column.Scalar, error)
	Std(ddof int) (column.Scalar, error)
}

func aggregate(s *Series, op Operation) (column.Scalar, error) {
	c := s.Data
	switch op.opcode {
	case OpExprMin:
		return column.Min(c), nil
	case OpExprMax:
		return column.Max(c), nil
	case OpExprFirst:
		if c.Len() == 0 {
			return column.NullScalar(c.DataType()), nil
		}
		return c.Scalar(0), nil
	case OpExprLast:
		if c.Len() == 0 {
			return column.NullScalar(c.DataType()), nil
		}
		return c.Scalar(c.Len() - 1), nil
	case OpExprCount:
		return column.IntScalar(column.Int64, int64(c.Len()-c.NullCount())), nil
	case OpExprCountNulls:
		return column.IntScalar(column.Int64, int64(c.Len())), nil
	case OpExprNUnique:
		seen := make(map[column.Scalar]struct{})
		for i := 0; i < c.Len(); i++ {
			if c.IsValid(i) {
				seen[c.Scalar(i)] = struct{}{}
			}
		}
		return column.IntScalar(column.Int64, int64(len(seen))), nil
	}

	if s.IsTemporal() {
		t, err := s.Temporal()
		if err != nil {
			return column.Scalar{}, err
		}
		r := t.(temporalReducer)
		switch op.opcode {
		case OpExprSum:
			td, ok := t.(*temporal.TimedeltaColumn)
			if !ok {
				return column.Scalar{}, errors.Wrapf(temporal.ErrUnsupportedOperand, "sum of %s", c.DataType())
			}
			return td.Sum()
		case OpExprMean:
			return r.Mean()
		case OpExprMedian:
			return r.Median()
		case OpExprStd:
			return r.Std(op.args.(int))
		}
	}

	switch op.opcode {
	case OpExprSum:
		return column.Sum(c)
	case OpExprMedian:
		return column.Median(c)
	case OpExprMean:
		mean, ok, err := column.Mean(c)
		if err != nil || !ok {
			return column.NullScalar(column.Float64), err
		}
		return column.FloatScalar(mean), nil
	case OpExprStd:
		std, ok, err := column.Std(c, op.args.(int))
		if err != nil || !ok {
			return column.NullScalar(column.Float64), err
		}
		return column.FloatScalar(std), nil
	}
	return column.Scalar{}, errors.Errorf("unknown aggregation opcode %d", op.opcode)
}

func temporalUnary(s *Series, op Operation) (*Series, error) {
	switch op.opcode {
	case OpExprDtStrftime, OpExprDtIsIn:
		t, err := s.Temporal()
		if err != nil {
			return nil, err
		}
		var out *column.Column
		switch c := t.(type) {
		case *temporal.DatetimeColumn:
			if op.opcode == OpExprDtStrftime {
				out, err = c.Strftime(op.args.(string))
			} else {
				out, err = c.IsIn(op.args.([]any))
			}
		case *temporal.TimedeltaColumn:
			if op.opcode == OpExprDtStrftime {
				out, err = c.Strftime(op.args.(string))
			} else {
				out, err = c.IsIn(op.args.([]any))
			}
		}
		if err != nil {
			return nil, err
		}
		return &Series{Name: s.Name, Data: out}, nil
	case OpExprDtTotalSeconds:
		t, err := s.Temporal()
		if err != nil {
			return nil, err
		}
		td, ok := t.(*temporal.TimedeltaColumn)
		if !ok {
			return nil, errors.Wrapf(temporal.ErrTypeIncompatible, "total_seconds of %s", s.DataType())
		}
		return &Series{Name: s.Name, Data: td.TotalSeconds()}, nil
	}

	dt, err := s.datetime()
	if err != nil {
		return nil, err
	}
	var res *temporal.DatetimeColumn
	switch op.opcode {
	case OpExprDtField:
		out, err := dt.Field(op.args.(temporal.Field))
		if err != nil {
			return nil, err
		}
		return &Series{Name: s.Name, Data: out}, nil
	case OpExprDtTzLocalize:
		args := op.args.(localizeArgs)
		res, err = dt.TzLocalize(args.zone, args.ambiguous, args.nonexistent)
	case OpExprDtTzConvert:
		res, err = dt.TzConvert(op.args.(string))
	case OpExprDtFloor:
		res, err = dt.Floor(op.args.(string))
	case OpExprDtCeil:
		res, err = dt.Ceil(op.args.(string))
	case OpExprDtRound:
		res, err = dt.Round(op.args.(string))
	default:
		return nil, &Error{Code: CodeInvalidOperation, Message: fmt.Sprintf("unknown opcode %d", op.opcode)}
	}
	if err != nil {
		return nil, err
	}
	return FromTemporal(s.Name, res), nil
}

// broadcast repeats a length-1 series to n rows.
func broadcast(s *Series, n int) (*Series, error) {
	switch s.Len() {
	case n:
		return s, nil
	case 1:
		return s.with(column.Full(s.Data.Scalar(0), n)), nil
	}
	return nil, shapeErrorf("column %q has %d rows, expected %d", s.Name, s.Len(), n)
}

func (m *machine) selectColumns() error {
	vals := m.drain()
	series := make([]*Series, len(vals))
	n := 1
	for i, v := range vals {
		s, err := materialize(v)
		if err != nil {
			return err
		}
		series[i] = s
		if s.Len() != 1 {
			n = s.Len()
		}
	}
	for i, s := range series {
		b, err := broadcast(s, n)
		if err != nil {
			return err
		}
		series[i] = b
	}
	out, err := New(series...)
	if err != nil {
		return shapeErrorf("%s", err)
	}
	m.cur = out
	return nil
}

func (m *machine) withColumns() error {
	series := append([]*Series(nil), m.cur.series...)
	for _, v := range m.drain() {
		s, err := materialize(v)
		if err != nil {
			return err
		}
		if s, err = broadcast(s, m.cur.height); err != nil {
			return err
		}
		replaced := false
		for i, old := range series {
			if old.Name == s.Name {
				series[i], replaced = s, true
				break
			}
		}
		if !replaced {
			series = append(series, s)
		}
	}
	m.cur = &DataFrame{series: series, height: m.cur.height}
	return nil
}

func (m *machine) filter() error {
	v, err := m.pop()
	if err != nil {
		return err
	}
	mask, err := materialize(v)
	if err != nil {
		return err
	}
	if !mask.DataType().IsBoolean() {
		return errors.Errorf("filter predicate %q is %s, not bool", mask.Name, mask.DataType())
	}
	if mask, err = broadcast(mask, m.cur.height); err != nil {
		return err
	}
	out := &DataFrame{series: make([]*Series, len(m.cur.series))}
	for i, s := range m.cur.series {
		kept, err := column.ApplyBooleanMask(s.Data, mask.Data)
		if err != nil {
			return errors.Wrapf(err, "column %q", s.Name)
		}
		out.series[i] = s.with(kept)
		out.height = kept.Len()
	}
	if len(out.series) == 0 {
		out.height = mask.Len() - mask.Data.NullCount()
	}
	m.cur = out
	return nil
}

func slice(df *DataFrame, offset, length int) (*DataFrame, error) {
	offset = min(offset, df.height)
	length = min(length, df.height-offset)
	out := &DataFrame{series: make([]*Series, len(df.series)), height: length}
	for i, s := range df.series {
		view, err := s.Data.Slice(offset, length)
		if err != nil {
			return nil, err
		}
		out.series[i] = s.with(view)
	}
	return out, nil
}

func concat(frames []*DataFrame) (*DataFrame, error) {
	first := frames[0]
	for i, f := range frames {
		if f.Pending() {
			return nil, errors.Errorf("frame %d must be collected before Concat()", i)
		}
		if f.Width() != first.Width() {
			return nil, shapeErrorf("frame %d has %d columns, expected %d", i, f.Width(), first.Width())
		}
	}
	out := &DataFrame{series: make([]*Series, first.Width())}
	for j, s := range first.series {
		parts := make([]*column.Column, len(frames))
		for i, f := range frames {
			other := f.series[j]
			if other.Name != s.Name || other.Timezone != s.Timezone {
				return nil, shapeErrorf("frame %d column %d is %q[%s], expected %q[%s]",
					i, j, other.Name, other.Timezone, s.Name, s.Timezone)
			}
			parts[i] = other.Data
		}
		data, err := column.Concat(parts...)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", s.Name)
		}
		out.series[j] = s.with(data)
		out.height = data.Len()
	}
	for _, f := range frames {
		if out.Width() == 0 {
			out.height += f.height
		}
	}
	return out, nil
}
