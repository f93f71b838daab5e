package column

import "strconv"

// Scalar is a single typed, possibly missing, value.
type Scalar struct {
	Type  DataType
	Valid bool
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// NullScalar returns a missing value of the given type.
func NullScalar(dtype DataType) Scalar { return Scalar{Type: dtype} }

// IntScalar returns a valid integer-backed scalar (integers, datetimes, durations).
func IntScalar(dtype DataType, v int64) Scalar { return Scalar{Type: dtype, Valid: true, Int: v} }

// FloatScalar returns a valid Float64 scalar.
func FloatScalar(v float64) Scalar { return Scalar{Type: Float64, Valid: true, Float: v} }

// BoolScalar returns a valid Boolean scalar.
func BoolScalar(v bool) Scalar { return Scalar{Type: Boolean, Valid: true, Bool: v} }

// StringScalar returns a valid String scalar.
func StringScalar(v string) Scalar { return Scalar{Type: String, Valid: true, Str: v} }

func (s Scalar) String() string {
	if !s.Valid {
		return "null"
	}
	switch s.Type.storage() {
	case storageFloat:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	case storageBool:
		return strconv.FormatBool(s.Bool)
	case storageString:
		return s.Str
	default:
		return strconv.FormatInt(s.Int, 10)
	}
}

// Operand is either a *Column or a Scalar broadcast against a column.
type Operand interface {
	operandType() DataType
}

func (c *Column) operandType() DataType { return c.dtype }
func (s Scalar) operandType() DataType  { return s.Type }

// view gives uniform element access over a column or a broadcast scalar.
type view struct {
	col *Column
	sc  Scalar
}

func newView(o Operand) view {
	switch v := o.(type) {
	case *Column:
		return view{col: v}
	case Scalar:
		return view{sc: v}
	}
	return view{}
}

func (v view) dtype() DataType {
	if v.col != nil {
		return v.col.dtype
	}
	return v.sc.Type
}

// length returns -1 for broadcast scalars.
func (v view) length() int {
	if v.col != nil {
		return v.col.length
	}
	return -1
}

func (v view) at(i int) Scalar {
	if v.col != nil {
		return v.col.Scalar(i)
	}
	return v.sc
}
