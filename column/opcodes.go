package column

// BinaryOp identifies an element-wise binary kernel.
// Reflected variants (OpR*) swap operand order and are resolved by the
// temporal dispatch before a kernel runs.
type BinaryOp uint32

// OpCode constants for binary kernels
const (
	// Arithmetic
	OpAdd      BinaryOp = 102
	OpSub      BinaryOp = 103
	OpMul      BinaryOp = 104
	OpTrueDiv  BinaryOp = 105
	OpFloorDiv BinaryOp = 112
	OpMod      BinaryOp = 113

	// Comparison
	OpGt BinaryOp = 106
	OpLt BinaryOp = 107
	OpEq BinaryOp = 108
	OpGe BinaryOp = 114
	OpLe BinaryOp = 115
	OpNe BinaryOp = 116

	// Null-aware equality: null == null is true and the result is never null
	OpNullEquals    BinaryOp = 117
	OpNullNotEquals BinaryOp = 118

	// Boolean
	OpAnd BinaryOp = 109
	OpOr  BinaryOp = 110

	// Reflected arithmetic
	OpRAdd      BinaryOp = 202
	OpRSub      BinaryOp = 203
	OpRMul      BinaryOp = 204
	OpRTrueDiv  BinaryOp = 205
	OpRFloorDiv BinaryOp = 212
	OpRMod      BinaryOp = 213
)

const reflectOffset = 100

// Reflected splits op into its forward operator and whether it was reflected.
func (op BinaryOp) Reflected() (BinaryOp, bool) {
	switch op {
	case OpRAdd, OpRSub, OpRMul, OpRTrueDiv, OpRFloorDiv, OpRMod:
		return op - reflectOffset, true
	}
	return op, false
}

// Reflect returns the reflected form of an arithmetic operator.
func (op BinaryOp) Reflect() BinaryOp {
	switch op {
	case OpAdd, OpSub, OpMul, OpTrueDiv, OpFloorDiv, OpMod:
		return op + reflectOffset
	}
	return op
}

// IsComparison reports whether op produces a Boolean result from ordered operands.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpGt, OpLt, OpEq, OpGe, OpLe, OpNe, OpNullEquals, OpNullNotEquals:
		return true
	}
	return false
}

// IsEquality reports whether op is one of the (null-aware) equality operators.
func (op BinaryOp) IsEquality() bool {
	switch op {
	case OpEq, OpNe, OpNullEquals, OpNullNotEquals:
		return true
	}
	return false
}

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpTrueDiv:
		return "/"
	case OpFloorDiv:
		return "//"
	case OpMod:
		return "%"
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpEq:
		return "=="
	case OpGe:
		return ">="
	case OpLe:
		return "<="
	case OpNe:
		return "!="
	case OpNullEquals:
		return "null=="
	case OpNullNotEquals:
		return "null!="
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	}
	if fwd, ok := op.Reflected(); ok {
		return "r" + fwd.String()
	}
	return "?"
}
