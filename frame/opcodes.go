package frame

import "github.com/miretskiy/firn/column"

// OpCode constants for the operation stream executed by Collect.
// Expression opcodes push onto or rewrite the expression stack; frame
// opcodes consume it.
const (
	// DataFrame operations
	OpSelect      = 4
	OpCount       = 6
	OpConcat      = 7
	OpWithColumns = 8
	OpFilter      = 9
	OpSort        = 14
	OpSlice       = 15
	OpJoin        = 17

	// Expression operations (stack-based)
	OpExprColumn     = 100
	OpExprLiteral    = 101
	OpExprAdd        = 102
	OpExprSub        = 103
	OpExprMul        = 104
	OpExprDiv        = 105
	OpExprGt         = 106
	OpExprLt         = 107
	OpExprEq         = 108
	OpExprAnd        = 109
	OpExprOr         = 110
	OpExprNot        = 111
	OpExprSum        = 112
	OpExprMean       = 113
	OpExprMin        = 114
	OpExprMax        = 115
	OpExprStd        = 116
	OpExprMedian     = 118
	OpExprFirst      = 119
	OpExprLast       = 120
	OpExprNUnique    = 121
	OpExprCount      = 122
	OpExprCountNulls = 123
	OpExprIsNull     = 124
	OpExprIsNotNull  = 125
	OpExprAlias      = 126
	OpExprGe         = 134
	OpExprLe         = 135
	OpExprNe         = 136
	OpExprFloorDiv   = 137
	OpExprMod        = 138
	OpExprCast       = 139
	OpExprFillNull   = 140

	// Temporal operations
	OpExprDtField        = 150
	OpExprDtStrftime     = 151
	OpExprDtTzLocalize   = 152
	OpExprDtTzConvert    = 153
	OpExprDtFloor        = 154
	OpExprDtCeil         = 155
	OpExprDtRound        = 156
	OpExprDtTotalSeconds = 157
	OpExprDtIsIn         = 158
	OpExprStrToDatetime  = 159

	// Error operation for fluent API error handling
	OpError = 999
)

var binaryOps = map[uint32]column.BinaryOp{
	OpExprAdd:      column.OpAdd,
	OpExprSub:      column.OpSub,
	OpExprMul:      column.OpMul,
	OpExprDiv:      column.OpTrueDiv,
	OpExprFloorDiv: column.OpFloorDiv,
	OpExprMod:      column.OpMod,
	OpExprGt:       column.OpGt,
	OpExprLt:       column.OpLt,
	OpExprEq:       column.OpEq,
	OpExprGe:       column.OpGe,
	OpExprLe:       column.OpLe,
	OpExprNe:       column.OpNe,
	OpExprAnd:      column.OpAnd,
	OpExprOr:       column.OpOr,
}
