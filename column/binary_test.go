package column

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinary(t *testing.T) {
	a := ints(t, Int64, []int64{7, -7, 5, 0}, []bool{true, true, true, false})
	b := ints(t, Int64, []int64{2, 2, 0, 1}, nil)

	t.Run("ArithmeticPropagatesNulls", func(t *testing.T) {
		out, err := Binary(a, b, OpAdd, Int64)
		require.NoError(t, err)
		require.Equal(t, "Column<int64>[9, -5, 5, null]", out.GoString())
	})

	t.Run("FloorSemantics", func(t *testing.T) {
		q, err := Binary(a, b, OpFloorDiv, Int64)
		require.NoError(t, err)
		require.Equal(t, "Column<int64>[3, -4, null, null]", q.GoString())

		m, err := Binary(a, b, OpMod, Int64)
		require.NoError(t, err)
		require.Equal(t, "Column<int64>[1, 1, null, null]", m.GoString())
	})

	t.Run("TrueDivIsFloat", func(t *testing.T) {
		out, err := Binary(a, IntScalar(Int64, 2), OpTrueDiv, Float64)
		require.NoError(t, err)
		require.Equal(t, 3.5, out.Float64(0))
		require.Equal(t, -3.5, out.Float64(1))
	})

	t.Run("ReflectedSwapsOperands", func(t *testing.T) {
		out, err := Binary(b, IntScalar(Int64, 10), OpRSub, Int64)
		require.NoError(t, err)
		require.Equal(t, "Column<int64>[8, 8, 10, 9]", out.GoString())
	})

	t.Run("Comparison", func(t *testing.T) {
		out, err := Binary(a, b, OpGt, Boolean)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, false, true, null]", out.GoString())
	})

	t.Run("NullEquals", func(t *testing.T) {
		x := ints(t, Int64, []int64{1, 0, 0}, []bool{true, false, false})
		y := ints(t, Int64, []int64{1, 5, 0}, []bool{true, true, false})
		out, err := Binary(x, y, OpNullEquals, Boolean)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, false, true]", out.GoString())
		require.False(t, out.HasNulls())
	})

	t.Run("Overflow", func(t *testing.T) {
		big := ints(t, Int64, []int64{math.MaxInt64}, nil)
		_, err := Binary(big, IntScalar(Int64, 1), OpAdd, Int64)
		require.ErrorIs(t, err, ErrOverflow)
		_, err = Binary(big, IntScalar(Int64, 2), OpMul, Int64)
		require.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("FloatToIntTruncates", func(t *testing.T) {
		f, err := FromFloat64s([]float64{2.9, math.NaN()}, nil)
		require.NoError(t, err)
		out, err := Binary(f, FloatScalar(1), OpMul, Int64)
		require.NoError(t, err)
		require.Equal(t, "Column<int64>[2, null]", out.GoString())
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := Binary(IntScalar(Int64, 1), IntScalar(Int64, 1), OpAdd, Int64)
		require.ErrorIs(t, err, ErrInvalidInput)

		_, err = Binary(a, ints(t, Int64, []int64{1}, nil), OpAdd, Int64)
		require.ErrorIs(t, err, ErrLengthMismatch)

		s, err := FromStrings([]string{"x", "y", "z", "w"}, nil)
		require.NoError(t, err)
		_, err = Binary(s, a, OpAdd, Int64)
		require.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("BooleanLogic", func(t *testing.T) {
		out, err := Binary(bools(t, true, true, false), bools(t, true, false, false), OpAnd, Boolean)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[true, false, false]", out.GoString())

		inv, err := Not(out)
		require.NoError(t, err)
		require.Equal(t, "Column<bool>[false, true, true]", inv.GoString())
	})
}

func TestCheckedHelpers(t *testing.T) {
	_, ok := SubChecked(math.MinInt64, 1)
	require.False(t, ok)
	v, ok := MulChecked(-3, 4)
	require.True(t, ok)
	require.Equal(t, int64(-12), v)
	require.Equal(t, int64(-4), FloorDiv(-7, 2))
	require.Equal(t, int64(-1), FloorMod(7, -2))
}

func TestOpcodes(t *testing.T) {
	fwd, ok := OpRTrueDiv.Reflected()
	require.True(t, ok)
	require.Equal(t, OpTrueDiv, fwd)
	require.Equal(t, OpRMod, OpMod.Reflect())
	require.Equal(t, OpEq, OpEq.Reflect())
	require.Equal(t, "r-", OpRSub.String())
	require.True(t, OpNullEquals.IsEquality())
	require.False(t, OpAdd.IsComparison())
}
