package column

import "github.com/pkg/errors"

// ApplyBooleanMask keeps the rows of c where mask is true. Null mask entries
// drop the row.
func ApplyBooleanMask(c, mask *Column) (*Column, error) {
	if err := checkMask(c, mask); err != nil {
		return nil, err
	}
	kept := 0
	for i := 0; i < mask.length; i++ {
		if mask.IsValid(i) && mask.Bool(i) {
			kept++
		}
	}
	out := alloc(c.dtype, kept)
	j := 0
	for i := 0; i < c.length; i++ {
		if mask.IsValid(i) && mask.Bool(i) {
			out.set(j, c.Scalar(i))
			j++
		}
	}
	return out, nil
}

// ScatterByMask returns a copy of c with value written wherever mask is true.
func ScatterByMask(c *Column, mask *Column, value Scalar) (*Column, error) {
	if err := checkMask(c, mask); err != nil {
		return nil, err
	}
	if value.Valid && value.Type.storage() != c.dtype.storage() {
		return nil, errors.Wrapf(ErrTypeMismatch, "cannot scatter %s into %s", value.Type, c.dtype)
	}
	out := c.Copy()
	value.Type = c.dtype
	for i := 0; i < c.length; i++ {
		if mask.IsValid(i) && mask.Bool(i) {
			out.set(i, value)
		}
	}
	out.compactValidity()
	return out, nil
}

// Take gathers c at the given Int64 indices. Null indices produce nulls.
// Out-of-range indices produce nulls when nullify is set and an error
// otherwise. Negative indices are out of range.
func Take(c *Column, indices *Column, nullify bool) (*Column, error) {
	if !indices.dtype.IsInteger() {
		return nil, errors.Wrapf(ErrTypeMismatch, "take indices must be integers, got %s", indices.dtype)
	}
	out := alloc(c.dtype, indices.length)
	for i := 0; i < indices.length; i++ {
		if !indices.IsValid(i) {
			out.setNull(i)
			continue
		}
		idx := indices.ints[i]
		if idx < 0 || idx >= int64(c.length) {
			if !nullify {
				return nil, errors.Wrapf(ErrOutOfBounds, "index %d for column with %d rows", idx, c.length)
			}
			out.setNull(i)
			continue
		}
		out.set(i, c.Scalar(int(idx)))
	}
	return out, nil
}

// FillNull replaces missing elements of c with value.
func FillNull(c *Column, value Scalar) (*Column, error) {
	if !value.Valid || !c.HasNulls() {
		return c.Copy(), nil
	}
	if value.Type.storage() != c.dtype.storage() {
		return nil, errors.Wrapf(ErrTypeMismatch, "cannot fill %s with %s", c.dtype, value.Type)
	}
	value.Type = c.dtype
	out := c.Copy()
	for i := 0; i < c.length; i++ {
		if !c.IsValid(i) {
			out.set(i, value)
		}
	}
	out.compactValidity()
	return out, nil
}

// CopyIfElse picks lhs[i] where mask[i] is true and rhs[i] otherwise. Either
// side may be a broadcast Scalar. A null mask entry selects rhs.
func CopyIfElse(lhs, rhs Operand, mask *Column) (*Column, error) {
	if !mask.dtype.IsBoolean() {
		return nil, errors.Wrapf(ErrTypeMismatch, "mask must be boolean, got %s", mask.dtype)
	}
	l, r := newView(lhs), newView(rhs)
	if l.dtype().storage() != r.dtype().storage() {
		return nil, errors.Wrapf(ErrTypeMismatch, "copy_if_else between %s and %s", l.dtype(), r.dtype())
	}
	for _, n := range []int{l.length(), r.length()} {
		if n >= 0 && n != mask.length {
			return nil, errors.Wrapf(ErrLengthMismatch, "operand has %d rows, mask has %d", n, mask.length)
		}
	}
	dtype := l.dtype()
	out := alloc(dtype, mask.length)
	for i := 0; i < mask.length; i++ {
		var s Scalar
		if mask.IsValid(i) && mask.Bool(i) {
			s = l.at(i)
		} else {
			s = r.at(i)
		}
		s.Type = dtype
		out.set(i, s)
	}
	return out, nil
}

// Concat appends columns of the same type.
func Concat(cols ...*Column) (*Column, error) {
	if len(cols) == 0 {
		return nil, errors.Wrap(ErrInvalidInput, "concat of zero columns")
	}
	dtype := cols[0].dtype
	total := 0
	for _, c := range cols {
		if c.dtype != dtype {
			return nil, errors.Wrapf(ErrTypeMismatch, "concat of %s and %s", dtype, c.dtype)
		}
		total += c.length
	}
	out := alloc(dtype, total)
	at := 0
	for _, c := range cols {
		for i := 0; i < c.length; i++ {
			out.set(at, c.Scalar(i))
			at++
		}
	}
	return out, nil
}

// IsIn returns a Boolean column that is true where c's value appears among
// the valid elements of values. Null elements of c yield false.
func IsIn(c *Column, values *Column) (*Column, error) {
	if c.dtype.storage() != values.dtype.storage() {
		return nil, errors.Wrapf(ErrTypeMismatch, "isin of %s against %s", c.dtype, values.dtype)
	}
	set := make(map[Scalar]struct{}, values.length)
	for i := 0; i < values.length; i++ {
		if values.IsValid(i) {
			s := values.Scalar(i)
			s.Type = c.dtype
			set[s] = struct{}{}
		}
	}
	out := alloc(Boolean, c.length)
	for i := 0; i < c.length; i++ {
		if c.IsValid(i) {
			_, ok := set[c.Scalar(i)]
			out.set(i, BoolScalar(ok))
		}
	}
	return out, nil
}

// Unique reports whether the valid elements of c are pairwise distinct.
func Unique(c *Column) bool {
	seen := make(map[Scalar]struct{}, c.length)
	for i := 0; i < c.length; i++ {
		if !c.IsValid(i) {
			continue
		}
		s := c.Scalar(i)
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}

func checkMask(c, mask *Column) error {
	if !mask.dtype.IsBoolean() {
		return errors.Wrapf(ErrTypeMismatch, "mask must be boolean, got %s", mask.dtype)
	}
	if mask.length != c.length {
		return errors.Wrapf(ErrLengthMismatch, "mask has %d rows, column has %d", mask.length, c.length)
	}
	return nil
}
