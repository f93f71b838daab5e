// Package column implements the typed, nullable columns that the temporal and
// frame packages operate on.
//
// A Column is an immutable value: every kernel returns a new Column. Columns
// created with Reinterpret or Slice share their backing buffers with the
// source column and must be treated as read-only views by both handles.
package column

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// Column is a typed sequence of values with an optional validity bitmap.
//
// Values live in arrow buffers laid out the way arrow arrays lay them out:
// integer, datetime and duration values as little-endian int64, floats as
// float64 and booleans bit-packed. Validity is an arrow bitmap; a nil bitmap
// means every element is valid. offset is the element offset of a slice
// view into data and validity. Strings are kept as a Go slice.
type Column struct {
	dtype    DataType
	length   int
	offset   int
	data     *memory.Buffer
	ints     []int64   // view of data[offset:offset+length]
	floats   []float64 // view of data[offset:offset+length]
	strs     []string
	validity *memory.Buffer
}

func newBuffer(size int) *memory.Buffer {
	return memory.NewBufferBytes(make([]byte, size))
}

func bitmapBytes(n int) int { return int(bitutil.BytesForBits(int64(n))) }

// FromInt64s creates an integer, datetime or duration column. The column
// shares values.
func FromInt64s(dtype DataType, values []int64, valid []bool) (*Column, error) {
	if dtype.storage() != storageInt || dtype == Invalid {
		return nil, errors.Wrapf(ErrInvalidInput, "dtype %s is not backed by int64 values", dtype)
	}
	if err := checkValidity(len(values), valid); err != nil {
		return nil, err
	}
	return &Column{
		dtype:    dtype,
		length:   len(values),
		data:     memory.NewBufferBytes(arrow.Int64Traits.CastToBytes(values)),
		ints:     values,
		validity: packValidity(valid),
	}, nil
}

// FromFloat64s creates a Float64 column. The column shares values.
func FromFloat64s(values []float64, valid []bool) (*Column, error) {
	if err := checkValidity(len(values), valid); err != nil {
		return nil, err
	}
	return &Column{
		dtype:    Float64,
		length:   len(values),
		data:     memory.NewBufferBytes(arrow.Float64Traits.CastToBytes(values)),
		floats:   values,
		validity: packValidity(valid),
	}, nil
}

// FromBools creates a Boolean column.
func FromBools(values []bool, valid []bool) (*Column, error) {
	if err := checkValidity(len(values), valid); err != nil {
		return nil, err
	}
	c := alloc(Boolean, len(values))
	for i, v := range values {
		if v {
			bitutil.SetBit(c.data.Bytes(), i)
		}
	}
	c.validity = packValidity(valid)
	return c, nil
}

// FromStrings creates a String column.
func FromStrings(values []string, valid []bool) (*Column, error) {
	if err := checkValidity(len(values), valid); err != nil {
		return nil, err
	}
	return &Column{dtype: String, length: len(values), strs: values, validity: packValidity(valid)}, nil
}

// Full creates a column of n copies of s.
func Full(s Scalar, n int) *Column {
	c := alloc(s.Type, n)
	for i := 0; i < n; i++ {
		c.set(i, s)
	}
	return c
}

// Nulls creates a column of n null values of the given type.
func Nulls(dtype DataType, n int) *Column {
	return Full(NullScalar(dtype), n)
}

func checkValidity(n int, valid []bool) error {
	if valid != nil && len(valid) != n {
		return errors.Wrapf(ErrInvalidInput, "validity mask has %d entries for %d values", len(valid), n)
	}
	return nil
}

// packValidity converts a bool mask to an arrow validity bitmap. A mask that
// marks every element valid packs to nil.
func packValidity(valid []bool) *memory.Buffer {
	nulls := false
	for _, v := range valid {
		if !v {
			nulls = true
			break
		}
	}
	if !nulls {
		return nil
	}
	buf := newBuffer(bitmapBytes(len(valid)))
	for i, v := range valid {
		if v {
			bitutil.SetBit(buf.Bytes(), i)
		}
	}
	return buf
}

// alloc creates an all-valid zeroed column with room for n values.
func alloc(dtype DataType, n int) *Column {
	c := &Column{dtype: dtype, length: n}
	switch dtype.storage() {
	case storageInt:
		c.data = newBuffer(n * arrow.Int64SizeBytes)
		c.ints = arrow.Int64Traits.CastFromBytes(c.data.Bytes())
	case storageFloat:
		c.data = newBuffer(n * arrow.Float64SizeBytes)
		c.floats = arrow.Float64Traits.CastFromBytes(c.data.Bytes())
	case storageBool:
		c.data = newBuffer(bitmapBytes(n))
	case storageString:
		c.strs = make([]string, n)
	}
	return c
}

// setNull marks element i missing, materializing the bitmap on first use.
func (c *Column) setNull(i int) {
	if c.validity == nil {
		c.validity = newBuffer(bitmapBytes(c.offset + c.length))
		bitutil.SetBitsTo(c.validity.Bytes(), int64(c.offset), int64(c.length), true)
	}
	bitutil.ClearBit(c.validity.Bytes(), c.offset+i)
}

// compactValidity drops a bitmap that marks every element valid.
func (c *Column) compactValidity() {
	if c.validity != nil && c.NullCount() == 0 {
		c.validity = nil
	}
}

// set stores s at position i; s must share c's storage class.
func (c *Column) set(i int, s Scalar) {
	if !s.Valid {
		c.setNull(i)
		return
	}
	if c.validity != nil {
		bitutil.SetBit(c.validity.Bytes(), c.offset+i)
	}
	switch c.dtype.storage() {
	case storageInt:
		c.ints[i] = s.Int
	case storageFloat:
		c.floats[i] = s.Float
	case storageBool:
		bitutil.SetBitTo(c.data.Bytes(), c.offset+i, s.Bool)
	case storageString:
		c.strs[i] = s.Str
	}
}

// DataType returns the column's type.
func (c *Column) DataType() DataType { return c.dtype }

// Len returns the number of elements.
func (c *Column) Len() int { return c.length }

// IsValid reports whether element i is present.
func (c *Column) IsValid(i int) bool {
	return c.validity == nil || bitutil.BitIsSet(c.validity.Bytes(), c.offset+i)
}

// NullCount returns the number of missing elements.
func (c *Column) NullCount() int {
	if c.validity == nil {
		return 0
	}
	return c.length - bitutil.CountSetBits(c.validity.Bytes(), c.offset, c.length)
}

// HasNulls reports whether any element is missing.
func (c *Column) HasNulls() bool { return c.NullCount() > 0 }

// Int64 returns the raw integer value at i. The result is undefined for nulls.
func (c *Column) Int64(i int) int64 { return c.ints[i] }

// Float64 returns the raw float value at i.
func (c *Column) Float64(i int) float64 { return c.floats[i] }

// Bool returns the raw boolean value at i.
func (c *Column) Bool(i int) bool { return bitutil.BitIsSet(c.data.Bytes(), c.offset+i) }

// Str returns the raw string value at i.
func (c *Column) Str(i int) string { return c.strs[i] }

// Int64Values returns the backing int64 slice. Callers must not modify it.
func (c *Column) Int64Values() []int64 { return c.ints }

// Float64Values returns the backing float64 slice. Callers must not modify it.
func (c *Column) Float64Values() []float64 { return c.floats }

// BoolValues unpacks the boolean values.
func (c *Column) BoolValues() []bool {
	out := make([]bool, c.length)
	for i := range out {
		out[i] = c.Bool(i)
	}
	return out
}

// StringValues returns the backing string slice. Callers must not modify it.
func (c *Column) StringValues() []string { return c.strs }

// Validity unpacks the validity bitmap, or returns nil if there are no nulls.
func (c *Column) Validity() []bool {
	if c.NullCount() == 0 {
		return nil
	}
	out := make([]bool, c.length)
	for i := range out {
		out[i] = c.IsValid(i)
	}
	return out
}

// Buffers returns the arrow validity and data buffers backing c and the
// element offset into both. validity is nil when there are no nulls; data
// is nil for strings.
func (c *Column) Buffers() (validity, data *memory.Buffer, offset int) {
	return c.validity, c.data, c.offset
}

// Scalar returns element i as a Scalar.
func (c *Column) Scalar(i int) Scalar {
	if !c.IsValid(i) {
		return NullScalar(c.dtype)
	}
	s := Scalar{Type: c.dtype, Valid: true}
	switch c.dtype.storage() {
	case storageInt:
		s.Int = c.ints[i]
	case storageFloat:
		s.Float = c.floats[i]
	case storageBool:
		s.Bool = c.Bool(i)
	case storageString:
		s.Str = c.strs[i]
	}
	return s
}

// Value returns element i as a Go value, or nil when missing.
func (c *Column) Value(i int) any {
	if !c.IsValid(i) {
		return nil
	}
	switch c.dtype.storage() {
	case storageFloat:
		return c.floats[i]
	case storageBool:
		return c.Bool(i)
	case storageString:
		return c.strs[i]
	default:
		return c.ints[i]
	}
}

// Reinterpret returns a view of c tagged with another type of the same
// storage class. The view shares c's buffers; neither column may be mutated
// while both are alive.
func (c *Column) Reinterpret(dtype DataType) (*Column, error) {
	if dtype.storage() != c.dtype.storage() || dtype == Invalid {
		return nil, errors.Wrapf(ErrTypeMismatch, "cannot reinterpret %s as %s", c.dtype, dtype)
	}
	view := *c
	view.dtype = dtype
	return &view, nil
}

// Copy returns a deep copy of c with a zero offset.
func (c *Column) Copy() *Column {
	out := alloc(c.dtype, c.length)
	switch c.dtype.storage() {
	case storageInt:
		copy(out.ints, c.ints)
	case storageFloat:
		copy(out.floats, c.floats)
	case storageBool:
		bitutil.CopyBitmap(c.data.Bytes(), c.offset, c.length, out.data.Bytes(), 0)
	case storageString:
		copy(out.strs, c.strs)
	}
	out.validity = c.validityCopy()
	return out
}

// validityCopy returns c's validity bitmap rebased to offset zero, or nil
// when there are no nulls.
func (c *Column) validityCopy() *memory.Buffer {
	if c.NullCount() == 0 {
		return nil
	}
	buf := newBuffer(bitmapBytes(c.length))
	bitutil.CopyBitmap(c.validity.Bytes(), c.offset, c.length, buf.Bytes(), 0)
	return buf
}

// Slice returns the elements [offset, offset+length) as a view sharing c's
// buffers.
func (c *Column) Slice(offset, length int) (*Column, error) {
	if offset < 0 || length < 0 || offset+length > c.length {
		return nil, errors.Wrapf(ErrOutOfBounds, "slice [%d:%d] of column with %d rows", offset, offset+length, c.length)
	}
	view := &Column{dtype: c.dtype, length: length, offset: c.offset + offset, data: c.data, validity: c.validity}
	end := offset + length
	switch c.dtype.storage() {
	case storageInt:
		view.ints = c.ints[offset:end]
	case storageFloat:
		view.floats = c.floats[offset:end]
	case storageString:
		view.strs = c.strs[offset:end]
	}
	if view.NullCount() == 0 {
		view.validity = nil
	}
	return view, nil
}

// IsNull returns a Boolean column that is true where c is missing.
func (c *Column) IsNull() *Column {
	out := alloc(Boolean, c.length)
	for i := 0; i < c.length; i++ {
		bitutil.SetBitTo(out.data.Bytes(), i, !c.IsValid(i))
	}
	return out
}

// NotNull returns a Boolean column that is true where c is present.
func (c *Column) NotNull() *Column {
	out := alloc(Boolean, c.length)
	for i := 0; i < c.length; i++ {
		bitutil.SetBitTo(out.data.Bytes(), i, c.IsValid(i))
	}
	return out
}

// String renders element i, using "null" for missing values.
func (c *Column) String(i int) string {
	if !c.IsValid(i) {
		return "null"
	}
	switch c.dtype.storage() {
	case storageFloat:
		return strconv.FormatFloat(c.floats[i], 'g', -1, 64)
	case storageBool:
		return strconv.FormatBool(c.Bool(i))
	case storageString:
		return c.strs[i]
	default:
		return strconv.FormatInt(c.ints[i], 10)
	}
}

// Equal reports whether a and b have the same type, validity and values.
func Equal(a, b *Column) bool {
	if a.dtype != b.dtype || a.length != b.length {
		return false
	}
	for i := 0; i < a.length; i++ {
		if a.IsValid(i) != b.IsValid(i) {
			return false
		}
		if a.IsValid(i) && a.Scalar(i) != b.Scalar(i) {
			return false
		}
	}
	return true
}

// GoString implements fmt.GoStringer for debugging output.
func (c *Column) GoString() string {
	s := fmt.Sprintf("Column<%s>[", c.dtype)
	for i := 0; i < c.length; i++ {
		if i > 0 {
			s += ", "
		}
		s += c.String(i)
	}
	return s + "]"
}
