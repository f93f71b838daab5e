package column

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

var timeUnits = map[DataType]arrow.TimeUnit{
	DatetimeSeconds: arrow.Second,
	DatetimeMillis:  arrow.Millisecond,
	DatetimeMicros:  arrow.Microsecond,
	DatetimeNanos:   arrow.Nanosecond,
	DurationSeconds: arrow.Second,
	DurationMillis:  arrow.Millisecond,
	DurationMicros:  arrow.Microsecond,
	DurationNanos:   arrow.Nanosecond,
}

// ArrowType maps dtype to its arrow equivalent. tz tags datetime types and is
// ignored for every other family.
func ArrowType(dtype DataType, tz string) (arrow.DataType, error) {
	switch dtype {
	case Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case UInt8:
		return arrow.PrimitiveTypes.Uint8, nil
	case UInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case UInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case String:
		return arrow.BinaryTypes.String, nil
	case Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	}
	if unit, ok := timeUnits[dtype]; ok {
		if dtype.IsDatetime() {
			return &arrow.TimestampType{Unit: unit, TimeZone: tz}, nil
		}
		return &arrow.DurationType{Unit: unit}, nil
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "no arrow type for %s", dtype)
}

// FromArrowType maps an arrow type back to a DataType and, for timestamps,
// the zone it carries.
func FromArrowType(dt arrow.DataType) (DataType, string, error) {
	switch t := dt.(type) {
	case *arrow.TimestampType:
		for dtype, unit := range timeUnits {
			if dtype.IsDatetime() && unit == t.Unit {
				return dtype, t.TimeZone, nil
			}
		}
	case *arrow.DurationType:
		for dtype, unit := range timeUnits {
			if dtype.IsDuration() && unit == t.Unit {
				return dtype, "", nil
			}
		}
	}
	switch dt.ID() {
	case arrow.INT8:
		return Int8, "", nil
	case arrow.INT16:
		return Int16, "", nil
	case arrow.INT32:
		return Int32, "", nil
	case arrow.INT64:
		return Int64, "", nil
	case arrow.UINT8:
		return UInt8, "", nil
	case arrow.UINT16:
		return UInt16, "", nil
	case arrow.UINT32:
		return UInt32, "", nil
	case arrow.UINT64:
		return UInt64, "", nil
	case arrow.FLOAT32:
		return Float32, "", nil
	case arrow.FLOAT64:
		return Float64, "", nil
	case arrow.STRING:
		return String, "", nil
	case arrow.BOOL:
		return Boolean, "", nil
	}
	return Invalid, "", errors.Wrapf(ErrTypeMismatch, "unsupported arrow type %s", dt)
}

// ToArrow exports c as an arrow array. Boolean and 8-byte columns share c's
// buffers; narrower types and strings are copied into memory from mem.
// Datetime columns are tagged with tz. The caller owns the returned array
// and must Release it.
func ToArrow(c *Column, mem memory.Allocator, tz string) (arrow.Array, error) {
	dt, err := ArrowType(c.dtype, tz)
	if err != nil {
		return nil, err
	}
	if c.data != nil && (c.dtype.ItemSize() == 8 || c.dtype == Boolean) {
		data := array.NewData(dt, c.length, []*memory.Buffer{c.validity, c.data}, nil, c.NullCount(), c.offset)
		defer data.Release()
		return array.MakeFromData(data), nil
	}
	b := array.NewBuilder(mem, dt)
	defer b.Release()
	b.Reserve(c.length)
	for i := 0; i < c.length; i++ {
		if !c.IsValid(i) {
			b.AppendNull()
			continue
		}
		switch bb := b.(type) {
		case *array.Int8Builder:
			bb.Append(int8(c.ints[i]))
		case *array.Int16Builder:
			bb.Append(int16(c.ints[i]))
		case *array.Int32Builder:
			bb.Append(int32(c.ints[i]))
		case *array.Int64Builder:
			bb.Append(c.ints[i])
		case *array.Uint8Builder:
			bb.Append(uint8(c.ints[i]))
		case *array.Uint16Builder:
			bb.Append(uint16(c.ints[i]))
		case *array.Uint32Builder:
			bb.Append(uint32(c.ints[i]))
		case *array.Uint64Builder:
			bb.Append(uint64(c.ints[i]))
		case *array.Float32Builder:
			bb.Append(float32(c.floats[i]))
		case *array.Float64Builder:
			bb.Append(c.floats[i])
		case *array.StringBuilder:
			bb.Append(c.strs[i])
		case *array.BooleanBuilder:
			bb.Append(c.Bool(i))
		case *array.TimestampBuilder:
			bb.Append(arrow.Timestamp(c.ints[i]))
		case *array.DurationBuilder:
			bb.Append(arrow.Duration(c.ints[i]))
		default:
			return nil, errors.Wrapf(ErrTypeMismatch, "no arrow builder for %s", c.dtype)
		}
	}
	return b.NewArray(), nil
}

// FromArrow copies an arrow array into a Column. For timestamp arrays the
// zone tag is returned alongside.
func FromArrow(arr arrow.Array) (*Column, string, error) {
	dtype, tz, err := FromArrowType(arr.DataType())
	if err != nil {
		return nil, "", err
	}
	n := arr.Len()
	out := alloc(dtype, n)
	for i := 0; i < n; i++ {
		if arr.IsNull(i) {
			out.setNull(i)
			continue
		}
		switch a := arr.(type) {
		case *array.Int8:
			out.ints[i] = int64(a.Value(i))
		case *array.Int16:
			out.ints[i] = int64(a.Value(i))
		case *array.Int32:
			out.ints[i] = int64(a.Value(i))
		case *array.Int64:
			out.ints[i] = a.Value(i)
		case *array.Uint8:
			out.ints[i] = int64(a.Value(i))
		case *array.Uint16:
			out.ints[i] = int64(a.Value(i))
		case *array.Uint32:
			out.ints[i] = int64(a.Value(i))
		case *array.Uint64:
			out.ints[i] = int64(a.Value(i))
		case *array.Float32:
			out.floats[i] = float64(a.Value(i))
		case *array.Float64:
			out.floats[i] = a.Value(i)
		case *array.String:
			out.strs[i] = a.Value(i)
		case *array.Boolean:
			bitutil.SetBitTo(out.data.Bytes(), i, a.Value(i))
		case *array.Timestamp:
			out.ints[i] = int64(a.Value(i))
		case *array.Duration:
			out.ints[i] = int64(a.Value(i))
		default:
			return nil, "", errors.Wrapf(ErrTypeMismatch, "unsupported arrow array %T", arr)
		}
	}
	return out, tz, nil
}

// FromBuffer builds a column of size elements from a raw little-endian data
// buffer and an optional validity bitmap, starting at element offset. Only
// 8-byte element types are accepted. The data buffer length must be a
// multiple of the element width and cover offset+size elements.
func FromBuffer(dtype DataType, data, mask *memory.Buffer, size, offset int) (*Column, error) {
	if dtype.ItemSize() != 8 || dtype == Invalid {
		return nil, errors.Wrapf(ErrInvalidInput, "raw buffers are only accepted for 8-byte types, got %s", dtype)
	}
	if data == nil {
		return nil, errors.Wrap(ErrInvalidInput, "nil data buffer")
	}
	if size < 0 || offset < 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "negative size %d or offset %d", size, offset)
	}
	raw := data.Bytes()
	if len(raw)%8 != 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "buffer of %d bytes is not a multiple of the %s item size", len(raw), dtype)
	}
	if len(raw)/8 < offset+size {
		return nil, errors.Wrapf(ErrInvalidInput, "buffer holds %d elements, need %d", len(raw)/8, offset+size)
	}
	var bitmap []byte
	if mask != nil {
		bitmap = mask.Bytes()
		if int64(len(bitmap)) < bitutil.BytesForBits(int64(offset+size)) {
			return nil, errors.Wrapf(ErrInvalidInput, "validity bitmap of %d bytes covers fewer than %d elements", len(bitmap), offset+size)
		}
	}
	out := alloc(dtype, size)
	if dtype.storage() == storageFloat {
		copy(out.floats, arrow.Float64Traits.CastFromBytes(raw)[offset:offset+size])
	} else {
		copy(out.ints, arrow.Int64Traits.CastFromBytes(raw)[offset:offset+size])
	}
	for i := 0; i < size && bitmap != nil; i++ {
		if !bitutil.BitIsSet(bitmap, offset+i) {
			out.setNull(i)
		}
	}
	return out, nil
}
