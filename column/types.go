package column

import "fmt"

// DataType represents a column data type using bit-packed encoding
type DataType uint32

// Type families (high 16 bits)
const (
	FamilyInteger  = 0x0000_0000 // 0x0000_XXXX
	FamilyFloat    = 0x0001_0000 // 0x0001_XXXX
	FamilyString   = 0x0002_0000 // 0x0002_XXXX
	FamilyDatetime = 0x0003_0000 // 0x0003_XXXX
	FamilyBoolean  = 0x0004_0000 // 0x0004_XXXX
	FamilyDuration = 0x0005_0000 // 0x0005_XXXX

	familyMask = 0xFFFF_0000
)

// DataType constants using bit-packed encoding
const (
	Invalid DataType = 0xFFFF_FFFF

	// Integer types (0x0000_XXXX)
	Int8   DataType = FamilyInteger | 0x0001
	Int16  DataType = FamilyInteger | 0x0002
	Int32  DataType = FamilyInteger | 0x0003
	Int64  DataType = FamilyInteger | 0x0004
	UInt8  DataType = FamilyInteger | 0x0005
	UInt16 DataType = FamilyInteger | 0x0006
	UInt32 DataType = FamilyInteger | 0x0007
	UInt64 DataType = FamilyInteger | 0x0008

	// Float types (0x0001_XXXX)
	Float32 DataType = FamilyFloat | 0x0001
	Float64 DataType = FamilyFloat | 0x0002

	// String types (0x0002_XXXX)
	String DataType = FamilyString | 0x0001

	// Datetime types (0x0003_XXXX), low bits order resolutions coarse to fine
	DatetimeSeconds DataType = FamilyDatetime | 0x0001
	DatetimeMillis  DataType = FamilyDatetime | 0x0002
	DatetimeMicros  DataType = FamilyDatetime | 0x0003
	DatetimeNanos   DataType = FamilyDatetime | 0x0004

	// Boolean (0x0004_XXXX)
	Boolean DataType = FamilyBoolean | 0x0001

	// Duration types (0x0005_XXXX), same resolution ordering as datetimes
	DurationSeconds DataType = FamilyDuration | 0x0001
	DurationMillis  DataType = FamilyDuration | 0x0002
	DurationMicros  DataType = FamilyDuration | 0x0003
	DurationNanos   DataType = FamilyDuration | 0x0004
)

// Family returns the type family bits of the data type.
func (t DataType) Family() uint32 {
	return uint32(t) & familyMask
}

func (t DataType) IsInteger() bool  { return t != Invalid && t.Family() == FamilyInteger }
func (t DataType) IsFloat() bool    { return t.Family() == FamilyFloat }
func (t DataType) IsNumeric() bool  { return t.IsInteger() || t.IsFloat() }
func (t DataType) IsBoolean() bool  { return t.Family() == FamilyBoolean }
func (t DataType) IsString() bool   { return t.Family() == FamilyString }
func (t DataType) IsDatetime() bool { return t.Family() == FamilyDatetime }
func (t DataType) IsDuration() bool { return t.Family() == FamilyDuration }

// IsTemporal reports whether values are int64 ticks (datetime or duration).
func (t DataType) IsTemporal() bool { return t.IsDatetime() || t.IsDuration() }

// storage classifies the Go slice backing a column of this type.
type storage int

const (
	storageInt storage = iota
	storageFloat
	storageBool
	storageString
)

func (t DataType) storage() storage {
	switch {
	case t.IsFloat():
		return storageFloat
	case t.IsBoolean():
		return storageBool
	case t.IsString():
		return storageString
	default:
		return storageInt
	}
}

// ItemSize returns the fixed element width in bytes, or 0 for strings.
func (t DataType) ItemSize() int {
	switch t {
	case Int8, UInt8, Boolean:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case String:
		return 0
	default:
		return 8
	}
}

func (t DataType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case String:
		return "str"
	case Boolean:
		return "bool"
	case DatetimeSeconds:
		return "datetime64[s]"
	case DatetimeMillis:
		return "datetime64[ms]"
	case DatetimeMicros:
		return "datetime64[us]"
	case DatetimeNanos:
		return "datetime64[ns]"
	case DurationSeconds:
		return "timedelta64[s]"
	case DurationMillis:
		return "timedelta64[ms]"
	case DurationMicros:
		return "timedelta64[us]"
	case DurationNanos:
		return "timedelta64[ns]"
	default:
		return fmt.Sprintf("DataType(0x%08X)", uint32(t))
	}
}
