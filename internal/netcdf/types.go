package netcdf

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotNetCDF is returned when the input does not start with a classic NetCDF magic.
	ErrNotNetCDF = errors.New("netcdf: not a classic netcdf file")

	// ErrMalformed is returned when the header or data section is inconsistent.
	ErrMalformed = errors.New("netcdf: malformed file")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Type is a NetCDF external data type.
type Type int32

// Classic data types.
const (
	Byte   Type = 1
	Char   Type = 2
	Short  Type = 3
	Int    Type = 4
	Float  Type = 5
	Double Type = 6
)

// Size returns the encoded size of one value in bytes.
func (t Type) Size() int {
	switch t {
	case Byte, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Double:
		return 8
	default:
		return 0
	}
}

// String returns the CDL name of the type.
func (t Type) String() string {
	switch t {
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("type(%d)", int32(t))
	}
}

// DefaultFill returns the library default fill value for the type.
func (t Type) DefaultFill() float64 {
	switch t {
	case Byte:
		return -127
	case Char:
		return 0
	case Short:
		return -32767
	case Int:
		return -2147483647
	case Float:
		return float64(float32(9.9692099683868690e+36))
	default:
		return 9.9692099683868690e+36
	}
}

// Header list tags.
const (
	tagDimension = 0x0A
	tagVariable  = 0x0B
	tagAttribute = 0x0C
)

// streamingRecords marks a numrecs field that was never finalised.
const streamingRecords = math.MaxUint32

func pad4(n int64) int64 {
	return (n + 3) &^ 3
}

// Dimension is a named axis length. The unlimited dimension has Len equal
// to the number of records in the file.
type Dimension struct {
	Name      string
	Len       int
	Unlimited bool
}

// Attribute is a named attribute value. Char attributes populate Text,
// numeric attributes populate Values.
type Attribute struct {
	Name   string
	Type   Type
	Text   string
	Values []float64
}

// Float returns the first numeric value.
func (a Attribute) Float() (float64, bool) {
	if len(a.Values) == 0 {
		return 0, false
	}
	return a.Values[0], true
}
