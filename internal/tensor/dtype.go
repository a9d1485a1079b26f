// Package tensor provides the core tensor types shared by the foo backend and its host.
package tensor

import "github.com/pkg/errors"

// DType is a constraint for tensor element types with a native Go representation.
// Float16 and BFloat16 tensors are built with FromFloat64s instead.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8 | ~bool
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Int32
	Int64
	Uint8
	Bool
	Float16
	BFloat16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Float16, BFloat16:
		return 2
	case Uint8, Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Bool:
		return "bool"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the data type is a floating-point type.
func (dt DataType) IsFloat() bool {
	switch dt {
	case Float16, BFloat16, Float32, Float64:
		return true
	}
	return false
}

// IsHalf reports whether the data type is a 16-bit float.
func (dt DataType) IsHalf() bool {
	return dt == Float16 || dt == BFloat16
}

// ParseDataType returns the DataType with the given name, as printed by String.
func ParseDataType(name string) (DataType, error) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8, Bool, Float16, BFloat16} {
		if dt.String() == name {
			return dt, nil
		}
	}
	return 0, errors.Wrapf(ErrUnsupportedDType, "unknown dtype %q", name)
}

// rank orders data types by promotion category. Float16 and BFloat16 share a rank.
func (dt DataType) rank() int {
	switch dt {
	case Bool:
		return 0
	case Uint8:
		return 1
	case Int32:
		return 2
	case Int64:
		return 3
	case Float16, BFloat16:
		return 4
	case Float32:
		return 5
	case Float64:
		return 6
	default:
		return -1
	}
}

// PromoteTypes returns the data type a binary operation on a and b produces.
//
// Rules:
//   - bool < uint8 < int32 < int64 < {float16, bfloat16} < float32 < float64
//   - float16 combined with bfloat16 gives float32
//   - an integer combined with a float gives that float
func PromoteTypes(a, b DataType) (DataType, error) {
	ra, rb := a.rank(), b.rank()
	if ra < 0 || rb < 0 {
		return 0, errors.Wrapf(ErrUnsupportedDType, "cannot promote %s and %s", a, b)
	}
	if a == b {
		return a, nil
	}
	if a.IsHalf() && b.IsHalf() {
		return Float32, nil
	}
	if ra >= rb {
		return a, nil
	}
	return b, nil
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case bool:
		return Bool
	default:
		panic("unsupported type")
	}
}
