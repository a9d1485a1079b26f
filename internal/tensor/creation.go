package tensor

import "github.com/pkg/errors"

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	a, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), device)
	if err != nil {
		return nil, err
	}
	if len(data) != raw.NumElements() {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d values do not fill shape %v", len(data), shape)
	}

	switch dst := any(raw.typedSlice()).(type) {
	case []T:
		copy(dst, data)
	default:
		panic("FromSlice: dtype/element type mismatch")
	}
	return raw, nil
}

// FromFloat64s creates a tensor of any supported dtype from float64 values.
// This is the constructor for Float16 and BFloat16 tensors.
//
// Example:
//
//	h, err := tensor.FromFloat64s([]float64{1, 2, 3}, tensor.Shape{3}, tensor.Float16, tensor.CPU)
func FromFloat64s(data []float64, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	if err := raw.SetFloat64s(data); err != nil {
		return nil, errors.WithMessagef(err, "shape %v", shape)
	}
	return raw, nil
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return NewRaw(shape, dtype, device)
}

// typedSlice returns the Go-typed view of the buffer for dtypes with a native element type.
func (r *RawTensor) typedSlice() any {
	switch r.dtype {
	case Float32:
		return r.AsFloat32()
	case Float64:
		return r.AsFloat64()
	case Int32:
		return r.AsInt32()
	case Int64:
		return r.AsInt64()
	case Uint8:
		return r.AsUint8()
	case Bool:
		return r.AsBool()
	default:
		return nil
	}
}
