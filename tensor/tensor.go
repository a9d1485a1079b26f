// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/foo/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types with a native Go representation.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32  DataType = tensor.Float32
	Float64  DataType = tensor.Float64
	Int32    DataType = tensor.Int32
	Int64    DataType = tensor.Int64
	Uint8    DataType = tensor.Uint8
	Bool     DataType = tensor.Bool
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
)

// Device identifies where tensor data resides: the host or a foo accelerator.
type Device = tensor.Device

// DeviceType distinguishes the host from foo accelerators.
type DeviceType = tensor.DeviceType

// Device types.
const (
	CPUType DeviceType = tensor.CPUType
	FooType DeviceType = tensor.FooType
)

// CPU is the host device.
var CPU = tensor.CPU

// Foo returns the foo accelerator with the given index.
func Foo(index int) Device {
	return tensor.Foo(index)
}

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Errors returned by tensor operations. Test for them with errors.Is.
var (
	ErrShapeMismatch    = tensor.ErrShapeMismatch
	ErrDeviceMismatch   = tensor.ErrDeviceMismatch
	ErrUnsupportedDType = tensor.ErrUnsupportedDType
	ErrNilTensor        = tensor.ErrNilTensor
)

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	a, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// FromFloat64s creates a tensor of any supported dtype, including Float16 and
// BFloat16, from float64 values.
func FromFloat64s(data []float64, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.FromFloat64s(data, shape, dtype, device)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype, device)
}

// BroadcastShapes returns the shape two operands broadcast to.
func BroadcastShapes(a, b Shape) (Shape, error) {
	out, _, err := tensor.BroadcastShapes(a, b)
	return out, err
}

// PromoteTypes returns the result dtype of a binary operation.
func PromoteTypes(a, b DataType) (DataType, error) {
	return tensor.PromoteTypes(a, b)
}

// ParseDataType parses a dtype name such as "float32" or "bfloat16".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}
