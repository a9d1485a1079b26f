// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor types shared by the Born foo backend and the
// host framework.
//
// # Overview
//
// A RawTensor is a flat row-major buffer with a Shape, a DataType and a Device.
// Devices are either the host (CPU) or a foo accelerator (Foo(i), printed "foo:i").
//
// Binary operations follow these rules:
//   - Broadcasting: shapes are aligned from the trailing dimension and each pair of
//     dimensions must be equal or one of them 1.
//   - Promotion: bool < uint8 < int32 < int64 < {float16, bfloat16} < float32 < float64.
//     float16 combined with bfloat16 gives float32.
//
// # Basic Usage
//
//	a, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
//	h, _ := tensor.FromFloat64s([]float64{1, 2, 3}, tensor.Shape{3}, tensor.Float16, tensor.CPU)
//	dt, _ := tensor.PromoteTypes(a.DType(), h.DType()) // float32
package tensor
