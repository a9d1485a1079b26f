// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - All dtypes, with float16 and bfloat16 computed in float32
//   - NumPy-style broadcasting with category-based type promotion
//   - Chunked parallel kernels for large outputs
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/foo/backend/cpu"
//	    "github.com/born-ml/foo/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    a, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
//	    b, _ := tensor.FromSlice([]float32{10}, tensor.Shape{1}, tensor.CPU)
//	    c, _ := backend.Add(a, b) // [11 12 13]
//	}
//
// The foo simulation driver uses these kernels for its devices.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu
