// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/foo/internal/backend/cpu"
	"github.com/born-ml/foo/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of the element-wise operations
// for every supported dtype, including float16 and bfloat16.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/foo/backend/cpu"
//	    "github.com/born-ml/foo/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    a, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
//	    b, _ := tensor.FromSlice([]float32{4, 5, 6}, tensor.Shape{3}, tensor.CPU)
//	    c, err := backend.Add(a, b) // [5 7 9]
//	}
func New() *Backend {
	return internalcpu.New()
}
