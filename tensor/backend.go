// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/foo/internal/registry"

// Backend defines the interface that all compute backends implement.
// Operations never modify their operands and always allocate the result.
//
// Implementations:
//   - backend/cpu: Pure Go host kernels
//   - backend/foo: foo accelerators through a native driver
//
// Example:
//
//	import (
//	    "github.com/born-ml/foo/backend/foo"
//	    "github.com/born-ml/foo/tensor"
//	)
//
//	backend, err := foo.New()
//	a, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
//	b, _ := tensor.FromSlice([]float32{10}, tensor.Shape{1}, tensor.CPU)
//	c, err := backend.Add(a, b) // [11 12 13] on foo:0
type Backend = registry.Backend
