//go:build webgpu

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package foo

// Building with -tags webgpu links the WebGPU driver; select it with
// BORN_FOO_DRIVER=webgpu.
import _ "github.com/born-ml/foo/internal/native/wgpu"
