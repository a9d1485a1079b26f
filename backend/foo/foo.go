// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package foo is the foo accelerator backend for Born.
//
// Importing the package registers an autoload entry point with the host backend
// registry. When the host initializes with autoload enabled, the entry point
// registers the backend under the name "foo".
//
// Example:
//
//	import (
//	    "github.com/born-ml/foo/backend/foo"
//	    "github.com/born-ml/foo/tensor"
//	)
//
//	func main() {
//	    backend, err := foo.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer backend.Close()
//
//	    if !backend.IsAvailable() {
//	        return
//	    }
//	    a, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU)
//	    b, _ := tensor.FromSlice([]float32{4, 5, 6}, tensor.Shape{3}, tensor.CPU)
//	    c, err := backend.Multiply(a, b) // [4 10 18] on foo:0
//	}
package foo

import (
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/autoload"
	internalfoo "github.com/born-ml/foo/internal/backend/foo"
	"github.com/born-ml/foo/internal/capability"
	"github.com/born-ml/foo/internal/device"
	"github.com/born-ml/foo/internal/envconfig"
	"github.com/born-ml/foo/internal/native"
	_ "github.com/born-ml/foo/internal/native/sim" // default driver
	"github.com/born-ml/foo/internal/registry"
	"github.com/born-ml/foo/tensor"
)

// Name is the name the backend registers under.
const Name = internalfoo.Name

// Backend is the foo backend.
type Backend = internalfoo.FooBackend

// Config selects the native driver and its options.
type Config = internalfoo.Config

// Capability negotiation types.
type (
	Feature      = capability.Feature
	Capabilities = capability.Capabilities
	DTypeSet     = capability.DTypeSet
	DeviceInfo   = native.DeviceInfo
)

// Features.
const (
	FeatureDeviceCount   = capability.FeatureDeviceCount
	FeatureAMP           = capability.FeatureAMP
	FeatureRNGState      = capability.FeatureRNGState
	FeatureForkDetection = capability.FeatureForkDetection
)

// Errors. Shape and device mismatches are tensor.ErrShapeMismatch and
// tensor.ErrDeviceMismatch.
var (
	ErrBackendUnavailable = native.ErrBackendUnavailable
	ErrNotImplemented     = capability.ErrNotImplemented
	ErrInvalidDevice      = device.ErrInvalidDevice
)

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

func init() {
	registry.RegisterEntryPoint(Name, autoloadHook)
}

// ConfigFromEnv builds a Config from BORN_FOO_DRIVER and BORN_FOO_SIM_DEVICES.
func ConfigFromEnv() Config {
	return Config{
		Driver:  envconfig.Driver(),
		Options: native.Options{Devices: envconfig.SimDevices()},
	}
}

// New opens the backend configured by the environment.
func New() (*Backend, error) {
	return internalfoo.Open(ConfigFromEnv())
}

// Open opens the backend with an explicit configuration.
func Open(cfg Config) (*Backend, error) {
	return internalfoo.Open(cfg)
}

// Autoload is the host import hook. It registers the backend with the default
// host registry while the host's own autoload is suppressed, then restores
// BORN_DEVICE_BACKEND_AUTOLOAD to its original value. Failures are logged.
func Autoload() {
	if err := autoloadHook(); err != nil {
		klog.Errorf("foo: autoload failed: %v", err)
	}
}

func autoloadHook() error {
	cfg := ConfigFromEnv()
	hook := autoload.New(registry.Default, autoload.Config{
		Autoload: envconfig.Autoload(),
		Driver:   cfg.Driver,
		Options:  cfg.Options,
	})
	return envconfig.WithAutoloadSuppressed(hook.Run)
}
