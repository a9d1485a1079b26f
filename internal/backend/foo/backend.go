// Package foo is the operator dispatch layer of the foo backend. It validates
// operands (device placement, broadcast shapes, dtype promotion) and forwards them
// to the native driver.
package foo

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/backend/cpu"
	"github.com/born-ml/foo/internal/capability"
	"github.com/born-ml/foo/internal/device"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/tensor"
)

// Name is the name the backend registers under.
const Name = "foo"

// Config selects and configures the native driver.
type Config struct {
	Driver  string
	Options native.Options
}

// FooBackend dispatches tensor operations to a foo native driver.
type FooBackend struct {
	ext     native.Extension
	devices *device.Registry
	probe   *capability.Probe
}

// New wraps an already opened native extension.
func New(ext native.Extension) *FooBackend {
	devices := device.NewRegistry(ext)
	return &FooBackend{
		ext:     ext,
		devices: devices,
		probe:   capability.NewProbe(devices),
	}
}

// Open opens the configured driver and wraps it.
func Open(cfg Config) (*FooBackend, error) {
	ext, err := native.Open(cfg.Driver, cfg.Options)
	if err != nil {
		return nil, err
	}
	return New(ext), nil
}

// Name returns the backend name.
func (f *FooBackend) Name() string {
	return Name
}

// Device returns the currently selected device. When the driver cannot report
// it, Device logs the failure and returns foo:0.
func (f *FooBackend) Device() tensor.Device {
	dev, err := f.devices.Current()
	if err != nil {
		klog.Warningf("foo: %v", err)
		return tensor.Foo(0)
	}
	return dev
}

// Devices returns the device registry.
func (f *FooBackend) Devices() *device.Registry {
	return f.devices
}

// Probe returns the capability probe.
func (f *FooBackend) Probe() *capability.Probe {
	return f.probe
}

// DeviceCount returns the memoized number of devices.
func (f *FooBackend) DeviceCount() (int, error) {
	return f.devices.DeviceCount()
}

// CurrentDevice returns the selected device index.
func (f *FooBackend) CurrentDevice() (int, error) {
	return f.devices.CurrentDevice()
}

// SetDevice selects the device used by operations whose operands are on the host.
func (f *FooBackend) SetDevice(index int) error {
	return f.devices.SetDevice(index)
}

// IsAvailable reports whether at least one device can be used.
func (f *FooBackend) IsAvailable() bool {
	return f.probe.IsAvailable()
}

// AMPSupportedDTypes returns the reduced-precision dtypes, if the driver declares any.
func (f *FooBackend) AMPSupportedDTypes() (capability.DTypeSet, bool) {
	return f.probe.AMPSupportedDTypes()
}

// Close releases the native driver.
func (f *FooBackend) Close() error {
	return f.ext.Close()
}

// Add returns a + b with broadcasting and type promotion.
//
// Operands on foo:<i> run on device i; operands on the host run on the current
// device. Operands on two different foo devices fail with tensor.ErrDeviceMismatch.
func (f *FooBackend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return f.dispatch(cpu.OpAdd, a, b)
}

// Multiply returns a * b with the same broadcasting, promotion and placement rules as Add.
func (f *FooBackend) Multiply(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return f.dispatch(cpu.OpMultiply, a, b)
}

func (f *FooBackend) dispatch(op cpu.BinaryOp, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a == nil || b == nil {
		return nil, errors.Wrapf(tensor.ErrNilTensor, "%s", op)
	}
	dev, err := f.resolveDevice(a.Device(), b.Device())
	if err != nil {
		return nil, errors.WithMessage(err, op.String())
	}
	if n, err := f.devices.DeviceCount(); err == nil && (dev < 0 || dev >= n) {
		return nil, errors.Wrapf(device.ErrInvalidDevice, "%s on %s (have %d)", op, tensor.Foo(dev), n)
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, errors.WithMessage(err, op.String())
	}
	outType, err := tensor.PromoteTypes(a.DType(), b.DType())
	if err != nil {
		return nil, errors.WithMessage(err, op.String())
	}

	var result *tensor.RawTensor
	err = native.Safely(f.ext.Name(), func() (err error) {
		if op == cpu.OpAdd {
			result, err = f.ext.Add(dev, a, b)
		} else {
			result, err = f.ext.Multiply(dev, a, b)
		}
		return err
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "%s on %s", op, tensor.Foo(dev))
	}
	if result == nil || !result.Shape().Equal(outShape) || result.DType() != outType {
		return nil, errors.Wrapf(native.ErrBackendUnavailable,
			"%s: driver %q returned an invalid result (want %v %s)", op, f.ext.Name(), outShape, outType)
	}
	klog.V(3).Infof("foo: %s %v x %v -> %v %s on %s", op, a.Shape(), b.Shape(), outShape, outType, tensor.Foo(dev))
	return result, nil
}

// resolveDevice picks the execution device for two operands.
func (f *FooBackend) resolveDevice(a, b tensor.Device) (int, error) {
	switch {
	case a.IsHost() && b.IsHost():
		return f.devices.CurrentDevice()
	case a.IsHost():
		return b.Index, nil
	case b.IsHost():
		return a.Index, nil
	case a.Index != b.Index:
		return 0, errors.Wrapf(tensor.ErrDeviceMismatch, "operands on %s and %s", a, b)
	default:
		return a.Index, nil
	}
}
