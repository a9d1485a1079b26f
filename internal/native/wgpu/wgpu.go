//go:build webgpu

// Package wgpu is a foo driver that exposes the host's WebGPU adapter as device 0.
// Kernels run on the host; the adapter only decides whether a device exists.
//
// Build with -tags webgpu. The wgpu_native library must be loadable at runtime.
package wgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/backend/cpu"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/tensor"
)

// Name is the driver name wgpu registers under.
const Name = "webgpu"

func init() {
	native.Register(Name, func(opts native.Options) (native.Extension, error) {
		return New(opts)
	})
}

// Extension is the WebGPU-probing driver.
type Extension struct {
	mu      sync.Mutex
	devices []native.DeviceInfo
	current int
}

var (
	_ native.DeviceCounter   = (*Extension)(nil)
	_ native.DeviceDescriber = (*Extension)(nil)
)

// New probes for a WebGPU adapter. A missing adapter is not an error: the driver
// then reports zero devices.
func New(_ native.Options) (*Extension, error) {
	ext := &Extension{}
	available, err := probe()
	if err != nil {
		return nil, err
	}
	if available {
		ext.devices = []native.DeviceInfo{{
			Index:     0,
			Name:      "WebGPU adapter",
			UUID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte("webgpu:0")),
			Available: true,
		}}
	}
	klog.V(1).Infof("webgpu: %d adapter(s) found", len(ext.devices))
	return ext, nil
}

// probe requests the default adapter. The native library panics when it cannot be
// loaded; that is reported as ErrBackendUnavailable.
func probe() (available bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			available = false
			err = errors.Wrapf(native.ErrBackendUnavailable, "webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return false, errors.Wrapf(native.ErrBackendUnavailable, "webgpu: creating instance: %v", instanceErr)
	}
	defer instance.Release()

	adapter, adapterErr := instance.RequestAdapter(nil)
	if adapterErr != nil {
		klog.V(1).Infof("webgpu: no adapter: %v", adapterErr)
		return false, nil
	}
	adapter.Release()
	return true, nil
}

// Name implements native.Extension.
func (w *Extension) Name() string {
	return Name
}

// GetDeviceCount implements native.DeviceCounter.
func (w *Extension) GetDeviceCount() (int, error) {
	return len(w.devices), nil
}

// DeviceInfo implements native.DeviceDescriber.
func (w *Extension) DeviceInfo(index int) (native.DeviceInfo, error) {
	if err := w.check(index); err != nil {
		return native.DeviceInfo{}, err
	}
	return w.devices[index], nil
}

// CurrentDevice implements native.Extension.
func (w *Extension) CurrentDevice() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// SetDevice implements native.Extension.
func (w *Extension) SetDevice(index int) error {
	if err := w.check(index); err != nil {
		return err
	}
	w.mu.Lock()
	w.current = index
	w.mu.Unlock()
	return nil
}

// Add implements native.Extension.
func (w *Extension) Add(device int, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := w.check(device); err != nil {
		return nil, err
	}
	return cpu.NewOn(tensor.Foo(device)).Add(a, b)
}

// Multiply implements native.Extension.
func (w *Extension) Multiply(device int, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := w.check(device); err != nil {
		return nil, err
	}
	return cpu.NewOn(tensor.Foo(device)).Multiply(a, b)
}

// Close implements native.Extension.
func (w *Extension) Close() error {
	return nil
}

func (w *Extension) check(index int) error {
	if index < 0 || index >= len(w.devices) {
		return errors.Errorf("webgpu: device index %d out of range [0, %d)", index, len(w.devices))
	}
	return nil
}
