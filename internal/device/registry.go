// Package device tracks the foo devices a native driver exposes and which one is
// selected for the process.
//
// Concurrency: a Registry is safe for concurrent use. The device count is a
// one-time cell filled by the first successful query and read-only afterwards;
// the current-device selector is read and written under the same mutex.
package device

import (
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/tensor"
)

// ErrInvalidDevice reports a device index outside [0, DeviceCount()).
var ErrInvalidDevice = errors.New("invalid device index")

// Registry owns the device bookkeeping for one native extension.
type Registry struct {
	ext native.Extension

	mu      sync.Mutex
	count   int
	counted bool
}

// NewRegistry creates a registry backed by ext.
func NewRegistry(ext native.Extension) *Registry {
	return &Registry{ext: ext}
}

// Extension returns the native extension the registry queries.
func (r *Registry) Extension() native.Extension {
	return r.ext
}

// DeviceCount returns the number of foo devices. The first successful query is
// memoized for the life of the registry: later hardware changes are not seen.
// Failed queries are not memoized.
func (r *Registry) DeviceCount() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceCountLocked()
}

func (r *Registry) deviceCountLocked() (int, error) {
	if r.counted {
		return r.count, nil
	}

	counter, ok := r.ext.(native.DeviceCounter)
	if !ok {
		return 0, errors.Wrapf(native.ErrBackendUnavailable, "driver %q does not report a device count", r.ext.Name())
	}

	var n int
	err := native.Safely(r.ext.Name(), func() (err error) {
		n, err = counter.GetDeviceCount()
		return err
	})
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Wrapf(native.ErrBackendUnavailable, "driver %q reported %d devices", r.ext.Name(), n)
	}

	r.count, r.counted = n, true
	klog.V(1).Infof("device: driver %q reports %d device(s)", r.ext.Name(), n)
	return n, nil
}

// CurrentDevice returns the index of the selected device. The index is whatever
// the native layer reports; it is not validated. A driver panic is reported as
// native.ErrBackendUnavailable.
func (r *Registry) CurrentDevice() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var index int
	err := native.Safely(r.ext.Name(), func() error {
		index = r.ext.CurrentDevice()
		return nil
	})
	if err != nil {
		return 0, errors.WithMessage(err, "querying current device")
	}
	return index, nil
}

// SetDevice selects the device used when operands do not pin one.
func (r *Registry) SetDevice(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.deviceCountLocked()
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return errors.Wrapf(ErrInvalidDevice, "device %d (have %d)", index, n)
	}
	if err := r.ext.SetDevice(index); err != nil {
		return errors.Wrapf(err, "selecting device %d", index)
	}
	klog.V(2).Infof("device: selected %s", tensor.Foo(index))
	return nil
}

// Device returns the tensor placement for device index.
func (r *Registry) Device(index int) tensor.Device {
	return tensor.Foo(index)
}

// Current returns the tensor placement of the selected device.
func (r *Registry) Current() (tensor.Device, error) {
	index, err := r.CurrentDevice()
	if err != nil {
		return tensor.Device{}, err
	}
	return tensor.Foo(index), nil
}

// Devices describes every device. Drivers that cannot describe devices get
// synthesized entries carrying only index, name and availability.
func (r *Registry) Devices() ([]native.DeviceInfo, error) {
	n, err := r.DeviceCount()
	if err != nil {
		return nil, err
	}

	describer, canDescribe := r.ext.(native.DeviceDescriber)
	infos := make([]native.DeviceInfo, n)
	for i := range infos {
		if !canDescribe {
			infos[i] = native.DeviceInfo{Index: i, Name: tensor.Foo(i).String(), Available: true}
			continue
		}
		err := native.Safely(r.ext.Name(), func() (err error) {
			infos[i], err = describer.DeviceInfo(i)
			return err
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "describing device %d", i)
		}
	}
	return infos, nil
}
