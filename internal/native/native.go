// Package native defines the boundary between the foo backend and the driver that
// owns the accelerator. A driver must implement Extension; everything else is an
// optional capability discovered with a type assertion.
package native

import (
	"github.com/google/uuid"

	"github.com/born-ml/foo/internal/tensor"
)

// Extension is the set of native operations every driver provides.
type Extension interface {
	// Name is the registered driver name, e.g. "sim".
	Name() string

	// CurrentDevice returns the selected device index. It is not validated.
	CurrentDevice() int

	// SetDevice selects the device used when operands do not pin one.
	SetDevice(index int) error

	// Add and Multiply run on the given device. Operands are broadcast-compatible
	// and already validated; the result lives on foo:<device>.
	Add(device int, a, b *tensor.RawTensor) (*tensor.RawTensor, error)
	Multiply(device int, a, b *tensor.RawTensor) (*tensor.RawTensor, error)

	// Close releases driver resources.
	Close() error
}

// DeviceCounter is implemented by drivers that can report how many devices exist.
type DeviceCounter interface {
	GetDeviceCount() (int, error)
}

// DeviceDescriber is implemented by drivers that can describe individual devices.
type DeviceDescriber interface {
	DeviceInfo(index int) (DeviceInfo, error)
}

// AMPDescriber is implemented by drivers that support reduced-precision compute.
// The returned set may be empty.
type AMPDescriber interface {
	AMPSupportedDTypes() []tensor.DataType
}

// RNGStater is implemented by drivers with per-device random generators.
type RNGStater interface {
	RNGState(device int) ([]byte, error)
	SetRNGState(device int, state []byte) error
	ManualSeed(device int, seed uint64) error
	InitialSeed(device int) (uint64, error)
}

// ForkChecker is implemented by drivers that can tell whether the process was
// forked after the driver initialized.
type ForkChecker interface {
	IsInBadFork() bool
}

// DeviceInfo describes one accelerator.
type DeviceInfo struct {
	Index       int
	Name        string
	UUID        uuid.UUID
	MemoryBytes uint64
	Available   bool
}

// Options configure a driver when it is opened.
type Options struct {
	// Devices is the number of devices a simulated driver exposes.
	Devices int
	// MemoryBytes is the memory reported per simulated device.
	MemoryBytes uint64
}
