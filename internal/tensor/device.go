package tensor

import "fmt"

// DeviceType is the kind of memory a tensor lives in.
type DeviceType int

// Supported device types.
const (
	CPUType DeviceType = iota
	FooType
)

// String returns the device type prefix used in device names.
func (t DeviceType) String() string {
	switch t {
	case CPUType:
		return "cpu"
	case FooType:
		return "foo"
	default:
		return "unknown"
	}
}

// Device identifies where a tensor lives: host memory or one foo accelerator.
type Device struct {
	Type  DeviceType
	Index int
}

// CPU is the host device. Tensors on it carry no explicit accelerator placement.
var CPU = Device{Type: CPUType}

// Foo returns the foo accelerator with the given index.
func Foo(index int) Device {
	return Device{Type: FooType, Index: index}
}

// IsHost reports whether the device is host memory.
func (d Device) IsHost() bool {
	return d.Type == CPUType
}

// String returns "cpu" or "foo:<index>".
func (d Device) String() string {
	if d.Type == CPUType {
		return d.Type.String()
	}
	return fmt.Sprintf("%s:%d", d.Type, d.Index)
}
