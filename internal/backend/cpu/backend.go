// Package cpu implements the host kernels shared by the CPU backend and the
// simulated foo driver: broadcast add/multiply with type promotion, and casts.
package cpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/foo/internal/parallel"
	"github.com/born-ml/foo/internal/tensor"
)

// CPUBackend runs tensor operations on the host. Results are tagged with the
// backend's device, so the same kernels can serve an accelerator simulation.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return NewOn(tensor.CPU)
}

// NewOn creates a backend whose results are placed on device.
func NewOn(device tensor.Device) *CPUBackend {
	return &CPUBackend{
		device:   device,
		parallel: parallel.DefaultConfig(),
	}
}

// WithParallel returns a copy of the backend using cfg for kernel loops.
func (cpu *CPUBackend) WithParallel(cfg parallel.Config) *CPUBackend {
	clone := *cpu
	clone.parallel = cfg
	return &clone
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "cpu"
}

// Device returns the device results are placed on.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Close is a no-op: host buffers are garbage collected.
func (cpu *CPUBackend) Close() error {
	return nil
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.Binary(OpAdd, a, b)
}

// Multiply performs element-wise multiplication with NumPy-style broadcasting.
func (cpu *CPUBackend) Multiply(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return cpu.Binary(OpMultiply, a, b)
}

// Binary applies op element-wise. The output shape is the broadcast of the input
// shapes and the output dtype is the promotion of the input dtypes. 16-bit floats
// are computed in float32 and rounded back. Operands are never modified.
func (cpu *CPUBackend) Binary(op BinaryOp, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a == nil || b == nil {
		return nil, errors.Wrapf(tensor.ErrNilTensor, "%s", op)
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, errors.WithMessage(err, op.String())
	}
	outType, err := tensor.PromoteTypes(a.DType(), b.DType())
	if err != nil {
		return nil, errors.WithMessage(err, op.String())
	}

	computeType := outType
	if outType.IsHalf() {
		computeType = tensor.Float32
	}

	a, err = cpu.Cast(a, computeType)
	if err != nil {
		return nil, err
	}
	b, err = cpu.Cast(b, computeType)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(outShape, computeType, cpu.device)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to create result tensor", op)
	}
	cpu.applyBinary(op, result, a, b)

	if computeType != outType {
		return cpu.Cast(result, outType)
	}
	return result, nil
}
