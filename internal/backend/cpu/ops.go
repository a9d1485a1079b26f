package cpu

import (
	"fmt"

	"github.com/born-ml/foo/internal/tensor"
)

// BinaryOp selects the element-wise operation a kernel applies.
type BinaryOp int

// Supported binary operations.
const (
	OpAdd BinaryOp = iota
	OpMultiply
)

// String returns the operation name used in error messages.
func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpMultiply:
		return "multiply"
	default:
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
}

// boolOp maps add to logical OR and multiply to logical AND.
func boolOp(op BinaryOp) func(x, y bool) bool {
	if op == OpAdd {
		return func(x, y bool) bool { return x || y }
	}
	return func(x, y bool) bool { return x && y }
}

func numericOp[T number](op BinaryOp) func(x, y T) T {
	if op == OpAdd {
		return add[T]
	}
	return mul[T]
}

// applyBinary computes result = op(a, b). a, b and result share one dtype, which is
// never a 16-bit float (those are computed in float32).
func (cpu *CPUBackend) applyBinary(op BinaryOp, result, a, b *tensor.RawTensor) {
	as, bs, out := a.Shape(), b.Shape(), result.Shape()
	switch result.DType() {
	case tensor.Float32:
		binaryKernel(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), as, bs, out, numericOp[float32](op), cpu.parallel)
	case tensor.Float64:
		binaryKernel(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), as, bs, out, numericOp[float64](op), cpu.parallel)
	case tensor.Int32:
		binaryKernel(result.AsInt32(), a.AsInt32(), b.AsInt32(), as, bs, out, numericOp[int32](op), cpu.parallel)
	case tensor.Int64:
		binaryKernel(result.AsInt64(), a.AsInt64(), b.AsInt64(), as, bs, out, numericOp[int64](op), cpu.parallel)
	case tensor.Uint8:
		binaryKernel(result.AsUint8(), a.AsUint8(), b.AsUint8(), as, bs, out, numericOp[uint8](op), cpu.parallel)
	case tensor.Bool:
		binaryKernel(result.AsBool(), a.AsBool(), b.AsBool(), as, bs, out, boolOp(op), cpu.parallel)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, result.DType()))
	}
}
