package cpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/foo/internal/tensor"
)

// Cast converts the tensor to a different data type on the backend's device.
// It returns x itself when no conversion is needed.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) (*tensor.RawTensor, error) {
	if x.DType() == dtype && x.Device() == cpu.device {
		return x, nil
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, cpu.device)
	if err != nil {
		return nil, errors.Wrap(err, "cast")
	}

	if x.DType() == dtype {
		copy(result.Data(), x.Data())
		return result, nil
	}

	// Integer-to-integer casts go through int64 so large values survive;
	// anything involving a float goes through float64.
	if !x.DType().IsFloat() && !dtype.IsFloat() {
		err = result.SetInt64s(x.Int64s())
	} else {
		err = result.SetFloat64s(x.Float64s())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cast %s to %s", x.DType(), dtype)
	}
	return result, nil
}
