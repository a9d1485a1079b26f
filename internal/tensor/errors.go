package tensor

import "github.com/pkg/errors"

// Operand validation failures. Callers match them with errors.Is.
var (
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrDeviceMismatch   = errors.New("device mismatch")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrNilTensor        = errors.New("nil tensor")
)
