package cpu

import (
	"github.com/born-ml/foo/internal/parallel"
	"github.com/born-ml/foo/internal/tensor"
)

// number is the set of element types with native arithmetic.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

func add[T number](x, y T) T { return x + y }
func mul[T number](x, y T) T { return x * y }

// binaryKernel writes fn(a, b) into dst. When the shapes match the operands are
// walked linearly, otherwise through the broadcast index.
func binaryKernel[T any](dst, a, b []T, aShape, bShape, outShape tensor.Shape, fn func(x, y T) T, cfg parallel.Config) {
	if aShape.Equal(bShape) {
		parallel.For(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = fn(a[i], b[i])
			}
		}, cfg)
		return
	}

	bi := newBroadcastIndex(aShape, bShape, outShape)
	parallel.For(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			aIdx, bIdx := bi.at(i)
			dst[i] = fn(a[aIdx], b[bIdx])
		}
	}, cfg)
}
