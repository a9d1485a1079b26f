package cpu

import (
	"github.com/born-ml/foo/internal/tensor"
)

// broadcastIndex maps flat indices of a broadcast output back to its two operands.
type broadcastIndex struct {
	outStrides []int
	aStrides   []int
	bStrides   []int
}

func newBroadcastIndex(aShape, bShape, outShape tensor.Shape) broadcastIndex {
	return broadcastIndex{
		outStrides: outShape.ComputeStrides(),
		aStrides:   broadcastStrides(aShape, outShape),
		bStrides:   broadcastStrides(bShape, outShape),
	}
}

// broadcastStrides computes strides for reading inShape as if it had outShape.
// Dimensions that are padded on the left or have size 1 get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	strides := make([]int, outDim)
	for i := offset; i < outDim; i++ {
		if inShape[i-offset] != 1 {
			strides[i] = origStrides[i-offset]
		}
	}
	return strides
}

// at returns the operand offsets feeding output element outIdx.
func (bi broadcastIndex) at(outIdx int) (aIdx, bIdx int) {
	for dim, stride := range bi.outStrides {
		coord := outIdx / stride
		outIdx %= stride
		aIdx += coord * bi.aStrides[dim]
		bIdx += coord * bi.bStrides[dim]
	}
	return aIdx, bIdx
}
