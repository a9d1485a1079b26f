package foo

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/foo/internal/device"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/native/sim"
	"github.com/born-ml/foo/internal/tensor"
)

func newTestBackend(t *testing.T, devices int) *FooBackend {
	t.Helper()
	b, err := Open(Config{Driver: sim.Name, Options: native.Options{Devices: devices}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func vec(values ...float32) *tensor.RawTensor {
	return must.M1(tensor.FromSlice(values, tensor.Shape{len(values)}, tensor.CPU))
}

func TestAddMultiply(t *testing.T) {
	b := newTestBackend(t, 1)
	x, y := vec(1, 2, 3), vec(4, 5, 6)

	sum, err := b.Add(x, y)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 7, 9}, sum.AsFloat32())

	prod, err := b.Multiply(x, y)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 10, 18}, prod.AsFloat32())

	assert.Equal(t, []float32{1, 2, 3}, x.AsFloat32(), "operands are not modified")
	assert.Equal(t, []float32{4, 5, 6}, y.AsFloat32(), "operands are not modified")
}

func TestBroadcast(t *testing.T) {
	b := newTestBackend(t, 1)

	sum, err := b.Add(vec(1, 2, 3), vec(10))
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 12, 13}, sum.AsFloat32())

	col := must.M1(tensor.FromSlice([]float32{1, 2}, tensor.Shape{2, 1}, tensor.CPU))
	prod, err := b.Multiply(col, vec(1, 10, 100))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, prod.Shape())
	assert.Equal(t, []float32{1, 10, 100, 2, 20, 200}, prod.AsFloat32())
}

func TestShapeMismatch(t *testing.T) {
	b := newTestBackend(t, 1)

	_, err := b.Add(vec(1, 2, 3), vec(1, 2))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, err = b.Multiply(vec(1, 2, 3), vec(1, 2))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestNilOperand(t *testing.T) {
	b := newTestBackend(t, 1)
	_, err := b.Add(nil, vec(1))
	assert.ErrorIs(t, err, tensor.ErrNilTensor)
}

func TestPromotion(t *testing.T) {
	b := newTestBackend(t, 1)
	ints := must.M1(tensor.FromSlice([]int64{1, 2, 3}, tensor.Shape{3}, tensor.CPU))
	half := must.M1(tensor.FromFloat64s([]float64{0.5, 0.5, 0.5}, tensor.Shape{3}, tensor.Float16, tensor.CPU))

	sum, err := b.Add(ints, half)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float16, sum.DType())
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, sum.Float64s())
}

func TestDevicePlacement(t *testing.T) {
	b := newTestBackend(t, 3)

	t.Run("HostOperandsUseCurrentDevice", func(t *testing.T) {
		require.NoError(t, b.SetDevice(2))
		sum, err := b.Add(vec(1), vec(2))
		require.NoError(t, err)
		assert.Equal(t, tensor.Foo(2), sum.Device())
		assert.Equal(t, tensor.Foo(2), b.Device())
	})

	t.Run("PinnedOperandWins", func(t *testing.T) {
		require.NoError(t, b.SetDevice(0))
		pinned := vec(1, 2).To(tensor.Foo(1))
		prod, err := b.Multiply(pinned, vec(3))
		require.NoError(t, err)
		assert.Equal(t, tensor.Foo(1), prod.Device())

		both, err := b.Add(pinned, vec(1, 1).To(tensor.Foo(1)))
		require.NoError(t, err)
		assert.Equal(t, tensor.Foo(1), both.Device())
	})

	t.Run("CrossDevice", func(t *testing.T) {
		_, err := b.Add(vec(1).To(tensor.Foo(0)), vec(1).To(tensor.Foo(1)))
		assert.ErrorIs(t, err, tensor.ErrDeviceMismatch)
	})

	t.Run("DeviceOutOfRange", func(t *testing.T) {
		_, err := b.Add(vec(1).To(tensor.Foo(7)), vec(1))
		assert.ErrorIs(t, err, device.ErrInvalidDevice)
	})
}

func TestDeviceQueries(t *testing.T) {
	b := newTestBackend(t, 2)

	n, err := b.DeviceCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	again, _ := b.DeviceCount()
	assert.Equal(t, n, again)

	assert.True(t, b.IsAvailable())
	current, err := b.CurrentDevice()
	require.NoError(t, err)
	assert.Equal(t, 0, current)
	assert.Equal(t, Name, b.Name())

	set, ok := b.AMPSupportedDTypes()
	require.True(t, ok)
	assert.True(t, set[tensor.Float16])

	empty := newTestBackend(t, 0)
	assert.False(t, empty.IsAvailable())
	_, err = empty.Add(vec(1), vec(1))
	assert.ErrorIs(t, err, device.ErrInvalidDevice)
}

// brokenExtension returns results with the wrong shape.
type brokenExtension struct{ *sim.Extension }

func (brokenExtension) Add(int, *tensor.RawTensor, *tensor.RawTensor) (*tensor.RawTensor, error) {
	return vec(0), nil
}

func (brokenExtension) Multiply(int, *tensor.RawTensor, *tensor.RawTensor) (*tensor.RawTensor, error) {
	panic("kernel launch failed")
}

func TestDriverMisbehaves(t *testing.T) {
	ext := must.M1(sim.New(native.Options{Devices: 1}))
	b := New(brokenExtension{ext})

	_, err := b.Add(vec(1, 2), vec(3, 4))
	assert.ErrorIs(t, err, native.ErrBackendUnavailable)

	_, err = b.Multiply(vec(1, 2), vec(3, 4))
	assert.ErrorIs(t, err, native.ErrBackendUnavailable)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "does-not-exist"})
	assert.ErrorIs(t, err, native.ErrBackendUnavailable)
}
