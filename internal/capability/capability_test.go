package capability

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/foo/internal/device"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/native/sim"
	"github.com/born-ml/foo/internal/tensor"
)

type bareExtension struct{}

func (bareExtension) Name() string        { return "bare" }
func (bareExtension) CurrentDevice() int  { return 0 }
func (bareExtension) SetDevice(int) error { return nil }
func (bareExtension) Close() error        { return nil }
func (bareExtension) Add(int, *tensor.RawTensor, *tensor.RawTensor) (*tensor.RawTensor, error) {
	return nil, nil
}
func (bareExtension) Multiply(int, *tensor.RawTensor, *tensor.RawTensor) (*tensor.RawTensor, error) {
	return nil, nil
}

// countExtension can count devices and declares an empty AMP set.
type countExtension struct {
	bareExtension
	n   int
	err error
}

func (e countExtension) GetDeviceCount() (int, error)          { return e.n, e.err }
func (e countExtension) AMPSupportedDTypes() []tensor.DataType { return nil }

// forkExtension detects forks.
type forkExtension struct {
	countExtension
	forked bool
}

func (e forkExtension) IsInBadFork() bool { return e.forked }

func probeFor(ext native.Extension) *Probe {
	return NewProbe(device.NewRegistry(ext))
}

func simProbe(t *testing.T, devices int) *Probe {
	t.Helper()
	ext, err := sim.New(native.Options{Devices: devices})
	require.NoError(t, err)
	return probeFor(ext)
}

func TestIsAvailable(t *testing.T) {
	assert.False(t, probeFor(bareExtension{}).IsAvailable(), "no device-count capability")
	assert.False(t, probeFor(countExtension{n: 0}).IsAvailable())
	assert.False(t, probeFor(countExtension{err: errors.New("broken")}).IsAvailable())
	assert.True(t, probeFor(countExtension{n: 1}).IsAvailable())

	for _, n := range []int{0, 1, 3} {
		p := simProbe(t, n)
		count, err := p.devices.DeviceCount()
		require.NoError(t, err)
		assert.Equal(t, count > 0, p.IsAvailable())
	}
}

func TestAMPSupportedDTypes(t *testing.T) {
	set, ok := simProbe(t, 1).AMPSupportedDTypes()
	require.True(t, ok)
	assert.Equal(t, []tensor.DataType{tensor.Float16, tensor.BFloat16}, set.Sorted())

	set, ok = probeFor(countExtension{n: 1}).AMPSupportedDTypes()
	assert.True(t, ok, "supported but empty is not an error")
	assert.Empty(t, set)

	set, ok = probeFor(bareExtension{}).AMPSupportedDTypes()
	assert.False(t, ok)
	assert.Nil(t, set)
}

func TestCapabilities(t *testing.T) {
	caps := simProbe(t, 1).Capabilities()
	assert.True(t, caps.Supports(FeatureDeviceCount))
	assert.True(t, caps.Supports(FeatureAMP))
	assert.True(t, caps.Supports(FeatureRNGState))
	assert.False(t, caps.Supports(FeatureForkDetection))
	assert.True(t, caps.AMPDTypes[tensor.BFloat16])

	bare := probeFor(bareExtension{}).Capabilities()
	for _, f := range Features {
		assert.False(t, bare.Supports(f), f.String())
	}
	assert.NotNil(t, bare.AMPDTypes)
}

func TestRNGNotImplemented(t *testing.T) {
	p := probeFor(countExtension{n: 1})
	assert.False(t, p.Supports(FeatureRNGState))

	_, err := p.RNGState(0)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.ErrorIs(t, p.SetRNGState(0, nil), ErrNotImplemented)
	assert.ErrorIs(t, p.ManualSeed(1), ErrNotImplemented)
	_, err = p.Seed()
	assert.ErrorIs(t, err, ErrNotImplemented)
	_, err = p.InitialSeed()
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestRNGOnSim(t *testing.T) {
	p := simProbe(t, 2)

	require.NoError(t, p.ManualSeed(1234))
	seed, err := p.InitialSeed()
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), seed)

	state, err := p.RNGState(1)
	require.NoError(t, err)
	require.NoError(t, p.SetRNGState(1, state))

	random, err := p.Seed()
	require.NoError(t, err)
	seed, _ = p.InitialSeed()
	assert.Equal(t, random, seed)
}

func TestIsInBadFork(t *testing.T) {
	_, err := simProbe(t, 1).IsInBadFork()
	assert.ErrorIs(t, err, ErrNotImplemented)

	forked, err := probeFor(forkExtension{forked: true}).IsInBadFork()
	require.NoError(t, err)
	assert.True(t, forked)
	assert.True(t, probeFor(forkExtension{}).Supports(FeatureForkDetection))
}

// crashingAMPExtension panics when asked for its AMP dtypes.
type crashingAMPExtension struct{ countExtension }

func (crashingAMPExtension) AMPSupportedDTypes() []tensor.DataType {
	panic("native symbol missing")
}

// crashingForkExtension panics during fork detection.
type crashingForkExtension struct{ countExtension }

func (crashingForkExtension) IsInBadFork() bool { panic("native symbol missing") }

func TestDriverPanicsAreContained(t *testing.T) {
	p := probeFor(crashingAMPExtension{countExtension{n: 1}})

	var (
		set DTypeSet
		ok  bool
	)
	require.NotPanics(t, func() { set, ok = p.AMPSupportedDTypes() })
	assert.False(t, ok)
	assert.Nil(t, set)

	var caps Capabilities
	require.NotPanics(t, func() { caps = p.Capabilities() })
	assert.False(t, caps.Supports(FeatureAMP))
	assert.Empty(t, caps.AMPDTypes)
	assert.True(t, p.IsAvailable())

	forkProbe := probeFor(crashingForkExtension{countExtension{n: 1}})
	var err error
	require.NotPanics(t, func() { _, err = forkProbe.IsInBadFork() })
	assert.ErrorIs(t, err, native.ErrBackendUnavailable)
}
