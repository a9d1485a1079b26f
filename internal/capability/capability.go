// Package capability answers what the loaded foo driver can do. Optional driver
// features are negotiated: callers check Supports (or the ok result) and branch,
// instead of calling and handling a failure.
package capability

import (
	"crypto/rand"
	"encoding/binary"
	"maps"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/device"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/tensor"
)

// ErrNotImplemented reports a call to a feature the driver does not provide.
var ErrNotImplemented = errors.New("not implemented by foo driver")

// Feature is an optional driver capability.
type Feature int

// Optional driver features.
const (
	FeatureDeviceCount Feature = iota
	FeatureAMP
	FeatureRNGState
	FeatureForkDetection
)

// String returns the feature name.
func (f Feature) String() string {
	switch f {
	case FeatureDeviceCount:
		return "device-count"
	case FeatureAMP:
		return "amp"
	case FeatureRNGState:
		return "rng-state"
	case FeatureForkDetection:
		return "fork-detection"
	default:
		return "unknown"
	}
}

// Features lists every feature in declaration order.
var Features = []Feature{FeatureDeviceCount, FeatureAMP, FeatureRNGState, FeatureForkDetection}

// DTypeSet is a set of data types.
type DTypeSet map[tensor.DataType]bool

// Sorted returns the members in DataType order.
func (s DTypeSet) Sorted() []tensor.DataType {
	return slices.Sorted(maps.Keys(s))
}

// Capabilities holds what a driver supports.
type Capabilities struct {
	// Features supported by the driver. Missing entries are unsupported.
	Features map[Feature]bool

	// AMPDTypes are the data types eligible for reduced-precision compute.
	AMPDTypes DTypeSet
}

// Supports reports whether f is available.
func (c Capabilities) Supports(f Feature) bool {
	return c.Features[f]
}

// Probe inspects a driver through a device registry.
type Probe struct {
	devices *device.Registry
}

// NewProbe creates a probe for the driver behind devices.
func NewProbe(devices *device.Registry) *Probe {
	return &Probe{devices: devices}
}

func (p *Probe) ext() native.Extension {
	return p.devices.Extension()
}

// IsAvailable reports whether the driver can count devices and has at least one.
// It never fails: a missing capability or a failed count means false.
func (p *Probe) IsAvailable() bool {
	if _, ok := p.ext().(native.DeviceCounter); !ok {
		return false
	}
	n, err := p.devices.DeviceCount()
	return err == nil && n > 0
}

// AMPSupportedDTypes returns the reduced-precision data types and true when the
// driver declares them. The set may be empty. Drivers that do not declare AMP
// support, or panic while answering, return (nil, false).
func (p *Probe) AMPSupportedDTypes() (DTypeSet, bool) {
	amp, ok := p.ext().(native.AMPDescriber)
	if !ok {
		return nil, false
	}
	var dtypes []tensor.DataType
	err := native.Safely(p.ext().Name(), func() error {
		dtypes = amp.AMPSupportedDTypes()
		return nil
	})
	if err != nil {
		klog.Warningf("capability: %v", err)
		return nil, false
	}
	set := make(DTypeSet)
	for _, dt := range dtypes {
		set[dt] = true
	}
	return set, true
}

// Capabilities returns the full capability table.
func (p *Probe) Capabilities() Capabilities {
	ext := p.ext()
	_, counts := ext.(native.DeviceCounter)
	_, rng := ext.(native.RNGStater)
	_, fork := ext.(native.ForkChecker)
	ampSet, amp := p.AMPSupportedDTypes()
	if ampSet == nil {
		ampSet = make(DTypeSet)
	}
	return Capabilities{
		Features: map[Feature]bool{
			FeatureDeviceCount:   counts,
			FeatureAMP:           amp,
			FeatureRNGState:      rng,
			FeatureForkDetection: fork,
		},
		AMPDTypes: ampSet,
	}
}

// Supports reports whether the driver provides f.
func (p *Probe) Supports(f Feature) bool {
	return p.Capabilities().Supports(f)
}

func (p *Probe) rng() (native.RNGStater, error) {
	rng, ok := p.ext().(native.RNGStater)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented, "%s (driver %q)", FeatureRNGState, p.ext().Name())
	}
	return rng, nil
}

// RNGState returns the serialized generator state of device.
func (p *Probe) RNGState(device int) ([]byte, error) {
	rng, err := p.rng()
	if err != nil {
		return nil, err
	}
	return rng.RNGState(device)
}

// SetRNGState restores the generator state of device.
func (p *Probe) SetRNGState(device int, state []byte) error {
	rng, err := p.rng()
	if err != nil {
		return err
	}
	return rng.SetRNGState(device, state)
}

// ManualSeed seeds the generator of every device.
func (p *Probe) ManualSeed(seed uint64) error {
	rng, err := p.rng()
	if err != nil {
		return err
	}
	n, err := p.devices.DeviceCount()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := rng.ManualSeed(i, seed); err != nil {
			return errors.Wrapf(err, "seeding device %d", i)
		}
	}
	return nil
}

// Seed seeds every device with a random seed and returns it.
func (p *Probe) Seed() (uint64, error) {
	if _, err := p.rng(); err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, errors.Wrap(err, "drawing seed")
	}
	seed := binary.LittleEndian.Uint64(buf[:])
	return seed, p.ManualSeed(seed)
}

// InitialSeed returns the seed of the current device's generator.
func (p *Probe) InitialSeed() (uint64, error) {
	rng, err := p.rng()
	if err != nil {
		return 0, err
	}
	current, err := p.devices.CurrentDevice()
	if err != nil {
		return 0, err
	}
	return rng.InitialSeed(current)
}

// IsInBadFork reports whether the driver was initialized in a parent process.
func (p *Probe) IsInBadFork() (bool, error) {
	fork, ok := p.ext().(native.ForkChecker)
	if !ok {
		return false, errors.Wrapf(ErrNotImplemented, "%s (driver %q)", FeatureForkDetection, p.ext().Name())
	}
	var forked bool
	err := native.Safely(p.ext().Name(), func() error {
		forked = fork.IsInBadFork()
		return nil
	})
	return forked, err
}
