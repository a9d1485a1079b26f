// Package sim provides an in-process simulation of foo accelerators. Devices are
// host memory tagged foo:<i>; kernels come from the host CPU backend.
package sim

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/backend/cpu"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/tensor"
)

// Name is the driver name sim registers under.
const Name = "sim"

// DefaultMemoryBytes is the memory each simulated device reports when Options leaves it unset.
const DefaultMemoryBytes = 16 << 30

// DefaultSeed is the initial seed of every device generator.
const DefaultSeed uint64 = 67280421310721

// namespace derives stable per-device UUIDs.
var namespace = uuid.MustParse("3f1c0a52-6d1e-4b8f-9a57-0c5d2f4b9e11")

func init() {
	native.Register(Name, func(opts native.Options) (native.Extension, error) {
		return New(opts)
	})
}

// Extension is the simulated driver.
type Extension struct {
	mu      sync.Mutex
	devices []native.DeviceInfo
	rngs    []*generator
	current int
}

// generator is one device's random state.
type generator struct {
	initialSeed uint64
	pcg         *rand.PCG
}

func newGenerator(seed uint64) *generator {
	return &generator{initialSeed: seed, pcg: rand.NewPCG(seed, seed)}
}

var (
	_ native.Extension       = (*Extension)(nil)
	_ native.DeviceCounter   = (*Extension)(nil)
	_ native.DeviceDescriber = (*Extension)(nil)
	_ native.AMPDescriber    = (*Extension)(nil)
	_ native.RNGStater       = (*Extension)(nil)
)

// New creates a simulated driver with opts.Devices devices. Zero devices is valid:
// the backend then reports itself unavailable.
func New(opts native.Options) (*Extension, error) {
	if opts.Devices < 0 {
		return nil, errors.Errorf("sim: negative device count %d", opts.Devices)
	}
	memory := opts.MemoryBytes
	if memory == 0 {
		memory = DefaultMemoryBytes
	}

	ext := &Extension{
		devices: make([]native.DeviceInfo, opts.Devices),
		rngs:    make([]*generator, opts.Devices),
	}
	for i := range ext.devices {
		ext.devices[i] = native.DeviceInfo{
			Index:       i,
			Name:        fmt.Sprintf("Foo Simulated Accelerator %d", i),
			UUID:        uuid.NewSHA1(namespace, []byte(tensor.Foo(i).String())),
			MemoryBytes: memory,
			Available:   true,
		}
		ext.rngs[i] = newGenerator(DefaultSeed)
	}
	klog.V(1).Infof("sim: created %d simulated device(s)", opts.Devices)
	return ext, nil
}

// Name implements native.Extension.
func (s *Extension) Name() string {
	return Name
}

// GetDeviceCount implements native.DeviceCounter.
func (s *Extension) GetDeviceCount() (int, error) {
	return len(s.devices), nil
}

// DeviceInfo implements native.DeviceDescriber.
func (s *Extension) DeviceInfo(index int) (native.DeviceInfo, error) {
	if err := s.check(index); err != nil {
		return native.DeviceInfo{}, err
	}
	return s.devices[index], nil
}

// CurrentDevice implements native.Extension.
func (s *Extension) CurrentDevice() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetDevice implements native.Extension.
func (s *Extension) SetDevice(index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = index
	s.mu.Unlock()
	return nil
}

// Add implements native.Extension.
func (s *Extension) Add(device int, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := s.check(device); err != nil {
		return nil, err
	}
	return cpu.NewOn(tensor.Foo(device)).Add(a, b)
}

// Multiply implements native.Extension.
func (s *Extension) Multiply(device int, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := s.check(device); err != nil {
		return nil, err
	}
	return cpu.NewOn(tensor.Foo(device)).Multiply(a, b)
}

// AMPSupportedDTypes implements native.AMPDescriber.
func (s *Extension) AMPSupportedDTypes() []tensor.DataType {
	return []tensor.DataType{tensor.Float16, tensor.BFloat16}
}

// RNGState implements native.RNGStater.
func (s *Extension) RNGState(device int) ([]byte, error) {
	if err := s.check(device); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rngs[device].pcg.MarshalBinary()
}

// SetRNGState implements native.RNGStater.
func (s *Extension) SetRNGState(device int, state []byte) error {
	if err := s.check(device); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.rngs[device].pcg.UnmarshalBinary(state), "sim: restoring rng state")
}

// ManualSeed implements native.RNGStater.
func (s *Extension) ManualSeed(device int, seed uint64) error {
	if err := s.check(device); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rngs[device] = newGenerator(seed)
	return nil
}

// InitialSeed implements native.RNGStater.
func (s *Extension) InitialSeed(device int) (uint64, error) {
	if err := s.check(device); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rngs[device].initialSeed, nil
}

// draw returns the next value of a device generator.
func (s *Extension) draw(device int) (uint64, error) {
	if err := s.check(device); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rngs[device].pcg.Uint64(), nil
}

// Close implements native.Extension.
func (s *Extension) Close() error {
	return nil
}

func (s *Extension) check(index int) error {
	if index < 0 || index >= len(s.devices) {
		return errors.Errorf("sim: device index %d out of range [0, %d)", index, len(s.devices))
	}
	return nil
}
