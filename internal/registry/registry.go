// Package registry is the host framework's table of device backends and of the
// autoload entry points that populate it.
package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/backend/cpu"
	"github.com/born-ml/foo/internal/envconfig"
	"github.com/born-ml/foo/internal/tensor"
)

// ErrUnknownBackend is returned by New for names nothing registered.
var ErrUnknownBackend = errors.New("unknown backend")

// Backend is the operator surface every registered device backend provides.
type Backend interface {
	Name() string
	Device() tensor.Device
	Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error)
	Multiply(a, b *tensor.RawTensor) (*tensor.RawTensor, error)
	Close() error
}

// Constructor creates a backend instance.
type Constructor func() (Backend, error)

// Config controls Init.
type Config struct {
	// Autoload runs the registered entry points. When false Init only marks the
	// registry initialized.
	Autoload bool
}

type entryPoint struct {
	name string
	fn   func() error
}

// Registry maps backend names to constructors.
type Registry struct {
	mu           sync.Mutex
	constructors map[string]Constructor
	entryPoints  []entryPoint
	initialized  bool
	initializing bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// RegisterBackend adds a backend constructor under name. Registering a name that is
// already taken keeps the first constructor and reports added == false.
func (r *Registry) RegisterBackend(name string, ctor Constructor) (added bool, err error) {
	if name == "" {
		return false, errors.New("registry: empty backend name")
	}
	if ctor == nil {
		return false, errors.Errorf("registry: nil constructor for backend %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.constructors[name]; found {
		klog.V(2).Infof("registry: backend %q already registered", name)
		return false, nil
	}
	r.constructors[name] = ctor
	klog.V(1).Infof("registry: registered backend %q", name)
	return true, nil
}

// RegisterEntryPoint adds an autoload entry point, run by Init.
func (r *Registry) RegisterEntryPoint(name string, fn func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entryPoints = append(r.entryPoints, entryPoint{name: name, fn: fn})
}

// Init initializes the registry once. With cfg.Autoload set it runs every entry
// point; a failing entry point is logged and does not stop the others. Calls made
// while Init is running, or after it finished, do nothing.
func (r *Registry) Init(cfg Config) error {
	r.mu.Lock()
	if r.initialized || r.initializing {
		r.mu.Unlock()
		return nil
	}
	if !cfg.Autoload {
		r.initialized = true
		r.mu.Unlock()
		klog.V(2).Info("registry: initialized with autoload disabled")
		return nil
	}
	r.initializing = true
	entryPoints := append([]entryPoint(nil), r.entryPoints...)
	r.mu.Unlock()

	var err error
	for _, ep := range entryPoints {
		if epErr := ep.fn(); epErr != nil {
			klog.Warningf("registry: entry point %q failed: %v", ep.name, epErr)
			err = multierr.Append(err, errors.WithMessagef(epErr, "entry point %q", ep.name))
		}
	}

	r.mu.Lock()
	r.initializing = false
	r.initialized = true
	r.mu.Unlock()
	return err
}

// InitFromEnv runs Init with autoload taken from the environment
// (BORN_DEVICE_BACKEND_AUTOLOAD). Only the value "0" disables it.
func (r *Registry) InitFromEnv() error {
	return r.Init(Config{Autoload: envconfig.Autoload()})
}

// Initialized reports whether Init has completed.
func (r *Registry) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// New creates an instance of the named backend.
func (r *Registry) New(name string) (Backend, error) {
	r.mu.Lock()
	ctor, found := r.constructors[name]
	r.mu.Unlock()
	if !found {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q (registered: %v)", name, r.Names())
	}
	b, err := ctor()
	if err != nil {
		return nil, errors.WithMessagef(err, "creating backend %q", name)
	}
	return b, nil
}

// Names returns the sorted registered backend names.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup reports whether a backend is registered under name.
func (r *Registry) Lookup(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, found := r.constructors[name]
	return found
}

// Default is the process-wide registry. It always knows the "cpu" backend.
var Default = New()

func init() {
	_, _ = Default.RegisterBackend("cpu", func() (Backend, error) {
		return cpu.New(), nil
	})
}

// RegisterBackend registers a backend with the Default registry.
func RegisterBackend(name string, ctor Constructor) (bool, error) {
	return Default.RegisterBackend(name, ctor)
}

// RegisterEntryPoint adds an entry point to the Default registry.
func RegisterEntryPoint(name string, fn func() error) {
	Default.RegisterEntryPoint(name, fn)
}

// Init initializes the Default registry.
func Init(cfg Config) error {
	return Default.Init(cfg)
}

// InitFromEnv initializes the Default registry from the environment.
func InitFromEnv() error {
	return Default.InitFromEnv()
}

// NewBackend creates a backend from the Default registry.
func NewBackend(name string) (Backend, error) {
	return Default.New(name)
}

// Names lists the backends of the Default registry.
func Names() []string {
	return Default.Names()
}

// Lookup checks the Default registry.
func Lookup(name string) bool {
	return Default.Lookup(name)
}
