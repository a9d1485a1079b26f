// Package autoload registers the foo backend with the host registry during host
// startup without re-entering the host's own autoload sequence.
package autoload

import (
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/foo/internal/backend/foo"
	"github.com/born-ml/foo/internal/native"
	"github.com/born-ml/foo/internal/registry"
)

// State of a Hook.
type State int

const (
	// Suppressed: the host's own autoload is disabled while the hook runs.
	Suppressed State = iota
	// Enabled: the hook finished and autoload is restored.
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "suppressed"
}

// Config is the explicit configuration of a Hook.
type Config struct {
	// Autoload is the host autoload setting as it was before the hook suppressed it.
	Autoload bool
	// Driver is the native driver the registered constructor opens.
	Driver string
	// Options are passed to the driver.
	Options native.Options
}

// Host is the part of the host registry the hook uses.
type Host interface {
	Init(cfg registry.Config) error
	RegisterBackend(name string, ctor registry.Constructor) (bool, error)
}

// Hook performs the one-time registration of the foo backend.
type Hook struct {
	host Host
	cfg  Config

	mu      sync.Mutex
	state   State
	running bool
}

// New creates a hook in the Suppressed state.
func New(host Host, cfg Config) *Hook {
	return &Hook{host: host, cfg: cfg, state: Suppressed}
}

// State returns the current state.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Autoload returns the effective host autoload setting: false while Suppressed,
// the configured value once Enabled.
func (h *Hook) Autoload() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == Enabled && h.cfg.Autoload
}

// Run initializes the host registry with autoload suppressed and registers the
// foo backend. The hook ends in Enabled whatever happens in between, and the
// first error is returned. A call made while Run is already running is a no-op.
func (h *Hook) Run() error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		klog.V(2).Info("autoload: re-entrant call ignored")
		return nil
	}
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		if h.state != Enabled {
			h.state = Enabled
			klog.V(1).Infof("autoload: %s -> %s", Suppressed, Enabled)
		}
		h.mu.Unlock()
	}()

	if err := h.host.Init(registry.Config{Autoload: false}); err != nil {
		return errors.WithMessage(err, "autoload: initializing host registry")
	}
	if !native.Has(h.cfg.Driver) {
		return errors.Wrapf(native.ErrBackendUnavailable, "autoload: native driver %q is not linked in (have %v)",
			h.cfg.Driver, native.Drivers())
	}

	driver, opts := h.cfg.Driver, h.cfg.Options
	added, err := h.host.RegisterBackend(foo.Name, func() (registry.Backend, error) {
		b, err := foo.Open(foo.Config{Driver: driver, Options: opts})
		if err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return errors.WithMessagef(err, "autoload: registering %q", foo.Name)
	}
	if added {
		klog.V(1).Infof("autoload: registered backend %q (driver %q)", foo.Name, driver)
	}
	return nil
}
