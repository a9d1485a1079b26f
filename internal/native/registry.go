package native

import (
	"slices"
	"sort"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Driver opens a native extension.
type Driver func(opts Options) (Extension, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a driver available under name. Call it from an init function.
// It panics if the name is already taken.
func Register(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, found := drivers[name]; found {
		exceptions.Panicf("native: driver %q already registered", name)
	}
	drivers[name] = driver
}

// Drivers returns the sorted names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a driver is registered under name.
func Has(name string) bool {
	return slices.Contains(Drivers(), name)
}

// Open opens the named driver. A missing driver, a driver error or a driver panic
// all yield an error wrapping ErrBackendUnavailable.
func Open(name string, opts Options) (Extension, error) {
	driversMu.RLock()
	driver, found := drivers[name]
	driversMu.RUnlock()
	if !found {
		return nil, errors.Wrapf(ErrBackendUnavailable, "no native driver %q (registered: %v)", name, Drivers())
	}

	var ext Extension
	err := Safely(name, func() (err error) {
		ext, err = driver(opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("native: opened driver %q", name)
	return ext, nil
}

// Safely runs a call into the native layer. Panics and returned errors are both
// reported as ErrBackendUnavailable, annotated with the driver name.
func Safely(driver string, fn func() error) error {
	var err error
	exception := exceptions.Try(func() { err = fn() })
	if exception != nil {
		return errors.Wrapf(ErrBackendUnavailable, "driver %q panicked: %v", driver, exception)
	}
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			return err
		}
		return errors.Wrapf(ErrBackendUnavailable, "driver %q: %v", driver, err)
	}
	return nil
}
