// Package envconfig reads the foo backend's environment variables. It is the only
// package that touches the process environment.
package envconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

const (
	// AutoloadVar controls whether the host framework autoloads device backends.
	AutoloadVar = "BORN_DEVICE_BACKEND_AUTOLOAD"
	// DriverVar names the native driver the foo backend opens.
	DriverVar = "BORN_FOO_DRIVER"
	// SimDevicesVar sets the number of devices of the sim driver.
	SimDevicesVar = "BORN_FOO_SIM_DEVICES"
	// DebugVar raises log verbosity.
	DebugVar = "BORN_FOO_DEBUG"
)

// DefaultDriver is used when DriverVar is unset.
const DefaultDriver = "sim"

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

// Autoload reports whether backend autoload is enabled. "0" (or any false value)
// disables it; unset, "1" and unparseable values enable it.
func Autoload() bool {
	s := clean(AutoloadVar)
	if s == "" {
		return true
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		klog.Warningf("envconfig: invalid %s=%q, autoload stays enabled", AutoloadVar, s)
		return true
	}
	return b
}

// Driver returns the native driver name.
func Driver() string {
	if s := clean(DriverVar); s != "" {
		return s
	}
	return DefaultDriver
}

// SimDevices returns the number of simulated devices, 1 by default.
func SimDevices() int {
	s := clean(SimDevicesVar)
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		klog.Warningf("envconfig: invalid %s=%q, using 1", SimDevicesVar, s)
		return 1
	}
	return n
}

// Debug returns the requested klog verbosity: 0 when unset, 1 for true values, or
// the given level for numbers.
func Debug() int {
	s := clean(DebugVar)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil && b {
		return 1
	}
	return 0
}

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		AutoloadVar:   {AutoloadVar, Autoload(), "Autoload device backends when the host framework starts (default 1)"},
		DriverVar:     {DriverVar, Driver(), "Native driver used by the foo backend (default \"sim\")"},
		SimDevicesVar: {SimDevicesVar, SimDevices(), "Number of devices of the sim driver (default 1)"},
		DebugVar:      {DebugVar, Debug(), "Log verbosity (e.g. BORN_FOO_DEBUG=1)"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// WithAutoloadSuppressed sets AutoloadVar to "0" while fn runs, then puts back the
// value it had before, or unsets it if it was unset. The restore happens even when
// fn fails or panics.
func WithAutoloadSuppressed(fn func() error) error {
	original, found := os.LookupEnv(AutoloadVar)
	defer func() {
		var err error
		if found {
			err = os.Setenv(AutoloadVar, original)
		} else {
			err = os.Unsetenv(AutoloadVar)
		}
		if err != nil {
			klog.Errorf("envconfig: restoring %s: %v", AutoloadVar, err)
		}
	}()
	if err := os.Setenv(AutoloadVar, "0"); err != nil {
		return err
	}
	return fn()
}
