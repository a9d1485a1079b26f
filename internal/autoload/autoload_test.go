package autoload

import (
	"os"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/foo/internal/backend/foo"
	"github.com/born-ml/foo/internal/envconfig"
	"github.com/born-ml/foo/internal/native"
	_ "github.com/born-ml/foo/internal/native/sim"
	"github.com/born-ml/foo/internal/registry"
	"github.com/born-ml/foo/internal/tensor"
)

func simConfig() Config {
	return Config{Autoload: true, Driver: "sim", Options: native.Options{Devices: 2}}
}

func TestRunRegistersFoo(t *testing.T) {
	host := registry.New()
	h := New(host, simConfig())
	assert.Equal(t, Suppressed, h.State())
	assert.False(t, h.Autoload())

	require.NoError(t, h.Run())
	assert.Equal(t, Enabled, h.State())
	assert.True(t, h.Autoload())
	assert.True(t, host.Initialized())
	assert.Equal(t, []string{foo.Name}, host.Names())

	b, err := host.New(foo.Name)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	assert.Equal(t, tensor.Foo(0), b.Device())

	a := must.M1(tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, tensor.CPU))
	sum, err := b.Add(a, a)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 6}, sum.AsFloat32())
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	host := registry.New()
	h := New(host, simConfig())
	require.NoError(t, h.Run())
	require.NoError(t, h.Run())
	require.NoError(t, New(host, simConfig()).Run())
	assert.Equal(t, []string{foo.Name}, host.Names())
}

func TestRunDoesNotTriggerHostAutoload(t *testing.T) {
	host := registry.New()
	entryRuns := 0
	host.RegisterEntryPoint("other", func() error {
		entryRuns++
		return nil
	})

	require.NoError(t, New(host, simConfig()).Run())
	assert.Zero(t, entryRuns)
}

func TestRunReentrant(t *testing.T) {
	host := registry.New()
	var h *Hook
	var nested error
	var stateDuring State
	host.RegisterEntryPoint("reenter", func() error {
		stateDuring = h.State()
		nested = h.Run()
		return nil
	})
	h = New(&autoloadingHost{host}, simConfig())

	require.NoError(t, h.Run())
	assert.NoError(t, nested)
	assert.Equal(t, Suppressed, stateDuring)
	assert.Equal(t, Enabled, h.State())
	assert.True(t, host.Lookup(foo.Name))
}

// autoloadingHost ignores the suppression request, forcing entry points to run.
type autoloadingHost struct{ *registry.Registry }

func (a *autoloadingHost) Init(registry.Config) error {
	return a.Registry.Init(registry.Config{Autoload: true})
}

func TestRunFailuresStillEnable(t *testing.T) {
	t.Run("UnknownDriver", func(t *testing.T) {
		host := registry.New()
		h := New(host, Config{Autoload: true, Driver: "no-such-driver"})
		err := h.Run()
		assert.ErrorIs(t, err, native.ErrBackendUnavailable)
		assert.Equal(t, Enabled, h.State())
		assert.False(t, host.Lookup(foo.Name))
	})

	t.Run("HostInitFails", func(t *testing.T) {
		boom := errors.New("boom")
		h := New(failingHost{boom}, simConfig())
		assert.ErrorIs(t, h.Run(), boom)
		assert.Equal(t, Enabled, h.State())
	})
}

type failingHost struct{ err error }

func (f failingHost) Init(registry.Config) error { return f.err }

func (f failingHost) RegisterBackend(string, registry.Constructor) (bool, error) {
	return false, f.err
}

func TestAutoloadDisabledStaysDisabled(t *testing.T) {
	cfg := simConfig()
	cfg.Autoload = false
	h := New(registry.New(), cfg)
	require.NoError(t, h.Run())
	assert.Equal(t, Enabled, h.State())
	assert.False(t, h.Autoload())
}

func TestHostInitFromEnv(t *testing.T) {
	for _, tc := range []struct {
		name       string
		value      string
		unset      bool
		registered bool
	}{
		{name: "disabled", value: "0", registered: false},
		{name: "enabled", value: "1", registered: true},
		{name: "unset", unset: true, registered: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(envconfig.AutoloadVar, tc.value)
			if tc.unset {
				require.NoError(t, os.Unsetenv(envconfig.AutoloadVar))
			}
			host := registry.New()
			host.RegisterEntryPoint(foo.Name, func() error {
				cfg := simConfig()
				cfg.Autoload = envconfig.Autoload()
				return envconfig.WithAutoloadSuppressed(New(host, cfg).Run)
			})

			require.NoError(t, host.InitFromEnv())
			assert.True(t, host.Initialized())
			assert.Equal(t, tc.registered, host.Lookup(foo.Name))

			value, found := os.LookupEnv(envconfig.AutoloadVar)
			assert.Equal(t, !tc.unset, found)
			assert.Equal(t, tc.value, value)
		})
	}
}
