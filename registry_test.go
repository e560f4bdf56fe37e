package hal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accelgo/hal/status"
)

// stubDriver is the minimal Driver used by registry tests.
type stubDriver struct {
	ResourceBase
	name string
}

func newStubDriver(name string, _ DriverOptions) (Driver, error) {
	d := &stubDriver{name: name}
	d.InitResource(nil)
	return d, nil
}

func (d *stubDriver) Name() string                            { return d.name }
func (d *stubDriver) EnumerateDevices() ([]DeviceInfo, error) { return nil, nil }
func (d *stubDriver) CreateDevice(DeviceID) (Device, error) {
	return nil, status.Errorf(status.NotFound, "stub has no devices")
}

func TestRegistryRegisterCreate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", newStubDriver))

	driver, err := r.Create("x", DriverOptions{})
	require.NoError(t, err)
	require.Equal(t, "x", driver.Name())
	driver.Release()
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", newStubDriver))
	err := r.Register("x", newStubDriver)
	require.True(t, status.IsCode(err, status.AlreadyRegistered))
}

func TestRegistryCreateUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("y", DriverOptions{})
	require.True(t, status.IsCode(err, status.NotFound))
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", newStubDriver))
	require.NoError(t, r.Unregister("x"))
	err := r.Unregister("x")
	require.True(t, status.IsCode(err, status.NotFound))
	_, err = r.Create("x", DriverOptions{})
	require.True(t, status.IsCode(err, status.NotFound))
}

func TestRegistryInvalidRegistration(t *testing.T) {
	r := NewRegistry()
	require.True(t, status.IsCode(r.Register("", newStubDriver), status.InvalidArgument))
	require.True(t, status.IsCode(r.Register("x", nil), status.InvalidArgument))
}

func TestRegistryDriversSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("cuda", newStubDriver))
	require.NoError(t, r.Register("host", newStubDriver))
	require.NoError(t, r.Register("amd", newStubDriver))
	require.Equal(t, []string{"amd", "cuda", "host"}, r.Drivers())
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("x", newStubDriver))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if driver, err := r.Create("x", DriverOptions{}); err == nil {
				driver.Release()
			}
			_ = r.Drivers()
		}()
	}
	wg.Wait()
}

func TestDefaultRegistryIsSingleton(t *testing.T) {
	require.Same(t, Default(), Default())
}
