package cuda

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/accelgo/hal"
	"github.com/accelgo/hal/status"
)

// fakeSymbols builds a symbol table backed by an in-memory device list, with
// the same buffer-filling behavior as the native API: names are copied into
// the caller's fixed-size buffer and NUL-terminated when they fit.
type fakeSymbols struct {
	*dynamicSymbols
	closed int
}

func newFakeSymbols(deviceNames ...string) *fakeSymbols {
	f := &fakeSymbols{dynamicSymbols: &dynamicSymbols{}}
	f.closer = func() error {
		f.closed++
		return nil
	}
	f.cuInit = func(uint32) cuResult { return cudaSuccess }
	f.cuDriverGetVersion = func(version *int32) cuResult {
		*version = 12040
		return cudaSuccess
	}
	f.cuDeviceGetCount = func(count *int32) cuResult {
		*count = int32(len(deviceNames))
		return cudaSuccess
	}
	f.cuDeviceGet = func(device *cuDevice, ordinal int32) cuResult {
		if int(ordinal) >= len(deviceNames) {
			return 101 // CUDA_ERROR_INVALID_DEVICE
		}
		*device = cuDevice(ordinal)
		return cudaSuccess
	}
	f.cuDeviceGetName = func(name *byte, nameLen int32, device cuDevice) cuResult {
		if int(device) >= len(deviceNames) {
			return 101
		}
		buf := unsafe.Slice(name, nameLen)
		n := copy(buf, deviceNames[device])
		if n < len(buf) {
			buf[n] = 0
		}
		return cudaSuccess
	}
	f.cuDeviceTotalMem = func(bytes *uint64, device cuDevice) cuResult {
		*bytes = 8 << 30
		return cudaSuccess
	}
	return f
}

func newFakeDriver(t *testing.T, opts hal.DriverOptions, deviceNames ...string) (*Driver, *fakeSymbols) {
	t.Helper()
	syms := newFakeSymbols(deviceNames...)
	return newDriver("cuda", opts, syms.dynamicSymbols), syms
}

func TestEnumerateDevices(t *testing.T) {
	driver, _ := newFakeDriver(t, hal.DriverOptions{}, "NVIDIA A100", "NVIDIA H100", "NVIDIA T4")
	defer driver.Release()

	infos, err := driver.EnumerateDevices()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	for i, want := range []string{"NVIDIA A100", "NVIDIA H100", "NVIDIA T4"} {
		require.Equal(t, hal.DeviceID(i), infos[i].ID)
		require.Equal(t, want, infos[i].Name)
	}
}

func TestEnumerateZeroDevices(t *testing.T) {
	driver, _ := newFakeDriver(t, hal.DriverOptions{})
	defer driver.Release()

	infos, err := driver.EnumerateDevices()
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestEnumerateNameTruncation(t *testing.T) {
	long := strings.Repeat("x", 3*MaxDeviceNameLength/2)
	driver, _ := newFakeDriver(t, hal.DriverOptions{}, long, "short")
	defer driver.Release()

	infos, err := driver.EnumerateDevices()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Len(t, infos[0].Name, MaxDeviceNameLength)
	require.Equal(t, long[:MaxDeviceNameLength], infos[0].Name)
	require.Equal(t, "short", infos[1].Name)
}

func TestEnumerateTruncatesOnDeviceFailure(t *testing.T) {
	driver, syms := newFakeDriver(t, hal.DriverOptions{}, "a", "b", "c", "d")
	defer driver.Release()

	inner := syms.cuDeviceGet
	syms.cuDeviceGet = func(device *cuDevice, ordinal int32) cuResult {
		if ordinal == 2 {
			return 999 // CUDA_ERROR_UNKNOWN
		}
		return inner(device, ordinal)
	}

	infos, err := driver.EnumerateDevices()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, "a", infos[0].Name)
	require.Equal(t, "b", infos[1].Name)
}

func TestEnumerateNegativeCount(t *testing.T) {
	driver, syms := newFakeDriver(t, hal.DriverOptions{})
	defer driver.Release()

	syms.cuDeviceGetCount = func(count *int32) cuResult {
		*count = -3
		return cudaSuccess
	}
	infos, err := driver.EnumerateDevices()
	require.NoError(t, err)
	require.Empty(t, infos)
}

func TestEnumerateCountFailure(t *testing.T) {
	driver, syms := newFakeDriver(t, hal.DriverOptions{})
	defer driver.Release()

	syms.cuDeviceGetCount = func(*int32) cuResult { return 100 } // CUDA_ERROR_NO_DEVICE
	_, err := driver.EnumerateDevices()
	require.True(t, status.IsCode(err, status.DeviceCountQueryFailed))
	require.Contains(t, err.Error(), "CUDA_ERROR_NO_DEVICE")
}

func TestCreateDeviceDefault(t *testing.T) {
	driver, _ := newFakeDriver(t, hal.DriverOptions{}, "NVIDIA A100", "NVIDIA H100")
	defer driver.Release()

	device, err := driver.CreateDevice(hal.DeviceIDUnspecified)
	require.NoError(t, err)
	defer device.Release()
	require.Equal(t, hal.DeviceID(0), device.ID())
	require.Equal(t, "cuda", device.Name())
	require.Same(t, driver, device.Driver())
}

func TestCreateDeviceDefaultIndexOutOfRange(t *testing.T) {
	driver, _ := newFakeDriver(t, hal.DriverOptions{DefaultDeviceIndex: 5}, "a", "b")
	defer driver.Release()

	_, err := driver.CreateDevice(hal.DeviceIDUnspecified)
	require.True(t, status.IsCode(err, status.NotFound))
	require.Contains(t, err.Error(), "default device 5 not found (of 2 enumerated)")
}

func TestCreateDeviceDefaultNoDevices(t *testing.T) {
	driver, _ := newFakeDriver(t, hal.DriverOptions{})
	defer driver.Release()

	_, err := driver.CreateDevice(hal.DeviceIDUnspecified)
	require.True(t, status.IsCode(err, status.NotFound))
}

func TestCreateDeviceExplicitID(t *testing.T) {
	driver, syms := newFakeDriver(t, hal.DriverOptions{}, "a", "b")
	defer driver.Release()

	// An explicit id is used directly, with no enumeration round-trip.
	syms.cuDeviceGetCount = func(*int32) cuResult {
		t.Fatal("cuDeviceGetCount must not be called for an explicit device id")
		return 999
	}
	device, err := driver.CreateDevice(hal.DeviceID(1))
	require.NoError(t, err)
	defer device.Release()
	require.Equal(t, hal.DeviceID(1), device.ID())
}

func TestCreateDeviceInitFailure(t *testing.T) {
	driver, syms := newFakeDriver(t, hal.DriverOptions{}, "a")
	defer driver.Release()

	syms.cuInit = func(uint32) cuResult { return 3 } // CUDA_ERROR_NOT_INITIALIZED
	_, err := driver.CreateDevice(hal.DeviceIDUnspecified)
	require.True(t, status.IsCode(err, status.BackendInitFailed))
}

func TestDeviceTotalMemory(t *testing.T) {
	driver, _ := newFakeDriver(t, hal.DriverOptions{}, "a")
	defer driver.Release()

	device, err := driver.CreateDevice(hal.DeviceIDUnspecified)
	require.NoError(t, err)
	defer device.Release()

	mem, err := device.(*Device).TotalMemory()
	require.NoError(t, err)
	require.Equal(t, uint64(8<<30), mem)
}

func TestDriverVersion(t *testing.T) {
	driver, _ := newFakeDriver(t, hal.DriverOptions{})
	defer driver.Release()

	major, minor, err := driver.DriverVersion()
	require.NoError(t, err)
	require.Equal(t, 12, major)
	require.Equal(t, 4, minor)
}

func TestSymbolTableUnloadedAfterLastDevice(t *testing.T) {
	driver, syms := newFakeDriver(t, hal.DriverOptions{}, "a", "b")

	devA, err := driver.CreateDevice(hal.DeviceIDUnspecified)
	require.NoError(t, err)
	devB, err := driver.CreateDevice(hal.DeviceID(1))
	require.NoError(t, err)

	// Releasing the driver first must not unload while devices are alive.
	driver.Release()
	require.Equal(t, 0, syms.closed)
	devA.Release()
	require.Equal(t, 0, syms.closed)
	devB.Release()
	require.Equal(t, 1, syms.closed)
}

func TestDriverDestroyWithoutSymbolTable(t *testing.T) {
	// Mirrors the teardown path when symbol loading fails mid-construction.
	driver := newDriver("cuda", hal.DriverOptions{}, nil)
	require.NotPanics(t, driver.Release)
}

func TestNewWithEmptyIdentifier(t *testing.T) {
	_, err := New("", hal.DriverOptions{})
	require.True(t, status.IsCode(err, status.InvalidArgument))
}

func TestNewWithoutCUDAInstalled(t *testing.T) {
	driver, err := New("cuda", hal.DriverOptions{})
	if err == nil {
		// Machine actually has CUDA; nothing to assert beyond clean teardown.
		driver.Release()
		t.Skip("libcuda present on this machine")
	}
	code := status.CodeOf(err)
	require.Contains(t,
		[]status.Code{status.BackendUnavailable, status.SymbolResolutionFailed}, code)
}

func TestRegisteredInDefaultRegistry(t *testing.T) {
	require.Contains(t, hal.Default().Drivers(), DriverName)
}
