// Package hal is a hardware abstraction layer over heterogeneous compute
// backends: one polymorphic driver/device interface covering GPU accelerators,
// local CPU execution, and other accelerator APIs.
//
// A backend implements the Driver and Device interfaces and registers a
// factory for itself under a name, usually from its package init:
//
//	import _ "github.com/accelgo/hal/cuda" // registers the "cuda" driver
//	import _ "github.com/accelgo/hal/host" // registers the "host" driver
//
// Callers then go through the registry:
//
//	driver, err := hal.Create("cuda", hal.DriverOptions{})
//	if err != nil { ... }
//	defer driver.Release()
//	infos, err := driver.EnumerateDevices()
//	device, err := driver.CreateDevice(hal.DeviceIDUnspecified)
//
// Drivers and Devices are reference counted. A Device retains the Driver that
// created it, so the driver (and any native symbol table it owns) outlives
// every device it produced; releasing resources in any order is safe.
//
// All operations are synchronous and return an error carrying a
// status.Status category; see the status package.
package hal

// DeviceID identifies one device to a driver. Its interpretation is backend
// defined; for native backends it is the native device handle reinterpreted
// as an integer. Callers obtain ids from EnumerateDevices or pass
// DeviceIDUnspecified to let the driver pick its configured default.
type DeviceID uint64

// DeviceIDUnspecified asks CreateDevice to resolve the driver's configured
// default device instead of a specific one.
const DeviceIDUnspecified DeviceID = 0

// DeviceInfo describes one enumerated device.
type DeviceInfo struct {
	// ID is the backend-defined device identifier, usable with CreateDevice.
	ID DeviceID

	// Name is the human-readable device name reported by the backend,
	// bounded by the backend's name-length limit.
	Name string
}

// DriverOptions configures driver construction. The zero value is the
// default configuration.
type DriverOptions struct {
	// DefaultDeviceIndex selects which enumerated device (by native
	// enumeration order) CreateDevice(DeviceIDUnspecified) resolves to.
	DefaultDeviceIndex int
}

// Driver represents one loaded backend implementation. Drivers are created
// through a Registry and released with Release; the final release unloads
// any native library the driver holds.
//
// A Driver's state does not mutate after construction, so it is safe to
// share across goroutines.
type Driver interface {
	Resource

	// Name returns the identifier the driver was created with.
	Name() string

	// EnumerateDevices returns the devices currently visible to the backend,
	// in native enumeration order. A backend with no devices returns an
	// empty slice and no error. The result is a point-in-time snapshot.
	EnumerateDevices() ([]DeviceInfo, error)

	// CreateDevice creates a device from an id previously obtained from
	// EnumerateDevices, or resolves the configured default device when id
	// is DeviceIDUnspecified. The returned Device retains this driver until
	// released.
	CreateDevice(id DeviceID) (Device, error)
}

// Device is one concrete accelerator or execution context created by a
// Driver. Release the device when done; the device's final release drops
// its reference on the creating driver.
type Device interface {
	Resource

	// ID returns the backend device identifier this device was created from.
	ID() DeviceID

	// Name returns the fixed human-readable label of the backend kind
	// (e.g. "cuda"), not the enumerated per-device name.
	Name() string

	// Driver returns the driver that created this device, without adding a
	// reference.
	Driver() Driver
}
