// Package host implements a pure-Go CPU backend for the HAL. It is always
// available, needs no native library, and exposes the local machine as a
// single device. It is the fallback backend and the one integration tests
// run against.
//
// Importing the package registers the "host" driver in hal.Default():
//
//	import _ "github.com/accelgo/hal/host"
package host

import (
	"fmt"
	"runtime"

	"k8s.io/klog/v2"

	"github.com/accelgo/hal"
	"github.com/accelgo/hal/status"
	"github.com/accelgo/hal/trace"
)

// DriverName is the name the driver registers under.
const DriverName = "host"

const deviceLabel = "host"

func init() {
	if err := hal.Register(DriverName, factory); err != nil {
		klog.Errorf("host: %v", err)
	}
}

func factory(identifier string, opts hal.DriverOptions) (hal.Driver, error) {
	driver, err := New(identifier, opts)
	if err != nil {
		return nil, err
	}
	return driver, nil
}

// Driver is the host CPU implementation of hal.Driver.
type Driver struct {
	hal.ResourceBase

	identifier         string
	defaultDeviceIndex int
}

var _ hal.Driver = (*Driver)(nil)

// New creates a host driver. It cannot fail beyond argument validation:
// there is no native library to load.
func New(identifier string, opts hal.DriverOptions) (*Driver, error) {
	if identifier == "" {
		return nil, status.Errorf(status.InvalidArgument, "driver identifier must not be empty")
	}
	d := &Driver{identifier: identifier, defaultDeviceIndex: opts.DefaultDeviceIndex}
	d.InitResource(nil)
	return d, nil
}

// Name implements hal.Driver.
func (d *Driver) Name() string { return d.identifier }

// EnumerateDevices implements hal.Driver: always exactly one device, the
// local machine.
func (d *Driver) EnumerateDevices() ([]hal.DeviceInfo, error) {
	return []hal.DeviceInfo{{
		ID:   hal.DeviceID(0),
		Name: fmt.Sprintf("%s/%s (%d CPUs)", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()),
	}}, nil
}

// CreateDevice implements hal.Driver.
func (d *Driver) CreateDevice(id hal.DeviceID) (hal.Device, error) {
	zone := trace.Begin("host.CreateDevice")
	defer zone.End()

	if id == hal.DeviceIDUnspecified {
		// Single device, so any configured default beyond index 0 is out of
		// range.
		if d.defaultDeviceIndex != 0 {
			return nil, status.Errorf(status.NotFound,
				"default device %d not found (of %d enumerated)", d.defaultDeviceIndex, 1)
		}
	} else if id != 0 {
		return nil, status.Errorf(status.NotFound, "host device %d not found", id)
	}
	return newDevice(d), nil
}

// Device is the host CPU implementation of hal.Device.
type Device struct {
	hal.ResourceBase

	driver *Driver
}

var _ hal.Device = (*Device)(nil)

func newDevice(driver *Driver) *Device {
	device := &Device{driver: driver}
	device.InitResource(device.destroy)
	driver.Retain()
	return device
}

func (d *Device) destroy() { d.driver.Release() }

// ID implements hal.Device.
func (d *Device) ID() hal.DeviceID { return 0 }

// Name implements hal.Device.
func (d *Device) Name() string { return deviceLabel }

// Driver implements hal.Device.
func (d *Device) Driver() hal.Driver { return d.driver }
