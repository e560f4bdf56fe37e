package cuda

import (
	"github.com/accelgo/hal"
)

// Device is the CUDA implementation of hal.Device. It wraps the native
// device handle used by everything layered above this subsystem.
type Device struct {
	hal.ResourceBase

	driver *Driver
	handle cuDevice
}

var _ hal.Device = (*Device)(nil)

// newDevice wraps a resolved native handle. The device retains its driver so
// the symbol table stays loaded for as long as the device exists.
func newDevice(driver *Driver, handle cuDevice) *Device {
	device := &Device{driver: driver, handle: handle}
	device.InitResource(device.destroy)
	driver.Retain()
	return device
}

// destroy drops the driver reference last: nothing on the device may touch
// the symbol table after this.
func (d *Device) destroy() {
	d.driver.Release()
}

// ID implements hal.Device.
func (d *Device) ID() hal.DeviceID { return hal.DeviceID(d.handle) }

// Name implements hal.Device: the fixed backend label, not the enumerated
// per-device name.
func (d *Device) Name() string { return deviceLabel }

// Driver implements hal.Device.
func (d *Device) Driver() hal.Driver { return d.driver }

// TotalMemory reports the device's total memory in bytes.
func (d *Device) TotalMemory() (uint64, error) {
	var bytes uint64
	if err := cuCheck(d.driver.syms.cuDeviceTotalMem(&bytes, d.handle), "cuDeviceTotalMem"); err != nil {
		return 0, err
	}
	return bytes, nil
}
