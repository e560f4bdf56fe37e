// Package cuda implements the CUDA backend for the HAL.
//
// The backend talks to the CUDA driver API (libcuda) through a dynamically
// loaded symbol table, so binaries using it run on machines without CUDA
// installed: creating the driver simply fails with BackendUnavailable there.
//
// Importing the package registers the "cuda" driver in hal.Default():
//
//	import _ "github.com/accelgo/hal/cuda"
package cuda

import (
	"unsafe"

	"k8s.io/klog/v2"

	"github.com/accelgo/hal"
	"github.com/accelgo/hal/status"
	"github.com/accelgo/hal/trace"
)

// DriverName is the name the driver registers under.
const DriverName = "cuda"

// MaxDeviceNameLength bounds each enumerated device name, in bytes. Longer
// native names are truncated; this bound is the wire contract with the
// native backend, which fills a fixed-size buffer rather than returning a
// length-prefixed string.
const MaxDeviceNameLength = 100

// deviceLabel is the fixed label attached to every created device.
const deviceLabel = "cuda"

// Driver is the CUDA implementation of hal.Driver. Its state is immutable
// after construction except for the reference count.
type Driver struct {
	hal.ResourceBase

	identifier         string
	defaultDeviceIndex int
	syms               *dynamicSymbols
}

var _ hal.Driver = (*Driver)(nil)

// New creates a CUDA driver: it loads the CUDA driver library and resolves
// its entry points. If the library is missing the error is
// BackendUnavailable; if an entry point is missing, SymbolResolutionFailed
// naming it. Release the returned driver to unload the library.
func New(identifier string, opts hal.DriverOptions) (*Driver, error) {
	if identifier == "" {
		return nil, status.Errorf(status.InvalidArgument, "driver identifier must not be empty")
	}
	d := newDriver(identifier, opts, nil)
	syms, err := loadSymbols()
	if err != nil {
		// Tear down the partially constructed driver; destroy tolerates the
		// symbol table never having loaded.
		d.Release()
		return nil, err
	}
	d.syms = syms
	klog.V(1).Infof("cuda: driver %q created", identifier)
	return d, nil
}

// newDriver constructs the driver around an optional pre-built symbol table.
// Tests use it to inject fakes.
func newDriver(identifier string, opts hal.DriverOptions, syms *dynamicSymbols) *Driver {
	d := &Driver{
		identifier:         identifier,
		defaultDeviceIndex: opts.DefaultDeviceIndex,
		syms:               syms,
	}
	d.InitResource(d.destroy)
	return d
}

// destroy runs on the final Release: by then no device references the
// driver, so the symbol table is unreachable and can be unloaded.
func (d *Driver) destroy() {
	d.syms.unload()
	klog.V(1).Infof("cuda: driver %q destroyed", d.identifier)
}

// Name implements hal.Driver.
func (d *Driver) Name() string { return d.identifier }

// DriverVersion reports the installed CUDA driver version.
func (d *Driver) DriverVersion() (major, minor int, err error) {
	var version int32
	if err := cuCheck(d.syms.cuDriverGetVersion(&version), "cuDriverGetVersion"); err != nil {
		return 0, 0, err
	}
	return int(version) / 1000, (int(version) % 1000) / 10, nil
}

// EnumerateDevices implements hal.Driver. Devices are reported in native
// enumeration order. All names share one backing buffer sized
// count*MaxDeviceNameLength, packed with an explicit cursor, so the whole
// snapshot is a single allocation.
//
// If one device fails to resolve mid-enumeration the result is truncated at
// that index rather than discarded; the failure is logged since silent
// truncation can hide driver issues.
func (d *Driver) EnumerateDevices() ([]hal.DeviceInfo, error) {
	var count int32
	if err := cuCheck(d.syms.cuDeviceGetCount(&count), "cuDeviceGetCount"); err != nil {
		return nil, status.Annotate(err, status.DeviceCountQueryFailed, "querying CUDA device count")
	}
	if count <= 0 {
		if count < 0 {
			klog.Warningf("cuda: native device count %d is negative, treating as zero", count)
		}
		return []hal.DeviceInfo{}, nil
	}
	infos := make([]hal.DeviceInfo, 0, count)
	nameBuf := make([]byte, int(count)*MaxDeviceNameLength)
	cursor := 0
	for i := int32(0); i < count; i++ {
		var device cuDevice
		if err := cuCheck(d.syms.cuDeviceGet(&device, i), "cuDeviceGet"); err != nil {
			klog.Warningf("cuda: device %d of %d failed to resolve, truncating enumeration: %v", i, count, err)
			break
		}
		n := d.packDeviceName(nameBuf[cursor:cursor+MaxDeviceNameLength], device)
		info := hal.DeviceInfo{ID: hal.DeviceID(device)}
		if n > 0 {
			// Zero-copy view into the shared name buffer.
			info.Name = unsafe.String(&nameBuf[cursor], n)
		}
		cursor += n
		infos = append(infos, info)
	}
	return infos, nil
}

// packDeviceName queries the device name into the given slot (exactly
// MaxDeviceNameLength bytes) and returns the name's byte length. A name
// query failure yields an empty name, not an enumeration failure. The
// returned length never exceeds the slot.
func (d *Driver) packDeviceName(slot []byte, device cuDevice) int {
	if err := cuCheck(d.syms.cuDeviceGetName(&slot[0], int32(len(slot)), device), "cuDeviceGetName"); err != nil {
		klog.Warningf("cuda: name query for device %d failed: %v", device, err)
		return 0
	}
	for i, b := range slot {
		if b == 0 {
			return i
		}
	}
	return len(slot)
}

// CreateDevice implements hal.Driver. A zero id resolves the configured
// default device; any other id is reinterpreted directly as the native
// device handle, trusted to come from a prior enumeration.
func (d *Driver) CreateDevice(id hal.DeviceID) (hal.Device, error) {
	zone := trace.Begin("cuda.CreateDevice")
	defer zone.End()

	// cuInit is idempotent in the native driver.
	if err := cuCheck(d.syms.cuInit(0), "cuInit"); err != nil {
		return nil, status.Annotate(err, status.BackendInitFailed, "initializing CUDA driver")
	}
	device := cuDevice(id)
	if id == hal.DeviceIDUnspecified {
		var err error
		device, err = d.selectDefaultDevice()
		if err != nil {
			return nil, err
		}
	}
	return newDevice(d, device), nil
}

// selectDefaultDevice resolves the configured defaultDeviceIndex against a
// fresh device count.
func (d *Driver) selectDefaultDevice() (cuDevice, error) {
	var count int32
	if err := cuCheck(d.syms.cuDeviceGetCount(&count), "cuDeviceGetCount"); err != nil {
		return 0, status.Annotate(err, status.DeviceCountQueryFailed, "querying CUDA device count")
	}
	if count == 0 || d.defaultDeviceIndex >= int(count) {
		return 0, status.Errorf(status.NotFound,
			"default device %d not found (of %d enumerated)", d.defaultDeviceIndex, count)
	}
	var device cuDevice
	if err := cuCheck(d.syms.cuDeviceGet(&device, int32(d.defaultDeviceIndex)), "cuDeviceGet"); err != nil {
		return 0, err
	}
	return device, nil
}
