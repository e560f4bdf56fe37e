package cuda

import (
	"k8s.io/klog/v2"

	"github.com/accelgo/hal"
)

// Registers New as the factory for the "cuda" driver. Registration succeeds
// even when libcuda is absent; the library is only loaded when a driver is
// created.
func init() {
	if err := hal.Register(DriverName, factory); err != nil {
		klog.Errorf("cuda: %v", err)
	}
}

func factory(identifier string, opts hal.DriverOptions) (hal.Driver, error) {
	driver, err := New(identifier, opts)
	if err != nil {
		return nil, err
	}
	return driver, nil
}
