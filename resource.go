package hal

import (
	"fmt"
	"sync/atomic"
)

// Resource is the reference-counted lifetime unit shared by Drivers and
// Devices. A resource starts with one reference owned by its creator;
// Retain adds a reference and Release drops one. When the count reaches
// zero the resource's destroy hook runs exactly once, after which the
// resource must not be used.
type Resource interface {
	Retain()
	Release()
}

// ResourceBase implements Resource for embedding in concrete driver and
// device types. Call InitResource exactly once before the resource is
// shared. Reference counting is atomic; the destroy hook itself runs on
// whichever goroutine performs the final Release.
type ResourceBase struct {
	refs    atomic.Int32
	destroy func()
}

// InitResource sets the reference count to one and records the destroy hook.
func (r *ResourceBase) InitResource(destroy func()) {
	r.refs.Store(1)
	r.destroy = destroy
}

// Retain adds a reference. Panics if the resource was already destroyed:
// resurrection is always a caller bug.
func (r *ResourceBase) Retain() {
	if n := r.refs.Add(1); n <= 1 {
		panic(fmt.Sprintf("hal: Retain on destroyed resource (refs=%d)", n))
	}
}

// Release drops a reference, running the destroy hook when the last one is
// dropped. Panics on over-release.
func (r *ResourceBase) Release() {
	n := r.refs.Add(-1)
	switch {
	case n == 0:
		if r.destroy != nil {
			r.destroy()
		}
	case n < 0:
		panic(fmt.Sprintf("hal: Release on destroyed resource (refs=%d)", n))
	}
}
