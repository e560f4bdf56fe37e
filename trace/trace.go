// Package trace provides lightweight begin/end trace zones around HAL
// operations. Zones are purely observational: they log at high klog verbosity
// and never affect behavior.
package trace

import (
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// Verbosity levels used by this package: zones appear at -v=3, zone ids at -v=4.
const (
	zoneVerbosity = 3
	idVerbosity   = 4
)

// Zone is an open trace span. The zero Zone is inert and End on it is a no-op.
type Zone struct {
	name  string
	id    string
	start time.Time
}

// Begin opens a zone with the given name.
func Begin(name string) Zone {
	if !klog.V(zoneVerbosity).Enabled() {
		return Zone{}
	}
	z := Zone{name: name, start: time.Now()}
	if klog.V(idVerbosity).Enabled() {
		z.id = uuid.NewString()[:8]
		klog.V(idVerbosity).Infof("trace: begin %s [%s]", z.name, z.id)
	} else {
		klog.V(zoneVerbosity).Infof("trace: begin %s", z.name)
	}
	return z
}

// End closes the zone, logging its duration.
func (z Zone) End() {
	if z.start.IsZero() {
		return
	}
	elapsed := time.Since(z.start)
	if z.id != "" {
		klog.V(idVerbosity).Infof("trace: end %s [%s] (%s)", z.name, z.id, elapsed)
		return
	}
	klog.V(zoneVerbosity).Infof("trace: end %s (%s)", z.name, elapsed)
}
