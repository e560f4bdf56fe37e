package hal

import (
	"sort"
	"sync"

	"k8s.io/klog/v2"

	"github.com/accelgo/hal/status"
)

// Factory produces a Driver for one backend. The identifier is the name the
// factory was registered under; it becomes the driver's Name. Factories are
// invoked by Registry.Create and must return either a fully constructed
// driver or an error, never a partially initialized one.
type Factory func(identifier string, opts DriverOptions) (Driver, error)

// Registry maps driver names to factories. A single mutex guards the map:
// registration is infrequent, creation dominates, and neither is on a hot
// path. The zero value is not usable; call NewRegistry.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry. Most callers want Default instead.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. It fails with AlreadyRegistered if the name
// is taken — replacing a live driver factory is never intended.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" || factory == nil {
		return status.Errorf(status.InvalidArgument, "driver registration requires a name and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return status.Errorf(status.AlreadyRegistered, "driver %q already registered", name)
	}
	r.factories[name] = factory
	klog.V(1).Infof("hal: registered driver %q", name)
	return nil
}

// Unregister removes a named factory. Fails with NotFound if absent.
// Drivers already created from the factory are unaffected.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; !ok {
		return status.Errorf(status.NotFound, "driver %q not registered", name)
	}
	delete(r.factories, name)
	return nil
}

// Create instantiates a driver by name, delegating to its factory and
// propagating the factory's result verbatim. Fails with NotFound for an
// unknown name.
//
// The factory runs outside the registry lock: loading a native backend can
// block for a long time and must not stall other registry users.
func (r *Registry) Create(name string, opts DriverOptions) (Driver, error) {
	r.mu.Lock()
	factory, ok := r.factories[name]
	r.mu.Unlock()
	if !ok {
		return nil, status.Errorf(status.NotFound, "driver %q not registered", name)
	}
	return factory(name, opts)
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry that backend packages register
// themselves into from their init functions.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register adds a factory to the default registry.
func Register(name string, factory Factory) error {
	return Default().Register(name, factory)
}

// Create instantiates a driver from the default registry.
func Create(name string, opts DriverOptions) (Driver, error) {
	return Default().Create(name, opts)
}
