package cuda

import (
	"runtime"

	"github.com/ebitengine/purego"

	"github.com/accelgo/hal/dynlib"
)

// cuDevice mirrors CUdevice, the driver API's device ordinal handle.
type cuDevice int32

// dynamicSymbols holds the resolved CUDA driver API entry points. The table
// is all-or-nothing: loadSymbols either resolves every entry point or fails
// without exposing a partially populated table. After load the function
// fields are read-only; unload must only run once no caller can reach them
// (enforced by the owning driver's reference count).
type dynamicSymbols struct {
	// closer releases the underlying native library. Nil when the table was
	// never loaded (or already unloaded), which makes partial-construction
	// teardown a no-op.
	closer func() error

	cuInit             func(flags uint32) cuResult
	cuDriverGetVersion func(version *int32) cuResult
	cuDeviceGetCount   func(count *int32) cuResult
	cuDeviceGet        func(device *cuDevice, ordinal int32) cuResult
	cuDeviceGetName    func(name *byte, nameLen int32, device cuDevice) cuResult
	cuDeviceTotalMem   func(bytes *uint64, device cuDevice) cuResult
}

// symbolSource is the loader surface the symbol table resolves from.
// *dynlib.Library implements it.
type symbolSource interface {
	Lookup(symbol string) (uintptr, error)
	Close() error
}

// openLibrary locates and opens the CUDA driver library. Overridable so
// tests can exercise the load/resolve failure paths without a real libcuda.
var openLibrary = func() (symbolSource, error) {
	lib, err := dynlib.Open(libraryHints()...)
	if err != nil {
		return nil, err
	}
	return lib, nil
}

// registerFunc binds a resolved address to a typed Go function field.
// Overridable so tests can resolve from a fake source without producing
// callable trampolines for fake addresses.
var registerFunc = purego.RegisterFunc

// libraryHints returns the shared-library name candidates for this platform.
func libraryHints() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"nvcuda.dll"}
	case "darwin":
		return []string{"libcuda.dylib"}
	default:
		return []string{"libcuda.so.1", "libcuda.so"}
	}
}

// loadSymbols opens the CUDA driver library and resolves every required
// entry point.
func loadSymbols() (*dynamicSymbols, error) {
	src, err := openLibrary()
	if err != nil {
		return nil, err
	}
	return resolveSymbols(src)
}

// resolveSymbols fills a symbol table from the given source. On any missing
// entry point the source is closed again and no table is returned.
func resolveSymbols(src symbolSource) (*dynamicSymbols, error) {
	syms := &dynamicSymbols{closer: src.Close}
	for _, entry := range []struct {
		name string
		fptr any
	}{
		{"cuInit", &syms.cuInit},
		{"cuDriverGetVersion", &syms.cuDriverGetVersion},
		{"cuDeviceGetCount", &syms.cuDeviceGetCount},
		{"cuDeviceGet", &syms.cuDeviceGet},
		{"cuDeviceGetName", &syms.cuDeviceGetName},
		{"cuDeviceTotalMem_v2", &syms.cuDeviceTotalMem},
	} {
		addr, err := src.Lookup(entry.name)
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		registerFunc(entry.fptr, addr)
	}
	return syms, nil
}

// unload closes the native library. Safe on a nil or never-loaded table and
// idempotent, so the driver's destroy path can call it unconditionally.
func (s *dynamicSymbols) unload() {
	if s == nil || s.closer == nil {
		return
	}
	closer := s.closer
	s.closer = nil
	_ = closer()
}
