// Package dynlib loads native shared libraries at runtime and resolves entry
// points from them, so a backend can be used without a link-time dependency
// on its driver library.
//
// Libraries are located with a platform-appropriate search strategy: an
// absolute path is opened directly; a bare name is searched first in the
// directories of the HAL_LIBRARY_PATH environment variable, then in a small
// set of well-known install directories, and finally handed to the system
// loader's own search path.
package dynlib

import (
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/accelgo/hal/status"
)

// PathEnvVar overrides the library search path. Its value is a list of
// directories separated by the platform's path-list separator.
const PathEnvVar = "HAL_LIBRARY_PATH"

// Library is an open handle to a native shared library.
type Library struct {
	handle uintptr
	path   string
}

// Open opens the first library that can be located from the given name hints.
// Each hint is either an absolute path or a bare file name. It returns a
// BackendUnavailable error listing every attempted candidate if none opens.
func Open(names ...string) (*Library, error) {
	if len(names) == 0 {
		return nil, status.Errorf(status.InvalidArgument, "no library name hints given")
	}
	var attempted []string
	for _, name := range names {
		for _, candidate := range candidatePaths(name) {
			handle, err := openLibrary(candidate)
			if err != nil {
				attempted = append(attempted, candidate)
				continue
			}
			klog.V(1).Infof("dynlib: opened %q", candidate)
			return &Library{handle: handle, path: candidate}, nil
		}
	}
	return nil, status.Errorf(status.BackendUnavailable,
		"unable to open native library (tried %s)", strings.Join(attempted, ", "))
}

// candidatePaths expands one name hint into the list of paths to try, in
// search order.
func candidatePaths(name string) []string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, os.PathSeparator) {
		return []string{name}
	}
	var paths []string
	if env := os.Getenv(PathEnvVar); env != "" {
		for _, dir := range filepath.SplitList(env) {
			if dir != "" {
				paths = append(paths, filepath.Join(dir, name))
			}
		}
	}
	for _, dir := range wellKnownDirs {
		paths = append(paths, filepath.Join(dir, name))
	}
	// Bare name last: lets the system loader apply its own search path.
	paths = append(paths, name)
	return paths
}

// Path returns the path (or bare name) the library was opened from.
func (l *Library) Path() string { return l.path }

// Lookup resolves a symbol to its address. It returns a
// SymbolResolutionFailed error naming the symbol if absent.
func (l *Library) Lookup(symbol string) (uintptr, error) {
	if l == nil || l.handle == 0 {
		return 0, status.Errorf(status.InvalidArgument, "lookup %q on closed library", symbol)
	}
	addr, err := lookupSymbol(l.handle, symbol)
	if err != nil {
		return 0, status.Annotate(err, status.SymbolResolutionFailed,
			"symbol %q not found in %q", symbol, l.path)
	}
	if addr == 0 {
		return 0, status.Errorf(status.SymbolResolutionFailed,
			"symbol %q not found in %q", symbol, l.path)
	}
	return addr, nil
}

// Close unloads the library. Safe to call more than once; only the first
// call releases the native handle. Any address previously returned by Lookup
// must not be called after Close.
func (l *Library) Close() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	handle := l.handle
	l.handle = 0
	klog.V(1).Infof("dynlib: closing %q", l.path)
	return closeLibrary(handle)
}
