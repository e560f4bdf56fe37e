//go:build windows

package dynlib

import (
	"syscall"
)

var wellKnownDirs []string

func openLibrary(path string) (uintptr, error) {
	dll, err := syscall.LoadDLL(path)
	if err != nil {
		return 0, err
	}
	return uintptr(dll.Handle), nil
}

func lookupSymbol(handle uintptr, symbol string) (uintptr, error) {
	dll := &syscall.DLL{Handle: syscall.Handle(handle)}
	proc, err := dll.FindProc(symbol)
	if err != nil {
		return 0, err
	}
	return proc.Addr(), nil
}

func closeLibrary(handle uintptr) error {
	return syscall.FreeLibrary(syscall.Handle(handle))
}
