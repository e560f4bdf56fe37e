// Package status defines the structured error type shared by every operation
// in the HAL: a category code plus a formatted message, optionally wrapping a
// lower-level cause.
//
// All fallible HAL operations return a plain Go error whose chain contains a
// *Status. Callers branch on the category with CodeOf or IsCode; the message
// and wrapped cause are kept for diagnostics.
package status

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is the error category. It is deliberately coarse: callers are expected
// to branch on the category, not parse messages.
type Code int

const (
	// OK is the zero Code and is never carried by a returned error.
	OK Code = iota

	// Unknown is used when an error from outside the HAL is wrapped without
	// a more specific category.
	Unknown

	// InvalidArgument indicates a nil or malformed required argument.
	InvalidArgument

	// AlreadyRegistered indicates a driver name collision in the registry.
	AlreadyRegistered

	// NotFound indicates an unknown driver name or an out-of-range default
	// device index.
	NotFound

	// BackendUnavailable indicates the backend's native library could not be
	// located or opened.
	BackendUnavailable

	// SymbolResolutionFailed indicates a required native entry point was
	// missing from an otherwise loadable library. The message names the
	// symbol.
	SymbolResolutionFailed

	// DeviceCountQueryFailed indicates the native device-count query failed.
	DeviceCountQueryFailed

	// BackendInitFailed indicates the backend's global runtime initialization
	// failed.
	BackendInitFailed

	// AllocationFailed indicates host memory exhaustion.
	AllocationFailed

	// NativeOperationFailed wraps any other native error code; the message
	// preserves the original code and the call that produced it.
	NativeOperationFailed
)

var codeNames = map[Code]string{
	OK:                     "ok",
	Unknown:                "unknown",
	InvalidArgument:        "invalid argument",
	AlreadyRegistered:      "already registered",
	NotFound:               "not found",
	BackendUnavailable:     "backend unavailable",
	SymbolResolutionFailed: "symbol resolution failed",
	DeviceCountQueryFailed: "device count query failed",
	BackendInitFailed:      "backend init failed",
	AllocationFailed:       "allocation failed",
	NativeOperationFailed:  "native operation failed",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Status is a categorized error. Construct it with Errorf or Annotate.
type Status struct {
	code  Code
	msg   string
	cause error
}

// Error implements the error interface.
func (s *Status) Error() string {
	if s.cause != nil {
		return fmt.Sprintf("%s: %s: %v", s.code, s.msg, s.cause)
	}
	return fmt.Sprintf("%s: %s", s.code, s.msg)
}

// Code returns the error category.
func (s *Status) Code() Code { return s.code }

// Unwrap returns the wrapped cause, if any.
func (s *Status) Unwrap() error { return s.cause }

// Is matches another *Status with the same code, so errors.Is can be used
// with a bare Errorf(code, ...) sentinel.
func (s *Status) Is(target error) bool {
	t, ok := target.(*Status)
	return ok && t.code == s.code
}

// Errorf creates a new error with the given category and formatted message.
func Errorf(code Code, format string, args ...any) error {
	return &Status{code: code, msg: fmt.Sprintf(format, args...)}
}

// Annotate wraps cause with a category and a formatted message. Returns nil
// if cause is nil, so it can be used unconditionally on a call result.
func Annotate(cause error, code Code, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Status{code: code, msg: fmt.Sprintf(format, args...), cause: cause}
}

// CodeOf extracts the category from an error chain. Nil maps to OK and an
// error with no *Status in its chain maps to Unknown.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var s *Status
	if errors.As(err, &s) {
		return s.code
	}
	return Unknown
}

// IsCode reports whether the error chain carries the given category.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
