// Package errdefs defines the error kinds shared across the hardware
// abstraction layer: feature-unsupported, invalid-argument, I/O, and
// failed-operation. Backends return one of these (optionally wrapped
// with a message naming the originating path or library call) so the
// aggregator and IPC boundary can classify failures without parsing
// error strings.
package errdefs

import (
	"errors"
	"fmt"
)

var (
	// ErrFeatureUnsupported means the requested capability does not
	// exist on this host or backend. Always safe to fall back from.
	ErrFeatureUnsupported = errors.New("feature unsupported")

	// ErrInvalidArgument means the caller supplied a value that is out
	// of range or otherwise disallowed. Never silently clamped except
	// for the one documented case in CPU.SetCoresEnabled.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIOError means a sysfs read/write or FFI call failed.
	ErrIOError = errors.New("io error")

	// ErrFailedOperation means a backend-specific fault occurred that
	// might succeed against a different backend.
	ErrFailedOperation = errors.New("failed operation")
)

// IsFeatureUnsupported reports whether err (or anything it wraps) is ErrFeatureUnsupported.
func IsFeatureUnsupported(err error) bool { return errors.Is(err, ErrFeatureUnsupported) }

// IsInvalidArgument reports whether err (or anything it wraps) is ErrInvalidArgument.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

// IsIOError reports whether err (or anything it wraps) is ErrIOError.
func IsIOError(err error) bool { return errors.Is(err, ErrIOError) }

// IsFailedOperation reports whether err (or anything it wraps) is ErrFailedOperation.
func IsFailedOperation(err error) bool { return errors.Is(err, ErrFailedOperation) }

// FeatureUnsupportedf wraps ErrFeatureUnsupported with a formatted message.
func FeatureUnsupportedf(format string, args ...any) error {
	return wrapf(ErrFeatureUnsupported, format, args...)
}

// InvalidArgumentf wraps ErrInvalidArgument with a formatted message.
func InvalidArgumentf(format string, args ...any) error {
	return wrapf(ErrInvalidArgument, format, args...)
}

// IOErrorf wraps ErrIOError with a formatted message.
func IOErrorf(format string, args ...any) error {
	return wrapf(ErrIOError, format, args...)
}

// FailedOperationf wraps ErrFailedOperation with a formatted message.
func FailedOperationf(format string, args ...any) error {
	return wrapf(ErrFailedOperation, format, args...)
}

func wrapf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
