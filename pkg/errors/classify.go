package errors

import (
	stderrors "errors"
	"os"
	"syscall"
)

// ClassifyFileError inspects a filesystem error and maps it onto the
// closed Kind taxonomy, attaching the offending path as a detail. Disk-full
// and permission errors are common enough operational conditions that they
// are worth recognizing explicitly rather than falling back to a bare Io
// wrap with no further context.
func ClassifyFileError(err error, path string) *Error {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, Io, "filesystem operation failed").WithDetail("path", path)

	var errno syscall.Errno
	if stderrors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC:
			return wrapped.WithDetail("reason", "disk_full")
		case syscall.EACCES, syscall.EPERM:
			return wrapped.WithDetail("reason", "permission_denied")
		case syscall.EROFS:
			return wrapped.WithDetail("reason", "read_only_filesystem")
		}
	}
	if os.IsPermission(err) {
		return wrapped.WithDetail("reason", "permission_denied")
	}

	return wrapped
}
