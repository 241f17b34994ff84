//go:build windows

package errs

import (
	"errors"
	"syscall"
)

// classifyPlatform refines Classify on Windows, where the relevant
// errors surface as syscall.Errno values distinct from the POSIX set
// used in osmap_unix.go.
func classifyPlatform(err error) (Code, bool) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return "", false
	}
	switch errno {
	case syscall.ERROR_FILE_NOT_FOUND, syscall.ERROR_PATH_NOT_FOUND:
		return NotFound, true
	case syscall.ERROR_ACCESS_DENIED:
		return PermissionDenied, true
	case syscall.ERROR_FILENAME_EXCED_RANGE:
		return InvalidInput, true
	case syscall.ERROR_DIRECTORY:
		return NotDirectory, true
	case syscall.ERROR_DIR_NOT_EMPTY:
		return NotDirectory, true
	default:
		return "", false
	}
}
