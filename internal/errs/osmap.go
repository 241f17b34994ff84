package errs

import (
	"errors"
	"io/fs"
)

// Classify maps an OS-level error to a Code, following the translation
// table in spec.md §4.1 step 5. It is the Go analogue of the teacher's
// toErrorResponse switch in errors.go, generalized from a handful of
// sentinel errors to the full errno table the spec calls out. Portable
// classification lives here; platform-specific errno refinement (ELOOP,
// ENAMETOOLONG, ...) lives in osmap_unix.go since those errnos don't
// exist in the Windows build of package syscall.
func Classify(err error) Code {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, fs.ErrInvalid):
		return InvalidInput
	default:
		if c, ok := classifyPlatform(err); ok {
			return c
		}
		return Unknown
	}
}

// FromOS converts an OS-level error into a classified *Error, preserving
// the original error as Cause for causation chaining (spec.md §7:
// "lower layers keep the original for causation chaining").
func FromOS(op, path string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    Classify(err),
		Message: op + " failed",
		Path:    path,
		Cause:   err,
	}
}
