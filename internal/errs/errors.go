// Package errs implements the closed error taxonomy every component in
// fs-context-mcp raises from, plus the translation utilities that turn a
// domain error into the wire-level tool response.
package errs

import (
	"errors"
	"fmt"
)

// Code is the closed set of classified error codes a tool may return.
type Code string

const (
	AccessDenied     Code = "E_ACCESS_DENIED"
	NotFound         Code = "E_NOT_FOUND"
	NotFile          Code = "E_NOT_FILE"
	NotDirectory     Code = "E_NOT_DIRECTORY"
	TooLarge         Code = "E_TOO_LARGE"
	BinaryFile       Code = "E_BINARY_FILE"
	Timeout          Code = "E_TIMEOUT"
	InvalidPattern   Code = "E_INVALID_PATTERN"
	InvalidInput     Code = "E_INVALID_INPUT"
	PermissionDenied Code = "E_PERMISSION_DENIED"
	SymlinkNotAllowed Code = "E_SYMLINK_NOT_ALLOWED"
	PathTraversal    Code = "E_PATH_TRAVERSAL"
	Unknown          Code = "E_UNKNOWN"
)

// suggestions is the constant table keyed by Code, giving the user-visible
// hint every error response carries (spec.md §7).
var suggestions = map[Code]string{
	AccessDenied:      "Use the roots tool to see available paths",
	NotFound:          "Check the path exists within an allowed root",
	NotFile:           "The path refers to a directory, not a file",
	NotDirectory:      "The path refers to a file, not a directory",
	TooLarge:          "Narrow the request with head/tail/lineStart+lineEnd or raise maxFileSize",
	BinaryFile:        "Pass skipBinary=false only if you expect binary content",
	Timeout:           "Narrow the search or raise the deadline",
	InvalidPattern:    "Check the pattern compiles and is not ReDoS-prone",
	InvalidInput:      "Check the arguments against the tool's schema",
	PermissionDenied:  "The server process lacks OS permission for this path",
	SymlinkNotAllowed: "Symlinks that escape an allowed root are rejected",
	PathTraversal:     "The resolved path escapes every allowed root",
	Unknown:           "An unclassified error occurred; see details",
}

// Suggestion returns the constant-table hint for a code.
func Suggestion(c Code) string {
	if s, ok := suggestions[c]; ok {
		return s
	}
	return suggestions[Unknown]
}

// Error is the domain error every component raises. It carries enough
// context for ToErrorResponse to build the wire envelope without any
// lower layer needing to format user-visible text itself.
type Error struct {
	Code    Code
	Message string
	Path    string
	Details map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a classified error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a classified error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPath returns a copy of e with Path set.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// WithCause returns a copy of e with Cause set.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetail returns a copy of e with a detail key/value added.
func (e *Error) WithDetail(key, value string) *Error {
	cp := *e
	details := make(map[string]string, len(cp.Details)+1)
	for k, v := range cp.Details {
		details[k] = v
	}
	details[key] = value
	cp.Details = details
	return &cp
}

// Is supports errors.Is(err, errs.New(code, "")) comparisons by code alone,
// mirroring the sentinel-error matching the teacher's errors.go used
// (errors.Is(err, ErrPathOutsideRoot)) but against a single closed enum
// instead of one sentinel per failure string.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// CodeOf extracts the Code from err, defaulting to Unknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}

// AsDetailed converts any error into *Error, classifying unknown errors as
// Unknown and attaching path/extra context. This is create_detailed from
// spec.md §4.7.
func AsDetailed(err error, path string, extra map[string]string) *Error {
	var e *Error
	if errors.As(err, &e) {
		if path != "" && e.Path == "" {
			e = e.WithPath(path)
		}
		for k, v := range extra {
			e = e.WithDetail(k, v)
		}
		return e
	}
	out := &Error{Code: Unknown, Message: err.Error(), Path: path, Cause: err}
	for k, v := range extra {
		out = out.WithDetail(k, v)
	}
	return out
}
