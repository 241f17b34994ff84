package sandbox

import (
	"regexp"
	"strings"

	"github.com/fscontext/mcp-server/internal/errs"
)

// reservedWindowsNames is the classic DOS device-name list, spec.md §4.1
// step 2. Matching is case-insensitive and ignores a trailing dot/space
// or an alternate-data-stream suffix (":" onward), same as Windows itself
// does when resolving a path to a device.
var reservedWindowsNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

var driveRelative = regexp.MustCompile(`^[A-Za-z]:[^/\\]`)

// checkPlatformRestrictions implements spec.md §4.1 step 2: reject
// reserved Windows device names and drive-relative paths (`C:foo`)
// unconditionally, regardless of runtime.GOOS. An allow-listed root
// should behave identically for every client no matter which OS the
// server happens to run on, and a reserved-name path is never a
// legitimate target on any platform.
func checkPlatformRestrictions(requested string) error {
	if driveRelative.MatchString(requested) {
		return errs.New(errs.InvalidInput, "drive-relative paths are not allowed").WithPath(requested)
	}
	for _, seg := range splitPathSegments(requested) {
		if isReservedName(seg) {
			return errs.Newf(errs.InvalidInput, "%q is a reserved device name", seg).WithPath(requested)
		}
	}
	return nil
}

func splitPathSegments(p string) []string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.Split(p, "/")
}

func isReservedName(seg string) bool {
	if seg == "" {
		return false
	}
	// Strip alternate-data-stream suffix and trailing dots/spaces, which
	// Windows ignores when resolving a segment to a device name.
	if i := strings.IndexByte(seg, ':'); i >= 0 {
		seg = seg[:i]
	}
	seg = strings.TrimRight(seg, ". ")
	base := seg
	if i := strings.IndexByte(seg, '.'); i >= 0 {
		base = seg[:i]
	}
	_, reserved := reservedWindowsNames[strings.ToUpper(base)]
	return reserved
}
