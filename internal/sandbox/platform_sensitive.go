//go:build !windows && !darwin

package sandbox

// caseInsensitiveFS reports whether the host filesystem is normally
// case-insensitive. Linux and the other Unixes default to case-sensitive
// volumes.
func caseInsensitiveFS() bool { return false }
