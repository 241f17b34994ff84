//go:build windows || darwin

package sandbox

// caseInsensitiveFS reports whether the host filesystem is normally
// case-insensitive. Windows and macOS default to case-insensitive (if
// case-preserving) volumes; spec.md §3 asks AllowedRoots dedup to
// case-fold "on case-insensitive platforms".
func caseInsensitiveFS() bool { return true }
