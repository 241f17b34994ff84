package sandbox

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultSensitivePatterns is the built-in deny-list from spec.md §4.1
// step 7: credential and secret files a tool should never read or write
// even when they live inside an allowed root.
var defaultSensitivePatterns = []string{
	".env", ".env.*", "*.pem", "*.key", "id_rsa", "id_ed25519",
	".npmrc", ".netrc", ".git-credentials", "*.pfx", "*.p12",
	".aws/credentials", ".ssh/**",
}

// SensitiveList matches both basename and full resolved path against a
// deny-list, with an allow-list override, using glob semantics
// (doublestar, the same library GlobEngine uses for consistency).
type SensitiveList struct {
	deny  []string
	allow []string
}

// NewSensitiveList builds a deny-list from the environment-provided
// override (FS_CONTEXT_ALLOWLIST, spec.md §6) plus the built-ins, unless
// allowSensitiveOverride disables the deny-list outright
// (FS_CONTEXT_ALLOW_SENSITIVE=1).
func NewSensitiveList(allowSensitiveOverride bool, allowlistPatterns []string) *SensitiveList {
	if allowSensitiveOverride {
		return &SensitiveList{}
	}
	return &SensitiveList{
		deny:  append([]string{}, defaultSensitivePatterns...),
		allow: allowlistPatterns,
	}
}

// Matches reports whether resolvedPath should be denied.
func (s *SensitiveList) Matches(resolvedPath string) bool {
	if s == nil || len(s.deny) == 0 {
		return false
	}
	base := filepath.Base(resolvedPath)
	slash := filepath.ToSlash(resolvedPath)
	for _, pat := range s.allow {
		if matchGlob(pat, base) || matchGlob(pat, slash) {
			return false
		}
	}
	for _, pat := range s.deny {
		if matchGlob(pat, base) || matchGlob(pat, slash) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, candidate string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	ok, err := doublestar.Match(pattern, candidate)
	if err != nil {
		return false
	}
	if ok {
		return true
	}
	// Also try matching a pattern that contains a "/" against the path's
	// suffix, so ".aws/credentials" matches "/home/u/.aws/credentials"
	// without requiring "**/.aws/credentials" from the caller. Basename-only
	// patterns like ".env" are covered by Matches' basename comparison.
	if !strings.Contains(pattern, "/") {
		return false
	}
	suffixMatch, err := doublestar.Match("**/"+pattern, candidate)
	return err == nil && suffixMatch
}
