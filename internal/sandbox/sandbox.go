// Package sandbox implements PathSandbox (spec.md §4.1): mapping a
// requested path to a ValidatedPath inside the current allow-list, or
// failing with a classified error. It generalizes the teacher's
// pathutil.go (safeJoin/safeJoinResolveFinal against one fixed root)
// to the dynamic, multi-root AllowedRoots snapshot internal/roots owns.
package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fscontext/mcp-server/internal/errs"
)

// RootsSnapshot is the read-only view PathSandbox consults. internal/roots
// implements it; tests can fake it with a plain slice.
type RootsSnapshot interface {
	// Roots returns the current allowed roots, canonical absolute paths.
	Roots() []string
}

// StaticRoots is the trivial RootsSnapshot used by tests and by callers
// that don't need live root updates.
type StaticRoots []string

func (s StaticRoots) Roots() []string { return []string(s) }

// ValidatedPath is the result of a successful validation (spec.md §3).
type ValidatedPath struct {
	RequestedNorm string
	ResolvedReal  string
	IsSymlink     bool
}

// Sandbox validates requested paths against a RootsSnapshot and an
// optional sensitive-file deny-list.
type Sandbox struct {
	roots    RootsSnapshot
	sensitive *SensitiveList
}

// New builds a Sandbox. sensitive may be nil to disable the deny-list.
func New(roots RootsSnapshot, sensitive *SensitiveList) *Sandbox {
	return &Sandbox{roots: roots, sensitive: sensitive}
}

// ValidateExisting implements spec.md §4.1 validate_existing.
func (s *Sandbox) ValidateExisting(requested string) (*ValidatedPath, error) {
	vp, err := s.validateCommon(requested)
	if err != nil {
		return nil, err
	}
	if _, err := os.Lstat(vp.ResolvedReal); err != nil {
		return nil, errs.FromOS("stat", requested, err)
	}
	return vp, nil
}

// ValidateExistingDirectory implements validate_existing_directory.
func (s *Sandbox) ValidateExistingDirectory(requested string) (*ValidatedPath, error) {
	vp, err := s.ValidateExisting(requested)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(vp.ResolvedReal)
	if err != nil {
		return nil, errs.FromOS("stat", requested, err)
	}
	if !fi.IsDir() {
		return nil, errs.New(errs.NotDirectory, "not a directory").WithPath(requested)
	}
	return vp, nil
}

// ValidateForWrite implements validate_for_write: the target need not
// exist, but its parent must, and the eventual resolved path must lie
// inside an allowed root.
func (s *Sandbox) ValidateForWrite(requested string) (*ValidatedPath, error) {
	vp, err := s.validateCommon(requested)
	if err != nil {
		return nil, err
	}
	parent := filepath.Dir(vp.ResolvedReal)
	if _, err := os.Stat(parent); err != nil {
		return nil, errs.FromOS("stat parent", requested, err)
	}
	return vp, nil
}

// validateCommon implements steps 1-6 of spec.md §4.1's algorithm, shared
// by all three public entry points.
func (s *Sandbox) validateCommon(requested string) (*ValidatedPath, error) {
	trimmed := strings.TrimSpace(requested)
	if trimmed == "" {
		return nil, errs.New(errs.InvalidInput, "path is required")
	}
	if strings.ContainsRune(requested, 0) {
		return nil, errs.New(errs.InvalidInput, "path contains a null byte").WithPath(requested)
	}
	if err := checkPlatformRestrictions(requested); err != nil {
		return nil, err
	}

	reqNorm := filepath.Clean(requested)
	roots := s.roots.Roots()
	if len(roots) == 0 {
		return nil, errs.New(errs.AccessDenied, "no allowed roots are configured").WithPath(requested)
	}

	// Step 3/4: lexical containment check against the requested string,
	// resolving relative paths against each candidate root in turn.
	var lexicalAbs string
	var matchedAny bool
	if filepath.IsAbs(reqNorm) {
		lexicalAbs = reqNorm
		for _, r := range roots {
			if isInside(r, lexicalAbs) {
				matchedAny = true
				break
			}
		}
	} else {
		for _, r := range roots {
			cand := filepath.Join(r, reqNorm)
			if isInside(r, cand) {
				lexicalAbs = cand
				matchedAny = true
				break
			}
		}
		if lexicalAbs == "" && len(roots) > 0 {
			lexicalAbs = filepath.Join(roots[0], reqNorm)
		}
	}
	if !matchedAny {
		return nil, errs.Newf(errs.AccessDenied, "path escapes allowed roots: %s", strings.Join(roots, ", ")).WithPath(requested)
	}

	// Step 5: OS canonicalization.
	resolved, err := resolveReal(lexicalAbs)
	if err != nil {
		return nil, errs.FromOS("resolve", requested, err).WithDetail("resolved_attempt", lexicalAbs)
	}

	// Step 6: TOCTOU guard — re-check the canonicalized form.
	inAnyRoot := false
	for _, r := range roots {
		if isInside(r, resolved) {
			inAnyRoot = true
			break
		}
	}
	if !inAnyRoot {
		return nil, errs.Newf(errs.AccessDenied, "resolved path escapes allowed roots").WithPath(requested).WithDetail("resolved", resolved)
	}

	if s.sensitive != nil && s.sensitive.Matches(resolved) {
		return nil, errs.New(errs.AccessDenied, "path matches the sensitive-file deny-list").WithPath(requested)
	}

	vp := &ValidatedPath{
		RequestedNorm: lexicalAbs,
		ResolvedReal:  resolved,
		IsSymlink:     resolved != lexicalAbs,
	}
	return vp, nil
}

// resolveReal canonicalizes p with EvalSymlinks, tolerating a path that
// doesn't exist yet (write targets) by resolving only the existing
// prefix, as the teacher's safeJoin parent-resolution logic does.
func resolveReal(p string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		abs, err := filepath.Abs(resolved)
		if err != nil {
			return "", err
		}
		return abs, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	// p itself doesn't exist: resolve the longest existing ancestor and
	// rejoin the remaining suffix lexically.
	dir, base := filepath.Split(filepath.Clean(p))
	if dir == "" {
		abs, err := filepath.Abs(base)
		return abs, err
	}
	resolvedDir, err := resolveReal(filepath.Clean(dir))
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, base), nil
}

// isInside reports whether p is root or a descendant of root after
// platform-correct normalization (spec.md §3 "inside" definition).
func isInside(root, p string) bool {
	root = filepath.Clean(root)
	p = filepath.Clean(p)
	if pathEqualFold(root, p) {
		return true
	}
	sep := string(os.PathSeparator)
	rootWithSep := root
	if !strings.HasSuffix(rootWithSep, sep) {
		rootWithSep += sep
	}
	if caseInsensitiveFS() {
		return strings.HasPrefix(strings.ToLower(p)+sep, strings.ToLower(rootWithSep)) ||
			strings.HasPrefix(strings.ToLower(p+sep), strings.ToLower(rootWithSep))
	}
	return strings.HasPrefix(p+sep, rootWithSep)
}

func pathEqualFold(a, b string) bool {
	if caseInsensitiveFS() {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// DedupeRoots normalizes and de-duplicates a root list, case-folding on
// case-insensitive platforms, per spec.md §3 "AllowedRoots" data model.
func DedupeRoots(roots []string) []string {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		abs = filepath.Clean(abs)
		key := abs
		if caseInsensitiveFS() {
			key = strings.ToLower(abs)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, abs)
	}
	return out
}
