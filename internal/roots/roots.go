// Package roots implements RootSupervisor (spec.md §4.2): composing the
// CLI baseline, an optional CWD fallback, and client-advertised roots
// into the AllowedRoots snapshot internal/sandbox reads. The teacher ran
// a single fixed root (config.go's getRoot()); this generalizes that to
// spec.md's dynamic multi-root model while keeping the teacher's own
// "resolve symlinks, verify the directory exists" validation shape.
package roots

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fscontext/mcp-server/internal/sandbox"
)

// state is the machine from spec.md §4.2: Uninitialized -> Initialized.
type state int32

const (
	stateUninitialized state = iota
	stateInitialized
)

const debounce = 100 * time.Millisecond

// ClientRootsFunc fetches the client-advertised roots list over the MCP
// "roots/list" request. The Supervisor passes it a context that expires
// after the 5s timeout from spec.md §4.2; the call is bounded only if the
// function returns once that context is done.
type ClientRootsFunc func(ctx context.Context) ([]string, error)

// Supervisor owns the AllowedRoots snapshot and satisfies
// sandbox.RootsSnapshot.
type Supervisor struct {
	baseline []string // normalized, deduplicated CLI roots
	allowCWD bool

	fetchClientRoots ClientRootsFunc

	mu        sync.Mutex
	snapshot  atomic.Pointer[[]string]
	state     atomic.Int32
	debounce  *time.Timer
	logger    *log.Logger
}

// New builds a Supervisor from the CLI baseline. fetchClientRoots may be
// nil if the transport doesn't support client-advertised roots.
func New(baselineDirs []string, allowCWD bool, fetchClientRoots ClientRootsFunc, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	s := &Supervisor{
		baseline:         sandbox.DedupeRoots(baselineDirs),
		allowCWD:         allowCWD,
		fetchClientRoots: fetchClientRoots,
		logger:           logger,
	}
	initial := s.computeBaselineOnly()
	s.snapshot.Store(&initial)
	return s
}

// Roots implements sandbox.RootsSnapshot: readers always observe either
// the old or the new list, never a half-merged one, because the pointer
// swap in publish is the only mutation.
func (s *Supervisor) Roots() []string {
	p := s.snapshot.Load()
	if p == nil {
		return nil
	}
	return *p
}

// computeBaselineOnly builds the snapshot from just the CLI baseline and
// the CWD opt-in, used before the client has initialized and as the
// fallback when client roots are empty (spec.md §4.2 step 3).
func (s *Supervisor) computeBaselineOnly() []string {
	roots := append([]string{}, s.baseline...)
	if s.allowCWD {
		if cwd, err := os.Getwd(); err == nil {
			roots = append(roots, cwd)
		}
	}
	roots = sandbox.DedupeRoots(roots)
	if len(roots) == 0 {
		if cwd, err := os.Getwd(); err == nil {
			s.logger.Printf("warning: no allowed roots configured; defaulting to cwd %s", cwd)
			roots = []string{cwd}
		}
	}
	return roots
}

// OnInitialized fires the Uninitialized -> Initialized transition
// (spec.md §4.2) and performs the first recomputation immediately
// (no debounce on the very first pass).
func (s *Supervisor) OnInitialized(ctx context.Context) {
	s.state.Store(int32(stateInitialized))
	s.recompute(ctx)
}

// Initialized reports whether OnInitialized has fired.
func (s *Supervisor) Initialized() bool {
	return state(s.state.Load()) == stateInitialized
}

// OnRootsChanged handles a client "roots changed" notification, debouncing
// repeated calls by ~100ms (spec.md §4.2).
func (s *Supervisor) OnRootsChanged(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(debounce, func() {
		s.recompute(ctx)
	})
}

// recompute implements spec.md §4.2's recomputation algorithm.
func (s *Supervisor) recompute(ctx context.Context) {
	roots := s.computeBaselineOnly()

	clientRoots := s.fetchClientRootsWithTimeout(ctx)
	for _, cr := range clientRoots {
		abs, err := filepath.Abs(cr)
		if err != nil {
			continue
		}
		if rootAllowedByBaseline(abs, roots) {
			roots = append(roots, abs)
		} else {
			s.logger.Printf("dropping client root outside baseline: %s", cr)
		}
	}
	merged := sandbox.DedupeRoots(roots)
	if len(merged) == 0 {
		if cwd, err := os.Getwd(); err == nil {
			s.logger.Printf("warning: recomputed root set empty; defaulting to cwd %s", cwd)
			merged = []string{cwd}
		}
	}
	s.snapshot.Store(&merged)
}

// fetchClientRootsWithTimeout enforces spec.md §4.2's 5s timeout and the
// "never narrows security implicitly" failure semantics: a failed or
// timed-out fetch is treated as an empty client-roots list, never as a
// reason to drop the baseline.
func (s *Supervisor) fetchClientRootsWithTimeout(ctx context.Context) []string {
	if s.fetchClientRoots == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	roots, err := s.fetchClientRoots(cctx)
	if err != nil {
		s.logger.Printf("client roots/list failed, falling back to baseline: %v", err)
		return nil
	}
	return roots
}

// rootAllowedByBaseline requires a client-advertised root to lie inside
// the baseline both before and after canonicalization (spec.md §4.2
// step 2). Callers pass the absolute (filepath.Abs) candidate; this also
// resolves symlinks for the "after canonicalization" half of the check.
func rootAllowedByBaseline(candidate string, baseline []string) bool {
	inside := func(p string) bool {
		for _, b := range baseline {
			if pathInside(b, p) {
				return true
			}
		}
		return false
	}
	if !inside(candidate) {
		return false
	}
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		// Root may not exist yet on this host; the lexical check already
		// passed, and PathSandbox will re-validate every real access.
		return true
	}
	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return true
	}
	return inside(resolvedAbs)
}

func pathInside(root, p string) bool {
	root = filepath.Clean(root)
	p = filepath.Clean(p)
	if root == p {
		return true
	}
	sep := string(os.PathSeparator)
	return len(p) > len(root) && p[:len(root)] == root && p[len(root):len(root)+len(sep)] == sep
}

// String renders the current snapshot for banners/logs.
func (s *Supervisor) String() string {
	return fmt.Sprintf("roots=%v initialized=%v", s.Roots(), s.Initialized())
}
