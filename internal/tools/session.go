// Package tools implements ToolEnvelope and FileOpsPrimitives (spec.md
// §4.8): the uniform request/response pipeline and the file operations
// catalog built on top of PathSandbox, GlobEngine, GrepEngine,
// ConcurrencyCore, and ResourceStore. Grounded on the teacher's per-tool
// handler files (read.go, write.go, mkdir.go, helpers.go), generalized
// from a single fixed root to the dynamic AllowedRoots snapshot.
package tools

import (
	"context"
	"time"

	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/resources"
	"github.com/fscontext/mcp-server/internal/sandbox"
	"golang.org/x/time/rate"
)

// RootsProvider is the subset of roots.Supervisor the tool envelope needs.
type RootsProvider interface {
	Initialized() bool
	Roots() []string
}

// Session bundles every dependency a tool handler needs. One Session is
// built in cmd/fs-context-mcp/main.go and shared by every registered tool.
type Session struct {
	Sandbox     *sandbox.Sandbox
	Roots       RootsProvider
	Store       *resources.Store
	Diag        *errs.Diagnostics
	Concurrency int

	// ToolTimeout bounds a single tool call (spec.md §4.8 step 3's
	// "tool's per-call deadline"). Zero disables the deadline.
	ToolTimeout time.Duration

	// MaxHumanOutput is the oversized-output threshold from spec.md §4.8
	// step 5 (default ~25000 chars).
	MaxHumanOutput int

	progressLimiter *rate.Limiter
}

// DefaultMaxHumanOutput matches spec.md §4.8's "~25 000 chars".
const DefaultMaxHumanOutput = 25000

// NewSession wires a Session with spec-default knobs; callers may still
// override individual fields afterward.
func NewSession(sb *sandbox.Sandbox, rp RootsProvider, store *resources.Store, diag *errs.Diagnostics, concurrency int) *Session {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Session{
		Sandbox:         sb,
		Roots:           rp,
		Store:           store,
		Diag:            diag,
		Concurrency:     concurrency,
		ToolTimeout:     30 * time.Second,
		MaxHumanOutput:  DefaultMaxHumanOutput,
		progressLimiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
	}
}

// AllowProgress reports whether enough time has passed to emit another
// progress notification, enforcing spec.md §9's "not more than once per
// 50 ms" cadence without dropping the mandatory start/terminal events
// (callers should bypass this gate for those two).
func (s *Session) AllowProgress() bool {
	return s.progressLimiter.Allow()
}

// Invoke runs fn under the ToolEnvelope pipeline (spec.md §4.8): the
// initialization guard, a combined deadline, diagnostics start/end
// events, and error normalization via errs.AsDetailed. Argument-schema
// validation (§4.8 step 2) happens in internal/mcpserver before Invoke is
// reached, because it is specific to each tool's argument struct.
func Invoke[A, R any](ctx context.Context, s *Session, toolName string, args A, fn func(context.Context, *Session, A) (R, error)) (R, error) {
	var zero R
	if !s.Roots.Initialized() {
		return zero, errs.New(errs.InvalidInput, "Client not initialized")
	}
	start := time.Now()
	cctx := ctx
	var cancel context.CancelFunc
	if s.ToolTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, s.ToolTimeout)
		defer cancel()
	}
	s.Diag.PublishTool(errs.ToolEvent{Tool: toolName, Phase: "start"})
	res, err := fn(cctx, s, args)
	ok := err == nil
	var errMsg string
	if err != nil {
		err = errs.AsDetailed(err, "", nil)
		errMsg = err.Error()
	}
	s.Diag.PublishTool(errs.ToolEvent{
		Tool:       toolName,
		Phase:      "end",
		DurationMS: time.Since(start).Milliseconds(),
		OK:         ok,
		Error:      errMsg,
	})
	if err != nil {
		return zero, err
	}
	return res, nil
}

// MaterializeIfLarge implements spec.md §4.8 step 5: text over
// s.MaxHumanOutput is stored in the ResourceStore and a truncated preview
// plus its URI are returned; short text passes through unchanged.
func (s *Session) MaterializeIfLarge(text, mimeType string) (preview string, resourceURI string, truncated bool) {
	if len(text) <= s.MaxHumanOutput || s.Store == nil {
		return text, "", false
	}
	uri := s.Store.PutText(text, mimeType)
	return text[:s.MaxHumanOutput], uri, true
}
