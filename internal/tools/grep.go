package tools

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fscontext/mcp-server/internal/concurrency"
	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/grep"
	"github.com/fscontext/mcp-server/internal/walkfs"
)

// GrepArgs are grep's arguments (spec.md §6).
type GrepArgs struct {
	Path          string
	Pattern       string
	IsRegex       bool
	FilePattern   string
	ContextLines  int
	CaseSensitive bool
	WholeWord     bool
	IsLiteral     bool
	MaxResults    int
	TimeoutMS     int
}

// GrepMatch is one MatchRecord (spec.md §3).
type GrepMatch struct {
	File          string
	LineNumber    int
	Content       string
	MatchCount    int
	ContextBefore []string
	ContextAfter  []string
}

// GrepResult is grep's structured output.
type GrepResult struct {
	Matches             []GrepMatch
	TotalMatches        int
	FilesScanned        int
	FilesMatched        int
	SkippedTooLarge     int
	SkippedBinary       int
	SkippedInaccessible int
	SkippedRegexTimeout int // lines abandoned to the per-line regex budget, spec.md §3
	Truncated           bool
}

// Grep implements GrepEngine's tool surface: candidates come from
// GlobEngine, matching and scanning come from internal/grep, and the
// per-candidate fan-out is bounded via internal/concurrency, matching
// spec.md §4.4's division of "matcher construction" vs "file scan" and
// §4.5's "process_in_parallel" shape.
func Grep(ctx context.Context, s *Session, args GrepArgs) (GrepResult, error) {
	var res GrepResult
	path := args.Path
	if path == "" {
		path = "."
	}
	vp, err := s.Sandbox.ValidateExistingDirectory(path)
	if err != nil {
		return res, err
	}
	if args.Pattern == "" {
		return res, errs.New(errs.InvalidInput, "pattern is required")
	}

	matcher, err := grep.New(grep.Options{
		Pattern:      args.Pattern,
		UseRegex:     args.IsRegex || !args.IsLiteral,
		CaseFold:     !args.CaseSensitive,
		WordBoundary: args.WholeWord,
	})
	if err != nil {
		return res, errs.New(errs.InvalidPattern, err.Error()).WithPath(args.Path)
	}

	filePattern := args.FilePattern
	if filePattern == "" {
		filePattern = "**/*"
	}
	var candidates []string
	_, walkErr := walkfs.Walk(ctx, walkfs.Options{
		Root:      vp.ResolvedReal,
		Pattern:   filePattern,
		OnlyFiles: true,
	}, func(e walkfs.DirectoryEntry) bool {
		candidates = append(candidates, e.AbsolutePath)
		return true
	})
	if walkErr != nil {
		return res, errs.AsDetailed(walkErr, path, nil)
	}

	timeout := time.Duration(args.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	type fileResult struct {
		relPath       string
		matches       []grep.Match
		scanned       bool
		skip          string
		regexTimeouts int
	}
	budgetRemaining := args.MaxResults

	work := func(ctx context.Context, abs string) (fileResult, error) {
		rel, _ := filepath.Rel(vp.ResolvedReal, abs)
		rel = filepath.ToSlash(rel)
		matches, _, regexTimeouts, err := grep.ScanFile(ctx, abs, matcher, grep.ScanOptions{
			ContextBefore: args.ContextLines,
			ContextAfter:  args.ContextLines,
			MaxMatches:    budgetRemaining,
			Timeout:       timeout,
		}, 0)
		if err != nil {
			switch err.(type) {
			case *grep.ErrTooLarge:
				return fileResult{relPath: rel, skip: "too_large"}, nil
			case *grep.ErrBinaryFile:
				return fileResult{relPath: rel, skip: "binary"}, nil
			}
			return fileResult{relPath: rel, skip: "inaccessible"}, nil
		}
		return fileResult{relPath: rel, matches: matches, scanned: true, regexTimeouts: regexTimeouts}, nil
	}

	results, err := concurrency.ProcessInParallel(ctx, s.Concurrency, candidates, work)
	if err != nil {
		return res, errs.AsDetailed(err, path, nil)
	}

	for _, r := range results {
		if r.scanned {
			res.FilesScanned++
		}
		res.SkippedRegexTimeout += r.regexTimeouts
		switch r.skip {
		case "too_large":
			res.SkippedTooLarge++
		case "binary":
			res.SkippedBinary++
		case "inaccessible":
			res.SkippedInaccessible++
		}
		if len(r.matches) > 0 {
			res.FilesMatched++
		}
		for _, m := range r.matches {
			res.Matches = append(res.Matches, GrepMatch{
				File:          r.relPath,
				LineNumber:    m.LineNumber,
				Content:       m.Line,
				MatchCount:    m.MatchCount,
				ContextBefore: m.Before,
				ContextAfter:  m.After,
			})
		}
	}
	sort.SliceStable(res.Matches, func(i, j int) bool {
		if res.Matches[i].File != res.Matches[j].File {
			return res.Matches[i].File < res.Matches[j].File
		}
		return res.Matches[i].LineNumber < res.Matches[j].LineNumber
	})
	if args.MaxResults > 0 && len(res.Matches) > args.MaxResults {
		res.Matches = res.Matches[:args.MaxResults]
		res.Truncated = true
	}
	res.TotalMatches = len(res.Matches)
	return res, nil
}
