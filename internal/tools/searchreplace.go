package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fscontext/mcp-server/internal/concurrency"
	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/grep"
	"github.com/fscontext/mcp-server/internal/walkfs"
)

// SearchAndReplaceArgs are search_and_replace's arguments (spec.md §6).
type SearchAndReplaceArgs struct {
	Path          string
	FilePattern   string
	SearchPattern string
	Replacement   string
	IsRegex       bool
	CaseSensitive bool
	DryRun        bool
}

// SearchAndReplaceFileResult is one candidate file's outcome.
type SearchAndReplaceFileResult struct {
	Path         string
	MatchesFound int
	Replaced     bool
	Error        string
}

// SearchAndReplaceResult is search_and_replace's structured output.
type SearchAndReplaceResult struct {
	Files        []SearchAndReplaceFileResult
	FilesChanged int
}

// SearchAndReplace implements search_and_replace: candidates come from
// GlobEngine, matching/replacement from GrepEngine's matcher, and writes
// happen only outside dry-run mode. Each file's failure is counted but
// does not abort the batch (spec.md §4.8).
func SearchAndReplace(ctx context.Context, s *Session, args SearchAndReplaceArgs) (SearchAndReplaceResult, error) {
	var res SearchAndReplaceResult
	path := args.Path
	if path == "" {
		path = "."
	}
	vp, err := s.Sandbox.ValidateExistingDirectory(path)
	if err != nil {
		return res, err
	}
	if args.SearchPattern == "" {
		return res, errs.New(errs.InvalidInput, "searchPattern is required")
	}
	matcher, err := grep.New(grep.Options{
		Pattern:  args.SearchPattern,
		UseRegex: args.IsRegex,
		CaseFold: !args.CaseSensitive,
	})
	if err != nil {
		return res, errs.New(errs.InvalidPattern, err.Error())
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

	work := func(ctx context.Context, abs string) (SearchAndReplaceFileResult, error) {
		rel, _ := filepath.Rel(vp.ResolvedReal, abs)
		rel = filepath.ToSlash(rel)
		out := SearchAndReplaceFileResult{Path: rel}
		data, err := os.ReadFile(abs)
		if err != nil {
			out.Error = err.Error()
			return out, nil
		}
		if !looksLikeText(data) {
			return out, nil
		}
		lines := splitKeepLines(string(data))
		changed := false
		for i, line := range lines {
			if matcher.MatchLine(line) {
				out.MatchesFound++
				lines[i] = matcher.ReplaceLine(line, args.Replacement)
				if lines[i] != line {
					changed = true
				}
			}
		}
		if !changed || args.DryRun {
			return out, nil
		}
		fi, statErr := os.Stat(abs)
		mode := os.FileMode(0o644)
		if statErr == nil {
			mode = fi.Mode().Perm()
		}
		release, lockErr := acquireLock(abs, 3*time.Second)
		if lockErr != nil {
			out.Error = lockErr.Error()
			return out, nil
		}
		defer release()
		if err := atomicWrite(abs, []byte(joinLines(lines)), mode); err != nil {
			out.Error = err.Error()
			return out, nil
		}
		out.Replaced = true
		return out, nil
	}

	results, err := concurrency.ProcessInParallel(ctx, s.Concurrency, candidates, work)
	if err != nil {
		return res, errs.AsDetailed(err, path, nil)
	}
	for _, r := range results {
		if r.MatchesFound == 0 && r.Error == "" {
			continue
		}
		res.Files = append(res.Files, r)
		if r.Replaced {
			res.FilesChanged++
		}
	}
	return res, nil
}

// joinLines reverses splitKeepLines, dropping the "\n" it appends to the
// last line.
func joinLines(lines []string) string {
	var b []byte
	for _, l := range lines {
		b = append(b, l...)
	}
	return strings.TrimSuffix(string(b), "\n")
}
