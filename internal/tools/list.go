package tools

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/walkfs"
)

// ListedEntry is the wire-level shape of walkfs.DirectoryEntry (spec.md §3).
type ListedEntry struct {
	Name          string
	RelativePath  string
	Kind          string
	Size          int64
	HumanSize     string
	HasSize       bool
	ModifiedAt    string
	HasModTime    bool
	SymlinkTarget string
}

func toListedEntry(e walkfs.DirectoryEntry) ListedEntry {
	le := ListedEntry{
		Name:          e.Name,
		RelativePath:  e.RelativePath,
		Kind:          string(e.Kind),
		Size:          e.Size,
		HasSize:       e.HasSize,
		HasModTime:    e.HasModTime,
		SymlinkTarget: e.SymlinkTarget,
	}
	if e.HasSize {
		le.HumanSize = humanize.Bytes(uint64(e.Size))
	}
	if e.HasModTime {
		le.ModifiedAt = e.ModTime.UTC().Format(time.RFC3339)
	}
	return le
}

// LsArgs are ls's arguments (spec.md §6).
type LsArgs struct {
	Path           string
	IncludeIgnored bool
	IncludeHidden  bool
	SortBy         string // "name" (default) or "size" or "modified"
}

// LsResult is ls's structured output.
type LsResult struct {
	Path    string
	Entries []ListedEntry
}

// Ls implements ls: a non-recursive directory listing.
func Ls(ctx context.Context, s *Session, args LsArgs) (LsResult, error) {
	var res LsResult
	path := args.Path
	if path == "" {
		path = "."
	}
	vp, err := s.Sandbox.ValidateExistingDirectory(path)
	if err != nil {
		return res, err
	}
	var entries []ListedEntry
	_, err = walkfs.Walk(ctx, walkfs.Options{
		Root:           vp.ResolvedReal,
		MaxDepth:       1,
		IncludeHidden:  args.IncludeHidden,
		IncludeIgnored: args.IncludeIgnored,
		ProduceStats:   true,
	}, func(e walkfs.DirectoryEntry) bool {
		entries = append(entries, toListedEntry(e))
		return true
	})
	if err != nil {
		return res, errs.AsDetailed(err, path, nil)
	}
	sortEntries(entries, args.SortBy)
	res.Path = path
	res.Entries = entries
	return res, nil
}

func sortEntries(entries []ListedEntry, sortBy string) {
	switch sortBy {
	case "size":
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Size < entries[j].Size })
	case "modified":
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].ModifiedAt < entries[j].ModifiedAt })
	default:
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	}
}

// TreeArgs are tree's arguments (spec.md §6).
type TreeArgs struct {
	Path           string
	MaxDepth       int
	MaxEntries     int
	IncludeHidden  bool
	IncludeIgnored bool
}

// TreeResult is tree's structured output: a flat entry list (structured
// form) plus a pre-rendered ASCII tree (human form), per spec.md §6
// "ASCII + structured tree".
type TreeResult struct {
	Path    string
	Entries []ListedEntry
	ASCII   string
}

// Tree implements tree: a recursive, depth-capped listing.
func Tree(ctx context.Context, s *Session, args TreeArgs) (TreeResult, error) {
	var res TreeResult
	path := args.Path
	if path == "" {
		path = "."
	}
	vp, err := s.Sandbox.ValidateExistingDirectory(path)
	if err != nil {
		return res, err
	}
	var entries []walkfs.DirectoryEntry
	_, err = walkfs.Walk(ctx, walkfs.Options{
		Root:           vp.ResolvedReal,
		MaxDepth:       args.MaxDepth,
		MaxEntries:     args.MaxEntries,
		IncludeHidden:  args.IncludeHidden,
		IncludeIgnored: args.IncludeIgnored,
		ProduceStats:   false,
	}, func(e walkfs.DirectoryEntry) bool {
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return res, errs.AsDetailed(err, path, nil)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].RelativePath < entries[j].RelativePath })
	out := make([]ListedEntry, len(entries))
	for i, e := range entries {
		out[i] = toListedEntry(e)
	}
	res.Path = path
	res.Entries = out
	res.ASCII = renderASCIITree(entries)
	return res, nil
}

func renderASCIITree(entries []walkfs.DirectoryEntry) string {
	var b strings.Builder
	for _, e := range entries {
		depth := strings.Count(e.RelativePath, "/")
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(e.Name)
		if e.Kind == walkfs.KindDirectory {
			b.WriteString("/")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FindArgs are find's arguments (spec.md §6).
type FindArgs struct {
	Path            string
	Pattern         string
	ExcludePatterns []string
	MaxResults      int
	MaxDepth        int
}

// FindResult is find's structured output.
type FindResult struct {
	Matches   []string
	Truncated bool
}

// Find implements find: matching paths under Path by glob pattern.
func Find(ctx context.Context, s *Session, args FindArgs) (FindResult, error) {
	var res FindResult
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
	var matches []string
	truncated := false
	_, err = walkfs.Walk(ctx, walkfs.Options{
		Root:            vp.ResolvedReal,
		Pattern:         args.Pattern,
		ExcludePatterns: args.ExcludePatterns,
		MaxDepth:        args.MaxDepth,
		MaxEntries:      args.MaxResults,
	}, func(e walkfs.DirectoryEntry) bool {
		matches = append(matches, e.RelativePath)
		if args.MaxResults > 0 && len(matches) >= args.MaxResults {
			truncated = true
			return false
		}
		return true
	})
	if err != nil {
		return res, errs.AsDetailed(err, path, nil)
	}
	sort.Strings(matches)
	res.Matches = matches
	res.Truncated = truncated
	return res, nil
}
