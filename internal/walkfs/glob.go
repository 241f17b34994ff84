package walkfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures a traversal (spec.md §4.3 GlobEngine inputs).
type Options struct {
	Root               string
	Pattern            string // glob pattern; "" means "match everything"
	ExcludePatterns    []string
	IncludeHidden      bool
	IncludeIgnored     bool
	BaseNameMatch      bool
	CaseSensitiveMatch bool
	MaxDepth           int // 0 = unlimited
	OnlyFiles          bool
	ProduceStats       bool
	MaxEntries         int // 0 = unlimited; caps total yielded entries
}

// Stats accumulates skip counters alongside the entry stream, mirroring
// SearchState's skip counters in spec.md §3, reused here for ls/tree/find.
type Stats struct {
	SkippedInaccessible int
	SkippedIgnored      int
}

// Walk performs a bounded, deterministic (depth-first, lexicographically
// sorted per directory) traversal and calls yield for every matching
// entry. Symlinks are never followed into directories — spec.md §4.3
// fixes follow_symlinks=false for security — though symlink entries
// themselves may still be yielded. yield returning false stops the walk
// early (the "consumer checks a cancellation token on each yielded entry"
// contract from spec.md §4.3); ctx cancellation is checked once per
// directory open, so "the engine itself stops opening new directories
// once cancellation is observed".
func Walk(ctx context.Context, opts Options, yield func(DirectoryEntry) bool) (Stats, error) {
	var stats Stats
	var ignorer *Ignorer
	if !opts.IncludeIgnored {
		ig, err := LoadGitignore(opts.Root)
		if err == nil {
			ignorer = ig
		}
	}
	emitted := 0
	var walkDir func(dir string, depth int) bool
	walkDir = func(dir string, depth int) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			stats.SkippedInaccessible++
			return true
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, de := range entries {
			name := de.Name()
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			full := filepath.Join(dir, name)
			rel, err := filepath.Rel(opts.Root, full)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			info, err := de.Info()
			if err != nil {
				stats.SkippedInaccessible++
				continue
			}
			isDir := de.IsDir()
			isSymlink := info.Mode()&os.ModeSymlink != 0

			if ignorer != nil {
				if status := ignorer.Ignore(rel, isDir); status == IgnoreIgnored {
					stats.SkippedIgnored++
					if isDir {
						continue // don't descend into an ignored directory
					}
					continue
				}
			}
			if excluded(opts.ExcludePatterns, rel, name) {
				if isDir {
					continue
				}
				continue
			}

			kind := kindOf(info, isSymlink)
			matched := matchesPattern(opts, rel, name)

			if matched && (!opts.OnlyFiles || kind == KindFile) {
				entry := DirectoryEntry{
					Name:         name,
					RelativePath: rel,
					AbsolutePath: full,
					Kind:         kind,
				}
				if isSymlink {
					if target, err := os.Readlink(full); err == nil {
						entry.SymlinkTarget = target
					}
				}
				if opts.ProduceStats {
					entry.Size = info.Size()
					entry.HasSize = true
					entry.ModTime = info.ModTime()
					entry.HasModTime = true
				}
				emitted++
				if !yield(entry) {
					return false
				}
				if opts.MaxEntries > 0 && emitted >= opts.MaxEntries {
					return false
				}
			}

			if isDir && !isSymlink {
				if opts.MaxDepth <= 0 || depth < opts.MaxDepth {
					if !walkDir(full, depth+1) {
						return false
					}
				}
			}
		}
		return true
	}
	walkDir(opts.Root, 1)
	return stats, nil
}

func kindOf(info os.FileInfo, isSymlink bool) Kind {
	switch {
	case isSymlink:
		return KindSymlink
	case info.IsDir():
		return KindDirectory
	case info.Mode().IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

func excluded(patterns []string, rel, base string) bool {
	for _, p := range patterns {
		for _, alt := range expandBraces(p) {
			if ok, _ := doublestar.Match(alt, rel); ok {
				return true
			}
			if ok, _ := doublestar.Match(alt, base); ok {
				return true
			}
		}
	}
	return false
}

func matchesPattern(opts Options, rel, base string) bool {
	if opts.Pattern == "" {
		return true
	}
	candidate := rel
	pattern := opts.Pattern
	if opts.BaseNameMatch {
		candidate = base
	}
	if !opts.CaseSensitiveMatch {
		candidate = strings.ToLower(candidate)
		pattern = strings.ToLower(pattern)
	}
	for _, alt := range expandBraces(pattern) {
		if ok, err := doublestar.Match(alt, candidate); err == nil && ok {
			return true
		}
	}
	return false
}
