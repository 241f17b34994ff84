package tools

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fscontext/mcp-server/internal/concurrency"
	"github.com/fscontext/mcp-server/internal/errs"
)

// StatArgs are stat's arguments (spec.md §6).
type StatArgs struct {
	Path string
}

// StatResult is stat's structured output.
type StatResult struct {
	Path       string
	Kind       string
	Size       int64
	HumanSize  string
	Mode       string
	ModifiedAt string
	MimeType   string
	IsSymlink  bool
	LinkTarget string
}

// Stat implements stat: metadata for a single path. Unlike read, stat
// succeeds on symlinks and directories; it never dereferences a symlink
// target beyond reporting where it points.
func Stat(ctx context.Context, s *Session, args StatArgs) (StatResult, error) {
	var res StatResult
	vp, err := s.Sandbox.ValidateExisting(args.Path)
	if err != nil {
		return res, err
	}
	// Lstat the requested (lexical) path: ResolvedReal has every symlink
	// already resolved, so it would always describe the target.
	fi, err := os.Lstat(vp.RequestedNorm)
	if err != nil {
		return res, errs.FromOS("lstat", args.Path, err)
	}
	res = StatResult{
		Path:       args.Path,
		Kind:       kindString(fi),
		Size:       fi.Size(),
		HumanSize:  humanize.Bytes(uint64(fi.Size())),
		Mode:       fmt.Sprintf("%#o", fi.Mode()&os.ModePerm),
		ModifiedAt: fi.ModTime().UTC().Format(time.RFC3339),
		IsSymlink:  fi.Mode()&os.ModeSymlink != 0,
	}
	if res.IsSymlink {
		if target, err := os.Readlink(vp.RequestedNorm); err == nil {
			res.LinkTarget = target
		}
	}
	if fi.Mode().IsRegular() {
		res.MimeType = detectMIME(vp.ResolvedReal, nil)
	}
	return res, nil
}

// kindString mirrors the teacher's helpers.go kindOf, generalized to the
// spec's DirectoryEntry.Kind vocabulary plus the extra OS-level kinds the
// teacher distinguished (pipe/socket/device) for stat's richer output.
func kindString(fi os.FileInfo) string {
	m := fi.Mode()
	switch {
	case m.IsRegular():
		return "file"
	case m.IsDir():
		return "directory"
	case m&os.ModeSymlink != 0:
		return "symlink"
	case m&os.ModeNamedPipe != 0:
		return "pipe"
	case m&os.ModeSocket != 0:
		return "socket"
	case m&os.ModeDevice != 0:
		return "device"
	default:
		return "other"
	}
}

// StatManyArgs are stat_many's arguments (spec.md §6).
type StatManyArgs struct {
	Paths []string
}

// StatManyEntry is one path's outcome within a stat_many call.
type StatManyEntry struct {
	Path   string
	Result *StatResult
	Error  string
}

// StatManyResult is stat_many's structured output.
type StatManyResult struct {
	Entries []StatManyEntry
}

// StatMany implements stat_many with the same per-entry error capture
// discipline as ReadMany.
func StatMany(ctx context.Context, s *Session, args StatManyArgs) (StatManyResult, error) {
	work := func(ctx context.Context, path string) (StatManyEntry, error) {
		r, err := Stat(ctx, s, StatArgs{Path: path})
		if err != nil {
			return StatManyEntry{Path: path, Error: err.Error()}, nil
		}
		return StatManyEntry{Path: path, Result: &r}, nil
	}
	entries, err := concurrency.ProcessInParallel(ctx, s.Concurrency, args.Paths, work)
	if err != nil {
		return StatManyResult{}, err
	}
	return StatManyResult{Entries: entries}, nil
}
