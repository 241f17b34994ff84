package tools

import (
	"context"

	"github.com/fscontext/mcp-server/internal/concurrency"
)

// ReadManyArgs are read_many's arguments (spec.md §6).
type ReadManyArgs struct {
	Paths        []string
	Head         *int
	MaxTotalSize int64
}

// ReadManyEntry is one path's outcome within a read_many call: exactly one
// of Result/Error is set (spec.md §4.8 "per-entry error capture").
type ReadManyEntry struct {
	Path   string
	Result *ReadResult
	Error  string
}

// ReadManyResult is read_many's structured output.
type ReadManyResult struct {
	Entries []ReadManyEntry
}

// ReadMany implements spec.md §4.8's read_many: parallel reads with
// per-entry error capture. MaxTotalSize applies per entry, including
// duplicate paths, matching spec.md's wording exactly.
func ReadMany(ctx context.Context, s *Session, args ReadManyArgs) (ReadManyResult, error) {
	work := func(ctx context.Context, path string) (ReadManyEntry, error) {
		ra := ReadArgs{Path: path, Head: args.Head, MaxFileSize: args.MaxTotalSize}
		r, err := Read(ctx, s, ra)
		if err != nil {
			return ReadManyEntry{Path: path, Error: err.Error()}, nil
		}
		return ReadManyEntry{Path: path, Result: &r}, nil
	}
	entries, err := concurrency.ProcessInParallel(ctx, s.Concurrency, args.Paths, work)
	if err != nil {
		return ReadManyResult{}, err
	}
	return ReadManyResult{Entries: entries}, nil
}
