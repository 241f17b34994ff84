package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fscontext/mcp-server/internal/errs"
)

// MkdirArgs are mkdir's arguments (spec.md §6).
type MkdirArgs struct {
	Path string
}

// MkdirResult is mkdir's structured output.
type MkdirResult struct {
	Path    string
	Created bool
}

// Mkdir implements mkdir: create a directory (and its parents) inside an
// allowed root.
func Mkdir(ctx context.Context, s *Session, args MkdirArgs) (MkdirResult, error) {
	var res MkdirResult
	vp, err := s.Sandbox.ValidateForWrite(args.Path)
	if err != nil {
		return res, err
	}
	if fi, err := os.Stat(vp.ResolvedReal); err == nil {
		if !fi.IsDir() {
			return res, errs.New(errs.NotDirectory, "path exists and is not a directory").WithPath(args.Path)
		}
		res.Path = args.Path
		res.Created = false
		return res, nil
	}
	if err := os.MkdirAll(vp.ResolvedReal, 0o755); err != nil {
		return res, errs.FromOS("mkdir", args.Path, err)
	}
	res.Path = args.Path
	res.Created = true
	return res, nil
}

// WriteArgs are write's arguments (spec.md §6).
type WriteArgs struct {
	Path    string
	Content string
	Mode    string
}

// WriteResult is write's structured output.
type WriteResult struct {
	Path       string
	Bytes      int
	Created    bool
	MimeType   string
	ModifiedAt string
	Mode       string
}

// Write implements write: a locked, atomic whole-file overwrite, with
// parent directory creation (spec.md §5 "Write tools create parent
// directories with mkdir -p before renaming in").
func Write(ctx context.Context, s *Session, args WriteArgs) (WriteResult, error) {
	var res WriteResult
	vp, err := s.Sandbox.ValidateForWrite(args.Path)
	if err != nil {
		return res, err
	}
	if fi, lerr := os.Lstat(vp.ResolvedReal); lerr == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return res, errs.New(errs.SymlinkNotAllowed, "refusing to write through a symlink").WithPath(args.Path)
		}
		if fi.IsDir() {
			return res, errs.New(errs.NotFile, "target is a directory").WithPath(args.Path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(vp.ResolvedReal), 0o755); err != nil {
		return res, errs.FromOS("mkdir parent", args.Path, err)
	}

	mode := os.FileMode(0o644)
	if args.Mode != "" {
		m, err := parseFileMode(args.Mode)
		if err != nil {
			return res, errs.New(errs.InvalidInput, err.Error())
		}
		mode = m
	}

	release, err := acquireLock(vp.ResolvedReal, 3*time.Second)
	if err != nil {
		return res, errs.New(errs.Timeout, err.Error()).WithPath(args.Path)
	}
	defer release()

	_, statErr := os.Stat(vp.ResolvedReal)
	created := os.IsNotExist(statErr)

	data := []byte(args.Content)
	if err := atomicWrite(vp.ResolvedReal, data, mode); err != nil {
		return res, errs.FromOS("write", args.Path, err)
	}

	fi, _ := os.Stat(vp.ResolvedReal)
	res.Path = args.Path
	res.Bytes = len(data)
	res.Created = created
	res.MimeType = detectMIME(vp.ResolvedReal, data)
	if fi != nil {
		res.Mode = fmt.Sprintf("%#o", fi.Mode()&os.ModePerm)
		res.ModifiedAt = fi.ModTime().UTC().Format(time.RFC3339)
	}
	return res, nil
}

func parseFileMode(s string) (os.FileMode, error) {
	var u uint32
	if _, err := fmt.Sscanf(s, "%o", &u); err != nil {
		return 0, fmt.Errorf("invalid mode format: %w", err)
	}
	if u > 0o777 {
		return 0, fmt.Errorf("mode exceeds maximum permissions (0777): %#o", u)
	}
	return os.FileMode(u), nil
}
