package tools

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/fscontext/mcp-server/internal/errs"
)

// MvArgs are mv's arguments (spec.md §6).
type MvArgs struct {
	Source      string
	Destination string
}

// MvResult is mv's structured output.
type MvResult struct {
	Source      string
	Destination string
}

// Mv implements mv: rename, falling back to copy+delete across devices
// (EXDEV), per spec.md §4.8.
func Mv(ctx context.Context, s *Session, args MvArgs) (MvResult, error) {
	var res MvResult
	srcVP, err := s.Sandbox.ValidateExisting(args.Source)
	if err != nil {
		return res, err
	}
	dstVP, err := s.Sandbox.ValidateForWrite(args.Destination)
	if err != nil {
		return res, err
	}
	if err := os.MkdirAll(filepath.Dir(dstVP.ResolvedReal), 0o755); err != nil {
		return res, errs.FromOS("mkdir parent", args.Destination, err)
	}

	// A plain os.Rename fails across filesystem boundaries (EXDEV on
	// unix, ERROR_NOT_SAME_DEVICE on Windows); rather than matching that
	// errno per platform, any rename failure falls back to copy+delete,
	// which always succeeds or fails for a reason copy+delete itself
	// reports clearly.
	if err = os.Rename(srcVP.ResolvedReal, dstVP.ResolvedReal); err != nil {
		if err := copyThenRemove(srcVP.ResolvedReal, dstVP.ResolvedReal); err != nil {
			return res, errs.FromOS("mv", args.Source, err)
		}
	}
	res.Source = args.Source
	res.Destination = args.Destination
	return res, nil
}

func copyThenRemove(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return errors.New("cross-device move of a directory is not supported")
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// RmArgs are rm's arguments (spec.md §6).
type RmArgs struct {
	Path              string
	Recursive         bool
	IgnoreIfNotExists bool
}

// RmResult is rm's structured output.
type RmResult struct {
	Path    string
	Removed bool
}

// Rm implements rm: refuses to remove a non-empty directory unless
// Recursive is set, per spec.md §4.8.
func Rm(ctx context.Context, s *Session, args RmArgs) (RmResult, error) {
	var res RmResult
	vp, err := s.Sandbox.ValidateExisting(args.Path)
	if err != nil {
		var detailed *errs.Error
		if errors.As(err, &detailed) && detailed.Code == errs.NotFound && args.IgnoreIfNotExists {
			res.Path = args.Path
			res.Removed = false
			return res, nil
		}
		return res, err
	}
	fi, err := os.Lstat(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("lstat", args.Path, err)
	}
	if fi.IsDir() {
		entries, err := os.ReadDir(vp.ResolvedReal)
		if err != nil {
			return res, errs.FromOS("readdir", args.Path, err)
		}
		if len(entries) > 0 && !args.Recursive {
			return res, errs.New(errs.InvalidInput, "directory is not empty; pass recursive=true").WithPath(args.Path)
		}
		if args.Recursive {
			err = os.RemoveAll(vp.ResolvedReal)
		} else {
			err = os.Remove(vp.ResolvedReal)
		}
	} else {
		err = os.Remove(vp.ResolvedReal)
	}
	if err != nil {
		return res, errs.FromOS("remove", args.Path, err)
	}
	res.Path = args.Path
	res.Removed = true
	return res, nil
}
