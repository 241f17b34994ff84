package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"

	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/walkfs"
)

// CalculateHashArgs are calculate_hash's arguments (spec.md §6).
type CalculateHashArgs struct {
	Path string
}

// CalculateHashResult is calculate_hash's structured output.
type CalculateHashResult struct {
	Path   string
	SHA256 string
	IsDir  bool
}

// CalculateHash implements calculate_hash: streamed SHA-256 for a file, or
// a deterministic composite hash over sorted relative paths (excluding
// symlinks, per DESIGN.md's Open Question decisions) for a
// directory.
func CalculateHash(ctx context.Context, s *Session, args CalculateHashArgs) (CalculateHashResult, error) {
	var res CalculateHashResult
	vp, err := s.Sandbox.ValidateExisting(args.Path)
	if err != nil {
		return res, err
	}
	fi, err := os.Lstat(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("lstat", args.Path, err)
	}
	res.Path = args.Path
	if fi.IsDir() {
		res.IsDir = true
		h, err := hashDirectory(ctx, vp.ResolvedReal)
		if err != nil {
			return res, errs.AsDetailed(err, args.Path, nil)
		}
		res.SHA256 = h
		return res, nil
	}
	h, err := hashFile(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("hash", args.Path, err)
	}
	res.SHA256 = h
	return res, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashDirectory walks root, hashing each regular file's content and
// folding {relative_path, content_hash} pairs in sorted order into one
// composite digest, so the result is stable across runs regardless of
// directory-read ordering (spec.md §8's "deterministic across
// invocations" round-trip property). Symlinks are excluded, matching
// the "never follow" traversal invariant everywhere else in the system.
func hashDirectory(ctx context.Context, root string) (string, error) {
	type fileHash struct {
		rel  string
		hash string
	}
	var files []fileHash
	_, err := walkfs.Walk(ctx, walkfs.Options{Root: root, OnlyFiles: true, IncludeHidden: true, IncludeIgnored: true}, func(e walkfs.DirectoryEntry) bool {
		if e.Kind != walkfs.KindFile {
			return true
		}
		h, herr := hashFile(e.AbsolutePath)
		if herr != nil {
			return true
		}
		files = append(files, fileHash{rel: e.RelativePath, hash: h})
		return true
	})
	if err != nil {
		return "", err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })

	h := sha256.New()
	for _, f := range files {
		h.Write([]byte(f.rel))
		h.Write([]byte{0})
		h.Write([]byte(f.hash))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
