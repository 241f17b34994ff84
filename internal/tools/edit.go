package tools

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/pmezard/go-difflib/difflib"
)

// EditOp is one {oldText, newText} replacement (spec.md §4.8 edit).
type EditOp struct {
	OldText string
	NewText string
}

// EditArgs are edit's arguments (spec.md §6).
type EditArgs struct {
	Path   string
	Edits  []EditOp
	DryRun bool
}

// EditResult is edit's structured output.
type EditResult struct {
	Path           string
	Applied        int
	UnmatchedEdits []int // indexes into Edits whose OldText was not found
	Diff           string
	Bytes          int
}

// Edit implements edit: sequential oldText/newText replacements against a
// file's full content, with a dry-run unified-diff preview.
func Edit(ctx context.Context, s *Session, args EditArgs) (EditResult, error) {
	var res EditResult
	vp, err := s.Sandbox.ValidateExisting(args.Path)
	if err != nil {
		return res, err
	}
	fi, err := os.Stat(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("stat", args.Path, err)
	}
	if fi.IsDir() {
		return res, errs.New(errs.NotFile, "path is a directory").WithPath(args.Path)
	}

	original, err := os.ReadFile(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("read", args.Path, err)
	}

	content := string(original)
	applied := 0
	var unmatched []int
	for i, op := range args.Edits {
		if !strings.Contains(content, op.OldText) {
			unmatched = append(unmatched, i)
			continue
		}
		content = strings.Replace(content, op.OldText, op.NewText, 1)
		applied++
	}

	diff := unifiedDiff(args.Path, string(original), content)
	res.Path = args.Path
	res.Applied = applied
	res.UnmatchedEdits = unmatched
	res.Diff = diff
	res.Bytes = len(content)

	if args.DryRun || content == string(original) {
		return res, nil
	}

	release, err := acquireLock(vp.ResolvedReal, 3*time.Second)
	if err != nil {
		return res, errs.New(errs.Timeout, err.Error()).WithPath(args.Path)
	}
	defer release()

	if err := atomicWrite(vp.ResolvedReal, []byte(content), fi.Mode().Perm()); err != nil {
		return res, errs.FromOS("write", args.Path, err)
	}
	return res, nil
}

func unifiedDiff(name, before, after string) string {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return ""
	}
	return text
}
