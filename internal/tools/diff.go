package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/pmezard/go-difflib/difflib"
)

// DiffFilesArgs are diff_files's arguments (spec.md §6).
type DiffFilesArgs struct {
	Original string
	Modified string
	Context  int
}

// DiffFilesResult is diff_files's structured output.
type DiffFilesResult struct {
	Diff        string
	IsIdentical bool
}

// DiffFiles implements diff_files: a unified diff between two files
// (github.com/pmezard/go-difflib, grounded in the teacher's go.mod).
func DiffFiles(ctx context.Context, s *Session, args DiffFilesArgs) (DiffFilesResult, error) {
	var res DiffFilesResult
	origVP, err := s.Sandbox.ValidateExisting(args.Original)
	if err != nil {
		return res, err
	}
	modVP, err := s.Sandbox.ValidateExisting(args.Modified)
	if err != nil {
		return res, err
	}
	origBytes, err := os.ReadFile(origVP.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("read", args.Original, err)
	}
	modBytes, err := os.ReadFile(modVP.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("read", args.Modified, err)
	}
	res.IsIdentical = string(origBytes) == string(modBytes)
	if res.IsIdentical {
		return res, nil
	}
	ctxLines := args.Context
	if ctxLines <= 0 {
		ctxLines = 3
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(origBytes)),
		B:        difflib.SplitLines(string(modBytes)),
		FromFile: args.Original,
		ToFile:   args.Modified,
		Context:  ctxLines,
	}
	diffText, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return res, errs.Newf(errs.Unknown, "diff generation failed: %v", err)
	}
	res.Diff = diffText
	return res, nil
}

// ApplyPatchArgs are apply_patch's arguments (spec.md §6).
type ApplyPatchArgs struct {
	Path        string
	Patch       string
	DryRun      bool
	FuzzFactor  int
	MaxFileSize int64
}

// ApplyPatchResult is apply_patch's structured output.
type ApplyPatchResult struct {
	Path        string
	Applied     bool
	HunksTotal  int
	HunksFailed int
	Preview     string
}

// ApplyPatch implements apply_patch: applying a unified diff (as produced
// by DiffFiles) to Path, with a fuzz factor on context-line matching and a
// dry-run preview. No ready-made unified-diff-apply library exists in the
// retrieved pack (go-difflib only generates diffs), so the hunk-apply
// logic here is hand-written, grounded in the same unified-diff format
// go-difflib emits.
func ApplyPatch(ctx context.Context, s *Session, args ApplyPatchArgs) (ApplyPatchResult, error) {
	var res ApplyPatchResult
	vp, err := s.Sandbox.ValidateExisting(args.Path)
	if err != nil {
		return res, err
	}
	fi, err := os.Stat(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("stat", args.Path, err)
	}
	maxSize := args.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxReadBytes
	}
	if fi.Size() > maxSize {
		return res, errs.Newf(errs.TooLarge, "file size %d exceeds %d bytes", fi.Size(), maxSize).WithPath(args.Path)
	}

	original, err := os.ReadFile(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("read", args.Path, err)
	}

	hunks, err := parseUnifiedDiff(args.Patch)
	if err != nil {
		return res, errs.New(errs.InvalidInput, err.Error())
	}
	if int64(len(args.Patch)) > maxSize {
		return res, errs.Newf(errs.TooLarge, "patch size exceeds %d bytes", maxSize)
	}

	lines := splitKeepLines(string(original))
	result, failed, err := applyHunks(lines, hunks, args.FuzzFactor)
	if err != nil {
		return res, errs.New(errs.InvalidInput, err.Error()).WithPath(args.Path)
	}

	res.Path = args.Path
	res.HunksTotal = len(hunks)
	res.HunksFailed = failed
	// splitKeepLines appended a "\n" to the last line; drop it again so the
	// file's own trailing-newline state is preserved.
	finalText := strings.TrimSuffix(strings.Join(result, ""), "\n")
	res.Preview = finalText

	if args.DryRun || failed > 0 {
		return res, nil
	}

	release, err := acquireLock(vp.ResolvedReal, 3*time.Second)
	if err != nil {
		return res, errs.New(errs.Timeout, err.Error()).WithPath(args.Path)
	}
	defer release()

	if err := atomicWrite(vp.ResolvedReal, []byte(finalText), fi.Mode().Perm()); err != nil {
		return res, errs.FromOS("write", args.Path, err)
	}
	res.Applied = true
	return res, nil
}

type hunk struct {
	origStart int
	origLines []string // with leading " "/"-"/"+" stripped of marker, marker kept separately
	markers   []byte
}

// parseUnifiedDiff extracts @@ hunks from a standard unified diff, the
// same shape difflib.GetUnifiedDiffString produces.
func parseUnifiedDiff(patch string) ([]hunk, error) {
	var hunks []hunk
	sc := bufio.NewScanner(strings.NewReader(patch))
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	var cur *hunk
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			continue
		case strings.HasPrefix(line, "@@"):
			if cur != nil {
				hunks = append(hunks, *cur)
			}
			start, ok := parseHunkHeader(line)
			if !ok {
				return nil, fmt.Errorf("malformed unified diff hunk header: %s", line)
			}
			cur = &hunk{origStart: start}
		case cur != nil && len(line) > 0:
			cur.markers = append(cur.markers, line[0])
			cur.origLines = append(cur.origLines, line[1:])
		case cur != nil:
			cur.markers = append(cur.markers, ' ')
			cur.origLines = append(cur.origLines, "")
		}
	}
	if cur != nil {
		hunks = append(hunks, *cur)
	}
	if len(hunks) == 0 {
		return nil, fmt.Errorf("malformed unified diff: no hunks found in patch")
	}
	return hunks, nil
}

// parseHunkHeader parses "@@ -a,b +c,d @@" and returns the 1-based
// original-file starting line number.
func parseHunkHeader(line string) (int, bool) {
	parts := strings.Fields(line)
	for _, p := range parts {
		if strings.HasPrefix(p, "-") {
			spec := strings.TrimPrefix(p, "-")
			comma := strings.Index(spec, ",")
			numStr := spec
			if comma >= 0 {
				numStr = spec[:comma]
			}
			n, err := strconv.Atoi(numStr)
			if err != nil {
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}

// applyHunks applies each hunk against lines (already split, each element
// retaining its trailing newline), tolerating up to fuzz context-line
// mismatches before giving up on a hunk.
func applyHunks(lines []string, hunks []hunk, fuzz int) ([]string, int, error) {
	out := append([]string{}, lines...)
	offset := 0
	failed := 0
	for _, h := range hunks {
		pos := h.origStart - 1 + offset
		if pos < 0 {
			pos = 0
		}
		newSegment, consumed, ok := matchAndBuild(out, pos, h, fuzz)
		if !ok {
			failed++
			continue
		}
		rebuilt := make([]string, 0, len(out)-consumed+len(newSegment))
		rebuilt = append(rebuilt, out[:pos]...)
		rebuilt = append(rebuilt, newSegment...)
		rebuilt = append(rebuilt, out[pos+consumed:]...)
		out = rebuilt
		offset += len(newSegment) - consumed
	}
	return out, failed, nil
}

// matchAndBuild verifies the hunk's context/removed lines match out at pos
// (within `fuzz` mismatching context lines) and builds the replacement
// segment from the hunk's context/added lines.
func matchAndBuild(out []string, pos int, h hunk, fuzz int) ([]string, int, bool) {
	consumed := 0
	var newSegment []string
	mismatches := 0
	for i, marker := range h.markers {
		content := h.origLines[i] + "\n"
		switch marker {
		case ' ':
			if pos+consumed >= len(out) || stripNL(out[pos+consumed]) != stripNL(content) {
				mismatches++
				if mismatches > fuzz {
					return nil, 0, false
				}
			}
			newSegment = append(newSegment, content)
			consumed++
		case '-':
			if pos+consumed >= len(out) || stripNL(out[pos+consumed]) != stripNL(content) {
				return nil, 0, false
			}
			consumed++
		case '+':
			newSegment = append(newSegment, content)
		}
	}
	return newSegment, consumed, true
}

func stripNL(s string) string { return strings.TrimRight(s, "\n") }

// splitKeepLines splits s into lines, each retaining its trailing "\n",
// using difflib.SplitLines so hunk application and diff generation agree
// on line boundaries. SplitLines appends a "\n" to the last element as
// well: every element ends in "\n", and text that already ends in "\n"
// yields a final element that is just "\n". Joining the elements back
// therefore needs one trailing "\n" removed.
func splitKeepLines(s string) []string {
	return difflib.SplitLines(s)
}
