package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fscontext/mcp-server/internal/errs"
	"github.com/fscontext/mcp-server/internal/resources"
	"github.com/fscontext/mcp-server/internal/sandbox"
)

type fakeRoots struct {
	roots []string
	init  bool
}

func (f fakeRoots) Roots() []string { return f.roots }
func (f fakeRoots) Initialized() bool { return f.init }

func newTestSession(t *testing.T, root string) *Session {
	t.Helper()
	sb := sandbox.New(sandbox.StaticRoots{root}, nil)
	rp := fakeRoots{roots: []string{root}, init: true}
	store := resources.New(0, 0)
	diag := errs.NewDiagnostics(false, errs.DetailNone)
	return NewSession(sb, rp, store, diag, 4)
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s := newTestSession(t, root)
	ctx := context.Background()

	_, err := Write(ctx, s, WriteArgs{Path: "hello.txt", Content: "hello world"})
	if err != nil {
		t.Fatal(err)
	}
	r, err := Read(ctx, s, ReadArgs{Path: "hello.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if r.Content != "hello world" {
		t.Fatalf("expected round trip, got %q", r.Content)
	}
}

func TestRead_LargeFileMaterializesResource(t *testing.T) {
	root := t.TempDir()
	s := newTestSession(t, root)
	s.MaxHumanOutput = 100
	ctx := context.Background()

	content := strings.Repeat("A", 250) + "\nEND\n"
	if err := os.WriteFile(filepath.Join(root, "large.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Read(ctx, s, ReadArgs{Path: "large.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if r.ResourceURI == "" {
		t.Fatalf("expected a resourceURI for oversized content")
	}
	stored, _, ok := s.Store.GetText(r.ResourceURI)
	if !ok || len(stored) < 200 {
		t.Fatalf("expected full content retrievable from the resource store, got %q", stored)
	}
}

func TestRm_NonEmptyDirRequiresRecursive(t *testing.T) {
	root := t.TempDir()
	s := newTestSession(t, root)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Join(root, "newdir", "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "newdir", "sub", "f.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Rm(ctx, s, RmArgs{Path: "newdir", Recursive: false})
	if errs.CodeOf(err) != errs.InvalidInput {
		t.Fatalf("expected E_INVALID_INPUT, got %v", err)
	}
	if _, err := Rm(ctx, s, RmArgs{Path: "newdir", Recursive: true}); err != nil {
		t.Fatalf("expected recursive rm to succeed, got %v", err)
	}
}

func TestSandboxEscapeViaSymlink_Rejected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "hosts"), []byte("127.0.0.1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	s := newTestSession(t, root)
	ctx := context.Background()

	_, err := Read(ctx, s, ReadArgs{Path: filepath.Join("link", "hosts")})
	if errs.CodeOf(err) != errs.AccessDenied {
		t.Fatalf("expected E_ACCESS_DENIED, got %v", err)
	}
}

func TestDiffFilesThenApplyPatch_RoundTrip(t *testing.T) {
	root := t.TempDir()
	s := newTestSession(t, root)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("one\nTWO\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	diffRes, err := DiffFiles(ctx, s, DiffFilesArgs{Original: "a.txt", Modified: "b.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if diffRes.IsIdentical {
		t.Fatalf("expected files to differ")
	}
	applyRes, err := ApplyPatch(ctx, s, ApplyPatchArgs{Path: "a.txt", Patch: diffRes.Diff})
	if err != nil {
		t.Fatal(err)
	}
	if !applyRes.Applied {
		t.Fatalf("expected patch to apply cleanly, got %+v", applyRes)
	}
	got, err := os.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one\nTWO\nthree\n" {
		t.Fatalf("expected a.txt to equal b.txt after patch, got %q", got)
	}
}

func TestCalculateHash_DeterministicAcrossRuns(t *testing.T) {
	root := t.TempDir()
	s := newTestSession(t, root)
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Join(root, "dir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "dir", "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "dir", "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	r1, err := CalculateHash(ctx, s, CalculateHashArgs{Path: "dir"})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := CalculateHash(ctx, s, CalculateHashArgs{Path: "dir"})
	if err != nil {
		t.Fatal(err)
	}
	if r1.SHA256 != r2.SHA256 {
		t.Fatalf("expected deterministic directory hash, got %q vs %q", r1.SHA256, r2.SHA256)
	}
}

func TestGrep_FindsRegexMatch(t *testing.T) {
	root := t.TempDir()
	s := newTestSession(t, root)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(root, "notes.md"), []byte("TODO: task\nother line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Grep(ctx, s, GrepArgs{Path: ".", Pattern: `TODO:\s+\w+`, IsRegex: true, FilePattern: "**/*.md"})
	if err != nil {
		t.Fatal(err)
	}
	if r.TotalMatches < 1 {
		t.Fatalf("expected at least one match, got %+v", r)
	}
	if !strings.HasSuffix(r.Matches[0].File, "notes.md") {
		t.Fatalf("expected match file to end in notes.md, got %s", r.Matches[0].File)
	}
}
