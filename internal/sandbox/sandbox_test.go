package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fscontext/mcp-server/internal/errs"
)

func TestValidateExisting_Inside(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	sb := New(StaticRoots{root}, nil)
	vp, err := sb.ValidateExisting("a.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vp.IsSymlink {
		t.Fatalf("a.txt should not be reported as a symlink")
	}
}

func TestValidateExisting_EscapeRejected(t *testing.T) {
	root := t.TempDir()
	sb := New(StaticRoots{root}, nil)
	_, err := sb.ValidateExisting("../../../../etc/passwd")
	if err == nil {
		t.Fatalf("expected an error for an escaping path")
	}
	if errs.CodeOf(err) != errs.AccessDenied {
		t.Fatalf("expected E_ACCESS_DENIED, got %v", errs.CodeOf(err))
	}
}

// TestValidateExisting_SymlinkEscape exercises S1 from spec.md §8: a
// symlink inside the root pointing outside every root must fail
// E_ACCESS_DENIED, not silently follow.
func TestValidateExisting_SymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "hosts"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}
	sb := New(StaticRoots{root}, nil)
	_, err := sb.ValidateExisting("link/hosts")
	if err == nil {
		t.Fatalf("expected symlink escape to be rejected")
	}
	if errs.CodeOf(err) != errs.AccessDenied {
		t.Fatalf("expected E_ACCESS_DENIED, got %v", errs.CodeOf(err))
	}
}

func TestValidateExisting_NullByte(t *testing.T) {
	root := t.TempDir()
	sb := New(StaticRoots{root}, nil)
	_, err := sb.ValidateExisting("a\x00b")
	if errs.CodeOf(err) != errs.InvalidInput {
		t.Fatalf("expected E_INVALID_INPUT, got %v", errs.CodeOf(err))
	}
}

func TestValidateExisting_ReservedWindowsName(t *testing.T) {
	root := t.TempDir()
	sb := New(StaticRoots{root}, nil)
	_, err := sb.ValidateExisting("CON")
	if errs.CodeOf(err) != errs.InvalidInput {
		t.Fatalf("expected E_INVALID_INPUT for reserved name, got %v", errs.CodeOf(err))
	}
}

func TestValidateForWrite_AllowsMissingTarget(t *testing.T) {
	root := t.TempDir()
	sb := New(StaticRoots{root}, nil)
	vp, err := sb.ValidateForWrite("new-file.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(vp.ResolvedReal) != mustEvalRoot(t, root) {
		t.Fatalf("resolved parent mismatch: %s", vp.ResolvedReal)
	}
}

func TestSensitiveList_DeniesDotEnv(t *testing.T) {
	root := t.TempDir()
	sl := NewSensitiveList(false, nil)
	sb := New(StaticRoots{root}, sl)
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("SECRET=1"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := sb.ValidateExisting(".env")
	if errs.CodeOf(err) != errs.AccessDenied {
		t.Fatalf("expected .env to be denied, got %v", err)
	}
}

func TestSensitiveList_AllowOverride(t *testing.T) {
	root := t.TempDir()
	sl := NewSensitiveList(true, nil)
	sb := New(StaticRoots{root}, sl)
	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("SECRET=1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := sb.ValidateExisting(".env"); err != nil {
		t.Fatalf("expected override to allow .env, got %v", err)
	}
}

func TestDedupeRoots_TrailingSeparator(t *testing.T) {
	roots := DedupeRoots([]string{"/tmp/a", "/tmp/a/", "/tmp/b"})
	if len(roots) != 2 {
		t.Fatalf("expected 2 unique roots, got %d: %v", len(roots), roots)
	}
}

func mustEvalRoot(t *testing.T, root string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(root)
	if err != nil {
		r = root
	}
	abs, err := filepath.Abs(r)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}
