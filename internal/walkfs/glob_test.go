package walkfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, root string, opts Options) ([]DirectoryEntry, Stats) {
	t.Helper()
	opts.Root = root
	var got []DirectoryEntry
	stats, err := Walk(context.Background(), opts, func(e DirectoryEntry) bool {
		got = append(got, e)
		return true
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	return got, stats
}

func TestWalk_BasicMatchAndSort(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "a.txt"), "a")

	got, _ := collect(t, root, Options{Pattern: "*.txt"})
	if len(got) != 2 || got[0].Name != "a.txt" || got[1].Name != "b.txt" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestWalk_HiddenFilesSkippedByDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden"), "x")
	writeFile(t, filepath.Join(root, "visible"), "x")

	got, _ := collect(t, root, Options{})
	if len(got) != 1 || got[0].Name != "visible" {
		t.Fatalf("expected only visible entry, got %+v", got)
	}

	got2, _ := collect(t, root, Options{IncludeHidden: true})
	if len(got2) != 2 {
		t.Fatalf("expected both entries with IncludeHidden, got %+v", got2)
	}
}

func TestWalk_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.go"), "x")
	writeFile(t, filepath.Join(root, "vendor", "skip.go"), "x")

	got, _ := collect(t, root, Options{Pattern: "**/*.go", ExcludePatterns: []string{"vendor/**"}})
	if len(got) != 1 || got[0].Name != "keep.go" {
		t.Fatalf("expected vendor excluded, got %+v", got)
	}
}

func TestWalk_Gitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "*.log\n")
	writeFile(t, filepath.Join(root, "app.log"), "x")
	writeFile(t, filepath.Join(root, "app.txt"), "x")

	got, stats := collect(t, root, Options{})
	if len(got) != 1 {
		// .gitignore itself is hidden and skipped by default.
		t.Fatalf("expected app.txt only, got %+v", got)
	}
	names := map[string]bool{}
	for _, e := range got {
		names[e.Name] = true
	}
	if names["app.log"] {
		t.Fatalf("expected app.log to be ignored, got %+v", got)
	}
	if stats.SkippedIgnored == 0 {
		t.Fatalf("expected SkippedIgnored to be incremented")
	}
}

func TestWalk_MaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.txt"), "x")
	writeFile(t, filepath.Join(root, "sub", "deep.txt"), "x")

	got, _ := collect(t, root, Options{MaxDepth: 1})
	if len(got) != 2 || got[0].Name != "sub" || got[1].Name != "top.txt" {
		t.Fatalf("expected only depth-1 entries, got %+v", got)
	}
}

func TestWalk_OnlyFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dir", "f.txt"), "x")

	got, _ := collect(t, root, Options{OnlyFiles: true})
	for _, e := range got {
		if e.Kind == KindDirectory {
			t.Fatalf("expected no directory entries, got %+v", got)
		}
	}
}

func TestWalk_MaxEntriesStopsEarly(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c"} {
		writeFile(t, filepath.Join(root, n+".txt"), "x")
	}
	got, _ := collect(t, root, Options{MaxEntries: 2})
	if len(got) != 2 {
		t.Fatalf("expected exactly 2 entries, got %d", len(got))
	}
}
