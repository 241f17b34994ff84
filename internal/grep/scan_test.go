package grep

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMatcher_LiteralCaseFold(t *testing.T) {
	m, err := New(Options{Pattern: "hello", CaseFold: true})
	if err != nil {
		t.Fatal(err)
	}
	if !m.MatchLine("say HELLO world") {
		t.Fatalf("expected case-folded match")
	}
}

func TestMatcher_WordBoundary(t *testing.T) {
	m, err := New(Options{Pattern: "cat", WordBoundary: true})
	if err != nil {
		t.Fatal(err)
	}
	if m.MatchLine("concatenate") {
		t.Fatalf("word boundary should not match substring inside a word")
	}
	if !m.MatchLine("a cat sat") {
		t.Fatalf("expected standalone word match")
	}
}

func TestMatcher_Regex(t *testing.T) {
	m, err := New(Options{Pattern: `^foo\d+$`, UseRegex: true})
	if err != nil {
		t.Fatal(err)
	}
	if !m.MatchLine("foo123") || m.MatchLine("foo") {
		t.Fatalf("regex match behaved unexpectedly")
	}
}

func TestMatcher_RejectsNestedQuantifiers(t *testing.T) {
	_, err := New(Options{Pattern: `(a+)+$`, UseRegex: true})
	if err == nil {
		t.Fatalf("expected nested-quantifier pattern to be rejected")
	}
	if !strings.Contains(err.Error(), "ReDoS risk detected") {
		t.Fatalf("expected ReDoS rejection message, got %v", err)
	}
}

func TestMatcher_RejectsOverlongPattern(t *testing.T) {
	_, err := New(Options{Pattern: strings.Repeat("a", maxPatternLength+1), UseRegex: true})
	if err == nil {
		t.Fatalf("expected overlong pattern to be rejected")
	}
	if !strings.Contains(err.Error(), "ReDoS risk detected") {
		t.Fatalf("expected ReDoS rejection message, got %v", err)
	}
}

func TestMaxLineIterations(t *testing.T) {
	if got := maxLineIterations(100); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
	if got := maxLineIterations(10000); got != 10000 {
		t.Fatalf("expected cap at 10000, got %d", got)
	}
}

func TestScanFile_ContextWindows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	content := "one\ntwo\nMATCH\nfour\nfive\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, _ := New(Options{Pattern: "MATCH"})
	matches, spent, _, err := ScanFile(context.Background(), path, m, ScanOptions{ContextBefore: 2, ContextAfter: 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if spent != 1 || len(matches) != 1 {
		t.Fatalf("expected one match, got %+v", matches)
	}
	got := matches[0]
	if got.LineNumber != 3 {
		t.Fatalf("expected line 3, got %d", got.LineNumber)
	}
	if len(got.Before) != 2 || got.Before[0] != "one" || got.Before[1] != "two" {
		t.Fatalf("unexpected before context: %+v", got.Before)
	}
	if len(got.After) != 2 || got.After[0] != "four" || got.After[1] != "five" {
		t.Fatalf("unexpected after context: %+v", got.After)
	}
}

func TestScanFile_MatchCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("foo foo foo\nbar\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, _ := New(Options{Pattern: "foo"})
	matches, _, _, err := ScanFile(context.Background(), path, m, ScanOptions{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].MatchCount != 3 {
		t.Fatalf("expected a single line with MatchCount 3, got %+v", matches)
	}
}

func TestScanFile_BinaryDetection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.dat")
	if err := os.WriteFile(path, []byte("abc\x00def"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, _ := New(Options{Pattern: "abc"})
	_, _, _, err := ScanFile(context.Background(), path, m, ScanOptions{}, 0)
	if _, ok := err.(*ErrBinaryFile); !ok {
		t.Fatalf("expected ErrBinaryFile, got %v", err)
	}
}

func TestScanFile_TooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, _ := New(Options{Pattern: "hello"})
	_, _, _, err := ScanFile(context.Background(), path, m, ScanOptions{MaxFileSize: 1}, 0)
	if _, ok := err.(*ErrTooLarge); !ok {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}
