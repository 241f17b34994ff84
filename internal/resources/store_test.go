package resources

import (
	"strings"
	"testing"
)

func TestPutGetText_RoundTrip(t *testing.T) {
	s := New(0, 0)
	uri := s.PutText("hello world", "text/plain")
	if !strings.HasPrefix(uri, "filesystem-mcp://result/") {
		t.Fatalf("unexpected uri shape: %s", uri)
	}
	content, mime, ok := s.GetText(uri)
	if !ok || content != "hello world" || mime != "text/plain" {
		t.Fatalf("round trip failed: %q %q %v", content, mime, ok)
	}
}

func TestPutText_Deduplicates(t *testing.T) {
	s := New(0, 0)
	a := s.PutText("same content", "text/plain")
	b := s.PutText("same content", "text/plain")
	if a != b {
		t.Fatalf("expected identical content to dedupe to the same URI, got %s vs %s", a, b)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry after dedup, got %d", s.Len())
	}
}

func TestStore_EvictsOldestWhenEntriesExceeded(t *testing.T) {
	s := New(2, 0)
	first := s.PutText("one", "text/plain")
	s.PutText("two", "text/plain")
	s.PutText("three", "text/plain")
	if s.Len() != 2 {
		t.Fatalf("expected cache capped at 2 entries, got %d", s.Len())
	}
	if _, _, ok := s.GetText(first); ok {
		t.Fatalf("expected oldest entry to have been evicted")
	}
}

func TestStore_EvictsWhenByteBudgetExceeded(t *testing.T) {
	s := New(100, 10)
	first := s.PutText("0123456789", "text/plain")
	s.PutText("abcdefghij", "text/plain")
	if _, _, ok := s.GetText(first); ok {
		t.Fatalf("expected first entry evicted once byte budget exceeded")
	}
	if s.TotalBytes() > 10 {
		t.Fatalf("expected total bytes to stay within budget, got %d", s.TotalBytes())
	}
}

func TestStore_Clear(t *testing.T) {
	s := New(0, 0)
	s.PutText("x", "text/plain")
	s.Clear()
	if s.Len() != 0 || s.TotalBytes() != 0 {
		t.Fatalf("expected store empty after Clear")
	}
}

func TestGetText_BareUUIDAlsoResolves(t *testing.T) {
	s := New(0, 0)
	uri := s.PutText("x", "text/plain")
	id := strings.TrimPrefix(uri, "filesystem-mcp://result/")
	if _, _, ok := s.GetText(id); !ok {
		t.Fatalf("expected bare id lookup to succeed")
	}
}
