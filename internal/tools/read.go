package tools

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fscontext/mcp-server/internal/errs"
)

// DefaultMaxReadBytes bounds a whole-file read when the caller doesn't
// narrow the request with head/tail/lineStart+lineEnd (spec.md §4.8
// read's E_TOO_LARGE guidance: "Narrow the request ... or raise
// maxFileSize").
const DefaultMaxReadBytes = 8 * 1024 * 1024

// ReadArgs are read's arguments (spec.md §6). Head, Tail, and
// LineStart+LineEnd are mutually exclusive (spec.md §4.8).
type ReadArgs struct {
	Path        string
	Head        *int
	Tail        *int
	LineStart   *int
	LineEnd     *int
	SkipBinary  bool
	MaxFileSize int64
}

// ReadResult is read's structured output.
type ReadResult struct {
	Path         string
	Content      string
	Size         int64
	MimeType     string
	Truncated    bool
	HasMoreLines bool
	ResourceURI  string
	Mode         string
	ModifiedAt   string
}

// Read implements spec.md §4.8's read primitive. Line numbering is
// 1-based and LineEnd is inclusive (DESIGN.md's Open Question
// decisions).
func Read(ctx context.Context, s *Session, args ReadArgs) (ReadResult, error) {
	var res ReadResult
	modes := 0
	if args.Head != nil {
		modes++
	}
	if args.Tail != nil {
		modes++
	}
	if args.LineStart != nil || args.LineEnd != nil {
		modes++
		if args.LineStart == nil || args.LineEnd == nil {
			return res, errs.New(errs.InvalidInput, "lineStart and lineEnd must be provided together")
		}
	}
	if modes > 1 {
		return res, errs.New(errs.InvalidInput, "head, tail, and lineStart+lineEnd are mutually exclusive")
	}

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

	maxSize := args.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxReadBytes
	}

	f, err := os.Open(vp.ResolvedReal)
	if err != nil {
		return res, errs.FromOS("open", args.Path, err)
	}
	defer f.Close()

	probe := make([]byte, 8192)
	n, _ := f.Read(probe)
	probe = probe[:n]
	if args.SkipBinary && !looksLikeText(probe) {
		return res, errs.New(errs.BinaryFile, "file appears to be binary").WithPath(args.Path)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return res, errs.FromOS("seek", args.Path, err)
	}

	switch {
	case args.Head != nil:
		lines, hasMore, err := readHeadLines(f, *args.Head)
		if err != nil {
			return res, err
		}
		res.Content = strings.Join(lines, "\n")
		res.HasMoreLines = hasMore
		res.Truncated = false
	case args.Tail != nil:
		lines, err := readTailLines(f, *args.Tail)
		if err != nil {
			return res, err
		}
		res.Content = strings.Join(lines, "\n")
	case args.LineStart != nil:
		lines, err := readLineRange(f, *args.LineStart, *args.LineEnd)
		if err != nil {
			return res, err
		}
		res.Content = strings.Join(lines, "\n")
	default:
		if fi.Size() > maxSize {
			return res, errs.Newf(errs.TooLarge, "file size %d exceeds %d bytes", fi.Size(), maxSize).WithPath(args.Path)
		}
		buf := make([]byte, fi.Size())
		if _, err := io.ReadFull(f, buf); err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return res, errs.FromOS("read", args.Path, err)
		}
		res.Content = truncateValidUTF8(string(buf), int(maxSize))
		res.Truncated = int64(len(res.Content)) < fi.Size()
	}

	res.Path = args.Path
	res.Size = fi.Size()
	res.MimeType = detectMIME(vp.ResolvedReal, probe)
	res.Mode = fmt.Sprintf("%#o", fi.Mode()&os.ModePerm)
	res.ModifiedAt = fi.ModTime().UTC().Format(time.RFC3339)

	preview, uri, materialized := s.MaterializeIfLarge(res.Content, res.MimeType)
	if materialized {
		res.Content = preview
		res.ResourceURI = uri
		res.Truncated = true
	}
	return res, nil
}

// readHeadLines returns at most n lines from the start of f, and whether
// more lines remained (spec.md S2: "do not claim truncation when the
// file is shorter than requested").
func readHeadLines(f *os.File, n int) ([]string, bool, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var lines []string
	for sc.Scan() {
		if len(lines) >= n {
			return lines, true, nil
		}
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, false, errs.Newf(errs.Unknown, "scan error: %v", err)
	}
	return lines, false, nil
}

// readTailLines keeps the last n lines in a ring buffer so it never holds
// more than n+const lines in memory.
func readTailLines(f *os.File, n int) ([]string, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	ring := make([]string, 0, n)
	for sc.Scan() {
		ring = append(ring, sc.Text())
		if len(ring) > n {
			ring = ring[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Newf(errs.Unknown, "scan error: %v", err)
	}
	return ring, nil
}

// readLineRange returns lines [start, end] inclusive, both 1-based.
func readLineRange(f *os.File, start, end int) ([]string, error) {
	if start < 1 || end < start {
		return nil, errs.Newf(errs.InvalidInput, "invalid line range [%d,%d]", start, end)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var lines []string
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo < start {
			continue
		}
		if lineNo > end {
			break
		}
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Newf(errs.Unknown, "scan error: %v", err)
	}
	return lines, nil
}

// truncateValidUTF8 cuts s to at most maxBytes, walking backward up to 3
// bytes to avoid splitting a multi-byte code point (spec.md §9's UTF-8
// boundary rule).
func truncateValidUTF8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for i := 0; i < 3 && cut > 0; i++ {
		if s[cut]&0xC0 != 0x80 {
			break
		}
		cut--
	}
	return s[:cut]
}
