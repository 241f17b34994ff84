package tools

import (
	"mime"
	"path/filepath"
	"unicode/utf8"
)

// detectMIME mirrors the teacher's helpers.go detectMIME: extension first,
// content sniffing as a fallback. Kept as a supplemented feature (see
// SPEC_FULL.md §9) on read/stat results even though spec.md's own read
// contract doesn't mention MIME.
func detectMIME(name string, sample []byte) string {
	if ext := filepath.Ext(name); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}
	if looksLikeText(sample) {
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

// looksLikeText is the teacher's isText heuristic: NUL byte or invalid
// UTF-8 means binary; a high ratio of control characters also disqualifies
// a sample from being treated as text.
func looksLikeText(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	for _, c := range b {
		if c == 0 {
			return false
		}
	}
	if !utf8.Valid(b) {
		return false
	}
	control := 0
	for _, c := range b {
		if c == 9 || c == 10 || c == 13 {
			continue
		}
		if c < 32 || c == 0x7f {
			control++
		}
	}
	return float64(control)/float64(len(b)) <= 0.3
}
