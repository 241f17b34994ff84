// Package grep implements GrepEngine (spec.md §4.4): per-file line matching
// with literal/regex modes, binary detection, and context windows. It
// generalizes the teacher's search.go, which only ever did a fixed
// substring-or-regex scan across a directory's worker pool; the matcher
// construction here is split out so internal/tools can reuse it for both
// the grep tool and search_and_replace's dry-run preview.
package grep

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fscontext/mcp-server/internal/errs"
)

// maxPatternLength caps a user-supplied pattern before it ever reaches
// regexp.Compile (spec.md §4.4's pattern-length cap).
const maxPatternLength = 1000

// nestedQuantifiers flags a quantifier directly following a closing group
// whose body contains a "+" or "*", e.g. "(a+)+" or "(a*)*" — the classic
// catastrophic-backtracking shape. RE2 itself can't blow up this way, but
// spec.md §4.4 still asks for the syntactic heuristic ahead of compilation
// so obviously ReDoS-shaped input is rejected uniformly regardless of engine.
func nestedQuantifiers(pattern string) bool {
	for i := 0; i+1 < len(pattern); i++ {
		if pattern[i] != ')' {
			continue
		}
		// find the matching '(' for this ')'
		depth := 0
		j := i
		for ; j >= 0; j-- {
			switch pattern[j] {
			case ')':
				depth++
			case '(':
				depth--
			}
			if depth == 0 {
				break
			}
		}
		if j < 0 {
			continue
		}
		group := pattern[j : i+1]
		if !strings.ContainsAny(group[:len(group)-1], "+*") {
			continue
		}
		if isQuantifier(pattern[i+1]) {
			return true
		}
	}
	return false
}

func isQuantifier(b byte) bool {
	return b == '+' || b == '*' || b == '?' || b == '{'
}

// redosRisk runs the syntactic pre-compile check from spec.md §4.4: a
// pattern-length cap plus the nested-quantifier heuristic above.
func redosRisk(pattern string) bool {
	return len(pattern) > maxPatternLength || nestedQuantifiers(pattern)
}

// Matcher decides whether a line matches, counts the occurrences on a
// line and replaces them; it does not report match positions.
type Matcher struct {
	literal      string
	caseFold     bool
	wordBoundary bool
	rx           *regexp.Regexp
}

// Options configures matcher construction (spec.md §4.4: "literal or
// regex", "word boundary", "case sensitivity").
type Options struct {
	Pattern      string
	UseRegex     bool
	CaseFold     bool
	WordBoundary bool
}

// New compiles a Matcher. Regex patterns first pass redosRisk, the
// syntactic pattern-length-cap + nested-quantifier pre-compile check,
// and are rejected before ever reaching regexp.Compile. Patterns that
// pass are compiled with Go's stdlib regexp package, which is RE2-based
// and therefore immune to catastrophic backtracking by construction —
// no third-party "safe regex" engine is needed for that half of the
// no-ReDoS requirement; this is the one place SPEC_FULL.md deliberately
// keeps the standard library over a pack dependency (see DESIGN.md).
func New(opts Options) (*Matcher, error) {
	if opts.Pattern == "" {
		return nil, fmt.Errorf("pattern required")
	}
	m := &Matcher{
		literal:      opts.Pattern,
		caseFold:     opts.CaseFold,
		wordBoundary: opts.WordBoundary,
	}
	if !opts.UseRegex {
		if opts.WordBoundary {
			opts.UseRegex = true
			opts.Pattern = `\b` + regexp.QuoteMeta(opts.Pattern) + `\b`
		}
	}
	if opts.UseRegex {
		pattern := opts.Pattern
		if redosRisk(pattern) {
			return nil, errs.New(errs.InvalidPattern, "ReDoS risk detected")
		}
		if opts.CaseFold {
			pattern = "(?i)" + pattern
		}
		rx, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		m.rx = rx
	}
	return m, nil
}

// MatchLine reports whether line matches, per the construction in New.
func (m *Matcher) MatchLine(line string) bool {
	if m.rx != nil {
		return m.rx.MatchString(line)
	}
	if m.caseFold {
		return strings.Contains(strings.ToLower(line), strings.ToLower(m.literal))
	}
	return strings.Contains(line, m.literal)
}

// CountOccurrences returns the number of non-overlapping matches on line,
// the glossary's "Matcher: line -> non-negative integer" (spec.md §3's
// MatchRecord.match_count). Assumes MatchLine(line) has already reported
// true; called at most once per matched line, not on the hot path.
func (m *Matcher) CountOccurrences(line string) int {
	if m.rx != nil {
		return len(m.rx.FindAllStringIndex(line, -1))
	}
	needle := m.literal
	haystack := line
	if m.caseFold {
		needle = strings.ToLower(needle)
		haystack = strings.ToLower(haystack)
	}
	if needle == "" {
		return 0
	}
	return strings.Count(haystack, needle)
}

// ReplaceLine applies a literal or regex replacement to a single line, used
// by search_and_replace. Regex replacement supports $1-style group refs via
// regexp.ReplaceAllString; literal replacement is a plain strings.Replace.
func (m *Matcher) ReplaceLine(line, replacement string) string {
	if m.rx != nil {
		return m.rx.ReplaceAllString(line, replacement)
	}
	if m.caseFold {
		return replaceFold(line, m.literal, replacement)
	}
	return strings.ReplaceAll(line, m.literal, replacement)
}

func replaceFold(line, old, replacement string) string {
	if old == "" {
		return line
	}
	var b strings.Builder
	lower := strings.ToLower(line)
	lowerOld := strings.ToLower(old)
	i := 0
	for {
		idx := strings.Index(lower[i:], lowerOld)
		if idx < 0 {
			b.WriteString(line[i:])
			break
		}
		b.WriteString(line[i : i+idx])
		b.WriteString(replacement)
		i += idx + len(old)
	}
	return b.String()
}
