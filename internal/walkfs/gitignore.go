package walkfs

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/crackcomm/go-gitignore"
)

// IgnoreStatus is the three-way ignore result from spec.md's glossary
// ("Gitignore matcher": anchored vs non-anchored, directory-only
// suffixes, negations), modeled on the Ignorer abstraction in
// mutagen-io/mutagen's pkg/synchronization/core/ignore package
// (IgnoreStatusNominal/Ignored/Unignored).
type IgnoreStatus int

const (
	IgnoreNominal IgnoreStatus = iota
	IgnoreIgnored
	IgnoreUnignored
)

// Ignorer evaluates gitignore-style patterns loaded from a single root
// directory's .gitignore file, per spec.md §4.3 ("loaded from the root
// only; matched using standard gitignore semantics").
type Ignorer struct {
	gi *gitignore.GitIgnore
}

// LoadGitignore reads "<root>/.gitignore" if present. A missing file is
// not an error: it just means nothing is ignored.
func LoadGitignore(root string) (*Ignorer, error) {
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ignorer{}, nil
		}
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	gi := gitignore.CompileIgnoreLines(lines...)
	return &Ignorer{gi: gi}, nil
}

// Ignore reports the ignore status of relPath (slash-separated, relative
// to the loaded root). Negation ("!pattern") is handled by the underlying
// go-gitignore compiler, which reports a negated path as not matched, so
// it comes back as IgnoreNominal; Ignore returns only IgnoreNominal or
// IgnoreIgnored, never IgnoreUnignored.
func (ig *Ignorer) Ignore(relPath string, isDir bool) IgnoreStatus {
	if ig == nil || ig.gi == nil {
		return IgnoreNominal
	}
	relPath = filepath.ToSlash(relPath)
	query := relPath
	if isDir && !strings.HasSuffix(query, "/") {
		query += "/"
	}
	matched := ig.gi.MatchesPath(query)
	if !matched && isDir {
		// Some directory-only patterns only match without the trailing
		// slash depending on compiler internals; try both forms.
		matched = ig.gi.MatchesPath(relPath)
	}
	if !matched {
		return IgnoreNominal
	}
	return IgnoreIgnored
}
