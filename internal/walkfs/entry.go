// Package walkfs implements GlobEngine (spec.md §4.3): a lazy, bounded
// directory traversal producing DirectoryEntry values with excludes,
// hidden-file policy, .gitignore support, and depth/entry caps. It
// generalizes the teacher's glob.go (a single doublestar.Match pass over
// a fixed root with a worker-pool fan-out) into a pull-based iterator, the
// shape design note §9 asks for ("coroutines / async iterators... a
// pull-based iterator that yields DirectoryEntry values").
package walkfs

import "time"

// Kind is DirectoryEntry.kind from spec.md §3.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindSymlink   Kind = "symlink"
	KindOther     Kind = "other"
)

// DirectoryEntry mirrors spec.md §3. Size/ModTime are only populated when
// Options.ProduceStats is set.
type DirectoryEntry struct {
	Name          string
	RelativePath  string
	AbsolutePath  string
	Kind          Kind
	Size          int64
	HasSize       bool
	ModTime       time.Time
	HasModTime    bool
	SymlinkTarget string
}
