// Package resources implements ResourceStore (spec.md §4.6): an in-memory,
// size-bounded, LRU-evicting cache for oversized tool outputs, addressed by
// filesystem-mcp://result/{uuid} URIs. Grounded on the teacher's singleton.go
// (a package-level store guarded by sync.Once) generalized from "one fixed
// resource" to an LRU keyed by uuid, using hashicorp/golang-lru/v2 (the
// rclone-rclone repo in the pack also reaches for an LRU cache for its
// directory-entry cache) plus google/uuid for URI generation and
// crypto/sha256 for content-addressed dedup.
package resources

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
)

// DefaultMaxEntries and DefaultMaxTotalBytes bound the store per spec.md
// §4.6's "size-bounded" requirement.
const (
	DefaultMaxEntries    = 256
	DefaultMaxTotalBytes = 64 * 1024 * 1024
)

type entry struct {
	id       string
	contents string
	mimeType string
	size     int64
}

// Store is the ResourceStore. Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	cache      *lru.Cache[string, *entry]
	byHash     map[string]string // sha256 hex -> id, for content dedup
	totalBytes int64
	maxBytes   int64
}

// New builds a Store capped at maxEntries resources and maxBytes total
// content size. A zero maxEntries/maxBytes uses the package defaults.
func New(maxEntries int, maxBytes int64) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxTotalBytes
	}
	s := &Store{
		byHash:   make(map[string]string),
		maxBytes: maxBytes,
	}
	cache, _ := lru.NewWithEvict[string, *entry](maxEntries, s.onEvict)
	s.cache = cache
	return s
}

// onEvict is the LRU's eviction callback; it keeps totalBytes and the
// content-hash index consistent with the cache's own eviction decisions.
func (s *Store) onEvict(id string, e *entry) {
	s.totalBytes -= e.size
	hash := hashOf(e.contents)
	if s.byHash[hash] == id {
		delete(s.byHash, hash)
	}
}

// PutText stores text content, returning its filesystem-mcp://result/{uuid}
// URI. Identical content (by sha256) is deduplicated: a second PutText of
// the same bytes returns the existing URI and refreshes its LRU recency
// instead of allocating a new entry (spec.md §4.6 "content-addressed").
func (s *Store) PutText(content, mimeType string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := hashOf(content)
	if id, ok := s.byHash[hash]; ok {
		if _, found := s.cache.Get(id); found {
			return uriFor(id)
		}
		delete(s.byHash, hash)
	}

	id := uuid.NewString()
	e := &entry{id: id, contents: content, mimeType: mimeType, size: int64(len(content))}

	for s.totalBytes+e.size > s.maxBytes && s.cache.Len() > 0 {
		s.cache.RemoveOldest()
	}

	s.cache.Add(id, e)
	s.byHash[hash] = id
	s.totalBytes += e.size
	return uriFor(id)
}

// GetText resolves a filesystem-mcp://result/{uuid} URI (or a bare uuid)
// back to its stored text and mime type. ok is false if the resource has
// been evicted or never existed.
func (s *Store) GetText(uriOrID string) (content, mimeType string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := idFromURI(uriOrID)
	e, found := s.cache.Get(id)
	if !found {
		return "", "", false
	}
	return e.contents, e.mimeType, true
}

// Clear empties the store, used by tests and by an explicit MCP
// "resources/clear" style admin call if the host ever adds one.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	s.byHash = make(map[string]string)
	s.totalBytes = 0
}

// Len reports the current entry count, for diagnostics/tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// TotalBytes reports the current aggregate content size, for diagnostics.
func (s *Store) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes
}

func hashOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func uriFor(id string) string {
	return fmt.Sprintf("filesystem-mcp://result/%s", id)
}

func idFromURI(s string) string {
	const prefix = "filesystem-mcp://result/"
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
