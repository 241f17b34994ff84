package tools

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// atomicWrite mirrors the teacher's helpers.go atomicWrite: write to a
// sibling temp file, fsync, chmod, then rename into place, with a
// Windows-specific remove-then-rename fallback for the lack of atomic
// overwrite-by-rename on that platform. Kept as a supplemented feature
// (SPEC_FULL.md §9) for every write path.
func atomicWrite(target string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".fs-context-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		if runtime.GOOS == "windows" {
			if rmErr := os.Remove(target); rmErr != nil && !os.IsNotExist(rmErr) {
				return fmt.Errorf("remove target for windows rename: %w", rmErr)
			}
			if err := os.Rename(tmpName, target); err != nil {
				return fmt.Errorf("rename on windows: %w", err)
			}
		} else {
			return fmt.Errorf("rename temp file: %w", err)
		}
	}
	success = true
	return nil
}

// acquireLock mirrors the teacher's helpers.go acquireLock: an advisory
// sibling ".lock" file with exponential backoff and stale-lock detection,
// so two concurrent tool calls against the same file don't interleave
// writes (SPEC_FULL.md §9).
func acquireLock(path string, timeout time.Duration) (release func(), err error) {
	lock := path + ".lock"
	deadline := time.Now().Add(timeout)
	wait := 10 * time.Millisecond
	const maxWait = 500 * time.Millisecond
	const staleAfter = 5 * time.Minute

	for {
		f, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n%d\n", os.Getpid(), time.Now().Unix())
			_ = f.Close()
			return func() { _ = os.Remove(lock) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if info, statErr := os.Stat(lock); statErr == nil {
			if time.Since(info.ModTime()) > staleAfter {
				_ = os.Remove(lock)
				continue
			}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock acquisition timeout after %v: %s", timeout, path)
		}
		time.Sleep(wait)
		wait *= 2
		if wait > maxWait {
			wait = maxWait
		}
	}
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%x", sum[:])
}
