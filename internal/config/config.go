// Package config parses the process's CLI flags and environment into the
// values internal/roots, internal/sandbox, and internal/errs need at
// startup. It generalizes the teacher's config.go (a single `-root`
// flag plus FS_ROOT) into spec.md §6's "CLI surface": N positional
// allowed directories and an --allow-cwd opt-in, while keeping the
// teacher's flag-parsing and symlink-resolution shape.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/fscontext/mcp-server/internal/errs"
)

// Config is the fully-resolved startup configuration.
type Config struct {
	// AllowedRoots are the absolute, symlink-resolved directories named
	// positionally on the command line.
	AllowedRoots []string
	// AllowCWD grants the current working directory as an additional
	// root (--allow-cwd / --allow_cwd).
	AllowCWD bool

	DiagnosticsEnabled bool
	DiagnosticsDetail  errs.DetailLevel
	ToolLogErrors      bool

	AllowSensitiveOverride bool
	AllowlistPatterns      []string

	Compat bool
}

// Load reads an optional .env file (grounded: mutagen-io/mutagen's
// go.mod carries github.com/joho/godotenv for the same pre-seeding
// purpose), then parses args against the standard flag package exactly
// as the teacher's config.go does, then layers FS_CONTEXT_* env vars on
// top.
func Load(args []string) (*Config, error) {
	// A missing .env is not an error; godotenv.Load only fails loudly on
	// a malformed file that does exist.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	fs := flag.NewFlagSet("fs-context-mcp", flag.ContinueOnError)
	var allowCWD, allowCWDAlias bool
	fs.BoolVar(&allowCWD, "allow-cwd", false, "grant the current working directory as an allowed root")
	fs.BoolVar(&allowCWDAlias, "allow_cwd", false, "alias of --allow-cwd")
	var compat bool
	fs.BoolVar(&compat, "compat", false, "return tool results as plain text instead of structured JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		AllowCWD: allowCWD || allowCWDAlias,
		Compat:   compat,
	}

	for _, dir := range fs.Args() {
		abs, err := mustAbs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolving allowed root %q: %w", dir, err)
		}
		cfg.AllowedRoots = append(cfg.AllowedRoots, abs)
	}

	cfg.DiagnosticsEnabled = envBool("FS_CONTEXT_DIAGNOSTICS")
	cfg.DiagnosticsDetail = errs.DetailLevel(envInt("FS_CONTEXT_DIAGNOSTICS_DETAIL", 0))
	cfg.ToolLogErrors = envBool("FS_CONTEXT_TOOL_LOG_ERRORS")
	cfg.AllowSensitiveOverride = envBool("FS_CONTEXT_ALLOW_SENSITIVE")
	if raw := os.Getenv("FS_CONTEXT_ALLOWLIST"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.AllowlistPatterns = append(cfg.AllowlistPatterns, p)
			}
		}
	}

	return cfg, nil
}

// mustAbs resolves dir to an absolute path and, where possible, through
// any symlinks — the same two-step resolution the teacher's getRoot()
// performs for its single root.
func mustAbs(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	return v == "1" || strings.EqualFold(v, "true")
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
