package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_PositionalArgsBecomeAllowedRoots(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.AllowedRoots) != 1 {
		t.Fatalf("expected one allowed root, got %v", cfg.AllowedRoots)
	}
	want, _ := filepath.EvalSymlinks(dir)
	if cfg.AllowedRoots[0] != want {
		t.Fatalf("expected %q, got %q", want, cfg.AllowedRoots[0])
	}
}

func TestLoad_AllowCWDAliasesBothSpellings(t *testing.T) {
	if cfg, err := Load([]string{"--allow-cwd"}); err != nil || !cfg.AllowCWD {
		t.Fatalf("expected --allow-cwd to set AllowCWD, got %+v err=%v", cfg, err)
	}
	if cfg, err := Load([]string{"--allow_cwd"}); err != nil || !cfg.AllowCWD {
		t.Fatalf("expected --allow_cwd to set AllowCWD, got %+v err=%v", cfg, err)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("FS_CONTEXT_DIAGNOSTICS", "1")
	t.Setenv("FS_CONTEXT_DIAGNOSTICS_DETAIL", "2")
	t.Setenv("FS_CONTEXT_TOOL_LOG_ERRORS", "1")
	t.Setenv("FS_CONTEXT_ALLOW_SENSITIVE", "0")
	t.Setenv("FS_CONTEXT_ALLOWLIST", "*.pem, notes.txt")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.DiagnosticsEnabled {
		t.Fatalf("expected diagnostics enabled")
	}
	if cfg.DiagnosticsDetail != 2 {
		t.Fatalf("expected detail level 2, got %d", cfg.DiagnosticsDetail)
	}
	if !cfg.ToolLogErrors {
		t.Fatalf("expected tool log errors enabled")
	}
	if cfg.AllowSensitiveOverride {
		t.Fatalf("expected sensitive override disabled")
	}
	if len(cfg.AllowlistPatterns) != 2 || cfg.AllowlistPatterns[0] != "*.pem" || cfg.AllowlistPatterns[1] != "notes.txt" {
		t.Fatalf("expected two trimmed allowlist patterns, got %v", cfg.AllowlistPatterns)
	}
}

func TestLoad_RejectsNonDirectoryRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load([]string{file}); err == nil {
		t.Fatalf("expected an error for a non-directory root")
	}
}
