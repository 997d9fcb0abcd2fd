package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SeedThreshold != 10 {
		t.Fatalf("SeedThreshold = %d, want 10", cfg.SeedThreshold)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log defaults = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.ShouldSeedOnStart() {
		t.Errorf("ShouldSeedOnStart() = false, want true by default")
	}
	if cfg.ExportsDir != filepath.Join(tmpDir, "exports") {
		t.Errorf("ExportsDir = %q, want %q", cfg.ExportsDir, filepath.Join(tmpDir, "exports"))
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"seed_threshold": 25, "seed_on_start": false, "log_level": "debug"}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SeedThreshold != 25 {
		t.Errorf("SeedThreshold = %d, want 25", cfg.SeedThreshold)
	}
	if cfg.ShouldSeedOnStart() {
		t.Errorf("ShouldSeedOnStart() = true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want default text", cfg.LogFormat)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"timezone": "Mars/Olympus_Mons"}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error for unknown timezone")
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc != time.Local {
		t.Errorf("empty timezone should resolve to time.Local")
	}

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "UTC" {
		t.Errorf("Location() = %s, want UTC", loc)
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"disabled_tools": ["journal_delete", " journal_seed ", "journal_delete"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools = %v, want 2 deduplicated entries", cfg.DisabledTools)
	}
	if cfg.DisabledTools[0] != "journal_delete" || cfg.DisabledTools[1] != "journal_seed" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestMerge(t *testing.T) {
	yes := true
	base := &Config{
		SeedThreshold: 10,
		SeedOnStart:   &yes,
		Timezone:      "UTC",
		AllowedPaths:  []string{"/a"},
	}
	overlay := &Config{
		SeedThreshold:    3,
		AllowUnsafePaths: true,
		AllowedPaths:     []string{"/b", "/a"},
		DBMaxOpenConns:   1,
	}

	got := Merge(base, overlay)

	if got.SeedThreshold != 3 {
		t.Errorf("SeedThreshold = %d, want 3", got.SeedThreshold)
	}
	if got.SeedOnStart == nil || !*got.SeedOnStart {
		t.Errorf("SeedOnStart should fall back to base")
	}
	if got.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", got.Timezone)
	}
	if !got.AllowUnsafePaths {
		t.Errorf("AllowUnsafePaths should be true")
	}
	if got.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", got.DBMaxOpenConns)
	}
	if len(got.AllowedPaths) != 2 || got.AllowedPaths[0] != "/a" || got.AllowedPaths[1] != "/b" {
		t.Errorf("AllowedPaths = %v, want [/a /b]", got.AllowedPaths)
	}
}

func TestMergeStringSlice_Empty(t *testing.T) {
	if got := mergeStringSlice(nil, []string{" ", ""}); got != nil {
		t.Errorf("mergeStringSlice() = %v, want nil", got)
	}
}
