package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
jobs = 4
max_retries = 5
cache_ttl = "2h"
timeout = "30s"
discover = true

[overrides]
some-tool = "acme/some-tool"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Jobs != 4 {
		t.Errorf("Jobs = %d, want 4", cfg.Jobs)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.CacheTTL != 2*time.Hour {
		t.Errorf("CacheTTL = %v, want 2h", cfg.CacheTTL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if !cfg.Discover {
		t.Error("Discover = false, want true")
	}
	if cfg.Overrides["some-tool"] != "acme/some-tool" {
		t.Errorf("Overrides = %v", cfg.Overrides)
	}
}

func TestLoadFile_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`cache_ttl = "not-a-duration"`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Error("LoadFile() should fail on invalid duration")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RELNOTES_JOBS", "3")
	t.Setenv("RELNOTES_MAX_RETRIES", "7")
	t.Setenv("RELNOTES_CACHE_DIR", "/tmp/relnotes-test-cache")
	t.Setenv("RELNOTES_CACHE_TTL", "90m")
	t.Setenv("RELNOTES_DISCOVER", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Jobs != 3 {
		t.Errorf("Jobs = %d, want 3", cfg.Jobs)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.MaxRetries)
	}
	if cfg.CacheDir != "/tmp/relnotes-test-cache" {
		t.Errorf("CacheDir = %s", cfg.CacheDir)
	}
	if cfg.CacheTTL != 90*time.Minute {
		t.Errorf("CacheTTL = %v, want 90m", cfg.CacheTTL)
	}
	if !cfg.Discover {
		t.Error("Discover = false, want true")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("RELNOTES_JOBS", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("Load() should fail on invalid RELNOTES_JOBS")
	}
}

func TestJobLimit(t *testing.T) {
	def := runtime.NumCPU()
	if def > 16 {
		def = 16
	}
	if def < 1 {
		def = 1
	}

	tests := []struct {
		name string
		jobs int
		want int
	}{
		{"auto", 0, def},
		{"negative treated as auto", -2, def},
		{"modest override kept", 1, 1},
		{"oversized override clamped", 1000, min(def*3/2, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Jobs: tt.jobs}
			got := cfg.JobLimit()
			if got != tt.want {
				t.Errorf("JobLimit() = %d, want %d", got, tt.want)
			}
			if got < 1 {
				t.Error("JobLimit() must be at least 1")
			}
		})
	}
}
