// Package config builds the immutable runtime configuration for relnotes.
//
// Configuration is assembled once at startup from environment variables and
// an optional TOML file, then passed by value to every component. Nothing in
// this package mutates global state after Load returns.
//
// # Environment variables
//
//   - RELNOTES_JOBS: concurrency override (clamped, see [Config.JobLimit])
//   - RELNOTES_MAX_RETRIES: maximum fetch attempts per URL
//   - RELNOTES_CACHE_DIR: cache directory (default ~/.cache/relnotes)
//   - RELNOTES_CACHE_TTL: cache entry time-to-live (Go duration, e.g. "24h")
//   - RELNOTES_TIMEOUT: overall per-request timeout
//   - RELNOTES_DISCOVER: "1"/"true" enables homepage content discovery
//   - RELNOTES_REDIS_URL: use a Redis cache backend instead of the file store
//   - GITHUB_TOKEN: optional token for authenticated GitHub API requests
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"relnotes/pkg/errors"
)

// Defaults for tunables not set via environment or file.
const (
	DefaultMaxRetries     = 3
	DefaultCacheTTL       = 24 * time.Hour
	DefaultTimeout        = 10 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultBatchDelay     = 2 * time.Second
	DefaultBackoffUnit    = time.Second

	// maxJobs is the absolute ceiling on concurrent workers regardless of
	// hardware or overrides. Upstream APIs rate-limit aggressively past this.
	maxJobs = 16
)

// Config holds all runtime settings. It is constructed once and never
// modified afterwards; copies are cheap and safe to share.
type Config struct {
	// Jobs is the concurrency override; 0 means auto-detect from the CPU
	// count. See JobLimit for clamping.
	Jobs int `toml:"jobs"`

	// MaxRetries bounds fetch attempts per URL.
	MaxRetries int `toml:"max_retries"`

	// CacheDir is the file cache root.
	CacheDir string `toml:"cache_dir"`

	CacheTTL       time.Duration `toml:"-"`
	Timeout        time.Duration `toml:"-"`
	ConnectTimeout time.Duration `toml:"-"`
	BatchDelay     time.Duration `toml:"-"`
	BackoffUnit    time.Duration `toml:"-"`

	// Discover opts in to the homepage content scan.
	Discover bool `toml:"discover"`

	// GitHubToken authenticates GitHub API requests. Environment only,
	// never read from the config file.
	GitHubToken string `toml:"-"`

	// RedisURL switches the cache to a shared Redis backend.
	RedisURL string `toml:"redis_url"`

	// Overrides maps package names to "owner/repo" repositories, merged
	// over the built-in known-name table.
	Overrides map[string]string `toml:"overrides"`

	// Raw duration strings from the TOML file, converted during Load.
	CacheTTLString string `toml:"cache_ttl"`
	TimeoutString  string `toml:"timeout"`
}

// Load builds the configuration from defaults, the optional config file at
// ~/.config/relnotes/config.toml, and environment variables, in that order
// of precedence (environment wins).
func Load() (Config, error) {
	cfg := Config{
		MaxRetries:     DefaultMaxRetries,
		CacheTTL:       DefaultCacheTTL,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		BatchDelay:     DefaultBatchDelay,
		BackoffUnit:    DefaultBackoffUnit,
	}

	if path, ok := defaultFilePath(); ok {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot determine home directory")
		}
		cfg.CacheDir = filepath.Join(home, ".cache", "relnotes")
	}
	return cfg, nil
}

// LoadFile builds the configuration from defaults and the given TOML file
// only, ignoring the environment. Used by tests and by --config.
func LoadFile(path string) (Config, error) {
	cfg := Config{
		MaxRetries:     DefaultMaxRetries,
		CacheTTL:       DefaultCacheTTL,
		Timeout:        DefaultTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		BatchDelay:     DefaultBatchDelay,
		BackoffUnit:    DefaultBackoffUnit,
	}
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// JobLimit returns the effective concurrency limit. The default is derived
// from the CPU count; a user override is honored but clamped to 1.5x the
// computed default and to the absolute ceiling, preventing accidental
// hammering of upstream APIs.
func (c Config) JobLimit() int {
	def := runtime.NumCPU()
	if def > maxJobs {
		def = maxJobs
	}
	if def < 1 {
		def = 1
	}
	if c.Jobs <= 0 {
		return def
	}
	limit := c.Jobs
	if cap := def * 3 / 2; limit > cap {
		limit = cap
	}
	if limit > maxJobs {
		limit = maxJobs
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}

func defaultFilePath() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, ".config", "relnotes", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func mergeFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot parse config file %s", path)
	}
	if cfg.CacheTTLString != "" {
		d, err := time.ParseDuration(cfg.CacheTTLString)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid cache_ttl in %s", path)
		}
		cfg.CacheTTL = d
	}
	if cfg.TimeoutString != "" {
		d, err := time.ParseDuration(cfg.TimeoutString)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid timeout in %s", path)
		}
		cfg.Timeout = d
	}
	return nil
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv("RELNOTES_JOBS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid RELNOTES_JOBS")
		}
		cfg.Jobs = n
	}
	if v := os.Getenv("RELNOTES_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid RELNOTES_MAX_RETRIES")
		}
		if n < 1 {
			n = 1
		}
		cfg.MaxRetries = n
	}
	if v := os.Getenv("RELNOTES_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("RELNOTES_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid RELNOTES_CACHE_TTL")
		}
		cfg.CacheTTL = d
	}
	if v := os.Getenv("RELNOTES_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid RELNOTES_TIMEOUT")
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("RELNOTES_DISCOVER"); v != "" {
		cfg.Discover = v == "1" || v == "true" || v == "yes"
	}
	if v := os.Getenv("RELNOTES_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHubToken = v
	}
	return nil
}
