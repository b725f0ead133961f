// Package cli implements the relnotes command-line interface.
//
// Commands:
//   - outdated: resolve and print changelogs for locally-outdated packages
//   - resolve: show how a single package resolves, for debugging
//   - cache: manage the HTTP response cache
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so every component logs with the same
// settings.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"relnotes/pkg/buildinfo"
	"relnotes/pkg/cache"
	"relnotes/pkg/config"
	"relnotes/pkg/fetch"
	"relnotes/pkg/pipeline"
	"relnotes/pkg/resolve"
	"relnotes/pkg/upstream/brew"
	"relnotes/pkg/upstream/github"
	"relnotes/pkg/upstream/pypi"
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	// Inventory lists the locally-outdated packages. Defaults to the real
	// brew binary; tests substitute canned data.
	Inventory *brew.Inventory
}

// New creates a CLI instance with a logger writing to w.
func New(w io.Writer, level log.Level, cfg config.Config) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		Config:    cfg,
		Inventory: brew.NewInventory(nil),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "relnotes",
		Short:        "relnotes shows upstream changelogs for outdated packages",
		Long:         `relnotes finds the authoritative upstream changelog for each locally-outdated Homebrew package and prints what changed since the installed version.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.outdatedCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newStore builds the cache backend: disabled, shared Redis, or the default
// file store, in that order of precedence. A broken backend degrades to no
// caching rather than failing the command.
func (c *CLI) newStore(noCache bool) cache.Store {
	if noCache {
		return cache.NewNullStore()
	}
	if c.Config.RedisURL != "" {
		store, err := cache.NewRedisStore(c.Config.RedisURL, c.Config.CacheTTL)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "err", err)
			return cache.NewNullStore()
		}
		return store
	}
	store, err := cache.NewFileStore(c.Config.CacheDir, c.Config.CacheTTL)
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "err", err)
		return cache.NewNullStore()
	}
	return store
}

// newRunner wires the full lookup pipeline. The returned close function
// releases the cache backend.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, func() error) {
	store := c.newStore(noCache)

	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if c.Config.GitHubToken != "" {
		headers["Authorization"] = "Bearer " + c.Config.GitHubToken
	}

	client := fetch.NewClient(store, fetch.Options{
		Timeout:        c.Config.Timeout,
		ConnectTimeout: c.Config.ConnectTimeout,
		MaxRetries:     c.Config.MaxRetries,
		BackoffUnit:    c.Config.BackoffUnit,
		Headers:        headers,
		Logger:         c.Logger,
	})

	opts := resolve.Options{
		Overrides: c.Config.Overrides,
		Logger:    c.Logger,
	}
	if c.Config.Discover {
		mappings := resolve.LoadMappings(mappingsPath(c.Config.CacheDir))
		opts.Discovery = resolve.NewDiscovery(client, mappings)
	}

	runner := &pipeline.Runner{
		Metadata:   brew.NewClient(client),
		Resolver:   resolve.New(opts),
		Notes:      github.NewClient(client),
		Timestamps: pypi.NewClient(client),
		Logger:     c.Logger,
	}
	return runner, store.Close
}
