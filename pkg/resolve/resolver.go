package resolve

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"relnotes/pkg/errors"
)

// repoURLPattern extracts owner and repo from GitHub URLs in any of the
// common forms (with or without .git, trailing path segments, fragments).
var repoURLPattern = regexp.MustCompile(`https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// registryHosts are package-registry CDN hosts whose URLs never encode the
// canonical repository; the source-URL strategy skips them.
var registryHosts = []string{
	"pypi.org",
	"files.pythonhosted.org",
	"pythonhosted.org",
	"registry.npmjs.org",
	"rubygems.org",
	"crates.io",
}

// pypiSourcePattern recognizes PyPI-distributed packages from their download
// URL (sdist or wheel hosted on the PyPI CDN).
var pypiSourcePattern = regexp.MustCompile(`https?://(?:files\.pythonhosted\.org|pypi\.(?:org|io|python\.org))/packages/`)

// Strategy is one ordered rule in the resolution chain. Resolve returns the
// committed source and true, or false when the strategy has no opinion.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, c Candidates) (Source, bool)
}

// Resolver runs the ordered strategy chain.
type Resolver struct {
	strategies []Strategy
	logger     *log.Logger
}

// Options configures a Resolver.
type Options struct {
	// Overrides maps package names to "owner/repo" for packages whose
	// metadata never reveals the canonical repository. Merged over the
	// built-in table.
	Overrides map[string]string

	// Discovery, when non-nil, enables the homepage content scan as the
	// last structural strategy (opt-in feature).
	Discovery *Discovery

	// Logger receives per-strategy debug lines. Nil means log.Default().
	Logger *log.Logger
}

// New creates a Resolver with the standard strategy chain:
//
//  1. homepage direct match
//  2. source-URL direct match (registry CDN hosts skipped)
//  3. known-name overrides
//  4. heuristic name/name guess
//  5. homepage content scan (only when discovery is enabled)
//
// Registry detection runs independently of the chain, after it.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	strategies := []Strategy{
		homepageDirect{},
		sourceDirect{},
		newOverrides(opts.Overrides),
		heuristic{},
	}
	if opts.Discovery != nil {
		strategies = append(strategies, opts.Discovery)
	}

	return &Resolver{strategies: strategies, logger: logger}
}

// Resolve runs the chain over the candidates. The first strategy to commit
// wins; later strategies are not consulted even if they might disagree.
// Registry detection then annotates the result, producing the hybrid form
// when a GitHub resolution coexists with a registry-hosted source URL.
//
// Resolution never fails hard: when no strategy matches, the result is a
// Generic source derived from the homepage, or Unresolved when even that is
// unavailable.
func (r *Resolver) Resolve(ctx context.Context, c Candidates) Source {
	src := Unresolved
	for _, s := range r.strategies {
		if resolved, ok := s.Resolve(ctx, c); ok {
			if resolved.Kind == KindGitHub {
				if err := errors.ValidateOwnerRepo(resolved.Owner, resolved.Repo); err != nil {
					r.logger.Debug("strategy produced invalid repo", "strategy", s.Name(), "err", err)
					continue
				}
			}
			resolved.Strategy = s.Name()
			r.logger.Debug("resolved", "package", c.Name, "strategy", s.Name(), "source", resolved)
			src = resolved
			break
		}
	}

	if registry := detectRegistry(c); registry != "" {
		switch src.Kind {
		case KindGitHub:
			src.RegistryName = registry // hybrid: registry dates, GitHub notes
		case KindUnresolved, KindGeneric:
			src = Registry(registry)
			src.Strategy = "registry-detect"
		}
	}

	if src.Kind == KindUnresolved && c.Homepage != "" {
		if g := Generic(c.Homepage); g.Kind == KindGeneric {
			g.Strategy = "generic-homepage"
			src = g
		}
	}

	return src
}

// detectRegistry returns the registry package name when the source URL is a
// registry download URL, or "" otherwise.
func detectRegistry(c Candidates) string {
	if c.SourceURL == "" {
		return ""
	}
	if pypiSourcePattern.MatchString(c.SourceURL) {
		return pypiPackageName(c)
	}
	return ""
}

// pypiPackageName recovers the PyPI project name from a CDN download URL
// path ("…/packages/source/r/requests/requests-2.31.0.tar.gz"), falling
// back to the package name itself.
func pypiPackageName(c Candidates) string {
	parts := strings.Split(c.SourceURL, "/")
	for i, p := range parts {
		// sdist layout: packages/source/<initial>/<project>/<file>
		if p == "source" && i+2 < len(parts) {
			return parts[i+2]
		}
	}
	return strings.ToLower(c.Name)
}

// =============================================================================
// Strategies
// =============================================================================

// homepageDirect matches a GitHub URL in the declared homepage. Highest
// confidence: the link is maintainer-declared.
type homepageDirect struct{}

func (homepageDirect) Name() string { return "homepage-direct" }

func (homepageDirect) Resolve(_ context.Context, c Candidates) (Source, bool) {
	if owner, repo, ok := extractGitHub(c.Homepage); ok {
		return GitHub(owner, repo), true
	}
	return Unresolved, false
}

// sourceDirect matches a GitHub URL in the declared source/download URL.
// Registry CDN URLs are skipped: they never encode the canonical repo.
type sourceDirect struct{}

func (sourceDirect) Name() string { return "source-direct" }

func (sourceDirect) Resolve(_ context.Context, c Candidates) (Source, bool) {
	if c.SourceURL == "" || isRegistryHost(c.SourceURL) {
		return Unresolved, false
	}
	if owner, repo, ok := extractGitHub(c.SourceURL); ok {
		return GitHub(owner, repo), true
	}
	return Unresolved, false
}

// overrides is the fixed known-name table for packages whose metadata has
// been historically inconsistent, merged with user-configured entries.
type overrides struct {
	table map[string]string
}

// builtinOverrides covers packages whose source and homepage URLs never
// reveal the repository that actually publishes their release notes.
var builtinOverrides = map[string]string{
	"ffmpeg":      "FFmpeg/FFmpeg",
	"imagemagick": "ImageMagick/ImageMagick",
	"openssl@3":   "openssl/openssl",
	"sqlite":      "sqlite/sqlite",
	"vim":         "vim/vim",
	"tmux":        "tmux/tmux",
}

func newOverrides(extra map[string]string) overrides {
	table := make(map[string]string, len(builtinOverrides)+len(extra))
	for k, v := range builtinOverrides {
		table[k] = v
	}
	for k, v := range extra {
		table[k] = v
	}
	return overrides{table: table}
}

func (overrides) Name() string { return "known-name" }

func (o overrides) Resolve(_ context.Context, c Candidates) (Source, bool) {
	slug, ok := o.table[strings.ToLower(c.Name)]
	if !ok {
		return Unresolved, false
	}
	owner, repo, found := strings.Cut(slug, "/")
	if !found {
		return Unresolved, false
	}
	return GitHub(owner, repo), true
}

// heuristic guesses owner == repo == package name, but only when some URL
// substring hints that the project lives on GitHub at all.
type heuristic struct{}

func (heuristic) Name() string { return "name-heuristic" }

func (heuristic) Resolve(_ context.Context, c Candidates) (Source, bool) {
	hinted := strings.Contains(c.SourceURL, "github") || strings.Contains(c.Homepage, "github")
	if !hinted || c.Name == "" || strings.Contains(c.Name, "/") {
		return Unresolved, false
	}
	return GitHub(c.Name, c.Name), true
}

// =============================================================================
// Helpers
// =============================================================================

// extractGitHub pulls owner/repo out of a GitHub URL. Sponsor links are
// ignored: they name a user, not a repository.
func extractGitHub(u string) (owner, repo string, ok bool) {
	if u == "" || strings.Contains(u, "/sponsors/") {
		return "", "", false
	}
	m := repoURLPattern.FindStringSubmatch(u)
	if len(m) < 3 {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

func isRegistryHost(rawURL string) bool {
	for _, h := range registryHosts {
		if strings.Contains(rawURL, "://"+h+"/") || strings.Contains(rawURL, "."+h+"/") {
			return true
		}
	}
	return false
}
