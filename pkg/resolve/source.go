// Package resolve decides which upstream source authoritatively describes a
// package's releases.
//
// Resolution runs an ordered chain of strategies over a package's declared
// URLs and name; the first strategy to commit wins and later strategies are
// never consulted, because earlier strategies are more trustworthy by
// construction (a maintainer-declared homepage link beats a name-based
// guess). Registry detection runs independently of the chain, so a package
// can resolve as a hybrid: distributed through a language registry but
// documented in a code-hosting repository.
package resolve

import (
	"fmt"
	"net/url"
)

// Kind discriminates the upstream source variants.
type Kind int

const (
	// KindUnresolved is the terminal negative result: no strategy matched.
	KindUnresolved Kind = iota

	// KindGitHub identifies a GitHub-hosted repository.
	KindGitHub

	// KindRegistry identifies a language package registry entry with no
	// known code host.
	KindRegistry

	// KindGeneric identifies an arbitrary web host, known only by domain.
	KindGeneric
)

// String returns the kind's display name.
func (k Kind) String() string {
	switch k {
	case KindGitHub:
		return "github"
	case KindRegistry:
		return "registry"
	case KindGeneric:
		return "generic"
	default:
		return "unresolved"
	}
}

// Source is the canonical upstream identity produced by resolution.
// It is never mutated after creation.
//
// The hybrid case is represented by KindGitHub with RegistryName also set:
// the registry supplies the release timestamp while the code host supplies
// release notes.
type Source struct {
	Kind Kind

	// Owner and Repo identify a GitHub repository (KindGitHub only).
	Owner string
	Repo  string

	// RegistryName is the package's name on the language registry.
	// Set for KindRegistry, and for KindGitHub in the hybrid case.
	RegistryName string

	// Domain is the host of the package's homepage (KindGeneric only),
	// used for the "learn more" fallback presentation.
	Domain string

	// Strategy names the resolver strategy that committed this result,
	// for diagnostics.
	Strategy string
}

// Unresolved is the terminal negative result.
var Unresolved = Source{Kind: KindUnresolved}

// GitHub constructs a GitHub source.
func GitHub(owner, repo string) Source {
	return Source{Kind: KindGitHub, Owner: owner, Repo: repo}
}

// Registry constructs a registry-only source.
func Registry(name string) Source {
	return Source{Kind: KindRegistry, RegistryName: name}
}

// Generic constructs a generic-host source from a homepage URL.
// Returns Unresolved when the URL has no usable host.
func Generic(homepage string) Source {
	u, err := url.Parse(homepage)
	if err != nil || u.Hostname() == "" {
		return Unresolved
	}
	return Source{Kind: KindGeneric, Domain: u.Hostname()}
}

// IsHybrid reports whether the source is registry-distributed but
// code-hosted.
func (s Source) IsHybrid() bool {
	return s.Kind == KindGitHub && s.RegistryName != ""
}

// RepoSlug returns "owner/repo" for GitHub sources, "" otherwise.
func (s Source) RepoSlug() string {
	if s.Kind != KindGitHub {
		return ""
	}
	return s.Owner + "/" + s.Repo
}

// String returns a human-readable description of the source.
func (s Source) String() string {
	switch s.Kind {
	case KindGitHub:
		if s.IsHybrid() {
			return fmt.Sprintf("github.com/%s/%s (via registry %s)", s.Owner, s.Repo, s.RegistryName)
		}
		return "github.com/" + s.Owner + "/" + s.Repo
	case KindRegistry:
		return "registry:" + s.RegistryName
	case KindGeneric:
		return "generic:" + s.Domain
	default:
		return "unresolved"
	}
}

// Candidates holds the signals resolution works from: the package's declared
// source (download) URL, its homepage, and its name.
type Candidates struct {
	Name      string
	SourceURL string
	Homepage  string
}
