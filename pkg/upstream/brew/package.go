// Package brew talks to the two sides of Homebrew: the local `brew outdated`
// inventory and the formulae.brew.sh metadata API.
package brew

import "fmt"

// PackageKind discriminates the two Homebrew package variants. They use
// different metadata endpoints and version semantics.
type PackageKind int

const (
	// KindFormula is a command-line package built from a formula.
	KindFormula PackageKind = iota

	// KindCask is a macOS application distributed as a cask.
	KindCask
)

// String returns the kind's brew-facing name.
func (k PackageKind) String() string {
	if k == KindCask {
		return "cask"
	}
	return "formula"
}

// Package is one locally-outdated Homebrew package: the unit of work for a
// changelog lookup.
type Package struct {
	Name             string
	Kind             PackageKind
	InstalledVersion string
	CurrentVersion   string
}

// HasUpgrade reports whether a new version is actually available. brew can
// list pinned or rebuilt packages whose version did not change.
func (p Package) HasUpgrade() bool {
	return p.CurrentVersion != "" && p.CurrentVersion != p.InstalledVersion
}

// String returns "name (installed -> current)" for logs and progress lines.
func (p Package) String() string {
	return fmt.Sprintf("%s (%s -> %s)", p.Name, p.InstalledVersion, p.CurrentVersion)
}
