package brew

import (
	"context"
	"encoding/json"
	"os/exec"

	"relnotes/pkg/errors"
)

// Runner executes an external command and returns its stdout. The default
// implementation shells out; tests substitute canned output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Inventory lists the locally-outdated packages via `brew outdated`.
type Inventory struct {
	run Runner
}

// NewInventory creates an Inventory. A nil runner uses the real brew binary.
func NewInventory(run Runner) *Inventory {
	if run == nil {
		run = execRunner
	}
	return &Inventory{run: run}
}

// outdatedReport mirrors the `brew outdated --json=v2` document.
type outdatedReport struct {
	Formulae []outdatedEntry `json:"formulae"`
	Casks    []outdatedEntry `json:"casks"`
}

type outdatedEntry struct {
	Name              string   `json:"name"`
	InstalledVersions []string `json:"installed_versions"`
	CurrentVersion    string   `json:"current_version"`
	Pinned            bool     `json:"pinned"`
}

// Outdated runs `brew outdated --json=v2` and returns the outdated packages,
// formulae first, each list in brew's own order. Pinned packages are
// excluded: the user has opted out of upgrading them.
func (inv *Inventory) Outdated(ctx context.Context) ([]Package, error) {
	out, err := inv.run(ctx, "brew", "outdated", "--json=v2")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "brew outdated failed")
	}

	var report outdatedReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "unexpected brew outdated output")
	}

	var pkgs []Package
	for _, e := range report.Formulae {
		if p, ok := toPackage(e, KindFormula); ok {
			pkgs = append(pkgs, p)
		}
	}
	for _, e := range report.Casks {
		if p, ok := toPackage(e, KindCask); ok {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs, nil
}

func toPackage(e outdatedEntry, kind PackageKind) (Package, bool) {
	if e.Name == "" || e.Pinned {
		return Package{}, false
	}
	installed := ""
	if len(e.InstalledVersions) > 0 {
		// brew reports oldest installed version first.
		installed = e.InstalledVersions[0]
	}
	return Package{
		Name:             e.Name,
		Kind:             kind,
		InstalledVersion: installed,
		CurrentVersion:   e.CurrentVersion,
	}, true
}
