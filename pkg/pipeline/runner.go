// Package pipeline composes the full lookup for one package: metadata,
// source resolution, release notes, release timestamp. Both the CLI and
// tests drive lookups through the Runner instead of wiring the clients
// together themselves.
package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"relnotes/pkg/errors"
	"relnotes/pkg/render"
	"relnotes/pkg/resolve"
	"relnotes/pkg/upstream/brew"
	"relnotes/pkg/upstream/github"
)

// MetadataClient supplies package metadata (formulae.brew.sh).
type MetadataClient interface {
	Metadata(ctx context.Context, name string, kind brew.PackageKind) (*brew.Metadata, error)
}

// NotesClient supplies release notes for a repository and version (GitHub).
type NotesClient interface {
	Notes(ctx context.Context, owner, repo, version string) (*github.Notes, error)
}

// TimestampClient supplies registry release timestamps (PyPI), used for
// hybrid sources where the registry is authoritative for dates.
type TimestampClient interface {
	ReleaseTime(ctx context.Context, project, version string) (time.Time, error)
}

// Runner executes the lookup pipeline for individual packages. It is
// stateless apart from its clients; one Runner serves all goroutines of a
// batch run.
type Runner struct {
	Metadata   MetadataClient
	Resolver   *resolve.Resolver
	Notes      NotesClient
	Timestamps TimestampClient
	Logger     *log.Logger
}

// Lookup produces the outcome for one outdated package. Lookup itself never
// returns an error: failures are recorded on the outcome so one bad package
// cannot abort a batch.
func (r *Runner) Lookup(ctx context.Context, pkg brew.Package) render.Outcome {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	out := render.Outcome{Package: pkg, Source: resolve.Unresolved}

	if !pkg.HasUpgrade() {
		return out
	}

	meta, err := r.Metadata.Metadata(ctx, pkg.Name, pkg.Kind)
	if err != nil {
		logger.Warn("metadata lookup failed", "package", pkg.Name, "err", err)
		out.Err = errors.Wrap(errors.ErrCodeTaskFailed, err, "metadata for %s", pkg.Name)
		return out
	}

	out.Source = r.Resolver.Resolve(ctx, meta.Candidates())
	logger.Debug("resolved source", "package", pkg.Name, "source", out.Source, "strategy", out.Source.Strategy)

	if out.Source.Kind == resolve.KindGitHub {
		notes, err := r.Notes.Notes(ctx, out.Source.Owner, out.Source.Repo, pkg.CurrentVersion)
		switch {
		case err == nil:
			out.Notes = notes
			out.ReleasedAt = notes.PublishedAt
		case errors.Is(err, errors.ErrCodeReleaseNotFound):
			// No notes anywhere is a presentable outcome, not a failure.
		default:
			out.Err = errors.Wrap(errors.ErrCodeTaskFailed, err, "notes for %s", pkg.Name)
			return out
		}
	}

	if out.Source.IsHybrid() && r.Timestamps != nil {
		if t, err := r.Timestamps.ReleaseTime(ctx, out.Source.RegistryName, pkg.CurrentVersion); err == nil {
			// Registry upload time beats the release publish time.
			out.ReleasedAt = t
		} else {
			logger.Debug("registry timestamp unavailable", "package", pkg.Name, "err", err)
		}
	}

	return out
}
