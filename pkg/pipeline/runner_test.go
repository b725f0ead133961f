package pipeline

import (
	"context"
	"testing"
	"time"

	"relnotes/pkg/errors"
	"relnotes/pkg/render"
	"relnotes/pkg/resolve"
	"relnotes/pkg/upstream/brew"
	"relnotes/pkg/upstream/github"
)

type stubMetadata struct {
	meta *brew.Metadata
	err  error
}

func (s *stubMetadata) Metadata(context.Context, string, brew.PackageKind) (*brew.Metadata, error) {
	return s.meta, s.err
}

type stubNotes struct {
	notes *github.Notes
	err   error
	calls int
}

func (s *stubNotes) Notes(context.Context, string, string, string) (*github.Notes, error) {
	s.calls++
	return s.notes, s.err
}

type stubTimestamps struct {
	t   time.Time
	err error
}

func (s *stubTimestamps) ReleaseTime(context.Context, string, string) (time.Time, error) {
	return s.t, s.err
}

func outdatedPkg() brew.Package {
	return brew.Package{Name: "widget", InstalledVersion: "1.0", CurrentVersion: "2.0"}
}

func TestLookup_FullPath(t *testing.T) {
	published := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := &Runner{
		Metadata: &stubMetadata{meta: &brew.Metadata{
			Name:     "widget",
			Homepage: "https://github.com/acme/widget",
		}},
		Resolver: resolve.New(resolve.Options{}),
		Notes:    &stubNotes{notes: &github.Notes{Body: "fixes", PublishedAt: published}},
	}

	out := r.Lookup(context.Background(), outdatedPkg())
	if out.Err != nil {
		t.Fatalf("Outcome.Err = %v", out.Err)
	}
	if out.Source.RepoSlug() != "acme/widget" {
		t.Errorf("Source = %v", out.Source)
	}
	if out.Notes == nil || out.Notes.Body != "fixes" {
		t.Errorf("Notes = %+v", out.Notes)
	}
	if !out.ReleasedAt.Equal(published) {
		t.Errorf("ReleasedAt = %v, want %v", out.ReleasedAt, published)
	}
	if render.Classify(out) != render.StateNotes {
		t.Errorf("Classify = %v, want StateNotes", render.Classify(out))
	}
}

func TestLookup_UpToDateSkipsEverything(t *testing.T) {
	meta := &stubMetadata{err: errors.New(errors.ErrCodeInternal, "must not be called")}
	r := &Runner{Metadata: meta, Resolver: resolve.New(resolve.Options{})}

	out := r.Lookup(context.Background(), brew.Package{
		Name: "widget", InstalledVersion: "1.0", CurrentVersion: "1.0",
	})
	if out.Err != nil {
		t.Errorf("Outcome.Err = %v", out.Err)
	}
	if render.Classify(out) != render.StateUpToDate {
		t.Errorf("Classify = %v, want StateUpToDate", render.Classify(out))
	}
}

func TestLookup_MetadataFailure(t *testing.T) {
	r := &Runner{
		Metadata: &stubMetadata{err: errors.New(errors.ErrCodeExhausted, "gave up")},
		Resolver: resolve.New(resolve.Options{}),
	}

	out := r.Lookup(context.Background(), outdatedPkg())
	if !errors.Is(out.Err, errors.ErrCodeTaskFailed) {
		t.Errorf("Outcome.Err = %v, want TASK_FAILED", out.Err)
	}
}

func TestLookup_NoNotesIsNotFailure(t *testing.T) {
	r := &Runner{
		Metadata: &stubMetadata{meta: &brew.Metadata{
			Name:     "widget",
			Homepage: "https://github.com/acme/widget",
		}},
		Resolver: resolve.New(resolve.Options{}),
		Notes:    &stubNotes{err: errors.New(errors.ErrCodeReleaseNotFound, "nothing")},
	}

	out := r.Lookup(context.Background(), outdatedPkg())
	if out.Err != nil {
		t.Fatalf("Outcome.Err = %v, want nil", out.Err)
	}
	if render.Classify(out) != render.StateNoNotes {
		t.Errorf("Classify = %v, want StateNoNotes", render.Classify(out))
	}
}

func TestLookup_GenericSourceSkipsNotes(t *testing.T) {
	notes := &stubNotes{notes: &github.Notes{Body: "x"}}
	r := &Runner{
		Metadata: &stubMetadata{meta: &brew.Metadata{
			Name:     "widget",
			Homepage: "https://widget.example.org",
		}},
		Resolver: resolve.New(resolve.Options{}),
		Notes:    notes,
	}

	out := r.Lookup(context.Background(), outdatedPkg())
	if out.Source.Kind != resolve.KindGeneric {
		t.Fatalf("Source = %v", out.Source)
	}
	if notes.calls != 0 {
		t.Errorf("notes calls = %d, want 0 for a non-GitHub source", notes.calls)
	}
}

func TestLookup_HybridUsesRegistryTimestamp(t *testing.T) {
	registryTime := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r := &Runner{
		Metadata: &stubMetadata{meta: &brew.Metadata{
			Name:      "widget",
			Homepage:  "https://github.com/acme/widget",
			SourceURL: "https://files.pythonhosted.org/packages/source/w/widget/widget-2.0.tar.gz",
		}},
		Resolver:   resolve.New(resolve.Options{}),
		Notes:      &stubNotes{notes: &github.Notes{Body: "fixes", PublishedAt: time.Now()}},
		Timestamps: &stubTimestamps{t: registryTime},
	}

	out := r.Lookup(context.Background(), outdatedPkg())
	if !out.Source.IsHybrid() {
		t.Fatalf("Source = %v, want hybrid", out.Source)
	}
	if !out.ReleasedAt.Equal(registryTime) {
		t.Errorf("ReleasedAt = %v, want registry time %v", out.ReleasedAt, registryTime)
	}
}
