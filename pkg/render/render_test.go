package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"relnotes/pkg/errors"
	"relnotes/pkg/resolve"
	"relnotes/pkg/upstream/brew"
	"relnotes/pkg/upstream/github"
)

func outdated(name string) brew.Package {
	return brew.Package{Name: name, InstalledVersion: "1.0", CurrentVersion: "2.0"}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		o    Outcome
		want State
	}{
		{
			"error wins",
			Outcome{Package: outdated("x"), Err: errors.New(errors.ErrCodeTaskFailed, "boom")},
			StateError,
		},
		{
			"no new version",
			Outcome{Package: brew.Package{Name: "x", InstalledVersion: "1.0", CurrentVersion: "1.0"}},
			StateUpToDate,
		},
		{
			"notes present",
			Outcome{Package: outdated("x"), Notes: &github.Notes{Body: "fixes"}},
			StateNotes,
		},
		{
			"empty notes body counts as none",
			Outcome{Package: outdated("x"), Notes: &github.Notes{Tag: "v2.0"}},
			StateNoNotes,
		},
		{
			"nil notes",
			Outcome{Package: outdated("x")},
			StateNoNotes,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.o); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRender_Notes(t *testing.T) {
	r := New(false)
	out := r.Render(Outcome{
		Package: outdated("widget"),
		Source:  resolve.GitHub("acme", "widget"),
		Notes: &github.Notes{
			Source: github.SourceRelease,
			Tag:    "v2.0",
			Title:  "Widget 2.0",
			Body:   "- faster\n- smaller",
			URL:    "https://github.com/acme/widget/releases/tag/v2.0",
		},
		ReleasedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"widget",
		"1.0 → 2.0",
		"released 2024-06-01",
		"Widget 2.0",
		"- faster",
		"https://github.com/acme/widget/releases/tag/v2.0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_UpToDateIsEmpty(t *testing.T) {
	r := New(false)
	out := r.Render(Outcome{
		Package: brew.Package{Name: "x", InstalledVersion: "1.0", CurrentVersion: "1.0"},
	})
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
}

func TestRender_LearnMoreFallback(t *testing.T) {
	r := New(false)
	out := r.Render(Outcome{
		Package: outdated("obscure"),
		Source:  resolve.Generic("https://obscure.example.net/about"),
	})
	if !strings.Contains(out, "learn more at") || !strings.Contains(out, "https://obscure.example.net") {
		t.Errorf("output = %q", out)
	}
}

func TestRender_NoNotesGitHub(t *testing.T) {
	r := New(false)
	out := r.Render(Outcome{
		Package: outdated("widget"),
		Source:  resolve.GitHub("acme", "widget"),
	})
	if !strings.Contains(out, "no release notes found") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "https://github.com/acme/widget/releases") {
		t.Errorf("output = %q", out)
	}
}

func TestRender_Error(t *testing.T) {
	r := New(false)
	out := r.Render(Outcome{
		Package: outdated("broken"),
		Err:     errors.New(errors.ErrCodeTaskFailed, "boom"),
	})
	if !strings.Contains(out, "failed to process broken") {
		t.Errorf("output = %q", out)
	}
}

func TestRender_LongBodyTruncated(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&body, "line %d\n", i)
	}
	r := New(false)
	out := r.Render(Outcome{
		Package: outdated("widget"),
		Source:  resolve.GitHub("acme", "widget"),
		Notes:   &github.Notes{Body: body.String()},
	})
	if strings.Contains(out, "line 99") {
		t.Error("body was not truncated")
	}
	if !strings.Contains(out, "line 10") {
		t.Errorf("truncation removed too much:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	r := New(false)

	tests := []struct {
		name  string
		tally Tally
		wants []string
	}{
		{
			"empty run",
			Tally{},
			[]string{"everything up to date"},
		},
		{
			"mixed",
			Tally{Notes: 3, NoNotes: 2, UpToDate: 1, Failed: 1},
			[]string{
				"7 packages",
				"3 with release notes",
				"2 with a new version but no notes found",
				"1 with no new version",
				"1 failed",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Summary(tt.tally)
			for _, want := range tt.wants {
				if !strings.Contains(out, want) {
					t.Errorf("Summary() missing %q: %q", want, out)
				}
			}
		})
	}
}

func TestTally_Add(t *testing.T) {
	var tally Tally
	tally.Add(Outcome{Package: outdated("a"), Notes: &github.Notes{Body: "x"}})
	tally.Add(Outcome{Package: outdated("b")})
	tally.Add(Outcome{Package: outdated("c"), Err: errors.New(errors.ErrCodeTaskFailed, "boom")})
	tally.Add(Outcome{Package: brew.Package{Name: "d", InstalledVersion: "1", CurrentVersion: "1"}})

	if tally.Notes != 1 || tally.NoNotes != 1 || tally.Failed != 1 || tally.UpToDate != 1 {
		t.Errorf("Tally = %+v", tally)
	}
	if tally.Total() != 4 {
		t.Errorf("Total() = %d, want 4", tally.Total())
	}
}
