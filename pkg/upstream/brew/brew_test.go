package brew

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"relnotes/pkg/errors"
)

const outdatedV2 = `{
	"formulae": [
		{"name": "ffmpeg", "installed_versions": ["6.1"], "current_version": "7.0", "pinned": false},
		{"name": "sqlite", "installed_versions": ["3.44.0"], "current_version": "3.45.1", "pinned": true}
	],
	"casks": [
		{"name": "wezterm", "installed_versions": ["20230712"], "current_version": "20240203"}
	]
}`

func TestInventory_Outdated(t *testing.T) {
	inv := NewInventory(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "brew" || strings.Join(args, " ") != "outdated --json=v2" {
			t.Errorf("unexpected command: %s %v", name, args)
		}
		return []byte(outdatedV2), nil
	})

	pkgs, err := inv.Outdated(context.Background())
	if err != nil {
		t.Fatalf("Outdated() error: %v", err)
	}

	// Pinned sqlite is excluded; formulae come before casks.
	if len(pkgs) != 2 {
		t.Fatalf("len(pkgs) = %d, want 2", len(pkgs))
	}
	if pkgs[0].Name != "ffmpeg" || pkgs[0].Kind != KindFormula {
		t.Errorf("pkgs[0] = %+v", pkgs[0])
	}
	if pkgs[0].InstalledVersion != "6.1" || pkgs[0].CurrentVersion != "7.0" {
		t.Errorf("pkgs[0] versions = %+v", pkgs[0])
	}
	if pkgs[1].Name != "wezterm" || pkgs[1].Kind != KindCask {
		t.Errorf("pkgs[1] = %+v", pkgs[1])
	}
}

func TestInventory_BadOutput(t *testing.T) {
	inv := NewInventory(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Error: not logged in"), nil
	})
	if _, err := inv.Outdated(context.Background()); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("error = %v, want INTERNAL_ERROR", err)
	}
}

func TestPackage_HasUpgrade(t *testing.T) {
	tests := []struct {
		name string
		pkg  Package
		want bool
	}{
		{"newer version", Package{InstalledVersion: "1.0", CurrentVersion: "1.1"}, true},
		{"same version rebuild", Package{InstalledVersion: "1.0", CurrentVersion: "1.0"}, false},
		{"unknown current", Package{InstalledVersion: "1.0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pkg.HasUpgrade(); got != tt.want {
				t.Errorf("HasUpgrade() = %v, want %v", got, tt.want)
			}
		})
	}
}

type stubFetcher struct {
	body    string
	err     error
	lastURL string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	s.lastURL = url
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func (s *stubFetcher) FetchText(ctx context.Context, url string) ([]byte, error) {
	return s.Fetch(ctx, url)
}

func (s *stubFetcher) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := s.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func TestClient_FormulaMetadata(t *testing.T) {
	fetcher := &stubFetcher{body: `{
		"name": "ffmpeg",
		"homepage": "https://ffmpeg.org/",
		"urls": {"stable": {"url": "https://ffmpeg.org/releases/ffmpeg-7.0.tar.xz"}},
		"versions": {"stable": "7.0"}
	}`}
	c := NewClient(fetcher)

	m, err := c.Metadata(context.Background(), "ffmpeg", KindFormula)
	if err != nil {
		t.Fatalf("Metadata() error: %v", err)
	}
	if !strings.HasSuffix(fetcher.lastURL, "/api/formula/ffmpeg.json") {
		t.Errorf("request URL = %q", fetcher.lastURL)
	}
	if m.Homepage != "https://ffmpeg.org/" || m.Version != "7.0" {
		t.Errorf("Metadata() = %+v", m)
	}
	if m.SourceURL != "https://ffmpeg.org/releases/ffmpeg-7.0.tar.xz" {
		t.Errorf("SourceURL = %q", m.SourceURL)
	}

	c2 := m.Candidates()
	if c2.Name != "ffmpeg" || c2.Homepage != m.Homepage || c2.SourceURL != m.SourceURL {
		t.Errorf("Candidates() = %+v", c2)
	}
}

func TestClient_CaskMetadata(t *testing.T) {
	fetcher := &stubFetcher{body: `{
		"token": "wezterm",
		"homepage": "https://wezterm.org/",
		"url": "https://github.com/wezterm/wezterm/releases/download/20240203/WezTerm.zip",
		"version": "20240203"
	}`}
	c := NewClient(fetcher)

	m, err := c.Metadata(context.Background(), "wezterm", KindCask)
	if err != nil {
		t.Fatalf("Metadata() error: %v", err)
	}
	if !strings.HasSuffix(fetcher.lastURL, "/api/cask/wezterm.json") {
		t.Errorf("request URL = %q", fetcher.lastURL)
	}
	if m.Name != "wezterm" || m.Version != "20240203" {
		t.Errorf("Metadata() = %+v", m)
	}
}

func TestClient_UnknownFormula(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New(errors.ErrCodeNotFound, "resource not found")}
	c := NewClient(fetcher)

	_, err := c.Metadata(context.Background(), "nope", KindFormula)
	if !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("error = %v, want PACKAGE_NOT_FOUND", err)
	}
}
