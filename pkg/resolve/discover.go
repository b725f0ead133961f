package resolve

import (
	"context"
	"regexp"
	"strings"
)

// TextFetcher retrieves a URL as raw text. Satisfied by fetch.Client.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) ([]byte, error)
}

// Extraction patterns for GitHub links embedded in homepage content, tried
// in order of structural confidence.
var (
	// href="https://github.com/owner/repo"
	hrefPattern = regexp.MustCompile(`href=["'](https?://github\.com/[^/"']+/[^/"'?#]+)`)

	// "repo": "https://github.com/owner/repo" or any quoted JSON string
	quotedPattern = regexp.MustCompile(`"(https?://github\.com/[^/"]+/[^/"?#]+)"`)

	// bare URL in text or markdown
	barePattern = regexp.MustCompile(`https?://github\.com/[\w.-]+/[\w.-]+`)
)

// Discovery is the opt-in homepage content scan, the lowest-priority
// strategy in the chain. It fetches the package's homepage through the
// caching fetch client, searches the body for an embedded GitHub link, and
// persists successful findings in the mapping store so future runs skip the
// scan entirely.
type Discovery struct {
	fetcher  TextFetcher
	mappings *Mappings
}

// NewDiscovery creates the discovery strategy. The mapping store may be nil,
// in which case findings are not persisted.
func NewDiscovery(fetcher TextFetcher, mappings *Mappings) *Discovery {
	return &Discovery{fetcher: fetcher, mappings: mappings}
}

func (d *Discovery) Name() string { return "homepage-scan" }

// Resolve checks the mapping store first, then scans the homepage body.
func (d *Discovery) Resolve(ctx context.Context, c Candidates) (Source, bool) {
	if d.mappings != nil {
		if slug, ok := d.mappings.Get(c.Name); ok {
			if owner, repo, found := strings.Cut(slug, "/"); found {
				return GitHub(owner, repo), true
			}
		}
	}

	if c.Homepage == "" || d.fetcher == nil {
		return Unresolved, false
	}

	body, err := d.fetcher.FetchText(ctx, c.Homepage)
	if err != nil {
		return Unresolved, false
	}

	owner, repo, ok := scanForGitHub(string(body))
	if !ok {
		return Unresolved, false
	}

	if d.mappings != nil {
		_ = d.mappings.Put(c.Name, owner+"/"+repo)
	}
	return GitHub(owner, repo), true
}

// scanForGitHub tries each extraction pattern in confidence order and
// normalizes the first match to owner/repo.
func scanForGitHub(body string) (owner, repo string, ok bool) {
	for _, re := range []*regexp.Regexp{hrefPattern, quotedPattern, barePattern} {
		for _, m := range re.FindAllStringSubmatch(body, 10) {
			candidate := m[len(m)-1]
			if o, r, found := extractGitHub(candidate); found {
				return o, r, true
			}
		}
	}
	return "", "", false
}
