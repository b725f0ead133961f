package github

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"relnotes/pkg/errors"
)

// NotesSource identifies which rung of the lookup ladder produced the notes.
type NotesSource string

const (
	SourceRelease   NotesSource = "release"   // release body for the version's tag
	SourceLatest    NotesSource = "latest"    // latest release, tag did not match
	SourceTag       NotesSource = "tag"       // tag exists but has no release
	SourceChangelog NotesSource = "changelog" // raw changelog file probe
)

// Notes is the outcome of the release-notes lookup for one version.
type Notes struct {
	Source      NotesSource
	Tag         string
	Title       string
	Body        string
	URL         string
	PublishedAt time.Time
}

// maxChangelogExcerpt bounds how much of a raw changelog file is carried
// into the notes body.
const maxChangelogExcerpt = 4000

// Notes resolves release notes for a version by walking a ladder of
// increasingly loose lookups:
//
//  1. release published under the version's exact tag, trying the common
//     tag spellings (bare, v-prefixed, release- prefixed)
//  2. the latest release, when its tag matches the version loosely
//  3. a bare tag with no release attached
//  4. a conventional changelog file on the default branch
//
// Each rung falls through only on a not-found outcome; transport failures
// surface immediately so the caller can distinguish "no notes exist" from
// "could not look".
func (c *Client) Notes(ctx context.Context, owner, repo, version string) (*Notes, error) {
	for _, tag := range tagSpellings(version) {
		rel, err := c.ReleaseByTag(ctx, owner, repo, tag)
		if err == nil {
			return releaseNotes(SourceRelease, rel), nil
		}
		if !errors.Is(err, errors.ErrCodeReleaseNotFound) {
			return nil, err
		}
	}

	rel, err := c.LatestRelease(ctx, owner, repo)
	if err == nil && tagMatchesVersion(rel.TagName, version) {
		return releaseNotes(SourceLatest, rel), nil
	}
	if err != nil && !errors.Is(err, errors.ErrCodeReleaseNotFound) {
		return nil, err
	}

	if tag, found, err := c.findTag(ctx, owner, repo, version); err != nil {
		return nil, err
	} else if found {
		return &Notes{
			Source: SourceTag,
			Tag:    tag,
			URL:    "https://github.com/" + owner + "/" + repo + "/releases/tag/" + tag,
		}, nil
	}

	content, url, err := c.Changelog(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.New(errors.ErrCodeReleaseNotFound, "no release notes for %s/%s %s", owner, repo, version)
		}
		return nil, err
	}
	content = truncateExcerpt(content, maxChangelogExcerpt)
	return &Notes{Source: SourceChangelog, Body: content, URL: url}, nil
}

// truncateExcerpt cuts s to at most limit bytes without splitting a UTF-8
// sequence, backing up past any continuation bytes at the cut point.
func truncateExcerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (c *Client) findTag(ctx context.Context, owner, repo, version string) (string, bool, error) {
	tags, err := c.Tags(ctx, owner, repo)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	want := make(map[string]bool)
	for _, t := range tagSpellings(version) {
		want[t] = true
	}
	for _, t := range tags {
		if want[t.Name] {
			return t.Name, true, nil
		}
	}
	return "", false, nil
}

// tagSpellings lists the tag names a version is commonly published under,
// most conventional first. The bare and v-prefixed forms cover the vast
// majority of repositories.
func tagSpellings(version string) []string {
	bare := strings.TrimPrefix(version, "v")
	spellings := []string{bare, "v" + bare, "release-" + bare}
	if version != bare && version != "v"+bare {
		spellings = append(spellings, version)
	}
	return spellings
}

// tagMatchesVersion reports whether a release tag names the given version
// under any common spelling.
func tagMatchesVersion(tag, version string) bool {
	for _, s := range tagSpellings(version) {
		if tag == s {
			return true
		}
	}
	return false
}

func releaseNotes(src NotesSource, rel *Release) *Notes {
	title := rel.Name
	if title == "" {
		title = rel.TagName
	}
	return &Notes{
		Source:      src,
		Tag:         rel.TagName,
		Title:       title,
		Body:        rel.Body,
		URL:         rel.HTMLURL,
		PublishedAt: rel.PublishedAt,
	}
}
