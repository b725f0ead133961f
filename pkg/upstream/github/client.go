// Package github wraps the pieces of the GitHub REST API the changelog
// lookup needs: releases, tags, and raw changelog files.
package github

import (
	"context"
	"fmt"
	"time"

	"relnotes/pkg/errors"
	"relnotes/pkg/upstream"
)

// Release is a published GitHub release.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Prerelease  bool      `json:"prerelease"`
	Draft       bool      `json:"draft"`
	PublishedAt time.Time `json:"published_at"`
}

// Tag is an entry from the repository tag list.
type Tag struct {
	Name string `json:"name"`
}

// Client provides access to the GitHub API for release and changelog data.
// Caching and retries come from the underlying fetcher.
type Client struct {
	fetcher upstream.Fetcher
	baseURL string
	rawURL  string
}

// NewClient creates a GitHub API client on the given fetcher.
func NewClient(fetcher upstream.Fetcher) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: "https://api.github.com",
		rawURL:  "https://raw.githubusercontent.com",
	}
}

// ReleaseByTag fetches the release published under an exact tag name.
func (c *Client) ReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	var rel Release
	url := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.baseURL, owner, repo, tag)
	if err := c.fetcher.FetchJSON(ctx, url, &rel); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeReleaseNotFound, err, "no release tagged %s in %s/%s", tag, owner, repo)
		}
		return nil, err
	}
	return &rel, nil
}

// LatestRelease fetches the most recent non-prerelease, non-draft release.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	var rel Release
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)
	if err := c.fetcher.FetchJSON(ctx, url, &rel); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeReleaseNotFound, err, "no releases in %s/%s", owner, repo)
		}
		return nil, err
	}
	return &rel, nil
}

// Tags fetches the repository's tag list, newest first.
func (c *Client) Tags(ctx context.Context, owner, repo string) ([]Tag, error) {
	var tags []Tag
	url := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100", c.baseURL, owner, repo)
	if err := c.fetcher.FetchJSON(ctx, url, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// changelogFiles are the raw-file names probed when a repository publishes
// no releases, in order of how commonly they carry real release notes.
var changelogFiles = []string{
	"CHANGELOG.md",
	"CHANGELOG",
	"CHANGES.md",
	"NEWS.md",
	"CHANGELOG.rst",
}

// Changelog probes the repository's default branch for a conventional
// changelog file and returns its raw content and source URL.
func (c *Client) Changelog(ctx context.Context, owner, repo string) (content, url string, err error) {
	for _, name := range changelogFiles {
		u := fmt.Sprintf("%s/%s/%s/HEAD/%s", c.rawURL, owner, repo, name)
		data, ferr := c.fetcher.FetchText(ctx, u)
		if ferr != nil {
			if errors.Is(ferr, errors.ErrCodeNotFound) {
				continue
			}
			return "", "", ferr
		}
		return string(data), fmt.Sprintf("https://github.com/%s/%s/blob/HEAD/%s", owner, repo, name), nil
	}
	return "", "", errors.New(errors.ErrCodeNotFound, "no changelog file in %s/%s", owner, repo)
}
