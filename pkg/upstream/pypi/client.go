// Package pypi wraps the PyPI JSON API for release timestamps. In the
// hybrid resolution case the registry supplies the authoritative release
// date while the code host supplies the notes.
package pypi

import (
	"context"
	"fmt"
	"time"

	"relnotes/pkg/errors"
	"relnotes/pkg/upstream"
)

// Client provides access to the PyPI JSON API.
type Client struct {
	fetcher upstream.Fetcher
	baseURL string
}

// NewClient creates a PyPI client on the given fetcher.
func NewClient(fetcher upstream.Fetcher) *Client {
	return &Client{fetcher: fetcher, baseURL: "https://pypi.org/pypi"}
}

type versionResponse struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
	URLs []struct {
		UploadTime time.Time `json:"upload_time_iso_8601"`
	} `json:"urls"`
}

// ReleaseTime returns when a specific version of a project was uploaded to
// the registry. The earliest upload among the version's files counts as the
// release time.
func (c *Client) ReleaseTime(ctx context.Context, project, version string) (time.Time, error) {
	name := upstream.NormalizeName(project)
	url := fmt.Sprintf("%s/%s/%s/json", c.baseURL, name, version)

	var resp versionResponse
	if err := c.fetcher.FetchJSON(ctx, url, &resp); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return time.Time{}, errors.Wrap(errors.ErrCodeReleaseNotFound, err, "pypi has no %s %s", name, version)
		}
		return time.Time{}, err
	}

	var earliest time.Time
	for _, u := range resp.URLs {
		if u.UploadTime.IsZero() {
			continue
		}
		if earliest.IsZero() || u.UploadTime.Before(earliest) {
			earliest = u.UploadTime
		}
	}
	if earliest.IsZero() {
		return time.Time{}, errors.New(errors.ErrCodeReleaseNotFound, "pypi %s %s has no uploaded files", name, version)
	}
	return earliest, nil
}
