package brew

import (
	"context"
	"fmt"

	"relnotes/pkg/errors"
	"relnotes/pkg/resolve"
	"relnotes/pkg/upstream"
)

// Metadata is the formulae.brew.sh view of one package: the URLs the
// resolver works from plus the current stable version.
type Metadata struct {
	Name      string
	Homepage  string
	SourceURL string
	Version   string
}

// Candidates converts the metadata into resolver input.
func (m Metadata) Candidates() resolve.Candidates {
	return resolve.Candidates{
		Name:      m.Name,
		SourceURL: m.SourceURL,
		Homepage:  m.Homepage,
	}
}

// Client provides access to the formulae.brew.sh metadata API.
type Client struct {
	fetcher upstream.Fetcher
	baseURL string
}

// NewClient creates a formulae.brew.sh client on the given fetcher.
func NewClient(fetcher upstream.Fetcher) *Client {
	return &Client{fetcher: fetcher, baseURL: "https://formulae.brew.sh/api"}
}

// Metadata fetches a package's metadata from the endpoint matching its kind.
func (c *Client) Metadata(ctx context.Context, name string, kind PackageKind) (*Metadata, error) {
	if kind == KindCask {
		return c.cask(ctx, name)
	}
	return c.formula(ctx, name)
}

type formulaResponse struct {
	Name     string `json:"name"`
	Homepage string `json:"homepage"`
	URLs     struct {
		Stable struct {
			URL string `json:"url"`
		} `json:"stable"`
	} `json:"urls"`
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
}

func (c *Client) formula(ctx context.Context, name string) (*Metadata, error) {
	var resp formulaResponse
	url := fmt.Sprintf("%s/formula/%s.json", c.baseURL, name)
	if err := c.fetcher.FetchJSON(ctx, url, &resp); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodePackageNotFound, err, "unknown formula %s", name)
		}
		return nil, err
	}
	return &Metadata{
		Name:      resp.Name,
		Homepage:  resp.Homepage,
		SourceURL: resp.URLs.Stable.URL,
		Version:   resp.Versions.Stable,
	}, nil
}

type caskResponse struct {
	Token    string `json:"token"`
	Homepage string `json:"homepage"`
	URL      string `json:"url"`
	Version  string `json:"version"`
}

func (c *Client) cask(ctx context.Context, token string) (*Metadata, error) {
	var resp caskResponse
	url := fmt.Sprintf("%s/cask/%s.json", c.baseURL, token)
	if err := c.fetcher.FetchJSON(ctx, url, &resp); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodePackageNotFound, err, "unknown cask %s", token)
		}
		return nil, err
	}
	return &Metadata{
		Name:      resp.Token,
		Homepage:  resp.Homepage,
		SourceURL: resp.URL,
		Version:   resp.Version,
	}, nil
}
