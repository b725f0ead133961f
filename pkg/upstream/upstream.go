// Package upstream holds the shared pieces of the release-metadata API
// clients. Each subpackage wraps one upstream API (github, pypi, brew) on
// top of the caching fetch client.
package upstream

import (
	"context"
	"strings"

	"relnotes/pkg/fetch"
)

// Fetcher is the transport the API clients run on. Satisfied by
// fetch.Client; tests substitute a stub.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchText(ctx context.Context, url string) ([]byte, error)
	FetchJSON(ctx context.Context, url string, v any) error
}

var _ Fetcher = (*fetch.Client)(nil)

// NormalizeName converts a registry package name to its canonical form
// (lowercase, underscores replaced with hyphens, PEP 503 style).
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}
