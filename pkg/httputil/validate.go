// Package httputil provides the low-level HTTP plumbing shared by the fetch
// client: URL validation against a host allow-list, bounded retry with
// jittered backoff, and transport error classification.
package httputil

import (
	"net/url"
	"strings"
	"unicode"

	"relnotes/pkg/errors"
)

// AllowedHosts is the fixed set of upstream domains relnotes will talk to.
// A URL is accepted when its host matches an entry exactly or is a subdomain
// of one. Everything else is rejected before any network I/O.
var AllowedHosts = []string{
	"api.github.com",
	"github.com",
	"raw.githubusercontent.com",
	"objects.githubusercontent.com",
	"formulae.brew.sh",
	"pypi.org",
	"files.pythonhosted.org",
}

// ValidateURL checks that rawURL is safe to fetch. It enforces:
//   - http or https scheme only (script:, data:, file: all rejected)
//   - no control characters, whitespace, or CR/LF injection sequences
//   - host present and on [AllowedHosts] (exact or subdomain match)
//
// Violations return an error with code INVALID_URL and must fail fast:
// callers perform zero network calls for invalid URLs.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New(errors.ErrCodeInvalidURL, "URL cannot be empty")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) || r == ' ' {
			return errors.New(errors.ErrCodeInvalidURL, "URL contains control characters or whitespace")
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidURL, err, "malformed URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(errors.ErrCodeInvalidURL, "URL must use http or https scheme, got %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return errors.New(errors.ErrCodeInvalidURL, "URL has no host")
	}
	if !HostAllowed(host) {
		return errors.New(errors.ErrCodeInvalidURL, "host %q is not on the allow-list", host)
	}

	return nil
}

// HostAllowed reports whether host matches the allow-list exactly or as a
// subdomain of an allowed entry.
func HostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range AllowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
