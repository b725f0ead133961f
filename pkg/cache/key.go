package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Normalize maps a raw URL to its canonical form so that equivalent URLs
// produce identical cache keys. Normalization is total: inputs that fail to
// parse are returned trimmed but otherwise unchanged, which still yields a
// deterministic key.
//
// Applied transformations:
//   - scheme and host lowercased
//   - default ports (:80 for http, :443 for https) stripped
//   - fragment dropped
//   - trailing slash removed from non-root paths
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return s
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}

// Key derives the cache key for a URL: the SHA-256 of its normalized form,
// as a 64-character hex string. Hex keys are safe as filenames and free of
// collisions across namespaces.
func Key(rawURL string) string {
	return Hash([]byte(Normalize(rawURL)))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
