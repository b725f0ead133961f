package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a Homebrew package name for safety and
// correctness. It rejects names that could be used for path traversal or
// shell injection when the name is later interpolated into API URLs.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //)
//   - No null bytes or backslashes
//   - Maximum length of 256 characters
//
// Tap qualifiers ("owner/tap/name") are allowed; each slash-separated
// segment is checked individually.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	for _, segment := range strings.Split(name, "/") {
		if segment == "" {
			return New(ErrCodeInvalidPackage, "package name contains empty path segment")
		}
	}

	return nil
}

// ValidateOwnerRepo validates a GitHub owner/repo pair extracted during
// resolution. Both parts must be non-empty simple path segments.
func ValidateOwnerRepo(owner, repo string) error {
	for _, part := range []string{owner, repo} {
		if part == "" {
			return New(ErrCodeInvalidInput, "owner and repo cannot be empty")
		}
		if strings.ContainsAny(part, "/\\ \t\n") || strings.Contains(part, "..") {
			return New(ErrCodeInvalidInput, "invalid repository component: %q", part)
		}
	}
	return nil
}
