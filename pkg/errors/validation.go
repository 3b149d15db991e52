package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// ValidateParamName validates a request parameter name before it is placed
// into an upstream query string.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 64 characters
//   - Only letters, digits, '_', '-', '.' and the Socrata '$' prefix
func ValidateParamName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "parameter name cannot be empty")
	}

	if len(name) > 64 {
		return New(ErrCodeInvalidInput, "parameter name too long (max 64 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "parameter name contains invalid control characters")
		}
	}

	if !paramNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid parameter name: %q", name)
	}

	return nil
}

var paramNameRegex = regexp.MustCompile(`^\$*[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidateBaseURL validates an upstream base URL override.
//
// Validation rules:
//   - URL cannot be empty
//   - Scheme must be http or https
//   - Host must be present
//   - No query string or fragment (endpoint paths and parameters are appended)
//   - Path must end with '/' so endpoint paths concatenate cleanly
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "base URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidConfig, "base URL must use http or https scheme: %q", rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidConfig, err, "invalid base URL %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidConfig, "base URL has no host: %q", rawURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return New(ErrCodeInvalidConfig, "base URL cannot carry a query or fragment: %q", rawURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		return New(ErrCodeInvalidConfig, "base URL must end with '/': %q", rawURL)
	}

	return nil
}
