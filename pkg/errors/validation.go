package errors

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Limits applied to values the client sends to the backend.
const (
	MaxVertexNameLength = 256
	MaxCodeLength       = 1 << 20
)

// ValidateVertexID validates an identifier assigned by the backend.
// Identifiers are opaque: any non-empty UTF-8 string is accepted, and
// callers escape it before placing it in a URL path.
func ValidateVertexID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "vertex id cannot be empty")
	}
	if !utf8.ValidString(id) {
		return New(ErrCodeInvalidInput, "vertex id is not valid UTF-8")
	}
	return nil
}

// ValidateText checks backend-owned text such as names and code, which is
// accepted as long as it is valid UTF-8.
func ValidateText(field, s string) error {
	if !utf8.ValidString(s) {
		return New(ErrCodeInvalidInput, "%s is not valid UTF-8", field)
	}
	return nil
}

// ValidateVertexName validates a display name sent in rename and create
// requests. Empty names are allowed on create (the backend picks one) but
// rejected on rename, so callers pass allowEmpty accordingly.
func ValidateVertexName(name string, allowEmpty bool) error {
	if name == "" {
		if allowEmpty {
			return nil
		}
		return New(ErrCodeInvalidInput, "vertex name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return New(ErrCodeInvalidInput, "vertex name is not valid UTF-8")
	}
	if len(name) > MaxVertexNameLength {
		return New(ErrCodeInvalidInput, "vertex name too long (max %d characters)", MaxVertexNameLength)
	}
	for _, r := range name {
		if r == '\n' || r == '\r' || r == '\x00' {
			return New(ErrCodeInvalidInput, "vertex name must be a single line")
		}
	}
	return nil
}

// ValidateCode validates vertex source text. Its semantics belong to the
// backend runtime; only size and encoding are checked here.
func ValidateCode(code string) error {
	if len(code) > MaxCodeLength {
		return New(ErrCodeInvalidInput, "vertex code too large (max %d bytes)", MaxCodeLength)
	}
	if !utf8.ValidString(code) {
		return New(ErrCodeInvalidInput, "vertex code is not valid UTF-8")
	}
	return nil
}

// ValidateURL validates a backend URL. schemes lists the accepted schemes;
// when empty, http and https are accepted.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return New(ErrCodeInvalidInput, "URL %q has no host", rawURL)
			}
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of %s scheme", strings.Join(schemes, ", "))
}
