package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches QTI identifiers: an NCName-like token that starts
// with a letter or underscore and continues with letters, digits, '.', '-'
// or '_'.
var identifierRegex = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_.\-]*$`)

// ValidateIdentifier validates a QTI identifier.
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "identifier cannot be empty")
	}
	if !identifierRegex.MatchString(id) {
		return New(ErrCodeInvalidIdentifier, "invalid identifier: %q", id)
	}
	return nil
}

// ValidateURI validates a URI attribute value.
// Relative references are accepted; control characters and spaces are not.
func ValidateURI(raw string) error {
	for _, r := range raw {
		if unicode.IsControl(r) || r == ' ' {
			return New(ErrCodeInvalidURI, "URI contains invalid characters: %q", raw)
		}
	}
	if _, err := url.Parse(raw); err != nil {
		return Wrap(ErrCodeInvalidURI, err, "invalid URI: %q", raw)
	}
	return nil
}

// ValidatePath validates a local file path given on the command line or to
// the document driver.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateDocumentID validates a document identifier used by the HTTP API.
// IDs are opaque but must not contain path separators.
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "document id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "document id too long (max 64 characters)")
	}
	if strings.ContainsAny(id, "/\\.") {
		return New(ErrCodeInvalidInput, "document id contains invalid characters")
	}
	return nil
}
