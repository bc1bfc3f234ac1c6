package errors

import (
	"strings"
	"unicode"
)

// maxIdentifierLength bounds record identifiers and source names.
const maxIdentifierLength = 256

// ValidateRecordID validates a research record identifier.
//
// Identifiers appear in cache keys, HTTP paths and DOT output, so the rules
// are conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No whitespace
//   - No path separators
//   - Maximum length of 256 characters
func ValidateRecordID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "record id cannot be empty")
	}
	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidInput, "record id too long (max %d characters)", maxIdentifierLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "record id %q contains control characters", id)
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "record id %q contains whitespace", id)
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "record id %q contains path separators", id)
	}
	return nil
}

// ValidateSourceName validates an owning-source identifier. Empty is allowed
// and means the record has no known owner.
func ValidateSourceName(name string) error {
	if len(name) > maxIdentifierLength {
		return New(ErrCodeInvalidInput, "source name too long (max %d characters)", maxIdentifierLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "source name %q contains control characters", name)
		}
	}
	return nil
}

// ValidateURI validates a connection URI against a set of allowed schemes.
func ValidateURI(raw string, schemes ...string) error {
	if raw == "" {
		return New(ErrCodeInvalidConfig, "URI cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(raw, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URI %q must use one of the schemes %s", raw, strings.Join(schemes, ", "))
}
