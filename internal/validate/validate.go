// Package validate holds the input validation and sanitization rules for
// user-supplied text. Validation runs first and rejects bad input;
// Sanitize is applied afterwards to values that passed, never instead.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
	maxHostNameLength    = 50
)

var (
	ErrNameRequired  = errors.New("name is required")
	ErrNameTooLong   = errors.New("name must be 100 characters or fewer")
	ErrNameCharset   = errors.New("name contains invalid characters")
	ErrDescTooLong   = errors.New("description must be 500 characters or fewer")
	ErrDescUnsafe    = errors.New("description contains disallowed content")
	ErrHostNameLong  = errors.New("host name must be 50 characters or fewer")
	ErrHostNameChars = errors.New("host name contains invalid characters")
)

var (
	nameRe = regexp.MustCompile(`^[A-Za-z0-9 \-_'.]+$`)

	// Narrow denylist for descriptions. This is not HTML sanitization;
	// it only blocks the obvious script-injection shapes.
	scriptTagRe   = regexp.MustCompile(`(?i)<script`)
	jsProtocolRe  = regexp.MustCompile(`(?i)javascript:`)
	eventAttrRe   = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script.*?</script>`)
)

// Name validates a required display name: non-blank, at most 100
// characters, letters, digits, spaces and -_'. only.
func Name(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrNameRequired
	}
	if len(s) > maxNameLength {
		return ErrNameTooLong
	}
	if !nameRe.MatchString(s) {
		return ErrNameCharset
	}
	return nil
}

// Description validates an optional free-text description.
func Description(s string) error {
	if s == "" {
		return nil
	}
	if len(s) > maxDescriptionLength {
		return ErrDescTooLong
	}
	if scriptTagRe.MatchString(s) || jsProtocolRe.MatchString(s) || eventAttrRe.MatchString(s) {
		return ErrDescUnsafe
	}
	return nil
}

// HostName validates an optional event host name.
func HostName(s string) error {
	if s == "" {
		return nil
	}
	if len(s) > maxHostNameLength {
		return ErrHostNameLong
	}
	if !nameRe.MatchString(s) {
		return ErrHostNameChars
	}
	return nil
}

// Sanitize strips <script>...</script> blocks and javascript: occurrences
// and trims surrounding whitespace.
func Sanitize(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = jsProtocolRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
