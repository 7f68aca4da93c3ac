package generic

import (
	"strings"
	"time"
)

// =============================================================================
// DATES - Parsing and storage format
// =============================================================================

const (
	// DateLayout is the plain calendar date accepted from clients.
	DateLayout = "2006-01-02"

	// StorageLayout is how timestamps are written to the database. Fixed
	// width in UTC so TEXT ordering matches time ordering.
	StorageLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, Invalid(field, "is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, Invalid(field, "must be a date (YYYY-MM-DD or RFC 3339)")
}

// ParseOptionalDate is ParseDate for fields that may be omitted.
func ParseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatStorage renders t for a TEXT column.
func FormatStorage(t time.Time) string { return t.UTC().Format(StorageLayout) }

// ParseStorage reads a TEXT column written by FormatStorage.
func ParseStorage(s string) time.Time {
	t, _ := time.Parse(StorageLayout, s)
	return t
}
