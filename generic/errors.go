/*
errors.go - Centralized error types shared by all domains

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these (wrapped with context where useful) and the
  API layer maps them onto HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors - malformed, missing or out-of-range input (400)
  2. Authentication errors - missing/invalid session, wrong PIN (401)
  3. Not found - entity absent OR owned by someone else (404)
  4. Everything else - store failures, constraint violations (500)

NOT FOUND vs FORBIDDEN:
  An entity owned by another user is reported exactly like a missing one.
  Callers must never be able to tell the two apart.

USAGE:
    if errors.Is(err, generic.ErrNotFound) {
        // 404
    }
    var verr *generic.ValidationError
    if errors.As(err, &verr) {
        // 400 with verr.Error()
    }

SEE ALSO:
  - api/handlers.go: writeDomainError maps these to responses
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when an entity does not exist or is not
	// reachable from the acting user through the ownership chain.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when no acting user can be resolved.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrWrongPIN is returned when a known handle is used with another PIN.
	ErrWrongPIN = errors.New("wrong PIN")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsNotFound returns true if the error indicates a missing or foreign entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to the caller, not the system.
func IsClientError(err error) bool {
	return IsValidation(err) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrWrongPIN)
}
