/*
errors.go - Centralized error types for the pension engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Services wrap these errors with context; the API layer maps them to
  HTTP status codes with the helpers at the bottom of this file.

ERROR CATEGORIES:
  1. Lookup errors     - record does not exist (NotFound)
  2. Validation errors - malformed input or broken invariant
  3. State errors      - forbidden status transition, wrong case-file kind
  4. Access errors     - caller does not own the case file

NOTE:
  The calculation engine itself never fails on validated data: an empty
  case file yields a zero result, not an error.

SEE ALSO:
  - validate.go: produces ValidationError
  - status.go: produces TransitionError
  - api/handlers.go: statusForError mapping
*/
package pension

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input violates a field rule.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when a status change is not allowed
	// from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrForbidden is returned when the caller does not own the case file.
	ErrForbidden = errors.New("access to case file denied")

	// ErrKindMismatch is returned when a record is attached to a case file
	// of the wrong kind (a cotisation period on a career case file).
	ErrKindMismatch = errors.New("case file kind mismatch")

	// ErrUnknownKind is returned when no strategy exists for a case-file kind.
	ErrUnknownKind = errors.New("unknown case file kind")

	// ErrEmptyDocument is returned when an uploaded document has no content.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrDocumentTooLarge is returned when an upload exceeds the size limit.
	ErrDocumentTooLarge = errors.New("document too large")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// TransitionError describes a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move case file from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// KindMismatchError describes an operation attempted on the wrong kind.
type KindMismatchError struct {
	CaseFileID string
	Expected   Kind
	Actual     Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("case file %s is %s, expected %s", e.CaseFileID, e.Actual, e.Expected)
}

func (e *KindMismatchError) Unwrap() error { return ErrKindMismatch }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrDocumentTooLarge) ||
		errors.Is(err, ErrUnknownKind)
}

// IsConflict returns true if the request is valid but not allowed in the
// current state of the case file.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrKindMismatch)
}
