/*
errors.go - Centralized error types for the tracking core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Service packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Validation errors - Settings payload fails shape checks
  2. Not-found errors  - Referenced category/entry/replacement missing
  3. Transient errors  - Collaborator call failures (network, storage)
  4. Integrity errors  - Stored value corruption the engine cannot
     safely paper over

PROPAGATION POLICY:
  Read paths favor availability: a transient fetch failure collapses to an
  empty collection so the UI never hard-crashes. Write paths favor
  correctness: create/update/delete failures always propagate. Integrity
  violations are always thrown, never defaulted.

SEE ALSO:
  - tracker/service.go: Applies the propagation policy at action boundaries
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when a settings payload fails shape checks.
	// A rejected write never reaches backup or persist.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced category, entry, or
	// replacement category does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransient is returned for collaborator call failures that might
	// succeed on a later reload (network, storage).
	ErrTransient = errors.New("transient collaborator failure")

	// ErrIntegrity is returned when a stored record's value field is null.
	// This indicates storage corruption and is never silently defaulted.
	ErrIntegrity = errors.New("storage integrity violation")

	// ErrEntryRunning is returned when clocking in while an entry is
	// already running for the user.
	ErrEntryRunning = errors.New("entry already running")

	// ErrNoRunningEntry is returned when clocking out with nothing running.
	ErrNoRunningEntry = errors.New("no running entry")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a single rejected settings field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid settings: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IntegrityError identifies the corrupted stored record.
type IntegrityError struct {
	Category string
	ValueID  int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("null value for record %d in category %q", e.ValueID, e.Category)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// NotFoundError identifies what was looked up and missed.
type NotFoundError struct {
	Kind string // "category", "entry", "backup", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEntryRunning) ||
		errors.Is(err, ErrNoRunningEntry)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if a reload might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
