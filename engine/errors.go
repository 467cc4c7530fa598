/*
errors.go - Centralized error types for the engine

ERROR CATEGORIES:
  1. Goal lookup errors - no goal record anywhere in history
  2. Range errors - end before begin, bad day offset, store ordering violations
  3. Write errors - invalid records, duplicate intake ids, unknown ids
  4. Store errors - passed through untouched from the Store implementation

USAGE:
  amounts, err := eng.GoalAmounts(ctx, begin, end)
  if errors.Is(err, engine.ErrNoGoalData) {
      // ask the user to set a goal first
  }

SEE ALSO:
  - goal.go: Returns NoGoalDataError
  - bucket.go: Returns RangeError
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoGoalData is returned when a goal query covers a date and no goal
	// record exists before or after it.
	ErrNoGoalData = errors.New("no goal data")

	// ErrInvalidRange is returned when a range is malformed (end before begin)
	// or the store returns records that break the range contract.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNotFound is returned by stores when deleting a record that doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID is returned by stores when an intake ID is already taken.
	ErrDuplicateID = errors.New("duplicate intake id")

	// ErrInvalidRecord is returned when a record fails validation before a write.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrStoreContract is returned alongside ErrInvalidRange when the store
	// hands back records out of order or outside the requested range.
	ErrStoreContract = errors.New("store broke its ordering contract")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoGoalDataError names the first date that could not be resolved.
type NoGoalDataError struct {
	Date time.Time
}

func (e *NoGoalDataError) Error() string {
	return fmt.Sprintf("no goal data for %s: goal history is empty", e.Date.Format(DateLayout))
}

func (e *NoGoalDataError) Unwrap() error {
	return ErrNoGoalData
}

// RangeError describes why a range was rejected. FromStore marks ranges
// broken by the store's results rather than by the caller's arguments.
type RangeError struct {
	Begin     time.Time
	End       time.Time
	Reason    string
	FromStore bool
}

func (e *RangeError) Error() string {
	if e.Begin.IsZero() && e.End.IsZero() {
		return "invalid range: " + e.Reason
	}
	return fmt.Sprintf("invalid range [%s, %s): %s",
		e.Begin.Format(time.RFC3339), e.End.Format(time.RFC3339), e.Reason)
}

func (e *RangeError) Unwrap() []error {
	if e.FromStore {
		return []error{ErrInvalidRange, ErrStoreContract}
	}
	return []error{ErrInvalidRange}
}

// ValidationError names the offending field of a rejected record.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
// A store contract violation is never the client's fault.
func IsClientError(err error) bool {
	if errors.Is(err, ErrStoreContract) {
		return false
	}
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidRecord)
}

// IsConflict returns true if a write collided with an existing record.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}

// IsNotFound returns true if the error indicates missing data.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoGoalData) ||
		errors.Is(err, ErrNotFound)
}
