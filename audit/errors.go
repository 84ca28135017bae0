/*
errors.go - Centralized error taxonomy for the closure engine

PURPOSE:
  All closure error types in one place. The coordinator surfaces these
  to the operator; callers branch with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - gates failed, operator remediation needed
  2. Concurrency errors - another closure holds the system lock
  3. Sequence errors - non-contiguous date attempted
  4. Persistence errors - seal write failed, safe to retry from IDLE

USAGE:
  var seq *audit.SequenceError
  if errors.As(err, &seq) {
      fmt.Println("expected", seq.Expected)
  }

SEE ALSO:
  - gates.go: produces the issues carried by BlockedError
  - coordinator.go: maps errors onto the state machine
*/
package audit

import (
	"errors"
	"fmt"
	"time"

	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidationBlocked is returned when one or more gates failed.
	// Recoverable by operator action elsewhere, never by immediate retry.
	ErrValidationBlocked = errors.New("closure blocked by validation")

	// ErrLockHeld is returned when another closure is in progress.
	ErrLockHeld = errors.New("night audit already in progress")

	// ErrSequenceViolation is returned for a non-contiguous target date.
	ErrSequenceViolation = errors.New("days must be closed in sequence")

	// ErrAlreadyClosed marks a retry of an already-sealed date. This is
	// an idempotent no-op state, not a failure.
	ErrAlreadyClosed = errors.New("day already closed")

	// ErrPersistence is returned when the audit record write failed.
	// No partial record exists; the attempt is safe to retry.
	ErrPersistence = errors.New("failed to persist audit record")

	// ErrDuplicateRecord is returned by stores when a record for the
	// date already exists. Guarantees at-most-one seal per date.
	ErrDuplicateRecord = errors.New("audit record already exists for date")

	// ErrRecordNotFound is returned when no seal exists for a date.
	ErrRecordNotFound = errors.New("no audit record for date")

	// ErrReasonTooShort is returned when a reopen reason is under 10 characters.
	ErrReasonTooShort = errors.New("override reason must be at least 10 characters")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// LockHeldError surfaces who holds the system lock and since when,
// so the operator sees the blocker instead of a bare failure.
type LockHeldError struct {
	Holder string
	Reason string
	Since  time.Time
}

func (e *LockHeldError) Error() string {
	return fmt.Sprintf("night audit in progress: held by %s since %s (%s)",
		e.Holder, e.Since.Format(time.RFC3339), e.Reason)
}

func (e *LockHeldError) Unwrap() error { return ErrLockHeld }

// SequenceError states which date was attempted and which the chain expects.
type SequenceError struct {
	Attempted hotel.Date
	Expected  hotel.Date
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("cannot close %s: expected next date is %s", e.Attempted, e.Expected)
}

func (e *SequenceError) Unwrap() error { return ErrSequenceViolation }

// BlockedError carries the complete issue list from a failed gate chain.
type BlockedError struct {
	Date   hotel.Date
	Issues []Issue
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("cannot close %s: %d blocking issue(s)", e.Date, len(e.Issues))
}

func (e *BlockedError) Unwrap() error { return ErrValidationBlocked }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the same request might succeed later
// without operator remediation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockHeld) || errors.Is(err, ErrPersistence)
}

// IsClientError returns true if the error is due to the operator's
// request rather than an engine failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidationBlocked) ||
		errors.Is(err, ErrSequenceViolation) ||
		errors.Is(err, ErrReasonTooShort) ||
		errors.Is(err, ErrRecordNotFound)
}
