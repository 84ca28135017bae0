/*
record.go - Seal records, override log and the audit store interface

PURPOSE:
  The NightAuditRecord is the permanent seal for one business date: at
  most one exists per date, it is written exactly once by the
  coordinator, and it is removed only through the override path, which
  first appends a permanent OverrideLogEntry.

STORE CONTRACT:
  - SaveRecord is the single atomic commit point of a closure run.
    Implementations MUST reject a second record for the same date with
    ErrDuplicateRecord, even under concurrent writers.
  - The override log is append-only. No delete exists, by contract.
  - The calendar (opening date, current business date) lives beside the
    records so the gate chain can compute the expected next date.

SEE ALSO:
  - coordinator.go: writes records and advances the business date
  - override.go: the only deletion path for records
*/
package audit

import (
	"context"
	"time"

	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// NIGHT AUDIT RECORD - The permanent seal for one business date
// =============================================================================

type NightAuditRecord struct {
	Date             hotel.Date
	ClosedAt         time.Time
	ClosedBy         string
	Stats            Snapshot
	FoliosGenerated  int
	NoShowsProcessed int
}

// =============================================================================
// OVERRIDE LOG - Permanent trail of administrative reopens
// =============================================================================

const ActionReopenDay = "REOPEN_DAY"

type OverrideLogEntry struct {
	ID        string
	Action    string
	Date      hotel.Date
	Reason    string
	User      string
	Timestamp time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store persists seal records, the override log and the business calendar.
type Store interface {
	// Record returns the seal for a date, or (nil, nil) when none exists.
	Record(ctx context.Context, date hotel.Date) (*NightAuditRecord, error)

	// Records returns all seals ordered by date ascending.
	Records(ctx context.Context) ([]NightAuditRecord, error)

	// SaveRecord writes a seal. Returns ErrDuplicateRecord if one
	// already exists for the date. This is the atomic commit point.
	SaveRecord(ctx context.Context, rec NightAuditRecord) error

	// DeleteRecord removes a seal. Only the override manager calls this.
	DeleteRecord(ctx context.Context, date hotel.Date) error

	// LastClosed returns the latest sealed date, or nil when none exist.
	LastClosed(ctx context.Context) (*hotel.Date, error)

	// AppendOverride appends to the permanent override log.
	AppendOverride(ctx context.Context, entry OverrideLogEntry) error

	// Overrides returns the override log, oldest first.
	Overrides(ctx context.Context) ([]OverrideLogEntry, error)

	// OpeningDate is the first operational day; the expected close date
	// when no seal exists yet.
	OpeningDate(ctx context.Context) (hotel.Date, error)

	// BusinessDate is the day currently operating.
	BusinessDate(ctx context.Context) (hotel.Date, error)

	// SetBusinessDate advances the operating day.
	SetBusinessDate(ctx context.Context, date hotel.Date) error
}

// ExpectedNext computes the only date the chain will accept for closure:
// the day after the last seal, or the opening date when nothing has been
// sealed yet.
func ExpectedNext(ctx context.Context, store Store) (hotel.Date, error) {
	last, err := store.LastClosed(ctx)
	if err != nil {
		return hotel.Date{}, err
	}
	if last != nil {
		return last.Next(), nil
	}
	return store.OpeningDate(ctx)
}
