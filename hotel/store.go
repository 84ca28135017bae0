/*
store.go - Persistence and collaborator interfaces for the hotel domain

PURPOSE:
  Defines the boundary between the audit engine and whatever holds the
  records. The original system threaded state through ad-hoc key-value
  reads; here every consumer receives explicit store interfaces so the
  coordinator can be wired against SQLite in production and in-memory
  doubles in tests.

KEY INTERFACES:
  ReservationStore: read/write guest stays
  RoomStore:        read/write room occupancy state
  ChecklistStore:   operator checklist per business date
  ShiftService:     external cashier-shift collaborator (read-only here)

IMPLEMENTATIONS:
  - store/memory:  in-memory, for tests and dev mode
  - store/sqlite:  production SQLite store

SEE ALSO:
  - folio package: folio.Store for billing ledgers
  - audit package: audit.Store for seal records and the override log
*/
package hotel

import "context"

// =============================================================================
// STORES
// =============================================================================

// ReservationStore persists guest stays.
type ReservationStore interface {
	// Reservation returns a stay by ID, or ErrNotFound-compatible error.
	Reservation(ctx context.Context, id string) (*Reservation, error)

	// Reservations returns every stay in the store.
	Reservations(ctx context.Context) ([]Reservation, error)

	// SaveReservation inserts or replaces a stay.
	SaveReservation(ctx context.Context, r Reservation) error
}

// RoomStore persists room inventory and occupancy state.
type RoomStore interface {
	Rooms(ctx context.Context) ([]Room, error)
	Room(ctx context.Context, number string) (*Room, error)
	SetRoomStatus(ctx context.Context, number string, status RoomStatus) error
}

// ChecklistStore persists the per-date operator checklist.
type ChecklistStore interface {
	ChecklistItems(ctx context.Context, date Date) ([]ChecklistItem, error)
	SaveChecklistItem(ctx context.Context, item ChecklistItem) error
	CompleteChecklistItem(ctx context.Context, id string) error
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// ShiftService reports whether a cash-drawer shift is open for the
// business day. The point-of-sale module owns shift lifecycle; the
// audit engine only reads it as a closure precondition.
type ShiftService interface {
	ShiftOpen(ctx context.Context, date Date) (bool, error)
}

// ShiftServiceFunc adapts a function to ShiftService.
type ShiftServiceFunc func(ctx context.Context, date Date) (bool, error)

func (f ShiftServiceFunc) ShiftOpen(ctx context.Context, date Date) (bool, error) {
	return f(ctx, date)
}

// NoOpenShifts is the collaborator default when no point-of-sale module
// is attached: every shift is considered closed.
var NoOpenShifts ShiftService = ShiftServiceFunc(
	func(context.Context, Date) (bool, error) { return false, nil },
)
