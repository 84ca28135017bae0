/*
Package hotel provides the base domain model for the night-audit engine.

PURPOSE:
  Defines the entities the closure workflow reads and mutates: guest
  reservations, rooms, payments and the operator checklist. The audit
  and folio packages build on these types; persistence lives behind the
  interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Reservation: a guest stay with status lifecycle and payment markers
  - Room: physical inventory with occupancy state
  - Payment: a recorded guest payment against a reservation
  - ChecklistItem: operator-confirmed precondition for closing a day

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money, never float
  2. Status transitions are explicit methods, not raw field writes
  3. The engine annotates no-shows; it never deletes reservations

SEE ALSO:
  - date.go: business-date value type
  - store.go: persistence and collaborator interfaces
  - folio package: billing ledger derived from reservations
*/
package hotel

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESERVATION
// =============================================================================

type ReservationStatus string

const (
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusCheckedIn  ReservationStatus = "CHECKED_IN"
	StatusCheckedOut ReservationStatus = "CHECKED_OUT"
	StatusNoShow     ReservationStatus = "NO_SHOW"
	StatusCancelled  ReservationStatus = "CANCELLED"
)

// Reservation is a guest stay. Status transitions are driven by
// check-in/out operations and by the audit engine's no-show detection.
// A CANCELLED or CHECKED_OUT reservation is immutable except for the
// no-show penalty annotation.
type Reservation struct {
	ID         string
	GuestName  string
	RoomNumber string
	CheckIn    Date
	CheckOut   Date
	Status     ReservationStatus

	// Contracted total for the whole stay.
	TotalAmount decimal.Decimal

	// Payment markers.
	Paid       bool
	PaidAmount decimal.Decimal
	Payments   []Payment

	// Set by check-in; nil for guests who never arrived.
	CheckedInAt *time.Time

	// No-show annotation, stamped by the audit engine.
	NoShowDate    *Date
	NoShowPenalty decimal.Decimal
}

// Payment is a recorded guest payment against a reservation.
type Payment struct {
	Date   Date
	Amount decimal.Decimal
	Method string
}

// Nights returns the contracted stay length in whole days.
// May be zero or negative for malformed bookings; callers must tolerate it.
func (r Reservation) Nights() int {
	return DaysBetween(r.CheckIn, r.CheckOut)
}

// NightlyRate returns TotalAmount split evenly across the stay.
// A stay of fewer than one night is charged as a single night.
func (r Reservation) NightlyRate() decimal.Decimal {
	nights := r.Nights()
	if nights < 1 {
		nights = 1
	}
	return r.TotalAmount.Div(decimal.NewFromInt(int64(nights)))
}

// OccupiesNight reports whether the stay covers the night of the given
// date: inclusive of check-in, exclusive of check-out.
func (r Reservation) OccupiesNight(date Date) bool {
	return r.CheckIn.BeforeOrEqual(date) && date.Before(r.CheckOut)
}

// OutstandingBalance is the contracted amount not yet covered by payments.
func (r Reservation) OutstandingBalance() decimal.Decimal {
	return r.TotalAmount.Sub(r.PaidAmount)
}

// IsSettled reports whether the guest owes nothing.
func (r Reservation) IsSettled() bool {
	return r.Paid || !r.OutstandingBalance().IsPositive()
}

// RecordedPayments returns the itemized payment list, synthesizing a
// single entry from the paid markers when no itemization was recorded.
func (r Reservation) RecordedPayments() []Payment {
	if len(r.Payments) > 0 {
		return r.Payments
	}
	if r.PaidAmount.IsPositive() {
		return []Payment{{Date: r.CheckOut, Amount: r.PaidAmount, Method: "on-file"}}
	}
	return nil
}

// MarkNoShow annotates the reservation as a no-show detected on the
// given date with the given penalty.
func (r *Reservation) MarkNoShow(detected Date, penalty decimal.Decimal) {
	r.Status = StatusNoShow
	d := detected
	r.NoShowDate = &d
	r.NoShowPenalty = penalty
}

// MarkCheckedOut finalizes the stay.
func (r *Reservation) MarkCheckedOut() {
	r.Status = StatusCheckedOut
}

// =============================================================================
// ROOM
// =============================================================================

type RoomStatus string

const (
	RoomVacant      RoomStatus = "VACANT"
	RoomOccupied    RoomStatus = "OCCUPIED"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

// Room is a sellable unit of inventory.
type Room struct {
	Number string
	Type   string
	Status RoomStatus
	Rate   decimal.Decimal
}

// =============================================================================
// CHECKLIST
// =============================================================================

// ChecklistItem is an operator-confirmed task that must be complete
// before the day it belongs to may close.
type ChecklistItem struct {
	ID    string
	Date  Date
	Label string
	Done  bool
}
