/*
noshow.go - No-show detection and processing

PURPOSE:
  Finds confirmed arrivals for the audit date whose guest never showed
  up, computes the penalty each owes, and - only after an explicit
  operator confirmation - converts them to NO_SHOW and frees their
  rooms. Detection and mutation are strictly separate phases: Detect
  never writes, Apply only writes what Detect found.

PENALTY RULE:
  penalty = contracted amount / nights. A stay of zero or negative
  nights (malformed booking) is charged the full contracted amount;
  there is no division by zero.

SEE ALSO:
  - coordinator.go: runs Detect, asks the Confirmer, then Apply
  - gates.go: pending arrivals in preview mode
*/
package audit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// DETECTION
// =============================================================================

// NoShowCandidate is one guest who never arrived, with the penalty owed.
type NoShowCandidate struct {
	Reservation hotel.Reservation
	Penalty     decimal.Decimal
}

// NoShowSummary is the operator-facing confirmation prompt: how many
// guests, how much in total, and the itemized list.
type NoShowSummary struct {
	Date         hotel.Date
	Guests       int
	TotalPenalty decimal.Decimal
	Candidates   []NoShowCandidate
}

// NoShowPenalty computes the penalty for skipping the first night of a
// stay. Full contracted amount when nights <= 0.
func NoShowPenalty(r hotel.Reservation) decimal.Decimal {
	nights := r.Nights()
	if nights <= 0 {
		return r.TotalAmount
	}
	return r.TotalAmount.Div(decimal.NewFromInt(int64(nights))).Round(2)
}

// NoShowDetector identifies and processes no-show guests.
type NoShowDetector struct {
	Reservations hotel.ReservationStore
	Rooms        hotel.RoomStore
	Clock        func() time.Time
}

// Detect returns every CONFIRMED reservation arriving on the date with
// no recorded check-in. Read-only.
func (d *NoShowDetector) Detect(ctx context.Context, date hotel.Date) (*NoShowSummary, error) {
	reservations, err := d.Reservations.Reservations(ctx)
	if err != nil {
		return nil, err
	}

	summary := &NoShowSummary{Date: date, TotalPenalty: decimal.Zero}
	for _, r := range reservations {
		if r.Status != hotel.StatusConfirmed || !r.CheckIn.Equal(date) || r.CheckedInAt != nil {
			continue
		}
		penalty := NoShowPenalty(r)
		summary.Candidates = append(summary.Candidates, NoShowCandidate{Reservation: r, Penalty: penalty})
		summary.TotalPenalty = summary.TotalPenalty.Add(penalty)
	}
	summary.Guests = len(summary.Candidates)
	return summary, nil
}

// Apply converts every candidate to NO_SHOW, stamps the detection date
// and penalty, and marks the room vacant. Returns the number processed.
// Room-state writes are best-effort; failures are reported through the
// returned warning list, not as errors.
func (d *NoShowDetector) Apply(ctx context.Context, summary *NoShowSummary) (int, []string, error) {
	var warnings []string
	processed := 0
	for _, c := range summary.Candidates {
		r := c.Reservation
		r.MarkNoShow(summary.Date, c.Penalty)
		if err := d.Reservations.SaveReservation(ctx, r); err != nil {
			return processed, warnings, err
		}
		processed++

		if d.Rooms == nil || r.RoomNumber == "" {
			continue
		}
		if err := d.Rooms.SetRoomStatus(ctx, r.RoomNumber, hotel.RoomVacant); err != nil {
			warnings = append(warnings, "could not mark room "+r.RoomNumber+" vacant: "+err.Error())
		}
	}
	return processed, warnings, nil
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// Confirmer is the operator's yes/no decision before any no-show
// mutation happens.
type Confirmer interface {
	ConfirmNoShows(ctx context.Context, summary NoShowSummary) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, summary NoShowSummary) (bool, error)

func (f ConfirmerFunc) ConfirmNoShows(ctx context.Context, summary NoShowSummary) (bool, error) {
	return f(ctx, summary)
}

// ConfirmAll approves every prompt (unattended closure path).
var ConfirmAll Confirmer = ConfirmerFunc(
	func(context.Context, NoShowSummary) (bool, error) { return true, nil },
)

// DeclineAll rejects every prompt.
var DeclineAll Confirmer = ConfirmerFunc(
	func(context.Context, NoShowSummary) (bool, error) { return false, nil },
)
