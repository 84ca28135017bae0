/*
gates.go - Validation gate chain

PURPOSE:
  The ordered precondition checks a business date must clear before the
  coordinator may close it. Every gate runs even after an earlier one
  fails: the operator gets the complete remediation list in one pass,
  not a drip-feed of alerts.

GATE ORDER (fixed):
  1. not-today-or-future   target strictly before current business date
  2. not-already-closed    no seal exists for the target
  3. sequential-closing    target == last sealed date + 1 (or opening date)
  4. overdue check-outs    no CHECKED_IN stay with checkout before target
  5. unsettled departures  no unpaid stay checking out on the target
  6. pending arrivals      no CONFIRMED stay arriving on the target
  7. cashier shift closed  no open cash drawer for the day
  8. manual checklist      all operator checklist items complete

  Gates 4-6 itemize blocking issues per guest. Continuing multi-night
  guests (checkout after the target) are reported as informational
  only and never block.

CLOSURE-RUN MODE:
  When the chain runs inside a closure attempt, same-date departures
  and pending arrivals are resolved by the PROCESSING phase itself
  (checkout generation, no-show conversion), so gates 4 and 6 skip
  them. Standalone previews report everything.

SEE ALSO:
  - errors.go: BlockedError / SequenceError
  - coordinator.go: consumes the chain result
*/
package audit

import (
	"context"
	"fmt"

	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// ISSUES
// =============================================================================

type IssueCategory string

const (
	IssueFutureDate      IssueCategory = "date_not_closable"
	IssueAlreadyClosed   IssueCategory = "already_closed"
	IssueSequence        IssueCategory = "sequence_violation"
	IssuePendingCheckout IssueCategory = "pending_checkout"
	IssueUnsettledGuest  IssueCategory = "unsettled_balance"
	IssuePendingArrival  IssueCategory = "pending_arrival"
	IssueOpenShift       IssueCategory = "open_cashier_shift"
	IssueChecklist       IssueCategory = "checklist_incomplete"
	IssueContinuingGuest IssueCategory = "continuing_guest"
)

// Issue is one gate finding. Blocking issues prevent closure;
// informational ones (continuing guests) are shown but do not.
type Issue struct {
	Gate     string        `json:"gate"`
	Category IssueCategory `json:"category"`
	Message  string        `json:"message"`
	Blocking bool          `json:"blocking"`
}

// ValidationResult is the typed outcome of a chain run: pass, or
// blocked with the complete issue list.
type ValidationResult struct {
	Date   hotel.Date
	Issues []Issue
}

// Passed reports whether no blocking issue was found.
func (r *ValidationResult) Passed() bool {
	return len(r.Blocking()) == 0
}

// Blocking returns only the blocking issues.
func (r *ValidationResult) Blocking() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Blocking {
			out = append(out, issue)
		}
	}
	return out
}

// =============================================================================
// CHAIN
// =============================================================================

// Chain evaluates every gate for a target date. Read-only: the chain
// never mutates reservation, folio or audit state.
type Chain struct {
	Reservations hotel.ReservationStore
	Folios       folio.Store
	Audit        Store
	Shifts       hotel.ShiftService
	Checklist    hotel.ChecklistStore
}

// ChainOptions control evaluation mode.
type ChainOptions struct {
	// ClosureRun marks evaluation inside a closure attempt: same-date
	// departures and pending arrivals will be resolved by the run
	// itself and are not reported as blockers.
	ClosureRun bool
}

// Validate runs all gates in fixed order and collects every issue.
func (c *Chain) Validate(ctx context.Context, date hotel.Date, opts ChainOptions) (*ValidationResult, error) {
	result := &ValidationResult{Date: date}

	if err := c.gateDateClosable(ctx, date, result); err != nil {
		return nil, err
	}
	if err := c.gateNotAlreadyClosed(ctx, date, result); err != nil {
		return nil, err
	}
	if err := c.gateSequential(ctx, date, result); err != nil {
		return nil, err
	}

	reservations, err := c.Reservations.Reservations(ctx)
	if err != nil {
		return nil, err
	}
	c.gateOverdueCheckouts(date, reservations, opts, result)
	if err := c.gateUnsettledDepartures(ctx, date, reservations, result); err != nil {
		return nil, err
	}
	c.gatePendingArrivals(date, reservations, opts, result)

	if err := c.gateShiftClosed(ctx, date, result); err != nil {
		return nil, err
	}
	if err := c.gateChecklist(ctx, date, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Gate 1: the target must be strictly before the current business date.
func (c *Chain) gateDateClosable(ctx context.Context, date hotel.Date, result *ValidationResult) error {
	current, err := c.Audit.BusinessDate(ctx)
	if err != nil {
		return err
	}
	if date.AfterOrEqual(current) {
		result.Issues = append(result.Issues, Issue{
			Gate:     "not-today-or-future",
			Category: IssueFutureDate,
			Message: fmt.Sprintf("%s is not closable yet: the business day is %s and only past days can be closed",
				date, current),
			Blocking: true,
		})
	}
	return nil
}

// Gate 2: no seal may already exist for the target.
func (c *Chain) gateNotAlreadyClosed(ctx context.Context, date hotel.Date, result *ValidationResult) error {
	rec, err := c.Audit.Record(ctx, date)
	if err != nil {
		return err
	}
	if rec != nil {
		result.Issues = append(result.Issues, Issue{
			Gate:     "not-already-closed",
			Category: IssueAlreadyClosed,
			Message:  fmt.Sprintf("%s was already closed by %s", date, rec.ClosedBy),
			Blocking: true,
		})
	}
	return nil
}

// Gate 3: days seal in strictly increasing, contiguous order.
func (c *Chain) gateSequential(ctx context.Context, date hotel.Date, result *ValidationResult) error {
	expected, err := ExpectedNext(ctx, c.Audit)
	if err != nil {
		return err
	}
	if !date.Equal(expected) {
		result.Issues = append(result.Issues, Issue{
			Gate:     "sequential-closing",
			Category: IssueSequence,
			Message:  fmt.Sprintf("days must be closed in order: expected %s, got %s", expected, date),
			Blocking: true,
		})
	}
	return nil
}

// Gate 4: overdue checkouts block; same-date departures are handled by
// the closure run; continuing guests are informational only.
func (c *Chain) gateOverdueCheckouts(date hotel.Date, reservations []hotel.Reservation, opts ChainOptions, result *ValidationResult) {
	for _, r := range reservations {
		if r.Status != hotel.StatusCheckedIn {
			continue
		}
		switch {
		case r.CheckOut.Before(date):
			result.Issues = append(result.Issues, Issue{
				Gate:     "outstanding-check-outs",
				Category: IssuePendingCheckout,
				Message: fmt.Sprintf("%s (room %s) was due to check out on %s and is still checked in",
					r.GuestName, r.RoomNumber, r.CheckOut),
				Blocking: true,
			})
		case r.CheckOut.Equal(date) && !opts.ClosureRun:
			result.Issues = append(result.Issues, Issue{
				Gate:     "outstanding-check-outs",
				Category: IssuePendingCheckout,
				Message: fmt.Sprintf("%s (room %s) checks out on %s and will be checked out during the audit",
					r.GuestName, r.RoomNumber, date),
				Blocking: false,
			})
		case r.CheckOut.After(date):
			result.Issues = append(result.Issues, Issue{
				Gate:     "outstanding-check-outs",
				Category: IssueContinuingGuest,
				Message: fmt.Sprintf("%s (room %s) stays through %s (continuing guest)",
					r.GuestName, r.RoomNumber, r.CheckOut),
				Blocking: false,
			})
		}
	}
}

// Gate 5: every departure on the target date must be settled. An open
// folio with a positive balance blocks as well.
func (c *Chain) gateUnsettledDepartures(ctx context.Context, date hotel.Date, reservations []hotel.Reservation, result *ValidationResult) error {
	for _, r := range reservations {
		if r.Status != hotel.StatusCheckedIn || !r.CheckOut.Equal(date) {
			continue
		}
		if !r.IsSettled() {
			result.Issues = append(result.Issues, Issue{
				Gate:     "unsettled-check-outs",
				Category: IssueUnsettledGuest,
				Message: fmt.Sprintf("%s (room %s) checks out on %s with an outstanding balance of %s",
					r.GuestName, r.RoomNumber, date, r.OutstandingBalance().StringFixed(2)),
				Blocking: true,
			})
			continue
		}
		if c.Folios == nil {
			continue
		}
		f, err := c.Folios.FolioByReservation(ctx, r.ID)
		if err != nil {
			return err
		}
		if f != nil && f.Status == folio.StatusOpen && f.Balance.IsPositive() {
			result.Issues = append(result.Issues, Issue{
				Gate:     "unsettled-check-outs",
				Category: IssueUnsettledGuest,
				Message: fmt.Sprintf("folio %s for %s (room %s) is open with balance %s",
					f.Number, r.GuestName, r.RoomNumber, f.Balance.StringFixed(2)),
				Blocking: true,
			})
		}
	}
	return nil
}

// Gate 6: arrivals that never checked in. Inside a closure run these
// are claimed by the no-show detector and not reported here.
func (c *Chain) gatePendingArrivals(date hotel.Date, reservations []hotel.Reservation, opts ChainOptions, result *ValidationResult) {
	if opts.ClosureRun {
		return
	}
	for _, r := range reservations {
		if r.Status != hotel.StatusConfirmed || !r.CheckIn.Equal(date) || r.CheckedInAt != nil {
			continue
		}
		result.Issues = append(result.Issues, Issue{
			Gate:     "outstanding-check-ins",
			Category: IssuePendingArrival,
			Message: fmt.Sprintf("%s (room %s) was due to arrive on %s and has not checked in; confirm no-show processing or cancel",
				r.GuestName, r.RoomNumber, date),
			Blocking: true,
		})
	}
}

// Gate 7: the cash drawer must be reconciled and closed.
func (c *Chain) gateShiftClosed(ctx context.Context, date hotel.Date, result *ValidationResult) error {
	if c.Shifts == nil {
		return nil
	}
	open, err := c.Shifts.ShiftOpen(ctx, date)
	if err != nil {
		return err
	}
	if open {
		result.Issues = append(result.Issues, Issue{
			Gate:     "cashier-shift-closed",
			Category: IssueOpenShift,
			Message:  fmt.Sprintf("a cashier shift is still open for %s; close and reconcile the drawer first", date),
			Blocking: true,
		})
	}
	return nil
}

// Gate 8: every operator checklist item for the date must be done.
func (c *Chain) gateChecklist(ctx context.Context, date hotel.Date, result *ValidationResult) error {
	if c.Checklist == nil {
		return nil
	}
	items, err := c.Checklist.ChecklistItems(ctx, date)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Done {
			continue
		}
		result.Issues = append(result.Issues, Issue{
			Gate:     "manual-checklist",
			Category: IssueChecklist,
			Message:  fmt.Sprintf("checklist item not complete: %s", item.Label),
			Blocking: true,
		})
	}
	return nil
}
