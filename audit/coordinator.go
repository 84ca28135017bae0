/*
coordinator.go - Day-closure coordinator

PURPOSE:
  Orchestrates the closure of one business date:

    IDLE -> VALIDATING -> PROCESSING -> SEALING -> COMPLETE

  with BLOCKED reachable from VALIDATING and FAILED from
  PROCESSING/SEALING. The NightAuditRecord write is the single atomic
  commit point: everything before it may be safely repeated, nothing
  after it can roll it back.

FLOW:
  1. VALIDATING: retry of a sealed date short-circuits to
     ALREADY_CLOSED (idempotent, not an error). The gate chain runs in
     closure mode; any blocking issue ends the attempt as BLOCKED with
     the complete list and no mutation.
  2. Lock acquisition: fail-fast. A held lock is a distinct
     "audit in progress" error naming the holder, not a blocking issue.
  3. PROCESSING: no-show detection, operator confirmation, conversion;
     then folio generation and checkout for every stay departing on the
     target date. Declining the confirmation aborts as BLOCKED.
  4. SEALING: statistics snapshot, record write (commit point),
     business-date advance.
  5. Post-seal: report render/dispatch and event publishing are
     best-effort; failures become warnings on a COMPLETE result.

SEE ALSO:
  - gates.go, noshow.go, stats.go, lock.go: the phases
  - override.go: the only way back once sealed
*/
package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
	"github.com/innkeep/night-audit/notify"
	"github.com/innkeep/night-audit/report"
)

// =============================================================================
// STATE MACHINE
// =============================================================================

type State string

const (
	StateIdle          State = "IDLE"
	StateValidating    State = "VALIDATING"
	StateProcessing    State = "PROCESSING"
	StateSealing       State = "SEALING"
	StateComplete      State = "COMPLETE"
	StateBlocked       State = "BLOCKED"
	StateFailed        State = "FAILED"
	StateAlreadyClosed State = "ALREADY_CLOSED"
)

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// CloseRequest is one operator-initiated closure attempt.
type CloseRequest struct {
	Date       hotel.Date
	Actor      string
	Recipients []string
	// Confirm decides the no-show prompt. Nil declines, which aborts
	// the run if any candidate exists.
	Confirm Confirmer
}

// CloseResult is the outcome of one attempt. COMPLETE, BLOCKED and
// ALREADY_CLOSED are terminal for the invocation; a new invocation
// always starts at IDLE.
type CloseResult struct {
	State            State
	Date             hotel.Date
	Issues           []Issue
	NoShows          *NoShowSummary
	Stats            *Snapshot
	FoliosGenerated  int
	NoShowsProcessed int
	Record           *NightAuditRecord
	ReportRef        string
	Warnings         []string
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator wires the closure phases over injected stores and
// collaborators.
type Coordinator struct {
	Reservations hotel.ReservationStore
	Rooms        hotel.RoomStore
	Folios       folio.Store
	Audit        Store
	Shifts       hotel.ShiftService
	Checklist    hotel.ChecklistStore

	Lock     *SystemLock
	Ledger   *folio.Ledger
	Exporter report.Exporter  // optional, best-effort
	Notifier notify.Publisher // optional, best-effort
	Clock    func() time.Time
}

func (c *Coordinator) chain() *Chain {
	return &Chain{
		Reservations: c.Reservations,
		Folios:       c.Folios,
		Audit:        c.Audit,
		Shifts:       c.Shifts,
		Checklist:    c.Checklist,
	}
}

func (c *Coordinator) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

func (c *Coordinator) notifier() notify.Publisher {
	if c.Notifier != nil {
		return c.Notifier
	}
	return notify.Discard
}

// Preview runs validation and no-show detection read-only: the issue
// list and confirmation summary an interactive operator sees before
// committing to a close. Never mutates, never takes the lock.
func (c *Coordinator) Preview(ctx context.Context, date hotel.Date) (*CloseResult, error) {
	result := &CloseResult{State: StateValidating, Date: date}

	existing, err := c.Audit.Record(ctx, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result.State = StateAlreadyClosed
		result.Record = existing
		return result, nil
	}

	validation, err := c.chain().Validate(ctx, date, ChainOptions{ClosureRun: false})
	if err != nil {
		return nil, err
	}
	result.Issues = validation.Issues

	detector := &NoShowDetector{Reservations: c.Reservations, Rooms: c.Rooms, Clock: c.Clock}
	summary, err := detector.Detect(ctx, date)
	if err != nil {
		return nil, err
	}
	result.NoShows = summary

	if validation.Passed() {
		result.State = StateProcessing
	} else {
		result.State = StateBlocked
	}
	return result, nil
}

// CloseDay runs the full closure state machine for one date.
//
// Error contract: BLOCKED and ALREADY_CLOSED come back as results with
// a nil error (operator outcomes, not failures). A held lock returns a
// *LockHeldError. Store failures before the seal return the FAILED
// result with an error wrapping ErrPersistence; no partial record is
// ever left behind.
func (c *Coordinator) CloseDay(ctx context.Context, req CloseRequest) (*CloseResult, error) {
	result := &CloseResult{State: StateValidating, Date: req.Date}

	// Idempotent retry of a sealed date: distinct state, not an error.
	existing, err := c.Audit.Record(ctx, req.Date)
	if err != nil {
		return c.fail(result, err)
	}
	if existing != nil {
		result.State = StateAlreadyClosed
		result.Record = existing
		return result, nil
	}

	validation, err := c.chain().Validate(ctx, req.Date, ChainOptions{ClosureRun: true})
	if err != nil {
		return c.fail(result, err)
	}
	result.Issues = validation.Issues
	if !validation.Passed() {
		result.State = StateBlocked
		return result, nil
	}

	// VALIDATING -> PROCESSING: take the system lock, fail-fast.
	if err := c.Lock.Acquire(req.Actor, fmt.Sprintf("night audit for %s", req.Date)); err != nil {
		return nil, err
	}
	defer func() {
		c.Lock.Release()
		c.publish(ctx, result, notify.Event{Type: notify.EventLockReleased, Actor: req.Actor, At: c.now()})
	}()
	c.publish(ctx, result, notify.Event{
		Type: notify.EventLockAcquired, Date: req.Date.String(), Actor: req.Actor, At: c.now(),
	})

	result.State = StateProcessing
	if err := c.process(ctx, req, result); err != nil {
		return c.fail(result, err)
	}
	if result.State == StateBlocked {
		return result, nil
	}

	result.State = StateSealing
	if err := c.seal(ctx, req, result); err != nil {
		return c.fail(result, err)
	}

	c.export(ctx, req, result)
	c.publish(ctx, result, notify.Event{
		Type: notify.EventDayClosed, Date: req.Date.String(), Actor: req.Actor, At: c.now(),
	})

	result.State = StateComplete
	return result, nil
}

// =============================================================================
// PROCESSING
// =============================================================================

func (c *Coordinator) process(ctx context.Context, req CloseRequest, result *CloseResult) error {
	detector := &NoShowDetector{Reservations: c.Reservations, Rooms: c.Rooms, Clock: c.Clock}

	summary, err := detector.Detect(ctx, req.Date)
	if err != nil {
		return err
	}
	result.NoShows = summary

	if summary.Guests > 0 {
		confirmed := false
		if req.Confirm != nil {
			confirmed, err = req.Confirm.ConfirmNoShows(ctx, *summary)
			if err != nil {
				return err
			}
		}
		if !confirmed {
			// Operator declined the charge: the arrivals stay
			// unresolved and the attempt ends exactly where gate 6
			// would have ended it.
			for _, cand := range summary.Candidates {
				r := cand.Reservation
				result.Issues = append(result.Issues, Issue{
					Gate:     "outstanding-check-ins",
					Category: IssuePendingArrival,
					Message: fmt.Sprintf("%s (room %s) was due to arrive on %s; no-show processing was declined",
						r.GuestName, r.RoomNumber, req.Date),
					Blocking: true,
				})
			}
			result.State = StateBlocked
			return nil
		}

		processed, warnings, err := detector.Apply(ctx, summary)
		result.NoShowsProcessed = processed
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			return err
		}
	}

	return c.processDepartures(ctx, req, result)
}

// processDepartures generates a folio for every stay departing on the
// target date that is still checked in, then checks the guest out and
// frees the room.
func (c *Coordinator) processDepartures(ctx context.Context, req CloseRequest, result *CloseResult) error {
	reservations, err := c.Reservations.Reservations(ctx)
	if err != nil {
		return err
	}

	for _, r := range reservations {
		if r.Status != hotel.StatusCheckedIn || !r.CheckOut.Equal(req.Date) {
			continue
		}

		existing, err := c.Folios.FolioByReservation(ctx, r.ID)
		if err != nil {
			return err
		}
		f := existing
		if f == nil {
			f, err = c.Ledger.Generate(r, req.Actor)
			if err != nil {
				return err
			}
			result.FoliosGenerated++
		}

		// Settled folios close; a tax remainder on a closure-generated
		// folio stays open for the front desk to collect.
		if err := f.CloseIfSettled(); err != nil && err != folio.ErrUnsettled {
			return err
		}
		if err := c.Folios.SaveFolio(ctx, *f); err != nil {
			return err
		}

		r.MarkCheckedOut()
		if err := c.Reservations.SaveReservation(ctx, r); err != nil {
			return err
		}
		if c.Rooms != nil && r.RoomNumber != "" {
			if err := c.Rooms.SetRoomStatus(ctx, r.RoomNumber, hotel.RoomVacant); err != nil {
				result.Warnings = append(result.Warnings,
					"could not mark room "+r.RoomNumber+" vacant: "+err.Error())
			}
		}
	}
	return nil
}

// =============================================================================
// SEALING
// =============================================================================

func (c *Coordinator) seal(ctx context.Context, req CloseRequest, result *CloseResult) error {
	reservations, err := c.Reservations.Reservations(ctx)
	if err != nil {
		return err
	}
	var rooms []hotel.Room
	if c.Rooms != nil {
		rooms, err = c.Rooms.Rooms(ctx)
		if err != nil {
			return err
		}
	}

	stats := ComputeSnapshot(req.Date, reservations, rooms)
	result.Stats = &stats

	record := NightAuditRecord{
		Date:             req.Date,
		ClosedAt:         c.now(),
		ClosedBy:         req.Actor,
		Stats:            stats,
		FoliosGenerated:  result.FoliosGenerated,
		NoShowsProcessed: result.NoShowsProcessed,
	}

	// The atomic commit point. A duplicate here means a concurrent
	// closure won the race; either way no partial record exists.
	if err := c.Audit.SaveRecord(ctx, record); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	result.Record = &record

	// The seal is committed; everything after degrades to warnings.
	current, err := c.Audit.BusinessDate(ctx)
	if err == nil {
		next := req.Date.Next()
		if next.After(current) {
			err = c.Audit.SetBusinessDate(ctx, next)
		}
	}
	if err != nil {
		log.Printf("audit: business date advance failed after seal of %s: %v", req.Date, err)
		result.Warnings = append(result.Warnings, "business date not advanced: "+err.Error())
	}
	return nil
}

// =============================================================================
// BEST-EFFORT COLLABORATORS
// =============================================================================

func (c *Coordinator) export(ctx context.Context, req CloseRequest, result *CloseResult) {
	if c.Exporter == nil || result.Record == nil {
		return
	}
	rec := result.Record
	doc, err := c.Exporter.Render(report.Summary{
		Date:            rec.Date.String(),
		ClosedBy:        rec.ClosedBy,
		ClosedAt:        rec.ClosedAt,
		CheckIns:        rec.Stats.CheckIns,
		CheckOuts:       rec.Stats.CheckOuts,
		OccupiedRooms:   rec.Stats.OccupiedRooms,
		TotalRooms:      rec.Stats.TotalRooms,
		OccupancyRate:   rec.Stats.OccupancyRate,
		Revenue:         rec.Stats.Revenue.StringFixed(2),
		AverageRate:     rec.Stats.AverageRate.StringFixed(2),
		NoShows:         rec.NoShowsProcessed,
		FoliosGenerated: rec.FoliosGenerated,
	})
	if err != nil {
		log.Printf("audit: report render failed for %s: %v", req.Date, err)
		result.Warnings = append(result.Warnings, "report render failed: "+err.Error())
		return
	}
	result.ReportRef = fmt.Sprintf("night-audit-%s.html", rec.Date)

	if err := c.Exporter.Dispatch(ctx, doc, req.Recipients); err != nil {
		log.Printf("audit: report dispatch failed for %s: %v", req.Date, err)
		result.Warnings = append(result.Warnings, "report dispatch failed: "+err.Error())
	}
}

func (c *Coordinator) publish(ctx context.Context, result *CloseResult, event notify.Event) {
	if err := c.notifier().Publish(ctx, event); err != nil {
		result.Warnings = append(result.Warnings, "event publish failed: "+err.Error())
	}
}

func (c *Coordinator) fail(result *CloseResult, err error) (*CloseResult, error) {
	result.State = StateFailed
	return result, err
}
