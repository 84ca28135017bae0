package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/night-audit/audit"
	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
	"github.com/innkeep/night-audit/notify"
	"github.com/innkeep/night-audit/report"
	"github.com/innkeep/night-audit/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// The seeded demo calendar: opened June 1, operating on June 3. Guests:
// a settled 1-night stay departing June 2, a settled 3-night stay
// departing June 4, and a confirmed June 1 arrival who never showed.
var sealClock = time.Date(2024, time.June, 4, 4, 0, 0, 0, time.UTC)

type closureEngine struct {
	coordinator *audit.Coordinator
	store       *memory.Store
	events      *notify.Memory
	dispatcher  *report.MemoryDispatcher
}

func newClosureEngine(t *testing.T) *closureEngine {
	st := memory.New(gateOpening)
	require.NoError(t, memory.Seed(context.Background(), st, gateOpening))

	events := notify.NewMemory()
	dispatcher := report.NewMemoryDispatcher()
	clock := func() time.Time { return sealClock }

	return &closureEngine{
		coordinator: &audit.Coordinator{
			Reservations: st,
			Rooms:        st,
			Folios:       st,
			Audit:        st,
			Shifts:       hotel.NoOpenShifts,
			Checklist:    st,
			Lock:         audit.NewSystemLock(),
			Ledger:       folio.NewLedger(folio.NewNumberSourceAt(clock)),
			Exporter:     report.NewHTMLExporter(dispatcher),
			Notifier:     events,
			Clock:        clock,
		},
		store:      st,
		events:     events,
		dispatcher: dispatcher,
	}
}

func closeRequest(date hotel.Date) audit.CloseRequest {
	return audit.CloseRequest{
		Date:       date,
		Actor:      "night-auditor",
		Recipients: []string{"gm@hotel.test"},
		Confirm:    audit.ConfirmAll,
	}
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestCoordinator_CloseDay_FirstNight(t *testing.T) {
	// GIVEN: The seeded hotel with June 1 ready to close
	// WHEN: Running the closure with no-shows confirmed
	// THEN: COMPLETE with a sealed record, the no-show converted, the
	//       report dispatched and the session events published

	e := newClosureEngine(t)
	ctx := context.Background()

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)
	assert.Equal(t, audit.StateComplete, result.State)
	assert.Empty(t, result.Warnings)

	// The seal
	require.NotNil(t, result.Record)
	rec, err := e.store.Record(ctx, gateOpening)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "night-auditor", rec.ClosedBy)
	assert.Equal(t, sealClock, rec.ClosedAt)
	assert.Equal(t, 1, rec.NoShowsProcessed)
	assert.Equal(t, 0, rec.FoliosGenerated, "no departures on the first night")

	// Statistics: two paid arrivals, one no-show, half the house occupied
	assert.Equal(t, 2, rec.Stats.CheckIns)
	assert.Equal(t, 0, rec.Stats.CheckOuts)
	assert.Equal(t, 1, rec.Stats.NoShows)
	assert.Equal(t, "540", rec.Stats.Revenue.String())
	assert.Equal(t, "270", rec.Stats.AverageRate.String())
	assert.Equal(t, 2, rec.Stats.OccupiedRooms)
	assert.Equal(t, 50, rec.Stats.OccupancyRate)

	// The absent guest was converted and her suite released
	noShow, err := e.store.Reservation(ctx, "res-1003")
	require.NoError(t, err)
	assert.Equal(t, hotel.StatusNoShow, noShow.Status)
	assert.Equal(t, "240", noShow.NoShowPenalty.String())
	suite, err := e.store.Room(ctx, "201")
	require.NoError(t, err)
	assert.Equal(t, hotel.RoomVacant, suite.Status)

	// Best-effort collaborators ran
	assert.Equal(t, "night-audit-2024-06-01.html", result.ReportRef)
	sent := e.dispatcher.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"gm@hotel.test"}, sent[0].Recipients)
	assert.Contains(t, string(sent[0].Document), "2024-06-01")

	types := make([]string, 0, 3)
	for _, ev := range e.events.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{
		notify.EventLockAcquired, notify.EventDayClosed, notify.EventLockReleased,
	}, types)

	// The lock is free again
	assert.False(t, e.coordinator.Lock.Held())
}

func TestCoordinator_CloseDay_DepartureGeneratesFolio(t *testing.T) {
	// GIVEN: June 1 sealed; June 2 has one settled departure
	// WHEN: Closing June 2
	// THEN: A folio is generated, the guest checked out, the room freed

	e := newClosureEngine(t)
	ctx := context.Background()

	_, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening.AddDays(1)))
	require.NoError(t, err)
	assert.Equal(t, audit.StateComplete, result.State)
	assert.Equal(t, 1, result.FoliosGenerated)

	f, err := e.store.FolioByReservation(ctx, "res-1001")
	require.NoError(t, err)
	require.NotNil(t, f)
	// 90 room + 16.20 VAT + 0.90 municipal - 90 paid
	assert.Equal(t, "17.1", f.Balance.String())
	assert.Equal(t, folio.StatusOpen, f.Status, "tax remainder keeps the folio open")

	guest, err := e.store.Reservation(ctx, "res-1001")
	require.NoError(t, err)
	assert.Equal(t, hotel.StatusCheckedOut, guest.Status)

	room, err := e.store.Room(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, hotel.RoomVacant, room.Status)

	// The continuing guest in 102 is untouched
	continuing, err := e.store.Reservation(ctx, "res-1002")
	require.NoError(t, err)
	assert.Equal(t, hotel.StatusCheckedIn, continuing.Status)
}

func TestCoordinator_CloseDay_ExistingFolioReused(t *testing.T) {
	// GIVEN: The departing guest already has a settled folio from check-in
	// WHEN: Closing the departure day
	// THEN: No second folio is generated; the existing one is closed

	e := newClosureEngine(t)
	ctx := context.Background()
	_, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)

	guest, err := e.store.Reservation(ctx, "res-1001")
	require.NoError(t, err)
	pre, err := e.coordinator.Ledger.Generate(*guest, "front-desk")
	require.NoError(t, err)
	// Settle the tax remainder at the desk before the audit
	require.NoError(t, pre.Post(folio.Transaction{
		Date: gateOpening.AddDays(1), Type: folio.TxPayment,
		Category: folio.CategoryOther, Description: "Tax settlement", Amount: pre.Balance,
	}))
	require.NoError(t, e.store.SaveFolio(ctx, *pre))

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening.AddDays(1)))
	require.NoError(t, err)
	assert.Equal(t, audit.StateComplete, result.State)
	assert.Equal(t, 0, result.FoliosGenerated)

	f, err := e.store.FolioByReservation(ctx, "res-1001")
	require.NoError(t, err)
	assert.Equal(t, pre.Number, f.Number)
	assert.Equal(t, folio.StatusClosed, f.Status)
}

// =============================================================================
// IDEMPOTENCE AND ORDERING
// =============================================================================

func TestCoordinator_CloseDay_RetryOfSealedDayIsIdempotent(t *testing.T) {
	// GIVEN: June 1 already sealed
	// WHEN: Closing June 1 again
	// THEN: ALREADY_CLOSED with the original record, nil error, no mutation

	e := newClosureEngine(t)
	ctx := context.Background()

	first, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)
	require.Equal(t, audit.StateComplete, first.State)

	second, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)
	assert.Equal(t, audit.StateAlreadyClosed, second.State)
	require.NotNil(t, second.Record)
	assert.Equal(t, first.Record.ClosedAt, second.Record.ClosedAt)

	// Only one set of session events and one report
	assert.Len(t, e.events.Events(), 3)
	assert.Len(t, e.dispatcher.Sent(), 1)
}

func TestCoordinator_CloseDay_OutOfOrderBlocked(t *testing.T) {
	// GIVEN: June 1 not yet closed
	// WHEN: Closing June 2 first
	// THEN: BLOCKED with a sequence issue, nothing sealed

	e := newClosureEngine(t)
	ctx := context.Background()

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening.AddDays(1)))
	require.NoError(t, err)
	assert.Equal(t, audit.StateBlocked, result.State)

	var seq bool
	for _, issue := range result.Issues {
		if issue.Category == audit.IssueSequence {
			seq = true
		}
	}
	assert.True(t, seq, "expected a sequence issue, got %v", result.Issues)

	rec, err := e.store.Record(ctx, gateOpening.AddDays(1))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// =============================================================================
// BLOCKED OUTCOMES
// =============================================================================

func TestCoordinator_CloseDay_BlockedByChecklist(t *testing.T) {
	// GIVEN: An undone checklist item for the target
	// WHEN: Closing
	// THEN: BLOCKED before any mutation; the lock is never taken

	e := newClosureEngine(t)
	ctx := context.Background()

	require.NoError(t, e.store.SaveChecklistItem(ctx, hotel.ChecklistItem{
		ID: "chk-9", Date: gateOpening, Label: "Run backups", Done: false,
	}))

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)
	assert.Equal(t, audit.StateBlocked, result.State)

	rec, err := e.store.Record(ctx, gateOpening)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, e.events.Events(), "no lock session for a blocked attempt")

	noShow, err := e.store.Reservation(ctx, "res-1003")
	require.NoError(t, err)
	assert.Equal(t, hotel.StatusConfirmed, noShow.Status, "no mutation on a blocked run")
}

func TestCoordinator_CloseDay_DeclinedNoShowsBlock(t *testing.T) {
	// GIVEN: A pending arrival and an operator who declines the prompt
	// WHEN: Closing
	// THEN: BLOCKED listing the unresolved arrival; nothing mutated

	e := newClosureEngine(t)
	ctx := context.Background()

	req := closeRequest(gateOpening)
	req.Confirm = audit.DeclineAll

	result, err := e.coordinator.CloseDay(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, audit.StateBlocked, result.State)

	arrivals := 0
	for _, issue := range result.Issues {
		if issue.Category == audit.IssuePendingArrival {
			arrivals++
			assert.Contains(t, issue.Message, "Elena Petrova")
		}
	}
	assert.Equal(t, 1, arrivals)

	guest, err := e.store.Reservation(ctx, "res-1003")
	require.NoError(t, err)
	assert.Equal(t, hotel.StatusConfirmed, guest.Status)

	rec, err := e.store.Record(ctx, gateOpening)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, e.coordinator.Lock.Held())
}

// =============================================================================
// EXCLUSIVITY
// =============================================================================

func TestCoordinator_CloseDay_LockHeldFailsFast(t *testing.T) {
	// GIVEN: Another terminal mid-audit
	// WHEN: Closing
	// THEN: LockHeldError naming the holder; no seal, no waiting

	e := newClosureEngine(t)
	ctx := context.Background()

	require.NoError(t, e.coordinator.Lock.Acquire("terminal-2", "night audit for 2024-06-01"))

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.Error(t, err)
	assert.Nil(t, result)

	var held *audit.LockHeldError
	require.ErrorAs(t, err, &held)
	assert.Equal(t, "terminal-2", held.Holder)

	rec, recErr := e.store.Record(ctx, gateOpening)
	require.NoError(t, recErr)
	assert.Nil(t, rec)
	assert.True(t, e.coordinator.Lock.Held(), "the holder's lock must survive the rejected attempt")
}

// =============================================================================
// FAILURE MODES
// =============================================================================

// sealFailureStore fails every record write.
type sealFailureStore struct {
	*memory.Store
}

func (s *sealFailureStore) SaveRecord(context.Context, audit.NightAuditRecord) error {
	return errors.New("disk full")
}

func TestCoordinator_CloseDay_SealFailureLeavesNoRecord(t *testing.T) {
	// GIVEN: A store whose record write fails
	// WHEN: Closing
	// THEN: FAILED wrapping ErrPersistence; no record; the lock released

	e := newClosureEngine(t)
	e.coordinator.Audit = &sealFailureStore{Store: e.store}
	ctx := context.Background()

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.Error(t, err)
	assert.ErrorIs(t, err, audit.ErrPersistence)
	require.NotNil(t, result)
	assert.Equal(t, audit.StateFailed, result.State)

	rec, recErr := e.store.Record(ctx, gateOpening)
	require.NoError(t, recErr)
	assert.Nil(t, rec)
	assert.False(t, e.coordinator.Lock.Held())
	assert.Empty(t, e.dispatcher.Sent(), "no report without a seal")
}

// failingExporter renders fine but cannot dispatch.
type failingExporter struct{ inner report.Exporter }

func (f *failingExporter) Render(s report.Summary) ([]byte, error) { return f.inner.Render(s) }
func (f *failingExporter) Dispatch(context.Context, []byte, []string) error {
	return errors.New("queue unavailable")
}

func TestCoordinator_CloseDay_ReportFailureIsWarningOnly(t *testing.T) {
	// GIVEN: A report queue that is down
	// WHEN: Closing
	// THEN: The day still seals COMPLETE; the failure is a warning

	e := newClosureEngine(t)
	e.coordinator.Exporter = &failingExporter{inner: report.NewHTMLExporter(nil)}
	ctx := context.Background()

	result, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)
	assert.Equal(t, audit.StateComplete, result.State)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "report dispatch failed")

	rec, err := e.store.Record(ctx, gateOpening)
	require.NoError(t, err)
	assert.NotNil(t, rec, "the seal must survive collaborator failures")
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestCoordinator_Preview_ReadOnly(t *testing.T) {
	// GIVEN: June 1 with a pending arrival
	// WHEN: Previewing
	// THEN: BLOCKED with the arrival and the no-show summary, but no
	//       mutation, no lock, no events

	e := newClosureEngine(t)
	ctx := context.Background()

	result, err := e.coordinator.Preview(ctx, gateOpening)
	require.NoError(t, err)
	assert.Equal(t, audit.StateBlocked, result.State)

	require.NotNil(t, result.NoShows)
	assert.Equal(t, 1, result.NoShows.Guests)
	assert.Equal(t, "240", result.NoShows.TotalPenalty.String())

	guest, err := e.store.Reservation(ctx, "res-1003")
	require.NoError(t, err)
	assert.Equal(t, hotel.StatusConfirmed, guest.Status)
	assert.False(t, e.coordinator.Lock.Held())
	assert.Empty(t, e.events.Events())
}

func TestCoordinator_Preview_SealedDate(t *testing.T) {
	e := newClosureEngine(t)
	ctx := context.Background()

	_, err := e.coordinator.CloseDay(ctx, closeRequest(gateOpening))
	require.NoError(t, err)

	result, err := e.coordinator.Preview(ctx, gateOpening)
	require.NoError(t, err)
	assert.Equal(t, audit.StateAlreadyClosed, result.State)
	assert.NotNil(t, result.Record)
}
