/*
override.go - Administrative reopen of a sealed date

PURPOSE:
  The controlled exception path. Reopening is restricted to an
  administrator, demands a documented reason, and is NOT a
  transactional undo: folio and reservation mutations from the
  original closure stand. The override log entry is written before the
  record is deleted so the trail exists even if the delete fails.

SEE ALSO:
  - record.go: the override log contract (append-only, never deleted)
  - coordinator.go: the forward path this reverses
*/
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/innkeep/night-audit/hotel"
	"github.com/innkeep/night-audit/notify"
)

// MinOverrideReasonLen is the minimum documented-reason length.
const MinOverrideReasonLen = 10

// ReopenResult reports the post-reopen calendar state.
type ReopenResult struct {
	Date       hotel.Date
	Entry      OverrideLogEntry
	LastClosed *hotel.Date // nil when no sealed days remain
}

// OverrideManager performs reason-logged reopens.
type OverrideManager struct {
	Audit    Store
	Notifier notify.Publisher // optional, best-effort
	Clock    func() time.Time
}

func (m *OverrideManager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

// ReopenDay removes the seal for a date after appending a permanent
// override log entry. The reason must be at least 10 characters after
// trimming. "Last closed date" is recomputed from the remaining records.
func (m *OverrideManager) ReopenDay(ctx context.Context, date hotel.Date, reason, actor string) (*ReopenResult, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < MinOverrideReasonLen {
		return nil, fmt.Errorf("%w: got %d", ErrReasonTooShort, utf8.RuneCountInString(reason))
	}

	rec, err := m.Audit.Record(ctx, date)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, date)
	}

	entry := OverrideLogEntry{
		ID:        uuid.NewString(),
		Action:    ActionReopenDay,
		Date:      date,
		Reason:    reason,
		User:      actor,
		Timestamp: m.now(),
	}
	// Trail first, then the delete. The log outlives the record.
	if err := m.Audit.AppendOverride(ctx, entry); err != nil {
		return nil, err
	}
	if err := m.Audit.DeleteRecord(ctx, date); err != nil {
		return nil, err
	}

	last, err := m.Audit.LastClosed(ctx)
	if err != nil {
		return nil, err
	}

	if m.Notifier != nil {
		_ = m.Notifier.Publish(ctx, notify.Event{
			Type: notify.EventDayReopened, Date: date.String(),
			Actor: actor, Reason: reason, At: m.now(),
		})
	}

	return &ReopenResult{Date: date, Entry: entry, LastClosed: last}, nil
}
