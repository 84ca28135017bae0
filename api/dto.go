/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/innkeep/night-audit/audit"
	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// CLOSURE TYPES
// =============================================================================

// CloseDayRequest is the body of POST /api/audit/close.
type CloseDayRequest struct {
	Date string `json:"date"`
	// ConfirmNoShows answers the no-show prompt non-interactively.
	// False aborts the run when candidates exist.
	ConfirmNoShows bool     `json:"confirm_no_shows"`
	Recipients     []string `json:"recipients,omitempty"`
}

// CloseResultDTO is the outcome of a preview or closure attempt.
type CloseResultDTO struct {
	State            string               `json:"state"`
	Date             string               `json:"date"`
	Issues           []audit.Issue        `json:"issues,omitempty"`
	NoShows          *NoShowSummaryDTO    `json:"no_shows,omitempty"`
	Stats            *audit.Snapshot      `json:"stats,omitempty"`
	FoliosGenerated  int                  `json:"folios_generated"`
	NoShowsProcessed int                  `json:"no_shows_processed"`
	Record           *AuditRecordDTO      `json:"record,omitempty"`
	ReportRef        string               `json:"report_ref,omitempty"`
	Warnings         []string             `json:"warnings,omitempty"`
}

// NoShowSummaryDTO lists the arrivals that never checked in.
type NoShowSummaryDTO struct {
	Date         string              `json:"date"`
	Guests       int                 `json:"guests"`
	TotalPenalty string              `json:"total_penalty"`
	Candidates   []NoShowCandidateDTO `json:"candidates,omitempty"`
}

type NoShowCandidateDTO struct {
	ReservationID string `json:"reservation_id"`
	GuestName     string `json:"guest_name"`
	RoomNumber    string `json:"room_number"`
	Penalty       string `json:"penalty"`
}

// AuditRecordDTO is one sealed business date.
type AuditRecordDTO struct {
	Date             string         `json:"date"`
	ClosedAt         string         `json:"closed_at"`
	ClosedBy         string         `json:"closed_by"`
	Stats            audit.Snapshot `json:"stats"`
	FoliosGenerated  int            `json:"folios_generated"`
	NoShowsProcessed int            `json:"no_shows_processed"`
}

// AuditStatusDTO is the calendar and lock view for the dashboard.
type AuditStatusDTO struct {
	BusinessDate string          `json:"business_date"`
	OpeningDate  string          `json:"opening_date"`
	LastClosed   *string         `json:"last_closed"`
	NextClosable string          `json:"next_closable"`
	Locked       bool            `json:"locked"`
	Lock         *audit.LockInfo `json:"lock,omitempty"`
}

// =============================================================================
// OVERRIDE TYPES
// =============================================================================

// ReopenRequest is the body of POST /api/admin/reopen.
type ReopenRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type ReopenResultDTO struct {
	Date       string          `json:"date"`
	Entry      OverrideDTO     `json:"entry"`
	LastClosed *string         `json:"last_closed"`
}

type OverrideDTO struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Date      string `json:"date"`
	Reason    string `json:"reason"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

// =============================================================================
// HOTEL TYPES
// =============================================================================

type ReservationDTO struct {
	ID            string        `json:"id"`
	GuestName     string        `json:"guest_name"`
	RoomNumber    string        `json:"room_number"`
	CheckIn       string        `json:"check_in"`
	CheckOut      string        `json:"check_out"`
	Status        string        `json:"status"`
	TotalAmount   string        `json:"total_amount"`
	Paid          bool          `json:"paid"`
	PaidAmount    string        `json:"paid_amount"`
	Balance       string        `json:"balance"`
	CheckedInAt   *string       `json:"checked_in_at,omitempty"`
	NoShowDate    *string       `json:"no_show_date,omitempty"`
	NoShowPenalty string        `json:"no_show_penalty,omitempty"`
}

type RoomDTO struct {
	Number string `json:"number"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Rate   string `json:"rate"`
}

type ChecklistItemDTO struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// CreateChecklistItemRequest is the body of POST /api/checklist.
type CreateChecklistItemRequest struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// =============================================================================
// FOLIO TYPES
// =============================================================================

type FolioDTO struct {
	Number        string     `json:"number"`
	ReservationID string     `json:"reservation_id"`
	GuestName     string     `json:"guest_name"`
	RoomNumber    string     `json:"room_number"`
	Balance       string     `json:"balance"`
	Status        string     `json:"status"`
	Transactions  []FolioTxDTO `json:"transactions"`
}

type FolioTxDTO struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	RunningBalance string `json:"running_balance"`
	PostedBy       string `json:"posted_by,omitempty"`
	Reference      string `json:"reference,omitempty"`
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toCloseResultDTO(res *audit.CloseResult) CloseResultDTO {
	dto := CloseResultDTO{
		State:            string(res.State),
		Date:             res.Date.String(),
		Issues:           res.Issues,
		Stats:            res.Stats,
		FoliosGenerated:  res.FoliosGenerated,
		NoShowsProcessed: res.NoShowsProcessed,
		ReportRef:        res.ReportRef,
		Warnings:         res.Warnings,
	}
	if res.NoShows != nil {
		dto.NoShows = toNoShowSummaryDTO(res.NoShows)
	}
	if res.Record != nil {
		rec := toAuditRecordDTO(*res.Record)
		dto.Record = &rec
	}
	return dto
}

func toNoShowSummaryDTO(s *audit.NoShowSummary) *NoShowSummaryDTO {
	dto := &NoShowSummaryDTO{
		Date:         s.Date.String(),
		Guests:       s.Guests,
		TotalPenalty: s.TotalPenalty.StringFixed(2),
	}
	for _, c := range s.Candidates {
		dto.Candidates = append(dto.Candidates, NoShowCandidateDTO{
			ReservationID: c.Reservation.ID,
			GuestName:     c.Reservation.GuestName,
			RoomNumber:    c.Reservation.RoomNumber,
			Penalty:       c.Penalty.StringFixed(2),
		})
	}
	return dto
}

func toAuditRecordDTO(rec audit.NightAuditRecord) AuditRecordDTO {
	return AuditRecordDTO{
		Date:             rec.Date.String(),
		ClosedAt:         rec.ClosedAt.Format(time.RFC3339),
		ClosedBy:         rec.ClosedBy,
		Stats:            rec.Stats,
		FoliosGenerated:  rec.FoliosGenerated,
		NoShowsProcessed: rec.NoShowsProcessed,
	}
}

func toOverrideDTO(e audit.OverrideLogEntry) OverrideDTO {
	return OverrideDTO{
		ID:        e.ID,
		Action:    e.Action,
		Date:      e.Date.String(),
		Reason:    e.Reason,
		User:      e.User,
		Timestamp: e.Timestamp.Format(time.RFC3339),
	}
}

func toReservationDTO(r hotel.Reservation) ReservationDTO {
	dto := ReservationDTO{
		ID:            r.ID,
		GuestName:     r.GuestName,
		RoomNumber:    r.RoomNumber,
		CheckIn:       r.CheckIn.String(),
		CheckOut:      r.CheckOut.String(),
		Status:        string(r.Status),
		TotalAmount:   r.TotalAmount.StringFixed(2),
		Paid:          r.Paid,
		PaidAmount:    r.PaidAmount.StringFixed(2),
		Balance:       r.OutstandingBalance().StringFixed(2),
		NoShowPenalty: r.NoShowPenalty.StringFixed(2),
	}
	if r.CheckedInAt != nil {
		dto.CheckedInAt = strPtr(r.CheckedInAt.Format(time.RFC3339))
	}
	if r.NoShowDate != nil {
		dto.NoShowDate = strPtr(r.NoShowDate.String())
	}
	return dto
}

func toRoomDTO(r hotel.Room) RoomDTO {
	return RoomDTO{
		Number: r.Number,
		Type:   r.Type,
		Status: string(r.Status),
		Rate:   r.Rate.StringFixed(2),
	}
}

func toChecklistItemDTO(item hotel.ChecklistItem) ChecklistItemDTO {
	return ChecklistItemDTO{
		ID:    item.ID,
		Date:  item.Date.String(),
		Label: item.Label,
		Done:  item.Done,
	}
}

func toFolioDTO(f folio.Folio) FolioDTO {
	dto := FolioDTO{
		Number:        f.Number,
		ReservationID: f.ReservationID,
		GuestName:     f.GuestName,
		RoomNumber:    f.RoomNumber,
		Balance:       f.Balance.StringFixed(2),
		Status:        string(f.Status),
		Transactions:  []FolioTxDTO{},
	}
	for _, tx := range f.Transactions {
		dto.Transactions = append(dto.Transactions, FolioTxDTO{
			ID:             tx.ID,
			Date:           tx.Date.String(),
			Type:           string(tx.Type),
			Category:       string(tx.Category),
			Description:    tx.Description,
			Amount:         tx.Amount.StringFixed(2),
			RunningBalance: tx.RunningBalance.StringFixed(2),
			PostedBy:       tx.PostedBy,
			Reference:      tx.Reference,
		})
	}
	return dto
}

func strPtr(s string) *string {
	return &s
}
