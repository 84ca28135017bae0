/*
handlers.go - HTTP API handlers for the day-closure engine

PURPOSE:
  Exposes the night-audit engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Audit:
    GET    /api/audit/status           Calendar and lock state
    GET    /api/audit/preview/{date}   Read-only validation + no-show preview
    POST   /api/audit/close            Run the closure state machine
    GET    /api/audit/records          Closure history
    GET    /api/audit/records/{date}   One sealed date
    GET    /api/audit/overrides        Override log
    GET    /api/audit/stats/{date}     Statistics (sealed or live)

  Admin:
    POST   /api/admin/reopen           Reopen a sealed date (admin role)

  Hotel:
    GET    /api/reservations           List reservations
    GET    /api/reservations/{id}      One reservation
    GET    /api/rooms                  Room inventory
    GET    /api/folios                 List folios
    GET    /api/folios/{number}        One folio with line items
    GET    /api/checklist?date=        Checklist for a date
    POST   /api/checklist              Add checklist item
    POST   /api/checklist/{id}/complete Mark item done

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (lock held, duplicate seal)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Bearer-token auth, actor extraction
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/innkeep/night-audit/audit"
	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Coordinator *audit.Coordinator
	Overrides   *audit.OverrideManager

	Reservations hotel.ReservationStore
	Rooms        hotel.RoomStore
	Checklist    hotel.ChecklistStore
	Folios       folio.Store
	Audit        audit.Store

	// DefaultRecipients receive the closure report when the request
	// names none.
	DefaultRecipients []string
}

// NewHandler wires a handler around the coordinator; the store fields
// mirror the coordinator's own.
func NewHandler(c *audit.Coordinator, o *audit.OverrideManager) *Handler {
	return &Handler{
		Coordinator:  c,
		Overrides:    o,
		Reservations: c.Reservations,
		Rooms:        c.Rooms,
		Checklist:    c.Checklist,
		Folios:       c.Folios,
		Audit:        c.Audit,
	}
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// GetAuditStatus returns the calendar and lock view.
// GET /api/audit/status
func (h *Handler) GetAuditStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	business, err := h.Audit.BusinessDate(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read calendar", err)
		return
	}
	opening, err := h.Audit.OpeningDate(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read calendar", err)
		return
	}
	last, err := h.Audit.LastClosed(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read closure history", err)
		return
	}
	next, err := audit.ExpectedNext(ctx, h.Audit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute next closable date", err)
		return
	}

	dto := AuditStatusDTO{
		BusinessDate: business.String(),
		OpeningDate:  opening.String(),
		NextClosable: next.String(),
		Locked:       h.Coordinator.Lock.Held(),
		Lock:         h.Coordinator.Lock.Holder(),
	}
	if last != nil {
		dto.LastClosed = strPtr(last.String())
	}
	writeJSON(w, http.StatusOK, dto)
}

// PreviewClose runs validation and no-show detection without mutating.
// GET /api/audit/preview/{date}
func (h *Handler) PreviewClose(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r, "date")
	if !ok {
		return
	}

	result, err := h.Coordinator.Preview(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Preview failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toCloseResultDTO(result))
}

// CloseDay runs the full closure state machine.
// POST /api/audit/close
func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	var req CloseDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := hotel.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	confirm := audit.DeclineAll
	if req.ConfirmNoShows {
		confirm = audit.ConfirmAll
	}
	recipients := req.Recipients
	if len(recipients) == 0 {
		recipients = h.DefaultRecipients
	}

	start := time.Now()
	result, err := h.Coordinator.CloseDay(r.Context(), audit.CloseRequest{
		Date:       date,
		Actor:      actorFrom(r),
		Recipients: recipients,
		Confirm:    confirm,
	})
	observeClosure(result, err, time.Since(start))

	if err != nil {
		var lockErr *audit.LockHeldError
		if errors.As(err, &lockErr) {
			writeError(w, http.StatusConflict, "Night audit already in progress", err)
			return
		}
		status := http.StatusInternalServerError
		if audit.IsClientError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Closure failed", err)
		return
	}

	status := http.StatusOK
	if result.State == audit.StateBlocked {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, toCloseResultDTO(result))
}

// ListRecords returns the closure history, oldest first.
// GET /api/audit/records
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.Audit.Records(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}
	dtos := make([]AuditRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAuditRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRecord returns one sealed date.
// GET /api/audit/records/{date}
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r, "date")
	if !ok {
		return
	}
	rec, err := h.Audit.Record(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get record", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "No closure record for "+date.String(), nil)
		return
	}
	writeJSON(w, http.StatusOK, toAuditRecordDTO(*rec))
}

// ListOverrides returns the override log, oldest first.
// GET /api/audit/overrides
func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Audit.Overrides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list overrides", err)
		return
	}
	dtos := make([]OverrideDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toOverrideDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStats returns the statistics snapshot for a date: the sealed
// numbers when the date is closed, a live computation otherwise.
// GET /api/audit/stats/{date}
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, ok := dateParam(w, r, "date")
	if !ok {
		return
	}

	rec, err := h.Audit.Record(ctx, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get record", err)
		return
	}
	if rec != nil {
		writeJSON(w, http.StatusOK, rec.Stats)
		return
	}

	reservations, err := h.Reservations.Reservations(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reservations", err)
		return
	}
	rooms, err := h.Rooms.Rooms(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms", err)
		return
	}
	writeJSON(w, http.StatusOK, audit.ComputeSnapshot(date, reservations, rooms))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ReopenDay removes the seal for a date. Admin role required.
// POST /api/admin/reopen
func (h *Handler) ReopenDay(w http.ResponseWriter, r *http.Request) {
	var req ReopenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := hotel.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}

	result, err := h.Overrides.ReopenDay(r.Context(), date, req.Reason, actorFrom(r))
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrReasonTooShort):
			writeError(w, http.StatusBadRequest, "Reason must be at least 10 characters", err)
		case errors.Is(err, audit.ErrRecordNotFound):
			writeError(w, http.StatusNotFound, "No closure record for "+date.String(), err)
		default:
			writeError(w, http.StatusInternalServerError, "Reopen failed", err)
		}
		return
	}

	dto := ReopenResultDTO{
		Date:  result.Date.String(),
		Entry: toOverrideDTO(result.Entry),
	}
	if result.LastClosed != nil {
		dto.LastClosed = strPtr(result.LastClosed.String())
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// HOTEL HANDLERS
// =============================================================================

// ListReservations returns all reservations.
// GET /api/reservations
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.Reservations.Reservations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reservations", err)
		return
	}
	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReservation returns a single reservation.
// GET /api/reservations/{id}
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.Reservations.Reservation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reservation", err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "Reservation not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// ListRooms returns the room inventory.
// GET /api/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.Rooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms", err)
		return
	}
	dtos := make([]RoomDTO, len(rooms))
	for i, room := range rooms {
		dtos[i] = toRoomDTO(room)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListFolios returns all folios.
// GET /api/folios
func (h *Handler) ListFolios(w http.ResponseWriter, r *http.Request) {
	folios, err := h.Folios.Folios(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list folios", err)
		return
	}
	dtos := make([]FolioDTO, len(folios))
	for i, f := range folios {
		dtos[i] = toFolioDTO(f)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetFolio returns a single folio with its line items.
// GET /api/folios/{number}
func (h *Handler) GetFolio(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	f, err := h.Folios.Folio(r.Context(), number)
	if err != nil {
		if errors.Is(err, folio.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Folio not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get folio", err)
		return
	}
	writeJSON(w, http.StatusOK, toFolioDTO(*f))
}

// ListChecklist returns checklist items for a date.
// GET /api/checklist?date=YYYY-MM-DD
func (h *Handler) ListChecklist(w http.ResponseWriter, r *http.Request) {
	date, err := hotel.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing date query parameter", err)
		return
	}
	items, err := h.Checklist.ChecklistItems(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list checklist", err)
		return
	}
	dtos := make([]ChecklistItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toChecklistItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateChecklistItem adds an item to a date's checklist.
// POST /api/checklist
func (h *Handler) CreateChecklistItem(w http.ResponseWriter, r *http.Request) {
	var req CreateChecklistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := hotel.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return
	}
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "Label is required", nil)
		return
	}

	item := hotel.ChecklistItem{ID: uuid.NewString(), Date: date, Label: req.Label}
	if err := h.Checklist.SaveChecklistItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save checklist item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChecklistItemDTO(item))
}

// CompleteChecklistItem marks an item done.
// POST /api/checklist/{id}/complete
func (h *Handler) CompleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Checklist.CompleteChecklistItem(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "Checklist item not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func dateParam(w http.ResponseWriter, r *http.Request, name string) (hotel.Date, bool) {
	date, err := hotel.ParseDate(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", err)
		return hotel.Date{}, false
	}
	return date, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
