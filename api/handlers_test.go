package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/night-audit/api"
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

// Seeded demo calendar: opened June 1, operating on June 3.
var apiOpening = hotel.NewDate(2024, time.June, 1)

func newTestServer(t *testing.T, secret string) (http.Handler, *memory.Store) {
	st := memory.New(apiOpening)
	require.NoError(t, memory.Seed(context.Background(), st, apiOpening))

	coordinator := &audit.Coordinator{
		Reservations: st,
		Rooms:        st,
		Folios:       st,
		Audit:        st,
		Shifts:       hotel.NoOpenShifts,
		Checklist:    st,
		Lock:         audit.NewSystemLock(),
		Ledger:       folio.NewLedger(folio.NewNumberSource()),
		Exporter:     report.NewHTMLExporter(report.NewMemoryDispatcher()),
		Notifier:     notify.NewMemory(),
	}
	overrides := &audit.OverrideManager{Audit: st, Notifier: coordinator.Notifier}

	handler := api.NewHandler(coordinator, overrides)
	return api.NewRouter(handler, secret), st
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	require.NoError(t, json.NewDecoder(rec.Body).Decode(into))
}

func mintToken(t *testing.T, secret, subject, role string) string {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// =============================================================================
// CLOSURE ENDPOINTS
// =============================================================================

func TestAPI_CloseDay_Complete(t *testing.T) {
	// GIVEN: The seeded hotel, auth disabled
	// WHEN: Closing June 1 with no-shows confirmed
	// THEN: 200 COMPLETE and the record shows up in the history

	srv, _ := newTestServer(t, "")

	rec := doJSON(t, srv, http.MethodPost, "/api/audit/close", "", api.CloseDayRequest{
		Date: "2024-06-01", ConfirmNoShows: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.CloseResultDTO
	decode(t, rec, &result)
	assert.Equal(t, "COMPLETE", result.State)
	assert.Equal(t, 1, result.NoShowsProcessed)

	rec = doJSON(t, srv, http.MethodGet, "/api/audit/records", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []api.AuditRecordDTO
	decode(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-06-01", records[0].Date)
}

func TestAPI_CloseDay_DeclinedNoShowsReturn422(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := doJSON(t, srv, http.MethodPost, "/api/audit/close", "", api.CloseDayRequest{
		Date: "2024-06-01", ConfirmNoShows: false,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var result api.CloseResultDTO
	decode(t, rec, &result)
	assert.Equal(t, "BLOCKED", result.State)
	assert.NotEmpty(t, result.Issues)
}

func TestAPI_CloseDay_InvalidDate(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rec := doJSON(t, srv, http.MethodPost, "/api/audit/close", "", api.CloseDayRequest{Date: "June 1st"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Preview(t *testing.T) {
	// Preview of June 1: blocked by the pending arrival, nothing mutated.
	srv, st := newTestServer(t, "")

	rec := doJSON(t, srv, http.MethodGet, "/api/audit/preview/2024-06-01", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result api.CloseResultDTO
	decode(t, rec, &result)
	assert.Equal(t, "BLOCKED", result.State)
	require.NotNil(t, result.NoShows)
	assert.Equal(t, 1, result.NoShows.Guests)
	assert.Equal(t, "240.00", result.NoShows.TotalPenalty)

	guest, err := st.Reservation(context.Background(), "res-1003")
	require.NoError(t, err)
	assert.Equal(t, hotel.StatusConfirmed, guest.Status)
}

func TestAPI_Status(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := doJSON(t, srv, http.MethodGet, "/api/audit/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status api.AuditStatusDTO
	decode(t, rec, &status)
	assert.Equal(t, "2024-06-03", status.BusinessDate)
	assert.Equal(t, "2024-06-01", status.OpeningDate)
	assert.Equal(t, "2024-06-01", status.NextClosable)
	assert.Nil(t, status.LastClosed)
	assert.False(t, status.Locked)
}

// =============================================================================
// AUTH
// =============================================================================

func TestAPI_AuthRequired(t *testing.T) {
	// GIVEN: A server with a JWT secret configured
	// THEN: No token is 401; a valid token works and its subject becomes
	//       the recorded actor

	const secret = "test-secret"
	srv, st := newTestServer(t, secret)

	rec := doJSON(t, srv, http.MethodGet, "/api/audit/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/audit/status", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := mintToken(t, secret, "alice", "auditor")
	rec = doJSON(t, srv, http.MethodPost, "/api/audit/close", token, api.CloseDayRequest{
		Date: "2024-06-01", ConfirmNoShows: true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sealed, err := st.Record(context.Background(), apiOpening)
	require.NoError(t, err)
	require.NotNil(t, sealed)
	assert.Equal(t, "alice", sealed.ClosedBy)
}

func TestAPI_ReopenRequiresAdminRole(t *testing.T) {
	const secret = "test-secret"
	srv, _ := newTestServer(t, secret)

	auditor := mintToken(t, secret, "alice", "auditor")
	admin := mintToken(t, secret, "manager", api.RoleAdmin)

	rec := doJSON(t, srv, http.MethodPost, "/api/audit/close", auditor, api.CloseDayRequest{
		Date: "2024-06-01", ConfirmNoShows: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := api.ReopenRequest{Date: "2024-06-01", Reason: "statistics disputed by management"}

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/reopen", auditor, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/admin/reopen", admin, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.ReopenResultDTO
	decode(t, rec, &result)
	assert.Equal(t, "manager", result.Entry.User)
	assert.Nil(t, result.LastClosed)
}

func TestAPI_ReopenValidation(t *testing.T) {
	srv, _ := newTestServer(t, "")

	// Reason under the 10 character minimum
	rec := doJSON(t, srv, http.MethodPost, "/api/admin/reopen",
		"", api.ReopenRequest{Date: "2024-06-01", Reason: "oops"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Day never sealed
	rec = doJSON(t, srv, http.MethodPost, "/api/admin/reopen",
		"", api.ReopenRequest{Date: "2024-06-01", Reason: "a perfectly valid reason"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// HOTEL ENDPOINTS
// =============================================================================

func TestAPI_ReservationsAndRooms(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := doJSON(t, srv, http.MethodGet, "/api/reservations", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reservations []api.ReservationDTO
	decode(t, rec, &reservations)
	assert.Len(t, reservations, 3)

	rec = doJSON(t, srv, http.MethodGet, "/api/reservations/res-1003", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var r api.ReservationDTO
	decode(t, rec, &r)
	assert.Equal(t, "Elena Petrova", r.GuestName)

	rec = doJSON(t, srv, http.MethodGet, "/api/reservations/res-9999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/rooms", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rooms []api.RoomDTO
	decode(t, rec, &rooms)
	assert.Len(t, rooms, 4)
}

func TestAPI_FolioNotFound(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rec := doJSON(t, srv, http.MethodGet, "/api/folios/F-nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ChecklistLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rec := doJSON(t, srv, http.MethodPost, "/api/checklist", "", api.CreateChecklistItemRequest{
		Date: "2024-06-02", Label: "Post minibar charges",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var item api.ChecklistItemDTO
	decode(t, rec, &item)
	require.NotEmpty(t, item.ID)
	assert.False(t, item.Done)

	rec = doJSON(t, srv, http.MethodPost, "/api/checklist/"+item.ID+"/complete", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/checklist?date=2024-06-02", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []api.ChecklistItemDTO
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.True(t, items[0].Done)
}

func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
