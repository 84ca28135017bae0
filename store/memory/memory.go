// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/innkeep/night-audit/audit"
	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// MEMORY STORE - Implements every store interface of the engine
// =============================================================================

type Store struct {
	mu sync.RWMutex

	reservations map[string]hotel.Reservation
	rooms        map[string]hotel.Room
	checklist    map[string]hotel.ChecklistItem

	folios       map[string]folio.Folio // by folio number
	folioByResID map[string]string      // reservation ID -> folio number

	records   map[string]audit.NightAuditRecord // by date string
	overrides []audit.OverrideLogEntry

	opening  hotel.Date
	business hotel.Date
}

// New creates an empty store whose calendar opens (and currently
// operates) on the given date.
func New(opening hotel.Date) *Store {
	return &Store{
		reservations: make(map[string]hotel.Reservation),
		rooms:        make(map[string]hotel.Room),
		checklist:    make(map[string]hotel.ChecklistItem),
		folios:       make(map[string]folio.Folio),
		folioByResID: make(map[string]string),
		records:      make(map[string]audit.NightAuditRecord),
		opening:      opening,
		business:     opening,
	}
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) Reservation(_ context.Context, id string) (*hotel.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) Reservations(_ context.Context) ([]hotel.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]hotel.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveReservation(_ context.Context, r hotel.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = r
	return nil
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Store) Rooms(_ context.Context) ([]hotel.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]hotel.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) Room(_ context.Context, number string) (*hotel.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[number]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *Store) SaveRoom(_ context.Context, r hotel.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.Number] = r
	return nil
}

func (s *Store) SetRoomStatus(_ context.Context, number string, status hotel.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[number]
	if !ok {
		return fmt.Errorf("room %s not found", number)
	}
	r.Status = status
	s.rooms[number] = r
	return nil
}

// =============================================================================
// CHECKLIST
// =============================================================================

func (s *Store) ChecklistItems(_ context.Context, date hotel.Date) ([]hotel.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []hotel.ChecklistItem
	for _, item := range s.checklist {
		if item.Date.Equal(date) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveChecklistItem(_ context.Context, item hotel.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.checklist[item.ID] = item
	return nil
}

func (s *Store) CompleteChecklistItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.checklist[id]
	if !ok {
		return fmt.Errorf("checklist item %s not found", id)
	}
	item.Done = true
	s.checklist[id] = item
	return nil
}

// =============================================================================
// FOLIOS
// =============================================================================

func (s *Store) Folio(_ context.Context, number string) (*folio.Folio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folios[number]
	if !ok {
		return nil, folio.ErrNotFound
	}
	return copyFolio(f), nil
}

func (s *Store) FolioByReservation(_ context.Context, reservationID string) (*folio.Folio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	number, ok := s.folioByResID[reservationID]
	if !ok {
		return nil, nil
	}
	f := s.folios[number]
	return copyFolio(f), nil
}

func (s *Store) Folios(_ context.Context) ([]folio.Folio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]folio.Folio, 0, len(s.folios))
	for _, f := range s.folios {
		out = append(out, *copyFolio(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) SaveFolio(_ context.Context, f folio.Folio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folios[f.Number] = *copyFolio(f)
	if f.ReservationID != "" {
		s.folioByResID[f.ReservationID] = f.Number
	}
	return nil
}

func copyFolio(f folio.Folio) *folio.Folio {
	txs := make([]folio.Transaction, len(f.Transactions))
	copy(txs, f.Transactions)
	f.Transactions = txs
	return &f
}

// =============================================================================
// AUDIT RECORDS / OVERRIDE LOG / CALENDAR
// =============================================================================

func (s *Store) Record(_ context.Context, date hotel.Date) (*audit.NightAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[date.String()]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *Store) Records(_ context.Context) ([]audit.NightAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.NightAuditRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) SaveRecord(_ context.Context, rec audit.NightAuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Date.String()
	if _, exists := s.records[key]; exists {
		return audit.ErrDuplicateRecord
	}
	s.records[key] = rec
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, date hotel.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.String()
	if _, exists := s.records[key]; !exists {
		return audit.ErrRecordNotFound
	}
	delete(s.records, key)
	return nil
}

func (s *Store) LastClosed(_ context.Context) (*hotel.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *hotel.Date
	for _, rec := range s.records {
		d := rec.Date
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last, nil
}

func (s *Store) AppendOverride(_ context.Context, entry audit.OverrideLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = append(s.overrides, entry)
	return nil
}

func (s *Store) Overrides(_ context.Context) ([]audit.OverrideLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.OverrideLogEntry, len(s.overrides))
	copy(out, s.overrides)
	return out, nil
}

func (s *Store) OpeningDate(_ context.Context) (hotel.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opening, nil
}

func (s *Store) BusinessDate(_ context.Context) (hotel.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.business, nil
}

func (s *Store) SetBusinessDate(_ context.Context, date hotel.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business = date
	return nil
}
