package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/innkeep/night-audit/hotel"
)

// Seed loads a small demo dataset for dev mode: a handful of rooms,
// a continuing guest, a departure due today, and an arrival who never
// showed up. Business date is opening + 2 so the first two days are
// closable in sequence.
func Seed(ctx context.Context, s *Store, opening hotel.Date) error {
	rooms := []hotel.Room{
		{Number: "101", Type: "single", Status: hotel.RoomOccupied, Rate: decimal.NewFromInt(90)},
		{Number: "102", Type: "double", Status: hotel.RoomOccupied, Rate: decimal.NewFromInt(150)},
		{Number: "103", Type: "double", Status: hotel.RoomVacant, Rate: decimal.NewFromInt(150)},
		{Number: "201", Type: "suite", Status: hotel.RoomVacant, Rate: decimal.NewFromInt(240)},
	}
	for _, r := range rooms {
		if err := s.SaveRoom(ctx, r); err != nil {
			return err
		}
	}

	checkedIn := opening.Time().Add(15 * time.Hour)
	reservations := []hotel.Reservation{
		{
			ID: "res-1001", GuestName: "Maria Kovacs", RoomNumber: "101",
			CheckIn: opening, CheckOut: opening.AddDays(1),
			Status:      hotel.StatusCheckedIn,
			TotalAmount: decimal.NewFromInt(90),
			Paid:        true, PaidAmount: decimal.NewFromInt(90),
			CheckedInAt: &checkedIn,
		},
		{
			ID: "res-1002", GuestName: "James Whitfield", RoomNumber: "102",
			CheckIn: opening, CheckOut: opening.AddDays(3),
			Status:      hotel.StatusCheckedIn,
			TotalAmount: decimal.NewFromInt(450),
			Paid:        true, PaidAmount: decimal.NewFromInt(450),
			CheckedInAt: &checkedIn,
		},
		{
			ID: "res-1003", GuestName: "Elena Petrova", RoomNumber: "201",
			CheckIn: opening, CheckOut: opening.AddDays(2),
			Status:      hotel.StatusConfirmed,
			TotalAmount: decimal.NewFromInt(480),
		},
	}
	for _, r := range reservations {
		if err := s.SaveReservation(ctx, r); err != nil {
			return err
		}
	}

	items := []hotel.ChecklistItem{
		{ID: "chk-1", Date: opening, Label: "Post outstanding minibar charges", Done: true},
		{ID: "chk-2", Date: opening, Label: "Verify credit card batch", Done: true},
	}
	for _, item := range items {
		if err := s.SaveChecklistItem(ctx, item); err != nil {
			return err
		}
	}

	return s.SetBusinessDate(ctx, opening.AddDays(2))
}
