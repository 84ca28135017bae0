/*
stats.go - Statistics aggregator

PURPOSE:
  Computes the closing snapshot for a business date from reservation
  and room state. Pure: no stores, no side effects, idempotent for a
  fixed input. The coordinator calls it once per seal; the API exposes
  it for any date on demand.

DEFINITIONS:
  check-ins        arrivals scheduled on the date
  check-outs       departures scheduled on the date
  occupied rooms   stays spanning the night (arrival inclusive,
                   departure exclusive)
  revenue          contracted amounts of paid stays arriving that date
  occupancy rate   occupied / total rooms, nearest whole percent
  average rate     revenue / check-ins

SEE ALSO:
  - coordinator.go: snapshot taken between PROCESSING and SEALING
*/
package audit

import (
	"github.com/shopspring/decimal"

	"github.com/innkeep/night-audit/hotel"
)

// Snapshot is the computed statistics for one business date.
type Snapshot struct {
	Date          hotel.Date      `json:"date"`
	CheckIns      int             `json:"check_ins"`
	CheckOuts     int             `json:"check_outs"`
	OccupiedRooms int             `json:"occupied_rooms"`
	TotalRooms    int             `json:"total_rooms"`
	OccupancyRate int             `json:"occupancy_rate"`
	Revenue       decimal.Decimal `json:"revenue"`
	AverageRate   decimal.Decimal `json:"average_rate"`
	NoShows       int             `json:"no_shows"`
}

// ComputeSnapshot aggregates statistics for the date from the given
// reservation and room snapshots.
func ComputeSnapshot(date hotel.Date, reservations []hotel.Reservation, rooms []hotel.Room) Snapshot {
	snap := Snapshot{
		Date:        date,
		TotalRooms:  len(rooms),
		Revenue:     decimal.Zero,
		AverageRate: decimal.Zero,
	}

	for _, r := range reservations {
		if r.Status == hotel.StatusCancelled {
			continue
		}

		if r.CheckIn.Equal(date) {
			if r.Status == hotel.StatusNoShow {
				snap.NoShows++
			} else {
				snap.CheckIns++
				if r.Paid {
					snap.Revenue = snap.Revenue.Add(r.TotalAmount)
				}
			}
		}

		if r.CheckOut.Equal(date) && r.Status != hotel.StatusNoShow {
			snap.CheckOuts++
		}

		if r.OccupiesNight(date) &&
			(r.Status == hotel.StatusCheckedIn || r.Status == hotel.StatusCheckedOut) {
			snap.OccupiedRooms++
		}
	}

	if snap.TotalRooms > 0 {
		pct := decimal.NewFromInt(int64(snap.OccupiedRooms)).
			Div(decimal.NewFromInt(int64(snap.TotalRooms))).
			Mul(decimal.NewFromInt(100))
		snap.OccupancyRate = int(pct.Round(0).IntPart())
	}
	if snap.CheckIns > 0 {
		snap.AverageRate = snap.Revenue.
			Div(decimal.NewFromInt(int64(snap.CheckIns))).
			Round(2)
	}
	return snap
}
