/*
ledger.go - Folio generation

PURPOSE:
  One shared generation path for folios, used both at live check-in and
  retroactively by the closure engine when it resolves a pending
  checkout. The original system duplicated this logic in two screens;
  keeping a single Generate eliminates drift between the shapes.

LEDGER SHAPE (in posting order):
  1. One room charge per night, dated sequentially from check-in
  2. Value-added tax (18%) on the pre-tax room subtotal
  3. Municipal tax (1%) on the pre-tax room subtotal
  4. One payment per recorded guest payment

EDGE CASES:
  - nights <= 0: the stay is charged as a single night (malformed or
    same-day bookings must be tolerated, never divided by zero)
  - rounding: nightly rate is rounded to 2 decimals; the last night
    absorbs the remainder so charges always sum to the contracted total

SEE ALSO:
  - folio.go: transaction/folio types and balance invariant
  - audit/coordinator.go: closure-time invocation
*/
package folio

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/innkeep/night-audit/hotel"
)

// Tax rates applied to the pre-tax room subtotal.
var (
	VATRate          = decimal.NewFromFloat(0.18)
	MunicipalTaxRate = decimal.NewFromFloat(0.01)
)

// Ledger generates folios from reservations.
type Ledger struct {
	Numbers *NumberSource
}

// NewLedger creates a Ledger with the given number source.
func NewLedger(numbers *NumberSource) *Ledger {
	return &Ledger{Numbers: numbers}
}

// Generate builds the complete folio for a reservation. Pure with
// respect to stores: the caller persists the result.
func (l *Ledger) Generate(r hotel.Reservation, postedBy string) (*Folio, error) {
	nights := r.Nights()
	if nights < 1 {
		nights = 1
	}

	f := &Folio{
		Number:        l.Numbers.Next(),
		ReservationID: r.ID,
		GuestName:     r.GuestName,
		RoomNumber:    r.RoomNumber,
		Balance:       decimal.Zero,
		Status:        StatusOpen,
	}

	// Nightly room charges. The last night absorbs the rounding
	// remainder so the subtotal always equals the contracted amount.
	rate := r.TotalAmount.Div(decimal.NewFromInt(int64(nights))).Round(2)
	charged := decimal.Zero
	for night := 0; night < nights; night++ {
		amount := rate
		if night == nights-1 {
			amount = r.TotalAmount.Sub(charged)
		}
		charged = charged.Add(amount)

		err := f.Post(Transaction{
			Date:        r.CheckIn.AddDays(night),
			Type:        TxCharge,
			Category:    CategoryRoom,
			Description: fmt.Sprintf("Room %s - night %d of %d", r.RoomNumber, night+1, nights),
			Amount:      amount,
			PostedBy:    postedBy,
			Reference:   r.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	// Taxes on the pre-tax room subtotal, posted on the checkout date.
	taxDate := r.CheckOut
	if taxDate.IsZero() {
		taxDate = r.CheckIn
	}
	subtotal := f.TotalCharges()
	taxes := []struct {
		desc string
		rate decimal.Decimal
	}{
		{"Value-added tax (18%)", VATRate},
		{"Municipal tax (1%)", MunicipalTaxRate},
	}
	for _, tax := range taxes {
		err := f.Post(Transaction{
			Date:        taxDate,
			Type:        TxCharge,
			Category:    CategoryTax,
			Description: tax.desc,
			Amount:      subtotal.Mul(tax.rate).Round(2),
			PostedBy:    postedBy,
			Reference:   r.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	// Recorded payments, negative-signed in ledger terms.
	for _, p := range r.RecordedPayments() {
		desc := "Payment received"
		if p.Method != "" {
			desc = fmt.Sprintf("Payment received (%s)", p.Method)
		}
		err := f.Post(Transaction{
			Date:        p.Date,
			Type:        TxPayment,
			Category:    CategoryOther,
			Description: desc,
			Amount:      p.Amount,
			PostedBy:    postedBy,
			Reference:   r.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}
