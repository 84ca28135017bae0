package folio_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() *folio.Ledger {
	// Fixed clock keeps folio numbers deterministic.
	ts := time.Date(2024, time.March, 15, 2, 30, 0, 0, time.UTC)
	return folio.NewLedger(folio.NewNumberSourceAt(func() time.Time { return ts }))
}

func twoNightStay() hotel.Reservation {
	checkIn := hotel.NewDate(2024, time.March, 13)
	return hotel.Reservation{
		ID:          "res-42",
		GuestName:   "James Whitfield",
		RoomNumber:  "102",
		CheckIn:     checkIn,
		CheckOut:    checkIn.AddDays(2),
		Status:      hotel.StatusCheckedIn,
		TotalAmount: decimal.NewFromInt(300),
		Paid:        true,
		PaidAmount:  decimal.NewFromInt(300),
	}
}

// =============================================================================
// GENERATION TESTS
// =============================================================================

func TestLedger_Generate_TwoNightPrepaidStay(t *testing.T) {
	// GIVEN: A prepaid 2-night stay at 300 total
	// WHEN: Generating the folio
	// THEN: Two room charges of 150, 18% VAT, 1% municipal tax, one payment

	f, err := newTestLedger().Generate(twoNightStay(), "night-auditor")
	require.NoError(t, err)

	require.Len(t, f.Transactions, 5)

	night1, night2 := f.Transactions[0], f.Transactions[1]
	assert.Equal(t, folio.CategoryRoom, night1.Category)
	assert.Equal(t, "150", night1.Amount.String())
	assert.Equal(t, "2024-03-13", night1.Date.String())
	assert.Equal(t, "150", night2.Amount.String())
	assert.Equal(t, "2024-03-14", night2.Date.String())

	vat, municipal := f.Transactions[2], f.Transactions[3]
	assert.Equal(t, folio.CategoryTax, vat.Category)
	assert.Equal(t, "54", vat.Amount.String(), "18%% of 300")
	assert.Equal(t, "3", municipal.Amount.String(), "1%% of 300")
	assert.Equal(t, "2024-03-15", vat.Date.String(), "taxes post on the checkout date")

	payment := f.Transactions[4]
	assert.Equal(t, folio.TxPayment, payment.Type)
	assert.Equal(t, "300", payment.Amount.String())

	// 300 + 54 + 3 - 300: the tax remainder stays on the open folio
	assert.Equal(t, "57", f.Balance.String())
	assert.Equal(t, folio.StatusOpen, f.Status)
	assert.Equal(t, "night-auditor", night1.PostedBy)
	assert.Equal(t, "res-42", night1.Reference)
}

func TestLedger_Generate_RoundingRemainderOnLastNight(t *testing.T) {
	// GIVEN: 100 total over 3 nights (33.333... per night)
	// WHEN: Generating the folio
	// THEN: 33.33 + 33.33 + 33.34; charges sum exactly to the contracted total

	r := twoNightStay()
	r.CheckOut = r.CheckIn.AddDays(3)
	r.TotalAmount = decimal.NewFromInt(100)
	r.Paid = false
	r.PaidAmount = decimal.Zero

	f, err := newTestLedger().Generate(r, "night-auditor")
	require.NoError(t, err)

	assert.Equal(t, "33.33", f.Transactions[0].Amount.String())
	assert.Equal(t, "33.33", f.Transactions[1].Amount.String())
	assert.Equal(t, "33.34", f.Transactions[2].Amount.String())

	roomTotal := f.Transactions[0].Amount.
		Add(f.Transactions[1].Amount).
		Add(f.Transactions[2].Amount)
	assert.True(t, roomTotal.Equal(r.TotalAmount), "room charges must sum to the contracted amount")
}

func TestLedger_Generate_ZeroNightStayChargedAsOne(t *testing.T) {
	// GIVEN: A malformed same-day booking (checkout == checkin)
	// WHEN: Generating the folio
	// THEN: One full-amount room charge, no division by zero

	r := twoNightStay()
	r.CheckOut = r.CheckIn
	r.Paid = false
	r.PaidAmount = decimal.Zero

	f, err := newTestLedger().Generate(r, "night-auditor")
	require.NoError(t, err)

	var roomCharges []folio.Transaction
	for _, tx := range f.Transactions {
		if tx.Category == folio.CategoryRoom {
			roomCharges = append(roomCharges, tx)
		}
	}
	require.Len(t, roomCharges, 1)
	assert.Equal(t, "300", roomCharges[0].Amount.String())
}

func TestLedger_Generate_UnpaidStayHasNoPaymentLine(t *testing.T) {
	// GIVEN: A stay with nothing paid
	// WHEN: Generating the folio
	// THEN: No payment transaction; balance equals charges incl. taxes

	r := twoNightStay()
	r.Paid = false
	r.PaidAmount = decimal.Zero

	f, err := newTestLedger().Generate(r, "night-auditor")
	require.NoError(t, err)

	for _, tx := range f.Transactions {
		assert.NotEqual(t, folio.TxPayment, tx.Type)
	}
	assert.Equal(t, "357", f.Balance.String())
	assert.False(t, f.IsSettled())
}

func TestLedger_Generate_ItemizedPaymentsCarriedOver(t *testing.T) {
	// GIVEN: A stay with two recorded payments
	// WHEN: Generating the folio
	// THEN: One payment line per recorded payment, method in the description

	r := twoNightStay()
	r.Payments = []hotel.Payment{
		{Date: r.CheckIn, Amount: decimal.NewFromInt(200), Method: "card"},
		{Date: r.CheckIn.AddDays(1), Amount: decimal.NewFromInt(100), Method: "cash"},
	}

	f, err := newTestLedger().Generate(r, "night-auditor")
	require.NoError(t, err)

	var payments []folio.Transaction
	for _, tx := range f.Transactions {
		if tx.Type == folio.TxPayment {
			payments = append(payments, tx)
		}
	}
	require.Len(t, payments, 2)
	assert.Contains(t, payments[0].Description, "card")
	assert.Contains(t, payments[1].Description, "cash")
	assert.Equal(t, "57", f.Balance.String())
}

// =============================================================================
// NUMBERING TESTS
// =============================================================================

func TestNumberSource_UniqueWithinSecond(t *testing.T) {
	// GIVEN: A number source pinned to one instant
	// WHEN: Drawing several numbers
	// THEN: All distinct, sequence suffix increments

	ts := time.Date(2024, time.March, 15, 2, 30, 0, 0, time.UTC)
	src := folio.NewNumberSourceAt(func() time.Time { return ts })

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := src.Next()
		assert.False(t, seen[n], "duplicate folio number %s", n)
		seen[n] = true
	}
}
