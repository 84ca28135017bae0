/*
Package folio implements the per-stay guest billing ledger.

PURPOSE:
  A Folio is the ordered, append-only list of charges and payments for
  one reservation, with a running balance maintained transaction by
  transaction. Folios are created at check-in, or retroactively by the
  closure engine when it processes a pending checkout - both paths go
  through the same Ledger.Generate so the two shapes can never drift.

CRITICAL INVARIANTS:
  1. Transactions are append-only and immutable once posted
  2. balance == sum(charges) - sum(payments) after every append
  3. Folio numbers are unique within a store (monotonic time source)
  4. A folio with positive balance must remain open

SEE ALSO:
  - ledger.go: folio generation from a reservation
  - number.go: monotonic folio numbering
  - audit package: gate 5 consumes folio balances
*/
package folio

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/innkeep/night-audit/hotel"
)

// =============================================================================
// TRANSACTION - Immutable ledger line item
// =============================================================================

type TransactionType string

const (
	TxCharge  TransactionType = "charge"
	TxPayment TransactionType = "payment"
)

type Category string

const (
	CategoryRoom  Category = "room"
	CategoryTax   Category = "tax"
	CategoryOther Category = "other"
)

// Transaction is one immutable folio line item. Amount is always
// positive; the type carries the sign (charges add to the balance,
// payments subtract). RunningBalance is the balance after posting.
type Transaction struct {
	ID             string
	Date           hotel.Date
	Type           TransactionType
	Category       Category
	Description    string
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
	PostedBy       string
	Reference      string
}

// Signed returns the amount with the ledger sign applied.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TxPayment {
		return t.Amount.Neg()
	}
	return t.Amount
}

// =============================================================================
// FOLIO
// =============================================================================

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type Folio struct {
	Number        string
	ReservationID string
	GuestName     string
	RoomNumber    string
	Transactions  []Transaction
	Balance       decimal.Decimal
	Status        Status
}

var (
	// ErrFolioClosed is returned when posting to a closed folio.
	ErrFolioClosed = errors.New("folio is closed")

	// ErrUnsettled is returned when closing a folio with a positive balance.
	ErrUnsettled = errors.New("folio has outstanding balance")

	// ErrNotFound is returned when a folio does not exist.
	ErrNotFound = errors.New("folio not found")
)

// Post appends a transaction, stamping its ID and running balance.
// The only write path; transactions are never edited afterwards.
func (f *Folio) Post(tx Transaction) error {
	if f.Status == StatusClosed {
		return ErrFolioClosed
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	f.Balance = f.Balance.Add(tx.Signed())
	tx.RunningBalance = f.Balance
	f.Transactions = append(f.Transactions, tx)
	return nil
}

// TotalCharges sums all charge amounts.
func (f *Folio) TotalCharges() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range f.Transactions {
		if tx.Type == TxCharge {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TotalPayments sums all payment amounts.
func (f *Folio) TotalPayments() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range f.Transactions {
		if tx.Type == TxPayment {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// IsSettled reports whether the balance is zero or in the guest's favor.
func (f *Folio) IsSettled() bool {
	return !f.Balance.IsPositive()
}

// CloseIfSettled marks a settled folio closed. A folio with a positive
// balance stays open and blocks day closure upstream.
func (f *Folio) CloseIfSettled() error {
	if !f.IsSettled() {
		return ErrUnsettled
	}
	f.Status = StatusClosed
	return nil
}

// =============================================================================
// STORE
// =============================================================================

// Store persists folios.
type Store interface {
	Folio(ctx context.Context, number string) (*Folio, error)
	FolioByReservation(ctx context.Context, reservationID string) (*Folio, error)
	Folios(ctx context.Context) ([]Folio, error)
	SaveFolio(ctx context.Context, f Folio) error
}
