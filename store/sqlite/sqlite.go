/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the engine (reservations,
  rooms, checklist, folios, audit records, override log, calendar)
  using SQLite. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  hotel.ReservationStore, hotel.RoomStore, hotel.ChecklistStore
  folio.Store
  audit.Store

KEY TABLES:
  reservations:  guest stays (payments itemized as a JSON column)
  rooms:         inventory and occupancy state
  checklist:     operator checklist items per business date
  folios:        billing ledger headers
  folio_txns:    immutable ledger line items, ordered by position
  audit_records: one row per sealed business date (UNIQUE on date)
  override_log:  append-only administrative reopen trail
  calendar:      single-row opening/business date

SEAL UNIQUENESS:
  The PRIMARY KEY on audit_records.date is what makes the seal
  at-most-once even under concurrent writers; a second insert maps to
  audit.ErrDuplicateRecord.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/hotel.db", opening)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/memory: in-memory implementation for testing
  - audit/record.go: the store contract for seals
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/innkeep/night-audit/audit"
	"github.com/innkeep/night-audit/folio"
	"github.com/innkeep/night-audit/hotel"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path (":memory:" for an
// in-memory database) with the calendar opening on the given date.
func New(dbPath string, opening hotel.Date) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(opening); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(opening hotel.Date) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		guest_name TEXT NOT NULL,
		room_number TEXT,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		status TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		paid INTEGER NOT NULL DEFAULT 0,
		paid_amount TEXT NOT NULL DEFAULT '0',
		payments_json TEXT,
		checked_in_at TEXT,
		no_show_date TEXT,
		no_show_penalty TEXT NOT NULL DEFAULT '0'
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_status
		ON reservations(status);
	CREATE INDEX IF NOT EXISTS idx_reservations_dates
		ON reservations(check_in, check_out);

	CREATE TABLE IF NOT EXISTS rooms (
		number TEXT PRIMARY KEY,
		type TEXT,
		status TEXT NOT NULL,
		rate TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS checklist (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		label TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_checklist_date ON checklist(date);

	CREATE TABLE IF NOT EXISTS folios (
		number TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL,
		guest_name TEXT,
		room_number TEXT,
		balance TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_folios_reservation
		ON folios(reservation_id);

	-- Line items are never updated; position preserves posting order.
	CREATE TABLE IF NOT EXISTS folio_txns (
		id TEXT PRIMARY KEY,
		folio_number TEXT NOT NULL REFERENCES folios(number),
		position INTEGER NOT NULL,
		date TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		running_balance TEXT NOT NULL,
		posted_by TEXT,
		reference TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_folio_txns_folio
		ON folio_txns(folio_number, position);

	-- At most one seal per business date, enforced by the schema.
	CREATE TABLE IF NOT EXISTS audit_records (
		date TEXT PRIMARY KEY,
		closed_at TEXT NOT NULL,
		closed_by TEXT NOT NULL,
		stats_json TEXT NOT NULL,
		folios_generated INTEGER NOT NULL DEFAULT 0,
		no_shows_processed INTEGER NOT NULL DEFAULT 0
	);

	-- Append-only: no UPDATE or DELETE is ever issued on this table.
	CREATE TABLE IF NOT EXISTS override_log (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		date TEXT NOT NULL,
		reason TEXT NOT NULL,
		user TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendar (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		opening_date TEXT NOT NULL,
		business_date TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO calendar (id, opening_date, business_date) VALUES (1, ?, ?)`,
		opening.String(), opening.String(),
	)
	return err
}

// =============================================================================
// RESERVATIONS (hotel.ReservationStore)
// =============================================================================

const reservationCols = `id, guest_name, room_number, check_in, check_out, status,
	total_amount, paid, paid_amount, payments_json, checked_in_at, no_show_date, no_show_penalty`

func (s *Store) Reservation(ctx context.Context, id string) (*hotel.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return r, nil
}

func (s *Store) Reservations(ctx context.Context) ([]hotel.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reservationCols+` FROM reservations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []hotel.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) SaveReservation(ctx context.Context, r hotel.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paymentsJSON, err := json.Marshal(r.Payments)
	if err != nil {
		return err
	}
	var checkedInAt, noShowDate any
	if r.CheckedInAt != nil {
		checkedInAt = r.CheckedInAt.UTC().Format(time.RFC3339)
	}
	if r.NoShowDate != nil {
		noShowDate = r.NoShowDate.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reservations (`+reservationCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			guest_name = excluded.guest_name,
			room_number = excluded.room_number,
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			status = excluded.status,
			total_amount = excluded.total_amount,
			paid = excluded.paid,
			paid_amount = excluded.paid_amount,
			payments_json = excluded.payments_json,
			checked_in_at = excluded.checked_in_at,
			no_show_date = excluded.no_show_date,
			no_show_penalty = excluded.no_show_penalty`,
		r.ID, r.GuestName, r.RoomNumber, r.CheckIn.String(), r.CheckOut.String(),
		string(r.Status), r.TotalAmount.String(), boolToInt(r.Paid), r.PaidAmount.String(),
		string(paymentsJSON), checkedInAt, noShowDate, r.NoShowPenalty.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*hotel.Reservation, error) {
	var (
		r                         hotel.Reservation
		roomNumber, paymentsJSON  sql.NullString
		checkIn, checkOut, status string
		totalAmount, paidAmount   string
		noShowPenalty             string
		paid                      int
		checkedInAt, noShowDate   sql.NullString
	)
	err := row.Scan(&r.ID, &r.GuestName, &roomNumber, &checkIn, &checkOut, &status,
		&totalAmount, &paid, &paidAmount, &paymentsJSON, &checkedInAt, &noShowDate, &noShowPenalty)
	if err != nil {
		return nil, err
	}

	r.RoomNumber = roomNumber.String
	r.Status = hotel.ReservationStatus(status)
	r.Paid = paid != 0
	if r.CheckIn, err = hotel.ParseDate(checkIn); err != nil {
		return nil, err
	}
	if r.CheckOut, err = hotel.ParseDate(checkOut); err != nil {
		return nil, err
	}
	if r.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, err
	}
	if r.PaidAmount, err = decimal.NewFromString(paidAmount); err != nil {
		return nil, err
	}
	if r.NoShowPenalty, err = decimal.NewFromString(noShowPenalty); err != nil {
		return nil, err
	}
	if paymentsJSON.Valid && paymentsJSON.String != "" && paymentsJSON.String != "null" {
		if err := json.Unmarshal([]byte(paymentsJSON.String), &r.Payments); err != nil {
			return nil, err
		}
	}
	if checkedInAt.Valid {
		t, err := time.Parse(time.RFC3339, checkedInAt.String)
		if err != nil {
			return nil, err
		}
		r.CheckedInAt = &t
	}
	if noShowDate.Valid {
		d, err := hotel.ParseDate(noShowDate.String)
		if err != nil {
			return nil, err
		}
		r.NoShowDate = &d
	}
	return &r, nil
}

// =============================================================================
// ROOMS (hotel.RoomStore)
// =============================================================================

func (s *Store) Rooms(ctx context.Context) ([]hotel.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, type, status, rate FROM rooms ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var out []hotel.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) Room(ctx context.Context, number string) (*hotel.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT number, type, status, rate FROM rooms WHERE number = ?`, number)
	r, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return r, nil
}

func scanRoom(row rowScanner) (*hotel.Room, error) {
	var (
		r        hotel.Room
		roomType sql.NullString
		status   string
		rate     string
	)
	if err := row.Scan(&r.Number, &roomType, &status, &rate); err != nil {
		return nil, err
	}
	r.Type = roomType.String
	r.Status = hotel.RoomStatus(status)
	var err error
	if r.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) SaveRoom(ctx context.Context, r hotel.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rooms (number, type, status, rate) VALUES (?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			type = excluded.type, status = excluded.status, rate = excluded.rate`,
		r.Number, r.Type, string(r.Status), r.Rate.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (s *Store) SetRoomStatus(ctx context.Context, number string, status hotel.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET status = ? WHERE number = ?`, string(status), number)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("room %s not found", number)
	}
	return nil
}

// =============================================================================
// CHECKLIST (hotel.ChecklistStore)
// =============================================================================

func (s *Store) ChecklistItems(ctx context.Context, date hotel.Date) ([]hotel.ChecklistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, label, done FROM checklist WHERE date = ? ORDER BY id`, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query checklist: %w", err)
	}
	defer rows.Close()

	var out []hotel.ChecklistItem
	for rows.Next() {
		var (
			item hotel.ChecklistItem
			d    string
			done int
		)
		if err := rows.Scan(&item.ID, &d, &item.Label, &done); err != nil {
			return nil, err
		}
		if item.Date, err = hotel.ParseDate(d); err != nil {
			return nil, err
		}
		item.Done = done != 0
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) SaveChecklistItem(ctx context.Context, item hotel.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checklist (id, date, label, done) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date, label = excluded.label, done = excluded.done`,
		item.ID, item.Date.String(), item.Label, boolToInt(item.Done),
	)
	if err != nil {
		return fmt.Errorf("failed to save checklist item: %w", err)
	}
	return nil
}

func (s *Store) CompleteChecklistItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE checklist SET done = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to complete checklist item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("checklist item %s not found", id)
	}
	return nil
}

// =============================================================================
// FOLIOS (folio.Store)
// =============================================================================

const folioCols = `number, reservation_id, guest_name, room_number, balance, status`

func (s *Store) Folio(ctx context.Context, number string) (*folio.Folio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadFolio(ctx,
		`SELECT `+folioCols+` FROM folios WHERE number = ?`, number)
}

func (s *Store) FolioByReservation(ctx context.Context, reservationID string) (*folio.Folio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.loadFolio(ctx,
		`SELECT `+folioCols+` FROM folios WHERE reservation_id = ?`, reservationID)
	if err == folio.ErrNotFound {
		return nil, nil
	}
	return f, err
}

func (s *Store) loadFolio(ctx context.Context, query string, arg any) (*folio.Folio, error) {
	var (
		f                     folio.Folio
		guestName, roomNumber sql.NullString
		balance, status       string
	)
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&f.Number, &f.ReservationID, &guestName, &roomNumber, &balance, &status)
	if err == sql.ErrNoRows {
		return nil, folio.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folio: %w", err)
	}
	f.GuestName = guestName.String
	f.RoomNumber = roomNumber.String
	f.Status = folio.Status(status)
	if f.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, err
	}
	if f.Transactions, err = s.queryFolioTxns(ctx, f.Number); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) queryFolioTxns(ctx context.Context, number string) ([]folio.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, tx_type, category, description, amount, running_balance, posted_by, reference
		FROM folio_txns WHERE folio_number = ? ORDER BY position`, number)
	if err != nil {
		return nil, fmt.Errorf("failed to query folio transactions: %w", err)
	}
	defer rows.Close()

	var out []folio.Transaction
	for rows.Next() {
		var (
			tx                        folio.Transaction
			date, txType, category    string
			desc, postedBy, reference sql.NullString
			amount, runningBalance    string
		)
		err := rows.Scan(&tx.ID, &date, &txType, &category, &desc,
			&amount, &runningBalance, &postedBy, &reference)
		if err != nil {
			return nil, err
		}
		if tx.Date, err = hotel.ParseDate(date); err != nil {
			return nil, err
		}
		tx.Type = folio.TransactionType(txType)
		tx.Category = folio.Category(category)
		tx.Description = desc.String
		tx.PostedBy = postedBy.String
		tx.Reference = reference.String
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if tx.RunningBalance, err = decimal.NewFromString(runningBalance); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) Folios(ctx context.Context) ([]folio.Folio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT number FROM folios ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query folios: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]folio.Folio, 0, len(numbers))
	for _, n := range numbers {
		f, err := s.loadFolio(ctx,
			`SELECT `+folioCols+` FROM folios WHERE number = ?`, n)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

// SaveFolio writes the folio header and replaces its line items in one
// database transaction. Line items are immutable upstream; the rewrite
// only ever appends new positions.
func (s *Store) SaveFolio(ctx context.Context, f folio.Folio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO folios (`+folioCols+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			balance = excluded.balance, status = excluded.status`,
		f.Number, f.ReservationID, f.GuestName, f.RoomNumber,
		f.Balance.String(), string(f.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to save folio: %w", err)
	}

	if _, err := sqlTx.ExecContext(ctx,
		`DELETE FROM folio_txns WHERE folio_number = ?`, f.Number); err != nil {
		return fmt.Errorf("failed to rewrite folio transactions: %w", err)
	}
	for i, tx := range f.Transactions {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO folio_txns
			(id, folio_number, position, date, tx_type, category, description, amount, running_balance, posted_by, reference)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, f.Number, i, tx.Date.String(), string(tx.Type), string(tx.Category),
			tx.Description, tx.Amount.String(), tx.RunningBalance.String(),
			tx.PostedBy, tx.Reference,
		)
		if err != nil {
			return fmt.Errorf("failed to save folio transaction: %w", err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// AUDIT RECORDS (audit.Store)
// =============================================================================

func (s *Store) Record(ctx context.Context, date hotel.Date) (*audit.NightAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT date, closed_at, closed_by, stats_json, folios_generated, no_shows_processed
		FROM audit_records WHERE date = ?`, date.String())
	rec, err := scanAuditRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}
	return rec, nil
}

func (s *Store) Records(ctx context.Context) ([]audit.NightAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, closed_at, closed_by, stats_json, folios_generated, no_shows_processed
		FROM audit_records ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var out []audit.NightAuditRecord
	for rows.Next() {
		rec, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanAuditRecord(row rowScanner) (*audit.NightAuditRecord, error) {
	var (
		rec            audit.NightAuditRecord
		date, closedAt string
		statsJSON      string
	)
	err := row.Scan(&date, &closedAt, &rec.ClosedBy, &statsJSON,
		&rec.FoliosGenerated, &rec.NoShowsProcessed)
	if err != nil {
		return nil, err
	}
	if rec.Date, err = hotel.ParseDate(date); err != nil {
		return nil, err
	}
	if rec.ClosedAt, err = time.Parse(time.RFC3339, closedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(statsJSON), &rec.Stats); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) SaveRecord(ctx context.Context, rec audit.NightAuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	statsJSON, err := json.Marshal(rec.Stats)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_records
		(date, closed_at, closed_by, stats_json, folios_generated, no_shows_processed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Date.String(), rec.ClosedAt.UTC().Format(time.RFC3339), rec.ClosedBy,
		string(statsJSON), rec.FoliosGenerated, rec.NoShowsProcessed,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return audit.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to save audit record: %w", err)
	}
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, date hotel.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_records WHERE date = ?`, date.String())
	if err != nil {
		return fmt.Errorf("failed to delete audit record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return audit.ErrRecordNotFound
	}
	return nil
}

func (s *Store) LastClosed(ctx context.Context) (*hotel.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var date sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM audit_records`).Scan(&date)
	if err != nil {
		return nil, fmt.Errorf("failed to get last closed date: %w", err)
	}
	if !date.Valid {
		return nil, nil
	}
	d, err := hotel.ParseDate(date.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// =============================================================================
// OVERRIDE LOG (audit.Store)
// =============================================================================

func (s *Store) AppendOverride(ctx context.Context, entry audit.OverrideLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO override_log (id, action, date, reason, user, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.Date.String(), entry.Reason, entry.User,
		entry.Timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append override entry: %w", err)
	}
	return nil
}

func (s *Store) Overrides(ctx context.Context) ([]audit.OverrideLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, date, reason, user, timestamp
		FROM override_log ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query override log: %w", err)
	}
	defer rows.Close()

	var out []audit.OverrideLogEntry
	for rows.Next() {
		var (
			entry           audit.OverrideLogEntry
			date, timestamp string
		)
		if err := rows.Scan(&entry.ID, &entry.Action, &date, &entry.Reason,
			&entry.User, &timestamp); err != nil {
			return nil, err
		}
		if entry.Date, err = hotel.ParseDate(date); err != nil {
			return nil, err
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339, timestamp); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// =============================================================================
// CALENDAR (audit.Store)
// =============================================================================

func (s *Store) OpeningDate(ctx context.Context) (hotel.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calendarDate(ctx, "opening_date")
}

func (s *Store) BusinessDate(ctx context.Context) (hotel.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calendarDate(ctx, "business_date")
}

func (s *Store) calendarDate(ctx context.Context, col string) (hotel.Date, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT `+col+` FROM calendar WHERE id = 1`).Scan(&v)
	if err != nil {
		return hotel.Date{}, fmt.Errorf("failed to read calendar: %w", err)
	}
	return hotel.ParseDate(v)
}

func (s *Store) SetBusinessDate(ctx context.Context, date hotel.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE calendar SET business_date = ? WHERE id = 1`, date.String())
	if err != nil {
		return fmt.Errorf("failed to set business date: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
