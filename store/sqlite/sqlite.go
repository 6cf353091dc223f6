/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the persistence interfaces (payroll.TxStore, payroll.AuditLog)
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  payroll.PunchStore:      Attendance punches
  payroll.EmployeeStore:   Roster, rates, invoice counters
  payroll.InvoiceLogStore: Issued-invoice log (append-only)
  payroll.AuditLog:        Business event trail

KEY TABLES:
  punches:      One row per (employee, date, shift type)
  employees:    Roster with rate, PIN hash, bank details, invoice counter
  invoices_log: Immutable log of issued invoices
  audit_log:    Business events

UNIQUENESS:
  Two constraints carry engine invariants and surface as sentinel errors:
  - idx_unique_punch   (employee_id, date, shift_type) -> ErrDuplicatePunch
  - idx_unique_invoice (employee_id, period_start)     -> ErrAlreadyInvoiced
  The punch constraint is what serializes two near-simultaneous punch
  attempts: the second insert loses.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/payroll"
)

const dateLayout = "2006-01-02"

// Store implements payroll.TxStore and payroll.AuditLog using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (roster)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		hourly_rate TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'worker',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		last_invoice INTEGER NOT NULL DEFAULT 0,
		pin_hash TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		telephone TEXT NOT NULL DEFAULT '',
		abn TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		bank_name TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		account_type TEXT NOT NULL DEFAULT '',
		bsb TEXT NOT NULL DEFAULT '',
		account_number TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_active
		ON employees(active);

	-- Punches
	CREATE TABLE IF NOT EXISTS punches (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		shift_type TEXT NOT NULL,
		punched_at TEXT NOT NULL,
		rate TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one punch per (employee, calendar day, shift type).
	-- Near-simultaneous punch attempts race to this index; the loser
	-- gets a constraint error mapped to ErrDuplicatePunch.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_punch
		ON punches(employee_id, date, shift_type);

	-- Composite index for period-range queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_punches_date
		ON punches(date, employee_id);

	-- Issued invoices (append-only)
	CREATE TABLE IF NOT EXISTS invoices_log (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		invoice_number INTEGER NOT NULL,
		grand_total TEXT NOT NULL,
		issued_at TEXT NOT NULL
	);

	-- CRITICAL: one invoice per (employee, period start). Maps to
	-- ErrAlreadyInvoiced and makes the period close idempotent.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_invoice
		ON invoices_log(employee_id, period_start);

	CREATE INDEX IF NOT EXISTS idx_invoices_employee
		ON invoices_log(employee_id, period_start DESC);

	-- Audit trail
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		action TEXT NOT NULL,
		employee_id TEXT NOT NULL DEFAULT '',
		actor TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_audit_at
		ON audit_log(at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same helpers serve
// plain calls and transactional ones.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// PUNCH STORE (payroll.PunchStore interface)
// =============================================================================

func (s *Store) FindPunch(ctx context.Context, id payroll.EmployeeID, date payroll.Date, shift payroll.ShiftType) (*payroll.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findPunch(ctx, s.db, id, date, shift)
}

func findPunch(ctx context.Context, db dbtx, id payroll.EmployeeID, date payroll.Date, shift payroll.ShiftType) (*payroll.Punch, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, employee_id, date, punched_at, shift_type, rate, source
		FROM punches
		WHERE employee_id = ? AND date = ? AND shift_type = ?`,
		id, date.String(), shift,
	)

	p, err := scanPunchRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) InsertPunch(ctx context.Context, p payroll.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertPunch(ctx, s.db, p)
}

func insertPunch(ctx context.Context, db dbtx, p payroll.Punch) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO punches (id, employee_id, date, shift_type, punched_at, rate, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EmployeeID, p.Date.String(), p.Shift,
		p.PunchedAt.Format(time.RFC3339), p.Rate.String(), p.Source,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicatePunch
		}
		return fmt.Errorf("failed to insert punch: %w", err)
	}
	return nil
}

func (s *Store) UpsertPunch(ctx context.Context, p payroll.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return upsertPunch(ctx, s.db, p)
}

func upsertPunch(ctx context.Context, db dbtx, p payroll.Punch) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO punches (id, employee_id, date, shift_type, punched_at, rate, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date, shift_type) DO UPDATE SET
			punched_at = excluded.punched_at,
			rate = excluded.rate,
			source = excluded.source`,
		p.ID, p.EmployeeID, p.Date.String(), p.Shift,
		p.PunchedAt.Format(time.RFC3339), p.Rate.String(), p.Source,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert punch: %w", err)
	}
	return nil
}

func (s *Store) ListPunches(ctx context.Context, ids []payroll.EmployeeID, from, to payroll.Date) ([]payroll.Punch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPunches(ctx, s.db, ids, from, to)
}

func listPunches(ctx context.Context, db dbtx, ids []payroll.EmployeeID, from, to payroll.Date) ([]payroll.Punch, error) {
	query := `
		SELECT id, employee_id, date, punched_at, shift_type, rate, source
		FROM punches
		WHERE date >= ? AND date < ?`
	args := []any{from.String(), to.String()}

	if ids != nil {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND employee_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY date ASC, employee_id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	defer rows.Close()

	var punches []payroll.Punch
	for rows.Next() {
		p, err := scanPunchRow(rows)
		if err != nil {
			return nil, err
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPunchRow(row scanner) (payroll.Punch, error) {
	var (
		p         payroll.Punch
		date      string
		punchedAt string
		rate      string
	)

	err := row.Scan(&p.ID, &p.EmployeeID, &date, &punchedAt, &p.Shift, &rate, &p.Source)
	if err == sql.ErrNoRows {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan punch: %w", err)
	}

	p.Date, _ = payroll.ParseDate(date)
	p.PunchedAt, _ = time.Parse(time.RFC3339, punchedAt)
	p.Rate, _ = decimal.NewFromString(rate)
	return p, nil
}

// =============================================================================
// EMPLOYEE STORE (payroll.EmployeeStore interface)
// =============================================================================

const employeeColumns = `id, name, surname, hourly_rate, role, active, last_invoice, pin_hash,
	       address, telephone, abn, email,
	       bank_name, account_name, account_type, bsb, account_number`

func (s *Store) ListActive(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEmployees(ctx, s.db, `
		SELECT `+employeeColumns+`
		FROM employees WHERE active = TRUE
		ORDER BY surname, name`)
}

func (s *Store) ListAll(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEmployees(ctx, s.db, `
		SELECT `+employeeColumns+`
		FROM employees
		ORDER BY surname, name`)
}

func (s *Store) Get(ctx context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

func getEmployee(ctx context.Context, db dbtx, id payroll.EmployeeID) (*payroll.Employee, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+`
		FROM employees WHERE id = ?`, id)

	emp, err := scanEmployeeRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) Save(ctx context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveEmployee(ctx, s.db, e)
}

func saveEmployee(ctx context.Context, db dbtx, e payroll.Employee) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, `
		INSERT INTO employees (id, name, surname, hourly_rate, role, active, last_invoice, pin_hash,
			address, telephone, abn, email,
			bank_name, account_name, account_type, bsb, account_number,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			surname = excluded.surname,
			hourly_rate = excluded.hourly_rate,
			role = excluded.role,
			active = excluded.active,
			last_invoice = excluded.last_invoice,
			pin_hash = excluded.pin_hash,
			address = excluded.address,
			telephone = excluded.telephone,
			abn = excluded.abn,
			email = excluded.email,
			bank_name = excluded.bank_name,
			account_name = excluded.account_name,
			account_type = excluded.account_type,
			bsb = excluded.bsb,
			account_number = excluded.account_number,
			updated_at = excluded.updated_at`,
		e.ID, e.Name, e.Surname, e.HourlyRate.String(), e.Role, e.Active, e.LastInvoice, e.PINHash,
		e.Contact.Address, e.Contact.Telephone, e.Contact.ABN, e.Contact.Email,
		e.Bank.BankName, e.Bank.AccountName, e.Bank.AccountType, e.Bank.BSB, e.Bank.AccountNumber,
		now, now,
	)
	return err
}

func (s *Store) SetPIN(ctx context.Context, id payroll.EmployeeID, pinHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE employees SET pin_hash = ?, updated_at = ? WHERE id = ?`,
		pinHash, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetLastInvoice(ctx context.Context, id payroll.EmployeeID, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setLastInvoice(ctx, s.db, id, n)
}

func setLastInvoice(ctx context.Context, db dbtx, id payroll.EmployeeID, n int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE employees SET last_invoice = ?, updated_at = ? WHERE id = ?`,
		n, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payroll.ErrUnknownEmployee
	}
	return nil
}

func queryEmployees(ctx context.Context, db dbtx, query string, args ...any) ([]payroll.Employee, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployeeRow(row scanner) (payroll.Employee, error) {
	var (
		emp  payroll.Employee
		rate string
	)

	err := row.Scan(
		&emp.ID, &emp.Name, &emp.Surname, &rate, &emp.Role, &emp.Active,
		&emp.LastInvoice, &emp.PINHash,
		&emp.Contact.Address, &emp.Contact.Telephone, &emp.Contact.ABN, &emp.Contact.Email,
		&emp.Bank.BankName, &emp.Bank.AccountName, &emp.Bank.AccountType,
		&emp.Bank.BSB, &emp.Bank.AccountNumber,
	)
	if err == sql.ErrNoRows {
		return emp, err
	}
	if err != nil {
		return emp, fmt.Errorf("failed to scan employee: %w", err)
	}

	emp.HourlyRate, _ = decimal.NewFromString(rate)
	return emp, nil
}

// =============================================================================
// INVOICE LOG STORE (payroll.InvoiceLogStore interface)
// =============================================================================

func (s *Store) FindInvoice(ctx context.Context, id payroll.EmployeeID, periodStart payroll.Date) (*payroll.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findInvoice(ctx, s.db, id, periodStart)
}

func findInvoice(ctx context.Context, db dbtx, id payroll.EmployeeID, periodStart payroll.Date) (*payroll.InvoiceRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, employee_id, period_start, invoice_number, grand_total, issued_at
		FROM invoices_log
		WHERE employee_id = ? AND period_start = ?`,
		id, periodStart.String())

	rec, err := scanInvoiceRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) InsertInvoice(ctx context.Context, rec payroll.InvoiceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertInvoice(ctx, s.db, rec)
}

func insertInvoice(ctx context.Context, db dbtx, rec payroll.InvoiceRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO invoices_log (id, employee_id, period_start, invoice_number, grand_total, issued_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EmployeeID, rec.PeriodStart.String(), rec.InvoiceNumber,
		rec.GrandTotal.String(), rec.IssuedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrAlreadyInvoiced
		}
		return fmt.Errorf("failed to insert invoice record: %w", err)
	}
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, id payroll.EmployeeID) ([]payroll.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listInvoices(ctx, s.db, id)
}

func listInvoices(ctx context.Context, db dbtx, id payroll.EmployeeID) ([]payroll.InvoiceRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, employee_id, period_start, invoice_number, grand_total, issued_at
		FROM invoices_log
		WHERE employee_id = ?
		ORDER BY period_start DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice log: %w", err)
	}
	defer rows.Close()

	var records []payroll.InvoiceRecord
	for rows.Next() {
		rec, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanInvoiceRow(row scanner) (payroll.InvoiceRecord, error) {
	var (
		rec         payroll.InvoiceRecord
		periodStart string
		grandTotal  string
		issuedAt    string
	)

	err := row.Scan(&rec.ID, &rec.EmployeeID, &periodStart, &rec.InvoiceNumber, &grandTotal, &issuedAt)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan invoice record: %w", err)
	}

	rec.PeriodStart, _ = payroll.ParseDate(periodStart)
	rec.GrandTotal, _ = decimal.NewFromString(grandTotal)
	rec.IssuedAt, _ = time.Parse(time.RFC3339, issuedAt)
	return rec, nil
}

// =============================================================================
// TRANSACTIONAL STORE (payroll.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The period
// close relies on this to commit the invoice-record insert and the
// counter update as one unit.
func (s *Store) WithTx(ctx context.Context, fn func(store payroll.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every call through the open transaction. No locking:
// WithTx already holds the store lock.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) FindPunch(ctx context.Context, id payroll.EmployeeID, date payroll.Date, shift payroll.ShiftType) (*payroll.Punch, error) {
	return findPunch(ctx, ts.tx, id, date, shift)
}

func (ts *txStore) InsertPunch(ctx context.Context, p payroll.Punch) error {
	return insertPunch(ctx, ts.tx, p)
}

func (ts *txStore) UpsertPunch(ctx context.Context, p payroll.Punch) error {
	return upsertPunch(ctx, ts.tx, p)
}

func (ts *txStore) ListPunches(ctx context.Context, ids []payroll.EmployeeID, from, to payroll.Date) ([]payroll.Punch, error) {
	return listPunches(ctx, ts.tx, ids, from, to)
}

func (ts *txStore) ListActive(ctx context.Context) ([]payroll.Employee, error) {
	return queryEmployees(ctx, ts.tx, `
		SELECT `+employeeColumns+`
		FROM employees WHERE active = TRUE
		ORDER BY surname, name`)
}

func (ts *txStore) ListAll(ctx context.Context) ([]payroll.Employee, error) {
	return queryEmployees(ctx, ts.tx, `
		SELECT `+employeeColumns+`
		FROM employees
		ORDER BY surname, name`)
}

func (ts *txStore) Get(ctx context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	return getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) Save(ctx context.Context, e payroll.Employee) error {
	return saveEmployee(ctx, ts.tx, e)
}

func (ts *txStore) SetPIN(ctx context.Context, id payroll.EmployeeID, pinHash string) error {
	res, err := ts.tx.ExecContext(ctx, `
		UPDATE employees SET pin_hash = ?, updated_at = ? WHERE id = ?`,
		pinHash, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (ts *txStore) SetLastInvoice(ctx context.Context, id payroll.EmployeeID, n int) error {
	return setLastInvoice(ctx, ts.tx, id, n)
}

func (ts *txStore) FindInvoice(ctx context.Context, id payroll.EmployeeID, periodStart payroll.Date) (*payroll.InvoiceRecord, error) {
	return findInvoice(ctx, ts.tx, id, periodStart)
}

func (ts *txStore) InsertInvoice(ctx context.Context, rec payroll.InvoiceRecord) error {
	return insertInvoice(ctx, ts.tx, rec)
}

func (ts *txStore) ListInvoices(ctx context.Context, id payroll.EmployeeID) ([]payroll.InvoiceRecord, error) {
	return listInvoices(ctx, ts.tx, id)
}

// =============================================================================
// AUDIT LOG (payroll.AuditLog interface)
// =============================================================================

func (s *Store) Record(ctx context.Context, ev payroll.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, action, employee_id, actor, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.At.Format(time.RFC3339), ev.Action, ev.EmployeeID, ev.Actor, ev.Details,
	)
	return err
}

func (s *Store) Query(ctx context.Context, limit int) ([]payroll.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, action, employee_id, actor, details
		FROM audit_log
		ORDER BY at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var events []payroll.AuditEvent
	for rows.Next() {
		var (
			ev payroll.AuditEvent
			at string
		)
		if err := rows.Scan(&ev.ID, &at, &ev.Action, &ev.EmployeeID, &ev.Actor, &ev.Details); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.At, _ = time.Parse(time.RFC3339, at)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"punches", "invoices_log", "audit_log", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
