/*
store.go - Persistence interfaces for punches, employees and invoices

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  specifies three invariants the store must uphold:

  1. PUNCH UNIQUENESS: InsertPunch must fail against a uniqueness
     constraint on (employee, date, shift type), reported as
     ErrDuplicatePunch - this is how two near-simultaneous punch attempts
     are serialized (the second one loses).

  2. ATOMIC CLOSE: the invoice-record insert and the counter update for
     one employee must succeed or fail together. TxStore.WithTx supplies
     that unit; different employees close independently.

  3. INVOICE UNIQUENESS: InsertInvoice must fail on a second record for
     the same (employee, period start), reported as ErrAlreadyInvoiced.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - payroll/store: in-memory store for tests and dev
*/
package payroll

import (
	"context"
	"time"
)

// =============================================================================
// PUNCH STORE
// =============================================================================

// PunchStore persists attendance punches.
type PunchStore interface {
	// FindPunch returns the punch for (employee, date, shift), or nil.
	FindPunch(ctx context.Context, id EmployeeID, date Date, shift ShiftType) (*Punch, error)

	// InsertPunch persists a new punch. Returns ErrDuplicatePunch if one
	// already exists for (employee, date, shift).
	InsertPunch(ctx context.Context, p Punch) error

	// UpsertPunch writes a punch unconditionally (administrative override,
	// last-write-wins). The captured-rate invariant is the caller's job:
	// see Validator.AdminUpsert.
	UpsertPunch(ctx context.Context, p Punch) error

	// ListPunches returns punches for the given employees with date in
	// [from, to). A nil employee filter means all employees.
	ListPunches(ctx context.Context, ids []EmployeeID, from, to Date) ([]Punch, error)
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// EmployeeStore persists the roster. Rate and active-flag edits arrive
// through Save from the employee-management surface; SetLastInvoice is
// reserved for the invoice engine's close transaction.
type EmployeeStore interface {
	ListActive(ctx context.Context) ([]Employee, error)
	ListAll(ctx context.Context) ([]Employee, error)

	// Get returns the employee, or nil when unknown.
	Get(ctx context.Context, id EmployeeID) (*Employee, error)

	Save(ctx context.Context, e Employee) error
	SetPIN(ctx context.Context, id EmployeeID, pinHash string) error

	// SetLastInvoice updates the invoice counter. Only call inside the
	// close transaction (see invoice.go).
	SetLastInvoice(ctx context.Context, id EmployeeID, n int) error
}

// =============================================================================
// INVOICE LOG STORE
// =============================================================================

// InvoiceLogStore persists issued invoices. Append-only: records are never
// updated or deleted.
type InvoiceLogStore interface {
	// FindInvoice returns the record for (employee, period start), or nil.
	FindInvoice(ctx context.Context, id EmployeeID, periodStart Date) (*InvoiceRecord, error)

	// InsertInvoice persists a new record. Returns ErrAlreadyInvoiced if
	// one exists for the same (employee, period start).
	InsertInvoice(ctx context.Context, rec InvoiceRecord) error

	// ListInvoices returns all records for an employee, newest period first.
	ListInvoices(ctx context.Context, id EmployeeID) ([]InvoiceRecord, error)
}

// =============================================================================
// COMPOSED STORE
// =============================================================================

// Store is the full persistence surface the engine needs.
type Store interface {
	PunchStore
	EmployeeStore
	InvoiceLogStore
}

// TxStore wraps Store with transaction support. WithTx executes fn against
// a transactional view: if fn returns an error, every write inside it is
// rolled back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// AUDIT SINK - Outbound, fire-and-forget
// =============================================================================

type AuditAction string

const (
	AuditPunchAccepted AuditAction = "punch_accepted"
	AuditPunchEdited   AuditAction = "punch_edited"
	AuditPeriodClosed  AuditAction = "period_closed"
	AuditInvoiceIssued AuditAction = "invoice_issued"
	AuditPINChanged    AuditAction = "pin_changed"
)

// AuditEvent is a structured business event.
type AuditEvent struct {
	ID         string
	At         time.Time
	Action     AuditAction
	EmployeeID EmployeeID
	Actor      string
	Details    string
}

// AuditLog receives business events. Failures to record must never block
// or roll back the operation that emitted the event - callers drop the
// error after logging it.
type AuditLog interface {
	Record(ctx context.Context, ev AuditEvent) error
	Query(ctx context.Context, limit int) ([]AuditEvent, error)
}

// NopAuditLog discards events. Used when no sink is configured.
type NopAuditLog struct{}

func (NopAuditLog) Record(context.Context, AuditEvent) error          { return nil }
func (NopAuditLog) Query(context.Context, int) ([]AuditEvent, error) { return nil, nil }
