/*
Package payroll provides the core attendance and invoicing engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking hourly
  workers' attendance against fixed recurring shift windows, aggregating
  punches into fortnightly pay periods, and issuing per-employee invoices
  with sequential, non-reusable numbers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: roster entry carrying the current rate and invoice counter
  - Punch: an immutable attendance event with the rate captured at punch time
  - ShiftType: tagged two-value variant (standard / overtime) with a single
    lookup table to credited hours, so window classification and hour
    crediting cannot drift independently
  - InvoiceRecord: the permanent result of closing a period for one employee

DESIGN PRINCIPLES:
  1. Immutability: punches and invoice records are never edited by the
     normal flow; corrections go through the explicit admin override
  2. Precision: uses decimal.Decimal for rates and money, never float64
  3. Captured state: a punch stores the rate in effect when it was made;
     later rate changes never rewrite history
  4. Derived periods: pay periods are computed, never persisted

SEE ALSO:
  - period.go: fortnight tiling from a fixed anchor
  - shift.go: shift window classification
  - punch.go: the punch-eligibility state machine
  - invoice.go: invoice computation and the idempotent period close
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// Role controls access to the admin surface. Workers can punch and view
// their own timesheets and invoices; admins can edit grids and close periods.
type Role string

const (
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// =============================================================================
// SHIFT TYPE - Two-value tagged variant
// =============================================================================

// ShiftType classifies a punch by the window it was made in.
type ShiftType string

const (
	ShiftStandard ShiftType = "standard" // weekday morning shift
	ShiftOvertime ShiftType = "overtime" // Friday/Saturday evening shift
)

// shiftHours is the single source of truth for hours credited per shift.
// Window classification (shift.go) and grid crediting (grid.go) both key
// off ShiftType, so the two cannot diverge.
var shiftHours = map[ShiftType]decimal.Decimal{
	ShiftStandard: decimal.NewFromFloat(2.0),
	ShiftOvertime: decimal.NewFromFloat(2.4),
}

// Hours returns the credited duration for this shift type.
func (s ShiftType) Hours() decimal.Decimal {
	return shiftHours[s]
}

// Valid reports whether s is one of the two known shift types.
func (s ShiftType) Valid() bool {
	_, ok := shiftHours[s]
	return ok
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// ContactDetails are the employee fields printed on invoices.
type ContactDetails struct {
	Address   string
	Telephone string
	ABN       string
	Email     string
}

// BankDetails are the direct-transfer fields printed on invoices.
type BankDetails struct {
	BankName      string
	AccountName   string
	AccountType   string
	BSB           string
	AccountNumber string
}

// Employee is a roster entry.
//
// LastInvoice is the monotonic invoice counter owned exclusively by the
// invoice engine; it is only ever mutated inside the close transaction.
// Employees are never deleted - deactivate instead, so historical invoices
// keep a valid reference.
type Employee struct {
	ID         EmployeeID
	Name       string
	Surname    string
	HourlyRate decimal.Decimal
	Role       Role
	Active     bool

	// Owned by the invoice engine. See invoice.go.
	LastInvoice int

	// Bcrypt hash of the login PIN; empty until the employee sets one.
	PINHash string

	Contact ContactDetails
	Bank    BankDetails
}

// DisplayName returns "Surname, Name" as used on rosters and timesheets.
func (e Employee) DisplayName() string {
	if e.Surname == "" {
		return e.Name
	}
	return e.Surname + ", " + e.Name
}

// =============================================================================
// PUNCH - Immutable attendance event
// =============================================================================

// PunchSource records how a punch entered the system.
type PunchSource string

const (
	SourceClock PunchSource = "clock" // gated punch flow
	SourceAdmin PunchSource = "admin" // administrative override
)

// Punch is a single attendance event tied to one shift window.
//
// INVARIANTS:
//   - At most one punch per (employee, date, shift type) under normal flow;
//     the store enforces this with a uniqueness constraint.
//   - Rate is captured at punch time and never recomputed. An employee's
//     rate change must not alter already-recorded punches.
//   - Date is the calendar day resolved in the system's configured zone;
//     PunchedAt keeps the exact wall-clock instant.
type Punch struct {
	ID         string
	EmployeeID EmployeeID
	Date       Date
	PunchedAt  time.Time
	Shift      ShiftType
	Rate       decimal.Decimal
	Source     PunchSource
}

// Hours returns the credited duration for this punch.
func (p Punch) Hours() decimal.Decimal {
	return p.Shift.Hours()
}

// Gross returns the derived pay for this punch: hours x captured rate.
func (p Punch) Gross() decimal.Decimal {
	return p.Hours().Mul(p.Rate)
}

// =============================================================================
// INVOICE RECORD
// =============================================================================

// InvoiceRecord is the permanent outcome of closing a period for one
// employee. Created exactly once per (employee, period start); immutable.
//
// INVARIANT: invoice numbers are strictly increasing per employee and never
// reused, even when a close is retried.
type InvoiceRecord struct {
	ID            string
	EmployeeID    EmployeeID
	PeriodStart   Date
	InvoiceNumber int
	GrandTotal    decimal.Decimal
	IssuedAt      time.Time
}
