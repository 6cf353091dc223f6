/*
invoice.go - Invoice computation and the idempotent period close

PURPOSE:
  Computes per-employee invoices from the punches of one period, and
  performs the one-time close that assigns permanent sequential invoice
  numbers.

COMPUTATION (pure):
  Each shift line carries the punch's CAPTURED rate - never the employee's
  current rate. gross = duration x rate; grandTotal = sum(gross), rounded
  to cents once at the total. ComputeInvoice has no side effects and may be
  called repeatedly for previews.

CLOSE (idempotent):
  For each employee with hours > 0 and no invoice record for (employee,
  period): next = lastInvoice + 1, write the record, update the counter.
  The record insert and counter update run inside one store transaction
  per employee - they succeed or fail together, so a number can never be
  issued twice and a record can never be orphaned. The existence check on
  the invoice log is the idempotency guard: re-running close is a no-op
  for every previously-closed employee and picks up only newly-eligible
  ones.

NUMBERING:
  Counters are per employee. Two employees closing a period get each their
  own next number; an employee added to the roster later gets the next
  number on their own counter, independent of everyone else.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// INVOICE COMPUTATION
// =============================================================================

// InvoiceLine is one worked shift on an invoice.
type InvoiceLine struct {
	Date  Date
	Shift ShiftType
	Hours decimal.Decimal
	Rate  decimal.Decimal // captured at punch time
	Gross decimal.Decimal
}

// Invoice is a fully-computed invoice for one employee and one period.
// Number is nil until the period is closed for the employee; renderers
// must show a draft placeholder in that case, never a real number.
type Invoice struct {
	Employee    Employee
	PeriodStart Date
	PeriodEnd   Date
	Lines       []InvoiceLine
	TotalHours  decimal.Decimal
	GrandTotal  decimal.Decimal
	Number      *int
}

// Closed reports whether the invoice carries a permanent number.
func (inv Invoice) Closed() bool { return inv.Number != nil }

// ComputeInvoice builds the invoice for one employee from raw punches.
// Punches outside the period or belonging to other employees are ignored.
// Pure: no store access, no side effects, stable under repeated calls.
func ComputeInvoice(emp Employee, periodStart Date, punches []Punch) Invoice {
	period := Period{Start: periodStart}

	inv := Invoice{
		Employee:    emp,
		PeriodStart: periodStart,
		PeriodEnd:   period.End(),
		TotalHours:  decimal.Zero,
		GrandTotal:  decimal.Zero,
	}

	for _, p := range punches {
		if p.EmployeeID != emp.ID || !period.Contains(p.Date) {
			continue
		}
		line := InvoiceLine{
			Date:  p.Date,
			Shift: p.Shift,
			Hours: p.Hours(),
			Rate:  p.Rate,
			Gross: p.Gross(),
		}
		inv.Lines = append(inv.Lines, line)
		inv.TotalHours = inv.TotalHours.Add(line.Hours)
		inv.GrandTotal = inv.GrandTotal.Add(line.Gross)
	}

	sort.SliceStable(inv.Lines, func(i, j int) bool {
		return inv.Lines[i].Date.Before(inv.Lines[j].Date)
	})

	// Round once, at the total. Line grosses stay exact.
	inv.TotalHours = inv.TotalHours.Round(1)
	inv.GrandTotal = inv.GrandTotal.Round(2)
	return inv
}

// =============================================================================
// INVOICE ENGINE
// =============================================================================

// Engine performs invoice previews, official lookups and period closes
// against the store.
type Engine struct {
	Store    TxStore
	Calendar Calendar
	Clock    Clock
	Audit    AuditLog
}

// NewEngine wires an invoice engine. A nil audit sink falls back to
// NopAuditLog.
func NewEngine(store TxStore, cal Calendar, clock Clock, audit AuditLog) *Engine {
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &Engine{Store: store, Calendar: cal, Clock: clock, Audit: audit}
}

// Preview computes the invoice for one employee and period without side
// effects. If the period is already closed for the employee the stored
// number is attached; otherwise Number stays nil (draft).
func (e *Engine) Preview(ctx context.Context, id EmployeeID, periodStart Date) (Invoice, error) {
	emp, err := e.Store.Get(ctx, id)
	if err != nil {
		return Invoice{}, fmt.Errorf("load employee: %w", err)
	}
	if emp == nil {
		return Invoice{}, ErrUnknownEmployee
	}

	period := Period{Start: periodStart}
	punches, err := e.Store.ListPunches(ctx, []EmployeeID{id}, period.Start, period.Bound())
	if err != nil {
		return Invoice{}, fmt.Errorf("list punches: %w", err)
	}

	inv := ComputeInvoice(*emp, periodStart, punches)

	rec, err := e.Store.FindInvoice(ctx, id, periodStart)
	if err != nil {
		return Invoice{}, fmt.Errorf("check invoice log: %w", err)
	}
	if rec != nil {
		n := rec.InvoiceNumber
		inv.Number = &n
	}
	return inv, nil
}

// Official returns the invoice with its permanent number. Fails with
// ErrPeriodNotClosed before close; callers fall back to draft rendering.
func (e *Engine) Official(ctx context.Context, id EmployeeID, periodStart Date) (Invoice, error) {
	inv, err := e.Preview(ctx, id, periodStart)
	if err != nil {
		return Invoice{}, err
	}
	if !inv.Closed() {
		return Invoice{}, ErrPeriodNotClosed
	}
	return inv, nil
}

// =============================================================================
// PERIOD CLOSE
// =============================================================================

// ClosedInvoice is one employee's outcome from a close run.
type ClosedInvoice struct {
	EmployeeID    EmployeeID
	InvoiceNumber int
	GrandTotal    decimal.Decimal
}

// CloseResult summarizes a close run.
type CloseResult struct {
	PeriodStart    Date
	Issued         []ClosedInvoice
	SkippedClosed  int // already invoiced for this period
	SkippedNoHours int // zero hours in this period
}

// ClosePeriod issues invoices for every active employee with hours in the
// period who is not already invoiced for it. Idempotent: re-running is a
// no-op for previously-closed employees and only picks up newly-eligible
// ones. On a store fault the run stops and returns the partial result;
// retrying the whole close is safe because of the existence guard.
func (e *Engine) ClosePeriod(ctx context.Context, periodStart Date) (CloseResult, error) {
	result := CloseResult{PeriodStart: periodStart}
	period := Period{Start: periodStart}

	employees, err := e.Store.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("list employees: %w", err)
	}
	punches, err := e.Store.ListPunches(ctx, nil, period.Start, period.Bound())
	if err != nil {
		return result, fmt.Errorf("list punches: %w", err)
	}

	for _, emp := range employees {
		inv := ComputeInvoice(emp, periodStart, punches)
		if !inv.TotalHours.IsPositive() {
			result.SkippedNoHours++
			continue
		}

		// Idempotency guard: an existing record means this employee's
		// close already happened (possibly in a previous run).
		existing, err := e.Store.FindInvoice(ctx, emp.ID, periodStart)
		if err != nil {
			return result, fmt.Errorf("check invoice log for %s: %w", emp.ID, err)
		}
		if existing != nil {
			result.SkippedClosed++
			continue
		}

		closed, err := e.closeEmployee(ctx, emp.ID, periodStart, inv.GrandTotal)
		if err != nil {
			if errors.Is(err, ErrAlreadyInvoiced) {
				// Lost a race with a concurrent close. Same as skipped.
				result.SkippedClosed++
				continue
			}
			return result, fmt.Errorf("close %s: %w", emp.ID, err)
		}
		result.Issued = append(result.Issued, closed)

		e.audit(ctx, AuditInvoiceIssued, emp.ID,
			fmt.Sprintf("invoice #%d issued for period %s", closed.InvoiceNumber, periodStart))
	}

	e.audit(ctx, AuditPeriodClosed, "",
		fmt.Sprintf("period %s closed: %d invoices issued", periodStart, len(result.Issued)))
	return result, nil
}

// closeEmployee runs the atomic pair for one employee: read the counter,
// insert the record, bump the counter. The transaction guarantees the
// record and the counter move together or not at all.
func (e *Engine) closeEmployee(ctx context.Context, id EmployeeID, periodStart Date, grandTotal decimal.Decimal) (ClosedInvoice, error) {
	var closed ClosedInvoice
	err := e.Store.WithTx(ctx, func(s Store) error {
		emp, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if emp == nil {
			return ErrUnknownEmployee
		}

		next := emp.LastInvoice + 1
		rec := InvoiceRecord{
			ID:            uuid.NewString(),
			EmployeeID:    id,
			PeriodStart:   periodStart,
			InvoiceNumber: next,
			GrandTotal:    grandTotal,
			IssuedAt:      e.Clock.Now(),
		}
		if err := s.InsertInvoice(ctx, rec); err != nil {
			return err
		}
		if err := s.SetLastInvoice(ctx, id, next); err != nil {
			return err
		}
		closed = ClosedInvoice{EmployeeID: id, InvoiceNumber: next, GrandTotal: grandTotal}
		return nil
	})
	return closed, err
}

func (e *Engine) audit(ctx context.Context, action AuditAction, id EmployeeID, details string) {
	_ = e.Audit.Record(ctx, AuditEvent{
		ID:         uuid.NewString(),
		At:         e.Clock.Now(),
		Action:     action,
		EmployeeID: id,
		Actor:      "admin",
		Details:    details,
	})
}
