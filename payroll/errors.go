/*
errors.go - Centralized error types for the attendance engine

PURPOSE:
  All error types in one place. The boundary between expected business
  outcomes and faults matters here:

  EXPECTED OUTCOMES (typed, checked with errors.Is / errors.As):
    ErrOutOfWindow      - punch attempted with no open shift window
    ErrDuplicatePunch   - a punch already exists for today's window
    ErrAlreadyInvoiced  - close attempted for an already-closed pair;
                          batch close skips these silently
    ErrPeriodNotClosed  - official invoice requested before close;
                          caller falls back to draft rendering

  FAULTS (fatal to the specific operation, never retried by the core):
    ErrUnknownEmployee, ErrMissingRateConfig, and anything the store
    propagates outside the expected duplicate case.
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrOutOfWindow is returned when a punch is attempted while no shift
	// window is open. User-correctable; surfaced as the blocked state.
	ErrOutOfWindow = errors.New("no shift window open")

	// ErrDuplicatePunch is returned when a punch already exists for
	// (employee, date, shift type). Terminal for the attempt: the caller
	// should re-query status and show the existing punch.
	ErrDuplicatePunch = errors.New("punch already recorded for this shift")

	// ErrAlreadyInvoiced is returned when an employee/period pair already
	// has an invoice record. Batch close treats it as a skip, not a fault.
	ErrAlreadyInvoiced = errors.New("period already invoiced for employee")

	// ErrPeriodNotClosed is returned when an official invoice is requested
	// before the period has been closed for that employee.
	ErrPeriodNotClosed = errors.New("period not closed")

	// ErrUnknownEmployee is a referential integrity failure from the
	// employee store.
	ErrUnknownEmployee = errors.New("unknown employee")

	// ErrMissingRateConfig is returned when an operation needs an hourly
	// rate and the employee has none configured.
	ErrMissingRateConfig = errors.New("no hourly rate configured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicatePunchError reports the existing punch so the caller can show
// "already punched at HH:MM".
type DuplicatePunchError struct {
	EmployeeID EmployeeID
	Date       Date
	Shift      ShiftType
	PunchedAt  time.Time
}

func (e *DuplicatePunchError) Error() string {
	return fmt.Sprintf("punch already recorded: %s %s for %s at %s",
		e.Date, e.Shift, e.EmployeeID, e.PunchedAt.Format("15:04"))
}

func (e *DuplicatePunchError) Unwrap() error { return ErrDuplicatePunch }

// OutOfWindowError reports the instant that failed to classify.
type OutOfWindowError struct {
	At time.Time
}

func (e *OutOfWindowError) Error() string {
	return fmt.Sprintf("no shift window open at %s", e.At.Format("Mon 15:04"))
}

func (e *OutOfWindowError) Unwrap() error { return ErrOutOfWindow }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is an expected business outcome
// rather than a store fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrOutOfWindow) ||
		errors.Is(err, ErrDuplicatePunch) ||
		errors.Is(err, ErrAlreadyInvoiced) ||
		errors.Is(err, ErrPeriodNotClosed)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownEmployee)
}
