/*
punch.go - The punch-eligibility state machine

PURPOSE:
  Gates whether a punch is legal "now" and whether the employee has already
  punched for the current window. Per employee per instant the state is:

    blocked  - no shift window open; terminal regardless of existing punches
    ready    - a window is open and no punch exists for (employee, today,
               window's shift type)
    punched  - a window is open and today's punch already exists; terminal
               for the window, status carries the existing punch's timestamp

  Accept is only legal from ready. It captures the wall-clock instant, the
  zone-resolved calendar date, the window's shift type and the employee's
  CURRENT hourly rate into one immutable punch.

CONCURRENCY:
  Accept is read-check-then-write. The read check gives the friendly
  "already punched" answer; the store's uniqueness constraint is the real
  guard. When a concurrent attempt wins the race, the insert fails with
  ErrDuplicatePunch and Accept re-reads the winner to report its timestamp.
  Terminal error, not a retry.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PunchState is the validator's answer for one employee at one instant.
type PunchState string

const (
	StateBlocked PunchState = "blocked"
	StateReady   PunchState = "ready"
	StatePunched PunchState = "punched"
)

// PunchStatus reports the state plus, when punched, the existing punch.
type PunchStatus struct {
	State    PunchState
	Shift    ShiftType // set for ready and punched
	Existing *Punch    // set for punched
}

// Validator drives the punch flow for one configured calendar.
type Validator struct {
	Punches   PunchStore
	Employees EmployeeStore
	Calendar  Calendar
	Clock     Clock
	Audit     AuditLog
}

// NewValidator wires a validator. A nil audit sink falls back to NopAuditLog.
func NewValidator(punches PunchStore, employees EmployeeStore, cal Calendar, clock Clock, audit AuditLog) *Validator {
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &Validator{Punches: punches, Employees: employees, Calendar: cal, Clock: clock, Audit: audit}
}

// Status resolves the state machine for the employee at the clock's "now".
func (v *Validator) Status(ctx context.Context, id EmployeeID) (PunchStatus, error) {
	now := v.Clock.Now().In(v.Calendar.Location)

	shift, open := Classify(now)
	if !open {
		return PunchStatus{State: StateBlocked}, nil
	}

	today := DateOf(now, v.Calendar.Location)
	existing, err := v.Punches.FindPunch(ctx, id, today, shift)
	if err != nil {
		return PunchStatus{}, fmt.Errorf("check existing punch: %w", err)
	}
	if existing != nil {
		return PunchStatus{State: StatePunched, Shift: shift, Existing: existing}, nil
	}
	return PunchStatus{State: StateReady, Shift: shift}, nil
}

// Accept records a punch for the employee at the clock's "now".
// Fails with ErrOutOfWindow when blocked and ErrDuplicatePunch when the
// day's punch already exists (including losing a concurrent race).
func (v *Validator) Accept(ctx context.Context, id EmployeeID) (*Punch, error) {
	now := v.Clock.Now().In(v.Calendar.Location)

	shift, open := Classify(now)
	if !open {
		return nil, &OutOfWindowError{At: now}
	}

	emp, err := v.Employees.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if emp == nil {
		return nil, ErrUnknownEmployee
	}
	if emp.HourlyRate.IsZero() {
		return nil, ErrMissingRateConfig
	}

	today := DateOf(now, v.Calendar.Location)
	p := Punch{
		ID:         uuid.NewString(),
		EmployeeID: id,
		Date:       today,
		PunchedAt:  now,
		Shift:      shift,
		Rate:       emp.HourlyRate,
		Source:     SourceClock,
	}

	if err := v.Punches.InsertPunch(ctx, p); err != nil {
		if errors.Is(err, ErrDuplicatePunch) {
			return nil, v.duplicateError(ctx, id, today, shift)
		}
		return nil, fmt.Errorf("insert punch: %w", err)
	}

	v.audit(ctx, AuditPunchAccepted, id, string(id),
		fmt.Sprintf("%s shift punched at %s", shift, now.Format("15:04")))
	return &p, nil
}

// duplicateError re-reads the winning punch so the caller can report its
// timestamp. Falls back to the bare sentinel if the re-read fails.
func (v *Validator) duplicateError(ctx context.Context, id EmployeeID, date Date, shift ShiftType) error {
	existing, err := v.Punches.FindPunch(ctx, id, date, shift)
	if err != nil || existing == nil {
		return ErrDuplicatePunch
	}
	return &DuplicatePunchError{
		EmployeeID: id,
		Date:       date,
		Shift:      shift,
		PunchedAt:  existing.PunchedAt,
	}
}

// =============================================================================
// ADMIN OVERRIDE
// =============================================================================

// AdminUpsert corrects a punch outside the gate: it bypasses window
// classification entirely, last-write-wins.
//
// CAPTURED-RATE INVARIANT: an existing punch keeps the rate it captured;
// only a brand-new punch captures the employee's current rate. A rate
// change between the original punch and the correction must not rewrite
// the pay already earned.
func (v *Validator) AdminUpsert(ctx context.Context, actor string, id EmployeeID, date Date, shift ShiftType) (*Punch, error) {
	if !shift.Valid() {
		return nil, fmt.Errorf("unknown shift type %q", shift)
	}

	emp, err := v.Employees.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if emp == nil {
		return nil, ErrUnknownEmployee
	}

	existing, err := v.Punches.FindPunch(ctx, id, date, shift)
	if err != nil {
		return nil, fmt.Errorf("check existing punch: %w", err)
	}

	rate := emp.HourlyRate
	punchedAt := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, v.Calendar.Location)
	punchID := uuid.NewString()
	if existing != nil {
		rate = existing.Rate
		punchedAt = existing.PunchedAt
		punchID = existing.ID
	}
	if rate.IsZero() {
		return nil, ErrMissingRateConfig
	}

	p := Punch{
		ID:         punchID,
		EmployeeID: id,
		Date:       date,
		PunchedAt:  punchedAt,
		Shift:      shift,
		Rate:       rate,
		Source:     SourceAdmin,
	}
	if err := v.Punches.UpsertPunch(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert punch: %w", err)
	}

	v.audit(ctx, AuditPunchEdited, id, actor,
		fmt.Sprintf("%s %s entry edited", date, shift))
	return &p, nil
}

// audit emits an event and drops the error: the sink must never block or
// roll back the operation.
func (v *Validator) audit(ctx context.Context, action AuditAction, id EmployeeID, actor, details string) {
	_ = v.Audit.Record(ctx, AuditEvent{
		ID:         uuid.NewString(),
		At:         v.Clock.Now(),
		Action:     action,
		EmployeeID: id,
		Actor:      actor,
		Details:    details,
	})
}
