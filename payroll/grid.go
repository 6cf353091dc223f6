/*
grid.go - Timesheet aggregation into the fortnight grid

PURPOSE:
  Buckets a period's punches into the fixed timesheet grid: 14 slots per
  employee, of which only the first 12 are ever filled. The layout
  compresses a 14-calendar-day span containing two non-working Sundays into
  a 12-column "week x 2" view:

    dayOffset   = daysBetween(periodStart, punchDate)   in [0, 14)
    weeksPassed = floor(dayOffset / 7)                  0 or 1
    slot        = dayOffset - weeksPassed               in [0, 12)

  Subtracting weeksPassed (not 7*weeksPassed) is what collapses each week's
  trailing Sunday out of the visible grid; the arithmetic is kept exactly
  as the reporting layout expects, including its behavior at the week
  boundary.

DEFENSIVE FILTERS:
  Sunday punches should not exist (no window opens on Sunday) and any slot
  outside [0, 12) is impossible for an in-period punch, but aggregation
  must not crash or miscount if bad rows appear - both are discarded.

ROUNDING:
  Slot sums stay exact; each employee's total is rounded half-up to one
  decimal place once, on the final sum.
*/
package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// GridSlots is the number of visible columns (2 weeks x 6 working days).
const GridSlots = 12

// GridMode selects which employees appear in the output.
type GridMode int

const (
	// GridAllEmployees keeps every roster entry, empty grids included.
	// Admin roster view.
	GridAllEmployees GridMode = iota

	// GridWithPunches keeps only employees with at least one bucketed
	// punch. Per-employee timesheet view.
	GridWithPunches
)

// Slot is one grid cell. Filled distinguishes "no entry" from zero hours.
type Slot struct {
	Filled bool
	Hours  decimal.Decimal
}

// Add merges hours into the slot. Additive, never overwrite: two punches
// mapping to the same slot both count.
func (s *Slot) Add(h decimal.Decimal) {
	if s.Filled {
		s.Hours = s.Hours.Add(h)
		return
	}
	s.Filled = true
	s.Hours = h
}

// TimesheetRow is one employee's grid plus their rounded total.
type TimesheetRow struct {
	Employee Employee
	Slots    [PeriodDays]Slot
	Total    decimal.Decimal
}

// Timesheet is the aggregated grid for one period.
type Timesheet struct {
	PeriodStart Date
	Rows        []TimesheetRow
	SlotTotals  [PeriodDays]decimal.Decimal
	GrandTotal  decimal.Decimal
}

// BuildGrid aggregates punches into the fortnight grid. Punches outside
// [periodStart, periodStart+14) or belonging to employees not in the
// roster slice are ignored. Pure function; stable under repeated calls.
func BuildGrid(periodStart Date, employees []Employee, punches []Punch, mode GridMode) Timesheet {
	period := Period{Start: periodStart}

	rows := make(map[EmployeeID]*TimesheetRow, len(employees))
	order := make([]EmployeeID, 0, len(employees))
	for _, e := range employees {
		rows[e.ID] = &TimesheetRow{Employee: e}
		order = append(order, e.ID)
	}

	filled := make(map[EmployeeID]bool)
	for _, p := range punches {
		row, ok := rows[p.EmployeeID]
		if !ok || !period.Contains(p.Date) {
			continue
		}
		if p.Date.Weekday() == time.Sunday {
			continue // non-working day; defensive
		}

		dayOffset := DaysBetween(periodStart, p.Date)
		weeksPassed := floorDiv(dayOffset, 7)
		slot := dayOffset - weeksPassed
		if slot < 0 || slot >= GridSlots {
			continue // defensive
		}

		row.Slots[slot].Add(p.Hours())
		filled[p.EmployeeID] = true
	}

	ts := Timesheet{PeriodStart: periodStart}
	for _, id := range order {
		if mode == GridWithPunches && !filled[id] {
			continue
		}
		row := rows[id]
		total := decimal.Zero
		for i, s := range row.Slots {
			if !s.Filled {
				continue
			}
			total = total.Add(s.Hours)
			ts.SlotTotals[i] = ts.SlotTotals[i].Add(s.Hours)
		}
		row.Total = total.Round(1)
		ts.GrandTotal = ts.GrandTotal.Add(total)
		ts.Rows = append(ts.Rows, *row)
	}

	sort.SliceStable(ts.Rows, func(i, j int) bool {
		return ts.Rows[i].Employee.DisplayName() < ts.Rows[j].Employee.DisplayName()
	})
	return ts
}
