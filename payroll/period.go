/*
period.go - Fortnight tiling from a fixed anchor

PURPOSE:
  Maps any calendar date to the start of its enclosing 14-day pay period.
  Periods tile the calendar with no gaps or overlaps: every period start is
  anchor + 14k for some integer k, including negative k for dates before
  the anchor.

WHY AN EXPLICIT ANCHOR:
  The anchor is configuration, passed into the Calendar value at startup.
  It is never package-level mutable state: changing the anchor mid-life
  shifts every period boundary, so it must be a single versioned constant
  per deployment.

INVARIANTS (tested in period_test.go):
  - PeriodStart(PeriodStart(d)) == PeriodStart(d)
  - PeriodStart(d) <= d < PeriodStart(d) + 14 days
  - PeriodStart(anchor + 14k) == anchor + 14k for all k
*/
package payroll

import "time"

// PeriodDays is the fixed length of a pay period in calendar days.
const PeriodDays = 14

// Calendar performs all period math for one configured anchor and zone.
// It is a value, safe to copy, with no side effects.
type Calendar struct {
	Anchor   Date
	Location *time.Location
}

// NewCalendar builds a Calendar. A nil location falls back to UTC.
func NewCalendar(anchor Date, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Anchor: anchor, Location: loc}
}

// Today resolves the clock's current instant into a calendar date in the
// configured zone.
func (c Calendar) Today(clock Clock) Date {
	return DateOf(clock.Now(), c.Location)
}

// PeriodStart returns the start of the 14-day period containing d.
// Uses floored division so dates before the anchor resolve to the correct
// earlier period instead of truncating toward zero.
func (c Calendar) PeriodStart(d Date) Date {
	days := DaysBetween(c.Anchor, d)
	return c.Anchor.AddDays(PeriodDays * floorDiv(days, PeriodDays))
}

// PeriodFor returns the period containing d.
func (c Calendar) PeriodFor(d Date) Period {
	return Period{Start: c.PeriodStart(d)}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// =============================================================================
// PERIOD - A derived 14-day half-open interval
// =============================================================================

// Period is one pay fortnight: the half-open interval [Start, Start+14).
// Periods are always derived from a Calendar, never persisted.
type Period struct {
	Start Date
}

// End returns the last day inside the period (Start + 13), as shown on
// period selectors and invoices.
func (p Period) End() Date { return p.Start.AddDays(PeriodDays - 1) }

// Bound returns the exclusive upper bound (Start + 14), for range queries.
func (p Period) Bound() Date { return p.Start.AddDays(PeriodDays) }

// Contains reports whether d falls inside [Start, Start+14).
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.Before(p.Bound())
}

// Next returns the following period.
func (p Period) Next() Period { return Period{Start: p.Start.AddDays(PeriodDays)} }

// Previous returns the preceding period.
func (p Period) Previous() Period { return Period{Start: p.Start.AddDays(-PeriodDays)} }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End().String() + "]"
}

// =============================================================================
// PERIOD OPTIONS - Selector enumeration
// =============================================================================

// PeriodOption pairs a period start with its display end date, for the
// period dropdowns on the timesheet and invoice views.
type PeriodOption struct {
	Start Date
	End   Date
}

// PeriodOptions enumerates the n most recent period starts at or before
// ref's period, newest first.
func (c Calendar) PeriodOptions(n int, ref Date) []PeriodOption {
	options := make([]PeriodOption, 0, n)
	p := c.PeriodFor(ref)
	for i := 0; i < n; i++ {
		options = append(options, PeriodOption{Start: p.Start, End: p.End()})
		p = p.Previous()
	}
	return options
}
