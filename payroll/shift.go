/*
shift.go - Shift window classification

PURPOSE:
  Classifies a point in time into a shift type or "blocked". The weekly
  window table is fixed:

    Mon-Thu  07:00-10:00  standard (morning)
    Fri      07:00-10:00  standard (morning)
    Fri      19:30-22:30  overtime (evening)
    Sat      16:30-19:30  overtime (evening)
    Sun      -            no window, ever

  Windows are half-open [from, to): 09:59 is inside the morning window,
  10:00 is not. All times are wall-clock in the system's configured zone;
  callers resolve the instant into that zone before classifying.
*/
package payroll

import "time"

// minuteOfDay is minutes since midnight, wall-clock.
type minuteOfDay int

func mod(h, m int) minuteOfDay { return minuteOfDay(h*60 + m) }

// shiftWindow is one recurring weekly interval during which a punch is legal.
type shiftWindow struct {
	day  time.Weekday
	from minuteOfDay
	to   minuteOfDay // exclusive
	typ  ShiftType
}

var shiftWindows = []shiftWindow{
	{time.Monday, mod(7, 0), mod(10, 0), ShiftStandard},
	{time.Tuesday, mod(7, 0), mod(10, 0), ShiftStandard},
	{time.Wednesday, mod(7, 0), mod(10, 0), ShiftStandard},
	{time.Thursday, mod(7, 0), mod(10, 0), ShiftStandard},
	{time.Friday, mod(7, 0), mod(10, 0), ShiftStandard},
	{time.Friday, mod(19, 30), mod(22, 30), ShiftOvertime},
	{time.Saturday, mod(16, 30), mod(19, 30), ShiftOvertime},
}

// Classify resolves an instant (already in the configured zone) to the
// shift window open at that moment. Returns false when no window is open.
// Pure function of weekday + time of day.
func Classify(t time.Time) (ShiftType, bool) {
	now := mod(t.Hour(), t.Minute())
	for _, w := range shiftWindows {
		if t.Weekday() == w.day && now >= w.from && now < w.to {
			return w.typ, true
		}
	}
	return "", false
}

// ClassifyIn resolves an instant into loc first, then classifies.
func ClassifyIn(t time.Time, loc *time.Location) (ShiftType, bool) {
	return Classify(t.In(loc))
}
