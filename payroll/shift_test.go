package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/attendance-engine/payroll"
)

// The week of 2025-01-06: Monday the 6th through Sunday the 12th.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.January, day, hour, minute, 0, 0, time.UTC)
}

func TestClassify_WindowTable(t *testing.T) {
	cases := []struct {
		name  string
		t     time.Time
		shift payroll.ShiftType
		open  bool
	}{
		{"monday morning mid-window", at(6, 8, 0), payroll.ShiftStandard, true},
		{"monday morning opening minute", at(6, 7, 0), payroll.ShiftStandard, true},
		{"monday last minute inside", at(6, 9, 59), payroll.ShiftStandard, true},
		{"monday closing minute excluded", at(6, 10, 0), "", false},
		{"monday before opening", at(6, 6, 59), "", false},
		{"monday evening", at(6, 20, 0), "", false},

		{"thursday morning", at(9, 8, 30), payroll.ShiftStandard, true},

		{"friday morning", at(10, 9, 0), payroll.ShiftStandard, true},
		{"friday evening mid-window", at(10, 20, 0), payroll.ShiftOvertime, true},
		{"friday evening opening minute", at(10, 19, 30), payroll.ShiftOvertime, true},
		{"friday evening closing minute excluded", at(10, 22, 30), "", false},
		{"friday between windows", at(10, 15, 0), "", false},

		{"saturday mid-window", at(11, 17, 0), payroll.ShiftOvertime, true},
		{"saturday opening minute", at(11, 16, 30), payroll.ShiftOvertime, true},
		{"saturday closing minute excluded", at(11, 19, 30), "", false},
		{"saturday morning closed", at(11, 8, 0), "", false},

		{"sunday morning", at(12, 8, 0), "", false},
		{"sunday evening", at(12, 17, 0), "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shift, open := payroll.Classify(tc.t)
			assert.Equal(t, tc.open, open)
			assert.Equal(t, tc.shift, shift)
		})
	}
}

func TestClassifyIn_ResolvesZoneFirst(t *testing.T) {
	// 21:30 UTC Sunday is 07:30 Monday in UTC+10: the window decision
	// must use the configured zone's wall clock.

	brisbane := time.FixedZone("AEST", 10*3600)
	sundayEveningUTC := time.Date(2025, time.January, 5, 21, 30, 0, 0, time.UTC)

	_, open := payroll.Classify(sundayEveningUTC)
	assert.False(t, open, "UTC wall clock is Sunday evening")

	shift, open := payroll.ClassifyIn(sundayEveningUTC, brisbane)
	assert.True(t, open, "Brisbane wall clock is Monday morning")
	assert.Equal(t, payroll.ShiftStandard, shift)
}

func TestShiftType_Hours(t *testing.T) {
	assert.Equal(t, "2", payroll.ShiftStandard.Hours().String())
	assert.Equal(t, "2.4", payroll.ShiftOvertime.Hours().String())

	assert.True(t, payroll.ShiftStandard.Valid())
	assert.True(t, payroll.ShiftOvertime.Valid())
	assert.False(t, payroll.ShiftType("night").Valid())
}
