package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/payroll"
)

// periodDec8 starts Monday 2025-12-08, a verified fortnight start for the
// test anchor.
var periodDec8 = payroll.NewDate(2025, time.December, 8)

func gridEmployee(id, surname string) payroll.Employee {
	return payroll.Employee{
		ID:         payroll.EmployeeID(id),
		Name:       "Kim",
		Surname:    surname,
		HourlyRate: decimal.NewFromInt(25),
		Active:     true,
	}
}

func gridPunch(id string, date payroll.Date, shift payroll.ShiftType) payroll.Punch {
	return payroll.Punch{
		ID:         id + "-" + date.String() + "-" + string(shift),
		EmployeeID: payroll.EmployeeID(id),
		Date:       date,
		Shift:      shift,
		Rate:       decimal.NewFromInt(25),
		Source:     payroll.SourceClock,
	}
}

// =============================================================================
// SLOT MAPPING
// =============================================================================

func TestBuildGrid_SlotMapping(t *testing.T) {
	// GIVEN: punches across both weeks of the period
	// WHEN: aggregated
	// THEN: first-week days land in slots 0..5, second-week days in 6..11

	employees := []payroll.Employee{gridEmployee("emp-1", "Stone")}
	punches := []payroll.Punch{
		gridPunch("emp-1", periodDec8, payroll.ShiftStandard),             // Mon W1 -> slot 0
		gridPunch("emp-1", periodDec8.AddDays(5), payroll.ShiftOvertime),  // Sat W1 -> slot 5
		gridPunch("emp-1", periodDec8.AddDays(7), payroll.ShiftStandard),  // Mon W2 -> slot 6
		gridPunch("emp-1", periodDec8.AddDays(12), payroll.ShiftOvertime), // Sat W2 -> slot 11
	}

	ts := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)
	require.Len(t, ts.Rows, 1)
	row := ts.Rows[0]

	assert.True(t, row.Slots[0].Filled)
	assert.Equal(t, "2", row.Slots[0].Hours.String())
	assert.True(t, row.Slots[5].Filled)
	assert.Equal(t, "2.4", row.Slots[5].Hours.String())
	assert.True(t, row.Slots[6].Filled)
	assert.Equal(t, "2", row.Slots[6].Hours.String())
	assert.True(t, row.Slots[11].Filled)
	assert.Equal(t, "2.4", row.Slots[11].Hours.String())

	for _, slot := range []int{1, 2, 3, 4, 7, 8, 9, 10, 12, 13} {
		assert.False(t, row.Slots[slot].Filled, "slot %d should be empty", slot)
	}

	assert.Equal(t, "8.8", row.Total.String())
}

func TestBuildGrid_SundayPunchesDiscarded(t *testing.T) {
	// Sunday rows cannot be produced by the gated flow, but aggregation
	// must not miscount if one appears.

	employees := []payroll.Employee{gridEmployee("emp-1", "Stone")}
	punches := []payroll.Punch{
		gridPunch("emp-1", periodDec8.AddDays(6), payroll.ShiftStandard),  // Sun W1
		gridPunch("emp-1", periodDec8.AddDays(13), payroll.ShiftStandard), // Sun W2
	}

	ts := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)
	require.Len(t, ts.Rows, 1)
	assert.True(t, ts.Rows[0].Total.IsZero())
	for i := 0; i < payroll.GridSlots; i++ {
		assert.False(t, ts.Rows[0].Slots[i].Filled)
	}
}

func TestBuildGrid_OutOfPeriodAndUnknownPunchesIgnored(t *testing.T) {
	employees := []payroll.Employee{gridEmployee("emp-1", "Stone")}
	punches := []payroll.Punch{
		gridPunch("emp-1", periodDec8.AddDays(-1), payroll.ShiftStandard), // before
		gridPunch("emp-1", periodDec8.AddDays(14), payroll.ShiftStandard), // after
		gridPunch("ghost", periodDec8, payroll.ShiftStandard),             // not rostered
	}

	ts := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)
	require.Len(t, ts.Rows, 1)
	assert.True(t, ts.Rows[0].Total.IsZero())
}

func TestBuildGrid_AdditiveMerge_SameSlot(t *testing.T) {
	// Friday carries both a standard morning and an overtime evening
	// window; both land in the same column and must add up.

	friday := periodDec8.AddDays(4)
	require.Equal(t, time.Friday, friday.Weekday())

	employees := []payroll.Employee{gridEmployee("emp-1", "Stone")}
	punches := []payroll.Punch{
		gridPunch("emp-1", friday, payroll.ShiftStandard),
		gridPunch("emp-1", friday, payroll.ShiftOvertime),
	}

	ts := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)
	require.Len(t, ts.Rows, 1)
	assert.Equal(t, "4.4", ts.Rows[0].Slots[4].Hours.String())
	assert.Equal(t, "4.4", ts.Rows[0].Total.String())
}

// =============================================================================
// MODES AND TOTALS
// =============================================================================

func TestBuildGrid_Modes(t *testing.T) {
	// GIVEN: one employee with punches, one without
	// WHEN: built in each mode
	// THEN: all-employees keeps both rows, with-punches drops the empty one

	employees := []payroll.Employee{
		gridEmployee("emp-1", "Stone"),
		gridEmployee("emp-2", "Reed"),
	}
	punches := []payroll.Punch{
		gridPunch("emp-1", periodDec8, payroll.ShiftStandard),
	}

	all := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)
	assert.Len(t, all.Rows, 2)

	punched := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridWithPunches)
	require.Len(t, punched.Rows, 1)
	assert.Equal(t, payroll.EmployeeID("emp-1"), punched.Rows[0].Employee.ID)
}

func TestBuildGrid_RowsSortedByDisplayName(t *testing.T) {
	employees := []payroll.Employee{
		gridEmployee("emp-1", "Stone"),
		gridEmployee("emp-2", "Reed"),
		gridEmployee("emp-3", "Avila"),
	}

	ts := payroll.BuildGrid(periodDec8, employees, nil, payroll.GridAllEmployees)
	require.Len(t, ts.Rows, 3)
	assert.Equal(t, "Avila, Kim", ts.Rows[0].Employee.DisplayName())
	assert.Equal(t, "Reed, Kim", ts.Rows[1].Employee.DisplayName())
	assert.Equal(t, "Stone, Kim", ts.Rows[2].Employee.DisplayName())
}

func TestBuildGrid_SlotAndGrandTotals(t *testing.T) {
	employees := []payroll.Employee{
		gridEmployee("emp-1", "Stone"),
		gridEmployee("emp-2", "Reed"),
	}
	punches := []payroll.Punch{
		gridPunch("emp-1", periodDec8, payroll.ShiftStandard),
		gridPunch("emp-2", periodDec8, payroll.ShiftStandard),
		gridPunch("emp-2", periodDec8.AddDays(12), payroll.ShiftOvertime),
	}

	ts := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)

	assert.Equal(t, "4", ts.SlotTotals[0].String())
	assert.Equal(t, "2.4", ts.SlotTotals[11].String())
	assert.Equal(t, "6.4", ts.GrandTotal.String())
}

func TestBuildGrid_Repeatable(t *testing.T) {
	employees := []payroll.Employee{gridEmployee("emp-1", "Stone")}
	punches := []payroll.Punch{
		gridPunch("emp-1", periodDec8, payroll.ShiftStandard),
		gridPunch("emp-1", periodDec8.AddDays(1), payroll.ShiftStandard),
	}

	first := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)
	second := payroll.BuildGrid(periodDec8, employees, punches, payroll.GridAllEmployees)

	assert.Equal(t, first.GrandTotal.String(), second.GrandTotal.String())
	assert.Equal(t, first.Rows[0].Total.String(), second.Rows[0].Total.String())
}
