package payroll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) (*payroll.Engine, *store.TxMemory) {
	t.Helper()
	mem := store.NewTxMemory()
	clock := payroll.FixedClock{T: time.Date(2025, time.December, 22, 9, 0, 0, 0, time.UTC)}
	return payroll.NewEngine(mem, testCalendar(), clock, mem), mem
}

func seedWorker(t *testing.T, mem *store.TxMemory, id string, rate float64, lastInvoice int) payroll.Employee {
	t.Helper()
	emp := payroll.Employee{
		ID:          payroll.EmployeeID(id),
		Name:        "Jo",
		Surname:     "Marsh",
		HourlyRate:  decimal.NewFromFloat(rate),
		Role:        payroll.RoleWorker,
		Active:      true,
		LastInvoice: lastInvoice,
	}
	require.NoError(t, mem.Save(context.Background(), emp))
	return emp
}

func seedPunch(t *testing.T, mem *store.TxMemory, id string, date payroll.Date, shift payroll.ShiftType, rate float64) {
	t.Helper()
	p := payroll.Punch{
		ID:         id + "-" + date.String() + "-" + string(shift),
		EmployeeID: payroll.EmployeeID(id),
		Date:       date,
		PunchedAt:  date.Time.Add(8 * time.Hour),
		Shift:      shift,
		Rate:       decimal.NewFromFloat(rate),
		Source:     payroll.SourceClock,
	}
	require.NoError(t, mem.InsertPunch(context.Background(), p))
}

// =============================================================================
// COMPUTATION
// =============================================================================

func TestComputeInvoice_UsesCapturedRates(t *testing.T) {
	// GIVEN: punches captured at $25/h, employee's current rate is $30/h
	// WHEN: computing the invoice
	// THEN: lines price at the captured $25, never the current rate

	emp := payroll.Employee{ID: "emp-1", Name: "Jo", Surname: "Marsh",
		HourlyRate: decimal.NewFromInt(30)}
	punches := []payroll.Punch{
		{EmployeeID: "emp-1", Date: periodDec8, Shift: payroll.ShiftStandard,
			Rate: decimal.NewFromInt(25)},
		{EmployeeID: "emp-1", Date: periodDec8.AddDays(5), Shift: payroll.ShiftOvertime,
			Rate: decimal.NewFromInt(25)},
	}

	inv := payroll.ComputeInvoice(emp, periodDec8, punches)

	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "50", inv.Lines[0].Gross.String())  // 2.0h x $25
	assert.Equal(t, "60", inv.Lines[1].Gross.String())  // 2.4h x $25
	assert.Equal(t, "110", inv.GrandTotal.String())
	assert.Equal(t, "4.4", inv.TotalHours.String())
	assert.Nil(t, inv.Number, "uncommitted invoice is a draft")
}

func TestComputeInvoice_FiltersAndSorts(t *testing.T) {
	emp := payroll.Employee{ID: "emp-1"}
	punches := []payroll.Punch{
		{EmployeeID: "emp-1", Date: periodDec8.AddDays(8), Shift: payroll.ShiftStandard, Rate: decimal.NewFromInt(25)},
		{EmployeeID: "emp-1", Date: periodDec8, Shift: payroll.ShiftStandard, Rate: decimal.NewFromInt(25)},
		{EmployeeID: "emp-2", Date: periodDec8, Shift: payroll.ShiftStandard, Rate: decimal.NewFromInt(25)},            // other employee
		{EmployeeID: "emp-1", Date: periodDec8.AddDays(20), Shift: payroll.ShiftStandard, Rate: decimal.NewFromInt(25)}, // next period
	}

	inv := payroll.ComputeInvoice(emp, periodDec8, punches)

	require.Len(t, inv.Lines, 2)
	assert.True(t, inv.Lines[0].Date.Before(inv.Lines[1].Date), "lines sorted by date")
}

func TestComputeInvoice_Repeatable(t *testing.T) {
	emp := payroll.Employee{ID: "emp-1"}
	punches := []payroll.Punch{
		{EmployeeID: "emp-1", Date: periodDec8, Shift: payroll.ShiftStandard, Rate: decimal.NewFromInt(25)},
	}

	first := payroll.ComputeInvoice(emp, periodDec8, punches)
	second := payroll.ComputeInvoice(emp, periodDec8, punches)
	assert.Equal(t, first.GrandTotal.String(), second.GrandTotal.String())
	assert.Len(t, second.Lines, 1)
}

func TestComputeInvoice_RoundsOnceAtTotal(t *testing.T) {
	// A rate with sub-cent products: 2.4h x $25.13 = $60.312 per line.
	// Three lines sum to $180.936, rounded once to $180.94; rounding each
	// line first would give $180.93.

	emp := payroll.Employee{ID: "emp-1"}
	rate := decimal.RequireFromString("25.13")
	punches := []payroll.Punch{
		{EmployeeID: "emp-1", Date: periodDec8.AddDays(4), Shift: payroll.ShiftOvertime, Rate: rate},
		{EmployeeID: "emp-1", Date: periodDec8.AddDays(5), Shift: payroll.ShiftOvertime, Rate: rate},
		{EmployeeID: "emp-1", Date: periodDec8.AddDays(11), Shift: payroll.ShiftOvertime, Rate: rate},
	}

	inv := payroll.ComputeInvoice(emp, periodDec8, punches)
	assert.Equal(t, "180.94", inv.GrandTotal.StringFixed(2))
}

// =============================================================================
// CLOSE - numbering and idempotency
// =============================================================================

func TestClosePeriod_IssuesSequentialNumbers(t *testing.T) {
	// GIVEN: two employees with hours, counters at 41 and 7
	// WHEN: closing the period
	// THEN: they get numbers 42 and 8 on their own counters

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedWorker(t, mem, "emp-1", 25, 41)
	seedWorker(t, mem, "emp-2", 30, 7)
	seedPunch(t, mem, "emp-1", periodDec8, payroll.ShiftStandard, 25)
	seedPunch(t, mem, "emp-2", periodDec8, payroll.ShiftStandard, 30)

	result, err := engine.ClosePeriod(ctx, periodDec8)
	require.NoError(t, err)
	require.Len(t, result.Issued, 2)

	numbers := map[payroll.EmployeeID]int{}
	for _, issued := range result.Issued {
		numbers[issued.EmployeeID] = issued.InvoiceNumber
	}
	assert.Equal(t, 42, numbers["emp-1"])
	assert.Equal(t, 8, numbers["emp-2"])

	// Counters moved with the records.
	emp1, err := mem.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 42, emp1.LastInvoice)
}

func TestClosePeriod_Idempotent(t *testing.T) {
	// GIVEN: a closed period
	// WHEN: closing again
	// THEN: no new invoices, no counter movement

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedWorker(t, mem, "emp-1", 25, 0)
	seedPunch(t, mem, "emp-1", periodDec8, payroll.ShiftStandard, 25)

	first, err := engine.ClosePeriod(ctx, periodDec8)
	require.NoError(t, err)
	require.Len(t, first.Issued, 1)

	second, err := engine.ClosePeriod(ctx, periodDec8)
	require.NoError(t, err)
	assert.Empty(t, second.Issued)
	assert.Equal(t, 1, second.SkippedClosed)

	emp, err := mem.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, emp.LastInvoice, "rerun must not advance the counter")
}

func TestClosePeriod_SkipsZeroHours(t *testing.T) {
	engine, mem := newTestEngine(t)

	seedWorker(t, mem, "emp-1", 25, 0)
	seedWorker(t, mem, "emp-idle", 25, 3)

	seedPunch(t, mem, "emp-1", periodDec8, payroll.ShiftStandard, 25)

	result, err := engine.ClosePeriod(context.Background(), periodDec8)
	require.NoError(t, err)
	require.Len(t, result.Issued, 1)
	assert.Equal(t, payroll.EmployeeID("emp-1"), result.Issued[0].EmployeeID)
	assert.Equal(t, 1, result.SkippedNoHours)
}

func TestClosePeriod_RerunPicksUpNewEmployee(t *testing.T) {
	// GIVEN: a period closed for emp-1, then emp-2's punches appear
	// WHEN: closing again
	// THEN: only emp-2 is issued, on emp-2's own counter

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedWorker(t, mem, "emp-1", 25, 0)
	seedPunch(t, mem, "emp-1", periodDec8, payroll.ShiftStandard, 25)

	_, err := engine.ClosePeriod(ctx, periodDec8)
	require.NoError(t, err)

	seedWorker(t, mem, "emp-2", 30, 11)
	seedPunch(t, mem, "emp-2", periodDec8.AddDays(1), payroll.ShiftStandard, 30)

	second, err := engine.ClosePeriod(ctx, periodDec8)
	require.NoError(t, err)
	require.Len(t, second.Issued, 1)
	assert.Equal(t, payroll.EmployeeID("emp-2"), second.Issued[0].EmployeeID)
	assert.Equal(t, 12, second.Issued[0].InvoiceNumber)
	assert.Equal(t, 1, second.SkippedClosed)
}

func TestClosePeriod_DifferentPeriodsIndependent(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	nextPeriod := periodDec8.AddDays(payroll.PeriodDays)
	seedWorker(t, mem, "emp-1", 25, 0)
	seedPunch(t, mem, "emp-1", periodDec8, payroll.ShiftStandard, 25)
	seedPunch(t, mem, "emp-1", nextPeriod, payroll.ShiftStandard, 25)

	_, err := engine.ClosePeriod(ctx, periodDec8)
	require.NoError(t, err)
	result, err := engine.ClosePeriod(ctx, nextPeriod)
	require.NoError(t, err)

	require.Len(t, result.Issued, 1)
	assert.Equal(t, 2, result.Issued[0].InvoiceNumber)
}

// =============================================================================
// PREVIEW AND OFFICIAL
// =============================================================================

func TestPreview_DraftUntilClosed(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	seedWorker(t, mem, "emp-1", 25, 0)
	seedPunch(t, mem, "emp-1", periodDec8, payroll.ShiftStandard, 25)

	draft, err := engine.Preview(ctx, "emp-1", periodDec8)
	require.NoError(t, err)
	assert.False(t, draft.Closed())

	_, err = engine.Official(ctx, "emp-1", periodDec8)
	assert.ErrorIs(t, err, payroll.ErrPeriodNotClosed)

	_, err = engine.ClosePeriod(ctx, periodDec8)
	require.NoError(t, err)

	official, err := engine.Official(ctx, "emp-1", periodDec8)
	require.NoError(t, err)
	require.NotNil(t, official.Number)
	assert.Equal(t, 1, *official.Number)
	assert.Equal(t, draft.GrandTotal.String(), official.GrandTotal.String(),
		"content identical, only the number differs")
}

func TestPreview_UnknownEmployee(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Preview(context.Background(), "ghost", periodDec8)
	assert.ErrorIs(t, err, payroll.ErrUnknownEmployee)
}

// =============================================================================
// ATOMICITY
// =============================================================================

func TestWithTx_RollbackOnError(t *testing.T) {
	// The close transaction pairs the record insert with the counter
	// update. If the function fails after inserting, neither survives.

	mem := store.NewTxMemory()
	ctx := context.Background()
	seedWorker(t, mem, "emp-1", 25, 0)

	fail := errors.New("boom")
	err := mem.WithTx(ctx, func(s payroll.Store) error {
		rec := payroll.InvoiceRecord{
			ID:            "rec-1",
			EmployeeID:    "emp-1",
			PeriodStart:   periodDec8,
			InvoiceNumber: 1,
			GrandTotal:    decimal.NewFromInt(50),
		}
		if err := s.InsertInvoice(ctx, rec); err != nil {
			return err
		}
		if err := s.SetLastInvoice(ctx, "emp-1", 1); err != nil {
			return err
		}
		return fail
	})
	require.ErrorIs(t, err, fail)

	rec, err := mem.FindInvoice(ctx, "emp-1", periodDec8)
	require.NoError(t, err)
	assert.Nil(t, rec, "insert must roll back")

	emp, err := mem.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 0, emp.LastInvoice, "counter must roll back")
}

func TestInsertInvoice_DuplicateRejected(t *testing.T) {
	mem := store.NewTxMemory()
	ctx := context.Background()

	rec := payroll.InvoiceRecord{ID: "rec-1", EmployeeID: "emp-1",
		PeriodStart: periodDec8, InvoiceNumber: 1, GrandTotal: decimal.NewFromInt(50)}
	require.NoError(t, mem.InsertInvoice(ctx, rec))

	rec.ID = "rec-2"
	rec.InvoiceNumber = 2
	err := mem.InsertInvoice(ctx, rec)
	assert.ErrorIs(t, err, payroll.ErrAlreadyInvoiced)
}
