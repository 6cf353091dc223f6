package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(d int) payroll.Date {
	return payroll.NewDate(2025, time.December, d)
}

func punchOn(id string, date payroll.Date, shift payroll.ShiftType) payroll.Punch {
	return payroll.Punch{
		ID:         id + "-" + date.String() + "-" + string(shift),
		EmployeeID: payroll.EmployeeID(id),
		Date:       date,
		PunchedAt:  date.Time.Add(8 * time.Hour),
		Shift:      shift,
		Rate:       decimal.RequireFromString("25.5"),
		Source:     payroll.SourceClock,
	}
}

func worker(id, surname string) payroll.Employee {
	return payroll.Employee{
		ID:         payroll.EmployeeID(id),
		Name:       "Sam",
		Surname:    surname,
		HourlyRate: decimal.RequireFromString("25.5"),
		Role:       payroll.RoleWorker,
		Active:     true,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestSQLite_Employee_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := worker("emp-1", "Stone")
	emp.Role = payroll.RoleAdmin
	emp.LastInvoice = 41
	emp.PINHash = "$2a$10$fakehash"
	emp.Contact = payroll.ContactDetails{
		Address:   "12 Wharf St, Brisbane",
		Telephone: "0400 000 000",
		ABN:       "51 824 753 556",
		Email:     "sam@example.com",
	}
	emp.Bank = payroll.BankDetails{
		BankName:      "Sample Bank",
		AccountName:   "S Stone",
		AccountType:   "Savings",
		BSB:           "064-000",
		AccountNumber: "12345678",
	}
	require.NoError(t, store.Save(ctx, emp))

	got, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, emp.Name, got.Name)
	assert.Equal(t, emp.Surname, got.Surname)
	assert.Equal(t, "25.5", got.HourlyRate.String())
	assert.Equal(t, payroll.RoleAdmin, got.Role)
	assert.True(t, got.Active)
	assert.Equal(t, 41, got.LastInvoice)
	assert.Equal(t, emp.PINHash, got.PINHash)
	assert.Equal(t, emp.Contact, got.Contact)
	assert.Equal(t, emp.Bank, got.Bank)
}

func TestSQLite_Save_Updates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := worker("emp-1", "Stone")
	require.NoError(t, store.Save(ctx, emp))

	emp.HourlyRate = decimal.NewFromInt(30)
	emp.Active = false
	require.NoError(t, store.Save(ctx, emp))

	got, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "30", got.HourlyRate.String())
	assert.False(t, got.Active)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSQLite_Get_NilWhenMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListActive_SortedBySurname(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, worker("emp-1", "Stone")))
	require.NoError(t, store.Save(ctx, worker("emp-2", "Avila")))

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Avila", active[0].Surname)
	assert.Equal(t, "Stone", active[1].Surname)
}

func TestSQLite_SetPIN_UnknownEmployee(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.SetPIN(ctx, "ghost", "hash"), payroll.ErrUnknownEmployee)
	assert.ErrorIs(t, store.SetLastInvoice(ctx, "ghost", 1), payroll.ErrUnknownEmployee)
}

// =============================================================================
// PUNCHES
// =============================================================================

func TestSQLite_Punch_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := punchOn("emp-1", day(8), payroll.ShiftStandard)
	require.NoError(t, store.InsertPunch(ctx, p))

	got, err := store.FindPunch(ctx, "emp-1", day(8), payroll.ShiftStandard)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, got.Date.Equal(day(8)))
	assert.True(t, got.PunchedAt.Equal(p.PunchedAt))
	assert.Equal(t, "25.5", got.Rate.String())
	assert.Equal(t, payroll.SourceClock, got.Source)
}

func TestSQLite_InsertPunch_UniqueConstraint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPunch(ctx, punchOn("emp-1", day(8), payroll.ShiftStandard)))

	dup := punchOn("emp-1", day(8), payroll.ShiftStandard)
	dup.ID = "other-id"
	assert.ErrorIs(t, store.InsertPunch(ctx, dup), payroll.ErrDuplicatePunch)

	// Different shift the same day passes the constraint.
	assert.NoError(t, store.InsertPunch(ctx, punchOn("emp-1", day(12), payroll.ShiftOvertime)))
}

func TestSQLite_UpsertPunch_ReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := punchOn("emp-1", day(8), payroll.ShiftStandard)
	require.NoError(t, store.InsertPunch(ctx, p))

	edited := p
	edited.Rate = decimal.NewFromInt(30)
	edited.Source = payroll.SourceAdmin
	require.NoError(t, store.UpsertPunch(ctx, edited))

	got, err := store.FindPunch(ctx, "emp-1", day(8), payroll.ShiftStandard)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "30", got.Rate.String())
	assert.Equal(t, payroll.SourceAdmin, got.Source)
}

func TestSQLite_ListPunches_RangeAndFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPunch(ctx, punchOn("emp-1", day(8), payroll.ShiftStandard)))
	require.NoError(t, store.InsertPunch(ctx, punchOn("emp-2", day(9), payroll.ShiftStandard)))
	require.NoError(t, store.InsertPunch(ctx, punchOn("emp-1", day(22), payroll.ShiftStandard)))

	// [from, to) over the fortnight starting Dec 8.
	all, err := store.ListPunches(ctx, nil, day(8), day(22))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Date.Equal(day(8)))
	assert.True(t, all[1].Date.Equal(day(9)))

	only2, err := store.ListPunches(ctx, []payroll.EmployeeID{"emp-2"}, day(8), day(22))
	require.NoError(t, err)
	require.Len(t, only2, 1)
	assert.Equal(t, payroll.EmployeeID("emp-2"), only2[0].EmployeeID)
}

// =============================================================================
// INVOICE LOG
// =============================================================================

func TestSQLite_Invoice_UniquePerEmployeePeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := payroll.InvoiceRecord{
		ID:            "rec-1",
		EmployeeID:    "emp-1",
		PeriodStart:   day(8),
		InvoiceNumber: 1,
		GrandTotal:    decimal.RequireFromString("110.00"),
		IssuedAt:      time.Date(2025, time.December, 22, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.InsertInvoice(ctx, rec))

	rec.ID = "rec-2"
	rec.InvoiceNumber = 2
	assert.ErrorIs(t, store.InsertInvoice(ctx, rec), payroll.ErrAlreadyInvoiced)

	got, err := store.FindInvoice(ctx, "emp-1", day(8))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.InvoiceNumber, "original record survives the rejected insert")
	assert.Equal(t, "110", got.GrandTotal.String())
}

func TestSQLite_ListInvoices_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, start := range []payroll.Date{day(8), day(22)} {
		rec := payroll.InvoiceRecord{
			ID: "rec-" + start.String(), EmployeeID: "emp-1",
			PeriodStart: start, InvoiceNumber: i + 1,
			GrandTotal: decimal.NewFromInt(50),
			IssuedAt:   time.Date(2025, time.December, 22, 9, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.InsertInvoice(ctx, rec))
	}

	list, err := store.ListInvoices(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].PeriodStart.Equal(day(22)))
	assert.True(t, list[1].PeriodStart.Equal(day(8)))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_CommitAndRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, worker("emp-1", "Stone")))

	err := store.WithTx(ctx, func(s payroll.Store) error {
		rec := payroll.InvoiceRecord{
			ID: "rec-1", EmployeeID: "emp-1", PeriodStart: day(8),
			InvoiceNumber: 1, GrandTotal: decimal.NewFromInt(50),
			IssuedAt: time.Date(2025, time.December, 22, 9, 0, 0, 0, time.UTC),
		}
		if err := s.InsertInvoice(ctx, rec); err != nil {
			return err
		}
		return s.SetLastInvoice(ctx, "emp-1", 1)
	})
	require.NoError(t, err)

	emp, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, emp.LastInvoice)

	// A failing transaction leaves no trace of either write.
	err = store.WithTx(ctx, func(s payroll.Store) error {
		rec := payroll.InvoiceRecord{
			ID: "rec-2", EmployeeID: "emp-1", PeriodStart: day(22),
			InvoiceNumber: 2, GrandTotal: decimal.NewFromInt(60),
			IssuedAt: time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		}
		if err := s.InsertInvoice(ctx, rec); err != nil {
			return err
		}
		if err := s.SetLastInvoice(ctx, "emp-1", 2); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	emp, err = store.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, emp.LastInvoice)

	rec, err := store.FindInvoice(ctx, "emp-1", day(22))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// =============================================================================
// AUDIT
// =============================================================================

func TestSQLite_Audit_NewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, action := range []payroll.AuditAction{
		payroll.AuditPunchAccepted, payroll.AuditPunchEdited, payroll.AuditInvoiceIssued,
	} {
		ev := payroll.AuditEvent{
			ID:         string(rune('a' + i)),
			At:         time.Date(2025, time.December, 8+i, 9, 0, 0, 0, time.UTC),
			Action:     action,
			EmployeeID: "emp-1",
			Actor:      "admin",
			Details:    "test event",
		}
		require.NoError(t, store.Record(ctx, ev))
	}

	events, err := store.Query(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, payroll.AuditInvoiceIssued, events[0].Action)
	assert.Equal(t, payroll.AuditPunchEdited, events[1].Action)
}

func TestSQLite_Reset_ClearsEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, worker("emp-1", "Stone")))
	require.NoError(t, store.InsertPunch(ctx, punchOn("emp-1", day(8), payroll.ShiftStandard)))

	require.NoError(t, store.Reset(ctx))

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	punches, err := store.ListPunches(ctx, nil, day(1), day(31))
	require.NoError(t, err)
	assert.Empty(t, punches)
}
