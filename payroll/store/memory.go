// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[payroll.EmployeeID]payroll.Employee
	punches   map[punchKey]payroll.Punch
	invoices  map[invoiceKey]payroll.InvoiceRecord
	audit     []payroll.AuditEvent
}

type punchKey struct {
	EmployeeID payroll.EmployeeID
	Date       string
	Shift      payroll.ShiftType
}

type invoiceKey struct {
	EmployeeID  payroll.EmployeeID
	PeriodStart string
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[payroll.EmployeeID]payroll.Employee),
		punches:   make(map[punchKey]payroll.Punch),
		invoices:  make(map[invoiceKey]payroll.InvoiceRecord),
	}
}

func keyFor(p payroll.Punch) punchKey {
	return punchKey{EmployeeID: p.EmployeeID, Date: p.Date.String(), Shift: p.Shift}
}

// -----------------------------------------------------------------------------
// PunchStore
// -----------------------------------------------------------------------------

func (m *Memory) FindPunch(_ context.Context, id payroll.EmployeeID, date payroll.Date, shift payroll.ShiftType) (*payroll.Punch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findPunchLocked(id, date, shift), nil
}

func (m *Memory) findPunchLocked(id payroll.EmployeeID, date payroll.Date, shift payroll.ShiftType) *payroll.Punch {
	p, ok := m.punches[punchKey{EmployeeID: id, Date: date.String(), Shift: shift}]
	if !ok {
		return nil
	}
	return &p
}

func (m *Memory) InsertPunch(_ context.Context, p payroll.Punch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPunchLocked(p)
}

func (m *Memory) insertPunchLocked(p payroll.Punch) error {
	k := keyFor(p)
	if _, exists := m.punches[k]; exists {
		return payroll.ErrDuplicatePunch
	}
	m.punches[k] = p
	return nil
}

func (m *Memory) UpsertPunch(_ context.Context, p payroll.Punch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.punches[keyFor(p)] = p
	return nil
}

func (m *Memory) ListPunches(_ context.Context, ids []payroll.EmployeeID, from, to payroll.Date) ([]payroll.Punch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPunchesLocked(ids, from, to), nil
}

func (m *Memory) listPunchesLocked(ids []payroll.EmployeeID, from, to payroll.Date) []payroll.Punch {
	var filter map[payroll.EmployeeID]bool
	if ids != nil {
		filter = make(map[payroll.EmployeeID]bool, len(ids))
		for _, id := range ids {
			filter[id] = true
		}
	}

	var result []payroll.Punch
	for _, p := range m.punches {
		if filter != nil && !filter[p.EmployeeID] {
			continue
		}
		if p.Date.Before(from) || !p.Date.Before(to) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result
}

// -----------------------------------------------------------------------------
// EmployeeStore
// -----------------------------------------------------------------------------

func (m *Memory) ListActive(_ context.Context) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(true), nil
}

func (m *Memory) ListAll(_ context.Context) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(false), nil
}

func (m *Memory) listLocked(activeOnly bool) []payroll.Employee {
	var result []payroll.Employee
	for _, e := range m.employees {
		if activeOnly && !e.Active {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DisplayName() < result[j].DisplayName()
	})
	return result
}

func (m *Memory) Get(_ context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(id), nil
}

func (m *Memory) getLocked(id payroll.EmployeeID) *payroll.Employee {
	e, ok := m.employees[id]
	if !ok {
		return nil
	}
	return &e
}

func (m *Memory) Save(_ context.Context, e payroll.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) SetPIN(_ context.Context, id payroll.EmployeeID, pinHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setPINLocked(id, pinHash)
}

func (m *Memory) setPINLocked(id payroll.EmployeeID, pinHash string) error {
	e, ok := m.employees[id]
	if !ok {
		return payroll.ErrUnknownEmployee
	}
	e.PINHash = pinHash
	m.employees[id] = e
	return nil
}

func (m *Memory) SetLastInvoice(_ context.Context, id payroll.EmployeeID, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLastInvoiceLocked(id, n)
}

func (m *Memory) setLastInvoiceLocked(id payroll.EmployeeID, n int) error {
	e, ok := m.employees[id]
	if !ok {
		return payroll.ErrUnknownEmployee
	}
	e.LastInvoice = n
	m.employees[id] = e
	return nil
}

// -----------------------------------------------------------------------------
// InvoiceLogStore
// -----------------------------------------------------------------------------

func (m *Memory) FindInvoice(_ context.Context, id payroll.EmployeeID, periodStart payroll.Date) (*payroll.InvoiceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findInvoiceLocked(id, periodStart), nil
}

func (m *Memory) findInvoiceLocked(id payroll.EmployeeID, periodStart payroll.Date) *payroll.InvoiceRecord {
	rec, ok := m.invoices[invoiceKey{EmployeeID: id, PeriodStart: periodStart.String()}]
	if !ok {
		return nil
	}
	return &rec
}

func (m *Memory) InsertInvoice(_ context.Context, rec payroll.InvoiceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertInvoiceLocked(rec)
}

func (m *Memory) insertInvoiceLocked(rec payroll.InvoiceRecord) error {
	k := invoiceKey{EmployeeID: rec.EmployeeID, PeriodStart: rec.PeriodStart.String()}
	if _, exists := m.invoices[k]; exists {
		return payroll.ErrAlreadyInvoiced
	}
	m.invoices[k] = rec
	return nil
}

func (m *Memory) ListInvoices(_ context.Context, id payroll.EmployeeID) ([]payroll.InvoiceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listInvoicesLocked(id), nil
}

func (m *Memory) listInvoicesLocked(id payroll.EmployeeID) []payroll.InvoiceRecord {
	var result []payroll.InvoiceRecord
	for _, rec := range m.invoices {
		if rec.EmployeeID == id {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[j].PeriodStart.Before(result[i].PeriodStart)
	})
	return result
}

// -----------------------------------------------------------------------------
// AuditLog
// -----------------------------------------------------------------------------

func (m *Memory) Record(_ context.Context, ev payroll.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, ev)
	return nil
}

func (m *Memory) Query(_ context.Context, limit int) ([]payroll.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]payroll.AuditEvent, len(m.audit))
	copy(result, m.audit)
	// Newest first.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(payroll.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()

	view := &txMemoryView{parent: tm}
	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	empCopy := make(map[payroll.EmployeeID]payroll.Employee, len(tm.employees))
	for k, v := range tm.employees {
		empCopy[k] = v
	}
	punchCopy := make(map[punchKey]payroll.Punch, len(tm.punches))
	for k, v := range tm.punches {
		punchCopy[k] = v
	}
	invCopy := make(map[invoiceKey]payroll.InvoiceRecord, len(tm.invoices))
	for k, v := range tm.invoices {
		invCopy[k] = v
	}
	return memorySnapshot{employees: empCopy, punches: punchCopy, invoices: invCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.employees = s.employees
	tm.punches = s.punches
	tm.invoices = s.invoices
}

type memorySnapshot struct {
	employees map[payroll.EmployeeID]payroll.Employee
	punches   map[punchKey]payroll.Punch
	invoices  map[invoiceKey]payroll.InvoiceRecord
}

// txMemoryView operates on the parent directly while the parent's lock is
// held by WithTx; rollback restores the pre-transaction snapshot.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) FindPunch(_ context.Context, id payroll.EmployeeID, date payroll.Date, shift payroll.ShiftType) (*payroll.Punch, error) {
	return tv.parent.findPunchLocked(id, date, shift), nil
}

func (tv *txMemoryView) InsertPunch(_ context.Context, p payroll.Punch) error {
	return tv.parent.insertPunchLocked(p)
}

func (tv *txMemoryView) UpsertPunch(_ context.Context, p payroll.Punch) error {
	tv.parent.punches[keyFor(p)] = p
	return nil
}

func (tv *txMemoryView) ListPunches(_ context.Context, ids []payroll.EmployeeID, from, to payroll.Date) ([]payroll.Punch, error) {
	return tv.parent.listPunchesLocked(ids, from, to), nil
}

func (tv *txMemoryView) ListActive(_ context.Context) ([]payroll.Employee, error) {
	return tv.parent.listLocked(true), nil
}

func (tv *txMemoryView) ListAll(_ context.Context) ([]payroll.Employee, error) {
	return tv.parent.listLocked(false), nil
}

func (tv *txMemoryView) Get(_ context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	return tv.parent.getLocked(id), nil
}

func (tv *txMemoryView) Save(_ context.Context, e payroll.Employee) error {
	tv.parent.employees[e.ID] = e
	return nil
}

func (tv *txMemoryView) SetPIN(_ context.Context, id payroll.EmployeeID, pinHash string) error {
	return tv.parent.setPINLocked(id, pinHash)
}

func (tv *txMemoryView) SetLastInvoice(_ context.Context, id payroll.EmployeeID, n int) error {
	return tv.parent.setLastInvoiceLocked(id, n)
}

func (tv *txMemoryView) FindInvoice(_ context.Context, id payroll.EmployeeID, periodStart payroll.Date) (*payroll.InvoiceRecord, error) {
	return tv.parent.findInvoiceLocked(id, periodStart), nil
}

func (tv *txMemoryView) InsertInvoice(_ context.Context, rec payroll.InvoiceRecord) error {
	return tv.parent.insertInvoiceLocked(rec)
}

func (tv *txMemoryView) ListInvoices(_ context.Context, id payroll.EmployeeID) ([]payroll.InvoiceRecord, error) {
	return tv.parent.listInvoicesLocked(id), nil
}
