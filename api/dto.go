/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/attendance-engine/payroll"
)

// =============================================================================
// AUTH TYPES
// =============================================================================

// ActiveEmployeeDTO is the minimal roster entry shown on the punch
// terminal's employee picker. No rate, no contact details.
type ActiveEmployeeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoginRequest is the PIN login from the punch terminal.
type LoginRequest struct {
	EmployeeID string `json:"employee_id"`
	PIN        string `json:"pin"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// SetPINRequest changes an employee's PIN.
type SetPINRequest struct {
	PIN string `json:"pin"`
}

// =============================================================================
// PUNCH TYPES
// =============================================================================

// PunchStatusDTO tells the terminal what the punch button should do.
type PunchStatusDTO struct {
	State     string `json:"state"`
	Shift     string `json:"shift,omitempty"`
	PunchedAt string `json:"punched_at,omitempty"`
}

// PunchDTO represents a recorded punch.
type PunchDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	PunchedAt  string `json:"punched_at"`
	Shift      string `json:"shift"`
	Hours      string `json:"hours"`
	Rate       string `json:"rate"`
	Source     string `json:"source"`
}

// UpsertPunchRequest is the administrative punch correction.
type UpsertPunchRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
}

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	HourlyRate  string `json:"hourly_rate"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	LastInvoice int    `json:"last_invoice"`

	Address   string `json:"address,omitempty"`
	Telephone string `json:"telephone,omitempty"`
	ABN       string `json:"abn,omitempty"`
	Email     string `json:"email,omitempty"`

	BankName      string `json:"bank_name,omitempty"`
	AccountName   string `json:"account_name,omitempty"`
	AccountType   string `json:"account_type,omitempty"`
	BSB           string `json:"bsb,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// SaveEmployeeRequest creates or updates an employee. The invoice counter
// and PIN hash are not settable here; they have their own endpoints.
type SaveEmployeeRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	HourlyRate string `json:"hourly_rate"`
	Role       string `json:"role"`
	Active     *bool  `json:"active"`

	Address   string `json:"address"`
	Telephone string `json:"telephone"`
	ABN       string `json:"abn"`
	Email     string `json:"email"`

	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountType   string `json:"account_type"`
	BSB           string `json:"bsb"`
	AccountNumber string `json:"account_number"`
}

// =============================================================================
// PERIOD AND TIMESHEET TYPES
// =============================================================================

// PeriodDTO is one selectable fortnight.
type PeriodDTO struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Current bool   `json:"current"`
}

// SlotDTO is one grid cell.
type SlotDTO struct {
	Filled bool   `json:"filled"`
	Hours  string `json:"hours,omitempty"`
}

// TimesheetRowDTO is one employee's row of the grid.
type TimesheetRowDTO struct {
	EmployeeID string    `json:"employee_id"`
	Name       string    `json:"name"`
	Slots      []SlotDTO `json:"slots"`
	Total      string    `json:"total"`
}

// TimesheetDTO is the whole-roster grid for one period.
type TimesheetDTO struct {
	PeriodStart string            `json:"period_start"`
	Rows        []TimesheetRowDTO `json:"rows"`
	SlotTotals  []string          `json:"slot_totals"`
	GrandTotal  string            `json:"grand_total"`
}

// =============================================================================
// INVOICE TYPES
// =============================================================================

// InvoiceLineDTO is one worked shift on an invoice.
type InvoiceLineDTO struct {
	Date  string `json:"date"`
	Shift string `json:"shift"`
	Hours string `json:"hours"`
	Rate  string `json:"rate"`
	Gross string `json:"gross"`
}

// InvoiceDTO is a computed invoice. Number is null for drafts.
type InvoiceDTO struct {
	EmployeeID  string           `json:"employee_id"`
	Name        string           `json:"name"`
	PeriodStart string           `json:"period_start"`
	PeriodEnd   string           `json:"period_end"`
	Lines       []InvoiceLineDTO `json:"lines"`
	TotalHours  string           `json:"total_hours"`
	GrandTotal  string           `json:"grand_total"`
	Number      *int             `json:"number"`
}

// InvoiceRecordDTO is one entry of the issued-invoice log.
type InvoiceRecordDTO struct {
	EmployeeID    string `json:"employee_id"`
	PeriodStart   string `json:"period_start"`
	InvoiceNumber int    `json:"invoice_number"`
	GrandTotal    string `json:"grand_total"`
	IssuedAt      string `json:"issued_at"`
}

// CloseResultDTO summarizes a period close run.
type CloseResultDTO struct {
	PeriodStart    string             `json:"period_start"`
	Issued         []InvoiceRecordDTO `json:"issued"`
	SkippedClosed  int                `json:"skipped_closed"`
	SkippedNoHours int                `json:"skipped_no_hours"`
}

// =============================================================================
// AUDIT TYPES
// =============================================================================

// AuditEventDTO is one business event from the trail.
type AuditEventDTO struct {
	At         string `json:"at"`
	Action     string `json:"action"`
	EmployeeID string `json:"employee_id,omitempty"`
	Actor      string `json:"actor,omitempty"`
	Details    string `json:"details"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPunchDTO(p payroll.Punch) PunchDTO {
	return PunchDTO{
		ID:         p.ID,
		EmployeeID: string(p.EmployeeID),
		Date:       p.Date.String(),
		PunchedAt:  p.PunchedAt.Format(timeFormat),
		Shift:      string(p.Shift),
		Hours:      p.Hours().StringFixed(1),
		Rate:       p.Rate.StringFixed(2),
		Source:     string(p.Source),
	}
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:          string(e.ID),
		Name:        e.Name,
		Surname:     e.Surname,
		HourlyRate:  e.HourlyRate.StringFixed(2),
		Role:        string(e.Role),
		Active:      e.Active,
		LastInvoice: e.LastInvoice,

		Address:   e.Contact.Address,
		Telephone: e.Contact.Telephone,
		ABN:       e.Contact.ABN,
		Email:     e.Contact.Email,

		BankName:      e.Bank.BankName,
		AccountName:   e.Bank.AccountName,
		AccountType:   e.Bank.AccountType,
		BSB:           e.Bank.BSB,
		AccountNumber: e.Bank.AccountNumber,
	}
}

func toInvoiceDTO(inv payroll.Invoice) InvoiceDTO {
	lines := make([]InvoiceLineDTO, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineDTO{
			Date:  l.Date.String(),
			Shift: string(l.Shift),
			Hours: l.Hours.StringFixed(1),
			Rate:  l.Rate.StringFixed(2),
			Gross: l.Gross.StringFixed(2),
		}
	}
	return InvoiceDTO{
		EmployeeID:  string(inv.Employee.ID),
		Name:        inv.Employee.DisplayName(),
		PeriodStart: inv.PeriodStart.String(),
		PeriodEnd:   inv.PeriodEnd.String(),
		Lines:       lines,
		TotalHours:  inv.TotalHours.StringFixed(1),
		GrandTotal:  inv.GrandTotal.StringFixed(2),
		Number:      inv.Number,
	}
}

func toTimesheetDTO(ts payroll.Timesheet) TimesheetDTO {
	rows := make([]TimesheetRowDTO, len(ts.Rows))
	for i, row := range ts.Rows {
		slots := make([]SlotDTO, payroll.GridSlots)
		for s := 0; s < payroll.GridSlots; s++ {
			slots[s].Filled = row.Slots[s].Filled
			if row.Slots[s].Filled {
				slots[s].Hours = row.Slots[s].Hours.StringFixed(1)
			}
		}
		rows[i] = TimesheetRowDTO{
			EmployeeID: string(row.Employee.ID),
			Name:       row.Employee.DisplayName(),
			Slots:      slots,
			Total:      row.Total.StringFixed(1),
		}
	}

	slotTotals := make([]string, payroll.GridSlots)
	for s := 0; s < payroll.GridSlots; s++ {
		slotTotals[s] = ts.SlotTotals[s].StringFixed(1)
	}

	return TimesheetDTO{
		PeriodStart: ts.PeriodStart.String(),
		Rows:        rows,
		SlotTotals:  slotTotals,
		GrandTotal:  ts.GrandTotal.StringFixed(1),
	}
}
