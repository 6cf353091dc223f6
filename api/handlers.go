/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Terminal (public / employee token):
    GET    /api/employees/active          Roster for the PIN keypad
    POST   /api/auth/login                PIN login -> session token
    GET    /api/punch/status              What the punch button should do
    POST   /api/punch                     Record a punch for the caller

  Admin (admin token):
    GET    /api/employees                 Full roster
    POST   /api/employees                 Create/update employee
    GET    /api/employees/{id}            Employee details
    POST   /api/employees/{id}/pin        Set an employee's PIN
    GET    /api/periods                   Selectable fortnights
    POST   /api/periods/{start}/close     Close a period (idempotent)
    GET    /api/timesheet                 Grid for one period (JSON)
    GET    /api/timesheet/pdf             Grid for one period (PDF)
    PUT    /api/punches                   Administrative punch correction
    GET    /api/invoices/{id}             Invoice preview (draft or closed)
    GET    /api/invoices/{id}/pdf         Invoice PDF
    GET    /api/invoices/{id}/history     Issued-invoice log
    GET    /api/audit                     Business event trail

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/invalid token
  - 403: Worker token on an admin route
  - 404: Unknown employee, nothing to render
  - 409: Out of window, duplicate punch, already invoiced
  - 422: Missing rate configuration
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/auth"
	"github.com/warp/attendance-engine/payroll"
	"github.com/warp/attendance-engine/render"
)

const timeFormat = time.RFC3339

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     payroll.TxStore
	Audit     payroll.AuditLog
	Validator *payroll.Validator
	Engine    *payroll.Engine
	Calendar  payroll.Calendar
	Clock     payroll.Clock
	Company   render.Company

	TokenSecret string
	TokenTTL    time.Duration
}

// NewHandler wires a handler around the store and payroll calendar.
func NewHandler(store payroll.TxStore, audit payroll.AuditLog, cal payroll.Calendar, clock payroll.Clock, company render.Company, secret string, ttl time.Duration) *Handler {
	return &Handler{
		Store:       store,
		Audit:       audit,
		Validator:   payroll.NewValidator(store, store, cal, clock, audit),
		Engine:      payroll.NewEngine(store, cal, clock, audit),
		Calendar:    cal,
		Clock:       clock,
		Company:     company,
		TokenSecret: secret,
		TokenTTL:    ttl,
	}
}

// =============================================================================
// AUTH MIDDLEWARE
// =============================================================================

type claimsKey struct{}

func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

// RequireAuth rejects requests without a valid bearer token.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		claims, err := auth.ParseToken(h.TokenSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// RequireAdmin additionally rejects non-admin tokens.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !claimsFrom(r.Context()).IsAdmin() {
			writeError(w, http.StatusForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// ListActiveEmployees returns the roster entries shown on the terminal's
// employee picker. Public by design: the terminal has no token yet.
func (h *Handler) ListActiveEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListActive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]ActiveEmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = ActiveEmployeeDTO{ID: string(e.ID), Name: e.DisplayName()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Login exchanges an employee id + PIN for a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Store.Get(r.Context(), payroll.EmployeeID(req.EmployeeID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employee", err)
		return
	}
	if emp == nil || !emp.Active || emp.PINHash == "" {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err := auth.CheckPIN(emp.PINHash, req.PIN); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := auth.GenerateToken(h.TokenSecret, *emp, h.TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Name:  emp.DisplayName(),
		Role:  string(emp.Role),
	})
}

// SetPIN sets an employee's PIN (admin only).
func (h *Handler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	var req SetPINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.PIN) < 4 {
		writeError(w, http.StatusBadRequest, "PIN must be at least 4 digits", nil)
		return
	}

	hash, err := auth.HashPIN(req.PIN)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash PIN", err)
		return
	}
	if err := h.Store.SetPIN(r.Context(), id, hash); err != nil {
		h.writeDomainError(w, "Failed to set PIN", err)
		return
	}

	h.recordAudit(r, payroll.AuditPINChanged, id, "PIN changed")
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PUNCH HANDLERS
// =============================================================================

// PunchStatus tells the terminal whether the caller can punch right now.
func (h *Handler) PunchStatus(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(claimsFrom(r.Context()).EmployeeID)

	status, err := h.Validator.Status(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to compute punch status", err)
		return
	}

	dto := PunchStatusDTO{State: string(status.State), Shift: string(status.Shift)}
	if status.Existing != nil {
		dto.PunchedAt = status.Existing.PunchedAt.Format(timeFormat)
	}
	writeJSON(w, http.StatusOK, dto)
}

// Punch records an attendance punch for the caller at the current instant.
func (h *Handler) Punch(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(claimsFrom(r.Context()).EmployeeID)

	punch, err := h.Validator.Accept(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Punch rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPunchDTO(*punch))
}

// UpsertPunch is the administrative correction: add or replace the punch
// for (employee, date, shift).
func (h *Handler) UpsertPunch(w http.ResponseWriter, r *http.Request) {
	var req UpsertPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	actor := claimsFrom(r.Context()).EmployeeID
	punch, err := h.Validator.AdminUpsert(r.Context(), actor,
		payroll.EmployeeID(req.EmployeeID), date, payroll.ShiftType(req.Shift))
	if err != nil {
		h.writeDomainError(w, "Failed to save punch", err)
		return
	}
	writeJSON(w, http.StatusOK, toPunchDTO(*punch))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the full roster.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// SaveEmployee creates or updates an employee. The invoice counter and
// PIN hash of an existing employee are preserved.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Surname == "" {
		writeError(w, http.StatusBadRequest, "Name and surname are required", nil)
		return
	}

	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || rate.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
		return
	}

	role := payroll.Role(req.Role)
	if role == "" {
		role = payroll.RoleWorker
	}
	if role != payroll.RoleWorker && role != payroll.RoleAdmin {
		writeError(w, http.StatusBadRequest, "Invalid role", nil)
		return
	}

	emp := payroll.Employee{
		ID:         payroll.EmployeeID(req.ID),
		Name:       req.Name,
		Surname:    req.Surname,
		HourlyRate: rate,
		Role:       role,
		Active:     true,
		Contact: payroll.ContactDetails{
			Address:   req.Address,
			Telephone: req.Telephone,
			ABN:       req.ABN,
			Email:     req.Email,
		},
		Bank: payroll.BankDetails{
			BankName:      req.BankName,
			AccountName:   req.AccountName,
			AccountType:   req.AccountType,
			BSB:           req.BSB,
			AccountNumber: req.AccountNumber,
		},
	}
	if req.Active != nil {
		emp.Active = *req.Active
	}
	if emp.ID == "" {
		emp.ID = payroll.EmployeeID(uuid.NewString())
	} else if existing, err := h.Store.Get(r.Context(), emp.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load employee", err)
		return
	} else if existing != nil {
		emp.LastInvoice = existing.LastInvoice
		emp.PINHash = existing.PINHash
	}

	if err := h.Store.Save(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// PERIOD AND TIMESHEET HANDLERS
// =============================================================================

// ListPeriods returns the selectable fortnights, newest first.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	count := 8
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 52 {
			writeError(w, http.StatusBadRequest, "Invalid count", err)
			return
		}
		count = n
	}

	today := h.Calendar.Today(h.Clock)
	current := h.Calendar.PeriodStart(today)

	options := h.Calendar.PeriodOptions(count, today)
	dtos := make([]PeriodDTO, len(options))
	for i, opt := range options {
		dtos[i] = PeriodDTO{
			Start:   opt.Start.String(),
			End:     opt.End.String(),
			Current: opt.Start.Equal(current),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// periodFromQuery resolves the period query parameter, defaulting to the
// current period. Any date inside a fortnight selects that fortnight.
func (h *Handler) periodFromQuery(r *http.Request) (payroll.Period, error) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return h.Calendar.PeriodFor(h.Calendar.Today(h.Clock)), nil
	}
	d, err := payroll.ParseDate(raw)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("invalid period date %q", raw)
	}
	return h.Calendar.PeriodFor(d), nil
}

func (h *Handler) buildTimesheet(r *http.Request) (payroll.Timesheet, error) {
	period, err := h.periodFromQuery(r)
	if err != nil {
		return payroll.Timesheet{}, err
	}

	mode := payroll.GridAllEmployees
	var employees []payroll.Employee
	if r.URL.Query().Get("mode") == "punched" {
		mode = payroll.GridWithPunches
		employees, err = h.Store.ListAll(r.Context())
	} else {
		employees, err = h.Store.ListActive(r.Context())
	}
	if err != nil {
		return payroll.Timesheet{}, err
	}

	punches, err := h.Store.ListPunches(r.Context(), nil, period.Start, period.Bound())
	if err != nil {
		return payroll.Timesheet{}, err
	}

	return payroll.BuildGrid(period.Start, employees, punches, mode), nil
}

// GetTimesheet returns the grid for one period as JSON.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	ts, err := h.buildTimesheet(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to build timesheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toTimesheetDTO(ts))
}

// GetTimesheetPDF returns the grid for one period as a landscape PDF.
func (h *Handler) GetTimesheetPDF(w http.ResponseWriter, r *http.Request) {
	ts, err := h.buildTimesheet(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to build timesheet", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="timesheet-%s.pdf"`, ts.PeriodStart))
	if err := render.WriteTimesheetPDF(w, ts); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render timesheet", err)
	}
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// GetInvoice returns the computed invoice for one employee and period.
// Drafts come back with a null number.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))
	period, err := h.periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	inv, err := h.Engine.Preview(r.Context(), id, period.Start)
	if err != nil {
		h.writeDomainError(w, "Failed to compute invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(inv))
}

// GetInvoicePDF renders the invoice PDF. Before close it carries the
// DRAFT watermark; pass official=true to require a closed invoice.
func (h *Handler) GetInvoicePDF(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))
	period, err := h.periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	var inv payroll.Invoice
	if r.URL.Query().Get("official") == "true" {
		inv, err = h.Engine.Official(r.Context(), id, period.Start)
	} else {
		inv, err = h.Engine.Preview(r.Context(), id, period.Start)
	}
	if err != nil {
		h.writeDomainError(w, "Failed to compute invoice", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="invoice-%s-%s.pdf"`, id, period.Start))
	if err := render.WriteInvoicePDF(w, inv, h.Company, h.Clock.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render invoice", err)
	}
}

// InvoiceHistory returns the issued-invoice log for one employee.
func (h *Handler) InvoiceHistory(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	records, err := h.Store.ListInvoices(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}

	dtos := make([]InvoiceRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toInvoiceRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ClosePeriod issues invoice numbers for every eligible employee in the
// period. Safe to call repeatedly.
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	start, err := payroll.ParseDate(chi.URLParam(r, "start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period start (use YYYY-MM-DD)", err)
		return
	}
	if !h.Calendar.PeriodStart(start).Equal(start) {
		writeError(w, http.StatusBadRequest, "Date is not a period start", nil)
		return
	}

	result, err := h.Engine.ClosePeriod(r.Context(), start)
	if err != nil {
		h.writeDomainError(w, "Failed to close period", err)
		return
	}

	dto := CloseResultDTO{
		PeriodStart:    result.PeriodStart.String(),
		Issued:         make([]InvoiceRecordDTO, 0, len(result.Issued)),
		SkippedClosed:  result.SkippedClosed,
		SkippedNoHours: result.SkippedNoHours,
	}
	for _, issued := range result.Issued {
		dto.Issued = append(dto.Issued, InvoiceRecordDTO{
			EmployeeID:    string(issued.EmployeeID),
			PeriodStart:   result.PeriodStart.String(),
			InvoiceNumber: issued.InvoiceNumber,
			GrandTotal:    issued.GrandTotal.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

func toInvoiceRecordDTO(rec payroll.InvoiceRecord) InvoiceRecordDTO {
	return InvoiceRecordDTO{
		EmployeeID:    string(rec.EmployeeID),
		PeriodStart:   rec.PeriodStart.String(),
		InvoiceNumber: rec.InvoiceNumber,
		GrandTotal:    rec.GrandTotal.StringFixed(2),
		IssuedAt:      rec.IssuedAt.Format(timeFormat),
	}
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// AuditTrail returns recent business events, newest first.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	events, err := h.Audit.Query(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit trail", err)
		return
	}

	dtos := make([]AuditEventDTO, len(events))
	for i, ev := range events {
		dtos[i] = AuditEventDTO{
			At:         ev.At.Format(timeFormat),
			Action:     string(ev.Action),
			EmployeeID: string(ev.EmployeeID),
			Actor:      ev.Actor,
			Details:    ev.Details,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// recordAudit emits a business event. Failures never affect the request.
func (h *Handler) recordAudit(r *http.Request, action payroll.AuditAction, id payroll.EmployeeID, details string) {
	_ = h.Audit.Record(r.Context(), payroll.AuditEvent{
		ID:         uuid.NewString(),
		At:         h.Clock.Now(),
		Action:     action,
		EmployeeID: id,
		Actor:      claimsFrom(r.Context()).EmployeeID,
		Details:    details,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps sentinel errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, payroll.ErrUnknownEmployee):
		writeError(w, http.StatusNotFound, "Employee not found", nil)
	case errors.Is(err, payroll.ErrOutOfWindow),
		errors.Is(err, payroll.ErrDuplicatePunch),
		errors.Is(err, payroll.ErrAlreadyInvoiced),
		errors.Is(err, payroll.ErrPeriodNotClosed):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, payroll.ErrMissingRateConfig):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
