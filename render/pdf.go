// Package render produces invoice and timesheet PDFs.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/attendance-engine/payroll"
)

// Invoices are payable this many days after issue.
const dueDays = 4

// Company describes the issuing business on invoice documents.
type Company struct {
	Name        string
	ABN         string
	Email       string
	Telephone   string
	Address     string
	Description string
}

// WriteInvoicePDF renders one employee's invoice. An invoice without a
// permanent number renders with a DRAFT placeholder and watermark; the
// layout is otherwise identical so drafts can be proofed before close.
func WriteInvoicePDF(w io.Writer, inv payroll.Invoice, company Company, issuedAt time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	if !inv.Closed() {
		watermark(pdf, "DRAFT")
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Tax Invoice")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, numberLabel(inv))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("From: %s, %s", inv.Employee.DisplayName(), inv.Employee.Contact.Address))
	pdf.Ln(6)
	if inv.Employee.Contact.ABN != "" {
		pdf.Cell(0, 7, fmt.Sprintf("ABN: %s", inv.Employee.Contact.ABN))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, fmt.Sprintf("To: %s (ABN %s)", company.Name, company.ABN))
	pdf.Ln(6)
	pdf.Cell(0, 7, company.Address)
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("%s  %s", company.Email, company.Telephone))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", inv.PeriodStart, inv.PeriodEnd))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Issued: %s    Due: %s",
		issuedAt.Format("2006-01-02"),
		issuedAt.AddDate(0, 0, dueDays).Format("2006-01-02")))
	pdf.Ln(10)

	if company.Description != "" {
		pdf.Cell(0, 7, company.Description)
		pdf.Ln(10)
	}

	lineTable(pdf, inv)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(120, 8, fmt.Sprintf("Total hours: %s", inv.TotalHours.StringFixed(1)))
	pdf.Cell(0, 8, fmt.Sprintf("Amount due: $%s", inv.GrandTotal.StringFixed(2)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Payment details")
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("%s  %s (%s)", inv.Employee.Bank.BankName,
		inv.Employee.Bank.AccountName, inv.Employee.Bank.AccountType))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("BSB %s  Account %s", inv.Employee.Bank.BSB, inv.Employee.Bank.AccountNumber))

	return pdf.Output(w)
}

func numberLabel(inv payroll.Invoice) string {
	if inv.Closed() {
		return fmt.Sprintf("Invoice #%d", *inv.Number)
	}
	return "Invoice DRAFT"
}

func lineTable(pdf *gofpdf.Fpdf, inv payroll.Invoice) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(35, 7, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Shift", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "Hours", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Rate", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range inv.Lines {
		pdf.CellFormat(35, 7, line.Date.String(), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, string(line.Shift), "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 7, line.Hours.StringFixed(1), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, "$"+line.Rate.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, "$"+line.Gross.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func watermark(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 60)
	pdf.SetTextColor(230, 230, 230)
	pdf.TransformBegin()
	pdf.TransformRotate(45, 105, 150)
	pdf.Text(50, 160, text)
	pdf.TransformEnd()
	pdf.SetTextColor(0, 0, 0)
}

// WriteTimesheetPDF renders the whole-roster grid for one period,
// landscape, one row per employee and one column per workable slot.
func WriteTimesheetPDF(w io.Writer, ts payroll.Timesheet) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Timesheet - period starting %s", ts.PeriodStart))
	pdf.Ln(12)

	const nameW, slotW, totalW = 60.0, 15.0, 22.0

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(nameW, 7, "Employee", "1", 0, "", false, 0, "")
	for slot := 0; slot < payroll.GridSlots; slot++ {
		day := ts.PeriodStart.AddDays(slotToDayOffset(slot))
		pdf.CellFormat(slotW, 7, day.Time.Format("Mon 02"), "1", 0, "C", false, 0, "")
	}
	pdf.CellFormat(totalW, 7, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range ts.Rows {
		pdf.CellFormat(nameW, 7, row.Employee.DisplayName(), "1", 0, "", false, 0, "")
		for slot := 0; slot < payroll.GridSlots; slot++ {
			cell := ""
			if row.Slots[slot].Filled {
				cell = row.Slots[slot].Hours.StringFixed(1)
			}
			pdf.CellFormat(slotW, 7, cell, "1", 0, "C", false, 0, "")
		}
		pdf.CellFormat(totalW, 7, row.Total.StringFixed(1), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(nameW, 7, "Day totals", "1", 0, "", false, 0, "")
	for slot := 0; slot < payroll.GridSlots; slot++ {
		cell := ""
		if ts.SlotTotals[slot].IsPositive() {
			cell = ts.SlotTotals[slot].StringFixed(1)
		}
		pdf.CellFormat(slotW, 7, cell, "1", 0, "C", false, 0, "")
	}
	pdf.CellFormat(totalW, 7, ts.GrandTotal.StringFixed(1), "1", 1, "R", false, 0, "")

	return pdf.Output(w)
}

// slotToDayOffset inverts the grid's Sunday-skipping slot compression:
// slots 0..5 map to Mon..Sat of the first week, 6..11 to the second.
func slotToDayOffset(slot int) int {
	week := slot / 6
	return week*7 + slot%6
}
