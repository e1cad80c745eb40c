// AngelaMos | 2026
// report.go

package dashboard

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"
)

const dateLayout = "02-Jan-2006"

// RenderPDF writes the summary as a one-page A4 statement.
func RenderPDF(s *Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(s.EventName+" statement", true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(fmt.Sprintf("%s (%d)", s.EventName, s.Year)), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Generated: "+s.GeneratedAt.Format("02-Jan-2006 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Summary", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 8, "Collected: "+s.TotalCollected.StringFixed(2), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 8, "Expensed: "+s.TotalExpensed.StringFixed(2), "1", 1, "L", false, 0, "")
	pdf.CellFormat(95, 8, "Remaining: "+s.Remaining.StringFixed(2), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 8, fmt.Sprintf("Spent: %d%%", s.PercentSpent), "1", 1, "L", false, 0, "")

	if s.Remaining.IsNegative() {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(190, 10, "Balance: "+s.Remaining.StringFixed(2), "1", 1, "C", true, 0, "")

	activityTable(pdf, tr, "Recent expenses", s.RecentExpenses)
	activityTable(pdf, tr, "Recent collections", s.RecentCollections)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return buf.Bytes(), nil
}

func activityTable(pdf *gofpdf.Fpdf, tr func(string) string, title string, rows []Activity) {
	pdf.Ln(5)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, title, "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(40, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(100, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	if len(rows) == 0 {
		pdf.CellFormat(190, 6, "No entries", "1", 1, "C", false, 0, "")
		return
	}

	for _, row := range rows {
		pdf.CellFormat(40, 6, row.Date.Format(dateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(100, 6, tr(row.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, row.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}
}
