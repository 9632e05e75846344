package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions tweaks PDF output; the zero value is production output.
type PDFOptions struct {
	// Uncompressed keeps content streams readable, which tests rely on.
	Uncompressed bool
}

// PDF renders doc as an A4 invoice.
func PDF(doc Document, opts PDFOptions) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetTitle("Invoice "+doc.Number, true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(100, 10, "INVOICE", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(80, 5, tr("No. "+doc.Number), "", 2, "R", false, 0, "")
	if doc.IssueDate != "" {
		pdf.CellFormat(80, 5, "Issued "+doc.IssueDate, "", 2, "R", false, 0, "")
	}
	if doc.DueDate != "" {
		pdf.CellFormat(80, 5, "Due "+doc.DueDate, "", 2, "R", false, 0, "")
	}
	pdf.CellFormat(80, 5, doc.Status, "", 1, "R", false, 0, "")
	pdf.Ln(6)

	top := pdf.GetY()
	bottom := max(party(pdf, tr, 15, top, "From", doc.Biller), party(pdf, tr, 110, top, "Bill to", doc.Recipient))
	pdf.SetXY(15, bottom+8)

	widths := []float64{10, 80, 25, 32.5, 32.5}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"#", "Item", "Qty", "Rate", "Amount"} {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, h, "B", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range doc.Rows {
		name := row.Name
		if row.Description != "" {
			name += " - " + row.Description
		}
		pdf.CellFormat(widths[0], 7, fmt.Sprint(row.Position), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(truncate(name, 55)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, row.Quantity, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(row.Rate), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, tr(row.Amount), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	for _, line := range doc.Summary {
		style, border := "", ""
		if line.Total {
			style, border = "B", "T"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.SetX(115)
		pdf.CellFormat(45, 7, tr(line.Label), border, 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(line.Value), border, 1, "R", false, 0, "")
	}

	if doc.PaymentURL != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "U", 10)
		pdf.SetTextColor(20, 80, 200)
		pdf.CellFormat(0, 6, "Pay online", "", 1, "L", false, 0, doc.PaymentURL)
		pdf.SetTextColor(0, 0, 0)
	}
	if doc.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, tr(doc.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// party draws a name and address block and returns the y below it.
func party(pdf *gofpdf.Fpdf, tr func(string) string, x, y float64, title string, p Party) float64 {
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(85, 5, title, "", 2, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(85, 6, tr(p.Name), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range p.Lines {
		pdf.CellFormat(85, 5, tr(l), "", 2, "L", false, 0, "")
	}
	if p.Email != "" {
		pdf.CellFormat(85, 5, p.Email, "", 2, "L", false, 0, "")
	}
	return pdf.GetY()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
