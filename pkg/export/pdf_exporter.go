package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceDocument is the printable content of an invoice. Amounts and dates
// are preformatted by the caller.
type InvoiceDocument struct {
	Number         string
	Status         string
	ClientName     string
	BillingAddress string
	BillingEmail   string
	Period         string
	InvoiceDate    string
	DueDate        string
	Lines          []InvoiceLine
	Total          string
}

// InvoiceLine is one printable line item.
type InvoiceLine struct {
	Date        string
	Description string
	Amount      string
}

// PDFExporter renders datasets and invoices into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.allRows() {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// RenderInvoice lays out a single invoice on one A4 page.
func (e *PDFExporter) RenderInvoice(doc InvoiceDocument) ([]byte, error) {
	if doc.Number == "" {
		return nil, fmt.Errorf("invoice pdf requires an invoice number")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr("No. "+doc.Number), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, tr("Status: "+strings.ToUpper(doc.Status)), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, "Bill to", "", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(doc.ClientName), "", 1, "", false, 0, "")
	if doc.BillingAddress != "" {
		pdf.MultiCell(0, 5, tr(doc.BillingAddress), "", "", false)
	}
	if doc.BillingEmail != "" {
		pdf.CellFormat(0, 6, tr(doc.BillingEmail), "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.CellFormat(60, 6, tr("Period: "+doc.Period), "", 0, "", false, 0, "")
	pdf.CellFormat(60, 6, tr("Invoice date: "+doc.InvoiceDate), "", 0, "", false, 0, "")
	pdf.CellFormat(60, 6, tr("Due date: "+doc.DueDate), "", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 8, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(115, 8, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Lines {
		pdf.CellFormat(30, 7, tr(line.Date), "1", 0, "", false, 0, "")
		pdf.CellFormat(115, 7, tr(line.Description), "1", 0, "", false, 0, "")
		pdf.CellFormat(35, 7, tr(line.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(145, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, tr(doc.Total), "1", 1, "R", false, 0, "")

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
