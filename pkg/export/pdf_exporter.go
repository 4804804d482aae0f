package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ReceiptLine is one row of a receipt body.
type ReceiptLine struct {
	Label  string
	Amount string
	// Emphasis renders the row in bold, used for totals.
	Emphasis bool
}

// Receipt is the printable form of a calculated payment.
type Receipt struct {
	Title  string
	Header [][2]string
	Lines  []ReceiptLine
	Footer string
}

// PDFExporter renders receipts into a single page A4 PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document for the receipt.
func (e *PDFExporter) Render(receipt Receipt) ([]byte, error) {
	if len(receipt.Lines) == 0 {
		return nil, fmt.Errorf("pdf receipt requires at least one line")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if receipt.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(receipt.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "", 10)
	for _, kv := range receipt.Header {
		pdf.CellFormat(45, 6, tr(kv[0]), "", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "", false, 0, "")
	}
	if len(receipt.Header) > 0 {
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Concept", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "1", 1, "C", false, 0, "")
	for _, line := range receipt.Lines {
		style := ""
		if line.Emphasis {
			style = "B"
		}
		pdf.SetFont("Arial", style, 9)
		pdf.CellFormat(130, 7, tr(line.Label), "1", 0, "", false, 0, "")
		pdf.CellFormat(50, 7, tr(line.Amount), "1", 1, "R", false, 0, "")
	}

	if receipt.Footer != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, tr(receipt.Footer), "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
