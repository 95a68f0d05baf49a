package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a tabular PDF laid out for roster-style
// reports: landscape page, column widths weighted by content, numeric columns
// right-aligned, headers repeated on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// printable width of a landscape A4 page with 10mm side margins.
const pageWidth = 277.0

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf export needs headers")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	widths := columnWidths(data)
	numeric := numericColumns(data)

	pdf.SetHeaderFuncMode(func() {
		if title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
			pdf.Ln(3)
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}, true)
	pdf.AddPage()

	for _, row := range data.Rows {
		for i, header := range data.Headers {
			align := "L"
			if numeric[i] {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, row[header], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths spreads the printable width across columns in proportion to
// the longest value each column holds, so a name column gets more room than
// a two-digit percentage.
func columnWidths(data Dataset) []float64 {
	longest := make([]int, len(data.Headers))
	total := 0
	for i, header := range data.Headers {
		longest[i] = len(header)
	}
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			if n := len(row[header]); n > longest[i] {
				longest[i] = n
			}
		}
	}
	for _, n := range longest {
		total += n
	}

	widths := make([]float64, len(longest))
	if total == 0 {
		even := pageWidth / float64(len(longest))
		for i := range widths {
			widths[i] = even
		}
		return widths
	}
	for i, n := range longest {
		widths[i] = pageWidth * float64(n) / float64(total)
	}
	return widths
}

// numericColumns flags columns whose every non-empty value parses as a
// number; those are right-aligned like the grade and attendance figures.
func numericColumns(data Dataset) []bool {
	numeric := make([]bool, len(data.Headers))
	for i := range numeric {
		numeric[i] = len(data.Rows) > 0
	}
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			value := row[header]
			if value == "" {
				continue
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				numeric[i] = false
			}
		}
	}
	return numeric
}
