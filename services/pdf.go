package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type rgb struct{ r, g, b int }

var (
	inkNavy  = rgb{22, 48, 72}
	inkGold  = rgb{214, 170, 72}
	inkBody  = rgb{34, 34, 34}
	inkMuted = rgb{110, 110, 110}
	inkRule  = rgb{205, 205, 205}
	inkWhite = rgb{255, 255, 255}
)

// A4 portrait, 18mm margins.
const (
	pageWidth    = 210.0
	pageMargin   = 18.0
	contentWidth = pageWidth - 2*pageMargin
	timeColumn   = 46.0
)

type pdfWriter struct {
	*gofpdf.Fpdf
	tr func(string) string
}

func (w *pdfWriter) font(style string, size float64, c rgb) {
	w.SetFont("Helvetica", style, size)
	w.SetTextColor(c.r, c.g, c.b)
}

func (w *pdfWriter) section(title string) {
	w.Ln(1)
	w.SetFillColor(inkNavy.r, inkNavy.g, inkNavy.b)
	w.font("B", 11, inkWhite)
	w.CellFormat(contentWidth, 8, "  "+w.tr(title), "", 1, "L", true, 0, "")
	w.Ln(2)
}

func (w *pdfWriter) paragraph(text string) {
	w.font("", 10, inkBody)
	w.MultiCell(contentWidth, 5, w.tr(plainText(text)), "", "L", false)
	w.Ln(3)
}

// row writes a label in the left column and wrapped text beside it, advancing
// past whichever of the two ran longer.
func (w *pdfWriter) row(label, text string, labelStyle string) {
	top := w.GetY()
	w.font(labelStyle, 10, inkMuted)
	w.MultiCell(timeColumn, 5, w.tr(label), "", "L", false)
	bottom := w.GetY()

	w.SetXY(pageMargin+timeColumn+4, top)
	w.font("", 10, inkBody)
	w.MultiCell(contentWidth-timeColumn-4, 5, w.tr(plainText(text)), "", "L", false)
	if w.GetY() < bottom {
		w.SetY(bottom)
	}
	w.Ln(1)
}

// RenderPDF lays doc out as a paginated A4 document and returns the raw bytes.
func RenderPDF(doc Document) ([]byte, error) {
	f := gofpdf.New("P", "mm", "A4", "")
	f.SetMargins(pageMargin, 20, pageMargin)
	f.SetAutoPageBreak(true, 25)
	w := &pdfWriter{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}

	title := doc.Destination
	if title == "" {
		title = "Your Trip"
	}
	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	f.SetFooterFunc(func() {
		f.SetY(-18)
		f.SetDrawColor(inkRule.r, inkRule.g, inkRule.b)
		f.SetLineWidth(0.2)
		f.Line(pageMargin, f.GetY(), pageWidth-pageMargin, f.GetY())
		w.font("I", 8, inkMuted)
		f.CellFormat(0, 8,
			w.tr(fmt.Sprintf("Tripweaver · AI suggestions, verify before you travel · Page %d", f.PageNo())),
			"", 0, "C", false, 0, "")
	})

	f.AddPage()

	// Title band
	f.SetFillColor(inkNavy.r, inkNavy.g, inkNavy.b)
	f.Rect(0, 0, pageWidth, 30, "F")
	f.SetXY(pageMargin, 8)
	w.font("B", 18, inkWhite)
	f.CellFormat(contentWidth, 10, w.tr(title+" Travel Plan"), "", 1, "L", false, 0, "")
	f.SetX(pageMargin)
	w.font("", 10, inkGold)
	f.CellFormat(contentWidth, 6, w.tr("Composed "+generated.Format("02 Jan 2006")), "", 1, "L", false, 0, "")
	f.SetY(38)

	if len(doc.Weather) > 0 {
		w.section("Forecast")
		for _, day := range doc.Weather {
			w.row(
				fmt.Sprintf("Day %d · %s", day.DayIndex, day.Date.Format("Mon 02 Jan")),
				fmt.Sprintf("%s, %.0f°C", day.Description, day.TemperatureC),
				"",
			)
		}
	}

	w.section("Overview")
	w.paragraph(doc.Itinerary.Summary)

	for _, d := range doc.Itinerary.Days {
		w.section(fmt.Sprintf("Day %d", d.Day))
		for _, a := range d.Activities {
			w.row(a.Time, a.Activity, "B")
		}
		f.Ln(2)
	}

	w.section("Logistics")
	w.paragraph(doc.Itinerary.Logistics)

	w.section("Packing")
	w.paragraph(doc.Itinerary.Packing)

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}
