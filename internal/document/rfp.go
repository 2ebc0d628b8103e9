// Package document renders the request for proposal as a PDF and a
// proposal's pricing as a spreadsheet.
package document

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"rfbmarket/internal/catalog"
	"rfbmarket/models"
)

const fontName = "Helvetica"

type RFPGenerator struct{}

func NewRFPGenerator() *RFPGenerator {
	return &RFPGenerator{}
}

// Generate renders the project overview, the compliance notice and every
// category with its specifications and owner comment.
func (g *RFPGenerator) Generate(rfb models.RFBRecord, categories []models.CategorySpec) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(latinize(s)) }

	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, "Request for Proposal (RFP)", "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, text("For: "+rfb.ProjectName), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "Project Overview", "", 1, "L", false, 0, "")
	overview := [][2]string{
		{"Location", rfb.Location},
		{"Plot Area", rfb.PlotArea + " sq ft"},
		{"Floors", rfb.Floors},
		{"Budget", rfb.Budget},
		{"Timeline", rfb.Timeline},
		{"Bid Deadline", formatDate(rfb.BidDeadline)},
		{"Q&A Deadline", formatDate(rfb.QADeadline)},
	}
	for _, kv := range overview {
		pdf.SetFont(fontName, "B", 10)
		pdf.CellFormat(35, 6, kv[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		pdf.CellFormat(0, 6, text(safeValue(kv[1])), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 7, "Government Approvals & Permits", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.MultiCell(0, 5, catalog.ComplianceNotice, "1", "L", false)
	pdf.Ln(3)

	for i, c := range categories {
		pdf.SetFont(fontName, "B", 12)
		pdf.CellFormat(0, 8, text(fmt.Sprintf("%d. %s", i+1, c.Title)), "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "I", 10)
		pdf.MultiCell(0, 5, text(c.Description), "", "L", false)
		pdf.SetFont(fontName, "", 10)
		for _, spec := range c.Specifications {
			pdf.MultiCell(0, 5, text("- "+spec), "", "L", false)
		}
		if strings.TrimSpace(c.OwnerComment) != "" {
			pdf.SetFont(fontName, "B", 10)
			pdf.CellFormat(0, 6, "Owner comments:", "", 1, "L", false, 0, "")
			pdf.SetFont(fontName, "", 10)
			pdf.MultiCell(0, 5, text(c.OwnerComment), "", "L", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render rfp: %w", err)
	}
	return buf.Bytes(), nil
}

// latinize replaces characters the core PDF fonts cannot show.
func latinize(s string) string {
	return strings.ReplaceAll(s, "₹", "INR ")
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}
