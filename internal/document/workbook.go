package document

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"rfbmarket/internal/pricing"
	"rfbmarket/models"
)

const pricingSheet = "Pricing"

type PricingWorkbook struct{}

func NewPricingWorkbook() *PricingWorkbook {
	return &PricingWorkbook{}
}

// Generate writes one row per line item followed by the summary block.
// Amounts are rounded half to even at two decimals.
func (g *PricingWorkbook) Generate(project string, items []models.LineItem, s models.PricingSummary) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", pricingSheet); err != nil {
		return nil, err
	}
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(pricingSheet, cell, value)
	}

	set("A1", "Project")
	set("B1", project)

	headerRow := 3
	headers := []string{"Sl#", "Description", "Unit Rate", "UoM", "Quantity", "Total Price", "Remarks"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, h)
	}

	for i, it := range items {
		row := headerRow + 1 + i
		set(fmt.Sprintf("A%d", row), i+1)
		set(fmt.Sprintf("B%d", row), it.Description)
		set(fmt.Sprintf("C%d", row), pricing.Round2(it.UnitRate))
		set(fmt.Sprintf("D%d", row), it.UoM)
		set(fmt.Sprintf("E%d", row), it.Quantity)
		set(fmt.Sprintf("F%d", row), pricing.Round2(it.TotalPrice))
		set(fmt.Sprintf("G%d", row), it.Remarks)
	}

	row := headerRow + len(items) + 2
	summary := []struct {
		label string
		value float64
	}{
		{"Subtotal", s.Subtotal},
		{fmt.Sprintf("CGST (%g%%)", s.CGSTRate), s.CGSTAmount},
		{fmt.Sprintf("SGST (%g%%)", s.SGSTRate), s.SGSTAmount},
		{fmt.Sprintf("Discount (%g%%)", s.DiscountRate), s.DiscountAmount},
		{"Final Amount", s.FinalAmount},
	}
	for i, line := range summary {
		set(fmt.Sprintf("E%d", row+i), line.label)
		set(fmt.Sprintf("F%d", row+i), pricing.Round2(line.value))
	}

	_ = file.SetColWidth(pricingSheet, "A", "A", 6)
	_ = file.SetColWidth(pricingSheet, "B", "B", 40)
	_ = file.SetColWidth(pricingSheet, "C", "F", 16)
	_ = file.SetColWidth(pricingSheet, "G", "G", 30)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}
