package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rfbmarket/internal/catalog"
	"rfbmarket/models"
)

func TestRFPGenerator(t *testing.T) {
	rfb := models.RFBRecord{
		ProjectName: "Modern Villa Construction",
		Location:    "Bangalore, Karnataka",
		PlotArea:    "2500",
		Floors:      "2",
		Budget:      "₹50-75 Lakhs",
		Timeline:    "12 months",
		BidDeadline: time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	out, err := NewRFPGenerator().Generate(rfb, catalog.NewOverlay().Specs())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestLatinize(t *testing.T) {
	require.Equal(t, "INR 50-75 Lakhs", latinize("₹50-75 Lakhs"))
	require.Equal(t, "-", safeValue("  "))
	require.Equal(t, "-", formatDate(time.Time{}))
}

func TestPricingWorkbook(t *testing.T) {
	items := []models.LineItem{
		{ID: "a", Description: "Foundation", UnitRate: 500, UoM: "m3", Quantity: 10, TotalPrice: 5000},
		{ID: "b", Description: "Wiring", UnitRate: 200, UoM: "pt", Quantity: 5, TotalPrice: 1000, Remarks: "copper"},
	}
	s := models.PricingSummary{Subtotal: 6000, CGSTRate: 9, CGSTAmount: 540, SGSTRate: 9, SGSTAmount: 540, FinalAmount: 7080}

	out, err := NewPricingWorkbook().Generate("Villa", items, s)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue(pricingSheet, cell)
		require.NoError(t, err)
		return v
	}
	require.Equal(t, "Villa", get("B1"))
	require.Equal(t, "Sl#", get("A3"))
	require.Equal(t, "Foundation", get("B4"))
	require.Equal(t, "5000", get("F4"))
	require.Equal(t, "copper", get("G5"))
	require.Equal(t, "Subtotal", get("E7"))
	require.Equal(t, "CGST (9%)", get("E8"))
	require.Equal(t, "Final Amount", get("E11"))
	require.Equal(t, "7080", get("F11"))
}
