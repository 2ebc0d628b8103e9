package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfbmarket/models"
)

func fill(t *testing.T, items []models.LineItem, id, desc, rate, qty string) []models.LineItem {
	t.Helper()
	var err error
	items, err = UpdateLineItem(items, id, FieldDescription, desc)
	require.NoError(t, err)
	items, err = UpdateLineItem(items, id, FieldUnitRate, rate)
	require.NoError(t, err)
	items, err = UpdateLineItem(items, id, FieldQuantity, qty)
	require.NoError(t, err)
	return items
}

func TestComputeSummaryExample(t *testing.T) {
	items := AddLineItem(nil)
	items = AddLineItem(items)
	items = AddLineItem(items)

	items = fill(t, items, items[0].ID, "Foundation", "500", "10")
	items = fill(t, items, items[1].ID, "Wiring", "200", "5")
	items = fill(t, items, items[2].ID, "Paint", "50", "20")

	s := ComputeSummary(items, DefaultRates())
	require.Equal(t, 7000.0, s.Subtotal)
	require.Equal(t, 630.0, s.CGSTAmount)
	require.Equal(t, 630.0, s.SGSTAmount)
	require.Equal(t, 0.0, s.DiscountAmount)
	require.Equal(t, 8260.0, s.FinalAmount)
	require.Equal(t, "8,260.00", FormatAmount(s.FinalAmount))
}

func TestTotalAlwaysRateTimesQuantity(t *testing.T) {
	items := AddLineItem(nil)
	id := items[0].ID

	steps := []struct {
		field Field
		value string
	}{
		{FieldUnitRate, "120.5"},
		{FieldQuantity, "3"},
		{FieldDescription, "Tiles"},
		{FieldQuantity, "abc"},
		{FieldUnitRate, "-4"},
		{FieldQuantity, "7"},
		{FieldUnitRate, "1,250"},
	}
	var err error
	for _, st := range steps {
		items, err = UpdateLineItem(items, id, st.field, st.value)
		require.NoError(t, err)
		for _, it := range items {
			require.Equal(t, it.UnitRate*it.Quantity, it.TotalPrice)
		}
	}
	require.Equal(t, 1250.0, items[0].UnitRate)
	require.Equal(t, 8750.0, items[0].TotalPrice)
}

func TestOverflowingTotalReadsAsZero(t *testing.T) {
	items := AddLineItem(nil)
	items = fill(t, items, items[0].ID, "Steel", "1e200", "1e200")
	require.Equal(t, 0.0, items[0].TotalPrice)

	s := ComputeSummary(items, Rates{CGST: 9, SGST: 9})
	require.False(t, math.IsNaN(s.FinalAmount))
	require.Equal(t, 0.0, s.FinalAmount)
	require.Equal(t, 0.0, s.DiscountAmount)

	big := []models.LineItem{{ID: "a", TotalPrice: math.MaxFloat64}, {ID: "b", TotalPrice: math.MaxFloat64}}
	s = ComputeSummary(big, DefaultRates())
	for _, v := range []float64{s.Subtotal, s.CGSTAmount, s.SGSTAmount, s.DiscountAmount, s.FinalAmount} {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestTotalPriceIsReadOnly(t *testing.T) {
	items := AddLineItem(nil)
	out, err := UpdateLineItem(items, items[0].ID, FieldTotalPrice, "999")
	require.True(t, errors.Is(err, ErrReadOnlyField))
	require.Equal(t, 0.0, out[0].TotalPrice)

	_, err = UpdateLineItem(items, items[0].ID, Field("colour"), "red")
	require.True(t, errors.Is(err, ErrUnknownField))

	_, err = UpdateLineItem(items, "missing", FieldQuantity, "1")
	require.True(t, errors.Is(err, ErrItemNotFound))
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	items := AddLineItem(nil)
	out, err := UpdateLineItem(items, items[0].ID, FieldUnitRate, "10")
	require.NoError(t, err)
	require.Equal(t, 0.0, items[0].UnitRate)
	require.Equal(t, 10.0, out[0].UnitRate)
}

func TestDeleteLastItemIsRefused(t *testing.T) {
	items := AddLineItem(nil)
	out, err := DeleteLineItem(items, items[0].ID)
	require.True(t, errors.Is(err, ErrDeleteLastItem))
	require.Len(t, out, 1)

	items = AddLineItem(items)
	second := items[1].ID
	out, err = DeleteLineItem(items, items[0].ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, second, out[0].ID)

	_, err = DeleteLineItem(out, "missing")
	require.True(t, errors.Is(err, ErrItemNotFound))
}

func TestSummaryFormulaHolds(t *testing.T) {
	cases := []struct {
		rates  Rates
		totals [][2]string
	}{
		{Rates{CGST: 9, SGST: 9}, [][2]string{{"1", "1"}}},
		{Rates{CGST: 2.5, SGST: 2.5, Discount: 10}, [][2]string{{"333.33", "3"}, {"0.1", "7"}}},
		{Rates{CGST: 0, SGST: 0, Discount: 100}, [][2]string{{"10", "10"}}},
		{Rates{CGST: 14, SGST: 14, Discount: 5}, [][2]string{{"1999.99", "13"}, {"12.5", "8"}, {"0", "4"}}},
	}
	for _, c := range cases {
		items := []models.LineItem{}
		for _, rq := range c.totals {
			items = AddLineItem(items)
			items = fill(t, items, items[len(items)-1].ID, "x", rq[0], rq[1])
		}
		s := ComputeSummary(items, c.rates)
		want := s.Subtotal + s.Subtotal*c.rates.CGST/100 + s.Subtotal*c.rates.SGST/100 - s.Subtotal*c.rates.Discount/100
		assert.InDelta(t, want, s.FinalAmount, 1e-9)
	}
}

func TestNegativeRatesClampToZero(t *testing.T) {
	s := ComputeSummary([]models.LineItem{{ID: "a", UnitRate: 10, Quantity: 10, TotalPrice: 100}}, Rates{CGST: -9, SGST: math.NaN(), Discount: -1})
	require.Equal(t, 100.0, s.FinalAmount)
	require.Equal(t, 0.0, s.CGSTRate)
}

func TestParseAmount(t *testing.T) {
	require.Equal(t, 0.0, ParseAmount(""))
	require.Equal(t, 0.0, ParseAmount("twelve"))
	require.Equal(t, 0.0, ParseAmount("-5"))
	require.Equal(t, 0.0, ParseAmount("NaN"))
	require.Equal(t, 12.5, ParseAmount(" 12.5 "))
	require.Equal(t, 100000.0, ParseAmount("1,00,000"))
}

func TestRoundingAndFormatting(t *testing.T) {
	require.Equal(t, 0.12, Round2(0.125))
	require.Equal(t, 2.5, Round2(2.5))
	require.Equal(t, "0.00", FormatAmount(0))
	require.Equal(t, "1,234.50", FormatAmount(1234.5))
	require.Equal(t, "₹8,260.00", FormatCurrency(8260))
}

func TestDisplay(t *testing.T) {
	d := Display(models.PricingSummary{Subtotal: 7000, CGSTAmount: 630, SGSTAmount: 630, FinalAmount: 8260})
	require.Equal(t, "₹7,000.00", d.Subtotal)
	require.Equal(t, "₹0.00", d.DiscountAmount)
	require.Equal(t, "₹8,260.00", d.FinalAmount)
}
