package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rfbmarket/models"
)

func TestSheetRepublishesOnEveryChange(t *testing.T) {
	sheet := NewSheet(DefaultRates())

	var published []float64
	sheet.OnChange(func(s models.PricingSummary) {
		published = append(published, s.FinalAmount)
	})
	require.Equal(t, []float64{0}, published)

	first := sheet.Items()[0].ID
	_, err := sheet.Update(first, FieldUnitRate, "100")
	require.NoError(t, err)
	item, err := sheet.Update(first, FieldQuantity, "2")
	require.NoError(t, err)
	require.Equal(t, 200.0, item.TotalPrice)
	require.Equal(t, 236.0, published[len(published)-1])

	sheet.SetRates(Rates{CGST: 0, SGST: 0, Discount: 50})
	require.Equal(t, 100.0, published[len(published)-1])

	added := sheet.Add()
	require.Len(t, sheet.Items(), 2)
	require.NoError(t, sheet.Delete(added.ID))
	require.Len(t, published, 6)
}

func TestSheetKeepsOneItem(t *testing.T) {
	sheet := NewSheet(DefaultRates())
	calls := 0
	sheet.OnChange(func(models.PricingSummary) { calls++ })

	err := sheet.Delete(sheet.Items()[0].ID)
	require.ErrorIs(t, err, ErrDeleteLastItem)
	require.Len(t, sheet.Items(), 1)
	require.Equal(t, 1, calls)
}

func TestSheetItemsAreCopies(t *testing.T) {
	sheet := NewSheet(DefaultRates())
	items := sheet.Items()
	items[0].Description = "changed"
	require.Empty(t, sheet.Items()[0].Description)
}
