// Package pricing maintains the editable line items of a proposal and derives
// subtotal, CGST, SGST, discount and final amount from them.
//
// All percentages are applied to the subtotal; they are never compounded on
// each other.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"rfbmarket/models"
)

var (
	ErrDeleteLastItem = errors.New("at least one line item is required")
	ErrItemNotFound   = errors.New("line item not found")
	ErrReadOnlyField  = errors.New("total price is computed from unit rate and quantity")
	ErrUnknownField   = errors.New("unknown line item field")
)

type Field string

const (
	FieldDescription Field = "description"
	FieldUnitRate    Field = "unitRate"
	FieldUoM         Field = "uom"
	FieldQuantity    Field = "quantity"
	FieldTotalPrice  Field = "totalPrice"
	FieldRemarks     Field = "remarks"
)

// Rates are plain percentages (9 means 9%).
type Rates struct {
	CGST     float64 `json:"cgst"`
	SGST     float64 `json:"sgst"`
	Discount float64 `json:"discount"`
}

func DefaultRates() Rates {
	return Rates{CGST: 9, SGST: 9, Discount: 0}
}

// normalized clamps every rate into [0, +inf).
func (r Rates) normalized() Rates {
	return Rates{
		CGST:     nonNegative(r.CGST),
		SGST:     nonNegative(r.SGST),
		Discount: nonNegative(r.Discount),
	}
}

var newID = uuid.NewString

// NewItem returns an empty line item with zero rate and quantity.
func NewItem() models.LineItem {
	return models.LineItem{ID: newID()}
}

// AddLineItem appends an empty item. The input slice is not modified.
func AddLineItem(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, 0, len(items)+1)
	out = append(out, items...)
	return append(out, NewItem())
}

// UpdateLineItem sets one field of the item with the given id. Numeric fields
// are parsed with ParseAmount; a rate or quantity change recomputes the total.
// A product that overflows float64 reads as 0, like any other unusable amount.
func UpdateLineItem(items []models.LineItem, id string, field Field, value string) ([]models.LineItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	item := items[idx]
	switch field {
	case FieldDescription:
		item.Description = value
	case FieldUoM:
		item.UoM = value
	case FieldRemarks:
		item.Remarks = value
	case FieldUnitRate:
		item.UnitRate = ParseAmount(value)
	case FieldQuantity:
		item.Quantity = ParseAmount(value)
	case FieldTotalPrice:
		return items, ErrReadOnlyField
	default:
		return items, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	item.TotalPrice = nonNegative(item.UnitRate * item.Quantity)

	out := make([]models.LineItem, len(items))
	copy(out, items)
	out[idx] = item
	return out, nil
}

// DeleteLineItem removes the item with the given id. Removing the only
// remaining item is refused and the input is returned unchanged.
func DeleteLineItem(items []models.LineItem, id string) ([]models.LineItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if len(items) == 1 {
		return items, ErrDeleteLastItem
	}
	out := make([]models.LineItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...), nil
}

// ComputeSummary derives the pricing summary. Amounts are not rounded here;
// use Round2 or FormatAmount for presentation. A subtotal too large to
// represent yields an all-zero summary.
func ComputeSummary(items []models.LineItem, rates Rates) models.PricingSummary {
	rates = rates.normalized()

	subtotal := 0.0
	for _, it := range items {
		subtotal += it.TotalPrice
	}
	if math.IsNaN(subtotal) || math.IsInf(subtotal, 0) {
		subtotal = 0
	}
	cgst := subtotal * rates.CGST / 100
	sgst := subtotal * rates.SGST / 100
	discount := subtotal * rates.Discount / 100
	final := subtotal + cgst + sgst - discount
	if math.IsNaN(final) || math.IsInf(final, 0) {
		subtotal, cgst, sgst, discount, final = 0, 0, 0, 0, 0
	}

	return models.PricingSummary{
		Subtotal:       subtotal,
		CGSTRate:       rates.CGST,
		CGSTAmount:     cgst,
		SGSTRate:       rates.SGST,
		SGSTAmount:     sgst,
		DiscountRate:   rates.Discount,
		DiscountAmount: discount,
		FinalAmount:    final,
	}
}

func indexOf(items []models.LineItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
