package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"rfbmarket/models"
)

// ParseAmount reads a user-entered number. Anything that is not a finite,
// non-negative number reads as 0. Digit-group commas are accepted.
func ParseAmount(raw string) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return nonNegative(v)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Round2 rounds half to even at two decimals.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// FormatAmount renders v with grouped digits and exactly two decimals.
func FormatAmount(v float64) string {
	return humanize.FormatFloat("#,###.##", Round2(v))
}

// FormatCurrency is FormatAmount with the rupee sign.
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-₹" + FormatAmount(-v)
	}
	return "₹" + FormatAmount(v)
}

// DisplaySummary is a PricingSummary rendered for presentation.
type DisplaySummary struct {
	Subtotal       string `json:"subtotal"`
	CGSTAmount     string `json:"cgstAmount"`
	SGSTAmount     string `json:"sgstAmount"`
	DiscountAmount string `json:"discountAmount"`
	FinalAmount    string `json:"finalAmount"`
}

func Display(s models.PricingSummary) DisplaySummary {
	return DisplaySummary{
		Subtotal:       FormatCurrency(s.Subtotal),
		CGSTAmount:     FormatCurrency(s.CGSTAmount),
		SGSTAmount:     FormatCurrency(s.SGSTAmount),
		DiscountAmount: FormatCurrency(s.DiscountAmount),
		FinalAmount:    FormatCurrency(s.FinalAmount),
	}
}
