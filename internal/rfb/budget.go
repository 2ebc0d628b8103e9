package rfb

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"rfbmarket/models"
)

type Bucket string

const (
	BudgetAll      Bucket = all
	BudgetUnder50  Bucket = "under-50"
	Budget50To100  Bucket = "50-100"
	BudgetAbove100 Bucket = "above-100"
)

// span is a half-open interval in lakhs.
type span struct {
	lo, hi float64
}

var buckets = map[Bucket]span{
	BudgetUnder50:  {0, 50},
	Budget50To100:  {50, 100},
	BudgetAbove100: {100, math.Inf(1)},
}

const lakhsPerCrore = 100

// HasBudgetRange reports whether the record carries a usable numeric range.
func HasBudgetRange(r models.RFBRecord) bool {
	return r.BudgetMinLakhs > 0 || r.BudgetMaxLakhs > 0
}

// InBucket reports whether the record's budget range overlaps the bucket.
// A zero max with a positive min is open-ended. Records without a range
// never match a concrete bucket.
func InBucket(r models.RFBRecord, b Bucket) bool {
	if b == BudgetAll || b == "" {
		return true
	}
	s, ok := buckets[b]
	if !ok || !HasBudgetRange(r) {
		return false
	}
	lo, hi := r.BudgetMinLakhs, r.BudgetMaxLakhs
	if hi == 0 {
		hi = math.Inf(1)
	}
	if lo == hi {
		return lo >= s.lo && lo < s.hi
	}
	return lo < s.hi && hi > s.lo
}

var amountRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(crores?|cr|lakhs?|lacs?|l)?\b`)

// ParseBudgetLabel derives a lakh range from labels such as "₹50-75 Lakhs",
// "₹2-3 Crores", "₹75 Lakhs - 1 Crore", "Under ₹50 Lakhs" or "Above ₹1 Crore".
// A number without a unit takes the unit of the next number that has one.
// max is 0 for open-ended ranges; ok is false when nothing could be read.
func ParseBudgetLabel(label string) (min, max float64, ok bool) {
	l := strings.ToLower(strings.ReplaceAll(label, ",", ""))
	matches := amountRe.FindAllStringSubmatch(l, -1)
	if len(matches) == 0 {
		return 0, 0, false
	}

	values := make([]float64, len(matches))
	units := make([]string, len(matches))
	for i, m := range matches {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, 0, false
		}
		values[i] = v
		units[i] = m[2]
	}
	unit := ""
	for i := len(values) - 1; i >= 0; i-- {
		if units[i] != "" {
			unit = units[i]
		}
		values[i] = toLakhs(values[i], unit)
	}

	switch {
	case hasAny(l, "under", "below", "upto", "up to", "less than"):
		return 0, values[0], true
	case hasAny(l, "above", "over", "more than", "+"):
		return values[0], 0, true
	case len(values) >= 2:
		lo, hi := values[0], values[1]
		if hi < lo {
			lo, hi = hi, lo
		}
		return lo, hi, true
	default:
		return values[0], values[0], true
	}
}

func toLakhs(v float64, unit string) float64 {
	switch {
	case strings.HasPrefix(unit, "c"):
		return v * lakhsPerCrore
	case unit == "" && v >= 100000:
		// a plain rupee amount
		return v / 100000
	default:
		return v
	}
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
