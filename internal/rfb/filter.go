// Package rfb answers listing queries over requests for bid and owns the
// deadline arithmetic, budget buckets and intake rules for new records.
package rfb

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"rfbmarket/models"
)

var ErrInvalidCriteria = errors.New("invalid filter criteria")

const all = "all"

type Urgency string

const (
	UrgencyAll       Urgency = all
	UrgencyUrgent    Urgency = "urgent"
	UrgencyThisMonth Urgency = "this-month"
	UrgencyExpired   Urgency = "expired"
)

// Criteria are conjunctive. Empty fields and "all" match everything.
type Criteria struct {
	Search   string
	Status   string
	Budget   Bucket
	State    string
	Deadline Urgency
}

// CriteriaFromQuery reads search, status, budget, state and deadline
// parameters and rejects unknown enum values.
func CriteriaFromQuery(q url.Values) (Criteria, error) {
	c := Criteria{
		Search:   strings.TrimSpace(q.Get("search")),
		Status:   q.Get("status"),
		Budget:   Bucket(q.Get("budget")),
		State:    q.Get("state"),
		Deadline: Urgency(q.Get("deadline")),
	}

	switch models.RFBStatus(c.Status) {
	case "", all, models.RFBOpen, models.RFBClosed:
	default:
		return Criteria{}, fmt.Errorf("%w: status %q", ErrInvalidCriteria, c.Status)
	}
	if c.Budget != "" && c.Budget != BudgetAll {
		if _, ok := buckets[c.Budget]; !ok {
			return Criteria{}, fmt.Errorf("%w: budget %q", ErrInvalidCriteria, c.Budget)
		}
	}
	switch c.Deadline {
	case "", UrgencyAll, UrgencyUrgent, UrgencyThisMonth, UrgencyExpired:
	default:
		return Criteria{}, fmt.Errorf("%w: deadline %q", ErrInvalidCriteria, c.Deadline)
	}
	return c, nil
}

// Query returns the records matching every criterion, in input order.
// The input slice is not modified.
func Query(records []models.RFBRecord, c Criteria, now time.Time) []models.RFBRecord {
	search := strings.ToLower(c.Search)
	out := make([]models.RFBRecord, 0, len(records))
	for _, r := range records {
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		if !isAll(c.Status) && string(r.Status) != c.Status {
			continue
		}
		if !isAll(string(c.Budget)) && !InBucket(r, c.Budget) {
			continue
		}
		if !isAll(c.State) && r.State != c.State {
			continue
		}
		if !isAll(string(c.Deadline)) && !matchesUrgency(DaysRemaining(r.BidDeadline, now), c.Deadline) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isAll(v string) bool { return v == "" || v == all }

func matchesSearch(r models.RFBRecord, needle string) bool {
	return strings.Contains(strings.ToLower(r.ProjectName), needle) ||
		strings.Contains(strings.ToLower(r.Location), needle) ||
		strings.Contains(strings.ToLower(r.Description), needle)
}

func matchesUrgency(days int, u Urgency) bool {
	switch u {
	case UrgencyUrgent:
		return days >= 0 && days <= 7
	case UrgencyThisMonth:
		return days >= 0 && days <= 30
	case UrgencyExpired:
		return days < 0
	default:
		return true
	}
}

// DaysRemaining is ceil((deadline - now) / 24h). A deadline equal to now gives 0.
func DaysRemaining(deadline, now time.Time) int {
	days := math.Ceil(float64(deadline.Sub(now)) / float64(24*time.Hour))
	if days == 0 {
		// ceil of a small negative fraction is -0
		return 0
	}
	return int(days)
}

type Band string

const (
	BandPassed Band = "passed"
	BandUrgent Band = "urgent"
	BandSoon   Band = "soon"
	BandNormal Band = "normal"
)

// DeadlineBand classifies a days-remaining value for display.
func DeadlineBand(days int) Band {
	switch {
	case days < 0:
		return BandPassed
	case days <= 3:
		return BandUrgent
	case days <= 7:
		return BandSoon
	default:
		return BandNormal
	}
}

// Lapsed reports whether an open record's bid deadline has passed.
func Lapsed(r models.RFBRecord, now time.Time) bool {
	return r.Status == models.RFBOpen && DaysRemaining(r.BidDeadline, now) < 0
}

// EffectiveStatus is Closed for lapsed records; the stored status is left alone.
func EffectiveStatus(r models.RFBRecord, now time.Time) models.RFBStatus {
	if Lapsed(r, now) {
		return models.RFBClosed
	}
	return r.Status
}
