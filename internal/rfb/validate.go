package rfb

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"rfbmarket/models"
)

var (
	ErrInvalidRecord     = errors.New("invalid request for bid")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrClosed            = errors.New("request for bid is already closed")
)

const (
	minBidLeadDays = 6
	minQALeadDays  = 2
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateNew checks a homeowner's submission. Deadlines are compared as
// calendar dates in now's location.
func ValidateNew(r models.RFBRecord, now time.Time) error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ErrInvalidRecord, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	today := dateOf(now, now.Location())
	bid := dateOf(r.BidDeadline, now.Location())
	qa := dateOf(r.QADeadline, now.Location())

	if bid.Before(today.AddDate(0, 0, minBidLeadDays)) {
		return fmt.Errorf("%w: bidDeadline must be at least %d days from today", ErrInvalidRecord, minBidLeadDays)
	}
	if qa.Before(today.AddDate(0, 0, minQALeadDays)) {
		return fmt.Errorf("%w: qaDeadline must be at least %d days from today", ErrInvalidRecord, minQALeadDays)
	}
	if !qa.Before(bid) {
		return fmt.Errorf("%w: qaDeadline must be before bidDeadline", ErrInvalidRecord)
	}
	return nil
}

// NewRecord validates the submission and stamps it as a freshly posted,
// open record. A missing budget range is derived from the budget label.
func NewRecord(in models.RFBRecord, now time.Time) (models.RFBRecord, error) {
	if err := ValidateNew(in, now); err != nil {
		return models.RFBRecord{}, err
	}
	r := in
	r.ID = uuid.NewString()
	r.Status = models.RFBOpen
	r.PostedDate = dateOf(now, now.Location())
	if !HasBudgetRange(r) {
		if lo, hi, ok := ParseBudgetLabel(r.Budget); ok {
			r.BudgetMinLakhs, r.BudgetMaxLakhs = lo, hi
		}
	}
	return r, nil
}

// CheckTransition allows only the owner's manual close of an open record.
func CheckTransition(from, to models.RFBStatus) error {
	switch from {
	case models.RFBOpen:
		if to != models.RFBClosed {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
	case models.RFBClosed:
		return ErrClosed
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}
	return nil
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
