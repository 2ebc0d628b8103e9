// Package shortlist supports the homeowner's review of received bids.
package shortlist

import (
	"errors"
	"fmt"
	"sort"

	"rfbmarket/internal/pricing"
	"rfbmarket/models"
)

var (
	ErrNothingSelected = errors.New("select at least one bidder to shortlist")
	ErrUnknownBid      = errors.New("bid does not belong to this request")
)

type Band string

const (
	Excellent Band = "Excellent"
	Good      Band = "Good"
	Average   Band = "Average"
)

func ScoreBand(score int) Band {
	switch {
	case score >= 90:
		return Excellent
	case score >= 80:
		return Good
	default:
		return Average
	}
}

// Rank orders bids by bid value, lowest first. Equal values keep their input order.
func Rank(bids []models.Bid) []models.Bid {
	out := make([]models.Bid, len(bids))
	copy(out, bids)
	sort.SliceStable(out, func(i, j int) bool { return out[i].BidValue < out[j].BidValue })
	return out
}

type Ranked struct {
	models.Bid
	Rank      int    `json:"rank"`
	ScoreBand Band   `json:"scoreBand"`
	BidText   string `json:"bidText"`
}

// Review ranks the bids and annotates them for display.
func Review(bids []models.Bid) []Ranked {
	ranked := Rank(bids)
	out := make([]Ranked, len(ranked))
	for i, b := range ranked {
		out[i] = Ranked{
			Bid:       b,
			Rank:      i + 1,
			ScoreBand: ScoreBand(b.ContractorScore),
			BidText:   pricing.FormatCurrency(b.BidValue),
		}
	}
	return out
}

// Confirm returns the selected bids in rank order. Duplicate ids are ignored.
func Confirm(bids []models.Bid, selected []string) ([]models.Bid, error) {
	if len(selected) == 0 {
		return nil, ErrNothingSelected
	}
	byID := make(map[string]bool, len(bids))
	for _, b := range bids {
		byID[b.ID] = true
	}
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		if !byID[id] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBid, id)
		}
		want[id] = true
	}

	out := make([]models.Bid, 0, len(want))
	for _, b := range Rank(bids) {
		if want[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}
