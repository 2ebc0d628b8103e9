package pricing

import "rfbmarket/models"

// Sheet is the stateful pricing table of one proposal. Every mutation
// recomputes the summary and hands it to the change listener.
// A Sheet is not safe for concurrent use; its owner serializes access.
type Sheet struct {
	items    []models.LineItem
	rates    Rates
	onChange func(models.PricingSummary)
}

// NewSheet starts with a single empty line item.
func NewSheet(rates Rates) *Sheet {
	return &Sheet{
		items: []models.LineItem{NewItem()},
		rates: rates.normalized(),
	}
}

// OnChange registers the listener and immediately publishes the current summary.
func (s *Sheet) OnChange(fn func(models.PricingSummary)) {
	s.onChange = fn
	s.publish()
}

func (s *Sheet) Items() []models.LineItem {
	out := make([]models.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Sheet) Rates() Rates { return s.rates }

func (s *Sheet) Summary() models.PricingSummary {
	return ComputeSummary(s.items, s.rates)
}

// Add appends an empty item and returns it.
func (s *Sheet) Add() models.LineItem {
	s.items = AddLineItem(s.items)
	s.publish()
	return s.items[len(s.items)-1]
}

func (s *Sheet) Update(id string, field Field, value string) (models.LineItem, error) {
	items, err := UpdateLineItem(s.items, id, field, value)
	if err != nil {
		return models.LineItem{}, err
	}
	s.items = items
	s.publish()
	return s.items[indexOf(s.items, id)], nil
}

func (s *Sheet) Delete(id string) error {
	items, err := DeleteLineItem(s.items, id)
	if err != nil {
		return err
	}
	s.items = items
	s.publish()
	return nil
}

func (s *Sheet) SetRates(r Rates) {
	s.rates = r.normalized()
	s.publish()
}

func (s *Sheet) publish() {
	if s.onChange != nil {
		s.onChange(s.Summary())
	}
}
