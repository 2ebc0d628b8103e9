package workflow

import (
	"context"
	"errors"

	"rfbmarket/internal/otp"
	"rfbmarket/internal/pricing"
	"rfbmarket/models"
)

// Snapshot is a point-in-time copy of a proposal.
type Snapshot struct {
	ID         string                     `json:"id"`
	State      State                      `json:"state"`
	RFB        models.RFBRecord           `json:"rfb"`
	Contractor models.ContractorIdentity  `json:"contractor"`
	Categories []models.CategorySpec      `json:"categories"`
	LineItems  []models.LineItem          `json:"lineItems"`
	Summary    models.PricingSummary      `json:"summary"`
	Display    pricing.DisplaySummary     `json:"display"`
	OTP        *otp.View                  `json:"otp,omitempty"`
	Submitted  *models.ContractorProposal `json:"submitted,omitempty"`
}

// Snapshot copies the current proposal. While awaiting a passcode it also
// reports the countdown.
func (p *Proposal) Snapshot(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	p.lastActive = p.now()
	summary := p.sheet.Summary()
	snap := Snapshot{
		ID:         p.id,
		State:      p.state,
		RFB:        p.rfb,
		Contractor: p.contractor,
		Categories: p.comments.Specs(),
		LineItems:  p.sheet.Items(),
		Summary:    summary,
		Display:    pricing.Display(summary),
	}
	if p.submitted != nil {
		frozen := *p.submitted
		snap.Submitted = &frozen
	}
	p.mu.Unlock()

	if snap.State != AwaitingOTP {
		return snap, nil
	}
	s, err := p.gate.Lookup(ctx, p.id)
	if errors.Is(err, otp.ErrNoSession) {
		return snap, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	view := s.ViewAt(p.now())
	snap.OTP = &view
	return snap, nil
}

// Items returns the current line items and summary without the rest of the snapshot.
func (p *Proposal) Items() ([]models.LineItem, models.PricingSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sheet.Items(), p.sheet.Summary()
}
