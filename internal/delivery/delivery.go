package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"rfbmarket/models"
)

const (
	TypeProposalSubmitted = "proposal.submitted"
	TypeBidsShortlisted   = "bids.shortlisted"
)

// BidRecorder stores a submitted proposal as a bid the homeowner can review.
type BidRecorder interface {
	CreateBid(ctx context.Context, bid *models.Bid) error
}

// ProposalDeliverer records the bid and then publishes the proposal.
// Recording is idempotent per proposal id, so redelivery is safe.
type ProposalDeliverer struct {
	Publisher Publisher
	Queue     string
	Bids      BidRecorder
	Log       zerolog.Logger
	Now       func() time.Time
}

func (d *ProposalDeliverer) Deliver(ctx context.Context, p models.ContractorProposal) error {
	if d.Bids != nil {
		bid := BidFromProposal(p)
		if err := d.Bids.CreateBid(ctx, &bid); err != nil {
			return fmt.Errorf("record bid: %w", err)
		}
	}
	env := Envelope{Type: TypeProposalSubmitted, OccurredAt: d.now(), Payload: p}
	if err := d.Publisher.Publish(ctx, d.Queue, env); err != nil {
		return err
	}
	d.Log.Info().
		Str("proposal_id", p.ID).
		Str("rfb_id", p.RFB.ID).
		Str("company", p.Contractor.CompanyName).
		Msg("proposal delivered")
	return nil
}

func (d *ProposalDeliverer) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// BidFromProposal is the homeowner-facing view of a submitted proposal.
func BidFromProposal(p models.ContractorProposal) models.Bid {
	return models.Bid{
		ID:          p.ID,
		RFBID:       p.RFB.ID,
		BidderName:  p.Contractor.CompanyName,
		BidValue:    p.FinalAmount,
		SubmittedAt: p.SubmittedAt,
	}
}

type Shortlisted struct {
	RFBID string       `json:"rfbId"`
	Bids  []models.Bid `json:"bids"`
}

// ShortlistNotifier tells the shortlisted contractors' side that a decision was made.
type ShortlistNotifier struct {
	Publisher Publisher
	Queue     string
}

func (n ShortlistNotifier) Notify(ctx context.Context, rfbID string, bids []models.Bid) error {
	env := Envelope{
		Type:       TypeBidsShortlisted,
		OccurredAt: time.Now(),
		Payload:    Shortlisted{RFBID: rfbID, Bids: bids},
	}
	return n.Publisher.Publish(ctx, n.Queue, env)
}
