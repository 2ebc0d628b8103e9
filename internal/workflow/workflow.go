// Package workflow drives a contractor's proposal from contractor details
// through pricing and passcode confirmation to submission.
//
//	Step1_Details -> Step2_Pricing -> AwaitingOTP -> Submitted
//
// Step2 may always go back to Step1 and AwaitingOTP may be cancelled back to
// Step2; neither loses entered data. Submitted is terminal.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"rfbmarket/internal/catalog"
	"rfbmarket/internal/otp"
	"rfbmarket/internal/pricing"
	"rfbmarket/models"
)

// State is a step of the proposal workflow.
type State string

const (
	StepDetails State = "Step1_Details"
	StepPricing State = "Step2_Pricing"
	AwaitingOTP State = "AwaitingOTP"
	Submitted   State = "Submitted"
)

// Gate is the passcode service guarding submission.
type Gate interface {
	Issue(ctx context.Context, key, destination string) (otp.Session, error)
	Verify(ctx context.Context, key, code string) (otp.Session, error)
	Resend(ctx context.Context, key string) (otp.Session, error)
	Discard(ctx context.Context, key string) error
	Lookup(ctx context.Context, key string) (otp.Session, error)
}

// Deliverer receives the frozen proposal once it is submitted.
type Deliverer interface {
	Deliver(ctx context.Context, p models.ContractorProposal) error
}

// Observer is told about transitions and outcomes. Implementations must not block.
type Observer interface {
	Transition(from, to State)
	GuardFailed(state State, guard string)
	OTPVerified(result string)
	Delivered(ok bool)
}

type nopObserver struct{}

func (nopObserver) Transition(State, State)   {}
func (nopObserver) GuardFailed(State, string) {}
func (nopObserver) OTPVerified(string)        {}
func (nopObserver) Delivered(bool)            {}

// Deps are the collaborators shared by every proposal.
type Deps struct {
	Gate      Gate
	Deliverer Deliverer
	Rates     pricing.Rates
	Log       zerolog.Logger
	Observer  Observer
	Now       func() time.Time
}

var identityValidator = validator.New()

// Proposal is one contractor's submission in progress. It is safe for concurrent use.
type Proposal struct {
	mu sync.Mutex

	id         string
	rfb        models.RFBRecord
	state      State
	busy       bool
	contractor models.ContractorIdentity
	comments   *catalog.Overlay
	sheet      *pricing.Sheet
	final      float64
	submitted  *models.ContractorProposal
	lastActive time.Time

	gate      Gate
	deliverer Deliverer
	observer  Observer
	log       zerolog.Logger
	now       func() time.Time
}

// New opens a proposal against a copy of rfb in Step1_Details.
func New(id string, rfb models.RFBRecord, deps Deps) *Proposal {
	p := &Proposal{
		id:        id,
		rfb:       rfb,
		state:     StepDetails,
		comments:  catalog.NewOverlay(),
		sheet:     pricing.NewSheet(deps.Rates),
		gate:      deps.Gate,
		deliverer: deps.Deliverer,
		observer:  deps.Observer,
		log:       deps.Log.With().Str("proposal_id", id).Str("rfb_id", rfb.ID).Logger(),
		now:       deps.Now,
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.lastActive = p.now()
	p.sheet.OnChange(func(s models.PricingSummary) { p.final = s.FinalAmount })
	return p
}

func (p *Proposal) ID() string { return p.id }

// State returns the current step.
func (p *Proposal) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// FinalAmount is the latest amount published by the pricing sheet.
func (p *Proposal) FinalAmount() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.final
}

// lockIn locks p and checks that it is idle and in one of the given states.
// On success p stays locked.
func (p *Proposal) lockIn(states ...State) error {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return ErrBusy
	}
	for _, s := range states {
		if p.state == s {
			p.lastActive = p.now()
			return nil
		}
	}
	current := p.state
	p.mu.Unlock()
	return fmt.Errorf("%w: %s", ErrWrongState, current)
}

// idle reports whether p is not busy and was last touched maxIdle or more before now.
func (p *Proposal) idle(now time.Time, maxIdle time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.busy && now.Sub(p.lastActive) >= maxIdle
}

func (p *Proposal) moveTo(next State) {
	p.observer.Transition(p.state, next)
	p.log.Debug().Str("from", string(p.state)).Str("to", string(next)).Msg("proposal transition")
	p.state = next
}

func (p *Proposal) guardFailed(guard string, err error) error {
	p.observer.GuardFailed(p.state, guard)
	p.log.Debug().Str("state", string(p.state)).Str("guard", guard).Err(err).Msg("guard failed")
	return err
}

// SetContractor replaces the contractor identity. Step1 only.
func (p *Proposal) SetContractor(c models.ContractorIdentity) error {
	if err := p.lockIn(StepDetails); err != nil {
		return err
	}
	defer p.mu.Unlock()
	p.contractor = c
	return nil
}

// SetCategoryComment records the contractor's response for one category. Step1 only.
func (p *Proposal) SetCategoryComment(categoryID, comment string) error {
	if err := p.lockIn(StepDetails); err != nil {
		return err
	}
	defer p.mu.Unlock()
	return p.comments.SetContractorComment(categoryID, comment)
}

// Next advances Step1 to Step2 once company, contact and email are present.
func (p *Proposal) Next() error {
	if err := p.lockIn(StepDetails); err != nil {
		return err
	}
	defer p.mu.Unlock()

	if err := validateIdentity(p.contractor); err != nil {
		return p.guardFailed("contractor_identity", err)
	}
	p.moveTo(StepPricing)
	return nil
}

// Back returns from Step2 to Step1, keeping everything entered so far.
func (p *Proposal) Back() error {
	if err := p.lockIn(StepPricing); err != nil {
		return err
	}
	defer p.mu.Unlock()
	p.moveTo(StepDetails)
	return nil
}

// AddItem appends an empty line item. Step2 only.
func (p *Proposal) AddItem() (models.LineItem, error) {
	if err := p.lockIn(StepPricing); err != nil {
		return models.LineItem{}, err
	}
	defer p.mu.Unlock()
	return p.sheet.Add(), nil
}

// UpdateItem sets one field of a line item. Step2 only.
func (p *Proposal) UpdateItem(id string, field pricing.Field, value string) (models.LineItem, error) {
	if err := p.lockIn(StepPricing); err != nil {
		return models.LineItem{}, err
	}
	defer p.mu.Unlock()
	return p.sheet.Update(id, field, value)
}

// DeleteItem removes a line item, keeping at least one. Step2 only.
func (p *Proposal) DeleteItem(id string) error {
	if err := p.lockIn(StepPricing); err != nil {
		return err
	}
	defer p.mu.Unlock()
	return p.sheet.Delete(id)
}

// SetRates replaces the tax and discount percentages and returns the new summary. Step2 only.
func (p *Proposal) SetRates(r pricing.Rates) (models.PricingSummary, error) {
	if err := p.lockIn(StepPricing); err != nil {
		return models.PricingSummary{}, err
	}
	defer p.mu.Unlock()
	p.sheet.SetRates(r)
	return p.sheet.Summary(), nil
}

// RequestSubmission issues a passcode to the contractor's email and moves
// Step2 to AwaitingOTP. The final amount must be a positive finite number.
func (p *Proposal) RequestSubmission(ctx context.Context) (otp.View, error) {
	if err := p.lockIn(StepPricing); err != nil {
		return otp.View{}, err
	}
	if math.IsNaN(p.final) || math.IsInf(p.final, 0) || p.final <= 0 {
		err := p.guardFailed("final_amount", fmt.Errorf("%w: final amount must be greater than zero", ErrValidation))
		p.mu.Unlock()
		return otp.View{}, err
	}
	p.busy = true
	destination := p.contractor.Email
	p.mu.Unlock()

	s, err := p.gate.Issue(ctx, p.id, destination)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false
	if err != nil {
		p.log.Error().Err(err).Msg("failed to issue otp")
		return otp.View{}, fmt.Errorf("issue otp: %w", err)
	}
	p.moveTo(AwaitingOTP)
	return s.ViewAt(p.now()), nil
}

// ResendOTP replaces the passcode with a fresh one and a full countdown.
// When the session is gone, because it aged out of the store or a failed
// send dropped it, a new one is issued to the contractor's email.
func (p *Proposal) ResendOTP(ctx context.Context) (otp.View, error) {
	if err := p.lockIn(AwaitingOTP); err != nil {
		return otp.View{}, err
	}
	p.busy = true
	destination := p.contractor.Email
	p.mu.Unlock()

	s, err := p.gate.Resend(ctx, p.id)
	if errors.Is(err, otp.ErrNoSession) {
		p.log.Debug().Msg("otp session missing, issuing a new one")
		s, err = p.gate.Issue(ctx, p.id, destination)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false
	if err != nil {
		return otp.View{}, err
	}
	return s.ViewAt(p.now()), nil
}

// CancelOTP discards the passcode and returns to Step2 with pricing intact.
func (p *Proposal) CancelOTP(ctx context.Context) error {
	if err := p.lockIn(AwaitingOTP); err != nil {
		return err
	}
	p.busy = true
	p.mu.Unlock()

	err := p.gate.Discard(ctx, p.id)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.busy = false
	if err != nil {
		return fmt.Errorf("discard otp: %w", err)
	}
	p.moveTo(StepPricing)
	return nil
}

// VerifyOTP checks the passcode. On success the proposal is frozen,
// timestamped and handed to the deliverer; it stays Submitted even when
// delivery fails, in which case the error wraps ErrDeliveryFailed.
func (p *Proposal) VerifyOTP(ctx context.Context, code string) (models.ContractorProposal, error) {
	if err := p.lockIn(AwaitingOTP); err != nil {
		return models.ContractorProposal{}, err
	}
	p.busy = true
	p.mu.Unlock()

	_, err := p.gate.Verify(ctx, p.id, strings.TrimSpace(code))

	p.mu.Lock()
	if err != nil {
		p.busy = false
		p.observer.OTPVerified(otpOutcome(err))
		p.mu.Unlock()
		if errors.Is(err, otp.ErrMalformedCode) {
			return models.ContractorProposal{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return models.ContractorProposal{}, err
	}
	p.observer.OTPVerified("verified")

	frozen := p.freeze()
	p.submitted = &frozen
	p.moveTo(Submitted)
	p.mu.Unlock()

	if err := p.gate.Discard(ctx, p.id); err != nil {
		p.log.Warn().Err(err).Msg("failed to discard verified otp session")
	}
	derr := p.deliver(ctx, frozen)

	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
	return frozen, derr
}

// Redeliver hands the submitted proposal to the deliverer again.
func (p *Proposal) Redeliver(ctx context.Context) (models.ContractorProposal, error) {
	if err := p.lockIn(Submitted); err != nil {
		return models.ContractorProposal{}, err
	}
	p.busy = true
	frozen := *p.submitted
	p.mu.Unlock()

	err := p.deliver(ctx, frozen)

	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
	return frozen, err
}

func (p *Proposal) deliver(ctx context.Context, frozen models.ContractorProposal) error {
	if p.deliverer == nil {
		p.observer.Delivered(true)
		return nil
	}
	if err := p.deliverer.Deliver(ctx, frozen); err != nil {
		p.observer.Delivered(false)
		p.log.Error().Err(err).Msg("failed to deliver proposal")
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	p.observer.Delivered(true)
	p.log.Info().Float64("final_amount", frozen.FinalAmount).Msg("proposal delivered")
	return nil
}

// freeze assembles the submitted proposal. Caller holds p.mu.
func (p *Proposal) freeze() models.ContractorProposal {
	summary := p.sheet.Summary()
	return models.ContractorProposal{
		ID:          p.id,
		RFB:         p.rfb,
		Contractor:  p.contractor,
		Categories:  p.comments.Specs(),
		LineItems:   p.sheet.Items(),
		Summary:     summary,
		FinalAmount: summary.FinalAmount,
		SubmittedAt: p.now(),
	}
}

func otpOutcome(err error) string {
	switch {
	case errors.Is(err, otp.ErrMismatch):
		return "mismatch"
	case errors.Is(err, otp.ErrExpired):
		return "expired"
	case errors.Is(err, otp.ErrMalformedCode):
		return "malformed"
	case errors.Is(err, otp.ErrAlreadyVerified):
		return "already_verified"
	default:
		return "error"
	}
}

func validateIdentity(c models.ContractorIdentity) error {
	trimmed := models.ContractorIdentity{
		CompanyName: strings.TrimSpace(c.CompanyName),
		ContactName: strings.TrimSpace(c.ContactName),
		Email:       strings.TrimSpace(c.Email),
		Phone:       c.Phone,
	}
	if err := identityValidator.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
