package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"rfbmarket/db"
	"rfbmarket/internal/otp"
	"rfbmarket/internal/pricing"
	"rfbmarket/models"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// failingSender fails the next n sends.
type failingSender struct{ n int }

func (f *failingSender) Send(context.Context, string, string) error {
	if f.n > 0 {
		f.n--
		return errors.New("smtp unavailable")
	}
	return nil
}

type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []models.ContractorProposal
	err       error
}

func (f *fakeDeliverer) Deliver(_ context.Context, p models.ContractorProposal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, p)
	return nil
}

type countingObserver struct {
	transitions []string
	guards      []string
	otp         []string
}

func (o *countingObserver) Transition(from, to State) {
	o.transitions = append(o.transitions, string(from)+">"+string(to))
}
func (o *countingObserver) GuardFailed(_ State, guard string) { o.guards = append(o.guards, guard) }
func (o *countingObserver) OTPVerified(result string)         { o.otp = append(o.otp, result) }
func (o *countingObserver) Delivered(bool)                    {}

type fixture struct {
	clock     *clock
	deliverer *fakeDeliverer
	observer  *countingObserver
	sender    *failingSender
	gate      *otp.Gate
	deps      Deps
}

func newFixture() *fixture {
	c := &clock{t: time.Date(2024, 7, 10, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		clock:     c,
		deliverer: &fakeDeliverer{},
		observer:  &countingObserver{},
		sender:    &failingSender{},
	}
	store := otp.NewMemoryStore(otp.StoreClock(c.Now))
	f.gate = otp.NewGate(store, otp.FixedCode("123456"), f.sender, otp.DefaultTTL, otp.WithClock(c.Now))
	f.deps = Deps{
		Gate:      f.gate,
		Deliverer: f.deliverer,
		Rates:     pricing.DefaultRates(),
		Log:       zerolog.Nop(),
		Observer:  f.observer,
		Now:       c.Now,
	}
	return f
}

func openRFB() models.RFBRecord {
	return models.RFBRecord{
		ID:          "1",
		ProjectName: "Modern Villa Construction",
		Status:      models.RFBOpen,
		BidDeadline: time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
	}
}

var identity = models.ContractorIdentity{
	CompanyName: "Sharma Builders",
	ContactName: "Anil Sharma",
	Email:       "anil@sharmabuilders.example",
}

func priced(t *testing.T, p *Proposal) {
	t.Helper()
	require.NoError(t, p.SetContractor(identity))
	require.NoError(t, p.Next())
	items, _ := p.Items()
	_, err := p.UpdateItem(items[0].ID, pricing.FieldUnitRate, "500")
	require.NoError(t, err)
	_, err = p.UpdateItem(items[0].ID, pricing.FieldQuantity, "10")
	require.NoError(t, err)
}

func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := New("p1", openRFB(), f.deps)
	require.Equal(t, StepDetails, p.State())

	require.NoError(t, p.SetCategoryComment("civil", "M20 throughout"))
	priced(t, p)
	require.Equal(t, 5900.0, p.FinalAmount())

	view, err := p.RequestSubmission(ctx)
	require.NoError(t, err)
	require.Equal(t, AwaitingOTP, p.State())
	require.Equal(t, "5:00", view.Countdown)

	f.clock.Advance(10 * time.Second)
	_, err = p.VerifyOTP(ctx, "654321")
	require.True(t, errors.Is(err, otp.ErrMismatch))
	require.Equal(t, AwaitingOTP, p.State())

	f.clock.Advance(10 * time.Second)
	got, err := p.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, Submitted, p.State())
	require.Equal(t, 5900.0, got.FinalAmount)
	require.Equal(t, f.clock.Now(), got.SubmittedAt)
	require.Equal(t, "M20 throughout", got.Categories[0].ContractorComment)
	require.Len(t, got.Categories, 6)
	require.Len(t, f.deliverer.delivered, 1)

	_, err = f.gate.Lookup(ctx, "p1")
	require.True(t, errors.Is(err, otp.ErrNoSession))

	require.Equal(t, []string{"mismatch", "verified"}, f.observer.otp)
	require.Equal(t, []string{
		"Step1_Details>Step2_Pricing",
		"Step2_Pricing>AwaitingOTP",
		"AwaitingOTP>Submitted",
	}, f.observer.transitions)

	_, err = p.VerifyOTP(ctx, "123456")
	require.True(t, errors.Is(err, ErrWrongState))
	require.True(t, errors.Is(p.Back(), ErrWrongState))
}

func TestIdentityGuard(t *testing.T) {
	cases := []models.ContractorIdentity{
		{ContactName: "a", Email: "b"},
		{CompanyName: "a", Email: "b"},
		{CompanyName: "a", ContactName: "b"},
		{CompanyName: "  ", ContactName: "b", Email: "c"},
	}
	for _, c := range cases {
		f := newFixture()
		p := New("p1", openRFB(), f.deps)
		require.NoError(t, p.SetContractor(c))
		err := p.Next()
		require.True(t, errors.Is(err, ErrValidation))
		require.Equal(t, StepDetails, p.State())
		require.Equal(t, []string{"contractor_identity"}, f.observer.guards)
	}
}

func TestPhoneIsOptional(t *testing.T) {
	p := New("p1", openRFB(), newFixture().deps)
	require.NoError(t, p.SetContractor(identity))
	require.NoError(t, p.Next())
}

func TestZeroAmountGuard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := New("p1", openRFB(), f.deps)
	require.NoError(t, p.SetContractor(identity))
	require.NoError(t, p.Next())

	_, err := p.RequestSubmission(ctx)
	require.True(t, errors.Is(err, ErrValidation))
	require.Equal(t, StepPricing, p.State())

	_, err = f.gate.Lookup(ctx, "p1")
	require.True(t, errors.Is(err, otp.ErrNoSession))
}

func TestOverflowingAmountIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := New("p1", openRFB(), f.deps)
	require.NoError(t, p.SetContractor(identity))
	require.NoError(t, p.Next())
	items, _ := p.Items()
	_, err := p.UpdateItem(items[0].ID, pricing.FieldUnitRate, "1e200")
	require.NoError(t, err)
	_, err = p.UpdateItem(items[0].ID, pricing.FieldQuantity, "1e200")
	require.NoError(t, err)
	_, err = p.SetRates(pricing.Rates{CGST: 9, SGST: 9, Discount: 0})
	require.NoError(t, err)

	_, err = p.RequestSubmission(ctx)
	require.True(t, errors.Is(err, ErrValidation))
	require.Equal(t, StepPricing, p.State())
	require.Contains(t, f.observer.guards, "final_amount")
}

func TestStepGating(t *testing.T) {
	ctx := context.Background()
	p := New("p1", openRFB(), newFixture().deps)

	_, err := p.AddItem()
	require.True(t, errors.Is(err, ErrWrongState))
	_, err = p.SetRates(pricing.DefaultRates())
	require.True(t, errors.Is(err, ErrWrongState))
	_, err = p.RequestSubmission(ctx)
	require.True(t, errors.Is(err, ErrWrongState))
	_, err = p.VerifyOTP(ctx, "123456")
	require.True(t, errors.Is(err, ErrWrongState))
	require.True(t, errors.Is(p.Back(), ErrWrongState))

	priced(t, p)
	require.True(t, errors.Is(p.SetCategoryComment("civil", "late"), ErrWrongState))
	require.True(t, errors.Is(p.SetContractor(identity), ErrWrongState))
	require.True(t, errors.Is(p.Next(), ErrWrongState))
	require.True(t, errors.Is(p.CancelOTP(ctx), ErrWrongState))
}

func TestBackKeepsData(t *testing.T) {
	p := New("p1", openRFB(), newFixture().deps)
	require.NoError(t, p.SetCategoryComment("plumbing", "CPVC only"))
	priced(t, p)
	_, err := p.AddItem()
	require.NoError(t, err)

	require.NoError(t, p.Back())
	require.Equal(t, StepDetails, p.State())
	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, identity, snap.Contractor)
	require.Len(t, snap.LineItems, 2)
	require.Equal(t, "CPVC only", snap.Categories[3].ContractorComment)

	require.NoError(t, p.Next())
	require.Equal(t, 5900.0, p.FinalAmount())
}

func TestCancelOTPKeepsPricing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := New("p1", openRFB(), f.deps)
	priced(t, p)
	_, err := p.RequestSubmission(ctx)
	require.NoError(t, err)

	require.NoError(t, p.CancelOTP(ctx))
	require.Equal(t, StepPricing, p.State())
	require.Equal(t, 5900.0, p.FinalAmount())
	_, err = f.gate.Lookup(ctx, "p1")
	require.True(t, errors.Is(err, otp.ErrNoSession))

	_, err = p.RequestSubmission(ctx)
	require.NoError(t, err)
	_, err = p.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
}

func TestExpiredOTPNeedsResend(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := New("p1", openRFB(), f.deps)
	priced(t, p)
	_, err := p.RequestSubmission(ctx)
	require.NoError(t, err)

	f.clock.Advance(otp.DefaultTTL)
	snap, err := p.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, otp.StateExpired, snap.OTP.State)

	_, err = p.VerifyOTP(ctx, "123456")
	require.True(t, errors.Is(err, otp.ErrExpired))
	require.Equal(t, AwaitingOTP, p.State())

	view, err := p.ResendOTP(ctx)
	require.NoError(t, err)
	require.Equal(t, "5:00", view.Countdown)
	_, err = p.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
}

func TestResendAfterSessionAgedOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := New("p1", openRFB(), f.deps)
	priced(t, p)
	_, err := p.RequestSubmission(ctx)
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)
	_, err = f.gate.Lookup(ctx, "p1")
	require.True(t, errors.Is(err, otp.ErrNoSession))

	view, err := p.ResendOTP(ctx)
	require.NoError(t, err)
	require.Equal(t, "5:00", view.Countdown)
	_, err = p.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
	require.Equal(t, Submitted, p.State())
	require.Equal(t, identity.Email, f.deliverer.delivered[0].Contractor.Email)
}

func TestResendAfterFailedSend(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := New("p1", openRFB(), f.deps)
	priced(t, p)
	_, err := p.RequestSubmission(ctx)
	require.NoError(t, err)

	f.sender.n = 1
	_, err = p.ResendOTP(ctx)
	require.Error(t, err)
	require.Equal(t, AwaitingOTP, p.State())

	_, err = p.ResendOTP(ctx)
	require.NoError(t, err)
	s, err := f.gate.Lookup(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, identity.Email, s.Destination)
	_, err = p.VerifyOTP(ctx, "123456")
	require.NoError(t, err)
}

func TestMalformedCodeIsValidation(t *testing.T) {
	ctx := context.Background()
	p := New("p1", openRFB(), newFixture().deps)
	priced(t, p)
	_, err := p.RequestSubmission(ctx)
	require.NoError(t, err)

	_, err = p.VerifyOTP(ctx, "12345")
	require.True(t, errors.Is(err, ErrValidation))
	require.True(t, errors.Is(err, otp.ErrMalformedCode))
	require.Equal(t, AwaitingOTP, p.State())
}

func TestDeliveryFailureStillSubmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.deliverer.err = errors.New("broker unreachable")
	p := New("p1", openRFB(), f.deps)
	priced(t, p)
	_, err := p.RequestSubmission(ctx)
	require.NoError(t, err)

	got, err := p.VerifyOTP(ctx, "123456")
	require.True(t, errors.Is(err, ErrDeliveryFailed))
	require.Equal(t, Submitted, p.State())
	require.Equal(t, "p1", got.ID)

	f.deliverer.err = nil
	again, err := p.Redeliver(ctx)
	require.NoError(t, err)
	require.Equal(t, got.SubmittedAt, again.SubmittedAt)
	require.Len(t, f.deliverer.delivered, 1)
}

type blockingGate struct {
	Gate
	entered chan struct{}
	release chan struct{}
}

func (b *blockingGate) Verify(ctx context.Context, key, code string) (otp.Session, error) {
	close(b.entered)
	<-b.release
	return b.Gate.Verify(ctx, key, code)
}

func TestConcurrentCallsAreRejectedWhileBusy(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	bg := &blockingGate{Gate: f.gate, entered: make(chan struct{}), release: make(chan struct{})}
	f.deps.Gate = bg
	p := New("p1", openRFB(), f.deps)
	priced(t, p)
	_, err := p.RequestSubmission(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.VerifyOTP(ctx, "123456")
		done <- err
	}()
	<-bg.entered

	_, err = p.VerifyOTP(ctx, "123456")
	require.True(t, errors.Is(err, ErrBusy))
	require.True(t, errors.Is(p.CancelOTP(ctx), ErrBusy))
	_, err = p.ResendOTP(ctx)
	require.True(t, errors.Is(err, ErrBusy))

	close(bg.release)
	require.NoError(t, <-done)
	require.Equal(t, Submitted, p.State())
	require.Len(t, f.deliverer.delivered, 1)
}

func TestRegistry(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.deps)

	p, err := r.Open(openRFB())
	require.NoError(t, err)
	got, err := r.Get(p.ID())
	require.NoError(t, err)
	require.Same(t, p, got)
	require.Equal(t, 1, r.Len())

	_, err = r.Get("missing")
	require.True(t, errors.Is(err, ErrNotFound))

	closed := openRFB()
	closed.Status = models.RFBClosed
	_, err = r.Open(closed)
	require.True(t, errors.Is(err, ErrRFBClosed))

	lapsed := openRFB()
	lapsed.BidDeadline = f.clock.Now().AddDate(0, 0, -2)
	_, err = r.Open(lapsed)
	require.True(t, errors.Is(err, ErrRFBClosed))
}

func TestRegistrySweepDropsIdleProposals(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	r := NewRegistry(f.deps)

	stale, err := r.Open(openRFB())
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)
	active, err := r.Open(openRFB())
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	_, err = active.Snapshot(ctx)
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	require.Equal(t, 1, r.Sweep(time.Hour))
	require.Equal(t, 1, r.Len())

	_, err = r.Get(stale.ID())
	require.True(t, errors.Is(err, ErrNotFound))
	got, err := r.Get(active.ID())
	require.NoError(t, err)
	require.Same(t, active, got)

	require.Equal(t, 0, r.Sweep(time.Hour))
}

func TestSeededRecordsOpenToday(t *testing.T) {
	f := newFixture()
	f.deps.Now = time.Now
	r := NewRegistry(f.deps)

	opened := map[string]bool{}
	for _, record := range db.SeedRFBs(time.Now()) {
		_, err := r.Open(record)
		if err == nil {
			opened[record.ID] = true
			continue
		}
		require.True(t, errors.Is(err, ErrRFBClosed))
	}
	require.Equal(t, map[string]bool{"1": true, "2": true, "4": true}, opened)
}
