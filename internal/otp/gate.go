package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

// retention keeps finished sessions around long enough to answer
// "already used" and "expired" instead of "no session".
const retention = 10 * time.Minute

// Gate issues and checks one-time passcodes, one session per key.
type Gate struct {
	store  Store
	codes  CodeGenerator
	sender Sender
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate builds a gate. A non-positive ttl falls back to DefaultTTL.
func NewGate(store Store, codes CodeGenerator, sender Sender, ttl time.Duration, opts ...Option) *Gate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	g := &Gate{
		store:  store,
		codes:  codes,
		sender: sender,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Issue starts a fresh session for key, replacing any previous one, and
// sends the code to destination.
func (g *Gate) Issue(ctx context.Context, key, destination string) (Session, error) {
	code, err := g.codes.Generate()
	if err != nil {
		return Session{}, err
	}
	now := g.now()
	s := Session{
		Code:        code,
		Destination: destination,
		IssuedAt:    now,
		ExpiresAt:   now.Add(g.ttl),
		State:       StateIssued,
	}
	if err := g.store.Put(ctx, key, s, g.ttl+retention); err != nil {
		return Session{}, err
	}
	if err := g.sender.Send(ctx, destination, code); err != nil {
		_ = g.store.Delete(ctx, key)
		return Session{}, fmt.Errorf("send otp: %w", err)
	}
	return s, nil
}

// Verify checks code against the session for key. A mismatch leaves the
// session issued; an elapsed countdown marks it expired.
func (g *Gate) Verify(ctx context.Context, key, code string) (Session, error) {
	if !wellFormed(code) {
		return Session{}, ErrMalformedCode
	}
	s, err := g.store.Get(ctx, key)
	if err != nil {
		return Session{}, err
	}

	switch s.State {
	case StateVerified:
		return s, ErrAlreadyVerified
	case StateExpired:
		return s, ErrExpired
	}

	now := g.now()
	if s.Expired(now) {
		s.State = StateExpired
		if err := g.store.Put(ctx, key, s, retention); err != nil {
			return Session{}, err
		}
		return s, ErrExpired
	}

	s.Attempts++
	if subtle.ConstantTimeCompare([]byte(s.Code), []byte(code)) != 1 {
		if err := g.store.Put(ctx, key, s, s.ExpiresAt.Sub(now)+retention); err != nil {
			return Session{}, err
		}
		return s, ErrMismatch
	}

	s.State = StateVerified
	s.VerifiedAt = now
	if err := g.store.Put(ctx, key, s, retention); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Resend discards the session for key and issues a new code to the same
// destination with a full countdown.
func (g *Gate) Resend(ctx context.Context, key string) (Session, error) {
	s, err := g.store.Get(ctx, key)
	if err != nil {
		return Session{}, err
	}
	if s.State == StateVerified {
		return s, ErrAlreadyVerified
	}
	return g.Issue(ctx, key, s.Destination)
}

// Discard drops the session for key. Unknown keys are not an error.
func (g *Gate) Discard(ctx context.Context, key string) error {
	err := g.store.Delete(ctx, key)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	return err
}

// Lookup returns the stored session for key.
func (g *Gate) Lookup(ctx context.Context, key string) (Session, error) {
	return g.store.Get(ctx, key)
}
