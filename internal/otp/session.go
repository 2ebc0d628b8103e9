// Package otp issues and verifies short-lived six digit passcodes that guard
// a single action. A session is single-use: once verified it cannot be
// verified again, and once expired it can only be replaced by a resend.
package otp

import (
	"errors"
	"fmt"
	"time"
)

const (
	CodeLength = 6
	DefaultTTL = 300 * time.Second
)

var (
	ErrMalformedCode   = errors.New("code must be exactly 6 digits")
	ErrMismatch        = errors.New("invalid code")
	ErrExpired         = errors.New("code has expired, request a new one")
	ErrAlreadyVerified = errors.New("code has already been used")
	ErrNoSession       = errors.New("no code has been issued")
)

type State string

const (
	StateIssued   State = "issued"
	StateVerified State = "verified"
	StateExpired  State = "expired"
)

type Session struct {
	Code        string    `json:"code"`
	Destination string    `json:"destination"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	State       State     `json:"state"`
	Attempts    int       `json:"attempts"`
	VerifiedAt  time.Time `json:"verifiedAt,omitempty"`
}

// Expired reports whether the countdown has reached zero at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Remaining is the countdown value at now, never negative.
func (s Session) Remaining(now time.Time) time.Duration {
	if s.Expired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// View is what callers may see of a session. It never carries the code.
type View struct {
	Destination      string    `json:"destination"`
	State            State     `json:"state"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RemainingSeconds int       `json:"remainingSeconds"`
	Countdown        string    `json:"countdown"`
	Attempts         int       `json:"attempts"`
}

// ViewAt projects the session at now, reporting an elapsed issued session as expired.
func (s Session) ViewAt(now time.Time) View {
	state := s.State
	if state == StateIssued && s.Expired(now) {
		state = StateExpired
	}
	rem := s.Remaining(now)
	return View{
		Destination:      s.Destination,
		State:            state,
		ExpiresAt:        s.ExpiresAt,
		RemainingSeconds: int(rem.Round(time.Second) / time.Second),
		Countdown:        FormatCountdown(rem),
		Attempts:         s.Attempts,
	}
}

// FormatCountdown renders d as m:ss, rounding partial seconds up.
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func wellFormed(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
