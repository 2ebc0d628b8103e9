package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
)

// CodeGenerator produces the passcode for a new session.
type CodeGenerator interface {
	Generate() (string, error)
}

// FixedCode always hands out the same code. It stands in for a real
// delivery channel during development and demos.
type FixedCode string

func (c FixedCode) Generate() (string, error) {
	if !wellFormed(string(c)) {
		return "", fmt.Errorf("fixed code: %w", ErrMalformedCode)
	}
	return string(c), nil
}

// RandomCode draws uniformly from 000000-999999.
type RandomCode struct{}

var codeSpace = big.NewInt(1_000_000)

func (RandomCode) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Sender transmits a code to its destination.
type Sender interface {
	Send(ctx context.Context, destination, code string) error
}

// LogSender writes the issuance to the log instead of delivering it.
// The code itself is only logged when RevealCode is set.
type LogSender struct {
	Log        zerolog.Logger
	RevealCode bool
}

func (s LogSender) Send(_ context.Context, destination, code string) error {
	ev := s.Log.Info().Str("destination", destination)
	if s.RevealCode {
		ev = ev.Str("code", code)
	}
	ev.Msg("otp issued")
	return nil
}
