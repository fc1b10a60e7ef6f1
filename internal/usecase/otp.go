package usecase

import (
	"crypto/subtle"
	"time"

	"gym-backoffice/pkg/utils"

	"github.com/jonboulle/clockwork"
)

// OTPEngine generates numeric login codes and checks them against a freshness window.
type OTPEngine struct {
	length int
	window time.Duration
	clock  clockwork.Clock
}

func NewOTPEngine(length int, window time.Duration, clock clockwork.Clock) *OTPEngine {
	return &OTPEngine{length: length, window: window, clock: clock}
}

func (e *OTPEngine) Generate() (string, error) {
	return utils.GenerateOTP(e.length)
}

func (e *OTPEngine) Window() time.Duration {
	return e.window
}

// NotBefore is the earliest issue time still inside the window.
func (e *OTPEngine) NotBefore() time.Time {
	return e.clock.Now().Add(-e.window)
}

// Validate checks expiry before comparing codes so a stale code is reported
// as expired even when it matches. A cleared code never matches.
func (e *OTPEngine) Validate(storedCode *string, storedIssuedAt *time.Time, presented string) error {
	if storedCode == nil || storedIssuedAt == nil {
		return ErrOTPMismatch
	}
	if e.clock.Since(*storedIssuedAt) > e.window {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(*storedCode), []byte(presented)) != 1 {
		return ErrOTPMismatch
	}
	return nil
}
