package otp

import (
	"time"

	"zero-trust-otp/backend/internal/otp/domain"
)

// Verifier decides whether a candidate code is accepted for a challenge.
type Verifier struct {
	window time.Duration
}

// NewVerifier returns a Verifier with the given validity window (DefaultValidityWindow if <= 0).
func NewVerifier(window time.Duration) *Verifier {
	if window <= 0 {
		window = DefaultValidityWindow
	}
	return &Verifier{window: window}
}

// Window returns the validity window.
func (v *Verifier) Window() time.Duration {
	return v.window
}

// Verify checks candidate against challenge at now.
//
// Expiry is evaluated first: elapsed > window rejects as expired whatever the candidate.
// elapsed == window is still accepted. On accept or on reported expiry the challenge
// is consumed; a consumed challenge is always rejected. Mismatches leave it pending.
// Verify mutates challenge, so callers sharing it must serialize access.
func (v *Verifier) Verify(candidate string, challenge *domain.Challenge, now time.Time) domain.Result {
	if challenge == nil {
		return domain.Rejected(domain.ReasonMismatch)
	}
	if challenge.Consumed() {
		return domain.Rejected(domain.ReasonConsumed)
	}
	if now.Sub(challenge.IssuedAt) > v.window {
		challenge.Consume()
		return domain.Rejected(domain.ReasonExpired)
	}
	if !CodeEqual(candidate, challenge.CodeHash) {
		return domain.Rejected(domain.ReasonMismatch)
	}
	challenge.Consume()
	return domain.Accepted()
}
