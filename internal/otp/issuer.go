package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zero-trust-otp/backend/internal/otp/domain"
)

// ErrDelivery is matched by every *DeliveryError via errors.Is.
var ErrDelivery = errors.New("otp delivery failed")

// DeliveryError reports that the delivery collaborator could not hand off the code.
// No challenge exists when Issue returns it; the caller must not treat the code as sent.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("otp: deliver to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDelivery) true for any DeliveryError.
func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// Delivery transmits a message to a recipient address (SMTP, HTTP email API, ...).
// Send blocks until the hand-off succeeds or fails. Retries, if any, are its own concern.
type Delivery interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// IssuerConfig holds the message settings for an Issuer.
type IssuerConfig struct {
	// Window is quoted in the message body; defaults to DefaultValidityWindow.
	Window    time.Duration
	Subject   string
	Signature string
}

// IssuerOption customizes an Issuer.
type IssuerOption func(*Issuer)

// WithGenerator replaces the code source (default GenerateCode).
func WithGenerator(fn func() (domain.Code, error)) IssuerOption {
	return func(i *Issuer) { i.generate = fn }
}

// WithIssuerClock replaces the clock used to stamp IssuedAt (default time.Now, which keeps the monotonic reading).
func WithIssuerClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) { i.nowF = fn }
}

// Issuer generates codes and hands them to a Delivery.
type Issuer struct {
	delivery Delivery
	cfg      IssuerConfig
	generate func() (domain.Code, error)
	nowF     func() time.Time
}

// NewIssuer returns an Issuer that sends through delivery.
func NewIssuer(delivery Delivery, cfg IssuerConfig, opts ...IssuerOption) *Issuer {
	if cfg.Window <= 0 {
		cfg.Window = DefaultValidityWindow
	}
	i := &Issuer{
		delivery: delivery,
		cfg:      cfg,
		generate: GenerateCode,
		nowF:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Generate returns a fresh code.
func (i *Issuer) Generate() (domain.Code, error) {
	return i.generate()
}

// Issue sends code to recipient and, only when the hand-off succeeds, returns a pending
// challenge stamped with the current time. A failed hand-off yields *DeliveryError and no challenge.
func (i *Issuer) Issue(ctx context.Context, recipient string, code domain.Code) (*domain.Challenge, error) {
	if i.delivery == nil {
		return nil, &DeliveryError{Recipient: recipient, Err: errors.New("no delivery configured")}
	}
	msg := ComposeMessage(code, i.cfg.Window, i.cfg.Subject, i.cfg.Signature)
	if err := i.delivery.Send(ctx, recipient, msg.Subject, msg.Body); err != nil {
		return nil, &DeliveryError{Recipient: recipient, Err: err}
	}
	return domain.NewChallenge(recipient, code, i.nowF()), nil
}
