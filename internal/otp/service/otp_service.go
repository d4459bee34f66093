package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"zero-trust-otp/backend/internal/audit"
	"zero-trust-otp/backend/internal/otp"
	"zero-trust-otp/backend/internal/otp/domain"
	"zero-trust-otp/backend/internal/otp/repository"
)

// ErrInvalidRecipient is returned when the recipient is not a valid email address. Handler maps it to 400.
var ErrInvalidRecipient = errors.New("invalid recipient email")

const tracerName = "zero-trust-otp/backend/otp/service"

var validate = validator.New()

// IssueResult describes a challenge that was delivered and stored. It never carries the code.
type IssueResult struct {
	ChallengeID string
	Recipient   string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// MetricsRecorder counts OTP lifecycle events.
type MetricsRecorder interface {
	Issued(ctx context.Context, mode string)
	DeliveryFailed(ctx context.Context, mode string)
	Verified(ctx context.Context, outcome, reason string)
}

// Option customizes an OTPService.
type Option func(*OTPService)

// WithAuditLogger records every outcome through a.
func WithAuditLogger(a audit.AuditLogger) Option {
	return func(s *OTPService) { s.audit = a }
}

// WithMetrics counts outcomes through m, labelling deliveries with mode (smtp, webhook, outbox).
func WithMetrics(m MetricsRecorder, mode string) Option {
	return func(s *OTPService) {
		s.metrics = m
		s.mode = mode
	}
}

// WithClock replaces the clock used to judge expiry (default time.Now, which keeps the monotonic reading).
func WithClock(fn func() time.Time) Option {
	return func(s *OTPService) { s.nowF = fn }
}

// OTPService runs the keyed request/verify flow: one outstanding challenge per recipient.
type OTPService struct {
	issuer   *otp.Issuer
	verifier *otp.Verifier
	repo     repository.Repository
	audit    audit.AuditLogger
	metrics  MetricsRecorder
	mode     string
	tracer   trace.Tracer
	nowF     func() time.Time
}

// NewOTPService returns an OTPService over the given issuer, verifier and challenge repository.
func NewOTPService(issuer *otp.Issuer, verifier *otp.Verifier, repo repository.Repository, opts ...Option) *OTPService {
	s := &OTPService{
		issuer:   issuer,
		verifier: verifier,
		repo:     repo,
		tracer:   otel.Tracer(tracerName),
		nowF:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the validity window applied by Verify.
func (s *OTPService) Window() time.Duration {
	return s.verifier.Window()
}

// Request generates a code, delivers it to recipient, and stores the resulting challenge,
// superseding any outstanding one. On delivery failure the error wraps otp.ErrDelivery and
// nothing is stored, so an earlier challenge stays valid.
func (s *OTPService) Request(ctx context.Context, recipient string) (*IssueResult, error) {
	ctx, span := s.tracer.Start(ctx, "OTPService.Request")
	defer span.End()

	recipient, err := normalizeRecipient(recipient)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	code, err := s.issuer.Generate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate code")
		return nil, fmt.Errorf("generate code: %w", err)
	}

	challenge, err := s.issuer.Issue(ctx, recipient, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		slog.ErrorContext(ctx, "otp: delivery failed", "recipient", recipient, "mode", s.mode, "error", err)
		s.recordDeliveryFailed(ctx)
		s.logAudit(ctx, recipient, "", audit.ActionDeliveryFailed, "failed", "")
		return nil, err
	}

	if err := s.repo.Put(ctx, recipient, challenge); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store challenge")
		return nil, fmt.Errorf("store challenge: %w", err)
	}

	span.SetAttributes(attribute.String("otp.challenge_id", challenge.ID))
	slog.InfoContext(ctx, "otp: issued", "recipient", recipient, "challenge_id", challenge.ID, "mode", s.mode)
	s.recordIssued(ctx)
	s.logAudit(ctx, recipient, challenge.ID, audit.ActionIssued, "ok", "")

	return &IssueResult{
		ChallengeID: challenge.ID,
		Recipient:   recipient,
		IssuedAt:    challenge.IssuedAt.UTC(),
		ExpiresAt:   challenge.ExpiresAt(s.verifier.Window()).UTC(),
	}, nil
}

// Verify checks candidate against the outstanding challenge for recipient and consumes it
// when accepted or expired. A recipient without a challenge is rejected as a mismatch.
// The returned error is non-nil only for an invalid address or a repository failure.
func (s *OTPService) Verify(ctx context.Context, recipient, candidate string) (domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, "OTPService.Verify")
	defer span.End()

	recipient, err := normalizeRecipient(recipient)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Rejected(domain.ReasonMismatch), err
	}

	var (
		result      domain.Result
		challengeID string
	)
	err = s.repo.Update(ctx, recipient, func(c *domain.Challenge) error {
		challengeID = c.ID
		result = s.verifier.Verify(candidate, c, s.nowF())
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		result = domain.Rejected(domain.ReasonMismatch)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify")
		return domain.Rejected(domain.ReasonMismatch), fmt.Errorf("verify challenge: %w", err)
	}

	span.SetAttributes(
		attribute.String("otp.outcome", result.Outcome()),
		attribute.String("otp.reason", string(result.Reason)),
	)
	if result.Accepted {
		slog.InfoContext(ctx, "otp: verified", "recipient", recipient, "challenge_id", challengeID)
		s.logAudit(ctx, recipient, challengeID, audit.ActionVerified, result.Outcome(), "")
	} else {
		slog.WarnContext(ctx, "otp: rejected", "recipient", recipient, "challenge_id", challengeID, "reason", result.Reason)
		s.logAudit(ctx, recipient, challengeID, audit.ActionRejected, string(result.Reason), "")
	}
	if s.metrics != nil {
		s.metrics.Verified(ctx, result.Outcome(), string(result.Reason))
	}
	return result, nil
}

func (s *OTPService) recordIssued(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.Issued(ctx, s.mode)
	}
}

func (s *OTPService) recordDeliveryFailed(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.DeliveryFailed(ctx, s.mode)
	}
}

func (s *OTPService) logAudit(ctx context.Context, recipient, challengeID, action, outcome, metadata string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, recipient, challengeID, action, outcome, metadata)
	}
}

func normalizeRecipient(recipient string) (string, error) {
	recipient = strings.ToLower(strings.TrimSpace(recipient))
	if err := validate.Var(recipient, "required,email"); err != nil {
		return "", ErrInvalidRecipient
	}
	return recipient, nil
}
