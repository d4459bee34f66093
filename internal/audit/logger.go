package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zero-trust-otp/backend/internal/audit/domain"
	auditrepo "zero-trust-otp/backend/internal/audit/repository"
)

// Actions recorded for the OTP lifecycle.
const (
	ActionIssued         = "otp_issued"
	ActionDeliveryFailed = "otp_delivery_failed"
	ActionVerified       = "otp_verified"
	ActionRejected       = "otp_rejected"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single OTP audit event. Used by the OTP service.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, recipient, challengeID, action, outcome, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	nowF        func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, nowF: time.Now}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, recipient, challengeID, action, outcome, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:          uuid.New().String(),
		Recipient:   recipient,
		ChallengeID: challengeID,
		Action:      action,
		Outcome:     outcome,
		IP:          ip,
		Metadata:    metadata,
		CreatedAt:   l.nowF().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "audit: failed to log event", "action", action, "recipient", recipient, "error", err)
	}
}
