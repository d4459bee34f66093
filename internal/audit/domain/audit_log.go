package domain

import "time"

// AuditLog is one OTP lifecycle event (stored in otp_audit_logs). It never carries the code.
type AuditLog struct {
	ID          string
	Recipient   string
	ChallengeID string
	Action      string
	Outcome     string
	IP          string
	Metadata    string
	CreatedAt   time.Time
}
