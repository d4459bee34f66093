package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Code is a 6-digit decimal one-time passcode (e.g. "123456").
type Code string

// String returns the code as a plain string.
func (c Code) String() string { return string(c) }

// Status is the lifecycle state of a Challenge.
type Status int

const (
	// StatusPending means the challenge may still be verified.
	StatusPending Status = iota
	// StatusConsumed means the challenge was accepted once or observed expired; it can never be accepted again.
	StatusConsumed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// Challenge is an issued code and the moment it was handed to delivery.
// The plain code is never kept; only its SHA-256 hash.
type Challenge struct {
	ID        string
	Recipient string
	CodeHash  string
	IssuedAt  time.Time
	Status    Status
}

// NewChallenge returns a pending challenge for code issued to recipient at issuedAt.
func NewChallenge(recipient string, code Code, issuedAt time.Time) *Challenge {
	return &Challenge{
		ID:        uuid.New().String(),
		Recipient: recipient,
		CodeHash:  HashCode(string(code)),
		IssuedAt:  issuedAt,
		Status:    StatusPending,
	}
}

// ExpiresAt returns the last instant at which the challenge can be accepted for the given window.
func (c *Challenge) ExpiresAt(window time.Duration) time.Time {
	return c.IssuedAt.Add(window)
}

// Consume marks the challenge as used.
func (c *Challenge) Consume() {
	c.Status = StatusConsumed
}

// Consumed reports whether the challenge can no longer be accepted.
func (c *Challenge) Consumed() bool {
	return c.Status == StatusConsumed
}

// HashCode returns the hex-encoded SHA-256 of code.
func HashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}
