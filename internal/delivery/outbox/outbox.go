// Package outbox provides an in-memory Delivery that keeps the last OTP email per recipient,
// used only when DELIVERY_MODE=outbox (GET /dev/otp).
package outbox

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Message is a captured email.
type Message struct {
	Subject   string
	Body      string
	ExpiresAt time.Time
}

// Store holds the last message per recipient for dev-only retrieval. Not used in production.
type Store struct {
	mu   sync.RWMutex
	m    map[string]Message
	ttl  time.Duration
	nowF func() time.Time
}

// New returns an outbox whose messages expire after ttl (the OTP validity window).
func New(ttl time.Duration) *Store {
	return &Store{
		m:    make(map[string]Message),
		ttl:  ttl,
		nowF: time.Now,
	}
}

// Send records the message for recipient, replacing any earlier one. Never fails.
func (s *Store) Send(ctx context.Context, recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key(recipient)] = Message{Subject: subject, Body: body, ExpiresAt: s.nowF().Add(s.ttl)}
	return nil
}

// Get returns the last message for recipient if present and not expired.
func (s *Store) Get(ctx context.Context, recipient string) (Message, bool) {
	k := key(recipient)
	s.mu.RLock()
	msg, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return Message{}, false
	}
	if !msg.ExpiresAt.After(s.nowF()) {
		s.mu.Lock()
		delete(s.m, k)
		s.mu.Unlock()
		return Message{}, false
	}
	return msg, true
}

func key(recipient string) string {
	return strings.ToLower(strings.TrimSpace(recipient))
}
