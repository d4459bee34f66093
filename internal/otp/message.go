package otp

import (
	"fmt"
	"time"

	"zero-trust-otp/backend/internal/otp/domain"
)

const (
	DefaultSubject   = "Your OTP Code"
	DefaultSignature = "Your Security Team"
)

// Message is the subject and plain-text body handed to delivery.
type Message struct {
	Subject string
	Body    string
}

// ComposeMessage renders the email that carries code.
func ComposeMessage(code domain.Code, window time.Duration, subject, signature string) Message {
	if subject == "" {
		subject = DefaultSubject
	}
	if signature == "" {
		signature = DefaultSignature
	}
	body := fmt.Sprintf(
		"Dear User,\n\nYour OTP code for login is: %s\n\nThis code is valid for %s.\n\nBest regards,\n%s",
		code, humanDuration(window), signature,
	)
	return Message{Subject: subject, Body: body}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	case d%time.Second == 0:
		s := int(d / time.Second)
		if s == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", s)
	default:
		return d.String()
	}
}
