// Package delivery selects the OTP delivery collaborator for the configured DELIVERY_MODE.
package delivery

import (
	"fmt"

	"zero-trust-otp/backend/internal/config"
	"zero-trust-otp/backend/internal/delivery/outbox"
	"zero-trust-otp/backend/internal/delivery/smtp"
	"zero-trust-otp/backend/internal/delivery/webhook"
	"zero-trust-otp/backend/internal/otp"
)

// DefaultSenderName is the display name on outgoing OTP mail.
const DefaultSenderName = "Security Team"

// New builds the delivery for cfg.DeliveryMode. In outbox mode the store is also returned so callers
// can read delivered messages back; it is nil in every other mode.
func New(cfg *config.Config) (otp.Delivery, *outbox.Store, error) {
	switch cfg.DeliveryMode {
	case config.DeliverySMTP:
		sender, err := smtp.New(smtp.Config{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.SMTPFrom,
			SenderName: DefaultSenderName,
			MaxRetries: cfg.SMTPMaxRetries,
			Backoff:    cfg.RetryBackoff(),
		})
		if err != nil {
			return nil, nil, err
		}
		return sender, nil, nil
	case config.DeliveryWebhook:
		return webhook.NewClient(cfg.WebhookURL, cfg.WebhookAPIKey), nil, nil
	case config.DeliveryOutbox:
		ob := outbox.New(cfg.ValidityWindow())
		return ob, ob, nil
	default:
		return nil, nil, fmt.Errorf("delivery: unknown mode %q", cfg.DeliveryMode)
	}
}
