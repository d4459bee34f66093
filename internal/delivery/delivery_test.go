package delivery

import (
	"context"
	"errors"
	"testing"

	"zero-trust-otp/backend/internal/config"
	"zero-trust-otp/backend/internal/delivery/smtp"
	"zero-trust-otp/backend/internal/delivery/webhook"
)

func TestNew_SMTP(t *testing.T) {
	cfg := &config.Config{
		DeliveryMode: config.DeliverySMTP,
		SMTPHost:     "smtp.example.com",
		SMTPPort:     465,
		SMTPUsername: "user",
		SMTPPassword: "pass",
		SMTPFrom:     "sender@example.com",
	}
	d, ob, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := d.(*smtp.Sender); !ok {
		t.Errorf("delivery = %T, want *smtp.Sender", d)
	}
	if ob != nil {
		t.Error("outbox should be nil in smtp mode")
	}
}

func TestNew_SMTPMissingSender(t *testing.T) {
	cfg := &config.Config{DeliveryMode: config.DeliverySMTP, SMTPHost: "smtp.example.com", SMTPPort: 465}
	if _, _, err := New(cfg); !errors.Is(err, smtp.ErrNoSender) {
		t.Errorf("err = %v, want ErrNoSender", err)
	}
}

func TestNew_Webhook(t *testing.T) {
	cfg := &config.Config{DeliveryMode: config.DeliveryWebhook, WebhookURL: "https://mail.example.com/send"}
	d, ob, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c, ok := d.(*webhook.Client)
	if !ok {
		t.Fatalf("delivery = %T, want *webhook.Client", d)
	}
	if c.URL != cfg.WebhookURL {
		t.Errorf("URL = %q, want %q", c.URL, cfg.WebhookURL)
	}
	if ob != nil {
		t.Error("outbox should be nil in webhook mode")
	}
}

func TestNew_OutboxReturnsStore(t *testing.T) {
	cfg := &config.Config{DeliveryMode: config.DeliveryOutbox}
	d, ob, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ob == nil {
		t.Fatal("outbox store should be returned in outbox mode")
	}
	if err := d.Send(context.Background(), "user@example.com", "Your OTP Code", "body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg, ok := ob.Get(context.Background(), "user@example.com")
	if !ok || msg.Body != "body" {
		t.Errorf("Get = %+v, %v; want the sent message", msg, ok)
	}
}

func TestNew_UnknownMode(t *testing.T) {
	if _, _, err := New(&config.Config{DeliveryMode: "fax"}); err == nil {
		t.Fatal("New should fail for an unknown mode")
	}
}
