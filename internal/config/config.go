// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Delivery modes.
const (
	DeliverySMTP    = "smtp"
	DeliveryWebhook = "webhook"
	DeliveryOutbox  = "outbox"
)

const defaultValidityWindow = 300 * time.Second

// Config holds application configuration loaded from the environment.
// Sender credentials live only here, injected at runtime; they are never compiled in.
type Config struct {
	// HTTPAddr is the address the HTTP API listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// CORSAllowedOrigins is a comma-separated list of browser origins allowed to call the API ("*" for any).
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// Env is the application environment (e.g. "development", "production"). Outbox delivery is refused in production.
	Env string `mapstructure:"APP_ENV"`

	// OTPValidityWindow is how long a code may be accepted after issuance (e.g. "300s").
	OTPValidityWindow string `mapstructure:"OTP_VALIDITY_WINDOW"`
	// OTPEmailSubject is the subject line of the OTP email.
	OTPEmailSubject string `mapstructure:"OTP_EMAIL_SUBJECT"`
	// OTPSignature closes the OTP email body.
	OTPSignature string `mapstructure:"OTP_SIGNATURE"`

	// DeliveryMode selects the delivery collaborator: smtp, webhook or outbox (dev only).
	DeliveryMode string `mapstructure:"DELIVERY_MODE"`

	// SMTPHost is the SMTP server host (default smtp.gmail.com).
	SMTPHost string `mapstructure:"SMTP_HOST"`
	// SMTPPort is the SMTP server port; 465 uses implicit TLS, other ports upgrade with STARTTLS when offered.
	SMTPPort int `mapstructure:"SMTP_PORT"`
	// SMTPUsername is the SMTP login. Required in smtp mode.
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	// SMTPPassword is the SMTP password or app password. Required in smtp mode.
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	// SMTPFrom is the sender address. Required in smtp mode.
	SMTPFrom string `mapstructure:"SMTP_FROM"`
	// SMTPMaxRetries bounds retries of transient SMTP failures.
	SMTPMaxRetries int `mapstructure:"SMTP_MAX_RETRIES"`
	// SMTPRetryBackoff is the base exponential backoff between SMTP retries (e.g. "500ms").
	SMTPRetryBackoff string `mapstructure:"SMTP_RETRY_BACKOFF"`

	// WebhookURL is the HTTP email API endpoint. Required in webhook mode.
	WebhookURL string `mapstructure:"WEBHOOK_URL"`
	// WebhookAPIKey is sent as the Authorization header.
	WebhookAPIKey string `mapstructure:"WEBHOOK_API_KEY"`

	// DatabaseURL is the Postgres DSN for the audit log; empty disables persisted audit.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// OTLPEndpoint is the OTLP gRPC collector (e.g. http://localhost:4317); empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported as service.name.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTP_VALIDITY_WINDOW", "300s")
	v.SetDefault("OTP_EMAIL_SUBJECT", "Your OTP Code")
	v.SetDefault("OTP_SIGNATURE", "Your Security Team")
	v.SetDefault("DELIVERY_MODE", DeliverySMTP)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("SMTP_MAX_RETRIES", 2)
	v.SetDefault("SMTP_RETRY_BACKOFF", "500ms")
	v.SetDefault("WEBHOOK_URL", "")
	v.SetDefault("WEBHOOK_API_KEY", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "zero-trust-otp")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.DeliveryMode = strings.ToLower(strings.TrimSpace(cfg.DeliveryMode))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	switch c.DeliveryMode {
	case DeliverySMTP:
		if c.SMTPHost == "" || c.SMTPPort <= 0 {
			return errors.New("config: SMTP_HOST and SMTP_PORT must be set when DELIVERY_MODE=smtp")
		}
		if c.SMTPUsername == "" || c.SMTPPassword == "" {
			return errors.New("config: SMTP_USERNAME and SMTP_PASSWORD must be set when DELIVERY_MODE=smtp")
		}
		if c.SMTPFrom == "" {
			return errors.New("config: SMTP_FROM must be set when DELIVERY_MODE=smtp")
		}
		if c.SMTPMaxRetries < 0 {
			return errors.New("config: SMTP_MAX_RETRIES must not be negative")
		}
	case DeliveryWebhook:
		if c.WebhookURL == "" {
			return errors.New("config: WEBHOOK_URL must be set when DELIVERY_MODE=webhook")
		}
	case DeliveryOutbox:
		if c.IsProduction() {
			return errors.New("config: DELIVERY_MODE=outbox must not be used when APP_ENV=production")
		}
	default:
		return errors.New("config: DELIVERY_MODE must be one of smtp, webhook, outbox")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AllowedOrigins splits CORSAllowedOrigins on commas, dropping empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ValidityWindow parses OTPValidityWindow as a time.Duration. Returns 300s if unset or invalid.
func (c *Config) ValidityWindow() time.Duration {
	d, err := time.ParseDuration(c.OTPValidityWindow)
	if err != nil || d <= 0 {
		return defaultValidityWindow
	}
	return d
}

// RetryBackoff parses SMTPRetryBackoff as a time.Duration. Returns 500ms if unset or invalid.
func (c *Config) RetryBackoff() time.Duration {
	d, err := time.ParseDuration(c.SMTPRetryBackoff)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
