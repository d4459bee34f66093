// Package smtp delivers OTP emails over SMTP with implicit TLS or STARTTLS.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	implicitTLSPort = 465
	defaultTimeout  = 15 * time.Second
	defaultBackoff  = 500 * time.Millisecond
	defaultName     = "Security Team"
)

var (
	// ErrHostPortRequired is returned when Host/Port are missing.
	ErrHostPortRequired = errors.New("smtp: host and port are required")
	// ErrNoSender is returned when From is empty.
	ErrNoSender = errors.New("smtp: no sender provided")
	// ErrInvalidHeader is returned when recipient or subject contain line breaks.
	ErrInvalidHeader = errors.New("smtp: header value contains line break")
	// ErrAuthUnsupported is returned when credentials are configured but the server offers no AUTH.
	ErrAuthUnsupported = errors.New("smtp: server does not support AUTH")
)

// Config configures the SMTP sender.
type Config struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port. 465 dials TLS directly; other ports upgrade with STARTTLS when offered.
	Port int
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// From is the sender address.
	From string
	// SenderName is the display name in the From header (default "Security Team").
	SenderName string
	// MaxRetries bounds retries of transient failures. Zero sends once.
	MaxRetries int
	// Backoff is the base exponential backoff between retries.
	Backoff time.Duration
	// Timeout bounds one connection attempt end to end.
	Timeout time.Duration
}

// Sender sends plain-text mail through one SMTP server. Safe for concurrent use.
type Sender struct {
	cfg  Config
	addr string
	auth smtp.Auth
	// tlsConfig is used for implicit TLS and STARTTLS.
	tlsConfig *tls.Config
	nowF      func() time.Time
}

// New constructs an SMTP sender.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, ErrHostPortRequired
	}
	if cfg.From == "" {
		return nil, ErrNoSender
	}
	if cfg.SenderName == "" {
		cfg.SenderName = defaultName
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Sender{
		cfg:       cfg,
		addr:      net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:      auth,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		nowF:      time.Now,
	}, nil
}

// Send delivers one message to recipient. Transient failures are retried with exponential backoff;
// permanent ones (5xx replies such as 535 bad credentials) are returned at once.
func (s *Sender) Send(ctx context.Context, recipient, subject, body string) error {
	if strings.ContainsAny(recipient, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return ErrInvalidHeader
	}
	raw := s.buildMessage(recipient, subject, body)

	b := retry.WithMaxRetries(uint64(s.cfg.MaxRetries), retry.NewExponential(s.cfg.Backoff))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := s.deliver(ctx, recipient, raw)
		if err == nil {
			return nil
		}
		if isTransient(err) {
			slog.WarnContext(ctx, "smtp: transient delivery failure", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *Sender) deliver(ctx context.Context, recipient string, raw []byte) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	deadline := s.nowF().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if s.cfg.Port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig); err != nil {
				return err
			}
		}
	}
	if s.auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return ErrAuthUnsupported
		}
		if err := c.Auth(s.auth); err != nil {
			return err
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(recipient); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	// The server accepted the message; a failed QUIT must not trigger a resend.
	if err := c.Quit(); err != nil {
		slog.WarnContext(ctx, "smtp: quit failed after message accepted", "error", err)
	}
	return nil
}

func (s *Sender) dial(ctx context.Context) (net.Conn, error) {
	nd := &net.Dialer{Timeout: s.cfg.Timeout}
	if s.cfg.Port == implicitTLSPort {
		td := &tls.Dialer{NetDialer: nd, Config: s.tlsConfig}
		return td.DialContext(ctx, "tcp", s.addr)
	}
	return nd.DialContext(ctx, "tcp", s.addr)
}

func (s *Sender) buildMessage(recipient, subject, body string) []byte {
	from := mail.Address{Name: s.cfg.SenderName, Address: s.cfg.From}

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from.String())
	fmt.Fprintf(&sb, "To: %s\r\n", recipient)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	fmt.Fprintf(&sb, "Date: %s\r\n", s.nowF().Format(time.RFC1123Z))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}

// isTransient reports whether err is worth another attempt: network failures and 4xx replies.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code >= 400 && tpErr.Code < 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
