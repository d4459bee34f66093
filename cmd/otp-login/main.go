// otp-login runs one interactive email OTP login: it asks for an address, sends a code,
// asks for the code back and reports whether the login succeeded. Exit status is 0 on success, 1 otherwise.
// Uses the same DELIVERY_MODE and SMTP_*/WEBHOOK_* settings as the server.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"zero-trust-otp/backend/internal/config"
	"zero-trust-otp/backend/internal/delivery"
	"zero-trust-otp/backend/internal/delivery/outbox"
	"zero-trust-otp/backend/internal/otp"
	"zero-trust-otp/backend/internal/otp/domain"
	otprepo "zero-trust-otp/backend/internal/otp/repository"
	otpservice "zero-trust-otp/backend/internal/otp/service"
	telemetryotel "zero-trust-otp/backend/internal/telemetry/otel"
)

const (
	msgLoginOK     = "Login successful!"
	msgLoginFailed = "Invalid OTP or OTP expired. Please try again."
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Keep structured logs off the interactive terminal.
	telemetryotel.InitLogging(os.Stderr, cfg.ServiceName, nil)

	sender, ob, err := delivery.New(cfg)
	if err != nil {
		log.Fatalf("delivery: %v", err)
	}
	window := cfg.ValidityWindow()
	issuer := otp.NewIssuer(sender, otp.IssuerConfig{
		Window:    window,
		Subject:   cfg.OTPEmailSubject,
		Signature: cfg.OTPSignature,
	})
	svc := otpservice.NewOTPService(issuer, otp.NewVerifier(window), otprepo.NewMemoryRepository())

	if !run(context.Background(), svc, ob, os.Stdin, os.Stdout) {
		os.Exit(1)
	}
}

type loginService interface {
	Request(ctx context.Context, recipient string) (*otpservice.IssueResult, error)
	Verify(ctx context.Context, recipient, candidate string) (domain.Result, error)
}

// run drives one login over in/out and reports whether it succeeded.
// ob is non-nil only in outbox mode, where the delivered message is echoed since nothing leaves the process.
func run(ctx context.Context, svc loginService, ob *outbox.Store, in io.Reader, out io.Writer) bool {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "Enter your email address: ")
	email, ok := readLine(scanner)
	if !ok || strings.TrimSpace(email) == "" {
		fmt.Fprintln(out, "Email is required")
		return false
	}

	res, err := svc.Request(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, otpservice.ErrInvalidRecipient):
			fmt.Fprintln(out, "Valid email is required")
		case errors.Is(err, otp.ErrDelivery):
			fmt.Fprintf(out, "Failed to send email: %v\n", err)
		default:
			slog.Error("otp request failed", "error", err)
			fmt.Fprintln(out, "Failed to send OTP")
		}
		return false
	}
	fmt.Fprintf(out, "OTP has been sent to %s\n", res.Recipient)
	if ob != nil {
		if msg, found := ob.Get(ctx, res.Recipient); found {
			fmt.Fprintf(out, "[DEV MODE ONLY] %s\n%s\n", msg.Subject, msg.Body)
		}
	}

	fmt.Fprint(out, "Enter the OTP sent to your email: ")
	code, _ := readLine(scanner)

	result, err := svc.Verify(ctx, res.Recipient, code)
	if err != nil {
		slog.Error("otp verify failed", "error", err)
		fmt.Fprintln(out, msgLoginFailed)
		return false
	}
	if !result.Accepted {
		fmt.Fprintln(out, msgLoginFailed)
		return false
	}
	fmt.Fprintln(out, msgLoginOK)
	return true
}

// readLine returns the next line without its terminator. The code line is compared as typed.
func readLine(s *bufio.Scanner) (string, bool) {
	if !s.Scan() {
		return "", false
	}
	return strings.TrimSuffix(s.Text(), "\r"), true
}
