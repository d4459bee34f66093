package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"zero-trust-otp/backend/internal/delivery/outbox"
	"zero-trust-otp/backend/internal/otp"
	"zero-trust-otp/backend/internal/otp/domain"
	otprepo "zero-trust-otp/backend/internal/otp/repository"
	otpservice "zero-trust-otp/backend/internal/otp/service"
)

const fixedCode = "482913"

func newTestService(t *testing.T, d otp.Delivery) *otpservice.OTPService {
	t.Helper()
	issuer := otp.NewIssuer(d, otp.IssuerConfig{Window: 300 * time.Second},
		otp.WithGenerator(func() (domain.Code, error) { return fixedCode, nil }))
	return otpservice.NewOTPService(issuer, otp.NewVerifier(300*time.Second), otprepo.NewMemoryRepository())
}

type failingDelivery struct{}

func (failingDelivery) Send(context.Context, string, string, string) error {
	return context.DeadlineExceeded
}

func TestRun_LoginSuccessful(t *testing.T) {
	ob := outbox.New(time.Minute)
	svc := newTestService(t, ob)
	var out bytes.Buffer

	ok := run(context.Background(), svc, ob, strings.NewReader("User@Example.com\n"+fixedCode+"\n"), &out)
	if !ok {
		t.Fatalf("run = false, output:\n%s", out.String())
	}
	got := out.String()
	if !strings.Contains(got, "OTP has been sent to user@example.com") {
		t.Errorf("output missing send confirmation:\n%s", got)
	}
	if !strings.Contains(got, "[DEV MODE ONLY]") || !strings.Contains(got, fixedCode) {
		t.Errorf("output should echo the outbox message in outbox mode:\n%s", got)
	}
	if !strings.HasSuffix(got, "Login successful!\n") {
		t.Errorf("output should end with success message:\n%s", got)
	}
}

func TestRun_WrongCode(t *testing.T) {
	ob := outbox.New(time.Minute)
	svc := newTestService(t, ob)
	var out bytes.Buffer

	if run(context.Background(), svc, nil, strings.NewReader("user@example.com\n000000\n"), &out) {
		t.Fatal("run = true for a wrong code")
	}
	if !strings.HasSuffix(out.String(), "Invalid OTP or OTP expired. Please try again.\n") {
		t.Errorf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "[DEV MODE ONLY]") {
		t.Error("message should not be echoed without an outbox")
	}
}

func TestRun_CodeNotTrimmed(t *testing.T) {
	ob := outbox.New(time.Minute)
	svc := newTestService(t, ob)
	var out bytes.Buffer

	if run(context.Background(), svc, nil, strings.NewReader("user@example.com\n "+fixedCode+"\n"), &out) {
		t.Fatal("run = true for a code with a leading space")
	}
}

func TestRun_CRLFInput(t *testing.T) {
	ob := outbox.New(time.Minute)
	svc := newTestService(t, ob)
	var out bytes.Buffer

	if !run(context.Background(), svc, nil, strings.NewReader("user@example.com\r\n"+fixedCode+"\r\n"), &out) {
		t.Fatalf("run = false for CRLF input, output:\n%s", out.String())
	}
}

func TestRun_EmptyEmail(t *testing.T) {
	svc := newTestService(t, outbox.New(time.Minute))
	var out bytes.Buffer

	if run(context.Background(), svc, nil, strings.NewReader("\n"), &out) {
		t.Fatal("run = true for empty email")
	}
	if !strings.Contains(out.String(), "Email is required") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_InvalidEmail(t *testing.T) {
	svc := newTestService(t, outbox.New(time.Minute))
	var out bytes.Buffer

	if run(context.Background(), svc, nil, strings.NewReader("not-an-email\n"), &out) {
		t.Fatal("run = true for invalid email")
	}
	if !strings.Contains(out.String(), "Valid email is required") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_DeliveryFailure(t *testing.T) {
	svc := newTestService(t, failingDelivery{})
	var out bytes.Buffer

	if run(context.Background(), svc, nil, strings.NewReader("user@example.com\n"+fixedCode+"\n"), &out) {
		t.Fatal("run = true when delivery fails")
	}
	if !strings.Contains(out.String(), "Failed to send email:") {
		t.Errorf("output = %q", out.String())
	}
	if strings.Contains(out.String(), "Enter the OTP") {
		t.Error("should not prompt for a code after a delivery failure")
	}
}
