package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"zero-trust-otp/backend/internal/delivery/outbox"
	"zero-trust-otp/backend/internal/otp"
	"zero-trust-otp/backend/internal/otp/domain"
	"zero-trust-otp/backend/internal/otp/repository"
	"zero-trust-otp/backend/internal/otp/service"
)

type fakeService struct {
	requestErr error
	result     domain.Result
	verifyErr  error
	gotEmail   string
	gotCode    string
}

func (f *fakeService) Request(ctx context.Context, recipient string) (*service.IssueResult, error) {
	f.gotEmail = recipient
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &service.IssueResult{
		ChallengeID: "challenge-1",
		Recipient:   recipient,
		ExpiresAt:   time.Date(2025, 1, 1, 12, 5, 0, 0, time.UTC),
	}, nil
}

func (f *fakeService) Verify(ctx context.Context, recipient, candidate string) (domain.Result, error) {
	f.gotEmail, f.gotCode = recipient, candidate
	return f.result, f.verifyErr
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHandler_Request_Success(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, NewHandler(svc).Routes(), http.MethodPost, "/request", `{"email":"user@example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	m := decodeBody(t, rec)
	if m["message"] != msgOTPSent {
		t.Errorf("message = %v, want %q", m["message"], msgOTPSent)
	}
	if m["challenge_id"] != "challenge-1" {
		t.Errorf("challenge_id = %v, want challenge-1", m["challenge_id"])
	}
	if m["expires_at"] != "2025-01-01T12:05:00Z" {
		t.Errorf("expires_at = %v", m["expires_at"])
	}
	if svc.gotEmail != "user@example.com" {
		t.Errorf("email = %q, want user@example.com", svc.gotEmail)
	}
}

func TestHandler_Request_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"malformed body", `{"email":`, nil, http.StatusBadRequest, errInvalidBody},
		{"missing email", `{}`, nil, http.StatusBadRequest, errEmailRequired},
		{"blank email", `{"email":"  "}`, nil, http.StatusBadRequest, errEmailRequired},
		{"invalid email", `{"email":"nope"}`, service.ErrInvalidRecipient, http.StatusBadRequest, errEmailInvalid},
		{"delivery failure", `{"email":"user@example.com"}`, &otp.DeliveryError{Recipient: "user@example.com", Err: errors.New("535")}, http.StatusBadGateway, errSendFailed},
		{"other failure", `{"email":"user@example.com"}`, errors.New("store down"), http.StatusInternalServerError, errSendFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, NewHandler(&fakeService{requestErr: tc.err}).Routes(), http.MethodPost, "/request", tc.body)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if m := decodeBody(t, rec); m["error"] != tc.wantError {
				t.Errorf("error = %v, want %q", m["error"], tc.wantError)
			}
		})
	}
}

func TestHandler_Verify_Accepted(t *testing.T) {
	svc := &fakeService{result: domain.Accepted()}
	rec := do(t, NewHandler(svc).Routes(), http.MethodPost, "/verify", `{"email":"user@example.com","code":"123456"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	m := decodeBody(t, rec)
	if m["success"] != true || m["message"] != msgLoginSuccess {
		t.Errorf("body = %v", m)
	}
	if _, ok := m["reason"]; ok {
		t.Error("reason should be omitted on success")
	}
	if svc.gotCode != "123456" {
		t.Errorf("code = %q, want 123456", svc.gotCode)
	}
}

func TestHandler_Verify_Rejected(t *testing.T) {
	rec := do(t, NewHandler(&fakeService{result: domain.Rejected(domain.ReasonExpired)}).Routes(),
		http.MethodPost, "/verify", `{"email":"user@example.com","code":"123456"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	m := decodeBody(t, rec)
	if m["success"] != false || m["message"] != msgLoginFailed || m["reason"] != "expired" {
		t.Errorf("body = %v", m)
	}
}

func TestHandler_Verify_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"malformed body", `not json`, nil, http.StatusBadRequest},
		{"missing code", `{"email":"user@example.com"}`, nil, http.StatusBadRequest},
		{"missing email", `{"code":"123456"}`, nil, http.StatusBadRequest},
		{"invalid email", `{"email":"x","code":"123456"}`, service.ErrInvalidRecipient, http.StatusBadRequest},
		{"repository failure", `{"email":"user@example.com","code":"123456"}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, NewHandler(&fakeService{verifyErr: tc.err}).Routes(), http.MethodPost, "/verify", tc.body)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestHandler_Request_BodyTooLarge(t *testing.T) {
	big := `{"email":"` + string(bytes.Repeat([]byte("a"), maxBodyBytes)) + `@example.com"}`
	rec := do(t, NewHandler(&fakeService{}).Routes(), http.MethodPost, "/request", big)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_EndToEnd_WithOutbox(t *testing.T) {
	window := 300 * time.Second
	ob := outbox.New(window)
	svc := service.NewOTPService(
		otp.NewIssuer(ob, otp.IssuerConfig{Window: window}),
		otp.NewVerifier(window),
		repository.NewMemoryRepository(),
	)
	routes := NewHandler(svc).Routes()
	dev := NewDevHandler(ob)

	if rec := do(t, routes, http.MethodPost, "/request", `{"email":"user@example.com"}`); rec.Code != http.StatusOK {
		t.Fatalf("request status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	dev.GetOTP(rec, httptest.NewRequest(http.MethodGet, "/dev/otp?email=user@example.com", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("dev status = %d", rec.Code)
	}
	m := decodeBody(t, rec)
	if m["note"] != devOTPNote {
		t.Errorf("note = %v, want %q", m["note"], devOTPNote)
	}
	code := regexp.MustCompile(`login is: (\d{6})`).FindStringSubmatch(m["body"].(string))
	if code == nil {
		t.Fatalf("body %q does not contain a code", m["body"])
	}

	if rec := do(t, routes, http.MethodPost, "/verify", `{"email":"user@example.com","code":"`+code[1]+`"}`); rec.Code != http.StatusOK {
		t.Errorf("verify status = %d, want 200", rec.Code)
	}
	if rec := do(t, routes, http.MethodPost, "/verify", `{"email":"user@example.com","code":"`+code[1]+`"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", rec.Code)
	}
}

func TestDevHandler_GetOTP_Errors(t *testing.T) {
	dev := NewDevHandler(outbox.New(time.Minute))

	rec := httptest.NewRecorder()
	dev.GetOTP(rec, httptest.NewRequest(http.MethodGet, "/dev/otp", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing email status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	dev.GetOTP(rec, httptest.NewRequest(http.MethodGet, "/dev/otp?email=nobody@example.com", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown email status = %d, want 404", rec.Code)
	}
}
