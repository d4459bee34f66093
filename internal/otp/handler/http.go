// Package handler exposes the OTP request/verify flow over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"zero-trust-otp/backend/internal/otp"
	"zero-trust-otp/backend/internal/otp/domain"
	"zero-trust-otp/backend/internal/otp/service"
)

const maxBodyBytes = 1 << 16

const (
	msgOTPSent        = "OTP sent to email"
	msgLoginSuccess   = "Login successful!"
	msgLoginFailed    = "Invalid OTP or OTP expired. Please try again."
	errEmailRequired  = "Email is required"
	errEmailInvalid   = "Valid email is required"
	errFieldsRequired = "Email and code are required"
	errSendFailed     = "Failed to send OTP"
	errVerifyFailed   = "Verification failed"
	errInvalidBody    = "invalid request body"
)

// OTPService is the flow the handler drives; *service.OTPService implements it.
type OTPService interface {
	Request(ctx context.Context, recipient string) (*service.IssueResult, error)
	Verify(ctx context.Context, recipient, candidate string) (domain.Result, error)
}

// Handler serves POST /request and POST /verify.
type Handler struct {
	svc OTPService
}

// NewHandler returns a Handler over svc.
func NewHandler(svc OTPService) *Handler {
	return &Handler{svc: svc}
}

// Routes returns a router with the OTP endpoints, to be mounted under /otp.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/request", h.Request)
	r.Post("/verify", h.Verify)
	return r
}

type requestBody struct {
	Email string `json:"email"`
}

type verifyBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Request issues a code to the posted email address.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, errEmailRequired)
		return
	}

	res, err := h.svc.Request(r.Context(), body.Email)
	switch {
	case errors.Is(err, service.ErrInvalidRecipient):
		writeError(w, http.StatusBadRequest, errEmailInvalid)
		return
	case errors.Is(err, otp.ErrDelivery):
		writeError(w, http.StatusBadGateway, errSendFailed)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "otp handler: request failed", "error", err)
		writeError(w, http.StatusInternalServerError, errSendFailed)
		return
	}

	writeJSON(w, http.StatusOK, RequestEnvelope{
		Message:     msgOTPSent,
		ChallengeID: res.ChallengeID,
		ExpiresAt:   res.ExpiresAt,
	})
}

// Verify checks the posted code for the posted email address.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var body verifyBody
	if err := decode(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Code == "" {
		writeError(w, http.StatusBadRequest, errFieldsRequired)
		return
	}

	res, err := h.svc.Verify(r.Context(), body.Email, body.Code)
	switch {
	case errors.Is(err, service.ErrInvalidRecipient):
		writeError(w, http.StatusBadRequest, errEmailInvalid)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "otp handler: verify failed", "error", err)
		writeError(w, http.StatusInternalServerError, errVerifyFailed)
		return
	}

	if !res.Accepted {
		writeJSON(w, http.StatusUnauthorized, VerifyEnvelope{
			Success: false,
			Message: msgLoginFailed,
			Reason:  string(res.Reason),
		})
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Success: true, Message: msgLoginSuccess})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
