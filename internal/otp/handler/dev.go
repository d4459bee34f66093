package handler

import (
	"context"
	"net/http"
	"strings"

	"zero-trust-otp/backend/internal/delivery/outbox"
)

const devOTPNote = "DEV MODE ONLY"

// OutboxReader returns the last captured email for a recipient.
type OutboxReader interface {
	Get(ctx context.Context, recipient string) (outbox.Message, bool)
}

// DevHandler serves GET /dev/otp from the outbox. Only mounted when DELIVERY_MODE=outbox and not production.
type DevHandler struct {
	outbox OutboxReader
}

// NewDevHandler returns a DevHandler reading from ob.
func NewDevHandler(ob OutboxReader) *DevHandler {
	return &DevHandler{outbox: ob}
}

// GetOTP returns the last OTP email sent to ?email=. 404 if missing or expired.
func (h *DevHandler) GetOTP(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, errEmailRequired)
		return
	}
	msg, ok := h.outbox.Get(r.Context(), email)
	if !ok {
		writeError(w, http.StatusNotFound, "OTP not found or expired")
		return
	}
	writeJSON(w, http.StatusOK, DevOTPEnvelope{
		Subject:   msg.Subject,
		Body:      msg.Body,
		ExpiresAt: msg.ExpiresAt.UTC(),
		Note:      devOTPNote,
	})
}
