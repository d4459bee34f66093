package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RequestEnvelope is returned by POST /otp/request. It never carries the code.
type RequestEnvelope struct {
	Message     string    `json:"message"`
	ChallengeID string    `json:"challenge_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyEnvelope is returned by POST /otp/verify.
type VerifyEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// DevOTPEnvelope is returned by GET /dev/otp.
type DevOTPEnvelope struct {
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ExpiresAt time.Time `json:"expires_at"`
	Note      string    `json:"note"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
