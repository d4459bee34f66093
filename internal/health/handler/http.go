// Package handler serves liveness and readiness over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger checks a dependency, e.g. *sql.DB for the audit log.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler reports service health for load balancers, Kubernetes, and CI.
type Handler struct {
	pinger Pinger
}

// NewHandler returns a health handler. pinger may be nil; then readiness skips the DB check.
func NewHandler(pinger Pinger) *Handler {
	return &Handler{pinger: pinger}
}

type statusBody struct {
	Status string `json:"status"`
}

// Healthz returns 200 {"status":"ok"}, or 503 {"status":"unavailable"} when the pinger fails.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, statusBody{Status: "ok"}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			slog.WarnContext(r.Context(), "health: ping failed", "error", err)
			status, body = http.StatusServiceUnavailable, statusBody{Status: "unavailable"}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Root returns the API banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "API is working!"})
}
