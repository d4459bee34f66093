// Package server assembles the HTTP API: routes, middleware, and tracing.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	healthhandler "zero-trust-otp/backend/internal/health/handler"
	otphandler "zero-trust-otp/backend/internal/otp/handler"
	"zero-trust-otp/backend/internal/server/middleware"
)

// Deps holds the handlers mounted by NewRouter.
type Deps struct {
	// OTP serves /otp/request and /otp/verify (also under /api/otp). Required.
	OTP *otphandler.Handler
	// Health serves / and /healthz. Required.
	Health *healthhandler.Handler
	// Dev serves GET /dev/otp. If nil, the route is not registered. Set only in outbox mode outside production.
	Dev *otphandler.DevHandler
	// AllowedOrigins are the CORS origins; empty allows none.
	AllowedOrigins []string
}

// NewRouter builds the API router and wraps it with otelhttp.
//
// Route map:
//   - GET  /            → health.Root
//   - GET  /healthz     → health.Healthz
//   - POST /otp/request → otp.Request   (and /api/otp/request)
//   - POST /otp/verify  → otp.Verify    (and /api/otp/verify)
//   - GET  /dev/otp     → dev.GetOTP    (outbox mode only)
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.RequestLog(map[string]bool{"/healthz": true}))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", deps.Health.Root)
	r.Get("/healthz", deps.Health.Healthz)
	r.Mount("/otp", deps.OTP.Routes())
	r.Mount("/api/otp", deps.OTP.Routes())
	if deps.Dev != nil {
		r.Get("/dev/otp", deps.Dev.GetOTP)
	}

	return otelhttp.NewHandler(r, "otp-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
