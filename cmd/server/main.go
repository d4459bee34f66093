// Server exposes OTP request and verification over HTTP.
// Set DELIVERY_MODE and the matching SMTP_* or WEBHOOK_* variables; DATABASE_URL enables the audit log.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zero-trust-otp/backend/internal/audit"
	auditrepo "zero-trust-otp/backend/internal/audit/repository"
	"zero-trust-otp/backend/internal/config"
	"zero-trust-otp/backend/internal/db"
	"zero-trust-otp/backend/internal/delivery"
	healthhandler "zero-trust-otp/backend/internal/health/handler"
	"zero-trust-otp/backend/internal/otp"
	otphandler "zero-trust-otp/backend/internal/otp/handler"
	otprepo "zero-trust-otp/backend/internal/otp/repository"
	otpservice "zero-trust-otp/backend/internal/otp/service"
	"zero-trust-otp/backend/internal/server"
	"zero-trust-otp/backend/internal/server/middleware"
	telemetryotel "zero-trust-otp/backend/internal/telemetry/otel"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	telemetryotel.InitLogging(os.Stdout, cfg.ServiceName, providers.LoggerProvider)

	metrics, err := telemetryotel.NewMetrics(providers.MeterProvider)
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	var database *sql.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer database.Close()
	} else {
		slog.Warn("DATABASE_URL not set; audit log disabled")
	}

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
	opts := []otpservice.Option{otpservice.WithMetrics(metrics, cfg.DeliveryMode)}
	var auditLogger *audit.AsyncLogger
	if database != nil {
		auditLogger = audit.NewAsyncLogger(audit.NewLogger(auditrepo.NewPostgresRepository(database), middleware.ClientIPFromContext))
		opts = append(opts, otpservice.WithAuditLogger(auditLogger))
	}
	svc := otpservice.NewOTPService(issuer, otp.NewVerifier(window), otprepo.NewMemoryRepository(), opts...)

	deps := server.Deps{
		OTP:            otphandler.NewHandler(svc),
		Health:         healthhandler.NewHandler(nil),
		AllowedOrigins: cfg.AllowedOrigins(),
	}
	if database != nil {
		deps.Health = healthhandler.NewHandler(database)
	}
	if ob != nil {
		slog.Warn("DELIVERY_MODE=outbox: codes are readable at /dev/otp; never enable outside development")
		deps.Dev = otphandler.NewDevHandler(ob)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", cfg.HTTPAddr, "delivery_mode", cfg.DeliveryMode, "window", window.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
	if auditLogger != nil {
		if err := auditLogger.Drain(shutdownCtx); err != nil {
			slog.Error("audit drain", "error", err)
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		slog.Error("telemetry shutdown", "error", err)
	}
}
