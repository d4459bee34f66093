package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "zero-trust-otp/backend/otp"

// Metrics records OTP lifecycle counters. A nil *Metrics records nothing.
type Metrics struct {
	issued           metric.Int64Counter
	deliveryFailures metric.Int64Counter
	verifications    metric.Int64Counter
}

// NewMetrics registers the OTP counters on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	issued, err := meter.Int64Counter("otp.issued",
		metric.WithDescription("OTP challenges issued and delivered"))
	if err != nil {
		return nil, err
	}
	deliveryFailures, err := meter.Int64Counter("otp.delivery_failures",
		metric.WithDescription("OTP emails that could not be delivered"))
	if err != nil {
		return nil, err
	}
	verifications, err := meter.Int64Counter("otp.verifications",
		metric.WithDescription("OTP verification attempts by outcome and reason"))
	if err != nil {
		return nil, err
	}
	return &Metrics{issued: issued, deliveryFailures: deliveryFailures, verifications: verifications}, nil
}

// Issued counts one delivered challenge.
func (m *Metrics) Issued(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.issued.Add(ctx, 1, metric.WithAttributes(attribute.String("delivery.mode", mode)))
}

// DeliveryFailed counts one failed delivery.
func (m *Metrics) DeliveryFailed(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.deliveryFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("delivery.mode", mode)))
}

// Verified counts one verification with its outcome ("accepted"/"rejected") and reason.
func (m *Metrics) Verified(ctx context.Context, outcome, reason string) {
	if m == nil {
		return
	}
	m.verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	))
}
