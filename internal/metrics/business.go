package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Carrier quote outcomes.
const (
	CarrierLive     = "live"
	CarrierFallback = "fallback"
	CarrierExcluded = "excluded"
)

// BusinessMetrics records use-case outcomes and per-carrier quote results.
type BusinessMetrics interface {
	// RecordOperation counts one use-case run; reason is a reason code or "success".
	RecordOperation(ctx context.Context, operation, reason string)
	RecordDuration(ctx context.Context, operation string, d time.Duration, reason string)
	RecordCarrierQuote(ctx context.Context, carrier, outcome string)
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
	quotes     metric.Int64Counter
}

func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Shipping operations by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Shipping operation duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	quotes, err := meter.Int64Counter(
		fmt.Sprintf("%s_carrier_quotes_total", namespace),
		metric.WithDescription("Carrier quote results: live, fallback or excluded"),
		metric.WithUnit("{quote}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create carrier quote counter: %w", err)
	}

	return &businessMetrics{operations: operations, durations: durations, quotes: quotes}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, operation, reason string) {
	b.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("reason", reason),
	))
}

func (b *businessMetrics) RecordDuration(ctx context.Context, operation string, d time.Duration, reason string) {
	b.durations.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("reason", reason),
	))
}

func (b *businessMetrics) RecordCarrierQuote(ctx context.Context, carrier, outcome string) {
	b.quotes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("carrier", carrier),
		attribute.String("outcome", outcome),
	))
}

// NoOpBusinessMetrics discards everything; used in tests and when metrics are disabled.
type NoOpBusinessMetrics struct{}

func NewNoOpBusinessMetrics() BusinessMetrics { return NoOpBusinessMetrics{} }

func (NoOpBusinessMetrics) RecordOperation(context.Context, string, string)               {}
func (NoOpBusinessMetrics) RecordDuration(context.Context, string, time.Duration, string) {}
func (NoOpBusinessMetrics) RecordCarrierQuote(context.Context, string, string)            {}
