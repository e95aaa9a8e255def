package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/mobserve/internal/ports"
)

const (
	serviceName    = "mobserve"
	serviceVersion = "1.0.0"
)

var ErrDisabled = errors.New("OTEL exporter is disabled or endpoint not configured")

// Exporter records session reports as OTEL metrics.
type Exporter struct {
	provider         *sdkmetric.MeterProvider
	tokensTotal      metric.Int64Counter
	costTotal        metric.Float64Counter
	durationHist     metric.Float64Histogram
	turnsHist        metric.Int64Histogram
	sessionsTotal    metric.Int64Counter
	toolCallsTotal   metric.Int64Counter
	toolDurationSum  metric.Float64Counter
	transitionsTotal metric.Int64Counter
}

// NewExporter creates an exporter that pushes to an OTLP gRPC collector.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, ErrDisabled
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	e, err := NewExporterWithReader(sdkmetric.NewPeriodicReader(exp), res)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

// NewExporterWithReader builds the instruments on top of any metric reader.
// Tests pass a ManualReader to collect what was recorded.
func NewExporterWithReader(reader sdkmetric.Reader, res *resource.Resource) (*Exporter, error) {
	providerOpts := []sdkmetric.Option{sdkmetric.WithReader(reader)}
	if res != nil {
		providerOpts = append(providerOpts, sdkmetric.WithResource(res))
	}
	provider := sdkmetric.NewMeterProvider(providerOpts...)
	meter := provider.Meter(serviceName)

	e := &Exporter{provider: provider}
	var err error

	if e.tokensTotal, err = meter.Int64Counter(
		"mobserve_session_tokens_total",
		metric.WithDescription("Total tokens used in sessions"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, fmt.Errorf("creating tokens counter: %w", err)
	}

	if e.costTotal, err = meter.Float64Counter(
		"mobserve_session_cost_usd",
		metric.WithDescription("Total estimated cost in USD"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, fmt.Errorf("creating cost counter: %w", err)
	}

	if e.durationHist, err = meter.Float64Histogram(
		"mobserve_session_duration_seconds",
		metric.WithDescription("Session duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	if e.turnsHist, err = meter.Int64Histogram(
		"mobserve_session_turns",
		metric.WithDescription("Number of turns per session"),
		metric.WithUnit("{turn}"),
	); err != nil {
		return nil, fmt.Errorf("creating turns histogram: %w", err)
	}

	if e.sessionsTotal, err = meter.Int64Counter(
		"mobserve_sessions_total",
		metric.WithDescription("Total number of sessions"),
		metric.WithUnit("{session}"),
	); err != nil {
		return nil, fmt.Errorf("creating sessions counter: %w", err)
	}

	if e.toolCallsTotal, err = meter.Int64Counter(
		"mobserve_tool_calls_total",
		metric.WithDescription("Timed tool invocations per tool kind"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, fmt.Errorf("creating tool calls counter: %w", err)
	}

	if e.toolDurationSum, err = meter.Float64Counter(
		"mobserve_tool_duration_seconds_total",
		metric.WithDescription("Time spent in tool invocations per tool kind"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating tool duration counter: %w", err)
	}

	if e.transitionsTotal, err = meter.Int64Counter(
		"mobserve_phase_transitions_total",
		metric.WithDescription("Workflow phase transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	return e, nil
}

// ExportSessionMetrics records the report of a completed session.
func (e *Exporter) ExportSessionMetrics(ctx context.Context, r *ports.SessionReport) error {
	opt := metric.WithAttributes(
		attribute.String("model", r.Model),
		attribute.String("final_phase", r.FinalPhase),
	)

	e.tokensTotal.Add(ctx, r.TokenInput+r.TokenOutput, opt)
	e.costTotal.Add(ctx, r.CostEstimateUSD, opt)
	e.durationHist.Record(ctx, r.DurationSeconds, opt)
	e.turnsHist.Record(ctx, r.TurnCount, opt)
	e.sessionsTotal.Add(ctx, 1, opt)
	e.transitionsTotal.Add(ctx, r.PhaseTransitions, opt)

	for _, tool := range r.Tools {
		toolOpt := metric.WithAttributes(attribute.String("tool", tool.Name))
		e.toolCallsTotal.Add(ctx, tool.Calls, toolOpt)
		e.toolDurationSum.Add(ctx, tool.TotalSeconds, toolOpt)
	}

	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
