package otel

import (
	"context"
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

	"github.com/emiliopalmerini/soilstab/internal/ports"
)

const (
	serviceName    = "soilstab"
	serviceVersion = "1.0.0"
)

// Exporter exports recommendation metrics to an OTEL Collector.
type Exporter struct {
	provider        *sdkmetric.MeterProvider
	recommendations metric.Int64Counter
	rejections      metric.Int64Counter
	strengthHist    metric.Float64Histogram
	costHist        metric.Float64Histogram
	durationHist    metric.Float64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
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

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	e, err := newExporter(provider)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}
	return e, nil
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	recommendations, err := meter.Int64Counter(
		"soilstab_recommendations_total",
		metric.WithDescription("Total recommendations computed"),
		metric.WithUnit("{recommendation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recommendations counter: %w", err)
	}

	rejections, err := meter.Int64Counter(
		"soilstab_validation_failures_total",
		metric.WithDescription("Rejected input fields"),
		metric.WithUnit("{field}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejections counter: %w", err)
	}

	strengthHist, err := meter.Float64Histogram(
		"soilstab_predicted_strength_kpa",
		metric.WithDescription("Predicted unconfined compressive strength"),
		metric.WithUnit("kPa"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating strength histogram: %w", err)
	}

	costHist, err := meter.Float64Histogram(
		"soilstab_estimated_cost",
		metric.WithDescription("Estimated treatment cost per cubic metre"),
		metric.WithUnit("{cost}/m3"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cost histogram: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"soilstab_recommendation_duration_seconds",
		metric.WithDescription("Time spent validating and computing a recommendation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Exporter{
		provider:        provider,
		recommendations: recommendations,
		rejections:      rejections,
		strengthHist:    strengthHist,
		costHist:        costHist,
		durationHist:    durationHist,
	}, nil
}

// ExportRecommendation records one computed recommendation.
func (e *Exporter) ExportRecommendation(ctx context.Context, m *ports.RecommendationMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("method", string(m.Method)),
		attribute.String("source", m.Source),
		attribute.Bool("eco_preferred", m.EcoPreferred),
		attribute.Bool("meets_target", m.MeetsTarget),
		attribute.Bool("within_budget", m.WithinBudget),
	)

	e.recommendations.Add(ctx, 1, opt)
	e.strengthHist.Record(ctx, m.PredictedStrengthKPa, opt)
	e.costHist.Record(ctx, m.EstimatedCost, opt)
	e.durationHist.Record(ctx, m.DurationSeconds, opt)
	return nil
}

// ExportRejection counts each rejected field once.
func (e *Exporter) ExportRejection(ctx context.Context, fields []string) error {
	for _, f := range fields {
		e.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("field", f)))
	}
	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
