package ports

import (
	"context"

	"github.com/emiliopalmerini/soilstab/internal/domain"
)

// MetricsExporter exports recommendation metrics to an observability system.
type MetricsExporter interface {
	// ExportRecommendation records one computed recommendation.
	ExportRecommendation(ctx context.Context, m *RecommendationMetrics) error
	// ExportRejection records a submission that failed validation.
	ExportRejection(ctx context.Context, fields []string) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// RecommendationMetrics is the subset of a submission worth exporting.
type RecommendationMetrics struct {
	Source       string
	Method       domain.Method
	EcoPreferred bool
	MeetsTarget  bool
	WithinBudget bool

	PredictedStrengthKPa float64
	EstimatedCost        float64
	DurationSeconds      float64
}
