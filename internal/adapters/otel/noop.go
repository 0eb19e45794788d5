package otel

import (
	"context"

	"github.com/emiliopalmerini/soilstab/internal/ports"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) ExportRecommendation(ctx context.Context, m *ports.RecommendationMetrics) error {
	return nil
}

func (e *NoOpExporter) ExportRejection(ctx context.Context, fields []string) error {
	return nil
}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
