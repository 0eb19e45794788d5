package ports_test

import (
	"testing"

	"github.com/emiliopalmerini/soilstab/internal/adapters/otel"
	"github.com/emiliopalmerini/soilstab/internal/adapters/prometheus"
	"github.com/emiliopalmerini/soilstab/internal/adapters/turso"
	"github.com/emiliopalmerini/soilstab/internal/ports"
)

// Compile-time interface conformance checks.
// These verify that concrete adapters properly implement their port interfaces.

func TestHistoryRepositoryConformance(t *testing.T) {
	var _ ports.HistoryRepository = (*turso.HistoryRepository)(nil)
}

func TestOTelExporterConformance(t *testing.T) {
	var _ ports.MetricsExporter = (*otel.Exporter)(nil)
	var _ ports.MetricsExporter = (*otel.NoOpExporter)(nil)
}

func TestPrometheusCollectorConformance(t *testing.T) {
	var _ ports.MetricsExporter = (*prometheus.Collector)(nil)
}
