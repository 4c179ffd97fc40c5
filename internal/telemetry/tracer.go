// Package telemetry supplies an optional otel tracer for the forge and the
// axis pipeline. Callers that don't configure a real TracerProvider get a
// no-op tracer; this is additive instrumentation, never the source of truth
// for metrics (see internal/retryx.MetricsRegistry for that).
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName identifies genforge's spans to any configured exporter.
const TracerName = "genforge"

// Settings controls whether tracing is active and lets a caller inject a
// custom TracerProvider.
type Settings struct {
	Enabled  bool
	Provider trace.TracerProvider
}

// Tracer returns a tracer for the given settings. A nil Settings or
// disabled Settings yields a no-op tracer.
func Tracer(settings *Settings) trace.Tracer {
	if settings == nil || !settings.Enabled {
		return noop.NewTracerProvider().Tracer(TracerName)
	}
	if settings.Provider != nil {
		return settings.Provider.Tracer(TracerName)
	}
	return otel.Tracer(TracerName)
}
