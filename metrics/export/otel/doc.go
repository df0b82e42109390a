// Package otel binds authcore engine counters to OpenTelemetry metric
// instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter
// plus the audit backpressure counter. A single callback reads
// [authcore.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
