// Package otel binds jwtauth engine metrics to OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter and a gauge
// per latency bucket plus count and sum gauges. One callback reads
// [jwtauth.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
